package fse

import "log"

// debug gates internal consistency assertions that are too expensive (or
// too noisy) to run unconditionally. Flip to true and rebuild to make
// EncodeBlock check that the encoder's final state lies in
// [table_size, 2*table_size). The decoder's terminal-state check runs in
// every build. println/printf log only while debug is true; no code in
// the package calls them.
const debug = false

func println(a ...interface{}) {
	if debug {
		log.Println(a...)
	}
}

func printf(format string, a ...interface{}) {
	if debug {
		log.Printf(format, a...)
	}
}
