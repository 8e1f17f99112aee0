package fse

import (
	"bytes"
	"testing"
)

func FuzzEncodeDecodeStream(f *testing.F) {
	f.Add([]byte{}, uint8(12), uint32(0))
	f.Add([]byte("a"), uint8(1), uint32(0))
	f.Add([]byte("hello, hello, hello, world"), uint8(10), uint32(8))
	f.Add(bytes.Repeat([]byte{0x42}, 300), uint8(15), uint32(64))

	f.Fuzz(func(t *testing.T, data []byte, tableLog uint8, blockSize uint32) {
		var opts []EncodeOption
		if tableLog >= minTableLog && tableLog <= maxTableLog {
			opts = append(opts, WithTableLog(tableLog))
		}
		opts = append(opts, WithBlockSize(blockSize))

		enc, err := EncodeStream(data, opts...)
		if err != nil {
			// Only a declared validation error is acceptable; anything
			// else (e.g. a panic) fails the fuzz run on its own.
			return
		}
		got, err := DecodeStream(enc)
		if err != nil {
			t.Fatalf("DecodeStream failed on our own encoder output: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip mismatch: got %v, want %v", got, data)
		}
	})
}

func FuzzDecodeStreamNeverPanics(f *testing.F) {
	seed, err := EncodeStream([]byte("seed corpus for decode-only fuzzing, needs some repeated structure"))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{1, 2, 3})

	f.Fuzz(func(t *testing.T, input []byte) {
		// DecodeStream must never panic on arbitrary bytes; a returned
		// error is the only acceptable failure mode.
		_, _ = DecodeStream(input)
	})
}
