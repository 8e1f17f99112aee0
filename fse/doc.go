// Package fse implements a Finite State Entropy (tANS) codec: an order-0
// entropy coder over an 8-bit alphabet that represents a symbol sequence as
// a single integer state evolving through a precomputed transition table.
//
// The package exposes EncodeStream and DecodeStream as the two public,
// self-contained operations. Everything else (Parameters, Tables, the block
// encode/decode state machines, the two bit-I/O orderings) is exported so a
// caller can build and reuse a Tables value across many blocks, but most
// callers only need EncodeStream/DecodeStream.
package fse
