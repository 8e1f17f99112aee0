package fse

import "fmt"

// EncodeBlock runs the tANS encode state machine over
// symbols using tbl, in the given bit ordering, and returns the payload
// bytes plus the exact number of bits written. The returned bit count is
// authoritative; len(payload) == ceil(bitCount/8).
func EncodeBlock(ordering Ordering, tbl *Tables, symbols []byte) (payload []byte, bitCount uint64, err error) {
	w, err := newBitWriter(ordering, nil)
	if err != nil {
		return nil, 0, err
	}
	if err := encodeBlockInto(w, tbl, symbols); err != nil {
		return nil, 0, err
	}
	out, bits := w.Finish()
	return out, bits, nil
}

// encodeBlockInto is generic over the concrete BitWriter implementation.
// EncodeBlock always instantiates it with the BitWriter interface type
// (the ordering is only known at runtime there), so this loop still
// dispatches through the interface; a caller that does know its
// ordering at compile time can instantiate encodeBlockInto[*msbWriter]
// or [*lsbWriter] directly to get a monomorphized, inlined hot loop.
func encodeBlockInto[W BitWriter](w W, tbl *Tables, symbols []byte) error {
	w.AppendBits(uint32(len(symbols)), dataBlockSizeBits)
	if len(symbols) == 0 {
		return nil
	}

	tableLog := tbl.params.TableLog
	state := tbl.params.InitialState()

	type chunk struct {
		value uint32
		n     uint8
	}
	chunks := make([]chunk, len(symbols))
	for i := len(symbols) - 1; i >= 0; i-- {
		tr := tbl.symTT[symbols[i]]
		nbOut := (state + tr.deltaNbBits) >> 16
		var value uint32
		if nbOut > 0 {
			value = state & (uint32(1)<<nbOut - 1)
		}
		chunks[i] = chunk{value: value, n: uint8(nbOut)}

		idx := int64(state>>nbOut) + int64(tr.deltaFindState)
		state = uint32(tbl.etable[idx])
	}

	// state now lies in [table_size, 2*table_size); write the final
	// state offset before the data bits that follow it
	// step 5).
	if debug && (state < tbl.params.TableSize || state >= 2*tbl.params.TableSize) {
		return fmt.Errorf("fse: encoder final state %d outside [%d, %d)", state, tbl.params.TableSize, 2*tbl.params.TableSize)
	}
	w.AppendBits(state-tbl.params.TableSize, uint(tableLog))

	// Chunks were recorded while walking symbols back to front, so
	// chunks[i] already holds the chunk for the symbol at position i;
	// flushing forward reproduces the "reverse order of recording"
	//reproduces the original input order.
	for i := range chunks {
		w.AppendBits(chunks[i].value, uint(chunks[i].n))
	}
	return nil
}
