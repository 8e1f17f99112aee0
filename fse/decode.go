package fse

// DecodeBlock runs the tANS decode state machine over a bitstream
// produced by EncodeBlock. payload must carry at least bitCount valid
// bits in the given ordering; tbl must be the Tables the block was
// encoded with (same Parameters, reconstructed from the same
// histogram). expectedSize must be the number of symbols the caller
// independently knows (or trusts) this block to decode to; the 32-bit
// symbol count embedded in the bitstream itself is untrusted input and
// is checked against expectedSize before anything is allocated, so a
// corrupted count can't drive a multi-gigabyte allocation.
func DecodeBlock(ordering Ordering, tbl *Tables, payload []byte, bitCount uint64, expectedSize uint32) ([]byte, error) {
	r, err := newBitReader(ordering, payload, bitCount)
	if err != nil {
		return nil, err
	}
	return decodeBlockFrom(r, tbl, expectedSize)
}

// decodeBlockFrom is generic over the concrete BitReader implementation,
// mirroring encodeBlockInto: DecodeBlock always instantiates it with the
// BitReader interface type, so a direct instantiation with a concrete
// reader type is what actually monomorphizes the loop.
func decodeBlockFrom[R BitReader](r R, tbl *Tables, expectedSize uint32) ([]byte, error) {
	blockSize, err := r.ReadBits(dataBlockSizeBits)
	if err != nil {
		return nil, ErrDecodeTruncated
	}
	if blockSize != expectedSize {
		return nil, ErrDecodeTruncated
	}
	if blockSize == 0 {
		return []byte{}, nil
	}

	tableLog := tbl.params.TableLog
	stateOffset, err := r.ReadBits(uint(tableLog))
	if err != nil {
		return nil, ErrDecodeTruncated
	}
	state := stateOffset

	out := make([]byte, blockSize)
	for i := range out {
		entry := tbl.dtable[state]
		out[i] = entry.symbol
		var bitsVal uint32
		if entry.nbBits > 0 {
			bitsVal, err = r.ReadBits(uint(entry.nbBits))
			if err != nil {
				return nil, ErrDecodeTruncated
			}
		}
		state = uint32(entry.newStateBase) + bitsVal
	}

	if state != 0 {
		return nil, ErrDecodeInvalidState
	}
	return out, nil
}
