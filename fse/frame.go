package fse

import (
	"encoding/binary"
)

const (
	blockSizeFieldBytes = 4
	bitCountFieldBytes  = 4
	tableLogFieldBytes  = 4
	histogramEntries    = maxSymbolValue + 1
	histogramFieldBytes = histogramEntries * 4
	recordHeaderBytes   = blockSizeFieldBytes + bitCountFieldBytes + tableLogFieldBytes + histogramFieldBytes
)

// EncodeStream splits input into blocks of at most options.blockSize
// symbols (0 means the entire input is one block), and for each block
// writes a self-describing record — size, bit count, table_log, the
// block's own 256-entry histogram, then the block codec's payload — so
// every block can be decoded independently of its neighbors.
func EncodeStream(input []byte, opts ...EncodeOption) ([]byte, error) {
	o := defaultEncodeOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	chunks := splitBlocks(input, o.blockSize)
	out := make([]byte, 0, len(input))
	for _, chunk := range chunks {
		rec, err := encodeBlockRecord(chunk, o)
		if err != nil {
			return nil, err
		}
		out = append(out, rec...)
	}
	return out, nil
}

func splitBlocks(input []byte, blockSize uint32) [][]byte {
	if blockSize == 0 || len(input) == 0 {
		return [][]byte{input}
	}
	var chunks [][]byte
	step := int(blockSize)
	for i := 0; i < len(input); i += step {
		end := i + step
		if end > len(input) {
			end = len(input)
		}
		chunks = append(chunks, input[i:end])
	}
	return chunks
}

func histogram(data []byte) [histogramEntries]uint32 {
	var counts [histogramEntries]uint32
	for _, b := range data {
		counts[b]++
	}
	return counts
}

func encodeBlockRecord(chunk []byte, o encodeOptions) ([]byte, error) {
	counts := histogram(chunk)

	if len(chunk) == 0 {
		rec := make([]byte, recordHeaderBytes)
		// block_size, bit_count, table_log and the (all-zero) histogram
		// are already zeroed; no payload for an empty block.
		return rec, nil
	}

	p, err := NormalizeHistogram(&counts, o.tableLog)
	if err != nil {
		return nil, err
	}
	for s, c := range counts {
		if c > 0 && p.Normalized[s] == 0 {
			// The tables have no state for s, so this block cannot be
			// encoded at this table_log.
			return nil, ErrInvalidParams
		}
	}
	tbl, err := BuildTables(p)
	if err != nil {
		return nil, err
	}
	payload, bitCount, err := EncodeBlock(o.ordering, tbl, chunk)
	if err != nil {
		return nil, err
	}

	rec := make([]byte, recordHeaderBytes+len(payload))
	binary.LittleEndian.PutUint32(rec[0:4], uint32(len(chunk)))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(bitCount))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(p.TableLog))
	off := 12
	for i := 0; i < histogramEntries; i++ {
		binary.LittleEndian.PutUint32(rec[off:off+4], counts[i])
		off += 4
	}
	copy(rec[off:], payload)
	return rec, nil
}

// DecodeStream implements the inverse of EncodeStream: it walks frame
// records sequentially until the buffer is exhausted, reconstructing
// Parameters/Tables per block from the record's own histogram and
// table_log. The ordering is not recorded in the frame and
// must be supplied via WithDecodeOrdering to match the call that produced
// input.
func DecodeStream(input []byte, opts ...DecodeOption) ([]byte, error) {
	o := defaultDecodeOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	var out []byte
	pos := 0
	for pos < len(input) {
		if len(input)-pos < recordHeaderBytes {
			return nil, ErrDecodeTruncated
		}
		blockSize := binary.LittleEndian.Uint32(input[pos : pos+4])
		bitCount := binary.LittleEndian.Uint32(input[pos+4 : pos+8])
		tableLogRaw := binary.LittleEndian.Uint32(input[pos+8 : pos+12])
		pos += 12

		var counts [histogramEntries]uint32
		for i := 0; i < histogramEntries; i++ {
			counts[i] = binary.LittleEndian.Uint32(input[pos : pos+4])
			pos += 4
		}

		if blockSize == 0 {
			continue
		}
		if tableLogRaw == 0 || tableLogRaw > maxTableLog {
			return nil, ErrInvalidParams
		}
		payloadLen64 := (uint64(bitCount) + 7) / 8
		if payloadLen64 > uint64(len(input)-pos) {
			return nil, ErrDecodeTruncated
		}
		payloadLen := int(payloadLen64)
		payload := input[pos : pos+payloadLen]
		pos += payloadLen

		p, err := NormalizeHistogram(&counts, uint8(tableLogRaw))
		if err != nil {
			return nil, err
		}
		tbl, err := BuildTables(p)
		if err != nil {
			return nil, err
		}
		symbols, err := DecodeBlock(o.ordering, tbl, payload, uint64(bitCount), blockSize)
		if err != nil {
			return nil, err
		}
		out = append(out, symbols...)
	}
	return out, nil
}
