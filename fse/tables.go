package fse

import "fmt"

// decSymbol is one decode-table entry: the symbol a state decodes to, how
// many bits to pull off the stream, and the base of the next state (add
// the bits read to it). Matches the 4-byte {new_state_base,
// nb_bits, symbol} layout, grounded on zstd/fse_decoder.go's decSymbol.
type decSymbol struct {
	newStateBase uint16
	nbBits       uint8
	symbol       uint8
}

// symbolTransform is the per-symbol encode transform
// describes: deltaNbBits packs both possible bit-output counts for a
// symbol's sub-range into one subtraction/shift; deltaFindState locates
// the encode-table sub-range for the symbol.
type symbolTransform struct {
	deltaNbBits    uint32
	deltaFindState int32
}

// Tables is the read-only set of structures a Tables value's Parameters
// determine: spread (position to symbol), dtable (decode transition
// table), etable+symTT (encode transition table and per-symbol bit
// extraction parameters). A single Tables value may back concurrent
// encode and decode calls; nothing here is mutated after BuildTables
// returns.
type Tables struct {
	params Parameters

	spread []byte
	dtable []decSymbol
	etable []uint16
	symTT  [maxSymbolValue + 1]symbolTransform
}

// Params returns the Parameters this Tables was built from.
func (t *Tables) Params() *Parameters {
	return &t.params
}

// tableStep is the co-prime stride for spreading
// symbols across the state table.
func tableStep(tableSize uint32) uint32 {
	return (tableSize >> 1) + (tableSize >> 3) + 3
}

// BuildTables constructs spread, dtable, etable and symTT from
// Parameters.
func BuildTables(p *Parameters) (*Tables, error) {
	tableSize := p.TableSize
	t := &Tables{
		params: *p,
		spread: make([]byte, tableSize),
		dtable: make([]decSymbol, tableSize),
		etable: make([]uint16, tableSize),
	}

	if err := t.buildSpread(); err != nil {
		return nil, err
	}
	t.buildDecodeTable()
	if err := t.buildEncodeTable(); err != nil {
		return nil, err
	}
	return t, nil
}

// buildSpread distributes Normalized[s] copies of each symbol s across
// the table_size slots using the co-prime stride, in ascending symbol
// order.
func (t *Tables) buildSpread() error {
	p := &t.params
	tableSize := p.TableSize
	tableMask := tableSize - 1
	step := tableStep(tableSize)

	filled := make([]bool, tableSize)
	pos := uint32(0)
	placed := uint32(0)
	for s := 0; s < int(p.SymbolLen); s++ {
		n := p.Normalized[s]
		for occ := int32(0); occ < n; occ++ {
			if filled[pos] {
				// A full lap without landing on an empty slot happens
				// for some small table sizes where the stride shares a
				// factor with table_size (the co-prime stride is only
				// guaranteed for the larger tables the reference
				// algorithm was tuned for); fall back to a linear scan,
				//as a correctness fallback.
				probes := uint32(0)
				for filled[pos] {
					pos = (pos + step) & tableMask
					probes++
					if probes > tableSize {
						pos = linearScanEmpty(filled)
						break
					}
				}
			}
			t.spread[pos] = byte(s)
			filled[pos] = true
			placed++
			pos = (pos + step) & tableMask
		}
	}
	if placed != tableSize {
		return fmt.Errorf("fse: spread placed %d of %d slots", placed, tableSize)
	}
	return nil
}

func linearScanEmpty(filled []bool) uint32 {
	for i, f := range filled {
		if !f {
			return uint32(i)
		}
	}
	// Unreachable while fewer than table_size symbols have been placed,
	//.
	panic("fse: no empty slot in spread table")
}

// buildDecodeTable fills dtable: for each slot u, let
// s = spread[u]; next = symbolNext[s]++ (initialized to Normalized[s]);
// nb_bits = table_log - floor_log2(max(1, next));
// new_state_base = (next << nb_bits) - table_size.
func (t *Tables) buildDecodeTable() {
	p := &t.params
	tableSize := p.TableSize
	tableLog := p.TableLog

	var symbolNext [maxSymbolValue + 1]uint32
	for s := 0; s < int(p.SymbolLen); s++ {
		if p.Normalized[s] > 0 {
			symbolNext[s] = uint32(p.Normalized[s])
		}
	}

	for u := uint32(0); u < tableSize; u++ {
		s := t.spread[u]
		next := symbolNext[s]
		symbolNext[s]++
		nbBits := uint8(uint32(tableLog) - highBits(max32(1, next)))
		newStateBase := uint16((next << nbBits) - tableSize)
		t.dtable[u] = decSymbol{newStateBase: newStateBase, nbBits: nbBits, symbol: s}
	}
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// buildEncodeTable fills etable and symTT.
func (t *Tables) buildEncodeTable() error {
	p := &t.params
	tableSize := p.TableSize
	tableLog := p.TableLog

	var cumul [maxSymbolValue + 2]int32
	for s := 0; s < int(p.SymbolLen); s++ {
		cumul[s+1] = cumul[s] + p.Normalized[s]
	}
	if uint32(cumul[p.SymbolLen]) != tableSize {
		return fmt.Errorf("fse: cumulative frequency %d != table size %d", cumul[p.SymbolLen], tableSize)
	}

	localCumul := cumul
	for u := uint32(0); u < tableSize; u++ {
		s := t.spread[u]
		t.etable[localCumul[s]] = uint16(tableSize + u)
		localCumul[s]++
	}

	cumulSoFar := int32(0)
	for s := 0; s < int(p.SymbolLen); s++ {
		freq := p.Normalized[s]
		switch {
		case freq == 0:
			// Never dereferenced during a correct encode: a symbol
			// with zero frequency cannot appear in the input that
			// produced these Parameters. Populated defensively.
			t.symTT[s] = symbolTransform{
				deltaNbBits:    (uint32(tableLog+1) << 16) - (uint32(1) << tableLog),
				deltaFindState: 0,
			}
		default:
			maxBitsOut := uint32(tableLog)
			if freq > 1 {
				maxBitsOut -= highBits(uint32(freq - 1))
			}
			minStatePlus := uint32(freq) << maxBitsOut
			t.symTT[s] = symbolTransform{
				deltaNbBits:    (maxBitsOut << 16) - minStatePlus,
				deltaFindState: cumulSoFar - freq,
			}
			cumulSoFar += freq
		}
	}
	return nil
}
