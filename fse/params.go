package fse

import (
	"math/bits"
)

const (
	minTableLog    = 1
	maxTableLog    = 15
	maxSymbolValue = 255

	// dataBlockSizeBits is the width of the per-block symbol-count field
	// in the block codec's bitstream.
	dataBlockSizeBits = 32
)

// Parameters is the immutable, per-block result of normalizing a 256-wide
// histogram onto a power-of-two state table. Two Parameters values built
// from the same (counts, tableLog) are always bit-identical, which is
// what lets a decoder reconstruct Tables purely from a frame header.
type Parameters struct {
	TableLog   uint8
	TableSize  uint32
	Normalized [maxSymbolValue + 1]int32
	// SymbolLen is one past the highest symbol with a nonzero count; it
	// bounds the active prefix of Normalized that table construction
	// needs to walk.
	SymbolLen uint16
}

// InitialState is the encoder's start/end state: table_size, the base of
// the [table_size, 2*table_size) range every encoded block both starts
// and terminates in.
func (p *Parameters) InitialState() uint32 {
	return p.TableSize
}

func highBits(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(bits.Len32(v) - 1)
}

// NormalizeHistogram derives Parameters from a raw 256-wide histogram and
// a target tableLog. It produces a normalized frequency vector summing to
// exactly table_size = 1<<tableLog. When the histogram has at most
// table_size distinct symbols, every symbol of nonzero count receives at
// least 1; with more distinct symbols than that, all of table_size goes
// to the most frequent symbol and the others receive 0.
func NormalizeHistogram(counts *[maxSymbolValue + 1]uint32, tableLog uint8) (*Parameters, error) {
	if tableLog < minTableLog || tableLog > maxTableLog {
		return nil, ErrInvalidParams
	}
	var total uint64
	symbolLen := 0
	for i, c := range counts {
		total += uint64(c)
		if c > 0 {
			symbolLen = i + 1
		}
	}
	if total == 0 {
		return nil, ErrInvalidParams
	}

	p := &Parameters{
		TableLog:  tableLog,
		TableSize: 1 << tableLog,
		SymbolLen: uint16(symbolLen),
	}
	if err := normalize(counts, total, p); err != nil {
		return nil, err
	}
	return p, nil
}

// rtbTable biases the rounding of the fast scaled-probability path back
// towards the true proportion when the scaled count is small (<8), where
// plain truncation would otherwise waste the most relative accuracy.
var rtbTable = [8]uint64{0, 473195, 504333, 520860, 550000, 700000, 750000, 830000}

// normalize implements a two-path scheme: a fast scaled-count pass (the
// common case), falling back to normalize2's proportional-remainder
// distribution on the rare pathological input where the fast pass's
// correction would overshoot.
func normalize(counts *[maxSymbolValue + 1]uint32, total uint64, p *Parameters) error {
	tableLog := p.TableLog
	scale := 62 - uint64(tableLog)
	step := (uint64(1) << 62) / total
	vStep := uint64(1) << (scale - 20)
	lowThreshold := uint32(total >> tableLog)

	var stillToDistribute int32 = int32(p.TableSize)
	largest := 0
	var largestP int32

	for i := 0; i < int(p.SymbolLen); i++ {
		cnt := counts[i]
		if cnt == 0 {
			p.Normalized[i] = 0
			continue
		}
		if cnt <= lowThreshold {
			// Too rare to round up to anything but the guaranteed
			// minimum weight of 1.
			p.Normalized[i] = 1
			stillToDistribute--
			continue
		}
		proba := int32((uint64(cnt) * step) >> scale)
		if proba < 8 {
			restToBeat := vStep * rtbTable[proba]
			v := uint64(cnt)*step - (uint64(proba) << scale)
			if v > restToBeat {
				proba++
			}
		}
		if proba > largestP {
			largestP = proba
			largest = i
		}
		p.Normalized[i] = proba
		stillToDistribute -= proba
	}

	if -stillToDistribute >= (p.Normalized[largest] >> 1) {
		return normalize2(counts, total, p)
	}
	p.Normalized[largest] += stillToDistribute
	return validateNormalized(p)
}

// normalize2 is the fallback normalization used when normalize's single
// correction to the largest bucket would flip its sign (or collapse it),
// which normalize detects but cannot safely repair itself. It distributes
// remaining mass proportionally over symbols that were not already
// pinned to 1.
func normalize2(counts *[maxSymbolValue + 1]uint32, total uint64, p *Parameters) error {
	const notYetAssigned = -1
	tableLog := p.TableLog
	lowThreshold := uint32(total >> tableLog)
	lowOne := uint32((total * 3) >> (tableLog + 1))

	var distributed uint32
	remainingTotal := total
	for i := 0; i < int(p.SymbolLen); i++ {
		cnt := counts[i]
		switch {
		case cnt == 0:
			p.Normalized[i] = 0
		case cnt <= lowThreshold:
			p.Normalized[i] = 1
			distributed++
			remainingTotal -= uint64(cnt)
		case cnt <= lowOne:
			p.Normalized[i] = 1
			distributed++
			remainingTotal -= uint64(cnt)
		default:
			p.Normalized[i] = notYetAssigned
		}
	}
	toDistribute := int64(p.TableSize) - int64(distributed)
	if toDistribute == 0 && remainingTotal == 0 {
		// Every present symbol already holds its minimum weight of 1 and
		// those weights fill the table exactly.
		return validateNormalized(p)
	}
	if toDistribute <= 0 {
		return collapseOntoArgmax(counts, p, int64(p.TableSize))
	}

	if remainingTotal/uint64(toDistribute) > uint64(lowOne) {
		lowOne = uint32((remainingTotal * 3) / (uint64(toDistribute) * 2))
		for i := 0; i < int(p.SymbolLen); i++ {
			if p.Normalized[i] == notYetAssigned && counts[i] <= lowOne {
				p.Normalized[i] = 1
				distributed++
				remainingTotal -= uint64(counts[i])
			}
		}
		toDistribute = int64(p.TableSize) - int64(distributed)
		if toDistribute < 0 || (toDistribute == 0 && remainingTotal > 0) {
			return collapseOntoArgmax(counts, p, int64(p.TableSize))
		}
	}

	if remainingTotal == 0 {
		// Every symbol was low enough for lowOne/lowThreshold; hand out
		// the leftover table slots round-robin to whichever symbols
		// already received positive mass.
		i := 0
		for toDistribute > 0 {
			if p.Normalized[i%int(p.SymbolLen)] > 0 {
				p.Normalized[i%int(p.SymbolLen)]++
				toDistribute--
			}
			i++
		}
		return validateNormalized(p)
	}

	vStepLog := 62 - uint64(tableLog)
	mid := uint64((1 << (vStepLog - 1)) - 1)
	rStep := (((uint64(1) << vStepLog) * uint64(toDistribute)) + mid) / remainingTotal
	tmpTotal := mid
	for i := 0; i < int(p.SymbolLen); i++ {
		if p.Normalized[i] == notYetAssigned {
			cnt := counts[i]
			end := tmpTotal + uint64(cnt)*rStep
			sStart := uint32(tmpTotal >> vStepLog)
			sEnd := uint32(end >> vStepLog)
			weight := sEnd - sStart
			if weight < 1 {
				// Pathological rounding; last resort.
				return collapseOntoArgmax(counts, p, int64(p.TableSize))
			}
			p.Normalized[i] = int32(weight)
			tmpTotal = end
		}
	}
	return validateNormalized(p)
}

// collapseOntoArgmax is the last-resort step taken when no symbol can
// absorb the remaining adjustment: give all of the table's mass to the
// single most frequent symbol.
func collapseOntoArgmax(counts *[maxSymbolValue + 1]uint32, p *Parameters, tableSize int64) error {
	maxV, maxC := 0, uint32(0)
	for i := 0; i < int(p.SymbolLen); i++ {
		if counts[i] > maxC {
			maxC = counts[i]
			maxV = i
		}
	}
	for i := range p.Normalized[:p.SymbolLen] {
		if counts[i] > 0 {
			p.Normalized[i] = 0
		}
	}
	p.Normalized[maxV] = int32(tableSize)
	return validateNormalized(p)
}

func validateNormalized(p *Parameters) error {
	var sum int64
	for i := 0; i < int(p.SymbolLen); i++ {
		v := p.Normalized[i]
		if v == -1 {
			sum++
		} else {
			sum += int64(v)
		}
	}
	if sum != int64(p.TableSize) {
		return ErrInvalidParams
	}
	return nil
}
