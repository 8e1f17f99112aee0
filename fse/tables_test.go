package fse

import (
	"math/rand"
	"testing"
)

func buildTablesFor(t *testing.T, data []byte, tableLog uint8) (*Parameters, *Tables) {
	t.Helper()
	counts := histogramOf(data)
	p, err := NormalizeHistogram(counts, tableLog)
	if err != nil {
		t.Fatalf("NormalizeHistogram: %v", err)
	}
	tbl, err := BuildTables(p)
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}
	return p, tbl
}

// TestSpreadCoverage checks the "Spread coverage" property: every
// state appears exactly once, and the multiset of spread values matches
// normalized[s] copies of each symbol s.
func TestSpreadCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, tableLog := range []uint8{1, 2, 3, 5, 10, 12, 15} {
		data := make([]byte, 2000)
		alphabet := 1 + rng.Intn(64)
		for i := range data {
			data[i] = byte(rng.Intn(alphabet))
		}
		p, tbl := buildTablesFor(t, data, tableLog)

		seen := make([]bool, p.TableSize)
		counts := make(map[byte]int32)
		for _, s := range tbl.spread {
			counts[s]++
		}
		for u, s := range tbl.spread {
			if seen[u] {
				t.Fatalf("tableLog=%d: slot %d visited twice", tableLog, u)
			}
			seen[u] = true
			_ = s
		}
		for i := 0; i < len(seen); i++ {
			if !seen[i] {
				t.Fatalf("tableLog=%d: slot %d never filled", tableLog, i)
			}
		}
		for s := 0; s < int(p.SymbolLen); s++ {
			if got, want := counts[byte(s)], p.Normalized[s]; got != want {
				t.Fatalf("tableLog=%d: symbol %d has %d spread slots, want %d", tableLog, s, got, want)
			}
		}
	}
}

func TestBuildTablesDecodeEntriesInRange(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly, many times over")
	_, tbl := buildTablesFor(t, data, 10)

	// Every decode-table entry's nb_bits must be within [0, table_log],
	// and new_state_base + (2^nb_bits - 1) must stay within range so
	// state never leaves [0, table_size).
	for u, e := range tbl.dtable {
		if e.nbBits > tbl.params.TableLog {
			t.Fatalf("slot %d: nbBits %d exceeds table_log %d", u, e.nbBits, tbl.params.TableLog)
		}
		maxState := uint32(e.newStateBase) + (uint32(1)<<e.nbBits - 1)
		if maxState >= tbl.params.TableSize {
			t.Fatalf("slot %d: max reachable state %d exceeds table_size %d", u, maxState, tbl.params.TableSize)
		}
	}
}
