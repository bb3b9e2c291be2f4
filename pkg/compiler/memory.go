package compiler

import "github.com/turmLang/turm/pkg/machine"

// Layout of the reserved variable zone on the tape. The 8-bit variable
// lives between the BOM and EOM sentinels, MSB leftmost; the user zone
// starts at 0.
const (
	MemBegin      int64 = -10 // BOM
	MemEnd        int64 = -1  // EOM
	MSBPosition   int64 = -9
	LSBPosition   int64 = -2
	UserZoneStart int64 = 0
	MemBits             = 8
)

// System symbols. User alphabets may not declare them.
const (
	SymBOM    machine.Symbol = "BOM"
	SymEOM    machine.Symbol = "EOM"
	SymBit0   machine.Symbol = "0_"
	SymBit1   machine.Symbol = "1_"
	SymMarker machine.Symbol = "#"
)

// SystemSymbols returns the five reserved symbols in their canonical
// alphabet order.
func SystemSymbols() []machine.Symbol {
	return []machine.Symbol{SymBOM, SymEOM, SymBit0, SymBit1, SymMarker}
}

// IsSystemSymbol reports whether sym is reserved.
func IsSystemSymbol(sym machine.Symbol) bool {
	switch sym {
	case SymBOM, SymEOM, SymBit0, SymBit1, SymMarker:
		return true
	}
	return false
}

// userSymbols filters the alphabet down to non-system symbols (the
// blank included). These are the symbols a variable operation may find
// under the head, so they size the per-symbol state lineages.
func userSymbols(alphabet []machine.Symbol) []machine.Symbol {
	out := make([]machine.Symbol, 0, len(alphabet))
	for _, sym := range alphabet {
		if !IsSystemSymbol(sym) {
			out = append(out, sym)
		}
	}
	return out
}

// int8Bits expands value as uint8 into bit symbols, MSB first.
func int8Bits(value int) [MemBits]machine.Symbol {
	var bits [MemBits]machine.Symbol
	u := uint8(value)
	for i := 0; i < MemBits; i++ {
		if u&(1<<(MemBits-1-i)) != 0 {
			bits[i] = SymBit1
		} else {
			bits[i] = SymBit0
		}
	}
	return bits
}

// seedVariableZone writes the sentinels and a zeroed variable into the
// initial tape. Navigation dead-reckons on BOM and EOM, so the zone has
// to exist before the first step.
func seedVariableZone(tape *machine.Tape) {
	tape.Set(MemBegin, SymBOM)
	tape.Set(MemEnd, SymEOM)
	for i := 0; i < MemBits; i++ {
		tape.Set(MSBPosition+int64(i), SymBit0)
	}
}
