package compiler

import "github.com/turmLang/turm/pkg/machine"

// Variable subsystem. The 8-bit two's-complement variable x lives at
// positions -9..-2 (MSB leftmost) between the BOM and EOM sentinels.
// Every operation must come back to the exact cell the head was on, so
// it first overwrites that cell with the '#' marker. The erased symbol
// is remembered in the state id: each non-system symbol gets its own
// lineage of states that hard-codes the symbol and rewrites it over the
// marker on the way out. That is what makes the budgets linear in the
// number of user symbols.

// stateAlloc hands out states from an instruction's reserved range.
type stateAlloc struct {
	next  int
	limit int
	g     *generator
}

func (g *generator) newAlloc(entry, budget int) *stateAlloc {
	return &stateAlloc{next: entry + 1, limit: entry + budget, g: g}
}

func (a *stateAlloc) take() int {
	if a.next >= a.limit {
		// A budget in count.go is too small; keep emitting into the
		// last slot so the error is visible instead of corrupting
		// neighboring ranges.
		a.g.fail("state budget exhausted at %d", a.limit)
		return a.limit - 1
	}
	s := a.next
	a.next++
	return s
}

// dirToMem is the direction from the user's side of the tape toward the
// variable zone.
func (g *generator) dirToMem() machine.Move {
	if g.phaseR {
		return machine.MoveLeft
	}
	return machine.MoveRight
}

// genSeekSentinel emits a single scan state: keep moving dir until the
// sentinel appears, then hand over to exit without moving.
func (g *generator) genSeekSentinel(entry, exit int, sentinel machine.Symbol, dir machine.Move) {
	for _, sym := range g.alphabet {
		if sym == sentinel {
			g.add(entry, sym, exit, sym, machine.MoveStay)
		} else {
			g.add(entry, sym, entry, sym, dir)
		}
	}
}

// genReturnToMarker walks back out of the variable zone and restores
// orig over the position marker: leave through the near sentinel, then
// scan outward. A blank before the marker means there is no marker out
// there and the scan stops where it is.
func (g *generator) genReturnToMarker(alloc *stateAlloc, entry, exit int, orig machine.Symbol) {
	outward := machine.MoveRight
	sentinel := SymEOM
	if !g.phaseR {
		outward = machine.MoveLeft
		sentinel = SymBOM
	}

	search := alloc.take()
	for _, sym := range g.alphabet {
		if sym == sentinel {
			g.add(entry, sym, search, sym, outward)
		} else {
			g.add(entry, sym, entry, sym, outward)
		}
	}
	for _, sym := range g.alphabet {
		switch sym {
		case SymMarker:
			g.add(search, sym, exit, orig, machine.MoveStay)
		case machine.Blank:
			g.add(search, sym, exit, sym, machine.MoveStay)
		default:
			g.add(search, sym, search, sym, outward)
		}
	}
}

// genVarSet lowers x = value: drop the marker, walk to BOM, write the
// eight bits MSB-first, walk back and restore the symbol.
func (g *generator) genVarSet(cur, next, value int) {
	alloc := g.newAlloc(cur, varSetBudget(g.alphabet))
	bits := int8Bits(value)

	for _, orig := range userSymbols(g.alphabet) {
		afterMarker := alloc.take()
		g.add(cur, orig, afterMarker, SymMarker, machine.MoveStay)

		afterBOM := alloc.take()
		g.genSeekSentinel(afterMarker, afterBOM, SymBOM, g.dirToMem())

		at := afterBOM
		for i := 0; i < MemBits; i++ {
			onBit := alloc.take()
			g.moveAll(at, onBit, machine.MoveRight)
			afterWrite := alloc.take()
			g.writeAll(onBit, afterWrite, bits[i])
			at = afterWrite
		}

		g.genReturnToMarker(alloc, at, next, orig)
	}

	// A system symbol under the head means the program wandered into
	// the zone; the operation degrades to a no-op.
	for _, sym := range g.alphabet {
		if IsSystemSymbol(sym) {
			g.add(cur, sym, next, sym, machine.MoveStay)
		}
	}
}

// genVarStep lowers x++ (inc=true) and x-- (inc=false): drop the
// marker, enter at EOM, step onto the LSB and ripple leftward. The
// carry or borrow dying at BOM is the two's-complement wrap.
func (g *generator) genVarStep(cur, next int, inc bool) {
	budget := varIncBudget(g.alphabet)
	if !inc {
		budget = varDecBudget(g.alphabet)
	}
	alloc := g.newAlloc(cur, budget)

	stopBit, rippleBit := SymBit0, SymBit1
	writeOnStop, writeOnRipple := SymBit1, SymBit0
	if !inc {
		stopBit, rippleBit = SymBit1, SymBit0
		writeOnStop, writeOnRipple = SymBit0, SymBit1
	}

	for _, orig := range userSymbols(g.alphabet) {
		afterMarker := alloc.take()
		g.add(cur, orig, afterMarker, SymMarker, machine.MoveStay)

		returnState := alloc.take()
		g.genReturnToMarker(alloc, returnState, next, orig)

		carry := alloc.take()

		afterEOM := alloc.take()
		g.genSeekSentinel(afterMarker, afterEOM, SymEOM, g.dirToMem())

		onBit := alloc.take()
		g.moveAll(afterEOM, onBit, machine.MoveLeft)

		for _, sym := range g.alphabet {
			switch sym {
			case stopBit:
				g.add(onBit, sym, returnState, writeOnStop, machine.MoveStay)
			case rippleBit:
				g.add(onBit, sym, carry, writeOnRipple, machine.MoveStay)
			default:
				// BOM included: the ripple ran off the MSB and stops.
				g.add(onBit, sym, returnState, sym, machine.MoveStay)
			}
		}
		g.moveAll(carry, onBit, machine.MoveLeft)
	}

	for _, sym := range g.alphabet {
		if IsSystemSymbol(sym) {
			g.add(cur, sym, next, sym, machine.MoveStay)
		}
	}
}

// genCmpInt8 lowers x < rhs (lt=true) or x > rhs (lt=false): drop the
// marker, enter at BOM, judge the sign bit first, then walk the
// remaining bits left to right and commit on the first difference.
// All bits equal means false for both operators.
func (g *generator) genCmpInt8(cur, ifTrue, ifFalse, rhs int, lt bool) {
	alloc := g.newAlloc(cur, cmpBudget(g.alphabet))
	bits := int8Bits(rhs)
	rhsNegative := rhs < 0

	for _, orig := range userSymbols(g.alphabet) {
		afterMarker := alloc.take()
		g.add(cur, orig, afterMarker, SymMarker, machine.MoveStay)

		returnTrue := alloc.take()
		g.genReturnToMarker(alloc, returnTrue, ifTrue, orig)
		returnFalse := alloc.take()
		g.genReturnToMarker(alloc, returnFalse, ifFalse, orig)

		afterBOM := alloc.take()
		g.genSeekSentinel(afterMarker, afterBOM, SymBOM, g.dirToMem())

		onMSB := alloc.take()
		g.moveAll(afterBOM, onMSB, machine.MoveRight)

		rest := alloc.take()

		// Sign bit: a set MSB means x < 0. Differing signs decide the
		// comparison outright; equal signs defer to the magnitude bits.
		for _, sym := range g.alphabet {
			switch sym {
			case SymBit0: // x >= 0
				if rhsNegative {
					g.add(onMSB, sym, g.pick(lt, returnFalse, returnTrue), sym, machine.MoveStay)
				} else {
					g.add(onMSB, sym, rest, sym, machine.MoveRight)
				}
			case SymBit1: // x < 0
				if rhsNegative {
					g.add(onMSB, sym, rest, sym, machine.MoveRight)
				} else {
					g.add(onMSB, sym, g.pick(lt, returnTrue, returnFalse), sym, machine.MoveStay)
				}
			default:
				g.add(onMSB, sym, returnFalse, sym, machine.MoveStay)
			}
		}

		at := rest
		for i := 1; i < MemBits; i++ {
			nextBit := -1
			if i < MemBits-1 {
				nextBit = alloc.take()
			}
			for _, sym := range g.alphabet {
				switch sym {
				case SymBit0:
					if bits[i] == SymBit0 {
						g.addCmpEqualBit(at, nextBit, returnFalse, sym)
					} else {
						// x bit 0, rhs bit 1: x smaller from here on.
						g.add(at, sym, g.pick(lt, returnTrue, returnFalse), sym, machine.MoveStay)
					}
				case SymBit1:
					if bits[i] == SymBit1 {
						g.addCmpEqualBit(at, nextBit, returnFalse, sym)
					} else {
						// x bit 1, rhs bit 0: x greater from here on.
						g.add(at, sym, g.pick(lt, returnFalse, returnTrue), sym, machine.MoveStay)
					}
				default:
					g.add(at, sym, returnFalse, sym, machine.MoveStay)
				}
			}
			at = nextBit
		}
	}

	for _, sym := range g.alphabet {
		if IsSystemSymbol(sym) {
			g.add(cur, sym, ifFalse, sym, machine.MoveStay)
		}
	}
}

// addCmpEqualBit advances the bitwise comparison past an equal bit, or
// commits to equalFalse after the last one.
func (g *generator) addCmpEqualBit(at, nextBit, equalFalse int, sym machine.Symbol) {
	if nextBit >= 0 {
		g.add(at, sym, nextBit, sym, machine.MoveRight)
	} else {
		g.add(at, sym, equalFalse, sym, machine.MoveStay)
	}
}

// pick returns onLt when lowering '<' and onGt when lowering '>'.
func (g *generator) pick(lt bool, onLt, onGt int) int {
	if lt {
		return onLt
	}
	return onGt
}
