package compiler

import (
	"fmt"

	"github.com/turmLang/turm/pkg/machine"
)

// The generator emits the program twice: phase R (head right of the
// variable zone) owns states 0..N-1 with halt N, phase L (head left of
// it) owns the mirrored copy at N+1..2N with halt 2N+1. Which side of
// the zone the head is on lives in the state id instead of on the tape:
// a move instruction that crosses the zone lands in the opposite copy.
// The L halt forwards to the R halt with a Stay, so externally there is
// a single halt state N.
type generator struct {
	table    *machine.TransitionTable
	alphabet []machine.Symbol

	phaseR bool
	shift  int // 0 for phase R, offset for phase L
	cross  int // +offset in phase R, -offset in phase L

	errs []string
}

// Generate lowers a flat, call-free block into table. Any reported
// problem is a generator bug surfacing, not a user error.
func Generate(flat Block, alphabet []machine.Symbol, table *machine.TransitionTable) []string {
	total := countBlock(flat, alphabet)

	table.StartState = 0
	table.HaltState = total
	if len(flat) == 0 {
		table.HaltState = 0
		return nil
	}

	offset := total + 1
	haltR := total
	haltL := total + offset

	var errs []string

	gr := &generator{table: table, alphabet: alphabet, phaseR: true, shift: 0, cross: offset}
	gr.genBlock(flat, 0, haltR)
	errs = append(errs, gr.errs...)

	gl := &generator{table: table, alphabet: alphabet, phaseR: false, shift: offset, cross: -offset}
	gl.genBlock(flat, 0, haltR) // shifted internally: exits at haltL
	errs = append(errs, gl.errs...)

	// Fold the two halt states into one.
	for _, sym := range alphabet {
		if err := table.Add(haltL, sym, machine.Transition{Next: haltR, Write: sym, Move: machine.MoveStay}); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// add emits a transition between states of the current phase.
func (g *generator) add(from int, sym machine.Symbol, to int, write machine.Symbol, move machine.Move) {
	g.addRaw(from+g.shift, sym, to+g.shift, write, move)
}

// addCross emits a transition whose target lies in the opposite phase.
func (g *generator) addCross(from int, sym machine.Symbol, to int, write machine.Symbol, move machine.Move) {
	g.addRaw(from+g.shift, sym, to+g.shift+g.cross, write, move)
}

func (g *generator) addRaw(from machine.StateID, sym machine.Symbol, to machine.StateID, write machine.Symbol, move machine.Move) {
	if err := g.table.Add(from, sym, machine.Transition{Next: to, Write: write, Move: move}); err != nil {
		g.errs = append(g.errs, err.Error())
	}
}

func (g *generator) fail(format string, args ...interface{}) {
	g.errs = append(g.errs, fmt.Sprintf(format, args...))
}

// moveAll steps the head for every symbol.
func (g *generator) moveAll(from, to int, move machine.Move) {
	for _, sym := range g.alphabet {
		g.add(from, sym, to, sym, move)
	}
}

// writeAll writes w for every symbol, head staying.
func (g *generator) writeAll(from, to int, w machine.Symbol) {
	for _, sym := range g.alphabet {
		g.add(from, sym, to, w, machine.MoveStay)
	}
}

// genBlock walks a block with a state cursor; the last instruction
// exits to exit, every other one falls through to its successor.
func (g *generator) genBlock(block Block, start, exit int) {
	cur := start
	for i, in := range block {
		need := countInstr(in, g.alphabet)
		next := exit
		if i+1 < len(block) {
			next = cur + need
		}
		g.genInstr(in, cur, next)
		cur += need
	}
}

func (g *generator) genInstr(in *Instr, cur, next int) {
	switch in.Op {
	case OpMoveLeft:
		g.genMove(cur, next, machine.MoveLeft, SymEOM)

	case OpMoveRight:
		g.genMove(cur, next, machine.MoveRight, SymBOM)

	case OpWrite:
		g.writeAll(cur, next, in.Arg)

	case OpCall:
		// Gone after flattening; pass through if one survives.
		g.moveAll(cur, next, machine.MoveStay)

	case OpIfElse:
		condStates := countCond(in.Cond, g.alphabet)
		thenStates := countBlock(in.Then, g.alphabet)
		elseStates := countBlock(in.Else, g.alphabet)

		thenStart := cur + condStates
		elseStart := thenStart + thenStates

		thenTarget := next
		if thenStates > 0 {
			thenTarget = thenStart
		}
		elseTarget := next
		if elseStates > 0 {
			elseTarget = elseStart
		}

		g.genCond(in.Cond, cur, thenTarget, elseTarget)
		if thenStates > 0 {
			g.genBlock(in.Then, thenStart, next)
		}
		if elseStates > 0 {
			g.genBlock(in.Else, elseStart, next)
		}

	case OpWhile:
		condStates := countCond(in.Cond, g.alphabet)
		bodyStates := countBlock(in.Then, g.alphabet)
		bodyStart := cur + condStates

		trueTarget := cur // empty body: condition re-checks forever
		if bodyStates > 0 {
			trueTarget = bodyStart
		}
		g.genCond(in.Cond, cur, trueTarget, next)
		if bodyStates > 0 {
			g.genBlock(in.Then, bodyStart, cur)
		}

	case OpVarSet:
		g.genVarSet(cur, next, in.Value)

	case OpVarInc:
		g.genVarStep(cur, next, true)

	case OpVarDec:
		g.genVarStep(cur, next, false)
	}
}

// genMove lowers move_left/move_right. The entry state steps once, the
// inspect state either falls through to next or, on the zone sentinel,
// keeps moving through the nine-state skip chain whose last transition
// lands in the opposite phase. Both phases emit the same dispatch; the
// sentinel cannot appear after a step away from the zone, so the check
// that does not apply in a phase is simply never taken.
func (g *generator) genMove(cur, next int, move machine.Move, sentinel machine.Symbol) {
	g.moveAll(cur, cur+1, move)

	inspect := cur + 1
	for _, sym := range g.alphabet {
		if sym == sentinel {
			g.add(inspect, sym, cur+2, sym, move)
		} else {
			g.add(inspect, sym, next, sym, machine.MoveStay)
		}
	}

	// Skip chain across the remaining zone cells.
	for i := 0; i < 9; i++ {
		from := cur + 2 + i
		if i < 8 {
			g.moveAll(from, from+1, move)
			continue
		}
		for _, sym := range g.alphabet {
			g.addCross(from, sym, next, sym, move)
		}
	}
	// cur+11 is the budgeted spare.
}

// genCond lowers a condition sub-graph starting at entry, dispatching
// to thenTarget or elseTarget. Each node consumes exactly countCond of
// the reserved range.
func (g *generator) genCond(c *Condition, entry, thenTarget, elseTarget int) {
	switch c.Kind {
	case CondReadEq:
		for _, sym := range g.alphabet {
			if sym == c.Symbol {
				g.add(entry, sym, thenTarget, sym, machine.MoveStay)
			} else {
				g.add(entry, sym, elseTarget, sym, machine.MoveStay)
			}
		}

	case CondReadNeq:
		for _, sym := range g.alphabet {
			if sym == c.Symbol {
				g.add(entry, sym, elseTarget, sym, machine.MoveStay)
			} else {
				g.add(entry, sym, thenTarget, sym, machine.MoveStay)
			}
		}

	case CondAnd:
		leftStates := countCond(c.Left, g.alphabet)
		g.genCond(c.Left, entry, entry+leftStates, elseTarget)
		g.genCond(c.Right, entry+leftStates, thenTarget, elseTarget)

	case CondOr:
		leftStates := countCond(c.Left, g.alphabet)
		g.genCond(c.Left, entry, thenTarget, entry+leftStates)
		g.genCond(c.Right, entry+leftStates, thenTarget, elseTarget)

	case CondXor:
		// The right operand is emitted twice: the copy reached when the
		// left side held inverts the outcome, the other keeps it.
		leftStates := countCond(c.Left, g.alphabet)
		rightStates := countCond(c.Right, g.alphabet)
		inverted := entry + leftStates
		straight := inverted + rightStates
		g.genCond(c.Left, entry, inverted, straight)
		g.genCond(c.Right, inverted, elseTarget, thenTarget)
		g.genCond(c.Right, straight, thenTarget, elseTarget)

	case CondNot:
		g.genCond(c.Operand, entry, elseTarget, thenTarget)

	case CondVarLt:
		g.genCmpInt8(entry, thenTarget, elseTarget, c.Value, true)

	case CondVarGt:
		g.genCmpInt8(entry, thenTarget, elseTarget, c.Value, false)
	}
}
