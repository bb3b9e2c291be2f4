package compiler

import "github.com/turmLang/turm/pkg/machine"

// State budgets. Every instruction owns a fixed number of states that
// depends only on the instruction and the alphabet, never on its
// neighbors, so the generator can assign contiguous id ranges in one
// top-down pass without backpatching. Variable operations over-reserve
// (the marker trick needs one lineage per user symbol, and the budgets
// round the lineage size up); the slack states stay unreachable.
const (
	// One stepping state, one sentinel inspection, ten to cross the
	// variable zone (the inspect transition plus a nine-state chain,
	// leaving one spare).
	moveBudget = 2 + 10

	varSetPerSymbol = 30
	varIncPerSymbol = 15
	varDecPerSymbol = 15
	cmpPerSymbol    = 25
)

func countUser(alphabet []machine.Symbol) int {
	return len(userSymbols(alphabet))
}

func varSetBudget(alphabet []machine.Symbol) int { return countUser(alphabet) * varSetPerSymbol }
func varIncBudget(alphabet []machine.Symbol) int { return countUser(alphabet) * varIncPerSymbol }
func varDecBudget(alphabet []machine.Symbol) int { return countUser(alphabet) * varDecPerSymbol }
func cmpBudget(alphabet []machine.Symbol) int    { return countUser(alphabet) * cmpPerSymbol }

// countBlock returns the number of states a block owns.
func countBlock(block Block, alphabet []machine.Symbol) int {
	total := 0
	for _, in := range block {
		total += countInstr(in, alphabet)
	}
	return total
}

func countInstr(in *Instr, alphabet []machine.Symbol) int {
	switch in.Op {
	case OpMoveLeft, OpMoveRight:
		return moveBudget
	case OpWrite, OpCall:
		return 1
	case OpVarSet:
		return varSetBudget(alphabet)
	case OpVarInc:
		return varIncBudget(alphabet)
	case OpVarDec:
		return varDecBudget(alphabet)
	case OpIfElse:
		return countCond(in.Cond, alphabet) + countBlock(in.Then, alphabet) + countBlock(in.Else, alphabet)
	case OpWhile:
		return countCond(in.Cond, alphabet) + countBlock(in.Then, alphabet)
	}
	return 0
}

// countCond returns the number of states a condition sub-graph owns.
// Xor re-lowers its right operand twice, once per outcome of the left
// operand, hence the doubled term.
func countCond(c *Condition, alphabet []machine.Symbol) int {
	switch c.Kind {
	case CondReadEq, CondReadNeq:
		return 1
	case CondAnd, CondOr:
		return countCond(c.Left, alphabet) + countCond(c.Right, alphabet)
	case CondXor:
		return countCond(c.Left, alphabet) + 2*countCond(c.Right, alphabet)
	case CondNot:
		return countCond(c.Operand, alphabet)
	case CondVarLt, CondVarGt:
		return cmpBudget(alphabet)
	}
	return 0
}
