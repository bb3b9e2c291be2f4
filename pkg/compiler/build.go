package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/turmLang/turm/pkg/machine"
	"github.com/turmLang/turm/pkg/parser"
)

// builder runs the semantic pass over the parsed AST: directive
// ordering, alphabet construction, initial tape content and the
// translation of procedure bodies into IR. It stops at the first error
// but always leaves a usable (possibly partial) result behind.
type builder struct {
	alphabet    []machine.Symbol // blank first, then user symbols in declaration order
	alphabetSet map[machine.Symbol]bool
	initialTape *machine.Tape
	procedures  map[string]*Procedure

	alphabetDefined bool
	setupDefined    bool

	diags []Diagnostic
	ok    bool
}

func newBuilder(initialTape *machine.Tape) *builder {
	b := &builder{
		alphabet:    []machine.Symbol{machine.Blank},
		alphabetSet: map[machine.Symbol]bool{machine.Blank: true},
		initialTape: initialTape,
		procedures:  map[string]*Procedure{},
		ok:          true,
	}
	return b
}

func (b *builder) errorf(pos lexer.Position, format string, args ...interface{}) {
	b.ok = false
	b.diags = append(b.diags, Diagnostic{LevelError, pos.Line, pos.Column, fmt.Sprintf(format, args...)})
}

func (b *builder) warnf(line, col int, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{LevelWarning, line, col, fmt.Sprintf(format, args...)})
}

// run walks the program top to bottom. Returns false on the first error.
func (b *builder) run(prog *parser.Program) bool {
	for _, item := range prog.Items {
		switch {
		case item.Alphabet != nil:
			b.buildAlphabet(item.Alphabet)
		case item.Setup != nil:
			b.buildSetup(item.Setup)
		case item.Proc != nil:
			b.buildProc(item.Proc)
		}
		if !b.ok {
			return false
		}
	}

	if len(b.procedures) > 0 {
		if _, has := b.procedures["main"]; !has {
			b.ok = false
			b.diags = append(b.diags, Diagnostic{LevelError, 1, 1, "procedure 'main' is not defined"})
			return false
		}
	}

	if len(b.procedures) == 0 {
		b.warnf(1, 1, "no procedures defined (at least 'main' is needed)")
	}
	if !b.alphabetDefined {
		b.warnf(1, 1, "Set_alphabet is not defined")
	}
	if !b.setupDefined {
		b.warnf(1, 1, "Setup is not defined")
	}
	return true
}

func (b *builder) buildAlphabet(decl *parser.AlphabetDecl) {
	if b.alphabetDefined {
		b.errorf(decl.Pos, "Set_alphabet is already defined")
		return
	}
	if b.setupDefined {
		b.errorf(decl.Pos, "Set_alphabet must come before Setup")
		return
	}
	if len(b.procedures) > 0 {
		b.errorf(decl.Pos, "Set_alphabet must come before procedure definitions")
		return
	}

	lit := decl.Symbols
	for _, sym := range parser.SplitSymbols(lit.Text()) {
		if sym == "blank" {
			b.errorf(lit.Pos, "the name 'blank' is reserved and cannot appear in the alphabet")
			return
		}
		if IsSystemSymbol(sym) {
			b.errorf(lit.Pos, "symbol %q is reserved for the memory subsystem", sym)
			return
		}
		if b.alphabetSet[sym] {
			b.errorf(lit.Pos, "duplicate symbol in alphabet: %q", sym)
			return
		}
		b.alphabetSet[sym] = true
		b.alphabet = append(b.alphabet, sym)
	}
	b.alphabetDefined = true
}

func (b *builder) buildSetup(decl *parser.SetupDecl) {
	if !b.alphabetDefined {
		b.errorf(decl.Pos, "Setup must come after Set_alphabet")
		return
	}
	if b.setupDefined {
		b.errorf(decl.Pos, "Setup is already defined")
		return
	}
	if len(b.procedures) > 0 {
		b.errorf(decl.Pos, "Setup must come before procedure definitions")
		return
	}

	lit := decl.Content
	pos := UserZoneStart
	for _, raw := range parser.SplitSymbols(lit.Text()) {
		sym := raw
		if raw == "blank" {
			sym = machine.Blank
		}
		if sym != machine.Blank && !b.alphabetSet[sym] {
			b.errorf(lit.Pos, "symbol %q is not defined in the alphabet", raw)
			return
		}
		b.initialTape.Set(pos, sym)
		pos++
	}
	b.setupDefined = true
}

func (b *builder) buildProc(decl *parser.ProcDecl) {
	if !b.alphabetDefined {
		b.errorf(decl.Pos, "proc: Set_alphabet must be defined first")
		return
	}
	if _, dup := b.procedures[decl.Name]; dup {
		b.errorf(decl.Pos, "procedure %q is already defined", decl.Name)
		return
	}

	// Register before building the body so a self-call parses; the
	// flattener reports it as recursion.
	proc := &Procedure{
		Name:   decl.Name,
		Line:   decl.Pos.Line,
		Column: decl.Pos.Column,
	}
	b.procedures[decl.Name] = proc

	body := b.buildBlock(decl.Body)
	if !b.ok {
		return
	}
	proc.Body = body
}

func (b *builder) buildBlock(stmts []*parser.Stmt) Block {
	var out Block
	for _, stmt := range stmts {
		in := b.buildStmt(stmt)
		if !b.ok {
			return out
		}
		out = append(out, in)
	}
	return out
}

func (b *builder) buildStmt(stmt *parser.Stmt) *Instr {
	switch {
	case stmt.Move != nil:
		op := OpMoveLeft
		if stmt.Move.Dir == "move_right" {
			op = OpMoveRight
		}
		return simpleInstr(op, "", stmt.Move.Pos.Line, stmt.Move.Pos.Column)

	case stmt.Write != nil:
		sym := b.resolveSymbol(stmt.Write.Symbol)
		if !b.ok {
			return nil
		}
		return simpleInstr(OpWrite, sym, stmt.Write.Pos.Line, stmt.Write.Pos.Column)

	case stmt.Call != nil:
		if _, declared := b.procedures[stmt.Call.Name]; !declared {
			b.errorf(stmt.Call.Pos, "procedure %q is not defined", stmt.Call.Name)
			return nil
		}
		return simpleInstr(OpCall, stmt.Call.Name, stmt.Call.Pos.Line, stmt.Call.Pos.Column)

	case stmt.If != nil:
		return b.buildIf(stmt.If)

	case stmt.While != nil:
		cond := b.buildCond(stmt.While.Cond)
		if !b.ok {
			return nil
		}
		body := b.buildBlock(stmt.While.Body)
		if !b.ok {
			return nil
		}
		return whileInstr(cond, body, stmt.While.Pos.Line, stmt.While.Pos.Column)

	case stmt.Var != nil:
		return b.buildVar(stmt.Var)
	}
	b.errorf(stmt.Pos, "unknown statement")
	return nil
}

func (b *builder) buildIf(node *parser.IfStmt) *Instr {
	cond := b.buildCond(node.Cond)
	if !b.ok {
		return nil
	}
	then := b.buildBlock(node.Then)
	if !b.ok {
		return nil
	}

	var els Block
	if node.Else != nil {
		if node.Else.If != nil {
			chained := b.buildIf(node.Else.If)
			if !b.ok {
				return nil
			}
			els = Block{chained}
		} else {
			els = b.buildBlock(node.Else.Block)
			if !b.ok {
				return nil
			}
		}
	}
	return ifInstr(cond, then, els, node.Pos.Line, node.Pos.Column)
}

func (b *builder) buildVar(node *parser.VarStmt) *Instr {
	switch {
	case node.Inc:
		return simpleInstr(OpVarInc, "", node.Pos.Line, node.Pos.Column)
	case node.Dec:
		return simpleInstr(OpVarDec, "", node.Pos.Line, node.Pos.Column)
	default:
		value := b.resolveInt8(node.Set)
		if !b.ok {
			return nil
		}
		return varSetInstr(value, node.Pos.Line, node.Pos.Column)
	}
}

func (b *builder) buildCond(node *parser.CondExpr) *Condition {
	left := b.buildXor(node.First)
	for _, rest := range node.Rest {
		if !b.ok {
			return nil
		}
		right := b.buildXor(rest)
		if !b.ok {
			return nil
		}
		left = binaryCond(CondOr, left, right)
	}
	return left
}

func (b *builder) buildXor(node *parser.XorExpr) *Condition {
	left := b.buildAnd(node.First)
	for _, rest := range node.Rest {
		if !b.ok {
			return nil
		}
		right := b.buildAnd(rest)
		if !b.ok {
			return nil
		}
		left = binaryCond(CondXor, left, right)
	}
	return left
}

func (b *builder) buildAnd(node *parser.AndExpr) *Condition {
	left := b.buildNot(node.First)
	for _, rest := range node.Rest {
		if !b.ok {
			return nil
		}
		right := b.buildNot(rest)
		if !b.ok {
			return nil
		}
		left = binaryCond(CondAnd, left, right)
	}
	return left
}

func (b *builder) buildNot(node *parser.NotExpr) *Condition {
	if node.Not != nil {
		operand := b.buildNot(node.Not)
		if !b.ok {
			return nil
		}
		return notCond(operand)
	}
	return b.buildPrimary(node.Primary)
}

func (b *builder) buildPrimary(node *parser.PrimaryCond) *Condition {
	switch {
	case node.Paren != nil:
		return b.buildCond(node.Paren)

	case node.Read != nil:
		sym := b.resolveSymbol(node.Read.Symbol)
		if !b.ok {
			return nil
		}
		if node.Read.Op == "==" {
			return readEq(sym, node.Read.Pos.Line, node.Read.Pos.Column)
		}
		return readNeq(sym, node.Read.Pos.Line, node.Read.Pos.Column)

	case node.Var != nil:
		value := b.resolveInt8(node.Var.Value)
		if !b.ok {
			return nil
		}
		kind := CondVarLt
		if node.Var.Op == ">" {
			kind = CondVarGt
		}
		return varCmp(kind, value, node.Var.Pos.Line, node.Var.Pos.Column)
	}
	b.errorf(node.Pos, "expected a condition")
	return nil
}

// resolveSymbol maps a string literal to an alphabet symbol, resolving
// the 'blank' keyword and rejecting anything undeclared.
func (b *builder) resolveSymbol(lit *parser.StringLit) machine.Symbol {
	raw := lit.Text()
	if raw == "blank" {
		return machine.Blank
	}
	if !b.alphabetSet[raw] {
		b.errorf(lit.Pos, "symbol %q is not defined in the alphabet", raw)
		return ""
	}
	return raw
}

// resolveInt8 parses a number literal and range-checks it against i8.
func (b *builder) resolveInt8(lit *parser.NumberLit) int {
	v, err := lit.Int()
	if err != nil || v < -128 || v > 127 {
		b.errorf(lit.Pos, "number %s is out of range [-128, 127]", lit.Value)
		return 0
	}
	return v
}
