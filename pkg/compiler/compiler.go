package compiler

import (
	"errors"

	"github.com/alecthomas/participle/v2"
	"github.com/turmLang/turm/pkg/machine"
	"github.com/turmLang/turm/pkg/parser"
)

// CompileResult is everything a caller needs to run or inspect the
// compiled program. When OK is false the table may be empty or partial
// and Diagnostics holds the errors; warnings may be present either way.
type CompileResult struct {
	OK          bool
	Table       *machine.TransitionTable
	Diagnostics []Diagnostic
	Alphabet    []machine.Symbol
	InitialTape *machine.Tape
}

// Compile runs the whole pipeline on source: parse, semantic build,
// flatten, generate, validate. It never fails with an error value; all
// problems land in the diagnostics of the returned result.
func Compile(source string) CompileResult {
	result := CompileResult{
		Table:       machine.NewTable(),
		InitialTape: machine.NewTape(),
	}
	seedVariableZone(result.InitialTape)

	prog, err := parser.Parse(source)
	if err != nil {
		result.Alphabet = append([]machine.Symbol{machine.Blank}, SystemSymbols()...)
		result.Diagnostics = append(result.Diagnostics, syntaxDiagnostic(err))
		return result
	}

	b := newBuilder(result.InitialTape)
	b.run(prog)
	result.Diagnostics = b.diags
	result.Alphabet = append(append([]machine.Symbol{}, b.alphabet...), SystemSymbols()...)
	result.OK = b.ok
	if !result.OK {
		return result
	}

	if _, hasMain := b.procedures["main"]; hasMain {
		var flat Block
		callStack := map[string]bool{}
		if !flattenProcedure("main", b.procedures, &flat, callStack, &result.Diagnostics, 1, 1) {
			result.OK = false
			return result
		}
		for _, problem := range Generate(flat, result.Alphabet, result.Table) {
			result.OK = false
			result.Diagnostics = append(result.Diagnostics, Diagnostic{LevelError, 0, 0, "code generation: " + problem})
		}
		if !result.OK {
			return result
		}
	}

	if err := result.Table.Validate(); err != nil {
		result.OK = false
		result.Diagnostics = append(result.Diagnostics, Diagnostic{LevelError, 0, 0, err.Error()})
		return result
	}
	if result.Table.Len() > 0 && !result.Table.HaltReachable() {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{LevelWarning, 0, 0, "halt state is not reachable from the start state"})
	}
	return result
}

// Errors reports whether the diagnostics contain at least one error.
func (r *CompileResult) Errors() bool {
	for _, d := range r.Diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

func syntaxDiagnostic(err error) Diagnostic {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return Diagnostic{LevelError, pos.Line, pos.Column, perr.Message()}
	}
	return Diagnostic{LevelError, 1, 1, err.Error()}
}
