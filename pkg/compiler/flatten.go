package compiler

import "fmt"

// flattenProcedure inlines every call site of the named procedure into
// a single call-free block. Each inlined occurrence is a structural
// copy: it contributes its own states later, and no return state is
// needed because procedures have no return value. The call stack
// detects re-entry, which would need runtime recursion.
func flattenProcedure(name string, procedures map[string]*Procedure, out *Block, callStack map[string]bool, diags *[]Diagnostic, line, col int) bool {
	if callStack[name] {
		*diags = append(*diags, Diagnostic{LevelError, line, col,
			fmt.Sprintf("recursion is not supported (procedure %q calls itself)", name)})
		return false
	}

	proc, found := procedures[name]
	if !found {
		*diags = append(*diags, Diagnostic{LevelError, line, col,
			fmt.Sprintf("procedure %q not found", name)})
		return false
	}

	callStack[name] = true
	ok := flattenBlock(proc.Body, procedures, out, callStack, diags)
	delete(callStack, name)
	return ok
}

func flattenBlock(block Block, procedures map[string]*Procedure, out *Block, callStack map[string]bool, diags *[]Diagnostic) bool {
	for _, in := range block {
		switch in.Op {
		case OpCall:
			if !flattenProcedure(in.Arg, procedures, out, callStack, diags, in.Line, in.Column) {
				return false
			}

		case OpIfElse:
			var flatThen, flatElse Block
			if !flattenBlock(in.Then, procedures, &flatThen, callStack, diags) {
				return false
			}
			if !flattenBlock(in.Else, procedures, &flatElse, callStack, diags) {
				return false
			}
			*out = append(*out, ifInstr(in.Cond, flatThen, flatElse, in.Line, in.Column))

		case OpWhile:
			var flatBody Block
			if !flattenBlock(in.Then, procedures, &flatBody, callStack, diags) {
				return false
			}
			*out = append(*out, whileInstr(in.Cond, flatBody, in.Line, in.Column))

		default:
			*out = append(*out, in)
		}
	}
	return true
}
