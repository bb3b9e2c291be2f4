package compiler

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/turmLang/turm/pkg/machine"
	"github.com/turmLang/turm/pkg/parser"
)

const runBound = 2_000_000

// runProgram compiles src, resets a machine on the initial tape and
// runs it to halt. Compilation or a missed halt is fatal.
func runProgram(t *testing.T, src string) (CompileResult, *machine.Machine) {
	t.Helper()
	res := Compile(src)
	if !res.OK {
		t.Fatalf("compile failed:\n%s", spew.Sdump(res.Diagnostics))
	}
	m := machine.New()
	m.Reset(res.InitialTape, res.Table.StartState)
	last := m.Run(res.Table, runBound)
	if !m.Halted {
		t.Fatalf("no halt within %d steps (state q%d, head %d)", runBound, m.State, m.Head)
	}
	if last != machine.StepHalted {
		t.Fatalf("expected a clean halt, got %v", last)
	}
	return res, m
}

// varByte reads the variable zone back as the stored uint8 pattern.
func varByte(t *testing.T, m *machine.Machine) uint8 {
	t.Helper()
	var v uint8
	for i := 0; i < MemBits; i++ {
		v <<= 1
		switch sym := m.Tape.Get(MSBPosition + int64(i)); sym {
		case SymBit1:
			v |= 1
		case SymBit0:
		default:
			t.Fatalf("bit cell %d holds %q", i, sym)
		}
	}
	return v
}

// assertNoMarker checks the marker invariant: no '#' survives a
// completed variable operation.
func assertNoMarker(t *testing.T, m *machine.Machine) {
	t.Helper()
	m.Tape.Each(func(pos int64, sym machine.Symbol) {
		if sym == SymMarker {
			t.Errorf("marker left behind at position %d", pos)
		}
	})
}

// assertZoneIntact checks the sentinels around the variable zone.
func assertZoneIntact(t *testing.T, m *machine.Machine) {
	t.Helper()
	if got := m.Tape.Get(MemBegin); got != SymBOM {
		t.Errorf("BOM missing at %d: %q", MemBegin, got)
	}
	if got := m.Tape.Get(MemEnd); got != SymEOM {
		t.Errorf("EOM missing at %d: %q", MemEnd, got)
	}
}

// === Seed scenarios ===

func TestEmptyMain(t *testing.T) {
	res := Compile(`Set_alphabet ""; Setup ""; proc main() {}`)
	if !res.OK {
		t.Fatalf("compile failed: %v", res.Diagnostics)
	}
	if res.Table.StartState != 0 || res.Table.HaltState != 0 {
		t.Errorf("expected start = halt = 0, got %d and %d", res.Table.StartState, res.Table.HaltState)
	}

	m := machine.New()
	m.Reset(res.InitialTape, res.Table.StartState)
	if got := m.Step(res.Table); got != machine.StepHalted {
		t.Errorf("first step: expected halted, got %v", got)
	}
}

func TestMoveAndWrite(t *testing.T) {
	_, m := runProgram(t, `
Set_alphabet "a b";
Setup "a a a";
proc main() {
    move_right; write "b";
    move_right; write "b";
}
`)
	for pos, want := range map[int64]machine.Symbol{0: "a", 1: "b", 2: "b"} {
		if got := m.Tape.Get(pos); got != want {
			t.Errorf("cell %d: expected %q, got %q", pos, want, got)
		}
	}
	if m.Head != 2 {
		t.Errorf("expected head 2, got %d", m.Head)
	}
}

func TestWhileSkip(t *testing.T) {
	_, m := runProgram(t, `
Set_alphabet "1 x";
Setup "1 1 1";
proc main() {
    while (read == "1") { move_right; }
    write "x";
}
`)
	for pos, want := range map[int64]machine.Symbol{0: "1", 1: "1", 2: "1", 3: "x"} {
		if got := m.Tape.Get(pos); got != want {
			t.Errorf("cell %d: expected %q, got %q", pos, want, got)
		}
	}
	if m.Head != 3 {
		t.Errorf("expected head 3, got %d", m.Head)
	}
}

func TestCounterLoop(t *testing.T) {
	_, m := runProgram(t, `
Set_alphabet "1";
Setup "";
proc main() {
    x = 0;
    while (x < 3) { x++; write "1"; move_right; }
}
`)
	for pos := int64(0); pos < 3; pos++ {
		if got := m.Tape.Get(pos); got != "1" {
			t.Errorf("cell %d: expected %q, got %q", pos, "1", got)
		}
	}
	if m.Head != 3 {
		t.Errorf("expected head 3, got %d", m.Head)
	}
	if got := varByte(t, m); got != 3 {
		t.Errorf("expected x bits 3, got %d", got)
	}
	assertNoMarker(t, m)
}

// === Procedures and flattening ===

func TestCallInlining(t *testing.T) {
	_, m := runProgram(t, `
Set_alphabet "a";
Setup "";
proc mark() { write "a"; move_right; }
proc main() { call mark; call mark; call mark; }
`)
	for pos := int64(0); pos < 3; pos++ {
		if got := m.Tape.Get(pos); got != "a" {
			t.Errorf("cell %d: expected %q, got %q", pos, "a", got)
		}
	}
	if m.Head != 3 {
		t.Errorf("expected head 3, got %d", m.Head)
	}
}

// === Variable subsystem ===

func TestVarSetRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, -1, 42, 127, -128} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			_, m := runProgram(t, fmt.Sprintf(`
Set_alphabet "a";
Setup "a";
proc main() { x = %d; }
`, n))
			if got := varByte(t, m); got != uint8(n) {
				t.Errorf("expected bit pattern %#02x, got %#02x", uint8(n), got)
			}
			if m.Head != 0 {
				t.Errorf("head must return to 0, got %d", m.Head)
			}
			if got := m.Tape.Get(0); got != "a" {
				t.Errorf("original symbol must be restored, got %q", got)
			}
			assertNoMarker(t, m)
			assertZoneIntact(t, m)
		})
	}
}

func TestVarIncDec(t *testing.T) {
	tests := []struct {
		name string
		body string
		want uint8
	}{
		{"inc", "x = 5; x++;", 6},
		{"dec", "x = 5; x--;", 4},
		{"inc wraps at 127", "x = 127; x++;", 0x80},
		{"dec wraps at -128", "x = -128; x--;", 0x7F},
		{"inc from -1", "x = -1; x++;", 0x00},
		{"dec from 0", "x = 0; x--;", 0xFF},
		{"round trip", "x = 42; x++; x--;", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := runProgram(t, fmt.Sprintf(`
Set_alphabet "a";
Setup "a";
proc main() { %s }
`, tt.body))
			if got := varByte(t, m); got != tt.want {
				t.Errorf("expected %#02x, got %#02x", tt.want, got)
			}
			assertNoMarker(t, m)
		})
	}
}

func TestCompareSigned(t *testing.T) {
	values := []int{-128, -5, -3, -1, 0, 1, 5, 127}
	for _, n := range values {
		for _, k := range values {
			for _, op := range []string{"<", ">"} {
				want := "F"
				if (op == "<" && n < k) || (op == ">" && n > k) {
					want = "T"
				}
				name := fmt.Sprintf("%d%s%d", n, op, k)
				t.Run(name, func(t *testing.T) {
					_, m := runProgram(t, fmt.Sprintf(`
Set_alphabet "T F";
Setup "";
proc main() {
    x = %d;
    if (x %s %d) { write "T"; } else { write "F"; }
}
`, n, op, k))
					if got := m.Tape.Get(0); got != want {
						t.Errorf("%s: expected %q, got %q", name, want, got)
					}
					assertNoMarker(t, m)
				})
			}
		}
	}
}

// === Conditions ===

func TestConditionOperators(t *testing.T) {
	// One symbol on the tape, one boolean condition; cell 1 records the
	// branch taken.
	tests := []struct {
		cond string
		tape string
		want machine.Symbol
	}{
		{`read == "a"`, "a", "T"},
		{`read == "a"`, "b", "F"},
		{`read != "a"`, "b", "T"},
		{`not read == "a"`, "a", "F"},
		{`read == "a" and read != "b"`, "a", "T"},
		{`read == "a" and read == "b"`, "a", "F"},
		{`read == "a" or read == "b"`, "b", "T"},
		{`read == "a" or read == "b"`, "blank", "F"},
		{`read == "a" xor read == "b"`, "a", "T"},
		{`read == "a" xor read != "b"`, "a", "F"},
		{`read == "a" xor read == "b"`, "blank", "F"},
		{`not (read == "a" or read == "b")`, "blank", "T"},
	}
	for _, tt := range tests {
		name := tt.cond + "/" + tt.tape
		t.Run(name, func(t *testing.T) {
			_, m := runProgram(t, fmt.Sprintf(`
Set_alphabet "a b T F";
Setup "%s";
proc main() {
    if (%s) { move_right; write "T"; } else { move_right; write "F"; }
}
`, tt.tape, tt.cond))
			if got := m.Tape.Get(1); got != tt.want {
				t.Errorf("expected %q at cell 1, got %q", tt.want, got)
			}
		})
	}
}

func TestElseIfChain(t *testing.T) {
	for tape, want := range map[string]machine.Symbol{"a": "1", "b": "2", "c": "3"} {
		t.Run(tape, func(t *testing.T) {
			_, m := runProgram(t, fmt.Sprintf(`
Set_alphabet "a b c 1 2 3";
Setup "%s";
proc main() {
    if (read == "a") { write "1"; }
    else if (read == "b") { write "2"; }
    else { write "3"; }
}
`, tape))
			if got := m.Tape.Get(0); got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestWhileWithEmptyBodyDoesNotHalt(t *testing.T) {
	res := Compile(`Set_alphabet "a"; Setup "a"; proc main() { while (read == "a") { } }`)
	if !res.OK {
		t.Fatalf("compile failed: %v", res.Diagnostics)
	}
	m := machine.New()
	m.Reset(res.InitialTape, res.Table.StartState)
	m.Run(res.Table, 1000)
	if m.Halted {
		t.Error("a while with a true condition and empty body must spin, not halt")
	}
}

// === Phases ===

func TestPhaseCrossing(t *testing.T) {
	_, m := runProgram(t, `
Set_alphabet "a b";
Setup "";
proc main() {
    move_left;
    write "a";
    move_right;
    write "b";
}
`)
	// One user step left from 0 skips the whole variable zone.
	if got := m.Tape.Get(-11); got != "a" {
		t.Errorf("expected %q left of the zone at -11, got %q", "a", got)
	}
	if got := m.Tape.Get(0); got != "b" {
		t.Errorf("expected %q back at 0, got %q", "b", got)
	}
	if m.Head != 0 {
		t.Errorf("expected head 0, got %d", m.Head)
	}
	assertZoneIntact(t, m)
}

func TestVarOpsFromPhaseL(t *testing.T) {
	// The variable subsystem must work with the head left of the zone.
	_, m := runProgram(t, `
Set_alphabet "a";
Setup "";
proc main() {
    move_left;
    write "a";
    x = 9;
    x++;
}
`)
	if got := varByte(t, m); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if m.Head != -11 {
		t.Errorf("expected head back at -11, got %d", m.Head)
	}
	if got := m.Tape.Get(-11); got != "a" {
		t.Errorf("expected %q restored at -11, got %q", "a", got)
	}
	assertNoMarker(t, m)
	assertZoneIntact(t, m)
}

func TestPhaseSymmetry(t *testing.T) {
	res := Compile(`
Set_alphabet "a b";
Setup "a";
proc main() {
    move_right;
    if (read == "a") { write "b"; } else { move_left; }
    while (read != "b") { move_right; }
}
`)
	if !res.OK {
		t.Fatalf("compile failed: %v", res.Diagnostics)
	}

	table := res.Table
	n := table.HaltState
	offset := n + 1
	for s := 0; s < n; s++ {
		for _, sym := range res.Alphabet {
			tr, ok := table.Get(s, sym)
			if !ok {
				continue
			}
			mirror, ok := table.Get(s+offset, sym)
			if !ok {
				t.Fatalf("no mirror for q%d %q at q%d", s, sym, s+offset)
			}
			if mirror.Write != tr.Write || mirror.Move != tr.Move {
				t.Errorf("mirror of q%d %q differs: %+v vs %+v", s, sym, tr, mirror)
			}
		}
	}

	// The phase-L halt forwards to the single external halt state.
	for _, sym := range res.Alphabet {
		tr, ok := table.Get(2*n+1, sym)
		if !ok || tr.Next != n || tr.Move != machine.MoveStay {
			t.Errorf("halt-L on %q must stay into halt-R, got %+v ok=%v", sym, tr, ok)
		}
	}
}

// === Structural properties ===

func TestGenerationDeterminism(t *testing.T) {
	src := `
Set_alphabet "a b c";
Setup "a b c";
proc main() {
    x = -7;
    while (x < 0) { x++; move_right; }
    if (read == "a" xor read == "b") { write "c"; }
}
`
	first := Compile(src)
	second := Compile(src)
	if !first.OK || !second.OK {
		t.Fatalf("compile failed: %v %v", first.Diagnostics, second.Diagnostics)
	}
	if first.Table.Dump() != second.Table.Dump() {
		t.Error("two compilations of the same source produced different tables")
	}
}

func TestStateLayout(t *testing.T) {
	res := Compile(`
Set_alphabet "a";
Setup "a";
proc main() {
    move_right;
    x = 1;
    while (x > 0) { x--; }
    write "a";
}
`)
	if !res.OK {
		t.Fatalf("compile failed: %v", res.Diagnostics)
	}

	table := res.Table
	n := table.HaltState
	if n <= 0 {
		t.Fatalf("expected a positive halt state, got %d", n)
	}

	// No transitions leave the halt state, and every state id stays
	// inside the two mirrored ranges.
	for _, sym := range res.Alphabet {
		if table.Has(n, sym) {
			t.Errorf("halt state has an outgoing transition on %q", sym)
		}
	}
	for _, s := range table.States() {
		if s < 0 || s > 2*n+1 {
			t.Errorf("state q%d outside [0, %d]", s, 2*n+1)
		}
	}
}

func TestWriteBlankCanonicalizes(t *testing.T) {
	_, m := runProgram(t, `
Set_alphabet "a";
Setup "a";
proc main() { write "blank"; }
`)
	if got := m.Tape.Get(0); got != machine.Blank {
		t.Errorf("expected blank at 0, got %q", got)
	}
	// Only the ten zone cells remain stored.
	if m.Tape.Len() != 10 {
		t.Errorf("expected 10 stored cells, got %d", m.Tape.Len())
	}
}

func TestCountStatesMatchesLayout(t *testing.T) {
	src := `
Set_alphabet "a b";
Setup "a";
proc main() {
    move_left;
    x = 3;
    if (x > 1) { write "b"; } else { x++; }
    while (read == "a") { move_right; }
}
`
	res := Compile(src)
	if !res.OK {
		t.Fatalf("compile failed: %v", res.Diagnostics)
	}

	// Rebuild the flat IR the same way Compile does and check the
	// count pass against the emitted layout.
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	tape := machine.NewTape()
	b := newBuilder(tape)
	if !b.run(prog) {
		t.Fatalf("builder failed: %v", b.diags)
	}
	var flat Block
	var diags []Diagnostic
	if !flattenProcedure("main", b.procedures, &flat, map[string]bool{}, &diags, 1, 1) {
		t.Fatalf("flatten failed: %v", diags)
	}
	alphabet := append(append([]machine.Symbol{}, b.alphabet...), SystemSymbols()...)

	if got := countBlock(flat, alphabet); got != res.Table.HaltState {
		t.Errorf("countBlock %d != halt state %d", got, res.Table.HaltState)
	}
}
