// turm compiles Turing-machine language programs and runs them to halt.
// With no file arguments it starts an interactive stepper.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/turmLang/turm/pkg/compiler"
	"github.com/turmLang/turm/pkg/machine"
)

var (
	flagSteps = flag.Uint64("steps", 1_000_000, "Maximum steps per run (0 = unlimited)")
	flagQuiet = flag.Bool("quiet", false, "Quiet mode (no banner in interactive mode)")
	flagTrace = flag.Bool("trace", false, "Print every step while running")
)

const historyFile = ".turm_history"

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		interactive()
		return
	}

	for _, filename := range args {
		if err := runFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func runFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	result := compiler.Compile(string(data))
	printDiagnostics(result.Diagnostics)
	if !result.OK {
		return fmt.Errorf("compilation of %s failed", filename)
	}

	m := machine.New()
	m.Reset(result.InitialTape, result.Table.StartState)
	last := runMachine(m, result.Table)

	fmt.Printf("%s: %s after %d steps, state q%d, head %d\n",
		filename, last, m.Steps, m.State, m.Head)
	fmt.Println(tapeView(m))
	return nil
}

func runMachine(m *machine.Machine, table *machine.TransitionTable) machine.StepResult {
	last := machine.StepOk
	for !m.Halted {
		if *flagSteps > 0 && m.Steps >= *flagSteps {
			fmt.Printf("step limit of %d reached\n", *flagSteps)
			break
		}
		last = m.Step(table)
		if *flagTrace {
			fmt.Printf("  %6d: q%d head=%d read=%q\n", m.Steps, m.State, m.Head, m.Read())
		}
	}
	return last
}

func printDiagnostics(diags []compiler.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d)
	}
}

// tapeView renders the written span of the tape with a caret under the
// head position.
func tapeView(m *machine.Machine) string {
	lo, hi := m.Tape.Bounds(m.Head)

	var cells, caret strings.Builder
	fmt.Fprintf(&cells, "%d: ", lo)
	caret.WriteString(strings.Repeat(" ", len(fmt.Sprintf("%d: ", lo))))
	for pos := lo; pos <= hi; pos++ {
		sym := m.Tape.Get(pos)
		cell := "[" + sym + "]"
		cells.WriteString(cell)
		if pos == m.Head {
			caret.WriteString("^" + strings.Repeat(" ", len(cell)-1))
		} else {
			caret.WriteString(strings.Repeat(" ", len(cell)))
		}
	}
	return cells.String() + "\n" + caret.String()
}

// === Interactive mode ===

type session struct {
	result *compiler.CompileResult
	m      *machine.Machine
}

func interactive() {
	if !*flagQuiet {
		fmt.Println("turm interactive stepper (:help for commands)")
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	var s session
	for {
		line, err := ln.Prompt("turm> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if !s.handle(line) {
			return
		}
	}
}

// handle executes one command line; it returns false to quit.
func (s *session) handle(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case ":quit", ":q", ":exit":
		return false

	case ":help", ":h", ":?":
		printHelp()

	case ":load", ":l":
		if len(args) != 1 {
			fmt.Println("Usage: :load <file>")
			return true
		}
		s.load(args[0])

	case ":step", ":s":
		n := 1
		if len(args) == 1 {
			n, _ = strconv.Atoi(args[0])
		}
		s.step(n)

	case ":run", ":r":
		n := int(*flagSteps)
		if n == 0 {
			n = 1_000_000_000
		}
		if len(args) == 1 {
			n, _ = strconv.Atoi(args[0])
		}
		s.step(n)

	case ":tape", ":t":
		if s.ready() {
			fmt.Println(tapeView(s.m))
		}

	case ":state":
		if s.ready() {
			fmt.Printf("state q%d head %d steps %d halted %v\n", s.m.State, s.m.Head, s.m.Steps, s.m.Halted)
		}

	case ":table":
		if s.ready() {
			fmt.Print(s.result.Table.Dump())
		}

	case ":reset":
		if s.ready() {
			s.m.Reset(s.result.InitialTape, s.result.Table.StartState)
			fmt.Println("machine reset")
		}

	default:
		fmt.Printf("unknown command %q (:help for commands)\n", cmd)
	}
	return true
}

func (s *session) load(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	result := compiler.Compile(string(data))
	printDiagnostics(result.Diagnostics)
	if !result.OK {
		fmt.Println("compilation failed")
		return
	}
	s.result = &result
	s.m = machine.New()
	s.m.Reset(result.InitialTape, result.Table.StartState)
	fmt.Printf("loaded %s: %d transitions, start q%d, halt q%d\n",
		filename, result.Table.Len(), result.Table.StartState, result.Table.HaltState)
}

func (s *session) ready() bool {
	if s.result == nil {
		fmt.Println("no program loaded, use :load <file>")
		return false
	}
	return true
}

func (s *session) step(n int) {
	if !s.ready() {
		return
	}
	for i := 0; i < n && !s.m.Halted; i++ {
		s.m.Step(s.result.Table)
	}
	status := "running"
	if s.m.Halted {
		status = "halted"
	}
	fmt.Printf("%s at q%d after %d steps\n", status, s.m.State, s.m.Steps)
	fmt.Println(tapeView(s.m))
}

func printHelp() {
	fmt.Print(`Commands:
  :load <file>   Compile a program and reset the machine
  :step [n]      Execute one (or n) steps
  :run [n]       Run until halt or the step bound
  :tape          Show the written tape span and the head
  :state         Show state, head position and step count
  :table         Dump the transition table
  :reset         Reset the machine to the initial tape
  :quit          Exit
`)
}
