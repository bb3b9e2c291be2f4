package machine

// StepResult reports the outcome of a single machine step.
type StepResult int

const (
	// StepOk means a transition fired and the machine keeps running.
	StepOk StepResult = iota
	// StepHalted means the machine is in (or just reached) the halt state,
	// or was already latched halted before the step.
	StepHalted
	// StepNoTransition means no rule exists for the current (state,
	// symbol) pair; the machine is latched halted.
	StepNoTransition
)

func (r StepResult) String() string {
	switch r {
	case StepOk:
		return "ok"
	case StepHalted:
		return "halted"
	case StepNoTransition:
		return "no transition"
	}
	return "?"
}

// Machine is the full configuration of a running Turing machine.
type Machine struct {
	Tape   *Tape
	Head   int64
	State  StateID
	Halted bool
	Steps  uint64
}

// New creates a machine with an empty tape, halted until the first Reset.
func New() *Machine {
	return &Machine{Tape: NewTape(), Halted: true}
}

// Reset copies the initial tape, places the head at 0 and enters the
// start state with a zeroed step counter.
func (m *Machine) Reset(initial *Tape, start StateID) {
	m.Tape = initial.Clone()
	m.Head = 0
	m.State = start
	m.Halted = false
	m.Steps = 0
}

// Read returns the symbol under the head.
func (m *Machine) Read() Symbol {
	return m.Tape.Get(m.Head)
}

// Step executes one transition: read, look up, write, move, switch
// state, latch halt. A halted machine returns StepHalted forever; a
// missing rule latches the machine halted and returns StepNoTransition.
func (m *Machine) Step(table *TransitionTable) StepResult {
	if m.Halted {
		return StepHalted
	}
	if m.State == table.HaltState {
		m.Halted = true
		return StepHalted
	}

	tr, ok := table.Get(m.State, m.Read())
	if !ok {
		m.Halted = true
		return StepNoTransition
	}

	m.Tape.Set(m.Head, tr.Write)
	switch tr.Move {
	case MoveLeft:
		m.Head--
	case MoveRight:
		m.Head++
	}
	m.State = tr.Next
	m.Halted = m.State == table.HaltState
	m.Steps++

	if m.Halted {
		return StepHalted
	}
	return StepOk
}

// Run steps the machine until it halts, misses a transition, or
// maxSteps transitions have fired (0 means no bound). It returns the
// last step result.
func (m *Machine) Run(table *TransitionTable, maxSteps uint64) StepResult {
	result := StepOk
	for !m.Halted {
		if maxSteps > 0 && m.Steps >= maxSteps {
			return result
		}
		result = m.Step(table)
	}
	return result
}
