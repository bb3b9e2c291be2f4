package machine

import (
	"fmt"
	"sort"
	"strings"
)

// StateID identifies a machine state.
type StateID = int

// Transition is one rule of the machine program: on (state, symbol)
// write Write, move the head by Move and switch to Next.
type Transition struct {
	Next  StateID
	Write Symbol
	Move  Move
}

type tableKey struct {
	state  StateID
	symbol Symbol
}

// TransitionTable is the compiled program of a Turing machine: a
// deterministic mapping from (state, symbol) to a transition. At most
// one transition exists per key; Add rejects duplicates so a generator
// bug that would overwrite an emitted rule is caught, not masked.
type TransitionTable struct {
	StartState StateID
	HaltState  StateID

	transitions map[tableKey]Transition
}

// NewTable creates an empty transition table.
func NewTable() *TransitionTable {
	return &TransitionTable{transitions: make(map[tableKey]Transition)}
}

// Add inserts a transition. Inserting a second transition for the same
// (state, symbol) pair is an error and leaves the first one in place.
func (t *TransitionTable) Add(state StateID, sym Symbol, tr Transition) error {
	key := tableKey{state, sym}
	if _, exists := t.transitions[key]; exists {
		return fmt.Errorf("duplicate transition for state %d symbol %q", state, sym)
	}
	t.transitions[key] = tr
	return nil
}

// Has reports whether a transition exists for (state, symbol).
func (t *TransitionTable) Has(state StateID, sym Symbol) bool {
	_, ok := t.transitions[tableKey{state, sym}]
	return ok
}

// Get returns the transition for (state, symbol). A missing entry is a
// runtime signal for the interpreter, not a table error.
func (t *TransitionTable) Get(state StateID, sym Symbol) (Transition, bool) {
	tr, ok := t.transitions[tableKey{state, sym}]
	return tr, ok
}

// Len returns the number of transitions.
func (t *TransitionTable) Len() int {
	return len(t.transitions)
}

// States returns every state mentioned by the table, sorted. Start and
// halt states are always included.
func (t *TransitionTable) States() []StateID {
	seen := map[StateID]bool{t.StartState: true, t.HaltState: true}
	for key, tr := range t.transitions {
		seen[key.state] = true
		seen[tr.Next] = true
	}
	out := make([]StateID, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Alphabet returns every symbol mentioned by the table, sorted.
func (t *TransitionTable) Alphabet() []Symbol {
	seen := map[Symbol]bool{}
	for key, tr := range t.transitions {
		seen[key.symbol] = true
		seen[tr.Write] = true
	}
	out := make([]Symbol, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Validate checks the structural invariant: start and halt must differ
// unless the table is empty (the empty program halts immediately).
func (t *TransitionTable) Validate() error {
	if t.StartState == t.HaltState && len(t.transitions) > 0 {
		return fmt.Errorf("start state equals halt state (%d)", t.StartState)
	}
	return nil
}

// HaltReachable traces states reachable from the start state over the
// transition graph and reports whether the halt state is among them.
func (t *TransitionTable) HaltReachable() bool {
	if t.StartState == t.HaltState {
		return true
	}
	next := map[StateID][]StateID{}
	for key, tr := range t.transitions {
		next[key.state] = append(next[key.state], tr.Next)
	}
	seen := map[StateID]bool{t.StartState: true}
	queue := []StateID{t.StartState}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, n := range next[s] {
			if n == t.HaltState {
				return true
			}
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}

// Dump renders the table as sorted text, one rule per line.
func (t *TransitionTable) Dump() string {
	keys := make([]tableKey, 0, len(t.transitions))
	for key := range t.transitions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].state != keys[j].state {
			return keys[i].state < keys[j].state
		}
		return keys[i].symbol < keys[j].symbol
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "start q%d halt q%d\n", t.StartState, t.HaltState)
	for _, key := range keys {
		tr := t.transitions[key]
		fmt.Fprintf(&sb, "q%d %q -> q%d %q %s\n", key.state, key.symbol, tr.Next, tr.Write, tr.Move)
	}
	return sb.String()
}
