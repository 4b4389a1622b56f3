package bulk

import "fmt"

// State is the phase of one invocation.
type State string

const (
	Idle       State = "idle"
	Confirming State = "confirming"
	Cancelled  State = "cancelled"
	Executing  State = "executing"
	Completed  State = "completed"
)

var transitions = map[State][]State{
	Idle:       {Confirming},
	Confirming: {Cancelled, Executing},
	Cancelled:  {Idle},
	Executing:  {Completed},
	Completed:  {Idle},
}

func canMove(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// move advances the orchestrator; an invalid move is a programming error.
func (o *Orchestrator[T]) move(to State) {
	o.mu.Lock()
	from := o.state
	if !canMove(from, to) {
		o.mu.Unlock()
		panic(fmt.Sprintf("bulk: invalid transition %s -> %s", from, to))
	}
	o.state = to
	hook := o.onTransition
	o.mu.Unlock()
	if hook != nil {
		hook(from, to)
	}
}

// State returns the current phase.
func (o *Orchestrator[T]) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}
