package decision

// State names the stages of a promotion validation run.
type State string

// Validation states. A run starts in StateBacktesting and always ends in
// StatePassed, StateFailed or StateError.
const (
	StateBacktesting State = "backtesting"
	StateJudging     State = "judging"
	StatePassed      State = "passed"
	StateFailed      State = "failed"
	StateError       State = "error"
)

// validTransitions defines the legal moves between validation states.
var validTransitions = map[State][]State{
	StateBacktesting: {StateJudging, StateError},
	StateJudging:     {StatePassed, StateFailed, StateError},
}

// canTransition reports whether moving from one state to another is legal.
func canTransition(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// isTerminal reports whether a state ends the run.
func isTerminal(s State) bool {
	return s == StatePassed || s == StateFailed || s == StateError
}
