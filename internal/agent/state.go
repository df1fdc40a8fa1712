package agent

// State is a position in the reasoning loop
type State int

const (
	// StateReasoning asks the completion provider for the next step
	StateReasoning State = iota
	// StateExecuting runs the tool calls requested in the last round
	StateExecuting
	// StateDone means the provider answered without tool calls
	StateDone
	// StateCapReached means the round limit was hit
	StateCapReached
)

func (s State) String() string {
	switch s {
	case StateReasoning:
		return "reasoning"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StateCapReached:
		return "cap_reached"
	default:
		return "unknown"
	}
}

// Terminal reports whether the loop has stopped
func (s State) Terminal() bool {
	return s == StateDone || s == StateCapReached
}
