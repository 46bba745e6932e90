package session

// State is a step of the interview session lifecycle.
type State int

const (
	StateUnconfigured State = iota
	StateStarting
	StateAwaitingAnswer
	StateSubmitting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateStarting:
		return "starting"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
