package agent

// State is a step of one audit session.
type State string

// Session states. Completed and Failed are terminal.
const (
	StateStart        State = "start"
	StatePlanning     State = "planning"
	StateToolDispatch State = "tool_dispatch"
	StateToolResult   State = "tool_result"
	StateFinalizing   State = "finalizing"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// validTransitions lists the states reachable from each state.
var validTransitions = map[State][]State{
	StateStart:        {StatePlanning, StateFailed},
	StatePlanning:     {StateToolDispatch, StateFinalizing, StateFailed},
	StateToolDispatch: {StateToolResult, StateFailed},
	StateToolResult:   {StateToolDispatch, StateFinalizing, StateFailed},
	StateFinalizing:   {StateCompleted, StateFailed},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether the session may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
