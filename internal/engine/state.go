package engine

// State is the canonical lifecycle status of the live session.
type State string

const (
	StateIdle       State = "idle"
	StateCountdown  State = "countdown"
	StateTracking   State = "tracking"
	StatePaused     State = "paused"
	StateAutoPaused State = "auto_paused"
	StateStopping   State = "stopping"
	StateSummary    State = "summary"
	StateSaving     State = "saving"
)

// legalEdges is the transition graph. The engine's operations are written to
// move only along these edges; LegalTransition is the oracle the tests use
// to verify every observed status change.
var legalEdges = map[State][]State{
	StateIdle:       {StateCountdown},
	StateCountdown:  {StateIdle, StateTracking},
	StateTracking:   {StatePaused, StateAutoPaused, StateStopping, StateIdle},
	StatePaused:     {StateTracking, StateStopping, StateIdle},
	StateAutoPaused: {StateTracking, StateStopping, StateIdle},
	StateStopping:   {StateSummary, StateIdle},
	StateSummary:    {StateSaving, StateIdle},
	StateSaving:     {StateIdle, StateSummary},
}

// LegalTransition reports whether the state machine may move from one
// status to another. Discard maps to the Idle edge present on every state.
func LegalTransition(from, to State) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}
