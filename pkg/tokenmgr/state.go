package tokenmgr

// State is a named session state. The manager moves through these states
// only via the transition table below; any other change is a bug surfaced
// as ErrInvalidTransition.
type State string

const (
	// StateAnonymous means no credential pair is held.
	StateAnonymous State = "anonymous"
	// StateAuthenticated means a credential pair is held and usable.
	StateAuthenticated State = "authenticated"
	// StateRefreshing means a refresh call is in flight; callers that hit
	// 401 while in this state await the shared outcome.
	StateRefreshing State = "refreshing"
)

// transitions is the set of allowed state changes:
// login promotes Anonymous, a 401 starts a refresh cycle, the cycle ends in
// Authenticated (success) or Anonymous (forced logout), and logout always
// lands in Anonymous. Anonymous→Anonymous keeps Logout idempotent.
var transitions = map[State][]State{
	StateAnonymous:     {StateAnonymous, StateAuthenticated},
	StateAuthenticated: {StateAuthenticated, StateRefreshing, StateAnonymous},
	StateRefreshing:    {StateAuthenticated, StateAnonymous},
}

func (s State) canTransition(to State) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}
