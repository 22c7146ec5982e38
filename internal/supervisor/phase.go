package supervisor

// State is the supervisor's internal connection state.
type State int

const (
	StateProbing State = iota
	StateLive
	StatePolling
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateLive:
		return "live"
	case StatePolling:
		return "polling"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Phase is the connectivity value shown on the dashboard badge.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseLiveUpdates
	PhasePolling
	PhaseReconnecting
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseLiveUpdates:
		return "live"
	case PhasePolling:
		return "polling"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Label is the badge text.
func (p Phase) Label() string {
	switch p {
	case PhaseLiveUpdates:
		return "Live updates"
	case PhasePolling:
		return "Polling"
	case PhaseReconnecting:
		return "Reconnecting…"
	case PhaseDisconnected:
		return "Disconnected"
	default:
		return "Connecting…"
	}
}

// project maps the internal state onto the badge phase. Reconnecting is a
// display-only refinement of Probing and Live.
func project(s State, reconnecting bool) Phase {
	switch s {
	case StateProbing:
		if reconnecting {
			return PhaseReconnecting
		}
		return PhaseUnknown
	case StateLive:
		if reconnecting {
			return PhaseReconnecting
		}
		return PhaseLiveUpdates
	case StatePolling:
		return PhasePolling
	case StateDegraded:
		return PhaseDisconnected
	default:
		return PhaseUnknown
	}
}
