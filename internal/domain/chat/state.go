package chat

// Mode is the delivery strategy of a session. Escalation only moves forward; Reset returns to ModeDirect.
type Mode string

const (
	ModeDirect    Mode = "direct"
	ModeRelay     Mode = "relay"
	ModeLocalOnly Mode = "localOnly"
)

// Outcome classifies the result of one send.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeNetworkFailure
	OutcomeServerFailure
	OutcomeOtherFailure
)

// Transition returns the mode to use after a send in mode ended with outcome.
func Transition(mode Mode, outcome Outcome) Mode {
	if outcome != OutcomeNetworkFailure {
		return mode
	}
	switch mode {
	case ModeDirect:
		return ModeRelay
	case ModeRelay:
		return ModeLocalOnly
	default:
		return mode
	}
}
