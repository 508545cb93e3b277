package guidance

import "fmt"

// Phase is the top-level state of the guidance machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGuiding
	PhaseAwaitingContinue
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGuiding:
		return "guiding"
	case PhaseAwaitingContinue:
		return "awaiting_continue"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// TriggerKind identifies a distance band of spoken maneuver guidance.
type TriggerKind int

const (
	TriggerNone TriggerKind = iota
	TriggerVeryFar
	TriggerFar
	TriggerMedium
	TriggerNear
	TriggerNow
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerNone:
		return "none"
	case TriggerVeryFar:
		return "very_far"
	case TriggerFar:
		return "far"
	case TriggerMedium:
		return "medium"
	case TriggerNear:
		return "near"
	case TriggerNow:
		return "now"
	default:
		return fmt.Sprintf("TriggerKind(%d)", int(k))
	}
}

// Side is the left/right hint given on arrival.
type Side int

const (
	SideUnknown Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "unknown"
	}
}

// EventKind distinguishes the outputs of an evaluation.
type EventKind int

const (
	EventSpeak EventKind = iota
	EventLegComplete
	EventArrived
)

// Event is one effect produced by the machine. The caller routes it to the
// narration sink, the UI, or the session owner.
type Event struct {
	Kind      EventKind
	Text      string
	Trigger   TriggerKind
	Leg       int
	Overshoot bool
	Side      Side
	FinalLeg  bool
}

func speak(text string, trigger TriggerKind) Event {
	return Event{Kind: EventSpeak, Text: text, Trigger: trigger}
}
