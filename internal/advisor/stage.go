package advisor

import "fmt"

// Stage is the conversation's current phase. Transitions only happen through
// the transition table; handlers signal events, they never assign stages.
type Stage int

const (
	// StageIntake collects the user's investment profile.
	StageIntake Stage = iota
	// StageRisk assigns a risk tier from the completed profile.
	StageRisk
	// StageRecommend has produced a recommendation and answers follow-ups.
	StageRecommend
	// StageComplete is the terminal state until the user restarts.
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageIntake:
		return "intake"
	case StageRisk:
		return "risk-assessment"
	case StageRecommend:
		return "recommendation"
	case StageComplete:
		return "complete"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Event is what a handler observed in the current turn.
type Event int

const (
	// EventStageDone fires when a handler sees its completion marker.
	EventStageDone Event = iota
	// EventClosure fires when the user signals they are finished.
	EventClosure
	// EventRestart fires when the user asks to start over.
	EventRestart
)

func (e Event) String() string {
	switch e {
	case EventStageDone:
		return "stage-done"
	case EventClosure:
		return "closure"
	case EventRestart:
		return "restart"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// transitions is the full state machine. A (stage, event) pair absent here is
// an illegal transition and leaves the stage unchanged.
var transitions = map[Stage]map[Event]Stage{
	StageIntake: {
		EventStageDone: StageRisk,
		EventRestart:   StageIntake,
	},
	StageRisk: {
		EventStageDone: StageRecommend,
		EventRestart:   StageIntake,
	},
	StageRecommend: {
		EventClosure: StageComplete,
		EventRestart: StageIntake,
	},
	StageComplete: {
		EventRestart: StageIntake,
	},
}

// next resolves a transition. ok is false for illegal (stage, event) pairs.
func next(s Stage, e Event) (Stage, bool) {
	to, ok := transitions[s][e]
	return to, ok
}
