package game

// Phase is the fine-grained position of a room in the round lifecycle:
//
//	lobby -> roundSetup -> answering -> allAnswersIn -> scoring -> roundSetup ...
//
// with the reopen edge (allAnswersIn|scoring -> answering) and a terminal
// ended phase reachable from anywhere.
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseRoundSetup   Phase = "roundSetup"
	PhaseAnswering    Phase = "answering"
	PhaseAllAnswersIn Phase = "allAnswersIn"
	PhaseScoring      Phase = "scoring"
	PhaseEnded        Phase = "ended"
)

func (p Phase) String() string { return string(p) }

var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:        {PhaseRoundSetup},
	PhaseRoundSetup:   {PhaseAnswering},
	PhaseAnswering:    {PhaseAllAnswersIn},
	PhaseAllAnswersIn: {PhaseScoring, PhaseAnswering, PhaseRoundSetup},
	PhaseScoring:      {PhaseAnswering, PhaseRoundSetup},
}

// CanTransitionTo reports whether moving from p to target is a legal edge of
// the round lifecycle. Ended is reachable from every phase.
func (p Phase) CanTransitionTo(target Phase) bool {
	if target == PhaseEnded {
		return p != PhaseEnded
	}
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// GameStatus collapses the phase into the coarse status carried on the wire:
// lobby, playing, scoring or ended.
func (p Phase) GameStatus() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseRoundSetup, PhaseAnswering, PhaseAllAnswersIn:
		return "playing"
	case PhaseScoring:
		return "scoring"
	case PhaseEnded:
		return "ended"
	}
	return string(p)
}
