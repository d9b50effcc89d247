package engine

// Action names a Session operation that a phase may admit.
type Action uint8

const (
	ActionToggleSelect Action = iota // 0
	ActionLayMeld                    // 1
	ActionDiscard                    // 2
	ActionRunPursuer                 // 3
	ActionEndPursuer                 // 4
)

func (a Action) String() string {
	switch a {
	case ActionToggleSelect:
		return "toggle_select"
	case ActionLayMeld:
		return "lay_meld"
	case ActionDiscard:
		return "discard"
	case ActionRunPursuer:
		return "run_pursuer_turn"
	case ActionEndPursuer:
		return "end_pursuer_turn"
	default:
		return "unknown"
	}
}

// LegalActions returns the actions the current phase admits. Whether a meld
// or discard then succeeds still depends on the selection.
func (s *Session) LegalActions() []Action {
	switch s.phase {
	case PhasePlayerTurn:
		return []Action{ActionToggleSelect, ActionLayMeld, ActionDiscard}
	case PhasePursuerThinking:
		return []Action{ActionRunPursuer}
	case PhasePursuerReveal:
		return []Action{ActionEndPursuer}
	}
	// Terminal: no legal actions.
	return nil
}

// IsLegal reports whether a is admitted in the current phase.
func (s *Session) IsLegal(a Action) bool {
	for _, l := range s.LegalActions() {
		if l == a {
			return true
		}
	}
	return false
}
