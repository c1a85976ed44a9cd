package interview

import (
	"fmt"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

// transitions lists the allowed moves of the turn state machine.
// A failed evaluation returns to awaiting_answer; a failed generation stays in generating_next.
var transitions = map[entities.SessionState][]entities.SessionState{
	entities.SessionStateAwaitingAnswer: {entities.SessionStateEvaluating, entities.SessionStateComplete},
	entities.SessionStateEvaluating:     {entities.SessionStateGeneratingNext, entities.SessionStateAwaitingAnswer},
	entities.SessionStateGeneratingNext: {entities.SessionStateAwaitingAnswer},
	entities.SessionStateComplete:       nil,
}

// CanTransition reports whether from may move to to
func CanTransition(from, to entities.SessionState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to entities.SessionState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", entities.ErrInvalidState, from, to)
	}
	return nil
}

// persisted reports whether a state is written to the repository. evaluating only
// exists while the session lock is held.
func persisted(s entities.SessionState) bool {
	return s != entities.SessionStateEvaluating
}
