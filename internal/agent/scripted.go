package agent

import (
	"context"
	"fmt"
)

// Scripted plays a fixed move list in order and keeps repeating the final
// move once the list runs out. Used by local games and tests.
type Scripted struct {
	id    string
	moves []Response
	next  int
}

func NewScripted(id string, moves []Response) *Scripted {
	return &Scripted{id: id, moves: moves}
}

func (s *Scripted) ID() string { return s.id }

func (s *Scripted) ProposeMove(ctx context.Context, tc TurnContext) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(s.moves) == 0 {
		return Response{}, fmt.Errorf("agent %s has no scripted moves", s.id)
	}
	r := s.moves[s.next]
	if s.next < len(s.moves)-1 {
		s.next++
	}
	return r, nil
}
