// Package agent is the engine's outward boundary: something that, given the
// current turn context, returns one proposed move before the caller's
// deadline. How the proposal is produced (scripted, human, model-backed) is
// not the engine's concern.
package agent

import (
	"context"

	"github.com/bluewin4/infinite-contract/internal/engine/history"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

// TurnContext is everything the active player may see this turn.
type TurnContext struct {
	GameID   string
	Turn     int
	PlayerID string

	Lines     []string
	Order     []int
	Variables lang.Bindings

	Memory           history.MemoryView
	VictoryCondition string
	LegalMoveKinds   []lang.MoveKind
}

// Response is one agent answer. ScratchPad is recorded verbatim and never
// interpreted; Note, when non-empty, is appended to the agent's private
// strategy notes.
type Response struct {
	Proposal   lang.MoveProposal
	ScratchPad string
	Note       string
}

type Agent interface {
	ID() string
	// ProposeMove must return before ctx's deadline. The engine never
	// retries: an error, timeout, or empty proposal is an invalid move.
	ProposeMove(ctx context.Context, tc TurnContext) (Response, error)
}
