package game

import (
	"time"

	"github.com/bluewin4/infinite-contract/internal/engine/history"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

// Result is the write-only record of one finished game, handed to the
// profile store. The engine never reads prior results back.
type Result struct {
	GameID    string           `json:"game_id"`
	Winner    string           `json:"winner,omitempty"`
	Draw      bool             `json:"draw"`
	Turns     int              `json:"turns"`
	Variables lang.Bindings    `json:"variables"`
	Players   []string         `json:"players"`
	Victories map[string]string `json:"victories"`

	// MoveKindCounts is player id -> move kind -> times proposed.
	MoveKindCounts map[string]map[string]int `json:"move_kind_counts"`

	Records    []history.TurnRecord `json:"records"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

func (g *Game) result() Result {
	winner, draw := g.contract.Outcome()
	res := Result{
		GameID:         g.id,
		Winner:         winner,
		Draw:           draw,
		Turns:          g.hist.Len(),
		Variables:      g.contract.Bindings(),
		Victories:      map[string]string{},
		MoveKindCounts: map[string]map[string]int{},
		Records:        g.hist.Records(),
		StartedAt:      g.started.UTC(),
		FinishedAt:     time.Now().UTC(),
	}
	for _, ps := range g.players {
		res.Players = append(res.Players, ps.id)
		res.Victories[ps.id] = ps.cond.String()
		res.MoveKindCounts[ps.id] = map[string]int{}
	}
	for _, r := range g.hist.Records() {
		if lang.KnownMoveKind(r.Proposal.Kind) {
			res.MoveKindCounts[r.Player][string(r.Proposal.Kind)]++
		}
	}
	return res
}
