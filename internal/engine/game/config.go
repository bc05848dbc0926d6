package game

import (
	"fmt"
	"time"

	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

// PenaltyPolicy decides what an invalid move costs.
type PenaltyPolicy string

const (
	PenaltySkipTurn PenaltyPolicy = "SKIP_TURN"
	PenaltyLoseGame PenaltyPolicy = "LOSE_GAME"
)

type Limits struct {
	MaxLines      int
	MaxComplexity int
}

type Budgets struct {
	EvalMaxSteps int
	EvalTimeout  time.Duration
	AgentTimeout time.Duration
}

type PlayerConfig struct {
	ID      string
	Victory string
}

// Config is fixed for the whole game; it is validated once before turn 1 and
// never consulted for anything mutable afterwards.
type Config struct {
	MaxTurns     int
	MemoryWindow int
	Penalty      PenaltyPolicy
	Variables    lang.Bindings
	Limits       Limits
	Budgets      Budgets
	Players      [2]PlayerConfig
}

// Validate reports fatal misconfiguration. Any error here aborts the game
// before the first turn; nothing in this class is retried.
func (c Config) Validate() error {
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max_turns must be positive, got %d", c.MaxTurns)
	}
	if c.MemoryWindow < 0 {
		return fmt.Errorf("memory_window must not be negative, got %d", c.MemoryWindow)
	}
	switch c.Penalty {
	case PenaltySkipTurn, PenaltyLoseGame:
	default:
		return fmt.Errorf("invalid invalid_move_penalty %q", c.Penalty)
	}
	if len(c.Variables) == 0 {
		return fmt.Errorf("no variables declared")
	}
	if c.Limits.MaxLines <= 0 || c.Limits.MaxComplexity <= 0 {
		return fmt.Errorf("contract limits must be positive, got lines=%d complexity=%d",
			c.Limits.MaxLines, c.Limits.MaxComplexity)
	}
	if c.Budgets.EvalMaxSteps <= 0 || c.Budgets.EvalTimeout <= 0 {
		return fmt.Errorf("evaluator budgets must be positive")
	}
	if c.Budgets.AgentTimeout <= 0 {
		return fmt.Errorf("agent timeout must be positive")
	}
	seen := map[string]struct{}{}
	for _, p := range c.Players {
		if p.ID == "" {
			return fmt.Errorf("player with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate player id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Victory == "" {
			return fmt.Errorf("player %s has no victory condition", p.ID)
		}
	}
	return nil
}
