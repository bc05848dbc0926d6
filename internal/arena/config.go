// Package arena loads the immutable startup configuration for game
// instances. Loaded once; nothing here changes while games run.
package arena

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bluewin4/infinite-contract/internal/agent"
	"github.com/bluewin4/infinite-contract/internal/engine/game"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

type Config struct {
	MaxTurns           int              `yaml:"max_turns"`
	MemoryWindow       int              `yaml:"memory_window"`
	InvalidMovePenalty string           `yaml:"invalid_move_penalty"`
	Variables          map[string]int64 `yaml:"variables"`

	Contract  ContractLimits  `yaml:"contract"`
	Evaluator EvaluatorBudget `yaml:"evaluator"`

	AgentTimeoutMs int `yaml:"agent_timeout_ms"`

	Players []Player `yaml:"players"`
}

type ContractLimits struct {
	MaxLines      int `yaml:"max_lines"`
	MaxComplexity int `yaml:"max_complexity"`
}

type EvaluatorBudget struct {
	MaxSteps  int `yaml:"max_steps"`
	TimeoutMs int `yaml:"timeout_ms"`
}

type Player struct {
	ID      string       `yaml:"id"`
	Victory string       `yaml:"victory"`
	Script  []ScriptMove `yaml:"script,omitempty"`
}

// ScriptMove is one pre-planned move for a locally scripted player.
type ScriptMove struct {
	Kind string `yaml:"kind"`
	Line int    `yaml:"line"`
	Code string `yaml:"code"`
	Note string `yaml:"note,omitempty"`
}

func Load(path string) (Config, error) {
	var c Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("arena config %s: %w", path, err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.MaxTurns == 0 {
		c.MaxTurns = 50
	}
	if c.MemoryWindow == 0 {
		c.MemoryWindow = 5
	}
	if c.InvalidMovePenalty == "" {
		c.InvalidMovePenalty = string(game.PenaltySkipTurn)
	}
	if len(c.Variables) == 0 {
		c.Variables = map[string]int64{"x": 1, "y": 1, "z": 1}
	}
	if c.Contract.MaxLines == 0 {
		c.Contract.MaxLines = 64
	}
	if c.Contract.MaxComplexity == 0 {
		c.Contract.MaxComplexity = 128
	}
	if c.Evaluator.MaxSteps == 0 {
		c.Evaluator.MaxSteps = 256
	}
	if c.Evaluator.TimeoutMs == 0 {
		c.Evaluator.TimeoutMs = 50
	}
	if c.AgentTimeoutMs == 0 {
		c.AgentTimeoutMs = 30000
	}
}

// GameConfig maps the file form onto the engine's validated configuration.
func (c Config) GameConfig() (game.Config, error) {
	if len(c.Players) != 2 {
		return game.Config{}, fmt.Errorf("want exactly 2 players, got %d", len(c.Players))
	}
	gc := game.Config{
		MaxTurns:     c.MaxTurns,
		MemoryWindow: c.MemoryWindow,
		Penalty:      game.PenaltyPolicy(c.InvalidMovePenalty),
		Variables:    lang.Bindings(c.Variables).Clone(),
		Limits: game.Limits{
			MaxLines:      c.Contract.MaxLines,
			MaxComplexity: c.Contract.MaxComplexity,
		},
		Budgets: game.Budgets{
			EvalMaxSteps: c.Evaluator.MaxSteps,
			EvalTimeout:  time.Duration(c.Evaluator.TimeoutMs) * time.Millisecond,
			AgentTimeout: time.Duration(c.AgentTimeoutMs) * time.Millisecond,
		},
	}
	for i, p := range c.Players {
		gc.Players[i] = game.PlayerConfig{ID: p.ID, Victory: p.Victory}
	}
	if err := gc.Validate(); err != nil {
		return game.Config{}, err
	}
	return gc, nil
}

// ScriptedAgent builds the in-process agent for a locally scripted player.
func (p Player) ScriptedAgent() (*agent.Scripted, error) {
	if len(p.Script) == 0 {
		return nil, fmt.Errorf("player %s has no script", p.ID)
	}
	moves := make([]agent.Response, 0, len(p.Script))
	for _, m := range p.Script {
		moves = append(moves, agent.Response{
			Proposal: lang.MoveProposal{Kind: lang.MoveKind(m.Kind), Line: m.Line, Code: m.Code},
			Note:     m.Note,
		})
	}
	return agent.NewScripted(p.ID, moves), nil
}
