// Package game sequences one contract game: per turn it pulls the active
// player's proposal, validates it against the grammar and complexity budget,
// executes it in the sandbox, commits or rejects atomically, evaluates
// victory, and appends exactly one history record. Execution within one game
// is strictly sequential; independent games run in parallel with no shared
// mutable state.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bluewin4/infinite-contract/internal/agent"
	"github.com/bluewin4/infinite-contract/internal/engine/contract"
	"github.com/bluewin4/infinite-contract/internal/engine/eval"
	"github.com/bluewin4/infinite-contract/internal/engine/history"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
	"github.com/bluewin4/infinite-contract/internal/engine/victory"
	"github.com/bluewin4/infinite-contract/internal/protocol"
)

type playerState struct {
	id    string
	agent agent.Agent
	cond  victory.Condition
	notes *history.Notebook
}

type Game struct {
	id       string
	cfg      Config
	contract *contract.Contract
	hist     *history.GameHistory
	players  [2]*playerState
	current  int
	started  time.Time
}

// New builds a game from validated configuration. Agents are matched to
// Players by position; a mismatched or missing piece of configuration is
// fatal and surfaces here, before any turn runs.
func New(cfg Config, agents [2]agent.Agent) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game config: %w", err)
	}
	g := &Game{
		id:       uuid.NewString(),
		cfg:      cfg,
		contract: contract.New(cfg.Variables),
		hist:     history.New(),
	}
	for i, pc := range cfg.Players {
		a := agents[i]
		if a == nil {
			return nil, fmt.Errorf("player %s has no agent", pc.ID)
		}
		if a.ID() != pc.ID {
			return nil, fmt.Errorf("agent id %q does not match player %q", a.ID(), pc.ID)
		}
		cond, err := victory.Parse(pc.Victory, cfg.Variables)
		if err != nil {
			return nil, err
		}
		g.players[i] = &playerState{id: pc.ID, agent: a, cond: cond, notes: &history.Notebook{}}
	}
	return g, nil
}

func (g *Game) ID() string { return g.id }

func (g *Game) History() *history.GameHistory { return g.hist }

func (g *Game) Contract() *contract.Contract { return g.contract }

// Run plays turns until the contract freezes or the turn limit is reached.
// Only a cancelled parent context or an internal invariant breach returns an
// error; every invalid move is handled inside the loop.
func (g *Game) Run(ctx context.Context) (Result, error) {
	g.started = time.Now()
	for !g.contract.Frozen() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := g.playTurn(ctx); err != nil {
			return Result{}, err
		}
		if !g.contract.Frozen() && g.hist.Len() >= g.cfg.MaxTurns {
			if err := g.contract.FreezeDraw(); err != nil {
				return Result{}, err
			}
		}
	}
	return g.result(), nil
}

func (g *Game) playTurn(ctx context.Context) error {
	ps := g.players[g.current]
	turn := g.hist.Len() + 1
	before := g.view()

	resp, agentErr := g.propose(ctx, ps, turn)
	if agentErr != nil && ctx.Err() != nil {
		// The caller gave up on the whole game, not just this turn.
		return ctx.Err()
	}

	val, st := g.validate(resp, agentErr)

	exec := history.ExecutionOutcome{}
	var after lang.Bindings
	if val.Accepted {
		exec, after = g.execute(resp.Proposal, st)
	}

	committed := val.Accepted && exec.ErrorCode == ""
	if committed {
		if err := g.contract.Commit(resp.Proposal, after); err != nil {
			return fmt.Errorf("commit turn %d: %w", turn, err)
		}
		g.checkVictory(ps, after)
	} else if g.cfg.Penalty == PenaltyLoseGame {
		if err := g.contract.Freeze(g.opponent(ps).id); err != nil {
			return fmt.Errorf("freeze turn %d: %w", turn, err)
		}
	}

	if agentErr == nil {
		ps.notes.Append(resp.Note)
	}

	g.hist.Append(history.TurnRecord{
		Turn:       turn,
		Player:     ps.id,
		Proposal:   resp.Proposal,
		Validation: val,
		Execution:  exec,
		Before:     before,
		After:      g.view(),
		ScratchPad: resp.ScratchPad,
		RecordedAt: time.Now().UTC(),
	})

	if !g.contract.Frozen() {
		g.current = 1 - g.current
	}
	return nil
}

// propose asks the active player's agent for a move under the configured
// deadline. The engine never retries this call.
func (g *Game) propose(ctx context.Context, ps *playerState, turn int) (agent.Response, error) {
	tc := agent.TurnContext{
		GameID:           g.id,
		Turn:             turn,
		PlayerID:         ps.id,
		Lines:            g.contract.Lines(),
		Order:            g.contract.ExecutionOrder(),
		Variables:        g.contract.Bindings(),
		Memory:           history.Window(g.hist, g.cfg.MemoryWindow, ps.notes),
		VictoryCondition: ps.cond.String(),
		LegalMoveKinds:   g.legalMoveKinds(),
	}
	actx, cancel := context.WithTimeout(ctx, g.cfg.Budgets.AgentTimeout)
	defer cancel()
	return ps.agent.ProposeMove(actx, tc)
}

// validate runs the syntax checker and complexity scorer. Agent failures
// (timeout, malformed, empty) land here as ordinary rejections.
func (g *Game) validate(resp agent.Response, agentErr error) (history.ValidationOutcome, *lang.Statement) {
	reject := func(code, msg string) (history.ValidationOutcome, *lang.Statement) {
		return history.ValidationOutcome{ErrorCode: code, ErrorMsg: msg}, nil
	}

	if agentErr != nil {
		return reject(protocol.ErrSyntax, fmt.Sprintf("no proposal received: %v", agentErr))
	}
	p := resp.Proposal
	if !lang.KnownMoveKind(p.Kind) {
		return reject(protocol.ErrSyntax, fmt.Sprintf("unknown move kind %q", p.Kind))
	}

	var st *lang.Statement
	switch p.Kind {
	case lang.MoveRemoveLine:
		if !g.contract.HasLine(p.Line) {
			return reject(protocol.ErrSyntax, fmt.Sprintf("line %d out of range", p.Line))
		}
	case lang.MoveModifyLine:
		if !g.contract.HasLine(p.Line) {
			return reject(protocol.ErrSyntax, fmt.Sprintf("line %d out of range", p.Line))
		}
		fallthrough
	case lang.MoveAddLine:
		parsed, code, msg := lang.Parse(p.Code, g.cfg.Variables)
		if code != "" {
			return reject(code, msg)
		}
		st = parsed
	}

	if p.Kind == lang.MoveAddLine && g.contract.LineCount()+1 > g.cfg.Limits.MaxLines {
		return reject(protocol.ErrComplexityExceeded,
			fmt.Sprintf("line count %d exceeds limit %d", g.contract.LineCount()+1, g.cfg.Limits.MaxLines))
	}
	if score := g.scoreAfter(p, st); score > g.cfg.Limits.MaxComplexity {
		return reject(protocol.ErrComplexityExceeded,
			fmt.Sprintf("contract complexity %d exceeds limit %d", score, g.cfg.Limits.MaxComplexity))
	}
	return history.ValidationOutcome{Accepted: true}, st
}

// scoreAfter computes the contract-wide complexity score as it would stand
// after applying the proposal. Committed lines re-parse cleanly by
// construction.
func (g *Game) scoreAfter(p lang.MoveProposal, st *lang.Statement) int {
	total := 0
	for i, line := range g.contract.Lines() {
		if i == p.Line && (p.Kind == lang.MoveModifyLine || p.Kind == lang.MoveRemoveLine) {
			continue
		}
		if ls, _, _ := lang.Parse(line, g.cfg.Variables); ls != nil {
			total += lang.Cost(ls)
		}
	}
	if st != nil {
		total += lang.Cost(st)
	}
	return total
}

// execute runs the accepted operation in the sandbox. RemoveLine edits only
// program text, so its bindings pass through unchanged.
func (g *Game) execute(p lang.MoveProposal, st *lang.Statement) (history.ExecutionOutcome, lang.Bindings) {
	if p.Kind == lang.MoveRemoveLine {
		return history.ExecutionOutcome{Ran: true}, g.contract.Bindings()
	}
	out := eval.Run(st, g.contract.Bindings(), eval.Budget{
		MaxSteps: g.cfg.Budgets.EvalMaxSteps,
		Timeout:  g.cfg.Budgets.EvalTimeout,
	})
	exec := history.ExecutionOutcome{
		Ran:       true,
		ErrorCode: out.Code,
		ErrorMsg:  out.Msg,
		Steps:     out.Steps,
		ElapsedUs: out.Elapsed.Microseconds(),
	}
	return exec, out.Bindings
}

// checkVictory freezes the contract when a predicate holds. The mover is
// checked first and wins simultaneous victories.
func (g *Game) checkVictory(mover *playerState, bindings lang.Bindings) {
	if mover.cond.Met(bindings) {
		_ = g.contract.Freeze(mover.id)
		return
	}
	if opp := g.opponent(mover); opp.cond.Met(bindings) {
		_ = g.contract.Freeze(opp.id)
	}
}

func (g *Game) opponent(ps *playerState) *playerState {
	if g.players[0] == ps {
		return g.players[1]
	}
	return g.players[0]
}

func (g *Game) legalMoveKinds() []lang.MoveKind {
	kinds := []lang.MoveKind{lang.MoveAddLine}
	if g.contract.LineCount() > 0 {
		kinds = append(kinds, lang.MoveModifyLine, lang.MoveRemoveLine)
	}
	return kinds
}

func (g *Game) view() history.ContractView {
	return history.ContractView{
		Lines:     g.contract.Lines(),
		Order:     g.contract.ExecutionOrder(),
		Variables: g.contract.Bindings(),
	}
}
