package game

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/bluewin4/infinite-contract/internal/agent"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
	"github.com/bluewin4/infinite-contract/internal/protocol"
)

func testConfig() Config {
	return Config{
		MaxTurns:     50,
		MemoryWindow: 5,
		Penalty:      PenaltySkipTurn,
		Variables:    lang.Bindings{"x": 1, "y": 1, "z": 1},
		Limits:       Limits{MaxLines: 32, MaxComplexity: 64},
		Budgets: Budgets{
			EvalMaxSteps: 256,
			EvalTimeout:  time.Second,
			AgentTimeout: time.Second,
		},
		Players: [2]PlayerConfig{
			{ID: "player1", Victory: "x >= 10"},
			{ID: "player2", Victory: "y <= -5"},
		},
	}
}

func add(code string) agent.Response {
	return agent.Response{Proposal: lang.MoveProposal{Kind: lang.MoveAddLine, Code: code}}
}

func run(t *testing.T, cfg Config, p1, p2 []agent.Response) Result {
	t.Helper()
	g, err := New(cfg, [2]agent.Agent{
		agent.NewScripted("player1", p1),
		agent.NewScripted("player2", p2),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestVictoryOnExactTurn(t *testing.T) {
	// x: 1 -> 4 -> 7 -> 10 on player1's moves; player2 idles on z.
	res := run(t, testConfig(),
		[]agent.Response{add("x += 3")},
		[]agent.Response{add("z += 1")},
	)
	if res.Draw || res.Winner != "player1" {
		t.Fatalf("winner = %q draw=%v, want player1", res.Winner, res.Draw)
	}
	if res.Turns != 5 {
		t.Fatalf("turns = %d, want 5 (p1, p2, p1, p2, p1)", res.Turns)
	}
	if res.Variables["x"] != 10 {
		t.Fatalf("x = %d, want exactly 10", res.Variables["x"])
	}
	last := res.Records[len(res.Records)-1]
	if last.Player != "player1" || !last.Committed() {
		t.Fatalf("last record = %+v, want committed player1 move", last)
	}
}

func TestTurnLimitDraw(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 5
	res := run(t, cfg,
		[]agent.Response{add("z += 1")},
		[]agent.Response{add("z -= 1")},
	)
	if !res.Draw || res.Winner != "" {
		t.Fatalf("want draw, got winner=%q draw=%v", res.Winner, res.Draw)
	}
	if res.Turns != 5 || len(res.Records) != 5 {
		t.Fatalf("turns = %d records = %d, want exactly 5", res.Turns, len(res.Records))
	}
}

func TestHistoryCountsRejectedTurns(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 4
	res := run(t, cfg,
		[]agent.Response{add("x +=")}, // always syntactically broken
		[]agent.Response{add("z += 1")},
	)
	if len(res.Records) != 4 {
		t.Fatalf("records = %d, want 4 (rejected turns still recorded)", len(res.Records))
	}
	for i, r := range res.Records {
		if r.Turn != i+1 {
			t.Fatalf("record %d has turn %d", i, r.Turn)
		}
	}
	// Same invalid proposal from the same state gives the same kind each time.
	if res.Records[0].ErrorCode() != protocol.ErrSyntax || res.Records[2].ErrorCode() != protocol.ErrSyntax {
		t.Fatalf("rejected kinds = %q, %q, want both %q",
			res.Records[0].ErrorCode(), res.Records[2].ErrorCode(), protocol.ErrSyntax)
	}
}

func TestSkipTurnAlternates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 4
	res := run(t, cfg,
		[]agent.Response{add("x +=")},
		[]agent.Response{add("z += 1")},
	)
	want := []string{"player1", "player2", "player1", "player2"}
	for i, r := range res.Records {
		if r.Player != want[i] {
			t.Fatalf("turn %d played by %s, want %s", i+1, r.Player, want[i])
		}
	}
}

func TestLoseGamePenalty(t *testing.T) {
	cfg := testConfig()
	cfg.Penalty = PenaltyLoseGame
	res := run(t, cfg,
		[]agent.Response{add("x = abs(y)")},
		[]agent.Response{add("z += 1")},
	)
	if res.Winner != "player2" || res.Turns != 1 {
		t.Fatalf("winner = %q turns = %d, want player2 after turn 1", res.Winner, res.Turns)
	}
	if res.Records[0].ErrorCode() != protocol.ErrDisallowedConstruct {
		t.Fatalf("error kind = %q, want %q", res.Records[0].ErrorCode(), protocol.ErrDisallowedConstruct)
	}
}

func TestComplexityRejectionLeavesBindings(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.MaxComplexity = 2
	cfg.MaxTurns = 2
	res := run(t, cfg,
		[]agent.Response{add("x = y * (z + 2) - 1")}, // cost 4 > 2
		[]agent.Response{add("z += 1")},
	)
	r := res.Records[0]
	if r.ErrorCode() != protocol.ErrComplexityExceeded {
		t.Fatalf("error kind = %q, want %q", r.ErrorCode(), protocol.ErrComplexityExceeded)
	}
	if !reflect.DeepEqual(r.Before.Variables, r.After.Variables) {
		t.Fatalf("rejected move changed bindings: %v -> %v", r.Before.Variables, r.After.Variables)
	}
	if len(r.After.Lines) != 0 {
		t.Fatalf("rejected move changed contract lines: %v", r.After.Lines)
	}
}

func TestEvalTimeoutLeavesBindings(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 2
	cfg.Budgets.EvalTimeout = time.Nanosecond
	res := run(t, cfg,
		[]agent.Response{add("x += 1")},
		[]agent.Response{add("z += 1")},
	)
	r := res.Records[0]
	if r.ErrorCode() != protocol.ErrExecutionTimeout {
		t.Fatalf("error kind = %q, want %q", r.ErrorCode(), protocol.ErrExecutionTimeout)
	}
	if !reflect.DeepEqual(r.Before.Variables, r.After.Variables) {
		t.Fatalf("timed-out move leaked state: %v -> %v", r.Before.Variables, r.After.Variables)
	}
}

func TestMoverWinsSimultaneousVictory(t *testing.T) {
	cfg := testConfig()
	cfg.Players = [2]PlayerConfig{
		{ID: "player1", Victory: "x >= 2"},
		{ID: "player2", Victory: "x >= 1"}, // already true, but only commits trigger checks
	}
	res := run(t, cfg,
		[]agent.Response{add("x += 1")}, // x: 1 -> 2, both predicates now hold
		[]agent.Response{add("z += 1")},
	)
	if res.Winner != "player1" || res.Turns != 1 {
		t.Fatalf("winner = %q turns = %d, want mover player1 on turn 1", res.Winner, res.Turns)
	}
}

func TestCommitAppliesMoveExactlyOnce(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 2
	res := run(t, cfg,
		[]agent.Response{add("x += 3")},
		[]agent.Response{add("y -= 2")},
	)
	r1 := res.Records[0]
	if got := r1.After.Variables["x"]; got != r1.Before.Variables["x"]+3 {
		t.Fatalf("x = %d, want pre-commit %d + 3 applied once", got, r1.Before.Variables["x"])
	}
	r2 := res.Records[1]
	if got := r2.After.Variables["y"]; got != r2.Before.Variables["y"]-2 {
		t.Fatalf("y = %d, want pre-commit %d - 2 applied once", got, r2.Before.Variables["y"])
	}
}

func TestAgentFailureIsOrdinaryRejection(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 2
	g, err := New(cfg, [2]agent.Agent{
		failingAgent{"player1"},
		agent.NewScripted("player2", []agent.Response{add("z += 1")}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Records[0].ErrorCode() != protocol.ErrSyntax {
		t.Fatalf("agent failure kind = %q, want %q", res.Records[0].ErrorCode(), protocol.ErrSyntax)
	}
	if !res.Records[1].Committed() {
		t.Fatalf("game did not continue after agent failure")
	}
}

func TestFatalMisconfiguration(t *testing.T) {
	agents := [2]agent.Agent{
		agent.NewScripted("player1", []agent.Response{add("x += 1")}),
		agent.NewScripted("player2", []agent.Response{add("z += 1")}),
	}

	cfg := testConfig()
	cfg.Players[1].Victory = ""
	if _, err := New(cfg, agents); err == nil {
		t.Fatalf("missing victory condition should abort before turn 1")
	}

	cfg = testConfig()
	cfg.Penalty = "EXPLODE"
	if _, err := New(cfg, agents); err == nil {
		t.Fatalf("invalid penalty policy should abort before turn 1")
	}

	cfg = testConfig()
	cfg.Players[0].Victory = "x > 10"
	if _, err := New(cfg, agents); err == nil {
		t.Fatalf("unparseable victory condition should abort before turn 1")
	}
}

func TestMoveKindCounts(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 4
	res := run(t, cfg,
		[]agent.Response{
			add("x += 1"),
			{Proposal: lang.MoveProposal{Kind: lang.MoveModifyLine, Line: 0, Code: "x += 2"}},
		},
		[]agent.Response{add("z += 1")},
	)
	p1 := res.MoveKindCounts["player1"]
	if p1[string(lang.MoveAddLine)] != 1 || p1[string(lang.MoveModifyLine)] != 1 {
		t.Fatalf("player1 counts = %v", p1)
	}
	if res.MoveKindCounts["player2"][string(lang.MoveAddLine)] != 2 {
		t.Fatalf("player2 counts = %v", res.MoveKindCounts["player2"])
	}
}

type failingAgent struct{ id string }

func (a failingAgent) ID() string { return a.id }

func (a failingAgent) ProposeMove(ctx context.Context, tc agent.TurnContext) (agent.Response, error) {
	return agent.Response{}, fmt.Errorf("model backend unavailable")
}
