package profiledb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bluewin4/infinite-contract/internal/engine/game"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

func result(id, winner string, turns int) game.Result {
	return game.Result{
		GameID:    id,
		Winner:    winner,
		Draw:      winner == "",
		Turns:     turns,
		Variables: lang.Bindings{"x": 10, "y": 1},
		Players:   []string{"player1", "player2"},
		Victories: map[string]string{"player1": "x >= 10", "player2": "y <= -5"},
		MoveKindCounts: map[string]map[string]int{
			"player1": {"ADD_LINE": turns / 2, "MODIFY_LINE": 1},
			"player2": {"ADD_LINE": turns / 2},
		},
		FinishedAt: time.Now(),
	}
}

func TestRecordAndProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordResult(result("g1", "player1", 9)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := s.RecordResult(result("g2", "player1", 5)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := s.RecordResult(result("g3", "", 4)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen: aggregates survive the process boundary.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	p, err := s.Profile(context.Background(), "player1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Games != 3 || p.Wins != 2 {
		t.Fatalf("games=%d wins=%d, want 3/2", p.Games, p.Wins)
	}
	if p.WinRate < 0.66 || p.WinRate > 0.67 {
		t.Fatalf("win rate = %f, want 2/3", p.WinRate)
	}
	if p.AvgTurnsToWin != 7 {
		t.Fatalf("avg turns to win = %f, want 7", p.AvgTurnsToWin)
	}
	if p.MoveKinds["MODIFY_LINE"] != 3 {
		t.Fatalf("modify count = %d, want 3", p.MoveKinds["MODIFY_LINE"])
	}

	p2, err := s.Profile(context.Background(), "player2")
	if err != nil {
		t.Fatalf("Profile player2: %v", err)
	}
	if p2.Wins != 0 || p2.Games != 3 {
		t.Fatalf("player2 games=%d wins=%d, want 3/0", p2.Games, p2.Wins)
	}
}

func TestRecordAfterCloseFails(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.RecordResult(result("g1", "player1", 3)); err == nil {
		t.Fatalf("RecordResult after Close should fail")
	}
}

func TestUnknownProfile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.Profile(context.Background(), "nobody"); err == nil {
		t.Fatalf("expected error for unknown player")
	}
}
