// Package profiledb persists finished-game results and per-player aggregates
// to SQLite. Writes go through a single writer goroutine fed by a channel;
// the engine only ever hands results in, it never reads them back.
package profiledb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/bluewin4/infinite-contract/internal/engine/game"
)

type Store struct {
	db *sql.DB

	ch   chan game.Result
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	errMu   sync.Mutex
	lastErr error
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	winner      TEXT NOT NULL DEFAULT '',
	draw        INTEGER NOT NULL DEFAULT 0,
	turns       INTEGER NOT NULL,
	variables   TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS players (
	id        TEXT PRIMARY KEY,
	games     INTEGER NOT NULL DEFAULT 0,
	wins      INTEGER NOT NULL DEFAULT 0,
	win_turns INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS move_kinds (
	player_id TEXT NOT NULL,
	kind      TEXT NOT NULL,
	count     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, kind)
);
`

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("profiledb schema: %w", err)
	}

	s := &Store{db: db, ch: make(chan game.Result, 64)}
	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

// RecordResult enqueues one finished game. Ordering is preserved per store.
func (s *Store) RecordResult(res game.Result) error {
	if s.closed.Load() {
		return fmt.Errorf("profile store closed")
	}
	s.ch <- res
	return nil
}

// Close drains pending writes and closes the database. It returns the first
// write error seen, if any.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
	})
	s.wg.Wait()
	dbErr := s.db.Close()
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.lastErr != nil {
		return s.lastErr
	}
	return dbErr
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for res := range s.ch {
		if err := s.apply(res); err != nil {
			s.errMu.Lock()
			if s.lastErr == nil {
				s.lastErr = err
			}
			s.errMu.Unlock()
		}
	}
}

func (s *Store) apply(res game.Result) error {
	vars, err := json.Marshal(res.Variables)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	draw := 0
	if res.Draw {
		draw = 1
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO games (id, winner, draw, turns, variables, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		res.GameID, res.Winner, draw, res.Turns, string(vars), res.FinishedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	); err != nil {
		return err
	}
	for _, pid := range res.Players {
		wins, winTurns := 0, 0
		if pid == res.Winner {
			wins, winTurns = 1, res.Turns
		}
		if _, err := tx.Exec(
			`INSERT INTO players (id, games, wins, win_turns) VALUES (?, 1, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   games = games + 1,
			   wins = wins + excluded.wins,
			   win_turns = win_turns + excluded.win_turns`,
			pid, wins, winTurns,
		); err != nil {
			return err
		}
		for kind, n := range res.MoveKindCounts[pid] {
			if _, err := tx.Exec(
				`INSERT INTO move_kinds (player_id, kind, count) VALUES (?, ?, ?)
				 ON CONFLICT(player_id, kind) DO UPDATE SET count = count + excluded.count`,
				pid, kind, n,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Profile is the read side used by tooling, not by the engine.
type Profile struct {
	PlayerID      string
	Games         int
	Wins          int
	WinRate       float64
	AvgTurnsToWin float64
	MoveKinds     map[string]int
}

func (s *Store) Profile(ctx context.Context, playerID string) (Profile, error) {
	p := Profile{PlayerID: playerID, MoveKinds: map[string]int{}}
	var winTurns int
	err := s.db.QueryRowContext(ctx,
		`SELECT games, wins, win_turns FROM players WHERE id = ?`, playerID,
	).Scan(&p.Games, &p.Wins, &winTurns)
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("no profile for player %q", playerID)
	}
	if err != nil {
		return p, err
	}
	if p.Games > 0 {
		p.WinRate = float64(p.Wins) / float64(p.Games)
	}
	if p.Wins > 0 {
		p.AvgTurnsToWin = float64(winTurns) / float64(p.Wins)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, count FROM move_kinds WHERE player_id = ? ORDER BY kind`, playerID)
	if err != nil {
		return p, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return p, err
		}
		p.MoveKinds[kind] = n
	}
	return p, rows.Err()
}
