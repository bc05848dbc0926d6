// Package snapshot serializes one game's committed state and full history to
// a zstd-compressed JSON file and restores it with full fidelity.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/bluewin4/infinite-contract/internal/engine/contract"
	"github.com/bluewin4/infinite-contract/internal/engine/history"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

const version = 1

type Header struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Turn    int    `json:"turn"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Lines     []string      `json:"lines"`
	Order     []int         `json:"execution_order"`
	Variables lang.Bindings `json:"variables"`
	Status    string        `json:"status"`
	Winner    string        `json:"winner,omitempty"`
	Draw      bool          `json:"draw,omitempty"`

	Records []history.TurnRecord `json:"records"`
}

// Capture copies the committed state; the live objects are not retained.
func Capture(gameID string, c *contract.Contract, h *history.GameHistory) SnapshotV1 {
	winner, draw := c.Outcome()
	return SnapshotV1{
		Header:    Header{Version: version, GameID: gameID, Turn: h.Len()},
		Lines:     c.Lines(),
		Order:     c.ExecutionOrder(),
		Variables: c.Bindings(),
		Status:    string(c.Status()),
		Winner:    winner,
		Draw:      draw,
		Records:   h.Records(),
	}
}

// Restore rebuilds live contract and history values from the snapshot.
func (s SnapshotV1) Restore() (*contract.Contract, *history.GameHistory) {
	c := contract.Restore(s.Lines, s.Order, s.Variables, contract.Status(s.Status), s.Winner, s.Draw)
	return c, history.Restore(s.Records)
}

func Save(path string, s SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w := bufio.NewWriterSize(enc, 128*1024)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Load(path string) (SnapshotV1, error) {
	var s SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return s, err
	}
	defer dec.Close()
	if err := json.NewDecoder(dec).Decode(&s); err != nil {
		return s, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if s.Header.Version != version {
		return s, fmt.Errorf("unsupported snapshot version %d", s.Header.Version)
	}
	return s, nil
}
