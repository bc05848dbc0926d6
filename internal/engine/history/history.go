// Package history is the immutable audit trail of a game: exactly one record
// per turn, accepted or not, never rewritten or pruned while the game runs.
package history

import (
	"time"

	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

// ValidationOutcome is the checker/scorer verdict for one proposal.
type ValidationOutcome struct {
	Accepted  bool   `json:"accepted"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// ExecutionOutcome is the sandbox verdict. Ran is false when validation
// already rejected the proposal and the evaluator never saw it.
type ExecutionOutcome struct {
	Ran       bool   `json:"ran"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
	Steps     int    `json:"steps,omitempty"`
	ElapsedUs int64  `json:"elapsed_us,omitempty"`
}

// ContractView is a point-in-time copy of the committed contract.
type ContractView struct {
	Lines     []string      `json:"lines"`
	Order     []int         `json:"execution_order"`
	Variables lang.Bindings `json:"variables"`
}

type TurnRecord struct {
	Turn       int               `json:"turn"`
	Player     string            `json:"player"`
	Proposal   lang.MoveProposal `json:"proposal"`
	Validation ValidationOutcome `json:"validation"`
	Execution  ExecutionOutcome  `json:"execution"`
	Before     ContractView      `json:"before"`
	After      ContractView      `json:"after"`
	ScratchPad string            `json:"scratch_pad,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// Committed reports whether this turn mutated the contract.
func (r TurnRecord) Committed() bool {
	return r.Validation.Accepted && r.Execution.Ran && r.Execution.ErrorCode == ""
}

// ErrorCode returns the rejection kind for this turn, or "" if committed.
func (r TurnRecord) ErrorCode() string {
	if r.Validation.ErrorCode != "" {
		return r.Validation.ErrorCode
	}
	return r.Execution.ErrorCode
}

// GameHistory is append-only for the lifetime of one game.
type GameHistory struct {
	records []TurnRecord
}

func New() *GameHistory { return &GameHistory{} }

// Restore rebuilds a history from previously captured records.
func Restore(records []TurnRecord) *GameHistory {
	h := &GameHistory{records: make([]TurnRecord, len(records))}
	copy(h.records, records)
	return h
}

func (h *GameHistory) Append(r TurnRecord) { h.records = append(h.records, r) }

func (h *GameHistory) Len() int { return len(h.records) }

// Records returns a copy of the full trail.
func (h *GameHistory) Records() []TurnRecord {
	out := make([]TurnRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Recent returns the most recent n records, oldest first.
func (h *GameHistory) Recent(n int) []TurnRecord {
	if n <= 0 || len(h.records) == 0 {
		return nil
	}
	if n > len(h.records) {
		n = len(h.records)
	}
	out := make([]TurnRecord, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// Notebook is one agent's private, append-only strategy notes.
type Notebook struct {
	notes []string
}

func (n *Notebook) Append(note string) {
	if note == "" {
		return
	}
	n.notes = append(n.notes, note)
}

func (n *Notebook) All() []string {
	out := make([]string, len(n.notes))
	copy(out, n.notes)
	return out
}

// MemoryView is the bounded context handed to an agent: a trailing window
// over the shared history plus that agent's own notes. The opponent's notes
// are never included.
type MemoryView struct {
	Records []TurnRecord
	Notes   []string
}

// Window derives the memory view for one agent. Recomputed per request; it
// holds no state of its own.
func Window(h *GameHistory, n int, notes *Notebook) MemoryView {
	v := MemoryView{Records: h.Recent(n)}
	if notes != nil {
		v.Notes = notes.All()
	}
	return v
}
