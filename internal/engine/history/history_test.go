package history

import (
	"testing"

	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

func rec(turn int, player string) TurnRecord {
	return TurnRecord{
		Turn:   turn,
		Player: player,
		Proposal: lang.MoveProposal{
			Kind: lang.MoveAddLine,
			Code: "x += 1",
		},
	}
}

func TestAppendAndLen(t *testing.T) {
	h := New()
	for i := 1; i <= 4; i++ {
		h.Append(rec(i, "player1"))
	}
	if h.Len() != 4 {
		t.Fatalf("Len = %d, want 4", h.Len())
	}
	got := h.Records()
	got[0].Turn = 99
	if h.Records()[0].Turn != 1 {
		t.Fatalf("Records() exposed internal storage")
	}
}

func TestRecentWindow(t *testing.T) {
	h := New()
	for i := 1; i <= 5; i++ {
		h.Append(rec(i, "player1"))
	}
	r := h.Recent(2)
	if len(r) != 2 || r[0].Turn != 4 || r[1].Turn != 5 {
		t.Fatalf("Recent(2) = %+v, want turns 4,5", r)
	}
	if got := h.Recent(10); len(got) != 5 {
		t.Fatalf("Recent(10) len = %d, want 5", len(got))
	}
	if h.Recent(0) != nil {
		t.Fatalf("Recent(0) should be nil")
	}
}

func TestWindowKeepsNotesPrivate(t *testing.T) {
	h := New()
	h.Append(rec(1, "player1"))

	mine := &Notebook{}
	mine.Append("go for x")
	theirs := &Notebook{}
	theirs.Append("block x")

	v := Window(h, 5, mine)
	if len(v.Notes) != 1 || v.Notes[0] != "go for x" {
		t.Fatalf("Window notes = %v, want only own notes", v.Notes)
	}
}

func TestErrorCodePrecedence(t *testing.T) {
	r := TurnRecord{
		Validation: ValidationOutcome{ErrorCode: "E_SYNTAX"},
		Execution:  ExecutionOutcome{},
	}
	if r.ErrorCode() != "E_SYNTAX" {
		t.Fatalf("ErrorCode = %q, want E_SYNTAX", r.ErrorCode())
	}
	r = TurnRecord{
		Validation: ValidationOutcome{Accepted: true},
		Execution:  ExecutionOutcome{Ran: true, ErrorCode: "E_RUNTIME"},
	}
	if r.ErrorCode() != "E_RUNTIME" || r.Committed() {
		t.Fatalf("execution failure misreported")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	h := New()
	h.Append(rec(1, "player1"))
	h.Append(rec(2, "player2"))

	h2 := Restore(h.Records())
	if h2.Len() != 2 || h2.Records()[1].Player != "player2" {
		t.Fatalf("Restore lost records")
	}
}
