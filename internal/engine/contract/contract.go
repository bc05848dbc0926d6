// Package contract holds the committed program and authoritative variable
// bindings for one game. A contract is exclusively owned by its game instance
// and is mutated only through Commit and Freeze.
package contract

import (
	"fmt"

	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

type Status string

const (
	StatusBuilding Status = "BUILDING"
	StatusFrozen   Status = "FROZEN"
)

type Contract struct {
	lines  []string
	order  []int
	vars   lang.Bindings
	status Status
	winner string // empty while building; empty + frozen means draw
	draw   bool
}

// New starts an empty contract in the Building state with the declared
// initial bindings.
func New(initial lang.Bindings) *Contract {
	return &Contract{vars: initial.Clone(), status: StatusBuilding}
}

// Restore rebuilds a contract from snapshot parts.
func Restore(lines []string, order []int, vars lang.Bindings, status Status, winner string, draw bool) *Contract {
	c := &Contract{
		lines:  append([]string(nil), lines...),
		order:  append([]int(nil), order...),
		vars:   vars.Clone(),
		status: status,
		winner: winner,
		draw:   draw,
	}
	return c
}

func (c *Contract) Status() Status { return c.status }

func (c *Contract) Frozen() bool { return c.status == StatusFrozen }

// Outcome returns the terminal result. Valid only once frozen.
func (c *Contract) Outcome() (winner string, draw bool) { return c.winner, c.draw }

func (c *Contract) LineCount() int { return len(c.lines) }

// HasLine reports whether idx addresses an existing line.
func (c *Contract) HasLine(idx int) bool { return idx >= 0 && idx < len(c.lines) }

func (c *Contract) Lines() []string {
	return append([]string(nil), c.lines...)
}

func (c *Contract) ExecutionOrder() []int {
	return append([]int(nil), c.order...)
}

func (c *Contract) Bindings() lang.Bindings { return c.vars.Clone() }

// Commit applies one accepted move together with the bindings the sandbox
// produced for it. This is the single mutation point of the contract; a
// frozen contract refuses all commits.
func (c *Contract) Commit(p lang.MoveProposal, after lang.Bindings) error {
	if c.Frozen() {
		return fmt.Errorf("contract is frozen")
	}
	switch p.Kind {
	case lang.MoveAddLine:
		c.lines = append(c.lines, p.Code)
		c.order = append(c.order, len(c.lines)-1)
	case lang.MoveModifyLine:
		if !c.HasLine(p.Line) {
			return fmt.Errorf("modify: line %d out of range", p.Line)
		}
		c.lines[p.Line] = p.Code
	case lang.MoveRemoveLine:
		if !c.HasLine(p.Line) {
			return fmt.Errorf("remove: line %d out of range", p.Line)
		}
		c.lines = append(c.lines[:p.Line], c.lines[p.Line+1:]...)
		order := c.order[:0]
		for _, i := range c.order {
			if i == p.Line {
				continue
			}
			if i > p.Line {
				i--
			}
			order = append(order, i)
		}
		c.order = order
	default:
		return fmt.Errorf("unknown move kind %q", p.Kind)
	}
	c.vars = after.Clone()
	return nil
}

// Freeze transitions Building -> Frozen(winner). Terminal.
func (c *Contract) Freeze(winner string) error {
	if c.Frozen() {
		return fmt.Errorf("contract already frozen")
	}
	c.status = StatusFrozen
	c.winner = winner
	return nil
}

// FreezeDraw transitions Building -> Frozen(draw). Terminal.
func (c *Contract) FreezeDraw() error {
	if c.Frozen() {
		return fmt.Errorf("contract already frozen")
	}
	c.status = StatusFrozen
	c.draw = true
	return nil
}
