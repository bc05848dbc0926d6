// Package ws hosts games for remote agents. Each agent connects, offers a
// HELLO, and is seated; once two seats fill, the engine drives the game and
// the connection carries one TURN -> MOVE exchange per turn under the
// engine's deadline.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bluewin4/infinite-contract/internal/agent"
	"github.com/bluewin4/infinite-contract/internal/engine/game"
	"github.com/bluewin4/infinite-contract/internal/engine/lang"
	"github.com/bluewin4/infinite-contract/internal/protocol"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
)

type Server struct {
	cfg game.Config
	log *log.Logger

	upgrader websocket.Upgrader
	seats    chan *RemoteAgent
}

func NewServer(cfg game.Config, logger *log.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		seats: make(chan *RemoteAgent),
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ra := s.handshake(conn)
		if ra == nil {
			return
		}
		select {
		case s.seats <- ra:
		case <-r.Context().Done():
			return
		}
		// The game loop owns the connection until the seat is released.
		<-ra.done
	}
}

func (s *Server) handshake(conn *websocket.Conn) *RemoteAgent {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.log.Printf("refusing agent %q: protocol %q", hello.AgentName, hello.ProtocolVersion)
		return nil
	}
	return &RemoteAgent{conn: conn, name: hello.AgentName, done: make(chan struct{})}
}

// RunGame seats the next two connected agents, in arrival order, and plays
// one game to completion.
func (s *Server) RunGame(ctx context.Context) (game.Result, error) {
	var seated []*RemoteAgent
	defer func() {
		for _, ra := range seated {
			ra.release()
		}
	}()

	for len(seated) < 2 {
		select {
		case ra := <-s.seats:
			seated = append(seated, ra)
			s.log.Printf("seated agent %q as %s", ra.name, s.cfg.Players[len(seated)-1].ID)
		case <-ctx.Done():
			return game.Result{}, ctx.Err()
		}
	}
	for i, ra := range seated {
		ra.id = s.cfg.Players[i].ID
	}

	g, err := game.New(s.cfg, [2]agent.Agent{seated[0], seated[1]})
	if err != nil {
		return game.Result{}, err
	}
	for i, ra := range seated {
		welcome := protocol.WelcomeMsg{
			Type:             protocol.TypeWelcome,
			ProtocolVersion:  protocol.Version,
			GameID:           g.ID(),
			PlayerID:         ra.id,
			VictoryCondition: s.cfg.Players[i].Victory,
			Variables:        s.cfg.Variables.Clone(),
			MaxTurns:         s.cfg.MaxTurns,
		}
		if err := ra.send(welcome); err != nil {
			return game.Result{}, fmt.Errorf("welcome %s: %w", ra.id, err)
		}
	}

	res, err := g.Run(ctx)
	if err != nil {
		return game.Result{}, err
	}
	result := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		GameID:          res.GameID,
		Winner:          res.Winner,
		Draw:            res.Draw,
		Turns:           res.Turns,
		Variables:       res.Variables,
	}
	for _, ra := range seated {
		if err := ra.send(result); err != nil {
			s.log.Printf("send result to %s: %v", ra.id, err)
		}
	}
	return res, nil
}

// RemoteAgent adapts one connection into the engine's synchronous agent
// boundary. The game loop is the only goroutine touching the connection
// while a seat is held.
type RemoteAgent struct {
	conn *websocket.Conn
	name string
	id   string

	done     chan struct{}
	doneOnce sync.Once
}

func (a *RemoteAgent) ID() string { return a.id }

func (a *RemoteAgent) ProposeMove(ctx context.Context, tc agent.TurnContext) (agent.Response, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(30 * time.Second)
	}
	if err := a.send(turnMsg(tc, deadline)); err != nil {
		return agent.Response{}, fmt.Errorf("send turn: %w", err)
	}

	_ = a.conn.SetReadDeadline(deadline)
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			return agent.Response{}, fmt.Errorf("read move: %w", err)
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil || base.Type != protocol.TypeMove {
			continue
		}
		var mv protocol.MoveMsg
		if err := json.Unmarshal(raw, &mv); err != nil {
			return agent.Response{}, fmt.Errorf("decode move: %w", err)
		}
		if mv.ProtocolVersion != protocol.Version || mv.Turn != tc.Turn {
			continue
		}
		return agent.Response{
			Proposal: lang.MoveProposal{
				Kind: lang.MoveKind(mv.MoveKind),
				Line: mv.Line,
				Code: mv.Code,
			},
			ScratchPad: mv.ScratchPad,
			Note:       mv.Note,
		}, nil
	}
}

func (a *RemoteAgent) send(v any) error {
	_ = a.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return a.conn.WriteJSON(v)
}

func (a *RemoteAgent) release() {
	a.doneOnce.Do(func() { close(a.done) })
}

func turnMsg(tc agent.TurnContext, deadline time.Time) protocol.TurnMsg {
	msg := protocol.TurnMsg{
		Type:             protocol.TypeTurn,
		ProtocolVersion:  protocol.Version,
		GameID:           tc.GameID,
		Turn:             tc.Turn,
		ContractLines:    tc.Lines,
		ExecutionOrder:   tc.Order,
		Variables:        tc.Variables,
		Notes:            tc.Memory.Notes,
		VictoryCondition: tc.VictoryCondition,
		DeadlineMs:       int(time.Until(deadline).Milliseconds()),
	}
	for _, k := range tc.LegalMoveKinds {
		msg.LegalMoveKinds = append(msg.LegalMoveKinds, string(k))
	}
	for _, r := range tc.Memory.Records {
		msg.History = append(msg.History, protocol.TurnSummary{
			Turn:      r.Turn,
			Player:    r.Player,
			MoveKind:  string(r.Proposal.Kind),
			Code:      r.Proposal.Code,
			Accepted:  r.Committed(),
			ErrorCode: r.ErrorCode(),
			Variables: r.After.Variables,
		})
	}
	return msg
}
