package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/bluewin4/infinite-contract/internal/protocol"
)

// A greedy reference agent: it reads its victory condition out of WELCOME
// and on every turn appends one line nudging that variable toward the target.
func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "agent name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var targetVar, targetOp string

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			targetVar, targetOp = parseGoal(w.VictoryCondition)
			logger.Printf("WELCOME game_id=%s player_id=%s victory=%q", w.GameID, w.PlayerID, w.VictoryCondition)

		case protocol.TypeTurn:
			var turn protocol.TurnMsg
			if err := json.Unmarshal(msg, &turn); err != nil {
				continue
			}
			move := pickMove(&turn, targetVar, targetOp)
			if err := conn.WriteJSON(move); err != nil {
				logger.Printf("send MOVE: %v", err)
				return
			}

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			if res.Draw {
				logger.Printf("RESULT draw after %d turns", res.Turns)
			} else {
				logger.Printf("RESULT winner=%s turns=%d", res.Winner, res.Turns)
			}
			return
		}
	}
}

// parseGoal splits a condition like "x >= 10" into its variable and operator.
func parseGoal(cond string) (variable, op string) {
	for _, candidate := range []string{">=", "<=", "=="} {
		if v, _, ok := strings.Cut(cond, candidate); ok {
			return strings.TrimSpace(v), candidate
		}
	}
	return "", ""
}

func pickMove(turn *protocol.TurnMsg, targetVar, targetOp string) protocol.MoveMsg {
	code := fmt.Sprintf("%s += 1", targetVar)
	if targetOp == "<=" {
		code = fmt.Sprintf("%s -= 1", targetVar)
	}
	return protocol.MoveMsg{
		Type:            protocol.TypeMove,
		ProtocolVersion: protocol.Version,
		Turn:            turn.Turn,
		MoveKind:        "ADD_LINE",
		Code:            code,
		ScratchPad:      fmt.Sprintf("turn %d: pushing %s toward goal", turn.Turn, targetVar),
	}
}
