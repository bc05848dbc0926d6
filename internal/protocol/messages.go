package protocol

// HELLO (agent -> engine)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
}

// WELCOME (engine -> agent)
type WelcomeMsg struct {
	Type             string           `json:"type"`
	ProtocolVersion  string           `json:"protocol_version"`
	GameID           string           `json:"game_id"`
	PlayerID         string           `json:"player_id"`
	VictoryCondition string           `json:"victory_condition"`
	Variables        map[string]int64 `json:"variables"`
	MaxTurns         int              `json:"max_turns"`
}

// TURN (engine -> agent): everything the active player may see this turn.
type TurnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	GameID          string `json:"game_id"`
	Turn            int    `json:"turn"`

	ContractLines    []string         `json:"contract_lines"`
	ExecutionOrder   []int            `json:"execution_order"`
	Variables        map[string]int64 `json:"variables"`
	History          []TurnSummary    `json:"history,omitempty"`
	Notes            []string         `json:"notes,omitempty"`
	VictoryCondition string           `json:"victory_condition"`
	LegalMoveKinds   []string         `json:"legal_move_kinds"`
	DeadlineMs       int              `json:"deadline_ms"`
}

// TurnSummary is the trailing-window view of one past turn.
type TurnSummary struct {
	Turn      int              `json:"turn"`
	Player    string           `json:"player"`
	MoveKind  string           `json:"move_kind"`
	Code      string           `json:"code,omitempty"`
	Accepted  bool             `json:"accepted"`
	ErrorCode string           `json:"error_code,omitempty"`
	Variables map[string]int64 `json:"variables"`
}

// MOVE (agent -> engine)
type MoveMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int    `json:"turn"`
	MoveKind        string `json:"move_kind"`
	Line            int    `json:"line,omitempty"`
	Code            string `json:"code,omitempty"`
	ScratchPad      string `json:"scratch_pad,omitempty"`
	Note            string `json:"note,omitempty"`
}

// RESULT (engine -> agent)
type ResultMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	GameID          string           `json:"game_id"`
	Winner          string           `json:"winner,omitempty"`
	Draw            bool             `json:"draw,omitempty"`
	Turns           int              `json:"turns"`
	Variables       map[string]int64 `json:"variables"`
}
