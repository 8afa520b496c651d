package store

import (
	"encoding/json"
	"time"
)

// Session is one browser session's persisted workbench state.
type Session struct {
	ID         string          `json:"id"` // UUID
	ActiveTool string          `json:"active_tool"`
	Forms      json.RawMessage `json:"forms"` // per-tool form data, owned by core
	Model      string          `json:"model"` // chat model selection, empty for the backend default
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Message struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Seq           int             `json:"seq"`
	Role          string          `json:"role"` // "user" or "model"
	Text          string          `json:"text"`
	IsToolCall    bool            `json:"is_tool_call"`
	ToolName      string          `json:"tool_name,omitempty"`
	FunctionCalls json.RawMessage `json:"function_calls,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
