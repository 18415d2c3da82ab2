package contract

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// ToolCall is one tool invocation requested by the model during a turn.
// Args are the decoded JSON arguments of the call.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type GenerationRequest struct {
	System   string
	Messages []*schema.Message
	Tools    []*schema.ToolInfo
}

type GenerationResult struct {
	Text      string
	ToolCalls []ToolCall
}

// MemoryHit is one ranked result from the semantic memory index.
type MemoryHit struct {
	ConversationID string    `json:"conversation_id"`
	Summary        string    `json:"summary"`
	Score          float64   `json:"score"`
	Timestamp      time.Time `json:"timestamp"`
}
