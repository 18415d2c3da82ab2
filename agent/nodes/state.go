package nodes

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

var ErrInvalidMessage = errors.New("message is empty")

type GraphInput struct {
	ConversationID string
	Message        string
}

// TurnResult is what a completed turn reports back to the caller.
type TurnResult struct {
	ConversationID string
	Reply          string
	Stage          leadx.Stage
	StageChanged   bool
	TurnCount      int
	LeadData       leadx.Data
	ToolCalls      []contractx.ToolCall
}

type GraphState struct {
	ConversationID string
	Message        string
	Now            time.Time

	Record     *leadx.Record
	PriorStage leadx.Stage

	MemoryHits     []contractx.MemoryHit
	CatalogContext string
	Courses        []string

	Reply     string
	ToolCalls []contractx.ToolCall
	Updates   leadx.FieldUpdates
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		conversationID = newConversationID()
	}

	return &GraphState{
		ConversationID: conversationID,
		Message:        text,
		Now:            nowFn().UTC(),
	}, nil
}

func newConversationID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "conv-" + hex.EncodeToString([]byte(time.Now().UTC().Format("20060102150405")))
	}
	return "conv-" + hex.EncodeToString(buf[:])
}
