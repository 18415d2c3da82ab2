package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
	memoryx "github.com/zensbot/leadflow/agent/memory"
	nodex "github.com/zensbot/leadflow/agent/nodes"
	promptx "github.com/zensbot/leadflow/agent/prompt"
	toolx "github.com/zensbot/leadflow/agent/tool"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Config struct {
	// SummarizeInterval is the turn count between summary refreshes.
	// Zero means the default; negative disables summarization.
	SummarizeInterval int
}

// Service runs the conversation loop and exposes funnel queries.
type Service struct {
	store      leadx.Store
	generator  contractx.Generator
	tools      contractx.ToolExecutor
	memory     contractx.MemoryIndex
	catalog    nodex.CatalogContext
	summarizer nodex.Summarizer

	prompts   promptx.PromptSet
	toolInfos []*schema.ToolInfo

	graphRunner compose.Runnable[nodex.GraphInput, nodex.TurnResult]

	summarizeInterval int

	now func() time.Time
}

func New(
	store leadx.Store,
	generator contractx.Generator,
	tools contractx.ToolExecutor,
	memory contractx.MemoryIndex,
	catalog nodex.CatalogContext,
	summarizer nodex.Summarizer,
	cfg Config,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("lead store is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if tools == nil {
		tools = noopToolExecutor{}
	}
	if memory == nil {
		memory = noopMemoryIndex{}
	}
	if catalog == nil {
		catalog = noopCatalog{}
	}

	interval := cfg.SummarizeInterval
	if interval == 0 {
		interval = memoryx.DefaultSummarizeInterval
	}
	if interval < 0 || summarizer == nil {
		interval = -1
		summarizer = noopSummarizer{}
	}

	s := &Service{
		store:             store,
		generator:         generator,
		tools:             tools,
		memory:            memory,
		catalog:           catalog,
		summarizer:        summarizer,
		prompts:           promptx.LoadPromptSet(),
		toolInfos:         toolx.Infos(),
		summarizeInterval: interval,
		now:               time.Now,
	}

	graphRunner, err := s.compileChatGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// Chat runs one conversation turn. An empty conversationID starts a fresh
// conversation; the assigned ID comes back in the result.
func (s *Service) Chat(ctx context.Context, conversationID string, message string) (nodex.TurnResult, error) {
	return s.graphRunner.Invoke(ctx, nodex.GraphInput{
		ConversationID: conversationID,
		Message:        message,
	})
}

// Stage reports the current funnel stage of a conversation.
func (s *Service) Stage(conversationID string) (leadx.Stage, error) {
	rec, err := s.store.Get(conversationID)
	if err != nil {
		return "", err
	}
	return rec.Stage, nil
}

// SetStage applies a manual stage override.
func (s *Service) SetStage(conversationID string, stage leadx.Stage) (*leadx.Record, error) {
	return s.store.SetStage(conversationID, stage)
}

// Lead returns the full record for a conversation.
func (s *Service) Lead(conversationID string) (*leadx.Record, error) {
	return s.store.Get(conversationID)
}

// LeadsByStage lists lead snapshots currently at the given stage.
func (s *Service) LeadsByStage(stage leadx.Stage) []leadx.LeadSummary {
	return s.store.LeadsByStage(stage)
}

// Stats aggregates funnel counts and the conversion rate.
func (s *Service) Stats() leadx.FunnelStats {
	return s.store.Stats()
}

// History returns the most recent n stored turns of a conversation.
func (s *Service) History(conversationID string, n int) ([]leadx.Turn, error) {
	rec, err := s.store.Get(conversationID)
	if err != nil {
		return nil, err
	}
	return rec.RecentTurns(n), nil
}

// SearchMemory queries the semantic index across conversations.
func (s *Service) SearchMemory(ctx context.Context, query string, topK int) ([]contractx.MemoryHit, error) {
	return s.memory.Search(ctx, query, topK)
}

type noopToolExecutor struct{}

func (noopToolExecutor) Execute(_ context.Context, call contractx.ToolCall) contractx.ToolResult {
	return contractx.ToolResult{Tool: call.Name, Error: "tool execution is not configured"}
}

type noopMemoryIndex struct{}

func (noopMemoryIndex) Index(context.Context, string, string) error {
	return nil
}

func (noopMemoryIndex) Search(context.Context, string, int) ([]contractx.MemoryHit, error) {
	return nil, nil
}

type noopCatalog struct{}

func (noopCatalog) StageContext(context.Context, leadx.Stage, string) string {
	return ""
}

func (noopCatalog) CourseNames(context.Context) []string {
	return nil
}

type noopSummarizer struct{}

func (noopSummarizer) Summarize(_ context.Context, prior string, _ []leadx.Turn) (string, error) {
	return prior, nil
}
