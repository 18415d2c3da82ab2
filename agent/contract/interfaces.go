package contract

import "context"

// Generator is the external text-completion collaborator. It may return tool
// calls instead of (or before) final text; the orchestrator owns the loop.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// Embedder computes a fixed-length vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// MemoryIndex stores conversation summaries for similarity search.
type MemoryIndex interface {
	Index(ctx context.Context, conversationID, summary string) error
	Search(ctx context.Context, query string, topK int) ([]MemoryHit, error)
}

// RowSource is a tabular lookup collaborator (Supabase/Postgres, sheets).
type RowSource interface {
	GetRows(ctx context.Context, table string) ([]map[string]any, error)
}

// ToolExecutor runs a single tool invocation on behalf of the model.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) ToolResult
}
