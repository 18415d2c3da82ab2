// Package memory holds the long-term memory subsystem: the rolling summary
// trigger and the semantic index over conversation summaries.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

// DefaultSummarizeInterval collapses the turn log every Nth turn.
const DefaultSummarizeInterval = 10

// ShouldSummarize reports whether the turn counter has reached a collapse
// point. Fires on exact multiples only; a missed boundary is caught on the
// next one because the summary window is re-read from the record.
func ShouldSummarize(turnCount, interval int) bool {
	if interval <= 0 {
		return false
	}
	return turnCount > 0 && turnCount%interval == 0
}

// Summarizer collapses a window of recent turns plus the prior summary into
// a new, self-contained summary via the external model collaborator.
// Replace, not append: the result supersedes the previous summary entirely.
type Summarizer struct {
	generator contractx.Generator
	prompt    string
}

func NewSummarizer(generator contractx.Generator, prompt string) *Summarizer {
	return &Summarizer{
		generator: generator,
		prompt:    strings.TrimSpace(prompt),
	}
}

func (s *Summarizer) Summarize(ctx context.Context, priorSummary string, window []leadx.Turn) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: summarizer has no generator", contractx.ErrGeneration)
	}

	var b strings.Builder
	if prior := strings.TrimSpace(priorSummary); prior != "" {
		b.WriteString("Previous conversation summary:\n")
		b.WriteString(prior)
		b.WriteString("\n\nNew conversation turns to add:\n")
	} else {
		b.WriteString("Conversation:\n")
	}
	for _, t := range window {
		b.WriteString("User: ")
		b.WriteString(t.UserMessage)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.AssistantMessage)
		b.WriteString("\n")
	}

	out, err := s.generator.Generate(ctx, contractx.GenerationRequest{
		System: s.prompt,
		Messages: []*schema.Message{
			schema.UserMessage(b.String()),
		},
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(out.Text)
	if summary == "" {
		return "", fmt.Errorf("%w: summarizer returned empty text", contractx.ErrGeneration)
	}
	return summary, nil
}
