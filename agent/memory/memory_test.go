package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

func TestShouldSummarize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		turnCount int
		interval  int
		want      bool
	}{
		{10, 10, true},
		{0, 10, false},
		{15, 10, false},
		{20, 10, true},
		{5, 5, true},
		{3, 0, false},
	}

	for _, tc := range cases {
		if got := ShouldSummarize(tc.turnCount, tc.interval); got != tc.want {
			t.Errorf("ShouldSummarize(%d, %d)=%v want %v", tc.turnCount, tc.interval, got, tc.want)
		}
	}
}

type fakeGenerator struct {
	text     string
	err      error
	requests []contractx.GenerationRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req contractx.GenerationRequest) (contractx.GenerationResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return contractx.GenerationResult{}, f.err
	}
	return contractx.GenerationResult{Text: f.text}, nil
}

func TestSummarizeIncludesPriorSummary(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "Ahmed wants CTA, has a bachelors degree."}
	s := NewSummarizer(gen, "You write concise conversation summaries.")

	window := []leadx.Turn{
		{UserMessage: "I have a bachelors degree", AssistantMessage: "Great, noted."},
	}
	out, err := s.Summarize(context.Background(), "Ahmed asked about CTA.", window)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "Ahmed wants CTA, has a bachelors degree." {
		t.Fatalf("unexpected summary: %q", out)
	}

	if len(gen.requests) != 1 {
		t.Fatalf("generator calls=%d", len(gen.requests))
	}
	prompt := gen.requests[0].Messages[0].Content
	if !strings.Contains(prompt, "Previous conversation summary:") {
		t.Fatalf("prior summary missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "I have a bachelors degree") {
		t.Fatalf("turn window missing from prompt:\n%s", prompt)
	}
}

func TestSummarizePropagatesGeneratorError(t *testing.T) {
	t.Parallel()

	genErr := errors.New("upstream rate limited")
	s := NewSummarizer(&fakeGenerator{err: genErr}, "prompt")
	if _, err := s.Summarize(context.Background(), "", nil); !errors.Is(err, genErr) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

// stubEmbedder maps known texts to fixed vectors so ranking is deterministic.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

func TestSemanticIndexRanksByCosine(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{
		"tax interest":    {1, 0, 0},
		"about taxation":  {0.9, 0.1, 0},
		"about knitting":  {0, 1, 0},
		"about gardening": {0, 0, 1},
	}}
	idx := NewSemanticIndex(emb)
	ctx := context.Background()

	for id, text := range map[string]string{
		"conv-tax":    "about taxation",
		"conv-knit":   "about knitting",
		"conv-garden": "about gardening",
	} {
		if err := idx.Index(ctx, id, text); err != nil {
			t.Fatalf("Index(%s): %v", id, err)
		}
	}

	hits, err := idx.Search(ctx, "tax interest", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits=%d want 2", len(hits))
	}
	if hits[0].ConversationID != "conv-tax" {
		t.Fatalf("top hit=%s want conv-tax", hits[0].ConversationID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("not descending: %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestSemanticIndexUpsertSupersedes(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{}}
	idx := NewSemanticIndex(emb)
	ctx := context.Background()

	if err := idx.Index(ctx, "conv-1", "first summary"); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Index(ctx, "conv-1", "second summary"); err != nil {
		t.Fatalf("Index: %v", err)
	}

	hits, err := idx.Search(ctx, "anything", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits=%d want 1 (stale entry not superseded)", len(hits))
	}
	if hits[0].Summary != "second summary" {
		t.Fatalf("summary=%q", hits[0].Summary)
	}
}

func TestSemanticIndexEmbedFailure(t *testing.T) {
	t.Parallel()

	idx := NewSemanticIndex(&stubEmbedder{err: errors.New("embedding api down")})
	if err := idx.Index(context.Background(), "conv-1", "summary"); !errors.Is(err, contractx.ErrIndexing) {
		t.Fatalf("expected ErrIndexing, got %v", err)
	}
}
