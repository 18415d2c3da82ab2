package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/zensbot/leadflow/agent/contract"
)

// entry is one embedded summary. The index keeps a single current entry per
// conversation; re-indexing supersedes the old vector.
type entry struct {
	conversationID string
	summary        string
	vector         []float64
	timestamp      time.Time
}

// SemanticIndex embeds conversation summaries and serves nearest-neighbor
// search over them. Embedding is delegated to the external collaborator; the
// index itself is an in-process cosine-similarity scan, which is plenty at
// this scale (one vector per conversation).
type SemanticIndex struct {
	mu       sync.RWMutex
	embedder contractx.Embedder
	entries  map[string]entry
	now      func() time.Time
}

func NewSemanticIndex(embedder contractx.Embedder) *SemanticIndex {
	return &SemanticIndex{
		embedder: embedder,
		entries:  make(map[string]entry),
		now:      time.Now,
	}
}

var _ contractx.MemoryIndex = (*SemanticIndex)(nil)

// Index embeds the summary and upserts the conversation's entry.
func (s *SemanticIndex) Index(ctx context.Context, conversationID, summary string) error {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return fmt.Errorf("%w: conversation id is empty", contractx.ErrIndexing)
	}
	text := strings.TrimSpace(summary)
	if text == "" {
		return fmt.Errorf("%w: summary is empty", contractx.ErrIndexing)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrIndexing, err)
	}

	s.mu.Lock()
	s.entries[id] = entry{
		conversationID: id,
		summary:        text,
		vector:         vector,
		timestamp:      s.now().UTC(),
	}
	s.mu.Unlock()
	return nil
}

// Search embeds the query and returns up to topK entries ranked by cosine
// similarity, descending.
func (s *SemanticIndex) Search(ctx context.Context, query string, topK int) ([]contractx.MemoryHit, error) {
	if topK <= 0 {
		topK = 5
	}
	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrEmbedding, err)
	}

	s.mu.RLock()
	hits := make([]contractx.MemoryHit, 0, len(s.entries))
	for _, e := range s.entries {
		hits = append(hits, contractx.MemoryHit{
			ConversationID: e.conversationID,
			Summary:        e.summary,
			Score:          cosine(qv, e.vector),
			Timestamp:      e.timestamp,
		})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
