package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
	memoryx "github.com/zensbot/leadflow/agent/memory"
)

// Summarizer condenses a window of turns into a rolling summary.
type Summarizer interface {
	Summarize(ctx context.Context, priorSummary string, window []leadx.Turn) (string, error)
}

// MaybeSummarize refreshes the rolling summary when the turn count crosses
// the interval, then upserts it into the semantic index. Failures are logged
// and absorbed; the user still gets their reply.
func MaybeSummarize(
	ctx context.Context,
	in *GraphState,
	summarizer Summarizer,
	store leadx.Store,
	index contractx.MemoryIndex,
	interval int,
) (*GraphState, error) {
	if in == nil || in.Record == nil {
		return nil, fmt.Errorf("%w: graph record is nil", contractx.ErrValidation)
	}

	if !memoryx.ShouldSummarize(len(in.Record.Turns), interval) {
		return in, nil
	}

	prior := ""
	if in.Record.Summary != nil {
		prior = *in.Record.Summary
	}

	summary, err := summarizer.Summarize(ctx, prior, in.Record.RecentTurns(interval))
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", in.ConversationID).
			Msg("summarization failed, keeping previous summary")
		return in, nil
	}
	if strings.TrimSpace(summary) == "" {
		return in, nil
	}

	rec, err := store.SetSummary(in.ConversationID, summary)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", in.ConversationID).
			Msg("summary persist failed")
		return in, nil
	}
	in.Record = rec

	if err := index.Index(ctx, in.ConversationID, summary); err != nil {
		log.Warn().Err(err).
			Str("conversation_id", in.ConversationID).
			Msg("summary indexing failed")
	}

	return in, nil
}
