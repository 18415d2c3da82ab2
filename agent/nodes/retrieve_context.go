package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

const memoryTopK = 3

// CatalogContext supplies reference content for the reply prompt.
type CatalogContext interface {
	StageContext(ctx context.Context, stage leadx.Stage, selectedCourse string) string
	CourseNames(ctx context.Context) []string
}

// RetrieveContext gathers prompt context: related conversation summaries and
// stage-appropriate catalog content. Enrichment failures degrade the prompt
// but never fail the turn.
func RetrieveContext(
	ctx context.Context,
	in *GraphState,
	index contractx.MemoryIndex,
	catalog CatalogContext,
) (*GraphState, error) {
	if in == nil || in.Record == nil {
		return nil, fmt.Errorf("%w: graph record is nil", contractx.ErrValidation)
	}

	hits, err := index.Search(ctx, in.Message, memoryTopK)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", in.ConversationID).
			Msg("memory search failed, continuing without recall")
	} else {
		for _, hit := range hits {
			if hit.ConversationID == in.ConversationID {
				continue
			}
			in.MemoryHits = append(in.MemoryHits, hit)
		}
	}

	in.Courses = catalog.CourseNames(ctx)

	course := ""
	if in.Record.Data.SelectedCourse != nil {
		course = *in.Record.Data.SelectedCourse
	}
	in.CatalogContext = catalog.StageContext(ctx, in.Record.Stage, course)

	return in, nil
}
