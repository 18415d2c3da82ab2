package nodes

import (
	"fmt"

	contractx "github.com/zensbot/leadflow/agent/contract"
	extractx "github.com/zensbot/leadflow/agent/extract"
)

// ExtractFields derives lead field updates for this turn. Text-derived
// guesses go first; structured tool arguments overlay them.
func ExtractFields(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	updates := extractx.FromText(in.Message, in.Courses)
	for _, call := range in.ToolCalls {
		updates = updates.Merge(extractx.FromToolArgs(call.Name, call.Args))
	}

	in.Updates = updates
	return in, nil
}
