package nodes

import (
	"fmt"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

func LoadRecord(in *GraphState, store leadx.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	rec, err := store.LoadOrCreate(in.ConversationID)
	if err != nil {
		return nil, err
	}

	in.Record = rec
	in.PriorStage = rec.Stage
	return in, nil
}
