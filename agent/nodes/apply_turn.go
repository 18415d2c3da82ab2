package nodes

import (
	"fmt"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

// ApplyTurn commits the turn to the store: field updates, the new turn pair,
// and stage re-derivation happen atomically inside the store.
func ApplyTurn(in *GraphState, store leadx.Store) (*GraphState, error) {
	if in == nil || in.Record == nil {
		return nil, fmt.Errorf("%w: graph record is nil", contractx.ErrValidation)
	}
	if in.Reply == "" {
		return nil, fmt.Errorf("%w: reply is empty before apply", contractx.ErrValidation)
	}

	rec, err := store.ApplyTurn(in.ConversationID, in.Message, in.Reply, in.Updates)
	if err != nil {
		return nil, err
	}

	in.Record = rec
	return in, nil
}
