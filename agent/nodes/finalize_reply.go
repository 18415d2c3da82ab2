package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/zensbot/leadflow/agent/contract"
)

func FinalizeReply(in *GraphState) (TurnResult, error) {
	if in == nil || in.Record == nil {
		return TurnResult{}, fmt.Errorf("%w: graph record is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return TurnResult{}, fmt.Errorf("%w: reply is empty", contractx.ErrValidation)
	}

	return TurnResult{
		ConversationID: in.ConversationID,
		Reply:          reply,
		Stage:          in.Record.Stage,
		StageChanged:   in.Record.Stage != in.PriorStage,
		TurnCount:      len(in.Record.Turns),
		LeadData:       in.Record.Data,
		ToolCalls:      in.ToolCalls,
	}, nil
}
