package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

const (
	// maxToolRounds bounds the generate/execute loop within a single turn.
	maxToolRounds = 4

	// historyWindow is how many stored turns are replayed to the model.
	historyWindow = 10
)

// GenerateReply runs the model against the assembled context, executing any
// requested tools and feeding results back, until the model produces text or
// the round budget runs out. Nothing here mutates the lead record.
func GenerateReply(
	ctx context.Context,
	in *GraphState,
	generator contractx.Generator,
	tools contractx.ToolExecutor,
	toolInfos []*schema.ToolInfo,
	basePrompt string,
) (*GraphState, error) {
	if in == nil || in.Record == nil {
		return nil, fmt.Errorf("%w: graph record is nil", contractx.ErrValidation)
	}

	system := buildSystemPrompt(basePrompt, in)
	messages := historyMessages(in.Record)
	messages = append(messages, schema.UserMessage(in.Message))

	for round := 0; round < maxToolRounds; round++ {
		res, err := generator.Generate(ctx, contractx.GenerationRequest{
			System:   system,
			Messages: messages,
			Tools:    toolInfos,
		})
		if err != nil {
			return nil, err
		}

		if len(res.ToolCalls) == 0 {
			if strings.TrimSpace(res.Text) == "" {
				return nil, fmt.Errorf("%w: model returned empty reply", contractx.ErrGeneration)
			}
			in.Reply = res.Text
			return in, nil
		}

		in.ToolCalls = append(in.ToolCalls, res.ToolCalls...)
		messages = append(messages, assistantToolCallMessage(res))
		for _, call := range res.ToolCalls {
			result := tools.Execute(ctx, call)
			messages = append(messages, toolResultMessage(call, result))
		}
	}

	return nil, fmt.Errorf("%w: tool loop did not converge after %d rounds", contractx.ErrGeneration, maxToolRounds)
}

func buildSystemPrompt(basePrompt string, in *GraphState) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	b.WriteString("\n\n## Lead status\n")
	b.WriteString("Stage: " + string(in.Record.Stage) + "\n")
	b.WriteString(knownFields(in.Record.Data))

	if in.Record.Summary != nil && strings.TrimSpace(*in.Record.Summary) != "" {
		b.WriteString("\n## Conversation so far\n")
		b.WriteString(strings.TrimSpace(*in.Record.Summary) + "\n")
	}

	if len(in.MemoryHits) > 0 {
		b.WriteString("\n## Notes from related conversations\n")
		for _, hit := range in.MemoryHits {
			b.WriteString("- " + hit.Summary + "\n")
		}
	}

	if in.CatalogContext != "" {
		b.WriteString("\n" + in.CatalogContext + "\n")
	}

	return b.String()
}

func knownFields(d leadx.Data) string {
	var parts []string
	add := func(label string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			parts = append(parts, label+": "+*v)
		}
	}
	add("Name", d.Name)
	add("Phone", d.Phone)
	add("Course interest", d.SelectedCourse)
	add("Education level", d.EducationLevel)
	add("Goal", d.Goal)
	if d.DemoShared {
		parts = append(parts, "Demo details already shared")
	}
	if d.Enrolled {
		parts = append(parts, "Enrolled")
	}
	if len(parts) == 0 {
		return "Known fields: none yet\n"
	}
	return "Known fields: " + strings.Join(parts, "; ") + "\n"
}

func historyMessages(rec *leadx.Record) []*schema.Message {
	turns := rec.RecentTurns(historyWindow)
	messages := make([]*schema.Message, 0, len(turns)*2+2)
	for _, t := range turns {
		messages = append(messages, schema.UserMessage(t.UserMessage))
		messages = append(messages, schema.AssistantMessage(t.AssistantMessage, nil))
	}
	return messages
}

func assistantToolCallMessage(res contractx.GenerationResult) *schema.Message {
	calls := make([]schema.ToolCall, 0, len(res.ToolCalls))
	for _, c := range res.ToolCalls {
		raw, err := json.Marshal(c.Args)
		if err != nil {
			raw = []byte("{}")
		}
		calls = append(calls, schema.ToolCall{
			ID: c.ID,
			Function: schema.FunctionCall{
				Name:      c.Name,
				Arguments: string(raw),
			},
		})
	}
	return &schema.Message{
		Role:      schema.Assistant,
		Content:   res.Text,
		ToolCalls: calls,
	}
}

func toolResultMessage(call contractx.ToolCall, result contractx.ToolResult) *schema.Message {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error":"unserializable tool result"}`)
	}
	return schema.ToolMessage(string(payload), call.ID)
}
