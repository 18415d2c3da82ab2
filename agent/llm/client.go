package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	contractx "github.com/zensbot/leadflow/agent/contract"
)

// Client adapts an eino chat model to the Generator contract.
type Client struct {
	chatModel einomodel.ToolCallingChatModel
}

func NewClient(chatModel einomodel.ToolCallingChatModel) (*Client, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	return &Client{chatModel: chatModel}, nil
}

var _ contractx.Generator = (*Client)(nil)

func (c *Client) Generate(ctx context.Context, req contractx.GenerationRequest) (contractx.GenerationResult, error) {
	messages := make([]*schema.Message, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, req.Messages...)

	chatModel := c.chatModel
	if len(req.Tools) > 0 {
		bound, err := c.chatModel.WithTools(req.Tools)
		if err != nil {
			return contractx.GenerationResult{}, fmt.Errorf("%w: bind tools: %v", contractx.ErrGeneration, err)
		}
		chatModel = bound
	}

	msg, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return contractx.GenerationResult{}, fmt.Errorf("%w: %v", contractx.ErrGeneration, err)
	}
	if msg == nil {
		return contractx.GenerationResult{}, fmt.Errorf("%w: empty model response", contractx.ErrGeneration)
	}

	toolCalls, err := toToolCalls(msg.ToolCalls)
	if err != nil {
		return contractx.GenerationResult{}, err
	}

	return contractx.GenerationResult{
		Text:      strings.TrimSpace(msg.Content),
		ToolCalls: toolCalls,
	}, nil
}

func toToolCalls(calls []schema.ToolCall) ([]contractx.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]contractx.ToolCall, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrGeneration)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrGeneration, name, err)
			}
		}

		out = append(out, contractx.ToolCall{ID: call.ID, Name: name, Args: args})
	}
	return out, nil
}

// OpenAIEmbedder computes summary vectors through the raw SDK client.
type OpenAIEmbedder struct {
	client *openaisdk.Client
	model  string
}

func NewOpenAIEmbedder(client *openaisdk.Client, model string) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("openai client is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = string(openaisdk.EmbeddingModelTextEmbedding3Small)
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

var _ contractx.Embedder = (*OpenAIEmbedder)(nil)

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrEmbedding, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", contractx.ErrEmbedding)
	}
	return resp.Data[0].Embedding, nil
}
