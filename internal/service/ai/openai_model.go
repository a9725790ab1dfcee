package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openAIChatModel talks to any OpenAI-compatible chat completions endpoint,
// Groq included.
type openAIChatModel struct {
	client      openai.Client
	model       string
	temperature *float64
	maxTokens   *int
}

var _ model.BaseChatModel = (*openAIChatModel)(nil)

func newOpenAIChatModel(baseURL, apiKey, modelName string, temperature *float64, maxTokens *int) *openAIChatModel {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &openAIChatModel{
		client:      client,
		model:       modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (m *openAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &m.model}, opts...)

	messages, err := toOpenAIMessages(input)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(*options.Model),
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	} else if m.temperature != nil {
		params.Temperature = openai.Float(*m.temperature)
	}
	if options.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	} else if m.maxTokens != nil {
		params.MaxTokens = openai.Int(int64(*m.maxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return schema.AssistantMessage(completion.Choices[0].Message.Content, nil), nil
}

func (m *openAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(input []*schema.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))

	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			result = append(result, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			if len(msg.MultiContent) == 0 {
				result = append(result, openai.UserMessage(msg.Content))
				continue
			}

			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.MultiContent))
			for _, part := range msg.MultiContent {
				switch part.Type {
				case schema.ChatMessagePartTypeText:
					parts = append(parts, openai.TextContentPart(part.Text))
				case schema.ChatMessagePartTypeImageURL:
					if part.ImageURL == nil {
						continue
					}
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: part.ImageURL.URL,
					}))
				default:
					return nil, fmt.Errorf("unsupported content part %q", part.Type)
				}
			}
			result = append(result, openai.UserMessage(parts))
		}
	}

	return result, nil
}
