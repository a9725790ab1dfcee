package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const anthropicDefaultMaxTokens = 1024

type anthropicChatModel struct {
	client      anthropic.Client
	model       string
	temperature *float64
	maxTokens   *int
}

var _ model.BaseChatModel = (*anthropicChatModel)(nil)

func newAnthropicChatModel(baseURL, apiKey, modelName string, temperature *float64, maxTokens *int) *anthropicChatModel {
	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &anthropicChatModel{
		client:      client,
		model:       modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (m *anthropicChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &m.model}, opts...)

	messages, system, err := toAnthropicMessages(input)
	if err != nil {
		return nil, err
	}

	maxTokens := int64(anthropicDefaultMaxTokens)
	if options.MaxTokens != nil {
		maxTokens = int64(*options.MaxTokens)
	} else if m.maxTokens != nil {
		maxTokens = int64(*m.maxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(*options.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*options.Temperature))
	} else if m.temperature != nil {
		params.Temperature = anthropic.Float(*m.temperature)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages request: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	return schema.AssistantMessage(builder.String(), nil), nil
}

func (m *anthropicChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// toAnthropicMessages moves system turns into the system blocks. Assistant
// turns before the first user turn (the greeting) are folded into the system
// prompt as well, since the conversation must open with a user message.
func toAnthropicMessages(input []*schema.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam, error) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(input))

	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case schema.Assistant:
			if len(messages) == 0 {
				system = append(system, anthropic.TextBlockParam{
					Text: "You opened the conversation with: " + msg.Content,
				})
				continue
			}
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			text, images, err := splitParts(msg)
			if err != nil {
				return nil, nil, err
			}

			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
			for _, img := range images {
				blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, img.Base64))
			}
			if text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return messages, system, nil
}
