package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
)

type ollamaChatModel struct {
	client      *api.Client
	model       string
	temperature *float64
	maxTokens   *int
}

var _ model.BaseChatModel = (*ollamaChatModel)(nil)

func newOllamaChatModel(baseURL, modelName string, temperature *float64, maxTokens *int) (*ollamaChatModel, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", baseURL, err)
	}

	return &ollamaChatModel{
		client:      api.NewClient(parsedURL, http.DefaultClient),
		model:       modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (m *ollamaChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &m.model}, opts...)

	messages, err := toOllamaMessages(input)
	if err != nil {
		return nil, err
	}

	requestOptions := map[string]any{}
	if options.Temperature != nil {
		requestOptions["temperature"] = *options.Temperature
	} else if m.temperature != nil {
		requestOptions["temperature"] = *m.temperature
	}
	if options.MaxTokens != nil {
		requestOptions["num_predict"] = *options.MaxTokens
	} else if m.maxTokens != nil {
		requestOptions["num_predict"] = *m.maxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    *options.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  requestOptions,
	}

	var builder strings.Builder
	err = m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat request: %w", err)
	}

	return schema.AssistantMessage(builder.String(), nil), nil
}

func (m *ollamaChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOllamaMessages(input []*schema.Message) ([]api.Message, error) {
	result := make([]api.Message, 0, len(input))
	for _, msg := range input {
		text, images, err := splitParts(msg)
		if err != nil {
			return nil, err
		}

		converted := api.Message{
			Role:    string(msg.Role),
			Content: text,
		}
		for _, img := range images {
			data, err := img.bytes()
			if err != nil {
				return nil, fmt.Errorf("decode inline image: %w", err)
			}
			converted.Images = append(converted.Images, api.ImageData(data))
		}
		result = append(result, converted)
	}
	return result, nil
}
