package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/examease/backend/internal/config"
	"github.com/examease/backend/internal/model/chat"
)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Service sends the transcript to the configured chat model.
type Service struct {
	provider  string
	modelName string
	timeout   time.Duration
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates a new AI service instance for the configured provider.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newService(ctx, chatModel, cfg.Provider, cfg.ModelName(), cfg.Timeout)
}

func newService(ctx context.Context, chatModel model.BaseChatModel, provider, modelName string, timeout time.Duration) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		provider:  provider,
		modelName: modelName,
		timeout:   timeout,
		chain:     runnable,
	}, nil
}

// Model returns the model identifier sent with every completion.
func (s *Service) Model() string {
	return s.modelName
}

// Reply generates the assistant's next turn for prompt.
func (s *Service) Reply(ctx context.Context, prompt []chat.Message) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"history": toSchemaMessages(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	content := ""
	if response != nil {
		content = strings.TrimSpace(response.Content)
	}
	if content == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[ai] generated reply provider=%s model=%s turns=%d length=%d", s.provider, s.modelName, len(prompt), len(content))
	return content, nil
}

func toSchemaMessages(messages []chat.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		default:
			out = append(out, schema.UserMessage(msg.Content))
		}
	}
	return out
}
