package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/examease/backend/internal/config"
)

// NewChatModel builds the chat model for cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		return newOpenAIChatModel(cfg.Endpoint(), cfg.Credential(), cfg.ModelName(), cfg.Temperature, cfg.MaxTokens), nil
	case config.ProviderAnthropic:
		return newAnthropicChatModel(cfg.Endpoint(), cfg.Credential(), cfg.ModelName(), cfg.Temperature, cfg.MaxTokens), nil
	case config.ProviderOllama:
		return newOllamaChatModel(cfg.Endpoint(), cfg.ModelName(), cfg.Temperature, cfg.MaxTokens)
	case config.ProviderArk:
		return newArkChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

func newArkChatModel(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	arkCfg := &ark.ChatModelConfig{
		BaseURL:     cfg.Endpoint(),
		Region:      cfg.ArkRegion,
		APIKey:      cfg.ArkAPIKey,
		AccessKey:   cfg.ArkAccessKey,
		SecretKey:   cfg.ArkSecretKey,
		Model:       cfg.ModelName(),
		MaxTokens:   cfg.MaxTokens,
		Temperature: temperature,
	}

	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}
