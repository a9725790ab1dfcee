package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported LLM providers.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderArk       = "ark"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Supported emotion classifier backends.
const (
	ClassifierDeepFace = "deepface"
	ClassifierLLM      = "llm"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Vision VisionConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.AI.finish(); err != nil {
		return nil, err
	}
	if err := cfg.Vision.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// String renders the configuration for startup logs with secrets hidden.
func (c Config) String() string {
	return fmt.Sprintf("addr=%s llm.provider=%s llm.model=%s llm.credential=%s vision.enabled=%t vision.classifier=%s",
		c.Server.Addr,
		c.AI.Provider,
		c.AI.ModelName(),
		hidden(c.AI.Credential()),
		c.Vision.Enabled,
		c.Vision.Classifier,
	)
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port           string   `env:"PORT" env-default:"5000"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxBodyBytes   int64    `env:"CHAT_MAX_BODY_BYTES" env-default:"10485760"`

	// Addr is derived from Port.
	Addr string
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return port, nil
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string        `env:"LLM_PROVIDER" env-default:"groq"`
	Model    string        `env:"LLM_MODEL"`
	BaseURL  string        `env:"LLM_BASE_URL"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" env-default:"30s"`

	GroqAPIKey      string `env:"GROQ_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	ArkAPIKey       string `env:"ARK_API_KEY"`
	ArkAccessKey    string `env:"ARK_ACCESS_KEY"`
	ArkSecretKey    string `env:"ARK_SECRET_KEY"`
	ArkRegion       string `env:"ARK_REGION" env-default:"cn-beijing"`

	// Optional sampling knobs, parsed after cleanenv so that an unset
	// variable stays nil instead of zero.
	Temperature *float64
	MaxTokens   *int
}

var defaultModels = map[string]string{
	ProviderGroq:      "llama-3.1-8b-instant",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOllama:    "llama3.1",
}

var defaultBaseURLs = map[string]string{
	ProviderGroq:      "https://api.groq.com/openai/v1",
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderArk:       "https://ark.cn-beijing.volces.com/api/v3",
	ProviderAnthropic: "https://api.anthropic.com",
	ProviderOllama:    "http://localhost:11434",
}

func (c *AIConfig) finish() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if _, ok := defaultBaseURLs[c.Provider]; !ok {
		return fmt.Errorf("invalid LLM_PROVIDER value: %q", c.Provider)
	}

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return err
	}
	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return err
	}
	c.Temperature = temperature
	c.MaxTokens = maxTokens
	return nil
}

// ModelName returns the configured model or the provider default.
func (c AIConfig) ModelName() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return defaultModels[c.Provider]
}

// Endpoint returns the configured base URL or the provider default.
func (c AIConfig) Endpoint() string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return u
	}
	return defaultBaseURLs[c.Provider]
}

// Credential returns the API key used by the selected provider.
func (c AIConfig) Credential() string {
	switch c.Provider {
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderArk:
		return c.ArkAPIKey
	default:
		return ""
	}
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOllama:
		return c.ModelName() != ""
	case ProviderArk:
		// Ark 需要显式的推理接入点作为模型。
		return c.ModelName() != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return c.ModelName() != "" && c.Credential() != ""
	}
}

// VisionConfig 描述表情识别相关配置。
type VisionConfig struct {
	Enabled     bool          `env:"VISION_ENABLED" env-default:"true"`
	Classifier  string        `env:"VISION_CLASSIFIER" env-default:"deepface"`
	DeepFaceURL string        `env:"VISION_DEEPFACE_URL" env-default:"http://localhost:5005"`
	Model       string        `env:"VISION_MODEL"`
	Timeout     time.Duration `env:"VISION_TIMEOUT" env-default:"15s"`
	// CascadePath overrides the embedded face cascade.
	CascadePath string `env:"FACE_CASCADE_PATH"`
}

var defaultVisionModels = map[string]string{
	ProviderGroq:      "meta-llama/llama-4-scout-17b-16e-instruct",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-sonnet-latest",
	ProviderOllama:    "llava",
}

// VisionAI returns the LLM settings for the llm emotion classifier: the
// chat provider with VISION_MODEL or the provider's vision default. Ark has
// no default and reuses the chat endpoint model.
func (c Config) VisionAI() AIConfig {
	ai := c.AI
	if m := strings.TrimSpace(c.Vision.Model); m != "" {
		ai.Model = m
	} else if m, ok := defaultVisionModels[ai.Provider]; ok {
		ai.Model = m
	}
	return ai
}

func (c *VisionConfig) validate() error {
	c.Classifier = strings.ToLower(strings.TrimSpace(c.Classifier))
	switch c.Classifier {
	case ClassifierDeepFace, ClassifierLLM:
		return nil
	default:
		return fmt.Errorf("invalid VISION_CLASSIFIER value: %q", c.Classifier)
	}
}

func hidden(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "<hidden>"
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
