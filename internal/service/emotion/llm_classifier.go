package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/examease/backend/internal/analysis/emotion"
)

// LLMClassifier asks a vision-capable chat model for the dominant emotion.
type LLMClassifier struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMClassifier compiles the classification chain around chatModel.
func NewLLMClassifier(ctx context.Context, chatModel model.BaseChatModel) (*LLMClassifier, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.MessagesPlaceholder("frame", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	return &LLMClassifier{classifier: runnable}, nil
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, frame *analysis.Frame) (analysis.Result, error) {
	url, err := frame.DataURL()
	if err != nil {
		return analysis.Result{}, err
	}

	input := map[string]any{
		"frame": []*schema.Message{{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: classifierUserPrompt},
				{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: url}},
			},
		}},
	}

	msg, err := c.classifier.Invoke(ctx, input)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("classifier invoke: %w", err)
	}
	if msg == nil {
		return analysis.Result{}, fmt.Errorf("classifier returned no message")
	}

	payload, err := extractJSON(msg.Content)
	if err != nil {
		return analysis.Result{}, err
	}
	return analysis.DecodeResult([]byte(payload))
}

// extractJSON 截取模型输出中的 JSON 数组或对象。
func extractJSON(content string) (string, error) {
	trimmed := strings.TrimSpace(content)

	start := strings.IndexAny(trimmed, "[{")
	if start == -1 {
		return "", fmt.Errorf("missing json in classifier output")
	}

	closer := "}"
	if trimmed[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(trimmed, closer)
	if end <= start {
		return "", fmt.Errorf("unterminated json in classifier output")
	}
	return trimmed[start : end+1], nil
}

const classifierSystemPrompt = "You are a facial expression analyst. Look at the photo and decide the dominant emotion of every visible face, left to right. " +
	"Answer with JSON only and no other text: an array holding one object per face, each object with a dominant_emotion field set to one of angry, disgust, fear, happy, sad, surprise or neutral. " +
	"If no face is clearly visible, still return a single object with your best guess for the overall expression."

const classifierUserPrompt = "Classify the facial expression in this webcam snapshot."
