package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/examease/backend/internal/model/chat"
)

// ApologyReply replaces the model's answer when a completion call fails.
const ApologyReply = "I'm sorry, I'm having a little trouble responding right now. Please try again in a moment."

const offlineEchoLimit = 100

// Offline answers without a language model by echoing the latest user turn.
type Offline struct{}

// Reply implements the responder contract for the no-credential case.
func (Offline) Reply(_ context.Context, prompt []chat.Message) (string, error) {
	last := ""
	for i := len(prompt) - 1; i >= 0; i-- {
		if prompt[i].Role == chat.RoleUser {
			last = prompt[i].Content
			break
		}
	}

	return fmt.Sprintf("(Offline mode) You said: %q. I can't reach my language model right now, but I'm still here for you.", truncateRunes(strings.TrimSpace(last), offlineEchoLimit)), nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
