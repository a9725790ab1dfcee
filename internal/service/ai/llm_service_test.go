package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/examease/backend/internal/model/chat"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func sampleTranscript() []chat.Message {
	return []chat.Message{
		{Role: chat.RoleSystem, Content: "be kind"},
		{Role: chat.RoleAssistant, Content: "hello there"},
		{Role: chat.RoleUser, Content: "I have {braces} and exams"},
		{Role: chat.RoleSystem, Content: "note"},
	}
}

func TestReplySendsTranscriptInOrder(t *testing.T) {
	fake := &fakeChatModel{reply: "  you'll do great  "}
	svc, err := newService(context.Background(), fake, "groq", "llama-3.1-8b-instant", 0)
	if err != nil {
		t.Fatalf("newService err: %v", err)
	}

	reply, err := svc.Reply(context.Background(), sampleTranscript())
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if reply != "you'll do great" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(fake.input) != 4 {
		t.Fatalf("expected 4 prompt messages, got %d", len(fake.input))
	}
	wantRoles := []schema.RoleType{schema.System, schema.Assistant, schema.User, schema.System}
	for i, role := range wantRoles {
		if fake.input[i].Role != role {
			t.Fatalf("message %d: expected role %s, got %s", i, role, fake.input[i].Role)
		}
	}
	if fake.input[2].Content != "I have {braces} and exams" {
		t.Fatalf("user content must pass through untouched, got %q", fake.input[2].Content)
	}
	if svc.Model() != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected model: %s", svc.Model())
	}
}

func TestReplyPropagatesModelError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("rate limited")}
	svc, err := newService(context.Background(), fake, "groq", "m", 0)
	if err != nil {
		t.Fatalf("newService err: %v", err)
	}

	if _, err := svc.Reply(context.Background(), sampleTranscript()); err == nil {
		t.Fatal("expected error from failing model")
	}
}

func TestReplyRejectsEmptyAnswer(t *testing.T) {
	fake := &fakeChatModel{reply: "   "}
	svc, err := newService(context.Background(), fake, "groq", "m", 0)
	if err != nil {
		t.Fatalf("newService err: %v", err)
	}

	if _, err := svc.Reply(context.Background(), sampleTranscript()); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestOfflineEchoesLatestUserTurn(t *testing.T) {
	reply, err := Offline{}.Reply(context.Background(), []chat.Message{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleAssistant, Content: "ok"},
		{Role: chat.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Offline.Reply err: %v", err)
	}
	if !strings.Contains(reply, `"hello"`) {
		t.Fatalf("expected echo of the message, got %q", reply)
	}
}

func TestOfflineTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("é", 250)
	reply, _ := Offline{}.Reply(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: long}})

	if strings.Contains(reply, long) {
		t.Fatal("expected long message to be truncated")
	}
	if !strings.Contains(reply, strings.Repeat("é", offlineEchoLimit)+"...") {
		t.Fatalf("expected rune-safe truncation, got %q", reply)
	}
}
