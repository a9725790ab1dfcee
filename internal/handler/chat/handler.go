package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	analysis "github.com/examease/backend/internal/analysis/emotion"
	"github.com/examease/backend/internal/model/chat"
	"github.com/examease/backend/internal/service/ai"
	chatService "github.com/examease/backend/internal/service/chat"
	emotionService "github.com/examease/backend/internal/service/emotion"
	"github.com/examease/backend/pkg/utils"
)

const (
	errNoMessage    = "No message provided"
	errInvalidJSON  = "Invalid JSON body"
	errInternal     = "An internal server error occurred."
	defaultMaxBytes = 10 << 20
)

// Responder produces the assistant's reply for a prompt.
type Responder interface {
	Reply(ctx context.Context, prompt []chat.Message) (string, error)
}

// EmotionInferrer labels a snapshot. It must not fail; problems surface as
// sentinel labels.
type EmotionInferrer interface {
	Infer(ctx context.Context, raw string) analysis.Label
}

// Options tunes request handling.
type Options struct {
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	store     *chatService.Service
	responder Responder
	emotions  EmotionInferrer
	maxBytes  int64
	upgrader  websocket.Upgrader
}

// New 创建聊天处理器. A nil emotions disables snapshot analysis and the
// emotion field of the response.
func New(store *chatService.Service, responder Responder, emotions EmotionInferrer, opts Options) *Handler {
	maxBytes := opts.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Handler{
		store:     store,
		responder: responder,
		emotions:  emotions,
		maxBytes:  maxBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(opts.AllowedOrigins),
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Options("/chat", h.handlePreflight)
	r.Get("/chat/ws", h.handleWebSocket)
}

type chatRequest struct {
	Message string `json:"message"`
	Image   string `json:"image,omitempty"`
}

type chatResponse struct {
	Reply   string `json:"reply"`
	Emotion string `json:"emotion,omitempty"`
}

// handlePreflight answers CORS preflight requests.
func (h *Handler) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	utils.RespondNoContent(w)
}

// handleChat 处理一轮对话
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := utils.DecodeJSON(w, r, h.maxBytes, &payload); err != nil {
		if errors.Is(err, utils.ErrEmptyBody) {
			utils.RespondError(w, http.StatusBadRequest, errNoMessage)
			return
		}
		utils.RespondError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	status, body := h.respond(r.Context(), payload)
	utils.RespondJSON(w, status, body)
}

// respond runs one turn and maps the outcome to a status and JSON body.
func (h *Handler) respond(ctx context.Context, payload chatRequest) (status int, body any) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[chat] recovered from panic: %v", rec)
			status, body = http.StatusInternalServerError, errorBody(errInternal)
		}
	}()

	if strings.TrimSpace(payload.Message) == "" {
		return http.StatusBadRequest, errorBody(errNoMessage)
	}

	resp, err := h.converse(ctx, payload)
	if err != nil {
		log.Printf("[chat] an error occurred: %v", err)
		return http.StatusInternalServerError, errorBody(errInternal)
	}
	return http.StatusOK, resp
}

// converse appends the user turn, asks the responder and appends the reply.
func (h *Handler) converse(ctx context.Context, payload chatRequest) (chatResponse, error) {
	var resp chatResponse
	var note string

	if h.emotions != nil {
		resp.Emotion = string(analysis.Missing)
		if strings.TrimSpace(payload.Image) != "" {
			label := h.emotions.Infer(ctx, payload.Image)
			resp.Emotion = string(label)
			// Unavailable means nothing was analysed.
			if label != analysis.Unavailable {
				note = emotionService.Note(label)
			}
		}
	}

	if _, err := h.store.Append(ctx, chat.RoleUser, payload.Message); err != nil {
		return chatResponse{}, fmt.Errorf("append user turn: %w", err)
	}

	prompt := h.store.Transcript(ctx)
	if note != "" {
		// The note rides along with this prompt only and is never stored.
		prompt = append(prompt, chat.Message{Role: chat.RoleSystem, Content: note})
	}

	reply, err := h.responder.Reply(ctx, prompt)
	if err != nil {
		log.Printf("[chat] completion failed, sending apology: %v", err)
		reply = ai.ApologyReply
	}

	if _, err := h.store.Append(ctx, chat.RoleAssistant, reply); err != nil {
		return chatResponse{}, fmt.Errorf("append assistant turn: %w", err)
	}

	resp.Reply = reply
	return resp, nil
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
