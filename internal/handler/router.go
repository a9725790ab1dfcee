package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/examease/backend/internal/config"
	"github.com/examease/backend/internal/handler/chat"
	aiService "github.com/examease/backend/internal/service/ai"
	chatService "github.com/examease/backend/internal/service/chat"
	emotionService "github.com/examease/backend/internal/service/emotion"
	"github.com/examease/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. A nil aiSvc falls back to the
// offline echo; a nil emotionSvc serves the text-only variant.
func NewRouter(serverCfg config.ServerConfig, chatSvc *chatService.Service, aiSvc *aiService.Service, emotionSvc *emotionService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:         300,
		// /chat answers its own preflight with an empty 204.
		OptionsPassthrough: true,
	}))

	var responder chat.Responder = aiService.Offline{}
	if aiSvc != nil {
		responder = aiSvc
	}

	var emotions chat.EmotionInferrer
	if emotionSvc != nil {
		emotions = emotionSvc
	}

	chatHandler := chat.New(chatSvc, responder, emotions, chat.Options{
		MaxBodyBytes:   serverCfg.MaxBodyBytes,
		AllowedOrigins: serverCfg.AllowedOrigins,
	})
	chatHandler.RegisterRoutes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		model := "offline"
		if aiSvc != nil {
			model = aiSvc.Model()
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"llm":      aiSvc != nil,
			"model":    model,
			"vision":   emotionSvc.Available(),
			"messages": chatSvc.Len(),
		})
	})

	return r
}
