package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/examease/backend/internal/config"
	"github.com/examease/backend/internal/handler"
	"github.com/examease/backend/internal/model/persona"
	"github.com/examease/backend/internal/service/ai"
	"github.com/examease/backend/internal/service/chat"
	emotionservice "github.com/examease/backend/internal/service/emotion"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	log.Printf("configuration loaded: %s", cfg)

	chatService := chat.NewService(persona.ExamEase())

	// Initialize AI service
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing in offline mode")
			aiService = nil
		} else {
			log.Printf("AI service initialized provider=%s model=%s", cfg.AI.Provider, aiService.Model())
		}
	} else {
		log.Printf("%s credential not configured, replies run in offline mode", cfg.AI.Provider)
	}

	var emotionService *emotionservice.Service
	if cfg.Vision.Enabled {
		emotionService = newEmotionService(ctx, cfg)
		if emotionService.Available() {
			log.Printf("emotion inference enabled classifier=%s", cfg.Vision.Classifier)
		} else {
			log.Println("emotion inference unavailable, snapshots will be labelled unknown")
		}
	} else {
		log.Println("emotion inference disabled by configuration")
	}

	router := handler.NewRouter(cfg.Server, chatService, aiService, emotionService)

	startServer(ctx, cfg.Server, router)
}

// newEmotionService builds the snapshot pipeline. Missing parts leave the
// service unavailable instead of failing startup.
func newEmotionService(ctx context.Context, cfg *config.Config) *emotionservice.Service {
	var detector emotionservice.FaceDetector
	pigo, err := emotionservice.LoadPigoDetector(cfg.Vision.CascadePath)
	if err != nil {
		log.Printf("warning: face detector unavailable: %v", err)
	} else {
		detector = pigo
	}

	classifier, err := newClassifier(ctx, cfg)
	if err != nil {
		log.Printf("warning: emotion classifier unavailable: %v", err)
	}

	return emotionservice.NewService(detector, classifier, cfg.Vision.Timeout)
}

func newClassifier(ctx context.Context, cfg *config.Config) (emotionservice.Classifier, error) {
	switch cfg.Vision.Classifier {
	case config.ClassifierLLM:
		visionCfg := cfg.VisionAI()
		if !visionCfg.Enabled() {
			return nil, fmt.Errorf("%s credential required for the llm classifier", visionCfg.Provider)
		}
		chatModel, err := ai.NewChatModel(ctx, visionCfg)
		if err != nil {
			return nil, err
		}
		log.Printf("llm emotion classifier using model=%s", visionCfg.ModelName())
		classifier, err := emotionservice.NewLLMClassifier(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return classifier, nil
	default:
		return emotionservice.NewDeepFaceClassifier(cfg.Vision.DeepFaceURL, &http.Client{Timeout: cfg.Vision.Timeout}), nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Exam Ease backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
