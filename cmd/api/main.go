package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/drama-bot/backend/internal/config"
	"github.com/zhouzirui/drama-bot/backend/internal/handler"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	speechmodel "github.com/zhouzirui/drama-bot/backend/internal/model/speech"
	"github.com/zhouzirui/drama-bot/backend/internal/service/ai"
	"github.com/zhouzirui/drama-bot/backend/internal/service/chat"
	"github.com/zhouzirui/drama-bot/backend/internal/service/script"
	"github.com/zhouzirui/drama-bot/backend/internal/service/speech"
	"github.com/zhouzirui/drama-bot/backend/internal/service/voice"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.L.Warn("failed to load .env file, continuing with system environment variables only", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration", err)
	}
	logger.SetLevel(cfg.Server.LogLevel)

	store, err := chat.Open(ctx, cfg.Memory.DBPath)
	if err != nil {
		fatal("failed to open conversation store", err)
	}
	defer store.Close()
	logger.L.Info("conversation store ready", "path", cfg.Memory.DBPath)

	generator, err := ai.New(ctx, cfg.AI)
	if err != nil {
		logger.L.Warn("failed to initialize llm backend, falling back to offline replies", "error", err)
		generator = ai.Offline{}
	}

	transcriber := speech.NewTranscriber(speechmodel.TranscriptionConfig{
		APIKey:   cfg.Transcription.APIKey,
		BaseURL:  cfg.Transcription.BaseURL,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
	})
	if !cfg.Transcription.Enabled() {
		logger.L.Warn("语音识别凭证未配置，/voice/interact 将返回 422")
	}

	var renderer speech.Renderer
	if cfg.Speech.Enabled {
		renderer = speech.NewVolcengineTTSClient(&speechmodel.SpeechConfig{
			AppID:       cfg.Speech.AppID,
			AccessToken: cfg.Speech.AccessToken,
			TTSVoice:    cfg.Speech.TTSVoice,
			TTSSpeed:    cfg.Speech.TTSSpeed,
			TTSVolume:   cfg.Speech.TTSVolume,
			TTSLanguage: cfg.Speech.TTSLanguage,
			Timeout:     cfg.Speech.Timeout,
		})
		logger.L.Info("speech synthesis enabled", "voice", cfg.Speech.TTSVoice, "cache_size", cfg.Speech.CacheSize)
	} else {
		logger.L.Warn("语音合成凭证未配置，回复将只包含文本")
	}
	synthesizer := speech.NewSynthesizer(renderer, speech.NewAudioCache(cfg.Speech.CacheSize), cfg.Server.StaticDir)

	router := handler.NewRouter(handler.Deps{
		Sessions:       store,
		Voice:          voice.New(store, transcriber, generator, synthesizer),
		Scripts:        script.NewService(store, generator),
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	startServer(ctx, cfg.Server, router)
}

func fatal(msg string, err error) {
	logger.L.Error(msg, "error", err)
	os.Exit(1)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.L.Info("drama bot backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		logger.L.Error("server error", "error", err)
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
