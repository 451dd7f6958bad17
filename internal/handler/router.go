package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/drama-bot/backend/internal/handler/script"
	"github.com/zhouzirui/drama-bot/backend/internal/handler/session"
	"github.com/zhouzirui/drama-bot/backend/internal/handler/voice"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	middlewarePkg "github.com/zhouzirui/drama-bot/backend/internal/middleware"
	"github.com/zhouzirui/drama-bot/backend/pkg/utils"
)

// Deps 路由依赖的核心服务
type Deps struct {
	Sessions       session.Store
	Voice          voice.Orchestrator
	Scripts        script.Generator
	StaticDir      string
	AllowedOrigins []string
}

// NewRouter 将HTTP路由绑定到核心服务
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	voice.New(deps.Voice).RegisterRoutes(r)
	script.New(deps.Scripts).RegisterRoutes(r)
	session.New(deps.Sessions).RegisterRoutes(r)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/", handleRoot)

	if deps.StaticDir != "" {
		if err := os.MkdirAll(filepath.Join(deps.StaticDir, "audio"), 0o755); err != nil {
			logger.L.Warn("failed to create static dir", "dir", deps.StaticDir, "error", err)
		}
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	}

	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "🎭 Theatrical Drama Bot API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"voice_interact":       "/voice/interact",
			"text_to_speech":       "/voice/tts",
			"generate_script":      "/script/generate",
			"end_session":          "/session/end",
			"delete_session":       "/sessions/{session_id}",
			"session_conversation": "/sessions/{session_id}/conversation",
			"session_stats":        "/sessions/{session_id}/stats",
			"debug_conversation":   "/debug/conversation/{session_id}",
			"debug_memory":         "/debug/memory",
			"health":               "/health",
		},
	})
}
