package script

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/drama-bot/backend/internal/apperr"
	scriptsvc "github.com/zhouzirui/drama-bot/backend/internal/service/script"
	"github.com/zhouzirui/drama-bot/backend/pkg/utils"
)

// Generator 抽象剧本生成
type Generator interface {
	Generate(ctx context.Context, sessionID string) (*scriptsvc.Result, error)
}

// Handler 剧本生成的HTTP处理器
type Handler struct {
	scripts Generator
}

func New(scripts Generator) *Handler {
	return &Handler{scripts: scripts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/script/generate", h.handleGenerate)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "invalid request body")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "session_id is required")
		return
	}

	result, err := h.scripts.Generate(r.Context(), req.SessionID)
	if err != nil {
		utils.RespondAppError(w, err, req.SessionID)
		return
	}
	if result.Empty {
		utils.RespondAppError(w, apperr.NotFound("No memory for session "+req.SessionID), req.SessionID)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
