package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/drama-bot/backend/internal/apperr"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	"github.com/zhouzirui/drama-bot/backend/internal/model/chat"
	"github.com/zhouzirui/drama-bot/backend/pkg/utils"
)

// Store 会话接口依赖的存储能力
type Store interface {
	Read(ctx context.Context, sessionID string) ([]chat.Message, error)
	Stats(ctx context.Context, sessionID string) (chat.Stats, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
	Overview(ctx context.Context) (chat.Overview, error)
}

// Handler 会话生命周期的HTTP处理器
type Handler struct {
	store Store
}

func New(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/end", h.handleEnd)
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Delete("/", h.handleDelete)
		sr.Get("/conversation", h.handleConversation)
		sr.Get("/stats", h.handleStats)
	})
	r.Get("/debug/conversation/{sessionID}", h.handleDebugConversation)
	r.Get("/debug/memory", h.handleDebugMemory)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = strings.TrimSpace(r.Header.Get("X-Session-ID"))
	}
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "session_id is required")
		return
	}
	h.deleteSession(w, r, sessionID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteSession(w, r, chi.URLParam(r, "sessionID"))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	deleted, err := h.store.Delete(r.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(w, apperr.Persistence("failed to end session", err), sessionID)
		return
	}
	if !deleted {
		utils.RespondAppError(w, apperr.NotFound("Session "+sessionID+" not found."), sessionID)
		return
	}

	logger.Session("session", sessionID).Info("session ended and memory cleared")
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message":    "Session " + sessionID + " ended and memory cleared.",
		"session_id": sessionID,
		"deleted":    true,
	})
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.store.Read(r.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(w, apperr.Persistence("failed to read conversation", err), sessionID)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	stats, err := h.store.Stats(r.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(w, apperr.Persistence("failed to read session stats", err), sessionID)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleDebugConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.store.Read(r.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(w, apperr.Persistence("failed to read conversation", err), sessionID)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session_id":          sessionID,
		"conversation_length": len(messages),
		"conversation":        messages,
	})
}

func (h *Handler) handleDebugMemory(w http.ResponseWriter, r *http.Request) {
	overview, err := h.store.Overview(r.Context())
	if err != nil {
		utils.RespondAppError(w, apperr.Persistence("failed to read memory stats", err), "")
		return
	}
	utils.RespondJSON(w, http.StatusOK, overview)
}
