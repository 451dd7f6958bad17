package voice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/drama-bot/backend/internal/apperr"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	voicesvc "github.com/zhouzirui/drama-bot/backend/internal/service/voice"
	"github.com/zhouzirui/drama-bot/backend/pkg/utils"
)

const maxUploadBytes = 32 << 20

// Orchestrator 抽象语音编排，便于测试与替换实现
type Orchestrator interface {
	Interact(ctx context.Context, sessionID, audioPath string) (*voicesvc.Result, error)
	TextToSpeech(ctx context.Context, sessionID, text string) (*voicesvc.SpeechResult, error)
}

// Handler 语音交互的HTTP处理器
type Handler struct {
	orchestrator Orchestrator
	tempDir      string
}

// New 创建语音处理器
func New(orchestrator Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator, tempDir: os.TempDir()}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/voice", func(vr chi.Router) {
		vr.Post("/interact", h.handleInteract)
		vr.Post("/tts", h.handleTTS)
	})
}

func (h *Handler) handleInteract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "session_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "file is required")
		return
	}
	defer file.Close()

	tempPath, err := h.saveUpload(file, header.Filename)
	if err != nil {
		logger.Session("voice", sessionID).Error("failed to save upload", "error", err)
		utils.RespondAppError(w, apperr.Internal("failed to save audio upload", err), sessionID)
		return
	}

	// 此后 tempPath 由编排器负责删除
	result, err := h.orchestrator.Interact(r.Context(), sessionID, tempPath)
	if err != nil {
		utils.RespondAppError(w, err, sessionID)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) saveUpload(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp3"
	}

	dst, err := os.CreateTemp(h.tempDir, "voice-*"+ext)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (h *Handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, apperr.KindInput, "invalid request body")
		return
	}

	result, err := h.orchestrator.TextToSpeech(r.Context(), req.SessionID, req.Text)
	if err != nil {
		utils.RespondAppError(w, err, req.SessionID)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
