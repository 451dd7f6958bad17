package utils

import (
	"encoding/json"
	"net/http"

	"github.com/zhouzirui/drama-bot/backend/internal/apperr"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("failed to encode response", "error", err)
	}
}

// ErrorBody 所有接口统一的错误响应体
type ErrorBody struct {
	Kind      apperr.Kind `json:"kind"`
	Error     string      `json:"error"`
	SessionID string      `json:"session_id,omitempty"`
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, kind apperr.Kind, message string) {
	RespondJSON(w, status, ErrorBody{Kind: kind, Error: message})
}

// RespondAppError 按错误类型映射状态码，只返回对外可见的错误信息
func RespondAppError(w http.ResponseWriter, err error, sessionID string) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		logger.L.Error("request failed", "session_id", sessionID, "kind", kind, "error", err)
	}
	RespondJSON(w, status, ErrorBody{Kind: kind, Error: apperr.MessageOf(err), SessionID: sessionID})
}
