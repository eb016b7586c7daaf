package session

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
	"github.com/zhouzirui/mock-interview/backend/pkg/utils"
)

// TranscriptReader 读取会话记录
type TranscriptReader interface {
	Transcript(ctx context.Context, sessionID string) (*conversation.Session, bool, error)
}

// Handler 会话查询的HTTP处理器
type Handler struct {
	reader TranscriptReader
	logger *zap.Logger
}

// New 创建会话处理器
func New(reader TranscriptReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, logger: logger}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}", h.handleGetSession)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, found, err := h.reader.Transcript(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("load transcript failed", zap.String("session", sessionID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if !found {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, sess)
}
