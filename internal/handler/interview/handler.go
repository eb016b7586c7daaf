package interview

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	interviewsvc "github.com/zhouzirui/mock-interview/backend/internal/service/interview"
	"github.com/zhouzirui/mock-interview/backend/pkg/utils"
)

const maxUploadBytes = 32 << 20

// Orchestrator 抽象面试请求处理，便于测试替换
type Orchestrator interface {
	Handle(ctx context.Context, req interviewsvc.Request) (*interviewsvc.Response, error)
}

// Handler 面试接口的HTTP处理器
type Handler struct {
	orchestrator Orchestrator
	logger       *zap.Logger
}

// New 创建面试处理器
func New(orchestrator Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes 注册面试相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/interview", h.handleInterview)
}

// handleInterview 解析表单并交给编排器处理
func (h *Handler) handleInterview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			h.logger.Info("invalid interview form", zap.Error(err))
			utils.RespondError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		// greeting 请求允许使用 urlencoded 表单
		if err := r.ParseForm(); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := interviewsvc.Request{
		Action:    r.FormValue("action"),
		SessionID: r.FormValue("sessionId"),
	}

	file, header, err := r.FormFile("audio")
	switch {
	case err == nil:
		defer file.Close()
		audio, err := io.ReadAll(file)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		req.Audio = audio
		req.Filename = header.Filename
		req.MimeType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// 缺少音频由编排器判定
	default:
		utils.RespondError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	resp, err := h.orchestrator.Handle(r.Context(), req)
	if err != nil {
		utils.RespondAppError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}
