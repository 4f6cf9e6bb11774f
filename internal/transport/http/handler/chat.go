package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"infosec-dashboard/internal/app"
	"infosec-dashboard/internal/chat"
	"infosec-dashboard/internal/model"
	"infosec-dashboard/internal/transport/http/middleware"
	"infosec-dashboard/internal/transport/http/response"
)

// TranscriptReader reads the persisted transcript audit trail.
type TranscriptReader interface {
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
}

type ChatHandler struct {
	dashboard *app.Dashboard
	history   TranscriptReader
	logger    *zap.Logger
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type messageView struct {
	model.Message
	Prose      string           `json:"prose"`
	References []chat.Reference `json:"references,omitempty"`
}

// NewChatHandler builds the chat routes. history may be nil when no
// transcript store is configured.
func NewChatHandler(dashboard *app.Dashboard, history TranscriptReader, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{dashboard: dashboard, history: history, logger: logger}
}

func (h *ChatHandler) Transcript(c *gin.Context) {
	session := h.dashboard.Chat()
	response.OK(c, gin.H{
		"session_id": session.ID(),
		"busy":       session.Busy(),
		"messages":   toMessageViews(session, session.Transcript()),
	})
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session := h.dashboard.Chat()
	turn, err := session.Send(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err, "send message failed")
		return
	}
	response.OK(c, gin.H{
		"question": toMessageViews(session, []model.Message{turn.Question})[0],
		"reply":    toMessageViews(session, []model.Message{turn.Reply})[0],
		"fallback": turn.Fallback,
	})
}

// History returns the persisted transcript of session_id, defaulting to the
// current chat.
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "sign in required")
		return
	}
	if h.history == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "transcript history is not configured")
		return
	}

	session := h.dashboard.Chat()
	sessionID := c.DefaultQuery("session_id", session.ID())
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	msgs, err := h.history.ListBySessionID(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("read transcript history failed",
			zap.String("user_id", userID), zap.String("session_id", sessionID), zap.Error(err))
		writeError(c, err, "read transcript history failed")
		return
	}
	h.logger.Debug("transcript history read",
		zap.String("user_id", userID), zap.String("session_id", sessionID), zap.Int("messages", len(msgs)))
	response.OK(c, gin.H{
		"session_id": sessionID,
		"messages":   toMessageViews(session, msgs),
	})
}

func getUserIDFromContext(c *gin.Context) (string, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := userIDAny.(string)
	return userID, ok && userID != ""
}

func toMessageViews(session *chat.Session, msgs []model.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		prose, refs := chat.ParseReferences(m.Text, session.StoragePrefix())
		out = append(out, messageView{Message: m, Prose: prose, References: refs})
	}
	return out
}
