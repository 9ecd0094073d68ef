package router

import (
	"strings"

	"language_exchange_service/internal/chat/app"
	"language_exchange_service/internal/chat/domain"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHandler chat REST surface
type ChatHandler struct {
	store  app.ChatStore
	query  app.ChatQuery
	export app.ExportUseCase
}

// NewChatHandler export may be nil when no job queue is configured
func NewChatHandler(store app.ChatStore, query app.ChatQuery, export app.ExportUseCase) *ChatHandler {
	return &ChatHandler{store: store, query: query, export: export}
}

// errorResponse map AppError to status + body
func errorResponse(c *fiber.Ctx, err error) error {
	status := errprocess.HTTPStatus(err)
	message := "internal error"
	if appErr, ok := errprocess.As(err); ok {
		message = appErr.Message
	}
	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("chat api error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  errprocess.CodeOf(err),
	})
}

func memberID(c *fiber.Ctx) (string, error) {
	id, ok := middlewares.MemberID(c)
	if !ok {
		return "", errprocess.Authentication("missing member")
	}
	return id, nil
}

// InitiateChat POST /chats
func (h *ChatHandler) InitiateChat(c *fiber.Ctx) error {
	type request struct {
		PartnerID string `json:"partner_id"`
	}
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	// 空值跟自己由 store 擋, 其餘先確認對方帳號存在
	if partnerID := strings.TrimSpace(req.PartnerID); partnerID != "" && partnerID != userID {
		if _, err := h.query.Partner(c.UserContext(), partnerID); err != nil {
			return errorResponse(c, err)
		}
	}

	session, err := h.store.GetOrCreateSession(c.UserContext(), userID, req.PartnerID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(session)
}

// ActiveChats GET /chats
func (h *ChatHandler) ActiveChats(c *fiber.Ctx) error {
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}
	chats, err := h.query.ActiveChats(c.UserContext(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"chats": chats})
}

// RecentMatches GET /chats/recent
func (h *ChatHandler) RecentMatches(c *fiber.Ctx) error {
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}
	history, err := h.query.MatchHistory(c.UserContext(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(history)
}

// Messages GET /chats/:id/messages?after=&limit=
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}
	chatID := c.Params("id")
	if _, err := h.store.Authorize(c.UserContext(), chatID, userID); err != nil {
		return errorResponse(c, err)
	}

	var query domain.MessageQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
	}
	messages, err := h.store.ListMessages(c.UserContext(), chatID, query)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// MarkRead POST /chats/:id/read
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}
	count, err := h.store.MarkRead(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok", "count": count})
}

// SetStatus PATCH /chats/:id/status
func (h *ChatHandler) SetStatus(c *fiber.Ctx) error {
	type request struct {
		Status domain.SessionStatus `json:"status"`
	}
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	session, err := h.store.SetStatus(c.UserContext(), c.Params("id"), userID, req.Status)
	if err != nil {
		return errorResponse(c, err)
	}
	logger.Log.Info("chat status changed", zap.String("chatID", session.ID), zap.String("status", string(session.Status)), zap.String("by", userID))
	return c.JSON(session)
}

// RequestExport POST /chats/:id/export
func (h *ChatHandler) RequestExport(c *fiber.Ctx) error {
	if h.export == nil {
		return errorResponse(c, errprocess.Unavailable("transcript export is disabled"))
	}
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}
	job, err := h.export.Request(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// ExportStatus GET /chats/:id/export/:job
func (h *ChatHandler) ExportStatus(c *fiber.Ctx) error {
	if h.export == nil {
		return errorResponse(c, errprocess.Unavailable("transcript export is disabled"))
	}
	userID, err := memberID(c)
	if err != nil {
		return errorResponse(c, err)
	}
	job, err := h.export.Status(c.UserContext(), c.Params("id"), c.Params("job"), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(job)
}
