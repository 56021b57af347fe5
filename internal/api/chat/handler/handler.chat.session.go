package chathdl

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basehdl "live_support/internal/api/base/handler"
	chatdto "live_support/internal/api/chat/dto"
	"live_support/internal/api/chat/models"
	chatsvc "live_support/internal/api/chat/service"
	"live_support/internal/events"
)

// SessionHandler xử lý API quản lý phiên chat trên dashboard admin.
type SessionHandler struct {
	basehdl.BaseHandler
	Sessions *chatsvc.SessionService
	Messages *chatsvc.MessageService
	Cleanup  *chatsvc.CleanupService
	Bus      *events.Bus
}

// NewSessionHandler tạo SessionHandler mới.
func NewSessionHandler(sessions *chatsvc.SessionService, messages *chatsvc.MessageService, cleanup *chatsvc.CleanupService, bus *events.Bus) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Messages: messages, Cleanup: cleanup, Bus: bus}
}

// HandleListSessions xử lý GET /chat/sessions — danh sách phiên của admin,
// sắp xếp theo tin nhắn cuối mới nhất, có phân trang.
func (h *SessionHandler) HandleListSessions(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		page, limit := h.ParsePagination(c)
		opts := options.Find().SetSort(bson.D{{Key: "lastMessageTimestamp", Value: -1}})
		result, err := h.Sessions.FindWithPagination(c.Context(), bson.M{"adminId": adminID}, page, limit, opts)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleSessionMessages xử lý GET /chat/sessions/:id/messages — tin nhắn của một phiên.
func (h *SessionHandler) HandleSessionMessages(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		sessionID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if _, err := h.Sessions.GetOwnedSession(c.Context(), sessionID, adminID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		page, limit := h.ParsePagination(c)
		result, err := h.Messages.SessionMessagesPage(c.Context(), sessionID, page, limit)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleToggleAIChat xử lý PUT /chat/sessions/:id/ai — bật/tắt AI cho phiên.
func (h *SessionHandler) HandleToggleAIChat(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		sessionID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input chatdto.ToggleAIChatInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.Sessions.ToggleAIChat(c.Context(), sessionID, adminID, *input.Enabled)
		h.HandleResponse(c, session, err)
		return nil
	})
}

// HandleAdminReply xử lý POST /chat/sessions/:id/messages — admin trả lời visitor.
// Tin nhắn role=admin không kích hoạt AI hay thông báo đẩy.
func (h *SessionHandler) HandleAdminReply(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		sessionID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input chatdto.AdminReplyInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.Sessions.GetOwnedSession(c.Context(), sessionID, adminID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		msg, err := h.Messages.AppendToSession(c.Context(), sessionID, session.AdminID, models.RoleAdmin, input.Content, adminID.Hex(), 0)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := h.Sessions.TouchLastMessage(c.Context(), sessionID, input.Content, msg.Timestamp); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.Bus.Emit(events.Event{
			Type:      events.MessageCreated,
			SessionID: sessionID.Hex(),
			AdminID:   session.AdminID.Hex(),
			Data: map[string]interface{}{
				"role":    models.RoleAdmin,
				"content": input.Content,
			},
		})

		h.HandleResponse(c, msg, nil)
		return nil
	})
}

// HandleMarkRead xử lý PUT /chat/sessions/:id/read — đánh dấu tin nhắn đã đọc.
func (h *SessionHandler) HandleMarkRead(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		sessionID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input chatdto.MarkReadInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if _, err := h.Sessions.GetOwnedSession(c.Context(), sessionID, adminID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.Messages.MarkSessionRead(c.Context(), sessionID, input.Role)
		h.HandleResponse(c, fiber.Map{"updatedCount": updated}, err)
		return nil
	})
}

// HandleRunCleanup xử lý POST /chat/sessions/cleanup — chạy retention sweep thủ công.
// Sweep bình thường chạy theo lịch; endpoint này cho phép admin kích hoạt ngay.
func (h *SessionHandler) HandleRunCleanup(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		if _, err := h.CurrentUserID(c); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.Cleanup.CleanupOldChatSessions(c.Context())
		h.HandleResponse(c, result, err)
		return nil
	})
}
