// Package chathdl - Handler các endpoint chat: widget visitor và dashboard admin.
package chathdl

import (
	"github.com/gofiber/fiber/v3"

	basehdl "live_support/internal/api/base/handler"
	chatdto "live_support/internal/api/chat/dto"
	"live_support/internal/api/chat/models"
	chatsvc "live_support/internal/api/chat/service"
	"live_support/internal/events"
)

// VisitorHandler xử lý API công khai của widget chat (không cần đăng nhập).
type VisitorHandler struct {
	basehdl.BaseHandler
	Sessions *chatsvc.SessionService
	Messages *chatsvc.MessageService
	Bus      *events.Bus
}

// NewVisitorHandler tạo VisitorHandler mới.
func NewVisitorHandler(sessions *chatsvc.SessionService, messages *chatsvc.MessageService, bus *events.Bus) *VisitorHandler {
	return &VisitorHandler{Sessions: sessions, Messages: messages, Bus: bus}
}

// HandleOpenSession xử lý POST /visitor/:adminId/sessions — mở (hoặc tìm lại) phiên chat.
// Phiên mới phát sự kiện session.created kích hoạt welcome + pre-identification.
func (h *VisitorHandler) HandleOpenSession(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.ParseObjectID(c, "adminId")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input chatdto.VisitorSessionInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, created, err := h.Sessions.OpenSession(c.Context(), adminID, input.VisitorID, input.VisitorName)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if created {
			h.Bus.Emit(events.Event{
				Type:      events.SessionCreated,
				SessionID: session.ID.Hex(),
				AdminID:   session.AdminID.Hex(),
			})
		}

		h.HandleResponse(c, chatdto.VisitorSessionResult{
			SessionID: session.ID.Hex(),
			VisitorID: session.VisitorID,
			Session:   session,
		}, nil)
		return nil
	})
}

// HandleSendMessage xử lý POST /visitor/sessions/:id/messages — visitor gửi tin nhắn.
// Sự kiện message.created kích hoạt orchestrator AI và notification dispatcher
// đồng thời, độc lập với nhau; hai bên không chặn response cho visitor.
func (h *VisitorHandler) HandleSendMessage(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		sessionID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input chatdto.VisitorMessageInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.Sessions.FindOneById(c.Context(), sessionID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		msg, err := h.Messages.AppendToSession(c.Context(), sessionID, session.AdminID, models.RoleUser, input.Content, session.VisitorID, 0)
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
				"role":        models.RoleUser,
				"content":     input.Content,
				"visitorName": session.VisitorName,
			},
		})

		h.HandleResponse(c, msg, nil)
		return nil
	})
}

// HandleListMessages xử lý GET /visitor/sessions/:id/messages — lịch sử tin nhắn của phiên.
func (h *VisitorHandler) HandleListMessages(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		sessionID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		messages, err := h.Messages.SessionMessages(c.Context(), sessionID)
		h.HandleResponse(c, messages, err)
		return nil
	})
}
