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

// MergeHandler xử lý API ghép visitor ẩn danh vào contact và lưu trữ hội thoại.
type MergeHandler struct {
	basehdl.BaseHandler
	Merge         *chatsvc.MergeService
	Contacts      *chatsvc.ContactService
	Conversations *chatsvc.ConversationService
	Messages      *chatsvc.MessageService
	Archive       *chatsvc.ArchiveService
	Bus           *events.Bus
}

// NewMergeHandler tạo MergeHandler mới.
func NewMergeHandler(merge *chatsvc.MergeService, contacts *chatsvc.ContactService, conversations *chatsvc.ConversationService, messages *chatsvc.MessageService, archive *chatsvc.ArchiveService, bus *events.Bus) *MergeHandler {
	return &MergeHandler{
		Merge:         merge,
		Contacts:      contacts,
		Conversations: conversations,
		Messages:      messages,
		Archive:       archive,
		Bus:           bus,
	}
}

// HandleIdentifyLead xử lý POST /chat/sessions/:id/identify — tạo contact mới
// từ phiên ẩn danh và chuyển toàn bộ tin nhắn sang hội thoại của contact.
func (h *MergeHandler) HandleIdentifyLead(c fiber.Ctx) error {
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

		var input chatdto.IdentifyLeadContactData
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.Merge.IdentifyLead(c.Context(), adminID, sessionID, &input)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.Bus.Emit(events.Event{
			Type:      events.ContactMerged,
			SessionID: sessionID.Hex(),
			AdminID:   adminID.Hex(),
			Data: map[string]interface{}{
				"contactId":      result.ContactID,
				"conversationId": result.ConversationID,
			},
		})

		h.HandleResponse(c, result, nil)
		return nil
	})
}

// HandleConnectSession xử lý POST /chat/sessions/:id/connect — gắn phiên ẩn danh
// vào một contact đã tồn tại.
func (h *MergeHandler) HandleConnectSession(c fiber.Ctx) error {
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

		var input chatdto.ConnectSessionInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		contactID, err := h.ParseHexID(input.ContactID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.Merge.ConnectSessionToContact(c.Context(), adminID, sessionID, contactID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.Bus.Emit(events.Event{
			Type:      events.ContactMerged,
			SessionID: sessionID.Hex(),
			AdminID:   adminID.Hex(),
			Data: map[string]interface{}{
				"contactId":      input.ContactID,
				"conversationId": result.ConversationID,
			},
		})

		h.HandleResponse(c, result, nil)
		return nil
	})
}

// HandleSearchContacts xử lý GET /chat/contacts?searchTerm= — tìm contact theo
// tên, email hoặc whatsapp trong phạm vi của admin.
func (h *MergeHandler) HandleSearchContacts(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		contacts, err := h.Contacts.SearchContacts(c.Context(), adminID, c.Query("searchTerm"))
		h.HandleResponse(c, contacts, err)
		return nil
	})
}

// HandleGetContact xử lý GET /chat/contacts/:id — chi tiết một contact.
func (h *MergeHandler) HandleGetContact(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		contactID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		contact, err := h.Contacts.GetOwnedContact(c.Context(), contactID, adminID)
		h.HandleResponse(c, contact, err)
		return nil
	})
}

// HandleContactConversations xử lý GET /chat/contacts/:id/conversations — các
// hội thoại (active và archived) của một contact.
func (h *MergeHandler) HandleContactConversations(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		contactID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if _, err := h.Contacts.GetOwnedContact(c.Context(), contactID, adminID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		opts := options.Find().SetSort(bson.D{{Key: "lastMessageTimestamp", Value: -1}})
		conversations, err := h.Conversations.Find(c.Context(), bson.M{"contactId": contactID, "adminId": adminID}, opts)
		h.HandleResponse(c, conversations, err)
		return nil
	})
}

// HandleConversationMessages xử lý GET /chat/conversations/:id/messages.
func (h *MergeHandler) HandleConversationMessages(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		conversationID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if _, err := h.Conversations.GetOwnedConversation(c.Context(), conversationID, adminID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		messages, err := h.Messages.ConversationMessages(c.Context(), conversationID)
		h.HandleResponse(c, messages, err)
		return nil
	})
}

// HandleConversationReply xử lý POST /chat/conversations/:id/messages — admin
// nhắn tiếp với contact trong hội thoại đã định danh.
func (h *MergeHandler) HandleConversationReply(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		conversationID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input chatdto.AdminReplyInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if _, err := h.Conversations.GetOwnedConversation(c.Context(), conversationID, adminID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		msg, err := h.Messages.AppendToConversation(c.Context(), conversationID, adminID, models.RoleAdmin, input.Content, adminID.Hex(), 0)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := h.Conversations.TouchLastMessage(c.Context(), conversationID, input.Content, msg.Timestamp); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, msg, nil)
		return nil
	})
}

// HandleArchiveConversation xử lý POST /chat/conversations/:id/archive — đóng
// hội thoại và sinh tóm tắt bằng AI.
func (h *MergeHandler) HandleArchiveConversation(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		adminID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		conversationID, err := h.ParseObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.Archive.ArchiveAndSummarize(c.Context(), adminID, conversationID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.Bus.Emit(events.Event{
			Type:      events.SessionArchived,
			SessionID: conversationID.Hex(),
			AdminID:   adminID.Hex(),
		})

		h.HandleResponse(c, result, nil)
		return nil
	})
}
