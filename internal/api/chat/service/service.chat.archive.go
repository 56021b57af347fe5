package chatsvc

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"live_support/internal/ai"
	chatdto "live_support/internal/api/chat/dto"
	"live_support/internal/api/chat/models"
	"live_support/internal/logger"
)

// EmptySummaryPlaceholder dùng khi archive một conversation chưa có tin nhắn nào.
const EmptySummaryPlaceholder = "Cuộc hội thoại không có tin nhắn."

// summarizeInstruction là instruction gửi provider khi tóm tắt hội thoại.
const summarizeInstruction = "Bạn là trợ lý tóm tắt hội thoại chăm sóc khách hàng. " +
	"Tóm tắt ngắn gọn (tối đa 5 câu) nội dung chính, nhu cầu của khách và kết quả cuộc hội thoại."

// ArchiveService thực hiện archive + tóm tắt conversation.
type ArchiveService struct {
	Conversations *ConversationService
	Messages      *MessageService
	Contacts      *ContactService
	Generator     ai.TextGenerator
}

// NewArchiveService tạo ArchiveService với generator được inject.
func NewArchiveService(conversations *ConversationService, messages *MessageService, contacts *ContactService, generator ai.TextGenerator) *ArchiveService {
	return &ArchiveService{
		Conversations: conversations,
		Messages:      messages,
		Contacts:      contacts,
		Generator:     generator,
	}
}

// ArchiveAndSummarize đóng conversation: load toàn bộ lịch sử theo thời gian,
// nhờ provider tóm tắt (hoặc dùng placeholder nếu rỗng), chuyển status sang archived
// kèm summary và mốc archive, rồi chạm lastInteraction của contact.
func (s *ArchiveService) ArchiveAndSummarize(ctx context.Context, adminID, conversationID primitive.ObjectID) (*chatdto.ArchiveConversationResult, error) {
	conversation, err := s.Conversations.GetOwnedConversation(ctx, conversationID, adminID)
	if err != nil {
		return nil, err
	}

	history, err := s.Messages.ConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	summary := EmptySummaryPlaceholder
	if len(history) > 0 {
		generated, err := s.Generator.GenerateReply(ctx, summarizeInstruction, []ai.Turn{
			{Role: "user", Text: "Tóm tắt cuộc hội thoại sau:\n\n" + FormatHistory(history)},
		})
		if err != nil {
			// Tóm tắt là thao tác admin gọi trực tiếp: lỗi provider được trả về
			// cho caller thử lại, không archive nửa vời
			logger.GetErrorLogger().WithError(err).WithFields(logrus.Fields{
				"conversation_id": conversationID.Hex(),
			}).Error("📦 [ARCHIVE] Provider tóm tắt thất bại")
			return nil, err
		}
		if generated != "" {
			summary = generated
		}
	}

	_, err = s.Conversations.UpdateById(ctx, conversationID, bson.M{
		"status":     models.ConversationStatusArchived,
		"summary":    summary,
		"archivedAt": time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.Contacts.TouchLastInteraction(ctx, conversation.ContactID); err != nil {
		logger.GetAppLogger().WithError(err).WithFields(logrus.Fields{
			"contact_id": conversation.ContactID.Hex(),
		}).Warn("📦 [ARCHIVE] Không cập nhật được lastInteraction của contact")
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"conversation_id": conversationID.Hex(),
		"messages":        len(history),
	}).Info("📦 [ARCHIVE] Archive conversation hoàn tất")

	return &chatdto.ArchiveConversationResult{Summary: summary}, nil
}

// FormatHistory định dạng lịch sử thành các dòng gắn nhãn vai trò cho provider tóm tắt.
func FormatHistory(messages []models.ChatMessage) string {
	var sb strings.Builder
	for _, msg := range messages {
		var label string
		switch msg.Role {
		case models.RoleAssistant:
			label = "Trợ lý"
		case models.RoleAdmin:
			label = "Nhân viên"
		default:
			label = "Khách"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
