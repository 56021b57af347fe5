package chatsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "live_support/internal/api/base/service"
	"live_support/internal/api/chat/models"
	"live_support/internal/common"
	"live_support/internal/global"
)

// ConversationService xử lý logic conversation bền vững.
type ConversationService struct {
	*basesvc.BaseServiceMongoImpl[models.ChatConversation]
}

// NewConversationService tạo ConversationService mới.
func NewConversationService() (*ConversationService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Conversations)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.Conversations, common.ErrNotFound)
	}
	return &ConversationService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.ChatConversation](coll),
	}, nil
}

// FindActiveByContact tìm conversation active duy nhất của contact.
// Ràng buộc "một active mỗi contact" được giữ bằng read-then-write ở merge service;
// hai merge đồng thời vào cùng contact vẫn có thể tạo hai active (race đã biết, chưa xử lý).
func (s *ConversationService) FindActiveByContact(ctx context.Context, contactID primitive.ObjectID) (models.ChatConversation, error) {
	return s.FindOne(ctx, bson.M{
		"contactId": contactID,
		"status":    models.ConversationStatusActive,
	}, nil)
}

// GetOwnedConversation lấy conversation và kiểm tra quyền sở hữu của admin gọi.
func (s *ConversationService) GetOwnedConversation(ctx context.Context, conversationID, adminID primitive.ObjectID) (models.ChatConversation, error) {
	conv, err := s.FindOneById(ctx, conversationID)
	if err != nil {
		return conv, err
	}
	if conv.AdminID != adminID {
		return models.ChatConversation{}, common.ErrNotOwner
	}
	return conv, nil
}

// TouchLastMessage cập nhật preview và mốc thời gian tin nhắn cuối.
func (s *ConversationService) TouchLastMessage(ctx context.Context, conversationID primitive.ObjectID, content string, ts int64) error {
	_, err := s.UpdateById(ctx, conversationID, bson.M{
		"lastMessage":          content,
		"lastMessageTimestamp": ts,
	})
	return err
}
