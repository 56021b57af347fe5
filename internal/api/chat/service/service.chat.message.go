package chatsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "live_support/internal/api/base/models"
	basesvc "live_support/internal/api/base/service"
	"live_support/internal/api/chat/models"
	"live_support/internal/common"
	"live_support/internal/global"
)

// MessageService xử lý logic tin nhắn trong phiên và conversation.
type MessageService struct {
	*basesvc.BaseServiceMongoImpl[models.ChatMessage]
}

// NewMessageService tạo MessageService mới.
func NewMessageService() (*MessageService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ChatMessages)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.ChatMessages, common.ErrNotFound)
	}
	return &MessageService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.ChatMessage](coll),
	}, nil
}

// AppendToSession thêm tin nhắn vào phiên. Timestamp 0 → dùng thời điểm hiện tại.
func (s *MessageService) AppendToSession(ctx context.Context, sessionID, adminID primitive.ObjectID, role, content, senderID string, ts int64) (models.ChatMessage, error) {
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return s.InsertOne(ctx, models.ChatMessage{
		SessionID: sessionID,
		AdminID:   adminID,
		Role:      role,
		Content:   content,
		SenderID:  senderID,
		Timestamp: ts,
	})
}

// AppendToConversation thêm tin nhắn vào conversation.
func (s *MessageService) AppendToConversation(ctx context.Context, conversationID, adminID primitive.ObjectID, role, content, senderID string, ts int64) (models.ChatMessage, error) {
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return s.InsertOne(ctx, models.ChatMessage{
		ConversationID: conversationID,
		AdminID:        adminID,
		Role:           role,
		Content:        content,
		SenderID:       senderID,
		Timestamp:      ts,
	})
}

// SessionMessages trả về toàn bộ tin nhắn của phiên theo thứ tự thời gian tăng dần.
func (s *MessageService) SessionMessages(ctx context.Context, sessionID primitive.ObjectID) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return s.Find(ctx, bson.M{"sessionId": sessionID}, opts)
}

// SessionMessagesPage trả về tin nhắn của phiên có phân trang (mới nhất trước).
func (s *MessageService) SessionMessagesPage(ctx context.Context, sessionID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[models.ChatMessage], error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	return s.FindWithPagination(ctx, bson.M{"sessionId": sessionID}, page, limit, opts)
}

// ConversationMessages trả về toàn bộ tin nhắn của conversation theo thứ tự thời gian tăng dần.
func (s *MessageService) ConversationMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return s.Find(ctx, bson.M{"conversationId": conversationID}, opts)
}

// RecentSessionTurns lấy tối đa limit tin nhắn gần nhất của phiên, trả về theo
// thứ tự cũ → mới (đúng thứ tự đưa vào context window của provider).
func (s *MessageService) RecentSessionTurns(ctx context.Context, sessionID primitive.ObjectID, limit int64) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	recent, err := s.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}

	// Đảo lại thành cũ → mới
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// SessionIsEmpty kiểm tra phiên chưa có tin nhắn nào (guard cho welcome task).
func (s *MessageService) SessionIsEmpty(ctx context.Context, sessionID primitive.ObjectID) (bool, error) {
	exists, err := s.DocumentExists(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// MarkSessionRead đánh dấu đã đọc các tin nhắn trong phiên.
// role rỗng → đánh dấu tất cả; ngược lại chỉ tin nhắn của role đó.
func (s *MessageService) MarkSessionRead(ctx context.Context, sessionID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"sessionId": sessionID, "read": false}
	if role != "" {
		filter["role"] = role
	}
	return s.UpdateMany(ctx, filter, bson.M{"read": true}, nil)
}
