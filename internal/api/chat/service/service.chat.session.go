// Package chatsvc - các service domain chat: phiên, tin nhắn, contact,
// conversation, merge, orchestrator AI và retention sweeper.
package chatsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "live_support/internal/api/base/service"
	"live_support/internal/api/chat/models"
	"live_support/internal/common"
	"live_support/internal/global"
	"live_support/internal/logger"
)

// SessionService xử lý logic phiên chat ẩn danh.
type SessionService struct {
	*basesvc.BaseServiceMongoImpl[models.ChatSession]
}

// NewSessionService tạo SessionService mới.
func NewSessionService() (*SessionService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ChatSessions)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.ChatSessions, common.ErrNotFound)
	}
	return &SessionService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.ChatSession](coll),
	}, nil
}

// OpenSession tìm hoặc tạo phiên cho cặp (adminId, visitorId).
// VisitorID rỗng → sinh UUID mới. Trả về phiên và cờ created cho biết phiên vừa được tạo.
func (s *SessionService) OpenSession(ctx context.Context, adminID primitive.ObjectID, visitorID, visitorName string) (models.ChatSession, bool, error) {
	var zero models.ChatSession

	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	// Thử tìm phiên đang có trước
	existing, err := s.FindOne(ctx, bson.M{"adminId": adminID, "visitorId": visitorID}, nil)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return zero, false, err
	}

	session, err := s.InsertOne(ctx, models.ChatSession{
		AdminID:              adminID,
		VisitorID:            visitorID,
		Status:               models.SessionStatusActive,
		AIEnabled:            true,
		VisitorName:          visitorName,
		LastMessageTimestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		// Hai request mở phiên đồng thời: unique index (adminId, visitorId) chặn bản thứ hai
		if errors.Is(err, common.ErrMongoDuplicate) {
			existing, findErr := s.FindOne(ctx, bson.M{"adminId": adminID, "visitorId": visitorID}, nil)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return zero, false, err
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"session_id": session.ID.Hex(),
		"admin_id":   adminID.Hex(),
		"visitor_id": visitorID,
	}).Info("💬 [SESSION] Tạo phiên chat mới")

	return session, true, nil
}

// GetOwnedSession lấy phiên và kiểm tra quyền sở hữu của admin gọi.
func (s *SessionService) GetOwnedSession(ctx context.Context, sessionID, adminID primitive.ObjectID) (models.ChatSession, error) {
	session, err := s.FindOneById(ctx, sessionID)
	if err != nil {
		return session, err
	}
	if session.AdminID != adminID {
		return models.ChatSession{}, common.ErrNotOwner
	}
	return session, nil
}

// ToggleAIChat bật/tắt AI cho phiên, kiểm tra quyền sở hữu trước.
func (s *SessionService) ToggleAIChat(ctx context.Context, sessionID, adminID primitive.ObjectID, enabled bool) (models.ChatSession, error) {
	if _, err := s.GetOwnedSession(ctx, sessionID, adminID); err != nil {
		return models.ChatSession{}, err
	}
	return s.UpdateById(ctx, sessionID, bson.M{"aiEnabled": enabled})
}

// TouchLastMessage cập nhật preview và mốc thời gian tin nhắn cuối.
func (s *SessionService) TouchLastMessage(ctx context.Context, sessionID primitive.ObjectID, content string, ts int64) error {
	_, err := s.UpdateById(ctx, sessionID, bson.M{
		"lastMessage":          content,
		"lastMessageTimestamp": ts,
	})
	return err
}

// SetProbableContact gắn gợi ý pre-identification (không ràng buộc) vào phiên.
func (s *SessionService) SetProbableContact(ctx context.Context, sessionID, contactID primitive.ObjectID, label string) error {
	_, err := s.UpdateById(ctx, sessionID, bson.M{
		"probableContactId": contactID,
		"visitorName":       label,
	})
	return err
}

// AcquireAILease giành lease sinh câu trả lời AI trên phiên trong một thao tác atomic.
// Giành được khi: phiên tồn tại, aiEnabled = true, và lease trống hoặc đã quá TTL.
// Trả về (session, true) nếu giành được; (zero, false) nếu lease đang bị giữ hoặc AI tắt —
// cả hai là kết quả bình thường, không phải lỗi.
func (s *SessionService) AcquireAILease(ctx context.Context, sessionID primitive.ObjectID, holderID string, ttl time.Duration) (models.ChatSession, bool, error) {
	var zero models.ChatSession

	// Fast-path: phiên đang có generation khác giữ lease còn hiệu lực thì thua
	// ngay bằng một lần đọc, khỏi đụng write vào document. FindOneAndUpdate bên
	// dưới vẫn là trọng tài cuối cùng khi hai holder cùng qua được bước này.
	if current, err := s.FindOneById(ctx, sessionID); err == nil && current.AILease.Held(time.Now(), ttl) {
		return zero, false, nil
	}

	now := time.Now().UnixMilli()
	staleBefore := now - ttl.Milliseconds()

	filter := bson.M{
		"_id":       sessionID,
		"aiEnabled": true,
		"$or": []bson.M{
			{"aiLease.holderId": bson.M{"$exists": false}},
			{"aiLease.holderId": ""},
			{"aiLease.acquiredAt": bson.M{"$lt": staleBefore}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"aiLease": models.AILease{HolderID: holderID, AcquiredAt: now},
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	session, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Lease đang bị giữ, AI tắt, hoặc phiên không tồn tại: no-op im lặng
			return zero, false, nil
		}
		return zero, false, err
	}

	return session, true, nil
}

// ReleaseAILease trả lease nếu vẫn thuộc về holder. Release lease-aware:
// nếu lease đã bị holder khác giành lại (do quá TTL), thao tác không đụng vào lease mới.
func (s *SessionService) ReleaseAILease(ctx context.Context, sessionID primitive.ObjectID, holderID string) {
	_, err := s.UpdateOne(ctx, bson.M{
		"_id":              sessionID,
		"aiLease.holderId": holderID,
	}, &basesvc.UpdateData{
		Unset: map[string]interface{}{"aiLease": ""},
	}, nil)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		logger.GetAppLogger().WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID.Hex(),
			"holder_id":  holderID,
		}).Error("💬 [SESSION] Lỗi khi trả AI lease")
	}
}
