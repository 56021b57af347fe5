package chatsvc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatdto "live_support/internal/api/chat/dto"
	"live_support/internal/api/chat/models"
	"live_support/internal/logger"
)

// CleanupService xóa các phiên hết hạn retention cùng toàn bộ tin nhắn của chúng.
type CleanupService struct {
	Sessions *SessionService
	Messages *MessageService

	RetentionWindow time.Duration // Phiên im lặng quá cửa sổ này bị xóa
	PageSize        int64         // Kích thước trang khi xóa tin nhắn
	MaxConcurrent   int           // Số phiên xóa đồng thời tối đa
}

// NewCleanupService tạo CleanupService.
func NewCleanupService(sessions *SessionService, messages *MessageService, retentionDays int, pageSize int64) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CleanupService{
		Sessions:        sessions,
		Messages:        messages,
		RetentionWindow: time.Duration(retentionDays) * 24 * time.Hour,
		PageSize:        pageSize,
		MaxConcurrent:   8,
	}
}

// RetentionCutoff tính mốc lastMessageTimestamp (Unix ms) tại thời điểm now:
// phiên có lastMessageTimestamp nhỏ hơn (chặt) mốc này là hết hạn, phiên nằm
// đúng mốc vẫn được giữ.
func (s *CleanupService) RetentionCutoff(now time.Time) int64 {
	return now.Add(-s.RetentionWindow).UnixMilli()
}

// CleanupOldChatSessions xóa mọi phiên có lastMessageTimestamp cũ hơn cửa sổ retention.
// Các phiên được xóa đồng thời (giới hạn MaxConcurrent); trong một phiên, tin nhắn
// bị xóa theo từng trang vì mỗi trang query lại collection đang co dần.
// Trả về số phiên đã xóa.
func (s *CleanupService) CleanupOldChatSessions(ctx context.Context) (*chatdto.CleanupResult, error) {
	log := logger.GetAppLogger()
	cutoff := s.RetentionCutoff(time.Now())

	expired, err := s.Sessions.Find(ctx, bson.M{
		"lastMessageTimestamp": bson.M{"$lt": cutoff},
	}, nil)
	if err != nil {
		return nil, err
	}

	if len(expired) == 0 {
		return &chatdto.CleanupResult{DeletedCount: 0}, nil
	}

	log.WithFields(logrus.Fields{
		"expired": len(expired),
		"cutoff":  cutoff,
	}).Info("🧹 [CLEANUP] Bắt đầu retention sweep")

	var deleted int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.MaxConcurrent)

	for i := range expired {
		session := expired[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.deleteSessionCascade(ctx, session); err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"session_id": session.ID.Hex(),
				}).Error("🧹 [CLEANUP] Lỗi khi xóa phiên hết hạn")
				return
			}
			atomic.AddInt64(&deleted, 1)
		}()
	}

	wg.Wait()

	log.WithFields(logrus.Fields{
		"deleted": deleted,
	}).Info("🧹 [CLEANUP] Retention sweep hoàn tất")

	return &chatdto.CleanupResult{DeletedCount: atomic.LoadInt64(&deleted)}, nil
}

// deleteSessionCascade xóa tin nhắn của phiên theo từng trang rồi xóa phiên.
func (s *CleanupService) deleteSessionCascade(ctx context.Context, session models.ChatSession) error {
	for {
		ids, err := s.messagePage(ctx, session.ID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		if _, err := s.Messages.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
			return err
		}
	}

	return s.Sessions.DeleteById(ctx, session.ID)
}

// messagePage lấy một trang _id tin nhắn của phiên.
func (s *CleanupService) messagePage(ctx context.Context, sessionID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetLimit(s.PageSize).
		SetProjection(bson.M{"_id": 1})
	page, err := s.Messages.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(page))
	for _, msg := range page {
		ids = append(ids, msg.ID)
	}
	return ids, nil
}
