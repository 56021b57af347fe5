// Package worker chứa các background worker chạy định kỳ:
// retention sweeper và merge-resume.
package worker

import (
	"context"
	"time"

	chatsvc "live_support/internal/api/chat/service"
	"live_support/internal/logger"
)

// SessionCleanupWorker chạy retention sweep định kỳ: xóa các phiên chat
// im lặng quá cửa sổ retention cùng toàn bộ tin nhắn của chúng.
type SessionCleanupWorker struct {
	cleanupService *chatsvc.CleanupService
	interval       time.Duration // Khoảng thời gian giữa các lần chạy
}

// NewSessionCleanupWorker tạo mới SessionCleanupWorker
// Tham số:
//   - cleanupService: Service thực hiện sweep
//   - interval: Khoảng thời gian giữa các lần chạy (mặc định: 24 giờ)
func NewSessionCleanupWorker(cleanupService *chatsvc.CleanupService, interval time.Duration) *SessionCleanupWorker {
	if interval < time.Hour {
		interval = 24 * time.Hour
	}
	return &SessionCleanupWorker{
		cleanupService: cleanupService,
		interval:       interval,
	}
}

// Start bắt đầu background worker retention sweep.
// Worker chạy định kỳ theo interval; panic trong một lần chạy được recover
// và không làm dừng các lần sau.
func (w *SessionCleanupWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🧹 [SESSION_CLEANUP] Starting Session Cleanup Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🧹 [SESSION_CLEANUP] Session Cleanup Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🧹 [SESSION_CLEANUP] Panic trong retention sweep, đã recover")
					}
				}()

				result, err := w.cleanupService.CleanupOldChatSessions(ctx)
				if err != nil {
					log.WithError(err).Error("🧹 [SESSION_CLEANUP] Retention sweep thất bại")
					return
				}
				log.WithFields(map[string]interface{}{
					"deletedCount": result.DeletedCount,
				}).Info("🧹 [SESSION_CLEANUP] Retention sweep xong")
			}()
		}
	}
}
