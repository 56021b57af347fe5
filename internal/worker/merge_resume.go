package worker

import (
	"context"
	"time"

	chatsvc "live_support/internal/api/chat/service"
	"live_support/internal/logger"
)

// MergeResumeWorker chạy tiếp các merge dở dang (journal chưa done).
// Chạy một lần ngay khi khởi động để dọn hậu quả crash của process trước,
// sau đó định kỳ để bắt các merge thất bại trong lúc đang chạy.
type MergeResumeWorker struct {
	mergeService *chatsvc.MergeService
	interval     time.Duration
}

// NewMergeResumeWorker tạo mới MergeResumeWorker
func NewMergeResumeWorker(mergeService *chatsvc.MergeService, interval time.Duration) *MergeResumeWorker {
	if interval < time.Minute {
		interval = 5 * time.Minute
	}
	return &MergeResumeWorker{
		mergeService: mergeService,
		interval:     interval,
	}
}

// Start bắt đầu background worker resume merge.
func (w *MergeResumeWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🔀 [MERGE_RESUME] Starting Merge Resume Worker...")

	// Chạy ngay một lần khi khởi động
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("🔀 [MERGE_RESUME] Merge Resume Worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce chạy một lượt resume với recover.
func (w *MergeResumeWorker) runOnce(ctx context.Context) {
	log := logger.GetAppLogger()

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("🔀 [MERGE_RESUME] Panic trong resume, đã recover")
		}
	}()

	if _, err := w.mergeService.ResumeIncompleteMerges(ctx); err != nil {
		log.WithError(err).Error("🔀 [MERGE_RESUME] Resume merge thất bại")
	}
}
