package chatsvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRetentionCutoff kiểm tra mốc retention: đúng 30 ngày trước now, và phiên
// nằm đúng mốc không bị coi là hết hạn (filter dùng $lt chặt)
func TestRetentionCutoff(t *testing.T) {
	svc := NewCleanupService(nil, nil, 30, 100)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cutoff := svc.RetentionCutoff(now)
	assert.Equal(t, now.Add(-30*24*time.Hour).UnixMilli(), cutoff)

	// lastMessageTimestamp đúng mốc: không thỏa $lt, phiên được giữ
	atCutoff := cutoff
	assert.False(t, atCutoff < cutoff, "Phiên nằm đúng mốc retention phải được giữ")

	// Cũ hơn mốc 1ms: hết hạn
	assert.True(t, atCutoff-1 < cutoff)
}

// TestRetentionCutoffDefaultWindow kiểm tra retentionDays không hợp lệ rơi về 30 ngày
func TestRetentionCutoffDefaultWindow(t *testing.T) {
	svc := NewCleanupService(nil, nil, 0, 0)
	now := time.Now()
	assert.Equal(t, now.Add(-30*24*time.Hour).UnixMilli(), svc.RetentionCutoff(now))
}
