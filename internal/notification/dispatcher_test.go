package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"live_support/internal/notification/channels"
)

func TestClassifyDeadTokens(t *testing.T) {
	results := []channels.PushResult{
		{Token: "tok-alive", Error: ""},
		{Token: "tok-dead", Error: channels.ErrDeviceNotRegistered},
		{Token: "tok-throttled", Error: "MessageRateExceeded"},
		{Token: "tok-dead-2", Error: channels.ErrDeviceNotRegistered},
	}

	dead := ClassifyDeadTokens(results)

	// Chỉ DeviceNotRegistered mới bị coi là token chết — lỗi tạm thời
	// (rate limit, lỗi mạng) không được phép làm mất token của admin.
	assert.Equal(t, []string{"tok-dead", "tok-dead-2"}, dead)
}

func TestClassifyDeadTokensAllHealthy(t *testing.T) {
	results := []channels.PushResult{
		{Token: "a"},
		{Token: "b"},
	}
	assert.Empty(t, ClassifyDeadTokens(results))
}

func TestClassifyDeadTokensEmpty(t *testing.T) {
	assert.Empty(t, ClassifyDeadTokens(nil))
}
