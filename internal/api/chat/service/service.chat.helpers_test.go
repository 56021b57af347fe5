package chatsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"live_support/internal/api/chat/models"
)

func TestMapToTurns(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: models.RoleUser, Content: "Xin chào"},
		{Role: models.RoleAssistant, Content: "Chào bạn, tôi có thể giúp gì?"},
		{Role: models.RoleAdmin, Content: "Tôi là nhân viên hỗ trợ"},
		{Role: models.RoleUser, Content: "Cảm ơn"},
	}

	turns := MapToTurns(messages)

	assert.Len(t, turns, 4)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "model", turns[1].Role)
	// Admin trả lời tay cũng là phía "user" đối với provider
	assert.Equal(t, "user", turns[2].Role)
	assert.Equal(t, "user", turns[3].Role)
	assert.Equal(t, "Xin chào", turns[0].Text)
}

func TestMapToTurnsEmpty(t *testing.T) {
	turns := MapToTurns(nil)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestFormatHistory(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: models.RoleUser, Content: "Sản phẩm còn hàng không?"},
		{Role: models.RoleAssistant, Content: "Dạ còn ạ"},
		{Role: models.RoleAdmin, Content: "Bên em giao trong ngày"},
	}

	got := FormatHistory(messages)

	want := "Khách: Sản phẩm còn hàng không?\nTrợ lý: Dạ còn ạ\nNhân viên: Bên em giao trong ngày"
	assert.Equal(t, want, got)
}

func TestFormatHistoryEmpty(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))
}

func TestEscapeSearchTerm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain term", in: "nguyen", want: "nguyen"},
		{name: "trims spaces", in: "  nguyen  ", want: "nguyen"},
		{name: "escapes regex metacharacters", in: "a+b(c)", want: `a\+b\(c\)`},
		{name: "escapes dot in email", in: "an@example.com", want: `an@example\.com`},
		{name: "blank becomes empty", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeSearchTerm(tt.in))
		})
	}
}
