// Package models - các model thuộc domain Chat (chat_sessions, chat_messages,
// chat_contacts, chat_conversations, chat_merge_journal).
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái phiên chat
const (
	SessionStatusActive = "active" // Phiên đang hoạt động
)

// AILease là lease mutual-exclusion cho việc sinh câu trả lời AI trên một phiên.
// Khác với cờ boolean đơn thuần, lease có holder và thời điểm giành — lease hết hạn
// (AcquiredAt quá TTL) được phép giành lại, nên crash giữa chừng không khóa phiên vĩnh viễn.
type AILease struct {
	HolderID   string `json:"holderId,omitempty" bson:"holderId,omitempty"`     // Định danh của lần generation đang giữ lease
	AcquiredAt int64  `json:"acquiredAt,omitempty" bson:"acquiredAt,omitempty"` // Unix ms thời điểm giành lease
}

// Held kiểm tra lease còn hiệu lực tại thời điểm now với TTL cho trước
func (l AILease) Held(now time.Time, ttl time.Duration) bool {
	if l.HolderID == "" || l.AcquiredAt == 0 {
		return false
	}
	return now.UnixMilli()-l.AcquiredAt < ttl.Milliseconds()
}

// ChatSession lưu phiên chat ẩn danh giữa một visitor và một admin (chat_sessions).
// Phiên là container tạm trước khi định danh: kết thúc bằng merge vào Contact/Conversation
// hoặc bị retention sweeper xóa.
type ChatSession struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AdminID   primitive.ObjectID `json:"adminId" bson:"adminId" index:"single:1,compound:chat_session_admin_visitor_unique"` // Admin sở hữu phiên
	VisitorID string             `json:"visitorId" bson:"visitorId" index:"compound:chat_session_admin_visitor_unique"`      // ID ẩn danh của visitor (UUID, client giữ)

	Status    string `json:"status" bson:"status"`       // active
	AIEnabled bool   `json:"aiEnabled" bson:"aiEnabled"` // AI có được phép trả lời trong phiên này không

	// AILease thay cho cờ aiProcessing: giữ bởi đúng một generation đang chạy
	AILease AILease `json:"aiLease,omitempty" bson:"aiLease,omitempty"`

	LastMessageTimestamp int64  `json:"lastMessageTimestamp" bson:"lastMessageTimestamp" index:"single:1"` // Unix ms — dùng bởi retention sweeper
	LastMessage          string `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`                // Preview tin nhắn cuối

	// Pre-identification: gợi ý không ràng buộc từ task pre-identify
	ProbableContactID primitive.ObjectID `json:"probableContactId,omitempty" bson:"probableContactId,omitempty"`
	VisitorName       string             `json:"visitorName,omitempty" bson:"visitorName,omitempty"` // "Provavelmente <name>" hoặc tên hiển thị

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}
