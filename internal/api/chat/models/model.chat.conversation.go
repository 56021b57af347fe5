package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái conversation
const (
	ConversationStatusActive   = "active"
	ConversationStatusArchived = "archived"
)

// ChatConversation lưu thread chat bền gắn với một contact (chat_conversations).
// Mỗi contact dự kiến có tối đa một conversation active tại một thời điểm;
// ràng buộc này được kiểm tra bằng read-then-write ở tầng service, không phải ở tầng dữ liệu.
type ChatConversation struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AdminID   primitive.ObjectID `json:"adminId" bson:"adminId" index:"single:1"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId" index:"compound:chat_conv_contact_status"`

	Status    string `json:"status" bson:"status" index:"compound:chat_conv_contact_status"` // active | archived
	AIEnabled bool   `json:"aiEnabled" bson:"aiEnabled"`

	LastMessage          string `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	LastMessageTimestamp int64  `json:"lastMessageTimestamp,omitempty" bson:"lastMessageTimestamp,omitempty"`

	// Summary chỉ có sau khi archive
	Summary    string `json:"summary,omitempty" bson:"summary,omitempty"`
	ArchivedAt int64  `json:"archivedAt,omitempty" bson:"archivedAt,omitempty"` // Unix ms

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
