package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vai trò của người gửi tin nhắn
const (
	RoleUser      = "user"      // Visitor
	RoleAssistant = "assistant" // AI
	RoleAdmin     = "admin"     // Admin trả lời tay
)

// ChatMessage lưu một tin nhắn trong phiên hoặc conversation (chat_messages).
// Tin nhắn thuộc về đúng một trong hai: SessionID hoặc ConversationID.
// Append-only — chỉ cờ Read được phép thay đổi sau khi tạo.
type ChatMessage struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	SessionID      primitive.ObjectID `json:"sessionId,omitempty" bson:"sessionId,omitempty" index:"compound:chat_message_session_ts"`           // Phiên chứa tin nhắn (nếu chưa merge)
	ConversationID primitive.ObjectID `json:"conversationId,omitempty" bson:"conversationId,omitempty" index:"compound:chat_message_conv_ts,compound:chat_message_conv_source_sparse_unique"` // Conversation chứa tin nhắn (sau merge)

	Content  string             `json:"content" bson:"content"`
	Role     string             `json:"role" bson:"role"` // user | assistant | admin
	SenderID string             `json:"senderId,omitempty" bson:"senderId,omitempty"`
	AdminID  primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"` // Admin sở hữu thread chứa tin nhắn

	Timestamp int64 `json:"timestamp" bson:"timestamp" index:"compound:chat_message_session_ts,compound:chat_message_conv_ts"` // Unix ms — thứ tự tin nhắn trong thread
	Read      bool  `json:"read" bson:"read"`

	// SourceMessageID giữ _id gốc khi tin nhắn được copy qua conversation trong merge.
	// Unique (sparse) theo conversation để copy idempotent — chạy lại merge không nhân đôi tin nhắn.
	SourceMessageID string `json:"sourceMessageId,omitempty" bson:"sourceMessageId,omitempty" index:"compound:chat_message_conv_source_sparse_unique"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
