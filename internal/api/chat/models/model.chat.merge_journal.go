package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các bước của một merge đang chạy. Journal ghi lại bước đã hoàn thành gần nhất
// để worker có thể resume sau crash thay vì bỏ lại dữ liệu migrate dở.
const (
	MergeStepCreated         = "created"          // Contact/Conversation đã được tạo (phase transaction đã commit)
	MergeStepMessagesCopied  = "messages_copied"  // Toàn bộ tin nhắn đã copy sang conversation
	MergeStepMessagesDeleted = "messages_deleted" // Tin nhắn gốc và session đã xóa
	MergeStepDone            = "done"             // Merge hoàn tất
)

// Loại merge
const (
	MergeKindIdentify = "identify" // identifyLead: tạo contact + conversation mới
	MergeKindConnect  = "connect"  // connectSessionToContact: nối vào contact có sẵn
)

// ChatMergeJournal lưu trạng thái một merge session → conversation (chat_merge_journal).
// Mỗi merge ghi một journal trước khi bắt đầu phase copy; cursor Step tiến qua
// created → messages_copied → messages_deleted → done. Journal chưa done là merge
// dở dang, được merge-resume worker chạy tiếp khi process khởi động lại.
type ChatMergeJournal struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Kind string `json:"kind" bson:"kind"` // identify | connect

	AdminID        primitive.ObjectID `json:"adminId" bson:"adminId"`
	SessionID      primitive.ObjectID `json:"sessionId" bson:"sessionId" index:"single:1"`
	ContactID      primitive.ObjectID `json:"contactId" bson:"contactId"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversationId"`

	// AnonymousVisitorID được sinh (identify) hoặc lấy từ session (connect),
	// trả về cho client để phục vụ pre-identification về sau
	AnonymousVisitorID string `json:"anonymousVisitorId" bson:"anonymousVisitorId"`

	Step string `json:"step" bson:"step" index:"single:1"` // Cursor bước hiện tại

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
