// Package chatdto - DTO cho domain chat.
package chatdto

// VisitorSessionInput đầu vào mở phiên từ widget của visitor.
// VisitorID rỗng → server sinh UUID mới và trả về cho client giữ.
type VisitorSessionInput struct {
	VisitorID   string `json:"visitorId" validate:"omitempty,max=64"`
	VisitorName string `json:"visitorName" validate:"omitempty,no_xss,max=120"`
}

// VisitorSessionResult kết quả mở phiên.
type VisitorSessionResult struct {
	SessionID string      `json:"sessionId"`
	VisitorID string      `json:"visitorId"`
	Session   interface{} `json:"session"`
}

// VisitorMessageInput đầu vào gửi tin nhắn từ visitor.
type VisitorMessageInput struct {
	Content string `json:"content" validate:"required,no_xss,max=4000"`
}

// AdminReplyInput đầu vào admin trả lời tay trong một phiên.
type AdminReplyInput struct {
	Content string `json:"content" validate:"required,no_xss,max=4000"`
}

// ToggleAIChatInput đầu vào bật/tắt AI cho một phiên.
type ToggleAIChatInput struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// MarkReadInput đầu vào đánh dấu đã đọc các tin nhắn trong phiên.
type MarkReadInput struct {
	Role string `json:"role" validate:"omitempty,chat_role"`
}

// IdentifyLeadContactData dữ liệu contact khi định danh lead từ một phiên.
type IdentifyLeadContactData struct {
	Name     string `json:"name" validate:"required,no_xss,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Whatsapp string `json:"whatsapp" validate:"omitempty,max=20"`
}

// IdentifyLeadResult kết quả identifyLead: id các bản ghi mới và visitorId
// sinh ra để client lưu lại phục vụ pre-identification về sau.
type IdentifyLeadResult struct {
	ContactID          string `json:"contactId"`
	ConversationID     string `json:"conversationId"`
	AnonymousVisitorID string `json:"anonymousVisitorId"`
}

// ConnectSessionInput đầu vào nối phiên vào một contact có sẵn.
type ConnectSessionInput struct {
	ContactID string `json:"contactId" validate:"required,len=24,hexadecimal"`
}

// ConnectSessionResult kết quả connectSessionToContact.
type ConnectSessionResult struct {
	ConversationID     string `json:"conversationId"`
	AnonymousVisitorID string `json:"anonymousVisitorId"`
}

// ArchiveConversationResult kết quả archive + tóm tắt.
type ArchiveConversationResult struct {
	Summary string `json:"summary"`
}

// CleanupResult kết quả một lần chạy retention sweeper.
type CleanupResult struct {
	DeletedCount int64 `json:"deletedCount"`
}
