// Package models - model người dùng (AuthUser) thuộc domain auth.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthUser định nghĩa mô hình admin sở hữu các phiên chat, contact và conversation.
// PushTokens chứa danh sách endpoint push đã đăng ký, mỗi thiết bị một token;
// token chết (DeviceNotRegistered) được dispatcher gỡ tự động.
type AuthUser struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email" bson:"email" index:"unique"`
	Password string             `json:"-" bson:"password,omitempty"`

	// Cá nhân hóa AI: prompt kiến thức riêng ghép sau instruction mặc định
	AISystemPrompt string `json:"aiSystemPrompt,omitempty" bson:"aiSystemPrompt,omitempty"`

	// Email nhận thông báo fallback khi không có push token nào
	NotificationEmail string `json:"notificationEmail,omitempty" bson:"notificationEmail,omitempty"`

	// Push endpoint đã đăng ký (Expo push token), cập nhật bằng $addToSet / $pull
	PushTokens []string `json:"pushTokens,omitempty" bson:"pushTokens,omitempty"`

	IsBlock   bool   `json:"-" bson:"isBlock"`
	BlockNote string `json:"-" bson:"blockNote,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
