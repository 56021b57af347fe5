package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái contact
const (
	ContactStatusLead   = "lead"
	ContactStatusActive = "active"
)

// ChatContact lưu định danh bền của một visitor, thuộc sở hữu của một admin (chat_contacts).
// AnonymousVisitorIds là tập chỉ-thêm: mọi visitorId ẩn danh từng được link vào contact này.
// Tập này không bao giờ co lại — pre-identification dựa vào nó để nhận ra visitor quay lại.
type ChatContact struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	OwnerID primitive.ObjectID `json:"ownerId" bson:"ownerId" index:"single:1"` // Admin sở hữu contact

	Name     string `json:"name" bson:"name"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	Whatsapp string `json:"whatsapp,omitempty" bson:"whatsapp,omitempty"`
	Status   string `json:"status" bson:"status"` // lead | active

	// Tập các visitorId ẩn danh đã link (append-only, cập nhật bằng $addToSet)
	AnonymousVisitorIds []string `json:"anonymousVisitorIds" bson:"anonymousVisitorIds" index:"single:1"`

	LastInteraction int64 `json:"lastInteraction,omitempty" bson:"lastInteraction,omitempty"` // Unix ms

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
