package chatsvc

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "live_support/internal/api/base/service"
	"live_support/internal/api/chat/models"
	"live_support/internal/common"
	"live_support/internal/global"
)

// ContactService xử lý logic contact định danh.
type ContactService struct {
	*basesvc.BaseServiceMongoImpl[models.ChatContact]
}

// NewContactService tạo ContactService mới.
func NewContactService() (*ContactService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ChatContacts)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.ChatContacts, common.ErrNotFound)
	}
	return &ContactService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.ChatContact](coll),
	}, nil
}

// EscapeSearchTerm escape các ký tự đặc biệt regex trong search term của người dùng.
// Không escape thì term như "a+b" hoặc "(" làm hỏng query hoặc match sai.
func EscapeSearchTerm(term string) string {
	return regexp.QuoteMeta(strings.TrimSpace(term))
}

// SearchContacts tìm contact của admin theo tên/email/whatsapp, match substring
// không phân biệt hoa thường. Chỉ trả về contact thuộc admin gọi.
func (s *ContactService) SearchContacts(ctx context.Context, ownerID primitive.ObjectID, searchTerm string) ([]models.ChatContact, error) {
	escaped := EscapeSearchTerm(searchTerm)
	if escaped == "" {
		return []models.ChatContact{}, nil
	}

	pattern := primitive.Regex{Pattern: escaped, Options: "i"}
	filter := bson.M{
		"ownerId": ownerID,
		"$or": []bson.M{
			{"name": pattern},
			{"email": pattern},
			{"whatsapp": pattern},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "lastInteraction", Value: -1}}).SetLimit(50)
	return s.Find(ctx, filter, opts)
}

// FindByVisitorID tìm contact của admin có visitorId trong tập định danh ẩn danh.
// Dùng bởi pre-identification task khi visitor quay lại.
func (s *ContactService) FindByVisitorID(ctx context.Context, ownerID primitive.ObjectID, visitorID string) (models.ChatContact, error) {
	return s.FindOne(ctx, bson.M{
		"ownerId":             ownerID,
		"anonymousVisitorIds": visitorID,
	}, nil)
}

// GetOwnedContact lấy contact và kiểm tra quyền sở hữu của admin gọi.
func (s *ContactService) GetOwnedContact(ctx context.Context, contactID, ownerID primitive.ObjectID) (models.ChatContact, error) {
	contact, err := s.FindOneById(ctx, contactID)
	if err != nil {
		return contact, err
	}
	if contact.OwnerID != ownerID {
		return models.ChatContact{}, common.ErrNotOwner
	}
	return contact, nil
}

// AddVisitorID thêm visitorId vào tập định danh của contact ($addToSet —
// an toàn dưới nhiều writer đồng thời, tập không bao giờ co lại).
func (s *ContactService) AddVisitorID(ctx context.Context, contactID primitive.ObjectID, visitorID string) error {
	_, err := s.UpdateOne(ctx, bson.M{"_id": contactID}, &basesvc.UpdateData{
		AddToSet: map[string]interface{}{
			"anonymousVisitorIds": visitorID,
		},
	}, nil)
	return err
}

// TouchLastInteraction cập nhật mốc tương tác cuối của contact.
func (s *ContactService) TouchLastInteraction(ctx context.Context, contactID primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, contactID, bson.M{
		"lastInteraction": time.Now().UnixMilli(),
	})
	return err
}
