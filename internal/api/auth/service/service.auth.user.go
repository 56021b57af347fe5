// Package authsvc - Service người dùng admin (auth_users).
// Đăng ký, đăng nhập JWT, cá nhân hóa AI prompt, quản lý push token.
package authsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	authdto "live_support/internal/api/auth/dto"
	"live_support/internal/api/auth/models"
	basesvc "live_support/internal/api/base/service"
	"live_support/internal/common"
	"live_support/internal/global"
	"live_support/internal/logger"
)

// Thời hạn JWT token
const tokenTTL = 7 * 24 * time.Hour

// UserService xử lý logic người dùng admin.
type UserService struct {
	*basesvc.BaseServiceMongoImpl[models.AuthUser]
}

// NewUserService tạo UserService mới.
func NewUserService() (*UserService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Users)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.Users, common.ErrNotFound)
	}
	return &UserService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.AuthUser](coll),
	}, nil
}

// Register đăng ký admin mới với mật khẩu đã hash bcrypt.
func (s *UserService) Register(ctx context.Context, input *authdto.UserRegisterInput) (models.AuthUser, error) {
	var zero models.AuthUser

	email := strings.ToLower(strings.TrimSpace(input.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return zero, common.NewError(
			common.ErrCodeInternalServer,
			"Không thể hash mật khẩu",
			common.StatusInternalServerError,
			err,
		)
	}

	user, err := s.InsertOne(ctx, models.AuthUser{
		Name:     input.Name,
		Email:    email,
		Password: string(hash),
	})
	if err != nil {
		return zero, err
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
	}).Info("👤 [AUTH] Đăng ký admin mới thành công")

	return user, nil
}

// Login xác thực email + mật khẩu và trả về JWT token HS256.
func (s *UserService) Login(ctx context.Context, input *authdto.UserLoginInput) (*authdto.UserLoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.FindOne(ctx, bson.M{"email": email}, nil)
	if err != nil {
		// Không phân biệt user không tồn tại và sai mật khẩu
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	if user.IsBlock {
		return nil, common.NewError(
			common.ErrCodeAuthCredentials,
			"Tài khoản đã bị khóa: "+user.BlockNote,
			common.StatusForbidden,
			nil,
		)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
	}).Info("👤 [AUTH] Đăng nhập thành công")

	return &authdto.UserLoginResult{
		Token: token,
		User:  user,
	}, nil
}

// issueToken ký JWT HS256 chứa user id và thời hạn.
func (s *UserService) issueToken(userID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.Hex(),
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(global.ServerConfig.JwtSecret))
	if err != nil {
		return "", common.NewError(
			common.ErrCodeInternalServer,
			"Không thể ký JWT token",
			common.StatusInternalServerError,
			err,
		)
	}
	return signed, nil
}

// ParseToken xác thực JWT và trả về user id trong claim sub.
func (s *UserService) ParseToken(tokenStr string) (primitive.ObjectID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không hợp lệ: %v", t.Header["alg"])
		}
		return []byte(global.ServerConfig.JwtSecret), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, common.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, common.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return primitive.NilObjectID, common.ErrTokenInvalid
	}

	return userID, nil
}

// UpdateAIPrompt cập nhật prompt kiến thức riêng của admin.
func (s *UserService) UpdateAIPrompt(ctx context.Context, userID primitive.ObjectID, input *authdto.UpdateAIPromptInput) (models.AuthUser, error) {
	return s.UpdateById(ctx, userID, bson.M{
		"aiSystemPrompt": input.AISystemPrompt,
	})
}

// UpdateNotificationEmail cập nhật email nhận thông báo fallback.
func (s *UserService) UpdateNotificationEmail(ctx context.Context, userID primitive.ObjectID, input *authdto.UpdateNotificationEmailInput) (models.AuthUser, error) {
	return s.UpdateById(ctx, userID, bson.M{
		"notificationEmail": input.NotificationEmail,
	})
}

// RegisterPushToken thêm push token vào tập endpoint của admin ($addToSet — không trùng).
func (s *UserService) RegisterPushToken(ctx context.Context, userID primitive.ObjectID, token string) (models.AuthUser, error) {
	return s.UpdateOne(ctx, bson.M{"_id": userID}, &basesvc.UpdateData{
		AddToSet: map[string]interface{}{
			"pushTokens": token,
		},
	}, nil)
}

// RemovePushTokens gỡ một loạt push token chết khỏi admin trong một update atomic ($pull).
func (s *UserService) RemovePushTokens(ctx context.Context, userID primitive.ObjectID, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := s.UpdateOne(ctx, bson.M{"_id": userID}, &basesvc.UpdateData{
		Pull: map[string]interface{}{
			"pushTokens": bson.M{"$in": tokens},
		},
	}, nil)
	return err
}
