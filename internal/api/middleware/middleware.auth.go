// Package middleware chứa các middleware dùng chung cho Fiber app.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	authsvc "live_support/internal/api/auth/service"
	basehdl "live_support/internal/api/base/handler"
	"live_support/internal/common"
	"live_support/internal/logger"
)

// HandleErrorResponse trả về lỗi chuẩn hóa cho client từ middleware
func HandleErrorResponse(c fiber.Ctx, err *common.Error) error {
	return basehdl.JSONResponse(c, err.StatusCode, fiber.Map{
		"code":    err.Code.Code,
		"message": err.Message,
		"status":  "error",
	})
}

// AuthMiddleware middleware xác thực JWT cho Fiber.
// Token hợp lệ → load user từ DB, lưu user_id và user vào Locals cho handler phía sau.
func AuthMiddleware(userService *authsvc.UserService) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Lấy token từ header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Thiếu Authorization header")
			return HandleErrorResponse(c, common.ErrTokenMissing.(*common.Error))
		}

		// Kiểm tra định dạng token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return HandleErrorResponse(c, common.ErrTokenInvalid.(*common.Error))
		}

		userID, err := userService.ParseToken(parts[1])
		if err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err.Error(),
			}).Warn("❌ [AUTH] Token không hợp lệ")
			return HandleErrorResponse(c, common.ErrTokenInvalid.(*common.Error))
		}

		// Load user để chắc chắn còn tồn tại và không bị khóa
		user, err := userService.FindOneById(c.Context(), userID)
		if err != nil {
			return HandleErrorResponse(c, common.ErrTokenInvalid.(*common.Error))
		}

		if user.IsBlock {
			return HandleErrorResponse(c, common.NewError(
				common.ErrCodeAuthCredentials,
				"Tài khoản đã bị khóa: "+user.BlockNote,
				common.StatusForbidden,
				nil,
			).(*common.Error))
		}

		// Lưu thông tin user vào context
		c.Locals("user_id", user.ID.Hex())
		c.Locals("user", user)

		return c.Next()
	}
}
