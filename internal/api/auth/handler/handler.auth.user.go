// Package authhdl - Handler đăng ký/đăng nhập và cài đặt admin.
package authhdl

import (
	"github.com/gofiber/fiber/v3"

	authdto "live_support/internal/api/auth/dto"
	"live_support/internal/api/auth/models"
	authsvc "live_support/internal/api/auth/service"
	basehdl "live_support/internal/api/base/handler"
	"live_support/internal/common"
)

// UserHandler xử lý API người dùng admin.
type UserHandler struct {
	basehdl.BaseHandler
	UserService *authsvc.UserService
}

// NewUserHandler tạo UserHandler mới.
func NewUserHandler(userService *authsvc.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// HandleRegister xử lý POST /auth/register — đăng ký admin mới.
func (h *UserHandler) HandleRegister(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input authdto.UserRegisterInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.UserService.Register(c.Context(), &input)
		h.HandleResponse(c, user, err)
		return nil
	})
}

// HandleLogin xử lý POST /auth/login — đăng nhập, trả về JWT token.
func (h *UserHandler) HandleLogin(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input authdto.UserLoginInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.UserService.Login(c.Context(), &input)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleProfile xử lý GET /auth/me — thông tin admin đang đăng nhập.
func (h *UserHandler) HandleProfile(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		user, ok := c.Locals("user").(models.AuthUser)
		if !ok {
			h.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}
		h.HandleResponse(c, user, nil)
		return nil
	})
}

// HandleUpdateAIPrompt xử lý PUT /auth/me/ai-prompt — cập nhật prompt cá nhân hóa AI.
func (h *UserHandler) HandleUpdateAIPrompt(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input authdto.UpdateAIPromptInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.UserService.UpdateAIPrompt(c.Context(), userID, &input)
		h.HandleResponse(c, user, err)
		return nil
	})
}

// HandleUpdateNotificationEmail xử lý PUT /auth/me/notification-email.
func (h *UserHandler) HandleUpdateNotificationEmail(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input authdto.UpdateNotificationEmailInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.UserService.UpdateNotificationEmail(c.Context(), userID, &input)
		h.HandleResponse(c, user, err)
		return nil
	})
}

// HandleRegisterPushToken xử lý POST /auth/me/push-tokens — đăng ký push endpoint của thiết bị.
func (h *UserHandler) HandleRegisterPushToken(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input authdto.RegisterPushTokenInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.UserService.RegisterPushToken(c.Context(), userID, input.Token)
		h.HandleResponse(c, user, err)
		return nil
	})
}

// HandleRemovePushToken xử lý DELETE /users/push-tokens — gỡ push endpoint khi thiết bị đăng xuất.
func (h *UserHandler) HandleRemovePushToken(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := h.CurrentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input authdto.RegisterPushTokenInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.UserService.RemovePushTokens(c.Context(), userID, []string{input.Token})
		h.HandleResponse(c, nil, err)
		return nil
	})
}
