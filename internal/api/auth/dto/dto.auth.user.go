package authdto

// UserRegisterInput đầu vào đăng ký admin.
type UserRegisterInput struct {
	Name     string `json:"name" validate:"required,no_xss"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserLoginInput đầu vào đăng nhập admin.
type UserLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserLoginResult kết quả đăng nhập: JWT token kèm thông tin user.
type UserLoginResult struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// UpdateAIPromptInput đầu vào cập nhật prompt cá nhân hóa AI của admin.
type UpdateAIPromptInput struct {
	AISystemPrompt string `json:"aiSystemPrompt" validate:"no_xss"`
}

// RegisterPushTokenInput đầu vào đăng ký push token của một thiết bị.
type RegisterPushTokenInput struct {
	Token string `json:"token" validate:"required"`
}

// UpdateNotificationEmailInput đầu vào cập nhật email nhận thông báo fallback.
type UpdateNotificationEmailInput struct {
	NotificationEmail string `json:"notificationEmail" validate:"omitempty,email"`
}
