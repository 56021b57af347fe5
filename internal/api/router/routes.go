// Package router đăng ký toàn bộ route HTTP của hệ thống live support.
package router

import (
	"github.com/gofiber/fiber/v3"

	authhdl "live_support/internal/api/auth/handler"
	chathdl "live_support/internal/api/chat/handler"
)

// Handlers gom các handler cần thiết để đăng ký route.
type Handlers struct {
	User    *authhdl.UserHandler
	Visitor *chathdl.VisitorHandler
	Session *chathdl.SessionHandler
	Merge   *chathdl.MergeHandler
}

// RegisterRoutes đăng ký route lên app. Nhóm /visitor là công khai cho widget
// chat; nhóm /chat và /users yêu cầu JWT của admin qua authMiddleware.
func RegisterRoutes(app *fiber.App, h *Handlers, authMiddleware fiber.Handler) {
	v1 := app.Group("/api/v1")

	// Route công khai cho widget visitor
	visitor := v1.Group("/visitor")
	visitor.Post("/:adminId/sessions", h.Visitor.HandleOpenSession)
	visitor.Post("/sessions/:id/messages", h.Visitor.HandleSendMessage)
	visitor.Get("/sessions/:id/messages", h.Visitor.HandleListMessages)

	// Route xác thực admin
	auth := v1.Group("/auth")
	auth.Post("/register", h.User.HandleRegister)
	auth.Post("/login", h.User.HandleLogin)

	// Route quản lý tài khoản admin (yêu cầu JWT)
	users := v1.Group("/users", authMiddleware)
	users.Get("/profile", h.User.HandleProfile)
	users.Put("/ai-prompt", h.User.HandleUpdateAIPrompt)
	users.Put("/notification-email", h.User.HandleUpdateNotificationEmail)
	users.Post("/push-tokens", h.User.HandleRegisterPushToken)
	users.Delete("/push-tokens", h.User.HandleRemovePushToken)

	// Route dashboard chat của admin (yêu cầu JWT)
	chat := v1.Group("/chat", authMiddleware)
	chat.Get("/sessions", h.Session.HandleListSessions)
	chat.Post("/sessions/cleanup", h.Session.HandleRunCleanup)
	chat.Get("/sessions/:id/messages", h.Session.HandleSessionMessages)
	chat.Post("/sessions/:id/messages", h.Session.HandleAdminReply)
	chat.Put("/sessions/:id/ai", h.Session.HandleToggleAIChat)
	chat.Put("/sessions/:id/read", h.Session.HandleMarkRead)
	chat.Post("/sessions/:id/identify", h.Merge.HandleIdentifyLead)
	chat.Post("/sessions/:id/connect", h.Merge.HandleConnectSession)
	chat.Get("/contacts", h.Merge.HandleSearchContacts)
	chat.Get("/contacts/:id", h.Merge.HandleGetContact)
	chat.Get("/contacts/:id/conversations", h.Merge.HandleContactConversations)
	chat.Get("/conversations/:id/messages", h.Merge.HandleConversationMessages)
	chat.Post("/conversations/:id/messages", h.Merge.HandleConversationReply)
	chat.Post("/conversations/:id/archive", h.Merge.HandleArchiveConversation)
}
