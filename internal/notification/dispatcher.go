// Package notification chứa dispatcher fan-out thông báo cho admin khi có
// tin nhắn visitor mới: push tới các endpoint đã đăng ký (gỡ endpoint chết),
// email fallback khi admin không có endpoint nào.
package notification

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authsvc "live_support/internal/api/auth/service"
	"live_support/internal/events"
	"live_support/internal/logger"
	"live_support/internal/notification/channels"
)

// Dispatcher gửi thông báo tin nhắn mới cho admin. Best-effort: lỗi gửi không
// bao giờ rollback tin nhắn đã lưu, cũng không propagate cho visitor.
type Dispatcher struct {
	Users       *authsvc.UserService
	Push        channels.PushSender
	Email       channels.EmailSender
	FrontendURL string // Gốc deep link tới màn hình live-chat của dashboard
}

// NewDispatcher tạo dispatcher với các kênh được inject.
func NewDispatcher(users *authsvc.UserService, push channels.PushSender, email channels.EmailSender, frontendURL string) *Dispatcher {
	return &Dispatcher{
		Users:       users,
		Push:        push,
		Email:       email,
		FrontendURL: frontendURL,
	}
}

// Subscribe đăng ký dispatcher với event bus cho sự kiện message.created.
// Chỉ tin nhắn role=user (visitor) tạo thông báo.
func (d *Dispatcher) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.MessageCreated, events.Handler{
		Name:       "notification.dispatch",
		MaxRetries: 2,
		Fn: func(ctx context.Context, ev events.Event) error {
			role, _ := ev.Data["role"].(string)
			if role != "user" {
				return nil
			}

			adminID, err := primitive.ObjectIDFromHex(ev.AdminID)
			if err != nil {
				return err
			}
			content, _ := ev.Data["content"].(string)
			visitorName, _ := ev.Data["visitorName"].(string)

			return d.Dispatch(ctx, adminID, ev.SessionID, visitorName, content)
		},
	})
}

// Dispatch gửi thông báo tin nhắn mới cho admin. Endpoint báo DeviceNotRegistered
// được gom lại và gỡ khỏi admin trong một update atomic duy nhất.
func (d *Dispatcher) Dispatch(ctx context.Context, adminID primitive.ObjectID, sessionID, visitorName, content string) error {
	log := logger.GetAppLogger()

	admin, err := d.Users.FindOneById(ctx, adminID)
	if err != nil {
		return err
	}

	title := visitorName
	if title == "" {
		title = "Khách mới"
	}

	if len(admin.PushTokens) == 0 {
		return d.sendEmailFallback(ctx, admin.NotificationEmail, title, content, sessionID)
	}

	payload := channels.PushPayload{
		Title: title,
		Body:  content,
		Data: map[string]string{
			"url": fmt.Sprintf("%s/live-chat?sessionId=%s", d.FrontendURL, sessionID),
		},
	}

	results, err := d.Push.SendToMany(ctx, admin.PushTokens, payload)
	if err != nil {
		// Lỗi cả batch (mạng, API down): log và dừng, không đụng tới token nào
		return err
	}

	dead := ClassifyDeadTokens(results)
	if len(dead) > 0 {
		if err := d.Users.RemovePushTokens(ctx, adminID, dead); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"admin_id": adminID.Hex(),
				"dead":     len(dead),
			}).Error("📲 [NOTIFY] Không gỡ được push token chết")
		} else {
			log.WithFields(logrus.Fields{
				"admin_id": adminID.Hex(),
				"dead":     len(dead),
			}).Info("📲 [NOTIFY] Đã gỡ push token chết")
		}
	}

	log.WithFields(logrus.Fields{
		"admin_id":   adminID.Hex(),
		"session_id": sessionID,
		"endpoints":  len(admin.PushTokens),
	}).Info("📲 [NOTIFY] Đã gửi thông báo tin nhắn mới")

	return nil
}

// sendEmailFallback gửi email khi admin không có endpoint push nào.
func (d *Dispatcher) sendEmailFallback(ctx context.Context, recipient, title, content, sessionID string) error {
	if recipient == "" || d.Email == nil {
		return nil
	}

	subject := "Tin nhắn mới từ " + title
	body := fmt.Sprintf(
		`<p><b>%s</b> vừa gửi tin nhắn:</p><blockquote>%s</blockquote><p><a href="%s/live-chat?sessionId=%s">Mở hội thoại</a></p>`,
		title, content, d.FrontendURL, sessionID,
	)

	if err := d.Email.Send(ctx, recipient, subject, body); err != nil {
		logger.GetAppLogger().WithError(err).WithFields(logrus.Fields{
			"recipient": recipient,
		}).Error("📲 [NOTIFY] Gửi email fallback thất bại")
		return err
	}

	return nil
}

// ClassifyDeadTokens lọc ra các endpoint báo DeviceNotRegistered.
// Lỗi tạm thời khác (rate limit, message too big) không bị coi là token chết.
func ClassifyDeadTokens(results []channels.PushResult) []string {
	var dead []string
	for _, r := range results {
		if r.Error == channels.ErrDeviceNotRegistered {
			dead = append(dead, r.Token)
		}
	}
	return dead
}
