package chatsvc

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"live_support/internal/ai"
	authsvc "live_support/internal/api/auth/service"
	"live_support/internal/api/chat/models"
	"live_support/internal/common"
	"live_support/internal/events"
	"live_support/internal/logger"
)

// welcomeDelay: lời chào tự động trễ vài giây cho giống người thật.
const welcomeDelay = 3 * time.Second

// welcomeInstruction gửi provider khi sinh lời chào mở đầu.
const welcomeInstruction = "Hãy viết một lời chào mở đầu ngắn (1-2 câu), tự giới thiệu là trợ lý hỗ trợ " +
	"và hỏi khách cần giúp gì. Không dùng emoji."

// BootstrapService chạy hai task khởi tạo khi một phiên mới được tạo:
// lời chào tự động và pre-identification. Hai task độc lập, chạy trên
// supervised runner, lỗi của task này không ảnh hưởng task kia.
type BootstrapService struct {
	Sessions  *SessionService
	Messages  *MessageService
	Contacts  *ContactService
	Users     *authsvc.UserService
	Generator ai.TextGenerator
}

// NewBootstrapService tạo BootstrapService với generator được inject.
func NewBootstrapService(sessions *SessionService, messages *MessageService, contacts *ContactService, users *authsvc.UserService, generator ai.TextGenerator) *BootstrapService {
	return &BootstrapService{
		Sessions:  sessions,
		Messages:  messages,
		Contacts:  contacts,
		Users:     users,
		Generator: generator,
	}
}

// Subscribe đăng ký hai task bootstrap với event bus cho sự kiện session.created.
func (s *BootstrapService) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.SessionCreated, events.Handler{
		Name:       "bootstrap.welcome",
		Delay:      welcomeDelay,
		MaxRetries: 1,
		Fn:         s.handleWelcome,
	})
	bus.Subscribe(events.SessionCreated, events.Handler{
		Name:       "bootstrap.pre_identify",
		MaxRetries: 2,
		Fn:         s.handlePreIdentify,
	})
}

func (s *BootstrapService) handleWelcome(ctx context.Context, ev events.Event) error {
	sessionID, err := primitive.ObjectIDFromHex(ev.SessionID)
	if err != nil {
		return err
	}
	return s.RunWelcomeTask(ctx, sessionID)
}

func (s *BootstrapService) handlePreIdentify(ctx context.Context, ev events.Event) error {
	sessionID, err := primitive.ObjectIDFromHex(ev.SessionID)
	if err != nil {
		return err
	}
	return s.RunPreIdentifyTask(ctx, sessionID)
}

// RunWelcomeTask sinh lời chào mở đầu cho phiên. Chạy sau welcomeDelay;
// kiểm tra lại phiên vẫn chưa có tin nhắn (visitor nhanh tay có thể đã nhắn
// trước) và AI còn bật, rồi mới gọi provider.
func (s *BootstrapService) RunWelcomeTask(ctx context.Context, sessionID primitive.ObjectID) error {
	log := logger.GetAppLogger()

	session, err := s.Sessions.FindOneById(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Phiên đã bị merge hoặc xóa trong lúc chờ delay
			return nil
		}
		return err
	}
	if !session.AIEnabled {
		return nil
	}

	// Guard chống race với visitor nhắn trước: phiên đã có tin nhắn thì bỏ lời chào
	empty, err := s.Messages.SessionIsEmpty(ctx, sessionID)
	if err != nil {
		return err
	}
	if !empty {
		log.WithFields(logrus.Fields{
			"session_id": sessionID.Hex(),
		}).Debug("👋 [BOOTSTRAP] Phiên đã có tin nhắn, bỏ qua lời chào")
		return nil
	}

	instruction := DefaultSystemInstruction
	if admin, err := s.Users.FindOneById(ctx, session.AdminID); err == nil && admin.AISystemPrompt != "" {
		instruction = instruction + "\n\nThông tin riêng của doanh nghiệp:\n" + admin.AISystemPrompt
	}

	greeting, err := s.Generator.GenerateReply(ctx, instruction, []ai.Turn{
		{Role: "user", Text: welcomeInstruction},
	})
	if err != nil {
		return err
	}
	if greeting == "" {
		return nil
	}

	msg, err := s.Messages.AppendToSession(ctx, sessionID, session.AdminID, models.RoleAssistant, greeting, "", 0)
	if err != nil {
		return err
	}
	if err := s.Sessions.TouchLastMessage(ctx, sessionID, greeting, msg.Timestamp); err != nil {
		log.WithError(err).Warn("👋 [BOOTSTRAP] Không cập nhật được preview phiên sau lời chào")
	}

	log.WithFields(logrus.Fields{
		"session_id": sessionID.Hex(),
	}).Info("👋 [BOOTSTRAP] Đã gửi lời chào mở đầu")

	return nil
}

// RunPreIdentifyTask tìm contact từng link với visitorId của phiên và gắn
// gợi ý "Provavelmente <tên>" — chỉ mang tính thông tin, không tạo link bền.
func (s *BootstrapService) RunPreIdentifyTask(ctx context.Context, sessionID primitive.ObjectID) error {
	session, err := s.Sessions.FindOneById(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	contact, err := s.Contacts.FindByVisitorID(ctx, session.AdminID, session.VisitorID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Visitor chưa từng được định danh: không có gì để gợi ý
			return nil
		}
		return err
	}

	label := "Provavelmente " + contact.Name
	if err := s.Sessions.SetProbableContact(ctx, sessionID, contact.ID, label); err != nil {
		return err
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"session_id": sessionID.Hex(),
		"contact_id": contact.ID.Hex(),
	}).Info("🔎 [BOOTSTRAP] Pre-identification tìm thấy contact khả dĩ")

	return nil
}
