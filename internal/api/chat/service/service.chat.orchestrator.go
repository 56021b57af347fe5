package chatsvc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"live_support/internal/ai"
	authmodels "live_support/internal/api/auth/models"
	authsvc "live_support/internal/api/auth/service"
	"live_support/internal/api/chat/models"
	"live_support/internal/events"
	"live_support/internal/logger"
)

// DefaultSystemInstruction là instruction mặc định cho mọi admin; prompt kiến thức
// riêng của admin (nếu có) được ghép vào sau.
const DefaultSystemInstruction = "Bạn là trợ lý hỗ trợ khách hàng thân thiện và chuyên nghiệp. " +
	"Trả lời ngắn gọn, lịch sự, đúng trọng tâm câu hỏi của khách. " +
	"Nếu không chắc chắn về thông tin, hãy nói rõ và đề nghị khách chờ nhân viên hỗ trợ."

// sessionLeaser là phần của SessionService mà orchestrator cần:
// giành/trả lease và cập nhật preview phiên.
type sessionLeaser interface {
	AcquireAILease(ctx context.Context, sessionID primitive.ObjectID, holderID string, ttl time.Duration) (models.ChatSession, bool, error)
	ReleaseAILease(ctx context.Context, sessionID primitive.ObjectID, holderID string)
	TouchLastMessage(ctx context.Context, sessionID primitive.ObjectID, content string, ts int64) error
}

// messageStore là phần của MessageService mà orchestrator cần.
type messageStore interface {
	AppendToSession(ctx context.Context, sessionID, adminID primitive.ObjectID, role, content, senderID string, ts int64) (models.ChatMessage, error)
	RecentSessionTurns(ctx context.Context, sessionID primitive.ObjectID, limit int64) ([]models.ChatMessage, error)
}

// adminLookup đọc cấu hình admin (system prompt riêng).
type adminLookup interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (authmodels.AuthUser, error)
}

// Orchestrator điều phối việc sinh câu trả lời AI cho một tin nhắn visitor:
// giành lease trên phiên, lắp context giới hạn, gọi provider, trả lease vô điều kiện.
type Orchestrator struct {
	Sessions  sessionLeaser
	Messages  messageStore
	Users     adminLookup
	Generator ai.TextGenerator

	LeaseTTL     time.Duration // TTL của AI lease (lease quá hạn được giành lại)
	ContextLimit int64         // Số tin nhắn gần nhất đưa vào context window
}

// NewOrchestrator tạo orchestrator với các dependency được inject.
func NewOrchestrator(sessions *SessionService, messages *MessageService, users *authsvc.UserService, generator ai.TextGenerator, leaseTTL time.Duration, contextLimit int64) *Orchestrator {
	if leaseTTL <= 0 {
		leaseTTL = 5 * time.Minute
	}
	if contextLimit <= 0 {
		contextLimit = 20
	}
	return &Orchestrator{
		Sessions:     sessions,
		Messages:     messages,
		Users:        users,
		Generator:    generator,
		LeaseTTL:     leaseTTL,
		ContextLimit: contextLimit,
	}
}

// Subscribe đăng ký orchestrator với event bus cho sự kiện message.created.
// Chỉ tin nhắn role=user kích hoạt pipeline; tự phản hồi tin nhắn của chính
// assistant sẽ tạo vòng lặp.
func (o *Orchestrator) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.MessageCreated, events.Handler{
		Name: "orchestrator.respond",
		Fn: func(ctx context.Context, ev events.Event) error {
			role, _ := ev.Data["role"].(string)
			if role != models.RoleUser {
				return nil
			}
			sessionID, err := primitive.ObjectIDFromHex(ev.SessionID)
			if err != nil {
				return err
			}
			return o.RespondToMessage(ctx, sessionID)
		},
	})
}

// RespondToMessage chạy toàn bộ pipeline sinh câu trả lời AI cho phiên.
// Không giành được lease (đang có generation khác, hoặc AI tắt) là no-op im lặng.
// Lỗi provider được log và nuốt: không có assistant message, không retry —
// tin nhắn user tiếp theo sẽ kích hoạt lại pipeline.
func (o *Orchestrator) RespondToMessage(ctx context.Context, sessionID primitive.ObjectID) error {
	log := logger.GetAppLogger()
	holderID := uuid.NewString()

	session, acquired, err := o.Sessions.AcquireAILease(ctx, sessionID, holderID, o.LeaseTTL)
	if err != nil {
		return err
	}
	if !acquired {
		log.WithFields(logrus.Fields{
			"session_id": sessionID.Hex(),
		}).Debug("🤖 [ORCHESTRATOR] Không giành được lease, bỏ qua")
		return nil
	}

	// Trả lease vô điều kiện, thành công hay thất bại — lease không bao giờ
	// bị kẹt quá một lần generation.
	defer o.Sessions.ReleaseAILease(ctx, sessionID, holderID)

	reply, err := o.generate(ctx, &session)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID.Hex(),
		}).Error("🤖 [ORCHESTRATOR] Generation thất bại, không có câu trả lời AI")
		return nil
	}
	if reply == "" {
		return nil
	}

	msg, err := o.Messages.AppendToSession(ctx, sessionID, session.AdminID, models.RoleAssistant, reply, "", 0)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID.Hex(),
		}).Error("🤖 [ORCHESTRATOR] Không lưu được câu trả lời AI")
		return nil
	}

	if err := o.Sessions.TouchLastMessage(ctx, sessionID, reply, msg.Timestamp); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID.Hex(),
		}).Warn("🤖 [ORCHESTRATOR] Không cập nhật được preview phiên")
	}

	return nil
}

// generate lắp context và gọi provider. Tách riêng để lease luôn được trả ở caller.
func (o *Orchestrator) generate(ctx context.Context, session *models.ChatSession) (string, error) {
	instruction := o.buildInstruction(ctx, session.AdminID)

	history, err := o.Messages.RecentSessionTurns(ctx, session.ID, o.ContextLimit)
	if err != nil {
		return "", err
	}

	turns := MapToTurns(history)

	return o.Generator.GenerateReply(ctx, instruction, turns)
}

// buildInstruction ghép instruction mặc định với prompt riêng của admin.
// Lỗi đọc admin không chặn generation — dùng instruction mặc định.
func (o *Orchestrator) buildInstruction(ctx context.Context, adminID primitive.ObjectID) string {
	admin, err := o.Users.FindOneById(ctx, adminID)
	if err != nil || strings.TrimSpace(admin.AISystemPrompt) == "" {
		return DefaultSystemInstruction
	}
	return DefaultSystemInstruction + "\n\nThông tin riêng của doanh nghiệp:\n" + admin.AISystemPrompt
}

// MapToTurns chuyển tin nhắn thành các turn role-tagged cho provider:
// user/admin → "user", assistant → "model".
func MapToTurns(messages []models.ChatMessage) []ai.Turn {
	turns := make([]ai.Turn, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		turns = append(turns, ai.Turn{Role: role, Text: msg.Content})
	}
	return turns
}
