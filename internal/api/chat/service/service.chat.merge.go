package chatsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "live_support/internal/api/base/service"
	chatdto "live_support/internal/api/chat/dto"
	"live_support/internal/api/chat/models"
	"live_support/internal/common"
	"live_support/internal/global"
	"live_support/internal/logger"
)

// MergeService thực hiện ba thao tác định danh: identifyLead, connectSessionToContact
// và resume các merge dở dang. Mỗi merge gồm hai phase: transaction tạo bản ghi bền
// (contact/conversation/journal), sau đó phase migrate tin nhắn theo journal cursor —
// crash giữa chừng được worker resume thay vì bỏ lại dữ liệu migrate dở.
type MergeService struct {
	Sessions      *SessionService
	Messages      *MessageService
	Contacts      *ContactService
	Conversations *ConversationService
	Journal       *basesvc.BaseServiceMongoImpl[models.ChatMergeJournal]
}

// NewMergeService tạo MergeService từ các service thành phần.
func NewMergeService(sessions *SessionService, messages *MessageService, contacts *ContactService, conversations *ConversationService) (*MergeService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.MergeJournal)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.MergeJournal, common.ErrNotFound)
	}
	return &MergeService{
		Sessions:      sessions,
		Messages:      messages,
		Contacts:      contacts,
		Conversations: conversations,
		Journal:       basesvc.NewBaseServiceMongo[models.ChatMergeJournal](coll),
	}, nil
}

// IdentifyLead biến một phiên ẩn danh thành Contact + Conversation mới.
// Phase 1 (transaction): tạo contact seeded với visitorId mới sinh, conversation
// mang trạng thái AI/preview của phiên, và journal. Phase 2: migrate tin nhắn.
// Gọi lần hai trên phiên đã merge (đã xóa) trả về NotFound, không bao giờ nhân đôi contact.
func (s *MergeService) IdentifyLead(ctx context.Context, adminID, sessionID primitive.ObjectID, data *chatdto.IdentifyLeadContactData) (*chatdto.IdentifyLeadResult, error) {
	session, err := s.Sessions.GetOwnedSession(ctx, sessionID, adminID)
	if err != nil {
		return nil, err
	}

	anonVisitorID := uuid.NewString()

	var journal models.ChatMergeJournal

	// Phase 1: transaction tạo contact + conversation + journal
	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		contact, err := s.Contacts.InsertOne(sc, models.ChatContact{
			OwnerID:             adminID,
			Name:                data.Name,
			Email:               data.Email,
			Whatsapp:            data.Whatsapp,
			Status:              models.ContactStatusLead,
			AnonymousVisitorIds: []string{anonVisitorID},
			LastInteraction:     session.LastMessageTimestamp,
		})
		if err != nil {
			return err
		}

		conversation, err := s.Conversations.InsertOne(sc, models.ChatConversation{
			AdminID:              adminID,
			ContactID:            contact.ID,
			Status:               models.ConversationStatusActive,
			AIEnabled:            session.AIEnabled,
			LastMessage:          session.LastMessage,
			LastMessageTimestamp: session.LastMessageTimestamp,
		})
		if err != nil {
			return err
		}

		journal, err = s.Journal.InsertOne(sc, models.ChatMergeJournal{
			Kind:               models.MergeKindIdentify,
			AdminID:            adminID,
			SessionID:          sessionID,
			ContactID:          contact.ID,
			ConversationID:     conversation.ID,
			AnonymousVisitorID: anonVisitorID,
			Step:               models.MergeStepCreated,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: migrate tin nhắn theo journal
	if err := s.runMigration(ctx, &journal); err != nil {
		logger.GetErrorLogger().WithError(err).WithFields(logrus.Fields{
			"journal_id": journal.ID.Hex(),
			"session_id": sessionID.Hex(),
		}).Error("🔀 [MERGE] identifyLead: phase migrate thất bại, worker sẽ chạy tiếp")
		return nil, common.ErrPartialMerge
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"session_id":      sessionID.Hex(),
		"contact_id":      journal.ContactID.Hex(),
		"conversation_id": journal.ConversationID.Hex(),
	}).Info("🔀 [MERGE] identifyLead hoàn tất")

	return &chatdto.IdentifyLeadResult{
		ContactID:          journal.ContactID.Hex(),
		ConversationID:     journal.ConversationID.Hex(),
		AnonymousVisitorID: anonVisitorID,
	}, nil
}

// ConnectSessionToContact nối phiên ẩn danh vào contact có sẵn. Tái sử dụng
// conversation active của contact nếu có, chỉ tạo mới khi chưa có.
// VisitorId của phiên được thêm vào tập định danh của contact (set-union).
func (s *MergeService) ConnectSessionToContact(ctx context.Context, adminID, sessionID, contactID primitive.ObjectID) (*chatdto.ConnectSessionResult, error) {
	session, err := s.Sessions.GetOwnedSession(ctx, sessionID, adminID)
	if err != nil {
		return nil, err
	}
	contact, err := s.Contacts.GetOwnedContact(ctx, contactID, adminID)
	if err != nil {
		return nil, err
	}

	// Tìm conversation active — read-then-write, không nằm trong transaction:
	// hai connect đồng thời vào cùng contact có thể cùng thấy "chưa có" và tạo hai active.
	conversation, err := s.Conversations.FindActiveByContact(ctx, contact.ID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		conversation, err = s.Conversations.InsertOne(ctx, models.ChatConversation{
			AdminID:              adminID,
			ContactID:            contact.ID,
			Status:               models.ConversationStatusActive,
			AIEnabled:            session.AIEnabled,
			LastMessage:          session.LastMessage,
			LastMessageTimestamp: session.LastMessageTimestamp,
		})
		if err != nil {
			return nil, err
		}
	}

	var journal models.ChatMergeJournal

	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.Contacts.AddVisitorID(sc, contact.ID, session.VisitorID); err != nil {
			return err
		}
		journal, err = s.Journal.InsertOne(sc, models.ChatMergeJournal{
			Kind:               models.MergeKindConnect,
			AdminID:            adminID,
			SessionID:          sessionID,
			ContactID:          contact.ID,
			ConversationID:     conversation.ID,
			AnonymousVisitorID: session.VisitorID,
			Step:               models.MergeStepCreated,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.runMigration(ctx, &journal); err != nil {
		logger.GetErrorLogger().WithError(err).WithFields(logrus.Fields{
			"journal_id": journal.ID.Hex(),
			"session_id": sessionID.Hex(),
		}).Error("🔀 [MERGE] connectSessionToContact: phase migrate thất bại, worker sẽ chạy tiếp")
		return nil, common.ErrPartialMerge
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"session_id":      sessionID.Hex(),
		"contact_id":      contact.ID.Hex(),
		"conversation_id": conversation.ID.Hex(),
	}).Info("🔀 [MERGE] connectSessionToContact hoàn tất")

	return &chatdto.ConnectSessionResult{
		ConversationID:     conversation.ID.Hex(),
		AnonymousVisitorID: session.VisitorID,
	}, nil
}

// ResumeIncompleteMerges chạy tiếp mọi journal chưa done. Gọi khi process khởi động
// và định kỳ bởi merge-resume worker. Trả về số journal đã xử lý xong.
func (s *MergeService) ResumeIncompleteMerges(ctx context.Context) (int, error) {
	journals, err := s.Journal.Find(ctx, bson.M{"step": bson.M{"$ne": models.MergeStepDone}}, nil)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for i := range journals {
		j := journals[i]
		if err := s.runMigration(ctx, &j); err != nil {
			logger.GetErrorLogger().WithError(err).WithFields(logrus.Fields{
				"journal_id": j.ID.Hex(),
				"step":       j.Step,
			}).Error("🔀 [MERGE] Resume journal thất bại, sẽ thử lại lần sau")
			continue
		}
		resumed++
	}

	if len(journals) > 0 {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"found":   len(journals),
			"resumed": resumed,
		}).Info("🔀 [MERGE] Đã resume các merge dở dang")
	}

	return resumed, nil
}

// runMigration tiến journal cursor qua các bước còn lại:
// created → messages_copied → messages_deleted → done.
// Mỗi bước idempotent nên chạy lại từ bất kỳ bước nào đều an toàn.
func (s *MergeService) runMigration(ctx context.Context, journal *models.ChatMergeJournal) error {
	if journal.Step == models.MergeStepCreated {
		if err := s.copyMessages(ctx, journal); err != nil {
			return err
		}
		if err := s.advanceStep(ctx, journal, models.MergeStepMessagesCopied); err != nil {
			return err
		}
	}

	if journal.Step == models.MergeStepMessagesCopied {
		// Xóa tin nhắn gốc rồi xóa phiên. DeleteMany 0 bản ghi và session đã mất
		// đều chấp nhận được khi resume.
		if _, err := s.Messages.DeleteMany(ctx, bson.M{"sessionId": journal.SessionID}); err != nil {
			return err
		}
		if err := s.Sessions.DeleteOne(ctx, bson.M{"_id": journal.SessionID}); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if err := s.advanceStep(ctx, journal, models.MergeStepMessagesDeleted); err != nil {
			return err
		}
	}

	if journal.Step == models.MergeStepMessagesDeleted {
		if err := s.advanceStep(ctx, journal, models.MergeStepDone); err != nil {
			return err
		}
	}

	return nil
}

// copyMessages copy toàn bộ tin nhắn của phiên sang conversation, giữ nguyên
// timestamp nên thứ tự được bảo toàn. Upsert theo (conversationId, sourceMessageId)
// nên chạy lại không nhân đôi tin nhắn.
func (s *MergeService) copyMessages(ctx context.Context, journal *models.ChatMergeJournal) error {
	messages, err := s.Messages.SessionMessages(ctx, journal.SessionID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	operations := buildCopyOperations(journal.ConversationID, messages)

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.Messages.Collection().BulkWrite(ctx, operations, opts); err != nil {
		return common.ConvertMongoError(err)
	}

	return nil
}

// buildCopyOperations dựng danh sách upsert chuyển tin nhắn phiên sang
// conversation, theo đúng thứ tự input. Filter khóa theo (conversationId,
// sourceMessageId) nên cùng một batch chạy lại cho ra cùng các filter —
// upsert không nhân đôi tin nhắn.
func buildCopyOperations(conversationID primitive.ObjectID, messages []models.ChatMessage) []mongo.WriteModel {
	operations := make([]mongo.WriteModel, 0, len(messages))
	for _, msg := range messages {
		doc := bson.M{
			"conversationId":  conversationID,
			"adminId":         msg.AdminID,
			"content":         msg.Content,
			"role":            msg.Role,
			"senderId":        msg.SenderID,
			"timestamp":       msg.Timestamp,
			"read":            msg.Read,
			"sourceMessageId": msg.ID.Hex(),
			"updatedAt":       msg.UpdatedAt,
		}
		filter := bson.M{
			"conversationId":  conversationID,
			"sourceMessageId": msg.ID.Hex(),
		}
		update := bson.M{
			"$set":         doc,
			"$setOnInsert": bson.M{"createdAt": msg.CreatedAt},
		}
		operations = append(operations, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}
	return operations
}

// advanceStep ghi bước mới vào journal (cả DB và bản sao trong bộ nhớ).
func (s *MergeService) advanceStep(ctx context.Context, journal *models.ChatMergeJournal, step string) error {
	if _, err := s.Journal.UpdateById(ctx, journal.ID, bson.M{"step": step}); err != nil {
		return err
	}
	journal.Step = step
	return nil
}

// withTransaction chạy fn trong một MongoDB transaction.
func (s *MergeService) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := s.Journal.Collection().Database().Client()

	session, err := client.StartSession()
	if err != nil {
		return common.ConvertMongoError(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}
