package chatsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"live_support/internal/ai"
	authmodels "live_support/internal/api/auth/models"
	"live_support/internal/api/chat/models"
)

// fakeSessionLeaser ghi lại các lời gọi lease để kiểm tra giao thức giành/trả
type fakeSessionLeaser struct {
	session models.ChatSession
	granted bool

	acquiredHolder string
	releasedHolder string
	releaseCalls   int
	touchCalls     int
}

func (f *fakeSessionLeaser) AcquireAILease(ctx context.Context, sessionID primitive.ObjectID, holderID string, ttl time.Duration) (models.ChatSession, bool, error) {
	if !f.granted {
		return models.ChatSession{}, false, nil
	}
	f.acquiredHolder = holderID
	return f.session, true, nil
}

func (f *fakeSessionLeaser) ReleaseAILease(ctx context.Context, sessionID primitive.ObjectID, holderID string) {
	f.releaseCalls++
	f.releasedHolder = holderID
}

func (f *fakeSessionLeaser) TouchLastMessage(ctx context.Context, sessionID primitive.ObjectID, content string, ts int64) error {
	f.touchCalls++
	return nil
}

type fakeMessageStore struct {
	history []models.ChatMessage

	appendedRole    string
	appendedContent string
	appendCalls     int
}

func (f *fakeMessageStore) AppendToSession(ctx context.Context, sessionID, adminID primitive.ObjectID, role, content, senderID string, ts int64) (models.ChatMessage, error) {
	f.appendCalls++
	f.appendedRole = role
	f.appendedContent = content
	return models.ChatMessage{ID: primitive.NewObjectID(), Role: role, Content: content, Timestamp: time.Now().UnixMilli()}, nil
}

func (f *fakeMessageStore) RecentSessionTurns(ctx context.Context, sessionID primitive.ObjectID, limit int64) ([]models.ChatMessage, error) {
	return f.history, nil
}

type fakeAdminLookup struct {
	u   authmodels.AuthUser
	err error
}

func (f *fakeAdminLookup) FindOneById(ctx context.Context, id primitive.ObjectID) (authmodels.AuthUser, error) {
	return f.u, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateReply(ctx context.Context, systemInstruction string, turns []ai.Turn) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestOrchestrator(leaser *fakeSessionLeaser, store *fakeMessageStore, gen *fakeGenerator) *Orchestrator {
	return &Orchestrator{
		Sessions:     leaser,
		Messages:     store,
		Users:        &fakeAdminLookup{},
		Generator:    gen,
		LeaseTTL:     5 * time.Minute,
		ContextLimit: 20,
	}
}

// TestRespondToMessageLeaseNotAcquired kiểm tra khi không giành được lease:
// không gọi provider, không ghi message, không trả lease của người khác
func TestRespondToMessageLeaseNotAcquired(t *testing.T) {
	leaser := &fakeSessionLeaser{granted: false}
	store := &fakeMessageStore{}
	gen := &fakeGenerator{reply: "xin chào"}
	o := newTestOrchestrator(leaser, store, gen)

	err := o.RespondToMessage(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)

	assert.Zero(t, gen.calls, "Provider không được gọi khi mất lease")
	assert.Zero(t, store.appendCalls, "Không được ghi message khi mất lease")
	assert.Zero(t, leaser.releaseCalls, "Không được trả lease mình không giữ")
}

// TestRespondToMessageReleasesLeaseOnProviderError kiểm tra lỗi provider:
// lease vẫn được trả đúng holder, không có assistant message, không trả lỗi lên caller
func TestRespondToMessageReleasesLeaseOnProviderError(t *testing.T) {
	leaser := &fakeSessionLeaser{granted: true, session: models.ChatSession{ID: primitive.NewObjectID(), AdminID: primitive.NewObjectID()}}
	store := &fakeMessageStore{}
	gen := &fakeGenerator{err: errors.New("provider quá tải")}
	o := newTestOrchestrator(leaser, store, gen)

	err := o.RespondToMessage(context.Background(), leaser.session.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, leaser.releaseCalls, "Lease phải được trả kể cả khi provider lỗi")
	assert.Equal(t, leaser.acquiredHolder, leaser.releasedHolder, "Trả lease phải dùng đúng holder đã giành")
	assert.Zero(t, store.appendCalls, "Lỗi provider không được tạo assistant message")
}

// TestRespondToMessageSuccess kiểm tra đường thành công: ghi message role
// assistant với nội dung provider trả về, cập nhật preview, trả lease
func TestRespondToMessageSuccess(t *testing.T) {
	leaser := &fakeSessionLeaser{granted: true, session: models.ChatSession{ID: primitive.NewObjectID(), AdminID: primitive.NewObjectID()}}
	store := &fakeMessageStore{}
	gen := &fakeGenerator{reply: "Chúng tôi mở cửa từ 8h đến 17h."}
	o := newTestOrchestrator(leaser, store, gen)

	err := o.RespondToMessage(context.Background(), leaser.session.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, store.appendCalls)
	assert.Equal(t, models.RoleAssistant, store.appendedRole)
	assert.Equal(t, "Chúng tôi mở cửa từ 8h đến 17h.", store.appendedContent)
	assert.Equal(t, 1, leaser.touchCalls, "Preview phiên phải được cập nhật")
	assert.Equal(t, 1, leaser.releaseCalls)
	assert.Equal(t, leaser.acquiredHolder, leaser.releasedHolder)
}

// TestRespondToMessageEmptyReply kiểm tra reply rỗng: không ghi message nhưng lease vẫn được trả
func TestRespondToMessageEmptyReply(t *testing.T) {
	leaser := &fakeSessionLeaser{granted: true, session: models.ChatSession{ID: primitive.NewObjectID(), AdminID: primitive.NewObjectID()}}
	store := &fakeMessageStore{}
	gen := &fakeGenerator{reply: ""}
	o := newTestOrchestrator(leaser, store, gen)

	err := o.RespondToMessage(context.Background(), leaser.session.ID)
	require.NoError(t, err)

	assert.Zero(t, store.appendCalls, "Reply rỗng không được tạo message")
	assert.Equal(t, 1, leaser.releaseCalls)
}
