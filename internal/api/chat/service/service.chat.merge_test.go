package chatsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"live_support/internal/api/chat/models"
)

// TestBuildCopyOperationsPreservesOrder kiểm tra các upsert được dựng theo
// đúng thứ tự tin nhắn input
func TestBuildCopyOperationsPreservesOrder(t *testing.T) {
	conversationID := primitive.NewObjectID()
	messages := []models.ChatMessage{
		{ID: primitive.NewObjectID(), Content: "tin thứ nhất", Role: models.RoleUser, Timestamp: 1000},
		{ID: primitive.NewObjectID(), Content: "tin thứ hai", Role: models.RoleAssistant, Timestamp: 2000},
		{ID: primitive.NewObjectID(), Content: "tin thứ ba", Role: models.RoleUser, Timestamp: 3000},
	}

	operations := buildCopyOperations(conversationID, messages)
	require.Len(t, operations, 3)

	for i, op := range operations {
		model, ok := op.(*mongo.UpdateOneModel)
		require.True(t, ok, "Mỗi operation phải là UpdateOneModel")
		require.NotNil(t, model.Upsert)
		assert.True(t, *model.Upsert, "Operation phải là upsert")

		filter, ok := model.Filter.(bson.M)
		require.True(t, ok)
		assert.Equal(t, conversationID, filter["conversationId"])
		assert.Equal(t, messages[i].ID.Hex(), filter["sourceMessageId"],
			"Operation thứ %d phải trỏ đúng tin nhắn thứ %d", i, i)

		update, ok := model.Update.(bson.M)
		require.True(t, ok)
		doc, ok := update["$set"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, messages[i].Content, doc["content"])
		assert.Equal(t, messages[i].Timestamp, doc["timestamp"], "Timestamp gốc phải được giữ nguyên")
	}
}

// TestBuildCopyOperationsIdempotentFilters kiểm tra chạy lại cùng batch cho ra
// cùng các filter — upsert theo (conversationId, sourceMessageId) không nhân đôi
func TestBuildCopyOperationsIdempotentFilters(t *testing.T) {
	conversationID := primitive.NewObjectID()
	messages := []models.ChatMessage{
		{ID: primitive.NewObjectID(), Content: "xin chào", Role: models.RoleUser, Timestamp: 1000},
		{ID: primitive.NewObjectID(), Content: "chào bạn", Role: models.RoleAssistant, Timestamp: 2000},
	}

	first := buildCopyOperations(conversationID, messages)
	second := buildCopyOperations(conversationID, messages)
	require.Len(t, second, len(first))

	for i := range first {
		firstFilter := first[i].(*mongo.UpdateOneModel).Filter.(bson.M)
		secondFilter := second[i].(*mongo.UpdateOneModel).Filter.(bson.M)
		assert.Equal(t, firstFilter, secondFilter, "Lần chạy lại phải nhắm đúng các document cũ")
	}
}

// TestBuildCopyOperationsEmpty kiểm tra batch rỗng không tạo operation nào
func TestBuildCopyOperationsEmpty(t *testing.T) {
	operations := buildCopyOperations(primitive.NewObjectID(), nil)
	assert.Empty(t, operations)
}
