package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConvertMongoErrorNil(t *testing.T) {
	assert.Nil(t, ConvertMongoError(nil))
}

func TestConvertMongoErrorNoDocuments(t *testing.T) {
	err := ConvertMongoError(mongo.ErrNoDocuments)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConvertMongoErrorKeepsNotFound(t *testing.T) {
	// ErrNotFound đã convert rồi thì giữ nguyên, không bị map sang lỗi khác
	err := ConvertMongoError(ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConvertMongoErrorDuplicateKey(t *testing.T) {
	dupErr := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{Code: 11000, Message: "E11000 duplicate key error"},
		},
	}
	err := ConvertMongoError(dupErr)
	assert.True(t, errors.Is(err, ErrMongoDuplicate))
}

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("tìm session: %w", ErrNotOwner)
	assert.True(t, errors.Is(wrapped, ErrNotOwner))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestErrorAsExposesStatusCode(t *testing.T) {
	var appErr *Error
	assert.True(t, errors.As(ErrNotOwner, &appErr))
	assert.Equal(t, StatusForbidden, appErr.StatusCode)
	assert.Equal(t, ErrCodeAuthOwnership.Code, appErr.Code.Code)
}
