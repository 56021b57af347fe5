package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry[string]()

	isNew, err := r.Register("sessions", "chat_sessions")
	require.NoError(t, err)
	assert.True(t, isNew)

	got, exists := r.Get("sessions")
	assert.True(t, exists)
	assert.Equal(t, "chat_sessions", got)

	// Đăng ký lại cùng tên sẽ ghi đè, isNew = false
	isNew, err = r.Register("sessions", "other")
	require.NoError(t, err)
	assert.False(t, isNew)

	got, _ = r.Get("sessions")
	assert.Equal(t, "other", got)
}

func TestRegistryRegisterEmptyName(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.Register("", "x")
	assert.Error(t, err)
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry[int]()
	_, exists := r.Get("missing")
	assert.False(t, exists)
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry[int]()

	calls := 0
	creator := func() (int, error) {
		calls++
		return 42, nil
	}

	got, err := r.GetOrCreate("answer", creator)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	// Lần hai lấy từ cache, creator không chạy lại
	got, err = r.GetOrCreate("answer", creator)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestRegistryGetOrCreateError(t *testing.T) {
	r := NewRegistry[int]()
	wantErr := errors.New("create failed")

	_, err := r.GetOrCreate("bad", func() (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, exists := r.Get("bad")
	assert.False(t, exists)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.Register("a", "x")
	require.NoError(t, err)

	deleted, err := r.Clear("a", nil)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, exists := r.Get("a")
	assert.False(t, exists)

	deleted, err = r.Clear("a", nil)
	require.NoError(t, err)
	assert.False(t, deleted)
}
