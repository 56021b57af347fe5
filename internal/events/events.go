// Package events cung cấp event bus nội bộ cho các sự kiện chat.
// Handler được chạy như named task trên tasks.Runner thay vì goroutine rời —
// panic được recover, lỗi được retry có giới hạn.
package events

import (
	"context"
	"sync"
	"time"

	"live_support/internal/logger"
	"live_support/internal/tasks"
)

// EventType định danh loại sự kiện
type EventType string

const (
	// SessionCreated phát khi một phiên chat mới được tạo
	SessionCreated EventType = "session.created"
	// MessageCreated phát khi có tin nhắn mới trong phiên
	MessageCreated EventType = "message.created"
	// SessionArchived phát khi phiên được archive thành conversation
	SessionArchived EventType = "session.archived"
	// ContactMerged phát khi hai contact được merge
	ContactMerged EventType = "contact.merged"
)

// Event là payload chung cho mọi sự kiện chat
type Event struct {
	Type      EventType              // Loại sự kiện
	SessionID string                 // ID phiên liên quan (nếu có)
	AdminID   string                 // ID admin sở hữu phiên
	Data      map[string]interface{} // Dữ liệu kèm theo của sự kiện
}

// Handler xử lý một sự kiện; lỗi trả về sẽ được runner retry
type Handler struct {
	Name       string // Tên handler (dùng cho log và task name)
	Delay      time.Duration
	MaxRetries int
	Fn         func(ctx context.Context, ev Event) error
}

// Bus phân phối sự kiện tới các handler đã đăng ký
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	runner   *tasks.Runner
}

// NewBus tạo event bus gắn với tasks.Runner cho trước
func NewBus(runner *tasks.Runner) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		runner:   runner,
	}
}

// Subscribe đăng ký handler cho một loại sự kiện
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Emit phát sự kiện tới tất cả handler đã đăng ký.
// Mỗi handler chạy như một task riêng trên runner, không chặn caller.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	log := logger.GetAppLogger()

	for _, h := range handlers {
		h := h
		ok := b.runner.Submit(&tasks.Task{
			Name:       string(ev.Type) + "/" + h.Name,
			Delay:      h.Delay,
			MaxRetries: h.MaxRetries,
			Fn: func(ctx context.Context) error {
				return h.Fn(ctx, ev)
			},
		})
		if !ok {
			log.WithFields(map[string]interface{}{
				"event":   ev.Type,
				"handler": h.Name,
			}).Error("📢 [EVENTS] Không submit được handler vào runner")
		}
	}
}
