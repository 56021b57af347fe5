package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"live_support/internal/tasks"
)

// TestBusDispatchesToSubscribers kiểm tra mọi handler đã đăng ký đều nhận sự kiện
func TestBusDispatchesToSubscribers(t *testing.T) {
	r := tasks.NewRunner(2, 16)
	defer r.Stop()
	bus := NewBus(r)

	var count int32
	done := make(chan struct{}, 2)
	handler := func(name string) Handler {
		return Handler{
			Name: name,
			Fn: func(ctx context.Context, ev Event) error {
				if ev.SessionID != "s1" {
					t.Errorf("SessionID không đúng: %s", ev.SessionID)
				}
				atomic.AddInt32(&count, 1)
				done <- struct{}{}
				return nil
			},
		}
	}
	bus.Subscribe(MessageCreated, handler("h1"))
	bus.Subscribe(MessageCreated, handler("h2"))

	bus.Emit(Event{Type: MessageCreated, SessionID: "s1"})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Handler không nhận được sự kiện")
		}
	}
	if got := atomic.LoadInt32(&count); got != 2 {
		t.Errorf("Số handler được gọi: muốn 2, nhận %d", got)
	}
}

// TestBusIgnoresUnsubscribedEvents kiểm tra sự kiện không có handler không gây lỗi
func TestBusIgnoresUnsubscribedEvents(t *testing.T) {
	r := tasks.NewRunner(1, 4)
	defer r.Stop()
	bus := NewBus(r)

	// Không panic, không chặn
	bus.Emit(Event{Type: SessionArchived, SessionID: "s2"})
}

// TestBusHandlerFiltersByType kiểm tra handler chỉ nhận đúng loại sự kiện đã đăng ký
func TestBusHandlerFiltersByType(t *testing.T) {
	r := tasks.NewRunner(1, 8)
	defer r.Stop()
	bus := NewBus(r)

	var wrongType int32
	done := make(chan struct{})
	bus.Subscribe(SessionCreated, Handler{
		Name: "only_session",
		Fn: func(ctx context.Context, ev Event) error {
			if ev.Type != SessionCreated {
				atomic.AddInt32(&wrongType, 1)
			}
			close(done)
			return nil
		},
	})

	bus.Emit(Event{Type: MessageCreated, SessionID: "s3"})
	bus.Emit(Event{Type: SessionCreated, SessionID: "s3"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handler không nhận sự kiện SessionCreated")
	}
	if atomic.LoadInt32(&wrongType) != 0 {
		t.Error("Handler nhận sự kiện sai loại")
	}
}
