package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestRunnerExecutesTask kiểm tra task được chạy sau khi submit
func TestRunnerExecutesTask(t *testing.T) {
	r := NewRunner(2, 8)
	defer r.Stop()

	done := make(chan struct{})
	ok := r.Submit(&Task{
		Name: "test.simple",
		Fn: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
	if !ok {
		t.Fatal("Submit phải trả về true khi runner còn mở")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Task không được chạy trong thời gian chờ")
	}
}

// TestRunnerRetriesOnError kiểm tra task lỗi được retry đúng số lần
func TestRunnerRetriesOnError(t *testing.T) {
	r := NewRunner(1, 8)
	defer r.Stop()

	var attempts int32
	done := make(chan struct{})
	r.Submit(&Task{
		Name:       "test.retry",
		MaxRetries: 2,
		Fn: func(ctx context.Context) error {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				return errors.New("tạm thời lỗi")
			}
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Task không thành công sau retry")
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Số lần chạy không đúng: muốn 3, nhận %d", got)
	}
}

// TestRunnerRecoversPanic kiểm tra panic trong task không làm chết worker
func TestRunnerRecoversPanic(t *testing.T) {
	r := NewRunner(1, 8)
	defer r.Stop()

	r.Submit(&Task{
		Name: "test.panic",
		Fn: func(ctx context.Context) error {
			panic("có lỗi nghiêm trọng")
		},
	})

	// Worker phải còn sống để chạy task tiếp theo
	done := make(chan struct{})
	r.Submit(&Task{
		Name: "test.after_panic",
		Fn: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker không còn xử lý task sau panic")
	}
}

// TestRunnerDelay kiểm tra task có Delay không chạy trước thời điểm hẹn
func TestRunnerDelay(t *testing.T) {
	r := NewRunner(1, 8)
	defer r.Stop()

	start := time.Now()
	done := make(chan struct{})
	r.Submit(&Task{
		Name:  "test.delay",
		Delay: 200 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	select {
	case <-done:
		if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
			t.Errorf("Task chạy quá sớm: %v", elapsed)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Task delay không được chạy")
	}
}

// TestRunnerSubmitDuringStop kiểm tra Submit chạy song song với Stop không
// panic (send trên channel đã đóng) và sau Stop mọi Submit đều bị từ chối
func TestRunnerSubmitDuringStop(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := NewRunner(2, 8)

		var wg sync.WaitGroup
		stop := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					r.Submit(&Task{
						Name: "test.concurrent",
						Fn:   func(ctx context.Context) error { return nil },
					})
				}
			}()
		}

		r.Stop()
		close(stop)
		wg.Wait()

		if r.Submit(&Task{
			Name: "test.post_stop",
			Fn:   func(ctx context.Context) error { return nil },
		}) {
			t.Fatal("Submit phải trả về false sau khi runner đã Stop")
		}
	}
}

// TestRunnerStopRejectsSubmit kiểm tra Submit trả về false sau khi Stop
func TestRunnerStopRejectsSubmit(t *testing.T) {
	r := NewRunner(1, 8)
	r.Stop()

	ok := r.Submit(&Task{
		Name: "test.after_stop",
		Fn:   func(ctx context.Context) error { return nil },
	})
	if ok {
		t.Error("Submit phải trả về false sau khi runner đã Stop")
	}
}
