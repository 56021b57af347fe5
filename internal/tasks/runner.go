// Package tasks cung cấp supervised task runner cho các background task
// (welcome message, pre-identification, notification fan-out, ...).
// Thay vì fire-and-forget goroutine, mỗi task có tên, retry giới hạn và
// panic recovery — lỗi được log và retry thay vì biến mất không dấu vết.
package tasks

import (
	"context"
	"math"
	"sync"
	"time"

	"live_support/internal/logger"
)

// Task là một đơn vị công việc chạy nền
type Task struct {
	Name       string                          // Tên task (dùng cho log)
	Delay      time.Duration                   // Trễ trước khi chạy lần đầu (0 = chạy ngay)
	MaxRetries int                             // Số lần retry tối đa khi Fn trả về lỗi
	Fn         func(ctx context.Context) error // Công việc cần chạy

	attempt int // Số lần đã chạy (internal)
}

// Runner là worker pool xử lý các task nền với retry và panic recovery
type Runner struct {
	queue   chan *Task
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewRunner tạo Runner với số worker và kích thước queue cho trước
// Tham số:
//   - workers: Số goroutine xử lý task (mặc định 4 nếu <= 0)
//   - queueSize: Kích thước buffer của queue (mặc định 256 nếu <= 0)
func NewRunner(workers, queueSize int) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		queue:   make(chan *Task, queueSize),
		baseCtx: ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	return r
}

// Submit đưa task vào queue. Nếu task có Delay, task được schedule sau Delay.
// Trả về false nếu runner đã đóng hoặc queue đầy (task bị bỏ, đã log).
func (r *Runner) Submit(task *Task) bool {
	log := logger.GetAppLogger()

	if task.Delay > 0 {
		delay := task.Delay
		task.Delay = 0
		time.AfterFunc(delay, func() {
			r.Submit(task)
		})
		return true
	}

	// Giữ lock qua cả lệnh gửi: Stop đóng queue dưới cùng lock này nên
	// không thể có send trên channel đã đóng. Send là non-blocking (select
	// với default) nên không giữ lock lâu.
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		log.WithField("task", task.Name).Warn("⚙️ [TASKS] Runner đã đóng, bỏ task")
		return false
	}

	select {
	case r.queue <- task:
		return true
	default:
		log.WithField("task", task.Name).Error("⚙️ [TASKS] Queue đầy, bỏ task")
		return false
	}
}

// worker xử lý task tuần tự từ queue
func (r *Runner) worker() {
	defer r.wg.Done()

	for task := range r.queue {
		r.runTask(task)
	}
}

// runTask chạy một task với recover; lỗi được retry với exponential backoff
func (r *Runner) runTask(task *Task) {
	log := logger.GetAppLogger()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(map[string]interface{}{
					"task":  task.Name,
					"panic": rec,
				}).Error("⚙️ [TASKS] Panic trong task, đã recover")
				err = nil // panic không retry — trạng thái task không xác định
			}
		}()
		return task.Fn(r.baseCtx)
	}()

	if err == nil {
		return
	}

	task.attempt++
	if task.attempt > task.MaxRetries {
		log.WithError(err).WithFields(map[string]interface{}{
			"task":     task.Name,
			"attempts": task.attempt,
		}).Error("⚙️ [TASKS] Task thất bại, đã hết retry")
		return
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(math.Pow(2, float64(task.attempt-1))) * time.Second
	log.WithError(err).WithFields(map[string]interface{}{
		"task":    task.Name,
		"attempt": task.attempt,
		"backoff": backoff.String(),
	}).Warn("⚙️ [TASKS] Task lỗi, sẽ retry")

	time.AfterFunc(backoff, func() {
		r.Submit(task)
	})
}

// Stop đóng runner và chờ các task đang chạy hoàn tất
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()
}
