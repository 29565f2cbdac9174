package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context)

type queuedTask struct {
	name string
	run  Task
}

// TaskQueue runs best-effort side effects off the request path. Submit never
// blocks; a full queue drops the task and logs it. Each task runs behind its
// own recover boundary and timeout.
type TaskQueue struct {
	tasks       chan queuedTask
	taskTimeout time.Duration
	log         *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewTaskQueue(size, workers int, taskTimeout time.Duration, log *zap.Logger) *TaskQueue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	if taskTimeout <= 0 {
		taskTimeout = 2 * time.Minute
	}
	q := &TaskQueue{
		tasks:       make(chan queuedTask, size),
		taskTimeout: taskTimeout,
		log:         log,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *TaskQueue) Submit(name string, task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.log.Warn("Task queue closed, dropping task", zap.String("task", name))
		return false
	}
	select {
	case q.tasks <- queuedTask{name: name, run: task}:
		return true
	default:
		q.log.Error("Task queue full, dropping task", zap.String("task", name))
		return false
	}
}

func (q *TaskQueue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *TaskQueue) run(t queuedTask) {
	ctx, cancel := context.WithTimeout(context.Background(), q.taskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Background task panicked", zap.String("task", t.name), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	t.run(ctx)
}

// Shutdown stops accepting tasks and waits for queued ones to finish or ctx to expire.
func (q *TaskQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
