package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blrtoday/eventpipe/app/cfg"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler owns the serve-mode background work: a ticker enqueues a
// pipeline run every interval, and a small worker pool drains the queue.
// Failed tasks are re-enqueued with capped exponential backoff.
type Scheduler struct {
	runner    PipelineRunner
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

// Pipeline runs are heavyweight; one at a time is enough and keeps
// concurrent runs from racing on the checkpoint files.
const schedulerWorkers = 1

func NewScheduler(runner PipelineRunner) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		runner:    runner,
		interval:  time.Duration(c.SchedulerInterval) * time.Second,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 8),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < schedulerWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if err := s.EnqueueTask(NewRunPipelineTask("startup", s.runner)); err != nil {
			slog.Warn("Failed to enqueue startup pipeline run", "error", err)
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.EnqueueTask(NewRunPipelineTask("schedule", s.runner)); err != nil {
					slog.Warn("Failed to enqueue scheduled pipeline run", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 30*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed",
		"worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(),
		"retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries",
			"type", string(task.GetType()), "id", task.GetID(),
			"retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Minute
	if retryDelay > 10*time.Minute {
		retryDelay = 10 * time.Minute
	}

	slog.Warn("Task retry scheduled",
		"type", string(task.GetType()), "id", task.GetID(),
		"retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(),
		"delay", retryDelay.String())

	// Tracked by the WaitGroup so Stop cannot close the queue while a
	// pending retry still holds a send case on it.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-time.After(retryDelay):
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry",
				"type", string(task.GetType()), "id", task.GetID())
			return
		}
		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry",
				"type", string(task.GetType()), "id", task.GetID(),
				"retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
