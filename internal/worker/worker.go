// Package worker runs periodic background tasks until shutdown.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs
	WorkerID string

	// MaxConcurrency is the maximum number of tasks running at once
	MaxConcurrency int
}

// Task is a unit of periodic work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Worker runs tasks on their intervals
type Worker struct {
	config Config
	tasks  []Task
	logger *slog.Logger
}

// NewWorker creates a new background worker. Tasks with a non-positive
// interval are skipped.
func NewWorker(config Config, logger *slog.Logger, tasks ...Task) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{config: config, logger: logger}
	for _, task := range tasks {
		if task.Interval <= 0 || task.Run == nil {
			logger.Info("task disabled", "task", task.Name)
			continue
		}
		w.tasks = append(w.tasks, task)
	}
	return w
}

// Start runs tasks until ctx is cancelled, then waits for in-flight runs
// to return. It always returns ctx.Err().
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"tasks", len(w.tasks),
		"max_concurrency", w.config.MaxConcurrency,
	)

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	var wg sync.WaitGroup
	for _, task := range w.tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, task, sem)
		}()
	}

	<-ctx.Done()
	w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
	wg.Wait()
	return ctx.Err()
}

func (w *Worker) loop(ctx context.Context, task Task, sem chan struct{}) {
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				w.run(ctx, task)
				<-sem
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) run(ctx context.Context, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("task panicked", "task", task.Name, "panic", r)
		}
	}()

	if err := task.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("task failed",
			"task", task.Name,
			"worker_id", w.config.WorkerID,
			"error", err,
		)
		return
	}
	w.logger.Debug("task completed", "task", task.Name, "duration", time.Since(start))
}
