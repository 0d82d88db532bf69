package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/metrics"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const DefaultInterval = time.Hour

type Options struct {
	Interval     time.Duration
	FullRefresh  bool
	FirstRunFlag string
}

// CycleStatus describes the most recently finished update cycle
type CycleStatus struct {
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	Duration      time.Duration `json:"duration"`
	Stored        int           `json:"stored"`
	Sources       int           `json:"sources"`
	FailedSources int           `json:"failed_sources"`
	StoreSize     int           `json:"store_size"`
	Error         string        `json:"error,omitempty"`
}

type Scheduler struct {
	sources  SourceProvider
	sessions database.SessionFactory
	scraper  SourceScraper
	cache    CacheFlusher
	metrics  *metrics.Metrics
	options  Options

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface

	mu        sync.RWMutex
	lastCycle CycleStatus
}

func NewScheduler(sources SourceProvider, sessions database.SessionFactory, scraper SourceScraper,
	cache CacheFlusher, m *metrics.Metrics, options Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}

	return &Scheduler{
		sources:   sources,
		sessions:  sessions,
		scraper:   scraper,
		cache:     cache,
		metrics:   m,
		options:   options,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 10),
	}
}

// Start launches the update loop. A pending full refresh clears the store
// first, then a cycle runs immediately and again on every interval tick or
// Trigger call.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.fullRefreshPending() {
			if err := s.executeTask(NewClearStoreTask(s.sessions)); err == nil {
				s.markFirstRun()
			}
		}

		s.executeTask(s.newCycleTask())

		ticker := time.NewTicker(s.options.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.executeTask(s.newCycleTask())
			case task := <-s.taskQueue:
				s.executeTask(task)
			}
		}
	}()
}

// Stop cancels in-flight work and waits for the loop to exit
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Trigger requests an extra update cycle
func (s *Scheduler) Trigger() error {
	return s.EnqueueTask(s.newCycleTask())
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) LastCycle() CycleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCycle
}

func (s *Scheduler) newCycleTask() *UpdateCycleTask {
	return NewUpdateCycleTask(s.sources, s.sessions, s.scraper)
}

func (s *Scheduler) executeTask(task TaskInterface) (err error) {
	task.Start()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			slog.Error("Task panicked", "type", string(task.GetType()), "id", task.GetID(), "panic", r)
		}
		s.afterTask(task, err)
	}()

	err = task.Execute(s.ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}

	return err
}

func (s *Scheduler) afterTask(task TaskInterface, err error) {
	if s.cache != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if flushErr := s.cache.Flush(flushCtx); flushErr != nil {
			slog.Warn("Failed to flush cache", "error", flushErr)
		}
	}

	cycle, ok := task.(*UpdateCycleTask)
	if !ok {
		return
	}

	status := CycleStatus{
		StartedAt:     cycle.StartedAt,
		Duration:      cycle.GetDuration(),
		Stored:        cycle.Stored,
		Sources:       cycle.SourceCount,
		FailedSources: cycle.FailedSources,
		StoreSize:     cycle.StoreSize,
	}

	result := "completed"
	if err != nil {
		status.Error = err.Error()
		result = "failed"
	}

	s.metrics.RecordCycle(result, status.Stored, status.Duration)

	s.mu.Lock()
	s.lastCycle = status
	s.mu.Unlock()
}

func (s *Scheduler) fullRefreshPending() bool {
	if s.options.FullRefresh {
		return true
	}
	if s.options.FirstRunFlag == "" {
		return false
	}

	_, err := os.Stat(s.options.FirstRunFlag)
	return errors.Is(err, os.ErrNotExist)
}

func (s *Scheduler) markFirstRun() {
	if s.options.FirstRunFlag == "" {
		return
	}
	if err := os.WriteFile(s.options.FirstRunFlag, []byte("1"), 0644); err != nil {
		slog.Warn("Failed to write first run flag", "path", s.options.FirstRunFlag, "error", err)
	}
}
