// Package scheduler runs the periodic provider and database checks on cron
// schedules and lets operators trigger them by hand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskAlreadyRunning = errors.New("task is already running")
)

type TaskFunc func(ctx context.Context) error

// TaskConfig describes a check. Cron uses the five-field format.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string
	Func        TaskFunc
	RunOnStart  bool
	Timeout     time.Duration // zero means no limit
}

// TaskInfo is the API view of a task and its recent outcome.
type TaskInfo struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Cron                string     `json:"cron"`
	Running             bool       `json:"running"`
	Runs                int        `json:"runs"`
	LastRun             *time.Time `json:"lastRun,omitempty"`
	LastDurationMs      int64      `json:"lastDurationMs,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	NextRun             *time.Time `json:"nextRun,omitempty"`
}

// outcome is the mutable state of one task, guarded by Scheduler.mu.
type outcome struct {
	running  bool
	runs     int
	lastRun  *time.Time
	duration time.Duration
	lastErr  error
	failures int
}

type task struct {
	cfg TaskConfig
	job gocron.Job
	outcome
}

type Scheduler struct {
	cron   gocron.Scheduler
	mu     sync.RWMutex
	tasks  map[string]*task
	manual sync.WaitGroup

	// ctx is the parent of every run; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

func New(logger zerolog.Logger) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron,
		tasks:  make(map[string]*task),
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// RegisterTask adds a check. RunOnStart checks fire as soon as the scheduler starts.
func (s *Scheduler) RegisterTask(cfg TaskConfig) error {
	if cfg.Func == nil {
		return fmt.Errorf("task %q has no function", cfg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.tasks[cfg.ID]; dup {
		return fmt.Errorf("task with ID %q already registered", cfg.ID)
	}

	opts := []gocron.JobOption{
		gocron.WithName(cfg.Name),
		gocron.WithTags(cfg.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if cfg.RunOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	id := cfg.ID
	job, err := s.cron.NewJob(gocron.CronJob(cfg.Cron, false), gocron.NewTask(func() { s.runTask(id) }), opts...)
	if err != nil {
		return fmt.Errorf("failed to schedule task %q: %w", cfg.ID, err)
	}
	s.tasks[cfg.ID] = &task{cfg: cfg, job: job}

	s.logger.Info().Str("task", cfg.ID).Str("cron", cfg.Cron).Bool("runOnStart", cfg.RunOnStart).Msg("Registered task")
	return nil
}

// claim marks a task running. It fails if the task is unknown or busy.
func (s *Scheduler) claim(id string) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	case t.running:
		return nil, fmt.Errorf("%w: %q", ErrTaskAlreadyRunning, id)
	}
	t.running = true
	return t, nil
}

// runTask is the gocron entry point. A cron tick that lands while a manual
// run is in flight is skipped.
func (s *Scheduler) runTask(id string) {
	t, err := s.claim(id)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Skipping scheduled run")
		return
	}
	s.execute(t)
}

func (s *Scheduler) execute(t *task) {
	ctx := s.ctx
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	err := t.cfg.Func(ctx)
	elapsed := time.Since(started)

	s.mu.Lock()
	t.running = false
	t.runs++
	t.lastRun = &started
	t.duration = elapsed
	t.lastErr = err
	if err != nil {
		t.failures++
	} else {
		t.failures = 0
	}
	failures := t.failures
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("task", t.cfg.ID).Dur("duration", elapsed).Int("consecutiveFailures", failures).Msg("Task failed")
		return
	}
	s.logger.Debug().Str("task", t.cfg.ID).Dur("duration", elapsed).Msg("Task completed")
}

func (s *Scheduler) Start() error {
	s.mu.RLock()
	count := len(s.tasks)
	s.mu.RUnlock()

	s.logger.Info().Int("tasks", count).Msg("Starting scheduler")
	s.cron.Start()
	return nil
}

// Stop cancels in-flight checks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	err := s.cron.Shutdown()
	s.manual.Wait()
	s.logger.Info().Msg("Scheduler stopped")
	return err
}

// RunNow starts a task in the background outside its schedule.
func (s *Scheduler) RunNow(id string) error {
	t, err := s.claim(id)
	if err != nil {
		return err
	}

	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.execute(t)
	}()
	return nil
}

// ListTasks returns every task sorted by ID.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Scheduler) GetTask(id string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	info := t.info()
	return &info, nil
}

func (t *task) info() TaskInfo {
	info := TaskInfo{
		ID:                  t.cfg.ID,
		Name:                t.cfg.Name,
		Description:         t.cfg.Description,
		Cron:                t.cfg.Cron,
		Running:             t.running,
		Runs:                t.runs,
		LastRun:             t.lastRun,
		LastDurationMs:      t.duration.Milliseconds(),
		ConsecutiveFailures: t.failures,
	}
	if t.lastErr != nil {
		info.LastError = t.lastErr.Error()
	}
	if next, err := t.job.NextRun(); err == nil && !next.IsZero() {
		info.NextRun = &next
	}
	return info
}
