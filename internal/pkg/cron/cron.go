package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	ErrJobNotFound = errors.New("cron job not found")
	ErrJobRunning  = errors.New("cron job is already running")
)

// JobStatus represents the last known state of a job.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

// Job defines a scheduled background task. Spec is a standard five-field
// cron expression or a descriptor such as "@every 1h".
type Job struct {
	Name        string
	Description string
	Spec        string
	Fn          func(ctx context.Context) error
}

// JobState holds runtime state for a registered job.
type JobState struct {
	Job
	Status    JobStatus
	Message   string
	LastRunAt *time.Time
	entryID   robfig.EntryID
	mu        sync.Mutex
}

// ListItem is the serializable representation of a job for the API.
type ListItem struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Spec        string     `json:"spec"`
	Status      JobStatus  `json:"status"`
	NextDate    *time.Time `json:"nextDate"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
}

// TaskResult is returned when polling task execution status.
type TaskResult struct {
	Status  JobStatus `json:"status"` // "fulfill" | "reject" | "running" | "idle"
	Message string    `json:"message,omitempty"`
}

// Scheduler manages a collection of named cron jobs.
type Scheduler struct {
	mu     sync.RWMutex
	jobs   map[string]*JobState
	engine *robfig.Cron
	logger *zap.Logger
	ctx    context.Context
}

type Option func(*Scheduler)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation evaluates cron expressions in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.engine = robfig.New(robfig.WithLocation(loc))
		}
	}
}

// New creates an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:   make(map[string]*JobState),
		engine: robfig.New(),
		logger: zap.NewNop(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job to the scheduler. Must be called before Start.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	js := &JobState{Job: job, Status: StatusIdle}
	id, err := s.engine.AddFunc(job.Spec, func() { s.execute(s.runContext(), js) })
	if err != nil {
		return fmt.Errorf("job %q: invalid schedule %q: %w", job.Name, job.Spec, err)
	}
	js.entryID = id
	s.jobs[job.Name] = js
	return nil
}

// Start runs the scheduler until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.engine.Start()
	go func() {
		<-ctx.Done()
		<-s.engine.Stop().Done()
	}()
}

func (s *Scheduler) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// execute runs the job unless a previous run is still in flight.
func (s *Scheduler) execute(ctx context.Context, js *JobState) {
	if !js.claim() {
		s.logger.Warn("cron job still running, skipping tick", zap.String("job", js.Name))
		return
	}
	s.runClaimed(ctx, js)
}

func (js *JobState) claim() bool {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.Status == StatusRunning {
		return false
	}
	js.Status = StatusRunning
	return true
}

func (s *Scheduler) runClaimed(ctx context.Context, js *JobState) {
	now := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.LastRunAt = &now
	if err != nil {
		js.Status = StatusReject
		js.Message = err.Error()
	} else {
		js.Status = StatusFulfill
		js.Message = ""
	}
	js.mu.Unlock()

	if err != nil {
		s.logger.Error("cron job failed", zap.String("job", js.Name), zap.Error(err))
	} else {
		s.logger.Info("cron job finished", zap.String("job", js.Name), zap.Duration("took", time.Since(now)))
	}
}

func (s *Scheduler) lookup(name string) (*JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	js, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	return js, nil
}

// Run starts a job out of schedule and returns without waiting for it.
// It fails with ErrJobRunning while a previous run is in flight.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	js, err := s.lookup(name)
	if err != nil {
		return err
	}
	if !js.claim() {
		return fmt.Errorf("%w: %q", ErrJobRunning, name)
	}
	go s.runClaimed(ctx, js)
	return nil
}

// GetTask returns the current execution state of a job.
func (s *Scheduler) GetTask(name string) (*TaskResult, error) {
	js, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return &TaskResult{Status: js.Status, Message: js.Message}, nil
}

// List returns a summary of all registered jobs, ordered by name.
func (s *Scheduler) List() []ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ListItem, 0, len(s.jobs))
	for _, js := range s.jobs {
		var next *time.Time
		if entry := s.engine.Entry(js.entryID); !entry.Next.IsZero() {
			n := entry.Next
			next = &n
		}
		js.mu.Lock()
		items = append(items, ListItem{
			Name:        js.Name,
			Description: js.Description,
			Spec:        js.Spec,
			Status:      js.Status,
			NextDate:    next,
			LastRunAt:   js.LastRunAt,
		})
		js.mu.Unlock()
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
