package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/metrics"
)

// JobStatus is the queryable operational record of one named job.
type JobStatus struct {
	Name           string     `json:"name"`
	Interval       string     `json:"interval"`
	LastRunAt      *time.Time `json:"last_run_at"`
	LastStatus     string     `json:"last_status"`
	LastError      string     `json:"last_error,omitempty"`
	LastDurationMS int64      `json:"last_duration_ms"`
}

const (
	statusNever   = "never"
	statusOK      = "ok"
	statusError   = "error"
	statusSkipped = "skipped"
)

// ServiceParams configure the job runner.
type ServiceParams struct {
	Logger  *logger.Logger
	Lock    Lock
	Metrics *metrics.CronJobMetrics
	Jobs    []Job
}

// Service runs named jobs, each on its own cadence, and tracks last-run
// state for operational introspection. A slow job delays its own next tick;
// it never blocks the other jobs.
type Service struct {
	logg    *logger.Logger
	lock    Lock
	metrics *metrics.CronJobMetrics
	jobs    map[string]Job
	order   []string

	mtx      sync.RWMutex
	statuses map[string]*JobStatus
}

// NewService builds a job runner over the provided jobs.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if len(params.Jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}

	jobs := make(map[string]Job, len(params.Jobs))
	statuses := make(map[string]*JobStatus, len(params.Jobs))
	order := make([]string, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job == nil {
			continue
		}
		if _, exists := jobs[job.Name()]; exists {
			return nil, fmt.Errorf("duplicate job name %q", job.Name())
		}
		jobs[job.Name()] = job
		statuses[job.Name()] = &JobStatus{
			Name:       job.Name(),
			Interval:   job.Interval().String(),
			LastStatus: statusNever,
		}
		order = append(order, job.Name())
	}

	return &Service{
		logg:     params.Logger,
		lock:     params.Lock,
		metrics:  params.Metrics,
		jobs:     jobs,
		order:    order,
		statuses: statuses,
	}, nil
}

// Run starts one ticker loop per job and blocks until the context is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var wg sync.WaitGroup
	for _, name := range s.order {
		job := s.jobs[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, job)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Service) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	s.runLocked(ctx, job)
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(s.logg.WithJob(ctx, job.Name()), "job loop stopped")
			return
		case <-ticker.C:
			s.runLocked(ctx, job)
		}
	}
}

// runLocked executes a scheduled run under the distributed lock so only one
// worker instance runs a given job per tick.
func (s *Service) runLocked(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name())

	acquired, err := s.lock.Acquire(ctx, job.Name())
	if err != nil {
		s.logg.Error(jobCtx, "job lock acquire failed", err)
		s.record(job.Name(), statusError, err, 0)
		return
	}
	if !acquired {
		s.logg.Info(jobCtx, "another instance holds the job lock; skipping")
		s.record(job.Name(), statusSkipped, nil, 0)
		return
	}
	defer func() {
		if relErr := s.lock.Release(ctx, job.Name()); relErr != nil {
			s.logg.Error(jobCtx, "job lock release failed", relErr)
		}
	}()

	s.execute(ctx, job)
}

// execute runs the job once, recording duration, status, and metrics.
// Panics are contained: a misbehaving job must not take the loop down.
func (s *Service) execute(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	s.logg.Info(jobCtx, "job start")

	start := time.Now()
	err := s.runSafely(jobCtx, job)
	duration := time.Since(start)

	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		s.record(job.Name(), statusError, err, duration.Milliseconds())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	s.record(job.Name(), statusOK, nil, duration.Milliseconds())
}

func (s *Service) runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}

// RunManually triggers one job by name, bypassing the schedule and the
// distributed lock. Unknown names are a validation error with no state
// change.
func (s *Service) RunManually(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown job %q", name))
	}
	s.execute(ctx, job)

	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if status := s.statuses[name]; status.LastStatus == statusError {
		return fmt.Errorf("job %s failed: %s", name, status.LastError)
	}
	return nil
}

// Status returns the current record for every registered job, in
// registration order.
func (s *Service) Status() []JobStatus {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.statuses[name])
	}
	return out
}

func (s *Service) record(name, status string, err error, durationMS int64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	entry := s.statuses[name]
	now := time.Now().UTC()
	entry.LastRunAt = &now
	entry.LastStatus = status
	entry.LastDurationMS = durationMS
	if err != nil {
		entry.LastError = err.Error()
	} else {
		entry.LastError = ""
	}
}
