package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
)

type stubJob struct {
	name     string
	interval time.Duration
	runFn    func(ctx context.Context) error
	runs     int
}

func (j *stubJob) Name() string            { return j.name }
func (j *stubJob) Interval() time.Duration { return j.interval }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	if j.runFn != nil {
		return j.runFn(ctx)
	}
	return nil
}

func newTestRunner(t *testing.T, jobList ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "jobs-test"}),
		Lock:   NoopLock{},
		Jobs:   jobList,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestRunManuallyUpdatesStatus(t *testing.T) {
	job := &stubJob{name: "calculate-payouts", interval: time.Hour}
	svc := newTestRunner(t, job)

	if err := svc.RunManually(context.Background(), "calculate-payouts"); err != nil {
		t.Fatalf("RunManually error: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected job to run once, got %d", job.runs)
	}

	statuses := svc.Status()
	if len(statuses) != 1 {
		t.Fatalf("expected one status entry")
	}
	if statuses[0].LastStatus != statusOK || statuses[0].LastRunAt == nil {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
}

func TestRunManuallyUnknownJob(t *testing.T) {
	svc := newTestRunner(t, &stubJob{name: "calculate-payouts", interval: time.Hour})

	err := svc.RunManually(context.Background(), "reticulate-splines")
	if err == nil {
		t.Fatalf("expected validation error for unknown job")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestRunManuallySurfacesJobError(t *testing.T) {
	job := &stubJob{
		name:     "process-outbox",
		interval: time.Hour,
		runFn:    func(ctx context.Context) error { return errors.New("sink unavailable") },
	}
	svc := newTestRunner(t, job)

	if err := svc.RunManually(context.Background(), "process-outbox"); err == nil {
		t.Fatalf("expected job error to surface")
	}
	statuses := svc.Status()
	if statuses[0].LastStatus != statusError || statuses[0].LastError == "" {
		t.Fatalf("status should record the failure: %+v", statuses[0])
	}
}

func TestJobPanicIsContained(t *testing.T) {
	job := &stubJob{
		name:     "cleanup-outbox",
		interval: time.Hour,
		runFn:    func(ctx context.Context) error { panic("boom") },
	}
	svc := newTestRunner(t, job)

	if err := svc.RunManually(context.Background(), "cleanup-outbox"); err == nil {
		t.Fatalf("panic should surface as error, not crash")
	}
	if svc.Status()[0].LastStatus != statusError {
		t.Fatalf("panic must be recorded as failure")
	}
}

func TestStatusBeforeAnyRun(t *testing.T) {
	svc := newTestRunner(t,
		&stubJob{name: "calculate-payouts", interval: time.Hour},
		&stubJob{name: "process-outbox", interval: time.Minute},
	)

	statuses := svc.Status()
	if len(statuses) != 2 {
		t.Fatalf("expected two entries, got %d", len(statuses))
	}
	for _, status := range statuses {
		if status.LastStatus != statusNever || status.LastRunAt != nil {
			t.Fatalf("expected untouched status, got %+v", status)
		}
	}
	if statuses[0].Name != "calculate-payouts" || statuses[1].Name != "process-outbox" {
		t.Fatalf("statuses must keep registration order")
	}
}

func TestNewServiceRejectsDuplicates(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "jobs-test"}),
		Lock:   NoopLock{},
		Jobs: []Job{
			&stubJob{name: "calculate-payouts", interval: time.Hour},
			&stubJob{name: "calculate-payouts", interval: time.Minute},
		},
	})
	if err == nil {
		t.Fatalf("expected duplicate job name error")
	}
}

func TestScheduledRunSkipsWhenLockHeld(t *testing.T) {
	job := &stubJob{name: "calculate-payouts", interval: time.Hour}
	svc, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "jobs-test"}),
		Lock:   deniedLock{},
		Jobs:   []Job{job},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	svc.runLocked(context.Background(), job)
	if job.runs != 0 {
		t.Fatalf("job must not run without the lock")
	}
	if svc.Status()[0].LastStatus != statusSkipped {
		t.Fatalf("skip must be recorded: %+v", svc.Status()[0])
	}
}

type deniedLock struct{}

func (deniedLock) Acquire(ctx context.Context, job string) (bool, error) { return false, nil }
func (deniedLock) Release(ctx context.Context, job string) error         { return nil }
