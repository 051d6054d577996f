package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, id string, want jobs.JobStatus) *jobs.RefreshInsightsJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), id)
	t.Fatalf("job %s did not reach %s, last state %+v", id, want, job)
	return nil
}

func TestQueue_PublishAndProcess(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1))
	defer q.Close()

	ctx := context.Background()
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error { return nil }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.RefreshInsightsJob{Reason: "test"}
	if err := q.PublishRefreshInsights(ctx, job); err != nil {
		t.Fatalf("PublishRefreshInsights() error = %v", err)
	}
	if job.JobID == "" {
		t.Fatal("JobID was not assigned")
	}
	if job.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", job.MaxRetries, defaultMaxRetries)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("timestamps not recorded: %+v", done)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1), WithBackoff(time.Millisecond))
	defer q.Close()

	var attempts int32
	handler := func(ctx context.Context, job jobs.Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("source unavailable")
		}
		return nil
	}

	ctx := context.Background()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	job := &jobs.RefreshInsightsJob{}
	if err := q.PublishRefreshInsights(ctx, job); err != nil {
		t.Fatalf("PublishRefreshInsights() error = %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", done.RetryCount)
	}
	if done.Error != "" {
		t.Errorf("Error = %q, want cleared", done.Error)
	}
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1), WithBackoff(time.Millisecond))
	defer q.Close()

	ctx := context.Background()
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		return errors.New("always")
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.RefreshInsightsJob{MaxRetries: 1}
	if err := q.PublishRefreshInsights(ctx, job); err != nil {
		t.Fatalf("PublishRefreshInsights() error = %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 1 || failed.Error != "always" {
		t.Errorf("failed job = %+v", failed)
	}
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, NewStore())
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := q.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}

	if err := q.PublishRefreshInsights(context.Background(), &jobs.RefreshInsightsJob{}); err == nil {
		t.Error("publish on a closed queue should fail")
	}
	if err := q.Start(context.Background(), func(context.Context, jobs.Job) error { return nil }); err == nil {
		t.Error("start on a closed queue should fail")
	}
}

func TestQueue_PublishHonorsContext(t *testing.T) {
	q := NewQueue(0, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.PublishRefreshInsights(ctx, &jobs.RefreshInsightsJob{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("PublishRefreshInsights() error = %v, want context.Canceled", err)
	}
}

func TestQueue_CallerJobNotShared(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(2))
	defer q.Close()

	ctx := context.Background()
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error { return nil }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	published := make([]*jobs.RefreshInsightsJob, 50)
	for i := range published {
		published[i] = &jobs.RefreshInsightsJob{Reason: "test"}
		if err := q.PublishRefreshInsights(ctx, published[i]); err != nil {
			t.Fatalf("PublishRefreshInsights() error = %v", err)
		}
		// Read right after publishing while workers are busy with earlier jobs.
		if published[i].Status != jobs.JobStatusPending {
			t.Errorf("job %d status = %s, want pending", i, published[i].Status)
		}
	}

	for _, job := range published {
		waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
		if job.Status != jobs.JobStatusPending || job.StartedAt != nil {
			t.Errorf("caller's job was modified by a worker: %+v", job)
		}
	}
}
