package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeRefreshInsights regenerates the cached insight list.
	JobTypeRefreshInsights JobType = "refresh_insights"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying indicates the last attempt failed and another is scheduled.
	JobStatusRetrying JobStatus = "retrying"
)

// RefreshInsightsJob asks a worker to run a generation pass and publish
// the result to the insight store.
type RefreshInsightsJob struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`

	// Reason is a free-form note about what triggered the refresh.
	Reason string `json:"reason,omitempty"`

	// InsightCount is the number of insights the last successful attempt produced.
	InsightCount int `json:"insight_count"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *RefreshInsightsJob) GetID() string { return j.JobID }

func (j *RefreshInsightsJob) GetType() JobType { return JobTypeRefreshInsights }

func (j *RefreshInsightsJob) GetStatus() JobStatus { return j.Status }

// Terminal reports whether the job will not be attempted again.
func (j *RefreshInsightsJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Publisher enqueues jobs for asynchronous processing.
type Publisher interface {
	PublishRefreshInsights(ctx context.Context, job *RefreshInsightsJob) error
	Close() error
}

// Consumer delivers queued jobs to a handler.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error schedules a retry while
// retries remain.
type JobHandler func(ctx context.Context, job Job) error

// JobStore records job state so it can be queried while and after jobs run.
type JobStore interface {
	SaveJob(ctx context.Context, job *RefreshInsightsJob) error
	GetJob(ctx context.Context, jobID string) (*RefreshInsightsJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*RefreshInsightsJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
