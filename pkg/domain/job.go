package domain

import "time"

// JobStatus tracks an asynchronous operation through its lifecycle.
type JobStatus string

const (
	// JobQueued means the job record exists but no worker has picked it up.
	JobQueued JobStatus = "queued"
	// JobRunning means a background worker is executing the operation.
	JobRunning JobStatus = "running"
	// JobComplete means the operation finished and Result is populated.
	JobComplete JobStatus = "complete"
	// JobError means the operation failed; Error carries the detail.
	JobError JobStatus = "error"
)

// Job is a cross-request record of a spawned operation. A job is owned by
// exactly one background worker; readers see it as soon as it is created with
// status queued. Jobs are never deleted automatically.
type Job struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"`
	Status    JobStatus `json:"status"`
	Result    any       `json:"result"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
