// Package jobs provides the in-memory job store backing spawned operations.
// Every long-running engine operation creates a job record before returning,
// so callers can poll the job id while a background worker fills in the
// result. Records are kept for the lifetime of the process.
package jobs
