package core

import "time"

// ContinuationRecord correlates an external job with the continuation handle
// of the workflow execution parked on it. Its existence means an execution is
// currently awaiting the job; absence means it was never suspended or has
// already been resumed.
type ContinuationRecord struct {
	// JobID is the identifier assigned by the external process being awaited.
	JobID string `json:"job_id"`

	// Handle is the engine-issued continuation token for the suspended
	// execution. It is stored and returned verbatim, never inspected.
	Handle string `json:"handle"`

	// CreatedAt is when the record was written. Informational only.
	CreatedAt time.Time `json:"created_at"`
}

func NewContinuationRecord(jobID, handle string, createdAt time.Time) *ContinuationRecord {
	return &ContinuationRecord{
		JobID:     jobID,
		Handle:    handle,
		CreatedAt: createdAt,
	}
}
