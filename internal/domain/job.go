package domain

// JobStatus enumerates the client-side view of a worker job.
type JobStatus string

const (
	JobStatusIdle    JobStatus = "idle"
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
	// JobStatusLocked marks an output the plan does not allow in this attempt.
	// It is terminal and never polled.
	JobStatusLocked JobStatus = "locked"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusDone, JobStatusError, JobStatusLocked:
		return true
	}
	return false
}

// Job is one tracked unit of work. Key identifies the output it was created
// for; JobID stays empty until the worker accepted the enqueue.
type Job struct {
	Key         string
	JobID       string
	Status      JobStatus
	Error       string
	DownloadURL string
}

// Phase is the attempt-level state machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseEnqueuing Phase = "enqueuing"
	PhasePolling   Phase = "polling"
	PhaseDone      Phase = "done"
	PhaseError     Phase = "error"
)

// Busy reports whether an attempt is in flight.
func (p Phase) Busy() bool {
	return p == PhaseUploading || p == PhaseEnqueuing || p == PhasePolling
}
