package constants

// JobStatus is the canonical lifecycle status for a submitted document.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "pending"    // created, processing not started
	JobStatusProcessing JobStatus = "processing" // pipeline in progress
	JobStatusCompleted  JobStatus = "completed"  // terminal success
	JobStatusFailed     JobStatus = "failed"     // terminal failure
	JobStatusCancelled  JobStatus = "cancelled"  // administratively aborted
)

// JobStatuses lists every valid status, for request validation.
var JobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusCancelled,
}

// ParseJobStatus maps a raw string to a known status.
func ParseJobStatus(s string) (JobStatus, bool) {
	for _, st := range JobStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransition encodes the job state machine:
// pending -> processing -> {completed | failed}, with cancelled
// reachable from pending or processing. Self-transitions within
// processing are allowed so the checkpoint updates (step/progress)
// flow through the same gate.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusProcessing || to == JobStatusFailed || to == JobStatusCancelled
	case JobStatusProcessing:
		return to == JobStatusProcessing || to == JobStatusCompleted || to == JobStatusFailed || to == JobStatusCancelled
	default:
		return false
	}
}

// Step names a pipeline checkpoint together with its nominal progress
// percentage. The percentages are a UX convention; monotonicity is the
// only hard requirement and is enforced by the job repository.
type Step struct {
	Name     string
	Progress int
}

var (
	StepUploading       = Step{Name: "uploading", Progress: 0}
	StepExtractingText  = Step{Name: "extracting_text", Progress: 20}
	StepAIProcessing    = Step{Name: "processing_with_ai", Progress: 40}
	StepGeneratingExcel = Step{Name: "generating_excel", Progress: 70}
	StepCompleted       = Step{Name: "completed", Progress: 100}
)
