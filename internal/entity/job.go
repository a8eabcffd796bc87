package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
)

// Job is the lifecycle tracking record for one submitted document.
// Mutated only by the orchestrator through the job repository; never
// deleted by the pipeline itself.
type Job struct {
	JobID              uuid.UUID           `json:"job_id"`
	FileID             uuid.UUID           `json:"file_id"`
	Status             constants.JobStatus `json:"status"`
	CurrentStep        string              `json:"current_step"`
	ProgressPercentage int                 `json:"progress_percentage"`
	CreatedAt          time.Time           `json:"created_at"`
	StartedAt          *time.Time          `json:"started_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	ErrorMessage       string              `json:"error_message,omitempty"`
	RetryCount         int                 `json:"retry_count"`
}
