package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/entity"
)

// ErrInvalidTransition marks a status change the job state machine does
// not allow.
var ErrInvalidTransition = errors.New("invalid job transition")

// The pipeline core only calls Create/UpdateStatus/IncrementRetry and
// Append; listing, filtering and deletion are administrative operations
// used by the HTTP surface.

type FileRepository interface {
	Create(ctx context.Context, f *entity.UploadedFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.UploadedFile, error)
	List(ctx context.Context, offset, limit int) ([]*entity.UploadedFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*entity.Job, error)
	GetByFileID(ctx context.Context, fileID uuid.UUID) (*entity.Job, error)
	List(ctx context.Context, status constants.JobStatus, offset, limit int) ([]*entity.Job, error)
	// UpdateStatus drives the state machine; it rejects transitions the
	// machine does not allow and never lets progress move backwards.
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, step string, progress int, errorMessage string) error
	IncrementRetry(ctx context.Context, jobID uuid.UUID) error
}

type ResultRepository interface {
	Create(ctx context.Context, r *entity.ExtractionResult) error
	GetByFileID(ctx context.Context, fileID uuid.UUID) (*entity.ExtractionResult, error)
	List(ctx context.Context, offset, limit int) ([]*entity.ExtractionResult, error)
}

type LogRepository interface {
	Append(ctx context.Context, l *entity.ExtractionLog) error
	ListByFile(ctx context.Context, fileID uuid.UUID, level entity.LogLevel, offset, limit int) ([]*entity.ExtractionLog, error)
}

// Store bundles the four repositories behind one handle.
type Store struct {
	Files   FileRepository
	Jobs    JobRepository
	Results ResultRepository
	Logs    LogRepository
}

// applyTransition mutates a job record in place according to the state
// machine. Shared by the SQL and in-memory repositories so the rules
// live in exactly one spot: transitions go through CanTransition,
// progress is monotonic within a job, failed requires a message, and
// the started/completed timestamps flip on the edge transitions.
func applyTransition(job *entity.Job, status constants.JobStatus, step string, progress int, errorMessage string) error {
	if !constants.CanTransition(job.Status, status) {
		return fmt.Errorf("%w %s -> %s (job %s)", ErrInvalidTransition, job.Status, status, job.JobID)
	}
	if status == constants.JobStatusFailed && errorMessage == "" {
		return fmt.Errorf("failed transition requires an error message (job %s)", job.JobID)
	}

	now := time.Now().UTC()
	if job.Status == constants.JobStatusPending && status == constants.JobStatusProcessing {
		job.StartedAt = &now
	}
	if status.IsTerminal() {
		job.CompletedAt = &now
	}

	job.Status = status
	if step != "" {
		job.CurrentStep = step
	}
	if progress > job.ProgressPercentage {
		job.ProgressPercentage = progress
	}
	if errorMessage != "" {
		job.ErrorMessage = errorMessage
	}
	return nil
}
