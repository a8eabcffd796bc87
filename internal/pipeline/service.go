package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/artifact"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/entity"
	"github.com/lpreports/fundxtract/internal/repository"
)

// Service is the submission-side surface: it validates and persists an
// upload, creates the job record, and hands the job to the worker pool.
// Status and result reads go through it as well so HTTP handlers never
// touch the repositories directly.
type Service struct {
	store         *repository.Store
	uploads       *artifact.Store
	queue         *Queue
	maxUploadSize int64
	log           *slog.Logger
}

func NewService(store *repository.Store, uploads *artifact.Store, queue *Queue, maxUploadSize int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         store,
		uploads:       uploads,
		queue:         queue,
		maxUploadSize: maxUploadSize,
		log:           logger,
	}
}

// Submit accepts a document for processing and returns the created job.
// The upload is durably stored and the job row committed before the job
// is queued, so a submission that returns without error is recoverable
// even if the process dies before a worker picks it up.
func (s *Service) Submit(ctx context.Context, originalFilename string, content []byte) (*entity.Job, error) {
	ext := filepath.Ext(originalFilename)
	if !constants.IsAllowedExt(ext) {
		return nil, fmt.Errorf("%w: unsupported file type %q, only PDF is accepted", common.ErrInvalidInput, ext)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrInvalidInput)
	}
	if s.maxUploadSize > 0 && int64(len(content)) > s.maxUploadSize {
		return nil, fmt.Errorf("%w: file size %d exceeds limit %d", common.ErrInvalidInput, len(content), s.maxUploadSize)
	}

	storedName := artifact.UniqueName(originalFilename, "", ".pdf")
	storedPath, err := s.uploads.Write(storedName, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUploadPersistence, err)
	}

	now := time.Now().UTC()
	file := &entity.UploadedFile{
		ID:               uuid.New(),
		Filename:         storedName,
		OriginalFilename: originalFilename,
		FilePath:         storedPath,
		FileSize:         int64(len(content)),
		MimeType:         "application/pdf",
		UploadedAt:       now,
	}
	if err := s.store.Files.Create(ctx, file); err != nil {
		s.cleanupUpload(storedName)
		return nil, fmt.Errorf("%w: %w", common.ErrUploadPersistence, err)
	}

	job := &entity.Job{
		JobID:       uuid.New(),
		FileID:      file.ID,
		Status:      constants.JobStatusPending,
		CurrentStep: constants.StepUploading.Name,
		CreatedAt:   now,
	}
	if err := s.store.Jobs.Create(ctx, job); err != nil {
		s.cleanupUpload(storedName)
		return nil, fmt.Errorf("%w: %w", common.ErrUploadPersistence, err)
	}

	if err := s.queue.Enqueue(job.JobID); err != nil {
		msg := "could not queue job: " + err.Error()
		if uerr := s.store.Jobs.UpdateStatus(ctx, job.JobID,
			constants.JobStatusFailed, constants.StepUploading.Name, 0, msg); uerr != nil {
			s.log.Error("submit.fail_mark", "job_id", job.JobID, "error", uerr)
		}
		s.cleanupUpload(storedName)
		return nil, fmt.Errorf("submit job %s: %w", job.JobID, err)
	}

	s.log.Info("submit.accepted",
		"job_id", job.JobID, "file_id", file.ID,
		"filename", originalFilename, "size", file.FileSize)
	return job, nil
}

func (s *Service) cleanupUpload(storedName string) {
	if err := s.uploads.Delete(storedName); err != nil {
		s.log.Warn("submit.cleanup", "file", storedName, "error", err)
	}
}

// GetStatus returns the job record for jobID.
func (s *Service) GetStatus(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	return s.store.Jobs.GetByJobID(ctx, jobID)
}

// GetResult returns the extraction result for a completed job, or
// ErrNotFound when the job has not produced one.
func (s *Service) GetResult(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionResult, error) {
	job, err := s.store.Jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.store.Results.GetByFileID(ctx, job.FileID)
}

// Cancel marks a pending or processing job cancelled. It only changes
// the state record; an in-flight phase is not interrupted and notices
// the cancellation at its next checkpoint.
func (s *Service) Cancel(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	err := s.store.Jobs.UpdateStatus(ctx, jobID,
		constants.JobStatusCancelled, "", 0, "")
	if err != nil {
		return nil, err
	}
	return s.store.Jobs.GetByJobID(ctx, jobID)
}
