package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/entity"
)

func newTestJob(t *testing.T, store *Store) *entity.Job {
	t.Helper()
	ctx := context.Background()
	file := &entity.UploadedFile{
		ID:               uuid.New(),
		Filename:         "report_20260301_abcd1234.pdf",
		OriginalFilename: "report.pdf",
		FileSize:         1024,
		MimeType:         "application/pdf",
		UploadedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.Files.Create(ctx, file))
	job := &entity.Job{
		JobID:       uuid.New(),
		FileID:      file.ID,
		Status:      constants.JobStatusPending,
		CurrentStep: constants.StepUploading.Name,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Jobs.Create(ctx, job))
	return job
}

func TestJobLifecycleHappyPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	steps := []constants.Step{
		constants.StepExtractingText,
		constants.StepAIProcessing,
		constants.StepGeneratingExcel,
	}
	for _, step := range steps {
		require.NoError(t, store.Jobs.UpdateStatus(ctx, job.JobID,
			constants.JobStatusProcessing, step.Name, step.Progress, ""))
	}
	require.NoError(t, store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusCompleted, constants.StepCompleted.Name,
		constants.StepCompleted.Progress, ""))

	got, err := store.Jobs.GetByJobID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.ProgressPercentage)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.ErrorMessage)
}

func TestJobInvalidTransitionRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	// pending cannot jump straight to completed
	err := store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusCompleted, constants.StepCompleted.Name, 100, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusFailed, constants.StepExtractingText.Name, 0, "no text layer"))

	// terminal states accept nothing further
	err = store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusProcessing, constants.StepExtractingText.Name, 20, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := store.Jobs.GetByJobID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "no text layer", got.ErrorMessage)
}

func TestJobFailedRequiresMessage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	err := store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusFailed, constants.StepExtractingText.Name, 0, "")
	assert.Error(t, err)
}

func TestJobProgressMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	require.NoError(t, store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusProcessing, constants.StepAIProcessing.Name, 40, ""))
	// a stale lower checkpoint must not pull progress backwards
	require.NoError(t, store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusProcessing, constants.StepExtractingText.Name, 20, ""))

	got, err := store.Jobs.GetByJobID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.ProgressPercentage)
}

func TestJobCancellation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	require.NoError(t, store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusCancelled, "", 0, ""))

	got, err := store.Jobs.GetByJobID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCancelled, got.Status)
	assert.NotNil(t, got.CompletedAt)
	// step is preserved when the transition does not name one
	assert.Equal(t, constants.StepUploading.Name, got.CurrentStep)
}

func TestIncrementRetry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	require.NoError(t, store.Jobs.IncrementRetry(ctx, job.JobID))
	require.NoError(t, store.Jobs.IncrementRetry(ctx, job.JobID))

	got, err := store.Jobs.GetByJobID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetryCount)
}

func TestListJobsByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newTestJob(t, store)
	newTestJob(t, store)

	require.NoError(t, store.Jobs.UpdateStatus(ctx, a.JobID,
		constants.JobStatusProcessing, constants.StepExtractingText.Name, 20, ""))

	processing, err := store.Jobs.List(ctx, constants.JobStatusProcessing, 0, 10)
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, a.JobID, processing[0].JobID)

	all, err := store.Jobs.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFileDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	require.NoError(t, store.Logs.Append(ctx, &entity.ExtractionLog{
		FileID:  job.FileID,
		Level:   entity.LogLevelInfo,
		Message: "extracted 1000 characters",
		Step:    constants.StepExtractingText.Name,
	}))
	require.NoError(t, store.Results.Create(ctx, &entity.ExtractionResult{
		ID:          uuid.New(),
		FileID:      job.FileID,
		ExtractedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.Files.Delete(ctx, job.FileID))

	_, err := store.Files.GetByID(ctx, job.FileID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Jobs.GetByJobID(ctx, job.JobID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Results.GetByFileID(ctx, job.FileID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	logs, err := store.Logs.ListByFile(ctx, job.FileID, "", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestLogFilterByLevel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := newTestJob(t, store)

	for _, lvl := range []entity.LogLevel{entity.LogLevelInfo, entity.LogLevelError, entity.LogLevelInfo} {
		require.NoError(t, store.Logs.Append(ctx, &entity.ExtractionLog{
			FileID: job.FileID, Level: lvl, Message: "m", Step: "s",
		}))
	}
	errs, err := store.Logs.ListByFile(ctx, job.FileID, entity.LogLevelError, 0, 10)
	require.NoError(t, err)
	assert.Len(t, errs, 1)
	all, err := store.Logs.ListByFile(ctx, job.FileID, "", 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
