package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/artifact"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/entity"
	"github.com/lpreports/fundxtract/internal/export"
	"github.com/lpreports/fundxtract/internal/extract"
	"github.com/lpreports/fundxtract/internal/llm"
	"github.com/lpreports/fundxtract/internal/repository"
	"github.com/lpreports/fundxtract/internal/schema"
)

const maxErrorMessageLen = 1000

// Orchestrator drives one submitted document through the four pipeline
// phases, checkpointing the job record at each boundary. A run either
// ends with a completed job and a stored workbook, or a failed job with
// both artifacts cleaned up.
type Orchestrator struct {
	store      *repository.Store
	uploads    *artifact.Store
	outputs    *artifact.Store
	extractor  extract.TextExtractor
	ai         llm.FieldExtractor
	maxRetries int
	log        *slog.Logger
}

func NewOrchestrator(
	store *repository.Store,
	uploads, outputs *artifact.Store,
	extractor extract.TextExtractor,
	ai llm.FieldExtractor,
	maxRetries int,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Orchestrator{
		store:      store,
		uploads:    uploads,
		outputs:    outputs,
		extractor:  extractor,
		ai:         ai,
		maxRetries: maxRetries,
		log:        logger,
	}
}

// Process runs the pipeline for jobID. Jobs that are no longer pending
// when a worker picks them up (cancelled while queued) are skipped
// without error.
func (o *Orchestrator) Process(ctx context.Context, jobID uuid.UUID) error {
	job, err := o.store.Jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status != constants.JobStatusPending {
		o.log.Info("pipeline.skip", "job_id", jobID, "status", job.Status)
		return nil
	}
	file, err := o.store.Files.GetByID(ctx, job.FileID)
	if err != nil {
		return fmt.Errorf("load file %s: %w", job.FileID, err)
	}

	start := time.Now()
	o.log.Info("pipeline.start", "job_id", jobID, "file_id", file.ID, "filename", file.OriginalFilename)

	// Phase 2: text extraction.
	if err := o.checkpoint(ctx, jobID, constants.StepExtractingText); err != nil {
		return o.checkpointAbort(ctx, job, file, err)
	}
	text, chars, err := o.extractText(ctx, file)
	if err != nil {
		return o.fail(ctx, job, file, constants.StepExtractingText, "", err)
	}

	// Phase 3: AI structured extraction, with bounded reattempts.
	if err := o.checkpoint(ctx, jobID, constants.StepAIProcessing); err != nil {
		return o.checkpointAbort(ctx, job, file, err)
	}
	rec, rawJSON, err := o.extractRecord(ctx, job, file, text)
	if err != nil {
		return o.fail(ctx, job, file, constants.StepAIProcessing, "", err)
	}

	// Phase 4: render and persist the workbook.
	if err := o.checkpoint(ctx, jobID, constants.StepGeneratingExcel); err != nil {
		return o.checkpointAbort(ctx, job, file, err)
	}
	doc := export.Render(rec)
	content, err := export.WriteXLSX(doc)
	if err != nil {
		return o.fail(ctx, job, file, constants.StepGeneratingExcel, "",
			fmt.Errorf("%w: %w", common.ErrRender, err))
	}
	outputName := artifact.UniqueName(file.OriginalFilename, "extracted", ".xlsx")
	outputPath, err := o.outputs.Write(outputName, content)
	if err != nil {
		return o.fail(ctx, job, file, constants.StepGeneratingExcel, outputName,
			fmt.Errorf("%w: %w", common.ErrRender, err))
	}

	result := &entity.ExtractionResult{
		ID:                  uuid.New(),
		FileID:              file.ID,
		OutputFilename:      outputName,
		OutputPath:          outputPath,
		ExtractedData:       rawJSON,
		ProcessingSeconds:   time.Since(start).Seconds(),
		CharactersExtracted: chars,
		SheetsGenerated:     len(doc.Sheets),
		ModelUsed:           o.ai.ModelName(),
		ExtractedAt:         time.Now().UTC(),
	}
	if err := o.store.Results.Create(ctx, result); err != nil {
		return o.fail(ctx, job, file, constants.StepGeneratingExcel, outputName,
			fmt.Errorf("%w: store result: %w", common.ErrPersistence, err))
	}

	if err := o.store.Jobs.UpdateStatus(ctx, jobID,
		constants.JobStatusCompleted, constants.StepCompleted.Name,
		constants.StepCompleted.Progress, ""); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	o.appendLog(ctx, file.ID, entity.LogLevelInfo, constants.StepCompleted.Name,
		fmt.Sprintf("workbook %s generated with %d sheets", outputName, len(doc.Sheets)),
		time.Since(start))

	o.log.Info("pipeline.done",
		"job_id", jobID, "file_id", file.ID,
		"output", outputName, "sheets", len(doc.Sheets),
		"characters", chars,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (o *Orchestrator) extractText(ctx context.Context, file *entity.UploadedFile) (string, int, error) {
	document, err := o.uploads.Read(file.Filename)
	if err != nil {
		return "", 0, fmt.Errorf("%w: read stored document: %w", common.ErrUploadPersistence, err)
	}
	res, err := o.extractor.Extract(ctx, document)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", common.ErrTextExtraction, err)
	}
	for _, w := range res.Warnings {
		o.appendLog(ctx, file.ID, entity.LogLevelWarning, constants.StepExtractingText.Name, w, 0)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", 0, fmt.Errorf("%w (method %s, %d pages)", common.ErrNoExtractableText, res.Method, res.Pages)
	}
	o.appendLog(ctx, file.ID, entity.LogLevelInfo, constants.StepExtractingText.Name,
		fmt.Sprintf("extracted %d characters from %d pages", len(text), res.Pages), res.Duration)
	return text, len(text), nil
}

// extractRecord calls the AI collaborator with up to maxRetries
// immediate reattempts after the first try. The job's retry_count ends
// up as the number of reattempts actually issued, whether or not the
// last one succeeded.
func (o *Orchestrator) extractRecord(ctx context.Context, job *entity.Job, file *entity.UploadedFile, text string) (*schema.ExtractionRecord, []byte, error) {
	var (
		rec     *schema.ExtractionRecord
		rawJSON []byte
		attempt int
	)
	start := time.Now()
	err := retry.Do(
		func() error {
			attempt++
			if attempt > 1 {
				if err := o.store.Jobs.IncrementRetry(ctx, job.JobID); err != nil {
					o.log.Warn("pipeline.retry_count.update_failed", "job_id", job.JobID, "error", err)
				}
				o.appendLog(ctx, file.ID, entity.LogLevelWarning, constants.StepAIProcessing.Name,
					fmt.Sprintf("reattempting structured extraction (attempt %d)", attempt), 0)
			}
			var err error
			rec, rawJSON, err = o.ai.ExtractRecord(ctx, text)
			return err
		},
		retry.Attempts(uint(o.maxRetries)+1),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("structured extraction failed after %d attempts: %w", attempt, err)
	}
	o.appendLog(ctx, file.ID, entity.LogLevelInfo, constants.StepAIProcessing.Name,
		fmt.Sprintf("structured extraction succeeded on attempt %d", attempt), time.Since(start))
	return rec, rawJSON, nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, jobID uuid.UUID, step constants.Step) error {
	if err := o.store.Jobs.UpdateStatus(ctx, jobID,
		constants.JobStatusProcessing, step.Name, step.Progress, ""); err != nil {
		return fmt.Errorf("checkpoint %s for job %s: %w", step.Name, jobID, err)
	}
	return nil
}

// checkpointAbort distinguishes an external cancellation from a real
// persistence problem. A cancelled job ends the run without error; its
// stored document is removed since nothing will process it again.
func (o *Orchestrator) checkpointAbort(ctx context.Context, job *entity.Job, file *entity.UploadedFile, cause error) error {
	current, err := o.store.Jobs.GetByJobID(ctx, job.JobID)
	if err == nil && current.Status == constants.JobStatusCancelled {
		o.log.Info("pipeline.cancelled", "job_id", job.JobID, "file_id", file.ID)
		if derr := o.uploads.Delete(file.Filename); derr != nil {
			o.log.Warn("pipeline.cleanup.upload", "job_id", job.JobID, "file", file.Filename, "error", derr)
		}
		return nil
	}
	return cause
}

// fail marks the job failed and removes both the stored document and
// any partially written workbook. Cleanup is idempotent, so a repeat
// call for an already-cleaned job is harmless.
func (o *Orchestrator) fail(ctx context.Context, job *entity.Job, file *entity.UploadedFile, step constants.Step, outputName string, cause error) error {
	msg := cause.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}

	if err := o.store.Jobs.UpdateStatus(ctx, job.JobID,
		constants.JobStatusFailed, step.Name, 0, msg); err != nil {
		o.log.Error("pipeline.fail.update_failed", "job_id", job.JobID, "error", err)
	}
	o.appendLog(ctx, file.ID, entity.LogLevelError, step.Name, msg, 0)

	if err := o.uploads.Delete(file.Filename); err != nil {
		o.log.Warn("pipeline.cleanup.upload", "job_id", job.JobID, "file", file.Filename, "error", err)
	}
	if outputName != "" {
		if err := o.outputs.Delete(outputName); err != nil {
			o.log.Warn("pipeline.cleanup.output", "job_id", job.JobID, "file", outputName, "error", err)
		}
	}

	o.log.Error("pipeline.failed",
		"job_id", job.JobID, "file_id", file.ID, "step", step.Name, "error", cause)
	return cause
}

func (o *Orchestrator) appendLog(ctx context.Context, fileID uuid.UUID, level entity.LogLevel, step, message string, d time.Duration) {
	err := o.store.Logs.Append(ctx, &entity.ExtractionLog{
		FileID:     fileID,
		Level:      level,
		Message:    message,
		Step:       step,
		DurationMS: d.Milliseconds(),
	})
	if err != nil {
		o.log.Warn("pipeline.log.append_failed", "file_id", fileID, "error", err)
	}
}
