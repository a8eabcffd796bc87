package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/entity"
)

// NewSQLStore wires the four repositories over one database handle.
func NewSQLStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		Files:   &sqlFiles{db: db, log: logger},
		Jobs:    &sqlJobs{db: db, log: logger},
		Results: &sqlResults{db: db, log: logger},
		Logs:    &sqlLogs{db: db, log: logger},
	}
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return offset, limit
}

// --- files ---

type sqlFiles struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *sqlFiles) Create(ctx context.Context, f *entity.UploadedFile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO uploaded_files (id, filename, original_filename, file_path, file_size, mime_type, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID.String(), f.Filename, f.OriginalFilename, f.FilePath, f.FileSize, f.MimeType, fmtTime(f.UploadedAt))
	if err != nil {
		r.log.Error("file create failed", "file_id", f.ID, "error", err)
		return fmt.Errorf("%w: insert file: %w", common.ErrPersistence, err)
	}
	r.log.Info("file recorded", "file_id", f.ID, "filename", f.Filename, "size", f.FileSize)
	return nil
}

func (r *sqlFiles) GetByID(ctx context.Context, id uuid.UUID) (*entity.UploadedFile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, filename, original_filename, file_path, file_size, mime_type, uploaded_at
		 FROM uploaded_files WHERE id = $1`, id.String())
	return scanFile(row)
}

func (r *sqlFiles) List(ctx context.Context, offset, limit int) ([]*entity.UploadedFile, error) {
	offset, limit = clampPage(offset, limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, original_filename, file_path, file_size, mime_type, uploaded_at
		 FROM uploaded_files ORDER BY uploaded_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %w", common.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*entity.UploadedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *sqlFiles) Delete(ctx context.Context, id uuid.UUID) error {
	for _, q := range []string{
		`DELETE FROM extraction_logs WHERE file_id = $1`,
		`DELETE FROM extraction_results WHERE file_id = $1`,
		`DELETE FROM jobs WHERE file_id = $1`,
		`DELETE FROM uploaded_files WHERE id = $1`,
	} {
		if _, err := r.db.ExecContext(ctx, q, id.String()); err != nil {
			return fmt.Errorf("%w: delete file %s: %w", common.ErrPersistence, id, err)
		}
	}
	r.log.Info("file deleted with associated records", "file_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*entity.UploadedFile, error) {
	var (
		f        entity.UploadedFile
		id, upAt string
	)
	err := row.Scan(&id, &f.Filename, &f.OriginalFilename, &f.FilePath, &f.FileSize, &f.MimeType, &upAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan file: %w", common.ErrPersistence, err)
	}
	f.ID, _ = uuid.Parse(id)
	f.UploadedAt = parseTime(upAt)
	return &f, nil
}

// --- jobs ---

type sqlJobs struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *sqlJobs) Create(ctx context.Context, job *entity.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (job_id, file_id, status, current_step, progress, created_at, started_at, completed_at, error_message, retry_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.JobID.String(), job.FileID.String(), string(job.Status), job.CurrentStep,
		job.ProgressPercentage, fmtTime(job.CreatedAt),
		fmtTimePtr(job.StartedAt), fmtTimePtr(job.CompletedAt),
		job.ErrorMessage, job.RetryCount)
	if err != nil {
		r.log.Error("job create failed", "job_id", job.JobID, "error", err)
		return fmt.Errorf("%w: insert job: %w", common.ErrPersistence, err)
	}
	r.log.Info("job created", "job_id", job.JobID, "file_id", job.FileID)
	return nil
}

const jobColumns = `job_id, file_id, status, current_step, progress, created_at, started_at, completed_at, error_message, retry_count`

func (r *sqlJobs) GetByJobID(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE job_id = $1`, jobID.String())
	return scanJob(row)
}

func (r *sqlJobs) GetByFileID(ctx context.Context, fileID uuid.UUID) (*entity.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE file_id = $1 ORDER BY created_at DESC LIMIT 1`, fileID.String())
	return scanJob(row)
}

func (r *sqlJobs) List(ctx context.Context, status constants.JobStatus, offset, limit int) ([]*entity.Job, error) {
	offset, limit = clampPage(offset, limit)
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			string(status), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %w", common.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*entity.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *sqlJobs) UpdateStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, step string, progress int, errorMessage string) error {
	// The UPDATE is guarded on the status and progress the transition
	// was computed from, so a concurrent writer (an administrative
	// cancel racing a worker checkpoint) cannot be silently overwritten.
	// A lost race re-reads the row and re-checks the transition.
	for attempt := 0; attempt < 3; attempt++ {
		job, err := r.GetByJobID(ctx, jobID)
		if err != nil {
			return err
		}
		prevStatus, prevProgress := job.Status, job.ProgressPercentage
		if err := applyTransition(job, status, step, progress, errorMessage); err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx,
			`UPDATE jobs SET status = $1, current_step = $2, progress = $3, started_at = $4, completed_at = $5, error_message = $6
			 WHERE job_id = $7 AND status = $8 AND progress = $9`,
			string(job.Status), job.CurrentStep, job.ProgressPercentage,
			fmtTimePtr(job.StartedAt), fmtTimePtr(job.CompletedAt), job.ErrorMessage,
			jobID.String(), string(prevStatus), prevProgress)
		if err != nil {
			r.log.Error("job status update failed", "job_id", jobID, "error", err)
			return fmt.Errorf("%w: update job: %w", common.ErrPersistence, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: update job: %w", common.ErrPersistence, err)
		}
		if n == 0 {
			r.log.Warn("job status update lost a race, retrying", "job_id", jobID, "from", prevStatus, "to", status)
			continue
		}
		r.log.Info("job status updated",
			"job_id", jobID, "status", job.Status,
			"step", job.CurrentStep, "progress", job.ProgressPercentage)
		return nil
	}
	return fmt.Errorf("%w: job %s kept changing under concurrent updates", common.ErrPersistence, jobID)
}

func (r *sqlJobs) IncrementRetry(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET retry_count = retry_count + 1 WHERE job_id = $1`, jobID.String())
	if err != nil {
		return fmt.Errorf("%w: increment retry: %w", common.ErrPersistence, err)
	}
	return nil
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		j                 entity.Job
		jobID, fileID     string
		status, createdAt string
		startedAt, doneAt sql.NullString
	)
	err := row.Scan(&jobID, &fileID, &status, &j.CurrentStep, &j.ProgressPercentage,
		&createdAt, &startedAt, &doneAt, &j.ErrorMessage, &j.RetryCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan job: %w", common.ErrPersistence, err)
	}
	j.JobID, _ = uuid.Parse(jobID)
	j.FileID, _ = uuid.Parse(fileID)
	j.Status = constants.JobStatus(status)
	j.CreatedAt = parseTime(createdAt)
	j.StartedAt = parseTimePtr(startedAt)
	j.CompletedAt = parseTimePtr(doneAt)
	return &j, nil
}

// --- results ---

type sqlResults struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *sqlResults) Create(ctx context.Context, res *entity.ExtractionResult) error {
	var data any
	if len(res.ExtractedData) > 0 {
		data = string(res.ExtractedData)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_results (id, file_id, output_filename, output_path, extracted_data, processing_seconds, characters_extracted, sheets_generated, model_used, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID.String(), res.FileID.String(), res.OutputFilename, res.OutputPath, data,
		res.ProcessingSeconds, res.CharactersExtracted, res.SheetsGenerated, res.ModelUsed,
		fmtTime(res.ExtractedAt))
	if err != nil {
		r.log.Error("result create failed", "file_id", res.FileID, "error", err)
		return fmt.Errorf("%w: insert result: %w", common.ErrPersistence, err)
	}
	r.log.Info("result recorded",
		"file_id", res.FileID, "output", res.OutputFilename,
		"sheets", res.SheetsGenerated, "characters", res.CharactersExtracted)
	return nil
}

const resultColumns = `id, file_id, output_filename, output_path, extracted_data, processing_seconds, characters_extracted, sheets_generated, model_used, extracted_at`

func (r *sqlResults) GetByFileID(ctx context.Context, fileID uuid.UUID) (*entity.ExtractionResult, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM extraction_results WHERE file_id = $1 ORDER BY extracted_at DESC LIMIT 1`,
		fileID.String())
	return scanResult(row)
}

func (r *sqlResults) List(ctx context.Context, offset, limit int) ([]*entity.ExtractionResult, error) {
	offset, limit = clampPage(offset, limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM extraction_results ORDER BY extracted_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list results: %w", common.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*entity.ExtractionResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanResult(row rowScanner) (*entity.ExtractionResult, error) {
	var (
		res         entity.ExtractionResult
		id, fileID  string
		data        sql.NullString
		extractedAt string
	)
	err := row.Scan(&id, &fileID, &res.OutputFilename, &res.OutputPath, &data,
		&res.ProcessingSeconds, &res.CharactersExtracted, &res.SheetsGenerated,
		&res.ModelUsed, &extractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan result: %w", common.ErrPersistence, err)
	}
	res.ID, _ = uuid.Parse(id)
	res.FileID, _ = uuid.Parse(fileID)
	if data.Valid {
		res.ExtractedData = []byte(data.String)
	}
	res.ExtractedAt = parseTime(extractedAt)
	return &res, nil
}

// --- logs ---

type sqlLogs struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *sqlLogs) Append(ctx context.Context, l *entity.ExtractionLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_logs (id, file_id, level, message, step, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID.String(), l.FileID.String(), string(l.Level), l.Message, l.Step, l.DurationMS, fmtTime(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("%w: append log: %w", common.ErrPersistence, err)
	}
	return nil
}

func (r *sqlLogs) ListByFile(ctx context.Context, fileID uuid.UUID, level entity.LogLevel, offset, limit int) ([]*entity.ExtractionLog, error) {
	offset, limit = clampPage(offset, limit)
	var (
		rows *sql.Rows
		err  error
	)
	if level == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, file_id, level, message, step, duration_ms, created_at
			 FROM extraction_logs WHERE file_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
			fileID.String(), limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, file_id, level, message, step, duration_ms, created_at
			 FROM extraction_logs WHERE file_id = $1 AND level = $2 ORDER BY created_at LIMIT $3 OFFSET $4`,
			fileID.String(), string(level), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list logs: %w", common.ErrPersistence, err)
	}
	defer rows.Close()
	var out []*entity.ExtractionLog
	for rows.Next() {
		var (
			l         entity.ExtractionLog
			id, fid   string
			lvl       string
			createdAt string
		)
		if err := rows.Scan(&id, &fid, &lvl, &l.Message, &l.Step, &l.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan log: %w", common.ErrPersistence, err)
		}
		l.ID, _ = uuid.Parse(id)
		l.FileID, _ = uuid.Parse(fid)
		l.Level = entity.LogLevel(lvl)
		l.CreatedAt = parseTime(createdAt)
		out = append(out, &l)
	}
	return out, rows.Err()
}
