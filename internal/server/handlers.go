package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/entity"
	"github.com/lpreports/fundxtract/internal/schema"
)

// jobResponse is the external shape of a job record.
type jobResponse struct {
	JobID              string  `json:"job_id"`
	FileID             string  `json:"file_id"`
	Status             string  `json:"status"`
	CurrentStep        string  `json:"current_step"`
	ProgressPercentage int     `json:"progress_percentage"`
	CreatedAt          string  `json:"created_at"`
	StartedAt          *string `json:"started_at,omitempty"`
	CompletedAt        *string `json:"completed_at,omitempty"`
	ErrorMessage       string  `json:"error_message,omitempty"`
	RetryCount         int     `json:"retry_count"`
}

func toJobResponse(j *entity.Job) jobResponse {
	resp := jobResponse{
		JobID:              j.JobID.String(),
		FileID:             j.FileID.String(),
		Status:             string(j.Status),
		CurrentStep:        j.CurrentStep,
		ProgressPercentage: j.ProgressPercentage,
		CreatedAt:          j.CreatedAt.Format(timeFormat),
		ErrorMessage:       j.ErrorMessage,
		RetryCount:         j.RetryCount,
	}
	if j.StartedAt != nil {
		s := j.StartedAt.Format(timeFormat)
		resp.StartedAt = &s
	}
	if j.CompletedAt != nil {
		s := j.CompletedAt.Format(timeFormat)
		resp.CompletedAt = &s
	}
	return resp
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func (s *Server) handleExtract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, fmt.Errorf("%w: multipart field 'file' is required", common.ErrInvalidInput))
		return
	}
	if s.maxUploadSize > 0 && fileHeader.Size > s.maxUploadSize {
		respondError(c, fmt.Errorf("%w: file size %d exceeds limit %d",
			common.ErrInvalidInput, fileHeader.Size, s.maxUploadSize))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("%w: open upload: %w", common.ErrInvalidInput, err))
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, s.maxUploadSize+1))
	if err != nil {
		respondError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	job, err := s.pipeline.Submit(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleGetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed job id", common.ErrInvalidInput))
		return
	}
	job, err := s.pipeline.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (s *Server) handleListJobs(c *gin.Context) {
	var status constants.JobStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := constants.ParseJobStatus(raw)
		if !ok {
			respondError(c, fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, raw))
			return
		}
		status = parsed
	}
	offset, limit := pagination(c)
	jobs, err := s.store.Jobs.List(c.Request.Context(), status, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out, "count": len(out)})
}

func (s *Server) handleCancelJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed job id", common.ErrInvalidInput))
		return
	}
	job, err := s.pipeline.Cancel(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (s *Server) handleListFiles(c *gin.Context) {
	offset, limit := pagination(c)
	files, err := s.store.Files.List(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

func (s *Server) handleGetFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed file id", common.ErrInvalidInput))
		return
	}
	file, err := s.store.Files.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// handleDeleteFile removes a file plus its job, result, logs and both
// on-disk artifacts. Artifact deletion is idempotent, so a file whose
// upload was already cleaned up by a failed run deletes cleanly.
func (s *Server) handleDeleteFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed file id", common.ErrInvalidInput))
		return
	}
	ctx := c.Request.Context()
	file, err := s.store.Files.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if res, rerr := s.store.Results.GetByFileID(ctx, id); rerr == nil {
		if derr := s.outputs.Delete(res.OutputFilename); derr != nil {
			s.log.Warn("file.delete.output_artifact", "file_id", id, "error", derr)
		}
	}
	if derr := s.uploads.Delete(file.Filename); derr != nil {
		s.log.Warn("file.delete.upload_artifact", "file_id", id, "error", derr)
	}
	if err := s.store.Files.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id.String()})
}

func (s *Server) handleListResults(c *gin.Context) {
	offset, limit := pagination(c)
	results, err := s.store.Results.List(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) handleGetResult(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed file id", common.ErrInvalidInput))
		return
	}
	res, err := s.store.Results.GetByFileID(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListLogs(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed file id", common.ErrInvalidInput))
		return
	}
	var level entity.LogLevel
	if raw := c.Query("level"); raw != "" {
		level = entity.LogLevel(raw)
	}
	offset, limit := pagination(c)
	logs, err := s.store.Logs.ListByFile(c.Request.Context(), fileID, level, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func (s *Server) handleDownload(c *gin.Context) {
	filename := c.Param("filename")
	path, err := s.outputs.Path(filename)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
		return
	}
	if !s.outputs.Exists(filename) {
		respondError(c, fmt.Errorf("%w: workbook %s", common.ErrNotFound, filename))
		return
	}
	c.Header("Content-Type", constants.XLSXContentType)
	c.FileAttachment(path, filename)
}

// handlePreview serves a workbook inline, without the attachment
// disposition, for in-browser viewers.
func (s *Server) handlePreview(c *gin.Context) {
	filename := c.Param("filename")
	path, err := s.outputs.Path(filename)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
		return
	}
	if !s.outputs.Exists(filename) {
		respondError(c, fmt.Errorf("%w: workbook %s", common.ErrNotFound, filename))
		return
	}
	c.Header("Content-Type", constants.XLSXContentType)
	c.File(path)
}

// handleTemplates describes the workbook layout: every sheet with its
// column or row headers, in generation order.
func (s *Server) handleTemplates(c *gin.Context) {
	type sheetTemplate struct {
		Name    string   `json:"name"`
		Layout  string   `json:"layout"`
		Headers []string `json:"headers"`
	}

	labels := func(fields []schema.Field) []string {
		out := make([]string, len(fields))
		for i, f := range fields {
			out[i] = f.Label
		}
		return out
	}
	itemLabels := func(items []schema.LineItem) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.Label)
		}
		return out
	}

	templates := []sheetTemplate{
		{Name: schema.SheetPortfolioSummary, Layout: "field_value", Headers: labels(schema.PortfolioSummaryFields)},
		{Name: schema.SheetScheduleOfInvestments, Layout: "table", Headers: labels(schema.ScheduleOfInvestmentsColumns)},
		{Name: schema.SheetStatementOfOperations, Layout: "table", Headers: labels(schema.StatementOfOperationsColumns)},
		{Name: schema.SheetStatementOfCashflows, Layout: "transposed_statement", Headers: itemLabels(schema.CashflowLineItems)},
		{Name: schema.SheetPCAPStatement, Layout: "transposed_statement", Headers: itemLabels(schema.PCAPLineItems)},
		{Name: schema.SheetPortfolioCompanyProfile, Layout: "table", Headers: labels(schema.CompanyProfileColumns)},
		{Name: schema.SheetPortfolioCompanyFinancials, Layout: "table", Headers: labels(schema.CompanyFinancialsColumns)},
		{Name: schema.SheetFootnotes, Layout: "table", Headers: labels(schema.FootnoteColumns)},
		{Name: schema.SheetReferenceValues, Layout: "columnar", Headers: schema.ReferenceCategories},
	}
	c.JSON(http.StatusOK, gin.H{"sheets": templates, "count": len(templates)})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	dbState := "ok"
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			dbState = err.Error()
		}
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": dbState,
		"backlog":  s.queue.Backlog(),
	})
}
