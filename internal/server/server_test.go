package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lpreports/fundxtract/internal/artifact"
	"github.com/lpreports/fundxtract/internal/pipeline"
	"github.com/lpreports/fundxtract/internal/repository"
)

type noopProcessor struct{}

func (noopProcessor) Process(context.Context, uuid.UUID) error { return nil }

type testEnv struct {
	srv     *Server
	store   *repository.Store
	outputs *artifact.Store
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	uploads, err := artifact.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	outputs, err := artifact.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	queue := pipeline.NewQueue(noopProcessor{}, nil, pipeline.WithWorkers(1), pipeline.WithQueueSize(4))
	t.Cleanup(func() { _ = queue.Shutdown(context.Background()) })
	svc := pipeline.NewService(store, uploads, queue, 1<<20, nil)

	srv := New(svc, store, uploads, outputs, queue, nil, Options{
		Addr:          ":0",
		MaxUploadSize: 1 << 20,
	}, nil)
	return &testEnv{srv: srv, store: store, outputs: outputs}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func multipartPDF(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func submitJob(t *testing.T, e *testEnv) jobResponse {
	t.Helper()
	body, ctype := multipartPDF(t, "q4_report.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", ctype)
	w := e.do(t, req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestExtractEndpoint(t *testing.T) {
	e := newTestServer(t)
	resp := submitJob(t, e)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "uploading", resp.CurrentStep)
	assert.Equal(t, 0, resp.ProgressPercentage)
}

func TestExtractRejectsNonPDF(t *testing.T) {
	e := newTestServer(t)
	body, ctype := multipartPDF(t, "report.docx", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", ctype)
	w := e.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractRequiresFileField(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/extract", nil)
	w := e.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJob(t *testing.T) {
	e := newTestServer(t)
	created := submitJob(t, e)

	w := e.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.JobID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.JobID, got.JobID)

	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobsStatusFilter(t *testing.T) {
	e := newTestServer(t)
	submitJob(t, e)

	w := e.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs?status=pending", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelJob(t *testing.T) {
	e := newTestServer(t)
	created := submitJob(t, e)

	w := e.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/"+created.JobID+"/cancel", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "cancelled", got.Status)

	// cancelling a terminal job conflicts with the state machine
	w = e.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/"+created.JobID+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDownload(t *testing.T) {
	e := newTestServer(t)

	w := e.do(t, httptest.NewRequest(http.MethodGet, "/api/download/missing.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := e.outputs.Write("report_extracted.xlsx", []byte("workbook-bytes"))
	require.NoError(t, err)
	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/download/report_extracted.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "workbook-bytes", w.Body.String())
}

func TestPreviewServesInline(t *testing.T) {
	e := newTestServer(t)

	w := e.do(t, httptest.NewRequest(http.MethodGet, "/api/preview/missing.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := e.outputs.Write("report_extracted.xlsx", []byte("workbook-bytes"))
	require.NoError(t, err)
	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/preview/report_extracted.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "workbook-bytes", w.Body.String())
	assert.NotContains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestTemplates(t *testing.T) {
	e := newTestServer(t)
	w := e.do(t, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count  int `json:"count"`
		Sheets []struct {
			Name    string   `json:"name"`
			Layout  string   `json:"layout"`
			Headers []string `json:"headers"`
		} `json:"sheets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.Count)
	assert.Equal(t, "Portfolio Summary", resp.Sheets[0].Name)
	assert.NotEmpty(t, resp.Sheets[0].Headers)
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	w := e.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteFile(t *testing.T) {
	e := newTestServer(t)
	created := submitJob(t, e)

	w := e.do(t, httptest.NewRequest(http.MethodDelete, "/api/files/"+created.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+created.FileID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.JobID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
