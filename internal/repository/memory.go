package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lpreports/fundxtract/constants"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/entity"
)

// NewMemoryStore backs all four repositories with in-process maps.
// Used by tests and by runs without a configured database.
func NewMemoryStore() *Store {
	m := &memoryStore{
		files:   make(map[uuid.UUID]*entity.UploadedFile),
		jobs:    make(map[uuid.UUID]*entity.Job),
		results: make(map[uuid.UUID]*entity.ExtractionResult),
	}
	return &Store{
		Files:   (*memoryFiles)(m),
		Jobs:    (*memoryJobs)(m),
		Results: (*memoryResults)(m),
		Logs:    (*memoryLogs)(m),
	}
}

type memoryStore struct {
	mu      sync.RWMutex
	files   map[uuid.UUID]*entity.UploadedFile
	jobs    map[uuid.UUID]*entity.Job
	results map[uuid.UUID]*entity.ExtractionResult
	logs    []*entity.ExtractionLog
}

func page[T any](items []T, offset, limit int) []T {
	offset, limit = clampPage(offset, limit)
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type memoryFiles memoryStore

func (m *memoryFiles) Create(_ context.Context, f *entity.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.files[f.ID] = &cp
	return nil
}

func (m *memoryFiles) GetByID(_ context.Context, id uuid.UUID) (*entity.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memoryFiles) List(_ context.Context, offset, limit int) ([]*entity.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.UploadedFile, 0, len(m.files))
	for _, f := range m.files {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return page(out, offset, limit), nil
}

func (m *memoryFiles) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	for jobID, j := range m.jobs {
		if j.FileID == id {
			delete(m.jobs, jobID)
		}
	}
	for resID, r := range m.results {
		if r.FileID == id {
			delete(m.results, resID)
		}
	}
	kept := m.logs[:0]
	for _, l := range m.logs {
		if l.FileID != id {
			kept = append(kept, l)
		}
	}
	m.logs = kept
	return nil
}

type memoryJobs memoryStore

func (m *memoryJobs) Create(_ context.Context, job *entity.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.JobID] = &cp
	return nil
}

func (m *memoryJobs) GetByJobID(_ context.Context, jobID uuid.UUID) (*entity.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memoryJobs) GetByFileID(_ context.Context, fileID uuid.UUID) (*entity.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *entity.Job
	for _, j := range m.jobs {
		if j.FileID != fileID {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memoryJobs) List(_ context.Context, status constants.JobStatus, offset, limit int) ([]*entity.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if status != "" && j.Status != status {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (m *memoryJobs) UpdateStatus(_ context.Context, jobID uuid.UUID, status constants.JobStatus, step string, progress int, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return common.ErrNotFound
	}
	return applyTransition(j, status, step, progress, errorMessage)
}

func (m *memoryJobs) IncrementRetry(_ context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return common.ErrNotFound
	}
	j.RetryCount++
	return nil
}

type memoryResults memoryStore

func (m *memoryResults) Create(_ context.Context, res *entity.ExtractionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *res
	m.results[res.ID] = &cp
	return nil
}

func (m *memoryResults) GetByFileID(_ context.Context, fileID uuid.UUID) (*entity.ExtractionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *entity.ExtractionResult
	for _, r := range m.results {
		if r.FileID != fileID {
			continue
		}
		if latest == nil || r.ExtractedAt.After(latest.ExtractedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memoryResults) List(_ context.Context, offset, limit int) ([]*entity.ExtractionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.ExtractionResult, 0, len(m.results))
	for _, r := range m.results {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExtractedAt.After(out[j].ExtractedAt) })
	return page(out, offset, limit), nil
}

type memoryLogs memoryStore

func (m *memoryLogs) Append(_ context.Context, l *entity.ExtractionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memoryLogs) ListByFile(_ context.Context, fileID uuid.UUID, level entity.LogLevel, offset, limit int) ([]*entity.ExtractionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.ExtractionLog
	for _, l := range m.logs {
		if l.FileID != fileID {
			continue
		}
		if level != "" && l.Level != level {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return page(out, offset, limit), nil
}
