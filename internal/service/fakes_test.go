package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"site-inventory/internal/models"
	"site-inventory/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeProjects map[string]bool

func (f fakeProjects) Exists(_ context.Context, projectID string) (bool, error) {
	return f[projectID], nil
}

type fakeBatchStore struct {
	mu      sync.Mutex
	batches map[string]models.ImportBatch
	claims  map[string]time.Time
	nextID  int
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{batches: map[string]models.ImportBatch{}, claims: map[string]time.Time{}}
}

func (f *fakeBatchStore) Create(_ context.Context, batch *models.ImportBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	batch.ID = fmt.Sprintf("batch-%d", f.nextID)
	f.batches[batch.ID] = *batch
	return nil
}

func (f *fakeBatchStore) GetByID(_ context.Context, projectID, batchID string) (*models.ImportBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[batchID]
	if !ok || batch.ProjectID != projectID {
		return nil, repository.ErrNotFound
	}
	return &batch, nil
}

func (f *fakeBatchStore) List(_ context.Context, projectID string, limit, offset int) ([]models.ImportBatchSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ImportBatchSummary
	for _, b := range f.batches {
		if b.ProjectID == projectID {
			out = append(out, models.ImportBatchSummary{ID: b.ID, ProjectID: b.ProjectID, Status: b.Status})
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeBatchStore) ClaimForCommit(_ context.Context, projectID, batchID string, actorID int, lease time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[batchID]
	if !ok || batch.ProjectID != projectID || batch.Status != models.BatchStatusPending {
		return false, nil
	}
	if at, claimed := f.claims[batchID]; claimed && time.Since(at) < lease {
		return false, nil
	}
	f.claims[batchID] = time.Now()
	batch.CommittedBy = &actorID
	f.batches[batchID] = batch
	return true, nil
}

func (f *fakeBatchStore) ReleaseClaim(_ context.Context, batchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := f.batches[batchID]
	if batch.Status == models.BatchStatusPending {
		delete(f.claims, batchID)
		batch.CommittedBy = nil
		f.batches[batchID] = batch
	}
	return nil
}

func (f *fakeBatchStore) FinishCommit(_ context.Context, batch *models.ImportBatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.batches[batch.ID]
	if !ok || current.Status != models.BatchStatusPending {
		return false, nil
	}
	current.ImportedRows = batch.ImportedRows
	current.ErrorRows = batch.ErrorRows
	current.SkippedRows = batch.SkippedRows
	current.Status = batch.Status
	current.CommittedBy = batch.CommittedBy
	current.CommittedAt = batch.CommittedAt
	f.batches[batch.ID] = current
	return true, nil
}

func (f *fakeBatchStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeBatchStore) get(batchID string) models.ImportBatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[batchID]
}

type fakeSiteStore struct {
	mu         sync.Mutex
	sites      map[string]models.Site
	creates    int
	failOnCall int
	failErr    error
	hideOnFind bool
}

func newFakeSiteStore() *fakeSiteStore {
	return &fakeSiteStore{sites: map[string]models.Site{}}
}

func siteKey(projectID, siteID string) string { return projectID + "/" + siteID }

func (f *fakeSiteStore) FindActiveByKey(_ context.Context, projectID, siteID string) (*models.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideOnFind {
		return nil, nil
	}
	site, ok := f.sites[siteKey(projectID, siteID)]
	if !ok || site.IsDeleted {
		return nil, nil
	}
	return &site, nil
}

func (f *fakeSiteStore) Create(_ context.Context, site *models.Site) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failOnCall > 0 && f.creates == f.failOnCall {
		return f.failErr
	}
	key := siteKey(site.ProjectID, site.SiteID)
	if existing, ok := f.sites[key]; ok && !existing.IsDeleted {
		return repository.ErrDuplicateKey
	}
	site.ID = fmt.Sprintf("site-%d", len(f.sites)+1)
	f.sites[key] = *site
	return nil
}

func (f *fakeSiteStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sites)
}

type recordingAuditSink struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *recordingAuditSink) Record(_ context.Context, event models.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type recordingProgress struct {
	mu      sync.Mutex
	reports []CommitProgress
}

func (r *recordingProgress) Report(_ context.Context, p CommitProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, p)
	return nil
}

func (r *recordingProgress) Get(_ context.Context, batchID string) (*CommitProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].BatchID == batchID {
			p := r.reports[i]
			return &p, nil
		}
	}
	return nil, ErrProgressNotFound
}

type testEnv struct {
	svc      *ImportService
	batches  *fakeBatchStore
	sites    *fakeSiteStore
	audit    *recordingAuditSink
	progress *recordingProgress
}

const testProject = "project-1"

var testActor = models.Actor{UserID: 7, Username: "ops", Role: "admin", Permissions: []string{"sites.import"}}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		batches:  newFakeBatchStore(),
		sites:    newFakeSiteStore(),
		audit:    &recordingAuditSink{},
		progress: &recordingProgress{},
	}
	env.svc = NewImportService(fakeProjects{testProject: true}, env.batches, env.sites, NewExcelService(), env.audit, env.progress, logger)
	return env
}

// siteRow returns a complete valid data row for siteID.
func siteRow(siteID string) []string {
	return []string{
		siteID, "Tower " + siteID, "East", "D1", "Crown Castle", "Yes",
		"1 Main St", "Raleigh", "Wake", "NC", "27513-5123", "CMA-1", "Raleigh",
		"Monopole", "Macro", "GE-1", "120", "35.78", "-78.64", "",
	}
}

func csvFile(t *testing.T, header []string, rows ...[]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

var errStorage = errors.New("storage unavailable")
