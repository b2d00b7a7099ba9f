package jobimport_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
)

const (
	testUploaderID = "6f1c2a70-0b4e-4a53-9d7a-0d6c1f1e2a01"
	testCompanyID  = "2b0e3f64-5c2d-4f0a-8e5b-7a9c1d2e3f40"
)

type fakeJobRepo struct {
	mu       sync.Mutex
	jobs     map[string]*domain.ImportJob
	progress []domain.ImportProgress

	recordRowErr error
	// afterRecordRow runs after each stored row, outside the lock.
	afterRecordRow func(rows int)
}

func newFakeJobRepo(jobs ...*domain.ImportJob) *fakeJobRepo {
	repo := &fakeJobRepo{jobs: make(map[string]*domain.ImportJob)}
	for _, job := range jobs {
		repo.jobs[job.ID] = job
	}
	return repo
}

func cloneJob(job *domain.ImportJob) *domain.ImportJob {
	out := *job
	out.ErrorLog = append([]domain.ErrorLogEntry{}, job.ErrorLog...)
	out.SuccessLog = append([]domain.SuccessLogEntry{}, job.SuccessLog...)
	return &out
}

func (f *fakeJobRepo) Create(ctx context.Context, job *domain.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = cloneJob(job)
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrImportJobNotFound
	}
	return cloneJob(job), nil
}

func (f *fakeJobRepo) transition(jobID string, from []domain.Status, apply func(job *domain.ImportJob)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return false, domain.ErrImportJobNotFound
	}
	for _, status := range from {
		if job.Status == status {
			apply(job)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobRepo) Start(ctx context.Context, jobID string) (bool, error) {
	return f.transition(jobID, []domain.Status{domain.StatusPending}, func(job *domain.ImportJob) {
		now := time.Now().UTC()
		job.Status = domain.StatusProcessing
		job.StartedAt = &now
	})
}

func (f *fakeJobRepo) SetTotal(ctx context.Context, jobID string, total int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID].TotalRecords = total
	return nil
}

func (f *fakeJobRepo) RecordRow(ctx context.Context, jobID string, progress domain.ImportProgress, failure *domain.ErrorLogEntry, success *domain.SuccessLogEntry) error {
	f.mu.Lock()
	if f.recordRowErr != nil {
		f.mu.Unlock()
		return f.recordRowErr
	}
	job := f.jobs[jobID]
	job.ProcessedRecords = progress.ProcessedRecords
	job.SuccessfulImports = progress.SuccessfulImports
	job.FailedImports = progress.FailedImports
	job.SkippedRecords = progress.SkippedRecords
	job.Progress = progress.Progress
	if failure != nil {
		job.ErrorLog = append(job.ErrorLog, *failure)
	}
	if success != nil {
		job.SuccessLog = append(job.SuccessLog, *success)
	}
	f.progress = append(f.progress, progress)
	rows := len(f.progress)
	hook := f.afterRecordRow
	f.mu.Unlock()

	if hook != nil {
		hook(rows)
	}
	return nil
}

func (f *fakeJobRepo) Complete(ctx context.Context, jobID string) (bool, error) {
	return f.transition(jobID, []domain.Status{domain.StatusProcessing}, func(job *domain.ImportJob) {
		now := time.Now().UTC()
		job.Status = domain.StatusCompleted
		job.Progress = 100
		job.CompletedAt = &now
	})
}

func (f *fakeJobRepo) Fail(ctx context.Context, jobID string, entry domain.ErrorLogEntry) (bool, error) {
	return f.transition(jobID, []domain.Status{domain.StatusProcessing}, func(job *domain.ImportJob) {
		now := time.Now().UTC()
		job.Status = domain.StatusFailed
		job.ErrorLog = []domain.ErrorLogEntry{entry}
		job.CompletedAt = &now
	})
}

func (f *fakeJobRepo) Cancel(ctx context.Context, jobID string) (bool, error) {
	return f.transition(jobID, []domain.Status{domain.StatusPending, domain.StatusProcessing}, func(job *domain.ImportJob) {
		now := time.Now().UTC()
		job.Status = domain.StatusCancelled
		job.CancelledAt = &now
	})
}

func (f *fakeJobRepo) ResetForRetry(ctx context.Context, jobID string) (bool, error) {
	return f.transition(jobID, []domain.Status{domain.StatusFailed}, func(job *domain.ImportJob) {
		job.Status = domain.StatusPending
		job.TotalRecords = 0
		job.ProcessedRecords = 0
		job.SuccessfulImports = 0
		job.FailedImports = 0
		job.SkippedRecords = 0
		job.Progress = 0
		job.ErrorLog = []domain.ErrorLogEntry{}
		job.SuccessLog = []domain.SuccessLogEntry{}
		job.StartedAt = nil
		job.CompletedAt = nil
	})
}

func (f *fakeJobRepo) Delete(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[jobID]; !ok {
		return domain.ErrImportJobNotFound
	}
	delete(f.jobs, jobID)
	return nil
}

func (f *fakeJobRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0)
	for id, job := range f.jobs {
		if job.Status == domain.StatusPending && job.ScheduledAt != nil && !job.ScheduledAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeJobRepo) snapshot(jobID string) *domain.ImportJob {
	job, _ := f.Get(context.Background(), jobID)
	return job
}

type fakeDirectory struct {
	uploaders map[string]*domain.Uploader
	companies map[string]*domain.Company
	err       error
}

func newFakeDirectory() *fakeDirectory {
	companyID := testCompanyID
	return &fakeDirectory{
		uploaders: map[string]*domain.Uploader{
			testUploaderID: {ID: testUploaderID, CompanyID: &companyID},
		},
		companies: map[string]*domain.Company{
			testCompanyID: {ID: testCompanyID, Name: "Talent Partners", Region: "IN-MH", Active: true},
		},
	}
}

func (f *fakeDirectory) GetUploader(ctx context.Context, userID string) (*domain.Uploader, error) {
	if f.err != nil {
		return nil, f.err
	}
	uploader, ok := f.uploaders[userID]
	if !ok {
		return nil, domain.ErrUploaderNotFound
	}
	return uploader, nil
}

func (f *fakeDirectory) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	company, ok := f.companies[companyID]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return company, nil
}

type deleteCall struct {
	companyID string
	createdBy string
	from      time.Time
	to        time.Time
	// inserted is how many postings existed when the delete ran.
	inserted int
}

type fakePostings struct {
	mu       sync.Mutex
	postings map[domain.PostingKey]domain.Posting
	inserted []domain.Posting

	insertErr error
	// conflictOnInsert makes every insert lose against a concurrent writer.
	conflictOnInsert bool
	deleteCalls      []deleteCall
	deleteCount      int64
}

func newFakePostings() *fakePostings {
	return &fakePostings{postings: make(map[domain.PostingKey]domain.Posting)}
}

func (f *fakePostings) Exists(ctx context.Context, key domain.PostingKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.postings[key]
	return ok, nil
}

func (f *fakePostings) Insert(ctx context.Context, posting *domain.Posting) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.conflictOnInsert {
		return false, nil
	}
	key := posting.Key()
	if _, ok := f.postings[key]; ok {
		return false, nil
	}
	f.postings[key] = *posting
	f.inserted = append(f.inserted, *posting)
	return true, nil
}

func (f *fakePostings) DeleteCreatedBetween(ctx context.Context, companyID, createdBy string, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, deleteCall{
		companyID: companyID,
		createdBy: createdBy,
		from:      from,
		to:        to,
		inserted:  len(f.inserted),
	})
	return f.deleteCount, nil
}

func (f *fakePostings) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type fakeSource struct {
	files map[string]string
}

func (f *fakeSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

type fakeFileStore struct {
	mu      sync.Mutex
	saved   map[string]string
	removed []string
	saveErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: make(map[string]string)}
}

func (f *fakeFileStore) Save(ctx context.Context, fileName string, r io.Reader) (domain.StoredFile, error) {
	if f.saveErr != nil {
		return domain.StoredFile{}, f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.StoredFile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	path := "stored-" + fileName
	f.saved[path] = string(data)
	return domain.StoredFile{Path: path, Size: int64(len(data)), Checksum: "abc123"}, nil
}

func (f *fakeFileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.saved[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (f *fakeFileStore) Remove(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, path)
	f.removed = append(f.removed, path)
	return nil
}

type fakeRuns struct {
	mu        sync.Mutex
	launched  []string
	cancelled []string
	waited    []string
}

func (f *fakeRuns) Launch(jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, jobID)
	return true
}

func (f *fakeRuns) Resume(jobID string) bool {
	return f.Launch(jobID)
}

func (f *fakeRuns) WaitFor(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = append(f.waited, jobID)
	return nil
}

func (f *fakeRuns) Cancel(jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, jobID)
	return true
}

var errBoom = errors.New("boom")
