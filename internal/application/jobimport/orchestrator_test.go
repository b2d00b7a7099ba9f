package jobimport_test

import (
	"context"
	"strings"
	"testing"
	"time"

	app "github.com/mohammadpnp/jobposting-import/internal/application/jobimport"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testJobID = "9d2f6a1e-3b4c-4d5e-8f70-1a2b3c4d5e6f"

const mixedCSV = "title,description,location,salary,postingType,consultancyName,companyName\n" +
	"Go Engineer,Build services,Pune,30-40 LPA,company,,\n" +
	"go engineer ,Same role again,PUNE,,company,,\n" +
	",No title here,Mumbai,,company,,\n" +
	"Store Manager,Run stores,Mumbai,8-12,consultancy,Spoofed Agency,Acme Retail\n"

type orchestratorFixture struct {
	jobs      *fakeJobRepo
	directory *fakeDirectory
	postings  *fakePostings
	source    *fakeSource
	cfg       app.OrchestratorConfig
}

func newOrchestratorFixture(importType domain.ImportType, content string) *orchestratorFixture {
	job := &domain.ImportJob{
		ID:         testJobID,
		CreatedBy:  testUploaderID,
		ImportType: importType,
		FilePath:   "jobs-file",
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	return &orchestratorFixture{
		jobs:      newFakeJobRepo(job),
		directory: newFakeDirectory(),
		postings:  newFakePostings(),
		source:    &fakeSource{files: map[string]string{"jobs-file": content}},
	}
}

func (f *orchestratorFixture) orchestrator() *app.Orchestrator {
	return app.NewOrchestrator(f.jobs, f.source, file.NewParser(), f.directory, f.postings, f.cfg, zerolog.Nop())
}

func TestOrchestratorRunMixedRows(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, mixedCSV)

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, int64(4), job.TotalRecords)
	assert.Equal(t, int64(4), job.ProcessedRecords)
	assert.Equal(t, int64(2), job.SuccessfulImports)
	assert.Equal(t, int64(1), job.FailedImports)
	assert.Equal(t, int64(1), job.SkippedRecords)
	assert.Equal(t, 100, job.Progress)
	assert.True(t, job.Counters().Consistent())

	require.Len(t, job.ErrorLog, 1)
	assert.Equal(t, 3, job.ErrorLog[0].Row)
	assert.Contains(t, job.ErrorLog[0].Error, "title is required")
	assert.Equal(t, "No title here", job.ErrorLog[0].RawRecord["description"])

	require.Len(t, job.SuccessLog, 2)
	assert.Equal(t, "Go Engineer", job.SuccessLog[0].Title)
	assert.Equal(t, "Store Manager", job.SuccessLog[1].Title)

	require.Len(t, fx.postings.inserted, 2)
	first := fx.postings.inserted[0]
	assert.Equal(t, testCompanyID, first.CompanyID)
	assert.Equal(t, testUploaderID, first.CreatedBy)
	assert.Equal(t, "IN-MH", first.Region)
	assert.Equal(t, "active", first.Status)
	assert.Equal(t, job.SuccessLog[0].PostingID, first.ID)
	assert.Equal(t, "3000000", first.Record.SalaryMin.String())

	consultancy := fx.postings.inserted[1].Record.Consultancy
	require.NotNil(t, consultancy)
	assert.Equal(t, "Talent Partners", consultancy.ConsultancyName)
	assert.Equal(t, "Acme Retail", consultancy.HiringCompanyName)
}

func TestOrchestratorProgressIsMonotonicAndConsistent(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, mixedCSV)

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	require.Len(t, fx.jobs.progress, 4)
	last := 0
	for i, progress := range fx.jobs.progress {
		assert.True(t, progress.Consistent(), "row %d", i+1)
		assert.GreaterOrEqual(t, progress.Progress, last)
		last = progress.Progress
	}
	assert.Equal(t, []int{25, 50, 75, 100}, []int{
		fx.jobs.progress[0].Progress,
		fx.jobs.progress[1].Progress,
		fx.jobs.progress[2].Progress,
		fx.jobs.progress[3].Progress,
	})
}

func TestOrchestratorCancelledBeforeStartPersistsNothing(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, mixedCSV)
	cancelled, err := fx.jobs.Cancel(context.Background(), testJobID)
	require.NoError(t, err)
	require.True(t, cancelled)

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	assert.Equal(t, 0, fx.postings.count())
	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusCancelled, job.Status)
	assert.Zero(t, job.ProcessedRecords)
}

func TestOrchestratorStopsBetweenRowsWhenCancelled(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeJSON,
		`[{"title":"A","description":"d","location":"x"},{"title":"B","description":"d","location":"x"},{"title":"C","description":"d","location":"x"}]`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.jobs.afterRecordRow = func(rows int) {
		if rows == 1 {
			_, _ = fx.jobs.Cancel(context.Background(), testJobID)
			cancel()
		}
	}

	require.NoError(t, fx.orchestrator().Run(ctx, testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusCancelled, job.Status)
	assert.Equal(t, int64(3), job.TotalRecords)
	assert.Equal(t, int64(1), job.ProcessedRecords)
	assert.Equal(t, int64(1), job.SuccessfulImports)
	assert.Equal(t, 1, fx.postings.count())
	assert.Empty(t, job.ErrorLog)
}

func TestOrchestratorParseFailureFailsJob(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeJSON, `{"title": "broken"`)

	err := fx.orchestrator().Run(context.Background(), testJobID)
	require.ErrorIs(t, err, domain.ErrParse)

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusFailed, job.Status)
	require.Len(t, job.ErrorLog, 1)
	assert.True(t, strings.HasPrefix(job.ErrorLog[0].Error, "parse import file"))
	assert.Zero(t, job.ProcessedRecords)
	assert.Equal(t, 0, fx.postings.count())
}

func TestOrchestratorMissingFileFailsJob(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, "")
	fx.source.files = map[string]string{}

	require.Error(t, fx.orchestrator().Run(context.Background(), testJobID))
	assert.Equal(t, domain.StatusFailed, fx.jobs.snapshot(testJobID).Status)
}

func TestOrchestratorUnresolvableCompanyFailsRows(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, mixedCSV)
	fx.directory.uploaders = map[string]*domain.Uploader{}

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, int64(4), job.FailedImports)
	assert.Zero(t, job.SuccessfulImports)
	assert.Contains(t, job.ErrorLog[0].Error, domain.ErrMissingCompany.Error())
	assert.Equal(t, 0, fx.postings.count())
}

func TestOrchestratorUsesConfiguredCompanyWhenUploaderHasNone(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, mixedCSV)
	fx.directory.uploaders = map[string]*domain.Uploader{}
	companyID := testCompanyID
	fx.jobs.jobs[testJobID].CompanyID = &companyID

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	assert.Equal(t, int64(2), fx.jobs.snapshot(testJobID).SuccessfulImports)
}

func TestOrchestratorInsertConflictCountsAsSkip(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, "title,description,location\nGo Engineer,Build,Pune\n")
	fx.postings.conflictOnInsert = true

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, int64(1), job.SkippedRecords)
	assert.Zero(t, job.FailedImports)
	assert.Empty(t, job.ErrorLog)
}

func TestOrchestratorPersistenceErrorFailsRow(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, "title,description,location\nGo Engineer,Build,Pune\n")
	fx.postings.insertErr = errBoom

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, int64(1), job.FailedImports)
	require.Len(t, job.ErrorLog, 1)
	assert.Contains(t, job.ErrorLog[0].Error, domain.ErrPersistence.Error())
}

func TestOrchestratorCapsStoredErrors(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, "title,description,location\n,a,x\n,b,x\n,c,x\n")
	fx.cfg.MaxStoredErrors = 1

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, int64(3), job.FailedImports)
	assert.Len(t, job.ErrorLog, 1)
	assert.True(t, job.Counters().Consistent())
}

func TestOrchestratorProgressStoreFailureIsFatal(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeCSV, "title,description,location\nGo Engineer,Build,Pune\n")
	fx.jobs.recordRowErr = errBoom

	err := fx.orchestrator().Run(context.Background(), testJobID)
	require.ErrorIs(t, err, errBoom)

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusFailed, job.Status)
	require.Len(t, job.ErrorLog, 1)
	assert.Contains(t, job.ErrorLog[0].Error, "record progress for row 1")
}

func TestOrchestratorEmptyFileCompletes(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture(domain.ImportTypeJSON, `[]`)

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Zero(t, job.TotalRecords)
}

func TestOrchestratorXLSXDateCells(t *testing.T) {
	t.Parallel()

	book := excelize.NewFile()
	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]any{"title", "description", "location", "validTill"}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]any{"Go Engineer", "Build services", "Pune", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	fx := newOrchestratorFixture(domain.ImportTypeXLSX, buf.String())

	require.NoError(t, fx.orchestrator().Run(context.Background(), testJobID))

	job := fx.jobs.snapshot(testJobID)
	assert.Empty(t, job.ErrorLog)
	require.Len(t, fx.postings.inserted, 1)
	validTill := fx.postings.inserted[0].Record.ValidTill
	require.NotNil(t, validTill)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *validTill)
}
