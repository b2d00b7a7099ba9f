package jobimport

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultMaxStoredErrors = 1000

type ImportSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type RecordParser interface {
	Parse(r io.Reader, importType domain.ImportType) ([]domain.RawRecord, error)
}

type orchestratorJobRepo interface {
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
	Start(ctx context.Context, jobID string) (bool, error)
	SetTotal(ctx context.Context, jobID string, total int64) error
	RecordRow(ctx context.Context, jobID string, progress domain.ImportProgress, failure *domain.ErrorLogEntry, success *domain.SuccessLogEntry) error
	Complete(ctx context.Context, jobID string) (bool, error)
	Fail(ctx context.Context, jobID string, entry domain.ErrorLogEntry) (bool, error)
}

type OrchestratorConfig struct {
	// MaxStoredErrors caps the error log. Counters keep counting past it.
	MaxStoredErrors int
	DefaultRegion   string
}

// Orchestrator runs one import job: it parses the stored file and drives every
// row through normalize, validate, resolve, deduplicate and persist.
type Orchestrator struct {
	jobs   orchestratorJobRepo
	source ImportSource
	parser RecordParser

	normalizer *Normalizer
	validator  *RecordValidator
	resolver   *EntityResolver
	duplicates *DuplicateChecker
	persister  *JobPersister

	cfg    OrchestratorConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewOrchestrator(
	jobs orchestratorJobRepo,
	source ImportSource,
	parser RecordParser,
	directory domain.DirectoryRepository,
	postings domain.PostingRepository,
	cfg OrchestratorConfig,
	logger zerolog.Logger,
) *Orchestrator {
	if cfg.MaxStoredErrors <= 0 {
		cfg.MaxStoredErrors = defaultMaxStoredErrors
	}

	return &Orchestrator{
		jobs:       jobs,
		source:     source,
		parser:     parser,
		normalizer: NewNormalizer(),
		validator:  NewRecordValidator(),
		resolver:   NewEntityResolver(directory, cfg.DefaultRegion),
		duplicates: NewDuplicateChecker(postings),
		persister:  NewJobPersister(postings),
		cfg:        cfg,
		logger:     logger.With().Str("component", "import_orchestrator").Logger(),
		now:        time.Now,
	}
}

// Run processes a pending job to a terminal state. A job that is not pending is
// left untouched. Cancelling ctx stops the run between rows; the row in flight
// finishes and counters keep their last stored values.
func (o *Orchestrator) Run(ctx context.Context, jobID string) (err error) {
	logger := o.logger.With().Str("import_job_id", jobID).Logger()

	started, err := o.jobs.Start(ctx, jobID)
	if err != nil {
		return fmt.Errorf("start import job: %w", err)
	}
	if !started {
		logger.Debug().Msg("import job is not pending, skipping")
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = o.fail(ctx, logger, jobID, errors.Errorf("panic during import: %v", r))
		}
	}()

	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return o.fail(ctx, logger, jobID, errors.Wrap(err, "load import job"))
	}

	records, err := o.readRecords(ctx, *job)
	if err != nil {
		return o.fail(ctx, logger, jobID, errors.Wrap(err, "parse import file"))
	}

	progress := domain.ImportProgress{TotalRecords: int64(len(records))}
	if err := o.jobs.SetTotal(ctx, jobID, progress.TotalRecords); err != nil {
		return o.fail(ctx, logger, jobID, errors.Wrap(err, "set total records"))
	}
	logger.Info().Int64("total_records", progress.TotalRecords).Msg("import started")

	storedErrors := 0
	for i, raw := range records {
		if ctx.Err() != nil {
			logger.Info().
				Int64("processed_records", progress.ProcessedRecords).
				Msg("import cancelled")
			return nil
		}

		rowCtx := context.WithoutCancel(ctx)
		result := o.processRow(rowCtx, logger, *job, i+1, raw)
		progress.Record(result.outcome)

		failure := result.failure
		if failure != nil {
			if storedErrors < o.cfg.MaxStoredErrors {
				storedErrors++
			} else {
				failure = nil
			}
		}

		if err := o.jobs.RecordRow(rowCtx, jobID, progress, failure, result.success); err != nil {
			return o.fail(rowCtx, logger, jobID, errors.Wrapf(err, "record progress for row %d", i+1))
		}
	}

	completed, err := o.jobs.Complete(context.WithoutCancel(ctx), jobID)
	if err != nil {
		return o.fail(ctx, logger, jobID, errors.Wrap(err, "complete import job"))
	}
	if !completed {
		logger.Info().Msg("import job left processing before completion")
		return nil
	}

	logger.Info().
		Int64("successful_imports", progress.SuccessfulImports).
		Int64("failed_imports", progress.FailedImports).
		Int64("skipped_records", progress.SkippedRecords).
		Msg("import completed")
	return nil
}

func (o *Orchestrator) readRecords(ctx context.Context, job domain.ImportJob) ([]domain.RawRecord, error) {
	reader, err := o.source.Open(ctx, job.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "open import file")
	}
	defer reader.Close()

	return o.parser.Parse(reader, job.ImportType)
}

type rowResult struct {
	outcome domain.RowOutcome
	failure *domain.ErrorLogEntry
	success *domain.SuccessLogEntry
}

func (o *Orchestrator) processRow(ctx context.Context, logger zerolog.Logger, job domain.ImportJob, row int, raw domain.RawRecord) rowResult {
	failed := func(err error) rowResult {
		logger.Debug().Err(err).Int("row", row).Msg("import row failed")
		return rowResult{
			outcome: domain.OutcomeFailed,
			failure: &domain.ErrorLogEntry{
				Row:       row,
				RawRecord: raw,
				Error:     truncateReason(err.Error()),
				Timestamp: o.now().UTC(),
			},
		}
	}
	skipped := rowResult{outcome: domain.OutcomeSkipped}

	rec := o.normalizer.Normalize(raw, job.Config)
	if violations := o.validator.Validate(rec, job.Config.ValidationRules); len(violations) > 0 {
		return failed(fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(violations, "; ")))
	}

	owner, err := o.resolver.Resolve(ctx, job)
	if err != nil {
		return failed(err)
	}
	ApplyOwnership(&rec, owner.Company)

	duplicate, err := o.duplicates.IsDuplicate(ctx, owner.CompanyID, rec)
	if err != nil {
		return failed(err)
	}
	if duplicate {
		logger.Debug().Int("row", row).Msg("duplicate posting skipped")
		return skipped
	}

	posting, created, err := o.persister.Persist(ctx, rec, owner)
	if err != nil {
		return failed(err)
	}
	if !created {
		logger.Debug().Int("row", row).Msg("duplicate posting skipped on insert")
		return skipped
	}

	return rowResult{
		outcome: domain.OutcomeCreated,
		success: &domain.SuccessLogEntry{
			Row:       row,
			PostingID: posting.ID,
			Title:     posting.Record.Title,
			Timestamp: o.now().UTC(),
		},
	}
}

// fail marks the job failed with a single error entry. When ctx is already
// cancelled the job is left as is: either it was cancelled or the process is
// shutting down.
func (o *Orchestrator) fail(ctx context.Context, logger zerolog.Logger, jobID string, cause error) error {
	if ctx.Err() != nil {
		logger.Warn().Err(cause).Msg("import interrupted")
		return cause
	}

	entry := domain.ErrorLogEntry{
		Error:     truncateReason(cause.Error()),
		Timestamp: o.now().UTC(),
	}
	failed, err := o.jobs.Fail(context.WithoutCancel(ctx), jobID, entry)
	if err != nil {
		return fmt.Errorf("%v; fail update failed: %w", cause, err)
	}
	if failed {
		logger.Error().Err(cause).Msg("import failed")
	}
	return cause
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
