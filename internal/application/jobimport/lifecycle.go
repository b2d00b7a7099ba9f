package jobimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/rs/zerolog"
)

type runController interface {
	Launch(jobID string) bool
	Resume(jobID string) bool
	Cancel(jobID string) bool
	WaitFor(ctx context.Context, jobID string) error
}

type ownershipResolver interface {
	Resolve(ctx context.Context, job domain.ImportJob) (domain.Ownership, error)
}

type ControllerConfig struct {
	// DeleteWindow widens the run interval when matching postings for a cascading delete.
	DeleteWindow time.Duration
}

type CreateImportInput struct {
	UploaderID  string
	CompanyID   *string
	ImportType  string
	FileName    string
	File        io.Reader
	ScheduledAt *time.Time
	Config      domain.ImportConfig
}

type DeleteResult struct {
	JobID           string `json:"jobId"`
	DeletedPostings int64  `json:"deletedPostings"`
}

// Controller owns the lifecycle of import jobs: create, cancel, retry and delete.
type Controller struct {
	jobs     domain.ImportJobRepository
	files    domain.FileStore
	postings domain.PostingRepository
	resolver ownershipResolver
	runs     runController
	cfg      ControllerConfig
	logger   zerolog.Logger
	now      func() time.Time
}

func NewController(
	jobs domain.ImportJobRepository,
	files domain.FileStore,
	postings domain.PostingRepository,
	resolver ownershipResolver,
	runs runController,
	cfg ControllerConfig,
	logger zerolog.Logger,
) *Controller {
	if cfg.DeleteWindow <= 0 {
		cfg.DeleteWindow = 5 * time.Minute
	}

	return &Controller{
		jobs:     jobs,
		files:    files,
		postings: postings,
		resolver: resolver,
		runs:     runs,
		cfg:      cfg,
		logger:   logger.With().Str("component", "import_lifecycle").Logger(),
		now:      time.Now,
	}
}

// Create stores the upload and records a pending job. Unless the job is scheduled
// for later, its run starts in the background before Create returns.
func (c *Controller) Create(ctx context.Context, in CreateImportInput) (*domain.ImportJob, error) {
	if _, err := uuid.Parse(strings.TrimSpace(in.UploaderID)); err != nil {
		return nil, fmt.Errorf("%w: uploader id must be a uuid", ErrInvalidImportRequest)
	}
	if in.CompanyID != nil {
		companyID := strings.TrimSpace(*in.CompanyID)
		if companyID == "" {
			in.CompanyID = nil
		} else if _, err := uuid.Parse(companyID); err != nil {
			return nil, fmt.Errorf("%w: company id must be a uuid", ErrInvalidImportRequest)
		} else {
			in.CompanyID = &companyID
		}
	}
	if in.File == nil || strings.TrimSpace(in.FileName) == "" {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidImportRequest)
	}

	importType, err := domain.ParseImportType(in.ImportType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, in.ImportType)
	}
	if err := validateImportConfig(in.Config); err != nil {
		return nil, err
	}

	stored, err := c.files.Save(ctx, in.FileName, in.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreImportFile, err)
	}

	now := c.now().UTC()
	job := &domain.ImportJob{
		ID:           uuid.NewString(),
		CompanyID:    in.CompanyID,
		CreatedBy:    strings.TrimSpace(in.UploaderID),
		ImportType:   importType,
		FileName:     in.FileName,
		FilePath:     stored.Path,
		FileSize:     stored.Size,
		FileChecksum: stored.Checksum,
		Status:       domain.StatusPending,
		ErrorLog:     []domain.ErrorLogEntry{},
		SuccessLog:   []domain.SuccessLogEntry{},
		Config:       in.Config,
		ScheduledAt:  in.ScheduledAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.jobs.Create(ctx, job); err != nil {
		if removeErr := c.files.Remove(context.WithoutCancel(ctx), stored.Path); removeErr != nil {
			c.logger.Warn().Err(removeErr).Str("path", stored.Path).Msg("remove orphaned import file failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrCreateImportJob, err)
	}

	logger := c.logger.With().Str("import_job_id", job.ID).Logger()
	if job.IsDue(now) {
		c.runs.Launch(job.ID)
		logger.Info().Str("import_type", string(importType)).Msg("import job created and launched")
	} else {
		logger.Info().Time("scheduled_at", *job.ScheduledAt).Msg("import job scheduled")
	}
	return job, nil
}

func (c *Controller) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrImportJobNotFound, jobID)
	}
	return c.jobs.Get(ctx, jobID)
}

// Cancel stops a pending or processing job. Cancelling a cancelled job returns it unchanged.
func (c *Controller) Cancel(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	job, err := c.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.StatusCancelled {
		return job, nil
	}
	if !domain.CanTransition(job.Status, domain.StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s import", domain.ErrInvalidTransition, job.Status)
	}

	cancelled, err := c.jobs.Cancel(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("cancel import job: %w", err)
	}
	c.runs.Cancel(jobID)

	job, err = c.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !cancelled && job.Status != domain.StatusCancelled {
		return nil, fmt.Errorf("%w: import finished as %s", domain.ErrInvalidTransition, job.Status)
	}

	c.logger.Info().Str("import_job_id", jobID).Msg("import job cancelled")
	return job, nil
}

// Retry resets a failed job and runs it again.
func (c *Controller) Retry(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	job, err := c.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(job.Status, domain.StatusPending) {
		return nil, fmt.Errorf("%w: only failed imports can be retried, got %s", domain.ErrInvalidTransition, job.Status)
	}

	reset, err := c.jobs.ResetForRetry(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("reset import job: %w", err)
	}
	if !reset {
		return nil, fmt.Errorf("%w: import job is no longer failed", domain.ErrInvalidTransition)
	}

	logger := c.logger.With().Str("import_job_id", jobID).Logger()
	if c.runs.Resume(jobID) {
		logger.Info().Msg("import job retried")
	} else {
		logger.Info().Msg("import job retried, run starts when the previous one returns")
	}
	return c.jobs.Get(ctx, jobID)
}

// Delete removes the job and its stored file. With cascade it also removes the
// postings the run created, matched by owner and a window around the run.
func (c *Controller) Delete(ctx context.Context, jobID string, cascade bool) (DeleteResult, error) {
	result := DeleteResult{JobID: jobID}

	job, err := c.Get(ctx, jobID)
	if err != nil {
		return result, err
	}
	logger := c.logger.With().Str("import_job_id", jobID).Logger()

	if !job.Status.IsTerminal() {
		if _, err := c.jobs.Cancel(ctx, jobID); err != nil {
			return result, fmt.Errorf("cancel import job: %w", err)
		}
		c.runs.Cancel(jobID)
	}

	if cascade {
		if err := c.runs.WaitFor(ctx, jobID); err != nil {
			return result, fmt.Errorf("wait for import run: %w", err)
		}
		deleted, err := c.deletePostings(ctx, *job)
		if err != nil {
			return result, err
		}
		result.DeletedPostings = deleted
	}

	if job.FilePath != "" {
		if err := c.files.Remove(ctx, job.FilePath); err != nil {
			logger.Warn().Err(err).Msg("remove import file failed")
		}
	}

	if err := c.jobs.Delete(ctx, jobID); err != nil {
		return result, fmt.Errorf("delete import job: %w", err)
	}

	logger.Info().Bool("cascade", cascade).Int64("deleted_postings", result.DeletedPostings).Msg("import job deleted")
	return result, nil
}

func (c *Controller) deletePostings(ctx context.Context, job domain.ImportJob) (int64, error) {
	if job.StartedAt == nil {
		return 0, nil
	}

	owner, err := c.resolver.Resolve(ctx, job)
	if err != nil {
		if errors.Is(err, domain.ErrMissingCompany) || errors.Is(err, domain.ErrCompanyNotFound) {
			c.logger.Warn().Err(err).Str("import_job_id", job.ID).Msg("skip posting cleanup, owner not resolvable")
			return 0, nil
		}
		return 0, fmt.Errorf("resolve import owner: %w", err)
	}

	end := c.now().UTC()
	switch {
	case job.CompletedAt != nil:
		end = *job.CompletedAt
	case job.CancelledAt != nil:
		end = *job.CancelledAt
	}
	from := job.StartedAt.Add(-c.cfg.DeleteWindow)
	to := end.Add(c.cfg.DeleteWindow)

	deleted, err := c.postings.DeleteCreatedBetween(ctx, owner.CompanyID, job.CreatedBy, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete import postings: %w", err)
	}
	return deleted, nil
}

func (c *Controller) Template(format string) (TemplateFile, error) {
	return BuildTemplate(format)
}

func validateImportConfig(cfg domain.ImportConfig) error {
	for _, field := range cfg.ValidationRules.RequiredFields {
		if !IsRequirableField(field) {
			return fmt.Errorf("%w: unknown required field %q", ErrInvalidImportConfig, field)
		}
	}
	if cfg.ValidationRules.MaxTitleLength < 0 {
		return fmt.Errorf("%w: maxTitleLength must not be negative", ErrInvalidImportConfig)
	}
	for source, target := range cfg.FieldMapping {
		if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
			return fmt.Errorf("%w: field mapping entries must name both columns", ErrInvalidImportConfig)
		}
	}
	return nil
}
