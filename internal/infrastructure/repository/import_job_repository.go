package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	row := toImportJobModel(job)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var row models.ImportJob

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImportJobNotFound
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}

	return toImportJobDomain(row), nil
}

// Start moves a pending job to processing. It reports false if the job was not pending.
func (r *ImportJobRepository) Start(ctx context.Context, jobID string) (bool, error) {
	return r.transition(ctx, jobID, []domain.Status{domain.StatusPending}, map[string]any{
		"status":     string(domain.StatusProcessing),
		"started_at": gorm.Expr("NOW()"),
	})
}

func (r *ImportJobRepository) SetTotal(ctx context.Context, jobID string, total int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"total_records": total,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
	if err != nil {
		return fmt.Errorf("set import total: %w", err)
	}
	return nil
}

// RecordRow stores the counters after one row and appends its log entry. Counters
// of a job cancelled mid-run are still recorded.
func (r *ImportJobRepository) RecordRow(
	ctx context.Context,
	jobID string,
	progress domain.ImportProgress,
	failure *domain.ErrorLogEntry,
	success *domain.SuccessLogEntry,
) error {
	updates := map[string]any{
		"processed_records":  progress.ProcessedRecords,
		"successful_imports": progress.SuccessfulImports,
		"failed_imports":     progress.FailedImports,
		"skipped_records":    progress.SkippedRecords,
		"progress":           gorm.Expr("GREATEST(progress, ?)", progress.Progress),
		"updated_at":         gorm.Expr("NOW()"),
	}
	if failure != nil {
		entry, err := json.Marshal([]domain.ErrorLogEntry{*failure})
		if err != nil {
			return fmt.Errorf("encode error log entry: %w", err)
		}
		updates["error_log"] = gorm.Expr("error_log || ?::jsonb", string(entry))
	}
	if success != nil {
		entry, err := json.Marshal([]domain.SuccessLogEntry{*success})
		if err != nil {
			return fmt.Errorf("encode success log entry: %w", err)
		}
		updates["success_log"] = gorm.Expr("success_log || ?::jsonb", string(entry))
	}

	err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", jobID, statusNames(domain.StatusProcessing, domain.StatusCancelled)).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("record import row: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID string) (bool, error) {
	return r.transition(ctx, jobID, []domain.Status{domain.StatusProcessing}, map[string]any{
		"status":       string(domain.StatusCompleted),
		"progress":     100,
		"completed_at": gorm.Expr("NOW()"),
	})
}

// Fail replaces the error log with the single fatal entry.
func (r *ImportJobRepository) Fail(ctx context.Context, jobID string, entry domain.ErrorLogEntry) (bool, error) {
	return r.transition(ctx, jobID, []domain.Status{domain.StatusProcessing}, map[string]any{
		"status":       string(domain.StatusFailed),
		"error_log":    datatypes.JSONSlice[domain.ErrorLogEntry]{entry},
		"completed_at": gorm.Expr("NOW()"),
	})
}

func (r *ImportJobRepository) Cancel(ctx context.Context, jobID string) (bool, error) {
	return r.transition(ctx, jobID, []domain.Status{domain.StatusPending, domain.StatusProcessing}, map[string]any{
		"status":       string(domain.StatusCancelled),
		"cancelled_at": gorm.Expr("NOW()"),
	})
}

func (r *ImportJobRepository) ResetForRetry(ctx context.Context, jobID string) (bool, error) {
	return r.transition(ctx, jobID, []domain.Status{domain.StatusFailed}, map[string]any{
		"status":             string(domain.StatusPending),
		"total_records":      0,
		"processed_records":  0,
		"successful_imports": 0,
		"failed_imports":     0,
		"skipped_records":    0,
		"progress":           0,
		"error_log":          datatypes.JSONSlice[domain.ErrorLogEntry]{},
		"success_log":        datatypes.JSONSlice[domain.SuccessLogEntry]{},
		"started_at":         nil,
		"completed_at":       nil,
		"cancelled_at":       nil,
	})
}

func (r *ImportJobRepository) Delete(ctx context.Context, jobID string) error {
	result := r.db.WithContext(ctx).Delete(&models.ImportJob{}, "id = ?", jobID)
	if result.Error != nil {
		return fmt.Errorf("delete import job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrImportJobNotFound
	}
	return nil
}

func (r *ImportJobRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ids := make([]string, 0)

	err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", string(domain.StatusPending), now).
		Order("scheduled_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list due import jobs: %w", err)
	}
	return ids, nil
}

// transition applies updates only while the job is in one of from. The returned
// bool reports whether a row changed.
func (r *ImportJobRepository) transition(ctx context.Context, jobID string, from []domain.Status, updates map[string]any) (bool, error) {
	updates["updated_at"] = gorm.Expr("NOW()")

	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", jobID, statusNames(from...)).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("update import job status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check import job: %w", err)
	}
	if count == 0 {
		return false, domain.ErrImportJobNotFound
	}
	return false, nil
}

func statusNames(statuses ...domain.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return names
}

func toImportJobModel(job *domain.ImportJob) models.ImportJob {
	errorLog := job.ErrorLog
	if errorLog == nil {
		errorLog = []domain.ErrorLogEntry{}
	}
	successLog := job.SuccessLog
	if successLog == nil {
		successLog = []domain.SuccessLogEntry{}
	}

	return models.ImportJob{
		ID:                job.ID,
		CompanyID:         job.CompanyID,
		CreatedBy:         job.CreatedBy,
		ImportType:        string(job.ImportType),
		FileName:          job.FileName,
		FilePath:          job.FilePath,
		FileSize:          job.FileSize,
		FileChecksum:      job.FileChecksum,
		TotalRecords:      job.TotalRecords,
		ProcessedRecords:  job.ProcessedRecords,
		SuccessfulImports: job.SuccessfulImports,
		FailedImports:     job.FailedImports,
		SkippedRecords:    job.SkippedRecords,
		Progress:          job.Progress,
		Status:            string(job.Status),
		ErrorLog:          datatypes.JSONSlice[domain.ErrorLogEntry](errorLog),
		SuccessLog:        datatypes.JSONSlice[domain.SuccessLogEntry](successLog),
		Config:            datatypes.NewJSONType(job.Config),
		ScheduledAt:       job.ScheduledAt,
		StartedAt:         job.StartedAt,
		CompletedAt:       job.CompletedAt,
		CancelledAt:       job.CancelledAt,
		CreatedAt:         job.CreatedAt,
		UpdatedAt:         job.UpdatedAt,
	}
}

func toImportJobDomain(row models.ImportJob) *domain.ImportJob {
	errorLog := []domain.ErrorLogEntry(row.ErrorLog)
	if errorLog == nil {
		errorLog = []domain.ErrorLogEntry{}
	}
	successLog := []domain.SuccessLogEntry(row.SuccessLog)
	if successLog == nil {
		successLog = []domain.SuccessLogEntry{}
	}

	return &domain.ImportJob{
		ID:                row.ID,
		CompanyID:         row.CompanyID,
		CreatedBy:         row.CreatedBy,
		ImportType:        domain.ImportType(row.ImportType),
		FileName:          row.FileName,
		FilePath:          row.FilePath,
		FileSize:          row.FileSize,
		FileChecksum:      row.FileChecksum,
		TotalRecords:      row.TotalRecords,
		ProcessedRecords:  row.ProcessedRecords,
		SuccessfulImports: row.SuccessfulImports,
		FailedImports:     row.FailedImports,
		SkippedRecords:    row.SkippedRecords,
		Progress:          row.Progress,
		Status:            domain.Status(row.Status),
		ErrorLog:          errorLog,
		SuccessLog:        successLog,
		Config:            row.Config.Data(),
		ScheduledAt:       row.ScheduledAt,
		StartedAt:         row.StartedAt,
		CompletedAt:       row.CompletedAt,
		CancelledAt:       row.CancelledAt,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
