package models

import (
	"time"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"gorm.io/datatypes"
)

type ImportJob struct {
	ID                string                                      `gorm:"type:uuid;primaryKey"`
	CompanyID         *string                                     `gorm:"type:uuid"`
	CreatedBy         string                                      `gorm:"type:uuid;not null;index"`
	ImportType        string                                      `gorm:"type:text;not null"`
	FileName          string                                      `gorm:"type:text;not null"`
	FilePath          string                                      `gorm:"type:text;not null"`
	FileSize          int64                                       `gorm:"not null;default:0"`
	FileChecksum      string                                      `gorm:"type:text;not null;default:''"`
	TotalRecords      int64                                       `gorm:"not null;default:0"`
	ProcessedRecords  int64                                       `gorm:"not null;default:0"`
	SuccessfulImports int64                                       `gorm:"not null;default:0"`
	FailedImports     int64                                       `gorm:"not null;default:0"`
	SkippedRecords    int64                                       `gorm:"not null;default:0"`
	Progress          int                                         `gorm:"not null;default:0"`
	Status            string                                      `gorm:"type:text;not null;index"`
	ErrorLog          datatypes.JSONSlice[domain.ErrorLogEntry]   `gorm:"type:jsonb;not null"`
	SuccessLog        datatypes.JSONSlice[domain.SuccessLogEntry] `gorm:"type:jsonb;not null"`
	Config            datatypes.JSONType[domain.ImportConfig]     `gorm:"type:jsonb;not null"`
	ScheduledAt       *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
