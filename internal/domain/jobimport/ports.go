package jobimport

import (
	"context"
	"io"
	"time"
)

type ImportJobRepository interface {
	Create(ctx context.Context, job *ImportJob) error
	Get(ctx context.Context, jobID string) (*ImportJob, error)
	Start(ctx context.Context, jobID string) (bool, error)
	SetTotal(ctx context.Context, jobID string, total int64) error
	RecordRow(ctx context.Context, jobID string, progress ImportProgress, failure *ErrorLogEntry, success *SuccessLogEntry) error
	Complete(ctx context.Context, jobID string) (bool, error)
	Fail(ctx context.Context, jobID string, entry ErrorLogEntry) (bool, error)
	Cancel(ctx context.Context, jobID string) (bool, error)
	ResetForRetry(ctx context.Context, jobID string) (bool, error)
	Delete(ctx context.Context, jobID string) error
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type DirectoryRepository interface {
	GetUploader(ctx context.Context, userID string) (*Uploader, error)
	GetCompany(ctx context.Context, companyID string) (*Company, error)
}

type PostingRepository interface {
	Exists(ctx context.Context, key PostingKey) (bool, error)
	// Insert stores the posting unless one with the same key exists; created reports which happened.
	Insert(ctx context.Context, posting *Posting) (created bool, err error)
	DeleteCreatedBetween(ctx context.Context, companyID, createdBy string, from, to time.Time) (int64, error)
}

type StoredFile struct {
	Path     string
	Size     int64
	Checksum string
}

type FileStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (StoredFile, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}
