package jobimport

import (
	"strings"
	"time"
)

type ImportType string

const (
	ImportTypeCSV  ImportType = "csv"
	ImportTypeXLSX ImportType = "xlsx"
	ImportTypeJSON ImportType = "json"
)

// ParseImportType accepts the declared type of an upload. "xls" is treated as xlsx.
func ParseImportType(raw string) (ImportType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv":
		return ImportTypeCSV, nil
	case "xlsx", "xls":
		return ImportTypeXLSX, nil
	case "json":
		return ImportTypeJSON, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusFailed:     {StatusPending},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ErrorLogEntry struct {
	Row       int            `json:"row"`
	RawRecord map[string]any `json:"rawRecord,omitempty"`
	Error     string         `json:"error"`
	Timestamp time.Time      `json:"timestamp"`
}

type SuccessLogEntry struct {
	Row       int       `json:"row"`
	PostingID string    `json:"createdEntityId"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationRules struct {
	RequiredFields  []string `json:"requiredFields,omitempty"`
	MaxTitleLength  int      `json:"maxTitleLength,omitempty"`
	AllowedJobTypes []string `json:"allowedJobTypes,omitempty"`
}

type ImportConfig struct {
	FieldMapping    map[string]string `json:"fieldMapping,omitempty"`
	ValidationRules ValidationRules   `json:"validationRules"`
	DefaultValues   map[string]string `json:"defaultValues,omitempty"`
}

type ImportJob struct {
	ID           string     `json:"id"`
	CompanyID    *string    `json:"companyId,omitempty"`
	CreatedBy    string     `json:"createdBy"`
	ImportType   ImportType `json:"importType"`
	FileName     string     `json:"fileName"`
	FilePath     string     `json:"-"`
	FileSize     int64      `json:"fileSize"`
	FileChecksum string     `json:"fileChecksum,omitempty"`

	TotalRecords      int64 `json:"totalRecords"`
	ProcessedRecords  int64 `json:"processedRecords"`
	SuccessfulImports int64 `json:"successfulImports"`
	FailedImports     int64 `json:"failedImports"`
	SkippedRecords    int64 `json:"skippedRecords"`
	Progress          int   `json:"progress"`

	Status     Status            `json:"status"`
	ErrorLog   []ErrorLogEntry   `json:"errorLog"`
	SuccessLog []SuccessLogEntry `json:"successLog"`
	Config     ImportConfig      `json:"config"`

	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (j ImportJob) Counters() ImportProgress {
	return ImportProgress{
		TotalRecords:      j.TotalRecords,
		ProcessedRecords:  j.ProcessedRecords,
		SuccessfulImports: j.SuccessfulImports,
		FailedImports:     j.FailedImports,
		SkippedRecords:    j.SkippedRecords,
		Progress:          j.Progress,
	}
}

// IsDue reports whether a pending job may be started at now.
func (j ImportJob) IsDue(now time.Time) bool {
	return j.ScheduledAt == nil || !j.ScheduledAt.After(now)
}

type RowOutcome int

const (
	OutcomeCreated RowOutcome = iota
	OutcomeFailed
	OutcomeSkipped
)

type ImportProgress struct {
	TotalRecords      int64
	ProcessedRecords  int64
	SuccessfulImports int64
	FailedImports     int64
	SkippedRecords    int64
	Progress          int
}

// Record counts one processed row. Progress never decreases within a run.
func (p *ImportProgress) Record(outcome RowOutcome) {
	switch outcome {
	case OutcomeCreated:
		p.SuccessfulImports++
	case OutcomeFailed:
		p.FailedImports++
	case OutcomeSkipped:
		p.SkippedRecords++
	}
	p.ProcessedRecords++

	if next := ComputeProgress(p.ProcessedRecords, p.TotalRecords); next > p.Progress {
		p.Progress = next
	}
}

func (p ImportProgress) Consistent() bool {
	return p.ProcessedRecords == p.SuccessfulImports+p.FailedImports+p.SkippedRecords &&
		p.ProcessedRecords <= p.TotalRecords
}

func ComputeProgress(processed, total int64) int {
	if total <= 0 {
		return 0
	}
	if processed >= total {
		return 100
	}
	return int(processed * 100 / total)
}
