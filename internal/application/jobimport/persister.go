package jobimport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
)

const postingStatusActive = "active"

// DuplicateChecker reports whether the company already has a posting with the
// same title and location. It is a read-only pre-check; the insert itself is
// guarded by a unique key.
type DuplicateChecker struct {
	postings domain.PostingRepository
}

func NewDuplicateChecker(postings domain.PostingRepository) *DuplicateChecker {
	return &DuplicateChecker{postings: postings}
}

func (c *DuplicateChecker) IsDuplicate(ctx context.Context, companyID string, rec domain.NormalizedRecord) (bool, error) {
	exists, err := c.postings.Exists(ctx, domain.NewPostingKey(companyID, rec.Title, rec.Location))
	if err != nil {
		return false, fmt.Errorf("check duplicate posting: %w", err)
	}
	return exists, nil
}

type JobPersister struct {
	postings domain.PostingRepository
	now      func() time.Time
}

func NewJobPersister(postings domain.PostingRepository) *JobPersister {
	return &JobPersister{postings: postings, now: time.Now}
}

// Persist inserts one posting. created is false when an equal posting was stored
// concurrently, in which case the row counts as a duplicate.
func (p *JobPersister) Persist(ctx context.Context, rec domain.NormalizedRecord, owner domain.Ownership) (*domain.Posting, bool, error) {
	posting := &domain.Posting{
		ID:        uuid.NewString(),
		CompanyID: owner.CompanyID,
		CreatedBy: owner.CreatedBy,
		Region:    owner.Region,
		Status:    postingStatusActive,
		Record:    rec,
		CreatedAt: p.now().UTC(),
	}

	created, err := p.postings.Insert(ctx, posting)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !created {
		return nil, false, nil
	}
	return posting, true, nil
}
