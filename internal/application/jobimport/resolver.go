package jobimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
)

const DefaultRegion = "IN"

// EntityResolver finds the company that owns the postings of an import run.
type EntityResolver struct {
	directory     domain.DirectoryRepository
	defaultRegion string
}

func NewEntityResolver(directory domain.DirectoryRepository, defaultRegion string) *EntityResolver {
	if strings.TrimSpace(defaultRegion) == "" {
		defaultRegion = DefaultRegion
	}
	return &EntityResolver{directory: directory, defaultRegion: defaultRegion}
}

// Resolve prefers the uploader's own company over the company configured on the job.
func (r *EntityResolver) Resolve(ctx context.Context, job domain.ImportJob) (domain.Ownership, error) {
	uploader, err := r.directory.GetUploader(ctx, job.CreatedBy)
	if err != nil && !errors.Is(err, domain.ErrUploaderNotFound) {
		return domain.Ownership{}, fmt.Errorf("get uploader: %w", err)
	}

	var companyID string
	if uploader != nil && uploader.CompanyID != nil {
		companyID = strings.TrimSpace(*uploader.CompanyID)
	}
	if companyID == "" && job.CompanyID != nil {
		companyID = strings.TrimSpace(*job.CompanyID)
	}
	if companyID == "" {
		return domain.Ownership{}, domain.ErrMissingCompany
	}

	company, err := r.directory.GetCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return domain.Ownership{}, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, companyID)
		}
		return domain.Ownership{}, fmt.Errorf("get company: %w", err)
	}
	if company == nil || !company.Active {
		return domain.Ownership{}, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, companyID)
	}

	region := r.defaultRegion
	switch {
	case uploader != nil && strings.TrimSpace(uploader.Region) != "":
		region = strings.TrimSpace(uploader.Region)
	case strings.TrimSpace(company.Region) != "":
		region = strings.TrimSpace(company.Region)
	}

	return domain.Ownership{
		CompanyID: company.ID,
		Company:   *company,
		CreatedBy: job.CreatedBy,
		Region:    region,
	}, nil
}
