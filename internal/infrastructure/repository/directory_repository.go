package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// DirectoryRepository reads the users and companies that own imported postings.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetUploader(ctx context.Context, userID string) (*domain.Uploader, error) {
	var row models.User

	err := r.db.WithContext(ctx).First(&row, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUploaderNotFound
		}
		return nil, fmt.Errorf("get uploader: %w", err)
	}

	return &domain.Uploader{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		Region:    derefString(row.Region),
	}, nil
}

func (r *DirectoryRepository) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	var row models.Company

	err := r.db.WithContext(ctx).First(&row, "id = ?", companyID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}

	return &domain.Company{
		ID:     row.ID,
		Name:   row.Name,
		Region: derefString(row.Region),
		Active: row.IsActive,
	}, nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
