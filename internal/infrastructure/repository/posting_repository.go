package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/shopspring/decimal"
)

// PostingRepository writes imported postings. Inserts rely on the unique
// (company_id, title_key, location_key) index to drop duplicates.
type PostingRepository struct {
	pool *pgxpool.Pool
}

func NewPostingRepository(pool *pgxpool.Pool) *PostingRepository {
	return &PostingRepository{pool: pool}
}

func (r *PostingRepository) Exists(ctx context.Context, key domain.PostingKey) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1
    FROM job_postings
    WHERE company_id = $1 AND title_key = $2 AND location_key = $3
)
`, key.CompanyID, key.Title, key.Location).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check posting exists: %w", err)
	}
	return exists, nil
}

func (r *PostingRepository) Insert(ctx context.Context, posting *domain.Posting) (bool, error) {
	rec := posting.Record
	key := posting.Key()

	var consultancy domain.Consultancy
	if rec.Consultancy != nil {
		consultancy = *rec.Consultancy
	}

	var id string
	err := r.pool.QueryRow(ctx, `
INSERT INTO job_postings (
    id, company_id, created_by, region, status,
    title, title_key, description, location, location_key,
    city, state, country, location_region,
    job_type, experience_level, experience_min, experience_max,
    employment_type, role, role_category, department, category, industry_type,
    salary_min, salary_max, salary_display, salary_currency, salary_period,
    skills, benefits, tags, requirements, responsibilities, education,
    is_urgent, is_featured, is_premium, valid_till, application_deadline,
    posting_type, consultancy_name, hiring_company_name, hiring_company_industry,
    hiring_company_description, show_hiring_company_details,
    created_at, updated_at
)
VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9, $10,
    $11, $12, $13, $14,
    $15, $16, $17, $18,
    $19, $20, $21, $22, $23, $24,
    $25, $26, $27, $28, $29,
    $30, $31, $32, $33, $34, $35,
    $36, $37, $38, $39, $40,
    $41, $42, $43, $44,
    $45, $46,
    $47, $47
)
ON CONFLICT (company_id, title_key, location_key) DO NOTHING
RETURNING id
`,
		posting.ID, posting.CompanyID, posting.CreatedBy, posting.Region, posting.Status,
		rec.Title, key.Title, rec.Description, rec.Location, key.Location,
		rec.City, rec.State, rec.Country, rec.Region,
		rec.JobType, rec.ExperienceLevel, rec.ExperienceMin, rec.ExperienceMax,
		rec.EmploymentType, rec.Role, rec.RoleCategory, rec.Department, rec.Category, rec.IndustryType,
		toNumeric(rec.SalaryMin), toNumeric(rec.SalaryMax), rec.SalaryDisplay, rec.SalaryCurrency, rec.SalaryPeriod,
		nonNil(rec.Skills), nonNil(rec.Benefits), nonNil(rec.Tags), rec.Requirements, rec.Responsibilities, rec.Education,
		rec.IsUrgent, rec.IsFeatured, rec.IsPremium, rec.ValidTill, rec.ApplicationDeadline,
		string(rec.PostingType), nullableText(consultancy.ConsultancyName), nullableText(consultancy.HiringCompanyName),
		nullableText(consultancy.HiringCompanyIndustry),
		nullableText(consultancy.HiringCompanyDescription), consultancy.ShowHiringCompanyDetails,
		posting.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert posting: %w", err)
	}
	return true, nil
}

// DeleteCreatedBetween removes postings a user created for a company within [from, to].
func (r *PostingRepository) DeleteCreatedBetween(ctx context.Context, companyID, createdBy string, from, to time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM job_postings
WHERE company_id = $1
  AND created_by = $2
  AND created_at BETWEEN $3 AND $4
`, companyID, createdBy, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete postings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func toNumeric(value *decimal.Decimal) pgtype.Numeric {
	if value == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: value.Coefficient(), Exp: value.Exponent(), Valid: true}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
