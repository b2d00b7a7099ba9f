package jobimport

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one input row keyed by header name.
type RawRecord map[string]any

type PostingType string

const (
	PostingTypeCompany     PostingType = "company"
	PostingTypeConsultancy PostingType = "consultancy"
)

type Consultancy struct {
	ConsultancyName          string `json:"consultancyName"`
	HiringCompanyName        string `json:"hiringCompanyName"`
	HiringCompanyIndustry    string `json:"hiringCompanyIndustry"`
	HiringCompanyDescription string `json:"hiringCompanyDescription"`
	ShowHiringCompanyDetails bool   `json:"showHiringCompanyDetails"`
}

type NormalizedRecord struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Location    string `validate:"required"`
	City        string
	State       string
	Country     string
	Region      string

	Type            string
	JobType         string
	ExperienceLevel string
	ExperienceMin   *int
	ExperienceMax   *int
	EmploymentType  string
	Role            string
	RoleCategory    string
	Department      string
	Category        string
	IndustryType    string

	SalaryMin      *decimal.Decimal
	SalaryMax      *decimal.Decimal
	SalaryDisplay  string
	SalaryCurrency string
	SalaryPeriod   string

	Skills           []string
	Benefits         []string
	Tags             []string
	Requirements     string
	Responsibilities string
	Education        string

	IsUrgent   bool
	IsFeatured bool
	IsPremium  bool

	ValidTill           *time.Time
	ApplicationDeadline *time.Time

	PostingType PostingType
	Consultancy *Consultancy

	// Issues holds values the normalizer could not interpret.
	Issues []string
}

type Company struct {
	ID     string
	Name   string
	Region string
	Active bool
}

type Uploader struct {
	ID        string
	CompanyID *string
	Region    string
}

// Ownership is the resolved owner of every posting produced by one row.
type Ownership struct {
	CompanyID string
	Company   Company
	CreatedBy string
	Region    string
}

type Posting struct {
	ID        string
	CompanyID string
	CreatedBy string
	Region    string
	Status    string
	Record    NormalizedRecord
	CreatedAt time.Time
}

func (p Posting) Key() PostingKey {
	return NewPostingKey(p.CompanyID, p.Record.Title, p.Record.Location)
}

// PostingKey identifies a posting for duplicate detection.
type PostingKey struct {
	CompanyID string
	Title     string
	Location  string
}

func NewPostingKey(companyID, title, location string) PostingKey {
	return PostingKey{
		CompanyID: companyID,
		Title:     normalizeKeyPart(title),
		Location:  normalizeKeyPart(location),
	}
}

func normalizeKeyPart(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
