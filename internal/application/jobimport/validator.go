package jobimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
)

type fieldCheck func(rec domain.NormalizedRecord) bool

func hasText(get func(domain.NormalizedRecord) string) fieldCheck {
	return func(rec domain.NormalizedRecord) bool {
		return strings.TrimSpace(get(rec)) != ""
	}
}

// requirableFields are the row keys a caller may list in ValidationRules.RequiredFields.
var requirableFields = map[string]fieldCheck{
	"title":            hasText(func(r domain.NormalizedRecord) string { return r.Title }),
	"description":      hasText(func(r domain.NormalizedRecord) string { return r.Description }),
	"location":         hasText(func(r domain.NormalizedRecord) string { return r.Location }),
	"city":             hasText(func(r domain.NormalizedRecord) string { return r.City }),
	"state":            hasText(func(r domain.NormalizedRecord) string { return r.State }),
	"country":          hasText(func(r domain.NormalizedRecord) string { return r.Country }),
	"region":           hasText(func(r domain.NormalizedRecord) string { return r.Region }),
	"type":             hasText(func(r domain.NormalizedRecord) string { return r.Type }),
	"jobType":          hasText(func(r domain.NormalizedRecord) string { return r.JobType }),
	"experienceLevel":  hasText(func(r domain.NormalizedRecord) string { return r.ExperienceLevel }),
	"employmentType":   hasText(func(r domain.NormalizedRecord) string { return r.EmploymentType }),
	"role":             hasText(func(r domain.NormalizedRecord) string { return r.Role }),
	"roleCategory":     hasText(func(r domain.NormalizedRecord) string { return r.RoleCategory }),
	"department":       hasText(func(r domain.NormalizedRecord) string { return r.Department }),
	"category":         hasText(func(r domain.NormalizedRecord) string { return r.Category }),
	"industryType":     hasText(func(r domain.NormalizedRecord) string { return r.IndustryType }),
	"requirements":     hasText(func(r domain.NormalizedRecord) string { return r.Requirements }),
	"responsibilities": hasText(func(r domain.NormalizedRecord) string { return r.Responsibilities }),
	"education":        hasText(func(r domain.NormalizedRecord) string { return r.Education }),
	"salary": func(r domain.NormalizedRecord) bool {
		return r.SalaryMin != nil || r.SalaryMax != nil || strings.TrimSpace(r.SalaryDisplay) != ""
	},
	"salaryMin":           func(r domain.NormalizedRecord) bool { return r.SalaryMin != nil },
	"salaryMax":           func(r domain.NormalizedRecord) bool { return r.SalaryMax != nil },
	"experienceMin":       func(r domain.NormalizedRecord) bool { return r.ExperienceMin != nil },
	"experienceMax":       func(r domain.NormalizedRecord) bool { return r.ExperienceMax != nil },
	"skills":              func(r domain.NormalizedRecord) bool { return len(r.Skills) > 0 },
	"benefits":            func(r domain.NormalizedRecord) bool { return len(r.Benefits) > 0 },
	"tags":                func(r domain.NormalizedRecord) bool { return len(r.Tags) > 0 },
	"validTill":           func(r domain.NormalizedRecord) bool { return r.ValidTill != nil },
	"applicationDeadline": func(r domain.NormalizedRecord) bool { return r.ApplicationDeadline != nil },
	"hiringCompanyName": func(r domain.NormalizedRecord) bool {
		return r.Consultancy != nil && strings.TrimSpace(r.Consultancy.HiringCompanyName) != ""
	},
}

// IsRequirableField reports whether name may be listed in ValidationRules.RequiredFields.
func IsRequirableField(name string) bool {
	_, ok := requirableFields[name]
	return ok
}

type RecordValidator struct {
	validate *validator.Validate
}

func NewRecordValidator() *RecordValidator {
	return &RecordValidator{validate: validator.New()}
}

// Validate returns human readable violations. An empty result means the record is valid.
func (v *RecordValidator) Validate(rec domain.NormalizedRecord, rules domain.ValidationRules) []string {
	violations := make([]string, 0)
	reported := make(map[string]bool)
	require := func(field string) {
		if !reported[field] {
			reported[field] = true
			violations = append(violations, fmt.Sprintf("%s is required", field))
		}
	}

	trimmed := rec
	trimmed.Title = strings.TrimSpace(rec.Title)
	trimmed.Description = strings.TrimSpace(rec.Description)
	trimmed.Location = strings.TrimSpace(rec.Location)

	if err := v.validate.Struct(trimmed); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return append(violations, err.Error())
		}
		for _, fe := range fieldErrs {
			require(lowerFirst(fe.Field()))
		}
	}

	for _, field := range rules.RequiredFields {
		check, ok := requirableFields[field]
		if ok && !check(trimmed) {
			require(field)
		}
	}

	if rules.MaxTitleLength > 0 && trimmed.Title != "" {
		if err := v.validate.Var(trimmed.Title, fmt.Sprintf("max=%d", rules.MaxTitleLength)); err != nil {
			violations = append(violations, fmt.Sprintf("title must be at most %d characters", rules.MaxTitleLength))
		}
	}

	if len(rules.AllowedJobTypes) > 0 && trimmed.JobType != "" && !jobTypeAllowed(trimmed.JobType, rules.AllowedJobTypes) {
		violations = append(violations, fmt.Sprintf("jobType %q is not allowed", trimmed.JobType))
	}

	return append(violations, rec.Issues...)
}

func jobTypeAllowed(jobType string, allowed []string) bool {
	for _, candidate := range allowed {
		if canonicalJobType(candidate) == jobType {
			return true
		}
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
