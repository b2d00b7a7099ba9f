package jobimport

import (
	"regexp"
	"strconv"
	"strings"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
)

const (
	defaultSalaryCurrency = "INR"
	defaultSalaryPeriod   = "yearly"
)

var experienceRangePattern = regexp.MustCompile(`\d+`)

// Normalizer turns one raw row into a NormalizedRecord. It never fails: values it
// cannot interpret are reported through NormalizedRecord.Issues.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Normalize(raw domain.RawRecord, cfg domain.ImportConfig) domain.NormalizedRecord {
	row := applyConfig(raw, cfg)

	var issues []string
	note := func(issue string) {
		if issue != "" {
			issues = append(issues, issue)
		}
	}

	rec := domain.NormalizedRecord{
		Title:            getString(row, "title"),
		Description:      getString(row, "description"),
		City:             getString(row, "city"),
		State:            getString(row, "state"),
		Country:          getString(row, "country"),
		Region:           getString(row, "region"),
		ExperienceLevel:  getString(row, "experienceLevel", "experience"),
		EmploymentType:   getString(row, "employmentType"),
		Role:             getString(row, "role"),
		RoleCategory:     getString(row, "roleCategory"),
		Department:       getString(row, "department"),
		Category:         getString(row, "category"),
		IndustryType:     getString(row, "industryType"),
		Skills:           getList(row, "skills"),
		Benefits:         getList(row, "benefits"),
		Tags:             getList(row, "tags"),
		Requirements:     getString(row, "requirements"),
		Responsibilities: getString(row, "responsibilities"),
		Education:        getString(row, "education"),
		SalaryCurrency:   strings.ToUpper(getString(row, "salaryCurrency")),
		SalaryPeriod:     strings.ToLower(getString(row, "salaryPeriod")),
	}

	rec.Location = getString(row, "location")
	if rec.Location == "" {
		rec.Location = joinNonEmpty(", ", rec.City, rec.State, rec.Country)
	}

	rec.JobType = canonicalJobType(getString(row, "jobType", "type"))
	rec.Type = rec.JobType

	var issue string
	rec.ExperienceMin, issue = getInt(row, "experienceMin")
	note(issue)
	rec.ExperienceMax, issue = getInt(row, "experienceMax")
	note(issue)
	if rec.ExperienceMin == nil && rec.ExperienceMax == nil {
		rec.ExperienceMin, rec.ExperienceMax = experienceRange(getString(row, "experience", "experienceLevel"))
	}

	note(normalizeSalary(row, &rec))
	if rec.SalaryCurrency == "" {
		rec.SalaryCurrency = defaultSalaryCurrency
	}
	if rec.SalaryPeriod == "" {
		rec.SalaryPeriod = defaultSalaryPeriod
	}

	rec.IsUrgent, issue = getBool(row, "isUrgent")
	note(issue)
	rec.IsFeatured, issue = getBool(row, "isFeatured")
	note(issue)
	rec.IsPremium, issue = getBool(row, "isPremium")
	note(issue)

	rec.ValidTill, issue = getTime(row, "validTill")
	note(issue)
	rec.ApplicationDeadline, issue = getTime(row, "applicationDeadline")
	note(issue)
	if rec.ValidTill == nil {
		rec.ValidTill = rec.ApplicationDeadline
	}
	if rec.ApplicationDeadline == nil {
		rec.ApplicationDeadline = rec.ValidTill
	}

	switch postingType := strings.ToLower(getString(row, "postingType")); postingType {
	case "", string(domain.PostingTypeCompany):
		rec.PostingType = domain.PostingTypeCompany
	case string(domain.PostingTypeConsultancy):
		rec.PostingType = domain.PostingTypeConsultancy
		show, showIssue := getBool(row, "showHiringCompanyDetails")
		note(showIssue)
		rec.Consultancy = &domain.Consultancy{
			ConsultancyName:          getString(row, "consultancyName"),
			HiringCompanyName:        getString(row, "hiringCompanyName", "companyName"),
			HiringCompanyIndustry:    getString(row, "hiringCompanyIndustry"),
			HiringCompanyDescription: getString(row, "hiringCompanyDescription"),
			ShowHiringCompanyDetails: show,
		}
	default:
		rec.PostingType = domain.PostingTypeCompany
		note("postingType must be company or consultancy")
	}

	rec.Issues = issues
	return rec
}

// ApplyOwnership binds the record to its resolved company. A consultancy posting
// always carries the owning company's name as its consultancy name.
func ApplyOwnership(rec *domain.NormalizedRecord, company domain.Company) {
	if rec.PostingType != domain.PostingTypeConsultancy {
		rec.Consultancy = nil
		return
	}
	if rec.Consultancy == nil {
		rec.Consultancy = &domain.Consultancy{}
	}
	rec.Consultancy.ConsultancyName = company.Name
}

// applyConfig returns a copy of raw with field mapping and default values applied.
func applyConfig(raw domain.RawRecord, cfg domain.ImportConfig) domain.RawRecord {
	row := make(domain.RawRecord, len(raw)+len(cfg.DefaultValues))
	for key, val := range raw {
		row[key] = val
	}

	for source, target := range cfg.FieldMapping {
		if source == target || target == "" {
			continue
		}
		val, ok := raw[source]
		if !ok {
			continue
		}
		delete(row, source)
		if isBlank(row[target]) {
			row[target] = val
		}
	}

	for key, val := range cfg.DefaultValues {
		if isBlank(row[key]) {
			row[key] = val
		}
	}
	return row
}

func normalizeSalary(row domain.RawRecord, rec *domain.NormalizedRecord) string {
	min, minIssue := getDecimal(row, "salaryMin")
	max, maxIssue := getDecimal(row, "salaryMax")
	if minIssue != "" {
		return minIssue
	}
	if maxIssue != "" {
		return maxIssue
	}

	var salary Salary
	if min != nil || max != nil {
		salary = NormalizeSalaryBounds(min, max)
	} else {
		text := getString(row, "salary")
		if text == "" {
			return ""
		}
		parsed, ok := ParseSalaryText(text)
		if !ok {
			rec.SalaryDisplay = text
			return ""
		}
		salary = parsed
	}

	rec.SalaryMin = salary.Min
	rec.SalaryMax = salary.Max
	rec.SalaryDisplay = salary.Display
	return ""
}

// canonicalJobType maps "Full Time" and "full_time" to "full-time".
func canonicalJobType(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.NewReplacer("_", "-", " ", "-").Replace(value)
	for strings.Contains(value, "--") {
		value = strings.ReplaceAll(value, "--", "-")
	}
	return value
}

// experienceRange reads "2-5 years" or "3+ years".
func experienceRange(text string) (*int, *int) {
	numbers := experienceRangePattern.FindAllString(text, 2)
	if len(numbers) == 0 {
		return nil, nil
	}
	min, err := strconv.Atoi(numbers[0])
	if err != nil {
		return nil, nil
	}
	if len(numbers) == 1 {
		return &min, nil
	}
	max, err := strconv.Atoi(numbers[1])
	if err != nil {
		return &min, nil
	}
	if min > max {
		min, max = max, min
	}
	return &min, &max
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, sep)
}
