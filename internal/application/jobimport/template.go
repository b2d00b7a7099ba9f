package jobimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Jobs"

type TemplateFile struct {
	Name        string
	ContentType string
	Content     []byte
}

var templateColumns = []string{
	"title", "description", "location", "city", "state", "country", "region",
	"jobType", "experienceLevel", "experienceMin", "experienceMax",
	"salary", "salaryMin", "salaryMax", "salaryCurrency", "salaryPeriod",
	"department", "category", "industryType", "roleCategory", "role", "employmentType",
	"skills", "requirements", "responsibilities", "education", "benefits", "tags",
	"isUrgent", "isFeatured", "isPremium", "validTill", "applicationDeadline",
	"hotVacancy", "hotVacancyPrice", "boostedUntil", "priorityPlacement",
	"postingType", "companyName", "hiringCompanyName", "hiringCompanyIndustry",
	"hiringCompanyDescription", "showHiringCompanyDetails", "clientCompanyAttribution",
}

// hotVacancyFields are paid listing options. They are kept out of the template
// only; imports that carry them are not rejected.
var hotVacancyFields = map[string]struct{}{
	"hotVacancy":               {},
	"hotVacancyPrice":          {},
	"boostedUntil":             {},
	"priorityPlacement":        {},
	"clientCompanyAttribution": {},
}

var templateExamples = []map[string]string{
	{
		"title":            "Senior Backend Engineer",
		"description":      "Design and run the services behind our hiring platform.",
		"location":         "Bengaluru, Karnataka, India",
		"city":             "Bengaluru",
		"state":            "Karnataka",
		"country":          "India",
		"region":           "South",
		"jobType":          "full-time",
		"experienceLevel":  "senior",
		"experienceMin":    "5",
		"experienceMax":    "8",
		"salary":           "30-40 LPA",
		"salaryCurrency":   "INR",
		"salaryPeriod":     "yearly",
		"department":       "Engineering",
		"category":         "Software Development",
		"industryType":     "Internet",
		"roleCategory":     "Backend Development",
		"role":             "Backend Engineer",
		"employmentType":   "permanent",
		"skills":           "Go, PostgreSQL, Kafka",
		"requirements":     "5+ years building distributed systems",
		"responsibilities": "Own services end to end",
		"education":        "B.Tech/B.E.",
		"benefits":         "Health insurance, Remote allowance",
		"tags":             "backend, golang",
		"isUrgent":         "false",
		"isFeatured":       "true",
		"isPremium":        "false",
		"validTill":        "2026-12-31",
		"hotVacancy":       "true",
		"hotVacancyPrice":  "4999",
		"postingType":      "company",
	},
	{
		"title":                    "Store Operations Manager",
		"description":              "Lead daily operations across a cluster of retail stores.",
		"location":                 "Mumbai, Maharashtra, India",
		"city":                     "Mumbai",
		"state":                    "Maharashtra",
		"country":                  "India",
		"region":                   "West",
		"jobType":                  "full-time",
		"experienceLevel":          "mid",
		"experienceMin":            "3",
		"experienceMax":            "6",
		"salaryMin":                "8",
		"salaryMax":                "12",
		"salaryCurrency":           "INR",
		"salaryPeriod":             "yearly",
		"department":               "Operations",
		"category":                 "Retail",
		"industryType":             "Retail",
		"roleCategory":             "Store Management",
		"role":                     "Operations Manager",
		"employmentType":           "permanent",
		"skills":                   "Team leadership, Inventory planning",
		"benefits":                 "PF, Performance bonus",
		"tags":                     "retail, operations",
		"isUrgent":                 "true",
		"applicationDeadline":      "2026-11-30",
		"boostedUntil":             "2026-11-15",
		"priorityPlacement":        "top",
		"postingType":              "consultancy",
		"companyName":              "Acme Retail Pvt Ltd",
		"hiringCompanyName":        "Acme Retail Pvt Ltd",
		"hiringCompanyIndustry":    "Retail",
		"hiringCompanyDescription": "A national chain of neighbourhood stores.",
		"showHiringCompanyDetails": "true",
		"clientCompanyAttribution": "Acme Group",
	},
}

// BuildTemplate renders the downloadable import template as csv or xlsx.
func BuildTemplate(format string) (TemplateFile, error) {
	columns := templateHeader()
	rows := make([][]string, 0, len(templateExamples))
	for _, example := range templateExamples {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = example[column]
		}
		rows = append(rows, row)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		content, err := renderCSVTemplate(columns, rows)
		if err != nil {
			return TemplateFile{}, err
		}
		return TemplateFile{Name: "job-import-template.csv", ContentType: "text/csv", Content: content}, nil
	case "xlsx", "xls":
		content, err := renderXLSXTemplate(columns, rows)
		if err != nil {
			return TemplateFile{}, err
		}
		return TemplateFile{
			Name:        "job-import-template.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}, nil
	default:
		return TemplateFile{}, fmt.Errorf("%w: %q", ErrUnsupportedTemplateFormat, format)
	}
}

func templateHeader() []string {
	columns := make([]string, 0, len(templateColumns))
	for _, column := range templateColumns {
		if _, denied := hotVacancyFields[column]; !denied {
			columns = append(columns, column)
		}
	}
	return columns
}

func renderCSVTemplate(columns []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write template header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write template rows: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSXTemplate(columns []string, rows [][]string) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", templateSheet); err != nil {
		return nil, fmt.Errorf("name template sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := book.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write template header: %w", err)
	}

	headerStyle, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastCell, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil, err
	}
	if err := book.SetCellStyle(templateSheet, "A1", lastCell, headerStyle); err != nil {
		return nil, fmt.Errorf("style template header: %w", err)
	}

	for i, row := range rows {
		cells := make([]any, len(row))
		for j, value := range row {
			cells[j] = value
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := book.SetSheetRow(templateSheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write template row %d: %w", i+1, err)
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render template workbook: %w", err)
	}
	return buf.Bytes(), nil
}
