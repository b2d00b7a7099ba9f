package jobimport

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Salaries are stored in canonical currency units. Uploads often express them in
// lakhs per annum (LPA), so every input goes through the heuristics below.
//
// Known limitation: the cut-offs are lossy. An explicit bound of 99,999 is read
// as 99,999 LPA, and text whose endpoints are both below 1,000 is read as LPA
// even without the token.
const lpaToken = "lpa"

var (
	lakh                = decimal.NewFromInt(100000)
	lpaTextThreshold    = decimal.NewFromInt(1000)
	lpaBoundThreshold   = decimal.NewFromInt(100000)
	maxCanonicalSalary  = decimal.RequireFromString("99999999.99")
	salaryNumberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

type Salary struct {
	Min     *decimal.Decimal
	Max     *decimal.Decimal
	Display string
}

// ParseSalaryText reads free text such as "30-40 LPA", "12 lpa", "30-40" or
// "3000000-4000000". ok is false when the text holds no number.
func ParseSalaryText(text string) (Salary, bool) {
	numbers := salaryNumberPattern.FindAllString(strings.ReplaceAll(text, ",", ""), -1)
	if len(numbers) == 0 {
		return Salary{}, false
	}

	min := decimal.RequireFromString(numbers[0])
	max := min
	if len(numbers) > 1 {
		max = decimal.RequireFromString(numbers[1])
	}

	isLPA := strings.Contains(strings.ToLower(text), lpaToken) ||
		(min.LessThan(lpaTextThreshold) && max.LessThan(lpaTextThreshold))
	if isLPA {
		min = min.Mul(lakh)
		max = max.Mul(lakh)
	}

	return buildSalary(&min, &max), true
}

// NormalizeSalaryBounds applies the LPA heuristic to explicit bounds, each on its own.
func NormalizeSalaryBounds(min, max *decimal.Decimal) Salary {
	return buildSalary(toCanonical(min), toCanonical(max))
}

func toCanonical(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	out := *v
	if out.LessThan(lpaBoundThreshold) {
		out = out.Mul(lakh)
	}
	return &out
}

func buildSalary(min, max *decimal.Decimal) Salary {
	min = clampSalary(min)
	max = clampSalary(max)
	if min != nil && max != nil && min.GreaterThan(*max) {
		min, max = max, min
	}

	return Salary{Min: min, Max: max, Display: salaryDisplay(min, max)}
}

func clampSalary(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	out := *v
	if out.IsNegative() {
		out = decimal.Zero
	}
	if out.GreaterThan(maxCanonicalSalary) {
		out = maxCanonicalSalary
	}
	out = out.Round(2)
	return &out
}

func salaryDisplay(min, max *decimal.Decimal) string {
	switch {
	case min == nil && max == nil:
		return ""
	case min == nil:
		return inLakhs(*max) + " LPA"
	case max == nil || min.Equal(*max):
		return inLakhs(*min) + " LPA"
	default:
		return inLakhs(*min) + "-" + inLakhs(*max) + " LPA"
	}
}

func inLakhs(v decimal.Decimal) string {
	return v.Div(lakh).Round(2).String()
}
