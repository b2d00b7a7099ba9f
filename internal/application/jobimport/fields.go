package jobimport

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
}

// getString returns the first non-blank value among keys.
func getString(row domain.RawRecord, keys ...string) string {
	for _, key := range keys {
		val, ok := row[key]
		if !ok || val == nil {
			continue
		}
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case json.Number:
			s = v.String()
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			s = strconv.Itoa(v)
		case int64:
			s = strconv.FormatInt(v, 10)
		case bool:
			s = strconv.FormatBool(v)
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func isBlank(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}

// getList accepts either a comma-delimited string or a list.
func getList(row domain.RawRecord, key string) []string {
	val, ok := row[key]
	if !ok || val == nil {
		return nil
	}

	var parts []string
	switch v := val.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = []string{fmt.Sprint(v)}
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func getBool(row domain.RawRecord, key string) (bool, string) {
	val, ok := row[key]
	if !ok || isBlank(val) {
		return false, ""
	}
	if b, ok := val.(bool); ok {
		return b, ""
	}
	switch strings.ToLower(getString(row, key)) {
	case "true", "yes", "y", "1":
		return true, ""
	case "false", "no", "n", "0":
		return false, ""
	}
	return false, fmt.Sprintf("%s must be true or false", key)
}

func getDecimal(row domain.RawRecord, key string) (*decimal.Decimal, string) {
	val, ok := row[key]
	if !ok || isBlank(val) {
		return nil, ""
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch v := val.(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	default:
		raw := strings.ReplaceAll(getString(row, key), ",", "")
		d, err = decimal.NewFromString(raw)
	}
	if err != nil {
		return nil, fmt.Sprintf("%s must be a number", key)
	}
	return &d, ""
}

func getInt(row domain.RawRecord, key string) (*int, string) {
	d, issue := getDecimal(row, key)
	if d == nil {
		return nil, issue
	}
	if !d.Equal(d.Truncate(0)) || d.IsNegative() {
		return nil, fmt.Sprintf("%s must be a whole number", key)
	}
	n := int(d.IntPart())
	return &n, ""
}

func getTime(row domain.RawRecord, key string) (*time.Time, string) {
	raw := getString(row, key)
	if raw == "" {
		return nil, ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, ""
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 && serial < 100000 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			t = t.Truncate(24 * time.Hour)
			return &t, ""
		}
	}

	return nil, fmt.Sprintf("%s is not a recognised date", key)
}
