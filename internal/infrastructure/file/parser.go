package file

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/xuri/excelize/v2"
)

// Parser turns a stored import file into raw rows. The whole file is read into memory.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader, importType domain.ImportType) ([]domain.RawRecord, error) {
	var (
		records []domain.RawRecord
		err     error
	)

	switch importType {
	case domain.ImportTypeCSV:
		records, err = parseCSV(r)
	case domain.ImportTypeXLSX:
		records, err = parseXLSX(r)
	case domain.ImportTypeJSON:
		records, err = parseJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, importType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return records, nil
}

func parseCSV(r io.Reader) ([]domain.RawRecord, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = trimHeader(header)

	records := make([]domain.RawRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if record, ok := rowToRecord(header, row); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func parseXLSX(r io.Reader) ([]domain.RawRecord, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	header := trimHeader(rows[0])
	records := make([]domain.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if record, ok := rowToRecord(header, row); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func parseJSON(r io.Reader) ([]domain.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	switch v := payload.(type) {
	case map[string]any:
		return []domain.RawRecord{v}, nil
	case []any:
		records := make([]domain.RawRecord, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
			records = append(records, obj)
		}
		return records, nil
	default:
		return nil, errors.New("json payload must be an object or an array of objects")
	}
}

// rowToRecord maps cells onto header names. Rows with no content are dropped.
func rowToRecord(header, row []string) (domain.RawRecord, bool) {
	record := make(domain.RawRecord, len(header))
	hasValue := false
	for i, name := range header {
		if name == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if strings.TrimSpace(value) != "" {
			hasValue = true
		}
		record[name] = value
	}
	return record, hasValue
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
