// Package upload turns uploaded CSV and XLSX bytes into a raw table.
package upload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable parses the file by extension. Unknown extensions are sniffed:
// zip magic means XLSX, anything else is treated as CSV.
func ReadTable(filename string, content []byte) (models.Table, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return models.Table{}, apperr.Validation("uploaded file %q is empty", filename)
	}

	var (
		t   models.Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == ".xlsx" || ext == ".xlsm":
		t, err = readXLSX(content)
	case ext == ".csv" || ext == ".txt" || ext == ".tsv":
		t, err = readCSV(content)
	case bytes.HasPrefix(content, []byte("PK\x03\x04")):
		t, err = readXLSX(content)
	default:
		t, err = readCSV(content)
	}
	if err != nil {
		return models.Table{}, err
	}
	if len(t.Header) == 0 {
		return models.Table{}, apperr.Validation("uploaded file %q has no header row", filename)
	}
	if len(t.Rows) == 0 {
		return models.Table{}, apperr.Validation("uploaded file %q has no data rows", filename)
	}
	return t, nil
}

func readCSV(content []byte) (models.Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.Comma = sniffDelimiter(content)

	var t models.Table
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Table{}, &apperr.ValidationError{
				Msg:  "cannot parse CSV",
				Rows: []apperr.RowIssue{{Row: line, Reason: err.Error()}},
			}
		}
		if blank(record) {
			continue
		}
		if t.Header == nil {
			t.Header = trimAll(record)
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// sniffDelimiter looks at the first line only.
func sniffDelimiter(content []byte) rune {
	first := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}
	switch {
	case bytes.Count(first, []byte("\t")) > bytes.Count(first, []byte(",")):
		return '\t'
	case bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")):
		return ';'
	}
	return ','
}

func readXLSX(content []byte) (models.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return models.Table{}, apperr.Validation("cannot open spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Table{}, apperr.Validation("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.Table{}, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	var t models.Table
	for _, r := range rows {
		if blank(r) {
			continue
		}
		if t.Header == nil {
			t.Header = trimAll(r)
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, c := range record {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
