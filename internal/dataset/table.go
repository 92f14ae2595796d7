// ABOUTME: Table reads delimited text files with a header row into memory
// ABOUTME: Builds row-<index> records from a column and enriches assigned rows from side columns
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harper/topicmap/internal/models"
)

// Side-channel column names, matched case-insensitively
const (
	CategoryColumn = "kpt_type"
)

// RegionColumns are the accepted names of the region column, in priority order
var RegionColumns = []string{"prefecture", "都道府県"}

const utf8BOM = "\ufeff"

// ErrNoRows is returned for files with a header but no data
var ErrNoRows = errors.New("file contains no data rows")

// Table is a header row plus data rows padded to the header width
type Table struct {
	Headers []string
	Rows    [][]string
}

// FromTexts builds a single-column table, one row per text
func FromTexts(column string, texts []string) *Table {
	t := &Table{Headers: []string{column}, Rows: make([][]string, len(texts))}
	for i, text := range texts {
		t.Rows[i] = []string{text}
	}
	return t
}

// ReadFile reads a CSV file from disk
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV with a header row. A leading UTF-8 BOM is removed, rows that
// are entirely blank are dropped, and every row is fitted to the header width:
// short rows are padded with empty cells and cells past the last header are
// discarded, since they have no column name to be addressed by.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	t := &Table{Headers: headers}
	for _, row := range records[1:] {
		if isBlankRow(row) {
			continue
		}
		padded := make([]string, len(headers))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	if len(t.Rows) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ColumnIndex finds a header by case-insensitive name; an empty name selects the first column
func (t *Table) ColumnIndex(name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		if len(t.Headers) == 0 {
			return -1, errors.New("table has no columns")
		}
		return 0, nil
	}
	if i := t.findColumn(name); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("column %q not found (available: %s)", name, strings.Join(t.Headers, ", "))
}

func (t *Table) findColumn(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// HasCategory reports whether the table carries a category column
func (t *Table) HasCategory() bool {
	return t.findColumn(CategoryColumn) >= 0
}

// FilterCategory keeps rows whose category is one of values. Without values or
// without a category column the table is returned unchanged.
func (t *Table) FilterCategory(values []string) (*Table, error) {
	col := t.findColumn(CategoryColumn)
	if len(values) == 0 || col < 0 {
		return t, nil
	}

	keep := make(map[string]bool, len(values))
	for _, v := range values {
		keep[strings.TrimSpace(v)] = true
	}

	out := &Table{Headers: t.Headers}
	for _, row := range t.Rows {
		if keep[strings.TrimSpace(row[col])] {
			out.Rows = append(out.Rows, row)
		}
	}
	if len(out.Rows) == 0 {
		return nil, fmt.Errorf("no rows match category %s", strings.Join(values, ", "))
	}
	return out, nil
}

// Categories returns the distinct category values in first-seen order
func (t *Table) Categories() []string {
	col := t.findColumn(CategoryColumn)
	if col < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[col])
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Records builds one record per row with non-blank text at col, id "row-<i>" where i is the row index
func (t *Table) Records(col int) []models.TextRecord {
	var out []models.TextRecord
	for i, row := range t.Rows {
		if col < 0 || col >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[col])
		if text == "" {
			continue
		}
		out = append(out, models.TextRecord{ID: models.RowID(i), Text: text})
	}
	return out
}

// Enrich attaches category and region to rows whose id encodes a row index of t
func (t *Table) Enrich(rows []models.AssignedRecord) {
	catCol := t.findColumn(CategoryColumn)
	regionCol := -1
	for _, name := range RegionColumns {
		if regionCol = t.findColumn(name); regionCol >= 0 {
			break
		}
	}
	if catCol < 0 && regionCol < 0 {
		return
	}

	for i := range rows {
		idx, ok := models.ParseRowID(rows[i].ID)
		if !ok || idx >= len(t.Rows) {
			continue
		}
		src := t.Rows[idx]
		if catCol >= 0 {
			rows[i].Category = strings.TrimSpace(src[catCol])
		}
		if regionCol >= 0 {
			rows[i].Region = strings.TrimSpace(src[regionCol])
		}
	}
}
