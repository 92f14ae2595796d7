// ABOUTME: CSV export and re-import of analyzed rows
// ABOUTME: Exported files carry a UTF-8 BOM and underscore-prefixed result columns
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harper/topicmap/internal/models"
)

// Analyzed CSV column names
const (
	ColID           = "_id"
	ColOriginalText = "_originalText"
	ColTopic        = "_topic"
	ColSubTopic     = "_subTopic"
	ColCategory     = "_kptType"
	ColRegion       = "_prefecture"
)

const bom = "\ufeff"

var requiredColumns = []string{ColID, ColOriginalText, ColTopic, ColSubTopic}

// WriteCSV writes rows as CSV with a leading BOM. Category and region columns are
// included when any row carries a value for them.
func WriteCSV(w io.Writer, rows []models.AssignedRecord) error {
	if len(rows) == 0 {
		return nil
	}

	hasCategory, hasRegion := false, false
	for _, r := range rows {
		hasCategory = hasCategory || r.Category != ""
		hasRegion = hasRegion || r.Region != ""
	}

	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	headers := append([]string{}, requiredColumns...)
	if hasCategory {
		headers = append(headers, ColCategory)
	}
	if hasRegion {
		headers = append(headers, ColRegion)
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.ID, r.OriginalText, r.Topic, r.SubTopic}
		if hasCategory {
			record = append(record, r.Category)
		}
		if hasRegion {
			record = append(record, r.Region)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// IsAnalyzedCSV reports whether headers contain every required result column
func IsAnalyzedCSV(headers []string) bool {
	for _, col := range requiredColumns {
		if indexOf(headers, col) < 0 {
			return false
		}
	}
	return true
}

// ReadAnalyzedCSV parses a previously exported CSV back into rows
func ReadAnalyzedCSV(r io.Reader) ([]models.AssignedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], bom)
	}
	if !IsAnalyzedCSV(headers) {
		return nil, fmt.Errorf("missing analysis columns: need %s", strings.Join(requiredColumns, ", "))
	}

	idx := func(col string) int { return indexOf(headers, col) }
	idCol, textCol, topicCol, subCol := idx(ColID), idx(ColOriginalText), idx(ColTopic), idx(ColSubTopic)
	catCol, regionCol := idx(ColCategory), idx(ColRegion)

	rows := make([]models.AssignedRecord, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, models.AssignedRecord{
			ID:           cell(rec, idCol),
			OriginalText: cell(rec, textCol),
			Topic:        cell(rec, topicCol),
			SubTopic:     cell(rec, subCol),
			Category:     cell(rec, catCol),
			Region:       cell(rec, regionCol),
		})
	}
	return rows, nil
}

// TopicsFromRows rebuilds a taxonomy from imported rows in first-seen order.
// Sentinel pairs are skipped and descriptions are left empty.
func TopicsFromRows(rows []models.AssignedRecord) []models.Topic {
	var topics []models.Topic
	index := make(map[string]int)
	for _, r := range rows {
		if r.Topic == "" || r.SubTopic == "" || r.IsSentinel() {
			continue
		}
		i, ok := index[r.Topic]
		if !ok {
			i = len(topics)
			index[r.Topic] = i
			topics = append(topics, models.Topic{Name: r.Topic})
		}
		if !topics[i].HasSubTopic(r.SubTopic) {
			topics[i].SubTopics = append(topics[i].SubTopics, r.SubTopic)
		}
	}
	return topics
}

func indexOf(headers []string, col string) int {
	for i, h := range headers {
		if strings.TrimSpace(h) == col {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
