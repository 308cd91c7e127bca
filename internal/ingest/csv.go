// Package ingest reads and writes the survey response file format:
// Name, Age, Gender, Year Level, Timestamp, then one column per question
// in schema order.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"surveystats/internal/analytics"
	"surveystats/internal/model"
)

// DemographicHeaders are the leading columns of every response file
var DemographicHeaders = []string{"Name", "Age", "Gender", "Year Level", "Timestamp"}

// Layout derives column positions from the schema, never from header text
type Layout struct {
	Demographics int
	Questions    int
}

// NewLayout returns the standard layout for schema
func NewLayout(schema *model.Schema) Layout {
	return Layout{Demographics: len(DemographicHeaders), Questions: schema.QuestionCount()}
}

// Width is the total number of columns
func (l Layout) Width() int { return l.Demographics + l.Questions }

// ReadCSV parses a response file. A header with the wrong number of columns
// fails with SchemaMismatch. Rows of the wrong width are kept as-is so the
// engine rejects them with the record index. Non-numeric cells are absent.
func ReadCSV(r io.Reader, schema *model.Schema) (model.ResponseTable, error) {
	layout := NewLayout(schema)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return model.ResponseTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) != layout.Width() {
		return nil, analytics.ColumnMismatch(layout.Width(), len(headers))
	}

	table := model.ResponseTable{}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(row) {
			continue
		}
		table = append(table, parseRow(row, schema.ID(), layout))
	}
	return table, nil
}

func parseRow(row []string, surveyID string, layout Layout) model.Response {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	resp := model.Response{
		SurveyID:  surveyID,
		Name:      cell(0),
		Age:       cell(1),
		Gender:    cell(2),
		YearLevel: cell(3),
	}
	if ts, err := time.ParseInLocation(model.TimestampLayout, cell(4), time.Local); err == nil {
		resp.Timestamp = ts
	}

	n := len(row) - layout.Demographics
	if n < 0 {
		n = 0
	}
	resp.Answers = make([]*int, n)
	for i := range resp.Answers {
		resp.Answers[i] = parseAnswer(row[layout.Demographics+i])
	}
	return resp
}

// parseAnswer accepts integers and integral floats ("3", "3.0"); anything
// else is absent
func parseAnswer(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	v := int(f)
	return &v
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes table in the response file format
func WriteCSV(w io.Writer, schema *model.Schema, table model.ResponseTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), DemographicHeaders...), schema.Headers()...)); err != nil {
		return err
	}

	for i := range table {
		r := &table[i]
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.Format(model.TimestampLayout)
		}
		row := []string{r.Name, r.Age, r.Gender, r.YearLevel, ts}
		for _, a := range r.Answers {
			if a == nil {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.Itoa(*a))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
