// Package report flattens analysis results into ordered, printable tables.
package report

import (
	"strconv"

	"surveystats/internal/analytics"
)

const (
	notAvailable = "N/A"
	noUniqueMode = "No unique mode"
)

// Table is an ordered grid of formatted cells
type Table struct {
	Title   string     `json:"title" bson:"title"`
	Columns []string   `json:"columns" bson:"columns"`
	Rows    [][]string `json:"rows" bson:"rows"`
}

// Options selects optional question columns
type Options struct {
	// Extended adds Mode, Min and Max
	Extended bool
}

// QuestionTable lists one row per question, sections in declared order and
// questions in schema order within each section
func QuestionTable(a *analytics.Analysis, opts Options) *Table {
	cols := []string{"Section", "Question", "Mean", "Median", "Std Dev", "Variance"}
	if opts.Extended {
		cols = append(cols, "Mode", "Min", "Max")
	}
	cols = append(cols, "Agreement")

	t := &Table{Title: "Survey Results", Columns: cols, Rows: make([][]string, 0, len(a.Questions))}
	for _, q := range orderedQuestions(a.Questions) {
		row := []string{q.Section, q.Question, fmtNum(q.Mean), fmtNum(q.Median), fmtNum(q.StdDev), fmtNum(q.Variance)}
		if opts.Extended {
			row = append(row, fmtMode(q), fmtInt(q.Min), fmtInt(q.Max))
		}
		row = append(row, fmtPercent(q.Agreement))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SectionTable lists one row per section
func SectionTable(a *analytics.Analysis) *Table {
	t := &Table{
		Title:   "Section Statistics",
		Columns: []string{"Section", "Mean", "Std Dev", "Variance", "CI Lower", "CI Upper"},
		Rows:    make([][]string, 0, len(a.Sections)),
	}
	for _, s := range a.Sections {
		t.Rows = append(t.Rows, sectionRow(s))
	}
	return t
}

// StratifiedTable lists every group's sections, groups sorted by label
func StratifiedTable(r *analytics.StratifiedResult) *Table {
	t := &Table{
		Title:   "Stratified Analysis by " + KeyLabel(r.Key),
		Columns: []string{"Group", "Section", "Mean", "Std Dev", "Variance", "CI Lower", "CI Upper"},
	}
	for _, label := range r.Labels() {
		for _, s := range r.Groups[label].Analysis.Sections {
			t.Rows = append(t.Rows, append([]string{label}, sectionRow(s)...))
		}
	}
	return t
}

// KeyLabel is the column label of a grouping key
func KeyLabel(k analytics.GroupingKey) string {
	switch k {
	case analytics.GroupByGender:
		return "Gender"
	case analytics.GroupByYearLevel:
		return "Year Level"
	case analytics.GroupByAge:
		return "Age"
	}
	return string(k)
}

// OverallLine prints the mean of section means the verdict is drawn from
func OverallLine(a *analytics.Analysis) string {
	return "Overall Mean: " + fmtNum(a.OverallMean)
}

// Conclusion phrases the verdict for readers
func Conclusion(v analytics.Verdict) string {
	switch v {
	case analytics.VerdictStrongAgreement:
		return "The overall results indicate strong agreement that AI tools positively impact academic performance and engagement."
	case analytics.VerdictMixed:
		return "The overall results show mixed opinions on the effectiveness of AI tools in education."
	}
	return "Not enough responses to draw a conclusion."
}

func sectionRow(s analytics.SectionStats) []string {
	lower, upper := notAvailable, notAvailable
	if s.Interval != nil {
		lower, upper = fmtFloat(s.Interval.Lower), fmtFloat(s.Interval.Upper)
	}
	return []string{s.Section, fmtNum(s.Mean), fmtNum(s.StdDev), fmtNum(s.Variance), lower, upper}
}

// orderedQuestions returns questions sorted by schema position.
// Analyze already emits them in order; a stored or decoded analysis may not.
func orderedQuestions(qs []analytics.QuestionStats) []analytics.QuestionStats {
	out := append([]analytics.QuestionStats(nil), qs...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Position < out[j-1].Position; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(analytics.Round2(v), 'f', 2, 64)
}

func fmtNum(n analytics.Num) string {
	if !n.Defined {
		return notAvailable
	}
	return fmtFloat(n.Value)
}

func fmtInt(n analytics.Num) string {
	if !n.Defined {
		return notAvailable
	}
	return strconv.Itoa(int(n.Value))
}

func fmtMode(q analytics.QuestionStats) string {
	if q.Count == 0 {
		return notAvailable
	}
	if !q.Mode.Defined {
		return noUniqueMode
	}
	return fmtInt(q.Mode)
}

func fmtPercent(n analytics.Num) string {
	if !n.Defined {
		return notAvailable
	}
	return fmtFloat(n.Value) + "%"
}
