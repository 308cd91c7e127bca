package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"surveystats/internal/model"
)

// QuestionStats summarizes the answers to one question.
// Missing and out-of-scale answers are excluded, never imputed.
type QuestionStats struct {
	Section  string `json:"section" bson:"section"`
	Question string `json:"question" bson:"question"`
	Position int    `json:"position" bson:"position"`
	Count    int    `json:"count" bson:"count"`
	Missing  int    `json:"missing" bson:"missing"`

	Mean     Num `json:"mean" bson:"mean"`
	Median   Num `json:"median" bson:"median"`
	StdDev   Num `json:"stdDev" bson:"stdDev"`
	Variance Num `json:"variance" bson:"variance"`

	// Agreement is the percentage of answers at or above the threshold
	Agreement Num `json:"agreement" bson:"agreement"`

	// Mode is undefined when every answer is distinct
	Mode Num `json:"mode" bson:"mode"`
	Min  Num `json:"min" bson:"min"`
	Max  Num `json:"max" bson:"max"`
}

// SectionStats averages per-question statistics over a section.
// Exactly one of Interval and IntervalErr is set.
type SectionStats struct {
	Section     string `json:"section" bson:"section"`
	Questions   int    `json:"questions" bson:"questions"`
	Samples     int    `json:"samples" bson:"samples"`
	Respondents int    `json:"respondents" bson:"respondents"`

	Mean     Num `json:"mean" bson:"mean"`
	StdDev   Num `json:"stdDev" bson:"stdDev"`
	Variance Num `json:"variance" bson:"variance"`

	Interval    *ConfidenceInterval `json:"interval,omitempty" bson:"interval,omitempty"`
	IntervalErr *Error              `json:"intervalError,omitempty" bson:"intervalError,omitempty"`
}

// Verdict is the headline reading of the overall mean
type Verdict string

const (
	VerdictStrongAgreement Verdict = "strong_agreement"
	VerdictMixed           Verdict = "mixed"
	VerdictUndetermined    Verdict = "undetermined"
)

// Analysis is the full result of one run over a response table
type Analysis struct {
	SurveyID     string          `json:"surveyId" bson:"surveyId"`
	Participants int             `json:"participants" bson:"participants"`
	Options      Options         `json:"options" bson:"options"`
	Questions    []QuestionStats `json:"questions" bson:"questions"`
	Sections     []SectionStats  `json:"sections" bson:"sections"`
	OverallMean  Num             `json:"overallMean" bson:"overallMean"`
	Verdict      Verdict         `json:"verdict" bson:"verdict"`
}

// Analyze computes per-question and per-section statistics.
// It fails with SchemaMismatch when any record's answer count differs from
// the schema's question count. The table is never modified.
func Analyze(table model.ResponseTable, schema *model.Schema, opts Options) (*Analysis, error) {
	if err := opts.ValidateFor(schema.Scale()); err != nil {
		return nil, err
	}
	if err := CheckShape(table, schema); err != nil {
		return nil, err
	}
	return analyze(table, schema, opts, ""), nil
}

// CheckShape fails with SchemaMismatch on the first record whose answer count
// differs from the schema question count
func CheckShape(table model.ResponseTable, schema *model.Schema) error {
	want := schema.QuestionCount()
	for i := range table {
		if got := len(table[i].Answers); got != want {
			return schemaMismatch(i, want, got)
		}
	}
	return nil
}

// analyze assumes the shape has been checked. group labels scoped errors.
func analyze(table model.ResponseTable, schema *model.Schema, opts Options, group string) *Analysis {
	scale := schema.Scale()
	columns := collectColumns(table, schema.QuestionCount(), scale)

	a := &Analysis{
		SurveyID:     schema.ID(),
		Participants: len(table),
		Options:      opts,
		Questions:    make([]QuestionStats, 0, schema.QuestionCount()),
		Sections:     make([]SectionStats, 0, schema.NumSections()),
	}

	sectionMeans := make([]Num, 0, schema.NumSections())
	for si := 0; si < schema.NumSections(); si++ {
		sec := schema.Section(si)
		start, end := schema.SectionRange(si)

		qs := make([]QuestionStats, 0, end-start)
		for slot := start; slot < end; slot++ {
			q := questionStats(columns[slot], len(table), opts.AgreementThreshold)
			q.Section = sec.Name
			q.Question = sec.Questions[slot-start]
			q.Position = slot
			qs = append(qs, q)
		}
		a.Questions = append(a.Questions, qs...)

		ss := sectionStats(sec.Name, qs, columns[start:end], respondents(table, start, end, scale), opts.ConfidenceLevel, group)
		a.Sections = append(a.Sections, ss)
		sectionMeans = append(sectionMeans, ss.Mean)
	}

	a.OverallMean = meanOf(sectionMeans)
	switch {
	case !a.OverallMean.Defined:
		a.Verdict = VerdictUndetermined
	case a.OverallMean.Value >= float64(opts.AgreementThreshold):
		a.Verdict = VerdictStrongAgreement
	default:
		a.Verdict = VerdictMixed
	}
	return a
}

// collectColumns turns rows into per-question value slices, dropping
// absent and out-of-scale answers
func collectColumns(table model.ResponseTable, width int, scale model.Scale) [][]float64 {
	columns := make([][]float64, width)
	for i := range table {
		for slot, v := range table[i].Answers {
			if v == nil || !scale.Contains(*v) {
				continue
			}
			columns[slot] = append(columns[slot], float64(*v))
		}
	}
	return columns
}

// respondents counts records with at least one valid answer in [start, end)
func respondents(table model.ResponseTable, start, end int, scale model.Scale) int {
	n := 0
	for i := range table {
		for _, v := range table[i].Answers[start:end] {
			if v != nil && scale.Contains(*v) {
				n++
				break
			}
		}
	}
	return n
}

func questionStats(values []float64, records, threshold int) QuestionStats {
	q := QuestionStats{Count: len(values), Missing: records - len(values)}
	if len(values) == 0 {
		return q
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q.Mean = num(stat.Mean(values, nil))
	q.Median = num(median(sorted))
	q.Min = num(sorted[0])
	q.Max = num(sorted[len(sorted)-1])
	q.Mode = mode(sorted)

	agree := 0
	for _, v := range values {
		if v >= float64(threshold) {
			agree++
		}
	}
	q.Agreement = num(Round2(float64(agree) / float64(len(values)) * 100))

	if len(values) > 1 {
		variance := stat.Variance(values, nil)
		q.Variance = num(variance)
		q.StdDev = num(math.Sqrt(variance))
	}
	return q
}

func sectionStats(name string, qs []QuestionStats, columns [][]float64, respondents int, level float64, group string) SectionStats {
	means := make([]Num, len(qs))
	stds := make([]Num, len(qs))
	vars := make([]Num, len(qs))
	for i, q := range qs {
		means[i], stds[i], vars[i] = q.Mean, q.StdDev, q.Variance
	}

	var pooled []float64
	for _, col := range columns {
		pooled = append(pooled, col...)
	}

	ss := SectionStats{
		Section:     name,
		Questions:   len(qs),
		Samples:     len(pooled),
		Respondents: respondents,
		Mean:        meanOf(means),
		StdDev:      meanOf(stds),
		Variance:    meanOf(vars),
	}

	if respondents < 2 {
		ss.IntervalErr = &Error{Kind: KindInsufficientSample, N: respondents, Section: name, Group: group, Detail: "fewer than 2 respondents"}
		return ss
	}
	ci, err := MeanInterval(pooled, level)
	if err != nil {
		e, ok := err.(*Error)
		if !ok {
			e = &Error{Kind: KindInsufficientSample, Detail: err.Error()}
		}
		e.Section, e.Group = name, group
		ss.IntervalErr = e
		return ss
	}
	ss.Interval = &ci
	return ss
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mode picks the most frequent value, smallest on ties. sorted must be ascending.
func mode(sorted []float64) Num {
	best, bestCount := 0.0, 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	if bestCount < 2 {
		return Num{}
	}
	return num(best)
}
