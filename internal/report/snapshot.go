package report

import (
	"time"

	"surveystats/internal/analytics"
)

// Snapshot is a stored copy of one summary run, tied to the response
// revision it was computed from
type Snapshot struct {
	ID        string                        `json:"id" bson:"_id"`
	SurveyID  string                        `json:"surveyId" bson:"surveyId"`
	Revision  int64                         `json:"revision" bson:"revision"`
	Analysis  *analytics.Analysis           `json:"analysis" bson:"analysis"`
	Strata    []*analytics.StratifiedResult `json:"strata,omitempty" bson:"strata,omitempty"`
	Tables    []*Table                      `json:"tables" bson:"tables"`
	CreatedAt time.Time                     `json:"createdAt" bson:"createdAt"`
}

// Summary bundles an analysis with its printable tables
type Summary struct {
	Revision   int64               `json:"revision"`
	Analysis   *analytics.Analysis `json:"analysis"`
	Questions  *Table              `json:"questions"`
	Sections   *Table              `json:"sections"`
	Conclusion string              `json:"conclusion"`
}

// NewSummary builds the question and section tables for a
func NewSummary(a *analytics.Analysis, revision int64, opts Options) *Summary {
	return &Summary{
		Revision:   revision,
		Analysis:   a,
		Questions:  QuestionTable(a, opts),
		Sections:   SectionTable(a),
		Conclusion: Conclusion(a.Verdict),
	}
}

// Stratified bundles one stratification with its printable table
type Stratified struct {
	Revision int64                       `json:"revision"`
	Result   *analytics.StratifiedResult `json:"result"`
	Table    *Table                      `json:"table"`
}

// NewStratified builds the table for r
func NewStratified(r *analytics.StratifiedResult, revision int64) *Stratified {
	return &Stratified{Revision: revision, Result: r, Table: StratifiedTable(r)}
}
