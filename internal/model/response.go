package model

import (
	"strings"
	"time"
)

// Field names a demographic attribute of a respondent
type Field string

const (
	FieldName      Field = "name"
	FieldAge       Field = "age"
	FieldGender    Field = "gender"
	FieldYearLevel Field = "year_level"
)

// YearLevels are the accepted values of the year level field
var YearLevels = []string{"1st", "2nd", "3rd", "4th"}

// TimestampLayout is the wire format of response timestamps in CSV files
const TimestampLayout = "2006-01-02 15:04:05"

// Response is one completed questionnaire.
// Answers is aligned with Schema order; a nil slot is an absent answer.
type Response struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	SurveyID  string    `json:"surveyId" bson:"surveyId"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Age       string    `json:"age" bson:"age"`
	Gender    string    `json:"gender" bson:"gender"`
	YearLevel string    `json:"yearLevel" bson:"yearLevel"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Answers   []*int    `json:"answers" bson:"answers"`
}

// Field returns the trimmed value of a demographic field
func (r *Response) Field(f Field) string {
	switch f {
	case FieldName:
		return strings.TrimSpace(r.Name)
	case FieldAge:
		return strings.TrimSpace(r.Age)
	case FieldGender:
		return strings.TrimSpace(r.Gender)
	case FieldYearLevel:
		return strings.TrimSpace(r.YearLevel)
	}
	return ""
}

// ResponseTable is the read-only input of an analysis run
type ResponseTable []Response

// Answer boxes a present answer value
func Answer(v int) *int { return &v }

// Answers boxes a full row of present answers
func Answers(vs ...int) []*int {
	out := make([]*int, len(vs))
	for i, v := range vs {
		out[i] = Answer(v)
	}
	return out
}

// Submission is a respondent's answer sheet before validation
type Submission struct {
	Name      string `json:"name,omitempty"`
	Age       string `json:"age"`
	Gender    string `json:"gender"`
	YearLevel string `json:"yearLevel"`
	Answers   []*int `json:"answers"`
}
