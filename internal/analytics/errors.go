package analytics

import (
	"fmt"
)

// Kind classifies analysis failures
type Kind string

const (
	KindSchemaMismatch     Kind = "SchemaMismatch"
	KindInsufficientSample Kind = "InsufficientSample"
	KindInvalidGroupingKey Kind = "InvalidGroupingKey"
	KindInvalidOptions     Kind = "InvalidOptions"
)

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrSchemaMismatch     = &Error{Kind: KindSchemaMismatch}
	ErrInsufficientSample = &Error{Kind: KindInsufficientSample}
	ErrInvalidGroupingKey = &Error{Kind: KindInvalidGroupingKey}
	ErrInvalidOptions     = &Error{Kind: KindInvalidOptions}
)

// Error is a structured analysis failure carrying the offending context.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind     Kind   `json:"kind" bson:"kind"`
	Record   *int   `json:"record,omitempty" bson:"record,omitempty"`
	Expected int    `json:"expected,omitempty" bson:"expected,omitempty"`
	Actual   int    `json:"actual,omitempty" bson:"actual,omitempty"`
	Section  string `json:"section,omitempty" bson:"section,omitempty"`
	Group    string `json:"group,omitempty" bson:"group,omitempty"`
	Key      string `json:"key,omitempty" bson:"key,omitempty"`
	N        int    `json:"n,omitempty" bson:"n,omitempty"`
	Detail   string `json:"detail,omitempty" bson:"detail,omitempty"`
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindSchemaMismatch:
		if e.Record != nil {
			return fmt.Sprintf("schema mismatch: record %d has %d answers, schema expects %d", *e.Record, e.Actual, e.Expected)
		}
		return fmt.Sprintf("schema mismatch: %d columns, schema expects %d", e.Actual, e.Expected)
	case KindInsufficientSample:
		msg := fmt.Sprintf("insufficient sample: n=%d", e.N)
		if e.Section != "" {
			msg += " in section " + e.Section
		}
		if e.Group != "" {
			msg += " for group " + e.Group
		}
		if e.Detail != "" {
			msg += " (" + e.Detail + ")"
		}
		return msg
	case KindInvalidGroupingKey:
		return fmt.Sprintf("invalid grouping key %q", e.Key)
	case KindInvalidOptions:
		return "invalid options: " + e.Detail
	}
	return string(e.Kind)
}

// Is matches any *Error of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func schemaMismatch(record, expected, actual int) *Error {
	return &Error{Kind: KindSchemaMismatch, Record: &record, Expected: expected, Actual: actual}
}

// ColumnMismatch reports a file whose column layout disagrees with the schema
func ColumnMismatch(expected, actual int) *Error {
	return &Error{Kind: KindSchemaMismatch, Expected: expected, Actual: actual}
}
