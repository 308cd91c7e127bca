package analytics

import (
	"sort"
	"strings"

	"surveystats/internal/model"
)

// GroupingKey is a demographic field the table can be stratified by
type GroupingKey string

const (
	GroupByGender    GroupingKey = GroupingKey(model.FieldGender)
	GroupByYearLevel GroupingKey = GroupingKey(model.FieldYearLevel)
	GroupByAge       GroupingKey = GroupingKey(model.FieldAge)
)

// GroupingKeys lists every supported key in display order
var GroupingKeys = []GroupingKey{GroupByGender, GroupByYearLevel, GroupByAge}

// ParseGroupingKey accepts the key itself or its column label,
// e.g. "year_level", "Year Level" or "year-level".
func ParseGroupingKey(s string) (GroupingKey, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, k := range GroupingKeys {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", &Error{Kind: KindInvalidGroupingKey, Key: s}
}

// GroupResult is the analysis of one partition
type GroupResult struct {
	Label    string    `json:"label" bson:"label"`
	Records  int       `json:"records" bson:"records"`
	Analysis *Analysis `json:"analysis" bson:"analysis"`
}

// StratifiedResult maps each observed group label to its analysis.
// Records whose grouping value is empty are counted in Excluded.
type StratifiedResult struct {
	Key      GroupingKey             `json:"key" bson:"key"`
	Total    int                     `json:"total" bson:"total"`
	Excluded int                     `json:"excluded" bson:"excluded"`
	Groups   map[string]*GroupResult `json:"groups" bson:"groups"`
}

// Labels returns the group labels in ascending order
func (r *StratifiedResult) Labels() []string {
	labels := make([]string, 0, len(r.Groups))
	for l := range r.Groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Stratify partitions the table by exact value of key, which may be given in
// any form ParseGroupingKey accepts, and analyzes each partition on its own.
// A partition too small for an interval keeps its
// InsufficientSample error on its SectionStats; siblings are unaffected.
func Stratify(table model.ResponseTable, schema *model.Schema, key GroupingKey, opts Options) (*StratifiedResult, error) {
	key, err := ParseGroupingKey(string(key))
	if err != nil {
		return nil, err
	}
	if err := opts.ValidateFor(schema.Scale()); err != nil {
		return nil, err
	}
	if err := CheckShape(table, schema); err != nil {
		return nil, err
	}

	partitions := make(map[string]model.ResponseTable)
	excluded := 0
	for i := range table {
		label := table[i].Field(model.Field(key))
		if label == "" {
			excluded++
			continue
		}
		partitions[label] = append(partitions[label], table[i])
	}

	res := &StratifiedResult{
		Key:      key,
		Total:    len(table),
		Excluded: excluded,
		Groups:   make(map[string]*GroupResult, len(partitions)),
	}
	for label, part := range partitions {
		res.Groups[label] = &GroupResult{
			Label:    label,
			Records:  len(part),
			Analysis: analyze(part, schema, opts, label),
		}
	}
	return res, nil
}
