package analytics

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystats/internal/model"
)

func TestParseGroupingKey(t *testing.T) {
	tests := []struct {
		in   string
		want GroupingKey
	}{
		{"gender", GroupByGender},
		{"Gender", GroupByGender},
		{"year_level", GroupByYearLevel},
		{"Year Level", GroupByYearLevel},
		{"year-level", GroupByYearLevel},
		{" age ", GroupByAge},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGroupingKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseGroupingKey("shoe size")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGroupingKey))
	assert.Contains(t, err.Error(), "shoe size")
}

func TestStratify_SmallGroupKeepsQuestionStats(t *testing.T) {
	schema := singleQuestionSchema(t)
	table := model.ResponseTable{
		{Gender: "Female", Answers: model.Answers(2)},
		{Gender: "Female", Answers: model.Answers(3)},
		{Gender: "Female", Answers: model.Answers(4)},
		{Gender: "Male", Answers: model.Answers(1)},
	}

	res, err := Stratify(table, schema, GroupByGender, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Female", "Male"}, res.Labels())

	female := res.Groups["Female"]
	assert.Equal(t, 3, female.Records)
	assert.InDelta(t, 3.0, female.Analysis.Questions[0].Mean.Value, 1e-9)
	require.NotNil(t, female.Analysis.Sections[0].Interval)
	assert.Nil(t, female.Analysis.Sections[0].IntervalErr)

	male := res.Groups["Male"]
	assert.Equal(t, 1, male.Records)
	assert.InDelta(t, 1.0, male.Analysis.Questions[0].Mean.Value, 1e-9)
	assert.Nil(t, male.Analysis.Sections[0].Interval)
	require.NotNil(t, male.Analysis.Sections[0].IntervalErr)
	assert.True(t, errors.Is(male.Analysis.Sections[0].IntervalErr, ErrInsufficientSample))
	assert.Equal(t, "Male", male.Analysis.Sections[0].IntervalErr.Group)
}

func TestStratify_OneRespondentAcrossManyQuestions(t *testing.T) {
	schema := twoSectionSchema(t)
	table := model.ResponseTable{
		{YearLevel: "1st", Answers: model.Answers(1, 2, 3, 4, 4)},
		{YearLevel: "2nd", Answers: model.Answers(1, 2, 3, 4, 4)},
		{YearLevel: "2nd", Answers: model.Answers(2, 2, 3, 3, 4)},
	}

	res, err := Stratify(table, schema, GroupByYearLevel, DefaultOptions())
	require.NoError(t, err)

	for _, s := range res.Groups["1st"].Analysis.Sections {
		assert.Nil(t, s.Interval, s.Section)
		assert.NotNil(t, s.IntervalErr, s.Section)
	}
	for _, s := range res.Groups["2nd"].Analysis.Sections {
		assert.NotNil(t, s.Interval, s.Section)
	}
}

func TestStratify_IsPartition(t *testing.T) {
	schema := twoSectionSchema(t)
	table := randomTable(rand.New(rand.NewSource(5)), 60, schema.QuestionCount())

	for _, key := range GroupingKeys {
		res, err := Stratify(table, schema, key, DefaultOptions())
		require.NoError(t, err)

		sum := 0
		for _, g := range res.Groups {
			sum += g.Records
			assert.Equal(t, g.Records, g.Analysis.Participants)
		}
		assert.Equal(t, len(table), sum+res.Excluded, "key %s", key)
	}
}

func TestStratify_Errors(t *testing.T) {
	schema := twoSectionSchema(t)

	_, err := Stratify(rows([]int{1, 2, 3, 4, 1}), schema, GroupingKey("height"), DefaultOptions())
	assert.True(t, errors.Is(err, ErrInvalidGroupingKey))

	_, err = Stratify(rows([]int{1, 2}), schema, GroupByGender, DefaultOptions())
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestStratify_AcceptsLabelKeys(t *testing.T) {
	schema := twoSectionSchema(t)
	table := rows([]int{1, 2, 3, 4, 1}, []int{2, 2, 3, 4, 4}, []int{4, 4, 3, 2, 1})
	table[0].Gender, table[1].Gender, table[2].Gender = "Female", "Female", "Male"
	table[0].YearLevel, table[1].YearLevel, table[2].YearLevel = "1st", "2nd", "2nd"

	cases := []struct {
		key    string
		want   GroupingKey
		labels []string
	}{
		{"Gender", GroupByGender, []string{"Female", "Male"}},
		{" gender ", GroupByGender, []string{"Female", "Male"}},
		{"Year Level", GroupByYearLevel, []string{"1st", "2nd"}},
		{"year-level", GroupByYearLevel, []string{"1st", "2nd"}},
	}
	for _, tc := range cases {
		res, err := Stratify(table, schema, GroupingKey(tc.key), DefaultOptions())
		require.NoError(t, err, tc.key)
		assert.Equal(t, tc.want, res.Key, tc.key)
		assert.Equal(t, tc.labels, res.Labels(), tc.key)
		assert.Zero(t, res.Excluded, tc.key)
	}
}

func TestStratify_ThresholdOutsideScale(t *testing.T) {
	schema := twoSectionSchema(t)
	_, err := Stratify(rows([]int{1, 2, 3, 4, 1}), schema, GroupByGender, Options{ConfidenceLevel: 0.95, AgreementThreshold: 9})
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestStratify_DoesNotMutateTable(t *testing.T) {
	schema := twoSectionSchema(t)
	table := randomTable(rand.New(rand.NewSource(9)), 20, schema.QuestionCount())
	before := make([]string, len(table))
	for i := range table {
		before[i] = table[i].Gender
	}

	_, err := Stratify(table, schema, GroupByGender, DefaultOptions())
	require.NoError(t, err)
	for i := range table {
		assert.Equal(t, before[i], table[i].Gender)
		assert.Len(t, table[i].Answers, schema.QuestionCount())
	}
}
