package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystats/internal/analytics"
	"surveystats/internal/model"
)

func TestSubmit_NormalizesAndStores(t *testing.T) {
	h := newHarness(t)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC)
	h.responseSvc.now = func() time.Time { return fixed }

	resp, err := h.responseSvc.Submit(context.Background(), &model.Submission{
		Name:      "  ana reyes ",
		Age:       " 19",
		Gender:    "fEMALE",
		YearLevel: " 2nd ",
		Answers:   model.Answers(4, 3, 2),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "svc", resp.SurveyID)
	assert.Equal(t, "Ana reyes", resp.Name)
	assert.Equal(t, "19", resp.Age)
	assert.Equal(t, "Female", resp.Gender)
	assert.Equal(t, "2nd", resp.YearLevel)
	assert.Equal(t, fixed.Truncate(time.Second), resp.Timestamp)

	require.Len(t, h.repo.rows, 1)
	assert.Equal(t, int64(1), h.cache.revisions["svc"])
	assert.Equal(t, []string{"response.recorded:" + resp.ID}, h.publisher.events)
	assert.Equal(t, []string{MsgResponseRecorded, MsgSummaryUpdate}, h.broadcaster.types())
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		sub    model.Submission
		fields []string
	}{
		{"missing age and gender", model.Submission{YearLevel: "1st", Answers: model.Answers(1, 2, 3)}, []string{"age", "gender"}},
		{"unknown year level", model.Submission{Age: "20", Gender: "Male", YearLevel: "5th", Answers: model.Answers(1, 2, 3)}, []string{"yearLevel"}},
		{"out of scale answer", model.Submission{Age: "20", Gender: "Male", YearLevel: "1st", Answers: model.Answers(1, 5, 0)}, []string{"answers[1]", "answers[2]"}},
		{"missing answer", model.Submission{Age: "20", Gender: "Male", YearLevel: "1st", Answers: []*int{model.Answer(1), nil, model.Answer(2)}}, []string{"answers[1]"}},
		{"wrong answer count", model.Submission{Age: "20", Gender: "Male", YearLevel: "1st", Answers: model.Answers(1, 2)}, []string{"answers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.responseSvc.Submit(context.Background(), &tt.sub)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			var fields []string
			for _, p := range verr.Problems {
				fields = append(fields, p.Field)
			}
			assert.Equal(t, tt.fields, fields)
			assert.Empty(t, h.repo.rows)
			assert.Empty(t, h.publisher.events)
		})
	}
}

func TestSubmit_NameIsOptional(t *testing.T) {
	h := newHarness(t)
	s := sub("Male", "3rd", 1, 2, 3)
	resp, err := h.responseSvc.Submit(context.Background(), &s)
	require.NoError(t, err)
	assert.Empty(t, resp.Name)
}

func TestSubmit_StoreFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.err = errDown
	s := sub("Male", "3rd", 1, 2, 3)

	_, err := h.responseSvc.Submit(context.Background(), &s)
	assert.ErrorIs(t, err, errDown)
	assert.Empty(t, h.publisher.events)
}

func TestSubmit_CacheDownStillStores(t *testing.T) {
	h := newHarness(t)
	h.cache.down = true
	s := sub("Male", "3rd", 1, 2, 3)

	_, err := h.responseSvc.Submit(context.Background(), &s)
	require.NoError(t, err)
	assert.Len(t, h.repo.rows, 1)
}

func TestImport(t *testing.T) {
	h := newHarness(t)
	table := model.ResponseTable{
		{Gender: "Male", YearLevel: "1st", Answers: model.Answers(1, 2, 3)},
		{ID: "keep-me", Gender: "Female", YearLevel: "2nd", Answers: []*int{nil, model.Answer(4), nil}},
	}

	n, err := h.responseSvc.Import(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := h.responseSvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, "keep-me", stored[1].ID)
	assert.Empty(t, table[0].ID, "input table untouched")
	assert.Equal(t, []string{"responses.imported:2"}, h.publisher.events)
}

func TestImport_SchemaMismatch(t *testing.T) {
	h := newHarness(t)
	table := model.ResponseTable{{Answers: model.Answers(1, 2)}}

	_, err := h.responseSvc.Import(context.Background(), table)
	assert.True(t, errors.Is(err, analytics.ErrSchemaMismatch))
	assert.Empty(t, h.repo.rows)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Male", normalize("  mALE "))
	assert.Equal(t, "1st", normalize("1st"))
	assert.Equal(t, "Émile", normalize("émile"))
	assert.Equal(t, "", normalize("   "))
}
