package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surveystats/internal/analytics"
	"surveystats/internal/model"
	"surveystats/internal/report"
)

var errDown = errors.New("connection refused")

func testSchema(t *testing.T) *model.Schema {
	t.Helper()
	s, err := model.NewSchema("svc", "Service Test", model.DefaultScale(),
		model.Section{Name: "Usage", Questions: []string{"Daily", "Weekly"}},
		model.Section{Name: "Trust", Questions: []string{"Accuracy"}},
	)
	require.NoError(t, err)
	return s
}

type fakeResponseRepo struct {
	mu    sync.Mutex
	rows  model.ResponseTable
	lists int
	err   error

	// afterList runs once, after the next List has taken its copy
	afterList func()
}

func (r *fakeResponseRepo) Create(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, *resp)
	return nil
}

func (r *fakeResponseRepo) CreateMany(_ context.Context, table model.ResponseTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, table...)
	return nil
}

func (r *fakeResponseRepo) List(_ context.Context, surveyID string) (model.ResponseTable, error) {
	r.mu.Lock()
	r.lists++
	if r.err != nil {
		r.mu.Unlock()
		return nil, r.err
	}
	out := model.ResponseTable{}
	for _, row := range r.rows {
		if row.SurveyID == surveyID {
			out = append(out, row)
		}
	}
	hook := r.afterList
	r.afterList = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeResponseRepo) Count(ctx context.Context, surveyID string) (int64, error) {
	rows, err := r.List(ctx, surveyID)
	return int64(len(rows)), err
}

func (r *fakeResponseRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

type fakeReportRepo struct {
	mu    sync.Mutex
	snaps []*report.Snapshot
}

func (r *fakeReportRepo) SaveSnapshot(_ context.Context, snap *report.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

func (r *fakeReportRepo) LatestSnapshot(_ context.Context, surveyID string) (*report.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.snaps) - 1; i >= 0; i-- {
		if r.snaps[i].SurveyID == surveyID {
			return r.snaps[i], nil
		}
	}
	return nil, nil
}

// fakeCache stores values by key in memory; down makes every call fail
type fakeCache struct {
	mu        sync.Mutex
	revisions map[string]int64
	summaries map[string]*analytics.Analysis
	strata    map[string]*analytics.StratifiedResult
	down      bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		revisions: map[string]int64{},
		summaries: map[string]*analytics.Analysis{},
		strata:    map[string]*analytics.StratifiedResult{},
	}
}

func (c *fakeCache) Revision(_ context.Context, surveyID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return 0, errDown
	}
	return c.revisions[surveyID], nil
}

func (c *fakeCache) BumpRevision(_ context.Context, surveyID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return 0, errDown
	}
	c.revisions[surveyID]++
	return c.revisions[surveyID], nil
}

func (c *fakeCache) GetSummary(_ context.Context, surveyID string, rev int64, _ analytics.Options) (*analytics.Analysis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, errDown
	}
	return c.summaries[fmt.Sprintf("%s:%d", surveyID, rev)], nil
}

func (c *fakeCache) SetSummary(_ context.Context, rev int64, a *analytics.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errDown
	}
	c.summaries[fmt.Sprintf("%s:%d", a.SurveyID, rev)] = a
	return nil
}

func (c *fakeCache) GetStratified(_ context.Context, surveyID string, rev int64, _ analytics.Options, key analytics.GroupingKey) (*analytics.StratifiedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, errDown
	}
	return c.strata[fmt.Sprintf("%s:%d:%s", surveyID, rev, key)], nil
}

func (c *fakeCache) SetStratified(_ context.Context, surveyID string, rev int64, _ analytics.Options, res *analytics.StratifiedResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errDown
	}
	c.strata[fmt.Sprintf("%s:%d:%s", surveyID, rev, res.Key)] = res
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) record(e string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) PublishResponseRecorded(_ context.Context, _, responseID string, _ int64) error {
	return p.record("response.recorded:" + responseID)
}

func (p *fakePublisher) PublishResponsesImported(_ context.Context, _ string, count int, _ int64) error {
	return p.record(fmt.Sprintf("responses.imported:%d", count))
}

func (p *fakePublisher) PublishSnapshotCreated(_ context.Context, _, snapshotID string, _ int64, _ string) error {
	return p.record("report.snapshot.created:" + snapshotID)
}

func (p *fakePublisher) Close() error { return nil }

type broadcast struct {
	SurveyID string
	Type     string
	Payload  interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *fakeBroadcaster) BroadcastToDashboard(surveyID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{surveyID, msgType, payload})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.sent))
	for i, s := range b.sent {
		out[i] = s.Type
	}
	return out
}

// harness wires both services over shared fakes
type harness struct {
	schema      *model.Schema
	repo        *fakeResponseRepo
	reports     *fakeReportRepo
	cache       *fakeCache
	publisher   *fakePublisher
	broadcaster *fakeBroadcaster
	responseSvc *ResponseService
	reportSvc   *ReportService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		schema:      testSchema(t),
		repo:        &fakeResponseRepo{},
		reports:     &fakeReportRepo{},
		cache:       newFakeCache(),
		publisher:   &fakePublisher{},
		broadcaster: &fakeBroadcaster{},
	}
	logger := zap.NewNop()
	h.responseSvc = NewResponseService(h.schema, h.repo, h.cache, h.publisher, logger)
	h.reportSvc = NewReportService(h.schema, h.repo, h.reports, h.cache, h.publisher,
		analytics.DefaultOptions(), report.Options{}, logger)
	h.responseSvc.SetBroadcaster(h.broadcaster)
	h.responseSvc.SetReportService(h.reportSvc)
	return h
}

func (h *harness) seed(t *testing.T, rows ...model.Submission) {
	t.Helper()
	for i := range rows {
		_, err := h.responseSvc.Submit(context.Background(), &rows[i])
		require.NoError(t, err)
	}
}

func sub(gender, year string, answers ...int) model.Submission {
	return model.Submission{Age: "20", Gender: gender, YearLevel: year, Answers: model.Answers(answers...)}
}
