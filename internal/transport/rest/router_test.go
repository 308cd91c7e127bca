package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surveystats/internal/analytics"
	"surveystats/internal/model"
	"surveystats/internal/report"
	"surveystats/internal/service"
)

type stubResponses struct {
	submitErr error
	listErr   error
}

func (s *stubResponses) Schema() *model.Schema { return model.DefaultSchema() }

func (s *stubResponses) Submit(_ context.Context, sub *model.Submission) (*model.Response, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &model.Response{ID: "r1", Gender: sub.Gender, Answers: sub.Answers}, nil
}

func (s *stubResponses) List(context.Context) (model.ResponseTable, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return model.ResponseTable{{ID: "r1"}}, nil
}

type stubReports struct {
	err error
}

func (s *stubReports) Summary(context.Context) (*report.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, err := analytics.Analyze(model.ResponseTable{}, model.DefaultSchema(), analytics.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return report.NewSummary(a, 0, report.Options{}), nil
}

func (s *stubReports) Stratified(_ context.Context, key string) (*report.Stratified, error) {
	if s.err != nil {
		return nil, s.err
	}
	res, err := analytics.Stratify(model.ResponseTable{}, model.DefaultSchema(), analytics.GroupingKey(key), analytics.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return report.NewStratified(res, 0), nil
}

func (s *stubReports) StratifiedAll(context.Context) ([]*report.Stratified, error) {
	return nil, s.err
}

func (s *stubReports) Export(_ context.Context, w io.Writer, kind, _ string) error {
	if s.err != nil {
		return s.err
	}
	if kind != service.ExportQuestions {
		return service.ErrUnknownExport
	}
	_, err := io.WriteString(w, "Section,Question\n")
	return err
}

func (s *stubReports) CreateSnapshot(context.Context) (*report.Snapshot, error) {
	return &report.Snapshot{ID: "snap"}, s.err
}

func (s *stubReports) LatestSnapshot(context.Context) (*report.Snapshot, error) {
	return nil, service.ErrSnapshotNotFound
}

type testServer struct {
	handler   http.Handler
	responses *stubResponses
	reports   *stubReports
	token     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth := service.NewAuthService("host", "pw", "secret")
	login, err := auth.Login("host", "pw")
	require.NoError(t, err)

	ts := &testServer{responses: &stubResponses{}, reports: &stubReports{}, token: login.Token}
	ts.handler = NewRouter(&Container{
		AuthService:     auth,
		ResponseService: ts.responses,
		ReportService:   ts.reports,
		Logger:          zap.NewNop(),
	})
	return ts
}

func (ts *testServer) do(method, path, body string, auth bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if auth {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do("GET", "/v1/schema", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, float64(model.DefaultSchema().QuestionCount()), schema["questionCount"])

	rec = ts.do("POST", "/v1/auth/login", `{"username":"host","password":"pw"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do("POST", "/v1/auth/login", `{"username":"host","password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do("GET", "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitResponse(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("POST", "/v1/responses", `{"age":"20","gender":"Male","yearLevel":"1st","answers":[1,2,null]}`, false)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do("POST", "/v1/responses", `{not json`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.responses.submitErr = &service.ValidationError{Problems: []service.FieldProblem{{Field: "age", Message: "required"}}}
	rec = ts.do("POST", "/v1/responses", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"problems"`)
}

func TestHostRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/v1/responses", "/v1/reports/summary", "/v1/reports/stratified?by=gender", "/v1/reports/export"} {
		rec := ts.do("GET", path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	req := httptest.NewRequest("GET", "/v1/reports/summary", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/v1/reports/summary", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Contains(t, sum, "questions")
	assert.Contains(t, sum, "conclusion")

	rec = ts.do("GET", "/v1/reports/stratified?by=gender", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do("GET", "/v1/reports/stratified?by=height", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidGroupingKey")

	rec = ts.do("GET", "/v1/reports/export?table=questions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Section,Question\n", rec.Body.String())

	rec = ts.do("GET", "/v1/reports/export?table=pies", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do("POST", "/v1/reports/snapshots", "", true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do("GET", "/v1/reports/snapshots/latest", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	ts.reports.err = analytics.ColumnMismatch(28, 20)
	rec := ts.do("GET", "/v1/reports/summary", "", true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	ts.reports.err = errors.New("mongo down")
	rec = ts.do("GET", "/v1/reports/summary", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "mongo")

	ts.responses.listErr = errors.New("mongo down")
	rec = ts.do("GET", "/v1/responses", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
