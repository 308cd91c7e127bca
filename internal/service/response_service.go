package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"surveystats/internal/analytics"
	"surveystats/internal/cache"
	"surveystats/internal/event"
	"surveystats/internal/metrics"
	"surveystats/internal/model"
	"surveystats/internal/repository"
)

// FieldProblem describes one rejected submission field
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a submission
type ValidationError struct {
	Problems []FieldProblem `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ResponseService records survey responses
type ResponseService struct {
	schema      *model.Schema
	repo        repository.ResponseRepo
	cache       cache.AnalyticsCache
	publisher   event.Publisher
	broadcaster Broadcaster
	reports     *ReportService
	logger      *zap.Logger
	now         func() time.Time
}

// NewResponseService creates a new response service
func NewResponseService(
	schema *model.Schema,
	repo repository.ResponseRepo,
	analyticsCache cache.AnalyticsCache,
	publisher event.Publisher,
	logger *zap.Logger,
) *ResponseService {
	return &ResponseService{
		schema:    schema,
		repo:      repo,
		cache:     analyticsCache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ResponseService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetReportService enables summary pushes to the dashboard after each change
func (s *ResponseService) SetReportService(r *ReportService) {
	s.reports = r
}

// Schema returns the survey layout responses are validated against
func (s *ResponseService) Schema() *model.Schema {
	return s.schema
}

// Submit validates, normalizes and stores one submission
func (s *ResponseService) Submit(ctx context.Context, sub *model.Submission) (*model.Response, error) {
	if err := s.Validate(sub); err != nil {
		metrics.ResponsesSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}

	resp := &model.Response{
		ID:        uuid.New().String(),
		SurveyID:  s.schema.ID(),
		Name:      normalize(sub.Name),
		Age:       normalize(sub.Age),
		Gender:    normalize(sub.Gender),
		YearLevel: normalize(sub.YearLevel),
		Timestamp: s.now().Truncate(time.Second),
		Answers:   append([]*int(nil), sub.Answers...),
	}
	if err := s.repo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	metrics.ResponsesSubmitted.WithLabelValues("accepted").Inc()

	rev := s.bump(ctx)
	if err := s.publisher.PublishResponseRecorded(ctx, resp.SurveyID, resp.ID, rev); err != nil {
		s.logger.Warn("failed to publish response event", zap.String("responseId", resp.ID), zap.Error(err))
	}
	s.notify(ctx)

	s.logger.Info("response recorded",
		zap.String("responseId", resp.ID),
		zap.String("surveyId", resp.SurveyID),
		zap.Int64("revision", rev),
	)
	return resp, nil
}

// Validate checks a submission against the schema without storing it
func (s *ResponseService) Validate(sub *model.Submission) error {
	verr := &ValidationError{}

	if strings.TrimSpace(sub.Age) == "" {
		verr.add("age", "required")
	}
	if strings.TrimSpace(sub.Gender) == "" {
		verr.add("gender", "required")
	}
	if !validYearLevel(sub.YearLevel) {
		verr.add("yearLevel", "must be one of %s", strings.Join(model.YearLevels, ", "))
	}

	scale := s.schema.Scale()
	if len(sub.Answers) != s.schema.QuestionCount() {
		verr.add("answers", "expected %d answers, got %d", s.schema.QuestionCount(), len(sub.Answers))
	} else {
		for i, a := range sub.Answers {
			switch {
			case a == nil:
				verr.add(fmt.Sprintf("answers[%d]", i), "required")
			case !scale.Contains(*a):
				verr.add(fmt.Sprintf("answers[%d]", i), "must be between %d and %d", scale.Min, scale.Max)
			}
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// Import stores a whole table, e.g. one read from a response file. Records
// keep their own timestamps; missing IDs are assigned.
func (s *ResponseService) Import(ctx context.Context, table model.ResponseTable) (int, error) {
	if err := analytics.CheckShape(table, s.schema); err != nil {
		return 0, err
	}

	rows := make(model.ResponseTable, len(table))
	for i := range table {
		r := table[i]
		r.Answers = append([]*int(nil), r.Answers...)
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.SurveyID = s.schema.ID()
		rows[i] = r
	}
	if err := s.repo.CreateMany(ctx, rows); err != nil {
		return 0, fmt.Errorf("import responses: %w", err)
	}
	metrics.ResponsesImported.Add(float64(len(rows)))

	rev := s.bump(ctx)
	if err := s.publisher.PublishResponsesImported(ctx, s.schema.ID(), len(rows), rev); err != nil {
		s.logger.Warn("failed to publish import event", zap.Error(err))
	}
	s.notify(ctx)

	s.logger.Info("responses imported", zap.Int("count", len(rows)), zap.Int64("revision", rev))
	return len(rows), nil
}

// List returns every stored response in submission order
func (s *ResponseService) List(ctx context.Context) (model.ResponseTable, error) {
	return s.repo.List(ctx, s.schema.ID())
}

// bump advances the cache revision; a failure only costs cache freshness
// until the TTL, so it is logged and ignored
func (s *ResponseService) bump(ctx context.Context) int64 {
	rev, err := s.cache.BumpRevision(ctx, s.schema.ID())
	if err != nil {
		s.logger.Warn("failed to bump report revision", zap.Error(err))
	}
	return rev
}

func (s *ResponseService) notify(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	n, err := s.repo.Count(ctx, s.schema.ID())
	if err != nil {
		s.logger.Warn("failed to count responses", zap.Error(err))
		return
	}
	s.broadcaster.BroadcastToDashboard(s.schema.ID(), MsgResponseRecorded, map[string]interface{}{
		"surveyId":     s.schema.ID(),
		"participants": n,
	})
	if s.reports != nil {
		s.reports.BroadcastSummary(ctx, s.broadcaster)
	}
}

func validYearLevel(v string) bool {
	v = strings.TrimSpace(v)
	for _, y := range model.YearLevels {
		if v == y {
			return true
		}
	}
	return false
}

// normalize trims and capitalizes: first letter upper, the rest lower
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
