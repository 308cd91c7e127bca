package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"surveystats/internal/analytics"
	"surveystats/internal/cache"
	"surveystats/internal/event"
	"surveystats/internal/metrics"
	"surveystats/internal/model"
	"surveystats/internal/report"
	"surveystats/internal/repository"
)

var (
	ErrUnknownExport    = errors.New("unknown export table")
	ErrSnapshotNotFound = errors.New("no snapshot recorded yet")
)

// Export table kinds
const (
	ExportQuestions  = "questions"
	ExportSections   = "sections"
	ExportStratified = "stratified"
)

// ReportService computes and stores survey reports
type ReportService struct {
	schema     *model.Schema
	responses  repository.ResponseRepo
	reportRepo repository.ReportRepo
	cache      cache.AnalyticsCache
	publisher  event.Publisher
	opts       analytics.Options
	tableOpts  report.Options
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	schema *model.Schema,
	responses repository.ResponseRepo,
	reportRepo repository.ReportRepo,
	analyticsCache cache.AnalyticsCache,
	publisher event.Publisher,
	opts analytics.Options,
	tableOpts report.Options,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		schema:     schema,
		responses:  responses,
		reportRepo: reportRepo,
		cache:      analyticsCache,
		publisher:  publisher,
		opts:       opts,
		tableOpts:  tableOpts,
		logger:     logger,
		now:        time.Now,
	}
}

// Summary returns the whole-table analysis with its question and section tables
func (s *ReportService) Summary(ctx context.Context) (*report.Summary, error) {
	rev, cacheOK := s.revision(ctx)
	a, err := s.analysis(ctx, rev, cacheOK, s.list(ctx))
	if err != nil {
		return nil, err
	}
	return report.NewSummary(a, rev, s.tableOpts), nil
}

// Stratified analyzes each group of the key on its own
func (s *ReportService) Stratified(ctx context.Context, key string) (*report.Stratified, error) {
	k, err := analytics.ParseGroupingKey(key)
	if err != nil {
		return nil, err
	}
	rev, cacheOK := s.revision(ctx)
	res, err := s.stratified(ctx, rev, cacheOK, k, s.list(ctx))
	if err != nil {
		return nil, err
	}
	return report.NewStratified(res, rev), nil
}

// StratifiedAll runs every grouping key concurrently over one read of the table
func (s *ReportService) StratifiedAll(ctx context.Context) ([]*report.Stratified, error) {
	rev, cacheOK := s.revision(ctx)
	table, err := s.responses.List(ctx, s.schema.ID())
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return s.stratifyAll(ctx, rev, cacheOK, table)
}

func (s *ReportService) stratifyAll(ctx context.Context, rev int64, cacheOK bool, table model.ResponseTable) ([]*report.Stratified, error) {
	load := func() (model.ResponseTable, error) { return table, nil }

	out := make([]*report.Stratified, len(analytics.GroupingKeys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range analytics.GroupingKeys {
		i, k := i, k
		g.Go(func() error {
			res, err := s.stratified(gctx, rev, cacheOK, k, load)
			if err != nil {
				return err
			}
			out[i] = report.NewStratified(res, rev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Export writes one report table as CSV. by is only read for stratified tables.
func (s *ReportService) Export(ctx context.Context, w io.Writer, kind, by string) error {
	var t *report.Table
	switch kind {
	case ExportQuestions, "":
		sum, err := s.Summary(ctx)
		if err != nil {
			return err
		}
		t = sum.Questions
	case ExportSections:
		sum, err := s.Summary(ctx)
		if err != nil {
			return err
		}
		t = sum.Sections
	case ExportStratified:
		st, err := s.Stratified(ctx, by)
		if err != nil {
			return err
		}
		t = st.Table
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExport, kind)
	}
	return t.WriteCSV(w)
}

// CreateSnapshot stores the current summary and every stratification, all
// computed from one read of the table without the cache
func (s *ReportService) CreateSnapshot(ctx context.Context) (*report.Snapshot, error) {
	rev, _ := s.revision(ctx)
	table, err := s.responses.List(ctx, s.schema.ID())
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	load := func() (model.ResponseTable, error) { return table, nil }

	a, err := s.analysis(ctx, rev, false, load)
	if err != nil {
		return nil, err
	}
	sum := report.NewSummary(a, rev, s.tableOpts)
	strata, err := s.stratifyAll(ctx, rev, false, table)
	if err != nil {
		return nil, err
	}

	snap := &report.Snapshot{
		ID:        uuid.New().String(),
		SurveyID:  s.schema.ID(),
		Revision:  sum.Revision,
		Analysis:  sum.Analysis,
		Tables:    []*report.Table{sum.Questions, sum.Sections},
		CreatedAt: s.now(),
	}
	for _, st := range strata {
		snap.Strata = append(snap.Strata, st.Result)
		snap.Tables = append(snap.Tables, st.Table)
	}

	if err := s.reportRepo.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	if err := s.publisher.PublishSnapshotCreated(ctx, snap.SurveyID, snap.ID, snap.Revision, string(sum.Analysis.Verdict)); err != nil {
		s.logger.Warn("failed to publish snapshot event", zap.String("snapshotId", snap.ID), zap.Error(err))
	}

	s.logger.Info("report snapshot created", zap.String("snapshotId", snap.ID), zap.Int64("revision", snap.Revision))
	return snap, nil
}

// LatestSnapshot returns the most recent stored snapshot
func (s *ReportService) LatestSnapshot(ctx context.Context) (*report.Snapshot, error) {
	snap, err := s.reportRepo.LatestSnapshot(ctx, s.schema.ID())
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// BroadcastSummary pushes the current section statistics to the dashboard
func (s *ReportService) BroadcastSummary(ctx context.Context, b Broadcaster) {
	sum, err := s.Summary(ctx)
	if err != nil {
		s.logger.Warn("failed to compute dashboard summary", zap.Error(err))
		return
	}
	b.BroadcastToDashboard(s.schema.ID(), MsgSummaryUpdate, map[string]interface{}{
		"revision":     sum.Revision,
		"participants": sum.Analysis.Participants,
		"sections":     sum.Analysis.Sections,
		"overallMean":  sum.Analysis.OverallMean,
		"verdict":      sum.Analysis.Verdict,
	})
}

// revision reads the table revision. ok is false when the cache is
// unreachable, in which case every lookup is bypassed.
func (s *ReportService) revision(ctx context.Context) (int64, bool) {
	rev, err := s.cache.Revision(ctx, s.schema.ID())
	if err != nil {
		s.logger.Warn("report cache unavailable, computing directly", zap.Error(err))
		metrics.ReportCache.WithLabelValues("error").Inc()
		return 0, false
	}
	return rev, true
}

// list loads the table at most once however often it is called
func (s *ReportService) list(ctx context.Context) func() (model.ResponseTable, error) {
	var table model.ResponseTable
	return func() (model.ResponseTable, error) {
		if table == nil {
			t, err := s.responses.List(ctx, s.schema.ID())
			if err != nil {
				return nil, err
			}
			table = t
		}
		return table, nil
	}
}

func (s *ReportService) analysis(
	ctx context.Context,
	rev int64,
	cacheOK bool,
	load func() (model.ResponseTable, error),
) (*analytics.Analysis, error) {
	if cacheOK {
		a, err := s.cache.GetSummary(ctx, s.schema.ID(), rev, s.opts)
		switch {
		case err != nil:
			s.logger.Warn("failed to read cached summary", zap.Error(err))
			metrics.ReportCache.WithLabelValues("error").Inc()
		case a != nil:
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return a, nil
		default:
			metrics.ReportCache.WithLabelValues("miss").Inc()
		}
	}

	table, err := load()
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	start := time.Now()
	a, err := analytics.Analyze(table, s.schema, s.opts)
	if err != nil {
		return nil, err
	}
	metrics.ReportDuration.WithLabelValues("summary").Observe(time.Since(start).Seconds())

	if cacheOK {
		if err := s.cache.SetSummary(ctx, rev, a); err != nil {
			s.logger.Warn("failed to cache summary", zap.Error(err))
		}
	}
	return a, nil
}

func (s *ReportService) stratified(
	ctx context.Context,
	rev int64,
	cacheOK bool,
	key analytics.GroupingKey,
	load func() (model.ResponseTable, error),
) (*analytics.StratifiedResult, error) {
	if cacheOK {
		res, err := s.cache.GetStratified(ctx, s.schema.ID(), rev, s.opts, key)
		switch {
		case err != nil:
			s.logger.Warn("failed to read cached stratification", zap.String("key", string(key)), zap.Error(err))
			metrics.ReportCache.WithLabelValues("error").Inc()
		case res != nil:
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return res, nil
		default:
			metrics.ReportCache.WithLabelValues("miss").Inc()
		}
	}

	table, err := load()
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	start := time.Now()
	res, err := analytics.Stratify(table, s.schema, key, s.opts)
	if err != nil {
		return nil, err
	}
	metrics.ReportDuration.WithLabelValues("stratified").Observe(time.Since(start).Seconds())

	if cacheOK {
		if err := s.cache.SetStratified(ctx, s.schema.ID(), rev, s.opts, res); err != nil {
			s.logger.Warn("failed to cache stratification", zap.String("key", string(key)), zap.Error(err))
		}
	}
	return res, nil
}
