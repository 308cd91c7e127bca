package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveystats/internal/analytics"
)

// AnalyticsCache handles Redis operations for computed reports.
// Entries are keyed by the survey's response revision, so a bump makes every
// older entry unreachable and the TTL reclaims it.
type AnalyticsCache interface {
	Revision(ctx context.Context, surveyID string) (int64, error)
	BumpRevision(ctx context.Context, surveyID string) (int64, error)

	GetSummary(ctx context.Context, surveyID string, rev int64, opts analytics.Options) (*analytics.Analysis, error)
	SetSummary(ctx context.Context, rev int64, a *analytics.Analysis) error

	GetStratified(ctx context.Context, surveyID string, rev int64, opts analytics.Options, key analytics.GroupingKey) (*analytics.StratifiedResult, error)
	SetStratified(ctx context.Context, surveyID string, rev int64, opts analytics.Options, res *analytics.StratifiedResult) error
}

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new analytics cache
func NewAnalyticsCache(client *redis.Client) AnalyticsCache {
	return &analyticsCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// Key helpers
func (c *analyticsCache) revisionKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:revision", surveyID)
}

func (c *analyticsCache) summaryKey(surveyID string, rev int64, opts analytics.Options) string {
	return fmt.Sprintf("survey:%s:r%d:%g:%d:summary", surveyID, rev, opts.ConfidenceLevel, opts.AgreementThreshold)
}

func (c *analyticsCache) stratifiedKey(surveyID string, rev int64, opts analytics.Options, key analytics.GroupingKey) string {
	return fmt.Sprintf("survey:%s:r%d:%g:%d:strat:%s", surveyID, rev, opts.ConfidenceLevel, opts.AgreementThreshold, key)
}

// Revision returns 0 for a survey that never had a response recorded
func (c *analyticsCache) Revision(ctx context.Context, surveyID string) (int64, error) {
	rev, err := c.client.Get(ctx, c.revisionKey(surveyID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return rev, err
}

func (c *analyticsCache) BumpRevision(ctx context.Context, surveyID string) (int64, error) {
	return c.client.Incr(ctx, c.revisionKey(surveyID)).Result()
}

func (c *analyticsCache) GetSummary(ctx context.Context, surveyID string, rev int64, opts analytics.Options) (*analytics.Analysis, error) {
	var a analytics.Analysis
	ok, err := c.getJSON(ctx, c.summaryKey(surveyID, rev, opts), &a)
	if !ok || err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *analyticsCache) SetSummary(ctx context.Context, rev int64, a *analytics.Analysis) error {
	return c.setJSON(ctx, c.summaryKey(a.SurveyID, rev, a.Options), a)
}

func (c *analyticsCache) GetStratified(ctx context.Context, surveyID string, rev int64, opts analytics.Options, key analytics.GroupingKey) (*analytics.StratifiedResult, error) {
	var res analytics.StratifiedResult
	ok, err := c.getJSON(ctx, c.stratifiedKey(surveyID, rev, opts, key), &res)
	if !ok || err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *analyticsCache) SetStratified(ctx context.Context, surveyID string, rev int64, opts analytics.Options, res *analytics.StratifiedResult) error {
	return c.setJSON(ctx, c.stratifiedKey(surveyID, rev, opts, res.Key), res)
}

func (c *analyticsCache) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, err
	}
	return true, nil
}

func (c *analyticsCache) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
