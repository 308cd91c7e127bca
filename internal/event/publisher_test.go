package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDisabledPublisher(t *testing.T) {
	p, err := NewEventPublisher("", zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, p.PublishResponseRecorded(ctx, "s", "r", 1))
	assert.NoError(t, p.PublishResponsesImported(ctx, "s", 10, 2))
	assert.NoError(t, p.PublishSnapshotCreated(ctx, "s", "snap", 2, "mixed"))
	assert.NoError(t, p.Close())
}

func TestResponseRecordedEvent_JSON(t *testing.T) {
	e := NewResponseRecordedEvent("ai-academic", "resp-1", 4)
	assert.Equal(t, EventTypeResponseRecorded, e.Type)
	assert.NotEmpty(t, e.ID)

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "response.recorded", m["type"])
	assert.Equal(t, "resp-1", m["response_id"])
	assert.Equal(t, float64(4), m["revision"])
}
