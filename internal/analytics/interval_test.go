package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanInterval(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		level  float64
		lower  float64
		upper  float64
	}{
		// t(3, 0.975) = 3.182446, s = 1.290994, se = 0.645497
		{"four point spread", []float64{1, 2, 3, 4}, 0.95, 0.445739, 4.554261},
		// t(1, 0.95) = 6.313752, s = 0.707107, se = 0.5
		{"two values at 90%", []float64{3, 4}, 0.90, 0.343124, 6.656876},
		{"constant sample", []float64{2, 2, 2}, 0.95, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci, err := MeanInterval(tt.values, tt.level)
			require.NoError(t, err)
			assert.Equal(t, len(tt.values), ci.N)
			assert.InDelta(t, tt.lower, ci.Lower, 1e-4)
			assert.InDelta(t, tt.upper, ci.Upper, 1e-4)
			assert.InDelta(t, ci.Mean, (ci.Lower+ci.Upper)/2, 1e-9)
		})
	}
}

func TestMeanInterval_InsufficientSample(t *testing.T) {
	for _, values := range [][]float64{nil, {4}} {
		_, err := MeanInterval(values, 0.95)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientSample))
	}
}

func TestMeanInterval_InvalidLevel(t *testing.T) {
	_, err := MeanInterval([]float64{1, 2, 3}, 1)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestMeanInterval_WiderAtHigherLevel(t *testing.T) {
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4}
	narrow, err := MeanInterval(values, 0.80)
	require.NoError(t, err)
	wide, err := MeanInterval(values, 0.99)
	require.NoError(t, err)
	assert.Greater(t, wide.Margin, narrow.Margin)
}
