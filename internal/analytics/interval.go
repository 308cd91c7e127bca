package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ConfidenceInterval bounds a sample mean at Level
type ConfidenceInterval struct {
	Level  float64 `json:"level" bson:"level"`
	N      int     `json:"n" bson:"n"`
	Mean   float64 `json:"mean" bson:"mean"`
	Margin float64 `json:"margin" bson:"margin"`
	Lower  float64 `json:"lower" bson:"lower"`
	Upper  float64 `json:"upper" bson:"upper"`
}

// MeanInterval returns the two-tailed Student's t interval of the mean of
// values. The standard error uses the sample standard deviation, so at least
// two values are required.
func MeanInterval(values []float64, level float64) (ConfidenceInterval, error) {
	if !(level > 0 && level < 1) {
		return ConfidenceInterval{}, Options{ConfidenceLevel: level}.Validate()
	}
	n := len(values)
	if n < 2 {
		return ConfidenceInterval{}, &Error{Kind: KindInsufficientSample, N: n}
	}

	mean, std := stat.MeanStdDev(values, nil)
	se := std / math.Sqrt(float64(n))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile((1 + level) / 2)
	margin := t * se

	return ConfidenceInterval{
		Level:  level,
		N:      n,
		Mean:   mean,
		Margin: margin,
		Lower:  mean - margin,
		Upper:  mean + margin,
	}, nil
}
