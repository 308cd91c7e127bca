package analytics

import (
	"fmt"

	"surveystats/internal/model"
)

const (
	DefaultConfidenceLevel    = 0.95
	DefaultAgreementThreshold = 3
)

// Options tunes an analysis run
type Options struct {
	// ConfidenceLevel of section intervals, in (0, 1)
	ConfidenceLevel float64 `json:"confidenceLevel" bson:"confidenceLevel" yaml:"confidenceLevel"`

	// AgreementThreshold is the lowest answer counted as agreeing
	AgreementThreshold int `json:"agreementThreshold" bson:"agreementThreshold" yaml:"agreementThreshold"`
}

// DefaultOptions returns a 95% level and the top half of the default 1-4 scale
// as agreement. Use DefaultThreshold for other scales.
func DefaultOptions() Options {
	return Options{
		ConfidenceLevel:    DefaultConfidenceLevel,
		AgreementThreshold: DefaultAgreementThreshold,
	}
}

// Validate rejects levels outside the open unit interval
func (o Options) Validate() error {
	if !(o.ConfidenceLevel > 0 && o.ConfidenceLevel < 1) {
		return &Error{Kind: KindInvalidOptions, Detail: fmt.Sprintf("confidence level %v not in (0,1)", o.ConfidenceLevel)}
	}
	return nil
}

// ValidateFor also rejects a threshold outside the answer scale
func (o Options) ValidateFor(scale model.Scale) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if !scale.Contains(o.AgreementThreshold) {
		return &Error{Kind: KindInvalidOptions, Detail: fmt.Sprintf("agreement threshold %d not in [%d,%d]", o.AgreementThreshold, scale.Min, scale.Max)}
	}
	return nil
}

// DefaultThreshold is the scale midpoint rounded up, so the top half of the
// scale counts as agreement
func DefaultThreshold(scale model.Scale) int {
	return (scale.Min + scale.Max + 1) / 2
}
