package analytics

import (
	"bytes"
	"encoding/json"
	"math"
)

// Num is a statistic that may be undefined, e.g. the mean of a question
// nobody answered. Undefined values encode as JSON null, never as zero.
type Num struct {
	Value   float64 `bson:"value"`
	Defined bool    `bson:"defined"`
}

func num(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Num{}
	}
	return Num{Value: v, Defined: true}
}

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Num) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Num{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = num(v)
	return nil
}

// meanOf averages the defined values, undefined if none are
func meanOf(ns []Num) Num {
	var sum float64
	var k int
	for _, n := range ns {
		if n.Defined {
			sum += n.Value
			k++
		}
	}
	if k == 0 {
		return Num{}
	}
	return num(sum / float64(k))
}
