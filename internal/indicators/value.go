// Package indicators holds pure technical-analysis functions. Every output series is aligned
// 1:1 with its input and marks warm-up positions as undefined instead of leaking zeros.
package indicators

import (
	"fmt"

	"mtf_bot/internal/models"
)

// Value is an indicator reading that may not be available yet.
type Value struct {
	V  float64
	OK bool
}

func Some(v float64) Value { return Value{V: v, OK: true} }

// Series is an indicator output aligned with the input index.
type Series []Value

// FromFloats wraps raw numbers as fully defined values.
func FromFloats(xs []float64) Series {
	out := make(Series, len(xs))
	for i, x := range xs {
		out[i] = Some(x)
	}
	return out
}

func (s Series) Last() Value {
	if len(s) == 0 {
		return Value{}
	}
	return s[len(s)-1]
}

func (s Series) Prev() Value {
	if len(s) < 2 {
		return Value{}
	}
	return s[len(s)-2]
}

// Trailing returns the most recent value, failing when it is still undefined.
func (s Series) Trailing() (float64, error) {
	v := s.Last()
	if !v.OK {
		return 0, fmt.Errorf("%w: no trailing value in %d samples", models.ErrInsufficientData, len(s))
	}
	return v.V, nil
}

// Defined counts the positions holding a value.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if v.OK {
			n++
		}
	}
	return n
}
