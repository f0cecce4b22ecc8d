package rules

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Bound is a lenient optional integer used for rule thresholds coming from
// forms. Numbers, numeric strings, empty strings and null all decode; anything
// unusable (garbage text, NaN, Inf) becomes unset instead of failing the request.
type Bound struct {
	Value *int
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	b.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	} else {
		raw = string(data)
	}
	b.Value = coerce(raw)
	return nil
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*b.Value)), nil
}

// Int returns a Bound holding v.
func Int(v int) Bound {
	return Bound{Value: &v}
}

func coerce(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		f = math.MaxInt32
	}
	if f < math.MinInt32 {
		f = math.MinInt32
	}
	v := int(f)
	return &v
}
