package docstore

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Record is a flat document. Backends may hand back numbers as int64,
// float64 or json.Number; use the typed accessors below.
type Record map[string]any

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Record) Int(field string) int64 {
	switch v := r[field].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	}
	return 0
}

func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// Decimal reads a money field. Prices are written as decimal strings; numeric
// values from older records are still accepted.
func (r Record) Decimal(field string) decimal.Decimal {
	switch v := r[field].(type) {
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case int, int32, int64:
		return decimal.NewFromInt(r.Int(field))
	case float32, float64:
		return decimal.NewFromFloat(r.Float(field))
	}
	return decimal.Zero
}

func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

func encodeRecord(r Record) ([]byte, error) {
	if r == nil {
		r = Record{}
	}
	return json.Marshal(r)
}

func decodeRecord(b []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}
