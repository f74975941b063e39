package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Value is a float that may be absent. Absent marks insufficient trailing
// history and is distinct from a valid zero.
type Value struct {
	v  float64
	ok bool
}

// Absent is the zero Value.
var Absent = Value{}

// Some wraps a defined number. NaN and infinities are treated as absent.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent
	}
	return Value{v: v, ok: true}
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// Valid reports whether the value is present.
func (v Value) Valid() bool { return v.ok }

// Or returns the number, or def when absent.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "absent"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes an absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Absent
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
