package models

import (
	"database/sql"
	"encoding/json"
	"strconv"
)

// Ratio is an optional ratio value. The zero value is undefined, which is how
// incomplete trailing windows and zero denominators propagate; an undefined
// Ratio must never be read as a ratio of zero.
type Ratio struct {
	value   float64
	defined bool
}

// DefinedRatio returns a Ratio holding v.
func DefinedRatio(v float64) Ratio { return Ratio{value: v, defined: true} }

// UndefinedRatio returns the absent value.
func UndefinedRatio() Ratio { return Ratio{} }

// Defined reports whether the ratio holds a value.
func (r Ratio) Defined() bool { return r.defined }

// Value returns the held value and whether it is defined.
func (r Ratio) Value() (float64, bool) { return r.value, r.defined }

// Sub returns r - o, undefined when either operand is undefined.
func (r Ratio) Sub(o Ratio) Ratio {
	if !r.defined || !o.defined {
		return Ratio{}
	}
	return DefinedRatio(r.value - o.value)
}

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON decodes null as the undefined ratio.
func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = DefinedRatio(v)
	return nil
}

// NullFloat64 converts to the database representation (NULL when undefined).
func (r Ratio) NullFloat64() sql.NullFloat64 {
	return sql.NullFloat64{Float64: r.value, Valid: r.defined}
}

// RatioFromNull converts from the database representation.
func RatioFromNull(n sql.NullFloat64) Ratio {
	if !n.Valid {
		return Ratio{}
	}
	return DefinedRatio(n.Float64)
}

// CSVString formats the ratio for export: four significant digits, empty
// string when undefined.
func (r Ratio) CSVString() string {
	if !r.defined {
		return ""
	}
	return strconv.FormatFloat(r.value, 'g', 4, 64)
}
