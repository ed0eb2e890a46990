package types

import (
	"bytes"
	"strconv"
	"strings"
)

// Flexible scalar types for the platform API payloads. The API is loosely
// typed: numeric fields arrive as JSON numbers or numeric strings, and
// missing values show up as null, "", or "N/A" depending on the endpoint.
// These types absorb that at the parse boundary so the rest of the
// pipeline only sees typed optional values.

func isNullish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n/a", "na", "null", "none", "-":
		return true
	default:
		return false
	}
}

func unquote(data []byte) (string, bool) {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

// FlexFloat is an optional float64 that accepts numbers, numeric strings
// and null. Non-numeric values decode as null, never as a decode error.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (x *FlexFloat) UnmarshalJSON(data []byte) error {
	*x = FlexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	raw := string(data)
	if s, ok := unquote(data); ok {
		if isNullish(s) {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	x.Value = v
	x.Valid = true
	return nil
}

// Or returns the value, or def when the field was null
func (x FlexFloat) Or(def float64) float64 {
	if !x.Valid {
		return def
	}
	return x.Value
}

// Ptr returns a pointer to the value, or nil when the field was null
func (x FlexFloat) Ptr() *float64 {
	if !x.Valid {
		return nil
	}
	v := x.Value
	return &v
}

// FlexInt is an optional int64. Fractional inputs are truncated.
type FlexInt struct {
	Value int64
	Valid bool
}

func (x *FlexInt) UnmarshalJSON(data []byte) error {
	var f FlexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*x = FlexInt{Value: int64(f.Value), Valid: f.Valid}
	return nil
}

// Or returns the value, or def when the field was null
func (x FlexInt) Or(def int64) int64 {
	if !x.Valid {
		return def
	}
	return x.Value
}

// FlexString is an optional string. Numeric and boolean values are kept
// in their literal form ("84", "true"), and "N/A"-like values decode as
// null.
type FlexString struct {
	Value string
	Valid bool
}

func (x *FlexString) UnmarshalJSON(data []byte) error {
	*x = FlexString{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	raw := string(data)
	if s, ok := unquote(data); ok {
		raw = strings.TrimSpace(s)
	} else if data[0] == '{' || data[0] == '[' {
		// Structured values are not coerced to strings
		return nil
	}

	if isNullish(raw) {
		return nil
	}

	x.Value = raw
	x.Valid = true
	return nil
}

// Or returns the value, or def when the field was null
func (x FlexString) Or(def string) string {
	if !x.Valid {
		return def
	}
	return x.Value
}

// FlexBool is an optional bool, accepting booleans, "true"/"false"
// strings and 0/1 numbers.
type FlexBool struct {
	Value bool
	Valid bool
}

func (x *FlexBool) UnmarshalJSON(data []byte) error {
	*x = FlexBool{}
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if !s.Valid {
		return nil
	}

	switch strings.ToLower(s.Value) {
	case "true", "1":
		*x = FlexBool{Value: true, Valid: true}
	case "false", "0":
		*x = FlexBool{Value: false, Valid: true}
	}
	return nil
}

// Or returns the value, or def when the field was null
func (x FlexBool) Or(def bool) bool {
	if !x.Valid {
		return def
	}
	return x.Value
}
