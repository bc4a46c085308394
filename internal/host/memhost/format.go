package memhost

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Format is the native value type of a characteristic.
type Format string

// Supported formats.
const (
	FormatBool   Format = "bool"
	FormatInt    Format = "int"
	FormatFloat  Format = "float"
	FormatString Format = "string"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatBool, FormatInt, FormatFloat, FormatString:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Normalize converts v to the Go type native to the format: bool, int,
// float64 or string. Values decoded from JSON or YAML (float64, json.Number,
// int64, ...) are accepted when they convert without loss.
func (f Format) Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f {
	case FormatBool:
		return toBool(v)
	case FormatInt:
		return toInt(v)
	case FormatFloat:
		return toFloat(v)
	case FormatString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) as %s", ErrInvalidValue, v, v, f)
}

func toBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int, int64, float64, json.Number:
		// HAP clients commonly send 0/1 for booleans.
		n, err := toInt(b)
		if err != nil {
			return nil, err
		}
		switch n {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) as bool", ErrInvalidValue, v, v)
}

func toInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float32:
		return floatToInt(float64(n), v)
	case float64:
		return floatToInt(n, v)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		if fl, err := n.Float64(); err == nil {
			return floatToInt(fl, v)
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) as int", ErrInvalidValue, v, v)
}

func floatToInt(f float64, orig any) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: %v is not integral", ErrInvalidValue, orig)
	}
	return int(f), nil
}

func toFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) as float", ErrInvalidValue, v, v)
}
