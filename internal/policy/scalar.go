package policy

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// maxExactInt is the largest magnitude float64 holds without rounding.
const maxExactInt = 1 << 53

// normalizeScalar accepts numbers, strings and booleans. Numbers become
// float64 so values survive a JSON or YAML round trip unchanged; integers
// float64 cannot hold exactly are rejected rather than rounded.
func normalizeScalar(v any) (any, error) {
	switch x := v.(type) {
	case bool, string:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return x, nil
	case float32:
		return normalizeScalar(float64(x))
	case int:
		return exactInt(int64(x))
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return exactInt(x)
	case uint:
		return exactUint(uint64(x))
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return exactUint(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return exactInt(i)
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return normalizeScalar(f)
	default:
		return nil, fmt.Errorf("unsupported scalar type %T", v)
	}
}

func exactInt(i int64) (any, error) {
	if i > maxExactInt || i < -maxExactInt {
		return nil, fmt.Errorf("integer %d out of range", i)
	}
	return float64(i), nil
}

func exactUint(u uint64) (any, error) {
	if u > maxExactInt {
		return nil, fmt.Errorf("integer %d out of range", u)
	}
	return float64(u), nil
}
