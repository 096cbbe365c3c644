package tool

import (
	"strconv"
	"strings"
)

// BuildArgs converts a raw parameter bag into the coerced argument bag a
// tool handler receives. For each declared parameter, in order: a supplied
// value is converted to the declared kind; otherwise a declared default is
// used; otherwise an optional parameter gets its kind's zero value;
// otherwise the call fails with a MissingParamError.
//
// Scalar conversion is deliberately permissive: an unconvertible value
// falls back to the target kind's zero value rather than failing.
func BuildArgs(params []Param, bag map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(params))

	for _, p := range params {
		if raw, ok := bag[p.Name]; ok {
			args[p.Name] = coerce(raw, p.Kind, p.Elem)
			continue
		}
		if p.HasDefault {
			args[p.Name] = p.Default
			continue
		}
		if p.Optional {
			args[p.Name] = zeroValue(p.Kind)
			continue
		}
		return nil, &MissingParamError{Param: p.Name}
	}

	return args, nil
}

func coerce(v any, kind Kind, elem Kind) any {
	switch kind {
	case String:
		return toString(v)
	case Bool:
		return toBool(v)
	case Int:
		return toInt(v)
	case Number:
		return toNumber(v)
	case Address:
		return toAddress(v)
	case Object:
		if m, ok := v.(map[string]any); ok {
			return m
		}
		return map[string]any{}
	case IntMap:
		return toIntMap(v)
	case List:
		return toList(v, elem)
	default:
		return v
	}
}

func zeroValue(kind Kind) any {
	switch kind {
	case String:
		return ""
	case Bool:
		return false
	case Int:
		return int64(0)
	case Number:
		return float64(0)
	case Address:
		return uint64(0)
	case Object:
		return map[string]any{}
	case IntMap:
		return map[string]int64{}
	case List:
		return []any{}
	default:
		return nil
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a trailing ".0".
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false
		}
		return b
	default:
		return false
	}
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toAddress reinterprets any integer-representable value as a 64-bit
// address. Textual addresses accept the usual 0x prefix; a bare hex
// string is also accepted since that is how addresses are commonly pasted.
func toAddress(v any) uint64 {
	switch x := v.(type) {
	case float64:
		return uint64(int64(x))
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseUint(s, 0, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(s, 16, 64); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}

func toIntMap(v any) map[string]int64 {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]int64{}
	}
	out := make(map[string]int64, len(m))
	for k, val := range m {
		out[k] = toInt(val)
	}
	return out
}

func toList(v any, elem Kind) []any {
	list, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, len(list))
	for i, item := range list {
		out[i] = coerce(item, elem, 0)
	}
	return out
}
