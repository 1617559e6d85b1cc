package params

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/agentruntime/core"
)

// Result is the outcome of validating one parameter block.
//
// Params holds every parameter that validated, even when Valid is false.
// Params is nil when the schema declares no parameters.
type Result struct {
	Valid  bool
	Params map[string]any
	Errors []*core.ValidationError
}

// Messages returns the human-readable error list.
func (r Result) Messages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

// Validate checks an extracted block against an action's parameter schema.
//
// Values are looked up by exact name, then case-insensitively. A missing or
// nil value fails when required and otherwise takes the declared default.
// String parameters accept booleans and numbers in their string form; the
// other types require an exact match.
func Validate(schema []core.ParameterSchema, block map[string]any) Result {
	if len(schema) == 0 {
		return Result{Valid: true}
	}

	res := Result{Params: make(map[string]any, len(schema))}

	for _, s := range schema {
		v, ok := lookup(block, s.Name)
		if !ok || v == nil {
			if s.Required {
				res.Errors = append(res.Errors, &core.ValidationError{
					Field:   s.Name,
					Message: "required parameter is missing",
				})
				continue
			}
			if s.Default != nil {
				res.Params[s.Name] = s.Default
			}
			continue
		}

		validated, err := validateValue(s, v)
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}

		res.Params[s.Name] = validated
	}

	res.Valid = len(res.Errors) == 0

	return res
}

func lookup(block map[string]any, name string) (any, bool) {
	if v, ok := block[name]; ok {
		return v, true
	}
	for k, v := range block {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func validateValue(s core.ParameterSchema, v any) (any, *core.ValidationError) {
	fail := func(format string, args ...any) *core.ValidationError {
		return &core.ValidationError{Field: s.Name, Value: v, Message: fmt.Sprintf(format, args...)}
	}

	switch s.Type {
	case core.ParamString:
		str, ok := stringForm(v)
		if !ok {
			return nil, fail("expected string, got %T", v)
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return nil, fail("must be one of [%s]", strings.Join(s.Enum, ", "))
		}
		if s.Pattern != "" {
			re, err := regexp.Compile(s.Pattern)
			if err != nil {
				return nil, fail("invalid pattern %q: %v", s.Pattern, err)
			}
			if !re.MatchString(str) {
				return nil, fail("does not match pattern %q", s.Pattern)
			}
		}
		return str, nil
	case core.ParamNumber:
		f, ok := ToFloat(v)
		if !ok {
			return nil, fail("expected number, got %T", v)
		}
		if s.Minimum != nil && f < *s.Minimum {
			return nil, fail("must be >= %v", *s.Minimum)
		}
		if s.Maximum != nil && f > *s.Maximum {
			return nil, fail("must be <= %v", *s.Maximum)
		}
		return v, nil
	case core.ParamBoolean:
		if _, ok := v.(bool); !ok {
			return nil, fail("expected boolean, got %T", v)
		}
		return v, nil
	case core.ParamArray:
		if k := reflect.TypeOf(v).Kind(); k != reflect.Slice && k != reflect.Array {
			return nil, fail("expected array, got %T", v)
		}
		return v, nil
	case core.ParamObject:
		if reflect.TypeOf(v).Kind() != reflect.Map {
			return nil, fail("expected object, got %T", v)
		}
		return v, nil
	default:
		return v, nil
	}
}

// stringForm returns v as a string, converting booleans and numbers.
func stringForm(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	}

	if f, ok := ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}

	return "", false
}

// ToFloat reports a non-boolean numeric value as float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
