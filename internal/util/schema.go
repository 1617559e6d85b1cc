package util

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/hupe1980/agentruntime/core"
)

// CreateParameters derives an ordered parameter schema from a struct using reflection.
//
// Field names come from the `json` tag (falling back to the Go name). A field is
// required unless its json tag has omitempty or it is a pointer. Supported
// extra tags: `description`, `enum` (comma separated), `pattern`, `minimum`,
// `maximum`.
func CreateParameters(structType any) []core.ParameterSchema {
	t := reflect.TypeOf(structType)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	params := make([]core.ParameterSchema, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		schema := core.ParameterSchema{
			Name:        fieldName,
			Description: field.Tag.Get("description"),
			Type:        parameterType(field.Type),
			Required:    !hasOmitEmpty(jsonTag) && !isPointer(field.Type),
			Pattern:     field.Tag.Get("pattern"),
		}

		if enum := field.Tag.Get("enum"); enum != "" {
			for _, v := range strings.Split(enum, ",") {
				schema.Enum = append(schema.Enum, strings.TrimSpace(v))
			}
		}

		schema.Minimum = parseBound(field.Tag.Get("minimum"))
		schema.Maximum = parseBound(field.Tag.Get("maximum"))

		params = append(params, schema)
	}

	return params
}

// parameterType returns the parameter type for a given Go type.
func parameterType(t reflect.Type) core.ParameterType {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return core.ParamNumber
	case reflect.Bool:
		return core.ParamBoolean
	case reflect.Slice, reflect.Array:
		return core.ParamArray
	case reflect.Map, reflect.Struct:
		return core.ParamObject
	case reflect.Ptr:
		return parameterType(t.Elem())
	default:
		return core.ParamString
	}
}

func parseBound(tag string) *float64 {
	if tag == "" {
		return nil
	}
	v, err := strconv.ParseFloat(tag, 64)
	if err != nil {
		return nil
	}
	return &v
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// isPointer checks if a type is a pointer.
func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}
