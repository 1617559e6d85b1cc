// Package params turns raw action parameter payloads into validated values.
//
// The pipeline has three stages:
//
//	Extract   -> normalizes StructuredParams or MarkupParams into Extracted
//	Coerce    -> converts string leaves into scalars
//	Validate  -> checks a parameter block against an action's schema
//
// Extraction never fails: unparseable payloads produce an empty result.
package params

import (
	"encoding/json"
	"strings"

	"github.com/hupe1980/agentruntime/core"
)

// Extracted maps an upper-cased action name to its parameter blocks, in
// payload order.
type Extracted map[string][]map[string]any

// Block returns the index-th parameter block for an action.
func (e Extracted) Block(action string, index int) (map[string]any, bool) {
	blocks := e[strings.ToUpper(action)]
	if index < 0 || index >= len(blocks) {
		return nil, false
	}
	return blocks[index], true
}

// Extract normalizes a raw payload. A nil payload yields an empty result.
func Extract(raw core.ActionParams) Extracted {
	switch p := raw.(type) {
	case core.StructuredParams:
		return extractStructured(p)
	case core.MarkupParams:
		return extractMarkup(string(p))
	default:
		return Extracted{}
	}
}

// ParseParams classifies a raw string from model output: a JSON object
// becomes StructuredParams, anything else MarkupParams. Empty input yields nil.
func ParseParams(raw string) core.ActionParams {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return core.StructuredParams(m)
		}
	}

	return core.MarkupParams(s)
}

func extractStructured(p core.StructuredParams) Extracted {
	out := Extracted{}

	for action, v := range p {
		key := strings.ToUpper(action)

		switch blocks := v.(type) {
		case map[string]any:
			out[key] = append(out[key], coerceBlock(blocks))
		case []map[string]any:
			for _, b := range blocks {
				out[key] = append(out[key], coerceBlock(b))
			}
		case []any:
			for _, b := range blocks {
				if m, ok := b.(map[string]any); ok {
					out[key] = append(out[key], coerceBlock(m))
				}
			}
		}
	}

	return out
}

func coerceBlock(b map[string]any) map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		out[k] = coerceLeaf(v)
	}
	return out
}
