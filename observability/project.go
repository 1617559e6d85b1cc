package observability

import (
	"encoding/json"
	"fmt"
)

// JSONSafe projects provider data into values that survive JSON encoding.
// Entries that cannot be encoded are replaced by their fmt representation.
func JSONSafe(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	if b, err := json.Marshal(data); err == nil {
		var out map[string]any
		if err := json.Unmarshal(b, &out); err == nil {
			return out
		}
	}

	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = projectValue(v)
	}

	return out
}

func projectValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return JSONSafe(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = projectValue(item)
		}
		return items
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Sprintf("%v", v)
	}

	return out
}
