package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate fills a prompt template from state values using text/template.
// Missing keys render as empty strings.
func RenderTemplate(text string, values map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
	}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}

	// missingkey=zero renders absent map entries as "<no value>".
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
