// SPDX-License-Identifier: MPL-2.0

package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
)

// ParseTemplateData decodes the --data JSON blob. Empty or null data yields an
// empty object.
func ParseTemplateData(data string) (any, error) {
	if strings.TrimSpace(data) == "" {
		return map[string]any{}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, &InvalidTemplateDataError{Err: err}
	}
	if v == nil {
		return map[string]any{}, nil
	}
	return v, nil
}

// RenderTemplate compiles text as a Handlebars template and executes it
// against the JSON data.
func RenderTemplate(text, data string) (string, error) {
	ctx, err := ParseTemplateData(data)
	if err != nil {
		return "", err
	}
	return RenderTemplateData(text, ctx)
}

// RenderTemplateData executes text against already decoded data. Values are
// inserted verbatim: the output is a shell command, so HTML escaping does not apply.
func RenderTemplateData(text string, ctx any) (string, error) {
	tpl, err := raymond.Parse(text)
	if err != nil {
		return "", &TemplateRenderError{Template: text, Err: err}
	}

	out, err := tpl.Exec(unescaped(ctx))
	if err != nil {
		return "", &TemplateRenderError{Template: text, Err: err}
	}
	return out, nil
}

// unescaped wraps every string leaf in raymond.SafeString so {{x}} does not
// HTML-escape it.
func unescaped(v any) any {
	switch t := v.(type) {
	case string:
		return raymond.SafeString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = unescaped(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = unescaped(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = unescaped(val)
		}
		return out
	default:
		return v
	}
}
