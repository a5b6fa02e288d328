package rewrite

import (
	"encoding/json"
	"strings"

	"github.com/coachastral/astro-daily/pkg/upstream"
)

// Field is one labeled source-text segment handed to the model.
type Field struct {
	Label string
	Text  string
}

// JoinFields concatenates the non-empty fields in their given order,
// label-prefixed and separated by a blank line. This is the documented join
// rule for multi-field sources: field order is fixed by the caller, empty
// fields are dropped.
func JoinFields(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		if f.Label != "" {
			parts = append(parts, f.Label+":\n"+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ParseStructured decodes a model response that was asked to return a JSON
// object with exactly the given keys. If the content carries extra prose
// around the object, the outermost brace pair is isolated and parsed.
// Anything else is a malformed-response fault, never coerced into data.
func ParseStructured(content string, keys []string) (map[string]string, error) {
	var decoded map[string]string
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end <= start {
			return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, "parse_structured", err)
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &decoded); err != nil {
			return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, "parse_structured", err)
		}
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[key] = strings.TrimSpace(decoded[key])
	}
	return out, nil
}
