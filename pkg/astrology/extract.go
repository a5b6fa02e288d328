package astrology

import (
	"encoding/json"
	"strconv"
	"strings"
)

// detailedSectionKeys is the field order of the provider's sectioned daily
// prediction.
var detailedSectionKeys = []string{
	"personal_life", "profession", "health", "emotions", "travel", "luck",
}

// sectionExtractor is one strategy for locating the section texts inside a
// provider response. It reports ok=false when the shape does not match so
// the next strategy can be tried.
type sectionExtractor func(raw json.RawMessage) (map[string]string, bool)

// sectionExtractors is tried in order; extractRawPassthrough never fails,
// so an unrecognized payload degrades to passthrough instead of an error.
var sectionExtractors = []sectionExtractor{
	extractTopLevelSections,
	extractNestedPrediction,
}

// ExtractSections reduces a detailed-prediction response to its known text
// sections. Unrecognized shapes come back as {"raw": <original body>} so
// the consumer still receives something inspectable.
func ExtractSections(raw json.RawMessage) map[string]string {
	for _, extract := range sectionExtractors {
		if sections, ok := extract(raw); ok {
			return sections
		}
	}
	return map[string]string{"raw": string(raw)}
}

// extractTopLevelSections handles the documented shape: section texts as
// top-level string fields.
func extractTopLevelSections(raw json.RawMessage) (map[string]string, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	return sectionsFromFields(payload)
}

// extractNestedPrediction handles the variant where sections hide under a
// "prediction" object.
func extractNestedPrediction(raw json.RawMessage) (map[string]string, bool) {
	var payload struct {
		Prediction map[string]json.RawMessage `json:"prediction"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Prediction == nil {
		return nil, false
	}
	return sectionsFromFields(payload.Prediction)
}

func sectionsFromFields(fields map[string]json.RawMessage) (map[string]string, bool) {
	out := make(map[string]string)
	for _, key := range detailedSectionKeys {
		rawValue, present := fields[key]
		if !present {
			continue
		}
		if text, ok := asText(rawValue); ok && text != "" {
			out[key] = text
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// asText accepts a string field or a list of strings (the provider switches
// between the two), joining list entries with a space.
func asText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, " ")), true
	}
	return "", false
}

// NormalizeLunarMetrics fills in distance_km and distance_source. The
// provider sometimes reports distance as "--"; in that case the apogee or
// perigee distance stands in, preferring whichever range the moon is
// currently within.
func NormalizeLunarMetrics(metrics map[string]any) map[string]any {
	if metrics == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(metrics)+2)
	for k, v := range metrics {
		out[k] = v
	}

	distance, ok := toNumber(out["distance"])
	source := "distance"

	if !ok {
		apogee, hasApogee := toNumber(out["apogee_distance"])
		perigee, hasPerigee := toNumber(out["perigee_distance"])
		switch {
		case truthy(out["within_apogee_range"]) && hasApogee:
			distance, ok, source = apogee, true, "apogee_distance"
		case truthy(out["within_perigee_range"]) && hasPerigee:
			distance, ok, source = perigee, true, "perigee_distance"
		case hasApogee:
			distance, ok, source = apogee, true, "apogee_distance/perigee_distance"
		case hasPerigee:
			distance, ok, source = perigee, true, "apogee_distance/perigee_distance"
		}
	}

	if ok {
		out["distance_km"] = distance
		out["distance_source"] = source
	}
	return out
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" || trimmed == "--" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	case float64:
		return b != 0
	default:
		return false
	}
}
