package solver

import (
	"encoding/json"
	"strings"
)

// Plan is the decoded answer to a step-planning request: either
// StructuredSteps or RawFallback.
type Plan interface {
	steps() []string
}

// StructuredSteps is a plan the model returned as {"steps": [...]}.
type StructuredSteps []string

func (s StructuredSteps) steps() []string { return []string(s) }

// RawFallback is a model answer that did not decode as a step list;
// the whole text becomes a single step.
type RawFallback string

func (r RawFallback) steps() []string { return []string{strings.TrimSpace(string(r))} }

type stepsPayload struct {
	Steps []any `json:"steps"`
}

// DecodePlan decodes raw model output. The strict stage unmarshals the whole
// text; the lenient stage strips code fences and surrounding prose and retries
// on the outermost JSON object. At most maxSteps steps are kept.
func DecodePlan(raw string, maxSteps int) Plan {
	if steps, ok := decodeSteps(strings.TrimSpace(raw)); ok {
		return limit(steps, maxSteps)
	}
	if obj, ok := extractObject(raw); ok {
		if steps, ok := decodeSteps(obj); ok {
			return limit(steps, maxSteps)
		}
	}
	return RawFallback(raw)
}

func decodeSteps(text string) ([]string, bool) {
	var p stepsPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, false
	}
	steps := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		switch v := s.(type) {
		case string:
			if t := strings.TrimSpace(v); t != "" {
				steps = append(steps, t)
			}
		case nil:
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			steps = append(steps, string(b))
		}
	}
	return steps, len(steps) > 0
}

func extractObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func limit(steps []string, maxSteps int) StructuredSteps {
	if maxSteps > 0 && len(steps) > maxSteps {
		steps = steps[:maxSteps]
	}
	return StructuredSteps(steps)
}
