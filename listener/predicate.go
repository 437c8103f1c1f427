package listener

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Predicate is the declarative filter applied to inbound events. All
// configured parts must match. It is supplied wholesale by the integrator
// and not interpreted beyond structural checks.
type Predicate struct {
	// Source must equal the event source. Empty matches any source.
	Source string

	// Types is the set of accepted event types. Empty matches any type.
	Types []string

	// Fields constrains payload values by dot-separated field path, e.g.
	// "detail.status": "SUCCEEDED".
	Fields map[string]any
}

// Validate checks the predicate for structural well-formedness.
func (p *Predicate) Validate() error {
	for path := range p.Fields {
		if !validFieldPath(path) {
			return fmt.Errorf("invalid field path %q", path)
		}
	}

	return nil
}

// Matches reports whether the event satisfies the predicate.
func (p *Predicate) Matches(event *Event) bool {
	if p.Source != "" && event.Source != p.Source {
		return false
	}

	if len(p.Types) > 0 && !slices.Contains(p.Types, event.Type) {
		return false
	}

	if len(p.Fields) > 0 {
		payload, err := decodePayload(event.Payload)
		if err != nil {
			return false
		}

		for path, want := range p.Fields {
			got, ok := fieldValue(payload, path)
			if !ok || !valueEqual(got, want) {
				return false
			}
		}
	}

	return true
}

func validFieldPath(path string) bool {
	if path == "" {
		return false
	}

	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return false
		}
	}

	return true
}

func decodePayload(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// fieldValue resolves a dot-separated path within a decoded payload.
func fieldValue(payload map[string]any, path string) (any, bool) {
	var current any = payload

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func valueEqual(got, want any) bool {
	// JSON numbers decode to float64
	switch w := want.(type) {
	case int:
		f, ok := got.(float64)
		return ok && f == float64(w)
	case int64:
		f, ok := got.(float64)
		return ok && f == float64(w)
	case float64:
		f, ok := got.(float64)
		return ok && f == w
	default:
		return got == want
	}
}
