package listener

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Predicate_Matches(t *testing.T) {
	payload := json.RawMessage(`{
		"jobId": "job-42",
		"status": "SUCCEEDED",
		"detail": {"attempts": 3, "final": true}
	}`)

	event := &Event{
		ID:      "evt-1",
		Source:  "thirdparty.jobs",
		Type:    "JobCompleted",
		Payload: payload,
	}

	tests := []struct {
		name      string
		predicate Predicate
		want      bool
	}{
		{
			name:      "EmptyPredicateMatchesEverything",
			predicate: Predicate{},
			want:      true,
		},
		{
			name:      "SourceEquality",
			predicate: Predicate{Source: "thirdparty.jobs"},
			want:      true,
		},
		{
			name:      "SourceMismatch",
			predicate: Predicate{Source: "other.system"},
			want:      false,
		},
		{
			name:      "TypeMembership",
			predicate: Predicate{Types: []string{"JobFailed", "JobCompleted"}},
			want:      true,
		},
		{
			name:      "TypeNotInSet",
			predicate: Predicate{Types: []string{"JobFailed"}},
			want:      false,
		},
		{
			name:      "FieldConstraint",
			predicate: Predicate{Fields: map[string]any{"status": "SUCCEEDED"}},
			want:      true,
		},
		{
			name:      "FieldConstraintMismatch",
			predicate: Predicate{Fields: map[string]any{"status": "FAILED"}},
			want:      false,
		},
		{
			name:      "NestedFieldConstraint",
			predicate: Predicate{Fields: map[string]any{"detail.final": true}},
			want:      true,
		},
		{
			name:      "NumericFieldConstraint",
			predicate: Predicate{Fields: map[string]any{"detail.attempts": 3}},
			want:      true,
		},
		{
			name:      "MissingField",
			predicate: Predicate{Fields: map[string]any{"detail.missing": "x"}},
			want:      false,
		},
		{
			name: "Conjunction",
			predicate: Predicate{
				Source: "thirdparty.jobs",
				Types:  []string{"JobCompleted"},
				Fields: map[string]any{"status": "SUCCEEDED"},
			},
			want: true,
		},
		{
			name: "ConjunctionFailsOnOnePart",
			predicate: Predicate{
				Source: "thirdparty.jobs",
				Types:  []string{"JobCompleted"},
				Fields: map[string]any{"status": "FAILED"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.predicate.Matches(event))
		})
	}
}

func Test_Predicate_MatchesInvalidPayload(t *testing.T) {
	event := &Event{
		Source:  "thirdparty.jobs",
		Type:    "JobCompleted",
		Payload: json.RawMessage(`not json`),
	}

	// Field constraints cannot match an undecodable payload
	p := Predicate{Fields: map[string]any{"status": "SUCCEEDED"}}
	require.False(t, p.Matches(event))

	// Source and type still can
	p = Predicate{Source: "thirdparty.jobs"}
	require.True(t, p.Matches(event))
}

func Test_Predicate_Validate(t *testing.T) {
	p := Predicate{Fields: map[string]any{"detail.status": "SUCCEEDED"}}
	require.NoError(t, p.Validate())

	p = Predicate{Fields: map[string]any{"": "x"}}
	require.Error(t, p.Validate())

	p = Predicate{Fields: map[string]any{"detail..status": "x"}}
	require.Error(t, p.Validate())
}

func Test_FieldValue(t *testing.T) {
	payload, err := decodePayload(json.RawMessage(`{"a": {"b": {"c": "v"}}}`))
	require.NoError(t, err)

	v, ok := fieldValue(payload, "a.b.c")
	require.True(t, ok)
	require.Equal(t, "v", v)

	_, ok = fieldValue(payload, "a.b.c.d")
	require.False(t, ok)

	_, ok = fieldValue(payload, "a.x")
	require.False(t, ok)
}
