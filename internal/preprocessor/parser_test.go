package preprocessor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/semrex/internal/rules"
)

func TestParseRules_ValidJSONList(t *testing.T) {
	validRulesJSON := `[
        {
            "name": "greeting",
            "terms": [1, "ab"],
            "event": {"type": "greet"}
        }
    ]`
	parsed, err := ParseRules([]byte(validRulesJSON), FormatJSON)
	require.NoError(t, err, "Unexpected error")
	require.Len(t, parsed, 1)
	assert.Equal(t, "greeting", parsed[0].Name)
	assert.Equal(t, rules.Terms(1, "ab"), parsed[0].Terms)
	require.NotNil(t, parsed[0].Event)
	assert.Equal(t, "greet", parsed[0].Event.Type)
}

func TestParseRules_ValidJSONObject(t *testing.T) {
	validRulesJSON := `{
        "rules": [
            {
                "terms": ["temperature", 30.5],
                "operators": ["equal", "greaterThan"],
                "event": {"type": "hot", "priority": 2, "properties": {"zone": "north"}}
            }
        ]
    }`
	parsed, err := ParseRules([]byte(validRulesJSON), FormatJSON)
	require.NoError(t, err, "Unexpected error")
	require.Len(t, parsed, 1)
	assert.Equal(t, rules.Terms("temperature", 30.5), parsed[0].Terms)
	assert.Equal(t, []string{"equal", "greaterThan"}, parsed[0].Operators)
	assert.Equal(t, 2, parsed[0].Event.Priority)
	assert.Equal(t, "north", parsed[0].Event.Properties["zone"])
}

func TestParseRules_JSONUnknownField(t *testing.T) {
	invalidRulesJSON := `[{"terms": ["a"], "conditions": {}, "event": {"type": "x"}}]`
	_, err := ParseRules([]byte(invalidRulesJSON), FormatJSON)
	assert.Error(t, err, "Expected an error due to unknown field")
}

func TestParseRules_JSONNonScalarTerm(t *testing.T) {
	invalidRulesJSON := `[{"terms": [{"fact": "age"}], "event": {"type": "x"}}]`
	_, err := ParseRules([]byte(invalidRulesJSON), FormatJSON)
	assert.Error(t, err, "Expected an error due to object term")
}

func TestParseRules_JSONMissingRules(t *testing.T) {
	_, err := ParseRules([]byte(`{}`), FormatJSON)
	assert.ErrorIs(t, err, rules.ErrMissingRules)
}

func TestParseRules_ValidYAML(t *testing.T) {
	validRulesYAML := `
rules:
  - name: weekend
    terms: [saturday, 6]
    operators: [equal]
    event:
      type: relax
      priority: 1
  - terms: ["42", 7.25]
    event:
      type: quoted
`
	parsed, err := ParseRules([]byte(validRulesYAML), FormatYAML)
	require.NoError(t, err, "Unexpected error")
	require.Len(t, parsed, 2)
	assert.Equal(t, rules.Terms("saturday", 6), parsed[0].Terms)
	assert.Equal(t, "relax", parsed[0].Event.Type)
	// A quoted number stays text.
	assert.Equal(t, rules.Terms("42", 7.25), parsed[1].Terms)
}

func TestParseRules_YAMLList(t *testing.T) {
	parsed, err := ParseRules([]byte("- terms: [x]\n  event: {type: e}\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, rules.Terms("x"), parsed[0].Terms)
}

func TestParseRules_YAMLNestedTerm(t *testing.T) {
	_, err := ParseRules([]byte("- terms: [[1, 2]]\n  event: {type: e}\n"), FormatYAML)
	assert.Error(t, err, "Expected an error due to a sequence term")
}

func TestParseRules_UnsupportedFormat(t *testing.T) {
	_, err := ParseRules([]byte(`[]`), Format("toml"))
	assert.Error(t, err)
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []rules.Rule
		wantErr string
	}{
		{
			name:  "valid",
			rules: []rules.Rule{{Terms: rules.Terms("a", 1), Event: &rules.Event{Type: "e"}}},
		},
		{
			name:    "no terms",
			rules:   []rules.Rule{{Name: "empty", Event: &rules.Event{Type: "e"}}},
			wantErr: "rule 0 'empty' must have at least one term",
		},
		{
			name:    "no event",
			rules:   []rules.Rule{{Terms: rules.Terms("a")}},
			wantErr: "must define an event type",
		},
		{
			name:    "too many operators",
			rules:   []rules.Rule{{Terms: rules.Terms("a"), Operators: []string{"equal", "lessThan"}, Event: &rules.Event{Type: "e"}}},
			wantErr: "declares 2 operators for 1 terms",
		},
		{
			name:    "empty string term",
			rules:   []rules.Rule{{Terms: rules.Terms(""), Event: &rules.Event{Type: "e"}}},
			wantErr: "invalid term 0",
		},
		{
			name:    "redundant term",
			rules:   []rules.Rule{{Name: "twice", Terms: rules.Terms("a", 1, "a"), Event: &rules.Event{Type: "e"}}},
			wantErr: `redundant term "a" in rule 0 'twice'`,
		},
		{
			name: "duplicate rule in a different term order",
			rules: []rules.Rule{
				{Terms: rules.Terms("a", 1), Event: &rules.Event{Type: "e"}},
				{Terms: rules.Terms(1, "a"), Event: &rules.Event{Type: "e"}},
			},
			wantErr: "rule 1 (unnamed) duplicates rule 0",
		},
		{
			name: "same terms with different events",
			rules: []rules.Rule{
				{Terms: rules.Terms("a", 1), Event: &rules.Event{Type: "e"}},
				{Terms: rules.Terms("a", 1), Event: &rules.Event{Type: "f"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRules(tt.rules)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRules_InfiniteTermRejected(t *testing.T) {
	decls, err := ParseRules([]byte(`
rules:
  - name: unbounded
    terms: [.inf]
    event:
      type: e
`), FormatYAML)
	require.NoError(t, err)
	err = ValidateRules(decls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid term 0 in rule 0 'unbounded'")

	// Quoted, the same words are plain text terms.
	decls, err = ParseRules([]byte(`[{"terms": ["inf", "nan"], "event": {"type": "e"}}]`), FormatJSON)
	require.NoError(t, err)
	require.NoError(t, ValidateRules(decls))
	assert.Equal(t, rules.Terms("inf", "nan"), decls[0].Terms)
}

func TestValidateRules_WarnsOnCustomOperator(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	err := ValidateRules([]rules.Rule{{
		Name:      "near",
		Terms:     rules.Terms("a", "b"),
		Operators: []string{"equal", "approx"},
		Event:     &rules.Event{Type: "e"},
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"operator":"approx"`)
	assert.Contains(t, buf.String(), `"supported":["equal"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"level":"warn"`)))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - terms: [x, y]\n    event: {type: pair}\n"), 0644))

	parsed, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "pair", parsed[0].Event.Type)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "rules.txt"))
	assert.Error(t, err, "Expected an error due to unsupported extension")

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err, "Expected an error due to missing file")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"terms": ["a"]}]`), 0644))
	_, err = LoadFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid.json")
}
