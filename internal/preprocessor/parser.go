package preprocessor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"rgehrsitz/semrex/internal/rules"
)

// Format is the encoding of a rule file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ruleFile is the object form of a rule file. A bare list of rules is
// accepted too.
type ruleFile struct {
	Rules []rules.Rule `json:"rules" yaml:"rules"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported rule file extension %q", filepath.Ext(path))
	}
}

// LoadFile reads, parses and validates a rule file.
func LoadFile(path string) ([]rules.Rule, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	parsed, err := ParseRules(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := ValidateRules(parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// ParseRules decodes rule declarations without validating them.
func ParseRules(data []byte, format Format) ([]rules.Rule, error) {
	log.Debug().Str("format", string(format)).Msg("Started parsing rules...")
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported rule format %q", format)
	}
}

func parseJSON(data []byte) ([]rules.Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var parsed []rules.Rule
		if err := strictJSON(trimmed, &parsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rules JSON: %w", err)
		}
		return parsed, nil
	}
	var file ruleFile
	if err := strictJSON(trimmed, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules JSON: %w", err)
	}
	if file.Rules == nil {
		return nil, rules.ErrMissingRules
	}
	return file.Rules, nil
}

func strictJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseYAML(data []byte) ([]rules.Rule, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, rules.ErrMissingRules
	}
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var parsed []rules.Rule
		if err := doc.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to decode rules YAML: %w", err)
		}
		return parsed, nil
	}
	var file ruleFile
	if err := doc.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode rules YAML: %w", err)
	}
	if file.Rules == nil {
		return nil, rules.ErrMissingRules
	}
	return file.Rules, nil
}

// ValidateRules checks declarations loaded from a file. Files cannot carry
// callables, so every rule must name an event.
func ValidateRules(decls []rules.Rule) error {
	log.Debug().Int("rules", len(decls)).Msg("Started validating rules...")
	for i := range decls {
		if err := validateRule(i, &decls[i]); err != nil {
			return err
		}
	}
	return checkDuplicates(decls)
}

func validateRule(i int, rule *rules.Rule) error {
	if len(rule.Terms) == 0 {
		return fmt.Errorf("rule %d %s must have at least one term", i, quoteName(rule))
	}
	if len(rule.Operators) > len(rule.Terms) {
		return fmt.Errorf("rule %d %s declares %d operators for %d terms", i, quoteName(rule), len(rule.Operators), len(rule.Terms))
	}
	if rule.Event == nil || rule.Event.Type == "" {
		return fmt.Errorf("rule %d %s must define an event type", i, quoteName(rule))
	}
	for _, op := range rule.Operators {
		if op != "" && rules.ParseOperator(op).IsCustom() {
			log.Warn().
				Str("operator", op).
				Strs("supported", rules.SupportedOperators).
				Msgf("Rule %d %s uses a custom operator", i, quoteName(rule))
		}
	}
	return validateTerms(i, rule)
}

func validateTerms(i int, rule *rules.Rule) error {
	for j, t := range rule.Terms {
		if !t.Registrable() {
			return fmt.Errorf("invalid term %d in rule %d %s: %s", j, i, quoteName(rule), t)
		}
		for k := 0; k < j; k++ {
			if rule.Terms[k].Equal(t) {
				return fmt.Errorf("redundant term %s in rule %d %s", t, i, quoteName(rule))
			}
		}
	}
	return nil
}

func quoteName(rule *rules.Rule) string {
	if rule.Name == "" {
		return "(unnamed)"
	}
	return fmt.Sprintf("'%s'", rule.Name)
}
