package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Kind tells numeric and textual terms apart.
type Kind uint8

const (
	KindNumber Kind = iota
	KindText
)

// Term is an atomic numeric or textual value used as a rule condition or a
// query fact.
type Term struct {
	Kind Kind
	Num  float64
	Text string
}

func Number(n float64) Term { return Term{Kind: KindNumber, Num: n} }

func Text(s string) Term { return Term{Kind: KindText, Text: s} }

// Terms converts plain Go values to terms. It panics on unsupported values
// and is meant for literals in tests and examples.
func Terms(values ...interface{}) []Term {
	terms := make([]Term, 0, len(values))
	for _, v := range values {
		t, err := ParseTerm(v)
		if err != nil {
			panic(err)
		}
		terms = append(terms, t)
	}
	return terms
}

// ParseTerm converts a decoded scalar into a term.
func ParseTerm(v interface{}) (Term, error) {
	switch val := v.(type) {
	case Term:
		return val, nil
	case string:
		return Text(val), nil
	case int:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint:
		return Number(float64(val)), nil
	case uint32:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Term{}, fmt.Errorf("invalid numeric term %q: %w", val.String(), err)
		}
		return Number(f), nil
	default:
		return Term{}, fmt.Errorf("unsupported term type %T", v)
	}
}

// ParseFact reads a command-line style fact: anything that parses as a
// finite number is numeric, everything else (including "inf" and "nan") is
// text.
func ParseFact(s string) Term {
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return Text(s)
}

// Category is 0 for numbers and the length in characters for text.
func (t Term) Category() int {
	if t.Kind == KindNumber {
		return 0
	}
	return utf8.RuneCountInString(t.Text)
}

// Registrable reports whether the term can be stored in a dictionary. The
// empty string would collide with the numeric category, NaN has no order,
// and infinities or invalid UTF-8 cannot be carried by a model file.
func (t Term) Registrable() bool {
	if t.Kind == KindNumber {
		return !math.IsNaN(t.Num) && !math.IsInf(t.Num, 0)
	}
	return t.Text != "" && utf8.ValidString(t.Text)
}

// Compare orders terms of the same kind; numbers sort before text.
func (t Term) Compare(o Term) int {
	if t.Kind != o.Kind {
		if t.Kind == KindNumber {
			return -1
		}
		return 1
	}
	if t.Kind == KindNumber {
		switch {
		case t.Num < o.Num:
			return -1
		case t.Num > o.Num:
			return 1
		}
		return 0
	}
	switch {
	case t.Text < o.Text:
		return -1
	case t.Text > o.Text:
		return 1
	}
	return 0
}

func (t Term) Equal(o Term) bool {
	return t.Kind == o.Kind && t.Compare(o) == 0
}

func (t Term) String() string {
	if t.Kind == KindNumber {
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	}
	return strconv.Quote(t.Text)
}

// Value returns the term as a plain float64 or string.
func (t Term) Value() interface{} {
	if t.Kind == KindNumber {
		return t.Num
	}
	return t.Text
}

func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value())
}

func (t *Term) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	parsed, err := ParseTerm(v)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *Term) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: term must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*t = Number(f)
	case "!!str":
		*t = Text(node.Value)
	default:
		return fmt.Errorf("line %d: unsupported term tag %s", node.Line, node.ShortTag())
	}
	return nil
}

func (t Term) MarshalYAML() (interface{}, error) {
	return t.Value(), nil
}
