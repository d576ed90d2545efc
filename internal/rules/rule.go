// internal/rules/rule.go

package rules

// Rule is a declaration: a conjunction of terms bound to either an action or
// an event that the engine's event handler dispatches.
type Rule struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Terms must all be present in a query for the rule to fire.
	Terms []Term `json:"terms" yaml:"terms"`
	// Operators is positionally aligned with Terms and may be shorter.
	Operators []string   `json:"operators,omitempty" yaml:"operators,omitempty"`
	Event     *Event     `json:"event,omitempty" yaml:"event,omitempty"`
	Action    ActionFunc `json:"-" yaml:"-"`
}

// OperatorAt returns the operator declared for the j-th term, or Equal.
func (r *Rule) OperatorAt(j int) Operator {
	if j < len(r.Operators) && r.Operators[j] != "" {
		return ParseOperator(r.Operators[j])
	}
	return Equal
}

type Event struct {
	Type       string                 `json:"type" yaml:"type"`
	Priority   int                    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Copy returns a deep enough copy for sharing between engine instances.
func (e Event) Copy() Event {
	if e.Properties == nil {
		return e
	}
	props := make(map[string]interface{}, len(e.Properties))
	for k, v := range e.Properties {
		props[k] = v
	}
	e.Properties = props
	return e
}
