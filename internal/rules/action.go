package rules

// ActionFunc is the body run when a rule fires. It receives the action
// handle so event handlers can tell which rule they were invoked for.
type ActionFunc func(a *Action)

// Action binds a rule's callable to the metadata a conflict strategy or
// caller needs to identify the rule without re-deriving it.
type Action struct {
	Name      string     `json:"name,omitempty"`
	Index     int        `json:"index"`
	Terms     []Term     `json:"terms"`
	Operators []Operator `json:"operators"`
	Event     Event      `json:"event"`

	fn ActionFunc
}

// NewAction builds an action handle for the rule at index.
func NewAction(fn ActionFunc, index int, rule *Rule) *Action {
	a := &Action{
		Name:      rule.Name,
		Index:     index,
		Terms:     append([]Term(nil), rule.Terms...),
		Operators: make([]Operator, len(rule.Terms)),
		fn:        fn,
	}
	for j := range rule.Terms {
		a.Operators[j] = rule.OperatorAt(j)
	}
	if rule.Event != nil {
		a.Event = rule.Event.Copy()
	}
	return a
}

// Invoke runs the action body. A handle without a body does nothing.
func (a *Action) Invoke() {
	if a.fn != nil {
		a.fn(a)
	}
}

// Bound reports whether the action has a body.
func (a *Action) Bound() bool {
	return a.fn != nil
}

// Bind sets the action body.
func (a *Action) Bind(fn ActionFunc) {
	a.fn = fn
}

// HasEvent reports whether the rule was declared with an event.
func (a *Action) HasEvent() bool {
	return a.Event.Type != ""
}

// Clone copies the handle. The body is shared.
func (a *Action) Clone() *Action {
	c := *a
	c.Terms = append([]Term(nil), a.Terms...)
	c.Operators = append([]Operator(nil), a.Operators...)
	c.Event = a.Event.Copy()
	return &c
}

// Declaration rebuilds the rule declaration this action was compiled from.
func (a *Action) Declaration() Rule {
	r := Rule{
		Name:      a.Name,
		Terms:     append([]Term(nil), a.Terms...),
		Operators: make([]string, len(a.Operators)),
		Action:    a.fn,
	}
	for j, op := range a.Operators {
		r.Operators[j] = op.Token
	}
	if a.HasEvent() {
		ev := a.Event.Copy()
		r.Event = &ev
	}
	return r
}

// Agenda is the ordered list of actions whose rules a query satisfied.
type Agenda []*Action

// Indexes lists the rule index of every entry.
func (ag Agenda) Indexes() []int {
	out := make([]int, len(ag))
	for i, a := range ag {
		out[i] = a.Index
	}
	return out
}

// ConflictStrategy post-processes an agenda in place. It is invoked once per
// query.
type ConflictStrategy func(agenda *Agenda)
