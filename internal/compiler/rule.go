// internal/compiler/rule.go

package compiler

import (
	"encoding/json"
	"fmt"

	"rgehrsitz/semrex/internal/dictionary"
	"rgehrsitz/semrex/internal/rules"
)

// Condition is one resolved rule term with its operator.
type Condition struct {
	ID       dictionary.TermID `json:"id"`
	Operator rules.Operator    `json:"operator"`
}

// CompiledRule holds a rule's distinct conditions indexed by
// [category][position] so membership of a fact id is a bounds check and a
// lookup.
type CompiledRule struct {
	Conditions []Condition   `json:"conditions"`
	Count      int           `json:"count"`
	Action     *rules.Action `json:"action"`

	slots [][]bool
}

// RuleSet is the ordered sequence of compiled rules. A rule's position is its
// rule index and the tie-break order of the agenda.
type RuleSet []*CompiledRule

func newCompiledRule(conds []Condition, action *rules.Action) *CompiledRule {
	r := &CompiledRule{Conditions: conds, Count: len(conds), Action: action}
	r.buildIndex()
	return r
}

func (r *CompiledRule) buildIndex() {
	maxCategory := -1
	for _, c := range r.Conditions {
		if c.ID.Category > maxCategory {
			maxCategory = c.ID.Category
		}
	}
	r.slots = make([][]bool, maxCategory+1)

	width := make([]int, maxCategory+1)
	for _, c := range r.Conditions {
		if c.ID.Position+1 > width[c.ID.Category] {
			width[c.ID.Category] = c.ID.Position + 1
		}
	}
	for cat, w := range width {
		if w > 0 {
			r.slots[cat] = make([]bool, w)
		}
	}
	for _, c := range r.Conditions {
		r.slots[c.ID.Category][c.ID.Position] = true
	}
}

// Has reports whether the rule has a condition at id.
func (r *CompiledRule) Has(id dictionary.TermID) bool {
	if !id.Valid() || id.Category >= len(r.slots) {
		return false
	}
	group := r.slots[id.Category]
	return id.Position < len(group) && group[id.Position]
}

// MaxCategory is the highest category any condition occupies, or -1.
func (r *CompiledRule) MaxCategory() int {
	return len(r.slots) - 1
}

// Clone returns a copy that shares nothing mutable with r except the action
// body.
func (r *CompiledRule) Clone() *CompiledRule {
	return newCompiledRule(append([]Condition(nil), r.Conditions...), r.Action.Clone())
}

func (r *CompiledRule) UnmarshalJSON(data []byte) error {
	type plain CompiledRule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = CompiledRule(p)
	if r.Action == nil {
		return fmt.Errorf("compiled rule has no action")
	}
	if r.Count != len(r.Conditions) {
		return fmt.Errorf("rule %d: count %d does not match %d conditions", r.Action.Index, r.Count, len(r.Conditions))
	}
	for _, c := range r.Conditions {
		if !c.ID.Valid() {
			return fmt.Errorf("rule %d: invalid term id %+v", r.Action.Index, c.ID)
		}
	}
	r.buildIndex()
	return nil
}

// Clone copies every rule in the set.
func (s RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(s))
	for i, r := range s {
		out[i] = r.Clone()
	}
	return out
}

// Verify checks that every condition of every rule still names a term in
// dict and that rule indexes follow set order.
func (s RuleSet) Verify(dict *dictionary.Dictionary) error {
	for i, r := range s {
		if r.Action == nil {
			return fmt.Errorf("rule %d has no action", i)
		}
		if r.Action.Index != i {
			return fmt.Errorf("rule at position %d carries index %d", i, r.Action.Index)
		}
		for _, c := range r.Conditions {
			if _, ok := dict.Term(c.ID); !ok {
				return fmt.Errorf("rule %d references unknown term id %+v", i, c.ID)
			}
		}
	}
	return nil
}
