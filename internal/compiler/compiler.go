// internal/compiler/compiler.go

package compiler

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"rgehrsitz/semrex/internal/dictionary"
	"rgehrsitz/semrex/internal/rules"
)

// Compiler turns rule declarations into compiled rules against a term
// dictionary.
type Compiler struct {
	dict         *dictionary.Dictionary
	eventHandler rules.ActionFunc
}

type Option func(*Compiler)

// WithEventHandler sets the body used for rules declared with an event.
func WithEventHandler(fn rules.ActionFunc) Option {
	return func(c *Compiler) {
		c.eventHandler = fn
	}
}

// NewCompiler creates a compiler that registers terms in dict.
func NewCompiler(dict *dictionary.Dictionary, opts ...Option) *Compiler {
	c := &Compiler{dict: dict}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles a batch of declarations. Rule indexes start at offset.
//
// Every declaration is validated before the dictionary is touched, so a
// rejected batch leaves no terms behind. Terms of the whole batch are then
// inserted before any rule is compiled, which keeps ids stable within the
// batch.
func (c *Compiler) Compile(decls []rules.Rule, offset int) (RuleSet, error) {
	if decls == nil {
		return nil, rules.ErrMissingRules
	}

	bodies := make([]rules.ActionFunc, len(decls))
	for i := range decls {
		fn, err := c.validate(i, &decls[i])
		if err != nil {
			return nil, err
		}
		bodies[i] = fn
	}

	inserted := 0
	for i := range decls {
		for _, t := range decls[i].Terms {
			if c.dict.Insert(t) {
				inserted++
			}
		}
	}
	log.Debug().Int("rules", len(decls)).Int("newTerms", inserted).Msg("Registered batch terms")

	set := make(RuleSet, 0, len(decls))
	for i := range decls {
		action := rules.NewAction(bodies[i], offset+i, &decls[i])
		r, err := c.compileRule(&decls[i], action)
		if err != nil {
			return nil, &rules.DeclarationError{Index: i, Name: decls[i].Name, Reason: err.Error()}
		}
		set = append(set, r)
	}
	return set, nil
}

// Recompile re-resolves every rule of set against the current dictionary.
// Actions are carried over unchanged.
func (c *Compiler) Recompile(set RuleSet) (RuleSet, error) {
	out := make(RuleSet, 0, len(set))
	for i, prev := range set {
		decl := prev.Action.Declaration()
		r, err := c.compileRule(&decl, prev.Action)
		if err != nil {
			return nil, fmt.Errorf("recompiling rule %d: %w", i, err)
		}
		out = append(out, r)
	}
	log.Debug().Int("rules", len(out)).Msg("Recompiled rule set")
	return out, nil
}

func (c *Compiler) validate(i int, decl *rules.Rule) (rules.ActionFunc, error) {
	for j, t := range decl.Terms {
		if !t.Registrable() {
			return nil, &rules.DeclarationError{
				Index:  i,
				Name:   decl.Name,
				Reason: fmt.Sprintf("term %d (%s) cannot be registered", j, t),
			}
		}
	}
	if len(decl.Operators) > len(decl.Terms) {
		return nil, &rules.DeclarationError{
			Index:  i,
			Name:   decl.Name,
			Reason: fmt.Sprintf("%d operators declared for %d terms", len(decl.Operators), len(decl.Terms)),
		}
	}

	if decl.Action != nil {
		return decl.Action, nil
	}
	if decl.Event != nil && c.eventHandler != nil {
		return c.eventHandler, nil
	}
	return nil, &rules.DeclarationError{
		Index:  i,
		Name:   decl.Name,
		Reason: "all rules require either 'action' or 'event' to be defined (an 'event' also needs an event handler)",
	}
}

// compileRule resolves each term, attaches its operator and places it in the
// slot index. Repeated terms collapse to the first occurrence.
func (c *Compiler) compileRule(decl *rules.Rule, action *rules.Action) (*CompiledRule, error) {
	conds := make([]Condition, 0, len(decl.Terms))
	seen := make(map[dictionary.TermID]bool, len(decl.Terms))
	for j, t := range decl.Terms {
		id, ok := c.dict.Resolve(t)
		if !ok {
			return nil, fmt.Errorf("term %s is not registered", t)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		conds = append(conds, Condition{ID: id, Operator: decl.OperatorAt(j)})
	}

	r := newCompiledRule(conds, action)
	log.Debug().
		Int("rule", action.Index).
		Int("conditions", r.Count).
		Int("maxCategory", r.MaxCategory()).
		Msg("Compiled rule")
	return r, nil
}
