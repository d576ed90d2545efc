// Package engine is the entry point of the rule engine: it owns one term
// dictionary and one compiled rule set, registers rules and runs queries.
//
// An Engine is not safe for concurrent use. To query from several
// goroutines, build one engine per goroutine from a shared Snapshot.
package engine

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rgehrsitz/semrex/internal/compiler"
	"rgehrsitz/semrex/internal/dictionary"
	"rgehrsitz/semrex/internal/rules"
	"rgehrsitz/semrex/internal/runtime"
)

// Snapshot is a pre-compiled dictionary and rule set.
type Snapshot = compiler.Model

// Model is a full registration: rules plus optional strategy and handler,
// or a pre-compiled snapshot to adopt as is.
type Model struct {
	Rules            []rules.Rule
	ConflictStrategy rules.ConflictStrategy
	EventHandler     rules.ActionFunc
	// Precompiled replaces the engine's terms and rules without
	// recompilation when it holds at least one rule.
	Precompiled *Snapshot
}

type Engine struct {
	id     string
	logger zerolog.Logger

	dict             *dictionary.Dictionary
	rules            compiler.RuleSet
	conflictStrategy rules.ConflictStrategy
	eventHandler     rules.ActionFunc
}

func New() *Engine {
	id := uuid.NewString()
	return &Engine{
		id:     id,
		logger: log.With().Str("engine", id).Logger(),
		dict:   dictionary.New(),
	}
}

// ID identifies the engine instance in logs.
func (e *Engine) ID() string { return e.id }

// Len is the number of compiled rules.
func (e *Engine) Len() int { return len(e.rules) }

// AddDataModel registers a model. On error the engine is left as it was.
func (e *Engine) AddDataModel(m Model) error {
	prevStrategy, prevHandler := e.conflictStrategy, e.eventHandler
	if m.ConflictStrategy != nil {
		e.conflictStrategy = m.ConflictStrategy
	}
	if m.EventHandler != nil {
		e.eventHandler = m.EventHandler
	}

	var err error
	if m.Precompiled != nil && len(m.Precompiled.Rules) > 0 {
		err = e.adopt(m.Precompiled)
	} else {
		err = e.AddRules(m.Rules)
	}
	if err != nil {
		e.conflictStrategy, e.eventHandler = prevStrategy, prevHandler
		return err
	}
	return nil
}

// AddRules compiles a batch of declarations and appends it to the rule set.
//
// The batch is compiled against a copy of the dictionary. If it brings new
// terms, the rules already registered are recompiled against the grown
// dictionary, since new terms can shift the positions baked into them.
// Nothing is committed unless every step succeeds.
func (e *Engine) AddRules(decls []rules.Rule) error {
	if decls == nil {
		return rules.ErrMissingRules
	}

	dict := e.dict.Clone()
	c := compiler.NewCompiler(dict, compiler.WithEventHandler(e.eventHandler))
	batch, err := c.Compile(decls, len(e.rules))
	if err != nil {
		e.logger.Debug().Err(err).Msg("Rejected rule batch")
		return err
	}

	prior := e.rules
	if dict.Len() != e.dict.Len() && len(prior) > 0 {
		if prior, err = c.Recompile(prior); err != nil {
			return err
		}
	}

	set := make(compiler.RuleSet, 0, len(prior)+len(batch))
	set = append(set, prior...)
	set = append(set, batch...)
	e.dict, e.rules = dict, set
	e.logger.Debug().Int("added", len(batch)).Int("rules", len(set)).Int("terms", dict.Len()).Msg("Registered rules")
	return nil
}

func (e *Engine) adopt(snap *Snapshot) error {
	dict, err := snap.Dictionary()
	if err != nil {
		return err
	}
	set := snap.Rules.Clone()
	unbound := 0
	for _, r := range set {
		if r.Action.Bound() {
			continue
		}
		if r.Action.HasEvent() && e.eventHandler != nil {
			r.Action.Bind(e.eventHandler)
			continue
		}
		unbound++
	}
	if unbound > 0 {
		e.logger.Warn().Int("unbound", unbound).Msg("Adopted rules without an action body")
	}
	e.dict, e.rules = dict, set
	e.logger.Debug().Int("rules", len(set)).Int("terms", dict.Len()).Msg("Adopted pre-compiled model")
	return nil
}

// AddConflictStrategy sets the strategy applied to every agenda. nil clears
// it.
func (e *Engine) AddConflictStrategy(fn rules.ConflictStrategy) {
	e.conflictStrategy = fn
}

// AddEventHandler sets the body for rules declared with an event. It applies
// to rules registered afterwards.
func (e *Engine) AddEventHandler(fn rules.ActionFunc) {
	e.eventHandler = fn
}

// ExecuteQuery evaluates facts against all rules. A nil facts slice is a
// usage error; unknown facts are ignored.
func (e *Engine) ExecuteQuery(facts []rules.Term) (rules.Agenda, error) {
	return runtime.NewExecutor(e.dict, e.rules, e.conflictStrategy).Execute(facts)
}

// TermID resolves a term, returning dictionary.NoTermID if it is unknown.
func (e *Engine) TermID(term rules.Term) dictionary.TermID {
	id, _ := e.dict.Resolve(term)
	return id
}

// IsEqualTermID compares two ids; unknown ids are never equal.
func (e *Engine) IsEqualTermID(a, b dictionary.TermID) bool {
	return dictionary.EqualIDs(a, b)
}

// Categories lists the dictionary's non-empty categories.
func (e *Engine) Categories() []int {
	return e.dict.Categories()
}

// Terms is the number of registered terms.
func (e *Engine) Terms() int {
	return e.dict.Len()
}

// Term reverses TermID.
func (e *Engine) Term(id dictionary.TermID) (rules.Term, bool) {
	return e.dict.Term(id)
}

// Snapshot exports the compiled state for adoption by other engines.
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Terms: e.dict.Snapshot(),
		Rules: e.rules.Clone(),
	}
}
