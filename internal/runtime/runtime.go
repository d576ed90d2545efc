// internal/runtime/runtime.go

package runtime

import (
	"github.com/rs/zerolog/log"

	"rgehrsitz/semrex/internal/compiler"
	"rgehrsitz/semrex/internal/dictionary"
	"rgehrsitz/semrex/internal/rules"
)

// Executor evaluates fact sets against a compiled rule set.
type Executor struct {
	dict     *dictionary.Dictionary
	rules    compiler.RuleSet
	strategy rules.ConflictStrategy
}

// NewExecutor creates an executor. strategy may be nil.
func NewExecutor(dict *dictionary.Dictionary, set compiler.RuleSet, strategy rules.ConflictStrategy) *Executor {
	return &Executor{
		dict:     dict,
		rules:    set,
		strategy: strategy,
	}
}

// Execute returns the actions of every rule whose terms are all present in
// facts, in rule order, after the conflict strategy (if any) has run.
//
// Facts the dictionary does not know are skipped. Repeated facts count once.
// Operators are not evaluated.
func (e *Executor) Execute(facts []rules.Term) (rules.Agenda, error) {
	if facts == nil {
		return nil, rules.ErrMissingState
	}

	ids := e.resolve(facts)
	log.Debug().Int("facts", len(facts)).Int("resolved", len(ids)).Msg("Resolved query facts")

	counts := make([]int, len(e.rules))
	for _, id := range ids {
		for j, r := range e.rules {
			if counts[j] == r.Count {
				continue
			}
			if r.Has(id) {
				counts[j]++
			}
		}
	}

	agenda := rules.Agenda{}
	for j, r := range e.rules {
		if counts[j] == r.Count {
			agenda = append(agenda, r.Action)
		}
	}
	log.Debug().Ints("agenda", agenda.Indexes()).Msg("Built agenda")

	if e.strategy != nil {
		e.strategy(&agenda)
		log.Debug().Ints("agenda", agenda.Indexes()).Msg("Applied conflict strategy")
	}
	return agenda, nil
}

// resolve maps facts to distinct known ids, keeping first-seen order.
func (e *Executor) resolve(facts []rules.Term) []dictionary.TermID {
	ids := make([]dictionary.TermID, 0, len(facts))
	seen := make(map[dictionary.TermID]bool, len(facts))
	for _, f := range facts {
		id, ok := e.dict.Resolve(f)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Fire executes the agenda's actions in order.
func Fire(agenda rules.Agenda) {
	for _, a := range agenda {
		log.Debug().Int("rule", a.Index).Str("event", a.Event.Type).Msg("Firing action")
		a.Invoke()
	}
}
