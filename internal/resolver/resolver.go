// Package resolver provides ready-made conflict strategies. None of them is
// applied unless an engine is configured with it.
package resolver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rgehrsitz/semrex/internal/rules"
)

// Reverse flips agenda order.
func Reverse(agenda *rules.Agenda) {
	ag := *agenda
	for i, j := 0, len(ag)-1; i < j; i, j = i+1, j-1 {
		ag[i], ag[j] = ag[j], ag[i]
	}
}

// ByPriority orders the agenda by event priority, highest first. Ties keep
// rule order.
func ByPriority(agenda *rules.Agenda) {
	ag := *agenda
	sort.SliceStable(ag, func(i, j int) bool {
		return ag[i].Event.Priority > ag[j].Event.Priority
	})
}

// First keeps at most n entries.
func First(n int) rules.ConflictStrategy {
	return func(agenda *rules.Agenda) {
		if n >= 0 && len(*agenda) > n {
			*agenda = (*agenda)[:n]
		}
	}
}

// DedupeByEvent keeps the first entry for each event type. Entries without
// an event are always kept.
func DedupeByEvent(agenda *rules.Agenda) {
	seen := make(map[string]bool)
	out := (*agenda)[:0]
	for _, a := range *agenda {
		if a.HasEvent() {
			if seen[a.Event.Type] {
				continue
			}
			seen[a.Event.Type] = true
		}
		out = append(out, a)
	}
	*agenda = out
}

// Chain applies strategies left to right.
func Chain(strategies ...rules.ConflictStrategy) rules.ConflictStrategy {
	return func(agenda *rules.Agenda) {
		for _, s := range strategies {
			if s != nil {
				s(agenda)
			}
		}
	}
}

// Names lists the names accepted by Named.
var Names = []string{"none", "reverse", "priority", "dedupe", "first:<n>"}

// Named parses a comma separated list of strategy names, e.g.
// "priority,dedupe,first:1". "none" or "" yields nil.
func Named(list string) (rules.ConflictStrategy, error) {
	if list == "" || list == "none" {
		return nil, nil
	}
	var chain []rules.ConflictStrategy
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "reverse":
			chain = append(chain, Reverse)
		case name == "priority":
			chain = append(chain, ByPriority)
		case name == "dedupe":
			chain = append(chain, DedupeByEvent)
		case strings.HasPrefix(name, "first:"):
			n, err := strconv.Atoi(strings.TrimPrefix(name, "first:"))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid strategy %q", name)
			}
			chain = append(chain, First(n))
		default:
			return nil, fmt.Errorf("unknown strategy %q: must be one of %v", name, Names)
		}
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return Chain(chain...), nil
}
