package preprocessor

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"rgehrsitz/semrex/internal/rules"
)

// checkDuplicates rejects rules that would always fire together with the
// same event: identical term sets, operators and event.
func checkDuplicates(decls []rules.Rule) error {
	seen := make(map[string]int, len(decls))
	for i := range decls {
		key, err := ruleKey(&decls[i])
		if err != nil {
			return err
		}
		if first, found := seen[key]; found {
			return fmt.Errorf("rule %d %s duplicates rule %d", i, quoteName(&decls[i]), first)
		}
		seen[key] = i
	}
	return nil
}

type normalizedCondition struct {
	Term     rules.Term `json:"term"`
	Operator string     `json:"operator"`
}

type normalizedRule struct {
	Conditions []normalizedCondition `json:"conditions"`
	Event      *rules.Event          `json:"event"`
}

// ruleKey generates a key that is equal for rules that differ only in term
// order or name.
func ruleKey(rule *rules.Rule) (string, error) {
	norm := normalizedRule{Event: rule.Event}
	for j, t := range rule.Terms {
		norm.Conditions = append(norm.Conditions, normalizedCondition{Term: t, Operator: rule.OperatorAt(j).Token})
	}
	sortConditions(norm.Conditions)

	serialized, err := json.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("error marshaling rule: %v", err)
	}
	hash := sha256.Sum256(serialized)
	return fmt.Sprintf("%x", hash), nil
}

// sortConditions orders conditions by term, then operator.
func sortConditions(conditions []normalizedCondition) {
	sort.SliceStable(conditions, func(i, j int) bool {
		if c := conditions[i].Term.Compare(conditions[j].Term); c != 0 {
			return c < 0
		}
		return conditions[i].Operator < conditions[j].Operator
	})
}
