// internal/rules/condition.go

package rules

import "fmt"

const (
	OperatorEqual              = "equal"
	OperatorGreaterThan        = "greaterThan"
	OperatorGreaterThanOrEqual = "greaterThanOrEqual"
	OperatorLessThan           = "lessThan"
	OperatorLessThanOrEqual    = "lessThanOrEqual"
)

// Operator codes. Unrecognized tokens are kept verbatim with CodeCustom.
const (
	CodeLessThan           = -2
	CodeLessThanOrEqual    = -1
	CodeEqual              = 0
	CodeGreaterThanOrEqual = 1
	CodeGreaterThan        = 2
	CodeCustom             = 99
)

// SupportedOperators lists the tokens with a known operator code.
var SupportedOperators = []string{
	OperatorEqual,
	OperatorGreaterThan,
	OperatorGreaterThanOrEqual,
	OperatorLessThan,
	OperatorLessThanOrEqual,
}

var operatorCodes = map[string]int{
	OperatorEqual:              CodeEqual,
	OperatorGreaterThanOrEqual: CodeGreaterThanOrEqual,
	OperatorGreaterThan:        CodeGreaterThan,
	OperatorLessThanOrEqual:    CodeLessThanOrEqual,
	OperatorLessThan:           CodeLessThan,
}

// Operator is the comparison attached to a rule condition. The engine stores
// it for the action's use; matching never evaluates it.
type Operator struct {
	Code  int    `json:"code"`
	Token string `json:"token"`
}

// Equal is the operator used when a rule declares none.
var Equal = Operator{Code: CodeEqual, Token: OperatorEqual}

// ParseOperator maps a named operator to its code. Anything else is stored
// verbatim.
func ParseOperator(token string) Operator {
	if code, ok := operatorCodes[token]; ok {
		return Operator{Code: code, Token: token}
	}
	return Operator{Code: CodeCustom, Token: token}
}

// IsCustom reports whether the operator is not one of the named operators.
func (o Operator) IsCustom() bool {
	return o.Code == CodeCustom
}

func (o Operator) String() string {
	if o.IsCustom() {
		return fmt.Sprintf("custom(%s)", o.Token)
	}
	return o.Token
}
