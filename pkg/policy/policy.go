// Package policy evaluates severity remap policies against rules.
//
// A remap policy is a CEL expression that decides whether changing a
// rule's severity from one level to another is acceptable. The
// expression sees three variables:
//
//   - rule: the rule's fields as a map (id, heading, severity, ...)
//   - from: the recorded severity
//   - to: the proposed severity
//
// It must evaluate to a boolean. The severityRank helper from
// [github.com/wardenhq/warden/pkg/expr] is available for comparisons
// such as `severityRank(to) >= severityRank(from)`.
package policy

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/wardenhq/warden/pkg/expr"
)

var (
	ErrPolicyCompile = errors.New("compile remap policy")
	ErrPolicyEval    = errors.New("evaluate remap policy")
)

var remapEnv = expr.MustNewEnvironment(
	cel.Variable("rule", cel.MapType(cel.StringType, cel.DynType)),
	cel.Variable("from", cel.StringType),
	cel.Variable("to", cel.StringType),
)

// RemapPolicy is a compiled severity remap policy.
type RemapPolicy struct {
	program cel.Program
	source  string
}

// CompileRemap compiles a CEL allow expression into a [RemapPolicy].
func CompileRemap(expression string) (*RemapPolicy, error) {
	program, err := remapEnv.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPolicyCompile, err)
	}

	return &RemapPolicy{program: program, source: expression}, nil
}

// Source returns the original expression text.
func (p *RemapPolicy) Source() string {
	return p.source
}

// Allows reports whether remapping the given rule's severity from one
// level to another is permitted by the policy. Evaluation errors and
// non-boolean results are rejections with an error.
func (p *RemapPolicy) Allows(rule map[string]any, from, to string) (bool, error) {
	if rule == nil {
		rule = map[string]any{}
	}

	result, _, err := p.program.Eval(map[string]any{
		"rule": rule,
		"from": from,
		"to":   to,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPolicyEval, err)
	}

	allowed, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression returned %T, expected bool", ErrPolicyEval, result.Value())
	}

	return allowed, nil
}
