package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/policy"
)

func TestCompileRemap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expression string
		wantErr    error
	}{
		{
			name:       "rank comparison",
			expression: `severityRank(to) >= severityRank(from)`,
		},
		{
			name:       "rule field access",
			expression: `rule.id == "style-imports" || to == "info"`,
		},
		{
			name:       "syntax error",
			expression: `from ==`,
			wantErr:    policy.ErrPolicyCompile,
		},
		{
			name:       "unknown variable",
			expression: `severity == "warn"`,
			wantErr:    policy.ErrPolicyCompile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := policy.CompileRemap(tt.expression)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expression, p.Source())
		})
	}
}

func TestRemapPolicy_Allows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rule       map[string]any
		name       string
		expression string
		from       string
		to         string
		want       bool
		wantErr    bool
	}{
		{
			name:       "escalation permitted",
			expression: `severityRank(to) >= severityRank(from)`,
			from:       "warn",
			to:         "error",
			want:       true,
		},
		{
			name:       "downgrade rejected",
			expression: `severityRank(to) >= severityRank(from)`,
			from:       "critical",
			to:         "warn",
			want:       false,
		},
		{
			name:       "warn and warning rank equal",
			expression: `severityRank(to) >= severityRank(from)`,
			from:       "warning",
			to:         "warn",
			want:       true,
		},
		{
			name:       "rule exemption",
			expression: `rule.id.startsWith("experimental-")`,
			rule:       map[string]any{"id": "experimental-lint"},
			from:       "error",
			to:         "info",
			want:       true,
		},
		{
			name:       "nil rule treated as empty map",
			expression: `!("id" in rule)`,
			from:       "warn",
			to:         "warn",
			want:       true,
		},
		{
			name:       "missing rule field errors",
			expression: `rule.id == "x"`,
			from:       "warn",
			to:         "warn",
			wantErr:    true,
		},
		{
			name:       "non-boolean result errors",
			expression: `severityRank(to)`,
			from:       "warn",
			to:         "error",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := policy.CompileRemap(tt.expression)
			require.NoError(t, err)

			allowed, err := p.Allows(tt.rule, tt.from, tt.to)

			if tt.wantErr {
				require.ErrorIs(t, err, policy.ErrPolicyEval)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}
