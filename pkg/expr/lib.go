package expr

import (
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

// severityRanks orders the known rule severities from weakest to strongest.
// Unknown severities rank below everything, so policies comparing ranks
// treat them conservatively.
var severityRanks = map[string]int64{
	"info":     1,
	"warn":     2,
	"warning":  2,
	"error":    3,
	"critical": 4,
}

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// severityRank(string): position of a severity in the escalation
		// order, 0 for unknown values.
		// Example: severityRank(to) >= severityRank(from).
		cel.Function("severityRank",
			cel.Overload("severityRank_string", []*cel.Type{cel.StringType}, cel.IntType,
				cel.UnaryBinding(func(val ref.Val) ref.Val {
					s, ok := val.(types.String)
					if !ok {
						return types.NewErr("severityRank: expected string")
					}

					return types.Int(severityRanks[string(s)])
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return nil
}
