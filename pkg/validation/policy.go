package validation

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/ext"
	"go.uber.org/multierr"
)

// Policy tunes the advisory rules of the validator.
type Policy struct {
	// DefaultLocation is assumed when the graph names neither a location nor a region.
	DefaultLocation string `mapstructure:"defaultLocation" yaml:"defaultLocation"`
	// MinStorageNameLength is the length below which storage account names are considered
	// likely to be taken.
	MinStorageNameLength  int      `mapstructure:"minStorageNameLength" yaml:"minStorageNameLength"`
	MaxFunctionNameLength int      `mapstructure:"maxFunctionNameLength" yaml:"maxFunctionNameLength"`
	CommonStorageNames    []string `mapstructure:"commonStorageNames" yaml:"commonStorageNames"`
	BlockedRegions        []string `mapstructure:"blockedRegions" yaml:"blockedRegions"`
	SuggestedRegions      []string `mapstructure:"suggestedRegions" yaml:"suggestedRegions"`
	// Escalate holds CEL expressions over warning, kind, project and env. A warning for which any
	// expression evaluates to true is reported as an error.
	Escalate []string `mapstructure:"escalate" yaml:"escalate"`
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultLocation:       "westeurope",
		MinStorageNameLength:  8,
		MaxFunctionNameLength: 60,
		CommonStorageNames: []string{
			"test", "storage", "mystorage", "teststorage", "stor", "data",
			"files", "blob", "container", "backup", "archive",
		},
		BlockedRegions:   []string{"westeurope"},
		SuggestedRegions: []string{"eastus", "westus2", "southeastasia", "centralus"},
	}
}

type escalation struct {
	expr string
	prg  cel.Program
}

func escalationEnv() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		cel.Variable("warning", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("project", cel.StringType),
		cel.Variable("env", cel.StringType),
	)
}

// compileEscalations type-checks every expression, reporting all invalid ones at once.
func compileEscalations(exprs []string) ([]escalation, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	env, err := escalationEnv()
	if err != nil {
		return nil, err
	}
	var (
		rules []escalation
		errs  error
	)
	for _, expr := range exprs {
		ast, iss := env.Compile(expr)
		if iss.Err() != nil {
			errs = multierr.Append(errs, fmt.Errorf("escalation %q: %w", expr, iss.Err()))
			continue
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			errs = multierr.Append(errs, fmt.Errorf("escalation %q must evaluate to a bool, not %s", expr, ast.OutputType()))
			continue
		}
		prg, err := env.Program(ast)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("escalation %q: %w", expr, err))
			continue
		}
		rules = append(rules, escalation{expr: expr, prg: prg})
	}
	return rules, errs
}

// matches reports whether the rule escalates the warning. Evaluation failures never escalate.
func (e escalation) matches(vars map[string]any) (bool, error) {
	out, _, err := e.prg.Eval(vars)
	if err != nil {
		return false, err
	}
	return out == types.True, nil
}
