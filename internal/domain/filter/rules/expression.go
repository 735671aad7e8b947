package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// Expression matches records for which a CEL predicate over the raw document,
// bound as "record", evaluates to true:
//
//	record.gender == 1 && record.primary_name.first_name.startsWith("Ro")
type Expression struct {
	Base
	prg cel.Program
}

var (
	celEnvOnce sync.Once
	celEnv     *cel.Env
	celEnvErr  error
)

func expressionEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// NewExpression compiles the CEL expression in the first argument.
func NewExpression(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 || args.Values[0] == "" {
		return nil, apperror.NewInvalidRuleArgs("Expression", "an expression is required")
	}
	b, err := newBase("Expression", Args{Values: args.Values, Kind: args.Kind})
	if err != nil {
		return nil, err
	}

	env, err := expressionEnv()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	ast, iss := env.Compile(b.value(0))
	if iss.Err() != nil {
		return nil, apperror.NewInvalidRuleArgs("Expression", iss.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperror.NewInvalidRuleArgs("Expression",
			fmt.Sprintf("expression must be boolean, got %s", ast.OutputType()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, apperror.NewInvalidRuleArgs("Expression", err.Error())
	}
	return &Expression{Base: b, prg: prg}, nil
}

func (r *Expression) ApplyToOne(ctx context.Context, _ record.Database, data record.Data) (bool, error) {
	out, _, err := r.prg.ContextEval(ctx, map[string]any{"record": map[string]any(data)})
	if err != nil {
		return false, fmt.Errorf("evaluate %q on %s: %w", r.value(0), data.Handle(), err)
	}
	ok, _ := out.Value().(bool)
	return ok, nil
}
