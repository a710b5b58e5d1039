// Package plot compiles single-variable expressions and samples them over a
// visible x-range.
package plot

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var ErrEmptyExpression = errors.New("empty expression")

// env is the evaluation environment. Only x changes between samples.
type env struct {
	X  float64 `expr:"x"`
	Pi float64 `expr:"pi"`
	E  float64 `expr:"e"`
}

// Function is a compiled expression in x.
type Function struct {
	Source  string
	program *vm.Program
}

// Compile parses and type-checks an expression such as "sin(x) + x^2".
func Compile(source string) (*Function, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, ErrEmptyExpression
	}

	opts := append([]expr.Option{expr.Env(env{}), expr.AsFloat64()}, mathFunctions()...)
	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	return &Function{Source: source, program: program}, nil
}

// Eval evaluates the function at x. ok is false for evaluation errors and
// for results that are NaN or infinite.
func (f *Function) Eval(x float64) (y float64, ok bool) {
	out, err := expr.Run(f.program, env{X: x, Pi: math.Pi, E: math.E})
	if err != nil {
		return 0, false
	}
	y, isFloat := out.(float64)
	if !isFloat || math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, false
	}
	return y, true
}

// IsTrig reports whether extremum markers apply to the expression. It is a
// textual check, matching "sin" or "cos" anywhere, case-insensitively.
func IsTrig(source string) bool {
	s := strings.ToLower(source)
	return strings.Contains(s, "sin") || strings.Contains(s, "cos")
}

func mathFunctions() []expr.Option {
	unary := map[string]func(float64) float64{
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"exp":   math.Exp,
		"log":   math.Log,
		"ln":    math.Log,
		"log10": math.Log10,
		"log2":  math.Log2,
		"sign":  sign,
	}

	opts := make([]expr.Option, 0, len(unary)+1)
	for name, fn := range unary {
		opts = append(opts, expr.Function(name, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(params))
			}
			v, err := toFloat(params[0])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return fn(v), nil
		}))
	}
	opts = append(opts, expr.Function("pow", func(params ...any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments, got %d", len(params))
		}
		b, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		p, err := toFloat(params[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(b, p), nil
	}))
	return opts
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("non-numeric argument %T", v)
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
