// Package compare evaluates the comparison operators used by logic paths and
// thank-you conditions. Every operator is compiled once into an expr program
// and evaluation never fails: anything that cannot be evaluated is false.
package compare

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var numberSources = map[string]string{
	"==": "left == right",
	"!=": "left != right",
	">":  "left > right",
	"<":  "left < right",
	">=": "left >= right",
	"<=": "left <= right",
	"+":  "left + right == target",
	"-":  "left - right == target",
}

var stringSources = map[string]string{
	"==":       "left == right",
	"!=":       "left != right",
	"contains": "left contains right",
}

var (
	numberEnv = map[string]any{"left": 0.0, "right": 0.0, "target": 0.0}
	stringEnv = map[string]any{"left": "", "right": ""}
)

var programs sync.Map // "kind:op" -> *vm.Program

// ErrUnknownOperator is returned by Compile for operators outside the table.
var ErrUnknownOperator = errors.New("unknown operator")

// Numbers reports whether "left op right" holds. For the arithmetic
// operators "+" and "-" the result of "left op right" is compared with
// right itself.
func Numbers(op string, left, right float64) bool {
	program, err := compile("num", op, numberSources, numberEnv)
	if err != nil {
		return false
	}
	return run(program, map[string]any{"left": left, "right": right, "target": right})
}

// Strings reports whether "left op right" holds for "==", "!=" and "contains".
func Strings(op string, left, right string) bool {
	program, err := compile("str", op, stringSources, stringEnv)
	if err != nil {
		return false
	}
	return run(program, map[string]any{"left": left, "right": right})
}

// IsNumberOperator reports whether op is understood by Numbers.
func IsNumberOperator(op string) bool {
	_, ok := numberSources[op]
	return ok
}

// Number converts s the way a loose numeric cast would: blank is zero,
// anything unparsable is NaN.
func Number(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, ok := ParseNumber(s)
	if !ok {
		return math.NaN()
	}
	return n
}

// ParseNumber parses a finite decimal number.
func ParseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func compile(kind, op string, sources map[string]string, env map[string]any) (*vm.Program, error) {
	key := kind + ":" + op
	if p, ok := programs.Load(key); ok {
		return p.(*vm.Program), nil
	}

	source, ok := sources[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}

	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		slog.Error("compile comparison", slog.String("operator", op), slog.String("error", err.Error()))
		return nil, err
	}

	actual, _ := programs.LoadOrStore(key, program)
	return actual.(*vm.Program), nil
}

func run(program *vm.Program, env map[string]any) bool {
	output, err := expr.Run(program, env)
	if err != nil {
		return false
	}

	result, ok := output.(bool)
	if !ok {
		return false
	}
	return result
}
