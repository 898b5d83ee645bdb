// Package stdlib registers Nova's supplemental built-ins: collection,
// numeric, and clock/random functions that a complete standard library
// offers beyond the required minimum set, but that a minimal host may
// omit entirely.
package stdlib

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/novalang/nova/lang"
	"github.com/novalang/nova/novaerr"
)

// Install registers every supplemental built-in in the given evaluator's
// global environment. A host that only needs the required set never calls
// this.
func Install(ev *lang.Evaluator) {
	env := ev.Global
	define := func(name string, minArity, maxArity int, fn func(*lang.Evaluator, []lang.Value, novaerr.Position) (lang.Value, error)) {
		env.Define(name, lang.BuiltinValue(&lang.Builtin{Name: name, MinArity: minArity, MaxArity: maxArity, Fn: fn}))
	}

	define("keys", 1, 1, keysFn)
	define("join", 2, 2, joinFn)
	define("slice", 2, 3, sliceFn)
	define("range", 1, 2, rangeFn)
	define("floor", 1, 1, floorFn)
	define("ceil", 1, 1, ceilFn)
	define("round", 1, 1, roundFn)
	define("abs", 1, 1, absFn)
	define("now", 0, 0, nowFn)
	define("random", 0, 0, randomFn)
}

// keysFn returns an Object's field names in insertion order.
func keysFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	obj := args[0]
	if obj.Kind != lang.KindObject {
		return lang.Value{}, novaerr.Runtimef(pos, "keys expects an Object, got %s", obj.Kind)
	}
	names := make([]lang.Value, len(obj.Obj.Order))
	for i, k := range obj.Obj.Order {
		names[i] = lang.String(k)
	}
	return lang.ArrayOf(names...), nil
}

func joinFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	arr, sep := args[0], args[1]
	if arr.Kind != lang.KindArray {
		return lang.Value{}, novaerr.Runtimef(pos, "join expects an Array as its first argument, got %s", arr.Kind)
	}
	if sep.Kind != lang.KindString {
		return lang.Value{}, novaerr.Runtimef(pos, "join expects a String separator, got %s", sep.Kind)
	}
	parts := make([]string, len(arr.Arr.Elements))
	for i, v := range arr.Arr.Elements {
		parts[i] = lang.Str(v)
	}
	return lang.String(strings.Join(parts, sep.Str)), nil
}

// sliceFn clamps an out-of-range start/end into range rather than raising
// an error.
func sliceFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	target := args[0]
	start, err := numArg("slice", args[1], pos)
	if err != nil {
		return lang.Value{}, err
	}

	switch target.Kind {
	case lang.KindArray:
		n := len(target.Arr.Elements)
		end := n
		if len(args) == 3 {
			e, err := numArg("slice", args[2], pos)
			if err != nil {
				return lang.Value{}, err
			}
			end = e
		}
		s, e := clampRange(start, end, n)
		out := make([]lang.Value, e-s)
		copy(out, target.Arr.Elements[s:e])
		return lang.ArrayOf(out...), nil

	case lang.KindString:
		runes := []rune(target.Str)
		n := len(runes)
		end := n
		if len(args) == 3 {
			e, err := numArg("slice", args[2], pos)
			if err != nil {
				return lang.Value{}, err
			}
			end = e
		}
		s, e := clampRange(start, end, n)
		return lang.String(string(runes[s:e])), nil

	default:
		return lang.Value{}, novaerr.Runtimef(pos, "slice expects an Array or String, got %s", target.Kind)
	}
}

func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	return start, end
}

// rangeFn produces an Array of Numbers: range(end) counts from 0, and
// range(start, end) counts from start, both exclusive of end.
func rangeFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	start := 0.0
	end, err := numArg("range", args[0], pos)
	if err != nil {
		return lang.Value{}, err
	}
	endF := float64(end)
	if len(args) == 2 {
		start = endF
		e, err := numArg("range", args[1], pos)
		if err != nil {
			return lang.Value{}, err
		}
		endF = float64(e)
	}
	var out []lang.Value
	for i := start; i < endF; i++ {
		out = append(out, lang.Number(i))
	}
	return lang.ArrayOf(out...), nil
}

func floorFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	n, err := floatArg("floor", args[0], pos)
	if err != nil {
		return lang.Value{}, err
	}
	return lang.Number(math.Floor(n)), nil
}

func ceilFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	n, err := floatArg("ceil", args[0], pos)
	if err != nil {
		return lang.Value{}, err
	}
	return lang.Number(math.Ceil(n)), nil
}

func roundFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	n, err := floatArg("round", args[0], pos)
	if err != nil {
		return lang.Value{}, err
	}
	return lang.Number(math.Round(n)), nil
}

func absFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	n, err := floatArg("abs", args[0], pos)
	if err != nil {
		return lang.Value{}, err
	}
	return lang.Number(math.Abs(n)), nil
}

// nowFn returns milliseconds since the Unix epoch.
func nowFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	return lang.Number(float64(time.Now().UnixMilli())), nil
}

// randomFn returns a Number in [0, 1).
func randomFn(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	return lang.Number(rand.Float64()), nil
}

func floatArg(name string, v lang.Value, pos novaerr.Position) (float64, error) {
	if v.Kind != lang.KindNumber {
		return 0, novaerr.Runtimef(pos, "%s expects a Number, got %s", name, v.Kind)
	}
	return v.Num, nil
}

func numArg(name string, v lang.Value, pos novaerr.Position) (int, error) {
	if v.Kind != lang.KindNumber {
		return 0, novaerr.Runtimef(pos, "%s expects a Number, got %s", name, v.Kind)
	}
	return int(v.Num), nil
}
