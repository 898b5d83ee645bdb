package runtime

import (
	"fmt"
	"strconv"

	"github.com/novalang/nova/lang"
	"github.com/novalang/nova/novaerr"
)

// installPrimitives registers the minimum required built-in set: print,
// len, type, str, num, push, pop. Every one is a fixed-name, fixed-arity
// lang.Builtin, matching how a user Function is invoked.
func installPrimitives(ev *lang.Evaluator) {
	env := ev.Global
	define := func(name string, minArity, maxArity int, fn func(*lang.Evaluator, []lang.Value, novaerr.Position) (lang.Value, error)) {
		env.Define(name, lang.BuiltinValue(&lang.Builtin{Name: name, MinArity: minArity, MaxArity: maxArity, Fn: fn}))
	}

	define("print", 1, 1, primPrint)
	define("len", 1, 1, primLen)
	define("type", 1, 1, primType)
	define("str", 1, 1, primStr)
	define("num", 1, 1, primNum)
	define("push", 2, 2, primPush)
	define("pop", 1, 1, primPop)
}

func primPrint(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	fmt.Fprintln(ev.Output, lang.Str(args[0]))
	return lang.Null(), nil
}

func primLen(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	v := args[0]
	switch v.Kind {
	case lang.KindString:
		return lang.Number(float64(lang.RuneLen(v.Str))), nil
	case lang.KindArray:
		return lang.Number(float64(len(v.Arr.Elements))), nil
	default:
		return lang.Value{}, novaerr.Runtimef(pos, "len expects a String or Array, got %s", v.Kind)
	}
}

func primType(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	return lang.String(args[0].Kind.String()), nil
}

func primStr(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	return lang.String(lang.Str(args[0])), nil
}

// primNum converts v to a Number: a String parses as a number (error if
// not parseable), a Boolean becomes 1/0, Null becomes 0, a Number passes
// through unchanged.
func primNum(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	v := args[0]
	switch v.Kind {
	case lang.KindNumber:
		return v, nil
	case lang.KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return lang.Value{}, novaerr.Runtimef(pos, "num: cannot parse %q as a number", v.Str)
		}
		return lang.Number(f), nil
	case lang.KindBool:
		if v.Bool {
			return lang.Number(1), nil
		}
		return lang.Number(0), nil
	case lang.KindNull:
		return lang.Number(0), nil
	default:
		return lang.Value{}, novaerr.Runtimef(pos, "num cannot convert a %s", v.Kind)
	}
}

func primPush(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	arr := args[0]
	if arr.Kind != lang.KindArray {
		return lang.Value{}, novaerr.Runtimef(pos, "push expects an Array as its first argument, got %s", arr.Kind)
	}
	arr.Arr.Elements = append(arr.Arr.Elements, args[1])
	return arr, nil
}

func primPop(ev *lang.Evaluator, args []lang.Value, pos novaerr.Position) (lang.Value, error) {
	arr := args[0]
	if arr.Kind != lang.KindArray {
		return lang.Value{}, novaerr.Runtimef(pos, "pop expects an Array, got %s", arr.Kind)
	}
	n := len(arr.Arr.Elements)
	if n == 0 {
		return lang.Value{}, novaerr.Runtimef(pos, "pop: array is empty")
	}
	last := arr.Arr.Elements[n-1]
	arr.Arr.Elements = arr.Arr.Elements[:n-1]
	return last, nil
}
