// Package runtime wires together the lang and parser packages into a
// ready-to-use Nova interpreter: the value system and evaluator plus the
// built-in functions every program can rely on.
package runtime

import (
	"bytes"
	"io"
	"os"

	"github.com/novalang/nova/lang"
	"github.com/novalang/nova/parser"
)

// NewInterpreter constructs an Evaluator with the required built-ins
// installed unconditionally. Supplemental built-ins live in the stdlib
// package and are registered by the caller as a separate, omittable step.
func NewInterpreter() *lang.Evaluator {
	ev := lang.NewEvaluator()
	installPrimitives(ev)
	return ev
}

func readFileSkippingShebang(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("#!")) {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			return data[idx+1:], nil
		}
		return []byte{}, nil
	}
	return data, nil
}

// EvaluateString parses and evaluates Nova source held entirely in memory.
func EvaluateString(ev *lang.Evaluator, src string) (lang.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return lang.Value{}, err
	}
	return ev.Run(prog, ev.Global)
}

// EvaluateReader parses and evaluates Nova source read in full from r.
func EvaluateReader(ev *lang.Evaluator, r io.Reader) (lang.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return lang.Value{}, err
	}
	return EvaluateString(ev, string(data))
}

// EvaluateFile loads and runs a .nova source file, tolerating a leading
// "#!" shebang line so Nova scripts can be made directly executable.
func EvaluateFile(ev *lang.Evaluator, path string) (lang.Value, error) {
	data, err := readFileSkippingShebang(path)
	if err != nil {
		return lang.Value{}, err
	}
	return EvaluateString(ev, string(data))
}
