package runtime

import (
	"strings"
	"testing"

	"github.com/novalang/nova/lang"
	"github.com/novalang/nova/novaerr"
)

func mustRun(t *testing.T, src string) lang.Value {
	t.Helper()
	ev := NewInterpreter()
	v, err := EvaluateString(ev, src)
	if err != nil {
		t.Fatalf("unexpected error evaluating %q: %v", src, err)
	}
	return v
}

func mustErr(t *testing.T, src string) error {
	t.Helper()
	ev := NewInterpreter()
	_, err := EvaluateString(ev, src)
	if err == nil {
		t.Fatalf("expected error evaluating %q, got none", src)
	}
	return err
}

func TestPrintReturnsNull(t *testing.T) {
	v := mustRun(t, `print("hi");`)
	if v.Kind != lang.KindNull {
		t.Fatalf("print should evaluate to Null, got %v", v)
	}
}

func TestLen(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{`len("hello");`, 5},
		{`len("");`, 0},
		{`len([1, 2, 3]);`, 3},
		{`len([]);`, 0},
		{`len("héllo");`, 5}, // codepoint length, not byte length
	}
	for _, c := range cases {
		v := mustRun(t, c.src)
		if v.Kind != lang.KindNumber || v.Num != c.want {
			t.Errorf("%s: want %v, got %v", c.src, c.want, v)
		}
	}
}

func TestLenRejectsOtherKinds(t *testing.T) {
	if err := mustErr(t, `len(5);`); err == nil {
		t.Fatal("expected error")
	}
}

// A built-in's type-mismatch error must carry a source position like any
// other runtime error, so the CLI driver can render it with source context
// instead of a bare message.
func TestBuiltinTypeMismatchIsADiagnostic(t *testing.T) {
	cases := []string{
		`len(5);`,
		`num([1]);`,
		`push(1, 2);`,
		`pop(1);`,
	}
	for _, src := range cases {
		err := mustErr(t, src)
		diag, ok := err.(novaerr.Diagnostic)
		if !ok {
			t.Fatalf("%s: error %v (%T) does not implement novaerr.Diagnostic", src, err, err)
		}
		if diag.Kind() != novaerr.Runtime {
			t.Errorf("%s: want Kind() Runtime, got %v", src, diag.Kind())
		}
		if diag.Pos().Line == 0 {
			t.Errorf("%s: want a non-zero source position, got %v", src, diag.Pos())
		}
	}
}

func TestTypeNames(t *testing.T) {
	cases := map[string]string{
		`type(1);`:         "number",
		`type("s");`:       "string",
		`type(true);`:      "boolean",
		`type(null);`:      "null",
		`type([1]);`:       "array",
		`type(fn() {});`:   "function",
		`type(print);`:     "function",
	}
	for src, want := range cases {
		v := mustRun(t, src)
		if v.Kind != lang.KindString || v.Str != want {
			t.Errorf("%s: want %q, got %v", src, want, v)
		}
	}
}

func TestStr(t *testing.T) {
	cases := map[string]string{
		`str(1);`:        "1",
		`str(1.5);`:      "1.5",
		`str(true);`:     "true",
		`str(null);`:     "null",
		`str([1, 2]);`:   "[1, 2]",
	}
	for src, want := range cases {
		v := mustRun(t, src)
		if v.Kind != lang.KindString || v.Str != want {
			t.Errorf("%s: want %q, got %v", src, want, v)
		}
	}
}

func TestNum(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{`num("42");`, 42},
		{`num("3.5");`, 3.5},
		{`num(true);`, 1},
		{`num(false);`, 0},
		{`num(null);`, 0},
		{`num(7);`, 7},
	}
	for _, c := range cases {
		v := mustRun(t, c.src)
		if v.Kind != lang.KindNumber || v.Num != c.want {
			t.Errorf("%s: want %v, got %v", c.src, c.want, v)
		}
	}
}

func TestNumRejectsUnparseableString(t *testing.T) {
	err := mustErr(t, `num("not a number");`)
	if !strings.Contains(err.Error(), "cannot parse") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPushMutatesInPlace(t *testing.T) {
	v := mustRun(t, `
		let a = [1, 2];
		let b = a;
		push(a, 3);
		len(b);
	`)
	if v.Num != 3 {
		t.Fatalf("push through a shared reference should be visible via b, got %v", v)
	}
}

func TestPopReturnsLastAndShrinks(t *testing.T) {
	v := mustRun(t, `
		let a = [1, 2, 3];
		let last = pop(a);
		[last, len(a)];
	`)
	if v.Kind != lang.KindArray || len(v.Arr.Elements) != 2 {
		t.Fatalf("expected a 2-element result array, got %v", v)
	}
	if v.Arr.Elements[0].Num != 3 || v.Arr.Elements[1].Num != 2 {
		t.Fatalf("expected [3, 2], got %v", v)
	}
}

func TestPopOnEmptyArrayErrors(t *testing.T) {
	if err := mustErr(t, `pop([]);`); err == nil {
		t.Fatal("expected error popping an empty array")
	}
}
