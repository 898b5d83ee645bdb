package lang

import (
	"io"
	"log"
	"math"
	"os"

	"github.com/novalang/nova/novaerr"
	"github.com/novalang/nova/parser"
)

// traceEnabled gates a log.Printf per statement evaluated, toggled by
// SetTrace from the driver's --log-level=trace flag.
var traceEnabled bool

// SetTrace turns per-statement evaluation trace logging on or off.
func SetTrace(enabled bool) { traceEnabled = enabled }

// Evaluator walks an AST against an Environment chain. It is
// single-threaded and synchronous: there is exactly one evaluation in
// flight at a time.
type Evaluator struct {
	Global *Env
	Output io.Writer

	// classStack tracks the DefiningClass of whichever method body is
	// currently executing, so Member/Super lookups can apply the dynamic
	// private-visibility check.
	classStack []*Class
}

func NewEvaluator() *Evaluator {
	return &Evaluator{Global: NewEnv(nil), Output: os.Stdout}
}

func (e *Evaluator) currentClass() *Class {
	if len(e.classStack) == 0 {
		return nil
	}
	return e.classStack[len(e.classStack)-1]
}

func (e *Evaluator) pushClass(c *Class) { e.classStack = append(e.classStack, c) }
func (e *Evaluator) popClass()          { e.classStack = e.classStack[:len(e.classStack)-1] }

// completion is the internal discriminated control-flow value threaded as
// an ordinary Go return from every eval* method: return unwinding is
// implemented this way rather than with a host-level exception mechanism.
type completion struct {
	Value     Value
	Returning bool
}

func normal(v Value) completion    { return completion{Value: v} }
func returning(v Value) completion { return completion{Value: v, Returning: true} }

// Run evaluates a whole program against env and returns the value of its
// last statement, or the first error encountered.
func (e *Evaluator) Run(prog *parser.Program, env *Env) (Value, error) {
	result := Null()
	for _, stmt := range prog.Stmts {
		c, err := e.evalStmt(stmt, env)
		if err != nil {
			return Value{}, err
		}
		if c.Returning {
			return Value{}, novaerr.Runtimef(stmt.Pos(), "return outside a function")
		}
		result = c.Value
	}
	return result, nil
}

// EvalStmt evaluates a single top-level statement, used by an interactive
// REPL driver.
func (e *Evaluator) EvalStmt(stmt parser.Stmt, env *Env) (Value, error) {
	c, err := e.evalStmt(stmt, env)
	if err != nil {
		return Value{}, err
	}
	return c.Value, nil
}

// ---- Statements ----

func (e *Evaluator) evalStmt(stmt parser.Stmt, env *Env) (completion, error) {
	if traceEnabled {
		log.Printf("eval: %T at %s", stmt, stmt.Pos())
	}
	switch s := stmt.(type) {
	case *parser.LetStmt:
		c, err := e.evalExpr(s.Expr, env)
		if err != nil || c.Returning {
			return c, err
		}
		env.Define(s.Name, c.Value)
		return normal(Null()), nil

	case *parser.FnDeclStmt:
		env.Define(s.Name, Null())
		fn := &Function{Name: s.Name, Params: s.Params, Body: s.Body, Closure: env}
		env.Define(s.Name, FunctionValue(fn))
		return normal(Null()), nil

	case *parser.ClassDeclStmt:
		return e.evalClassDecl(s, env)

	case *parser.ReturnStmt:
		if s.Value == nil {
			return returning(Null()), nil
		}
		c, err := e.evalExpr(s.Value, env)
		if err != nil {
			return completion{}, err
		}
		if c.Returning {
			return c, nil
		}
		return returning(c.Value), nil

	case *parser.ExprStmt:
		return e.evalExpr(s.Expr, env)

	default:
		return completion{}, novaerr.Runtimef(stmt.Pos(), "unhandled statement type %T", stmt)
	}
}

func (e *Evaluator) evalClassDecl(s *parser.ClassDeclStmt, env *Env) (completion, error) {
	var parent *Class
	if s.Parent != "" {
		pv, ok := env.Get(s.Parent)
		if !ok {
			return completion{}, novaerr.Runtimef(s.Position, "undefined identifier %q", s.Parent)
		}
		if pv.Kind != KindClass {
			return completion{}, novaerr.Runtimef(s.Position, "%q is not a class", s.Parent)
		}
		parent = pv.Class
	}
	class := &Class{
		Name:          s.Name,
		Parent:        parent,
		Methods:       make(map[string]*MethodDef),
		StaticMethods: make(map[string]*MethodDef),
		Closure:       env,
	}
	for _, m := range s.Members {
		def := &MethodDef{
			Name: m.Name, Params: m.Params, Body: m.Body,
			Visibility: m.Visibility, Static: m.Static, DefiningClass: class,
		}
		if m.Static {
			class.StaticMethods[m.Name] = def
		} else {
			key := m.Name
			if m.IsCtor {
				key = "constructor"
			}
			class.Methods[key] = def
		}
	}
	env.Define(s.Name, Null())
	env.Define(s.Name, ClassValue(class))
	return normal(Null()), nil
}

// ---- Expressions ----

func (e *Evaluator) evalExpr(expr parser.Expr, env *Env) (completion, error) {
	switch x := expr.(type) {
	case *parser.NumberLit:
		return normal(Number(x.Value)), nil
	case *parser.StringLit:
		return normal(String(x.Value)), nil
	case *parser.BoolLit:
		return normal(Bool(x.Value)), nil
	case *parser.NullLit:
		return normal(Null()), nil
	case *parser.ArrayLit:
		return e.evalArrayLit(x, env)
	case *parser.Identifier:
		v, ok := env.Get(x.Name)
		if !ok {
			return completion{}, novaerr.Runtimef(x.Position, "undefined identifier %q", x.Name)
		}
		return normal(v), nil
	case *parser.AssignExpr:
		return e.evalAssign(x, env)
	case *parser.BinaryExpr:
		return e.evalBinary(x, env)
	case *parser.UnaryExpr:
		return e.evalUnary(x, env)
	case *parser.LogicalExpr:
		return e.evalLogical(x, env)
	case *parser.CallExpr:
		return e.evalCall(x, env)
	case *parser.IndexExpr:
		return e.evalIndex(x, env)
	case *parser.MemberExpr:
		return e.evalMember(x, env)
	case *parser.NewExpr:
		return e.evalNew(x, env)
	case *parser.ThisExpr:
		v, ok := env.Get("this")
		if !ok {
			return completion{}, novaerr.Runtimef(x.Position, "'this' used outside a method")
		}
		return normal(v), nil
	case *parser.SuperCallExpr:
		return e.evalSuperCall(x, env)
	case *parser.SuperMethodExpr:
		return e.evalSuperMethod(x, env)
	case *parser.FnExpr:
		return normal(FunctionValue(&Function{Params: x.Params, Body: x.Body, Closure: env})), nil
	case *parser.BlockExpr:
		return e.evalBlockExpr(x, env)
	case *parser.IfExpr:
		return e.evalIf(x, env)
	case *parser.WhileExpr:
		return e.evalWhile(x, env)
	case *parser.ForExpr:
		return e.evalFor(x, env)
	default:
		return completion{}, novaerr.Runtimef(expr.Pos(), "unhandled expression type %T", expr)
	}
}

func (e *Evaluator) evalArrayLit(x *parser.ArrayLit, env *Env) (completion, error) {
	elems := make([]Value, 0, len(x.Elements))
	for _, el := range x.Elements {
		c, err := e.evalExpr(el, env)
		if err != nil || c.Returning {
			return c, err
		}
		elems = append(elems, c.Value)
	}
	return normal(Value{Kind: KindArray, Arr: &Array{Elements: elems}}), nil
}

// evalBlockExpr evaluates a block in a fresh child scope, yielding the
// value of the last statement executed, or Null for an empty block.
func (e *Evaluator) evalBlockExpr(b *parser.BlockExpr, env *Env) (completion, error) {
	child := NewEnv(env)
	return e.evalStmtsInEnv(b.Stmts, child)
}

func (e *Evaluator) evalStmtsInEnv(stmts []parser.Stmt, env *Env) (completion, error) {
	result := Null()
	for _, stmt := range stmts {
		c, err := e.evalStmt(stmt, env)
		if err != nil {
			return completion{}, err
		}
		if c.Returning {
			return c, nil
		}
		result = c.Value
	}
	return normal(result), nil
}

func (e *Evaluator) evalAssign(x *parser.AssignExpr, env *Env) (completion, error) {
	c, err := e.evalExpr(x.Value, env)
	if err != nil || c.Returning {
		return c, err
	}
	val := c.Value

	switch target := x.Target.(type) {
	case *parser.Identifier:
		if err := env.Set(target.Name, val); err != nil {
			return completion{}, novaerr.Runtimef(target.Position, "assignment to undefined name %q", target.Name)
		}
		return normal(val), nil

	case *parser.IndexExpr:
		objC, err := e.evalExpr(target.Object, env)
		if err != nil || objC.Returning {
			return objC, err
		}
		idxC, err := e.evalExpr(target.Index, env)
		if err != nil || idxC.Returning {
			return idxC, err
		}
		if objC.Value.Kind != KindArray {
			return completion{}, novaerr.Runtimef(target.Position, "cannot index into a %s", objC.Value.Kind)
		}
		i, ok := intIndex(idxC.Value)
		if !ok || i < 0 || i >= len(objC.Value.Arr.Elements) {
			return completion{}, novaerr.Runtimef(target.Position, "index out of range")
		}
		objC.Value.Arr.Elements[i] = val
		return normal(val), nil

	case *parser.MemberExpr:
		objC, err := e.evalExpr(target.Object, env)
		if err != nil || objC.Returning {
			return objC, err
		}
		if objC.Value.Kind != KindObject {
			return completion{}, novaerr.Runtimef(target.Position, "cannot set a field on a %s", objC.Value.Kind)
		}
		objC.Value.Obj.Set(target.Name, val)
		return normal(val), nil

	default:
		return completion{}, novaerr.Runtimef(x.Position, "invalid assignment target")
	}
}

func intIndex(v Value) (int, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	if v.Num != math.Trunc(v.Num) {
		return 0, false
	}
	return int(v.Num), true
}

func (e *Evaluator) evalBinary(x *parser.BinaryExpr, env *Env) (completion, error) {
	lc, err := e.evalExpr(x.Left, env)
	if err != nil || lc.Returning {
		return lc, err
	}
	rc, err := e.evalExpr(x.Right, env)
	if err != nil || rc.Returning {
		return rc, err
	}
	l, r := lc.Value, rc.Value

	switch x.Op {
	case parser.Plus:
		if l.Kind == KindString || r.Kind == KindString {
			return normal(String(Str(l) + Str(r))), nil
		}
		if l.Kind == KindNumber && r.Kind == KindNumber {
			return normal(Number(l.Num + r.Num)), nil
		}
		return completion{}, novaerr.Runtimef(x.Position, "operands to '+' must be numbers or include a string")
	case parser.Minus, parser.Star, parser.Slash, parser.Percent:
		if l.Kind != KindNumber || r.Kind != KindNumber {
			return completion{}, novaerr.Runtimef(x.Position, "operands to %q must be numbers", x.Op)
		}
		switch x.Op {
		case parser.Minus:
			return normal(Number(l.Num - r.Num)), nil
		case parser.Star:
			return normal(Number(l.Num * r.Num)), nil
		case parser.Slash:
			if r.Num == 0 {
				return completion{}, novaerr.Runtimef(x.Position, "division by zero")
			}
			return normal(Number(l.Num / r.Num)), nil
		default: // Percent
			if r.Num == 0 {
				return completion{}, novaerr.Runtimef(x.Position, "division by zero")
			}
			return normal(Number(math.Mod(l.Num, r.Num))), nil
		}
	case parser.Lt, parser.Gt, parser.LtEq, parser.GtEq:
		if l.Kind != KindNumber || r.Kind != KindNumber {
			return completion{}, novaerr.Runtimef(x.Position, "operands to %q must be numbers", x.Op)
		}
		switch x.Op {
		case parser.Lt:
			return normal(Bool(l.Num < r.Num)), nil
		case parser.Gt:
			return normal(Bool(l.Num > r.Num)), nil
		case parser.LtEq:
			return normal(Bool(l.Num <= r.Num)), nil
		default: // GtEq
			return normal(Bool(l.Num >= r.Num)), nil
		}
	case parser.EqEq:
		return normal(Bool(Equal(l, r))), nil
	case parser.NotEq:
		return normal(Bool(!Equal(l, r))), nil
	}
	return completion{}, novaerr.Runtimef(x.Position, "unsupported operator %q", x.Op)
}

func (e *Evaluator) evalUnary(x *parser.UnaryExpr, env *Env) (completion, error) {
	c, err := e.evalExpr(x.Operand, env)
	if err != nil || c.Returning {
		return c, err
	}
	switch x.Op {
	case parser.Minus:
		if c.Value.Kind != KindNumber {
			return completion{}, novaerr.Runtimef(x.Position, "unary '-' requires a number")
		}
		return normal(Number(-c.Value.Num)), nil
	case parser.Bang:
		return normal(Bool(!IsTruthy(c.Value))), nil
	default:
		return completion{}, novaerr.Runtimef(x.Position, "unsupported unary operator %q", x.Op)
	}
}

// evalLogical implements short-circuiting "and"/"or": the result is the
// deciding operand's own value, not coerced to boolean.
func (e *Evaluator) evalLogical(x *parser.LogicalExpr, env *Env) (completion, error) {
	lc, err := e.evalExpr(x.Left, env)
	if err != nil || lc.Returning {
		return lc, err
	}
	if x.Op == parser.Or {
		if IsTruthy(lc.Value) {
			return lc, nil
		}
		return e.evalExpr(x.Right, env)
	}
	if !IsTruthy(lc.Value) {
		return lc, nil
	}
	return e.evalExpr(x.Right, env)
}

func (e *Evaluator) evalCall(x *parser.CallExpr, env *Env) (completion, error) {
	calleeC, err := e.evalExpr(x.Callee, env)
	if err != nil || calleeC.Returning {
		return calleeC, err
	}
	args := make([]Value, 0, len(x.Args))
	for _, a := range x.Args {
		ac, err := e.evalExpr(a, env)
		if err != nil || ac.Returning {
			return ac, err
		}
		args = append(args, ac.Value)
	}
	v, err := e.Invoke(calleeC.Value, args, x.Position)
	if err != nil {
		return completion{}, err
	}
	return normal(v), nil
}

// Invoke implements the function call protocol: verify the callee is
// callable, check arity, then dispatch to a user Function or a Builtin.
func (e *Evaluator) Invoke(callee Value, args []Value, pos novaerr.Position) (Value, error) {
	switch callee.Kind {
	case KindFunction:
		return e.invokeFunction(callee.Fn, args, pos)
	case KindBuiltin:
		b := callee.Builtin
		if len(args) < b.MinArity || (b.MaxArity >= 0 && len(args) > b.MaxArity) {
			return Value{}, novaerr.Runtimef(pos, "%s expects %s, got %d", b.Name, arityDesc(b), len(args))
		}
		v, err := b.Fn(e, args, pos)
		if err != nil {
			if _, ok := err.(novaerr.Diagnostic); !ok {
				err = novaerr.Runtimef(pos, "%s: %v", b.Name, err)
			}
			return Value{}, err
		}
		return v, nil
	default:
		return Value{}, novaerr.Runtimef(pos, "value of kind %s is not callable", callee.Kind)
	}
}

func arityDesc(b *Builtin) string {
	if b.MaxArity < 0 {
		return "at least " + FormatNumber(float64(b.MinArity)) + " argument(s)"
	}
	if b.MinArity == b.MaxArity {
		return FormatNumber(float64(b.MinArity)) + " argument(s)"
	}
	return "between " + FormatNumber(float64(b.MinArity)) + " and " + FormatNumber(float64(b.MaxArity)) + " arguments"
}

func (e *Evaluator) invokeFunction(fn *Function, args []Value, pos novaerr.Position) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, novaerr.Runtimef(pos, "function %s expects %d argument(s), got %d", fnLabel(fn), len(fn.Params), len(args))
	}
	call := NewEnv(fn.Closure)
	for i, p := range fn.Params {
		call.Define(p, args[i])
	}
	if fn.Receiver != nil {
		call.Define("this", *fn.Receiver)
	}
	if fn.DefiningClass != nil {
		e.pushClass(fn.DefiningClass)
		defer e.popClass()
	}
	c, err := e.evalStmtsInEnv(fn.Body.Stmts, call)
	if err != nil {
		return Value{}, err
	}
	return c.Value, nil
}

func fnLabel(fn *Function) string {
	if fn.Name == "" {
		return "<anonymous>"
	}
	return fn.Name
}

func (e *Evaluator) evalIndex(x *parser.IndexExpr, env *Env) (completion, error) {
	objC, err := e.evalExpr(x.Object, env)
	if err != nil || objC.Returning {
		return objC, err
	}
	idxC, err := e.evalExpr(x.Index, env)
	if err != nil || idxC.Returning {
		return idxC, err
	}
	switch objC.Value.Kind {
	case KindArray:
		i, ok := intIndex(idxC.Value)
		if !ok || i < 0 || i >= len(objC.Value.Arr.Elements) {
			return completion{}, novaerr.Runtimef(x.Position, "array index out of range")
		}
		return normal(objC.Value.Arr.Elements[i]), nil
	case KindString:
		i, ok := intIndex(idxC.Value)
		if !ok {
			return completion{}, novaerr.Runtimef(x.Position, "string index must be an integer")
		}
		ch, ok := RuneAt(objC.Value.Str, i)
		if !ok {
			return completion{}, novaerr.Runtimef(x.Position, "string index out of range")
		}
		return normal(String(ch)), nil
	default:
		return completion{}, novaerr.Runtimef(x.Position, "cannot index into a %s", objC.Value.Kind)
	}
}

// evalMember resolves a member expression's field or method lookup and
// applies visibility rules.
//
// For an Object target: a matching field wins; otherwise a visible method
// is resolved to a bound Function value; otherwise the result is Null, so
// that calling an absent or invisible member surfaces the "not callable"
// runtime error rather than a separate "no such member" error.
//
// For a Class target there is no field fallback, so an unresolved static
// member is a direct runtime error.
func (e *Evaluator) evalMember(x *parser.MemberExpr, env *Env) (completion, error) {
	objC, err := e.evalExpr(x.Object, env)
	if err != nil || objC.Returning {
		return objC, err
	}
	v := objC.Value

	switch v.Kind {
	case KindObject:
		if field, ok := v.Obj.Get(x.Name); ok {
			return normal(field), nil
		}
		if v.Obj.Class == nil {
			return normal(Null()), nil
		}
		m := v.Obj.Class.LookupMethod(x.Name)
		if m == nil || !e.methodVisible(m) {
			return normal(Null()), nil
		}
		recv := v
		fn := &Function{
			Name: m.Name, Params: m.Params, Body: m.Body,
			Closure: m.DefiningClass.Closure, Receiver: &recv, DefiningClass: m.DefiningClass,
		}
		return normal(FunctionValue(fn)), nil

	case KindClass:
		m := v.Class.LookupStatic(x.Name)
		if m == nil {
			return completion{}, novaerr.Runtimef(x.Position, "class %s has no static member %q", v.Class.Name, x.Name)
		}
		fn := &Function{
			Name: m.Name, Params: m.Params, Body: m.Body,
			Closure: m.DefiningClass.Closure, DefiningClass: m.DefiningClass, IsStatic: true,
		}
		return normal(FunctionValue(fn)), nil

	default:
		return completion{}, novaerr.Runtimef(x.Position, "cannot access member %q on a %s", x.Name, v.Kind)
	}
}

// methodVisible reports whether m can be called from the current
// evaluation context. A private method is visible only while that context
// is executing a method of its defining class.
func (e *Evaluator) methodVisible(m *MethodDef) bool {
	if m.Visibility != parser.PrivateVisibility {
		return true
	}
	return e.currentClass() == m.DefiningClass
}

func (e *Evaluator) evalNew(x *parser.NewExpr, env *Env) (completion, error) {
	cv, ok := env.Get(x.Class)
	if !ok {
		return completion{}, novaerr.Runtimef(x.Position, "undefined identifier %q", x.Class)
	}
	if cv.Kind != KindClass {
		return completion{}, novaerr.Runtimef(x.Position, "%q is not a class", x.Class)
	}
	args := make([]Value, 0, len(x.Args))
	for _, a := range x.Args {
		ac, err := e.evalExpr(a, env)
		if err != nil || ac.Returning {
			return ac, err
		}
		args = append(args, ac.Value)
	}
	obj, err := e.Construct(cv.Class, args, x.Position)
	if err != nil {
		return completion{}, err
	}
	return normal(ObjectValue(obj)), nil
}

// Construct creates a fresh Object and runs the nearest constructor in the
// inheritance chain, if any: "new Child(...)" always runs Child's own
// constructor when defined, else the nearest ancestor's.
func (e *Evaluator) Construct(class *Class, args []Value, pos novaerr.Position) (*Object, error) {
	obj := NewObject(class)
	ctor := class.LookupMethod("constructor")
	if ctor == nil {
		if len(args) != 0 {
			return nil, novaerr.Runtimef(pos, "class %s has no constructor but %d argument(s) were given", class.Name, len(args))
		}
		return obj, nil
	}
	recv := ObjectValue(obj)
	fn := &Function{
		Name: "constructor", Params: ctor.Params, Body: ctor.Body,
		Closure: ctor.DefiningClass.Closure, Receiver: &recv, DefiningClass: ctor.DefiningClass,
	}
	if _, err := e.invokeFunction(fn, args, pos); err != nil {
		return nil, err
	}
	return obj, nil
}

func (e *Evaluator) evalSuperCall(x *parser.SuperCallExpr, env *Env) (completion, error) {
	dc := e.currentClass()
	if dc == nil || dc.Parent == nil {
		return completion{}, novaerr.Runtimef(x.Position, "'super' used outside a subclass constructor")
	}
	thisV, ok := env.Get("this")
	if !ok {
		return completion{}, novaerr.Runtimef(x.Position, "'super' used outside a method")
	}
	ctor := dc.Parent.LookupMethod("constructor")
	if ctor == nil {
		return completion{}, novaerr.Runtimef(x.Position, "%s has no constructor to call via super", dc.Parent.Name)
	}
	argsC, err := e.evalArgs(x.Args, env)
	if err != nil || argsC.Returning {
		return argsC, err
	}
	fn := &Function{
		Name: "constructor", Params: ctor.Params, Body: ctor.Body,
		Closure: ctor.DefiningClass.Closure, Receiver: &thisV, DefiningClass: ctor.DefiningClass,
	}
	v, err := e.invokeFunction(fn, argsC.Value.Arr.Elements, x.Position)
	if err != nil {
		return completion{}, err
	}
	return normal(v), nil
}

// evalSuperMethod implements "super.method(args)": it invokes the named
// method from the immediate parent class of the defining class, with
// "this" still bound to the current receiver.
func (e *Evaluator) evalSuperMethod(x *parser.SuperMethodExpr, env *Env) (completion, error) {
	dc := e.currentClass()
	if dc == nil || dc.Parent == nil {
		return completion{}, novaerr.Runtimef(x.Position, "'super' used outside a subclass method")
	}
	thisV, ok := env.Get("this")
	if !ok {
		return completion{}, novaerr.Runtimef(x.Position, "'super' used outside a method")
	}
	m := dc.Parent.LookupMethod(x.Method)
	if m == nil {
		return completion{}, novaerr.Runtimef(x.Position, "%s has no method %q", dc.Parent.Name, x.Method)
	}
	argsC, err := e.evalArgs(x.Args, env)
	if err != nil || argsC.Returning {
		return argsC, err
	}
	fn := &Function{
		Name: m.Name, Params: m.Params, Body: m.Body,
		Closure: m.DefiningClass.Closure, Receiver: &thisV, DefiningClass: m.DefiningClass,
	}
	v, err := e.invokeFunction(fn, argsC.Value.Arr.Elements, x.Position)
	if err != nil {
		return completion{}, err
	}
	return normal(v), nil
}

// evalArgs packs an argument list's evaluation into a single completion,
// reusing an Array value purely as a carrier for the resulting slice.
func (e *Evaluator) evalArgs(exprs []parser.Expr, env *Env) (completion, error) {
	vals := make([]Value, 0, len(exprs))
	for _, a := range exprs {
		c, err := e.evalExpr(a, env)
		if err != nil || c.Returning {
			return c, err
		}
		vals = append(vals, c.Value)
	}
	return normal(Value{Kind: KindArray, Arr: &Array{Elements: vals}}), nil
}

func (e *Evaluator) evalIf(x *parser.IfExpr, env *Env) (completion, error) {
	condC, err := e.evalExpr(x.Cond, env)
	if err != nil || condC.Returning {
		return condC, err
	}
	if IsTruthy(condC.Value) {
		return e.evalBlockExpr(x.Then, env)
	}
	if x.Else == nil {
		return normal(Null()), nil
	}
	return e.evalExpr(x.Else, env)
}

func (e *Evaluator) evalWhile(x *parser.WhileExpr, env *Env) (completion, error) {
	for {
		condC, err := e.evalExpr(x.Cond, env)
		if err != nil || condC.Returning {
			return condC, err
		}
		if !IsTruthy(condC.Value) {
			return normal(Null()), nil
		}
		bodyC, err := e.evalBlockExpr(x.Body, env)
		if err != nil {
			return completion{}, err
		}
		if bodyC.Returning {
			return bodyC, nil
		}
	}
}

// evalFor iterates an Array or String, binding the loop variable in a
// fresh per-iteration scope so closures created inside the body capture
// that iteration's value. Iterating any other kind is a runtime error.
func (e *Evaluator) evalFor(x *parser.ForExpr, env *Env) (completion, error) {
	iterC, err := e.evalExpr(x.Iter, env)
	if err != nil || iterC.Returning {
		return iterC, err
	}
	var items []Value
	switch iterC.Value.Kind {
	case KindArray:
		items = iterC.Value.Arr.Elements
	case KindString:
		for _, r := range iterC.Value.Str {
			items = append(items, String(string(r)))
		}
	default:
		return completion{}, novaerr.Runtimef(x.Position, "'for' requires an Array or String, got %s", iterC.Value.Kind)
	}
	for _, item := range items {
		iterEnv := NewEnv(env)
		iterEnv.Define(x.Var, item)
		bodyC, err := e.evalStmtsInEnv(x.Body.Stmts, iterEnv)
		if err != nil {
			return completion{}, err
		}
		if bodyC.Returning {
			return bodyC, nil
		}
	}
	return normal(Null()), nil
}
