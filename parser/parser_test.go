package parser

import "testing"

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v", src, err)
	}
	return prog
}

func TestParseLetStmt(t *testing.T) {
	prog := mustParse(t, `let x = 5;`)
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
	}
	let, ok := prog.Stmts[0].(*LetStmt)
	if !ok {
		t.Fatalf("expected *LetStmt, got %T", prog.Stmts[0])
	}
	if let.Name != "x" {
		t.Fatalf("expected name x, got %s", let.Name)
	}
	if _, ok := let.Expr.(*NumberLit); !ok {
		t.Fatalf("expected a NumberLit value, got %T", let.Expr)
	}
}

func TestParseFnDecl(t *testing.T) {
	prog := mustParse(t, `fn add(a, b) { return a + b; }`)
	fn, ok := prog.Stmts[0].(*FnDeclStmt)
	if !ok {
		t.Fatalf("expected *FnDeclStmt, got %T", prog.Stmts[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected fn decl: %+v", fn)
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := mustParse(t, `1 + 2 * 3;`)
	stmt := prog.Stmts[0].(*ExprStmt)
	bin, ok := stmt.Expr.(*BinaryExpr)
	if !ok || bin.Op != Plus {
		t.Fatalf("expected top-level '+', got %+v", stmt.Expr)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != Star {
		t.Fatalf("expected '*' nested under '+', got %+v", bin.Right)
	}
}

func TestParseAssignmentTargets(t *testing.T) {
	for _, src := range []string{`x = 1;`, `a[0] = 1;`, `a.b = 1;`} {
		if _, err := Parse(src); err != nil {
			t.Errorf("%s: unexpected error: %v", src, err)
		}
	}
	if _, err := Parse(`1 = 2;`); err == nil {
		t.Fatal("expected an error assigning to a literal")
	}
}

func TestParseReturnOutsideFunctionIsAnError(t *testing.T) {
	if _, err := Parse(`return 1;`); err == nil {
		t.Fatal("expected a parse error for return outside a function")
	}
}

func TestParseClassWithExtendsAndVisibility(t *testing.T) {
	src := `
		class Animal {
			constructor(name) { this.name = name; }
			public speak() { return "..."; }
		}
		class Dog extends Animal {
			private bark() { return "woof"; }
			speak() { return super.speak() + this.bark(); }
		}
	`
	prog := mustParse(t, src)
	if len(prog.Stmts) != 2 {
		t.Fatalf("expected 2 class declarations, got %d", len(prog.Stmts))
	}
	dog := prog.Stmts[1].(*ClassDeclStmt)
	if dog.Name != "Dog" || dog.Parent != "Animal" {
		t.Fatalf("unexpected class decl: %+v", dog)
	}
	if len(dog.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(dog.Members))
	}
}

func TestParseDuplicateMemberIsAnError(t *testing.T) {
	src := `class C { foo() {} foo() {} }`
	if _, err := Parse(src); err == nil {
		t.Fatal("expected a duplicate member error")
	}
}

func TestParseIfElseIfChain(t *testing.T) {
	src := `
		if (a) { 1; } else if (b) { 2; } else { 3; }
	`
	prog := mustParse(t, src)
	ifExpr := prog.Stmts[0].(*ExprStmt).Expr.(*IfExpr)
	elseIf, ok := ifExpr.Else.(*IfExpr)
	if !ok {
		t.Fatalf("expected nested else-if, got %T", ifExpr.Else)
	}
	if _, ok := elseIf.Else.(*BlockExpr); !ok {
		t.Fatalf("expected a trailing else block, got %T", elseIf.Else)
	}
}

func TestParseForIn(t *testing.T) {
	prog := mustParse(t, `for x in [1, 2, 3] { print(x); }`)
	forExpr := prog.Stmts[0].(*ExprStmt).Expr.(*ForExpr)
	if forExpr.Var != "x" {
		t.Fatalf("expected loop var x, got %s", forExpr.Var)
	}
	if _, ok := forExpr.Iter.(*ArrayLit); !ok {
		t.Fatalf("expected an ArrayLit iterable, got %T", forExpr.Iter)
	}
}

func TestParseMemberCallChain(t *testing.T) {
	prog := mustParse(t, `a.b.c(1, 2)[0];`)
	stmt := prog.Stmts[0].(*ExprStmt)
	idx, ok := stmt.Expr.(*IndexExpr)
	if !ok {
		t.Fatalf("expected top-level IndexExpr, got %T", stmt.Expr)
	}
	call, ok := idx.Object.(*CallExpr)
	if !ok {
		t.Fatalf("expected a CallExpr under the index, got %T", idx.Object)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(call.Args))
	}
}

func TestParseNewExpr(t *testing.T) {
	prog := mustParse(t, `new Dog("Rex");`)
	stmt := prog.Stmts[0].(*ExprStmt)
	newExpr, ok := stmt.Expr.(*NewExpr)
	if !ok || newExpr.Class != "Dog" || len(newExpr.Args) != 1 {
		t.Fatalf("unexpected new expr: %+v", stmt.Expr)
	}
}
