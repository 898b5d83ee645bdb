package parser

import (
	"log"
	"strconv"

	"github.com/novalang/nova/novaerr"
)

// Parse turns Nova source text into a Program AST, using recursive descent
// with a precedence-climbing ladder for binary operators.
func Parse(src string) (*Program, error) {
	p := &parser{lx: NewLexer(src), fnDepth: 0}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

type parser struct {
	lx      *Lexer
	curr    Token
	peekTok Token
	hasPeek bool
	fnDepth int // nesting depth of fn/method bodies, for "return" validity
}

func (p *parser) advance() error {
	if p.hasPeek {
		p.curr = p.peekTok
		p.hasPeek = false
		return nil
	}
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.curr = tok
	return nil
}

func (p *parser) peek() (Token, error) {
	if !p.hasPeek {
		tok, err := p.lx.Next()
		if err != nil {
			return Token{}, err
		}
		p.peekTok = tok
		p.hasPeek = true
	}
	return p.peekTok, nil
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	if p.curr.Kind != kind {
		return Token{}, p.errorf(p.curr.Pos, "expected %s, found %s", kind, p.curr.Kind)
	}
	tok := p.curr
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *parser) errorf(pos Position, format string, args ...interface{}) error {
	return novaerr.Syntaxf(pos, format, args...)
}

func (p *parser) parseProgram() (*Program, error) {
	var stmts []Stmt
	for p.curr.Kind != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &Program{Stmts: stmts}, nil
}

// ---- Statements ----

func (p *parser) parseStatement() (Stmt, error) {
	if traceEnabled {
		log.Printf("parser: statement starting with %s at %s", p.curr.Kind, p.curr.Pos)
	}
	if p.curr.Kind == Fn {
		// "fn NAME(...)" is a declaration; "fn(...)" starts an anonymous
		// function expression, handled by the default case below.
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Kind == IdentTok {
			return p.parseFnDeclStmt()
		}
	}
	switch p.curr.Kind {
	case Let:
		return p.parseLetStmt()
	case Class:
		return p.parseClassDecl()
	case Return:
		return p.parseReturnStmt()
	case If, While, For, LBrace:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		// An optional trailing ';' belongs to the same statement.
		if p.curr.Kind == Semi {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return &ExprStmt{base: base{expr.Pos()}, Expr: expr}, nil
	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		// A trailing expression's semicolon may be omitted when it is the
		// last statement of a block or program, so its value becomes the
		// block's value (as with the If/While/For/LBrace statement forms
		// above, which never required one).
		if p.curr.Kind == Semi {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.curr.Kind != RBrace && p.curr.Kind != EOF {
			if _, err := p.expect(Semi); err != nil {
				return nil, err
			}
		}
		return &ExprStmt{base: base{expr.Pos()}, Expr: expr}, nil
	}
}

func (p *parser) parseLetStmt() (Stmt, error) {
	letTok, err := p.expect(Let)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IdentTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Assign); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi); err != nil {
		return nil, err
	}
	return &LetStmt{base: base{letTok.Pos}, Name: nameTok.Lexeme, Expr: value}, nil
}

// parseFnDeclStmt parses "fn NAME(params) BODY", sugar for
// "let NAME = fn(params) BODY".
func (p *parser) parseFnDeclStmt() (Stmt, error) {
	fnTok, err := p.expect(Fn)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IdentTok)
	if err != nil {
		return nil, err
	}
	params, body, err := p.parseParamsAndBody()
	if err != nil {
		return nil, err
	}
	return &FnDeclStmt{base: base{fnTok.Pos}, Name: nameTok.Lexeme, Params: params, Body: body}, nil
}

func (p *parser) parseParamsAndBody() ([]string, *BlockExpr, error) {
	if _, err := p.expect(LParen); err != nil {
		return nil, nil, err
	}
	params, err := p.parseParamNames()
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, nil, err
	}
	p.fnDepth++
	body, err := p.parseBlockExpr()
	p.fnDepth--
	if err != nil {
		return nil, nil, err
	}
	return params, body, nil
}

func (p *parser) parseParamNames() ([]string, error) {
	var params []string
	if p.curr.Kind == RParen {
		return params, nil
	}
	for {
		tok, err := p.expect(IdentTok)
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Lexeme)
		if p.curr.Kind != Comma {
			break
		}
		if _, err := p.expect(Comma); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// parseClassDecl parses a class declaration, rejecting duplicate
// member names within one class body.
func (p *parser) parseClassDecl() (Stmt, error) {
	classTok, err := p.expect(Class)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IdentTok)
	if err != nil {
		return nil, err
	}
	parent := ""
	if p.curr.Kind == Extends {
		if _, err := p.expect(Extends); err != nil {
			return nil, err
		}
		parentTok, err := p.expect(IdentTok)
		if err != nil {
			return nil, err
		}
		parent = parentTok.Lexeme
	}
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var members []*Member
	for p.curr.Kind != RBrace {
		member, err := p.parseMember()
		if err != nil {
			return nil, err
		}
		key := member.Name
		if member.IsCtor {
			key = "constructor"
		}
		if seen[key] {
			return nil, p.errorf(member.Position, "duplicate member %q in class %s", key, nameTok.Lexeme)
		}
		seen[key] = true
		members = append(members, member)
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return &ClassDeclStmt{base: base{classTok.Pos}, Name: nameTok.Lexeme, Parent: parent, Members: members}, nil
}

func (p *parser) parseMember() (*Member, error) {
	start := p.curr.Pos
	visibility := Public
	static := false
	for {
		switch p.curr.Kind {
		case Static:
			static = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		case PublicTok:
			visibility = Public
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		case Private:
			visibility = PrivateVisibility
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	// An optional "fn" keyword may precede the member name.
	if p.curr.Kind == Fn {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	isCtor := false
	var name string
	if p.curr.Kind == Constructor {
		isCtor = true
		name = "constructor"
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		nameTok, err := p.expect(IdentTok)
		if err != nil {
			return nil, err
		}
		name = nameTok.Lexeme
	}
	params, body, err := p.parseParamsAndBody()
	if err != nil {
		return nil, err
	}
	return &Member{
		base: base{start}, Name: name, Params: params, Body: body,
		Visibility: visibility, Static: static, IsCtor: isCtor,
	}, nil
}

// parseReturnStmt rejects "return" outside a function body at parse time.
func (p *parser) parseReturnStmt() (Stmt, error) {
	retTok, err := p.expect(Return)
	if err != nil {
		return nil, err
	}
	if p.fnDepth == 0 {
		return nil, p.errorf(retTok.Pos, "return outside a function body")
	}
	var value Expr
	if p.curr.Kind != Semi {
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(Semi); err != nil {
		return nil, err
	}
	return &ReturnStmt{base: base{retTok.Pos}, Value: value}, nil
}

func (p *parser) parseBlockExpr() (*BlockExpr, error) {
	braceTok, err := p.expect(LBrace)
	if err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.curr.Kind != RBrace && p.curr.Kind != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return &BlockExpr{base: base{braceTok.Pos}, Stmts: stmts}, nil
}

// ---- Expressions: precedence ladder ----
// assignment < logicOr < logicAnd < equality < comparison < additive
// < multiplicative < unary < postfix.

func (p *parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() (Expr, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.curr.Kind == Assign {
		assignTok, _ := p.expect(Assign)
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		switch left.(type) {
		case *Identifier, *IndexExpr, *MemberExpr:
		default:
			return nil, p.errorf(assignTok.Pos, "invalid assignment target")
		}
		return &AssignExpr{base: base{assignTok.Pos}, Target: left, Value: value}, nil
	}
	return left, nil
}

func (p *parser) parseLogicalOr() (Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == Or {
		opTok, _ := p.expect(Or)
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{base: base{opTok.Pos}, Op: Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == And {
		opTok, _ := p.expect(And)
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{base: base{opTok.Pos}, Op: And, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == EqEq || p.curr.Kind == NotEq {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{base: base{opTok.Pos}, Op: opTok.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == Lt || p.curr.Kind == Gt || p.curr.Kind == LtEq || p.curr.Kind == GtEq {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{base: base{opTok.Pos}, Op: opTok.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == Plus || p.curr.Kind == Minus {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{base: base{opTok.Pos}, Op: opTok.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == Star || p.curr.Kind == Slash || p.curr.Kind == Percent {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{base: base{opTok.Pos}, Op: opTok.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.curr.Kind == Minus || p.curr.Kind == Bang {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{base: base{opTok.Pos}, Op: opTok.Kind, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.curr.Kind {
		case LParen:
			callTok, _ := p.expect(LParen)
			args, err := p.parseArgs(RParen)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RParen); err != nil {
				return nil, err
			}
			expr = &CallExpr{base: base{callTok.Pos}, Callee: expr, Args: args}
		case LBracket:
			brTok, _ := p.expect(LBracket)
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBracket); err != nil {
				return nil, err
			}
			expr = &IndexExpr{base: base{brTok.Pos}, Object: expr, Index: idx}
		case Dot:
			dotTok, _ := p.expect(Dot)
			nameTok, err := p.expect(IdentTok)
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{base: base{dotTok.Pos}, Object: expr, Name: nameTok.Lexeme}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseArgs(closing TokenKind) ([]Expr, error) {
	var args []Expr
	if p.curr.Kind == closing {
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curr.Kind != Comma {
			break
		}
		if _, err := p.expect(Comma); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.curr.Kind {
	case Number:
		tok, _ := p.expect(Number)
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid number literal %q", tok.Lexeme)
		}
		return &NumberLit{base: base{tok.Pos}, Value: val}, nil
	case String:
		tok, _ := p.expect(String)
		return &StringLit{base: base{tok.Pos}, Value: tok.Str}, nil
	case True, False:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &BoolLit{base: base{tok.Pos}, Value: tok.Kind == True}, nil
	case Null:
		tok, _ := p.expect(Null)
		return &NullLit{base{tok.Pos}}, nil
	case IdentTok:
		tok, _ := p.expect(IdentTok)
		return &Identifier{base: base{tok.Pos}, Name: tok.Lexeme}, nil
	case This:
		tok, _ := p.expect(This)
		return &ThisExpr{base{tok.Pos}}, nil
	case Super:
		return p.parseSuper()
	case New:
		return p.parseNew()
	case LParen:
		if _, err := p.expect(LParen); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return expr, nil
	case LBracket:
		return p.parseArrayLit()
	case Fn:
		return p.parseFnExpr()
	case If:
		return p.parseIfExpr()
	case While:
		return p.parseWhileExpr()
	case For:
		return p.parseForExpr()
	case LBrace:
		return p.parseBlockExpr()
	default:
		return nil, p.errorf(p.curr.Pos, "unexpected token %s", p.curr.Kind)
	}
}

// parseSuper parses "super.METHOD" and "super(args)". Whether a super
// reference is actually inside a method body is checked at evaluation time,
// not here.
func (p *parser) parseSuper() (Expr, error) {
	superTok, err := p.expect(Super)
	if err != nil {
		return nil, err
	}
	if p.curr.Kind == LParen {
		if _, err := p.expect(LParen); err != nil {
			return nil, err
		}
		args, err := p.parseArgs(RParen)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return &SuperCallExpr{base: base{superTok.Pos}, Args: args}, nil
	}
	if _, err := p.expect(Dot); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IdentTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	args, err := p.parseArgs(RParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return &SuperMethodExpr{base: base{superTok.Pos}, Method: nameTok.Lexeme, Args: args}, nil
}

func (p *parser) parseNew() (Expr, error) {
	newTok, err := p.expect(New)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IdentTok)
	if err != nil {
		return nil, err
	}
	var args []Expr
	if p.curr.Kind == LParen {
		if _, err := p.expect(LParen); err != nil {
			return nil, err
		}
		args, err = p.parseArgs(RParen)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
	}
	return &NewExpr{base: base{newTok.Pos}, Class: nameTok.Lexeme, Args: args}, nil
}

func (p *parser) parseArrayLit() (Expr, error) {
	brTok, err := p.expect(LBracket)
	if err != nil {
		return nil, err
	}
	elems, err := p.parseArgs(RBracket)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBracket); err != nil {
		return nil, err
	}
	return &ArrayLit{base: base{brTok.Pos}, Elements: elems}, nil
}

func (p *parser) parseFnExpr() (Expr, error) {
	fnTok, err := p.expect(Fn)
	if err != nil {
		return nil, err
	}
	params, body, err := p.parseParamsAndBody()
	if err != nil {
		return nil, err
	}
	return &FnExpr{base: base{fnTok.Pos}, Params: params, Body: body}, nil
}

// parseIfExpr/parseWhileExpr/parseForExpr parse their bodies as a single
// block so that "if"/"while"/"for" are both statements and expressions
// without the parser special-casing the two uses: only a block's last
// expression value is ever observed by a caller that wants one.
func (p *parser) parseIfExpr() (Expr, error) {
	ifTok, err := p.expect(If)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlockExpr()
	if err != nil {
		return nil, err
	}
	var elseExpr Expr
	if p.curr.Kind == Else {
		if _, err := p.expect(Else); err != nil {
			return nil, err
		}
		if p.curr.Kind == If {
			elseExpr, err = p.parseIfExpr()
		} else {
			elseExpr, err = p.parseBlockExpr()
		}
		if err != nil {
			return nil, err
		}
	}
	return &IfExpr{base: base{ifTok.Pos}, Cond: cond, Then: then, Else: elseExpr}, nil
}

func (p *parser) parseWhileExpr() (Expr, error) {
	whTok, err := p.expect(While)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlockExpr()
	if err != nil {
		return nil, err
	}
	return &WhileExpr{base: base{whTok.Pos}, Cond: cond, Body: body}, nil
}

func (p *parser) parseForExpr() (Expr, error) {
	forTok, err := p.expect(For)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IdentTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(In); err != nil {
		return nil, err
	}
	iter, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockExpr()
	if err != nil {
		return nil, err
	}
	return &ForExpr{base: base{forTok.Pos}, Var: nameTok.Lexeme, Iter: iter, Body: body}, nil
}
