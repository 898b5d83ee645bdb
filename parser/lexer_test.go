package parser

import "testing"

func lexAllTokens(t *testing.T, src string) []Token {
	t.Helper()
	lx := NewLexer(src)
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("unexpected lexer error after %d tokens: %v", len(tokens), err)
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return tokens
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	src := "let fn if else while for in return true false null and or class extends super this constructor private public static new foo _bar baz123"
	tokens := lexAllTokens(t, src)
	tokens = tokens[:len(tokens)-1] // drop EOF

	want := []struct {
		kind   TokenKind
		lexeme string
	}{
		{Let, ""}, {Fn, ""}, {If, ""}, {Else, ""}, {While, ""}, {For, ""}, {In, ""},
		{Return, ""}, {True, ""}, {False, ""}, {Null, ""}, {And, ""}, {Or, ""},
		{Class, ""}, {Extends, ""}, {Super, ""}, {This, ""}, {Constructor, ""},
		{Private, ""}, {PublicTok, ""}, {Static, ""}, {New, ""},
		{IdentTok, "foo"}, {IdentTok, "_bar"}, {IdentTok, "baz123"},
	}

	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, tt := range want {
		if tokens[i].Kind != tt.kind {
			t.Errorf("token %d: expected kind %v, got %v", i, tt.kind, tokens[i].Kind)
		}
		if tt.lexeme != "" && tokens[i].Lexeme != tt.lexeme {
			t.Errorf("token %d: expected lexeme %q, got %q", i, tt.lexeme, tokens[i].Lexeme)
		}
	}
}

func TestLexerNumberLiterals(t *testing.T) {
	src := "0 123 3.14 10 0.5"
	tokens := lexAllTokens(t, src)
	tokens = tokens[:len(tokens)-1]
	want := []string{"0", "123", "3.14", "10", "0.5"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		if tokens[i].Kind != Number || tokens[i].Lexeme != w {
			t.Errorf("token %d: expected number %q, got %v %q", i, w, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
}

// A '.' between identifiers lexes as a member-access Dot token.
func TestLexerDotDisambiguation(t *testing.T) {
	tokens := lexAllTokens(t, "a.b")
	tokens = tokens[:len(tokens)-1]
	wantKinds := []TokenKind{IdentTok, Dot, IdentTok}
	if len(tokens) != len(wantKinds) {
		t.Fatalf("expected %d tokens, got %d", len(wantKinds), len(tokens))
	}
	for i, k := range wantKinds {
		if tokens[i].Kind != k {
			t.Errorf("token %d: expected %v, got %v", i, k, tokens[i].Kind)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tokens := lexAllTokens(t, `"a\nb\t\"c\\d"`)
	if tokens[0].Kind != String {
		t.Fatalf("expected a string token, got %v", tokens[0].Kind)
	}
	want := "a\nb\t\"c\\d"
	if tokens[0].Str != want {
		t.Fatalf("expected %q, got %q", want, tokens[0].Str)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	lx := NewLexer(`"abc`)
	if _, err := lx.Next(); err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestLexerTwoCharOperators(t *testing.T) {
	tokens := lexAllTokens(t, "== != <= >= < > = !")
	tokens = tokens[:len(tokens)-1]
	want := []TokenKind{EqEq, NotEq, LtEq, GtEq, Lt, Gt, Assign, Bang}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, k := range want {
		if tokens[i].Kind != k {
			t.Errorf("token %d: expected %v, got %v", i, k, tokens[i].Kind)
		}
	}
}

func TestLexerLineComment(t *testing.T) {
	tokens := lexAllTokens(t, "1 // a comment\n2")
	tokens = tokens[:len(tokens)-1]
	if len(tokens) != 2 || tokens[0].Lexeme != "1" || tokens[1].Lexeme != "2" {
		t.Fatalf("expected [1, 2], got %+v", tokens)
	}
}

func TestLexerEOFIsTotal(t *testing.T) {
	lx := NewLexer("")
	for i := 0; i < 3; i++ {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Kind != EOF {
			t.Fatalf("expected repeated EOF tokens, got %v", tok.Kind)
		}
	}
}
