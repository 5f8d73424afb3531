package token

import "testing"

func TestKeywordsMapsReservedWords(t *testing.T) {
	cases := map[string]Kind{
		"let":   LET,
		"if":    IF,
		"else":  ELSE,
		"while": WHILE,
		"print": PRINT,
		"true":  TRUE,
		"false": FALSE,
		"null":  NULL,
		"and":   AND,
		"or":    OR,
		"not":   NOT,
	}
	for word, want := range cases {
		if got := Keywords[word]; got != want {
			t.Errorf("Keywords[%q] = %s, want %s", word, got, want)
		}
	}
}

func TestKeywordsDoesNotClaimOrdinaryIdentifiers(t *testing.T) {
	if _, ok := Keywords["letter"]; ok {
		t.Error(`"letter" should not be a keyword`)
	}
}

func TestNewNumberCarriesPayload(t *testing.T) {
	tok := NewNumber(3.5, "3.5", 1, 1)
	if tok.Kind != NUMBER {
		t.Fatalf("kind = %s, want NUMBER", tok.Kind)
	}
	if tok.Number != 3.5 {
		t.Errorf("number = %v, want 3.5", tok.Number)
	}
}

func TestNewTextCarriesPayload(t *testing.T) {
	tok := NewText(IDENT, "foo", 2, 3)
	if tok.Text != "foo" {
		t.Errorf("text = %q, want %q", tok.Text, "foo")
	}
	if tok.Line != 2 || tok.Column != 3 {
		t.Errorf("position = %d:%d, want 2:3", tok.Line, tok.Column)
	}
}

func TestTokenStringIsNonEmpty(t *testing.T) {
	tok := New(LBRACE, "{", 1, 1)
	if tok.String() == "" {
		t.Error("String() returned an empty string")
	}
}
