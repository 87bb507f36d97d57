package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		ident string
		kind  Kind
		ok    bool
	}{
		{"const", KwConst, true},
		{"usingnamespace", KwUsingnamespace, true},
		{"orelse", KwOrelse, true},
		{"anytype", KwAnytype, true},
		{"Const", Invalid, false},
		{"main", Invalid, false},
	}
	for _, tc := range cases {
		kind, ok := LookupKeyword(tc.ident)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.ident, tc.ok, ok)
		}
		if ok && kind != tc.kind {
			t.Fatalf("%q: expected kind %v, got %v", tc.ident, tc.kind, kind)
		}
	}
}

func TestKeywordRangeCoversAllKeywords(t *testing.T) {
	for ident, kind := range keywords {
		tok := Token{Kind: kind}
		if !tok.IsKeyword() {
			t.Fatalf("keyword %q (kind %v) not covered by IsKeyword", ident, kind)
		}
	}
}

func TestKindStrings(t *testing.T) {
	if KwUsingnamespace.String() != "usingnamespace" {
		t.Fatalf("unexpected string: %q", KwUsingnamespace.String())
	}
	if DotQuestion.String() != ".?" {
		t.Fatalf("unexpected string: %q", DotQuestion.String())
	}
	if Kind(255).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range kind")
	}
}
