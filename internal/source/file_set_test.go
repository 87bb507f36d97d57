package source

import (
	"testing"
)

func TestAddAssignsSequentialIDs(t *testing.T) {
	fs := NewFileSet()
	a := fs.AddVirtual("a.zg", []byte("const x = 1;"))
	b := fs.AddVirtual("b.zg", []byte("const y = 2;"))
	if a == b {
		t.Fatalf("expected distinct file IDs, got %v and %v", a, b)
	}
	if fs.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", fs.Len())
	}
}

func TestGetLatestTracksNewestVersion(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("main.zg", []byte("old"))
	second := fs.AddVirtual("main.zg", []byte("new"))

	id, ok := fs.GetLatest("main.zg")
	if !ok {
		t.Fatalf("expected main.zg to be indexed")
	}
	if id != second {
		t.Fatalf("expected latest ID %v, got %v", second, id)
	}
	if got := string(fs.Get(id).Content); got != "new" {
		t.Fatalf("expected latest content, got %q", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.zg", []byte("abc\ndef\nghi"))

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 1, 4}, // the newline belongs to its line
		{4, 2, 1},
		{8, 3, 1},
		{10, 3, 3},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start.Line != tc.line || start.Col != tc.col {
			t.Fatalf("offset %d: expected %d:%d, got %d:%d", tc.off, tc.line, tc.col, start.Line, start.Col)
		}
	}
}

func TestTextReturnsSpanContents(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.zg", []byte("const answer = 42;"))
	got := fs.Text(Span{File: id, Start: 6, End: 12})
	if got != "answer" {
		t.Fatalf("expected %q, got %q", "answer", got)
	}
	if out := fs.Text(Span{File: id, Start: 6, End: 999}); out != "" {
		t.Fatalf("expected empty text for out-of-range span, got %q", out)
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	fs := NewFileSet()
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb")...)
	content, hadBOM := removeBOM(raw)
	if !hadBOM {
		t.Fatalf("expected BOM to be detected")
	}
	content, hadCRLF := normalizeCRLF(content)
	if !hadCRLF {
		t.Fatalf("expected CRLF to be normalized")
	}
	id := fs.Add("t.zg", content, 0)
	if got := string(fs.Get(id).Content); got != "a\nb" {
		t.Fatalf("expected normalized content, got %q", got)
	}
}
