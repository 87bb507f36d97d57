package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"zsem/internal/diag"
	"zsem/internal/source"
)

func testBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.zg", []byte("const x: u32 = true;\nconst y = x;\n"))

	bag := diag.NewBag(16)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SynUnexpectedToken,
		Message:  "cannot assign bool to u32",
		Primary:  source.Span{File: id, Start: 15, End: 19},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 6, End: 7}, Msg: "declared here"},
		},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.SynExpectSemicolon,
		Message:  "unused binding y",
		Primary:  source.Span{File: id, Start: 27, End: 28},
	})
	bag.Sort()
	return bag, fs
}

func TestPrettyOutput(t *testing.T) {
	bag, fs := testBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})

	out := buf.String()
	wantLines := []string{
		"main.zg:1:16: ERROR Z2001: cannot assign bool to u32",
		"  const x: u32 = true;",
		"                 ^~~~",
		"main.zg:1:7: note: declared here",
		"main.zg:2:7: WARNING Z2002: unused binding y",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettyHidesNotes(t *testing.T) {
	bag, fs := testBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})

	if strings.Contains(buf.String(), "declared here") {
		t.Fatalf("notes printed despite ShowNotes=false:\n%s", buf.String())
	}
}

func TestPrettyBasenames(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/ws/src/deep/file.zg", []byte("const a = 1;\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SynExpectIdent,
		Message:  "bad",
		Primary:  source.Span{File: id, Start: 6, End: 7},
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	if !strings.HasPrefix(buf.String(), "file.zg:1:7:") {
		t.Fatalf("expected basename prefix, got:\n%s", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := testBag(t)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("want 2 diagnostics, got count=%d len=%d", out.Count, len(out.Diagnostics))
	}
	first := out.Diagnostics[0]
	if first.Severity != "ERROR" || first.Code != "Z2001" {
		t.Fatalf("unexpected first diagnostic: %+v", first)
	}
	if first.Location.Line != 1 || first.Location.Col != 16 {
		t.Fatalf("unexpected location: %+v", first.Location)
	}
	if len(first.Notes) != 1 || first.Notes[0].Message != "declared here" {
		t.Fatalf("unexpected notes: %+v", first.Notes)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	bag, fs := testBag(t)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 1}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(out.Diagnostics) != 1 || out.Count != 2 || !out.Truncated {
		t.Fatalf("truncation mismatch: %+v", out)
	}
}
