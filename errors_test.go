package sharp

import (
	"strings"
	"testing"
)

func Test_Errors_LexSnippet(t *testing.T) {
	source := "x = 1\ny = $\nz = 3"
	_, err := Parse(source)
	if err == nil {
		t.Fatal("want lex error")
	}
	msg := WrapErrorWithSource(err, source).Error()
	for _, want := range []string{"LEXICAL ERROR", "2 | y = $", "^"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("want %q in:\n%s", want, msg)
		}
	}
}

func Test_Errors_ParseSnippetPointsAtColumn(t *testing.T) {
	source := "x = (1 +\n"
	_, err := Parse(source)
	if err == nil {
		t.Fatal("want parse error")
	}
	msg := WrapErrorWithSource(err, source).Error()
	if !strings.Contains(msg, "PARSE ERROR") {
		t.Fatalf("header:\n%s", msg)
	}
	if !strings.Contains(msg, "^") {
		t.Fatalf("caret:\n%s", msg)
	}
}

func Test_Errors_RuntimeSnippetNamesKind(t *testing.T) {
	source := "a = 1\nb = a + missing"
	ip := NewInterpreter()
	_, err := ip.EvalSource(source)
	if err == nil {
		t.Fatal("want runtime error")
	}
	msg := WrapErrorWithSource(err, source).Error()
	for _, want := range []string{"RUNTIME ERROR", "NameError", "b = a + missing"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("want %q in:\n%s", want, msg)
		}
	}
}

func Test_Errors_LabeledWithSourceName(t *testing.T) {
	source := "oops("
	_, err := Parse(source)
	if err == nil {
		t.Fatal("want parse error")
	}
	msg := WrapErrorWithName(err, "script.sharp", source).Error()
	if !strings.Contains(msg, "in script.sharp at") {
		t.Fatalf("label:\n%s", msg)
	}
}

func Test_Errors_ContextLinesAndGutter(t *testing.T) {
	source := strings.Join([]string{
		"line_one = 1",
		"line_two = boom",
		"line_three = 3",
	}, "\n")
	ip := NewInterpreter()
	_, err := ip.EvalSource(source)
	if err == nil {
		t.Fatal("want runtime error")
	}
	msg := WrapErrorWithSource(err, source).Error()
	for _, want := range []string{"1 | line_one", "2 | line_two", "3 | line_three"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("want %q in:\n%s", want, msg)
		}
	}
}

func Test_Errors_OtherErrorsPassThrough(t *testing.T) {
	plain := &LexError{Line: 1, Col: 0, Msg: "x"}
	if got := WrapErrorWithSource(plain, "src").Error(); !strings.Contains(got, "LEXICAL ERROR") {
		t.Fatalf("lex error wrap: %s", got)
	}
	type opaque struct{ error }
	o := opaque{plain}
	if WrapErrorWithSource(o, "src") != error(o) {
		t.Fatal("unknown error types must pass through unchanged")
	}
}

func Test_Errors_ClampsOutOfRangePositions(t *testing.T) {
	err := &ParseError{Line: 99, Col: 99, Msg: "synthetic"}
	msg := WrapErrorWithSource(err, "only line").Error()
	if !strings.Contains(msg, "only line") {
		t.Fatalf("clamped snippet:\n%s", msg)
	}
}
