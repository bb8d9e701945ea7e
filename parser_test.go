package sharp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- helpers ---------------------------------------------------------------

func mustParse(t *testing.T, src string) S {
	t.Helper()
	ast, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error for %q: %v", src, err)
	}
	return ast
}

// stripAt removes ("at", line, col, stmt) wrappers so structural asserts
// do not depend on positions.
func stripAt(n any) any {
	s, ok := n.(S)
	if !ok {
		return n
	}
	if len(s) == 4 && s[0] == "at" {
		return stripAt(s[3])
	}
	out := make(S, len(s))
	for i, part := range s {
		out[i] = stripAt(part)
	}
	return out
}

// parseStmt parses a single statement and returns it without wrappers.
func parseStmt(t *testing.T, src string) S {
	t.Helper()
	prog := stripAt(mustParse(t, src)).(S)
	if tag(prog) != "block" || len(prog) != 2 {
		t.Fatalf("want a single statement, got %#v", prog)
	}
	return prog[1].(S)
}

func wantAST(t *testing.T, src string, want S) {
	t.Helper()
	got := parseStmt(t, src)
	if diff := cmp.Diff(any(want), any(got)); diff != "" {
		t.Fatalf("AST for %q (-want +got):\n%s", src, diff)
	}
}

func wantParseError(t *testing.T, src, substr string) {
	t.Helper()
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("want parse error for %q", src)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error for %q: want substring %q, got %q", src, substr, err.Error())
	}
}

// --- expressions -----------------------------------------------------------

func Test_Parser_Precedence(t *testing.T) {
	wantAST(t, "1 + 2 * 3",
		L("binop", "+", L("int", int64(1)),
			L("binop", "*", L("int", int64(2)), L("int", int64(3)))))
	wantAST(t, "(1 + 2) * 3",
		L("binop", "*",
			L("binop", "+", L("int", int64(1)), L("int", int64(2))),
			L("int", int64(3))))
}

func Test_Parser_PowerIsRightAssociative(t *testing.T) {
	wantAST(t, "2 ** 3 ** 2",
		L("binop", "**", L("int", int64(2)),
			L("binop", "**", L("int", int64(3)), L("int", int64(2)))))
}

func Test_Parser_ComparisonAndLogic(t *testing.T) {
	wantAST(t, "a < b and c",
		L("binop", "and",
			L("binop", "<", L("id", "a"), L("id", "b")),
			L("id", "c")))
	wantAST(t, "not a or b",
		L("binop", "or",
			L("unop", "not", L("id", "a")),
			L("id", "b")))
}

func Test_Parser_InAndNotIn(t *testing.T) {
	wantAST(t, "x in xs",
		L("binop", "in", L("id", "x"), L("id", "xs")))
	wantAST(t, "x not in xs",
		L("binop", "not in", L("id", "x"), L("id", "xs")))
}

func Test_Parser_CallsAttrsSubscripts(t *testing.T) {
	wantAST(t, "f(1, x=2)",
		L("call", L("id", "f"),
			L("int", int64(1)),
			L("kw", "x", L("int", int64(2)))))
	wantAST(t, "a.b.c",
		L("get", L("get", L("id", "a"), "b"), "c"))
	wantAST(t, "xs[0]",
		L("idx", L("id", "xs"), L("int", int64(0))))
	wantAST(t, "xs[1:3]",
		L("slice", L("id", "xs"), L("int", int64(1)), L("int", int64(3)), L("nil")))
	wantAST(t, "xs[::2]",
		L("slice", L("id", "xs"), L("nil"), L("nil"), L("int", int64(2))))
}

func Test_Parser_PositionalAfterKeyword(t *testing.T) {
	wantParseError(t, "f(x=1, 2)", "positional argument")
}

func Test_Parser_Collections(t *testing.T) {
	wantAST(t, "[1, 2]",
		L("list", L("int", int64(1)), L("int", int64(2))))
	wantAST(t, "(1,)",
		L("tuple", L("int", int64(1))))
	wantAST(t, `{"a": 1}`,
		L("dict", L("pair", L("str", "a"), L("int", int64(1)))))
	wantAST(t, "1, 2",
		L("tuple", L("int", int64(1)), L("int", int64(2))))
}

func Test_Parser_Comprehensions(t *testing.T) {
	wantAST(t, "[x * x for x in xs]",
		L("listcomp",
			L("binop", "*", L("id", "x"), L("id", "x")),
			L("id", "x"), L("id", "xs"), nil))
	wantAST(t, "[x for x in xs if x > 0]",
		L("listcomp", L("id", "x"), L("id", "x"), L("id", "xs"),
			L("binop", ">", L("id", "x"), L("int", int64(0)))))
	wantAST(t, "{k: v for k in ks}",
		L("dictcomp", L("id", "k"), L("id", "v"), L("id", "k"), L("id", "ks"), nil))
}

func Test_Parser_Lambda(t *testing.T) {
	got := parseStmt(t, "lambda x, y=1: x + y")
	if tag(got) != "lambda" {
		t.Fatalf("want lambda, got %#v", got)
	}
}

// --- statements ------------------------------------------------------------

func Test_Parser_AssignmentForms(t *testing.T) {
	wantAST(t, "x = 1",
		L("assign", L("id", "x"), L("int", int64(1))))
	wantAST(t, "x += 1",
		L("aug", "+", L("id", "x"), L("int", int64(1))))
	wantAST(t, "a, b = b, a",
		L("assign",
			L("tuple", L("id", "a"), L("id", "b")),
			L("tuple", L("id", "b"), L("id", "a"))))
	wantAST(t, "a = b = 1",
		L("assign", L("id", "a"),
			L("assign", L("id", "b"), L("int", int64(1)))))
}

func Test_Parser_IfElifElse(t *testing.T) {
	src := strings.Join([]string{
		"if a:",
		"    pass",
		"elif b:",
		"    pass",
		"else:",
		"    pass",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "if" {
		t.Fatalf("want if, got %#v", got)
	}
	// cond, then, elifCond, elifThen, else
	if len(got) != 6 {
		t.Fatalf("if arity: want 6 parts, got %d: %#v", len(got), got)
	}
}

func Test_Parser_DefAndParams(t *testing.T) {
	src := strings.Join([]string{
		"def f(a, b=2):",
		"    return a + b",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "def" || got[1] != "f" {
		t.Fatalf("def node: %#v", got)
	}
}

func Test_Parser_DefaultBeforeRequired(t *testing.T) {
	src := strings.Join([]string{
		"def f(a=1, b):",
		"    pass",
	}, "\n")
	wantParseError(t, src, "default")
}

func Test_Parser_ClassWithBases(t *testing.T) {
	src := strings.Join([]string{
		"class Dog(Animal, Pet):",
		"    pass",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "class" || got[1] != "Dog" {
		t.Fatalf("class node: %#v", got)
	}
	bases := got[2].(S)
	if tag(bases) != "bases" || len(bases) != 3 {
		t.Fatalf("bases: %#v", bases)
	}
}

func Test_Parser_TryExceptElseFinally(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    a",
		"except ValueError as e:",
		"    b",
		"else:",
		"    c",
		"finally:",
		"    d",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "try" {
		t.Fatalf("try node: %#v", got)
	}
	handlers := got[2].(S)
	if tag(handlers) != "handlers" || len(handlers) != 2 {
		t.Fatalf("handlers: %#v", handlers)
	}
	h := handlers[1].(S)
	if h[2] != "e" {
		t.Fatalf("handler binding: %#v", h)
	}
}

func Test_Parser_TryRequiresHandlerOrFinally(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    a",
	}, "\n")
	wantParseError(t, src, "except")
}

func Test_Parser_ElseRequiresExcept(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    a",
		"else:",
		"    b",
		"finally:",
		"    c",
	}, "\n")
	wantParseError(t, src, "else")
}

func Test_Parser_MatchCases(t *testing.T) {
	src := strings.Join([]string{
		"match x:",
		"    case 1:",
		"        a",
		"    case n if n > 10:",
		"        b",
		"    case _:",
		"        c",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "match" || len(got) != 5 {
		t.Fatalf("match node: %#v", got)
	}
	pats := []string{
		tag(got[2].(S)[1].(S)),
		tag(got[3].(S)[1].(S)),
		tag(got[4].(S)[1].(S)),
	}
	if diff := cmp.Diff([]string{"lit", "capture", "wild"}, pats); diff != "" {
		t.Fatalf("patterns:\n%s", diff)
	}
}

func Test_Parser_Decorators(t *testing.T) {
	src := strings.Join([]string{
		"@traced",
		"@retry(3)",
		"def f():",
		"    pass",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "decor" {
		t.Fatalf("decor node: %#v", got)
	}
	exprs := got[1].(S)
	if len(exprs) != 3 {
		t.Fatalf("want 2 decorator exprs: %#v", exprs)
	}
}

func Test_Parser_AsyncForms(t *testing.T) {
	src := strings.Join([]string{
		"async def f():",
		"    await g()",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "adef" {
		t.Fatalf("adef node: %#v", got)
	}
}

func Test_Parser_ImportForms(t *testing.T) {
	wantAST(t, "import a.b",
		L("import", "a.b", ""))
	wantAST(t, "import a.b as c",
		L("import", "a.b", "c"))
	wantAST(t, "from m import x, y as z",
		L("from", "m", L("item", "x", "x"), L("item", "y", "z")))
	wantAST(t, "from m import *",
		L("from", "m", L("star")))
}

func Test_Parser_GlobalNonlocal(t *testing.T) {
	wantAST(t, "global a, b", L("global", "a", "b"))
	wantAST(t, "nonlocal x", L("nonlocal", "x"))
}

func Test_Parser_WithStatement(t *testing.T) {
	src := strings.Join([]string{
		"with open() as f:",
		"    pass",
	}, "\n")
	got := parseStmt(t, src)
	if tag(got) != "with" || got[2] != "f" {
		t.Fatalf("with node: %#v", got)
	}
}

func Test_Parser_InlineSuite(t *testing.T) {
	got := parseStmt(t, "if x: y = 1")
	if tag(got) != "if" {
		t.Fatalf("inline suite: %#v", got)
	}
}

func Test_Parser_PositionsOnStatements(t *testing.T) {
	prog := mustParse(t, "a = 1\nb = 2")
	second := prog[2].(S)
	if tag(second) != "at" || second[1].(int) != 2 {
		t.Fatalf("position wrapper: %#v", second)
	}
}

// --- interactive mode ------------------------------------------------------

func Test_Parser_IncompleteInput(t *testing.T) {
	for _, src := range []string{
		"def f():",
		"if x:",
		"class C:",
	} {
		_, err := ParseInteractive(src + "\n")
		if err == nil || !IsIncomplete(err) {
			t.Fatalf("%q: want incomplete error, got %v", src, err)
		}
	}
}

func Test_Parser_HardErrorIsNotIncomplete(t *testing.T) {
	_, err := ParseInteractive("def 1():\n")
	if err == nil || IsIncomplete(err) {
		t.Fatalf("want hard error, got %v", err)
	}
}
