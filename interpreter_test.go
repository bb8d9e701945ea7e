package sharp

import (
	"bytes"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	ip := NewInterpreter()
	v, err := ip.EvalSource(src)
	if err != nil {
		t.Fatalf("EvalSource error: %v\nsource:\n%s", err, src)
	}
	return v
}

// runSrc evaluates src and returns everything it printed.
func runSrc(t *testing.T, src string) string {
	t.Helper()
	ip := NewInterpreter()
	var out bytes.Buffer
	ip.Stdout = &out
	if _, err := ip.EvalSource(src); err != nil {
		t.Fatalf("EvalSource error: %v\nsource:\n%s", err, src)
	}
	return out.String()
}

// evalErr evaluates src expecting a runtime error and returns it.
func evalErr(t *testing.T, src string) *RuntimeError {
	t.Helper()
	ip := NewInterpreter()
	ip.Stdout = &bytes.Buffer{}
	_, err := ip.EvalSource(src)
	if err == nil {
		t.Fatalf("want runtime error, got none\nsource:\n%s", src)
	}
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T: %v", err, err)
	}
	return re
}

func wantKind(t *testing.T, src, kind string) {
	t.Helper()
	re := evalErr(t, src)
	if re.Kind != kind {
		t.Fatalf("want %s, got %s: %s\nsource:\n%s", kind, re.Kind, re.Msg, src)
	}
}

func wantInt(t *testing.T, v Value, n int64) {
	t.Helper()
	if v.Tag != VTInt || v.AsInt() != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantNum(t *testing.T, v Value, f float64) {
	t.Helper()
	if v.Tag != VTNum || v.AsNum() != f {
		t.Fatalf("want num %g, got %#v", f, v)
	}
}

func wantStr(t *testing.T, v Value, s string) {
	t.Helper()
	if v.Tag != VTStr || v.AsStr() != s {
		t.Fatalf("want str %q, got %#v", s, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Tag != VTBool || v.AsBool() != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

func wantNil(t *testing.T, v Value) {
	t.Helper()
	if v.Tag != VTNil {
		t.Fatalf("want nil, got %#v", v)
	}
}

// src joins lines; Sharp blocks need real newlines and indentation.
func src(lines ...string) string { return strings.Join(lines, "\n") }

// --- literals and operators --------------------------------------------------

func Test_Eval_Literals(t *testing.T) {
	wantInt(t, evalSrc(t, "42"), 42)
	wantNum(t, evalSrc(t, "3.5"), 3.5)
	wantStr(t, evalSrc(t, `"hi"`), "hi")
	wantBool(t, evalSrc(t, "true"), true)
	wantNil(t, evalSrc(t, "nil"))
}

func Test_Eval_Arithmetic(t *testing.T) {
	wantInt(t, evalSrc(t, "1 + 2 * 3"), 7)
	wantInt(t, evalSrc(t, "2 ** 10"), 1024)
	wantInt(t, evalSrc(t, "7 % 3"), 1)
	wantNum(t, evalSrc(t, "1 + 0.5"), 1.5)
	wantStr(t, evalSrc(t, `"ab" + "cd"`), "abcd")
	wantStr(t, evalSrc(t, `"ab" * 3`), "ababab")
}

func Test_Eval_IntDivisionFloors(t *testing.T) {
	wantInt(t, evalSrc(t, "7 / 2"), 3)
	wantInt(t, evalSrc(t, "-7 / 2"), -4)
	wantInt(t, evalSrc(t, "-7 % 2"), 1)
	wantNum(t, evalSrc(t, "7.0 / 2"), 3.5)
}

func Test_Eval_DivisionByZero(t *testing.T) {
	wantKind(t, "1 / 0", "ZeroDivisionError")
	wantKind(t, "1 % 0", "ZeroDivisionError")
}

func Test_Eval_Bitwise(t *testing.T) {
	wantInt(t, evalSrc(t, "6 & 3"), 2)
	wantInt(t, evalSrc(t, "6 | 3"), 7)
	wantInt(t, evalSrc(t, "6 ^ 3"), 5)
	wantInt(t, evalSrc(t, "1 << 4"), 16)
	wantInt(t, evalSrc(t, "16 >> 2"), 4)
	wantInt(t, evalSrc(t, "~0"), -1)
}

func Test_Eval_Comparisons(t *testing.T) {
	wantBool(t, evalSrc(t, "1 < 2"), true)
	wantBool(t, evalSrc(t, "2.0 == 2"), true)
	wantBool(t, evalSrc(t, `"a" < "b"`), true)
	wantBool(t, evalSrc(t, "[1, 2] == [1, 2]"), true)
	wantBool(t, evalSrc(t, "(1, 2) != (1, 3)"), true)
	wantKind(t, `1 < "a"`, "TypeError")
}

func Test_Eval_ShortCircuitReturnsOperand(t *testing.T) {
	wantInt(t, evalSrc(t, "0 or 5"), 5)
	wantInt(t, evalSrc(t, "3 and 5"), 5)
	wantInt(t, evalSrc(t, "0 and 5"), 0)
	wantStr(t, evalSrc(t, `"" or "fallback"`), "fallback")
}

func Test_Eval_Membership(t *testing.T) {
	wantBool(t, evalSrc(t, "2 in [1, 2, 3]"), true)
	wantBool(t, evalSrc(t, "5 not in [1, 2, 3]"), true)
	wantBool(t, evalSrc(t, `"ell" in "hello"`), true)
	wantBool(t, evalSrc(t, `"x" in {"x": 1}`), true)
}

// --- bindings and scope ------------------------------------------------------

func Test_Eval_AssignmentAndAugmented(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"x = 1",
		"x += 4",
		"x *= 2",
		"x",
	)), 10)
}

func Test_Eval_TupleDestructuring(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"a, b = 1, 2",
		"a, b = b, a",
		"a * 10 + b",
	)), 21)
	wantKind(t, "a, b = [1, 2, 3]", "ValueError")
}

func Test_Eval_BlocksDoNotOpenScopes(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"if true:",
		"    x = 1",
		"x",
	)), 1)
}

func Test_Eval_FunctionsGetTheirOwnScope(t *testing.T) {
	wantKind(t, src(
		"def f():",
		"    y = 1",
		"f()",
		"y",
	), "NameError")
}

func Test_Eval_GlobalStatement(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"x = 1",
		"def bump():",
		"    global x",
		"    x = x + 1",
		"bump()",
		"bump()",
		"x",
	)), 3)
}

func Test_Eval_GlobalDeclaredButUnassigned(t *testing.T) {
	wantKind(t, src(
		"def f():",
		"    global x",
		"    return x",
		"f()",
	), "NameError")
	// the declaration skips enclosing function frames entirely
	wantKind(t, src(
		"def outer():",
		"    x = 5",
		"    def inner():",
		"        global x",
		"        return x",
		"    return inner()",
		"outer()",
	), "NameError")
	// first assignment creates the module-level binding
	wantInt(t, evalSrc(t, src(
		"def setx():",
		"    global x",
		"    x = 41",
		"setx()",
		"x + 1",
	)), 42)
}

func Test_Eval_NonlocalStatement(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"def counter():",
		"    n = 0",
		"    def tick():",
		"        nonlocal n",
		"        n = n + 1",
		"        return n",
		"    tick()",
		"    tick()",
		"    return tick()",
		"counter()",
	)), 3)
	wantKind(t, src(
		"def f():",
		"    nonlocal q",
		"f()",
	), "NameError")
}

// --- control flow --------------------------------------------------------------

func Test_Eval_IfElifElse(t *testing.T) {
	prog := func(n string) string {
		return src(
			"x = "+n,
			"if x < 0:",
			"    r = \"neg\"",
			"elif x == 0:",
			"    r = \"zero\"",
			"else:",
			"    r = \"pos\"",
			"r",
		)
	}
	wantStr(t, evalSrc(t, prog("-5")), "neg")
	wantStr(t, evalSrc(t, prog("0")), "zero")
	wantStr(t, evalSrc(t, prog("9")), "pos")
}

func Test_Eval_WhileBreakContinue(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"total = 0",
		"i = 0",
		"while true:",
		"    i = i + 1",
		"    if i > 10:",
		"        break",
		"    if i % 2 == 0:",
		"        continue",
		"    total = total + i",
		"total",
	)), 25)
}

func Test_Eval_ForOverSequences(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"total = 0",
		"for x in [1, 2, 3]:",
		"    total = total + x",
		"total",
	)), 6)
	wantStr(t, evalSrc(t, src(
		"out = \"\"",
		"for ch in \"abc\":",
		"    out = ch + out",
		"out",
	)), "cba")
	wantStr(t, evalSrc(t, src(
		"out = \"\"",
		"for k in {\"a\": 1, \"b\": 2}:",
		"    out = out + k",
		"out",
	)), "ab")
}

func Test_Eval_ForTupleTarget(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"total = 0",
		"for k, v in items({\"a\": 1, \"b\": 2}):",
		"    total = total + v",
		"total",
	)), 3)
}

func Test_Eval_StrayControlFlow(t *testing.T) {
	wantKind(t, "break", "SyntaxError")
	wantKind(t, "continue", "SyntaxError")
	wantKind(t, "return 1", "SyntaxError")
}

// --- functions -----------------------------------------------------------------

func Test_Eval_FunctionBasics(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"def add(a, b):",
		"    return a + b",
		"add(2, 3)",
	)), 5)
}

func Test_Eval_DefaultsAndKeywords(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"def greet(name, greeting=\"hello\"):",
		"    return greeting + \" \" + name",
		"greet(\"bob\")",
	)), "hello bob")
	wantStr(t, evalSrc(t, src(
		"def greet(name, greeting=\"hello\"):",
		"    return greeting + \" \" + name",
		"greet(greeting=\"yo\", name=\"ann\")",
	)), "yo ann")
	wantKind(t, src(
		"def f(a):",
		"    return a",
		"f()",
	), "TypeError")
	wantKind(t, src(
		"def f(a):",
		"    return a",
		"f(1, 2)",
	), "TypeError")
	wantKind(t, src(
		"def f(a):",
		"    return a",
		"f(1, a=2)",
	), "TypeError")
}

func Test_Eval_DefaultsEvaluatedAtCallTime(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"base = 10",
		"def f(x=base):",
		"    return x",
		"base = 20",
		"f()",
	)), 20)
}

func Test_Eval_Closures(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"def make_adder(n):",
		"    def add(x):",
		"        return x + n",
		"    return add",
		"add5 = make_adder(5)",
		"add5(37)",
	)), 42)
}

func Test_Eval_Lambda(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"sq = lambda x: x * x",
		"sq(7)",
	)), 49)
	wantInt(t, evalSrc(t, "(lambda a, b=10: a + b)(5)"), 15)
}

func Test_Eval_Recursion(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"def fib(n):",
		"    if n < 2:",
		"        return n",
		"    return fib(n - 1) + fib(n - 2)",
		"fib(12)",
	)), 144)
}

func Test_Eval_ImplicitReturnIsNil(t *testing.T) {
	wantNil(t, evalSrc(t, src(
		"def f():",
		"    1 + 1",
		"f()",
	)))
}

func Test_Eval_Decorators(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"def double(fn):",
		"    def wrapped(x):",
		"        return fn(x) * 2",
		"    return wrapped",
		"@double",
		"def inc(x):",
		"    return x + 1",
		"inc(5)",
	)), 12)
}

func Test_Eval_DecoratorsApplyInnermostFirst(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"def wrap(label):",
		"    def deco(fn):",
		"        def inner():",
		"            return label + fn()",
		"        return inner",
		"    return deco",
		"@wrap(\"a\")",
		"@wrap(\"b\")",
		"def base():",
		"    return \"c\"",
		"base()",
	)), "abc")
}

func Test_Eval_NotCallable(t *testing.T) {
	wantKind(t, "3(4)", "TypeError")
}

// --- collections -----------------------------------------------------------------

func Test_Eval_IndexingAndSlicing(t *testing.T) {
	wantInt(t, evalSrc(t, "[10, 20, 30][1]"), 20)
	wantInt(t, evalSrc(t, "[10, 20, 30][-1]"), 30)
	wantStr(t, evalSrc(t, `"hello"[1]`), "e")
	wantStr(t, evalSrc(t, `"hello"[1:4]`), "ell")
	wantStr(t, evalSrc(t, `"hello"[::-1]`), "olleh")
	wantKind(t, "[1][5]", "IndexError")
	wantKind(t, `{"a": 1}["b"]`, "KeyError")
}

func Test_Eval_IndexAssignment(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"xs = [1, 2, 3]",
		"xs[1] = 20",
		"xs[1]",
	)), 20)
	wantInt(t, evalSrc(t, src(
		"d = {}",
		"d[\"k\"] = 7",
		"d[\"k\"]",
	)), 7)
}

func Test_Eval_DictPreservesInsertionOrder(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"d = {\"b\": 1, \"a\": 2, \"c\": 3}",
		"join(\"\", keys(d))",
	)), "bac")
}

func Test_Eval_DictKeyEquivalence(t *testing.T) {
	// int-valued floats hash like ints
	wantInt(t, evalSrc(t, src(
		"d = {1: 10}",
		"d[1.0]",
	)), 10)
	wantKind(t, "{[1]: 2}", "TypeError")
}

func Test_Eval_ListsShareByReference(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"a = [1]",
		"b = a",
		"append(b, 2)",
		"len(a)",
	)), 2)
}

func Test_Eval_Comprehensions(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"xs = [x * x for x in range(5)]",
		"sum(xs)",
	)), 30)
	wantInt(t, evalSrc(t, src(
		"xs = [x for x in range(10) if x % 2 == 0]",
		"len(xs)",
	)), 5)
	wantInt(t, evalSrc(t, src(
		"d = {x: x * 2 for x in range(3)}",
		"d[2]",
	)), 4)
}

func Test_Eval_ComprehensionVariableDoesNotLeak(t *testing.T) {
	wantKind(t, src(
		"xs = [q for q in range(3)]",
		"q",
	), "NameError")
}

// --- match ---------------------------------------------------------------------

func Test_Eval_MatchLiteralsAndWildcard(t *testing.T) {
	prog := func(subject string) string {
		return src(
			"match "+subject+":",
			"    case 0:",
			"        r = \"zero\"",
			"    case \"hi\":",
			"        r = \"greeting\"",
			"    case _:",
			"        r = \"other\"",
			"r",
		)
	}
	wantStr(t, evalSrc(t, prog("0")), "zero")
	wantStr(t, evalSrc(t, prog("\"hi\"")), "greeting")
	wantStr(t, evalSrc(t, prog("[]")), "other")
}

func Test_Eval_MatchCaptureAndGuard(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"match 15:",
		"    case n if n > 10:",
		"        r = \"big \" + str(n)",
		"    case n:",
		"        r = \"small\"",
		"r",
	)), "big 15")
}

func Test_Eval_MatchFailedGuardLeavesNoBinding(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"match 3:",
		"    case big if big > 10:",
		"        r = \"big\"",
		"    case small:",
		"        r = \"small \" + str(small)",
		"r",
	)), "small 3")
	wantKind(t, src(
		"match 3:",
		"    case big if big > 10:",
		"        pass",
		"    case _:",
		"        pass",
		"big",
	), "NameError")
}

func Test_Eval_MatchErrorWhenNothingMatches(t *testing.T) {
	wantKind(t, src(
		"match 5:",
		"    case 1:",
		"        pass",
	), "MatchError")
}

// --- stdout --------------------------------------------------------------------

func Test_Eval_PrintFormatting(t *testing.T) {
	got := runSrc(t, src(
		"print(1, \"two\", [3, 4], nil)",
		"print(1.0)",
	))
	want := "1 two [3, 4] nil\n1.0\n"
	if got != want {
		t.Fatalf("stdout: want %q, got %q", want, got)
	}
}

func Test_Eval_RuntimeErrorPositions(t *testing.T) {
	re := evalErr(t, src(
		"x = 1",
		"y = missing",
	))
	if re.Line != 2 {
		t.Fatalf("want error on line 2, got %d (%s)", re.Line, re.Msg)
	}
}
