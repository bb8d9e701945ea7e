package sharp

import "testing"

func Test_Introspection_DirOnInstance(t *testing.T) {
	v := evalSrc(t, src(
		"class Robot:",
		"    kind = \"metal\"",
		"    def __init__(self, name):",
		"        self.name = name",
		"    def speak(self):",
		"        return self.name",
		"dir(Robot(\"r2\"))",
	))
	if got := strListOf(v); got != `["__init__", "kind", "name", "speak"]` {
		t.Fatalf("dir(instance) = %s", got)
	}
}

// strListOf flattens a list of strings for easy comparison.
func strListOf(v Value) string {
	out := "["
	for i, el := range v.List().Items {
		if i > 0 {
			out += ", "
		}
		out += `"` + el.AsStr() + `"`
	}
	return out + "]"
}

func Test_Introspection_DirOnClassAndModule(t *testing.T) {
	v := evalSrc(t, src(
		"class A:",
		"    x = 1",
		"class B(A):",
		"    y = 2",
		"dir(B)",
	))
	if got := strListOf(v); got != `["x", "y"]` {
		t.Fatalf("dir(B) = %s", got)
	}
	wantKind(t, "dir(42)", "TypeError")
}

func Test_Introspection_GetattrWithDefault(t *testing.T) {
	code := src(
		"class Box:",
		"    def __init__(self):",
		"        self.v = 10",
		"b = Box()",
	)
	wantInt(t, evalSrc(t, code+"\ngetattr(b, \"v\")"), 10)
	wantStr(t, evalSrc(t, code+"\ngetattr(b, \"missing\", \"fallback\")"), "fallback")
	wantKind(t, code+"\ngetattr(b, \"missing\")", "AttributeError")
}

func Test_Introspection_SetattrAndHasattr(t *testing.T) {
	v := evalSrc(t, src(
		"class Box:",
		"    pass",
		"b = Box()",
		"setattr(b, \"w\", 7)",
		"[hasattr(b, \"w\"), hasattr(b, \"z\"), b.w]",
	))
	items := v.List().Items
	wantBool(t, items[0], true)
	wantBool(t, items[1], false)
	wantInt(t, items[2], 7)
}

func Test_Introspection_VarsReturnsOwnFields(t *testing.T) {
	out := runSrc(t, src(
		"class P:",
		"    shared = 0",
		"    def __init__(self):",
		"        self.a = 1",
		"        self.b = 2",
		"print(vars(P()))",
	))
	// own fields only, in assignment order
	if out != "{\"a\": 1, \"b\": 2}\n" {
		t.Fatalf("vars output = %q", out)
	}
}
