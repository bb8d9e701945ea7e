package sharp

import (
	"strings"
	"testing"
)

// --- classes ---------------------------------------------------------------

func Test_Class_InitAndFields(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"class Point:",
		"    def __init__(self, x, y):",
		"        self.x = x",
		"        self.y = y",
		"    def show(self):",
		"        return str(self.x) + \",\" + str(self.y)",
		"p = Point(3, 4)",
		"p.show()",
	)), "3,4")
}

func Test_Class_NoInitRejectsArgs(t *testing.T) {
	wantKind(t, src(
		"class Empty:",
		"    pass",
		"Empty(1)",
	), "TypeError")
}

func Test_Class_AttributesCopyToInstances(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"class Config:",
		"    retries = 3",
		"c = Config()",
		"c.retries = 5",
		"d = Config()",
		"c.retries * 10 + d.retries",
	)), 53)
}

func Test_Class_MethodsSeeSelf(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"class Counter:",
		"    def __init__(self):",
		"        self.n = 0",
		"    def tick(self):",
		"        self.n = self.n + 1",
		"        return self.n",
		"c = Counter()",
		"c.tick()",
		"c.tick()",
		"c.tick()",
	)), 3)
}

func Test_Class_BoundMethodsCarryReceiver(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"class Box:",
		"    def __init__(self, v):",
		"        self.v = v",
		"    def get(self):",
		"        return self.v",
		"g = Box(9).get",
		"g()",
	)), 9)
}

func Test_Class_Inheritance(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"class Animal:",
		"    def speak(self):",
		"        return \"...\"",
		"    def intro(self):",
		"        return \"I say \" + self.speak()",
		"class Dog(Animal):",
		"    def speak(self):",
		"        return \"woof\"",
		"Dog().intro()",
	)), "I say woof")
}

func Test_Class_SuperCallsParentMethod(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"class Base:",
		"    def greet(self):",
		"        return \"base\"",
		"class Child(Base):",
		"    def greet(self):",
		"        return super().greet() + \"+child\"",
		"Child().greet()",
	)), "base+child")
}

func Test_Class_SuperInInit(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"class A:",
		"    def __init__(self, x):",
		"        self.x = x",
		"class B(A):",
		"    def __init__(self, x, y):",
		"        super().__init__(x)",
		"        self.y = y",
		"b = B(2, 3)",
		"b.x * 10 + b.y",
	)), 23)
}

func Test_Class_SuperChainThroughGrandparent(t *testing.T) {
	wantStr(t, evalSrc(t, src(
		"class A:",
		"    def name(self):",
		"        return \"a\"",
		"class B(A):",
		"    def name(self):",
		"        return super().name() + \"b\"",
		"class C(B):",
		"    def name(self):",
		"        return super().name() + \"c\"",
		"C().name()",
	)), "abc")
}

func Test_Class_MultipleInheritanceLinearization(t *testing.T) {
	// depth-first, left-to-right, first occurrence wins
	wantStr(t, evalSrc(t, src(
		"class Left:",
		"    def pick(self):",
		"        return \"left\"",
		"class Right:",
		"    def pick(self):",
		"        return \"right\"",
		"class Both(Left, Right):",
		"    pass",
		"Both().pick()",
	)), "left")
}

func Test_Class_IsinstanceWalksAncestry(t *testing.T) {
	wantBool(t, evalSrc(t, src(
		"class Animal:",
		"    pass",
		"class Dog(Animal):",
		"    pass",
		"isinstance(Dog(), Animal)",
	)), true)
	wantBool(t, evalSrc(t, src(
		"class Animal:",
		"    pass",
		"class Rock:",
		"    pass",
		"isinstance(Rock(), Animal)",
	)), false)
}

func Test_Class_BaseMustBeClass(t *testing.T) {
	wantKind(t, src(
		"x = 1",
		"class C(x):",
		"    pass",
	), "TypeError")
}

func Test_Class_MissingAttribute(t *testing.T) {
	wantKind(t, src(
		"class C:",
		"    pass",
		"C().nope",
	), "AttributeError")
}

func Test_Class_GetItemSetItemProtocol(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"class Store:",
		"    def __init__(self):",
		"        self.data = {}",
		"    def __setitem__(self, k, v):",
		"        self.data[k] = v",
		"    def __getitem__(self, k):",
		"        return self.data[k]",
		"s = Store()",
		"s[\"a\"] = 41",
		"s[\"a\"] + 1",
	)), 42)
}

func Test_Class_IterProtocol(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"class UpTo:",
		"    def __init__(self, n):",
		"        self.n = n",
		"        self.i = 0",
		"    def __iter__(self):",
		"        return self",
		"    def __next__(self):",
		"        if self.i >= self.n:",
		"            raise StopIteration()",
		"        self.i = self.i + 1",
		"        return self.i",
		"total = 0",
		"for x in UpTo(4):",
		"    total = total + x",
		"total",
	)), 10)
}

func Test_Class_DecoratedClass(t *testing.T) {
	wantInt(t, evalSrc(t, src(
		"def register(cls):",
		"    return cls",
		"@register",
		"class Thing:",
		"    def val(self):",
		"        return 7",
		"Thing().val()",
	)), 7)
}

func Test_Class_ReprForms(t *testing.T) {
	ip := NewInterpreter()
	v, err := ip.EvalSource(src(
		"class Widget:",
		"    pass",
		"Widget()",
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := ip.Repr(v); !strings.Contains(got, "Widget object") {
		t.Fatalf("instance repr: %q", got)
	}
}
