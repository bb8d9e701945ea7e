package sharp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

// writeModule drops a .sharp file into dir and returns its path.
func writeModule(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runScript writes main.sharp next to its modules and runs it.
func runScript(t *testing.T, dir, body string) (Value, error) {
	t.Helper()
	main := writeModule(t, dir, "main.sharp", body)
	ip := NewInterpreter()
	return ip.RunFile(main)
}

func mustRunScript(t *testing.T, dir, body string) Value {
	t.Helper()
	v, err := runScript(t, dir, body)
	if err != nil {
		t.Fatalf("RunFile error: %v\nsource:\n%s", err, body)
	}
	return v
}

// --- tests -----------------------------------------------------------------

func Test_Import_BindsModuleValue(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "mathx.sharp", src(
		"def double(x):",
		"    return x * 2",
		"factor = 7",
	))
	wantInt(t, mustRunScript(t, dir, src(
		"import mathx",
		"mathx.double(mathx.factor)",
	)), 14)
}

func Test_Import_WithAlias(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "mathx.sharp", "factor = 3")
	wantInt(t, mustRunScript(t, dir, src(
		"import mathx as m",
		"m.factor",
	)), 3)
}

func Test_Import_DottedSpecBindsLastSegment(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, filepath.Join("pkg", "util.sharp"), "answer = 42")
	wantInt(t, mustRunScript(t, dir, src(
		"import pkg.util",
		"util.answer",
	)), 42)
}

func Test_FromImport_CopiesNames(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "shapes.sharp", src(
		"def area(w, h):",
		"    return w * h",
		"unit = 1",
	))
	wantInt(t, mustRunScript(t, dir, src(
		"from shapes import area, unit as u",
		"area(6, 7) + u",
	)), 43)
}

func Test_FromImport_Star(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "consts.sharp", src(
		"a = 1",
		"b = 2",
		"_hidden = 99",
	))
	wantInt(t, mustRunScript(t, dir, src(
		"from consts import *",
		"a + b",
	)), 3)
}

func Test_FromImport_MissingName(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.sharp", "a = 1")
	_, err := runScript(t, dir, "from m import nope")
	if err == nil {
		t.Fatal("want ImportError")
	}
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != "ImportError" {
		t.Fatalf("want ImportError, got %v", err)
	}
}

func Test_Import_UnderscoreNamesStayPrivate(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.sharp", src(
		"_secret = 1",
		"public = 2",
	))
	_, err := runScript(t, dir, src(
		"import m",
		"m._secret",
	))
	if err == nil {
		t.Fatal("want AttributeError for private member")
	}
}

func Test_Import_ModuleLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "counter.sharp", src(
		"print(\"loading\")",
		"n = 1",
	))
	writeModule(t, dir, "a.sharp", "import counter")
	writeModule(t, dir, "b.sharp", "import counter")

	main := writeModule(t, dir, "main.sharp", src(
		"import a",
		"import b",
		"import counter",
		"counter.n",
	))
	ip := NewInterpreter()
	var out strings.Builder
	ip.Stdout = &out
	v, err := ip.RunFile(main)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, v, 1)
	if got := out.String(); got != "loading\n" {
		t.Fatalf("module body must run once, printed %q", got)
	}
}

func Test_Import_CycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a.sharp", "import b")
	writeModule(t, dir, "b.sharp", "import a")
	_, err := runScript(t, dir, "import a")
	if err == nil {
		t.Fatal("want import cycle error")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("want cycle in message, got %q", err.Error())
	}
}

func Test_Import_MissingModule(t *testing.T) {
	dir := t.TempDir()
	_, err := runScript(t, dir, "import nothing_here")
	if err == nil {
		t.Fatal("want ImportError")
	}
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != "ImportError" {
		t.Fatalf("want ImportError, got %v", err)
	}
	if !strings.Contains(re.Msg, "nothing_here") {
		t.Fatalf("message must name the module: %q", re.Msg)
	}
}

func Test_Import_FailedLoadIsNotCached(t *testing.T) {
	dir := t.TempDir()
	bad := writeModule(t, dir, "flaky.sharp", "raise ValueError(\"first\")")

	main := writeModule(t, dir, "main.sharp", "import flaky\nflaky.ok")
	ip := NewInterpreter()
	if _, err := ip.RunFile(main); err == nil {
		t.Fatal("want error from first load")
	}

	// fix the module and retry with the same interpreter
	if err := os.WriteFile(bad, []byte("ok = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := ip.RunFile(main)
	if err != nil {
		t.Fatalf("retry after fix: %v", err)
	}
	wantInt(t, v, 1)
}

func Test_Import_SearchPathEnvVar(t *testing.T) {
	libDir := t.TempDir()
	runDir := t.TempDir()
	writeModule(t, libDir, "extlib.sharp", "tag = \"ext\"")
	t.Setenv(PathEnvVar, libDir)
	wantStr(t, mustRunScript(t, runDir, src(
		"import extlib",
		"extlib.tag",
	)), "ext")
}

func Test_Import_NativeModule(t *testing.T) {
	dir := t.TempDir()
	ip := NewInterpreter()
	ip.RegisterModule("host", map[string]Value{
		"greeting": StrV("hi"),
	})
	main := writeModule(t, dir, "main.sharp", src(
		"import host",
		"host.greeting",
	))
	v, err := ip.RunFile(main)
	if err != nil {
		t.Fatal(err)
	}
	wantStr(t, v, "hi")
}

func Test_Import_RelativeToImportingFile(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, filepath.Join("sub", "helper.sharp"), "v = 5")
	writeModule(t, dir, filepath.Join("sub", "mid.sharp"), src(
		"import helper",
		"doubled = helper.v * 2",
	))
	wantInt(t, mustRunScript(t, dir, src(
		"import sub.mid",
		"mid.doubled",
	)), 10)
}
