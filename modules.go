// modules.go — the Sharp module system.
//
// OVERVIEW
// --------
// A Sharp module is an ordinary Sharp source file whose top-level
// bindings become its exported members. `import m` binds a module value;
// `from m import a, b` copies members into the importing frame.
//
// Resolution order for `import spec`:
//  1. the native module registry (RegisterModule)
//  2. the directory of the importing file
//  3. the current working directory
//  4. each directory listed in the SHARPPATH environment variable
//
// Dotted specs map to path segments ("pkg.util" -> "pkg/util.sharp");
// the ".sharp" extension is implied but an explicit path with extension
// also resolves. Import cycles are detected against the load stack and
// reported with the full chain. Only successful loads are cached, so a
// failed import can be retried after the fault is fixed.
package sharp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExt is the implied source file extension.
const DefaultExt = ".sharp"

// PathEnvVar names the environment variable holding extra module roots.
const PathEnvVar = "SHARPPATH"

type moduleState int

const (
	modLoading moduleState = iota
	modLoaded
)

type moduleRec struct {
	state moduleState
	mod   *Module
}

// importModule loads (or returns the cached) module for spec. Failures
// raise ImportError.
func (ip *Interpreter) importModule(spec string) *Module {
	if native, ok := ip.native[spec]; ok {
		return native
	}

	path, src, err := ip.resolveModule(spec)
	if err != nil {
		ip.throw("ImportError", "%s", err.Error())
	}

	if rec, ok := ip.modules[path]; ok {
		if rec.state == modLoading {
			ip.throw("ImportError", "import cycle detected: %s", strings.Join(append(ip.loadStack, path), " -> "))
		}
		return rec.mod
	}

	ast, err := Parse(src)
	if err != nil {
		ip.throw("ImportError", "cannot load module '%s': %s", spec, err.Error())
	}

	ip.modules[path] = &moduleRec{state: modLoading}
	ip.loadStack = append(ip.loadStack, path)
	prevBase := ip.baseDir
	ip.baseDir = filepath.Dir(path)

	modEnv := NewEnv(ip.Core)
	modEnv.module = true
	_, evalErr := ip.EvalAST(ast, modEnv)

	ip.baseDir = prevBase
	ip.loadStack = ip.loadStack[:len(ip.loadStack)-1]
	if evalErr != nil {
		delete(ip.modules, path)
		ip.throw("ImportError", "error in module '%s': %s", spec, evalErr.Error())
	}

	mod := &Module{
		Name: strings.TrimSuffix(filepath.Base(path), DefaultExt),
		Env:  modEnv,
		Map:  buildModuleMap(modEnv),
	}
	ip.modules[path] = &moduleRec{state: modLoaded, mod: mod}
	return mod
}

// resolveModule maps an import spec to an absolute path and reads it.
func (ip *Interpreter) resolveModule(spec string) (string, string, error) {
	rel := strings.ReplaceAll(spec, ".", string(filepath.Separator))
	if strings.HasSuffix(spec, DefaultExt) {
		rel = spec // explicit filename, keep as-is
	}

	var roots []string
	if ip.baseDir != "" {
		roots = append(roots, ip.baseDir)
	}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if extra := os.Getenv(PathEnvVar); extra != "" {
		roots = append(roots, filepath.SplitList(extra)...)
	}

	var tried []string
	for _, root := range roots {
		for _, cand := range []string{rel + DefaultExt, rel} {
			full := filepath.Join(root, cand)
			data, err := os.ReadFile(full)
			if err == nil {
				abs, aerr := filepath.Abs(full)
				if aerr != nil {
					abs = full
				}
				return abs, string(data), nil
			}
			tried = append(tried, full)
		}
	}
	return "", "", fmt.Errorf("no module named '%s' (tried: %s)", spec, strings.Join(tried, ", "))
}

// buildModuleMap snapshots a module environment's public bindings, in
// definition order. Names starting with '_' or the evaluator's hidden
// '*' slots stay private.
func buildModuleMap(env *Env) *MapObject {
	m := NewMap()
	for _, name := range env.defOrder {
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "*") {
			continue
		}
		if v, ok := env.table[name]; ok {
			m.Set(StrV(name), v)
		}
	}
	return m
}

// RunFile loads and evaluates a script file in Global, setting the
// script directory as the import base.
func (ip *Interpreter) RunFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NilV(), err
	}
	if abs, aerr := filepath.Abs(path); aerr == nil {
		ip.baseDir = filepath.Dir(abs)
	}
	ast, perr := Parse(string(data))
	if perr != nil {
		return NilV(), perr
	}
	return ip.EvalAST(ast, ip.Global)
}
