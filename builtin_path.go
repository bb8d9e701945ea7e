// builtin_path.go — filesystem path helpers.
package sharp

import "path/filepath"

func registerPathBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	// path_join("a", "b", "c") -> "a/b/c" with the OS separator
	reg("path_join", 1, true, func(ip *Interpreter, args []Value) Value {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = ip.argStr("path_join()", a)
		}
		return StrV(filepath.Join(parts...))
	})

	reg("basename", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(filepath.Base(ip.argStr("basename()", args[0])))
	})

	reg("dirname", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(filepath.Dir(ip.argStr("dirname()", args[0])))
	})

	// splitext("a/b.txt") -> ("a/b", ".txt")
	reg("splitext", 1, false, func(ip *Interpreter, args []Value) Value {
		p := ip.argStr("splitext()", args[0])
		ext := filepath.Ext(p)
		return TupleV([]Value{StrV(p[:len(p)-len(ext)]), StrV(ext)})
	})

	reg("abspath", 1, false, func(ip *Interpreter, args []Value) Value {
		abs, err := filepath.Abs(ip.argStr("abspath()", args[0]))
		if err != nil {
			ip.throw("RuntimeFault", "abspath(): %s", err.Error())
		}
		return StrV(abs)
	})
}
