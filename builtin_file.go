// builtin_file.go — whole-file and directory helpers.
//
// Sharp deliberately has no open/handle API; scripts read and write
// files in one shot. Failures raise RuntimeFault with the OS message.
package sharp

import (
	"os"
	"sort"
)

func registerFileBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	reg("read_file", 1, false, func(ip *Interpreter, args []Value) Value {
		data, err := os.ReadFile(ip.argStr("read_file()", args[0]))
		if err != nil {
			ip.throw("RuntimeFault", "read_file(): %s", err.Error())
		}
		return StrV(string(data))
	})

	reg("write_file", 2, false, func(ip *Interpreter, args []Value) Value {
		path := ip.argStr("write_file()", args[0])
		data := ip.argStr("write_file()", args[1])
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			ip.throw("RuntimeFault", "write_file(): %s", err.Error())
		}
		return NilV()
	})

	reg("append_file", 2, false, func(ip *Interpreter, args []Value) Value {
		path := ip.argStr("append_file()", args[0])
		data := ip.argStr("append_file()", args[1])
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			ip.throw("RuntimeFault", "append_file(): %s", err.Error())
		}
		_, werr := f.WriteString(data)
		cerr := f.Close()
		if werr != nil {
			ip.throw("RuntimeFault", "append_file(): %s", werr.Error())
		}
		if cerr != nil {
			ip.throw("RuntimeFault", "append_file(): %s", cerr.Error())
		}
		return NilV()
	})

	reg("file_exists", 1, false, func(ip *Interpreter, args []Value) Value {
		_, err := os.Stat(ip.argStr("file_exists()", args[0]))
		return BoolV(err == nil)
	})

	reg("listdir", 0, true, func(ip *Interpreter, args []Value) Value {
		dir := "."
		if len(args) > 0 {
			dir = ip.argStr("listdir()", args[0])
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			ip.throw("RuntimeFault", "listdir(): %s", err.Error())
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		sort.Strings(names)
		out := make([]Value, len(names))
		for i, n := range names {
			out[i] = StrV(n)
		}
		return ListV(out)
	})

	reg("mkdir", 1, false, func(ip *Interpreter, args []Value) Value {
		if err := os.MkdirAll(ip.argStr("mkdir()", args[0]), 0o755); err != nil {
			ip.throw("RuntimeFault", "mkdir(): %s", err.Error())
		}
		return NilV()
	})

	reg("remove_file", 1, false, func(ip *Interpreter, args []Value) Value {
		if err := os.Remove(ip.argStr("remove_file()", args[0])); err != nil {
			ip.throw("RuntimeFault", "remove_file(): %s", err.Error())
		}
		return NilV()
	})

	reg("getcwd", 0, false, func(ip *Interpreter, args []Value) Value {
		cwd, err := os.Getwd()
		if err != nil {
			ip.throw("RuntimeFault", "getcwd(): %s", err.Error())
		}
		return StrV(cwd)
	})

	reg("chdir", 1, false, func(ip *Interpreter, args []Value) Value {
		if err := os.Chdir(ip.argStr("chdir()", args[0])); err != nil {
			ip.throw("RuntimeFault", "chdir(): %s", err.Error())
		}
		return NilV()
	})

	reg("getenv", 1, true, func(ip *Interpreter, args []Value) Value {
		v, ok := os.LookupEnv(ip.argStr("getenv()", args[0]))
		if !ok {
			if len(args) > 1 {
				return args[1]
			}
			return NilV()
		}
		return StrV(v)
	})
}
