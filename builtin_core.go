// builtin_core.go — core builtins: printing, conversions, introspection
// and the coroutine driver functions.
package sharp

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// argument helpers shared by all builtin_*.go files

func (ip *Interpreter) argStr(name string, v Value) string {
	if v.Tag != VTStr {
		ip.throw("TypeError", "%s expects a str, got '%s'", name, v.TypeName())
	}
	return v.AsStr()
}

func (ip *Interpreter) argInt(name string, v Value) int64 {
	if v.Tag != VTInt {
		ip.throw("TypeError", "%s expects an int, got '%s'", name, v.TypeName())
	}
	return v.AsInt()
}

func (ip *Interpreter) argNum(name string, v Value) float64 {
	switch v.Tag {
	case VTInt:
		return float64(v.AsInt())
	case VTNum:
		return v.AsNum()
	}
	ip.throw("TypeError", "%s expects a number, got '%s'", name, v.TypeName())
	return 0
}

func (ip *Interpreter) argList(name string, v Value) *ListObject {
	if v.Tag != VTList {
		ip.throw("TypeError", "%s expects a list, got '%s'", name, v.TypeName())
	}
	return v.List()
}

func (ip *Interpreter) argDict(name string, v Value) *MapObject {
	if v.Tag != VTDict {
		ip.throw("TypeError", "%s expects a dict, got '%s'", name, v.TypeName())
	}
	return v.Dict()
}

func registerCoreBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	reg("print", 0, true, func(ip *Interpreter, args []Value) Value {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = ip.Str(a)
		}
		fmt.Fprintln(ip.Stdout, strings.Join(parts, " "))
		return NilV()
	})

	reg("input", 0, true, func(ip *Interpreter, args []Value) Value {
		if len(args) > 0 {
			fmt.Fprint(ip.Stdout, ip.Str(args[0]))
		}
		r := bufio.NewReader(ip.Stdin)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return StrV("")
		}
		return StrV(strings.TrimRight(line, "\r\n"))
	})

	reg("len", 1, false, func(ip *Interpreter, args []Value) Value {
		switch v := args[0]; v.Tag {
		case VTStr:
			return IntV(int64(len([]rune(v.AsStr()))))
		case VTList:
			return IntV(int64(len(v.List().Items)))
		case VTTuple:
			return IntV(int64(len(v.Tuple())))
		case VTDict:
			return IntV(int64(v.Dict().Len()))
		}
		ip.throw("TypeError", "len() expects a sized value, got '%s'", args[0].TypeName())
		return NilV()
	})

	reg("type", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(args[0].TypeName())
	})

	reg("isinstance", 2, false, func(ip *Interpreter, args []Value) Value {
		cls := args[1]
		if cls.Tag != VTClass {
			ip.throw("TypeError", "isinstance() expects a class as its second argument")
		}
		var c *Class
		switch args[0].Tag {
		case VTInstance:
			c = args[0].Data.(*Instance).Class
		case VTExc:
			c = args[0].Data.(*ExcValue).Class
		default:
			return BoolV(false)
		}
		for _, anc := range classLinear(c) {
			if anc == cls.Data.(*Class) {
				return BoolV(true)
			}
		}
		return BoolV(false)
	})

	reg("str", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(ip.Str(args[0]))
	})

	reg("repr", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(ip.Repr(args[0]))
	})

	reg("int", 1, false, func(ip *Interpreter, args []Value) Value {
		switch v := args[0]; v.Tag {
		case VTInt:
			return v
		case VTNum:
			return IntV(int64(v.AsNum()))
		case VTBool:
			if v.AsBool() {
				return IntV(1)
			}
			return IntV(0)
		case VTStr:
			n, err := strconv.ParseInt(strings.TrimSpace(v.AsStr()), 10, 64)
			if err != nil {
				ip.throw("ValueError", "invalid literal for int(): %q", v.AsStr())
			}
			return IntV(n)
		}
		ip.throw("TypeError", "int() cannot convert '%s'", args[0].TypeName())
		return NilV()
	})

	reg("float", 1, false, func(ip *Interpreter, args []Value) Value {
		switch v := args[0]; v.Tag {
		case VTNum:
			return v
		case VTInt:
			return NumV(float64(v.AsInt()))
		case VTStr:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.AsStr()), 64)
			if err != nil {
				ip.throw("ValueError", "invalid literal for float(): %q", v.AsStr())
			}
			return NumV(f)
		}
		ip.throw("TypeError", "float() cannot convert '%s'", args[0].TypeName())
		return NilV()
	})

	reg("bool", 1, false, func(ip *Interpreter, args []Value) Value {
		return BoolV(truthy(args[0]))
	})

	reg("list", 1, false, func(ip *Interpreter, args []Value) Value {
		return ListV(ip.sequenceItems(args[0], "list()"))
	})

	reg("tuple", 1, false, func(ip *Interpreter, args []Value) Value {
		return TupleV(ip.sequenceItems(args[0], "tuple()"))
	})

	reg("dict", 0, true, func(ip *Interpreter, args []Value) Value {
		m := NewMap()
		if len(args) == 1 {
			switch src := args[0]; src.Tag {
			case VTDict:
				src.Dict().Each(func(k, v Value) { m.Set(k, v) })
			case VTList:
				for _, el := range src.List().Items {
					pair := ip.sequenceItems(el, "dict()")
					if len(pair) != 2 {
						ip.throw("ValueError", "dict() expects (key, value) pairs")
					}
					if !m.Set(pair[0], pair[1]) {
						ip.throw("TypeError", "unhashable dict key of type '%s'", pair[0].TypeName())
					}
				}
			default:
				ip.throw("TypeError", "dict() cannot convert '%s'", src.TypeName())
			}
		} else if len(args) > 1 {
			ip.throw("TypeError", "dict() expects at most 1 argument, got %d", len(args))
		}
		return DictV(m)
	})

	reg("range", 1, true, func(ip *Interpreter, args []Value) Value {
		var start, stop, step int64 = 0, 0, 1
		switch len(args) {
		case 1:
			stop = ip.argInt("range()", args[0])
		case 2:
			start = ip.argInt("range()", args[0])
			stop = ip.argInt("range()", args[1])
		case 3:
			start = ip.argInt("range()", args[0])
			stop = ip.argInt("range()", args[1])
			step = ip.argInt("range()", args[2])
			if step == 0 {
				ip.throw("ValueError", "range() step cannot be zero")
			}
		default:
			ip.throw("TypeError", "range() expects 1 to 3 arguments, got %d", len(args))
		}
		var out []Value
		if step > 0 {
			for i := start; i < stop; i += step {
				out = append(out, IntV(i))
			}
		} else {
			for i := start; i > stop; i += step {
				out = append(out, IntV(i))
			}
		}
		return ListV(out)
	})

	reg("hash", 1, false, func(ip *Interpreter, args []Value) Value {
		h, ok := hashKey(args[0])
		if !ok {
			ip.throw("TypeError", "unhashable value of type '%s'", args[0].TypeName())
		}
		var acc int64 = 1469598103934665603
		for i := 0; i < len(h); i++ {
			acc ^= int64(h[i])
			acc *= 1099511628211
		}
		return IntV(acc)
	})

	reg("callable", 1, false, func(ip *Interpreter, args []Value) Value {
		switch args[0].Tag {
		case VTFun, VTBuiltin, VTBound, VTClass:
			return BoolV(true)
		}
		return BoolV(false)
	})

	// generator protocol

	reg("next", 1, true, func(ip *Interpreter, args []Value) Value {
		g, ok := args[0].Data.(*Generator)
		if args[0].Tag != VTGen || !ok {
			ip.throw("TypeError", "next() expects a generator, got '%s'", args[0].TypeName())
		}
		v, more := g.Next(NilV())
		if !more {
			if len(args) > 1 {
				return args[1] // default instead of StopIteration
			}
			ip.throw("StopIteration", "generator '%s' is exhausted", g.Name)
		}
		return v
	})

	reg("send", 2, false, func(ip *Interpreter, args []Value) Value {
		g, ok := args[0].Data.(*Generator)
		if args[0].Tag != VTGen || !ok {
			ip.throw("TypeError", "send() expects a generator, got '%s'", args[0].TypeName())
		}
		v, more := g.Next(args[1])
		if !more {
			ip.throw("StopIteration", "generator '%s' is exhausted", g.Name)
		}
		return v
	})

	reg("close", 1, false, func(ip *Interpreter, args []Value) Value {
		if args[0].Tag != VTGen {
			ip.throw("TypeError", "close() expects a generator, got '%s'", args[0].TypeName())
		}
		args[0].Data.(*Generator).Close()
		return NilV()
	})

	// async drivers

	reg("run", 1, false, func(ip *Interpreter, args []Value) Value {
		if args[0].Tag != VTTask {
			ip.throw("TypeError", "run() expects a task, got '%s'", args[0].TypeName())
		}
		return args[0].Data.(*Task).Await()
	})

	reg("gather", 0, true, func(ip *Interpreter, args []Value) Value {
		out := make([]Value, 0, len(args))
		for _, a := range args {
			if a.Tag != VTTask {
				ip.throw("TypeError", "gather() expects tasks, got '%s'", a.TypeName())
			}
			out = append(out, a.Data.(*Task).Await())
		}
		return ListV(out)
	})
}
