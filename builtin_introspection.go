// builtin_introspection.go — runtime reflection over objects and scopes.
package sharp

import (
	"sort"
	"strings"
)

func registerIntrospectionBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	// dir(x) lists the attribute names of an instance, class or module.
	reg("dir", 1, false, func(ip *Interpreter, args []Value) Value {
		var names []string
		seen := map[string]bool{}
		add := func(n string) {
			if !seen[n] && !strings.HasPrefix(n, "*") {
				seen[n] = true
				names = append(names, n)
			}
		}
		switch v := args[0]; v.Tag {
		case VTInstance:
			in := v.Data.(*Instance)
			for _, n := range in.Order {
				add(n)
			}
			for _, c := range classLinear(in.Class) {
				for _, n := range c.Order {
					add(n)
				}
			}
		case VTClass:
			for _, c := range classLinear(v.Data.(*Class)) {
				for _, n := range c.Order {
					add(n)
				}
			}
		case VTModule:
			v.Data.(*Module).Map.Each(func(k, _ Value) {
				if k.Tag == VTStr {
					add(k.AsStr())
				}
			})
		case VTExc:
			for _, n := range []string{"message", "args", "cause"} {
				add(n)
			}
		default:
			ip.throw("TypeError", "dir() expects an object, class or module, got '%s'", v.TypeName())
		}
		sort.Strings(names)
		out := make([]Value, len(names))
		for i, n := range names {
			out[i] = StrV(n)
		}
		return ListV(out)
	})

	reg("getattr", 2, true, func(ip *Interpreter, args []Value) Value {
		name := ip.argStr("getattr()", args[1])
		if len(args) > 2 {
			v, ok := ip.tryGetAttr(args[0], name)
			if !ok {
				return args[2]
			}
			return v
		}
		return ip.getAttr(args[0], name)
	})

	reg("setattr", 3, false, func(ip *Interpreter, args []Value) Value {
		ip.setAttr(args[0], ip.argStr("setattr()", args[1]), args[2])
		return NilV()
	})

	reg("hasattr", 2, false, func(ip *Interpreter, args []Value) Value {
		_, ok := ip.tryGetAttr(args[0], ip.argStr("hasattr()", args[1]))
		return BoolV(ok)
	})

	// vars(x) returns an instance's own fields as a dict.
	reg("vars", 1, false, func(ip *Interpreter, args []Value) Value {
		if args[0].Tag != VTInstance {
			ip.throw("TypeError", "vars() expects an object, got '%s'", args[0].TypeName())
		}
		in := args[0].Data.(*Instance)
		m := NewMap()
		for _, n := range in.Order {
			m.Set(StrV(n), in.Fields[n])
		}
		return DictV(m)
	})
}

// tryGetAttr is getAttr with AttributeError converted to (zero, false).
func (ip *Interpreter) tryGetAttr(obj Value, name string) (v Value, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rs, isRaise := r.(raiseSig)
			if isRaise && rs.exc.Class == ip.excClasses["AttributeError"] {
				ok = false
				return
			}
			panic(r)
		}
	}()
	return ip.getAttr(obj, name), true
}
