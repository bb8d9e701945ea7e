// builtin_strings.go — string manipulation builtins.
//
// All of these take the string as the first argument; Sharp has no
// method syntax on primitive values.
package sharp

import "strings"

func registerStringBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	reg("upper", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(strings.ToUpper(ip.argStr("upper()", args[0])))
	})

	reg("lower", 1, false, func(ip *Interpreter, args []Value) Value {
		return StrV(strings.ToLower(ip.argStr("lower()", args[0])))
	})

	reg("strip", 1, true, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("strip()", args[0])
		if len(args) > 1 {
			return StrV(strings.Trim(s, ip.argStr("strip()", args[1])))
		}
		return StrV(strings.TrimSpace(s))
	})

	reg("lstrip", 1, true, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("lstrip()", args[0])
		cut := " \t\r\n"
		if len(args) > 1 {
			cut = ip.argStr("lstrip()", args[1])
		}
		return StrV(strings.TrimLeft(s, cut))
	})

	reg("rstrip", 1, true, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("rstrip()", args[0])
		cut := " \t\r\n"
		if len(args) > 1 {
			cut = ip.argStr("rstrip()", args[1])
		}
		return StrV(strings.TrimRight(s, cut))
	})

	reg("split", 1, true, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("split()", args[0])
		var parts []string
		if len(args) > 1 {
			sep := ip.argStr("split()", args[1])
			if sep == "" {
				ip.throw("ValueError", "split(): empty separator")
			}
			parts = strings.Split(s, sep)
		} else {
			parts = strings.Fields(s)
		}
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = StrV(p)
		}
		return ListV(out)
	})

	reg("splitlines", 1, false, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("splitlines()", args[0])
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.TrimSuffix(s, "\n")
		if s == "" {
			return ListV(nil)
		}
		parts := strings.Split(s, "\n")
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = StrV(p)
		}
		return ListV(out)
	})

	reg("join", 2, false, func(ip *Interpreter, args []Value) Value {
		sep := ip.argStr("join()", args[0])
		items := ip.sequenceItems(args[1], "join()")
		parts := make([]string, len(items))
		for i, el := range items {
			parts[i] = ip.argStr("join()", el)
		}
		return StrV(strings.Join(parts, sep))
	})

	reg("replace", 3, false, func(ip *Interpreter, args []Value) Value {
		return StrV(strings.ReplaceAll(
			ip.argStr("replace()", args[0]),
			ip.argStr("replace()", args[1]),
			ip.argStr("replace()", args[2])))
	})

	reg("find", 2, false, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("find()", args[0])
		sub := ip.argStr("find()", args[1])
		byteIdx := strings.Index(s, sub)
		if byteIdx < 0 {
			return IntV(-1)
		}
		// report a rune index, consistent with len and subscripting
		return IntV(int64(len([]rune(s[:byteIdx]))))
	})

	reg("startswith", 2, false, func(ip *Interpreter, args []Value) Value {
		return BoolV(strings.HasPrefix(
			ip.argStr("startswith()", args[0]),
			ip.argStr("startswith()", args[1])))
	})

	reg("endswith", 2, false, func(ip *Interpreter, args []Value) Value {
		return BoolV(strings.HasSuffix(
			ip.argStr("endswith()", args[0]),
			ip.argStr("endswith()", args[1])))
	})

	reg("ord", 1, false, func(ip *Interpreter, args []Value) Value {
		s := ip.argStr("ord()", args[0])
		runes := []rune(s)
		if len(runes) != 1 {
			ip.throw("TypeError", "ord() expects a single character, got a string of length %d", len(runes))
		}
		return IntV(int64(runes[0]))
	})

	reg("chr", 1, false, func(ip *Interpreter, args []Value) Value {
		n := ip.argInt("chr()", args[0])
		if n < 0 || n > 0x10FFFF {
			ip.throw("ValueError", "chr() argument %d out of range", n)
		}
		return StrV(string(rune(n)))
	})

	reg("format", 1, true, func(ip *Interpreter, args []Value) Value {
		// "{} and {}" style positional substitution
		tmpl := ip.argStr("format()", args[0])
		var b strings.Builder
		next := 1
		for i := 0; i < len(tmpl); i++ {
			if tmpl[i] == '{' && i+1 < len(tmpl) && tmpl[i+1] == '}' {
				if next >= len(args) {
					ip.throw("ValueError", "format(): not enough arguments for template")
				}
				b.WriteString(ip.Str(args[next]))
				next++
				i++
				continue
			}
			b.WriteByte(tmpl[i])
		}
		return StrV(b.String())
	})
}
