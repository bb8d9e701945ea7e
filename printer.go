// printer.go — user-facing value formatting.
//
// Str is the plain form used by print and string conversion; Repr is the
// quoted form used by the REPL, error messages and container elements.
package sharp

import (
	"fmt"
	"strconv"
	"strings"
)

// Str renders v the way print shows it: strings bare, everything else as
// Repr.
func (ip *Interpreter) Str(v Value) string {
	if v.Tag == VTStr {
		return v.AsStr()
	}
	return ip.Repr(v)
}

// Repr renders v unambiguously.
func (ip *Interpreter) Repr(v Value) string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case VTInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case VTNum:
		return formatFloat(v.AsNum())
	case VTStr:
		return strconv.Quote(v.AsStr())
	case VTList:
		var b strings.Builder
		b.WriteByte('[')
		for i, el := range v.List().Items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ip.Repr(el))
		}
		b.WriteByte(']')
		return b.String()
	case VTTuple:
		items := v.Tuple()
		var b strings.Builder
		b.WriteByte('(')
		for i, el := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ip.Repr(el))
		}
		if len(items) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
		return b.String()
	case VTDict:
		var b strings.Builder
		b.WriteByte('{')
		first := true
		v.Dict().Each(func(k, val Value) {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(ip.Repr(k))
			b.WriteString(": ")
			b.WriteString(ip.Repr(val))
		})
		b.WriteByte('}')
		return b.String()
	case VTFun:
		fn := v.Data.(*Fun)
		kind := "function"
		if fn.IsGen {
			kind = "generator function"
		} else if fn.IsAsync {
			kind = "async function"
		}
		return fmt.Sprintf("<%s %s>", kind, fn.displayName())
	case VTBuiltin:
		return fmt.Sprintf("<builtin function %s>", v.Data.(*Builtin).Name)
	case VTBound:
		bm := v.Data.(*BoundMethod)
		return fmt.Sprintf("<bound method %s>", bm.Fn.displayName())
	case VTClass:
		return fmt.Sprintf("<class %s>", v.Data.(*Class).Name)
	case VTInstance:
		in := v.Data.(*Instance)
		return fmt.Sprintf("<%s object>", in.Class.Name)
	case VTGen:
		return fmt.Sprintf("<generator %s>", v.Data.(*Generator).Name)
	case VTTask:
		return fmt.Sprintf("<task %s>", v.Data.(*Task).Name)
	case VTExc:
		return v.Data.(*ExcValue).String()
	case VTModule:
		return fmt.Sprintf("<module %s>", v.Data.(*Module).Name)
	case VTSuper:
		return "<super>"
	}
	return "<unknown>"
}

// formatFloat keeps a trailing ".0" on whole floats so they stay
// visually distinct from ints.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}
