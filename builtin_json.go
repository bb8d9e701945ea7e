// builtin_json.go — JSON encoding and decoding.
//
// json_dumps maps Sharp values onto JSON: nil/bool/int/float/str map
// directly, lists and tuples become arrays, dicts become objects (keys
// stringified through Str). json_loads maps back: objects become dicts
// with string keys, numbers become int when they are whole.
package sharp

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
)

func registerJSONBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	reg("json_dumps", 1, true, func(ip *Interpreter, args []Value) Value {
		indent := ""
		if len(args) > 1 {
			n := ip.argInt("json_dumps()", args[1])
			for i := int64(0); i < n; i++ {
				indent += " "
			}
		}
		goVal := ip.toJSONValue(args[0])
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if indent != "" {
			enc.SetIndent("", indent)
		}
		if err := enc.Encode(goVal); err != nil {
			ip.throw("ValueError", "json_dumps(): %s", err.Error())
		}
		return StrV(string(bytes.TrimRight(buf.Bytes(), "\n")))
	})

	reg("json_loads", 1, false, func(ip *Interpreter, args []Value) Value {
		src := ip.argStr("json_loads()", args[0])
		dec := json.NewDecoder(bytes.NewReader([]byte(src)))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			ip.throw("ValueError", "json_loads(): %s", err.Error())
		}
		return ip.fromJSONValue(raw)
	})
}

func (ip *Interpreter) toJSONValue(v Value) any {
	switch v.Tag {
	case VTNil:
		return nil
	case VTBool:
		return v.AsBool()
	case VTInt:
		return v.AsInt()
	case VTNum:
		f := v.AsNum()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			ip.throw("ValueError", "json_dumps(): cannot encode %s", formatFloat(f))
		}
		return f
	case VTStr:
		return v.AsStr()
	case VTList:
		items := v.List().Items
		out := make([]any, len(items))
		for i, el := range items {
			out[i] = ip.toJSONValue(el)
		}
		return out
	case VTTuple:
		items := v.Tuple()
		out := make([]any, len(items))
		for i, el := range items {
			out[i] = ip.toJSONValue(el)
		}
		return out
	case VTDict:
		out := map[string]any{}
		v.Dict().Each(func(k, val Value) {
			out[ip.Str(k)] = ip.toJSONValue(val)
		})
		return out
	}
	ip.throw("TypeError", "json_dumps(): cannot encode '%s'", v.TypeName())
	return nil
}

func (ip *Interpreter) fromJSONValue(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return NilV()
	case bool:
		return BoolV(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return IntV(n)
		}
		f, err := x.Float64()
		if err != nil {
			ip.throw("ValueError", "json_loads(): bad number %q", x.String())
		}
		return NumV(f)
	case string:
		return StrV(x)
	case []any:
		out := make([]Value, len(x))
		for i, el := range x {
			out[i] = ip.fromJSONValue(el)
		}
		return ListV(out)
	case map[string]any:
		// decode in a stable order; encoding/json maps lose source order
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(StrV(k), ip.fromJSONValue(x[k]))
		}
		return DictV(m)
	}
	ip.throw("ValueError", "json_loads(): unsupported JSON value")
	return NilV()
}
