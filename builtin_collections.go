// builtin_collections.go — list, tuple and dict helpers.
package sharp

import "sort"

func registerCollectionBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	reg("append", 2, false, func(ip *Interpreter, args []Value) Value {
		lst := ip.argList("append()", args[0])
		lst.Items = append(lst.Items, args[1])
		return args[0]
	})

	reg("extend", 2, false, func(ip *Interpreter, args []Value) Value {
		lst := ip.argList("extend()", args[0])
		lst.Items = append(lst.Items, ip.sequenceItems(args[1], "extend()")...)
		return args[0]
	})

	reg("insert", 3, false, func(ip *Interpreter, args []Value) Value {
		lst := ip.argList("insert()", args[0])
		i := ip.argInt("insert()", args[1])
		n := int64(len(lst.Items))
		if i < 0 {
			i += n
		}
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
		lst.Items = append(lst.Items, NilV())
		copy(lst.Items[i+1:], lst.Items[i:])
		lst.Items[i] = args[2]
		return args[0]
	})

	reg("pop", 1, true, func(ip *Interpreter, args []Value) Value {
		lst := ip.argList("pop()", args[0])
		n := int64(len(lst.Items))
		if n == 0 {
			ip.throw("IndexError", "pop from empty list")
		}
		i := n - 1
		if len(args) > 1 {
			i = ip.argInt("pop()", args[1])
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				ip.throw("IndexError", "pop index %d out of range (len %d)", i, n)
			}
		}
		v := lst.Items[i]
		lst.Items = append(lst.Items[:i], lst.Items[i+1:]...)
		return v
	})

	reg("remove", 2, false, func(ip *Interpreter, args []Value) Value {
		lst := ip.argList("remove()", args[0])
		for i, el := range lst.Items {
			if valueEquals(el, args[1]) {
				lst.Items = append(lst.Items[:i], lst.Items[i+1:]...)
				return NilV()
			}
		}
		ip.throw("ValueError", "remove(): value not in list")
		return NilV()
	})

	reg("index", 2, false, func(ip *Interpreter, args []Value) Value {
		items := ip.sequenceItems(args[0], "index()")
		for i, el := range items {
			if valueEquals(el, args[1]) {
				return IntV(int64(i))
			}
		}
		ip.throw("ValueError", "index(): value not found")
		return NilV()
	})

	reg("count", 2, false, func(ip *Interpreter, args []Value) Value {
		var n int64
		for _, el := range ip.sequenceItems(args[0], "count()") {
			if valueEquals(el, args[1]) {
				n++
			}
		}
		return IntV(n)
	})

	// dict helpers

	reg("keys", 1, false, func(ip *Interpreter, args []Value) Value {
		return ListV(ip.argDict("keys()", args[0]).Keys())
	})

	reg("values", 1, false, func(ip *Interpreter, args []Value) Value {
		var out []Value
		ip.argDict("values()", args[0]).Each(func(_, v Value) { out = append(out, v) })
		return ListV(out)
	})

	reg("items", 1, false, func(ip *Interpreter, args []Value) Value {
		var out []Value
		ip.argDict("items()", args[0]).Each(func(k, v Value) {
			out = append(out, TupleV([]Value{k, v}))
		})
		return ListV(out)
	})

	reg("get", 2, true, func(ip *Interpreter, args []Value) Value {
		m := ip.argDict("get()", args[0])
		if v, ok := m.Get(args[1]); ok {
			return v
		}
		if len(args) > 2 {
			return args[2]
		}
		return NilV()
	})

	reg("delete", 2, false, func(ip *Interpreter, args []Value) Value {
		m := ip.argDict("delete()", args[0])
		if !m.Delete(args[1]) {
			ip.throw("KeyError", "%s", ip.Repr(args[1]))
		}
		return NilV()
	})

	reg("update", 2, false, func(ip *Interpreter, args []Value) Value {
		m := ip.argDict("update()", args[0])
		ip.argDict("update()", args[1]).Each(func(k, v Value) { m.Set(k, v) })
		return args[0]
	})

	// functional helpers

	reg("map", 2, false, func(ip *Interpreter, args []Value) Value {
		var out []Value
		for _, el := range ip.sequenceItems(args[1], "map()") {
			out = append(out, ip.call(args[0], []Value{el}, nil, ip.curLine, ip.curCol))
		}
		return ListV(out)
	})

	reg("filter", 2, false, func(ip *Interpreter, args []Value) Value {
		var out []Value
		for _, el := range ip.sequenceItems(args[1], "filter()") {
			if truthy(ip.call(args[0], []Value{el}, nil, ip.curLine, ip.curCol)) {
				out = append(out, el)
			}
		}
		return ListV(out)
	})

	reg("reduce", 3, false, func(ip *Interpreter, args []Value) Value {
		acc := args[2]
		for _, el := range ip.sequenceItems(args[1], "reduce()") {
			acc = ip.call(args[0], []Value{acc, el}, nil, ip.curLine, ip.curCol)
		}
		return acc
	})

	reg("sorted", 1, true, func(ip *Interpreter, args []Value) Value {
		items := ip.sequenceItems(args[0], "sorted()")
		keyOf := func(v Value) Value { return v }
		if len(args) > 1 && args[1].Tag != VTNil {
			keyFn := args[1]
			keyOf = func(v Value) Value {
				return ip.call(keyFn, []Value{v}, nil, ip.curLine, ip.curCol)
			}
		}
		reverse := len(args) > 2 && truthy(args[2])
		var sortErr bool
		sort.SliceStable(items, func(i, j int) bool {
			c, ok := compare(keyOf(items[i]), keyOf(items[j]))
			if !ok {
				sortErr = true
				return false
			}
			if reverse {
				return c > 0
			}
			return c < 0
		})
		if sortErr {
			ip.throw("TypeError", "sorted(): elements are not orderable")
		}
		return ListV(items)
	})

	reg("reversed", 1, false, func(ip *Interpreter, args []Value) Value {
		items := ip.sequenceItems(args[0], "reversed()")
		out := make([]Value, len(items))
		for i, el := range items {
			out[len(items)-1-i] = el
		}
		return ListV(out)
	})

	reg("enumerate", 1, true, func(ip *Interpreter, args []Value) Value {
		start := int64(0)
		if len(args) > 1 {
			start = ip.argInt("enumerate()", args[1])
		}
		var out []Value
		for i, el := range ip.sequenceItems(args[0], "enumerate()") {
			out = append(out, TupleV([]Value{IntV(start + int64(i)), el}))
		}
		return ListV(out)
	})

	reg("zip", 0, true, func(ip *Interpreter, args []Value) Value {
		cols := make([][]Value, len(args))
		shortest := -1
		for i, a := range args {
			cols[i] = ip.sequenceItems(a, "zip()")
			if shortest < 0 || len(cols[i]) < shortest {
				shortest = len(cols[i])
			}
		}
		var out []Value
		for r := 0; r < shortest; r++ {
			row := make([]Value, len(cols))
			for c := range cols {
				row[c] = cols[c][r]
			}
			out = append(out, TupleV(row))
		}
		return ListV(out)
	})

	reg("min", 1, true, func(ip *Interpreter, args []Value) Value {
		return ip.pickExtreme("min()", args, -1)
	})

	reg("max", 1, true, func(ip *Interpreter, args []Value) Value {
		return ip.pickExtreme("max()", args, 1)
	})

	reg("sum", 1, true, func(ip *Interpreter, args []Value) Value {
		acc := IntV(0)
		if len(args) > 1 {
			acc = args[1]
		}
		for _, el := range ip.sequenceItems(args[0], "sum()") {
			acc = ip.binop("+", acc, el)
		}
		return acc
	})

	reg("any", 1, false, func(ip *Interpreter, args []Value) Value {
		for _, el := range ip.sequenceItems(args[0], "any()") {
			if truthy(el) {
				return BoolV(true)
			}
		}
		return BoolV(false)
	})

	reg("all", 1, false, func(ip *Interpreter, args []Value) Value {
		for _, el := range ip.sequenceItems(args[0], "all()") {
			if !truthy(el) {
				return BoolV(false)
			}
		}
		return BoolV(true)
	})
}

// pickExtreme implements min and max: either over one iterable or over
// the argument list itself.
func (ip *Interpreter) pickExtreme(what string, args []Value, dir int) Value {
	items := args
	if len(args) == 1 {
		items = ip.sequenceItems(args[0], what)
	}
	if len(items) == 0 {
		ip.throw("ValueError", "%s of an empty sequence", what)
	}
	best := items[0]
	for _, el := range items[1:] {
		c, ok := compare(el, best)
		if !ok {
			ip.throw("TypeError", "%s: elements are not orderable", what)
		}
		if (dir < 0 && c < 0) || (dir > 0 && c > 0) {
			best = el
		}
	}
	return best
}
