// interpreter_ops.go — operators, truthiness, equality, subscripts and
// the iteration protocol.
package sharp

import (
	"math"
	"strings"
)

// truthy implements the language's truth rules: nil, false, zero, the
// empty string and empty containers are falsy, everything else is truthy.
func truthy(v Value) bool {
	switch v.Tag {
	case VTNil:
		return false
	case VTBool:
		return v.AsBool()
	case VTInt:
		return v.AsInt() != 0
	case VTNum:
		return v.AsNum() != 0
	case VTStr:
		return v.AsStr() != ""
	case VTList:
		return len(v.List().Items) > 0
	case VTTuple:
		return len(v.Tuple()) > 0
	case VTDict:
		return v.Dict().Len() > 0
	}
	return true
}

// numeric coercion helpers

func isNumber(v Value) bool { return v.Tag == VTInt || v.Tag == VTNum }

func toFloat(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.AsInt())
	}
	return v.AsNum()
}

// valueEquals is deep structural equality. Functions, classes, instances
// and other reference values compare by identity.
func valueEquals(a, b Value) bool {
	if isNumber(a) && isNumber(b) {
		if a.Tag == VTInt && b.Tag == VTInt {
			return a.AsInt() == b.AsInt()
		}
		return toFloat(a) == toFloat(b)
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNil:
		return true
	case VTBool:
		return a.AsBool() == b.AsBool()
	case VTStr:
		return a.AsStr() == b.AsStr()
	case VTList:
		x, y := a.List().Items, b.List().Items
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEquals(x[i], y[i]) {
				return false
			}
		}
		return true
	case VTTuple:
		x, y := a.Tuple(), b.Tuple()
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEquals(x[i], y[i]) {
				return false
			}
		}
		return true
	case VTDict:
		x, y := a.Dict(), b.Dict()
		if x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Each(func(k, v Value) {
			if !eq {
				return
			}
			ov, ok := y.Get(k)
			if !ok || !valueEquals(v, ov) {
				eq = false
			}
		})
		return eq
	default:
		return a.Data == b.Data
	}
}

// compare orders two values; ok is false when they are not orderable.
func compare(a, b Value) (int, bool) {
	if isNumber(a) && isNumber(b) {
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if a.Tag == VTStr && b.Tag == VTStr {
		return strings.Compare(a.AsStr(), b.AsStr()), true
	}
	if (a.Tag == VTList && b.Tag == VTList) || (a.Tag == VTTuple && b.Tag == VTTuple) {
		var x, y []Value
		if a.Tag == VTList {
			x, y = a.List().Items, b.List().Items
		} else {
			x, y = a.Tuple(), b.Tuple()
		}
		for i := 0; i < len(x) && i < len(y); i++ {
			c, ok := compare(x[i], y[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		switch {
		case len(x) < len(y):
			return -1, true
		case len(x) > len(y):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// binop implements the non-short-circuit binary operators.
func (ip *Interpreter) binop(op string, a, b Value) Value {
	switch op {
	case "==":
		return BoolV(valueEquals(a, b))
	case "!=":
		return BoolV(!valueEquals(a, b))
	case "<", "<=", ">", ">=":
		c, ok := compare(a, b)
		if !ok {
			ip.throw("TypeError", "'%s' not supported between '%s' and '%s'", op, a.TypeName(), b.TypeName())
		}
		switch op {
		case "<":
			return BoolV(c < 0)
		case "<=":
			return BoolV(c <= 0)
		case ">":
			return BoolV(c > 0)
		default:
			return BoolV(c >= 0)
		}
	case "in":
		return BoolV(ip.contains(b, a))
	case "not in":
		return BoolV(!ip.contains(b, a))
	case "+":
		switch {
		case a.Tag == VTInt && b.Tag == VTInt:
			return IntV(a.AsInt() + b.AsInt())
		case isNumber(a) && isNumber(b):
			return NumV(toFloat(a) + toFloat(b))
		case a.Tag == VTStr && b.Tag == VTStr:
			return StrV(a.AsStr() + b.AsStr())
		case a.Tag == VTList && b.Tag == VTList:
			out := append(append([]Value{}, a.List().Items...), b.List().Items...)
			return ListV(out)
		case a.Tag == VTTuple && b.Tag == VTTuple:
			out := append(append([]Value{}, a.Tuple()...), b.Tuple()...)
			return TupleV(out)
		}
	case "-":
		switch {
		case a.Tag == VTInt && b.Tag == VTInt:
			return IntV(a.AsInt() - b.AsInt())
		case isNumber(a) && isNumber(b):
			return NumV(toFloat(a) - toFloat(b))
		}
	case "*":
		switch {
		case a.Tag == VTInt && b.Tag == VTInt:
			return IntV(a.AsInt() * b.AsInt())
		case isNumber(a) && isNumber(b):
			return NumV(toFloat(a) * toFloat(b))
		case a.Tag == VTStr && b.Tag == VTInt:
			return StrV(strings.Repeat(a.AsStr(), clampRepeat(b.AsInt())))
		case a.Tag == VTInt && b.Tag == VTStr:
			return StrV(strings.Repeat(b.AsStr(), clampRepeat(a.AsInt())))
		case a.Tag == VTList && b.Tag == VTInt:
			return ListV(repeatItems(a.List().Items, b.AsInt()))
		case a.Tag == VTInt && b.Tag == VTList:
			return ListV(repeatItems(b.List().Items, a.AsInt()))
		}
	case "/":
		switch {
		case a.Tag == VTInt && b.Tag == VTInt:
			if b.AsInt() == 0 {
				ip.throw("ZeroDivisionError", "integer division by zero")
			}
			return IntV(floorDivInt(a.AsInt(), b.AsInt()))
		case isNumber(a) && isNumber(b):
			if toFloat(b) == 0 {
				ip.throw("ZeroDivisionError", "float division by zero")
			}
			return NumV(toFloat(a) / toFloat(b))
		}
	case "%":
		switch {
		case a.Tag == VTInt && b.Tag == VTInt:
			if b.AsInt() == 0 {
				ip.throw("ZeroDivisionError", "integer modulo by zero")
			}
			return IntV(floorModInt(a.AsInt(), b.AsInt()))
		case isNumber(a) && isNumber(b):
			if toFloat(b) == 0 {
				ip.throw("ZeroDivisionError", "float modulo by zero")
			}
			return NumV(math.Mod(toFloat(a), toFloat(b)))
		}
	case "**":
		switch {
		case a.Tag == VTInt && b.Tag == VTInt && b.AsInt() >= 0:
			return IntV(intPow(a.AsInt(), b.AsInt()))
		case isNumber(a) && isNumber(b):
			return NumV(math.Pow(toFloat(a), toFloat(b)))
		}
	case "&", "|", "^", "<<", ">>":
		if a.Tag == VTInt && b.Tag == VTInt {
			x, y := a.AsInt(), b.AsInt()
			switch op {
			case "&":
				return IntV(x & y)
			case "|":
				return IntV(x | y)
			case "^":
				return IntV(x ^ y)
			case "<<":
				if y < 0 {
					ip.throw("ValueError", "negative shift count")
				}
				return IntV(x << uint(y))
			default:
				if y < 0 {
					ip.throw("ValueError", "negative shift count")
				}
				return IntV(x >> uint(y))
			}
		}
	}
	ip.throw("TypeError", "unsupported operand types for '%s': '%s' and '%s'", op, a.TypeName(), b.TypeName())
	return NilV()
}

func (ip *Interpreter) unop(op string, v Value) Value {
	switch op {
	case "not":
		return BoolV(!truthy(v))
	case "-":
		switch v.Tag {
		case VTInt:
			return IntV(-v.AsInt())
		case VTNum:
			return NumV(-v.AsNum())
		}
	case "+":
		if isNumber(v) {
			return v
		}
	case "~":
		if v.Tag == VTInt {
			return IntV(^v.AsInt())
		}
	}
	ip.throw("TypeError", "unsupported operand type for unary '%s': '%s'", op, v.TypeName())
	return NilV()
}

func clampRepeat(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}

func repeatItems(items []Value, n int64) []Value {
	var out []Value
	for i := int64(0); i < n; i++ {
		out = append(out, items...)
	}
	return out
}

// floorDivInt and floorModInt round toward negative infinity, matching
// the language's arithmetic on negatives.
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

func intPow(base, exp int64) int64 {
	out := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			out *= base
		}
		base *= base
		exp >>= 1
	}
	return out
}

// contains implements the 'in' operator.
func (ip *Interpreter) contains(container, item Value) bool {
	switch container.Tag {
	case VTStr:
		if item.Tag != VTStr {
			ip.throw("TypeError", "'in <str>' requires a string operand, got '%s'", item.TypeName())
		}
		return strings.Contains(container.AsStr(), item.AsStr())
	case VTList:
		for _, el := range container.List().Items {
			if valueEquals(el, item) {
				return true
			}
		}
		return false
	case VTTuple:
		for _, el := range container.Tuple() {
			if valueEquals(el, item) {
				return true
			}
		}
		return false
	case VTDict:
		_, ok := container.Dict().Get(item)
		return ok
	}
	ip.throw("TypeError", "'%s' value is not a container", container.TypeName())
	return false
}

// ─────────────────────────────── subscripts ─────────────────────────────────

// normIndex converts a possibly negative index against length n; reports
// false when out of range.
func normIndex(i, n int64) (int64, bool) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func (ip *Interpreter) index(obj, idx Value) Value {
	switch obj.Tag {
	case VTList:
		items := obj.List().Items
		i := ip.wantInt(idx, "list index")
		j, ok := normIndex(i, int64(len(items)))
		if !ok {
			ip.throw("IndexError", "list index %d out of range (len %d)", i, len(items))
		}
		return items[j]
	case VTTuple:
		items := obj.Tuple()
		i := ip.wantInt(idx, "tuple index")
		j, ok := normIndex(i, int64(len(items)))
		if !ok {
			ip.throw("IndexError", "tuple index %d out of range (len %d)", i, len(items))
		}
		return items[j]
	case VTStr:
		runes := []rune(obj.AsStr())
		i := ip.wantInt(idx, "string index")
		j, ok := normIndex(i, int64(len(runes)))
		if !ok {
			ip.throw("IndexError", "string index %d out of range (len %d)", i, len(runes))
		}
		return StrV(string(runes[j]))
	case VTDict:
		v, ok := obj.Dict().Get(idx)
		if !ok {
			if _, hashable := hashKey(idx); !hashable {
				ip.throw("TypeError", "unhashable dict key of type '%s'", idx.TypeName())
			}
			ip.throw("KeyError", "%s", ip.Repr(idx))
		}
		return v
	case VTInstance:
		getter := ip.getAttrSoft(obj, "__getitem__")
		if getter.Tag != VTNil {
			return ip.call(getter, []Value{idx}, nil, ip.curLine, ip.curCol)
		}
	}
	ip.throw("TypeError", "'%s' value is not subscriptable", obj.TypeName())
	return NilV()
}

func (ip *Interpreter) setIndex(obj, idx, v Value) {
	switch obj.Tag {
	case VTList:
		items := obj.List().Items
		i := ip.wantInt(idx, "list index")
		j, ok := normIndex(i, int64(len(items)))
		if !ok {
			ip.throw("IndexError", "list index %d out of range (len %d)", i, len(items))
		}
		items[j] = v
		return
	case VTDict:
		if !obj.Dict().Set(idx, v) {
			ip.throw("TypeError", "unhashable dict key of type '%s'", idx.TypeName())
		}
		return
	case VTInstance:
		setter := ip.getAttrSoft(obj, "__setitem__")
		if setter.Tag != VTNil {
			ip.call(setter, []Value{idx, v}, nil, ip.curLine, ip.curCol)
			return
		}
	}
	ip.throw("TypeError", "'%s' value does not support item assignment", obj.TypeName())
}

// getAttrSoft is getAttr without the AttributeError.
func (ip *Interpreter) getAttrSoft(obj Value, name string) (out Value) {
	defer func() {
		if r := recover(); r != nil {
			if rs, ok := r.(raiseSig); ok && rs.exc.Class == ip.excClasses["AttributeError"] {
				out = NilV()
				return
			}
			panic(r)
		}
	}()
	return ip.getAttr(obj, name)
}

// slice evaluates obj[lo:hi:step] with clamping semantics; absent bounds
// arrive as nil values.
func (ip *Interpreter) slice(obj, lo, hi, step Value) Value {
	st := int64(1)
	if step.Tag != VTNil {
		st = ip.wantInt(step, "slice step")
		if st == 0 {
			ip.throw("ValueError", "slice step cannot be zero")
		}
	}
	pick := func(n int64) []int64 {
		start, stop := int64(0), n
		if st < 0 {
			start, stop = n-1, -1
		}
		if lo.Tag != VTNil {
			start = clampSliceBound(ip.wantInt(lo, "slice start"), n, st < 0)
		}
		if hi.Tag != VTNil {
			stop = clampSliceBound(ip.wantInt(hi, "slice stop"), n, st < 0)
		}
		var idxs []int64
		if st > 0 {
			for i := start; i < stop; i += st {
				idxs = append(idxs, i)
			}
		} else {
			for i := start; i > stop; i += st {
				idxs = append(idxs, i)
			}
		}
		return idxs
	}
	switch obj.Tag {
	case VTList:
		items := obj.List().Items
		var out []Value
		for _, i := range pick(int64(len(items))) {
			out = append(out, items[i])
		}
		return ListV(out)
	case VTTuple:
		items := obj.Tuple()
		var out []Value
		for _, i := range pick(int64(len(items))) {
			out = append(out, items[i])
		}
		return TupleV(out)
	case VTStr:
		runes := []rune(obj.AsStr())
		var b strings.Builder
		for _, i := range pick(int64(len(runes))) {
			b.WriteRune(runes[i])
		}
		return StrV(b.String())
	}
	ip.throw("TypeError", "'%s' value cannot be sliced", obj.TypeName())
	return NilV()
}

// clampSliceBound maps a possibly negative slice bound into [ -1 .. n ]
// (negative step gets a floor of -1 instead of 0).
func clampSliceBound(i, n int64, negStep bool) int64 {
	if i < 0 {
		i += n
	}
	lowFloor := int64(0)
	if negStep {
		lowFloor = -1
	}
	if i < lowFloor {
		return lowFloor
	}
	if i > n {
		i = n
	}
	if negStep && i >= n {
		return n - 1
	}
	return i
}

func (ip *Interpreter) wantInt(v Value, what string) int64 {
	if v.Tag != VTInt {
		ip.throw("TypeError", "%s must be an int, got '%s'", what, v.TypeName())
	}
	return v.AsInt()
}

// ─────────────────────────────── iteration ──────────────────────────────────

// sequenceItems flattens a finite iterable into a slice; used by
// destructuring and several builtins.
func (ip *Interpreter) sequenceItems(v Value, what string) []Value {
	switch v.Tag {
	case VTList:
		return append([]Value{}, v.List().Items...)
	case VTTuple:
		return append([]Value{}, v.Tuple()...)
	case VTStr:
		var out []Value
		for _, r := range v.AsStr() {
			out = append(out, StrV(string(r)))
		}
		return out
	case VTDict:
		return v.Dict().Keys()
	case VTGen, VTInstance:
		var out []Value
		ip.forEach(v, func(el Value) bool {
			out = append(out, el)
			return true
		})
		return out
	}
	ip.throw("TypeError", "%s: '%s' value is not iterable", what, v.TypeName())
	return nil
}

// forEach drives the iteration protocol over any iterable. fn returns
// false to stop early; early exit closes a driving generator so its
// pending finally blocks run.
func (ip *Interpreter) forEach(v Value, fn func(el Value) bool) {
	switch v.Tag {
	case VTList:
		for _, el := range v.List().Items {
			if !fn(el) {
				return
			}
		}
		return
	case VTTuple:
		for _, el := range v.Tuple() {
			if !fn(el) {
				return
			}
		}
		return
	case VTStr:
		for _, r := range v.AsStr() {
			if !fn(StrV(string(r))) {
				return
			}
		}
		return
	case VTDict:
		for _, k := range v.Dict().Keys() {
			if !fn(k) {
				return
			}
		}
		return
	case VTGen:
		g := v.Data.(*Generator)
		defer g.Close()
		for {
			el, ok := g.Next(NilV())
			if !ok {
				return
			}
			if !fn(el) {
				return
			}
		}
	case VTInstance:
		ip.forEachInstance(v, fn)
		return
	}
	ip.throw("TypeError", "'%s' value is not iterable", v.TypeName())
}

// forEachInstance iterates a user object through __iter__/__next__,
// consuming the StopIteration that ends the stream.
func (ip *Interpreter) forEachInstance(v Value, fn func(el Value) bool) {
	it := v
	if iterFn := ip.getAttrSoft(v, "__iter__"); iterFn.Tag != VTNil {
		it = ip.call(iterFn, nil, nil, ip.curLine, ip.curCol)
		if it.Tag == VTGen || it.Tag != VTInstance {
			ip.forEach(it, fn)
			return
		}
	}
	next := ip.getAttrSoft(it, "__next__")
	if next.Tag == VTNil {
		ip.throw("TypeError", "'%s' object is not iterable", v.TypeName())
	}
	for {
		el, ok := ip.callNext(next)
		if !ok {
			return
		}
		if !fn(el) {
			return
		}
	}
}

// callNext invokes a __next__ method, translating StopIteration into
// end-of-stream.
func (ip *Interpreter) callNext(next Value) (out Value, more bool) {
	defer func() {
		if r := recover(); r != nil {
			if rs, ok := r.(raiseSig); ok && excMatches(rs.exc, Value{Tag: VTClass, Data: ip.excClasses["StopIteration"]}) {
				out, more = NilV(), false
				return
			}
			panic(r)
		}
	}()
	return ip.call(next, nil, nil, ip.curLine, ip.curCol), true
}
