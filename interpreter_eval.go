// interpreter_eval.go — the tree-walking evaluator.
//
// eval dispatches on the node tag and returns the node's value. Non-local
// control (return, break, continue, raise) travels as panics with the
// signal types from exceptions.go and is consumed by the nearest
// enclosing construct: calls absorb returnSig, loops absorb break and
// continue, try statements absorb raiseSig. Every helper that needs to
// observe a signal without fully handling it re-panics, so finally
// blocks and generator cleanup always run.
package sharp

import "strings"

// hidden frame bindings for the coroutine machinery; the names are not
// valid identifiers.
const (
	genSlot  = "*gen*"
	taskSlot = "*task*"
	excSlot  = "*exc*" // exception being handled, for bare raise
)

func tag(n S) string { return n[0].(string) }

func asS(x any) S {
	if x == nil {
		return nil
	}
	return x.(S)
}

func (ip *Interpreter) eval(n S, env *Env) Value {
	switch tag(n) {
	case "block":
		out := NilV()
		for _, st := range n[1:] {
			out = ip.eval(st.(S), env)
		}
		return out
	case "at":
		ip.curLine = n[1].(int)
		ip.curCol = n[2].(int)
		return ip.eval(n[3].(S), env)

	// ── literals ──
	case "int":
		return IntV(n[1].(int64))
	case "num":
		return NumV(n[1].(float64))
	case "str":
		return StrV(n[1].(string))
	case "bool":
		return BoolV(n[1].(bool))
	case "nil":
		return NilV()
	case "id":
		name := n[1].(string)
		if env.globals != nil && env.globals[name] {
			// declared global: skip any enclosing function frames
			if v, ok := ip.globalFrame(env).Get(name); ok {
				return v
			}
		} else if v, ok := env.Get(name); ok {
			return v
		}
		ip.throw("NameError", "name '%s' is not defined", name)
	case "list":
		items := make([]Value, 0, len(n)-1)
		for _, el := range n[1:] {
			items = append(items, ip.eval(el.(S), env))
		}
		return ListV(items)
	case "tuple":
		items := make([]Value, 0, len(n)-1)
		for _, el := range n[1:] {
			items = append(items, ip.eval(el.(S), env))
		}
		return TupleV(items)
	case "dict":
		m := NewMap()
		for _, pr := range n[1:] {
			pair := pr.(S)
			k := ip.eval(pair[1].(S), env)
			v := ip.eval(pair[2].(S), env)
			if !m.Set(k, v) {
				ip.throw("TypeError", "unhashable dict key of type '%s'", k.TypeName())
			}
		}
		return DictV(m)

	// ── operators ──
	case "binop":
		op := n[1].(string)
		switch op {
		case "and":
			lhs := ip.eval(n[2].(S), env)
			if !truthy(lhs) {
				return lhs
			}
			return ip.eval(n[3].(S), env)
		case "or":
			lhs := ip.eval(n[2].(S), env)
			if truthy(lhs) {
				return lhs
			}
			return ip.eval(n[3].(S), env)
		}
		lhs := ip.eval(n[2].(S), env)
		rhs := ip.eval(n[3].(S), env)
		return ip.binop(op, lhs, rhs)
	case "unop":
		return ip.unop(n[1].(string), ip.eval(n[2].(S), env))

	// ── bindings and assignment ──
	case "let":
		v := ip.eval(n[2].(S), env)
		env.Define(n[1].(string), v)
		return NilV()
	case "assign":
		v := ip.eval(n[2].(S), env)
		ip.assignTarget(n[1].(S), v, env)
		return v
	case "aug":
		op := n[1].(string)
		target := n[2].(S)
		cur := ip.eval(target, env)
		v := ip.binop(op, cur, ip.eval(n[3].(S), env))
		ip.assignTarget(target, v, env)
		return v
	case "global":
		// declaration only: the binding itself appears on first assignment
		for _, nm := range n[1:] {
			env.markGlobal(nm.(string))
		}
		return NilV()
	case "nonlocal":
		for _, nm := range n[1:] {
			name := nm.(string)
			found := false
			for f := env.parent; f != nil && f != ip.Core; f = f.parent {
				if f.Has(name) {
					found = true
					break
				}
			}
			if !found {
				ip.throw("NameError", "no binding for nonlocal '%s' found", name)
			}
			env.markNonlocal(name)
		}
		return NilV()

	// ── access ──
	case "get":
		return ip.getAttr(ip.eval(n[1].(S), env), n[2].(string))
	case "idx":
		obj := ip.eval(n[1].(S), env)
		idx := ip.eval(n[2].(S), env)
		return ip.index(obj, idx)
	case "slice":
		obj := ip.eval(n[1].(S), env)
		lo := ip.eval(n[2].(S), env)
		hi := ip.eval(n[3].(S), env)
		step := ip.eval(n[4].(S), env)
		return ip.slice(obj, lo, hi, step)

	// ── functions and calls ──
	case "lambda":
		return ip.makeFun("", n[1].(S), n[2].(S), env, false)
	case "def":
		v := ip.makeFun(n[1].(string), n[2].(S), n[3].(S), env, false)
		env.Define(n[1].(string), v)
		return v
	case "adef":
		v := ip.makeFun(n[1].(string), n[2].(S), n[3].(S), env, true)
		env.Define(n[1].(string), v)
		return v
	case "call":
		return ip.evalCall(n, env)
	case "decor":
		return ip.evalDecor(n, env)

	// ── control flow ──
	case "if":
		// n = ("if", cond, then, [cond, then]..., else?)
		i := 1
		for i+1 < len(n) {
			if truthy(ip.eval(n[i].(S), env)) {
				return ip.eval(n[i+1].(S), env)
			}
			i += 2
		}
		if i < len(n) {
			return ip.eval(n[i].(S), env)
		}
		return NilV()
	case "while":
		for truthy(ip.eval(n[1].(S), env)) {
			if ip.runLoopBody(n[2].(S), env) {
				break
			}
		}
		return NilV()
	case "for":
		return ip.evalFor(n, env, false)
	case "afor":
		return ip.evalFor(n, env, true)
	case "return":
		v := NilV()
		if len(n) > 1 {
			v = ip.eval(n[1].(S), env)
		}
		panic(returnSig{v: v})
	case "break":
		panic(breakSig{})
	case "continue":
		panic(continueSig{})
	case "pass":
		return NilV()

	// ── exceptions ──
	case "try":
		return ip.evalTry(n, env)
	case "raise":
		return ip.evalRaise(n, env)
	case "with":
		return ip.evalWith(n, env)

	// ── coroutines ──
	case "yield":
		gv, ok := env.Get(genSlot)
		if !ok {
			ip.throw("RuntimeFault", "'yield' outside generator")
		}
		v := NilV()
		if len(n) > 1 {
			v = ip.eval(n[1].(S), env)
		}
		return gv.Data.(*Generator).yieldValue(v)
	case "await":
		if _, ok := env.Get(taskSlot); !ok {
			ip.throw("RuntimeFault", "'await' outside async function")
		}
		return ip.awaitValue(ip.eval(n[1].(S), env))

	// ── classes ──
	case "class":
		return ip.evalClass(n, env)

	// ── pattern matching ──
	case "match":
		return ip.evalMatch(n, env)

	// ── modules ──
	case "import":
		mod := ip.importModule(n[1].(string))
		name := n[2].(string)
		if name == "" {
			segs := strings.Split(n[1].(string), ".")
			name = segs[len(segs)-1]
		}
		env.Define(name, Value{Tag: VTModule, Data: mod})
		return NilV()
	case "from":
		mod := ip.importModule(n[1].(string))
		if len(n) == 3 {
			if item, ok := n[2].(S); ok && tag(item) == "star" {
				mod.Map.Each(func(k, v Value) {
					env.Define(k.AsStr(), v)
				})
				return NilV()
			}
		}
		for _, it := range n[2:] {
			item := it.(S)
			name, alias := item[1].(string), item[2].(string)
			v, ok := mod.Map.Get(StrV(name))
			if !ok {
				ip.throw("ImportError", "cannot import name '%s' from '%s'", name, mod.Name)
			}
			env.Define(alias, v)
		}
		return NilV()

	// ── comprehensions ──
	case "listcomp":
		frame := NewEnv(env)
		var items []Value
		ip.comprehend(n[2].(S), n[3].(S), n[4], frame, func() {
			items = append(items, ip.eval(n[1].(S), frame))
		})
		return ListV(items)
	case "dictcomp":
		frame := NewEnv(env)
		m := NewMap()
		ip.comprehend(n[3].(S), n[4].(S), n[5], frame, func() {
			k := ip.eval(n[1].(S), frame)
			v := ip.eval(n[2].(S), frame)
			if !m.Set(k, v) {
				ip.throw("TypeError", "unhashable dict key of type '%s'", k.TypeName())
			}
		})
		return DictV(m)
	}
	ip.throw("RuntimeFault", "cannot evaluate node '%s'", tag(n))
	return NilV()
}

// comprehend drives one comprehension: iterate, bind the target into the
// comprehension frame, filter, and let emit build the result.
func (ip *Interpreter) comprehend(target S, iterN S, condN any, frame *Env, emit func()) {
	iter := ip.eval(iterN, frame)
	ip.forEach(iter, func(el Value) bool {
		ip.assignTarget(target, el, frame)
		if condN != nil && !truthy(ip.eval(condN.(S), frame)) {
			return true
		}
		emit()
		return true
	})
}

// globalFrame returns the module-level frame of the current chain: the
// nearest enclosing frame a script, REPL line or module body ran in.
func (ip *Interpreter) globalFrame(env *Env) *Env {
	for f := env; f != nil; f = f.parent {
		if f.module {
			return f
		}
	}
	return ip.Global
}

// assignTarget writes v into target: a name (honoring global/nonlocal
// declarations), an attribute, a subscript, or a destructuring tuple.
func (ip *Interpreter) assignTarget(target S, v Value, env *Env) {
	switch tag(target) {
	case "id":
		name := target[1].(string)
		if env.globals != nil && env.globals[name] {
			ip.globalFrame(env).Define(name, v)
			return
		}
		if env.nonlocals != nil && env.nonlocals[name] {
			if env.parent == nil || !env.parent.setExisting(name, v) {
				ip.throw("NameError", "no binding for nonlocal '%s' found", name)
			}
			return
		}
		env.Define(name, v)
	case "get":
		obj := ip.eval(target[1].(S), env)
		ip.setAttr(obj, target[2].(string), v)
	case "idx":
		obj := ip.eval(target[1].(S), env)
		idx := ip.eval(target[2].(S), env)
		ip.setIndex(obj, idx, v)
	case "tuple", "list":
		elems := ip.sequenceItems(v, "cannot unpack")
		if len(elems) != len(target)-1 {
			ip.throw("ValueError", "cannot unpack %d values into %d targets", len(elems), len(target)-1)
		}
		for i, sub := range target[1:] {
			ip.assignTarget(sub.(S), elems[i], env)
		}
	default:
		ip.throw("TypeError", "invalid assignment target")
	}
}

// runLoopBody evaluates one loop iteration, absorbing continue and
// reporting break.
func (ip *Interpreter) runLoopBody(body S, env *Env) (brk bool) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case continueSig:
				// next iteration
			case breakSig:
				brk = true
			default:
				panic(r)
			}
		}
	}()
	ip.eval(body, env)
	return false
}

func (ip *Interpreter) evalFor(n S, env *Env, async bool) Value {
	target := n[1].(S)
	iter := ip.eval(n[2].(S), env)
	body := n[3].(S)
	ip.forEach(iter, func(el Value) bool {
		if async {
			el = ip.awaitIfTask(el)
		}
		ip.assignTarget(target, el, env)
		return !ip.runLoopBody(body, env)
	})
	return NilV()
}

// ─────────────────────────────── calls ──────────────────────────────────────

// makeFun builds a function value, detecting generator bodies.
func (ip *Interpreter) makeFun(name string, paramsN S, body S, env *Env, isAsync bool) Value {
	params := make([]Param, 0, len(paramsN)-1)
	for _, pn := range paramsN[1:] {
		p := pn.(S)
		param := Param{Name: p[1].(string)}
		if p[2] != nil {
			param.Default = p[2].(S)
		}
		params = append(params, param)
	}
	fn := &Fun{
		Name:    name,
		Params:  params,
		Body:    body,
		Env:     env,
		IsGen:   containsYield(body),
		IsAsync: isAsync,
	}
	return Value{Tag: VTFun, Data: fn}
}

// containsYield reports whether a body yields in its own frame. Nested
// function and class bodies are their own frames and do not count.
func containsYield(n S) bool {
	if len(n) == 0 {
		return false
	}
	switch tag(n) {
	case "yield":
		return true
	case "def", "adef", "lambda", "class":
		return false
	}
	for _, part := range n[1:] {
		if sub, ok := part.(S); ok && containsYield(sub) {
			return true
		}
	}
	return false
}

func (ip *Interpreter) evalCall(n S, env *Env) Value {
	calleeN := n[1].(S)

	// super() resolves against the hidden method-frame slots
	if tag(calleeN) == "id" && calleeN[1].(string) == "super" && len(n) == 2 {
		self, ok1 := env.Get(selfSlot)
		defV, ok2 := env.Get(defClassSlot)
		if !ok1 || !ok2 {
			ip.throw("RuntimeFault", "super() outside of a method")
		}
		return Value{Tag: VTSuper, Data: &SuperProxy{Recv: self, DefClass: defV.Data.(*Class)}}
	}

	callee := ip.eval(calleeN, env)
	var args []Value
	var kwargs map[string]Value
	for _, a := range n[2:] {
		arg := a.(S)
		if tag(arg) == "kw" {
			if kwargs == nil {
				kwargs = map[string]Value{}
			}
			kwargs[arg[1].(string)] = ip.eval(arg[2].(S), env)
			continue
		}
		args = append(args, ip.eval(arg, env))
	}
	return ip.call(callee, args, kwargs, ip.curLine, ip.curCol)
}

// call invokes any callable value.
func (ip *Interpreter) call(callee Value, args []Value, kwargs map[string]Value, line, col int) Value {
	switch callee.Tag {
	case VTBuiltin:
		b := callee.Data.(*Builtin)
		if len(kwargs) > 0 {
			ip.throw("TypeError", "%s() takes no keyword arguments", b.Name)
		}
		if len(args) < b.Arity || (!b.Variadic && len(args) > b.Arity) {
			ip.throw("TypeError", "%s() expects %d argument(s), got %d", b.Name, b.Arity, len(args))
		}
		return b.Impl(ip, args)
	case VTFun:
		return ip.callFun(callee.Data.(*Fun), Value{}, nil, args, kwargs)
	case VTBound:
		bm := callee.Data.(*BoundMethod)
		return ip.callFun(bm.Fn, bm.Recv, bm.defClass, args, kwargs)
	case VTClass:
		return ip.instantiate(callee.Data.(*Class), args, kwargs)
	}
	ip.throw("TypeError", "'%s' value is not callable", callee.TypeName())
	return NilV()
}

// callFun binds arguments into a fresh frame and runs the body. A recv
// with a non-zero tag is bound to the first parameter (methods), and the
// hidden self/defclass slots anchor super(). Generator and async
// functions return suspended values instead of running.
func (ip *Interpreter) callFun(fn *Fun, recv Value, def *Class, args []Value, kwargs map[string]Value) Value {
	frame := NewEnv(fn.Env)
	params := fn.Params

	if recv.Tag != VTNil || def != nil {
		if len(params) == 0 {
			ip.throw("TypeError", "method %s() is missing its receiver parameter", fn.displayName())
		}
		frame.Define(params[0].Name, recv)
		frame.Define(selfSlot, recv)
		if def != nil {
			frame.Define(defClassSlot, Value{Tag: VTClass, Data: def})
		}
		params = params[1:]
	}

	// positional
	if len(args) > len(params) {
		ip.throw("TypeError", "%s() expects at most %d argument(s), got %d", fn.displayName(), len(params), len(args))
	}
	for i, a := range args {
		frame.Define(params[i].Name, a)
	}
	// keyword
	for name, v := range kwargs {
		found := false
		for _, p := range params {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			ip.throw("TypeError", "%s() got an unexpected keyword argument '%s'", fn.displayName(), name)
		}
		if frame.Has(name) {
			ip.throw("TypeError", "%s() got multiple values for argument '%s'", fn.displayName(), name)
		}
		frame.Define(name, v)
	}
	// defaults and missing-argument check
	for _, p := range params {
		if frame.Has(p.Name) {
			continue
		}
		if p.Default == nil {
			ip.throw("TypeError", "%s() missing required argument '%s'", fn.displayName(), p.Name)
		}
		frame.Define(p.Name, ip.eval(p.Default, fn.Env))
	}

	if fn.IsGen {
		return Value{Tag: VTGen, Data: newGenerator(ip, fn, frame)}
	}
	if fn.IsAsync {
		return Value{Tag: VTTask, Data: newTask(ip, fn, frame)}
	}
	return ip.runBody(fn, frame)
}

func (fn *Fun) displayName() string {
	if fn.Name == "" {
		return "<lambda>"
	}
	return fn.Name
}

// runBody evaluates a function body, absorbing returnSig.
func (ip *Interpreter) runBody(fn *Fun, frame *Env) (out Value) {
	defer func() {
		if r := recover(); r != nil {
			if rs, ok := r.(returnSig); ok {
				out = rs.v
				return
			}
			panic(r)
		}
	}()
	ip.eval(fn.Body, frame)
	return NilV()
}

func (ip *Interpreter) evalDecor(n S, env *Env) Value {
	exprs := n[1].(S)
	target := n[2].(S)

	// decorator expressions evaluate first, in source order
	decs := make([]Value, 0, len(exprs)-1)
	for _, e := range exprs[1:] {
		decs = append(decs, ip.eval(e.(S), env))
	}

	v := ip.eval(target, env)
	var name string
	switch tag(target) {
	case "def", "adef", "class":
		name = target[1].(string)
	default:
		ip.throw("RuntimeFault", "decorator applied to a non-definition")
	}
	// innermost decorator (nearest the def) applies first
	for i := len(decs) - 1; i >= 0; i-- {
		v = ip.call(decs[i], []Value{v}, nil, ip.curLine, ip.curCol)
	}
	env.Define(name, v)
	return v
}

// ─────────────────────────────── try / raise / with ─────────────────────────

// runProtected runs f and returns the recovered panic value, if any.
func runProtected(f func()) (sig interface{}) {
	defer func() { sig = recover() }()
	f()
	return nil
}

func (ip *Interpreter) evalTry(n S, env *Env) Value {
	body := n[1].(S)
	handlers := n[2].(S)
	elseBlk := asS(n[3])
	finBlk := asS(n[4])

	result := NilV()
	sig := runProtected(func() { result = ip.eval(body, env) })

	if sig != nil {
		if rs, ok := sig.(raiseSig); ok {
			for _, hn := range handlers[1:] {
				h := hn.(S)
				typeExpr := asS(h[1])
				if typeExpr != nil {
					// a raising filter expression replaces the pending
					// signal; finally below must still run
					var filter Value
					if tsig := runProtected(func() { filter = ip.eval(typeExpr, env) }); tsig != nil {
						sig = tsig
						break
					}
					if !excMatches(rs.exc, filter) {
						continue
					}
				}
				if name := h[2].(string); name != "" {
					env.Define(name, Value{Tag: VTExc, Data: rs.exc})
				}
				// expose the active exception for bare raise, restoring
				// any outer handler's exception afterwards
				prev, hadPrev := env.table[excSlot]
				env.Define(excSlot, Value{Tag: VTExc, Data: rs.exc})
				sig = runProtected(func() { result = ip.eval(h[3].(S), env) })
				if hadPrev {
					env.table[excSlot] = prev
				} else {
					delete(env.table, excSlot)
				}
				break
			}
		}
	} else if elseBlk != nil {
		sig = runProtected(func() { result = ip.eval(elseBlk, env) })
	}

	if finBlk != nil {
		// a signal from finally supersedes any pending one
		if fsig := runProtected(func() { ip.eval(finBlk, env) }); fsig != nil {
			sig = fsig
		}
	}
	if sig != nil {
		panic(sig)
	}
	return result
}

func (ip *Interpreter) evalRaise(n S, env *Env) Value {
	if n[1] == nil {
		active, ok := env.Get(excSlot)
		if !ok {
			ip.throw("RuntimeFault", "no active exception to re-raise")
		}
		panic(raiseSig{exc: active.Data.(*ExcValue)})
	}
	exc := ip.toExc(ip.eval(n[1].(S), env))
	if n[2] != nil {
		exc.Cause = ip.toExc(ip.eval(n[2].(S), env))
	}
	if exc.Line == 0 {
		exc.Line, exc.Col = ip.curLine, ip.curCol
	}
	panic(raiseSig{exc: exc})
}

func (ip *Interpreter) evalWith(n S, env *Env) Value {
	ctx := ip.eval(n[1].(S), env)
	enter := ip.getAttr(ctx, "__enter__")
	exit := ip.getAttr(ctx, "__exit__")

	entered := ip.call(enter, nil, nil, ip.curLine, ip.curCol)
	if name := n[2].(string); name != "" {
		env.Define(name, entered)
	}
	sig := runProtected(func() { ip.eval(n[3].(S), env) })

	var exitArg Value = NilV()
	if rs, ok := sig.(raiseSig); ok {
		exitArg = Value{Tag: VTExc, Data: rs.exc}
	}
	suppressed := ip.call(exit, []Value{exitArg}, nil, ip.curLine, ip.curCol)
	if sig != nil {
		if _, wasRaise := sig.(raiseSig); wasRaise && truthy(suppressed) {
			return NilV()
		}
		panic(sig)
	}
	return NilV()
}

// ─────────────────────────────── classes ────────────────────────────────────

func (ip *Interpreter) evalClass(n S, env *Env) Value {
	name := n[1].(string)
	basesN := n[2].(S)
	body := n[3].(S)

	var bases []*Class
	for _, b := range basesN[1:] {
		bv := ip.eval(b.(S), env)
		if bv.Tag != VTClass {
			ip.throw("TypeError", "base of class '%s' is not a class (got %s)", name, bv.TypeName())
		}
		bases = append(bases, bv.Data.(*Class))
	}

	// the class body runs in its own frame
	clsEnv := NewEnv(env)
	ip.eval(body, clsEnv)

	c := &Class{Name: name, Bases: bases, Members: map[string]Value{}}
	for _, nm := range clsEnv.defOrder {
		if strings.HasPrefix(nm, "*") {
			continue // hidden evaluator slots
		}
		if v, ok := clsEnv.table[nm]; ok {
			c.SetMember(nm, v)
		}
	}
	v := Value{Tag: VTClass, Data: c}
	env.Define(name, v)
	return v
}

// ─────────────────────────────── match ──────────────────────────────────────

func (ip *Interpreter) evalMatch(n S, env *Env) Value {
	subject := ip.eval(n[1].(S), env)
	for _, cn := range n[2:] {
		c := cn.(S)
		pat := c[1].(S)
		switch tag(pat) {
		case "lit":
			if !valueEquals(ip.eval(pat[1].(S), env), subject) {
				continue
			}
		case "capture":
			if c[2] != nil {
				// the guard sees the capture in a scratch frame; the
				// binding becomes visible only once the case commits
				guardEnv := NewEnv(env)
				guardEnv.Define(pat[1].(string), subject)
				if !truthy(ip.eval(c[2].(S), guardEnv)) {
					continue
				}
			}
			env.Define(pat[1].(string), subject)
		case "wild":
			// always matches
		}
		if tag(pat) != "capture" && c[2] != nil && !truthy(ip.eval(c[2].(S), env)) {
			continue
		}
		return ip.eval(c[3].(S), env)
	}
	ip.throw("MatchError", "no case matched value %s", ip.Repr(subject))
	return NilV()
}
