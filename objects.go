// objects.go — classes, instances, method binding and super.
package sharp

// classLinear returns the method resolution order of c: the class itself,
// then its bases depth-first left-to-right, first occurrence winning.
func classLinear(c *Class) []*Class {
	if c.linear != nil {
		return c.linear
	}
	seen := map[*Class]bool{}
	var out []*Class
	var walk func(k *Class)
	walk = func(k *Class) {
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for _, b := range k.Bases {
			walk(b)
		}
	}
	walk(c)
	c.linear = out
	return out
}

// lookupOnChain finds name along a class chain. Returns the value and the
// class that defines it.
func lookupOnChain(chain []*Class, name string) (Value, *Class, bool) {
	for _, k := range chain {
		if v, ok := k.Members[name]; ok {
			return v, k, true
		}
	}
	return Value{}, nil, false
}

// SuperProxy is the value of super(): attribute lookups on it search the
// receiver's linearization starting after the defining class.
type SuperProxy struct {
	Recv     Value
	DefClass *Class
}

// hidden frame bindings used by method calls; the names are not valid
// identifiers so user code can never collide with them.
const (
	selfSlot     = "*self*"
	defClassSlot = "*defclass*"
)

// getAttr resolves obj.name, binding methods to their receiver. Missing
// attributes raise AttributeError.
func (ip *Interpreter) getAttr(obj Value, name string) Value {
	switch obj.Tag {
	case VTInstance:
		in := obj.Data.(*Instance)
		if v, ok := in.Fields[name]; ok {
			return v
		}
		if v, def, ok := lookupOnChain(classLinear(in.Class), name); ok {
			return bindMember(obj, v, def)
		}
		ip.throw("AttributeError", "'%s' object has no attribute '%s'", in.Class.Name, name)
	case VTClass:
		c := obj.Data.(*Class)
		if v, _, ok := lookupOnChain(classLinear(c), name); ok {
			return v
		}
		ip.throw("AttributeError", "class '%s' has no attribute '%s'", c.Name, name)
	case VTSuper:
		sp := obj.Data.(*SuperProxy)
		chain := ip.superChain(sp)
		if v, def, ok := lookupOnChain(chain, name); ok {
			return bindMember(sp.Recv, v, def)
		}
		ip.throw("AttributeError", "super has no attribute '%s'", name)
	case VTModule:
		mod := obj.Data.(*Module)
		if v, ok := mod.Map.Get(StrV(name)); ok {
			return v
		}
		ip.throw("AttributeError", "module '%s' has no attribute '%s'", mod.Name, name)
	case VTExc:
		e := obj.Data.(*ExcValue)
		switch name {
		case "message":
			return StrV(e.Msg)
		case "args":
			return TupleV(e.Args)
		case "cause":
			if e.Cause == nil {
				return NilV()
			}
			return Value{Tag: VTExc, Data: e.Cause}
		}
		ip.throw("AttributeError", "'%s' object has no attribute '%s'", e.Class.Name, name)
	}
	ip.throw("AttributeError", "'%s' value has no attribute '%s'", obj.TypeName(), name)
	return NilV()
}

// bindMember binds a function member found on def to the receiver; data
// members pass through unchanged.
func bindMember(recv Value, v Value, def *Class) Value {
	if v.Tag == VTFun {
		return Value{Tag: VTBound, Data: &BoundMethod{Recv: recv, Fn: v.Data.(*Fun), defClass: def}}
	}
	return v
}

// superChain returns the classes after the defining class in the
// receiver's linearization.
func (ip *Interpreter) superChain(sp *SuperProxy) []*Class {
	var recvClass *Class
	switch sp.Recv.Tag {
	case VTInstance:
		recvClass = sp.Recv.Data.(*Instance).Class
	case VTExc:
		recvClass = sp.Recv.Data.(*ExcValue).Class
	default:
		ip.throw("TypeError", "super() outside of a method")
	}
	lin := classLinear(recvClass)
	for i, k := range lin {
		if k == sp.DefClass {
			return lin[i+1:]
		}
	}
	return nil
}

// setAttr assigns obj.name = v. Only instances and modules own settable
// attributes; modules reject writes.
func (ip *Interpreter) setAttr(obj Value, name string, v Value) {
	switch obj.Tag {
	case VTInstance:
		obj.Data.(*Instance).SetField(name, v)
		return
	case VTClass:
		obj.Data.(*Class).SetMember(name, v)
		return
	}
	ip.throw("TypeError", "cannot set attribute '%s' on %s value", name, obj.TypeName())
}

// instantiate constructs an instance of c. Exception classes produce
// exception values; other classes allocate an Instance and run __init__
// when defined, otherwise copy plain class attributes as field defaults.
func (ip *Interpreter) instantiate(c *Class, args []Value, kwargs map[string]Value) Value {
	if ip.isExceptionClass(c) {
		if len(kwargs) > 0 {
			ip.throw("TypeError", "exception class '%s' takes no keyword arguments", c.Name)
		}
		return ip.instantiateExc(c, args)
	}
	in := &Instance{Class: c, Fields: map[string]Value{}}
	self := Value{Tag: VTInstance, Data: in}
	initV, def, ok := lookupOnChain(classLinear(c), "__init__")
	if !ok {
		if len(args) > 0 || len(kwargs) > 0 {
			ip.throw("TypeError", "%s() takes no arguments (class has no __init__)", c.Name)
		}
		// seed instance fields from plain class attributes, subclass first
		lin := classLinear(c)
		for i := len(lin) - 1; i >= 0; i-- {
			k := lin[i]
			for _, nm := range k.Order {
				v := k.Members[nm]
				if v.Tag != VTFun {
					in.SetField(nm, v)
				}
			}
		}
		return self
	}
	fn, isFun := initV.Data.(*Fun)
	if initV.Tag != VTFun || !isFun {
		ip.throw("TypeError", "__init__ of class '%s' is not a function", c.Name)
	}
	ip.callFun(fn, self, def, args, kwargs)
	return self
}
