// exceptions.go — control signals and the builtin exception hierarchy.
//
// Non-local control flow travels as panics with one of the signal types
// below. Loops consume breakSig/continueSig, calls consume returnSig, and
// try statements consume raiseSig. Anything that escapes to an entry
// point is turned into an error by signalToError (interpreter.go).
package sharp

import "fmt"

// returnSig unwinds to the nearest enclosing call.
type returnSig struct{ v Value }

// breakSig and continueSig unwind to the nearest enclosing loop.
type breakSig struct{}
type continueSig struct{}

// raiseSig carries a raised exception toward the nearest matching
// except clause.
type raiseSig struct{ exc *ExcValue }

// genExitSig is injected into a suspended generator on Close so pending
// finally blocks run; it is consumed by the generator driver.
type genExitSig struct{}

// builtin exception class names, parent-before-child.
var excHierarchy = [][2]string{
	{"Exception", ""},
	{"NameError", "Exception"},
	{"TypeError", "Exception"},
	{"ValueError", "Exception"},
	{"AttributeError", "Exception"},
	{"LookupError", "Exception"},
	{"IndexError", "LookupError"},
	{"KeyError", "LookupError"},
	{"ZeroDivisionError", "Exception"},
	{"ImportError", "Exception"},
	{"MatchError", "Exception"},
	{"StopIteration", "Exception"},
	{"StopAsyncIteration", "Exception"},
	{"RuntimeFault", "Exception"},
}

// registerExceptionClasses installs the builtin exception classes into
// Core so user code can raise them, catch them, and subclass them.
func registerExceptionClasses(ip *Interpreter) {
	for _, pair := range excHierarchy {
		name, parent := pair[0], pair[1]
		c := &Class{Name: name, Members: map[string]Value{}}
		if parent != "" {
			c.Bases = []*Class{ip.excClasses[parent]}
		}
		ip.excClasses[name] = c
		ip.Core.Define(name, Value{Tag: VTClass, Data: c})
	}
}

// isExceptionClass reports whether c descends from the builtin Exception
// class (including Exception itself).
func (ip *Interpreter) isExceptionClass(c *Class) bool {
	base := ip.excClasses["Exception"]
	for _, anc := range classLinear(c) {
		if anc == base {
			return true
		}
	}
	return false
}

// newExc builds an exception value of the named builtin class at the
// current statement position.
func (ip *Interpreter) newExc(className, format string, args ...interface{}) *ExcValue {
	c := ip.excClasses[className]
	if c == nil {
		c = ip.excClasses["Exception"]
	}
	return &ExcValue{Class: c, Msg: fmt.Sprintf(format, args...), Line: ip.curLine, Col: ip.curCol}
}

// throw raises a builtin exception as a Sharp-level (catchable) error.
func (ip *Interpreter) throw(className, format string, args ...interface{}) {
	panic(raiseSig{exc: ip.newExc(className, format, args...)})
}

// excMatches reports whether exc should be caught by a handler whose type
// expression evaluated to classVal: the exception class itself or any
// ancestor in its linearization.
func excMatches(exc *ExcValue, classVal Value) bool {
	if classVal.Tag != VTClass {
		return false
	}
	want := classVal.Data.(*Class)
	for _, anc := range classLinear(exc.Class) {
		if anc == want {
			return true
		}
	}
	return false
}

// toExc coerces a raised value into an exception value. Raising a class
// instantiates it with no message; raising a non-exception value wraps it
// in Exception.
func (ip *Interpreter) toExc(v Value) *ExcValue {
	switch v.Tag {
	case VTExc:
		return v.Data.(*ExcValue)
	case VTClass:
		c := v.Data.(*Class)
		if ip.isExceptionClass(c) {
			return &ExcValue{Class: c, Line: ip.curLine, Col: ip.curCol}
		}
		return ip.newExc("TypeError", "cannot raise class '%s': not an exception class", c.Name)
	default:
		e := ip.newExc("Exception", "%s", ip.Str(v))
		e.Args = []Value{v}
		return e
	}
}

// instantiateExc handles calling an exception class: ClassName(msg, ...).
// The first argument becomes the message; all arguments are retained.
func (ip *Interpreter) instantiateExc(c *Class, args []Value) Value {
	e := &ExcValue{Class: c, Args: args, Line: ip.curLine, Col: ip.curCol}
	if len(args) > 0 {
		e.Msg = ip.Str(args[0])
	}
	return Value{Tag: VTExc, Data: e}
}
