// interpreter.go — public API surface of the Sharp runtime.
//
// OVERVIEW
// ========
// This file defines the value model (Value and its payload objects), the
// lexical environment, the Interpreter with its entry points, and the
// registration hooks for native builtins and native modules. The tree
// walker itself lives in interpreter_eval.go; operators, truthiness and
// the iteration protocol live in interpreter_ops.go.
//
// Entry points
//	Run(src)                     one-shot: fresh interpreter, evaluate src
//	NewInterpreter()             interpreter with the standard builtins
//	(*Interpreter).EvalSource    evaluate in a throwaway child of Global
//	(*Interpreter).EvalPersistentSource
//	                             evaluate in Global itself (REPL semantics)
//	(*Interpreter).Apply         call a Sharp callable from Go
//	(*Interpreter).RegisterBuiltin / RegisterModule
//
// Error contract: entry points never panic. Control-flow panics used
// internally (return/break/continue/raise) are recovered at the boundary
// and surface as *RuntimeError carrying {Kind, Msg, Line, Col}.
package sharp

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"
)

// ValueTag discriminates the payload of a Value.
type ValueTag int

const (
	VTNil ValueTag = iota
	VTBool
	VTInt
	VTNum
	VTStr
	VTList     // Data: *ListObject
	VTTuple    // Data: []Value (immutable)
	VTDict     // Data: *MapObject
	VTFun      // Data: *Fun
	VTBuiltin  // Data: *Builtin
	VTClass    // Data: *Class
	VTInstance // Data: *Instance
	VTBound    // Data: *BoundMethod
	VTGen      // Data: *Generator
	VTTask     // Data: *Task
	VTExc      // Data: *ExcValue
	VTModule   // Data: *Module
	VTSuper    // Data: *SuperProxy
)

// Value is the runtime representation of every Sharp value. Compound
// values hold pointers, so lists, dicts and instances are shared by
// reference: mutation through one reference is visible through all.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Constructors.

func NilV() Value          { return Value{Tag: VTNil} }
func BoolV(b bool) Value   { return Value{Tag: VTBool, Data: b} }
func IntV(i int64) Value   { return Value{Tag: VTInt, Data: i} }
func NumV(f float64) Value { return Value{Tag: VTNum, Data: f} }
func StrV(s string) Value  { return Value{Tag: VTStr, Data: s} }

func ListV(items []Value) Value  { return Value{Tag: VTList, Data: &ListObject{Items: items}} }
func TupleV(items []Value) Value { return Value{Tag: VTTuple, Data: items} }
func DictV(m *MapObject) Value   { return Value{Tag: VTDict, Data: m} }

// Accessors used throughout the evaluator and builtins.

func (v Value) AsInt() int64      { return v.Data.(int64) }
func (v Value) AsNum() float64    { return v.Data.(float64) }
func (v Value) AsBool() bool      { return v.Data.(bool) }
func (v Value) AsStr() string     { return v.Data.(string) }
func (v Value) List() *ListObject { return v.Data.(*ListObject) }
func (v Value) Tuple() []Value    { return v.Data.([]Value) }
func (v Value) Dict() *MapObject  { return v.Data.(*MapObject) }

// TypeName returns the user-visible type name of a value.
func (v Value) TypeName() string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTBool:
		return "bool"
	case VTInt:
		return "int"
	case VTNum:
		return "float"
	case VTStr:
		return "str"
	case VTList:
		return "list"
	case VTTuple:
		return "tuple"
	case VTDict:
		return "dict"
	case VTFun, VTBuiltin, VTBound:
		return "function"
	case VTClass:
		return "class"
	case VTInstance:
		return v.Data.(*Instance).Class.Name
	case VTGen:
		return "generator"
	case VTTask:
		return "task"
	case VTExc:
		return v.Data.(*ExcValue).Class.Name
	case VTModule:
		return "module"
	}
	return "unknown"
}

// ListObject is the mutable payload of a list value.
type ListObject struct {
	Items []Value
}

// MapObject is an insertion-ordered dictionary keyed by hashable Sharp
// values (nil, bool, int, float, str and tuples thereof). Keys are stored
// under an internal hash string; the original key value is kept alongside
// so iteration yields real keys in insertion order.
type MapObject struct {
	entries map[string]mapEntry
	order   []string
}

type mapEntry struct {
	Key Value
	Val Value
}

func NewMap() *MapObject {
	return &MapObject{entries: map[string]mapEntry{}}
}

// hashKey encodes a hashable value as a map key string. The second result
// is false for unhashable values.
func hashKey(v Value) (string, bool) {
	switch v.Tag {
	case VTNil:
		return "n:", true
	case VTBool:
		if v.AsBool() {
			return "b:1", true
		}
		return "b:0", true
	case VTInt:
		return fmt.Sprintf("i:%d", v.AsInt()), true
	case VTNum:
		f := v.AsNum()
		if f == float64(int64(f)) {
			// 1.0 and 1 hash alike
			return fmt.Sprintf("i:%d", int64(f)), true
		}
		return fmt.Sprintf("f:%x", f), true
	case VTStr:
		return "s:" + v.AsStr(), true
	case VTTuple:
		var b strings.Builder
		b.WriteString("t:(")
		for _, el := range v.Tuple() {
			h, ok := hashKey(el)
			if !ok {
				return "", false
			}
			b.WriteString(fmt.Sprintf("%d;%s", len(h), h))
		}
		b.WriteString(")")
		return b.String(), true
	}
	return "", false
}

func (m *MapObject) Len() int { return len(m.order) }

func (m *MapObject) Get(k Value) (Value, bool) {
	h, ok := hashKey(k)
	if !ok {
		return Value{}, false
	}
	e, ok := m.entries[h]
	if !ok {
		return Value{}, false
	}
	return e.Val, true
}

func (m *MapObject) Set(k, v Value) bool {
	h, ok := hashKey(k)
	if !ok {
		return false
	}
	if _, exists := m.entries[h]; !exists {
		m.order = append(m.order, h)
	}
	m.entries[h] = mapEntry{Key: k, Val: v}
	return true
}

func (m *MapObject) Delete(k Value) bool {
	h, ok := hashKey(k)
	if !ok {
		return false
	}
	if _, exists := m.entries[h]; !exists {
		return false
	}
	delete(m.entries, h)
	for i, o := range m.order {
		if o == h {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the key values in insertion order.
func (m *MapObject) Keys() []Value {
	out := make([]Value, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.entries[h].Key)
	}
	return out
}

// Each visits entries in insertion order.
func (m *MapObject) Each(fn func(k, v Value)) {
	for _, h := range m.order {
		e := m.entries[h]
		fn(e.Key, e.Val)
	}
}

// Param is one formal parameter of a Sharp function.
type Param struct {
	Name    string
	Default S // nil when the parameter has no default
}

// Fun is a user-defined function: parameters, body and the closure
// environment captured at definition time.
type Fun struct {
	Name    string // "" for lambdas
	Params  []Param
	Body    S
	Env     *Env
	IsGen   bool // body contains yield: calls build a Generator
	IsAsync bool // defined with async def: calls build a Task
}

// Builtin is a native function registered into the core environment.
type Builtin struct {
	Name     string
	Arity    int  // required argument count
	Variadic bool // extra arguments allowed beyond Arity
	Impl     func(ip *Interpreter, args []Value) Value
}

// Class is a user-defined class. Members holds methods and class
// attributes alike, in definition order.
type Class struct {
	Name    string
	Bases   []*Class
	Members map[string]Value
	Order   []string
	linear  []*Class // cached linearization
}

// Member looks up a name on the class itself (no bases).
func (c *Class) Member(name string) (Value, bool) {
	v, ok := c.Members[name]
	return v, ok
}

// SetMember defines or replaces a member, preserving definition order.
func (c *Class) SetMember(name string, v Value) {
	if _, exists := c.Members[name]; !exists {
		c.Order = append(c.Order, name)
	}
	c.Members[name] = v
}

// Instance is an object: a class pointer plus its own fields.
type Instance struct {
	Class  *Class
	Fields map[string]Value
	Order  []string
}

func (in *Instance) SetField(name string, v Value) {
	if _, exists := in.Fields[name]; !exists {
		in.Order = append(in.Order, name)
	}
	in.Fields[name] = v
}

// BoundMethod pairs a receiver with a function at attribute lookup time.
// defClass is the class the method was found on; it anchors super().
type BoundMethod struct {
	Recv     Value
	Fn       *Fun
	defClass *Class
}

// ExcValue is a raised exception: its class, message, positional args and
// optional cause (from `raise e from cause`).
type ExcValue struct {
	Class *Class
	Msg   string
	Args  []Value
	Cause *ExcValue
	Line  int // position where the exception was raised, 1-based
	Col   int
}

func (e *ExcValue) String() string {
	if e.Msg == "" {
		return e.Class.Name
	}
	return e.Class.Name + ": " + e.Msg
}

// Module is a loaded Sharp module: its environment and a snapshot map of
// exported members.
type Module struct {
	Name string
	Env  *Env
	Map  *MapObject
}

// ─────────────────────────────── environments ───────────────────────────────

// Env is one lexical frame. Function calls, class bodies and
// comprehensions create frames; plain blocks do not. Assignment targets
// the current frame unless the name was declared global or nonlocal.
type Env struct {
	parent    *Env
	table     map[string]Value
	defOrder  []string // names in first-definition order (class bodies, printing)
	globals   map[string]bool
	nonlocals map[string]bool
	module    bool // module-level frame; global declarations resolve here
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, table: map[string]Value{}}
}

// Define binds name in this frame, shadowing any outer binding.
func (e *Env) Define(name string, v Value) {
	if _, exists := e.table[name]; !exists {
		e.defOrder = append(e.defOrder, name)
	}
	e.table[name] = v
}

// Get resolves name through the frame chain.
func (e *Env) Get(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.table[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Has reports whether name is bound in this frame only.
func (e *Env) Has(name string) bool {
	_, ok := e.table[name]
	return ok
}

// setExisting rebinds name in the nearest frame that defines it. Returns
// false when no frame does.
func (e *Env) setExisting(name string, v Value) bool {
	for f := e; f != nil; f = f.parent {
		if _, ok := f.table[name]; ok {
			f.table[name] = v
			return true
		}
	}
	return false
}

func (e *Env) markGlobal(name string) {
	if e.globals == nil {
		e.globals = map[string]bool{}
	}
	e.globals[name] = true
}

func (e *Env) markNonlocal(name string) {
	if e.nonlocals == nil {
		e.nonlocals = map[string]bool{}
	}
	e.nonlocals[name] = true
}

// Names returns the sorted names bound in this frame.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.table))
	for k := range e.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ─────────────────────────────── diagnostics ────────────────────────────────

// RuntimeError is the boundary form of an uncaught exception or engine
// fault. Line/Col are 1-based; Col may be 0 when unknown.
type RuntimeError struct {
	Kind string // exception class name, e.g. "TypeError"
	Msg  string
	Line int
	Col  int
	Exc  *ExcValue // the uncaught exception, when one exists
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s: %s", e.Line, e.Col, e.Kind, e.Msg)
	}
	return fmt.Sprintf("RUNTIME ERROR: %s: %s", e.Kind, e.Msg)
}

// Diagnostic is the uniform shape of any engine-reported problem.
type Diagnostic struct {
	Kind    string // "lex", "parse" or the exception class name
	Message string
	Line    int
	Col     int
}

// Diagnose extracts a Diagnostic from any error produced by this package.
func Diagnose(err error) (Diagnostic, bool) {
	switch e := err.(type) {
	case *LexError:
		return Diagnostic{Kind: "lex", Message: e.Msg, Line: e.Line, Col: e.Col}, true
	case *ParseError:
		return Diagnostic{Kind: "parse", Message: e.Msg, Line: e.Line, Col: e.Col}, true
	case *RuntimeError:
		return Diagnostic{Kind: e.Kind, Message: e.Msg, Line: e.Line, Col: e.Col}, true
	}
	return Diagnostic{}, false
}

// ─────────────────────────────── interpreter ────────────────────────────────

// Interpreter owns the environment tree and all registries. Core holds
// the builtins and is the parent of Global; user code cannot rebind Core
// names, only shadow them.
type Interpreter struct {
	Core   *Env
	Global *Env

	Stdout io.Writer
	Stdin  io.Reader
	Argv   []string

	modules   map[string]*moduleRec
	native    map[string]*Module
	loadStack []string // import chain for cycle reporting

	excClasses map[string]*Class
	baseDir    string // directory of the currently running script
	rng        *rand.Rand

	// position of the statement currently executing, for diagnostics
	curLine int
	curCol  int
}

// NewInterpreter builds an interpreter with the full standard library
// registered into Core.
func NewInterpreter() *Interpreter {
	ip := &Interpreter{
		Stdout:  os.Stdout,
		Stdin:   os.Stdin,
		modules: map[string]*moduleRec{},
		native:  map[string]*Module{},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	ip.Core = NewEnv(nil)
	ip.Global = NewEnv(ip.Core)
	ip.Global.module = true
	ip.excClasses = map[string]*Class{}
	registerExceptionClasses(ip)
	registerCoreBuiltins(ip)
	registerCollectionBuiltins(ip)
	registerStringBuiltins(ip)
	registerMathBuiltins(ip)
	registerJSONBuiltins(ip)
	registerTimeBuiltins(ip)
	registerFileBuiltins(ip)
	registerPathBuiltins(ip)
	registerIntrospectionBuiltins(ip)
	return ip
}

// Run evaluates src in a fresh interpreter and returns the value of the
// last expression statement.
func Run(src string) (Value, error) {
	return NewInterpreter().EvalSource(src)
}

// EvalSource parses and evaluates src in a throwaway child of Global, so
// bindings do not leak between calls.
func (ip *Interpreter) EvalSource(src string) (Value, error) {
	ast, err := Parse(src)
	if err != nil {
		return NilV(), err
	}
	env := NewEnv(ip.Global)
	env.module = true
	return ip.EvalAST(ast, env)
}

// EvalPersistentSource parses and evaluates src in Global itself, so
// definitions persist across calls. This is the REPL entry point.
func (ip *Interpreter) EvalPersistentSource(src string) (Value, error) {
	ast, err := ParseInteractive(src)
	if err != nil {
		return NilV(), err
	}
	return ip.EvalAST(ast, ip.Global)
}

// EvalAST evaluates a parsed program in env, converting internal control
// panics into errors.
func (ip *Interpreter) EvalAST(ast S, env *Env) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = NilV(), signalToError(r)
		}
	}()
	return ip.eval(ast, env), nil
}

// Apply calls a Sharp callable from Go with positional arguments.
func (ip *Interpreter) Apply(fn Value, args []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = NilV(), signalToError(r)
		}
	}()
	return ip.call(fn, args, nil, 0, 0), nil
}

// signalToError maps a recovered panic to an error. Control signals that
// escape to the boundary are engine faults; raiseSig carries the uncaught
// exception.
func signalToError(r interface{}) error {
	switch s := r.(type) {
	case raiseSig:
		return &RuntimeError{Kind: s.exc.Class.Name, Msg: s.exc.Msg, Line: s.exc.Line, Col: s.exc.Col, Exc: s.exc}
	case returnSig:
		return &RuntimeError{Kind: "SyntaxError", Msg: "'return' outside function"}
	case breakSig:
		return &RuntimeError{Kind: "SyntaxError", Msg: "'break' outside loop"}
	case continueSig:
		return &RuntimeError{Kind: "SyntaxError", Msg: "'continue' outside loop"}
	default:
		panic(r)
	}
}

// RegisterBuiltin installs a native function into Core under name.
func (ip *Interpreter) RegisterBuiltin(name string, arity int, variadic bool, impl func(ip *Interpreter, args []Value) Value) {
	ip.Core.Define(name, Value{Tag: VTBuiltin, Data: &Builtin{
		Name: name, Arity: arity, Variadic: variadic, Impl: impl,
	}})
}

// RegisterModule installs a native module that import resolves before
// consulting the filesystem.
func (ip *Interpreter) RegisterModule(name string, members map[string]Value) {
	m := NewMap()
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := NewEnv(ip.Core)
	for _, k := range keys {
		m.Set(StrV(k), members[k])
		env.Define(k, members[k])
	}
	ip.native[name] = &Module{Name: name, Env: env, Map: m}
}

// ExcClass returns the builtin exception class with the given name.
func (ip *Interpreter) ExcClass(name string) *Class {
	return ip.excClasses[name]
}
