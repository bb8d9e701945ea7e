// generator.go — suspendable generators and async tasks.
//
// A Generator runs its body on a dedicated goroutine in strict lockstep
// with its driver: unbuffered channels hand control back and forth, so
// exactly one side runs at a time and the usual single-threaded
// evaluation rules hold. Nothing executes until the first advance.
//
// Close injects an exit signal at the suspended yield so pending finally
// blocks run before the goroutine ends; for-loops close the generator
// they drive when they exit early.
package sharp

const (
	msgNext = iota
	msgClose
	msgThrow
)

const (
	evYield = iota
	evDone
	evPanic
)

type genMsg struct {
	kind int
	val  Value
	exc  *ExcValue
}

type genEvent struct {
	kind int
	val  Value
	sig  interface{} // evPanic: the panic value to rethrow in the driver
}

// Generator is the value produced by calling a function whose body
// contains yield.
type Generator struct {
	Name  string
	ip    *Interpreter
	fn    *Fun
	frame *Env

	in  chan genMsg
	out chan genEvent

	started  bool
	running  bool
	finished bool
	retVal   Value
}

func newGenerator(ip *Interpreter, fn *Fun, frame *Env) *Generator {
	return &Generator{
		Name:  fn.displayName(),
		ip:    ip,
		fn:    fn,
		frame: frame,
		in:    make(chan genMsg),
		out:   make(chan genEvent),
	}
}

// run executes the generator body on its own goroutine and reports the
// terminal event.
func (g *Generator) run() {
	var ev genEvent
	func() {
		defer func() {
			if r := recover(); r != nil {
				switch s := r.(type) {
				case returnSig:
					ev = genEvent{kind: evDone, val: s.v}
				case genExitSig:
					ev = genEvent{kind: evDone, val: NilV()}
				default:
					ev = genEvent{kind: evPanic, sig: r}
				}
				return
			}
			ev = genEvent{kind: evDone, val: NilV()}
		}()
		g.frame.Define(genSlot, Value{Tag: VTGen, Data: g})
		g.ip.eval(g.fn.Body, g.frame)
	}()
	g.out <- ev
}

// yieldValue suspends the body at a yield expression. Runs on the
// generator goroutine. The returned value is whatever the driver sends
// back in (nil for a plain next).
func (g *Generator) yieldValue(v Value) Value {
	g.out <- genEvent{kind: evYield, val: v}
	msg := <-g.in
	switch msg.kind {
	case msgClose:
		panic(genExitSig{})
	case msgThrow:
		panic(raiseSig{exc: msg.exc})
	}
	return msg.val
}

// enter marks the generator as executing. Advancing a generator from
// inside its own body would deadlock the lockstep channels, so it is
// rejected up front. The flag crosses the channel handoff, which orders
// the write before the body resumes.
func (g *Generator) enter() {
	if g.running {
		g.ip.throw("RuntimeFault", "generator '%s' already executing", g.Name)
	}
	g.running = true
}

// Next advances the generator, sending sent to the suspended yield.
// Returns (value, true) on a yield and (_, false) on exhaustion; a panic
// inside the body resumes in the driver.
func (g *Generator) Next(sent Value) (Value, bool) {
	if g.finished {
		return NilV(), false
	}
	g.enter()
	if !g.started {
		g.started = true
		go g.run()
	} else {
		g.in <- genMsg{kind: msgNext, val: sent}
	}
	ev := <-g.out
	g.running = false
	switch ev.kind {
	case evYield:
		return ev.val, true
	case evDone:
		g.finished = true
		g.retVal = ev.val
		return NilV(), false
	default:
		g.finished = true
		panic(ev.sig)
	}
}

// Throw resumes the generator by raising exc at the suspended yield.
func (g *Generator) Throw(exc *ExcValue) (Value, bool) {
	if g.finished || !g.started {
		g.finished = true
		panic(raiseSig{exc: exc})
	}
	g.enter()
	g.in <- genMsg{kind: msgThrow, exc: exc}
	ev := <-g.out
	g.running = false
	switch ev.kind {
	case evYield:
		return ev.val, true
	case evDone:
		g.finished = true
		g.retVal = ev.val
		return NilV(), false
	default:
		g.finished = true
		panic(ev.sig)
	}
}

// Close shuts the generator down. A never-started generator just
// finishes; a suspended one is resumed with an exit signal so its
// finally blocks run. Closing twice is a no-op.
func (g *Generator) Close() {
	if g.finished || !g.started {
		g.finished = true
		return
	}
	g.enter()
	g.in <- genMsg{kind: msgClose}
	ev := <-g.out
	g.running = false
	g.finished = true
	if ev.kind == evPanic {
		panic(ev.sig)
	}
}

// ─────────────────────────────── async tasks ────────────────────────────────

const (
	taskPending = iota
	taskRunning
	taskDone
	taskFailed
)

// Task is the value produced by calling an async function. The body does
// not run until the task is awaited (or driven by the run builtin); a
// finished task caches its result, so awaiting twice is safe.
type Task struct {
	Name  string
	ip    *Interpreter
	fn    *Fun
	frame *Env

	state  int
	result Value
	exc    *ExcValue
}

func newTask(ip *Interpreter, fn *Fun, frame *Env) *Task {
	return &Task{Name: fn.displayName(), ip: ip, fn: fn, frame: frame, state: taskPending}
}

// drive runs the task body to completion and records the outcome.
func (t *Task) drive() {
	switch t.state {
	case taskDone, taskFailed:
		return
	case taskRunning:
		t.ip.throw("RuntimeFault", "task '%s' awaited while already running", t.Name)
	}
	t.state = taskRunning
	t.frame.Define(taskSlot, Value{Tag: VTTask, Data: t})

	sig := runProtected(func() {
		t.result = NilV()
		t.ip.eval(t.fn.Body, t.frame)
	})
	if sig != nil {
		switch s := sig.(type) {
		case returnSig:
			t.state = taskDone
			t.result = s.v
			return
		case raiseSig:
			t.state = taskFailed
			t.exc = s.exc
			return
		default:
			t.state = taskFailed
			panic(sig)
		}
	}
	t.state = taskDone
}

// Await drives the task to completion and yields its result, re-raising
// a stored failure.
func (t *Task) Await() Value {
	t.drive()
	if t.state == taskFailed {
		panic(raiseSig{exc: t.exc})
	}
	return t.result
}

// awaitValue implements the await operator.
func (ip *Interpreter) awaitValue(v Value) Value {
	if v.Tag != VTTask {
		ip.throw("TypeError", "'%s' value is not awaitable", v.TypeName())
	}
	return v.Data.(*Task).Await()
}

// awaitIfTask resolves task elements produced by an async iteration and
// passes other values through.
func (ip *Interpreter) awaitIfTask(v Value) Value {
	if v.Tag == VTTask {
		return v.Data.(*Task).Await()
	}
	return v
}
