// builtin_time.go — wall clock and sleeping.
package sharp

import "time"

func registerTimeBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	// seconds since the Unix epoch, as a float
	reg("time", 0, false, func(ip *Interpreter, args []Value) Value {
		return NumV(float64(time.Now().UnixNano()) / 1e9)
	})

	reg("time_ms", 0, false, func(ip *Interpreter, args []Value) Value {
		return IntV(time.Now().UnixMilli())
	})

	reg("sleep", 1, false, func(ip *Interpreter, args []Value) Value {
		secs := ip.argNum("sleep()", args[0])
		if secs < 0 {
			ip.throw("ValueError", "sleep() duration cannot be negative")
		}
		time.Sleep(time.Duration(secs * float64(time.Second)))
		return NilV()
	})

	// formatted local time, default "2006-01-02 15:04:05" layout words:
	// the layout argument uses Go reference-time notation
	reg("now", 0, true, func(ip *Interpreter, args []Value) Value {
		layout := "2006-01-02 15:04:05"
		if len(args) > 0 {
			layout = ip.argStr("now()", args[0])
		}
		return StrV(time.Now().Format(layout))
	})

	// monotonic seconds for interval timing
	reg("clock", 0, false, func(ip *Interpreter, args []Value) Value {
		return NumV(time.Since(processStart).Seconds())
	})
}

var processStart = time.Now()
