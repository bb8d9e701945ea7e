// builtin_math.go — numeric builtins and pseudo-random helpers.
package sharp

import (
	"math"
	"math/rand"
)

func registerMathBuiltins(ip *Interpreter) {
	reg := ip.RegisterBuiltin

	ip.Core.Define("pi", NumV(math.Pi))
	ip.Core.Define("e", NumV(math.E))

	reg("abs", 1, false, func(ip *Interpreter, args []Value) Value {
		switch v := args[0]; v.Tag {
		case VTInt:
			n := v.AsInt()
			if n < 0 {
				n = -n
			}
			return IntV(n)
		case VTNum:
			return NumV(math.Abs(v.AsNum()))
		}
		ip.throw("TypeError", "abs() expects a number, got '%s'", args[0].TypeName())
		return NilV()
	})

	reg("round", 1, true, func(ip *Interpreter, args []Value) Value {
		f := ip.argNum("round()", args[0])
		if len(args) > 1 {
			digits := ip.argInt("round()", args[1])
			scale := math.Pow(10, float64(digits))
			return NumV(math.Round(f*scale) / scale)
		}
		return IntV(int64(math.Round(f)))
	})

	reg("floor", 1, false, func(ip *Interpreter, args []Value) Value {
		return IntV(int64(math.Floor(ip.argNum("floor()", args[0]))))
	})

	reg("ceil", 1, false, func(ip *Interpreter, args []Value) Value {
		return IntV(int64(math.Ceil(ip.argNum("ceil()", args[0]))))
	})

	reg("pow", 2, false, func(ip *Interpreter, args []Value) Value {
		return ip.binop("**", args[0], args[1])
	})

	reg("sqrt", 1, false, func(ip *Interpreter, args []Value) Value {
		f := ip.argNum("sqrt()", args[0])
		if f < 0 {
			ip.throw("ValueError", "sqrt() of a negative number")
		}
		return NumV(math.Sqrt(f))
	})

	// one float in, one float out
	unary := func(name string, f func(float64) float64) {
		reg(name, 1, false, func(ip *Interpreter, args []Value) Value {
			return NumV(f(ip.argNum(name+"()", args[0])))
		})
	}
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("exp", math.Exp)
	unary("degrees", func(r float64) float64 { return r * 180 / math.Pi })
	unary("radians", func(d float64) float64 { return d * math.Pi / 180 })

	reg("log", 1, true, func(ip *Interpreter, args []Value) Value {
		f := ip.argNum("log()", args[0])
		if f <= 0 {
			ip.throw("ValueError", "log() of a non-positive number")
		}
		if len(args) > 1 {
			base := ip.argNum("log()", args[1])
			if base <= 0 || base == 1 {
				ip.throw("ValueError", "log() base must be positive and not 1")
			}
			return NumV(math.Log(f) / math.Log(base))
		}
		return NumV(math.Log(f))
	})

	reg("log10", 1, false, func(ip *Interpreter, args []Value) Value {
		f := ip.argNum("log10()", args[0])
		if f <= 0 {
			ip.throw("ValueError", "log10() of a non-positive number")
		}
		return NumV(math.Log10(f))
	})

	reg("divmod", 2, false, func(ip *Interpreter, args []Value) Value {
		a := ip.argInt("divmod()", args[0])
		b := ip.argInt("divmod()", args[1])
		if b == 0 {
			ip.throw("ZeroDivisionError", "integer division or modulo by zero")
		}
		return TupleV([]Value{IntV(floorDivInt(a, b)), IntV(floorModInt(a, b))})
	})

	// pseudo-random helpers; seed with seed() for reproducible runs

	reg("seed", 1, false, func(ip *Interpreter, args []Value) Value {
		ip.rng = rand.New(rand.NewSource(ip.argInt("seed()", args[0])))
		return NilV()
	})

	reg("random", 0, false, func(ip *Interpreter, args []Value) Value {
		return NumV(ip.rng.Float64())
	})

	reg("randint", 2, false, func(ip *Interpreter, args []Value) Value {
		lo := ip.argInt("randint()", args[0])
		hi := ip.argInt("randint()", args[1])
		if hi < lo {
			ip.throw("ValueError", "randint(): empty range %d..%d", lo, hi)
		}
		return IntV(lo + ip.rng.Int63n(hi-lo+1))
	})

	reg("choice", 1, false, func(ip *Interpreter, args []Value) Value {
		items := ip.sequenceItems(args[0], "choice()")
		if len(items) == 0 {
			ip.throw("ValueError", "choice() from an empty sequence")
		}
		return items[ip.rng.Intn(len(items))]
	})

	reg("shuffle", 1, false, func(ip *Interpreter, args []Value) Value {
		lst := ip.argList("shuffle()", args[0])
		ip.rng.Shuffle(len(lst.Items), func(i, j int) {
			lst.Items[i], lst.Items[j] = lst.Items[j], lst.Items[i]
		})
		return args[0]
	})
}
