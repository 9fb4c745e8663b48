package formula

import (
	"math"
	"strconv"
	"strings"
)

type node interface {
	eval(x, y, z float64) float64
	compile() func(x, y, z float64) float64
	infix(b *strings.Builder)
	lisp(b *strings.Builder)
}

// ---------------------------------------------------------------------------
// Leaves
// ---------------------------------------------------------------------------

type number float64

func (n number) eval(_, _, _ float64) float64 { return float64(n) }

func (n number) compile() func(x, y, z float64) float64 {
	v := float64(n)
	return func(_, _, _ float64) float64 { return v }
}

func (n number) infix(b *strings.Builder) { b.WriteString(formatNumber(float64(n))) }

func (n number) lisp(b *strings.Builder) { b.WriteString(formatNumber(float64(n))) }

// formatNumber always emits a decimal point so that Lisp evaluators treat
// the literal as a float and never fall into integer division.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

type variable byte

func (v variable) eval(x, y, z float64) float64 {
	switch v {
	case 'x':
		return x
	case 'y':
		return y
	default:
		return z
	}
}

func (v variable) compile() func(x, y, z float64) float64 {
	switch v {
	case 'x':
		return func(x, _, _ float64) float64 { return x }
	case 'y':
		return func(_, y, _ float64) float64 { return y }
	default:
		return func(_, _, z float64) float64 { return z }
	}
}

func (v variable) infix(b *strings.Builder) { b.WriteByte(byte(v)) }

func (v variable) lisp(b *strings.Builder) { b.WriteByte(byte(v)) }

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

type unary struct {
	op byte // '-' only; unary plus is dropped by the parser
	x  node
}

func (u *unary) eval(x, y, z float64) float64 { return -u.x.eval(x, y, z) }

func (u *unary) compile() func(x, y, z float64) float64 {
	f := u.x.compile()
	return func(x, y, z float64) float64 { return -f(x, y, z) }
}

func (u *unary) infix(b *strings.Builder) {
	b.WriteString("(-")
	u.x.infix(b)
	b.WriteByte(')')
}

func (u *unary) lisp(b *strings.Builder) {
	b.WriteString("(- 0.0 ")
	u.x.lisp(b)
	b.WriteByte(')')
}

type binary struct {
	op   byte // + - * / % ^
	l, r node
}

func apply(op byte, a, c float64) float64 {
	switch op {
	case '+':
		return a + c
	case '-':
		return a - c
	case '*':
		return a * c
	case '/':
		return a / c
	case '%':
		return Mod(a, c)
	default:
		return math.Pow(a, c)
	}
}

func (n *binary) eval(x, y, z float64) float64 {
	return apply(n.op, n.l.eval(x, y, z), n.r.eval(x, y, z))
}

func (n *binary) compile() func(x, y, z float64) float64 {
	l, r := n.l.compile(), n.r.compile()
	switch n.op {
	case '+':
		return func(x, y, z float64) float64 { return l(x, y, z) + r(x, y, z) }
	case '-':
		return func(x, y, z float64) float64 { return l(x, y, z) - r(x, y, z) }
	case '*':
		return func(x, y, z float64) float64 { return l(x, y, z) * r(x, y, z) }
	case '/':
		return func(x, y, z float64) float64 { return l(x, y, z) / r(x, y, z) }
	case '%':
		return func(x, y, z float64) float64 { return Mod(l(x, y, z), r(x, y, z)) }
	}
	// Small integer exponents are by far the most common; multiply instead
	// of calling math.Pow.
	if k, ok := n.r.(number); ok && k == number(math.Trunc(float64(k))) && k >= 0 && k <= 8 {
		e := int(k)
		return func(x, y, z float64) float64 {
			v, acc := l(x, y, z), 1.0
			for i := 0; i < e; i++ {
				acc *= v
			}
			return acc
		}
	}
	return func(x, y, z float64) float64 { return math.Pow(l(x, y, z), r(x, y, z)) }
}

func (n *binary) infix(b *strings.Builder) {
	b.WriteByte('(')
	n.l.infix(b)
	if n.op == '^' {
		b.WriteString("**")
	} else {
		b.WriteByte(n.op)
	}
	n.r.infix(b)
	b.WriteByte(')')
}

func (n *binary) lisp(b *strings.Builder) {
	b.WriteByte('(')
	switch n.op {
	case '^':
		b.WriteString("pow")
	case '%':
		b.WriteString("fmod")
	default:
		b.WriteByte(n.op)
	}
	b.WriteByte(' ')
	n.l.lisp(b)
	b.WriteByte(' ')
	n.r.lisp(b)
	b.WriteByte(')')
}
