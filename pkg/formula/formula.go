// Package formula parses the infix expressions users type for implicit
// surfaces, f(x,y,z), and compiles them into evaluators.
//
// Supported syntax: decimal numbers, the variables x, y and z (either case),
// + - * / %, exponentiation written ^ or **, unary minus and parentheses.
// Exponentiation is right associative and binds tighter than unary minus,
// so -x^2 is -(x^2).
package formula

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ErrSyntax is matched by every parse error.
var ErrSyntax = errors.New("formula: syntax error")

// ErrCharacters is returned by CheckCharacters.
var ErrCharacters = errors.New("formula: invalid characters used")

// Error is a parse error at a 1-based column.
type Error struct {
	Col int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("formula: column %d: %s", e.Col, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrSyntax
}

// allowed is the character whitelist applied to normalised formulas.
var allowed = regexp.MustCompile(`^[xyz0-9\-+/*()\s.%]+$`)

// Normalize lowercases s and rewrites ^ as **.
func Normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "^", "**"))
}

// CheckCharacters reports ErrCharacters when the normalised formula
// contains anything outside the supported alphabet.
func CheckCharacters(s string) error {
	if !allowed.MatchString(Normalize(s)) {
		return ErrCharacters
	}
	return nil
}

// Expr is a parsed formula.
type Expr struct {
	src  string
	root node
}

// Parse parses src.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &Error{Col: t.pos, Msg: fmt.Sprintf("unexpected %s", t.kind)}
	}
	return &Expr{src: src, root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the text the expression was parsed from.
func (e *Expr) Source() string { return e.src }

// String returns the fully parenthesised canonical form.
func (e *Expr) String() string {
	var b strings.Builder
	e.root.infix(&b)
	return b.String()
}

// Eval evaluates the expression at (x, y, z).
func (e *Expr) Eval(x, y, z float64) float64 {
	return e.root.eval(x, y, z)
}

// Func compiles the expression into a closure tree, which avoids the
// interface dispatch of Eval in the hot meshing loop. The returned function
// is safe for concurrent use.
func (e *Expr) Func() func(x, y, z float64) float64 {
	return e.root.compile()
}

// Lisp renders the expression as a prefix s-expression over the free
// variables x, y and z. Exponentiation and modulo are rendered as calls to
// pow and fmod, which the evaluator must provide.
func (e *Expr) Lisp() string {
	var b strings.Builder
	e.root.lisp(&b)
	return b.String()
}

// Vars reports which of x, y and z occur in the expression.
func (e *Expr) Vars() (x, y, z bool) {
	var walk func(n node)
	walk = func(n node) {
		switch n := n.(type) {
		case variable:
			switch n {
			case 'x':
				x = true
			case 'y':
				y = true
			case 'z':
				z = true
			}
		case *unary:
			walk(n.x)
		case *binary:
			walk(n.l)
			walk(n.r)
		}
	}
	walk(e.root)
	return x, y, z
}

// Mod is floored modulo: the result has the sign of b, as in Python.
func Mod(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a - b*math.Floor(a/b)
}
