package formula

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokVar
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokPow // ^ or **
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokVar:
		return "variable"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokPercent:
		return "'%'"
	case tokPow:
		return "'^'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "unknown"
	}
}

type token struct {
	kind tokenKind
	pos  int // 1-based column
	num  float64
	name byte // 'x', 'y' or 'z'
}

// lex splits src into tokens. Variables are case-insensitive.
func lex(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		col := i + 1
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			v, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, &Error{Col: col, Msg: fmt.Sprintf("malformed number %q", src[i:j])}
			}
			toks = append(toks, token{kind: tokNumber, pos: col, num: v})
			i = j
		case unicode.ToLower(rune(c)) == 'x' || unicode.ToLower(rune(c)) == 'y' || unicode.ToLower(rune(c)) == 'z':
			toks = append(toks, token{kind: tokVar, pos: col, name: byte(unicode.ToLower(rune(c)))})
			i++
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			toks = append(toks, token{kind: tokPow, pos: col})
			i += 2
		default:
			k, ok := singles[c]
			if !ok {
				return nil, &Error{Col: col, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{kind: k, pos: col})
			i++
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src) + 1}), nil
}

var singles = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'%': tokPercent,
	'^': tokPow,
	'(': tokLParen,
	')': tokRParen,
}
