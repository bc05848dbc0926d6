package lang

import (
	"fmt"

	"github.com/bluewin4/infinite-contract/internal/protocol"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus   // +
	tokMinus  // -
	tokStar   // *
	tokSlash  // /
	tokLParen // (
	tokRParen // )
	tokAssign // = += -= *= /=
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits raw statement text into tokens. Any byte outside the whitelist
// is E_DISALLOWED_CONSTRUCT; the parser decides what is merely malformed.
func lex(src string) ([]token, string, string) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j], i})
			i = j
		case isIdentByte(c):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], i})
			i = j
		case c == '+' || c == '-' || c == '*' || c == '/':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokAssign, src[i : i+2], i})
				i += 2
				break
			}
			kind := map[byte]tokenKind{'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash}[c]
			toks = append(toks, token{kind, src[i : i+1], i})
			i++
		case c == '=':
			if i+1 < len(src) && src[i+1] == '=' {
				return nil, protocol.ErrDisallowedConstruct, "comparison operators are not allowed"
			}
			toks = append(toks, token{tokAssign, "=", i})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		default:
			return nil, protocol.ErrDisallowedConstruct, fmt.Sprintf("token %q is not allowed", string(c))
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, "", ""
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
