// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokRef
	tokString
	tokEnum
	tokInteger
	tokReal
	tokBinary
	tokDollar
	tokStar
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokEquals
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of file",
	tokKeyword:   "keyword",
	tokRef:       "entity reference",
	tokString:    "string",
	tokEnum:      "enumeration",
	tokInteger:   "integer",
	tokReal:      "real",
	tokBinary:    "binary",
	tokDollar:    "'$'",
	tokStar:      "'*'",
	tokLParen:    "'('",
	tokRParen:    "')'",
	tokComma:     "','",
	tokSemicolon: "';'",
	tokEquals:    "'='",
}

func (k tokenKind) String() string {
	if n, ok := tokenNames[k]; ok {
		return n
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	line int
}

// SyntaxError reports malformed STEP input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ifc: line %d: %s", e.Line, e.Msg)
}

type lexer struct {
	r    *bufio.Reader
	line int
	peek *token
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReaderSize(r, 64*1024), line: 1}
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) readByte() (byte, error) {
	b, err := l.r.ReadByte()
	if err == nil && b == '\n' {
		l.line++
	}
	return b, err
}

func (l *lexer) unreadByte(b byte) {
	_ = l.r.UnreadByte()
	if b == '\n' {
		l.line--
	}
}

func (l *lexer) peekByte() (byte, bool) {
	bs, err := l.r.Peek(1)
	if err != nil {
		return 0, false
	}
	return bs[0], true
}

// Peek returns the next token without consuming it.
func (l *lexer) Peek() (token, error) {
	if l.peek != nil {
		return *l.peek, nil
	}
	t, err := l.scan()
	if err != nil {
		return token{}, err
	}
	l.peek = &t
	return t, nil
}

// Next consumes and returns the next token.
func (l *lexer) Next() (token, error) {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t, nil
	}
	return l.scan()
}

func (l *lexer) skipSpaceAndComments() error {
	for {
		b, err := l.readByte()
		if err != nil {
			return err
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			continue
		case b == '/':
			next, ok := l.peekByte()
			if !ok || next != '*' {
				l.unreadByte(b)
				return nil
			}
			_, _ = l.readByte()
			if err := l.skipComment(); err != nil {
				return err
			}
		default:
			l.unreadByte(b)
			return nil
		}
	}
}

func (l *lexer) skipComment() error {
	start := l.line
	var prev byte
	for {
		b, err := l.readByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &SyntaxError{Line: start, Msg: "unterminated comment"}
			}
			return err
		}
		if prev == '*' && b == '/' {
			return nil
		}
		prev = b
	}
}

func (l *lexer) scan() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		if errors.Is(err, io.EOF) {
			return token{kind: tokEOF, line: l.line}, nil
		}
		return token{}, err
	}
	line := l.line
	b, err := l.readByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token{kind: tokEOF, line: line}, nil
		}
		return token{}, err
	}

	switch {
	case b == '(':
		return token{kind: tokLParen, line: line}, nil
	case b == ')':
		return token{kind: tokRParen, line: line}, nil
	case b == ',':
		return token{kind: tokComma, line: line}, nil
	case b == ';':
		return token{kind: tokSemicolon, line: line}, nil
	case b == '=':
		return token{kind: tokEquals, line: line}, nil
	case b == '$':
		return token{kind: tokDollar, line: line}, nil
	case b == '*':
		return token{kind: tokStar, line: line}, nil
	case b == '#':
		digits := l.readWhile(isDigit)
		if digits == "" {
			return token{}, l.errorf("expected digits after '#'")
		}
		return token{kind: tokRef, text: digits, line: line}, nil
	case b == '\'':
		s, err := l.readString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, line: line}, nil
	case b == '"':
		hex := l.readWhile(isHex)
		end, err := l.readByte()
		if err != nil || end != '"' {
			return token{}, l.errorf("unterminated binary value")
		}
		return token{kind: tokBinary, text: hex, line: line}, nil
	case b == '.':
		name := l.readWhile(isKeywordChar)
		end, err := l.readByte()
		if name == "" || err != nil || end != '.' {
			return token{}, l.errorf("malformed enumeration")
		}
		return token{kind: tokEnum, text: strings.ToUpper(name), line: line}, nil
	case isDigit(b) || b == '-' || b == '+':
		return l.readNumber(b, line)
	case isLetter(b) || b == '_':
		rest := l.readWhile(func(c byte) bool { return isKeywordChar(c) || c == '-' })
		return token{kind: tokKeyword, text: strings.ToUpper(string(b) + rest), line: line}, nil
	default:
		return token{}, l.errorf("unexpected character %q", b)
	}
}

func (l *lexer) readWhile(pred func(byte) bool) string {
	var sb strings.Builder
	for {
		c, ok := l.peekByte()
		if !ok || !pred(c) {
			return sb.String()
		}
		_, _ = l.readByte()
		sb.WriteByte(c)
	}
}

func (l *lexer) readNumber(first byte, line int) (token, error) {
	var sb strings.Builder
	sb.WriteByte(first)
	sb.WriteString(l.readWhile(isDigit))
	isReal := false
	if c, ok := l.peekByte(); ok && c == '.' {
		isReal = true
		_, _ = l.readByte()
		sb.WriteByte('.')
		sb.WriteString(l.readWhile(isDigit))
	}
	if c, ok := l.peekByte(); ok && (c == 'E' || c == 'e') {
		isReal = true
		_, _ = l.readByte()
		sb.WriteByte('E')
		if s, ok := l.peekByte(); ok && (s == '+' || s == '-') {
			_, _ = l.readByte()
			sb.WriteByte(s)
		}
		exp := l.readWhile(isDigit)
		if exp == "" {
			return token{}, l.errorf("malformed exponent in %q", sb.String())
		}
		sb.WriteString(exp)
	}
	text := sb.String()
	if text == "-" || text == "+" {
		return token{}, l.errorf("unexpected character %q", first)
	}
	if isReal {
		return token{kind: tokReal, text: text, line: line}, nil
	}
	return token{kind: tokInteger, text: text, line: line}, nil
}

// readString reads a quoted string after the opening quote; a doubled quote is an
// escaped quote. Control directives are decoded by decodeString.
func (l *lexer) readString() (string, error) {
	start := l.line
	var sb strings.Builder
	for {
		b, err := l.readByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", &SyntaxError{Line: start, Msg: "unterminated string"}
			}
			return "", err
		}
		if b == '\'' {
			if next, ok := l.peekByte(); ok && next == '\'' {
				_, _ = l.readByte()
				sb.WriteByte('\'')
				continue
			}
			return decodeString(sb.String()), nil
		}
		if b == '\n' || b == '\r' {
			continue
		}
		sb.WriteByte(b)
	}
}

// decodeString resolves the \X\hh, \X2\...\X0\ and \S\c directives used by
// IFC exporters for non-ASCII text. Unknown directives are left as-is.
func decodeString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\X2\`):
			end := strings.Index(s[i+4:], `\X0\`)
			if end < 0 {
				sb.WriteString(s[i:])
				return sb.String()
			}
			hex := s[i+4 : i+4+end]
			var units []uint16
			for j := 0; j+4 <= len(hex); j += 4 {
				v, err := strconv.ParseUint(hex[j:j+4], 16, 16)
				if err != nil {
					break
				}
				units = append(units, uint16(v))
			}
			sb.WriteString(string(utf16.Decode(units)))
			i += 4 + end + 4
		case strings.HasPrefix(s[i:], `\X\`) && i+5 <= len(s):
			v, err := strconv.ParseUint(s[i+3:i+5], 16, 8)
			if err != nil {
				sb.WriteByte(s[i])
				i++
				continue
			}
			sb.WriteRune(rune(v))
			i += 5
		case strings.HasPrefix(s[i:], `\S\`) && i+4 <= len(s):
			sb.WriteRune(rune(s[i+3]) + 128)
			i += 4
		case strings.HasPrefix(s[i:], `\\`):
			sb.WriteByte('\\')
			i += 2
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isHex(c byte) bool    { return isDigit(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f') }
func isKeywordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
