// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import (
	"fmt"
	"io"
	"strconv"
)

const (
	kwISO    = "ISO-10303-21"
	kwEndISO = "END-ISO-10303-21"
	kwHeader = "HEADER"
	kwData   = "DATA"
	kwEndSec = "ENDSEC"
)

// Parse reads a STEP physical file (ISO 10303-21) carrying an IFC model.
func Parse(r io.Reader) (*Model, error) {
	p := &parser{lex: newLexer(r)}
	return p.parse()
}

type parser struct {
	lex *lexer
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t, err := p.lex.Next()
	if err != nil {
		return token{}, err
	}
	if t.kind != kind {
		return token{}, p.errorf(t, "expected %s, found %s", kind, describe(t))
	}
	return t, nil
}

func (p *parser) expectKeyword(word string) error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	if t.kind != tokKeyword || t.text != word {
		return p.errorf(t, "expected %s, found %s", word, describe(t))
	}
	return nil
}

func describe(t token) string {
	if t.text != "" {
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}

func (p *parser) parse() (*Model, error) {
	if err := p.expectKeyword(kwISO); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(kwHeader); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}

	m := newModel()
	if err := p.parseHeader(m); err != nil {
		return nil, err
	}

	sawData := false
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if t.kind != tokKeyword {
			return nil, p.errorf(t, "expected DATA or %s, found %s", kwEndISO, describe(t))
		}
		switch t.text {
		case kwData:
			if err := p.skipSectionParams(); err != nil {
				return nil, err
			}
			if err := p.parseData(m); err != nil {
				return nil, err
			}
			sawData = true
		case kwEndISO:
			if _, err := p.expect(tokSemicolon); err != nil {
				return nil, err
			}
			if !sawData {
				return nil, p.errorf(t, "missing DATA section")
			}
			m.finish()
			return m, nil
		default:
			return nil, p.errorf(t, "expected DATA or %s, found %s", kwEndISO, describe(t))
		}
	}
}

func (p *parser) parseHeader(m *Model) error {
	for {
		t, err := p.lex.Next()
		if err != nil {
			return err
		}
		if t.kind != tokKeyword {
			return p.errorf(t, "expected header entity, found %s", describe(t))
		}
		if t.text == kwEndSec {
			_, err := p.expect(tokSemicolon)
			return err
		}
		args, err := p.parseArgList()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokSemicolon); err != nil {
			return err
		}
		switch t.text {
		case "FILE_SCHEMA":
			if len(args) > 0 && args[0].Kind == ValueList && len(args[0].List) > 0 {
				if s, ok := args[0].List[0].String(); ok {
					m.Schema = s
				}
			}
		case "FILE_NAME":
			if len(args) > 0 {
				if s, ok := args[0].String(); ok {
					m.FileName = s
				}
			}
		}
	}
}

// skipSectionParams consumes the optional parameter list of an edition 3
// DATA section header followed by ';'.
func (p *parser) skipSectionParams() error {
	t, err := p.lex.Peek()
	if err != nil {
		return err
	}
	if t.kind == tokLParen {
		if _, err := p.parseArgList(); err != nil {
			return err
		}
	}
	_, err = p.expect(tokSemicolon)
	return err
}

func (p *parser) parseData(m *Model) error {
	for {
		t, err := p.lex.Next()
		if err != nil {
			return err
		}
		switch t.kind {
		case tokKeyword:
			if t.text != kwEndSec {
				return p.errorf(t, "expected entity instance or ENDSEC, found %s", describe(t))
			}
			_, err := p.expect(tokSemicolon)
			return err
		case tokRef:
			e, err := p.parseInstance(t)
			if err != nil {
				return err
			}
			if err := m.add(e); err != nil {
				return p.errorf(t, "%v", err)
			}
		case tokEOF:
			return p.errorf(t, "unexpected end of file in DATA section")
		default:
			return p.errorf(t, "expected entity instance or ENDSEC, found %s", describe(t))
		}
	}
}

func (p *parser) parseInstance(ref token) (*Entity, error) {
	id, err := strconv.Atoi(ref.text)
	if err != nil {
		return nil, p.errorf(ref, "invalid entity id #%s", ref.text)
	}
	if _, err := p.expect(tokEquals); err != nil {
		return nil, err
	}

	t, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	e := &Entity{ID: id}
	switch t.kind {
	case tokKeyword:
		e.Type = t.text
		if e.Args, err = p.parseArgList(); err != nil {
			return nil, err
		}
	case tokLParen:
		// complex instance: (A(...) B(...) ...)
		for {
			part, err := p.lex.Next()
			if err != nil {
				return nil, err
			}
			if part.kind == tokRParen {
				break
			}
			if part.kind != tokKeyword {
				return nil, p.errorf(part, "expected partial entity type, found %s", describe(part))
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if e.Type == "" {
				e.Type = part.text
				e.Args = args
			}
			e.Parts = append(e.Parts, part.text)
		}
		if e.Type == "" {
			return nil, p.errorf(t, "empty complex instance #%d", id)
		}
	default:
		return nil, p.errorf(t, "expected entity type for #%d, found %s", id, describe(t))
	}

	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	return e, nil
}

// parseArgList parses "(" [value {"," value}] ")".
func (p *parser) parseArgList() ([]Value, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []Value
	t, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if t.kind == tokRParen {
		_, _ = p.lex.Next()
		return args, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		sep, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		switch sep.kind {
		case tokComma:
			continue
		case tokRParen:
			return args, nil
		default:
			return nil, p.errorf(sep, "expected ',' or ')', found %s", describe(sep))
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	t, err := p.lex.Peek()
	if err != nil {
		return Value{}, err
	}
	if t.kind == tokLParen {
		list, err := p.parseArgList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueList, List: list}, nil
	}

	_, _ = p.lex.Next()
	switch t.kind {
	case tokDollar:
		return Value{Kind: ValueNull}, nil
	case tokStar:
		return Value{Kind: ValueDerived}, nil
	case tokString:
		return Value{Kind: ValueString, Str: t.text}, nil
	case tokEnum:
		return Value{Kind: ValueEnum, Str: t.text}, nil
	case tokBinary:
		return Value{Kind: ValueBinary, Str: t.text}, nil
	case tokRef:
		id, err := strconv.Atoi(t.text)
		if err != nil {
			return Value{}, p.errorf(t, "invalid reference #%s", t.text)
		}
		return Value{Kind: ValueRef, Ref: id}, nil
	case tokInteger:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return Value{}, p.errorf(t, "invalid integer %q", t.text)
		}
		return Value{Kind: ValueInteger, Int: n}, nil
	case tokReal:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Value{}, p.errorf(t, "invalid real %q", t.text)
		}
		return Value{Kind: ValueReal, Real: f}, nil
	case tokKeyword:
		inner, err := p.parseArgList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueTyped, Str: t.text, List: inner}, nil
	default:
		return Value{}, p.errorf(t, "unexpected %s", describe(t))
	}
}
