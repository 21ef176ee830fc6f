package logic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/dkrando/internal/game/item"
)

// ParseError reports a malformed logic expression.
type ParseError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("logic: %s at offset %d in %q", e.Msg, e.Pos, e.Source)
}

// Parser turns logic source text into expressions.
//
// Grammar, lowest precedence first:
//
//	expr  = term { "|" term }
//	term  = atom { "&" atom }
//	atom  = "(" expr ")" | "true" | "false" | "@" name | name [ ">=" count ]
//	count = integer | "$" param
//
// A name is a macro when one is defined, otherwise an item name.
type Parser struct {
	macros    map[string]string
	params    map[string]int
	expanded  map[string]Expr
	expanding []string
}

// NewParser returns a parser resolving macros and $params.
//
// Precondition: macros and params may be nil.
func NewParser(macros map[string]string, params map[string]int) *Parser {
	return &Parser{
		macros:   macros,
		params:   params,
		expanded: make(map[string]Expr),
	}
}

// Parse parses src. An empty or blank source is Always.
//
// Postcondition: Returns a non-nil Expr or a *ParseError / macro error.
func (p *Parser) Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return Always, nil
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	r := &reader{src: src, toks: toks, p: p}
	e, err := r.expr()
	if err != nil {
		return nil, err
	}
	if !r.done() {
		t := r.peek()
		return nil, &ParseError{Source: src, Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

// MustParse is Parse that panics on error. Intended for tests.
func (p *Parser) MustParse(src string) Expr {
	e, err := p.Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Parse parses src without macros or params.
func Parse(src string) (Expr, error) {
	return NewParser(nil, nil).Parse(src)
}

func (p *Parser) macro(name string) (Expr, bool, error) {
	body, ok := p.macros[name]
	if !ok {
		return nil, false, nil
	}
	if e, ok := p.expanded[name]; ok {
		return e, true, nil
	}
	for _, n := range p.expanding {
		if n == name {
			return nil, true, fmt.Errorf("logic: macro cycle %s -> %s", strings.Join(p.expanding, " -> "), name)
		}
	}
	p.expanding = append(p.expanding, name)
	e, err := p.Parse(body)
	p.expanding = p.expanding[:len(p.expanding)-1]
	if err != nil {
		return nil, true, fmt.Errorf("logic: macro %q: %w", name, err)
	}
	p.expanded[name] = e
	return e, true, nil
}

type tokKind int

const (
	tokName tokKind = iota
	tokEvent
	tokParam
	tokInt
	tokAnd
	tokOr
	tokGE
	tokOpen
	tokClose
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '&':
			toks = append(toks, token{tokAnd, "&", i})
			i++
		case c == '|':
			toks = append(toks, token{tokOr, "|", i})
			i++
		case c == '(':
			toks = append(toks, token{tokOpen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokClose, ")", i})
			i++
		case c == '>' && i+1 < len(src) && src[i+1] == '=':
			toks = append(toks, token{tokGE, ">=", i})
			i += 2
		case c == '@' || c == '$':
			start := i
			i++
			for i < len(src) && isNameByte(src[i]) {
				i++
			}
			if i == start+1 {
				return nil, &ParseError{Source: src, Pos: start, Msg: fmt.Sprintf("empty name after %q", string(c))}
			}
			kind := tokEvent
			if c == '$' {
				kind = tokParam
			}
			toks = append(toks, token{kind, src[start+1 : i], start})
		case isNameByte(c):
			start := i
			digits := true
			for i < len(src) && isNameByte(src[i]) {
				if src[i] < '0' || src[i] > '9' {
					digits = false
				}
				i++
			}
			kind := tokName
			if digits {
				kind = tokInt
			}
			toks = append(toks, token{kind, src[start:i], start})
		default:
			return nil, &ParseError{Source: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", string(c))}
		}
	}
	return toks, nil
}

type reader struct {
	src  string
	toks []token
	i    int
	p    *Parser
}

func (r *reader) done() bool { return r.i >= len(r.toks) }

func (r *reader) peek() token { return r.toks[r.i] }

func (r *reader) errEnd(msg string) error {
	return &ParseError{Source: r.src, Pos: len(r.src), Msg: msg}
}

func (r *reader) expr() (Expr, error) {
	first, err := r.term()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for !r.done() && r.peek().kind == tokOr {
		r.i++
		t, err := r.term()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return Or(terms...), nil
}

func (r *reader) term() (Expr, error) {
	first, err := r.atom()
	if err != nil {
		return nil, err
	}
	atoms := []Expr{first}
	for !r.done() && r.peek().kind == tokAnd {
		r.i++
		a, err := r.atom()
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	return And(atoms...), nil
}

func (r *reader) atom() (Expr, error) {
	if r.done() {
		return nil, r.errEnd("unexpected end of expression")
	}
	t := r.peek()
	r.i++
	switch t.kind {
	case tokOpen:
		e, err := r.expr()
		if err != nil {
			return nil, err
		}
		if r.done() {
			return nil, r.errEnd("missing )")
		}
		if c := r.peek(); c.kind != tokClose {
			return nil, &ParseError{Source: r.src, Pos: c.pos, Msg: fmt.Sprintf("expected ) but found %q", c.text)}
		}
		r.i++
		return e, nil
	case tokEvent:
		return Event(t.text), nil
	case tokName:
		return r.name(t)
	}
	return nil, &ParseError{Source: r.src, Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}

func (r *reader) name(t token) (Expr, error) {
	lower := strings.ToLower(t.text)
	switch lower {
	case "true":
		return Always, nil
	case "false":
		return Never, nil
	}
	hasCount := !r.done() && r.peek().kind == tokGE

	if e, ok, err := r.p.macro(lower); ok {
		if err != nil {
			return nil, err
		}
		if hasCount {
			return nil, &ParseError{Source: r.src, Pos: r.peek().pos, Msg: fmt.Sprintf("macro %q cannot take a count", lower)}
		}
		return e, nil
	}

	k, err := item.Parse(lower)
	if err != nil {
		return nil, &ParseError{Source: r.src, Pos: t.pos, Msg: err.Error()}
	}
	if !hasCount {
		return Item(k), nil
	}
	r.i++
	if r.done() {
		return nil, r.errEnd("missing count after >=")
	}
	c := r.peek()
	r.i++
	switch c.kind {
	case tokInt:
		n, err := strconv.Atoi(c.text)
		if err != nil {
			return nil, &ParseError{Source: r.src, Pos: c.pos, Msg: err.Error()}
		}
		return AtLeast(k, n), nil
	case tokParam:
		n, ok := r.p.params[c.text]
		if !ok {
			return nil, &ParseError{Source: r.src, Pos: c.pos, Msg: fmt.Sprintf("unknown parameter $%s", c.text)}
		}
		return AtLeast(k, n), nil
	}
	return nil, &ParseError{Source: r.src, Pos: c.pos, Msg: fmt.Sprintf("expected count but found %q", c.text)}
}
