package logic

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dkrando/internal/game/item"
)

// Expr is a predicate over a State.
//
// Invariant: every Expr is monotone. If s2 covers s1 then
// e.Eval(s1) implies e.Eval(s2). The language has no negation, so every
// composition of the constructors below preserves this.
type Expr interface {
	// Eval reports whether the predicate holds under s. It never mutates s.
	Eval(s *State) bool
	// String renders the predicate in the source syntax.
	String() string
}

// Const is a predicate with a fixed truth value.
type Const bool

// Always and Never are the two constant predicates.
const (
	Always Const = true
	Never  Const = false
)

// Eval returns the constant.
func (c Const) Eval(*State) bool { return bool(c) }

func (c Const) String() string {
	if c {
		return "true"
	}
	return "false"
}

// HasItem holds when at least Min copies of Item are owned.
type HasItem struct {
	Item item.Kind
	Min  int
}

// Eval compares the owned count against Min.
func (h HasItem) Eval(s *State) bool { return s.Count(h.Item) >= h.Min }

func (h HasItem) String() string {
	if h.Min == 1 {
		return h.Item.String()
	}
	return fmt.Sprintf("%s>=%d", h.Item, h.Min)
}

// HasEvent holds once the named event has been triggered.
type HasEvent struct {
	Name string
}

// Eval checks the event set. Unknown events are simply false.
func (h HasEvent) Eval(s *State) bool { return s.HasEvent(h.Name) }

func (h HasEvent) String() string { return "@" + h.Name }

// AllOf holds when every term holds. An empty AllOf is true.
type AllOf []Expr

// Eval short-circuits on the first false term.
func (a AllOf) Eval(s *State) bool {
	for _, e := range a {
		if !e.Eval(s) {
			return false
		}
	}
	return true
}

func (a AllOf) String() string { return join(a, " & ") }

// AnyOf holds when at least one term holds. An empty AnyOf is false.
type AnyOf []Expr

// Eval short-circuits on the first true term.
func (a AnyOf) Eval(s *State) bool {
	for _, e := range a {
		if e.Eval(s) {
			return true
		}
	}
	return false
}

func (a AnyOf) String() string { return join(a, " | ") }

func join(terms []Expr, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		switch t.(type) {
		case AllOf, AnyOf:
			parts[i] = "(" + t.String() + ")"
		default:
			parts[i] = t.String()
		}
	}
	return strings.Join(parts, sep)
}

// Item returns a predicate requiring one copy of k.
func Item(k item.Kind) Expr { return HasItem{Item: k, Min: 1} }

// AtLeast returns a predicate requiring n copies of k. n <= 0 is Always.
func AtLeast(k item.Kind, n int) Expr {
	if n <= 0 {
		return Always
	}
	return HasItem{Item: k, Min: n}
}

// Event returns a predicate on a triggered event.
func Event(name string) Expr { return HasEvent{Name: name} }

// And combines terms, dropping Always terms and collapsing trivial cases.
func And(terms ...Expr) Expr {
	out := make(AllOf, 0, len(terms))
	for _, t := range terms {
		switch v := t.(type) {
		case Const:
			if !v {
				return Never
			}
			continue
		case AllOf:
			out = append(out, v...)
			continue
		}
		out = append(out, t)
	}
	switch len(out) {
	case 0:
		return Always
	case 1:
		return out[0]
	}
	return out
}

// Or combines alternatives, dropping Never terms and collapsing trivial cases.
func Or(terms ...Expr) Expr {
	out := make(AnyOf, 0, len(terms))
	for _, t := range terms {
		switch v := t.(type) {
		case Const:
			if v {
				return Always
			}
			continue
		case AnyOf:
			out = append(out, v...)
			continue
		}
		out = append(out, t)
	}
	switch len(out) {
	case 0:
		return Never
	case 1:
		return out[0]
	}
	return out
}
