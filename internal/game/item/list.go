package item

import (
	"slices"
	"strings"
)

// List is a multiset of items. Order carries no meaning except where a
// caller documents otherwise.
type List []Kind

// Repeat returns a list holding n copies of k.
func Repeat(k Kind, n int) List {
	out := make(List, n)
	for i := range out {
		out[i] = k
	}
	return out
}

// Concat joins lists into a new list.
func Concat(lists ...List) List {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make(List, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Clone returns an independent copy of l.
func (l List) Clone() List {
	return slices.Clone(l)
}

// Count returns the multiplicity of k in l.
func (l List) Count(k Kind) int {
	var n int
	for _, it := range l {
		if it == k {
			n++
		}
	}
	return n
}

// Counts returns multiplicities indexed by Kind.
//
// Postcondition: len(result) == NumKinds.
func (l List) Counts() []int {
	out := make([]int, NumKinds)
	for _, it := range l {
		out[it]++
	}
	return out
}

// Sorted returns a copy of l ordered by kind.
func (l List) Sorted() List {
	out := l.Clone()
	slices.Sort(out)
	return out
}

// Equal reports whether l and o hold the same multiset.
func (l List) Equal(o List) bool {
	return slices.Equal(l.Sorted(), o.Sorted())
}

// Strings returns the item names of l in order.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, it := range l {
		out[i] = it.String()
	}
	return out
}

// ParseList resolves a list of item names.
func ParseList(names []string) (List, error) {
	out := make(List, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		k, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
