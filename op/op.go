// Package op implements a mutable, sorted operator table for a
// Prolog-family operator-precedence parser.
//
// Operators are stored as a sorted slice keyed by (name, role, precedence),
// queried by name to get a contiguous run, then filtered by role and
// precedence ceiling. Lower precedence numbers bind tighter, matching ISO
// Prolog convention (not the textbook "higher precedence binds tighter").
package op

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/cbarrick/ripl/ns"
)

// Kind is one of the seven operator shapes. The letter pattern names the
// functor position (F) and the argument positions: X requires a strictly
// lower-precedence argument, Y allows an equal-or-lower-precedence argument.
type Kind uint8

const (
	FX Kind = iota
	FY
	XFX
	XFY
	YFX
	XF
	YF
)

func (k Kind) String() string {
	switch k {
	case FX:
		return "fx"
	case FY:
		return "fy"
	case XFX:
		return "xfx"
	case XFY:
		return "xfy"
	case YFX:
		return "yfx"
	case XF:
		return "xf"
	case YF:
		return "yf"
	default:
		return "?"
	}
}

// Role groups Kinds by functor position: Prefix, Infix, or Postfix.
type Role uint8

const (
	Prefix Role = iota
	Infix
	Postfix
)

// Op is a single entry in a Table.
type Op struct {
	Kind Kind
	Prec uint32
	Name ns.Name
}

// Role reports which of Prefix, Infix, or Postfix this Op's Kind belongs to.
func (o Op) Role() Role {
	switch o.Kind {
	case FX, FY:
		return Prefix
	case XFX, XFY, YFX:
		return Infix
	default: // XF, YF
		return Postfix
	}
}

func (o Op) String() string {
	return fmt.Sprintf("%s(%d, %s)", o.Kind, o.Prec, o.Name)
}

// less implements the table's sort order: name asc, then role asc
// (Prefix < Infix < Postfix), then precedence asc.
func less(a, b Op) bool {
	if an, bn := a.Name.String(), b.Name.String(); an != bn {
		return an < bn
	}
	if a.Role() != b.Role() {
		return a.Role() < b.Role()
	}
	return a.Prec < b.Prec
}

func cmp(a, b Op) int {
	switch {
	case less(a, b):
		return -1
	case less(b, a):
		return 1
	default:
		return 0
	}
}

// Table is a sorted sequence of Ops. At most one Op may exist per
// (name, role) pair; Insert replaces an existing entry with that key.
type Table struct {
	ops []Op
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// AsSlice returns the Table's entries in sorted order. The returned slice
// must not be modified.
func (t *Table) AsSlice() []Op {
	return t.ops
}

// Len reports the number of operators in the table.
func (t *Table) Len() int {
	return len(t.ops)
}

// sameKey reports whether a and b share a (name, role) pair.
func sameKey(a, b Op) bool {
	return a.Name == b.Name && a.Role() == b.Role()
}

// Insert adds op to the table. If an Op with the same (name, role) already
// exists, it is replaced (this is how redefining an operator's precedence
// works: re-insert under the same name and role).
func (t *Table) Insert(op Op) {
	i, found := slices.BinarySearchFunc(t.ops, op, cmp)
	if found {
		t.ops[i] = op
		return
	}
	// BinarySearchFunc only reports "found" on an exact match including
	// precedence; also replace on a (name, role) match at a different
	// precedence, since the table allows only one Op per (name, role).
	if i > 0 && sameKey(t.ops[i-1], op) {
		t.ops[i-1] = op
		return
	}
	if i < len(t.ops) && sameKey(t.ops[i], op) {
		t.ops[i] = op
		return
	}
	t.ops = slices.Insert(t.ops, i, op)
}

// Get returns the contiguous, sorted run of Ops matching name.
func (t *Table) Get(name ns.Name) []Op {
	lo, _ := slices.BinarySearchFunc(t.ops, Op{Kind: FX, Name: name}, func(a, b Op) int {
		if an, bn := a.Name.String(), b.Name.String(); an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
		return 0
	})
	hi := lo
	for hi < len(t.ops) && t.ops[hi].Name == name {
		hi++
	}
	return t.ops[lo:hi]
}

// GetPrefix returns the first Prefix Op named name with Prec <= maxPrec.
func (t *Table) GetPrefix(name ns.Name, maxPrec uint32) (Op, bool) {
	for _, o := range t.Get(name) {
		if o.Role() == Prefix && o.Prec <= maxPrec {
			return o, true
		}
	}
	return Op{}, false
}

// GetInfix returns the first Infix Op named name with Prec <= maxPrec.
func (t *Table) GetInfix(name ns.Name, maxPrec uint32) (Op, bool) {
	for _, o := range t.Get(name) {
		if o.Role() == Infix && o.Prec <= maxPrec {
			return o, true
		}
	}
	return Op{}, false
}

// GetPostfix returns the first Postfix Op named name with Prec <= maxPrec.
func (t *Table) GetPostfix(name ns.Name, maxPrec uint32) (Op, bool) {
	for _, o := range t.Get(name) {
		if o.Role() == Postfix && o.Prec <= maxPrec {
			return o, true
		}
	}
	return Op{}, false
}

// GetCompatible returns the first Op named name that is compatible with a
// pending left operand of precedence lhsPrec under an outer precedence
// ceiling of maxPrec.
//
// Prefix operators are never compatible with an existing left operand. For
// YFX/YF, the left operand may be of equal-or-lower precedence than the
// operator (lhsPrec <= op.Prec). For XFX/XFY/XF, the left operand must be of
// strictly lower precedence (lhsPrec < op.Prec). In both cases op.Prec must
// also not exceed maxPrec.
func (t *Table) GetCompatible(name ns.Name, lhsPrec, maxPrec uint32) (Op, bool) {
	for _, o := range t.Get(name) {
		if o.Prec > maxPrec {
			continue
		}
		switch o.Kind {
		case YFX, YF:
			if lhsPrec <= o.Prec {
				return o, true
			}
		case XFX, XFY, XF:
			if lhsPrec < o.Prec {
				return o, true
			}
		}
	}
	return Op{}, false
}

// DefaultTable returns the standard set of Prolog operators with names
// interned through in: the ISO core plus the extensions found in most
// mainstream Prologs (soft cut, dict-style ':', directive declarations).
func DefaultTable(in *ns.Interner) *Table {
	t := NewTable()
	def := []struct {
		kind Kind
		prec uint32
		name string
	}{
		{XFX, 1200, "-->"},
		{XFX, 1200, ":-"},
		{FX, 1200, ":-"},
		{FX, 1200, "?-"},
		{FX, 1150, "dynamic"},
		{FX, 1150, "discontiguous"},
		{FX, 1150, "initialization"},
		{FX, 1150, "meta_predicate"},
		{FX, 1150, "module_transparent"},
		{FX, 1150, "multifile"},
		{FX, 1150, "public"},
		{FX, 1150, "thread_local"},
		{FX, 1150, "thread_initialization"},
		{FX, 1150, "volatile"},
		{XFY, 1100, ";"},
		{XFY, 1100, "|"},
		{XFY, 1050, "->"},
		{XFY, 1050, "*->"},
		{XFY, 1000, ","},
		{XFX, 990, ":="},
		{FY, 900, "\\+"},
		{XFX, 700, "<"},
		{XFX, 700, "="},
		{XFX, 700, "=.."},
		{XFX, 700, "=@="},
		{XFX, 700, "\\=@="},
		{XFX, 700, "=:="},
		{XFX, 700, "=<"},
		{XFX, 700, "=="},
		{XFX, 700, "=\\="},
		{XFX, 700, ">"},
		{XFX, 700, ">="},
		{XFX, 700, "@<"},
		{XFX, 700, "@=<"},
		{XFX, 700, "@>"},
		{XFX, 700, "@>="},
		{XFX, 700, "\\="},
		{XFX, 700, "\\=="},
		{XFX, 700, "as"},
		{XFX, 700, "is"},
		{XFX, 700, ">:<"},
		{XFX, 700, ":<"},
		{XFY, 600, ":"},
		{YFX, 500, "+"},
		{YFX, 500, "-"},
		{YFX, 500, "/\\"},
		{YFX, 500, "\\/"},
		{YFX, 500, "xor"},
		{FX, 500, "?"},
		{YFX, 400, "*"},
		{YFX, 400, "/"},
		{YFX, 400, "//"},
		{YFX, 400, "div"},
		{YFX, 400, "rdiv"},
		{YFX, 400, "<<"},
		{YFX, 400, ">>"},
		{YFX, 400, "mod"},
		{YFX, 400, "rem"},
		{XFX, 200, "**"},
		{XFY, 200, "^"},
		{FY, 200, "+"},
		{FY, 200, "-"},
		{FY, 200, "\\"},
		{YFX, 100, "."},
		{FX, 1, "$"},
	}
	for _, d := range def {
		t.Insert(Op{Kind: d.kind, Prec: d.prec, Name: in.Intern(d.name)})
	}
	return t
}
