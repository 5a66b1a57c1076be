// Package term holds the postfix-array term representation shared by the
// lexer, parser, and clause database.
//
// A term tree is encoded as a flat, linear sequence of Symbols in postfix
// (reverse Polish) order: every compound's children appear immediately
// before it in the sequence. This is unusual for a term representation —
// most Prolog front-ends use pointer-linked trees — but it gives
// cache-friendly iteration, a recursion-free traversal, and construction
// during parsing that never needs back-patching (the parser already knows a
// compound's arity by the time it emits the compound's Symbol).
package term

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbarrick/ripl/ns"
)

// Kind discriminates the tagged union of a Symbol.
type Kind uint8

const (
	// KindFunct is a function symbol: arity 0 is an atom, arity N>0 is a
	// compound whose N children immediately precede it in postfix order.
	KindFunct Kind = iota
	// KindStr is an interned string literal.
	KindStr
	// KindVar is a variable, numbered by first occurrence within its clause.
	KindVar
	// KindInt is a 64-bit signed integer.
	KindInt
	// KindFloat is a 64-bit float.
	KindFloat
	// KindList is a list-cell marker. Reserved: the parser in this module
	// never produces it (list syntax is not yet implemented; see the
	// parser package doc).
	KindList
)

// Symbol is one element of a Structure's postfix sequence.
//
// Symbol is a small value type, safe to copy. Construct one with Funct, Str,
// Var, Int, Float, or List rather than building the struct literal directly.
type Symbol struct {
	kind   Kind
	n      uint32  // Funct's arity, or List's arity (2 open / 0 closed)
	name   ns.Name // Funct's name, or Str's interned text
	index  int     // Var's index
	ival   int64   // Int's value
	fval   float64 // Float's value
	closed bool    // List's closedness
}

// Funct returns a function symbol of the given arity and name. Arity 0 is an
// atom.
func Funct(arity uint32, name ns.Name) Symbol {
	return Symbol{kind: KindFunct, n: arity, name: name}
}

// Str returns a string-literal symbol wrapping an interned string.
func Str(s ns.Name) Symbol {
	return Symbol{kind: KindStr, name: s}
}

// Var returns a variable symbol numbered by first occurrence within its
// clause (0-based).
func Var(index int) Symbol {
	return Symbol{kind: KindVar, index: index}
}

// Int returns an integer symbol.
func Int(v int64) Symbol {
	return Symbol{kind: KindInt, ival: v}
}

// Float returns a float symbol.
func Float(v float64) Symbol {
	return Symbol{kind: KindFloat, fval: v}
}

// List returns a list-cell marker: arity 2 when open (head/tail both
// precede it), 0 when closed (the empty list). The parser never produces
// it; see the parser package doc.
func List(closed bool, arity uint32) Symbol {
	if closed {
		arity = 0
	}
	return Symbol{kind: KindList, n: arity, closed: closed}
}

// Kind reports the tag of this Symbol.
func (s Symbol) Kind() Kind { return s.kind }

// Arity reports the number of immediate children this Symbol consumes from
// the postfix stream preceding it.
func (s Symbol) Arity() uint32 {
	switch s.kind {
	case KindFunct:
		return s.n
	case KindList:
		return s.n
	default:
		return 0
	}
}

// Name returns the interned name for a Funct or Str symbol. It panics if
// called on any other Kind.
func (s Symbol) Name() ns.Name {
	switch s.kind {
	case KindFunct, KindStr:
		return s.name
	default:
		panic("term: Name() called on a Symbol with no Name")
	}
}

// VarIndex returns the variable index for a Var symbol. It panics if called
// on any other Kind.
func (s Symbol) VarIndex() int {
	if s.kind != KindVar {
		panic("term: VarIndex() called on a non-Var Symbol")
	}
	return s.index
}

// IntValue returns the integer value for an Int symbol. It panics if called
// on any other Kind.
func (s Symbol) IntValue() int64 {
	if s.kind != KindInt {
		panic("term: IntValue() called on a non-Int Symbol")
	}
	return s.ival
}

// FloatValue returns the float value for a Float symbol. It panics if
// called on any other Kind.
func (s Symbol) FloatValue() float64 {
	if s.kind != KindFloat {
		panic("term: FloatValue() called on a non-Float Symbol")
	}
	return s.fval
}

// Closed reports whether a List symbol is closed (the empty list). It
// panics if called on any other Kind.
func (s Symbol) Closed() bool {
	if s.kind != KindList {
		panic("term: Closed() called on a non-List Symbol")
	}
	return s.closed
}

func (s Symbol) String() string {
	switch s.kind {
	case KindFunct:
		if s.n == 0 {
			return s.name.String()
		}
		return fmt.Sprintf("%s/%d", s.name.String(), s.n)
	case KindStr:
		return strconv.Quote(s.name.String())
	case KindVar:
		return fmt.Sprintf("_G%d", s.index)
	case KindInt:
		return strconv.FormatInt(s.ival, 10)
	case KindFloat:
		return strconv.FormatFloat(s.fval, 'g', -1, 64)
	case KindList:
		if s.closed {
			return "[]"
		}
		return "[|]/2"
	default:
		return "<invalid symbol>"
	}
}

// Structure is a non-empty sequence of Symbols representing a term tree in
// postfix order. Its zero value is invalid; build one with a Builder.
type Structure struct {
	syms []Symbol
}

// AsSlice returns the Symbols of s in postfix order. The returned slice must
// not be modified.
func (s *Structure) AsSlice() []Symbol {
	return s.syms
}

// Functor returns the root functor: the last Symbol in postfix order.
func (s *Structure) Functor() Symbol {
	return s.syms[len(s.syms)-1]
}

// Arity returns the root functor's arity.
func (s *Structure) Arity() uint32 {
	return s.Functor().Arity()
}

// Validate checks the arity-accounting invariant: starting from n=1 and
// scanning left to right, each Symbol consumes one slot (n--) and produces
// Arity() slots (n += arity); after the last Symbol, n must be 0.
//
// A violation is a programming error, not a user-input error — Validate
// panics rather than returning an error. It exists for debug assertions and
// test vectors, not for validating parser output at runtime.
func (s *Structure) Validate() {
	n := 1
	for _, sym := range s.syms {
		n--
		n += int(sym.Arity())
	}
	if n != 0 {
		panic("term: invalid structure")
	}
}

// String renders s as Prolog-ish source text, writing every compound in
// name(arg, ...) form rather than operator notation, whatever the operator
// table. Atom names are written unquoted and strings use Go quoting, so
// the output does not always parse back to the same term.
func (s *Structure) String() string {
	var b strings.Builder
	pos := len(s.syms)
	writeTerm(&b, s.syms, &pos)
	return b.String()
}

// writeTerm writes the term ending at *pos (exclusive) and decrements *pos
// past it, recursing on the functor's children right-to-left.
func writeTerm(b *strings.Builder, syms []Symbol, pos *int) {
	*pos--
	sym := syms[*pos]
	switch sym.kind {
	case KindFunct:
		arity := sym.n
		if arity == 0 {
			b.WriteString(sym.name.String())
			return
		}
		args := make([]string, arity)
		for i := int(arity) - 1; i >= 0; i-- {
			var sub strings.Builder
			writeTerm(&sub, syms, pos)
			args[i] = sub.String()
		}
		b.WriteString(sym.name.String())
		b.WriteByte('(')
		b.WriteString(strings.Join(args, ", "))
		b.WriteByte(')')
	default:
		b.WriteString(sym.String())
	}
}

// Builder constructs a Structure by pushing Symbols in postfix order, then
// freezing the result. A Builder has no mutation API beyond Push; once
// Freeze is called the returned Structure is immutable.
type Builder struct {
	syms []Symbol
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{syms: make([]Symbol, 0, 16)}
}

// Push appends a Symbol to the builder's postfix buffer.
func (b *Builder) Push(s Symbol) {
	b.syms = append(b.syms, s)
}

// Len reports the number of Symbols pushed so far.
func (b *Builder) Len() int {
	return len(b.syms)
}

// Reset clears the builder's buffer for reuse, retaining its capacity.
func (b *Builder) Reset() {
	b.syms = b.syms[:0]
}

// Freeze returns a new Structure holding a copy of the builder's current
// buffer. It panics if the buffer is empty (a Structure must be non-empty).
func (b *Builder) Freeze() *Structure {
	if len(b.syms) == 0 {
		panic("term: cannot freeze an empty Structure")
	}
	frozen := make([]Symbol, len(b.syms))
	copy(frozen, b.syms)
	return &Structure{syms: frozen}
}
