// Package ns assigns names to tokens.
//
// Logic programming is a homoiconic paradigm: the syntactic structures that
// appear in source code are the structures the program manipulates. To avoid
// paying for string comparisons on every lookup, atomic symbols are given a
// lightweight handle instead: a Name. Equality of two Names is a single
// pointer comparison, never a byte-for-byte string comparison.
//
// To guarantee that equal strings always map to the same Name, strings are
// interned through an Interner. A Name is only meaningful in the context of
// the Interner that issued it; Names from two different Interners are never
// equal, even for identical text.
package ns

// Interner assigns Names to strings.
//
// Equivalent strings interned through the same Interner are assigned the
// same Name. An Interner is effectively a string-to-handle cache: it takes
// ownership of a copy of each unique string it sees and never releases it.
//
// An Interner is not safe for concurrent use. Callers that need to intern
// from multiple goroutines must provide their own synchronization.
type Interner struct {
	strings map[string]*string
}

// NewInterner constructs an empty Interner.
func NewInterner() *Interner {
	return &Interner{strings: make(map[string]*string)}
}

// Intern returns the Name for s, interning it if this is the first time s
// has been seen by this Interner. Comparison is byte-exact; no case folding
// or normalization is performed here (callers that want normalized text,
// e.g. NFKC, must normalize before calling Intern).
func (in *Interner) Intern(s string) Name {
	if p, ok := in.strings[s]; ok {
		return Name{ptr: p}
	}
	owned := s
	in.strings[s] = &owned
	return Name{ptr: &owned}
}

// Len returns the number of unique Names issued by this Interner.
func (in *Interner) Len() int {
	return len(in.strings)
}

// Name is a lightweight, immutable handle to an interned string.
//
// Equality is pointer identity of the underlying interned string, not string
// content: two Names compare equal if and only if they were produced by the
// same call to Intern, or by calls to Intern on the same Interner with equal
// strings. A Name issued by one Interner never equals a Name issued by a
// different Interner, even for the same text.
//
// The zero Name is invalid and must never be produced by Intern; Valid
// reports whether a Name was actually issued by an Interner.
type Name struct {
	ptr *string
}

// Valid reports whether n was issued by an Interner, as opposed to being a
// zero value.
func (n Name) Valid() bool {
	return n.ptr != nil
}

// String returns the text this Name represents.
func (n Name) String() string {
	if n.ptr == nil {
		return ""
	}
	return *n.ptr
}

// Less reports whether n sorts lexicographically before other, by the bytes
// of their underlying strings (not by pointer value).
func (n Name) Less(other Name) bool {
	return n.String() < other.String()
}
