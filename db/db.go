// Package db implements a minimal clause database: a functor-keyed,
// assertion-ordered store of Rules. It does not unify, resolve, or index
// beyond grouping by functor — that is left to a future solver built on
// top of it.
package db

import (
	"golang.org/x/exp/maps"

	"github.com/cbarrick/ripl/ns"
	"github.com/cbarrick/ripl/term"
)

// Rule is a single clause: a fact if Body is nil, otherwise a rule whose
// Body must be proved to prove Head. Rule is cheap to copy — it holds
// Structure pointers, never deep copies of the term trees themselves.
type Rule struct {
	Head *term.Structure
	Body *term.Structure // nil for a fact
}

// DataBase is a functor-keyed list of Rules, preserving assertion order
// within each functor's bucket. The zero value is not usable; construct one
// with New.
//
// DataBase is not safe for concurrent use.
type DataBase struct {
	preds map[ns.Name][]Rule
}

// New returns an empty DataBase.
func New() *DataBase {
	return &DataBase{preds: make(map[ns.Name][]Rule)}
}

// Assert appends a new Rule under head's functor name, after any rules
// already asserted for that functor. body is nil to assert a fact.
func (db *DataBase) Assert(head, body *term.Structure) {
	name := head.Functor().Name()
	db.preds[name] = append(db.preds[name], Rule{Head: head, Body: body})
}

// Query returns the Rules asserted under head's functor name, in assertion
// order. The returned slice shares no backing array with the DataBase's
// internal storage and may be freely modified by the caller; it is nil (not
// empty-non-nil) if no rule has been asserted under that functor.
func (db *DataBase) Query(head *term.Structure) []Rule {
	name := head.Functor().Name()
	rules, ok := db.preds[name]
	if !ok {
		return nil
	}
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Functors returns the names of every functor with at least one asserted
// rule, in no particular order. Useful for a REPL or listing tool built on
// top of this package; this package itself never needs it.
func (db *DataBase) Functors() []ns.Name {
	return maps.Keys(db.preds)
}
