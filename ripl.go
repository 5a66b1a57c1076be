// Package ripl provides the syntactic front-end of a Prolog-family logic
// programming system: name interning, term representation, operator
// table, lexer, and parser, bound together by a Context.
package ripl

import (
	"bytes"
	"io"
	"log"
	"os"

	"github.com/cbarrick/ripl/ns"
	"github.com/cbarrick/ripl/op"
	"github.com/cbarrick/ripl/parser"
)

// Context owns the name interner and operator table shared by everything
// parsed through it. Terms and operator definitions produced by one
// Context are meaningless to another: a Name or an Op carries no back
// pointer, so mixing them across Contexts silently produces nonsense
// rather than a runtime error. Don't.
//
// Context is not safe for concurrent use: neither the interner nor the
// operator table carries any internal synchronization.
type Context struct {
	names *ns.Interner
	ops   *op.Table

	debug        *log.Logger
	branchFactor uint32
}

// NewContext returns a Context with a fresh name interner and, unless
// WithOperators overrides it, the default operator table.
func NewContext(opts ...Option) *Context {
	c := &Context{
		names: ns.NewInterner(),
		debug: log.New(io.Discard, "", 0),
	}
	c.ops = op.DefaultTable(c.names)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names returns the Context's name interner.
func (c *Context) Names() *ns.Interner {
	return c.names
}

// Ops returns the Context's operator table. Callers may mutate it directly
// (Insert new operators, etc.); the Context keeps no separate copy.
func (c *Context) Ops() *op.Table {
	return c.ops
}

// Parse returns a Parser reading Prolog-family source text from r, using
// this Context's interner and operator table.
func (c *Context) Parse(r io.Reader) *parser.Parser {
	c.debug.Printf("ripl: parsing from %T", r)
	return parser.New(r, c.names, c.ops)
}

// ParseFile opens path and returns a Parser reading from it. ParseFile
// reads the whole file into memory and closes it before returning; the
// Parser reads from that in-memory copy, so there is no open handle for
// the caller to close.
func (c *Context) ParseFile(path string) (*parser.Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	c.debug.Printf("ripl: parsing file %s", path)
	return c.Parse(bytes.NewReader(data)), nil
}

// BranchFactor returns the branch factor set by WithBranchFactor, or 0 if
// unset (meaning: use hamt's own default).
func (c *Context) BranchFactor() uint32 {
	return c.branchFactor
}

// Option configures a Context.
type Option func(*Context)

// WithLogger directs debug tracing (one line at the start of each Parse or
// ParseFile call) to l instead of discarding it. Parse errors are not
// logged; they are reported through the Parser's Errs.
func WithLogger(l *log.Logger) Option {
	return func(c *Context) { c.debug = l }
}

// WithOperators starts the Context from t instead of DefaultTable. The
// Context takes ownership of t; further mutations through c.Ops() affect
// the same table.
func WithOperators(t *op.Table) Option {
	return func(c *Context) { c.ops = t }
}

// WithBranchFactor records n as the branch factor that BranchFactor reports,
// for callers that build a hamt.Map for this front-end's session. The
// Context itself constructs no hamt.Map, and n does not affect its
// interner or operator table.
func WithBranchFactor(n uint32) Option {
	return func(c *Context) { c.branchFactor = n }
}
