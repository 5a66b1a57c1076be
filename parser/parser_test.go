package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/cbarrick/ripl/ns"
	"github.com/cbarrick/ripl/op"
	"github.com/cbarrick/ripl/term"
)

func parseAll(t *testing.T, src string) ([]*term.Structure, *ns.Interner, *Parser) {
	t.Helper()
	in := ns.NewInterner()
	ops := op.DefaultTable(in)
	p := New(strings.NewReader(src), in, ops)
	var out []*term.Structure
	for {
		s, ok := p.Next()
		if !ok {
			break
		}
		out = append(out, s)
	}
	return out, in, p
}

func TestBasicCompound(t *testing.T) {
	src := `+foo(bar, baz(123,456.789), "hello world", X).` + "\n"
	structs, in, p := parseAll(t, src)
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(structs) != 1 {
		t.Fatalf("got %d structures, want 1", len(structs))
	}

	got := structs[0].String()
	// Every compound is parenthesized explicitly in String's rendering, so
	// the prefix '+' wraps the whole foo(...) compound.
	if !strings.HasPrefix(got, "+(foo(") {
		t.Errorf("got %q, want a prefix '+' applied to foo(...)", got)
	}
	if !strings.Contains(got, `"hello world"`) {
		t.Errorf("got %q, want the quoted string preserved", got)
	}
	_ = in
}

func TestOperatorPrecedence(t *testing.T) {
	structs, _, p := parseAll(t, "a * b + c * d.\n")
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(structs) != 1 {
		t.Fatalf("got %d structures, want 1", len(structs))
	}

	// Postfix order is: a, b, *, c, d, *, + — i.e. +( *(a,b), *(c,d) ).
	syms := structs[0].AsSlice()
	kinds := make([]string, len(syms))
	for i, s := range syms {
		kinds[i] = s.String()
	}
	want := []string{"a", "b", "*/2", "c", "d", "*/2", "+/2"}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("symbol %d = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestRightAssociativeOperator(t *testing.T) {
	// xfy ',' is right-associative: a, b, c parses as ','(a, ','(b, c)).
	structs, _, p := parseAll(t, "a, b, c.\n")
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := structs[0].String()
	if got != ",(a, ,(b, c))" {
		t.Errorf("got %q, want ,(a, ,(b, c))", got)
	}
}

func TestRealisticTwoClauseProgram(t *testing.T) {
	// Exercises compound-term recursion across two clauses without bracket
	// list syntax, which this parser does not implement (see readPrimary).
	src := "append(nil, L, L).\n" +
		"append(cons(H, T), L, cons(H, R)) :- append(T, L, R).\n"
	structs, _, p := parseAll(t, src)
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(structs) != 2 {
		t.Fatalf("got %d structures, want 2", len(structs))
	}
	if structs[0].Functor().Name().String() != "append" {
		t.Errorf("clause 0 functor = %q, want append", structs[0].Functor().Name().String())
	}
	if structs[1].Functor().Name().String() != ":-" {
		t.Errorf("clause 1 functor = %q, want :-", structs[1].Functor().Name().String())
	}
}

func TestParenthesizedGroupingOverridesPrecedence(t *testing.T) {
	structs, _, p := parseAll(t, "a * (b + c).\n")
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := structs[0].String()
	if got != "*(a, +(b, c))" {
		t.Errorf("got %q, want *(a, +(b, c))", got)
	}
}

// wantSyms compares a Structure's postfix sequence against its expected
// String renderings, which pin down functor, arity, and payload at once.
func wantSyms(t *testing.T, s *term.Structure, want []string) {
	t.Helper()
	s.Validate()
	syms := s.AsSlice()
	got := make([]string, len(syms))
	for i, sym := range syms {
		got[i] = sym.String()
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbol %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNegatedCompoundPostfixOrder(t *testing.T) {
	src := `-foo(bar, baz(123, 456.789), "hello world", X).` + "\n"
	structs, _, p := parseAll(t, src)
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(structs) != 1 {
		t.Fatalf("got %d structures, want 1", len(structs))
	}
	wantSyms(t, structs[0], []string{
		"bar", "123", "456.789", "baz/2", `"hello world"`, "_G0", "foo/4", "-/1",
	})
}

func TestVariableNumberingIsPerClause(t *testing.T) {
	src := "member(H, list(H,T)).\n" +
		"member(X, list(_,T)) :- member(X, T).\n"
	structs, _, p := parseAll(t, src)
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(structs) != 2 {
		t.Fatalf("got %d structures, want 2", len(structs))
	}
	wantSyms(t, structs[0], []string{"_G0", "_G0", "_G1", "list/2", "member/2"})
	wantSyms(t, structs[1], []string{
		"_G0", "_G1", "_G2", "list/2", "member/2", "_G0", "_G2", "member/2", ":-/2",
	})
}

func TestQuotedFunctorWithSpaces(t *testing.T) {
	structs, _, p := parseAll(t, "'hello world'(x).\n")
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	wantSyms(t, structs[0], []string{"x", "hello world/1"})
}

func TestRadixLiteralsAndSignAbsorption(t *testing.T) {
	structs, _, p := parseAll(t, "0xff + -0o10.\n")
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	wantSyms(t, structs[0], []string{"255", "-8", "+/2"})
}

func TestUnbalancedParenRecordsError(t *testing.T) {
	structs, _, p := parseAll(t, "foo(bar.\n")
	if len(structs) != 0 {
		t.Fatalf("got %d structures, want 0", len(structs))
	}
	errs := p.Errs()
	if len(errs) == 0 {
		t.Fatal("expected at least one syntax error")
	}
	if errs[0].Line != 1 || errs[0].Col < 1 {
		t.Errorf("error at %d:%d, want line 1 with a meaningful column", errs[0].Line, errs[0].Col)
	}
}

// failingReader yields a fixed prefix, then a non-EOF error.
type failingReader struct {
	data string
	read bool
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		n := copy(p, r.data)
		return n, nil
	}
	return 0, r.err
}

func TestIOErrorSurfacesAsWrappedSyntaxError(t *testing.T) {
	boom := errors.New("boom")
	in := ns.NewInterner()
	ops := op.DefaultTable(in)
	p := New(&failingReader{data: "foo(\n", err: boom}, in, ops)

	if s, ok := p.Next(); ok {
		t.Fatalf("Next() = %v, true, want no clause from a truncated stream", s)
	}
	errs := p.Errs()
	if len(errs) == 0 {
		t.Fatal("expected a syntax error for the failed read")
	}
	if errs[0].Kind != KindWrapper {
		t.Errorf("Kind = %v, want KindWrapper", errs[0].Kind)
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("errors.Is(%v, boom) = false, want the cause preserved through Unwrap", errs[0])
	}
}

func TestLexicalErrorStaysUnexpectedKind(t *testing.T) {
	_, _, p := parseAll(t, "'unterminated\n")
	errs := p.Errs()
	if len(errs) == 0 {
		t.Fatal("expected a syntax error for the unclosed quote")
	}
	if errs[0].Kind != KindUnexpected {
		t.Errorf("Kind = %v, want KindUnexpected for a lexical failure", errs[0].Kind)
	}
}

func TestEmptyInputYieldsNoClauses(t *testing.T) {
	structs, _, p := parseAll(t, "")
	if len(structs) != 0 {
		t.Fatalf("got %d structures, want 0", len(structs))
	}
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors on empty input: %v", errs)
	}
}

func TestRepeatedCallsAfterEOFDoNotRecurseForever(t *testing.T) {
	// Regression: Next must return cleanly once input is exhausted rather
	// than looping on a spurious EOF-flavored error.
	_, _, p := parseAll(t, "foo.\n")
	for i := 0; i < 3; i++ {
		if _, ok := p.Next(); ok {
			t.Fatalf("call %d: expected (nil, false) past end of input", i)
		}
	}
}

func TestSharedVariableGetsSameIndex(t *testing.T) {
	structs, _, p := parseAll(t, "p(X, X).\n")
	if errs := p.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	syms := structs[0].AsSlice()
	if len(syms) != 3 {
		t.Fatalf("got %d symbols, want 3 (X, X, p/2)", len(syms))
	}
	if syms[0].VarIndex() != syms[1].VarIndex() {
		t.Errorf("two occurrences of X got different indices: %d vs %d", syms[0].VarIndex(), syms[1].VarIndex())
	}
}
