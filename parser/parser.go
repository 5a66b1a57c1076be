// Package parser implements an operator-precedence parser for
// Prolog-family source text, emitting term.Structures.
//
// The grammar is independent of any fixed operator set: the op.Table
// driving a Parser may be mutated between terms (or even mid-term, though
// that is unusual), which is why this is a precedence-climbing parser
// parameterized by a table rather than a grammar baked around a fixed set
// of operators. Precedence is inverted from the textbook definition to
// match Prolog convention: the outermost operators have the *greatest*
// precedence number, so parsing descends through decreasing precedence
// ceilings rather than climbing through increasing ones.
//
// List ('[...]') and brace ('{...}') syntax is not implemented: the parser
// reports a KindTODO SyntaxError at the opening bracket or brace.
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/cbarrick/ripl/lexer"
	"github.com/cbarrick/ripl/ns"
	"github.com/cbarrick/ripl/op"
	"github.com/cbarrick/ripl/term"
)

// Parser is an iterator over term.Structures parsed from a stream of
// Prolog-family source text.
//
// A Parser accumulates SyntaxErrors rather than stopping at the first one:
// it resynchronizes at the next clause and keeps going, so a single pass
// can report every error in a source file. Drain them with Errs between
// (or instead of) calls to Next.
type Parser struct {
	ops       *op.Table
	in        *ns.Interner
	lex       *lexer.Lexer
	peeked    lexer.Token
	havePeek  bool
	peekValid bool
	errs      []SyntaxError
	vars      []ns.Name
	buf       *term.Builder
}

// New returns a Parser reading src, interning atoms and variables through
// in, and resolving operators against ops. The Parser keeps its own
// reference to ops but does not copy it: mutating ops between calls to
// Next changes how subsequent terms are parsed.
func New(src io.Reader, in *ns.Interner, ops *op.Table) *Parser {
	return &Parser{
		ops: ops,
		in:  in,
		lex: lexer.New(src, in),
		buf: term.NewBuilder(),
	}
}

// Errs drains and returns the syntax errors accumulated since the last
// call to Errs.
func (p *Parser) Errs() []SyntaxError {
	errs := p.errs
	p.errs = nil
	return errs
}

func (p *Parser) peek() (lexer.Token, bool) {
	if !p.havePeek {
		p.peeked, p.peekValid = p.lex.Next()
		p.havePeek = true
	}
	return p.peeked, p.peekValid
}

func (p *Parser) advance() (lexer.Token, bool) {
	if p.havePeek {
		p.havePeek = false
		return p.peeked, p.peekValid
	}
	return p.lex.Next()
}

// eofErr builds an unexpected-eof error positioned where the lexer stopped.
func (p *Parser) eofErr() SyntaxError {
	return unexpected(p.lex.Line(), p.lex.Col(), "eof")
}

// tokenErr converts an in-band lexer error token into a SyntaxError. The
// lexer's own lexical failures become unexpected-token errors; anything
// else is a read error from the underlying stream, wrapped with its cause
// intact.
func (p *Parser) tokenErr(tok lexer.Token) SyntaxError {
	if errors.Is(tok.Err, lexer.ErrUnclosedQuote) || errors.Is(tok.Err, lexer.ErrBadNumber) {
		return unexpected(tok.Line, tok.Col, tok.Err.Error())
	}
	return wrappedIO(tok.Line, tok.Col, tok.Err)
}

// Next parses and returns the next clause, terminated by a '.'. It returns
// (nil, false) at end of input. Syntax errors are recorded (see Errs) and
// Next resynchronizes at the start of the next clause rather than
// stopping.
func (p *Parser) Next() (*term.Structure, bool) {
	for {
		if _, ok := p.peek(); !ok {
			return nil, false
		}

		p.vars = p.vars[:0]
		p.buf.Reset()

		if _, err := p.read(1200); err != nil {
			if se, ok := err.(SyntaxError); ok {
				p.errs = append(p.errs, se)
			}
			continue
		}

		if p.buf.Len() == 0 {
			return nil, false
		}

		tok, ok := p.advance()
		if ok && tok.Kind == lexer.TokDot {
			return p.buf.Freeze(), true
		}
		if ok && tok.Kind == lexer.TokErr {
			p.errs = append(p.errs, p.tokenErr(tok))
			continue
		}
		line, col := tok.Line, tok.Col
		if !ok {
			line, col = p.lex.Line(), p.lex.Col()
		}
		p.errs = append(p.errs, priorityClash(line, col))
	}
}

// read reads the next term up to, but not including, a trailing infix or
// postfix operator whose precedence would exceed maxPrec. The parse tree
// accumulates in p.buf; the return value is the precedence of the parsed
// term: that of the last infix or postfix operator applied, else the one
// readPrimary returned (a prefix operator's own precedence, or 0).
func (p *Parser) read(maxPrec uint32) (uint32, error) {
	prec, err := p.readPrimary(maxPrec)
	if err != nil {
		return 0, err
	}

loop:
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		var name ns.Name
		switch tok.Kind {
		case lexer.TokBar, lexer.TokComma, lexer.TokFunct:
			name = tok.Name
		default:
			break loop
		}

		o, found := p.ops.GetCompatible(name, prec, maxPrec)
		if !found {
			break
		}
		p.advance()

		switch o.Kind {
		case op.XFY:
			if _, err := p.read(o.Prec); err != nil {
				return 0, err
			}
			p.buf.Push(term.Funct(2, name))
		case op.YFX, op.XFX:
			if _, err := p.read(o.Prec - 1); err != nil {
				return 0, err
			}
			p.buf.Push(term.Funct(2, name))
		default: // XF, YF: postfix, consumes the already-parsed left operand
			p.buf.Push(term.Funct(1, name))
		}
		// The combined term's precedence is the operator's own, regardless
		// of the precedence of whatever operand(s) it just consumed.
		prec = o.Prec
	}
	return prec, nil
}

// readPrimary reads a single primary term: an atom, compound, quoted
// string, variable, number, parenthesized term, or prefix-operator
// application. maxPrec is the precedence ceiling a prefix operator found
// here must respect. The returned precedence is 0 for every primary except
// a prefix-operator application, whose precedence is the operator's own.
func (p *Parser) readPrimary(maxPrec uint32) (uint32, error) {
	tok, ok := p.advance()
	if !ok {
		return 0, p.eofErr()
	}

	switch tok.Kind {
	case lexer.TokBar, lexer.TokComma, lexer.TokFunct:
		return p.readFunctorLike(tok, maxPrec)

	case lexer.TokStr:
		p.buf.Push(term.Str(tok.Name))
		return 0, nil

	case lexer.TokVar:
		p.buf.Push(term.Var(p.internVar(tok.Name)))
		return 0, nil

	case lexer.TokInt:
		p.buf.Push(term.Int(tok.Int))
		return 0, nil

	case lexer.TokFloat:
		p.buf.Push(term.Float(tok.Float))
		return 0, nil

	case lexer.TokParenOpen:
		if _, err := p.read(1200); err != nil {
			return 0, err
		}
		closeTok, closeOK := p.advance()
		switch {
		case closeOK && closeTok.Kind == lexer.TokParenClose:
			return 0, nil
		case closeOK && closeTok.Kind == lexer.TokErr:
			return 0, p.tokenErr(closeTok)
		default:
			return 0, unbalanced(tok.Line, tok.Col, '(')
		}

	case lexer.TokBracketOpen:
		return 0, todoErr(tok.Line, tok.Col) // list syntax not yet implemented

	case lexer.TokBraceOpen:
		return 0, todoErr(tok.Line, tok.Col) // brace-term syntax not yet implemented

	case lexer.TokParenClose:
		return 0, unbalanced(tok.Line, tok.Col, ')')
	case lexer.TokBracketClose:
		return 0, unbalanced(tok.Line, tok.Col, ']')
	case lexer.TokBraceClose:
		return 0, unbalanced(tok.Line, tok.Col, '}')
	case lexer.TokDot:
		return 0, unexpected(tok.Line, tok.Col, ".")
	case lexer.TokErr:
		return 0, p.tokenErr(tok)
	default:
		return 0, unexpected(tok.Line, tok.Col, tok.String())
	}
}

// readFunctorLike handles a Funct, Comma, or Bar token: it may be a
// compound's functor, a bare atom, or a prefix operator application,
// depending on what follows and what's in the operator table. maxPrec is
// the precedence ceiling a prefix-operator reading here must respect.
func (p *Parser) readFunctorLike(tok lexer.Token, maxPrec uint32) (uint32, error) {
	name := tok.Name
	next, hasNext := p.peek()

	switch {
	case hasNext && next.Kind == lexer.TokParenOpen:
		arity, err := p.readArgs()
		if err != nil {
			return 0, err
		}
		p.buf.Push(term.Funct(arity, name))
		return 0, nil

	case hasNext && (next.Kind == lexer.TokParenClose || next.Kind == lexer.TokBracketClose || next.Kind == lexer.TokBraceClose):
		p.buf.Push(term.Funct(0, name))
		return 0, nil

	default:
		if o, found := p.ops.GetPrefix(name, maxPrec); found {
			switch o.Kind {
			case op.FX:
				if _, err := p.read(o.Prec - 1); err != nil {
					return 0, err
				}
				p.buf.Push(term.Funct(1, name))
				return o.Prec, nil
			case op.FY:
				if _, err := p.read(o.Prec); err != nil {
					return 0, err
				}
				p.buf.Push(term.Funct(1, name))
				return o.Prec, nil
			}
		}
		p.buf.Push(term.Funct(0, name))
		return 0, nil
	}
}

// readArgs reads a parenthesized, comma-separated argument list, assuming
// the opening '(' has been peeked but not yet consumed.
func (p *Parser) readArgs() (uint32, error) {
	front, ok := p.advance()
	if !ok {
		return 0, p.eofErr()
	}
	if front.Kind != lexer.TokParenOpen {
		panic("parser: readArgs called without a pending '('")
	}

	arity := uint32(1)
	for {
		if _, err := p.read(999); err != nil {
			return 0, err
		}
		tok, ok := p.advance()
		if !ok {
			return 0, p.eofErr()
		}
		switch tok.Kind {
		case lexer.TokParenClose:
			return arity, nil
		case lexer.TokComma:
			arity++
		case lexer.TokErr:
			return 0, p.tokenErr(tok)
		default:
			return 0, unexpected(tok.Line, tok.Col, fmt.Sprintf("expected comma between arguments, found '%s'", tok))
		}
	}
}

// internVar returns the 0-based index of name within this clause's
// variables, assigning it the next index on first occurrence.
func (p *Parser) internVar(name ns.Name) int {
	for i, v := range p.vars {
		if v == name {
			return i
		}
	}
	idx := len(p.vars)
	p.vars = append(p.vars, name)
	return idx
}
