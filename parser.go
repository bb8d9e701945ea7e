// parser.go — recursive-descent / Pratt parser for Sharp producing compact
// S-expressions.
//
// OVERVIEW
// --------
// The parser consumes the token stream of lexer.go (including the NEWLINE,
// INDENT and DEDENT tokens that encode block structure) and produces an AST
// in S-expression form: `type S = []any`, first element a string tag.
//
// Node inventory
// --------------
//	("block", stmt...)                       statement sequence
//	("at", line, col, stmt)                  position marker around statements
//	("int", int64) ("num", float64)          literals
//	("str", string) ("bool", bool) ("nil")
//	("id", name)                             identifier reference
//	("list", e...) ("tuple", e...)           sequence literals
//	("dict", ("pair", k, v)...)              dict literal
//	("binop", op, lhs, rhs)                  "+" "-" "*" "/" "%" "**" "==" "!="
//	                                         "<" "<=" ">" ">=" "<<" ">>" "&"
//	                                         "|" "^" "and" "or" "in" "not in"
//	("unop", op, operand)                    "-" "+" "not" "~"
//	("assign", target, value)                target: id/get/idx/tuple
//	("aug", op, target, value)               augmented assignment
//	("let", name, value)                     explicit declaration
//	("call", callee, arg...)                 arg may be ("kw", name, value)
//	("get", obj, name)                       attribute access
//	("idx", obj, index)                      subscript
//	("slice", obj, lo, hi, step)             absent bounds are ("nil")
//	("lambda", params, bodyExpr)
//	("def", name, params, body)              function definition
//	("adef", name, params, body)             async function definition
//	("class", name, ("bases", e...), body)
//	("decor", ("exprs", e...), defOrClass)   decorated definition
//	("if", cond, then, [elifCond, elifThen]..., else?)
//	("while", cond, body) ("for", target, iter, body) ("afor", ...)
//	("return", v?) ("break") ("continue") ("pass")
//	("try", body, ("handlers", h...), else-or-nil, finally-or-nil)
//	    h = ("except", typeExpr-or-nil, name-or-"", body)
//	("raise", expr-or-nil, from-or-nil)
//	("with", ctx, name-or-"", body)
//	("yield", v?) ("await", expr)
//	("match", subject, ("case", pat, guard-or-nil, body)...)
//	    pat = ("lit", node) | ("capture", name) | ("wild")
//	("import", module, alias-or-"")
//	("from", module, ("star")) | ("from", module, ("item", name, alias)...)
//	("global", name...) ("nonlocal", name...)
//	("listcomp", expr, target, iter, cond-or-nil)
//	("dictcomp", k, v, target, iter, cond-or-nil)
//
// Interactive mode: when the parser (or the block scanner) runs out of input
// inside an open construct, it reports *ParseError{Incomplete: true} so a
// REPL can keep reading lines instead of reporting a hard error.
package sharp

import (
	"fmt"
	"strings"
)

// S is the S-expression AST node: a string tag followed by parts.
type S = []any

// L builds an S-expression node.
func L(tag string, parts ...any) S { return append([]any{tag}, parts...) }

// ParseError reports a syntax error with a 1-based line and 0-based column.
// Incomplete marks errors caused by running out of input inside an open
// construct while parsing interactively.
type ParseError struct {
	Line       int
	Col        int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is an interactive-mode "need more input"
// parse error.
func IsIncomplete(err error) bool {
	if pe, ok := err.(*ParseError); ok {
		return pe.Incomplete
	}
	return false
}

// Parse parses a complete Sharp source string and returns its AST.
func Parse(src string) (S, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

// ParseInteractive parses in REPL-friendly mode: unterminated constructs at
// EOF produce *ParseError{Incomplete: true}.
func ParseInteractive(src string) (S, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, interactive: true}
	return p.program()
}

////////////////////////////////////////////////////////////////////////////////
///////////////////////////// PRIVATE IMPLEMENTATION ///////////////////////////
////////////////////////////////////////////////////////////////////////////////

type parser struct {
	toks        []Token
	i           int
	interactive bool
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }
func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}
func (p *parser) peek2() Token {
	if p.i+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+1]
}
func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errHere(msg)
}

// errHere builds a parse error at the current token. At EOF in interactive
// mode the error is marked incomplete.
func (p *parser) errHere(msg string) error {
	g := p.peek()
	if g.Type == EOF && p.interactive {
		return &ParseError{Line: g.Line, Col: g.Col, Msg: msg, Incomplete: true}
	}
	return &ParseError{Line: g.Line, Col: g.Col, Msg: msg}
}

func (p *parser) errAt(t Token, msg string) error {
	return &ParseError{Line: t.Line, Col: t.Col, Msg: msg}
}

func tokText(t Token) string {
	if s, ok := t.Literal.(string); ok {
		return s
	}
	return t.Lexeme
}

// describe renders a token for error messages.
func describe(t Token) string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "end of line"
	case INDENT:
		return "indent"
	case DEDENT:
		return "dedent"
	case STRING:
		return fmt.Sprintf("string %q", tokText(t))
	default:
		return fmt.Sprintf("'%s'", t.Lexeme)
	}
}

func (p *parser) skipNewlines() {
	for p.peek().Type == NEWLINE {
		p.i++
	}
}

// ───────────────────────── precedence / associativity ──────────────────────

// lbp returns the left binding power of an infix operator token.
func lbp(t TokenType) (int, bool) {
	switch t {
	case OR:
		return 10, true
	case AND:
		return 20, true
	case IN, NOT, EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		// NOT binds as infix only in the "not in" form; see expr.
		return 30, true
	case PIPE:
		return 40, true
	case CARET:
		return 44, true
	case AMP:
		return 48, true
	case LSHIFT, RSHIFT:
		return 52, true
	case PLUS, MINUS:
		return 60, true
	case STAR, SLASH, PERCENT:
		return 70, true
	case POWER:
		return 80, true
	}
	return 0, false
}

func binopLexeme(t TokenType) string {
	switch t {
	case OR:
		return "or"
	case AND:
		return "and"
	case IN:
		return "in"
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LESS:
		return "<"
	case LESS_EQ:
		return "<="
	case GREATER:
		return ">"
	case GREATER_EQ:
		return ">="
	case PIPE:
		return "|"
	case CARET:
		return "^"
	case AMP:
		return "&"
	case LSHIFT:
		return "<<"
	case RSHIFT:
		return ">>"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case POWER:
		return "**"
	}
	return "?"
}

// ─────────────────────────────── program / blocks ───────────────────────────

func (p *parser) program() (S, error) {
	out := L("block")
	p.skipNewlines()
	for !p.atEnd() {
		st, err := p.posStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
		p.skipNewlines()
	}
	return out, nil
}

// posStatement parses a statement wrapped in an ("at", line, col, stmt)
// marker so the evaluator can report positions in runtime diagnostics.
func (p *parser) posStatement() (S, error) {
	t := p.peek()
	st, err := p.statement()
	if err != nil {
		return nil, err
	}
	return L("at", t.Line, t.Col+1, st), nil
}

// suite parses the body after a ':' — either an indented block on the
// following lines or a same-line list of simple statements.
func (p *parser) suite(what string) (S, error) {
	if _, err := p.need(COLON, fmt.Sprintf("expected ':' after %s", what)); err != nil {
		return nil, err
	}
	if p.peek().Type != NEWLINE {
		// inline suite: simple statements separated by ';'
		out := L("block")
		for {
			t := p.peek()
			st, err := p.simpleStatement()
			if err != nil {
				return nil, err
			}
			out = append(out, L("at", t.Line, t.Col+1, st))
			if p.match(SEMI) {
				continue
			}
			break
		}
		if p.peek().Type == NEWLINE {
			p.i++
		} else if !p.atEnd() {
			return nil, p.errHere(fmt.Sprintf("unexpected %s after inline %s body", describe(p.peek()), what))
		}
		return out, nil
	}
	p.i++ // NEWLINE
	if _, err := p.need(INDENT, fmt.Sprintf("expected an indented block after %s", what)); err != nil {
		return nil, err
	}
	out := L("block")
	p.skipNewlines()
	for p.peek().Type != DEDENT && !p.atEnd() {
		st, err := p.posStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
		p.skipNewlines()
	}
	if p.peek().Type == DEDENT {
		p.i++
	} else if !p.atEnd() || p.interactive {
		if _, err := p.need(DEDENT, fmt.Sprintf("unterminated %s body", what)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ──────────────────────────────── statements ────────────────────────────────

func (p *parser) statement() (S, error) {
	switch p.peek().Type {
	case IF:
		return p.ifStatement()
	case WHILE:
		return p.whileStatement()
	case FOR:
		p.i++
		return p.forStatement(false)
	case DEF:
		p.i++
		return p.defStatement(false)
	case CLASS:
		return p.classStatement()
	case TRY:
		return p.tryStatement()
	case WITH:
		return p.withStatement()
	case MATCH:
		return p.matchStatement()
	case AT:
		return p.decoratedStatement()
	case ASYNC:
		return p.asyncStatement()
	}
	st, err := p.simpleStatement()
	if err != nil {
		return nil, err
	}
	// further ';'-separated statements on the same line fold into a block
	if p.peek().Type == SEMI {
		out := L("block", st)
		for p.match(SEMI) {
			if p.peek().Type == NEWLINE || p.atEnd() {
				break
			}
			next, err := p.simpleStatement()
			if err != nil {
				return nil, err
			}
			out = append(out, next)
		}
		st = out
	}
	if p.peek().Type == NEWLINE {
		p.i++
	} else if !p.atEnd() {
		return nil, p.errHere(fmt.Sprintf("unexpected %s after statement", describe(p.peek())))
	}
	return st, nil
}

// simpleStatement parses one statement that fits on a single line. The
// trailing NEWLINE is left for the caller.
func (p *parser) simpleStatement() (S, error) {
	switch p.peek().Type {
	case LET:
		p.i++
		name, err := p.need(ID, "expected a name after 'let'")
		if err != nil {
			return nil, err
		}
		if _, err := p.need(ASSIGN, "expected '=' in let declaration"); err != nil {
			return nil, err
		}
		v, err := p.exprOrTuple()
		if err != nil {
			return nil, err
		}
		return L("let", tokText(name), v), nil
	case RETURN:
		p.i++
		if p.endOfSimple() {
			return L("return"), nil
		}
		v, err := p.exprOrTuple()
		if err != nil {
			return nil, err
		}
		return L("return", v), nil
	case BREAK:
		p.i++
		return L("break"), nil
	case CONTINUE:
		p.i++
		return L("continue"), nil
	case PASS:
		p.i++
		return L("pass"), nil
	case RAISE:
		return p.raiseStatement()
	case IMPORT:
		return p.importStatement()
	case FROM:
		return p.fromStatement()
	case GLOBAL, NONLOCAL:
		return p.scopeDeclStatement()
	}
	return p.exprStatement()
}

// endOfSimple reports whether the current token terminates a simple
// statement.
func (p *parser) endOfSimple() bool {
	switch p.peek().Type {
	case NEWLINE, SEMI, EOF, DEDENT:
		return true
	}
	return false
}

func (p *parser) exprStatement() (S, error) {
	target, err := p.exprOrTuple()
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case ASSIGN:
		eqTok := p.peek()
		p.i++
		if !assignable(target) {
			return nil, p.errAt(eqTok, "invalid assignment target")
		}
		v, err := p.exprOrTuple()
		if err != nil {
			return nil, err
		}
		// right-assoc chains: a = b = 1
		for p.peek().Type == ASSIGN {
			p.i++
			if !assignable(v) {
				return nil, p.errAt(eqTok, "invalid assignment target")
			}
			inner, err := p.exprOrTuple()
			if err != nil {
				return nil, err
			}
			v = L("assign", v, inner)
		}
		return L("assign", target, v), nil
	case PLUS_EQ, MINUS_EQ, STAR_EQ, SLASH_EQ:
		opTok := p.peek()
		p.i++
		if !assignable(target) {
			return nil, p.errAt(opTok, "invalid assignment target")
		}
		op := map[TokenType]string{PLUS_EQ: "+", MINUS_EQ: "-", STAR_EQ: "*", SLASH_EQ: "/"}[opTok.Type]
		v, err := p.exprOrTuple()
		if err != nil {
			return nil, err
		}
		return L("aug", op, target, v), nil
	}
	return target, nil
}

// assignable reports whether n may appear on the left of '='.
func assignable(n S) bool {
	if len(n) == 0 {
		return false
	}
	switch n[0] {
	case "id", "get", "idx", "slice":
		return true
	case "tuple", "list":
		for _, el := range n[1:] {
			sub, ok := el.(S)
			if !ok || !assignable(sub) {
				return false
			}
		}
		return len(n) > 1
	}
	return false
}

func (p *parser) raiseStatement() (S, error) {
	p.i++ // RAISE
	if p.endOfSimple() {
		return L("raise", nil, nil), nil
	}
	e, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.match(FROM) {
		cause, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		return L("raise", e, cause), nil
	}
	return L("raise", e, nil), nil
}

// dottedName reads ID ('.' ID)* and returns the joined path.
func (p *parser) dottedName(what string) (string, error) {
	first, err := p.need(ID, fmt.Sprintf("expected a module name after '%s'", what))
	if err != nil {
		return "", err
	}
	parts := []string{tokText(first)}
	for p.match(PERIOD) {
		seg, err := p.need(ID, "expected a name after '.'")
		if err != nil {
			return "", err
		}
		parts = append(parts, tokText(seg))
	}
	return strings.Join(parts, "."), nil
}

func (p *parser) importStatement() (S, error) {
	p.i++ // IMPORT
	mod, err := p.dottedName("import")
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.match(AS) {
		a, err := p.need(ID, "expected a name after 'as'")
		if err != nil {
			return nil, err
		}
		alias = tokText(a)
	}
	return L("import", mod, alias), nil
}

func (p *parser) fromStatement() (S, error) {
	p.i++ // FROM
	mod, err := p.dottedName("from")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IMPORT, "expected 'import' in from-import"); err != nil {
		return nil, err
	}
	if p.match(STAR) {
		return L("from", mod, L("star")), nil
	}
	out := L("from", mod)
	for {
		name, err := p.need(ID, "expected an imported name")
		if err != nil {
			return nil, err
		}
		alias := tokText(name)
		if p.match(AS) {
			a, err := p.need(ID, "expected a name after 'as'")
			if err != nil {
				return nil, err
			}
			alias = tokText(a)
		}
		out = append(out, L("item", tokText(name), alias))
		if !p.match(COMMA) {
			break
		}
	}
	return out, nil
}

func (p *parser) scopeDeclStatement() (S, error) {
	kw := p.peek()
	p.i++
	tag := "global"
	if kw.Type == NONLOCAL {
		tag = "nonlocal"
	}
	out := L(tag)
	for {
		name, err := p.need(ID, fmt.Sprintf("expected a name after '%s'", kw.Lexeme))
		if err != nil {
			return nil, err
		}
		out = append(out, tokText(name))
		if !p.match(COMMA) {
			break
		}
	}
	return out, nil
}

// ───────────────────────────── compound statements ──────────────────────────

func (p *parser) ifStatement() (S, error) {
	p.i++ // IF
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.suite("'if' condition")
	if err != nil {
		return nil, err
	}
	out := L("if", cond, then)
	for p.peek().Type == ELIF {
		p.i++
		c, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		b, err := p.suite("'elif' condition")
		if err != nil {
			return nil, err
		}
		out = append(out, c, b)
	}
	if p.peek().Type == ELSE {
		p.i++
		b, err := p.suite("'else'")
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *parser) whileStatement() (S, error) {
	p.i++ // WHILE
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.suite("'while' condition")
	if err != nil {
		return nil, err
	}
	return L("while", cond, body), nil
}

// forStatement parses after the FOR keyword has been consumed.
func (p *parser) forStatement(async bool) (S, error) {
	target, err := p.forTarget()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IN, "expected 'in' in for loop"); err != nil {
		return nil, err
	}
	iter, err := p.exprOrTuple()
	if err != nil {
		return nil, err
	}
	body, err := p.suite("'for' header")
	if err != nil {
		return nil, err
	}
	tag := "for"
	if async {
		tag = "afor"
	}
	return L(tag, target, iter, body), nil
}

// forTarget parses the loop variable(s): a name or a comma list of names.
func (p *parser) forTarget() (S, error) {
	name, err := p.need(ID, "expected a loop variable")
	if err != nil {
		return nil, err
	}
	first := L("id", tokText(name))
	if p.peek().Type != COMMA {
		return first, nil
	}
	out := L("tuple", first)
	for p.match(COMMA) {
		n, err := p.need(ID, "expected a loop variable after ','")
		if err != nil {
			return nil, err
		}
		out = append(out, L("id", tokText(n)))
	}
	return out, nil
}

// defStatement parses after the DEF keyword has been consumed.
func (p *parser) defStatement(async bool) (S, error) {
	name, err := p.need(ID, "expected a function name after 'def'")
	if err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	// optional result annotation, no runtime meaning
	if p.match(ARROW) {
		if _, err := p.expr(0); err != nil {
			return nil, err
		}
	}
	body, err := p.suite("function header")
	if err != nil {
		return nil, err
	}
	tag := "def"
	if async {
		tag = "adef"
	}
	return L(tag, tokText(name), params, body), nil
}

// params parses a parenthesized parameter list with optional defaults:
// (a, b=1). Returns ("params", ("param", name, default-or-nil)...).
func (p *parser) params() (S, error) {
	if _, err := p.need(LROUND, "expected '(' after function name"); err != nil {
		return nil, err
	}
	out := L("params")
	if p.match(RROUND) {
		return out, nil
	}
	sawDefault := false
	for {
		name, err := p.need(ID, "expected a parameter name")
		if err != nil {
			return nil, err
		}
		var def any
		if p.match(ASSIGN) {
			d, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			def = d
			sawDefault = true
		} else if sawDefault {
			return nil, p.errAt(name, "parameter without a default follows one with a default")
		}
		out = append(out, L("param", tokText(name), def))
		if p.match(COMMA) {
			continue
		}
		break
	}
	if _, err := p.need(RROUND, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) classStatement() (S, error) {
	p.i++ // CLASS
	name, err := p.need(ID, "expected a class name after 'class'")
	if err != nil {
		return nil, err
	}
	bases := L("bases")
	if p.match(LROUND) {
		if !p.match(RROUND) {
			for {
				b, err := p.expr(0)
				if err != nil {
					return nil, err
				}
				bases = append(bases, b)
				if p.match(COMMA) {
					continue
				}
				break
			}
			if _, err := p.need(RROUND, "expected ')' after base classes"); err != nil {
				return nil, err
			}
		}
	}
	body, err := p.suite("class header")
	if err != nil {
		return nil, err
	}
	return L("class", tokText(name), bases, body), nil
}

func (p *parser) tryStatement() (S, error) {
	p.i++ // TRY
	body, err := p.suite("'try'")
	if err != nil {
		return nil, err
	}
	handlers := L("handlers")
	for p.peek().Type == EXCEPT {
		p.i++
		var typeExpr any
		name := ""
		if p.peek().Type != COLON {
			t, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			typeExpr = t
			if p.match(AS) {
				n, err := p.need(ID, "expected a name after 'as'")
				if err != nil {
					return nil, err
				}
				name = tokText(n)
			}
		}
		hbody, err := p.suite("'except' clause")
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, L("except", typeExpr, name, hbody))
	}
	var elseBlk, finBlk any
	if p.peek().Type == ELSE {
		p.i++
		b, err := p.suite("'else'")
		if err != nil {
			return nil, err
		}
		elseBlk = b
	}
	if p.peek().Type == FINALLY {
		p.i++
		b, err := p.suite("'finally'")
		if err != nil {
			return nil, err
		}
		finBlk = b
	}
	if len(handlers) == 1 && finBlk == nil {
		return nil, p.errHere("expected 'except' or 'finally' after try body")
	}
	if len(handlers) == 1 && elseBlk != nil {
		return nil, p.errHere("'else' clause requires at least one 'except'")
	}
	return L("try", body, handlers, elseBlk, finBlk), nil
}

func (p *parser) withStatement() (S, error) {
	p.i++ // WITH
	ctx, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	name := ""
	if p.match(AS) {
		n, err := p.need(ID, "expected a name after 'as'")
		if err != nil {
			return nil, err
		}
		name = tokText(n)
	}
	body, err := p.suite("'with' header")
	if err != nil {
		return nil, err
	}
	return L("with", ctx, name, body), nil
}

func (p *parser) matchStatement() (S, error) {
	p.i++ // MATCH
	subject, err := p.exprOrTuple()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' after match subject"); err != nil {
		return nil, err
	}
	if _, err := p.need(NEWLINE, "expected a newline after 'match ... :'"); err != nil {
		return nil, err
	}
	if _, err := p.need(INDENT, "expected an indented block of case clauses"); err != nil {
		return nil, err
	}
	out := L("match", subject)
	p.skipNewlines()
	for p.peek().Type == CASE {
		p.i++
		pat, err := p.casePattern()
		if err != nil {
			return nil, err
		}
		var guard any
		if p.match(IF) {
			g, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			guard = g
		}
		body, err := p.suite("'case' clause")
		if err != nil {
			return nil, err
		}
		out = append(out, L("case", pat, guard, body))
		p.skipNewlines()
	}
	if len(out) == 2 {
		return nil, p.errHere("expected at least one 'case' clause")
	}
	if _, err := p.need(DEDENT, "unterminated match block"); err != nil {
		return nil, err
	}
	return out, nil
}

// casePattern parses a case pattern: a literal, a capture name, or the
// wildcard '_'.
func (p *parser) casePattern() (S, error) {
	t := p.peek()
	switch t.Type {
	case ID:
		p.i++
		if tokText(t) == "_" {
			return L("wild"), nil
		}
		return L("capture", tokText(t)), nil
	case INTEGER:
		p.i++
		return L("lit", L("int", t.Literal.(int64))), nil
	case NUMBER:
		p.i++
		return L("lit", L("num", t.Literal.(float64))), nil
	case STRING:
		p.i++
		return L("lit", L("str", tokText(t))), nil
	case BOOLEAN:
		p.i++
		return L("lit", L("bool", t.Literal.(bool))), nil
	case NIL:
		p.i++
		return L("lit", L("nil")), nil
	case MINUS:
		p.i++
		n := p.peek()
		switch n.Type {
		case INTEGER:
			p.i++
			return L("lit", L("int", -n.Literal.(int64))), nil
		case NUMBER:
			p.i++
			return L("lit", L("num", -n.Literal.(float64))), nil
		}
		return nil, p.errHere("expected a number after '-' in pattern")
	}
	return nil, p.errHere(fmt.Sprintf("expected a pattern, found %s", describe(t)))
}

// decoratedStatement parses one or more '@expr' lines followed by a def,
// async def, or class.
func (p *parser) decoratedStatement() (S, error) {
	exprs := L("exprs")
	for p.peek().Type == AT {
		p.i++
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if _, err := p.need(NEWLINE, "expected a newline after decorator"); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	var target S
	var err error
	switch p.peek().Type {
	case DEF:
		p.i++
		target, err = p.defStatement(false)
	case CLASS:
		target, err = p.classStatement()
	case ASYNC:
		target, err = p.asyncStatement()
	default:
		return nil, p.errHere("expected 'def', 'async def' or 'class' after decorators")
	}
	if err != nil {
		return nil, err
	}
	return L("decor", exprs, target), nil
}

// asyncStatement parses after seeing the ASYNC keyword: 'async def' or
// 'async for'.
func (p *parser) asyncStatement() (S, error) {
	p.i++ // ASYNC
	switch p.peek().Type {
	case DEF:
		p.i++
		return p.defStatement(true)
	case FOR:
		p.i++
		return p.forStatement(true)
	}
	return nil, p.errHere("expected 'def' or 'for' after 'async'")
}

// ─────────────────────────────── expressions ────────────────────────────────

// exprOrTuple parses an expression and folds a top-level comma list into a
// tuple node.
func (p *parser) exprOrTuple() (S, error) {
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().Type != COMMA {
		return first, nil
	}
	out := L("tuple", first)
	for p.match(COMMA) {
		if p.tupleEndsHere() {
			break
		}
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// tupleEndsHere reports whether a trailing comma just ended a tuple.
func (p *parser) tupleEndsHere() bool {
	switch p.peek().Type {
	case NEWLINE, SEMI, EOF, DEDENT, ASSIGN, RROUND, RSQUARE, RCURLY, COLON:
		return true
	}
	return false
}

// expr is the Pratt loop: parse a prefix expression, then fold infix
// operators with binding power above minBP.
func (p *parser) expr(minBP int) (S, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		// postfix: call, index, attribute
		var stepped bool
		left, stepped, err = p.parseOnePostfix(left)
		if err != nil {
			return nil, err
		}
		if stepped {
			continue
		}

		t := p.peek()
		bp, isOp := lbp(t.Type)
		if !isOp || bp <= minBP {
			return left, nil
		}
		// "not in" is the only infix use of NOT
		if t.Type == NOT {
			if p.peek2().Type != IN {
				return left, nil
			}
			p.i += 2
			rhs, err := p.expr(bp)
			if err != nil {
				return nil, err
			}
			left = L("binop", "not in", left, rhs)
			continue
		}
		p.i++
		nextBP := bp
		if t.Type == POWER {
			nextBP = bp - 1 // right associative
		}
		rhs, err := p.expr(nextBP)
		if err != nil {
			return nil, err
		}
		left = L("binop", binopLexeme(t.Type), left, rhs)
	}
}

// prefix parses a prefix expression: literals, identifiers, unary
// operators, grouping, sequence literals, lambda, yield, await.
func (p *parser) prefix() (S, error) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.i++
		return L("int", t.Literal.(int64)), nil
	case NUMBER:
		p.i++
		return L("num", t.Literal.(float64)), nil
	case STRING:
		p.i++
		return L("str", tokText(t)), nil
	case BOOLEAN:
		p.i++
		return L("bool", t.Literal.(bool)), nil
	case NIL:
		p.i++
		return L("nil"), nil
	case ID:
		p.i++
		return L("id", tokText(t)), nil
	case MINUS:
		p.i++
		e, err := p.expr(75)
		if err != nil {
			return nil, err
		}
		return L("unop", "-", e), nil
	case PLUS:
		p.i++
		e, err := p.expr(75)
		if err != nil {
			return nil, err
		}
		return L("unop", "+", e), nil
	case TILDE:
		p.i++
		e, err := p.expr(75)
		if err != nil {
			return nil, err
		}
		return L("unop", "~", e), nil
	case NOT:
		p.i++
		e, err := p.expr(25)
		if err != nil {
			return nil, err
		}
		return L("unop", "not", e), nil
	case AWAIT:
		p.i++
		e, err := p.expr(75)
		if err != nil {
			return nil, err
		}
		return L("await", e), nil
	case YIELD:
		p.i++
		if p.yieldEndsHere() {
			return L("yield"), nil
		}
		v, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		return L("yield", v), nil
	case LAMBDA:
		return p.lambdaExpr()
	case LROUND:
		return p.parseGrouping()
	case LSQUARE:
		return p.listLiteralOrComp()
	case LCURLY:
		return p.dictLiteralOrComp()
	case EOF:
		return nil, p.errHere("unexpected end of input")
	}
	return nil, p.errAt(t, fmt.Sprintf("unexpected %s", describe(t)))
}

func (p *parser) yieldEndsHere() bool {
	switch p.peek().Type {
	case NEWLINE, SEMI, EOF, DEDENT, RROUND, RSQUARE, RCURLY, COMMA, COLON:
		return true
	}
	return false
}

// lambdaExpr parses: lambda a, b=1: expr
func (p *parser) lambdaExpr() (S, error) {
	p.i++ // LAMBDA
	params := L("params")
	if p.peek().Type != COLON {
		sawDefault := false
		for {
			name, err := p.need(ID, "expected a parameter name in lambda")
			if err != nil {
				return nil, err
			}
			var def any
			if p.match(ASSIGN) {
				d, err := p.expr(0)
				if err != nil {
					return nil, err
				}
				def = d
				sawDefault = true
			} else if sawDefault {
				return nil, p.errAt(name, "parameter without a default follows one with a default")
			}
			params = append(params, L("param", tokText(name), def))
			if p.match(COMMA) {
				continue
			}
			break
		}
	}
	if _, err := p.need(COLON, "expected ':' after lambda parameters"); err != nil {
		return nil, err
	}
	body, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return L("lambda", params, body), nil
}

// parseGrouping handles '(': grouping, the empty tuple, and parenthesized
// tuples with or without a trailing comma.
func (p *parser) parseGrouping() (S, error) {
	p.i++ // LROUND
	if p.match(RROUND) {
		return L("tuple"), nil
	}
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.match(RROUND) {
		return first, nil
	}
	out := L("tuple", first)
	for p.match(COMMA) {
		if p.peek().Type == RROUND {
			break
		}
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if _, err := p.need(RROUND, "expected ')'"); err != nil {
		return nil, err
	}
	return out, nil
}

// listLiteralOrComp handles '[': a list literal or a list comprehension.
func (p *parser) listLiteralOrComp() (S, error) {
	p.i++ // LSQUARE
	if p.match(RSQUARE) {
		return L("list"), nil
	}
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == FOR {
		p.i++
		target, err := p.forTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(IN, "expected 'in' in comprehension"); err != nil {
			return nil, err
		}
		iter, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		var cond any
		if p.match(IF) {
			c, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			cond = c
		}
		if _, err := p.need(RSQUARE, "expected ']' after comprehension"); err != nil {
			return nil, err
		}
		return L("listcomp", first, target, iter, cond), nil
	}
	out := L("list", first)
	for p.match(COMMA) {
		if p.peek().Type == RSQUARE {
			break
		}
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if _, err := p.need(RSQUARE, "expected ']' after list literal"); err != nil {
		return nil, err
	}
	return out, nil
}

// dictLiteralOrComp handles '{': a dict literal or a dict comprehension.
func (p *parser) dictLiteralOrComp() (S, error) {
	p.i++ // LCURLY
	if p.match(RCURLY) {
		return L("dict"), nil
	}
	k, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' after dict key"); err != nil {
		return nil, err
	}
	v, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == FOR {
		p.i++
		target, err := p.forTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(IN, "expected 'in' in comprehension"); err != nil {
			return nil, err
		}
		iter, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		var cond any
		if p.match(IF) {
			c, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			cond = c
		}
		if _, err := p.need(RCURLY, "expected '}' after comprehension"); err != nil {
			return nil, err
		}
		return L("dictcomp", k, v, target, iter, cond), nil
	}
	out := L("dict", L("pair", k, v))
	for p.match(COMMA) {
		if p.peek().Type == RCURLY {
			break
		}
		k, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(COLON, "expected ':' after dict key"); err != nil {
			return nil, err
		}
		v, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		out = append(out, L("pair", k, v))
	}
	if _, err := p.need(RCURLY, "expected '}' after dict literal"); err != nil {
		return nil, err
	}
	return out, nil
}

// parseOnePostfix applies one postfix step (call, subscript or attribute)
// to left. Returns (new node, stepped, err).
func (p *parser) parseOnePostfix(left S) (S, bool, error) {
	switch p.peek().Type {
	case LROUND:
		p.i++
		args, err := p.callArgs()
		if err != nil {
			return nil, false, err
		}
		return append(L("call", left), args...), true, nil
	case LSQUARE:
		p.i++
		node, err := p.subscript(left)
		if err != nil {
			return nil, false, err
		}
		return node, true, nil
	case PERIOD:
		p.i++
		name, err := p.need(ID, "expected an attribute name after '.'")
		if err != nil {
			return nil, false, err
		}
		return L("get", left, tokText(name)), true, nil
	}
	return left, false, nil
}

// callArgs parses the arguments of a call after '('. Keyword arguments use
// the form name=value and must follow all positional arguments.
func (p *parser) callArgs() ([]any, error) {
	var out []any
	if p.match(RROUND) {
		return out, nil
	}
	sawKw := false
	for {
		if p.peek().Type == ID && p.peek2().Type == ASSIGN {
			name := p.peek()
			p.i += 2
			v, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			out = append(out, L("kw", tokText(name), v))
			sawKw = true
		} else {
			argTok := p.peek()
			v, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			if sawKw {
				return nil, p.errAt(argTok, "positional argument follows keyword argument")
			}
			out = append(out, v)
		}
		if p.match(COMMA) {
			if p.peek().Type == RROUND {
				break
			}
			continue
		}
		break
	}
	if _, err := p.need(RROUND, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return out, nil
}

// subscript parses an index or slice after '['. Absent slice bounds are
// encoded as ("nil").
func (p *parser) subscript(obj S) (S, error) {
	var lo, hi, step any = L("nil"), L("nil"), L("nil")
	sawColon := false
	if p.peek().Type != COLON {
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		lo = e
	}
	if p.match(COLON) {
		sawColon = true
		if p.peek().Type != COLON && p.peek().Type != RSQUARE {
			e, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			hi = e
		}
		if p.match(COLON) {
			if p.peek().Type != RSQUARE {
				e, err := p.expr(0)
				if err != nil {
					return nil, err
				}
				step = e
			}
		}
	}
	if _, err := p.need(RSQUARE, "expected ']' after subscript"); err != nil {
		return nil, err
	}
	if sawColon {
		return L("slice", obj, lo, hi, step), nil
	}
	return L("idx", obj, lo), nil
}
