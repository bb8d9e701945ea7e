package sharp

import (
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL
	NEWLINE // end of a logical line
	INDENT  // indentation increased
	DEDENT  // indentation decreased (one token per level unwound)

	// Punctuation
	LROUND   // "("
	RROUND   // ")"
	LSQUARE  // "["
	RSQUARE  // "]"
	LCURLY   // "{"
	RCURLY   // "}"
	COLON    // ":"
	SEMI     // ";"
	COMMA    // ","
	PERIOD   // "."
	QUESTION // "?"
	ARROW    // "->"
	AT       // "@" decorator marker

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	POWER      // "**"
	ASSIGN     // "="
	PLUS_EQ    // "+="
	MINUS_EQ   // "-="
	STAR_EQ    // "*="
	SLASH_EQ   // "/="
	EQ         // "=="
	NEQ        // "!="
	LESS       // "<"
	LESS_EQ    // "<="
	GREATER    // ">"
	GREATER_EQ // ">="
	LSHIFT     // "<<"
	RSHIFT     // ">>"
	AMP        // "&"
	PIPE       // "|"
	CARET      // "^"
	TILDE      // "~"

	// Literals & identifiers
	ID
	STRING
	INTEGER
	NUMBER
	BOOLEAN
	NIL

	// Keywords
	AND
	OR
	NOT
	DEF
	LET
	IF
	ELIF
	ELSE
	WHILE
	FOR
	IN
	RETURN
	BREAK
	CONTINUE
	MATCH
	CASE
	LAMBDA
	IMPORT
	FROM
	AS
	CLASS
	PASS
	GLOBAL
	NONLOCAL
	ASYNC
	AWAIT
	YIELD
	TRY
	EXCEPT
	FINALLY
	WITH
	RAISE
)

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string      // raw text slice
	Literal interface{} // parsed value for literals
	Line    int
	Col     int
}

// keywords map
var keywords = map[string]TokenType{
	"nil":      NIL,
	"true":     BOOLEAN,
	"false":    BOOLEAN,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"def":      DEF,
	"let":      LET,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"match":    MATCH,
	"case":     CASE,
	"lambda":   LAMBDA,
	"import":   IMPORT,
	"from":     FROM,
	"as":       AS,
	"class":    CLASS,
	"pass":     PASS,
	"global":   GLOBAL,
	"nonlocal": NONLOCAL,
	"async":    ASYNC,
	"await":    AWAIT,
	"yield":    YIELD,
	"try":      TRY,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"with":     WITH,
	"raise":    RAISE,
}

// tabWidth is the column span of a tab stop when measuring indentation.
const tabWidth = 4

// Lexer scans a Sharp source string into tokens. Indentation is
// significant: it maintains a stack of indent widths and emits INDENT,
// DEDENT and NEWLINE tokens around logical lines. Inside open brackets
// newlines and indentation are plain whitespace (implicit line joining).
type Lexer struct {
	src         string
	start       int // start index of current token
	cur         int // current index
	line        int // 1-based
	col         int // 0-based column within line
	tokens      []Token
	indents     []int // widths of enclosing indentation levels
	depth       int   // open bracket nesting
	atLineStart bool

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:         src,
		line:        1,
		col:         0,
		indents:     []int{0},
		atLineStart: true,
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) rewindToStart() {
	l.cur = l.start
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) Token {
	lex := l.src[l.start:l.cur]
	tok := Token{
		Type:    tt,
		Lexeme:  lex,
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

// emit appends a synthetic token (NEWLINE, INDENT, DEDENT, EOF) that has
// no source text of its own.
func (l *Lexer) emit(tt TokenType) {
	l.tokens = append(l.tokens, Token{Type: tt, Line: l.line, Col: l.col})
}

// helpers

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

// ----- errors -----

type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

// ----- indentation -----

// measureIndent consumes the leading whitespace of a physical line and
// returns its width. Tabs advance to the next multiple of tabWidth.
func (l *Lexer) measureIndent() int {
	width := 0
	for {
		b, ok := l.peek()
		if !ok {
			return width
		}
		switch b {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		case '\r':
			// tolerated, contributes nothing
		default:
			return width
		}
		l.advance()
	}
}

// scanLineStart handles the start of a logical line: it measures the
// indentation, skips blank and comment-only lines entirely, and emits
// INDENT/DEDENT tokens against the indent stack. A dedent that lands
// between two stack levels is an error.
func (l *Lexer) scanLineStart() error {
	width := l.measureIndent()

	b, ok := l.peek()
	if !ok {
		l.atLineStart = false
		return nil
	}
	if b == '\n' {
		l.advance()
		return nil // blank line, stay at line start
	}
	if b == '#' {
		l.ignoreUntilNewline()
		if _, ok := l.peek(); ok {
			l.advance() // consume the newline
		}
		return nil
	}

	l.atLineStart = false
	top := l.indents[len(l.indents)-1]
	if width > top {
		l.indents = append(l.indents, width)
		l.emit(INDENT)
		return nil
	}
	for width < l.indents[len(l.indents)-1] {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT)
	}
	if width != l.indents[len(l.indents)-1] {
		return l.err(fmt.Sprintf("inconsistent indentation: width %d does not match any enclosing block", width))
	}
	return nil
}

// ----- scanners -----

// scanString parses a string literal (single or double quotes). Strings
// may not span physical lines.
func (l *Lexer) scanString() (string, error) {
	del := l.src[l.start]
	if del != '"' && del != '\'' {
		return "", l.err("internal: scanString without quote")
	}
	l.advance() // consume the delimiter

	var out []rune
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == del {
			return string(out), nil
		}
		if ch == '\n' {
			return "", l.err("string was not terminated before end of line")
		}
		if ch == '\\' {
			if l.isAtEnd() {
				return "", l.err("unfinished escape sequence")
			}
			esc, _ := l.advance()
			switch esc {
			case '"':
				out = append(out, '"')
			case '\'':
				out = append(out, '\'')
			case '\\':
				out = append(out, '\\')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case '0':
				out = append(out, 0)
			case 'u':
				// expect 4 hex digits
				var hex string
				for i := 0; i < 4; i++ {
					b, ok := l.peek()
					if !ok || !isHex(b) {
						return "", l.err("unicode escape was not terminated (expect 4 hex digits)")
					}
					hex += string(b)
					l.advance()
				}
				v, err := strconv.ParseInt(hex, 16, 32)
				if err != nil {
					return "", l.err("invalid unicode escape")
				}
				r := rune(v)
				// surrogate pair \uD800-\uDBFF followed by \uDC00-\uDFFF
				if 0xD800 <= r && r <= 0xDBFF {
					if b1, _ := l.peek(); b1 == '\\' {
						if b2, _ := l.peekN(1); b2 == 'u' {
							var hex2 string
							okPair := true
							for i := 0; i < 4; i++ {
								b, ok := l.peekN(2 + i)
								if !ok || !isHex(b) {
									okPair = false
									break
								}
								hex2 += string(b)
							}
							if okPair {
								v2, err := strconv.ParseInt(hex2, 16, 32)
								if err == nil && 0xDC00 <= rune(v2) && rune(v2) <= 0xDFFF {
									for i := 0; i < 6; i++ {
										l.advance()
									}
									out = append(out, utf16.DecodeRune(r, rune(v2)))
									continue
								}
							}
						}
					}
				}
				out = append(out, r)
			default:
				return "", l.err(fmt.Sprintf("invalid escape sequence: \\%c", esc))
			}
			continue
		}
		if ch < utf8.RuneSelf {
			out = append(out, rune(ch))
			continue
		}
		// non-ASCII byte: back up one byte and decode the full rune
		l.cur--
		r, size := utf8.DecodeRuneInString(l.src[l.cur:])
		if r == utf8.RuneError && size == 1 {
			return "", l.err("invalid UTF-8 in source")
		}
		out = append(out, r)
		l.cur += size
		l.col += size - 1
	}
	return "", l.err("string was not terminated")
}

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses an integer or float: digits, optional fraction,
// optional exponent (1, 42.5, 1.23e-4).
func (l *Lexer) scanNumber() (tok TokenType, lit interface{}, err error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	sawDot := false
	if b, ok := l.peek(); ok && b == '.' {
		if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			sawDot = true
			l.advance() // consume '.'
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}

	sawExp := false
	if b, ok := l.peek(); ok && (b == 'e' || b == 'E') {
		save := l.cur
		l.advance()
		if b2, ok := l.peek(); ok && (b2 == '+' || b2 == '-') {
			l.advance()
		}
		if b3, ok := l.peek(); ok && isDigit(b3) {
			sawExp = true
			for {
				b4, ok := l.peek()
				if !ok || !isDigit(b4) {
					break
				}
				l.advance()
			}
		} else {
			l.cur = save
		}
	}

	lex := l.src[l.start:l.cur]
	if !sawDot && !sawExp {
		v, convErr := strconv.ParseInt(lex, 10, 64)
		if convErr != nil {
			return ILLEGAL, nil, l.err("invalid integer literal")
		}
		return INTEGER, v, nil
	}
	vf, convErr := strconv.ParseFloat(lex, 64)
	if convErr != nil {
		return ILLEGAL, nil, l.err("invalid float literal")
	}
	return NUMBER, vf, nil
}

// ignoreUntilNewline eats until '\n' or EOF.
func (l *Lexer) ignoreUntilNewline() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return
		}
		l.advance()
	}
}

// ----- main scanner -----

// scanToken scans the next token of the current logical line. It never
// runs at a line start; Scan handles indentation first.
func (l *Lexer) scanToken() error {
	// skip horizontal whitespace
	for {
		b, ok := l.peek()
		if !ok {
			return nil
		}
		if b == ' ' || b == '\t' || b == '\r' {
			l.advance()
			continue
		}
		break
	}
	l.start = l.cur
	l.tokStartLine = l.line
	l.tokStartCol = l.col

	ch, ok := l.advance()
	if !ok {
		return nil
	}

	switch ch {
	case '\n':
		if l.depth > 0 {
			l.start = l.cur
			return nil // implicit line joining inside brackets
		}
		l.tokens = append(l.tokens, Token{Type: NEWLINE, Line: l.tokStartLine, Col: l.tokStartCol})
		l.start = l.cur
		l.atLineStart = true
		return nil
	case '#':
		l.ignoreUntilNewline()
		l.start = l.cur
		return nil
	case '(':
		l.depth++
		l.addToken(LROUND, nil)
		return nil
	case ')':
		l.depth--
		l.addToken(RROUND, nil)
		return nil
	case '[':
		l.depth++
		l.addToken(LSQUARE, nil)
		return nil
	case ']':
		l.depth--
		l.addToken(RSQUARE, nil)
		return nil
	case '{':
		l.depth++
		l.addToken(LCURLY, nil)
		return nil
	case '}':
		l.depth--
		l.addToken(RCURLY, nil)
		return nil
	case ':':
		l.addToken(COLON, nil)
		return nil
	case ';':
		l.addToken(SEMI, nil)
		return nil
	case ',':
		l.addToken(COMMA, nil)
		return nil
	case '.':
		l.addToken(PERIOD, nil)
		return nil
	case '?':
		l.addToken(QUESTION, nil)
		return nil
	case '@':
		l.addToken(AT, nil)
		return nil
	case '~':
		l.addToken(TILDE, nil)
		return nil
	case '&':
		l.addToken(AMP, nil)
		return nil
	case '|':
		l.addToken(PIPE, nil)
		return nil
	case '^':
		l.addToken(CARET, nil)
		return nil
	case '+':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(PLUS_EQ, nil)
			return nil
		}
		l.addToken(PLUS, nil)
		return nil
	case '-':
		if b, ok := l.peek(); ok && b == '>' {
			l.advance()
			l.addToken(ARROW, nil)
			return nil
		}
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(MINUS_EQ, nil)
			return nil
		}
		l.addToken(MINUS, nil)
		return nil
	case '*':
		if b, ok := l.peek(); ok && b == '*' {
			l.advance()
			l.addToken(POWER, nil)
			return nil
		}
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(STAR_EQ, nil)
			return nil
		}
		l.addToken(STAR, nil)
		return nil
	case '/':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(SLASH_EQ, nil)
			return nil
		}
		l.addToken(SLASH, nil)
		return nil
	case '%':
		l.addToken(PERCENT, nil)
		return nil
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(EQ, nil)
			return nil
		}
		l.addToken(ASSIGN, nil)
		return nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(NEQ, nil)
			return nil
		}
		return l.err("unexpected character: '!' (did you mean '!='?)")
	case '<':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(LESS_EQ, nil)
			return nil
		}
		if b, ok := l.peek(); ok && b == '<' {
			l.advance()
			l.addToken(LSHIFT, nil)
			return nil
		}
		l.addToken(LESS, nil)
		return nil
	case '>':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			l.addToken(GREATER_EQ, nil)
			return nil
		}
		if b, ok := l.peek(); ok && b == '>' {
			l.advance()
			l.addToken(RSHIFT, nil)
			return nil
		}
		l.addToken(GREATER, nil)
		return nil
	}

	// Strings
	if ch == '"' || ch == '\'' {
		l.rewindToStart()
		text, err := l.scanString()
		if err != nil {
			return err
		}
		l.addToken(STRING, text)
		return nil
	}

	// Numbers
	if isDigit(ch) {
		l.rewindToStart()
		tt, lit, err := l.scanNumber()
		if err != nil {
			return err
		}
		l.addToken(tt, lit)
		return nil
	}

	// Identifiers / keywords
	if isAlpha(ch) {
		l.rewindToStart()
		lex := l.scanIdentifier()
		if tt, ok := keywords[lex]; ok {
			switch tt {
			case NIL:
				l.addToken(NIL, nil)
			case BOOLEAN:
				l.addToken(BOOLEAN, lex == "true")
			default:
				l.addToken(tt, lex)
			}
			return nil
		}
		l.addToken(ID, lex)
		return nil
	}

	return l.err(fmt.Sprintf("unexpected character: %q", ch))
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for !l.isAtEnd() {
		if l.atLineStart && l.depth == 0 {
			if err := l.scanLineStart(); err != nil {
				return nil, err
			}
			continue
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	// close the last logical line if the file does not end in a newline
	if n := len(l.tokens); n > 0 {
		switch l.tokens[n-1].Type {
		case NEWLINE, INDENT, DEDENT:
		default:
			l.emit(NEWLINE)
		}
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT)
	}
	l.emit(EOF)
	return l.tokens, nil
}
