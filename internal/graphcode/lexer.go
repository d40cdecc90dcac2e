package graphcode

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokKind classifies a lexical token.
type tokKind int

const (
	tokEOF tokKind = iota
	tokName
	tokNumber
	tokString
	tokOp
	tokNewline
	tokIndent
	tokDedent
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokName:
		return "name"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokOp:
		return "operator"
	case tokNewline:
		return "newline"
	case tokIndent:
		return "indent"
	case tokDedent:
		return "dedent"
	}
	return "token"
}

// token is one lexical unit. For strings, text holds the decoded value and raw
// the source spelling.
type token struct {
	kind      tokKind
	text      string
	raw       string
	line, col int
	endLine   int
	formatted bool
}

// SyntaxError is a tokenizer or parser failure at a source position.
type SyntaxError struct {
	Line, Column int
	Msg          string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

var threeCharOps = []string{"**=", "//=", ">>=", "<<=", "..."}

var twoCharOps = []string{
	"->", "**", "//", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", ":=", "<<", ">>",
}

const oneCharOps = "+-*/%@&|^~<>()[]{},:.;="

// lexer turns source text into a token stream with INDENT/DEDENT tokens,
// joining lines inside brackets and after a trailing backslash.
type lexer struct {
	src    string
	pos    int
	line   int
	col    int
	depth  int
	indent []int
	toks   []token
	atBOL  bool
}

func tokenize(src string) ([]token, error) {
	src = strings.TrimPrefix(src, "\ufeff")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	lx := &lexer{src: src, line: 1, col: 1, indent: []int{0}, atBOL: true}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: lx.line, Column: lx.col, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) peekRune() (rune, int) {
	if lx.pos >= len(lx.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(lx.src[lx.pos:])
}

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.pos < len(lx.src); {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		lx.pos += size
		i += size
		if r == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
	}
}

func (lx *lexer) emit(t token) {
	if t.endLine == 0 {
		t.endLine = t.line
	}
	lx.toks = append(lx.toks, t)
}

func (lx *lexer) run() error {
	for {
		if lx.atBOL && lx.depth == 0 {
			blank, err := lx.handleIndent()
			if err != nil {
				return err
			}
			if blank {
				continue
			}
		}
		if lx.pos >= len(lx.src) {
			break
		}
		r, size := lx.peekRune()
		switch {
		case r == '\n':
			if lx.depth == 0 {
				lx.emit(token{kind: tokNewline, line: lx.line, col: lx.col})
				lx.atBOL = true
			}
			lx.advance(size)
		case r == ' ' || r == '\t' || r == '\f':
			lx.advance(size)
		case r == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.advance(1)
			}
		case r == '\\':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '\n' {
				lx.advance(2)
				continue
			}
			return lx.errorf("unexpected character %q", r)
		case isIdentStart(r):
			if err := lx.lexNameOrString(); err != nil {
				return err
			}
		case r >= '0' && r <= '9' || (r == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
			lx.lexNumber()
		case r == '"' || r == '\'':
			if err := lx.lexString("", lx.line, lx.col); err != nil {
				return err
			}
		default:
			if err := lx.lexOp(); err != nil {
				return err
			}
		}
	}
	if n := len(lx.toks); n > 0 && lx.toks[n-1].kind != tokNewline {
		lx.emit(token{kind: tokNewline, line: lx.line, col: lx.col})
	}
	for len(lx.indent) > 1 {
		lx.indent = lx.indent[:len(lx.indent)-1]
		lx.emit(token{kind: tokDedent, line: lx.line, col: lx.col})
	}
	lx.emit(token{kind: tokEOF, line: lx.line, col: lx.col})
	return nil
}

// handleIndent measures the indentation of a logical line start. It reports
// blank=true when the line holds only whitespace or a comment.
func (lx *lexer) handleIndent() (blank bool, err error) {
	width := 0
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == ' ' {
			width++
		} else if c == '\t' {
			width = (width/8 + 1) * 8
		} else if c == '\f' {
			width = 0
		} else {
			break
		}
		lx.advance(1)
	}
	if lx.pos >= len(lx.src) {
		lx.atBOL = false
		return false, nil
	}
	switch lx.src[lx.pos] {
	case '\n':
		lx.advance(1)
		return true, nil
	case '#':
		for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
			lx.advance(1)
		}
		if lx.pos < len(lx.src) {
			lx.advance(1)
		}
		return true, nil
	}
	lx.atBOL = false
	cur := lx.indent[len(lx.indent)-1]
	switch {
	case width > cur:
		lx.indent = append(lx.indent, width)
		lx.emit(token{kind: tokIndent, line: lx.line, col: 1})
	case width < cur:
		for width < lx.indent[len(lx.indent)-1] {
			lx.indent = lx.indent[:len(lx.indent)-1]
			lx.emit(token{kind: tokDedent, line: lx.line, col: 1})
		}
		if width != lx.indent[len(lx.indent)-1] {
			return false, lx.errorf("unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (lx *lexer) lexNameOrString() error {
	line, col := lx.line, lx.col
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := lx.peekRune()
		if !isIdentPart(r) {
			break
		}
		lx.advance(size)
	}
	word := lx.src[start:lx.pos]
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == '"' || lx.src[lx.pos] == '\'') && isStringPrefix(word) {
		return lx.lexString(strings.ToLower(word), line, col)
	}
	lx.emit(token{kind: tokName, text: word, raw: word, line: line, col: col})
	return nil
}

func (lx *lexer) lexNumber() {
	line, col := lx.line, lx.col
	start := lx.pos
	if strings.HasPrefix(lx.src[lx.pos:], "0x") || strings.HasPrefix(lx.src[lx.pos:], "0X") {
		lx.advance(2)
		for lx.pos < len(lx.src) && (isHex(lx.src[lx.pos]) || lx.src[lx.pos] == '_') {
			lx.advance(1)
		}
	} else {
		for lx.pos < len(lx.src) {
			c := lx.src[lx.pos]
			if isDigit(c) || c == '_' || c == '.' {
				lx.advance(1)
				continue
			}
			if (c == 'e' || c == 'E') && lx.pos+1 < len(lx.src) {
				next := lx.src[lx.pos+1]
				if isDigit(next) || next == '+' || next == '-' {
					lx.advance(2)
					continue
				}
			}
			break
		}
	}
	text := lx.src[start:lx.pos]
	lx.emit(token{kind: tokNumber, text: text, raw: text, line: line, col: col})
}

func (lx *lexer) lexString(prefix string, line, col int) error {
	start := lx.pos
	quote := lx.src[lx.pos]
	triple := strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(string(quote), 3))
	raw := strings.Contains(prefix, "r")
	if triple {
		lx.advance(3)
	} else {
		lx.advance(1)
	}
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return &SyntaxError{Line: line, Column: col, Msg: "unterminated string literal"}
		}
		c := lx.src[lx.pos]
		if triple && strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(string(quote), 3)) {
			lx.advance(3)
			break
		}
		if !triple && c == quote {
			lx.advance(1)
			break
		}
		if !triple && c == '\n' {
			return &SyntaxError{Line: line, Column: col, Msg: "unterminated string literal"}
		}
		if c == '\\' && lx.pos+1 < len(lx.src) {
			next := lx.src[lx.pos+1]
			if raw {
				b.WriteByte(c)
				b.WriteByte(next)
				lx.advance(2)
				continue
			}
			lx.advance(2)
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(next)
			case '\n':
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			continue
		}
		r, size := lx.peekRune()
		b.WriteRune(r)
		lx.advance(size)
	}
	lx.emit(token{
		kind:      tokString,
		text:      b.String(),
		raw:       prefix + lx.src[start:lx.pos],
		line:      line,
		col:       col,
		endLine:   lx.line,
		formatted: strings.Contains(prefix, "f"),
	})
	return nil
}

func (lx *lexer) lexOp() error {
	line, col := lx.line, lx.col
	rest := lx.src[lx.pos:]
	for _, group := range [][]string{threeCharOps, twoCharOps} {
		for _, op := range group {
			if strings.HasPrefix(rest, op) {
				lx.advance(len(op))
				lx.emit(token{kind: tokOp, text: op, raw: op, line: line, col: col})
				return nil
			}
		}
	}
	c := rest[0]
	if strings.IndexByte(oneCharOps, c) < 0 {
		r, _ := lx.peekRune()
		return lx.errorf("unexpected character %q", r)
	}
	switch c {
	case '(', '[', '{':
		lx.depth++
	case ')', ']', '}':
		if lx.depth > 0 {
			lx.depth--
		}
	}
	lx.advance(1)
	lx.emit(token{kind: tokOp, text: string(c), raw: string(c), line: line, col: col})
	return nil
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "u", "b", "f", "rb", "br", "fr", "rf":
		return true
	}
	return false
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true, "yield": true,
}

// IsIdentifier reports whether name can appear as a bare call target.
func IsIdentifier(name string) bool {
	if name == "" || keywords[name] {
		return false
	}
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}
