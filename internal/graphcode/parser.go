package graphcode

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
)

// ErrSource wraps failures to obtain graph source text.
var ErrSource = errors.New("graph source unavailable")

// Parse parses generated graph source into a Module.
//
// Parse never fails on malformed input: a tokenizer or grammar error yields a
// CODE_SYNTAX_ERROR diagnostic and a Module holding whatever statements were
// parsed before the error, and constructs outside the supported subset yield
// CODE_UNSUPPORTED_SHAPE diagnostics with BadStmt/BadExpr placeholders. The
// returned error is non-nil only when ctx is already done.
func Parse(ctx context.Context, src []byte) (*Module, []Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	mod := &Module{Span: Span{Line: 1, Col: 1, EndLine: 1}}
	toks, err := tokenize(string(src))
	if err != nil {
		return mod, []Diagnostic{syntaxDiag(err)}, nil
	}
	p := &parser{toks: toks}
	body, perr := p.parseBlockUntil(tokEOF)
	mod.Body = body
	if len(toks) > 0 {
		mod.EndLine = toks[len(toks)-1].line
	}
	mod.Doc, mod.Body = splitDocstring(mod.Body)
	mod.Metadata = parseMetadata(mod.Doc)
	diags := p.diags
	if perr != nil {
		diags = append(diags, syntaxDiag(perr))
	}
	return mod, diags, nil
}

func syntaxDiag(err error) Diagnostic {
	d := Diagnostic{Code: issue.CodeSyntaxError, Message: err.Error()}
	var se *SyntaxError
	if errors.As(err, &se) {
		d.Span = Span{Line: se.Line, Col: se.Column, EndLine: se.Line}
		d.Message = se.Msg
	}
	return d
}

// parser is a recursive-descent parser over a token slice.
type parser struct {
	toks  []token
	pos   int
	diags []Diagnostic
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// last returns the most recently consumed token.
func (p *parser) last() token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == word
}

func (p *parser) acceptOp(text string) bool {
	if p.isOp(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(word string) bool {
	if p.isKeyword(word) {
		p.next()
		return true
	}
	return false
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.line, Column: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expectOp(text string) (token, error) {
	t := p.peek()
	if t.kind != tokOp || t.text != text {
		return t, p.errorf(t, "expected %q, found %s", text, describe(t))
	}
	return p.next(), nil
}

func (p *parser) expectName() (token, error) {
	t := p.peek()
	if t.kind != tokName || keywords[t.text] {
		return t, p.errorf(t, "expected identifier, found %s", describe(t))
	}
	return p.next(), nil
}

func describe(t token) string {
	switch t.kind {
	case tokName, tokOp, tokNumber:
		return fmt.Sprintf("%q", t.text)
	case tokString:
		return "string literal"
	}
	return t.kind.String()
}

func (p *parser) spanFrom(start token) Span {
	return Span{Line: start.line, Col: start.col, EndLine: p.last().endLine}
}

func (p *parser) unsupported(span Span, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Code:    issue.CodeUnsupportedShape,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

// ─── Statements ──────────────────────────────────────────────────────────────

func (p *parser) parseBlockUntil(end tokKind) ([]Stmt, error) {
	var out []Stmt
	for p.peek().kind != end && p.peek().kind != tokEOF {
		if p.peek().kind == tokNewline {
			p.next()
			continue
		}
		stmts, err := p.parseStatement()
		out = append(out, stmts...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// parseSuite parses ":" followed by an indented block or a same-line simple
// statement list.
func (p *parser) parseSuite() ([]Stmt, error) {
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.peek().kind != tokNewline {
		return p.parseSimpleLine()
	}
	p.next()
	if p.peek().kind != tokIndent {
		return nil, p.errorf(p.peek(), "expected an indented block")
	}
	p.next()
	body, err := p.parseBlockUntil(tokDedent)
	if err != nil {
		return body, err
	}
	if p.peek().kind == tokDedent {
		p.next()
	}
	return body, nil
}

func (p *parser) parseStatement() ([]Stmt, error) {
	t := p.peek()
	if t.kind == tokOp && t.text == "@" {
		s, err := p.parseDecorated()
		return wrap(s), err
	}
	if t.kind == tokName {
		switch t.text {
		case "def":
			s, err := p.parseFuncDef(nil, t)
			return wrap(s), err
		case "class":
			s, err := p.parseClassDef(nil, t)
			return wrap(s), err
		case "if":
			s, err := p.parseIf()
			return wrap(s), err
		case "for":
			s, err := p.parseFor()
			return wrap(s), err
		case "while":
			s, err := p.parseWhile()
			return wrap(s), err
		case "try", "with", "async", "lambda":
			s, err := p.skipCompound(t)
			return wrap(s), err
		case "match":
			if p.looksLikeMatch() {
				s, err := p.parseMatch()
				return wrap(s), err
			}
		}
	}
	return p.parseSimpleLine()
}

func wrap(s Stmt) []Stmt {
	if s == nil {
		return nil
	}
	return []Stmt{s}
}

// looksLikeMatch tells "match x:" apart from a name called match.
func (p *parser) looksLikeMatch() bool {
	next := p.peekAt(1)
	if next.kind == tokNewline || next.kind == tokEOF {
		return false
	}
	if next.kind == tokOp && (next.text == "=" || next.text == "." || next.text == "(" || next.text == ":") {
		return false
	}
	for i := p.pos + 1; i < len(p.toks); i++ {
		tk := p.toks[i]
		if tk.kind == tokNewline || tk.kind == tokEOF {
			return i > 0 && p.toks[i-1].kind == tokOp && p.toks[i-1].text == ":"
		}
	}
	return false
}

// skipCompound consumes an unsupported compound statement with its block.
func (p *parser) skipCompound(start token) (Stmt, error) {
	for p.peek().kind != tokNewline && p.peek().kind != tokEOF {
		p.next()
	}
	if p.peek().kind == tokNewline {
		p.next()
	}
	if p.peek().kind == tokIndent {
		depth := 0
		for {
			t := p.next()
			if t.kind == tokIndent {
				depth++
			} else if t.kind == tokDedent {
				depth--
				if depth == 0 {
					break
				}
			} else if t.kind == tokEOF {
				break
			}
		}
	}
	span := p.spanFrom(start)
	reason := fmt.Sprintf("不支持的语句 '%s'", start.text)
	p.unsupported(span, "%s", reason)
	for (p.peek().kind == tokName) && (p.peek().text == "except" || p.peek().text == "finally" || p.peek().text == "else") {
		// trailing clauses of the skipped statement
		if _, err := p.skipCompound(p.peek()); err != nil {
			return nil, err
		}
		p.diags = p.diags[:len(p.diags)-1]
	}
	return &BadStmt{Span: span, Reason: reason}, nil
}

func (p *parser) parseDecorated() (Stmt, error) {
	start := p.peek()
	var decorators []Expr
	for p.acceptOp("@") {
		d, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
		if p.peek().kind != tokNewline {
			return nil, p.errorf(p.peek(), "expected newline after decorator")
		}
		p.next()
	}
	switch {
	case p.isKeyword("def"):
		return p.parseFuncDef(decorators, start)
	case p.isKeyword("class"):
		return p.parseClassDef(decorators, start)
	}
	return nil, p.errorf(p.peek(), "expected def or class after decorator")
}

func (p *parser) parseFuncDef(decorators []Expr, start token) (Stmt, error) {
	p.next() // def
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	fn := &FuncDef{Name: name.text, Decorators: decorators}
	for !p.isOp(")") {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		if param != nil {
			fn.Params = append(fn.Params, *param)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.acceptOp("->") {
		if fn.Returns, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseSuite()
	fn.Doc, fn.Body = splitDocstring(body)
	fn.Span = p.spanFrom(start)
	return fn, err
}

func (p *parser) parseParam() (*Param, error) {
	start := p.peek()
	kind := ParamPlain
	switch {
	case p.acceptOp("**"):
		kind = ParamStarStar
	case p.acceptOp("*"):
		kind = ParamStar
		if p.isOp(",") || p.isOp(")") {
			// bare "*" separator before keyword-only parameters
			return nil, nil
		}
	case p.acceptOp("/"):
		return nil, nil
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	param := &Param{Name: name.text, Kind: kind}
	if p.acceptOp(":") {
		if param.Annotation, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.acceptOp("=") {
		if param.Default, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	param.Span = p.spanFrom(start)
	return param, nil
}

func (p *parser) parseClassDef(decorators []Expr, start token) (Stmt, error) {
	p.next() // class
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	cls := &ClassDef{Name: name.text, Decorators: decorators}
	if p.acceptOp("(") {
		args, kws, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		cls.Bases, cls.Keywords = args, kws
	}
	body, err := p.parseSuite()
	cls.Doc, cls.Body = splitDocstring(body)
	cls.Span = p.spanFrom(start)
	return cls, err
}

func (p *parser) parseIf() (Stmt, error) {
	start := p.next() // if / elif
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	node := &If{Cond: cond, Body: body}
	if err != nil {
		node.Span = p.spanFrom(start)
		return node, err
	}
	p.skipNewlines()
	switch {
	case p.isKeyword("elif"):
		elif, err := p.parseIf()
		if elif != nil {
			node.Else = []Stmt{elif}
		}
		node.Span = p.spanFrom(start)
		return node, err
	case p.isKeyword("else"):
		p.next()
		node.Else, err = p.parseSuite()
	}
	node.Span = p.spanFrom(start)
	return node, err
}

// skipNewlines consumes stray NEWLINE tokens before an else/elif clause.
func (p *parser) skipNewlines() {
	for p.peek().kind == tokNewline {
		p.next()
	}
}

func (p *parser) parseFor() (Stmt, error) {
	start := p.next() // for
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if !p.acceptKeyword("in") {
		return nil, p.errorf(p.peek(), "expected 'in', found %s", describe(p.peek()))
	}
	iter, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	node := &For{Target: target, Iter: iter, Body: body}
	if err == nil && p.isKeyword("else") {
		p.next()
		node.Else, err = p.parseSuite()
	}
	node.Span = p.spanFrom(start)
	return node, err
}

func (p *parser) parseWhile() (Stmt, error) {
	start := p.next() // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	node := &While{Cond: cond, Body: body}
	if err == nil && p.isKeyword("else") {
		p.next()
		node.Else, err = p.parseSuite()
	}
	node.Span = p.spanFrom(start)
	return node, err
}

func (p *parser) parseMatch() (Stmt, error) {
	start := p.next() // match
	subject, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.peek().kind != tokNewline {
		return nil, p.errorf(p.peek(), "expected newline after match subject")
	}
	p.next()
	if p.peek().kind != tokIndent {
		return nil, p.errorf(p.peek(), "expected an indented block")
	}
	p.next()
	node := &Match{Subject: subject}
	for p.peek().kind != tokDedent && p.peek().kind != tokEOF {
		if p.peek().kind == tokNewline {
			p.next()
			continue
		}
		caseTok := p.peek()
		if !p.acceptKeyword("case") {
			return node, p.errorf(caseTok, "expected 'case', found %s", describe(caseTok))
		}
		mc := MatchCase{}
		for {
			pat, err := p.parsePattern()
			if err != nil {
				return node, err
			}
			if pat != nil {
				mc.Patterns = append(mc.Patterns, pat)
			}
			if !p.acceptOp("|") {
				break
			}
		}
		if p.isKeyword("if") {
			gt := p.peek()
			p.next()
			if _, err := p.parseExpr(); err != nil {
				return node, err
			}
			p.unsupported(p.spanFrom(gt), "不支持带守卫条件的 case 分支")
		}
		body, err := p.parseSuite()
		mc.Body = body
		mc.Span = p.spanFrom(caseTok)
		node.Cases = append(node.Cases, mc)
		if err != nil {
			return node, err
		}
	}
	if p.peek().kind == tokDedent {
		p.next()
	}
	node.Span = p.spanFrom(start)
	return node, nil
}

// parsePattern parses one literal or dotted-name pattern; "_" returns nil.
func (p *parser) parsePattern() (Expr, error) {
	if p.isKeyword("_") {
		p.next()
		return nil, nil
	}
	start := p.peek()
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	switch e.(type) {
	case *Str, *Num, *Const, *Name, *Attribute, *UnaryOp:
		return e, nil
	}
	span := p.spanFrom(start)
	p.unsupported(span, "不支持的 case 模式")
	return &BadExpr{Span: span, Reason: "case pattern"}, nil
}

// parseSimpleLine parses ";"-separated simple statements up to NEWLINE.
func (p *parser) parseSimpleLine() ([]Stmt, error) {
	var out []Stmt
	for {
		s, err := p.parseSimpleStatement()
		if s != nil {
			out = append(out, s)
		}
		if err != nil {
			return out, err
		}
		if !p.acceptOp(";") {
			break
		}
		if p.peek().kind == tokNewline {
			break
		}
	}
	t := p.peek()
	if t.kind != tokNewline && t.kind != tokEOF {
		return out, p.errorf(t, "unexpected %s", describe(t))
	}
	if t.kind == tokNewline {
		p.next()
	}
	return out, nil
}

func (p *parser) parseSimpleStatement() (Stmt, error) {
	start := p.peek()
	if start.kind == tokName {
		switch start.text {
		case "pass":
			p.next()
			return &Pass{Span: p.spanFrom(start)}, nil
		case "break":
			p.next()
			return &Break{Span: p.spanFrom(start)}, nil
		case "continue":
			p.next()
			return &Continue{Span: p.spanFrom(start)}, nil
		case "return":
			p.next()
			ret := &Return{}
			if !p.atStatementEnd() {
				v, err := p.parseExprList()
				if err != nil {
					return nil, err
				}
				ret.Value = v
			}
			ret.Span = p.spanFrom(start)
			return ret, nil
		case "raise":
			p.next()
			r := &Raise{}
			if !p.atStatementEnd() {
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				r.Exc = v
				if p.acceptKeyword("from") {
					if _, err := p.parseExpr(); err != nil {
						return nil, err
					}
				}
			}
			r.Span = p.spanFrom(start)
			return r, nil
		case "import", "from":
			return p.parseImport()
		case "global", "nonlocal", "del", "assert", "yield", "await", "print":
			if start.text != "print" || p.peekAt(1).kind != tokOp || p.peekAt(1).text != "(" {
				for !p.atStatementEnd() {
					p.next()
				}
				span := p.spanFrom(start)
				reason := fmt.Sprintf("不支持的语句 '%s'", start.text)
				p.unsupported(span, "%s", reason)
				return &BadStmt{Span: span, Reason: reason}, nil
			}
		}
	}

	first, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	switch {
	case p.isOp("="):
		targets := []Expr{first}
		var value Expr
		for p.acceptOp("=") {
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			targets = append(targets, v)
		}
		value = targets[len(targets)-1]
		targets = targets[:len(targets)-1]
		return &Assign{Span: p.spanFrom(start), Targets: targets, Value: value}, nil
	case p.isOp(":"):
		p.next()
		ann, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node := &AnnAssign{Target: first, Annotation: ann}
		if p.acceptOp("=") {
			if node.Value, err = p.parseExprList(); err != nil {
				return nil, err
			}
		}
		node.Span = p.spanFrom(start)
		return node, nil
	case p.peek().kind == tokOp && isAugOp(p.peek().text):
		op := p.next().text
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &AugAssign{Span: p.spanFrom(start), Target: first, Op: op, Value: v}, nil
	}
	return &ExprStmt{Span: p.spanFrom(start), X: first}, nil
}

func (p *parser) atStatementEnd() bool {
	t := p.peek()
	return t.kind == tokNewline || t.kind == tokEOF || (t.kind == tokOp && t.text == ";")
}

func isAugOp(op string) bool {
	switch op {
	case "+=", "-=", "*=", "/=", "//=", "%=", "**=", "&=", "|=", "^=", ">>=", "<<=":
		return true
	}
	return false
}

func (p *parser) parseImport() (Stmt, error) {
	start := p.next()
	imp := &Import{}
	if start.text == "from" {
		var b strings.Builder
		for p.isOp(".") || p.isOp("...") {
			b.WriteString(p.next().text)
		}
		if p.peek().kind == tokName && p.peek().text != "import" {
			mod, err := p.parseDottedName()
			if err != nil {
				return nil, err
			}
			b.WriteString(mod)
		}
		imp.From = b.String()
		if !p.acceptKeyword("import") {
			return nil, p.errorf(p.peek(), "expected 'import', found %s", describe(p.peek()))
		}
		paren := p.acceptOp("(")
		if p.acceptOp("*") {
			imp.Names = append(imp.Names, ImportName{Name: "*"})
		} else {
			for {
				if paren && p.isOp(")") {
					break
				}
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				in := ImportName{Name: name.text}
				if p.acceptKeyword("as") {
					alias, err := p.expectName()
					if err != nil {
						return nil, err
					}
					in.Alias = alias.text
				}
				imp.Names = append(imp.Names, in)
				if !p.acceptOp(",") {
					break
				}
			}
		}
		if paren {
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
		}
	} else {
		for {
			name, err := p.parseDottedName()
			if err != nil {
				return nil, err
			}
			in := ImportName{Name: name}
			if p.acceptKeyword("as") {
				alias, err := p.expectName()
				if err != nil {
					return nil, err
				}
				in.Alias = alias.text
			}
			imp.Names = append(imp.Names, in)
			if !p.acceptOp(",") {
				break
			}
		}
	}
	imp.Span = p.spanFrom(start)
	return imp, nil
}

func (p *parser) parseDottedName() (string, error) {
	first, err := p.expectName()
	if err != nil {
		return "", err
	}
	parts := []string{first.text}
	for p.isOp(".") {
		p.next()
		n, err := p.expectName()
		if err != nil {
			return "", err
		}
		parts = append(parts, n.text)
	}
	return strings.Join(parts, "."), nil
}

// ─── Expressions ─────────────────────────────────────────────────────────────

// parseTargetList parses a for-loop target, stopping before "in".
func (p *parser) parseTargetList() (Expr, error) {
	start := p.peek()
	first, err := p.parseOr(true)
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isKeyword("in") {
			break
		}
		e, err := p.parseOr(true)
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &Tuple{Span: p.spanFrom(start), Elts: elts}, nil
}

// parseExprList parses "a" or a bare tuple "a, b".
func (p *parser) parseExprList() (Expr, error) {
	start := p.peek()
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.exprListEnds() {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &Tuple{Span: p.spanFrom(start), Elts: elts}, nil
}

func (p *parser) exprListEnds() bool {
	t := p.peek()
	if t.kind == tokNewline || t.kind == tokEOF {
		return true
	}
	return t.kind == tokOp && (t.text == "=" || t.text == ")" || t.text == ":" || t.text == ";" || t.text == "]")
}

func (p *parser) parseExpr() (Expr, error) {
	start := p.peek()
	if p.isKeyword("lambda") {
		return p.skipExpr(start, "lambda 表达式")
	}
	e, err := p.parseOr(false)
	if err != nil {
		return nil, err
	}
	if p.isKeyword("if") {
		// conditional expression "a if c else b"
		p.next()
		if _, err := p.parseOr(false); err != nil {
			return nil, err
		}
		if !p.acceptKeyword("else") {
			return nil, p.errorf(p.peek(), "expected 'else' in conditional expression")
		}
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
		span := p.spanFrom(start)
		p.unsupported(span, "不支持条件表达式")
		return &BadExpr{Span: span, Reason: "conditional expression"}, nil
	}
	if p.isOp(":=") {
		p.next()
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
		span := p.spanFrom(start)
		p.unsupported(span, "不支持赋值表达式 ':='")
		return &BadExpr{Span: span, Reason: "assignment expression"}, nil
	}
	return e, nil
}

// skipExpr consumes tokens up to the end of the enclosing expression.
func (p *parser) skipExpr(start token, what string) (Expr, error) {
	depth := 0
	for {
		t := p.peek()
		if t.kind == tokEOF || t.kind == tokNewline {
			break
		}
		if t.kind == tokOp {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					goto done
				}
				depth--
			case ",":
				if depth == 0 {
					goto done
				}
			}
		}
		p.next()
	}
done:
	span := p.spanFrom(start)
	p.unsupported(span, "不支持%s", what)
	return &BadExpr{Span: span, Reason: what}, nil
}

func (p *parser) parseOr(noIn bool) (Expr, error) {
	start := p.peek()
	x, err := p.parseAnd(noIn)
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("or") {
		return x, nil
	}
	values := []Expr{x}
	for p.acceptKeyword("or") {
		y, err := p.parseAnd(noIn)
		if err != nil {
			return nil, err
		}
		values = append(values, y)
	}
	return &BoolOp{Span: p.spanFrom(start), Op: "or", Values: values}, nil
}

func (p *parser) parseAnd(noIn bool) (Expr, error) {
	start := p.peek()
	x, err := p.parseNot(noIn)
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("and") {
		return x, nil
	}
	values := []Expr{x}
	for p.acceptKeyword("and") {
		y, err := p.parseNot(noIn)
		if err != nil {
			return nil, err
		}
		values = append(values, y)
	}
	return &BoolOp{Span: p.spanFrom(start), Op: "and", Values: values}, nil
}

func (p *parser) parseNot(noIn bool) (Expr, error) {
	start := p.peek()
	if p.acceptKeyword("not") {
		x, err := p.parseNot(noIn)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Span: p.spanFrom(start), Op: "not", X: x}, nil
	}
	return p.parseComparison(noIn)
}

func (p *parser) parseComparison(noIn bool) (Expr, error) {
	start := p.peek()
	x, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var ops []string
	var comps []Expr
	for {
		op, ok := p.compareOp(noIn)
		if !ok {
			break
		}
		y, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comps = append(comps, y)
	}
	if len(ops) == 0 {
		return x, nil
	}
	return &Compare{Span: p.spanFrom(start), X: x, Ops: ops, Comparators: comps}, nil
}

func (p *parser) compareOp(noIn bool) (string, bool) {
	t := p.peek()
	if t.kind == tokOp {
		switch t.text {
		case "<", ">", "==", ">=", "<=", "!=":
			p.next()
			return t.text, true
		}
		return "", false
	}
	if t.kind != tokName {
		return "", false
	}
	switch t.text {
	case "in":
		if noIn {
			return "", false
		}
		p.next()
		return "in", true
	case "is":
		p.next()
		if p.acceptKeyword("not") {
			return "is not", true
		}
		return "is", true
	case "not":
		if n := p.peekAt(1); n.kind == tokName && n.text == "in" {
			p.next()
			p.next()
			return "not in", true
		}
	}
	return "", false
}

func (p *parser) parseBitOr() (Expr, error) {
	return p.parseBinary([]string{"|"}, func() (Expr, error) {
		return p.parseBinary([]string{"^"}, func() (Expr, error) {
			return p.parseBinary([]string{"&"}, func() (Expr, error) {
				return p.parseBinary([]string{"<<", ">>"}, func() (Expr, error) {
					return p.parseBinary([]string{"+", "-"}, func() (Expr, error) {
						return p.parseBinary([]string{"*", "/", "//", "%", "@"}, p.parseUnary)
					})
				})
			})
		})
	})
}

func (p *parser) parseBinary(ops []string, operand func() (Expr, error)) (Expr, error) {
	start := p.peek()
	x, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || !slices.Contains(ops, t.text) {
			return x, nil
		}
		p.next()
		y, err := operand()
		if err != nil {
			return nil, err
		}
		x = &BinOp{Span: p.spanFrom(start), X: x, Op: t.text, Y: y}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	start := p.peek()
	if start.kind == tokOp && (start.text == "+" || start.text == "-" || start.text == "~") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Span: p.spanFrom(start), Op: start.text, X: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	start := p.peek()
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.acceptOp("**") {
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinOp{Span: p.spanFrom(start), X: x, Op: "**", Y: y}, nil
	}
	return x, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	start := p.peek()
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("("):
			p.next()
			args, kws, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			x = &Call{Span: p.spanFrom(start), Func: x, Args: args, Keywords: kws}
		case p.isOp("."):
			p.next()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			x = &Attribute{Span: p.spanFrom(start), X: x, Attr: name.text}
		case p.isOp("["):
			p.next()
			idx, err := p.parseSliceOrIndex()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = &Subscript{Span: p.spanFrom(start), X: x, Index: idx}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseSliceOrIndex() (Expr, error) {
	start := p.peek()
	if p.isOp(":") {
		return p.skipExpr(start, "切片")
	}
	idx, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if p.isOp(":") {
		return p.skipExpr(start, "切片")
	}
	return idx, nil
}

// parseArgs parses call arguments after "(" through the closing ")".
func (p *parser) parseArgs() ([]Expr, []Keyword, error) {
	var args []Expr
	var kws []Keyword
	for !p.isOp(")") {
		start := p.peek()
		if p.isOp("*") || p.isOp("**") {
			p.next()
			if _, err := p.parseExpr(); err != nil {
				return nil, nil, err
			}
			span := p.spanFrom(start)
			p.unsupported(span, "不支持解包参数")
			args = append(args, &BadExpr{Span: span, Reason: "argument unpacking"})
		} else if start.kind == tokName && !keywords[start.text] && p.peekAt(1).kind == tokOp && p.peekAt(1).text == "=" {
			p.next()
			p.next()
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, Keyword{Span: p.spanFrom(start), Name: start.text, Value: v})
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			if p.isKeyword("for") {
				if _, err := p.skipExpr(start, "生成器表达式"); err != nil {
					return nil, nil, err
				}
				e = &BadExpr{Span: p.spanFrom(start), Reason: "generator expression"}
			}
			args = append(args, e)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, nil, err
	}
	return args, kws, nil
}

func (p *parser) parseAtom() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokName:
		switch t.text {
		case "True", "False", "None":
			p.next()
			return &Const{Span: p.spanFrom(t), Value: t.text}, nil
		case "lambda":
			return p.skipExpr(t, "lambda 表达式")
		}
		if keywords[t.text] {
			return nil, p.errorf(t, "unexpected keyword %q", t.text)
		}
		p.next()
		return &Name{Span: p.spanFrom(t), ID: t.text}, nil
	case tokNumber:
		p.next()
		return &Num{Span: p.spanFrom(t), Raw: t.text}, nil
	case tokString:
		p.next()
		s := &Str{Value: t.text, Formatted: t.formatted}
		for p.peek().kind == tokString {
			nt := p.next()
			s.Value += nt.text
			s.Formatted = s.Formatted || nt.formatted
		}
		s.Span = p.spanFrom(t)
		return s, nil
	case tokOp:
		switch t.text {
		case "(":
			return p.parseParen()
		case "[":
			return p.parseListDisplay()
		case "{":
			return p.parseDictDisplay()
		case "...":
			p.next()
			span := p.spanFrom(t)
			p.unsupported(span, "不支持省略号字面量")
			return &BadExpr{Span: span, Reason: "ellipsis"}, nil
		}
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

func (p *parser) parseParen() (Expr, error) {
	start := p.next() // (
	if p.acceptOp(")") {
		return &Tuple{Span: p.spanFrom(start)}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		e, err := p.skipExpr(start, "生成器表达式")
		if err != nil {
			return nil, err
		}
		_, err = p.expectOp(")")
		return e, err
	}
	if p.acceptOp(")") {
		return first, nil
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return &Tuple{Span: p.spanFrom(start), Elts: elts}, nil
}

func (p *parser) parseListDisplay() (Expr, error) {
	start := p.next() // [
	list := &List{}
	for !p.isOp("]") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("for") {
			bad, err := p.skipExpr(start, "列表推导式")
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			return bad, nil
		}
		list.Elts = append(list.Elts, e)
		if !p.acceptOp(",") {
			break
		}
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	list.Span = p.spanFrom(start)
	return list, nil
}

func (p *parser) parseDictDisplay() (Expr, error) {
	start := p.next() // {
	d := &Dict{}
	for !p.isOp("}") {
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.isOp(":") {
			bad, err := p.skipExpr(start, "集合或推导式")
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return bad, nil
		}
		p.next()
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, v)
		if !p.acceptOp(",") {
			break
		}
	}
	if _, err := p.expectOp("}"); err != nil {
		return nil, err
	}
	d.Span = p.spanFrom(start)
	return d, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// splitDocstring removes a leading string-literal statement from body.
func splitDocstring(body []Stmt) (string, []Stmt) {
	if len(body) == 0 {
		return "", body
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return "", body
	}
	s, ok := es.X.(*Str)
	if !ok || s.Formatted {
		return "", body
	}
	return s.Value, body[1:]
}

// parseMetadata extracts "key: value" (or "key：value") lines from a docstring.
func parseMetadata(doc string) map[string]string {
	meta := map[string]string{}
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.IndexAny(line, ":：")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if strings.ContainsAny(key, " \t") {
			continue
		}
		sep := ":"
		if strings.HasPrefix(line[idx:], "：") {
			sep = "："
		}
		meta[key] = strings.TrimSpace(line[idx+len(sep):])
	}
	return meta
}
