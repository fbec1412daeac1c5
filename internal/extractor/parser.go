package extractor

import (
	"strings"

	"modbridge/internal/ir"
)

// maxBlockDepth bounds recursive descent. Deeper blocks are skipped as a
// single GenericStatement.
const maxBlockDepth = 128

var (
	classKeywords = toSet("class", "interface", "enum")

	// declarationKeywords start the modifier/declaration path. Access
	// modifiers, other modifiers and primitive types all lead there.
	declarationKeywords = toSet(
		"public", "private", "protected", "static", "final", "abstract", "synchronized",
		"native", "transient", "volatile", "strictfp",
		"void", "boolean", "byte", "char", "short", "int", "long", "float", "double",
	)

	modifierKeywords = toSet(
		"public", "private", "protected", "static", "final", "abstract", "synchronized",
		"native", "transient", "volatile", "strictfp", "default",
	)

	primitiveKeywords = toSet("void", "boolean", "byte", "char", "short", "int", "long", "float", "double")
)

// parser is a cursor over one token slice. Each BuildTree call owns its own
// parser, so concurrent parses never share state.
type parser struct {
	toks  []ir.Token
	pos   int
	depth int
}

// BuildTree turns a token sequence into a forest of syntax nodes. It always
// terminates: every loop iteration consumes at least one token.
func BuildTree(tokens []ir.Token) []*ir.SyntaxNode {
	p := &parser{toks: tokens}
	var nodes []*ir.SyntaxNode
	for !p.eof() {
		start := p.pos
		if n := p.parseStatement(); n != nil {
			nodes = append(nodes, n)
		}
		if p.pos == start {
			p.pos++
		}
	}
	annotate(nodes)
	return nodes
}

func (p *parser) parseStatement() *ir.SyntaxNode {
	tok := p.peek(0)
	if tok == nil {
		return nil
	}

	switch tok.Kind {
	case ir.TokenComment:
		p.pos++
		return newNode(ir.KindComment, tok.Text, tok.Pos)

	case ir.TokenIdentifier:
		return p.parseIdentifierStatement()

	case ir.TokenPunctuation:
		switch tok.Text {
		case "@":
			return p.parseDeclaration()
		case "{":
			n := newNode(ir.KindGenericStatement, "block", tok.Pos)
			n.Children = p.parseBlock()
			return n
		case ";", "}":
			p.pos++
			return nil
		}

	case ir.TokenKeyword:
		switch tok.Text {
		case "class", "interface", "enum":
			return p.parseClass(nil, tok.Pos)
		case "if":
			return p.parseIf()
		case "for":
			return p.parseControl(ir.KindForLoop)
		case "while":
			return p.parseControl(ir.KindWhileLoop)
		case "switch":
			return p.parseControl(ir.KindSwitchStatement)
		case "do":
			return p.parseDo()
		case "try":
			return p.parseTry()
		case "return", "throw":
			return p.parseReturn()
		case "this", "super":
			return p.parseIdentifierStatement()
		case "package", "import":
			p.skipStatement()
			return nil
		case "case", "default":
			p.skipLabel()
			return nil
		}
		if declarationKeywords[tok.Text] {
			return p.parseDeclaration()
		}
	}
	return p.parseGeneric()
}

// parseDeclaration collects contiguous annotations and modifiers, then routes
// to class, method or field parsing by lookahead.
func (p *parser) parseDeclaration() *ir.SyntaxNode {
	start := p.peek(0).Pos
	var mods []string
	for !p.eof() {
		t := p.peek(0)
		if t.Kind == ir.TokenPunctuation && t.Text == "@" {
			mods = append(mods, p.consumeAnnotation())
			continue
		}
		if t.Kind == ir.TokenKeyword && modifierKeywords[t.Text] {
			mods = append(mods, t.Text)
			p.pos++
			continue
		}
		break
	}

	t := p.peek(0)
	switch {
	case t == nil:
		return nil
	case t.Kind == ir.TokenKeyword && classKeywords[t.Text]:
		return p.parseClass(mods, start)
	case p.isPunct(0, "{"):
		n := newNode(ir.KindGenericStatement, "initializer", start)
		n.Children = p.parseBlock()
		return n
	case p.looksLikeMethod():
		return p.parseMethod(mods, start)
	default:
		return p.parseField(mods, start)
	}
}

func (p *parser) parseClass(mods []string, start ir.Position) *ir.SyntaxNode {
	kw := p.next()
	n := newNode(ir.KindClassDeclaration, "", start)
	n.Meta.JavaCategory = kw.Text

	for !p.eof() && p.peek(0).Kind != ir.TokenIdentifier && !p.isPunct(0, "{") {
		p.pos++
	}
	if t := p.peek(0); t != nil && t.Kind == ir.TokenIdentifier {
		n.Label = t.Text
		p.pos++
	}

	details := ir.ClassDetails{Modifiers: mods}
	for !p.eof() && !p.isPunct(0, "{") && !p.isPunct(0, ";") && !p.isPunct(0, "}") {
		if p.isKeyword(0, "extends") {
			if t := p.peek(1); t != nil && t.Kind == ir.TokenIdentifier {
				details.Extends = t.Text
			}
		}
		p.pos++
	}
	n.Meta.Details = details
	n.Children = p.parseBlock()
	return n
}

// looksLikeMethod reports whether the tokens at the cursor read as
// `[<T>] Type[.Qualified][<..>][[]] name (` or a constructor `Name (`.
func (p *parser) looksLikeMethod() bool {
	i := p.pos
	if t := p.at(i); t != nil && t.Kind == ir.TokenIdentifier && p.isPunctAt(i+1, "(") {
		return true
	}
	if p.isOpAt(i, "<") {
		i = p.skipAngles(i)
	}
	t := p.at(i)
	if t == nil || !(t.Kind == ir.TokenIdentifier || (t.Kind == ir.TokenKeyword && primitiveKeywords[t.Text])) {
		return false
	}
	i++
	for p.isPunctAt(i, ".") && p.at(i+1) != nil && p.at(i+1).Kind == ir.TokenIdentifier {
		i += 2
	}
	if p.isOpAt(i, "<") {
		i = p.skipAngles(i)
	}
	for p.isPunctAt(i, "[") && p.isPunctAt(i+1, "]") {
		i += 2
	}
	name := p.at(i)
	return name != nil && name.Kind == ir.TokenIdentifier && p.isPunctAt(i+1, "(")
}

func (p *parser) parseMethod(mods []string, start ir.Position) *ir.SyntaxNode {
	var typeParts []string
	for !p.eof() && !(p.peek(0).Kind == ir.TokenIdentifier && p.isPunct(1, "(")) {
		typeParts = append(typeParts, p.next().Text)
	}
	return p.finishMethod(strings.Join(typeParts, ""), mods, start)
}

// finishMethod parses `name(params) [throws ...] {body}|;` with the cursor on name.
func (p *parser) finishMethod(returnType string, mods []string, start ir.Position) *ir.SyntaxNode {
	name := p.next()
	n := newNode(ir.KindMethodDeclaration, "", start)
	if name != nil {
		n.Label = name.Text
	}
	details := ir.MethodDetails{
		ReturnType:     returnType,
		ParameterNames: p.parseParameterNames(),
		Modifiers:      mods,
	}
	for !p.eof() && !p.isPunct(0, "{") && !p.isPunct(0, ";") && !p.isPunct(0, "}") {
		p.pos++
	}
	if p.isPunct(0, ";") {
		p.pos++
		details.Abstract = true
	} else if p.isPunct(0, "{") {
		n.Children = p.parseBlock()
	}
	n.Meta.Details = details
	return n
}

// parseParameterNames consumes a balanced parameter list and returns the
// identifiers that directly precede a top-level `,` or the closing `)`.
func (p *parser) parseParameterNames() []string {
	if !p.isPunct(0, "(") {
		return nil
	}
	var names []string
	depth, angles := 0, 0
	for !p.eof() {
		t := p.next()
		switch {
		case t.Text == "(":
			depth++
		case t.Text == ")":
			if depth == 1 && angles == 0 {
				names = p.appendParamName(names)
			}
			depth--
			if depth == 0 {
				return names
			}
		case t.Text == "<" && depth == 1:
			angles++
		case t.Text == ">" && depth == 1 && angles > 0:
			angles--
		case t.Text == "," && depth == 1 && angles == 0:
			names = p.appendParamName(names)
		}
	}
	return names
}

func (p *parser) appendParamName(names []string) []string {
	prev := p.at(p.pos - 2)
	if prev != nil && prev.Kind == ir.TokenIdentifier {
		return append(names, prev.Text)
	}
	return names
}

func (p *parser) parseField(mods []string, start ir.Position) *ir.SyntaxNode {
	n := newNode(ir.KindFieldDeclaration, "", start)
	from := p.pos
	stop := p.scanStatementEnd()

	// The declared name is the identifier right before the first top-level
	// `=`, `,` or `;`.
	nameAt := -1
	parens, braces := 0, 0
	for i := from; i < stop; i++ {
		t := p.toks[i]
		switch t.Text {
		case "(":
			parens++
		case ")":
			parens--
		case "{":
			braces++
		case "}":
			braces--
		}
		if parens == 0 && braces == 0 && (t.Text == "=" || t.Text == "," || t.Text == ";") {
			nameAt = i - 1
			break
		}
	}
	if nameAt < 0 {
		nameAt = stop - 1
	}
	details := ir.FieldDetails{Modifiers: mods}
	if nameAt >= from && p.toks[nameAt].Kind == ir.TokenIdentifier {
		n.Label = p.toks[nameAt].Text
		details.Type = joinTokens(p.toks[from:nameAt], "")
	} else {
		n.Label = joinTokens(p.toks[from:stop], " ")
	}
	n.Meta.Details = details
	p.pos = stop
	p.consumePunct(";")
	return n
}

func (p *parser) parseIf() *ir.SyntaxNode {
	kw := p.next()
	n := newNode(ir.KindIfStatement, kw.Text, kw.Pos)
	p.skipCondition()
	n.Children = p.parseBody()
	if p.isKeyword(0, "else") {
		p.pos++
		if p.isKeyword(0, "if") {
			n.Children = append(n.Children, p.parseIf())
		} else {
			n.Children = append(n.Children, p.parseBody()...)
		}
	}
	return n
}

func (p *parser) parseControl(kind ir.NodeKind) *ir.SyntaxNode {
	kw := p.next()
	n := newNode(kind, kw.Text, kw.Pos)
	p.skipCondition()
	n.Children = p.parseBody()
	return n
}

func (p *parser) parseDo() *ir.SyntaxNode {
	kw := p.next()
	n := newNode(ir.KindWhileLoop, kw.Text, kw.Pos)
	n.Children = p.parseBody()
	if p.isKeyword(0, "while") {
		p.pos++
		p.skipCondition()
		p.consumePunct(";")
	}
	return n
}

func (p *parser) parseTry() *ir.SyntaxNode {
	kw := p.next()
	n := newNode(ir.KindTryStatement, kw.Text, kw.Pos)
	p.skipCondition()
	n.Children = p.parseBody()
	for p.isKeyword(0, "catch") {
		p.pos++
		p.skipCondition()
		n.Children = append(n.Children, p.parseBody()...)
	}
	if p.isKeyword(0, "finally") {
		p.pos++
		n.Children = append(n.Children, p.parseBody()...)
	}
	return n
}

func (p *parser) parseReturn() *ir.SyntaxNode {
	kw := p.next()
	n := newNode(ir.KindReturnStatement, kw.Text, kw.Pos)
	if t := p.peek(0); t != nil && (t.Kind == ir.TokenIdentifier || p.isKeyword(0, "this") || p.isKeyword(0, "super")) {
		if child := p.parseIdentifierStatement(); child != nil {
			n.Children = append(n.Children, child)
		}
		return n
	}
	p.skipStatement()
	return n
}

// parseIdentifierStatement handles a `.`-joined identifier chain: a method
// call when followed by `(`, a package-private method declaration when
// followed by `name (`, otherwise an assignment.
func (p *parser) parseIdentifierStatement() *ir.SyntaxNode {
	first := p.next()
	parts := []string{first.Text}
	for p.isPunct(0, ".") {
		t := p.peek(1)
		if t == nil || !(t.Kind == ir.TokenIdentifier || t.Text == "this" || t.Text == "super") {
			break
		}
		parts = append(parts, t.Text)
		p.pos += 2
	}
	name := strings.Join(parts, ".")

	if p.isPunct(0, "(") {
		n := newNode(ir.KindMethodCall, name, first.Pos)
		call := ir.CallDetails{Method: parts[len(parts)-1]}
		if len(parts) > 1 {
			call.Receiver = strings.Join(parts[:len(parts)-1], ".")
		}
		n.Meta.Details = call
		p.skipBalanced("(", ")")
		p.skipStatement()
		return n
	}

	if t := p.peek(0); t != nil && t.Kind == ir.TokenIdentifier && p.isPunct(1, "(") {
		return p.finishMethod(name, nil, first.Pos)
	}

	label := name
	if t := p.peek(0); t != nil && t.Kind == ir.TokenIdentifier {
		label = t.Text
	}
	n := newNode(ir.KindAssignment, label, first.Pos)
	p.skipStatement()
	return n
}

func (p *parser) parseGeneric() *ir.SyntaxNode {
	first := p.peek(0)
	from := p.pos
	p.skipStatement()
	if p.pos == from {
		p.pos++
	}
	end := p.pos
	if end-from > 8 {
		end = from + 8
	}
	return newNode(ir.KindGenericStatement, joinTokens(p.toks[from:end], " "), first.Pos)
}

// parseBody parses a braced block, or a single statement when the body has
// no braces.
func (p *parser) parseBody() []*ir.SyntaxNode {
	switch {
	case p.eof():
		return nil
	case p.isPunct(0, "{"):
		return p.parseBlock()
	case p.isPunct(0, ";"):
		p.pos++
		return nil
	}
	if p.depth >= maxBlockDepth {
		return []*ir.SyntaxNode{p.parseGeneric()}
	}
	p.depth++
	defer func() { p.depth-- }()
	start := p.pos
	n := p.parseStatement()
	if p.pos == start {
		p.pos++
	}
	if n == nil {
		return nil
	}
	return []*ir.SyntaxNode{n}
}

// parseBlock locates the next `{` and parses statements until the matching
// `}` or end of input. A dangling `{` yields whatever was parsed so far.
func (p *parser) parseBlock() []*ir.SyntaxNode {
	for !p.eof() && !p.isPunct(0, "{") {
		if p.isPunct(0, ";") {
			p.pos++
			return nil
		}
		if p.isPunct(0, "}") {
			return nil
		}
		p.pos++
	}
	if p.eof() {
		return nil
	}

	open := p.next()
	if p.depth >= maxBlockDepth {
		p.pos--
		p.skipBalanced("{", "}")
		return []*ir.SyntaxNode{newNode(ir.KindGenericStatement, "{...}", open.Pos)}
	}
	p.depth++
	defer func() { p.depth-- }()

	var children []*ir.SyntaxNode
	for !p.eof() {
		if p.isPunct(0, "}") {
			p.pos++
			return children
		}
		start := p.pos
		if n := p.parseStatement(); n != nil {
			children = append(children, n)
		}
		if p.pos == start {
			p.pos++
		}
	}
	return children
}

// consumeAnnotation reads `@Name[.Name][(...)]` and returns "@Name".
func (p *parser) consumeAnnotation() string {
	p.pos++
	var parts []string
	for t := p.peek(0); t != nil && t.Kind == ir.TokenIdentifier; t = p.peek(0) {
		parts = append(parts, t.Text)
		p.pos++
		if !p.isPunct(0, ".") {
			break
		}
		p.pos++
	}
	if p.isPunct(0, "(") {
		p.skipBalanced("(", ")")
	}
	return "@" + strings.Join(parts, ".")
}

func (p *parser) skipCondition() {
	if p.isPunct(0, "(") {
		p.skipBalanced("(", ")")
	}
}

// skipBalanced consumes from an opening token to its matching close, or to
// end of input.
func (p *parser) skipBalanced(open, closer string) {
	depth := 0
	for !p.eof() {
		t := p.next()
		switch t.Text {
		case open:
			depth++
		case closer:
			depth--
		}
		if depth <= 0 {
			return
		}
	}
}

// skipAngles returns the index after a balanced `<...>` starting at i.
func (p *parser) skipAngles(i int) int {
	depth := 0
	for ; i < len(p.toks); i++ {
		switch p.toks[i].Text {
		case "<":
			depth++
		case ">":
			depth--
		case ";", "{", "}", "(":
			return i
		}
		if depth == 0 {
			return i + 1
		}
	}
	return i
}

// scanStatementEnd returns the index of the `;` ending the current statement,
// or of the `}` closing the enclosing block, or len(toks).
func (p *parser) scanStatementEnd() int {
	parens, braces := 0, 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Kind != ir.TokenPunctuation {
			continue
		}
		switch t.Text {
		case "(":
			parens++
		case ")":
			if parens > 0 {
				parens--
			}
		case "{":
			braces++
		case "}":
			if braces == 0 {
				return i
			}
			braces--
		case ";":
			if parens == 0 && braces == 0 {
				return i
			}
		}
	}
	return len(p.toks)
}

// skipStatement moves past the current statement including its `;`.
func (p *parser) skipStatement() {
	p.pos = p.scanStatementEnd()
	p.consumePunct(";")
}

// skipLabel consumes a switch label up to `:` or `->`.
func (p *parser) skipLabel() {
	for !p.eof() {
		if p.isPunct(0, "{") || p.isPunct(0, "}") || p.isPunct(0, ";") {
			return
		}
		t := p.next()
		if t.Text == ":" || (t.Text == "-" && p.isOp(0, ">")) {
			if t.Text == "-" {
				p.pos++
			}
			return
		}
	}
}

func (p *parser) consumePunct(text string) {
	if p.isPunct(0, text) {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) at(i int) *ir.Token {
	if i < 0 || i >= len(p.toks) {
		return nil
	}
	return &p.toks[i]
}

func (p *parser) peek(k int) *ir.Token { return p.at(p.pos + k) }

func (p *parser) next() *ir.Token {
	t := p.at(p.pos)
	p.pos++
	return t
}

func (p *parser) isPunct(k int, text string) bool { return p.isPunctAt(p.pos+k, text) }

func (p *parser) isPunctAt(i int, text string) bool {
	t := p.at(i)
	return t != nil && t.Kind == ir.TokenPunctuation && t.Text == text
}

func (p *parser) isOp(k int, text string) bool { return p.isOpAt(p.pos+k, text) }

func (p *parser) isOpAt(i int, text string) bool {
	t := p.at(i)
	return t != nil && t.Kind == ir.TokenOperator && t.Text == text
}

func (p *parser) isKeyword(k int, text string) bool {
	t := p.peek(k)
	return t != nil && t.Kind == ir.TokenKeyword && t.Text == text
}

func newNode(kind ir.NodeKind, label string, pos ir.Position) *ir.SyntaxNode {
	return &ir.SyntaxNode{Kind: kind, Label: label, Pos: pos}
}

func joinTokens(toks []ir.Token, sep string) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, sep)
}
