package extractor

import (
	"regexp"
	"sort"
	"strings"

	"modbridge/internal/ir"
)

// tokenPattern matches, in order of preference: string and char literals
// (unterminated ones run to end of line), line comments, numeric literals,
// words and single-character symbols. Anything else on a line is dropped.
var tokenPattern = regexp.MustCompile(`"(?:[^"\\]|\\.)*"?|'(?:[^'\\]|\\.)*'?|//.*|\d\w*(?:\.\d\w*)?|\w+|[{}();,.\[\]<>=!&|+\-*/%^~?:@]`)

var (
	numberPattern     = regexp.MustCompile(`^(?:0[xX][0-9a-fA-F_]+[lL]?|\d[\d_]*(?:\.\d[\d_]*)?(?:[eE][+-]?\d+)?[fFdDlL]?)$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
)

var javaKeywords = toSet(
	"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char", "class", "const",
	"continue", "default", "do", "double", "else", "enum", "extends", "final", "finally", "float",
	"for", "goto", "if", "implements", "import", "instanceof", "int", "interface", "long", "native",
	"new", "package", "private", "protected", "public", "return", "short", "static", "strictfp",
	"super", "switch", "synchronized", "this", "throw", "throws", "transient", "try", "void",
	"volatile", "while", "true", "false", "null",
)

var (
	operatorSet    = toSet("=", "+", "-", "*", "/", "!", "&", "|", "<", ">", "%", "^", "~", "?", ":")
	punctuationSet = toSet("{", "}", "(", ")", ";", ",", ".", "[", "]", "@")
)

// Tokenize lexes Java source into a token sequence ordered by byte offset.
// It never fails: unrecognised text is either dropped or tagged unknown.
func Tokenize(source string) []ir.Token {
	cleaned, comments := extractBlockComments(source)
	idx := newLineIndex(source)

	tokens := make([]ir.Token, 0, len(source)/4)
	offset := 0
	for lineNo, line := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(line) != "" {
			for _, loc := range tokenPattern.FindAllStringIndex(line, -1) {
				text := line[loc[0]:loc[1]]
				tokens = append(tokens, ir.Token{
					Kind: classify(text),
					Text: text,
					Pos:  ir.Position{Line: lineNo + 1, Column: loc[0] + 1, Offset: offset + loc[0]},
				})
			}
		}
		offset += len(line) + 1
	}

	for _, c := range comments {
		c.Pos = idx.position(c.Pos.Offset)
		tokens = append(tokens, c)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Pos.Offset < tokens[j].Pos.Offset
	})
	return tokens
}

// classify decides a token kind. The order of checks matters: keywords win
// over identifiers and comments over operators.
func classify(text string) ir.TokenKind {
	switch {
	case javaKeywords[text]:
		return ir.TokenKeyword
	case strings.HasPrefix(text, "//") || strings.HasPrefix(text, "/*"):
		return ir.TokenComment
	case strings.HasPrefix(text, `"`) || strings.HasPrefix(text, "'"):
		return ir.TokenStringLiteral
	case operatorSet[text]:
		return ir.TokenOperator
	case punctuationSet[text]:
		return ir.TokenPunctuation
	case numberPattern.MatchString(text):
		return ir.TokenNumber
	case identifierPattern.MatchString(text):
		return ir.TokenIdentifier
	default:
		return ir.TokenUnknown
	}
}

// extractBlockComments pulls /* ... */ comments out of source. Block comments
// do not nest. Each comment is replaced by spaces of the same length, keeping
// its newlines, so every remaining byte keeps its line, column and offset.
// Returned comment tokens only carry Offset; Tokenize fills the rest.
func extractBlockComments(source string) (string, []ir.Token) {
	if !strings.Contains(source, "/*") {
		return source, nil
	}

	buf := []byte(source)
	var comments []ir.Token
	inString := byte(0)
	for i := 0; i < len(buf); i++ {
		ch := buf[i]
		if inString != 0 {
			switch ch {
			case '\\':
				i++
			case inString, '\n':
				inString = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			inString = ch
		case ch == '/' && i+1 < len(buf) && buf[i+1] == '/':
			for i < len(buf) && buf[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < len(buf) && buf[i+1] == '*':
			end := strings.Index(source[i+2:], "*/")
			stop := len(buf)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			comments = append(comments, ir.Token{
				Kind: ir.TokenComment,
				Text: source[i:stop],
				Pos:  ir.Position{Offset: i},
			})
			for j := i; j < stop; j++ {
				if buf[j] != '\n' {
					buf[j] = ' '
				}
			}
			i = stop - 1
		}
	}
	return string(buf), comments
}

type lineIndex []int

func newLineIndex(source string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (l lineIndex) position(offset int) ir.Position {
	line := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return ir.Position{Line: line + 1, Column: offset - l[line] + 1, Offset: offset}
}

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
