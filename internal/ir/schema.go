package ir

// Position locates a token or node in the original source text.
// Line and Column are 1-based; Offset is the 0-based byte offset.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Token is a single lexeme produced by one lex pass.
type Token struct {
	Kind TokenKind `json:"kind"`
	Text string    `json:"text"`
	Pos  Position  `json:"pos"`
}

// SyntaxNode is one vertex of the approximate Java syntax tree.
// A node is appended to exactly one parent's Children, so trees are acyclic.
type SyntaxNode struct {
	Kind     NodeKind      `json:"kind"`
	Label    string        `json:"label"`
	Children []*SyntaxNode `json:"children,omitempty"`
	Pos      Position      `json:"pos"`
	Meta     NodeMetadata  `json:"metadata"`
}

// NodeMetadata carries the analysis annotations of a node.
type NodeMetadata struct {
	JavaCategory     string      `json:"java_category"`
	ComplexityWeight int         `json:"complexity_weight"`
	IsMappable       bool        `json:"is_mappable"`
	Details          NodeDetails `json:"details,omitempty"`
}

// ComplexityMetrics is derived from a node sequence and never mutated in place.
type ComplexityMetrics struct {
	CyclomaticComplexity int `json:"cyclomatic_complexity"`
	CognitiveComplexity  int `json:"cognitive_complexity"`
	LinesOfCode          int `json:"lines_of_code"`
	MaxNestingDepth      int `json:"max_nesting_depth"`
}

// Import is one import statement found by the raw-text import scan.
type Import struct {
	Package   string `json:"package"`
	ClassName string `json:"class_name"` // "*" for wildcard imports
	Static    bool   `json:"static,omitempty"`
}

// Path returns the dotted import path as written in source.
func (i Import) Path() string {
	if i.Package == "" {
		return i.ClassName
	}
	return i.Package + "." + i.ClassName
}

// Dependency is one distinct import, classified by its origin.
type Dependency struct {
	PackageName string     `json:"package_name"`
	ClassName   string     `json:"class_name"`
	Classifier  Classifier `json:"classifier"`
	Required    bool       `json:"required"`
}

// ClassInfo summarises a class-like declaration harvested from the tree.
type ClassInfo struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Extends    string   `json:"extends,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Line       int      `json:"line"`
	IsMappable bool     `json:"is_mappable"`
}

// MethodInfo summarises a method declaration harvested from the tree.
type MethodInfo struct {
	Name           string   `json:"name"`
	ReturnType     string   `json:"return_type,omitempty"`
	ParameterNames []string `json:"parameter_names,omitempty"`
	Modifiers      []string `json:"modifiers,omitempty"`
	Line           int      `json:"line"`
	IsMappable     bool     `json:"is_mappable"`
}

// FieldInfo summarises a field declaration harvested from the tree.
type FieldInfo struct {
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Line      int      `json:"line"`
}

// Metadata is the per-unit summary attached to an IR.
type Metadata struct {
	SourceLineCount int               `json:"source_line_count"`
	Complexity      ComplexityMetrics `json:"complexity"`
	Imports         []Import          `json:"imports"`
	Classes         []ClassInfo       `json:"classes"`
	Methods         []MethodInfo      `json:"methods"`
	Fields          []FieldInfo       `json:"fields"`
}

// IR is the intermediate representation of one Java source unit.
// It is created once by the extractor and treated as read-only afterwards.
type IR struct {
	SyntaxTree   []*SyntaxNode `json:"syntax_tree"`
	Metadata     Metadata      `json:"metadata"`
	Dependencies []Dependency  `json:"dependencies"`
}
