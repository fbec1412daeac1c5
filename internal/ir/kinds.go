package ir

// TokenKind classifies a lexeme.
type TokenKind string

const (
	TokenKeyword       TokenKind = "keyword"
	TokenIdentifier    TokenKind = "identifier"
	TokenStringLiteral TokenKind = "string_literal"
	TokenNumber        TokenKind = "number"
	TokenOperator      TokenKind = "operator"
	TokenPunctuation   TokenKind = "punctuation"
	TokenComment       TokenKind = "comment"
	TokenUnknown       TokenKind = "unknown"
)

// NodeKind is the syntactic category of a SyntaxNode.
type NodeKind string

const (
	KindClassDeclaration  NodeKind = "ClassDeclaration"
	KindMethodDeclaration NodeKind = "MethodDeclaration"
	KindFieldDeclaration  NodeKind = "FieldDeclaration"
	KindIfStatement       NodeKind = "IfStatement"
	KindForLoop           NodeKind = "ForLoop"
	KindWhileLoop         NodeKind = "WhileLoop"
	KindSwitchStatement   NodeKind = "SwitchStatement"
	KindTryStatement      NodeKind = "TryStatement"
	KindMethodCall        NodeKind = "MethodCall"
	KindAssignment        NodeKind = "Assignment"
	KindReturnStatement   NodeKind = "ReturnStatement"
	KindComment           NodeKind = "Comment"
	KindGenericStatement  NodeKind = "GenericStatement"
)

// Classifier tells where an imported package comes from.
type Classifier string

const (
	ClassifierMinecraft Classifier = "minecraft"
	ClassifierForge     Classifier = "forge"
	ClassifierFabric    Classifier = "fabric"
	ClassifierExternal  Classifier = "external"
)

// NodeDetails is the closed set of kind-specific payloads. Only the types in
// this package implement it, so a type switch over them is exhaustive.
type NodeDetails interface {
	isNodeDetails()
}

// ClassDetails is attached to ClassDeclaration nodes.
type ClassDetails struct {
	Modifiers []string `json:"modifiers,omitempty"`
	Extends   string   `json:"extends,omitempty"`
}

// MethodDetails is attached to MethodDeclaration nodes.
type MethodDetails struct {
	ReturnType     string   `json:"return_type,omitempty"`
	ParameterNames []string `json:"parameter_names,omitempty"`
	Modifiers      []string `json:"modifiers,omitempty"`
	Abstract       bool     `json:"abstract,omitempty"`
}

// FieldDetails is attached to FieldDeclaration nodes.
type FieldDetails struct {
	Type      string   `json:"type,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// CallDetails is attached to MethodCall nodes.
type CallDetails struct {
	Receiver string `json:"receiver,omitempty"`
	Method   string `json:"method"`
}

func (ClassDetails) isNodeDetails()  {}
func (MethodDetails) isNodeDetails() {}
func (FieldDetails) isNodeDetails()  {}
func (CallDetails) isNodeDetails()   {}
