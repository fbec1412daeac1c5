package graph

type RelationKind string

const (
	RelationExtends RelationKind = "extends"
	RelationImports RelationKind = "imports"
)

// Symbol is one class-like declaration of a mod source tree.
type Symbol struct {
	ID        string     `json:"id"`
	Filepath  string     `json:"filepath"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Line      int        `json:"line"`
	Mappable  bool       `json:"mappable"`
	Relations []Relation `json:"relations,omitempty"`
}

type Relation struct {
	Target string       `json:"target"`
	Kind   RelationKind `json:"kind"`
}

// Unresolved is a relation whose target is not declared in the project,
// typically a Minecraft or loader class.
type Unresolved struct {
	From   string       `json:"from"`
	Target string       `json:"target"`
	Kind   RelationKind `json:"kind"`
}
