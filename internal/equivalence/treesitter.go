//go:build cgo

package equivalence

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
)

// TreeSitterExtractor builds inventories from real syntax trees.
type TreeSitterExtractor struct{}

// NewTreeSitterExtractor returns an extractor backed by tree-sitter grammars.
func NewTreeSitterExtractor() (*TreeSitterExtractor, error) {
	return &TreeSitterExtractor{}, nil
}

// TreeSitterAvailable reports whether this build carries the tree-sitter grammars.
func TreeSitterAvailable() bool { return true }

func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangJava:
		return java.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

var decisionNodeTypes = map[string]bool{
	"if_statement":           true,
	"for_statement":          true,
	"enhanced_for_statement": true,
	"for_in_statement":       true,
	"while_statement":        true,
	"do_statement":           true,
	"switch_case":            true,
	"catch_clause":           true,
}

func (e *TreeSitterExtractor) Extract(ctx context.Context, src string, lang Language) (Inventory, error) {
	tsLang, err := getLanguage(lang)
	if err != nil {
		return Inventory{}, err
	}
	parser := sitter.NewParser()
	parser.SetLanguage(tsLang)

	source := []byte(src)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return Inventory{}, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	inv := newInventory()
	var constructors []string
	text := func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		return string(source[n.StartByte():n.EndByte()])
	}
	nameOf := func(n *sitter.Node) string { return text(n.ChildByFieldName("name")) }

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch t := n.Type(); {
		case t == "class_declaration" || t == "interface_declaration" || t == "enum_declaration":
			if name := nameOf(n); name != "" {
				inv.Classes[name] = struct{}{}
			}
		case t == "method_declaration" || t == "function_declaration" || t == "method_definition":
			if name := nameOf(n); name != "" && !notMethodNames[name] {
				inv.Methods[name] = struct{}{}
			}
		case t == "constructor_declaration":
			constructors = append(constructors, nameOf(n))
		case t == "variable_declarator":
			if v := n.ChildByFieldName("value"); v != nil {
				switch v.Type() {
				case "function", "function_expression", "arrow_function":
					inv.Methods[nameOf(n)] = struct{}{}
				}
			}
		case decisionNodeTypes[t]:
			inv.Complexity++
		case t == "switch_label":
			if strings.HasPrefix(text(n), "case") {
				inv.Complexity++
			}
		case t == "binary_expression":
			if op := text(n.ChildByFieldName("operator")); op == "&&" || op == "||" {
				inv.Complexity++
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	for _, name := range constructors {
		delete(inv.Methods, name)
	}
	for name := range inv.Classes {
		delete(inv.Methods, name)
	}
	return inv, nil
}
