package extractor

import (
	"strings"

	"modbridge/internal/ir"
)

// complexityWeights is the per-kind cognitive weight. Kinds not listed weigh 0.
var complexityWeights = map[ir.NodeKind]int{
	ir.KindIfStatement:     1,
	ir.KindWhileLoop:       2,
	ir.KindForLoop:         2,
	ir.KindSwitchStatement: 1,
	ir.KindTryStatement:    2,
	ir.KindMethodCall:      1,
}

// decisionKinds add one to cyclomatic complexity each.
var decisionKinds = map[ir.NodeKind]bool{
	ir.KindIfStatement:     true,
	ir.KindWhileLoop:       true,
	ir.KindForLoop:         true,
	ir.KindSwitchStatement: true,
	ir.KindTryStatement:    true,
}

// nestingKinds increase nesting depth for their children.
var nestingKinds = map[ir.NodeKind]bool{
	ir.KindIfStatement:       true,
	ir.KindWhileLoop:         true,
	ir.KindForLoop:           true,
	ir.KindSwitchStatement:   true,
	ir.KindTryStatement:      true,
	ir.KindMethodDeclaration: true,
	ir.KindClassDeclaration:  true,
}

var javaCategories = map[ir.NodeKind]string{
	ir.KindClassDeclaration:  "class",
	ir.KindMethodDeclaration: "method",
	ir.KindFieldDeclaration:  "field",
	ir.KindIfStatement:       "conditional",
	ir.KindForLoop:           "loop",
	ir.KindWhileLoop:         "loop",
	ir.KindSwitchStatement:   "conditional",
	ir.KindTryStatement:      "exception_handling",
	ir.KindMethodCall:        "invocation",
	ir.KindAssignment:        "assignment",
	ir.KindReturnStatement:   "return",
	ir.KindComment:           "comment",
	ir.KindGenericStatement:  "statement",
}

// mappableNames are lifecycle hooks and API calls with a known scripting
// counterpart. Matching uses the last segment of a dotted name.
var mappableNames = toSet(
	// lifecycle
	"tick", "onUse", "use", "onPlaced", "onBreak", "onBlockAdded", "onStateReplaced",
	"onEntityCollision", "onSteppedOn", "randomTick", "scheduledTick", "onInitialize",
	"useOnBlock", "useOnEntity", "inventoryTick", "onCraft", "onStoppedUsing",
	// world and entity access
	"getWorld", "getBlockState", "setBlockState", "getBlock", "getPlayer", "getEntity",
	"spawnEntity", "addParticle", "playSound", "sendMessage", "getItem", "getStackInHand",
	"damage", "heal", "getHealth", "setHealth", "teleport", "getPos", "isClient",
	"getTime", "getDimension", "addStatusEffect", "removeBlock", "breakBlock",
	// diagnostics
	"println", "print",
)

// mappableBases are superclasses whose subclasses map onto scripting
// components.
var mappableBases = toSet("Block", "Item", "Entity", "BlockEntity", "LivingEntity", "BlockWithEntity")

// annotate fills in node metadata for the whole forest.
func annotate(nodes []*ir.SyntaxNode) {
	ir.Walk(nodes, func(n *ir.SyntaxNode, _ int) bool {
		n.Meta.ComplexityWeight = complexityWeights[n.Kind]
		if n.Meta.JavaCategory == "" {
			n.Meta.JavaCategory = javaCategories[n.Kind]
		}
		n.Meta.IsMappable = isMappable(n)
		return true
	})
}

func isMappable(n *ir.SyntaxNode) bool {
	switch n.Kind {
	case ir.KindMethodDeclaration, ir.KindMethodCall:
		return IsMappableName(n.Label)
	case ir.KindClassDeclaration:
		d, ok := n.Meta.Details.(ir.ClassDetails)
		return ok && mappableBases[lastSegment(d.Extends)]
	default:
		return false
	}
}

// IsMappableName reports whether a method or call name is on the allow-list.
// A false result means the call needs manual or assisted translation.
func IsMappableName(name string) bool {
	return mappableNames[lastSegment(name)]
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
