package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/internal/ir"
)

func parse(src string) []*ir.SyntaxNode {
	return BuildTree(Tokenize(src))
}

func TestBuildTree_ClassWithIfAndCall(t *testing.T) {
	nodes := parse("public class A { if (x) { foo(); } }")
	require.Len(t, nodes, 1)

	class := nodes[0]
	assert.Equal(t, ir.KindClassDeclaration, class.Kind)
	assert.Equal(t, "A", class.Label)
	require.Len(t, class.Children, 1)

	ifNode := class.Children[0]
	assert.Equal(t, ir.KindIfStatement, ifNode.Kind)
	require.Len(t, ifNode.Children, 1)

	call := ifNode.Children[0]
	assert.Equal(t, ir.KindMethodCall, call.Kind)
	assert.Equal(t, "foo", call.Label)
	assert.Equal(t, 2, ComputeComplexity(nodes).CyclomaticComplexity)
}

func TestBuildTree_Declarations(t *testing.T) {
	src := `
@Mod("ruby")
public abstract class Gem<T> extends Item implements Shiny {
    protected static final String NAME = "gem";
    private java.util.List<String> tags;

    public Gem(Settings s) { super(s); }

    @Override
    public abstract int value(T item, String[] extra);

    public static <R> java.util.Map<String, R> index(List<R> in, int n) throws java.io.IOException {
        return build(in, n);
    }
}`
	nodes := parse(src)
	require.Len(t, nodes, 1)
	class := nodes[0]
	assert.Equal(t, "Gem", class.Label)
	assert.Equal(t, "class", class.Meta.JavaCategory)
	cd, ok := class.Meta.Details.(ir.ClassDetails)
	require.True(t, ok)
	assert.Equal(t, "Item", cd.Extends)
	assert.Equal(t, []string{"@Mod", "public", "abstract"}, cd.Modifiers)
	assert.True(t, class.Meta.IsMappable, "subclasses of Item are mappable")

	require.Len(t, class.Children, 5)

	name := class.Children[0]
	assert.Equal(t, ir.KindFieldDeclaration, name.Kind)
	assert.Equal(t, "NAME", name.Label)
	assert.Equal(t, ir.FieldDetails{Type: "String", Modifiers: []string{"protected", "static", "final"}}, name.Meta.Details)

	tags := class.Children[1]
	assert.Equal(t, ir.KindFieldDeclaration, tags.Kind)
	assert.Equal(t, "tags", tags.Label)

	ctor := class.Children[2]
	assert.Equal(t, ir.KindMethodDeclaration, ctor.Kind)
	assert.Equal(t, "Gem", ctor.Label)
	assert.Equal(t, []string{"s"}, ctor.Meta.Details.(ir.MethodDetails).ParameterNames)

	value := class.Children[3]
	assert.Equal(t, "value", value.Label)
	vd := value.Meta.Details.(ir.MethodDetails)
	assert.True(t, vd.Abstract)
	assert.Equal(t, "int", vd.ReturnType)
	assert.Equal(t, []string{"item", "extra"}, vd.ParameterNames)
	assert.Equal(t, []string{"@Override", "public", "abstract"}, vd.Modifiers)
	assert.Empty(t, value.Children)

	index := class.Children[4]
	assert.Equal(t, "index", index.Label)
	id := index.Meta.Details.(ir.MethodDetails)
	assert.Equal(t, []string{"in", "n"}, id.ParameterNames)
	require.Len(t, index.Children, 1)
	ret := index.Children[0]
	assert.Equal(t, ir.KindReturnStatement, ret.Kind)
	require.Len(t, ret.Children, 1)
	assert.Equal(t, ir.KindMethodCall, ret.Children[0].Kind)
	assert.Equal(t, "build", ret.Children[0].Label)
}

func TestBuildTree_ControlFlow(t *testing.T) {
	src := `
void run() {
    if (a) x = 1; else if (b) { y(); } else { z(); }
    do { step(); } while (more);
    switch (k) { case 1: one(); break; default: other(); }
    try (Res r = open()) { use(); } catch (Exception e) { log(e); } finally { close(); }
}`
	nodes := parse(src)
	require.Len(t, nodes, 1)
	method := nodes[0]
	assert.Equal(t, ir.KindMethodDeclaration, method.Kind)
	require.Len(t, method.Children, 4)

	ifNode := method.Children[0]
	assert.Equal(t, ir.KindIfStatement, ifNode.Kind)
	require.Len(t, ifNode.Children, 2)
	assert.Equal(t, ir.KindAssignment, ifNode.Children[0].Kind)
	elseIf := ifNode.Children[1]
	assert.Equal(t, ir.KindIfStatement, elseIf.Kind)
	assert.Equal(t, []string{"y", "z"}, labels(elseIf.Children))

	doLoop := method.Children[1]
	assert.Equal(t, ir.KindWhileLoop, doLoop.Kind)
	assert.Equal(t, []string{"step"}, labels(doLoop.Children))

	sw := method.Children[2]
	assert.Equal(t, ir.KindSwitchStatement, sw.Kind)
	assert.Equal(t, []string{"one", "break ;", "other"}, labels(sw.Children))

	try := method.Children[3]
	assert.Equal(t, ir.KindTryStatement, try.Kind)
	assert.Equal(t, []string{"use", "log", "close"}, labels(try.Children))
}

func TestBuildTree_DottedCallAndAssignment(t *testing.T) {
	nodes := parse(`System.out.println("hi"); this.count = other.value;`)
	require.Len(t, nodes, 2)

	assert.Equal(t, ir.KindMethodCall, nodes[0].Kind)
	assert.Equal(t, "System.out.println", nodes[0].Label)
	assert.Equal(t, ir.CallDetails{Receiver: "System.out", Method: "println"}, nodes[0].Meta.Details)
	assert.True(t, nodes[0].Meta.IsMappable)
	assert.Equal(t, 1, nodes[0].Meta.ComplexityWeight)

	assert.Equal(t, ir.KindAssignment, nodes[1].Kind)
	assert.Equal(t, "this.count", nodes[1].Label)
}

func TestBuildTree_Idempotent(t *testing.T) {
	src := `class A { void tick() { for (;;) { if (x) { world.setBlockState(p, s); } } } }`
	first := ir.ShapeOf(parse(src))
	second := ir.ShapeOf(parse(src))
	assert.Equal(t, first, second)
}

func TestBuildTree_TerminatesOnMalformedInput(t *testing.T) {
	cases := map[string]string{
		"dangling brace":   "class A { void f() { if (x) {",
		"extra closers":    "} } ) ; class B { } }",
		"unbalanced paren": "foo(bar(; if (",
		"lone keywords":    "public static final",
		"empty":            "",
		"garbage":          "#### $$$ ``` \\\\",
		"annotation only":  "@",
		"else without if":  "else { x(); }",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() { parse(src) })
		})
	}
}

func TestBuildTree_DepthGuard(t *testing.T) {
	depth := maxBlockDepth + 50
	src := "class Deep " + strings.Repeat("{ ", depth) + "x();" + strings.Repeat(" }", depth)
	nodes := parse(src)
	require.Len(t, nodes, 1)

	deepest := 0
	ir.Walk(nodes, func(_ *ir.SyntaxNode, d int) bool {
		if d > deepest {
			deepest = d
		}
		return true
	})
	assert.LessOrEqual(t, deepest, maxBlockDepth+1)
}

func labels(nodes []*ir.SyntaxNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Label)
	}
	return out
}
