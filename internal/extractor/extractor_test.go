package extractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/internal/ir"
)

func TestExtractor_ExtractFromFile(t *testing.T) {
	testFile := filepath.Join("testdata", "RubyBlock.java")

	ext, err := NewExtractor("java")
	require.NoError(t, err)

	result, err := ext.ExtractFromFile(testFile)
	require.NoError(t, err)

	t.Run("Tree Roots", func(t *testing.T) {
		require.Len(t, result.SyntaxTree, 2)
		assert.Equal(t, ir.KindComment, result.SyntaxTree[0].Kind)
		assert.Equal(t, ir.KindClassDeclaration, result.SyntaxTree[1].Kind)
		assert.Len(t, result.SyntaxTree[1].Children, 6)
	})

	t.Run("Classes", func(t *testing.T) {
		require.Len(t, result.Metadata.Classes, 1)
		class := result.Metadata.Classes[0]
		assert.Equal(t, "RubyBlock", class.Name)
		assert.Equal(t, "Block", class.Extends)
		assert.Equal(t, 15, class.Line)
		assert.True(t, class.IsMappable)
	})

	t.Run("Methods", func(t *testing.T) {
		var names []string
		mappable := make(map[string]bool)
		for _, m := range result.Metadata.Methods {
			names = append(names, m.Name)
			mappable[m.Name] = m.IsMappable
		}
		assert.Equal(t, []string{"RubyBlock", "onSteppedOn", "countNeighbours"}, names)
		assert.True(t, mappable["onSteppedOn"])
		assert.False(t, mappable["countNeighbours"])

		on := result.Metadata.Methods[1]
		assert.Equal(t, "void", on.ReturnType)
		assert.Equal(t, []string{"world", "pos", "entity"}, on.ParameterNames)
		assert.Equal(t, []string{"@Override", "public"}, on.Modifiers)
	})

	t.Run("Fields", func(t *testing.T) {
		var names []string
		for _, f := range result.Metadata.Fields {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"MAX_GLOW", "glow", "n"}, names)
		assert.Equal(t, "int", result.Metadata.Fields[0].Type)
	})

	t.Run("Complexity", func(t *testing.T) {
		c := result.Metadata.Complexity
		assert.Equal(t, 4, c.CyclomaticComplexity)
		assert.Equal(t, 16, c.CognitiveComplexity)
		assert.Equal(t, 3, c.MaxNestingDepth)
		assert.Equal(t, 17, c.LinesOfCode)
		assert.Equal(t, 43, result.Metadata.SourceLineCount)
	})

	t.Run("Imports And Dependencies", func(t *testing.T) {
		assert.Len(t, result.Metadata.Imports, 7, "duplicate java.util.List collapses")
		require.Len(t, result.Dependencies, 7)

		byClass := make(map[string]ir.Dependency)
		for _, d := range result.Dependencies {
			byClass[d.PackageName+"."+d.ClassName] = d
		}
		assert.Equal(t, ir.ClassifierMinecraft, byClass["net.minecraft.block.Block"].Classifier)
		assert.Equal(t, ir.ClassifierFabric, byClass["net.fabricmc.api.ModInitializer"].Classifier)
		assert.Equal(t, ir.ClassifierForge, byClass["net.minecraftforge.event.*"].Classifier)
		assert.False(t, byClass["java.util.List"].Required)
		static := byClass["org.apache.commons.lang3.StringUtils.isEmpty"]
		assert.Equal(t, ir.ClassifierExternal, static.Classifier)
		assert.True(t, static.Required)
	})

	t.Run("Unmapped Calls", func(t *testing.T) {
		assert.Equal(t, []string{"super", "helper.compute"}, UnmappedCalls(result.SyntaxTree))
	})
}

func TestExtractor_UnsupportedLanguage(t *testing.T) {
	_, err := NewExtractor("kotlin")
	assert.Error(t, err)
}

func TestExtractor_MissingFile(t *testing.T) {
	ext, err := NewExtractor("java")
	require.NoError(t, err)

	_, err = ext.ExtractFromFile(filepath.Join(t.TempDir(), "Missing.java"))
	assert.Error(t, err)
}

func TestExtractor_AnalyzeDegradesInsteadOfFailing(t *testing.T) {
	ext, err := NewExtractor("java")
	require.NoError(t, err)

	result, err := ext.Analyze("class { ( ;; } } {{ @@ \"unterminated")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.GreaterOrEqual(t, result.Metadata.Complexity.CyclomaticComplexity, 1)
}

func TestAnalysisError(t *testing.T) {
	err := &AnalysisError{Path: "A.java", Message: "boom"}
	assert.Equal(t, "analysis failed for A.java: boom", err.Error())
	assert.Equal(t, "analysis failed: boom", (&AnalysisError{Message: "boom"}).Error())
}

func TestComputeComplexity_NestingWeights(t *testing.T) {
	nodes := BuildTree(Tokenize("public class A { if (x) { foo(); } }"))
	c := ComputeComplexity(nodes)
	assert.Equal(t, ir.ComplexityMetrics{
		CyclomaticComplexity: 2,
		CognitiveComplexity:  3,
		LinesOfCode:          1,
		MaxNestingDepth:      2,
	}, c)

	assert.Equal(t, ir.ComplexityMetrics{CyclomaticComplexity: 1}, ComputeComplexity(nil))
}

func TestClassify_Prefixes(t *testing.T) {
	cases := map[string]ir.Classifier{
		"net.minecraft.item":       ir.ClassifierMinecraft,
		"com.mojang.brigadier":     ir.ClassifierMinecraft,
		"net.minecraftforge.fml":   ir.ClassifierForge,
		"net.neoforged.bus":        ir.ClassifierForge,
		"net.fabricmc.fabric.api":  ir.ClassifierFabric,
		"net.minecraftextra.thing": ir.ClassifierExternal,
		"":                         ir.ClassifierExternal,
	}
	for pkg, want := range cases {
		assert.Equal(t, want, Classify(pkg), pkg)
	}
}
