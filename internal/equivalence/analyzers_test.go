package equivalence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}

func TestStripNoise(t *testing.T) {
	src := "int a = 1; // if (x) {\n/* while (y) {\n} */ String s = \"for (;;) {\";\nchar c = '\\'';"
	got := stripNoise(src)

	assert.NotContains(t, got, "if")
	assert.NotContains(t, got, "while")
	assert.NotContains(t, got, "for")
	assert.Contains(t, got, `String s = "";`)
	assert.Contains(t, got, `char c = '';`)
	assert.Equal(t, 4, len(splitLines(got)), "line breaks survive")
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func TestPatternExtractor(t *testing.T) {
	t.Run("java", func(t *testing.T) {
		inv, err := PatternExtractor{}.Extract(context.Background(), javaBlock, LangJava)
		require.NoError(t, err)
		assert.Equal(t, set("tick", "onUse"), inv.Methods, "constructors are not methods")
		assert.Equal(t, set("RubyBlock"), inv.Classes)
		assert.Equal(t, 1, inv.Complexity)
	})

	t.Run("javascript", func(t *testing.T) {
		src := `
export class Handler {
  constructor() {}
  onUse(player) {
    if (player && player.isSneaking) { return; }
  }
}
const tick = (world) => { for (const p of world.getPlayers()) {} };
function helper() {}
const later = async function () {};
`
		inv, err := PatternExtractor{}.Extract(context.Background(), src, LangJavaScript)
		require.NoError(t, err)
		assert.Equal(t, set("onUse", "tick", "helper", "later"), inv.Methods)
		assert.Equal(t, set("Handler"), inv.Classes)
		assert.Equal(t, 3, inv.Complexity, "if, &&, for")
	})
}

func TestPatternExtractor_AnonymousClasses(t *testing.T) {
	src := `
public class Ticker {
    public void tick() {
        new Thread(new Runnable() {
            @Override
            public void run() {
                work();
            }
        }).start();
        Object o = new java.util.TimerTask() { public void run() {} };
    }
}
`
	inv, err := PatternExtractor{}.Extract(context.Background(), src, LangJava)
	require.NoError(t, err)
	assert.Equal(t, set("tick", "run"), inv.Methods, "instantiated types are not methods")

	res, err := NewStructuralAnalyzer(nil).Analyze(context.Background(), Input{
		Original:   src,
		Translated: "class Ticker {\n  tick() {\n    system.run(() => { work(); });\n  }\n  run() {}\n}\n",
	})
	require.NoError(t, err)
	for _, d := range res.Differences {
		assert.NotEqual(t, SeverityHigh, d.Severity, d.Description)
	}
}

func TestStructuralAnalyzer(t *testing.T) {
	a := NewStructuralAnalyzer(nil)
	res, err := a.Analyze(context.Background(), Input{Original: javaBlock, Translated: jsBlock})
	require.NoError(t, err)

	// methods 1/2, classes 1, complexity 1
	assert.InDelta(t, (0.5+1+1)/3, res.Similarity, 1e-9)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, SeverityHigh, res.Differences[0].Severity)
	assert.Equal(t, "onUse", res.Differences[0].Location)
	assert.NotEmpty(t, res.Recommendations)

	branchy := "class A { void run() { if (a) {} if (b) {} while (c) {} for (;;) {} if (d || e) {} } }"
	res, err = a.Analyze(context.Background(), Input{Original: branchy, Translated: "class A { run() {} }"})
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, SeverityMedium, res.Differences[0].Severity)
	assert.Contains(t, res.Differences[0].Description, "complexity")
}

func TestSemanticAnalyzer(t *testing.T) {
	a := NewSemanticAnalyzer()

	t.Run("known equivalents are not penalised", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{
			Original:   `void greet() { System.out.println(name); }`,
			Translated: `greet() { console.log(name); }`,
		})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Similarity, 1e-9)
		assert.Empty(t, res.Differences)
	})

	t.Run("calls kept under their own name", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{
			Original:   `void fill() { list.add(x); map.put(k, v); }`,
			Translated: `fill() { list.add(x); map.set(k, v); }`,
		})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Similarity, 1e-9)
		assert.Empty(t, res.Differences)
	})

	t.Run("unexplained calls", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{
			Original:   `void run() { world.spawnParticles(x); entity.damage(2); sound.play(); }`,
			Translated: `run() { dimension.spawnParticle(x); }`,
		})
		require.NoError(t, err)
		var api []FunctionalDifference
		for _, d := range res.Differences {
			if d.Category == CategoryAPI {
				api = append(api, d)
			}
		}
		require.Len(t, api, 1)
		assert.Equal(t, SeverityMedium, api[0].Severity)
		assert.Contains(t, api[0].Description, "damage")
		assert.Less(t, res.Similarity, 1.0)
	})

	t.Run("pattern divergence", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{
			Original:   `void run() { for (int i = 0; i < n; i++) {} while (x) {} return; }`,
			Translated: `run() { return; }`,
		})
		require.NoError(t, err)
		var locations []string
		for _, d := range res.Differences {
			locations = append(locations, d.Location)
		}
		assert.Contains(t, locations, "loop")
		assert.NotContains(t, locations, "return")
	})
}

func TestCallTargets(t *testing.T) {
	code := "void tick(World w) { if (w.isClient()) { return; } helper.compute(1); }\nfunction go() { run(); }"
	assert.Equal(t, set("isClient", "compute", "run"), callTargets(code))
}

func TestBehavioralAnalyzer(t *testing.T) {
	a := NewBehavioralAnalyzer()

	t.Run("baseline only", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{Original: trivial, Translated: trivial})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Similarity)
		assert.Empty(t, res.Differences)
	})

	t.Run("world interaction", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{
			Original:   `void tick(World world) { world.setBlockState(pos, state); }`,
			Translated: `tick(world) { }`,
		})
		require.NoError(t, err)
		// baseline agrees; only the world write probe disagrees
		assert.InDelta(t, (1.0+2.0/3)/2, res.Similarity, 1e-9)
		require.Len(t, res.Differences, 1)
		assert.Equal(t, SeverityLow, res.Differences[0].Severity)
		assert.Equal(t, "world_interaction", res.Differences[0].Location)
	})

	t.Run("async and exceptions", func(t *testing.T) {
		res, err := a.Analyze(context.Background(), Input{
			Original:   `void load() { try { read(); } catch (IOException e) { } }`,
			Translated: `async load() { await read(); }`,
		})
		require.NoError(t, err)
		var medium []string
		for _, d := range res.Differences {
			if d.Severity == SeverityMedium {
				medium = append(medium, d.Description)
			}
		}
		require.Len(t, medium, 2)
		assert.Contains(t, medium[0], "asynchronous")
		assert.Contains(t, medium[1], "exception handling")
		assert.Len(t, res.Recommendations, 2)
	})
}

func TestFuse(t *testing.T) {
	t.Run("sorting", func(t *testing.T) {
		v := fuse(
			AnalyzerResult{Similarity: 1, Differences: []FunctionalDifference{
				{Category: CategoryLogic, Severity: SeverityMedium, Description: "a"},
				{Category: CategoryPerformance, Severity: SeverityCritical, Description: "b"},
			}},
			AnalyzerResult{Similarity: 1, Differences: []FunctionalDifference{
				{Category: CategoryAPI, Severity: SeverityMedium, Description: "c"},
				{Category: CategoryBehavior, Severity: SeverityLow, Description: "d"},
			}},
			AnalyzerResult{Similarity: 1, Differences: []FunctionalDifference{
				{Category: CategoryBehavior, Severity: SeverityMedium, Description: "e"},
				{Category: CategoryLogic, Severity: SeverityHigh, Description: "f"},
			}},
			0.8,
		)
		var order []string
		for _, d := range v.Differences {
			order = append(order, d.Description)
		}
		assert.Equal(t, []string{"b", "f", "e", "c", "a", "d"}, order)
		assert.False(t, v.IsEquivalent)
		assert.Equal(t, []string{genericRecommendation}, v.Recommendations)
	})

	t.Run("api compatibility", func(t *testing.T) {
		diffs := []FunctionalDifference{
			{Category: CategoryAPI, Severity: SeverityCritical},
			{Category: CategoryAPI, Severity: SeverityMedium},
			{Category: CategoryLogic, Severity: SeverityCritical},
		}
		assert.Equal(t, 0.5, apiCompatibility(diffs))
		assert.Equal(t, 1.0, apiCompatibility(nil))
	})

	t.Run("any high severity blocks equivalence", func(t *testing.T) {
		v := fuse(
			AnalyzerResult{Similarity: 1, Differences: []FunctionalDifference{{Category: CategoryLogic, Severity: SeverityHigh}}},
			AnalyzerResult{Similarity: 1},
			AnalyzerResult{Similarity: 1},
			0.5,
		)
		assert.False(t, v.IsEquivalent)
		assert.InDelta(t, 1.0, v.Confidence, 1e-9)
	})

	t.Run("threshold", func(t *testing.T) {
		low := AnalyzerResult{Similarity: 0.5}
		v := fuse(low, low, low, 0.8)
		assert.InDelta(t, 0.55, v.Confidence, 1e-9)
		assert.False(t, v.IsEquivalent)
		assert.True(t, fuse(low, low, low, 0.5).IsEquivalent)
	})

	t.Run("confidence is monotonic in each score", func(t *testing.T) {
		steps := []float64{0, 0.25, 0.5, 0.75, 1}
		for lens := 0; lens < 3; lens++ {
			prev := -1.0
			for _, s := range steps {
				rs := [3]AnalyzerResult{{Similarity: 0.5}, {Similarity: 0.5}, {Similarity: 0.5}}
				rs[lens].Similarity = s
				c := fuse(rs[0], rs[1], rs[2], 0.8).Confidence
				assert.GreaterOrEqual(t, c, prev)
				assert.GreaterOrEqual(t, c, 0.0)
				assert.LessOrEqual(t, c, 1.0)
				prev = c
			}
		}
	})

	t.Run("recommendations are deduplicated", func(t *testing.T) {
		r := AnalyzerResult{Similarity: 1, Recommendations: []string{"x", "y"}}
		v := fuse(r, r, AnalyzerResult{Similarity: 1, Recommendations: []string{"y", ""}}, 0.8)
		assert.Equal(t, []string{"x", "y"}, v.Recommendations)
	})
}
