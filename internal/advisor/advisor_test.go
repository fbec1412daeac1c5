package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/internal/mapping"
)

type fakeGenerator struct {
	calls   int
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

var untranslatable = mapping.APIMapping{
	JavaSignature:     "net.minecraft.world.World.createExplosion",
	BedrockEquivalent: "/* untranslatable: net.minecraft.world.World.createExplosion */",
	ConversionType:    mapping.Impossible,
	Notes:             "no direct equivalent",
}

func TestAdvisor_Suggest(t *testing.T) {
	gen := &fakeGenerator{reply: "```js\ndimension.createExplosion(location, 4);\n```"}
	a := NewAdvisor(gen, nil)

	got, err := a.Suggest(context.Background(), untranslatable)
	require.NoError(t, err)
	assert.Equal(t, "dimension.createExplosion(location, 4);", got)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "net.minecraft.world.World.createExplosion")
	assert.Contains(t, gen.prompts[0], "no direct equivalent")

	gen.reply = "   "
	got, err = a.Suggest(context.Background(), untranslatable)
	require.NoError(t, err)
	assert.Equal(t, "No suggestion available.", got)
}

func TestAdvisor_BreakerOpensAfterFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	a := NewAdvisor(gen, nil)

	for i := 0; i < 3; i++ {
		_, err := a.Suggest(context.Background(), untranslatable)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := a.Suggest(context.Background(), untranslatable)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, gen.calls, "open breaker does not reach the provider")
}
