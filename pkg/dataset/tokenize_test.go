package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/semparse/exprun/pkg/dataset"
)

func TestTokenizeCodeSplitsPunctuation(t *testing.T) {
	t.Parallel()

	got := dataset.TokenizeCode("sorted(x, key=len)")
	assert.Equal(t, []string{"sorted", "(", "x", ",", "key", "=", "len", ")"}, got)
}

func TestTokenizeCodeSplitsCamelCase(t *testing.T) {
	t.Parallel()

	got := dataset.TokenizeCode("getFooBar")
	assert.Equal(t, []string{"get", "Foo", "Bar"}, got)
}

func TestTokenizeCodeUnifiesQuotes(t *testing.T) {
	t.Parallel()

	single := dataset.TokenizeCode("x = 'a'")
	double := dataset.TokenizeCode(`x = "a"`)
	assert.Equal(t, single, double)
	assert.Contains(t, single, "`")
}

func TestTokenizeCodeKeepsUnderscores(t *testing.T) {
	t.Parallel()

	got := dataset.TokenizeCode("my_var = 1")
	assert.Equal(t, []string{"my_var", "=", "1"}, got)
}

func TestTokenizeCodeEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, dataset.TokenizeCode(""))
	assert.Empty(t, dataset.TokenizeCode("   "))
}
