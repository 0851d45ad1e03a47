package roomid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand struct {
	vals []int
	i    int
}

func (f *fixedRand) Intn(n int) int {
	v := f.vals[f.i%len(f.vals)] % n
	f.i++
	return v
}

func TestGenerate(t *testing.T) {
	code := NewGenerator(nil).Generate()
	assert.Len(t, code, Length)
	assert.NoError(t, Validate(code))
}

func TestGenerateWithInjectedRandomness(t *testing.T) {
	g := NewGenerator(&fixedRand{vals: []int{0, 1, 2, 10, 11, 31}})
	assert.Equal(t, "012abz", g.Generate())
}

func TestGenerateIsNotConstant(t *testing.T) {
	g := NewGenerator(nil)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[g.Generate()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("abc123"))

	assert.Error(t, Validate(""), "too short")
	assert.Error(t, Validate("abc12"), "too short")
	assert.Error(t, Validate("abc1234"), "too long")
	assert.Error(t, Validate("abc12O"), "O is not in the alphabet")
	assert.Error(t, Validate("ABC123"), "codes are lower case")
}
