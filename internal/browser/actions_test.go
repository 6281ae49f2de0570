package browser

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollDelay_StaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		d := scrollDelay(rng)
		assert.GreaterOrEqual(t, d, scrollDelayMin)
		assert.LessOrEqual(t, d, scrollDelayMax)
	}
}

func TestScrollDelay_SeededRunsAreReproducible(t *testing.T) {
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		assert.Equal(t, scrollDelay(a), scrollDelay(b))
	}
}
