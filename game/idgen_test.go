package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdgenGenerate(t *testing.T) {
	t.Parallel()

	g := NewIdGen()
	seen := map[string]struct{}{}
	for i := 0; i < 500; i++ {
		id := g.Generate()
		assert.Len(t, id, roomCodeLength)
		for _, ch := range id {
			assert.True(t, strings.ContainsRune(roomCodeAlphabet, ch), "unexpected character %q in %s", ch, id)
		}
		_, dup := seen[id]
		assert.False(t, dup, "generated id %s twice while reserved", id)
		seen[id] = struct{}{}
	}

	// Disposed ids return to the pool and may be issued again.
	for id := range seen {
		g.Dispose(id)
	}
	assert.Len(t, g.ids, 0)
}
