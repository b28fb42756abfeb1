package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_Generate(t *testing.T) {
	calls := 0
	p := NewPool(func() int {
		calls++
		return 7
	})

	assert.Equal(t, 7, p.Get())
	assert.Equal(t, 1, calls)
}

func TestBufferPool_ResetsOnPut(t *testing.T) {
	p := NewBufferPool(16)

	b := p.Get()
	assert.Len(t, *b, 0)
	assert.GreaterOrEqual(t, cap(*b), 16)

	*b = append(*b, 1, 2, 3)
	p.Put(b)
	assert.Len(t, *b, 0, "Put empties the slice before pooling it")
}
