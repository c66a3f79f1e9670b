package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// accessPattern: three variables over a six-cycle period. v3's lifetime
// wraps, its read landing on cycle 2 with the others.
func accessPattern() *Collection {
	return NewCollection([]Process{
		NewPlainMemoryVariable("v1", 0, 0, map[int]int{0: 2, 1: 3}),
		NewPlainMemoryVariable("v2", 1, 0, map[int]int{0: 1, 1: 2}),
		NewPlainMemoryVariable("v3", 5, 0, map[int]int{0: 3}),
	}, 6, true)
}

func TestReadPortsBound(t *testing.T) {
	// Cycle 2 carries reads from all three variables.
	assert.Equal(t, 3, accessPattern().ReadPortsBound())
}

func TestWritePortsBound(t *testing.T) {
	// Writes land on distinct cycles 0, 1 and 5.
	assert.Equal(t, 1, accessPattern().WritePortsBound())
}

func TestTotalPortsBound(t *testing.T) {
	assert.Equal(t, 3, accessPattern().TotalPortsBound())
}

func TestProcessingElementBound(t *testing.T) {
	// At cycle 1 all three lifetimes are live: v1 [0,3), v2 [1,4) and v3
	// wrapping through the period boundary.
	assert.Equal(t, 3, accessPattern().ProcessingElementBound())
}

func TestProcessingElementBoundIgnoresZeroLengthProcesses(t *testing.T) {
	c := NewCollection([]Process{
		NewPlainMemoryVariable("direct", 2, 0, map[int]int{0: 0}),
		NewPlainMemoryVariable("stored", 2, 0, map[int]int{0: 3}),
	}, 6, true)

	assert.Equal(t, 1, c.ProcessingElementBound())
}

func TestBoundsSkipOperatorProcesses(t *testing.T) {
	c := NewCollection([]Process{
		op("add0", 0, 3),
		NewPlainMemoryVariable("v", 0, 0, map[int]int{0: 0}),
	}, 6, true)

	assert.Equal(t, 1, c.ReadPortsBound())
	assert.Equal(t, 1, c.WritePortsBound())
	assert.Equal(t, 2, c.TotalPortsBound())
}

func TestProcessingElementBoundUnwrapped(t *testing.T) {
	// No period known: sweep the raw intervals.
	c := NewCollection([]Process{
		op("a", 0, 4),
		op("b", 2, 4),
		op("c", 3, 1),
		op("d", 9, 1),
	}, 0, false)

	assert.Equal(t, 3, c.ProcessingElementBound())
}
