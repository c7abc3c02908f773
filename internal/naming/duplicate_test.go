package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type named struct {
	name string
	pos  int
}

func byName(n named) string { return n.name }

func TestDuplicateBy(t *testing.T) {
	t.Parallel()
	items := []named{{"a", 0}, {"b", 1}, {"a", 2}}
	dup, ok := DuplicateBy(items, byName)
	assert.True(t, ok)
	assert.Equal(t, named{"a", 2}, dup)

	_, ok = DuplicateBy([]named{}, byName)
	assert.False(t, ok)

	_, ok = DuplicateBy([]named{{"a", 0}, {"b", 1}}, byName)
	assert.False(t, ok)
}

func TestFirstDuplicate_ReportsEarliestRepeat(t *testing.T) {
	t.Parallel()
	items := []named{{"a", 0}, {"b", 1}, {"b", 2}, {"a", 3}}
	earlier, later, ok := FirstDuplicate(items, byName)
	assert.True(t, ok)
	assert.Equal(t, 1, earlier)
	assert.Equal(t, 2, later)
}
