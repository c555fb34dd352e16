package uow

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntityKey(t *testing.T) {
	t.Parallel()

	t.Run("supported component types", func(t *testing.T) {
		t.Parallel()
		for _, pk := range [][]any{
			{int64(1)},
			{int(1), int32(2)},
			{uint64(1), uint32(2)},
			{"a", "b"},
			{[]byte{0x01}},
			{true, false},
			{float64(1.5)},
			{nil},
			{int64(1), "a", nil, true},
		} {
			_, err := NewEntityKey("article", pk...)
			assert.NoError(t, err)
		}
	})

	t.Run("unsupported component type", func(t *testing.T) {
		t.Parallel()
		_, err := NewEntityKey("article", struct{}{})
		assert.True(t, errors.Is(err, ErrKeyComponent))

		_, err = NewEntityKey("article", int64(1), map[string]int{})
		assert.True(t, errors.Is(err, ErrKeyComponent))
	})
}

func TestEntityKeyEqual(t *testing.T) {
	t.Parallel()

	a, err := NewEntityKey("article", int64(1), "en")
	require.NoError(t, err)
	b, err := NewEntityKey("article", int64(1), "en")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b)
	assert.Equal(t, a.Hash(), b.Hash())

	c, err := NewEntityKey("tag", int64(1), "en")
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestEntityKeyEncodingInjective(t *testing.T) {
	t.Parallel()

	// Tuples that naive encodings conflate must produce distinct keys.
	tuples := [][]any{
		{int64(1)},
		{uint64(1)},
		{"1"},
		{[]byte("1")},
		{true},
		{nil},
		{},
		{"ab"},
		{"a", "b"},
		{"a", ""},
		{"", "a"},
		{int64(1), nil},
		{nil, int64(1)},
	}

	seen := map[EntityKey]int{}
	for i, pk := range tuples {
		k, err := NewEntityKey("article", pk...)
		require.NoError(t, err)
		if prev, ok := seen[k]; ok {
			t.Fatalf("tuples %d and %d encode to the same key %s", prev, i, k)
		}
		seen[k] = i
	}
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	e := staticEntity{typ: "article", pk: []any{int64(7)}}
	k, err := KeyOf(e)
	require.NoError(t, err)

	want, err := NewEntityKey("article", int64(7))
	require.NoError(t, err)
	assert.True(t, k.Equal(want))
	assert.Equal(t, "article", k.Type)
}

type staticEntity struct {
	typ string
	pk  []any
}

func (e staticEntity) EntityType() string { return e.typ }
func (e staticEntity) PrimaryKey() []any  { return e.pk }
