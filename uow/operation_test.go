package uow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "update", Update.String())
	assert.Equal(t, "delete", Delete.String())
	assert.Equal(t, "stale", StaleVersion.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestOperationEqual(t *testing.T) {
	t.Parallel()

	k1, err := NewEntityKey("article", int64(1))
	require.NoError(t, err)
	k2, err := NewEntityKey("article", int64(2))
	require.NoError(t, err)

	a := Operation{Key: k1, Kind: Insert}
	b := Operation{Key: k1, Kind: Insert, Processed: true}
	assert.True(t, a.Equal(b), "Processed must not participate in equality")
	assert.True(t, b.Equal(a))

	assert.False(t, a.Equal(Operation{Key: k1, Kind: Update}))
	assert.False(t, a.Equal(Operation{Key: k2, Kind: Insert}))
}
