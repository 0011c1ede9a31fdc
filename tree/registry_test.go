package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRegistry creates a small tree:
//
//	1 (root)
//	├─0→ 2
//	│    ├─0→ 4
//	│    └─3→ 5
//	├─1→ 3
//	└─3→ 6
func buildRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()

	_, err := r.Add(1, 0, 0)
	require.NoError(t, err)
	for _, n := range []struct {
		id, parent uint64
		pos        uint8
	}{
		{2, 1, 0}, {3, 1, 1}, {6, 1, 3},
		{4, 2, 0}, {5, 2, 3},
	} {
		_, err := r.Add(n.id, n.parent, n.pos)
		require.NoError(t, err)
	}
	return r
}

func TestRegistry_AddRootRules(t *testing.T) {
	r := NewRegistry()

	_, err := r.Add(1, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidRoot)
	_, err = r.Add(1, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidRoot)

	e, err := r.Add(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Path.Len())
	assert.Equal(t, uint64(1), r.RootID())
}

func TestRegistry_AddShapeErrors(t *testing.T) {
	r := buildRegistry(t)

	_, err := r.Add(2, 1, 2)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, err = r.Add(99, 77, 0)
	assert.ErrorIs(t, err, ErrParentNotFound)

	_, err = r.Add(99, 1, 4)
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = r.Add(99, 1, 0)
	assert.ErrorIs(t, err, ErrPositionOccupied)

	occ := r.Occupied(1)
	assert.Equal(t, [MaxChildren]bool{true, true, false, true}, occ)
}

func TestRegistry_PathEqualsParentPlusPosition(t *testing.T) {
	r := buildRegistry(t)

	for _, id := range []uint64{2, 3, 4, 5, 6} {
		e, err := r.Get(id)
		require.NoError(t, err)
		parent, err := r.Get(e.ParentID)
		require.NoError(t, err)

		want := parent.Path.Append(e.Position)
		assert.Equal(t, want.Positions(), e.Path.Positions(), "node %d", id)
		assert.Equal(t, parent.Path.Len()+1, e.Path.Len(), "node %d", id)
	}
}

func TestRegistry_IsAncestor(t *testing.T) {
	r := buildRegistry(t)

	tests := []struct {
		name     string
		root     uint64
		cand     uint64
		wantOK   bool
		wantPos  uint8
	}{
		{"self", 1, 1, true, SelfPosition},
		{"direct child", 1, 2, true, 0},
		{"grandchild via 0", 1, 4, true, 0},
		{"grandchild via 0 again", 1, 5, true, 0},
		{"direct child pos 3", 1, 6, true, 3},
		{"subtree of 2", 2, 5, true, 3},
		{"sibling not descendant", 2, 3, false, 0},
		{"ancestor not descendant", 4, 1, false, 0},
		{"cousin", 3, 4, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, pos, err := r.IsAncestor(tt.root, tt.cand)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPos, pos)
			}
		})
	}
}

func TestRegistry_IsAncestorUnknownNode(t *testing.T) {
	r := buildRegistry(t)

	_, _, err := r.IsAncestor(1, 42)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, _, err = r.IsAncestor(42, 1)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// Appending a position and testing ancestry recovers the same position.
func TestRegistry_AppendTestRoundTrip(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(1, 0, 0)
	require.NoError(t, err)

	parent := uint64(1)
	id := uint64(2)
	// Deep chain so paths cross a word boundary.
	for depth := 0; depth < 2*SlotsPerWord; depth++ {
		pos := uint8(depth % MaxChildren)
		_, err := r.Add(id, parent, pos)
		require.NoError(t, err)

		ok, gotPos, err := r.IsAncestor(parent, id)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, pos, gotPos)

		ok, rootPos, err := r.IsAncestor(1, id)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint8(0), rootPos, "everything descends through root's position-0 child")

		parent = id
		id++
	}
}

func TestRegistry_CloneShapeIsolation(t *testing.T) {
	r := buildRegistry(t)
	clone := r.CloneShape()

	_, err := clone.Add(99, 1, 2)
	require.NoError(t, err)

	// The original must not see the clone's occupancy change.
	_, err = r.Add(100, 1, 2)
	assert.NoError(t, err)
}
