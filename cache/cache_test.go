package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_BumpAndSnapshot(t *testing.T) {
	ctx := context.Background()
	g := NewMemory()

	require.NoError(t, g.Bump(ctx, Allocations, Employees))
	require.NoError(t, g.Bump(ctx, Allocations))

	n, err := g.Current(ctx, Allocations)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	snap, err := g.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap, len(AllCollections))
	assert.Equal(t, uint64(1), snap[Employees])
	assert.Equal(t, uint64(0), snap[Projects])
}

func TestMemory_ConcurrentBumps(t *testing.T) {
	ctx := context.Background()
	g := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Bump(ctx, Projects)
		}()
	}
	wg.Wait()

	n, _ := g.Current(ctx, Projects)
	assert.Equal(t, uint64(50), n)
}

func TestFingerprint_ChangesOnlyWithWatchedCollections(t *testing.T) {
	ctx := context.Background()
	g := NewMemory()

	before, err := Fingerprint(ctx, g, Employees, Allocations)
	require.NoError(t, err)
	assert.Equal(t, "allocations=0,employees=0", before)

	// WHEN: an unrelated collection changes
	require.NoError(t, g.Bump(ctx, Accounts))
	same, _ := Fingerprint(ctx, g, Allocations, Employees)
	assert.Equal(t, before, same)

	// WHEN: a watched one changes
	require.NoError(t, g.Bump(ctx, Allocations))
	after, _ := Fingerprint(ctx, g, Employees, Allocations)
	assert.NotEqual(t, before, after)
}

func TestMemo(t *testing.T) {
	var m Memo[[]int]

	_, ok := m.Get("k1")
	assert.False(t, ok)

	m.Put("k1", []int{1, 2})
	v, ok := m.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)

	_, ok = m.Get("k2")
	assert.False(t, ok)
}
