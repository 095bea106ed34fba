/*
Package cache implements the query-invalidation contract of the talent map.

PURPOSE:
  Every view the service serves (utilization table, bench report, dashboard)
  is derived from the staffing collections. Instead of pushing updates, each
  collection carries a generation counter:

    - a successful mutation bumps the generations of the collections it touched
    - derived views are memoized under the generations they were built from
    - clients poll the generation snapshot and refetch when a number moved

  There is no strong consistency: a reader may observe a view one bump late.

BACKENDS:
  Memory: single process (tests, local dev)
  Redis:  shared between several API replicas (INCR per collection key)

SEE ALSO:
  - staffing/views.go: the memoized views
  - api/handlers.go: GET /api/generations
*/
package cache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Collection names a family of records whose changes invalidate views.
type Collection string

const (
	Employees   Collection = "employees"
	Projects    Collection = "projects"
	Accounts    Collection = "accounts"
	Allocations Collection = "allocations"
	Transitions Collection = "transitions"
	Skills      Collection = "skills"
)

// AllCollections is the fixed set reported by Snapshot.
var AllCollections = []Collection{Employees, Projects, Accounts, Allocations, Transitions, Skills}

// Generations tracks one monotonically increasing counter per collection.
type Generations interface {
	Bump(ctx context.Context, cols ...Collection) error
	Current(ctx context.Context, col Collection) (uint64, error)
	Snapshot(ctx context.Context) (map[Collection]uint64, error)
}

// Fingerprint renders the generations of cols as a stable memo key.
func Fingerprint(ctx context.Context, g Generations, cols ...Collection) (string, error) {
	sorted := append([]Collection(nil), cols...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var b strings.Builder
	for i, c := range sorted {
		gen, err := g.Current(ctx, c)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(c))
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(gen, 10))
	}
	return b.String(), nil
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	gens map[Collection]uint64
}

var _ Generations = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{gens: make(map[Collection]uint64)}
}

func (m *Memory) Bump(_ context.Context, cols ...Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cols {
		m.gens[c]++
	}
	return nil
}

func (m *Memory) Current(_ context.Context, col Collection) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[col], nil
}

func (m *Memory) Snapshot(_ context.Context) (map[Collection]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[Collection]uint64, len(AllCollections))
	for _, c := range AllCollections {
		out[c] = m.gens[c]
	}
	return out, nil
}

// =============================================================================
// MEMO - one value per key, replaced when the key changes
// =============================================================================

// Memo holds the most recent value computed for a fingerprint.
type Memo[T any] struct {
	mu    sync.Mutex
	key   string
	value T
	ok    bool
}

// Get returns the memoized value if it was stored under key.
func (m *Memo[T]) Get(key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok || m.key != key {
		var zero T
		return zero, false
	}
	return m.value, true
}

// Put replaces the memoized value.
func (m *Memo[T]) Put(key string, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key, m.value, m.ok = key, v, true
}
