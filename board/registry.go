package board

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haashirideassion/workforcemanagement-sub000/metrics"
)

var ErrSessionNotFound = errors.New("board session not found")

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 30 * time.Minute

// Registry keeps one Board per operator session. Sessions untouched for
// longer than the TTL are evicted lazily on Open and Get.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Board

	staffing  Staffing
	log       zerolog.Logger
	tolerance float64
	ttl       time.Duration
	now       func() time.Time
}

func NewRegistry(s Staffing, logger zerolog.Logger, tolerance float64, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		sessions:  make(map[string]*Board),
		staffing:  s,
		log:       logger,
		tolerance: tolerance,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Open starts a new idle session and returns its id.
func (r *Registry) Open() (string, *Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()

	id := uuid.NewString()
	b := New(r.staffing, r.log.With().Str("session", id).Logger(), r.tolerance)
	b.now = r.now
	b.lastUsed = r.now()
	r.sessions[id] = b
	metrics.BoardSessions.Set(float64(len(r.sessions)))
	return id, b
}

func (r *Registry) Get(id string) (*Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()

	b, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	b.mu.Lock()
	b.lastUsed = r.now()
	b.mu.Unlock()
	return b, nil
}

// Close drops a session. Any pending draft is discarded without writing.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	metrics.BoardSessions.Set(float64(len(r.sessions)))
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, b := range r.sessions {
		b.mu.Lock()
		stale := b.lastUsed.Before(cutoff)
		b.mu.Unlock()
		if stale {
			delete(r.sessions, id)
			r.log.Debug().Str("session", id).Msg("evicted idle board session")
		}
	}
	metrics.BoardSessions.Set(float64(len(r.sessions)))
}
