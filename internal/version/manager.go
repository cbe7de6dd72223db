package version

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foodlang/tarjama/internal/glossary"
	"github.com/foodlang/tarjama/internal/keyword"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/vector"
)

// EmbedFunc embeds a batch of texts. The returned slice must be positionally
// aligned with the input.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Version is an immutable committed glossary index. Once built it is never
// mutated; readers hold a *Version for the duration of a request and are
// unaffected by later commits.
type Version struct {
	ID        uint64
	CreatedAt time.Time
	Source    string
	Entries   []models.GlossaryEntry
	Snapshot  *vector.Snapshot
	Keywords  *keyword.Index
}

// Manager owns the active version pointer and a bounded history of past
// versions. Reads are a single atomic pointer load; commits build the new
// version off to the side and swap the pointer only on success.
type Manager struct {
	capacity int

	active   atomic.Pointer[Version]
	building atomic.Bool

	mu      sync.Mutex
	history []*Version
	nextID  uint64
}

// NewManager creates a manager with the given history capacity. Capacity
// counts history entries, including rollback re-appends.
func NewManager(capacity int) *Manager {
	if capacity < 1 {
		capacity = 1
	}
	return &Manager{capacity: capacity, nextID: 1}
}

// Active returns the currently active version, or nil before the first
// commit. Callers must treat the result as read-only.
func (m *Manager) Active() *Version {
	return m.active.Load()
}

// Rebuild embeds the glossary entries and commits a new active version.
// Only one build may be in flight at a time; a concurrent call fails fast
// with ErrBuildInProgress. On any error the previously active version
// remains in place.
func (m *Manager) Rebuild(ctx context.Context, entries []models.GlossaryEntry, source string, embed EmbedFunc) (*Version, error) {
	if !m.building.CompareAndSwap(false, true) {
		return nil, ErrBuildInProgress
	}
	defer m.building.Store(false)

	if len(entries) == 0 {
		return nil, &BuildError{Reason: "no glossary entries"}
	}

	vectors, err := embed(ctx, glossary.CombinedTexts(entries))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.commit(entries, vectors, source)
}

func (m *Manager) commit(entries []models.GlossaryEntry, vectors [][]float32, source string) (*Version, error) {
	if len(vectors) != len(entries) {
		return nil, &BuildError{Reason: "embedding count does not match entry count"}
	}

	snap, err := vector.Build(vectors)
	if err != nil {
		return nil, &BuildError{Reason: "vector snapshot", Err: err}
	}
	if cur := m.active.Load(); cur != nil && cur.Snapshot.Dimensions() != snap.Dimensions() {
		return nil, &BuildError{Reason: "embedding dimensions differ from active version"}
	}

	kw, err := keyword.Build(entries)
	if err != nil {
		return nil, &BuildError{Reason: "keyword index", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v := &Version{
		ID:        m.nextID,
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Entries:   entries,
		Snapshot:  snap,
		Keywords:  kw,
	}
	m.nextID++

	m.active.Store(v)
	m.appendLocked(v)
	return v, nil
}

// Rollback makes a version already present in history the active one. The
// rollback is recorded as its own history entry with a fresh timestamp and
// a "rollback:<id>" source, so a later rollback can step past a mistaken
// one and the listing shows when each activation happened.
func (m *Manager) Rollback(id uint64) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *Version
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].ID == id {
			target = m.history[i]
			break
		}
	}
	if target == nil {
		return nil, &RollbackError{ID: id}
	}

	// Same id and immutable index data, new history identity.
	re := &Version{
		ID:        target.ID,
		CreatedAt: time.Now().UTC(),
		Source:    fmt.Sprintf("rollback:%d", target.ID),
		Entries:   target.Entries,
		Snapshot:  target.Snapshot,
		Keywords:  target.Keywords,
	}
	m.active.Store(re)
	m.appendLocked(re)
	return re, nil
}

// appendLocked appends v to history and evicts the oldest non-active entry
// when over capacity. The active version is never evicted; since every
// append installs a distinct *Version, at most one entry is active and an
// over-capacity history always has something to evict. Caller holds mu.
func (m *Manager) appendLocked(v *Version) {
	m.history = append(m.history, v)
	if len(m.history) <= m.capacity {
		return
	}
	cur := m.active.Load()
	for i, h := range m.history {
		if h == cur {
			continue
		}
		m.history = append(m.history[:i], m.history[i+1:]...)
		return
	}
}

// History lists history entries newest first.
func (m *Manager) History() []models.VersionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.active.Load()
	out := make([]models.VersionInfo, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		h := m.history[i]
		out = append(out, models.VersionInfo{
			ID:        h.ID,
			CreatedAt: h.CreatedAt,
			Source:    h.Source,
			Entries:   len(h.Entries),
			Active:    h == cur,
		})
	}
	return out
}
