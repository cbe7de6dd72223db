package version

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/foodlang/tarjama/internal/models"
)

func testEntries(n int) []models.GlossaryEntry {
	entries := make([]models.GlossaryEntry, n)
	for i := range entries {
		entries[i] = models.GlossaryEntry{
			Source: fmt.Sprintf("term %d", i),
			Target: fmt.Sprintf("مصطلح %d", i),
			Row:    i + 2,
		}
	}
	return entries
}

func fixedEmbed(dims int) EmbedFunc {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		vecs := make([][]float32, len(texts))
		for i := range vecs {
			v := make([]float32, dims)
			v[i%dims] = 1
			vecs[i] = v
		}
		return vecs, nil
	}
}

func TestRebuildCommitsNewVersion(t *testing.T) {
	m := NewManager(10)
	if m.Active() != nil {
		t.Fatal("expected no active version before first commit")
	}

	v, err := m.Rebuild(context.Background(), testEntries(3), "glossary.xlsx", fixedEmbed(4))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if v.ID != 1 {
		t.Errorf("expected version id 1, got %d", v.ID)
	}
	if m.Active() != v {
		t.Error("committed version is not active")
	}
	if v.Snapshot.Len() != 3 {
		t.Errorf("expected 3 vectors, got %d", v.Snapshot.Len())
	}
}

func TestRebuildFailureLeavesActiveUntouched(t *testing.T) {
	m := NewManager(10)
	first, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	embedErr := errors.New("upstream unavailable")
	_, err = m.Rebuild(context.Background(), testEntries(5), "v2.xlsx", func(context.Context, []string) ([][]float32, error) {
		return nil, embedErr
	})
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected embed error, got %v", err)
	}
	if m.Active() != first {
		t.Error("failed rebuild replaced the active version")
	}
	if got := len(m.History()); got != 1 {
		t.Errorf("failed rebuild mutated history, %d entries", got)
	}
}

func TestRebuildCountMismatch(t *testing.T) {
	m := NewManager(10)
	_, err := m.Rebuild(context.Background(), testEntries(3), "x.xlsx", func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	})
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
}

func TestRebuildDimensionMismatch(t *testing.T) {
	m := NewManager(10)
	if _, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	_, err := m.Rebuild(context.Background(), testEntries(2), "v2.xlsx", fixedEmbed(8))
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError on dimension change, got %v", err)
	}
	if m.Active().ID != 1 {
		t.Error("dimension mismatch replaced the active version")
	}
}

func TestConcurrentRebuildRejected(t *testing.T) {
	m := NewManager(10)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := m.Rebuild(context.Background(), testEntries(2), "slow.xlsx", func(_ context.Context, texts []string) ([][]float32, error) {
			close(started)
			<-release
			return fixedEmbed(4)(context.Background(), texts)
		})
		done <- err
	}()

	<-started
	_, err := m.Rebuild(context.Background(), testEntries(2), "second.xlsx", fixedEmbed(4))
	if !errors.Is(err, ErrBuildInProgress) {
		t.Fatalf("expected ErrBuildInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	if m.Active().Source != "slow.xlsx" {
		t.Errorf("unexpected active source %q", m.Active().Source)
	}

	// slot is free again after the first build completes
	if _, err := m.Rebuild(context.Background(), testEntries(2), "third.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild after release: %v", err)
	}
}

func TestRollback(t *testing.T) {
	m := NewManager(10)
	v1, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := m.Rebuild(context.Background(), testEntries(3), "v2.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	got, err := m.Rollback(v1.ID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got.ID != v1.ID {
		t.Errorf("rollback returned version %d, want %d", got.ID, v1.ID)
	}
	if got.Snapshot != v1.Snapshot || got.Keywords != v1.Keywords {
		t.Error("rollback rebuilt the index instead of reusing the target's")
	}
	if got.Source != "rollback:1" {
		t.Errorf("rollback source = %q", got.Source)
	}
	if m.Active() != got {
		t.Error("rollback did not activate the target version")
	}

	hist := m.History()
	if len(hist) != 3 {
		t.Fatalf("expected 3 history entries after rollback, got %d", len(hist))
	}
	if hist[0].ID != v1.ID || !hist[0].Active {
		t.Errorf("newest history entry should be the active rollback target, got %+v", hist[0])
	}
	if hist[0].Source != "rollback:1" || hist[2].Source != "v1.xlsx" {
		t.Errorf("history sources = %q, %q", hist[0].Source, hist[2].Source)
	}
	if hist[0].CreatedAt.Before(hist[2].CreatedAt) {
		t.Error("rollback entry older than the commit it re-activates")
	}
}

func TestRollbackUnknownID(t *testing.T) {
	m := NewManager(10)
	if _, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	_, err := m.Rollback(99)
	var re *RollbackError
	if !errors.As(err, &re) {
		t.Fatalf("expected RollbackError, got %v", err)
	}
	if re.ID != 99 {
		t.Errorf("expected id 99 in error, got %d", re.ID)
	}
	if m.Active().ID != 1 {
		t.Error("failed rollback changed the active version")
	}
}

func TestHistoryEvictionKeepsActive(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 3; i++ {
		if _, err := m.Rebuild(context.Background(), testEntries(2), fmt.Sprintf("v%d.xlsx", i+1), fixedEmbed(4)); err != nil {
			t.Fatalf("rebuild: %v", err)
		}
	}

	// activate the oldest entry, then push new versions so it would be
	// first in line for eviction
	if _, err := m.Rollback(1); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := m.Rebuild(context.Background(), testEntries(2), "v4.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	hist := m.History()
	if len(hist) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(hist))
	}
	if hist[0].ID != 4 || !hist[0].Active {
		t.Errorf("expected newest active entry v4, got %+v", hist[0])
	}
}

func TestHistoryNeverEvictsActive(t *testing.T) {
	m := NewManager(2)
	if _, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for i := 2; i <= 4; i++ {
		if _, err := m.Rollback(1); err != nil {
			t.Fatalf("rollback: %v", err)
		}
	}

	active := 0
	for _, h := range m.History() {
		if h.Active {
			active++
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active history entry, got %d", active)
	}
}

func TestHistoryBoundedUnderRepeatedRollback(t *testing.T) {
	m := NewManager(2)
	if _, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// rolling back to the already-active version must not grow history
	// past capacity
	for i := 0; i < 5; i++ {
		if _, err := m.Rollback(1); err != nil {
			t.Fatalf("rollback: %v", err)
		}
	}

	hist := m.History()
	if len(hist) > 2 {
		t.Fatalf("history has %d entries, capacity is 2", len(hist))
	}
	if !hist[0].Active || hist[0].Source != "rollback:1" {
		t.Errorf("newest entry = %+v", hist[0])
	}
}

func TestInFlightReaderKeepsOldVersion(t *testing.T) {
	m := NewManager(10)
	if _, err := m.Rebuild(context.Background(), testEntries(2), "v1.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	held := m.Active()
	if _, err := m.Rebuild(context.Background(), testEntries(5), "v2.xlsx", fixedEmbed(4)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if held.Snapshot.Len() != 2 {
		t.Error("held version was mutated by a later commit")
	}
	if m.Active().Snapshot.Len() != 5 {
		t.Error("new version not active")
	}
}
