package spatial

import (
	"testing"

	"battlesim/coords"
	"battlesim/world"
)

func newTestStore(t *testing.T) *world.Store {
	t.Helper()
	return world.NewStore()
}

// TestNearestEnemyTieBreakBySmallestID verifies that when two enemies are
// equidistant, NearestEnemy picks the smaller id deterministically.
func TestNearestEnemyTieBreakBySmallestID(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Spawn(5, world.Red, coords.Position{X: 10, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Spawn(2, world.Red, coords.Position{X: -10, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Spawn(1, world.Blue, coords.Position{X: 0, Y: 0}); err != nil {
		t.Fatal(err)
	}

	grid := NewGrid(20)
	RebuildGrid(grid, store.Components, store.All())

	entry, ok := NearestEnemy(grid, 0, 0, world.Blue, 50)
	if !ok {
		t.Fatal("expected a nearest enemy to be found")
	}
	if entry.ID != 2 {
		t.Errorf("NearestEnemy id = %d, want 2 (smallest of the tied ids)", entry.ID)
	}
}

// TestNearestEnemyRespectsFaction verifies same-faction squads are never
// returned as an enemy.
func TestNearestEnemyRespectsFaction(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Spawn(1, world.Blue, coords.Position{X: 0, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Spawn(2, world.Blue, coords.Position{X: 1, Y: 0}); err != nil {
		t.Fatal(err)
	}

	grid := NewGrid(20)
	RebuildGrid(grid, store.Components, store.All())

	if _, ok := NearestEnemy(grid, 0, 0, world.Blue, 50); ok {
		t.Error("expected no enemy among all-Blue squads")
	}
}

// TestCountFactionExcludesSelf verifies CountFaction doesn't count the
// querying squad itself as a friendly.
func TestCountFactionExcludesSelf(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Spawn(1, world.Blue, coords.Position{X: 0, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Spawn(2, world.Blue, coords.Position{X: 1, Y: 0}); err != nil {
		t.Fatal(err)
	}

	grid := NewGrid(20)
	RebuildGrid(grid, store.Components, store.All())

	count := CountFaction(grid, 0, 0, world.Blue, 1, 50)
	if count != 1 {
		t.Errorf("CountFaction = %d, want 1 (squad 2 only)", count)
	}
}

// TestRebuildGridExcludesDead verifies dead squads drop out of spatial
// queries immediately.
func TestRebuildGridExcludesDead(t *testing.T) {
	store := newTestStore(t)
	e, err := store.Spawn(1, world.Red, coords.Position{X: 0, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	store.Components.CoreOf(e).Dead = true

	grid := NewGrid(20)
	RebuildGrid(grid, store.Components, store.All())

	if _, ok := NearestEnemy(grid, 0, 0, world.Blue, 50); ok {
		t.Error("expected dead squad to be excluded from spatial queries")
	}
}
