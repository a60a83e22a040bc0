package scheduler

import (
	"context"
	"testing"

	"battlesim/config"
	"battlesim/coords"
	"battlesim/spatial"
	"battlesim/terrain"
	"battlesim/world"
)

// TestRunAdvancesEngagingSquadsTowardEachOther verifies a single tick moves
// two opposing squads under attack-move orders closer together and that
// Run doesn't error on a small, well-formed world.
func TestRunAdvancesEngagingSquadsTowardEachOther(t *testing.T) {
	cfg := config.DefaultSimConfig()
	store := world.NewStore()

	blue, err := store.Spawn(1, world.Blue, coords.Position{X: 0, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	red, err := store.Spawn(2, world.Red, coords.Position{X: 200, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range []struct {
		entity *world.SquadCore
	}{{store.Components.CoreOf(blue)}, {store.Components.CoreOf(red)}} {
		e.entity.Size = 4
		e.entity.Health, e.entity.HealthMax = 100, 100
		e.entity.Morale = 1
	}
	store.Components.CoreOf(blue).Order = world.Order{Kind: world.OrderAttackMove, X: 200, Y: 0}
	store.Components.CoreOf(red).Order = world.Order{Kind: world.OrderAttackMove, X: 0, Y: 0}

	w := &World{
		Store:   store,
		Grid:    spatial.NewGrid(cfg.CellSize),
		Sectors: spatial.NewSectorIndex(cfg.SectorSize),
		Terrain: terrain.NewGrid(50, 50, coords.Position{}, cfg.CellSize),
	}

	startDist := store.Components.PositionOf(blue).Distance(*store.Components.PositionOf(red))

	if _, err := Run(context.Background(), w, cfg, 0, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	endDist := store.Components.PositionOf(blue).Distance(*store.Components.PositionOf(red))
	if endDist >= startDist {
		t.Errorf("distance after tick = %v, want less than start %v", endDist, startDist)
	}
}
