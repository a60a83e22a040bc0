package combat

import (
	"testing"

	"battlesim/config"
	"battlesim/coords"
	"battlesim/spatial"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/bytearena/ecs"
)

func newEngagingSquad(t *testing.T, store *world.Store, id uint32, faction world.Faction, pos coords.Position, nearestID uint32, dist float64) *ecs.Entity {
	t.Helper()
	e, err := store.Spawn(id, faction, pos)
	if err != nil {
		t.Fatalf("Spawn(%d): %v", id, err)
	}
	core := store.Components.CoreOf(e)
	core.Size = 4
	core.Health, core.HealthMax = 100, 100
	core.Behavior = world.Engaging
	cache := store.Components.PerceptionOf(e)
	cache.HasNearestEnemy = true
	cache.NearestEnemyID = nearestID
	cache.NearestEnemyDist = dist
	return e
}

// TestGatherSkipsNonEngagingSquads verifies only Engaging squads within
// fire range contribute a pending result.
func TestGatherSkipsNonEngagingSquads(t *testing.T) {
	store := world.NewStore()
	attacker := newEngagingSquad(t, store, 1, world.Blue, coords.Position{}, 2, 10)
	_ = attacker
	idle, err := store.Spawn(3, world.Blue, coords.Position{X: 5})
	if err != nil {
		t.Fatal(err)
	}
	store.Components.CoreOf(idle).Behavior = world.Idle

	cfg := config.DefaultSimConfig()
	cfg.FireRange = 60

	grid := spatial.NewGrid(cfg.CellSize)
	spatial.RebuildGrid(grid, store.Components, store.All())

	pending := Gather(grid, store.Components, store.All(), cfg)
	if len(pending) != 1 {
		t.Fatalf("got %d pending results, want 1", len(pending))
	}
	if pending[0].AttackerID != 1 || pending[0].TargetID != 2 {
		t.Errorf("pending result = %+v, want attacker=1 target=2", pending[0])
	}
}

// TestApplyOrdersDeterministicallyByTargetThenAttacker verifies combat
// results are applied in ascending (target, attacker) order regardless of
// the input slice's order.
func TestApplyOrdersDeterministicallyByTargetThenAttacker(t *testing.T) {
	store := world.NewStore()
	target, err := store.Spawn(10, world.Red, coords.Position{})
	if err != nil {
		t.Fatal(err)
	}
	core := store.Components.CoreOf(target)
	core.Health, core.HealthMax = 100, 100

	var order []uint32
	pending := []PendingResult{
		{AttackerID: 3, TargetID: 10, Damage: 1},
		{AttackerID: 1, TargetID: 10, Damage: 1},
		{AttackerID: 2, TargetID: 10, Damage: 1},
	}

	byID := func(id uint32) (*ecs.Entity, bool) {
		order = append(order, id)
		return store.Get(id)
	}

	cfg := config.DefaultSimConfig()
	Apply(pending, store.Components, nil, cfg, 1, byID, nil)

	want := []uint32{10, 10, 10}
	if len(order) != len(want) {
		t.Fatalf("byID called %d times, want %d", len(order), len(want))
	}

	// The first Apply sorted pending in place, so hand the logged run a
	// fresh, unsorted slice.
	unsorted := []PendingResult{
		{AttackerID: 3, TargetID: 10, Damage: 1},
		{AttackerID: 1, TargetID: 10, Damage: 1},
		{AttackerID: 2, TargetID: 10, Damage: 1},
	}
	log := &Log{}
	Apply(unsorted, store.Components, nil, cfg, 1, store.Get, log)
	if len(log.Entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(log.Entries))
	}
	for i := 1; i < len(log.Entries); i++ {
		if log.Entries[i].AttackerID < log.Entries[i-1].AttackerID {
			t.Errorf("log entries not ascending by attacker id: %+v", log.Entries)
		}
	}
}

// TestApplyReducesCoverDamage verifies terrain cover lowers applied damage.
func TestApplyReducesCoverDamage(t *testing.T) {
	store := world.NewStore()
	target, err := store.Spawn(1, world.Red, coords.Position{X: 30, Y: 30})
	if err != nil {
		t.Fatal(err)
	}
	core := store.Components.CoreOf(target)
	core.Health, core.HealthMax = 100, 100

	grid := terrain.NewGrid(10, 10, coords.Position{}, 10)
	col, row := grid.CellCoord(coords.Position{X: 30, Y: 30})
	grid.SetType(col, row, terrain.Trench) // 0.7 cover

	pending := []PendingResult{{AttackerID: 2, TargetID: 1, Damage: 100}}
	cfg := config.DefaultSimConfig()
	Apply(pending, store.Components, grid, cfg, 1, store.Get, nil)

	if core.Health != 70 {
		t.Errorf("health after cover = %v, want 70 (100 damage reduced to 30 by 0.7 cover)", core.Health)
	}
}

// TestApplyMarksDeadOnLethalDamage verifies a squad that drops to zero
// health is marked dead exactly once, at the tick it died.
func TestApplyMarksDeadOnLethalDamage(t *testing.T) {
	store := world.NewStore()
	target, err := store.Spawn(1, world.Red, coords.Position{})
	if err != nil {
		t.Fatal(err)
	}
	core := store.Components.CoreOf(target)
	core.Health, core.HealthMax = 10, 10

	cfg := config.DefaultSimConfig()
	Apply([]PendingResult{{AttackerID: 9, TargetID: 1, Damage: 50}}, store.Components, nil, cfg, 42, store.Get, nil)

	if !core.Dead {
		t.Fatal("expected squad to be marked dead")
	}
	if core.DeathTick != 42 {
		t.Errorf("DeathTick = %d, want 42", core.DeathTick)
	}
	if core.Health != 0 {
		t.Errorf("Health = %v, want clamped to 0", core.Health)
	}
}
