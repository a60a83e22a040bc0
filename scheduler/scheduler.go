// Package scheduler advances the simulation by one fixed-size tick at a
// time, running the five ordered system groups from spec.md §4.2: spatial/
// LOD, perception, behavior, core simulation, and environment. Systems
// within a group that only read and write their own squad's components run
// concurrently over disjoint chunks via golang.org/x/sync/errgroup; systems
// with a genuine ordering dependency (rebuilding the grid before anyone
// queries it, gathering combat before applying it) run sequentially.
package scheduler

import (
	"context"

	"battlesim/behavior"
	"battlesim/combat"
	"battlesim/config"
	"battlesim/coords"
	"battlesim/movement"
	"battlesim/perception"
	"battlesim/spatial"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/bytearena/ecs"
	"golang.org/x/sync/errgroup"
)

// World bundles everything one tick needs. The scheduler package owns no
// state of its own; it's handed fresh references every call so the sim
// package can own lifetime and the scheduler stays trivially testable.
type World struct {
	Store       *world.Store
	Grid        *spatial.Grid
	Sectors     *spatial.SectorIndex
	Terrain     *terrain.Grid
	CombatLog   *combat.Log
	Destructibles []*terrain.Destructible
}

// TickResult reports what the environment phase produced this tick, for
// the snapshot layer to export (§6).
type TickResult struct {
	Tick             uint64
	NewCraters       []terrain.CraterEvent
	DestructionEvents []terrain.DestructionEvent
}

// chunkSize bounds how many entities a single errgroup goroutine handles,
// so the parallel phases don't spin up one goroutine per squad.
const chunkSize = 256

// Run advances w by exactly one fixed tick of cfg.Rate.FixedTimestep()
// seconds, given pending crater events spawned by callers since the last
// tick (e.g. spawn_barrage).
func Run(ctx context.Context, w *World, cfg config.SimConfig, tick uint64, pendingCraters []terrain.CraterEvent) (TickResult, error) {
	dt := cfg.Rate.FixedTimestep()
	entities := w.Store.All()

	// Group 1: spatial + LOD, sequential — every later phase depends on a
	// consistent grid for this tick.
	spatial.RebuildGrid(w.Grid, w.Store.Components, entities)
	spatial.RebuildSectors(w.Sectors, w.Store.Components, entities, cfg.BaseDPS)
	assignLOD(w.Store.Components, entities, w.Grid, cfg)

	active := activeThisTick(w.Store.Components, entities, tick)

	// Group 2: perception, parallel over disjoint squads.
	if err := forEachChunk(ctx, active, func(e *ecs.Entity) error {
		perception.Update(w.Store.Components, e, w.Grid, w.Terrain, cfg)
		return nil
	}); err != nil {
		return TickResult{}, err
	}

	// Group 3: behavior — FSM transition, then order interpretation and
	// flocking steering into a velocity. Parallel over disjoint squads.
	if err := forEachChunk(ctx, active, func(e *ecs.Entity) error {
		core := w.Store.Components.CoreOf(e)
		cache := w.Store.Components.PerceptionOf(e)
		pos := w.Store.Components.PositionOf(e)
		if core == nil || cache == nil || pos == nil || core.Dead {
			return nil
		}
		behavior.Transition(core, cache, cfg)

		enemyPos, hasEnemy := nearestEnemyPosition(w.Grid, *pos, core.Faction, cfg.SightRadius)
		desired := behavior.DesiredVelocity(core, *pos, enemyPos, hasEnemy, cfg)
		v := behavior.Flock(w.Grid, w.Store.Components, e, desired, cfg.SeparationRadius, cfg.FlockingWeight)
		v = v.Scaled(behavior.SpeedFactor(core, cfg))
		movement.SetVelocity(w.Store.Components, e, v)
		return nil
	}); err != nil {
		return TickResult{}, err
	}

	// Group 4: core simulation, sequential — combat is gather/apply across
	// the whole population, and movement reads the velocity behavior just
	// set, so these can't be sharded per-squad independently of each other.
	pending := combat.Gather(w.Grid, w.Store.Components, entities, cfg)
	combat.Apply(pending, w.Store.Components, w.Terrain, cfg, tick, w.Store.Get, w.CombatLog)

	for _, e := range active {
		movement.Integrate(w.Store.Components, e, w.Terrain, dt)
	}

	// Group 5: environment, parallel decay pass then sequential terrain
	// damage (terrain/destructible mutation is shared state, not per-squad).
	if err := forEachChunk(ctx, active, func(e *ecs.Entity) error {
		combat.DecaySuppression(w.Store.Components, e, cfg, tick, dt)
		return nil
	}); err != nil {
		return TickResult{}, err
	}

	applied := terrain.ApplyCraters(w.Terrain, pendingCraters)
	destroyed := terrain.ApplyCraterDamage(w.Destructibles, applied)

	return TickResult{Tick: tick, NewCraters: applied, DestructionEvents: destroyed}, nil
}

// activeThisTick filters to squads whose LOD tier is due to update this
// tick (tick % divisor, phased by squad id so same-tier squads don't all
// land on the same tick). Dead squads never participate.
func activeThisTick(comps *world.Components, entities []*ecs.Entity, tick uint64) []*ecs.Entity {
	out := make([]*ecs.Entity, 0, len(entities))
	for _, e := range entities {
		core := comps.CoreOf(e)
		lod := comps.LODOf(e)
		if core == nil || core.Dead || lod == nil {
			continue
		}
		divisor := lod.Tier.TickDivisor()
		if (tick+uint64(core.ID))%divisor == 0 {
			out = append(out, e)
		}
	}
	return out
}

// assignLOD sets each squad's LOD tier from its distance to the nearest
// enemy, full detail close to contact and coarser ticking far from it
// (§4.2). It's a skip opportunity, not a correctness requirement: a squad
// with no known enemy defaults to the lowest tier.
func assignLOD(comps *world.Components, entities []*ecs.Entity, grid *spatial.Grid, cfg config.SimConfig) {
	for _, e := range entities {
		core := comps.CoreOf(e)
		pos := comps.PositionOf(e)
		lod := comps.LODOf(e)
		if core == nil || pos == nil || lod == nil || core.Dead {
			continue
		}
		nearest, found := spatial.NearestEnemy(grid, pos.X, pos.Y, core.Faction, cfg.LODLowDistance)
		if !found {
			lod.Tier = world.LODLow
			continue
		}
		switch {
		case distance(*pos, nearest) <= cfg.LODMediumDistance:
			lod.Tier = world.LODHigh
		case distance(*pos, nearest) <= cfg.LODLowDistance:
			lod.Tier = world.LODMedium
		default:
			lod.Tier = world.LODLow
		}
	}
}

func distance(p coords.Position, e spatial.Entry) float64 {
	return p.Distance(coords.Position{X: e.X, Y: e.Y})
}

func nearestEnemyPosition(grid *spatial.Grid, pos coords.Position, faction world.Faction, radius float64) (coords.Position, bool) {
	entry, ok := spatial.NearestEnemy(grid, pos.X, pos.Y, faction, radius)
	if !ok {
		return coords.Position{}, false
	}
	return coords.Position{X: entry.X, Y: entry.Y}, true
}

// forEachChunk runs fn over entities in fixed-size chunks concurrently via
// errgroup, returning the first error encountered (none of the current fn
// implementations actually return an error, but the signature keeps this
// reusable for a future phase that can fail).
func forEachChunk(ctx context.Context, entities []*ecs.Entity, fn func(*ecs.Entity) error) error {
	if len(entities) == 0 {
		return nil
	}
	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(entities); start += chunkSize {
		end := start + chunkSize
		if end > len(entities) {
			end = len(entities)
		}
		chunk := entities[start:end]
		g.Go(func() error {
			for _, e := range chunk {
				if err := fn(e); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
