// Package sim is the top-level simulation: it owns every subsystem's state
// and exposes the public command surface from spec.md §6 (step, spawn_squad,
// spawn_mass, issue_*_order, spawn_crater, spawn_barrage, current_tick,
// current_time). It plays the role the teacher's game_main.Game struct
// plays for the roguelike — the one type that wires every subsystem
// together — but owns none of the presentation half of that struct
// (rendering, input, GUI), per §1's scope boundary.
package sim

import (
	"context"
	"fmt"

	"battlesim/combat"
	"battlesim/config"
	"battlesim/coords"
	"battlesim/scheduler"
	"battlesim/simerr"
	"battlesim/snapshot"
	"battlesim/spatial"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a Simulation at construction time.
type Option func(*Simulation)

// WithLogger attaches a zap logger; the default is a no-op logger so tests
// and embedders that don't care about logs pay nothing for it.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}

// Simulation advances a deterministic battle from caller-issued commands.
// A Simulation is not safe for concurrent use: commands and Step calls must
// come from a single goroutine (§5). Order commands are written straight
// into the addressed squad's component when issued; there is no separate
// order queue drained at tick time.
type Simulation struct {
	cfg     config.SimConfig
	logger  *zap.Logger
	runID   string

	store   *world.Store
	grid    *spatial.Grid
	sectors *spatial.SectorIndex
	terrain *terrain.Grid
	combatLog *combat.Log

	destructibles []*terrain.Destructible
	nextDestructibleID uint32

	pendingCraters []terrain.CraterEvent

	lastNewCraters       []terrain.CraterEvent
	lastDestructionEvents []terrain.DestructionEvent

	tick     uint64
	simTime  float64
	accumulator float64

	rng deterministicRNG
}

// New constructs a Simulation over the given terrain, ready to accept
// commands. terrainGrid ownership transfers to the Simulation.
func New(cfg config.SimConfig, terrainGrid *terrain.Grid, opts ...Option) *Simulation {
	var log *combat.Log
	if cfg.EnableCombatLog {
		log = &combat.Log{}
	}

	s := &Simulation{
		cfg:       cfg,
		logger:    zap.NewNop(),
		runID:     uuid.NewString(),
		store:     world.NewStore(),
		grid:      spatial.NewGrid(cfg.CellSize),
		sectors:   spatial.NewSectorIndex(cfg.SectorSize),
		terrain:   terrainGrid,
		combatLog: log,
		rng:       newDeterministicRNG(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("run_id", s.runID))
	return s
}

// CurrentTick returns the number of fixed ticks advanced so far.
func (s *Simulation) CurrentTick() uint64 { return s.tick }

// CurrentTime returns simulated time in seconds.
func (s *Simulation) CurrentTime() float64 { return s.simTime }

// Step advances the simulation by deltaSeconds of wall-clock time using a
// fixed-timestep accumulator (§4.2): zero or more whole ticks run, and any
// leftover fraction carries to the next Step call. A pathologically large
// delta (e.g. the process was paused) is clamped to MaxDeltaTicks ticks'
// worth before it is accumulated, so at most MaxDeltaTicks ticks run per
// call and no backlog builds up (avoiding a spiral of death).
func (s *Simulation) Step(ctx context.Context, deltaSeconds float64) error {
	dt := s.cfg.Rate.FixedTimestep()
	if maxDelta := float64(s.cfg.MaxDeltaTicks) * dt; deltaSeconds > maxDelta {
		deltaSeconds = maxDelta
	}
	s.accumulator += deltaSeconds

	ranTicks := 0
	for s.accumulator >= dt && ranTicks < s.cfg.MaxDeltaTicks {
		craters := s.pendingCraters
		s.pendingCraters = nil

		w := &scheduler.World{
			Store: s.store, Grid: s.grid, Sectors: s.sectors,
			Terrain: s.terrain, CombatLog: s.combatLog, Destructibles: s.destructibles,
		}
		result, err := scheduler.Run(ctx, w, s.cfg, s.tick, craters)
		if err != nil {
			return fmt.Errorf("sim: tick %d: %w", s.tick, err)
		}

		s.reapDead(result.Tick)
		s.lastNewCraters = result.NewCraters
		s.lastDestructionEvents = result.DestructionEvents

		s.tick++
		s.simTime += dt
		s.accumulator -= dt
		ranTicks++
	}

	if s.store.Len() > s.cfg.EffectiveSoftLimit() {
		s.logger.Warn("squad soft limit exceeded",
			zap.Int("count", s.store.Len()), zap.Int("limit", s.cfg.EffectiveSoftLimit()))
	}

	return nil
}

// reapDead removes squads that died on a prior tick, keeping the dead
// squad visible in the snapshot for exactly the tick it died (so callers
// can render/react to the death) before dropping it from the store. Dead
// squads are already excluded from spatial queries immediately (§D.3);
// this only controls when they leave the store entirely.
func (s *Simulation) reapDead(tick uint64) {
	for _, e := range s.store.All() {
		core := s.store.Components.CoreOf(e)
		if core != nil && core.Dead && core.DeathTick < tick {
			s.store.Remove(core.ID)
		}
	}
}

// SpawnSquad creates one squad at (x, y). Returns IdConflict if id is
// already in use.
func (s *Simulation) SpawnSquad(id uint32, faction world.Faction, x, y float64, size int, healthMax float64) error {
	pos := s.clampToBounds(coords.Position{X: x, Y: y})
	e, err := s.store.Spawn(id, faction, pos)
	if err != nil {
		return err
	}
	core := s.store.Components.CoreOf(e)
	core.Size = size
	core.HealthMax = healthMax
	core.Health = healthMax
	core.Morale = 1
	return nil
}

// SpawnMass creates count squads of faction scattered deterministically in
// a disk of the given spread around (cx, cy), with ids start..start+count-1.
// The operation is atomic: if any id in the range already exists, no squad
// in the batch is created and the first conflicting id is returned.
func (s *Simulation) SpawnMass(faction world.Faction, cx, cy float64, count int, spread float64, start uint32, size int, healthMax float64) error {
	for i := 0; i < count; i++ {
		id := start + uint32(i)
		if s.store.Has(id) {
			return &simerr.IdConflict{ID: id}
		}
	}

	for i := 0; i < count; i++ {
		id := start + uint32(i)
		offset := s.rng.diskPoint(spread)
		if err := s.SpawnSquad(id, faction, cx+offset.X, cy+offset.Y, size, healthMax); err != nil {
			return err // unreachable given the pre-check above, but never leaves a half-applied batch
		}
	}
	return nil
}

func (s *Simulation) clampToBounds(p coords.Position) coords.Position {
	if s.terrain == nil {
		return p
	}
	minX, minY, maxX, maxY := s.terrain.Bounds()
	clamped := p.Clamp(minX, minY, maxX, maxY)
	if clamped != p {
		s.logger.Debug("position clamped to bounds", zap.Error(&simerr.OutOfBounds{X: p.X, Y: p.Y, ClampedX: clamped.X, ClampedY: clamped.Y}))
	}
	return clamped
}

// IssueHoldOrder sets a squad to hold in place. Unknown ids are silently
// ignored (§7).
func (s *Simulation) IssueHoldOrder(id uint32) {
	s.setOrder(id, world.Order{Kind: world.OrderHold})
}

// IssueMoveOrder sets a squad's order to move toward (x, y).
func (s *Simulation) IssueMoveOrder(id uint32, x, y float64) {
	target := s.clampToBounds(coords.Position{X: x, Y: y})
	s.setOrder(id, world.Order{Kind: world.OrderMoveTo, X: target.X, Y: target.Y})
}

// IssueAttackMoveOrder sets a squad's order to advance toward (x, y),
// engaging any enemy found along the way (§4.5).
func (s *Simulation) IssueAttackMoveOrder(id uint32, x, y float64) {
	target := s.clampToBounds(coords.Position{X: x, Y: y})
	s.setOrder(id, world.Order{Kind: world.OrderAttackMove, X: target.X, Y: target.Y})
}

// IssueRetreatOrder sets a squad to flee its nearest known enemy.
func (s *Simulation) IssueRetreatOrder(id uint32) {
	s.setOrder(id, world.Order{Kind: world.OrderRetreat})
}

func (s *Simulation) setOrder(id uint32, order world.Order) {
	e, ok := s.store.Get(id)
	if !ok {
		s.logger.Debug("order dropped", zap.Error(&simerr.UnknownID{ID: id}))
		return
	}
	core := s.store.Components.CoreOf(e)
	if core == nil || core.Dead {
		return
	}
	core.Order = order
}

// SpawnCrater queues a single crater event for the next tick's environment
// phase (§4.8).
func (s *Simulation) SpawnCrater(x, y, radius, depth float64) {
	s.pendingCraters = append(s.pendingCraters, terrain.CraterEvent{
		Center: coords.Position{X: x, Y: y}, Radius: radius, Depth: depth, Tick: s.tick,
	})
}

// SpawnBarrage queues count craters deterministically scattered in a disk
// of the given spread around (cx, cy) (§6 — expands to count craters).
// Each crater uses cfg.BarrageCraterRadius/BarrageCraterDepth, since the
// command itself carries no per-crater radius or depth.
func (s *Simulation) SpawnBarrage(cx, cy float64, count int, spread float64) {
	for i := 0; i < count; i++ {
		offset := s.rng.diskPoint(spread)
		s.SpawnCrater(cx+offset.X, cy+offset.Y, s.cfg.BarrageCraterRadius, s.cfg.BarrageCraterDepth)
	}
}

// AddDestructible registers a new destructible object and returns its id.
func (s *Simulation) AddDestructible(x, y, footprint float64, kind terrain.DestructibleType, health float64) uint32 {
	id := s.nextDestructibleID
	s.nextDestructibleID++
	s.destructibles = append(s.destructibles, &terrain.Destructible{
		ID: id, Position: coords.Position{X: x, Y: y}, Footprint: footprint,
		Type: kind, State: terrain.Intact, Health: health, HealthMax: health,
	})
	return id
}

// Snapshot returns the structured, JSON-friendly snapshot of the current
// tick's state.
func (s *Simulation) Snapshot() snapshot.Snapshot {
	return snapshot.Build(s.store.Components, s.store.All(), s.destructibles, s.tick, s.simTime, s.lastNewCraters, s.lastDestructionEvents, s.combatLog)
}

// FlatSnapshot returns the flat float32 buffer form of the current squad
// state (§6).
func (s *Simulation) FlatSnapshot() []float32 {
	return snapshot.FlatBuffer(s.store.Components, s.store.All())
}

// TerrainSnapshot returns the structured terrain export.
func (s *Simulation) TerrainSnapshot() snapshot.TerrainSnapshot {
	return snapshot.BuildTerrain(s.terrain)
}
