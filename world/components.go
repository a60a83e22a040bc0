// Package world is the columnar entity store: it owns the ECS manager, the
// squad components, and the dense id->entity index that lets every other
// system resolve a stable 32-bit squad id in O(1) without iterating raw
// storage (spec.md §4.1). Squad vs. Destructible are disjoint entity
// classes with their own system sets rather than inheritance, per §9.
package world

import (
	"battlesim/coords"

	"github.com/bytearena/ecs"
)

// Faction is one of the two sides (§3).
type Faction int

const (
	Blue Faction = iota
	Red
)

func (f Faction) String() string {
	if f == Red {
		return "Red"
	}
	return "Blue"
}

// OrderKind tags the current order variant (§3, §9 — a tagged union, not a
// presentation string; the string form is produced only by the snapshot
// serializer).
type OrderKind int

const (
	OrderHold OrderKind = iota
	OrderMoveTo
	OrderAttackMove
	OrderRetreat
)

// Order is the tagged order variant carried by a squad.
type Order struct {
	Kind OrderKind
	X, Y float64 // target, meaningful for MoveTo/AttackMove
}

// BehaviorState is the squad's current FSM state (§4.5).
type BehaviorState int

const (
	Idle BehaviorState = iota
	Advancing
	Engaging
	Suppressed
	Routing
)

func (s BehaviorState) String() string {
	switch s {
	case Advancing:
		return "Advancing"
	case Engaging:
		return "Engaging"
	case Suppressed:
		return "Suppressed"
	case Routing:
		return "Routing"
	default:
		return "Idle"
	}
}

// LODTier is the squad's update-frequency class (§4.2).
type LODTier int

const (
	LODHigh LODTier = iota
	LODMedium
	LODLow
)

// TickDivisor returns how many ticks the tier participates on: every tick
// (1), every second tick (2), or every fourth tick (4).
func (t LODTier) TickDivisor() uint64 {
	switch t {
	case LODMedium:
		return 2
	case LODLow:
		return 4
	default:
		return 1
	}
}

// SquadCore holds every per-squad scalar field from the data model (§3)
// that isn't broken out into its own component for independent-system
// write access.
type SquadCore struct {
	ID          uint32
	Faction     Faction
	Size        int
	Health      float64
	HealthMax   float64
	Morale      float64
	Suppression float64
	Order       Order
	Behavior    BehaviorState
	Dead        bool
	DeathTick   uint64
}

// ActivityFlags are the per-tick derived booleans from §4.4.
type ActivityFlags struct {
	IsMoving        bool
	IsFiring        bool
	IsSuppressed    bool
	RecentlyDamaged bool
	LastDamageTick  uint64
}

// SectorID is the coarse sector coordinate a squad currently occupies
// (§3, §4.3).
type SectorID struct {
	X, Y int
}

// PerceptionCache is the nearest-enemy / friendly-count / threat-level
// cache each squad carries between ticks (§3, §4.4).
type PerceptionCache struct {
	NearestEnemyID   uint32
	HasNearestEnemy  bool
	NearestEnemyDist float64
	FriendlyCount    int
	ThreatLevel      float64
}

// Components are the shared ECS component handles. They are created once
// by NewStore and referenced by every system package that needs typed
// access to squad data.
type Components struct {
	Position   *ecs.Component
	Velocity   *ecs.Component
	Core       *ecs.Component
	Activity   *ecs.Component
	LOD        *ecs.Component
	Sector     *ecs.Component
	Perception *ecs.Component
}

func newComponents(manager *ecs.Manager) *Components {
	return &Components{
		Position:   manager.NewComponent(),
		Velocity:   manager.NewComponent(),
		Core:       manager.NewComponent(),
		Activity:   manager.NewComponent(),
		LOD:        manager.NewComponent(),
		Sector:     manager.NewComponent(),
		Perception: manager.NewComponent(),
	}
}

// Position, Velocity, Core, Activity, LOD, Sector, and Perception accessors
// retrieve typed component data from an already-resolved *ecs.Entity. They
// never search — the caller is expected to have the entity from Store.Get
// or a query result, matching the teacher's GetComponentType wrapper
// pattern (common/ecsutil.go) generalized with Go generics.
func getComponent[T any](e *ecs.Entity, c *ecs.Component) T {
	var zero T
	if e == nil {
		return zero
	}
	if data, ok := e.GetComponentData(c); ok {
		if typed, ok := data.(T); ok {
			return typed
		}
	}
	return zero
}

func (c *Components) PositionOf(e *ecs.Entity) *coords.Position   { return getComponent[*coords.Position](e, c.Position) }
func (c *Components) VelocityOf(e *ecs.Entity) *coords.Vector     { return getComponent[*coords.Vector](e, c.Velocity) }
func (c *Components) CoreOf(e *ecs.Entity) *SquadCore             { return getComponent[*SquadCore](e, c.Core) }
func (c *Components) ActivityOf(e *ecs.Entity) *ActivityFlags     { return getComponent[*ActivityFlags](e, c.Activity) }
func (c *Components) LODOf(e *ecs.Entity) *LODTierState           { return getComponent[*LODTierState](e, c.LOD) }
func (c *Components) SectorOf(e *ecs.Entity) *SectorID            { return getComponent[*SectorID](e, c.Sector) }
func (c *Components) PerceptionOf(e *ecs.Entity) *PerceptionCache { return getComponent[*PerceptionCache](e, c.Perception) }

// LODTierState wraps LODTier in a pointer-friendly struct so it can be
// stored as mutable component data.
type LODTierState struct {
	Tier LODTier
}
