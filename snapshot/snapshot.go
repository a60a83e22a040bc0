// Package snapshot serializes simulation state for the host to consume
// (spec.md §6). Two forms are produced: a flat float32 buffer for the
// tight per-tick case, and a structured, JSON-friendly form carrying the
// tick's terrain damage and crater events alongside squad state. Neither
// form is itself rendering — both are pure data, matching §1's boundary
// that presentation stays out of the core.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"battlesim/combat"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/bytearena/ecs"
	"github.com/cespare/xxhash/v2"
)

// fieldsPerSquad is the flat-buffer record width (§6, a stability
// contract): id, x, y, vx, vy, faction_id (0|1), size, health, health_max,
// morale, suppression, is_alive (0|1), is_routing (0|1), order_type
// (0=Hold,1=MoveTo,2=AttackMove,3=Retreat).
const fieldsPerSquad = 14

// Squad is the structured, per-squad snapshot record (§6). Order is
// rendered in the spec's "Kind(x,y)" presentation form. LODTier and
// Behavior are additive fields beyond the §6 minimum, carried for hosts
// that want finer-grained state than order/position without re-deriving
// it from the flat buffer.
type Squad struct {
	ID          uint32  `json:"id"`
	Faction     string  `json:"faction"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	Size        int     `json:"size"`
	Health      float64 `json:"health"`
	HealthMax   float64 `json:"health_max"`
	Morale      float64 `json:"morale"`
	Suppression float64 `json:"suppression"`
	Order       string  `json:"order"`
	Behavior    string  `json:"behavior"`
	LODTier     string  `json:"lod_tier"`
}

// Snapshot is the structured, JSON-compatible per-tick export.
type Snapshot struct {
	Tick          uint64                     `json:"tick"`
	Time          float64                    `json:"time"`
	Squads        []Squad                    `json:"squads"`
	Destructibles []DestructibleView         `json:"destructibles"`
	NewCraters    []CraterView               `json:"new_craters"`
	TerrainDamage []terrain.DestructionEvent `json:"terrain_damage"`
	CombatLog     []combat.LogEntry          `json:"combat_log,omitempty"`
	// Checksum is an xxhash digest of the tick's flat squad buffer. Two
	// hosts advancing the same run from the same commands can compare
	// checksums to catch divergence without diffing full snapshots.
	Checksum uint64 `json:"checksum"`
}

// DestructibleView is the structured snapshot's destructible record.
type DestructibleView struct {
	ID        uint32  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Type      string  `json:"type"`
	State     string  `json:"state"`
	Health    float64 `json:"health"`
	HealthMax float64 `json:"health_max"`
}

// CraterView is the structured snapshot's new-crater record.
type CraterView struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Depth  float64 `json:"depth"`
}

// lodName avoids a String() round-trip through fmt for the snapshot hot
// path.
func lodName(t world.LODTier) string {
	switch t {
	case world.LODMedium:
		return "Medium"
	case world.LODLow:
		return "Low"
	default:
		return "High"
	}
}

// orderString renders an order in the §6 structured-snapshot presentation
// form: "Hold", "MoveTo(x,y)", "AttackMove(x,y)", "Retreat".
func orderString(o world.Order) string {
	switch o.Kind {
	case world.OrderMoveTo:
		return fmt.Sprintf("MoveTo(%g,%g)", o.X, o.Y)
	case world.OrderAttackMove:
		return fmt.Sprintf("AttackMove(%g,%g)", o.X, o.Y)
	case world.OrderRetreat:
		return "Retreat"
	default:
		return "Hold"
	}
}

// Build produces the structured snapshot for the given tick. Squads are
// emitted in ascending id order regardless of internal storage order, so
// two independently constructed simulations fed the same command sequence
// produce byte-identical snapshots (§A.4 determinism tests).
func Build(comps *world.Components, entities []*ecs.Entity, destructibles []*terrain.Destructible, tick uint64, simTime float64, newCraters []terrain.CraterEvent, destructionEvents []terrain.DestructionEvent, log *combat.Log) Snapshot {
	ordered := make([]*ecs.Entity, len(entities))
	copy(ordered, entities)
	sort.Slice(ordered, func(i, j int) bool {
		return comps.CoreOf(ordered[i]).ID < comps.CoreOf(ordered[j]).ID
	})

	squads := make([]Squad, 0, len(ordered))
	for _, e := range ordered {
		core := comps.CoreOf(e)
		pos := comps.PositionOf(e)
		vel := comps.VelocityOf(e)
		lod := comps.LODOf(e)
		if core == nil || pos == nil || vel == nil {
			continue
		}
		tier := world.LODHigh
		if lod != nil {
			tier = lod.Tier
		}
		squads = append(squads, Squad{
			ID:          core.ID,
			Faction:     core.Faction.String(),
			X:           pos.X,
			Y:           pos.Y,
			VX:          vel.X,
			VY:          vel.Y,
			Size:        core.Size,
			Health:      core.Health,
			HealthMax:   core.HealthMax,
			Morale:      core.Morale,
			Suppression: core.Suppression,
			Order:       orderString(core.Order),
			Behavior:    core.Behavior.String(),
			LODTier:     lodName(tier),
		})
	}

	destructibleViews := make([]DestructibleView, 0, len(destructibles))
	for _, d := range destructibles {
		destructibleViews = append(destructibleViews, DestructibleView{
			ID: d.ID, X: d.Position.X, Y: d.Position.Y,
			Type: d.Type.String(), State: d.State.String(),
			Health: d.Health, HealthMax: d.HealthMax,
		})
	}

	craterViews := make([]CraterView, 0, len(newCraters))
	for _, c := range newCraters {
		craterViews = append(craterViews, CraterView{X: c.Center.X, Y: c.Center.Y, Radius: c.Radius, Depth: c.Depth})
	}

	return Snapshot{
		Tick:          tick,
		Time:          simTime,
		Squads:        squads,
		Destructibles: destructibleViews,
		NewCraters:    craterViews,
		TerrainDamage: destructionEvents,
		CombatLog:     combatLogEntries(log),
		Checksum:      Checksum(FlatBuffer(comps, entities)),
	}
}

// Checksum hashes a flat squad buffer with xxhash, giving callers a cheap
// way to detect two replicas diverging without transmitting or diffing the
// full snapshot.
func Checksum(buf []float32) uint64 {
	h := xxhash.New()
	var b [4]byte
	for _, f := range buf {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
		h.Write(b[:])
	}
	return h.Sum64()
}

// FlatBuffer packs every squad in the store, ascending by id, into the flat
// float32 layout [count, then fieldsPerSquad floats per squad] (§6); a
// squad that died this tick is still included, with is_alive = 0. The
// caller owns framing (length prefix, wire transport); this only packs the
// payload.
func FlatBuffer(comps *world.Components, entities []*ecs.Entity) []float32 {
	ordered := make([]*ecs.Entity, len(entities))
	copy(ordered, entities)
	sort.Slice(ordered, func(i, j int) bool {
		return comps.CoreOf(ordered[i]).ID < comps.CoreOf(ordered[j]).ID
	})

	out := make([]float32, 0, 1+len(ordered)*fieldsPerSquad)
	out = append(out, float32(len(ordered)))

	for _, e := range ordered {
		core := comps.CoreOf(e)
		pos := comps.PositionOf(e)
		vel := comps.VelocityOf(e)

		isAlive := float32(1)
		if core.Dead {
			isAlive = 0
		}
		isRouting := float32(0)
		if core.Behavior == world.Routing {
			isRouting = 1
		}

		out = append(out,
			float32(core.ID),
			float32(pos.X), float32(pos.Y),
			float32(vel.X), float32(vel.Y),
			float32(core.Faction),
			float32(core.Size),
			float32(core.Health), float32(core.HealthMax),
			float32(core.Morale), float32(core.Suppression),
			isAlive, isRouting,
			float32(core.Order.Kind),
		)
	}
	return out
}

// TerrainSnapshot is the structured terrain export (§6).
type TerrainSnapshot struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	OriginX  float64 `json:"origin_x"`
	OriginY  float64 `json:"origin_y"`
	CellSize float64 `json:"cell_size"`
	Types    []byte  `json:"types"`
}

// BuildTerrain snapshots the terrain grid's type layout.
func BuildTerrain(g *terrain.Grid) TerrainSnapshot {
	return TerrainSnapshot{
		Width:    g.Width,
		Height:   g.Height,
		OriginX:  g.Origin.X,
		OriginY:  g.Origin.Y,
		CellSize: g.CellSize,
		Types:    g.Types(),
	}
}

// combatLogEntries exposes a Log's entries for export without the combat
// package needing to know about snapshot's JSON tags.
func combatLogEntries(log *combat.Log) []combat.LogEntry {
	if log == nil {
		return nil
	}
	return log.Entries
}
