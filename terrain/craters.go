package terrain

import (
	"math"

	"battlesim/coords"
)

// CraterEvent is a transient terrain-damage event. It lives exactly one
// tick: the environment phase consumes it, stamps affected cells to Crater,
// damages overlapping destructibles, and the caller clears the event list
// at end of tick (§3, §4.8).
type CraterEvent struct {
	Center coords.Position
	Radius float64
	Depth  float64
	Tick   uint64
}

// ApplyCraters stamps every event's footprint onto the grid and returns the
// new_craters list exported to the frontend (§4.8, §6). Craters are
// idempotent to re-apply: stamping Crater over an already-cratered cell is
// a no-op change.
func ApplyCraters(g *Grid, events []CraterEvent) []CraterEvent {
	applied := make([]CraterEvent, 0, len(events))
	for _, ev := range events {
		stampCrater(g, ev)
		applied = append(applied, ev)
	}
	return applied
}

func stampCrater(g *Grid, ev CraterEvent) {
	minCol, minRow := g.CellCoord(coords.Position{X: ev.Center.X - ev.Radius, Y: ev.Center.Y - ev.Radius})
	maxCol, maxRow := g.CellCoord(coords.Position{X: ev.Center.X + ev.Radius, Y: ev.Center.Y + ev.Radius})

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cellCenter := coords.Position{
				X: g.Origin.X + (float64(col)+0.5)*g.CellSize,
				Y: g.Origin.Y + (float64(row)+0.5)*g.CellSize,
			}
			if cellCenter.Distance(ev.Center) <= ev.Radius {
				g.SetType(col, row, Crater)
			}
		}
	}
}

// DestructibleType enumerates the destructible kinds named by the data
// model (§3). The set is open-ended in the source; these are the ones the
// environment system distinguishes by footprint radius.
type DestructibleType int

const (
	DestructibleTree DestructibleType = iota
	DestructibleBuilding
)

func (t DestructibleType) String() string {
	if t == DestructibleBuilding {
		return "Building"
	}
	return "Tree"
}

// DestructibleState is a monotone one-way progression: Intact -> Damaged ->
// Destroyed (§3).
type DestructibleState int

const (
	Intact DestructibleState = iota
	Damaged
	Destroyed
)

func (s DestructibleState) String() string {
	switch s {
	case Damaged:
		return "Damaged"
	case Destroyed:
		return "Destroyed"
	default:
		return "Intact"
	}
}

// Destructible is a static, damageable environment object.
type Destructible struct {
	ID             uint32
	Position       coords.Position
	Footprint      float64 // radius, world units
	Type           DestructibleType
	State          DestructibleState
	Health         float64
	HealthMax      float64
}

// DestructionEvent records a one-way state transition emitted by the
// environment phase (§4.8) for the structured snapshot's terrain_damage
// field.
type DestructionEvent struct {
	DestructibleID uint32
	NewState       DestructibleState
}

// ApplyCraterDamage applies crater-originated damage to every destructible
// whose footprint intersects an applied crater, advancing state
// monotonically and returning the transitions that occurred this tick.
func ApplyCraterDamage(destructibles []*Destructible, events []CraterEvent) []DestructionEvent {
	var transitions []DestructionEvent
	for _, d := range destructibles {
		if d.State == Destroyed {
			continue
		}
		for _, ev := range events {
			overlap := overlapFraction(d.Position, d.Footprint, ev.Center, ev.Radius)
			if overlap <= 0 {
				continue
			}
			damage := craterDamage(ev.Depth, overlap)
			if damage <= 0 {
				continue
			}
			prevState := d.State
			d.Health -= damage
			if d.Health < 0 {
				d.Health = 0
			}
			d.State = destructibleStateForHealth(d.Health, d.HealthMax)
			if d.State != prevState {
				transitions = append(transitions, DestructionEvent{DestructibleID: d.ID, NewState: d.State})
			}
			if d.State == Destroyed {
				break
			}
		}
	}
	return transitions
}

// craterDamage is f(depth, overlap) from §4.8: deeper craters and larger
// footprint overlap do proportionally more structural damage.
func craterDamage(depth, overlap float64) float64 {
	return depth * overlap * 40
}

func destructibleStateForHealth(health, healthMax float64) DestructibleState {
	if health <= 0 {
		return Destroyed
	}
	if healthMax > 0 && health < healthMax*0.5 {
		return Damaged
	}
	return Intact
}

// overlapFraction returns the fraction (0..1) of a circular footprint that
// falls inside a circular crater radius, approximated from the distance
// between centers so the environment phase stays O(1) per pair instead of
// rasterizing both circles.
func overlapFraction(footprintCenter coords.Position, footprintRadius float64, craterCenter coords.Position, craterRadius float64) float64 {
	d := footprintCenter.Distance(craterCenter)
	if d >= footprintRadius+craterRadius {
		return 0
	}
	if d <= math.Abs(footprintRadius-craterRadius) {
		return 1
	}
	// Linear falloff across the overlap band; exact lens-area integration
	// is unnecessary precision for a damage multiplier.
	band := footprintRadius + craterRadius
	return clamp01((band - d) / band)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
