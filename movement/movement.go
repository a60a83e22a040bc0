// Package movement integrates squad velocity into position each tick
// (spec.md §4.6): a pure position += velocity*dt update, scaled by the
// terrain's movement multiplier and clamped to the battlefield bounds.
// Escape attempts at the world edge are silently clamped rather than
// rejected, matching the terrain grid's own clamp-on-lookup behavior.
package movement

import (
	"battlesim/coords"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/bytearena/ecs"
)

// Integrate advances one squad's position by its current velocity, scaled
// by the terrain multiplier under its current cell, for dt seconds.
func Integrate(comps *world.Components, e *ecs.Entity, terr *terrain.Grid, dt float64) {
	core := comps.CoreOf(e)
	pos := comps.PositionOf(e)
	vel := comps.VelocityOf(e)
	activity := comps.ActivityOf(e)
	if core == nil || pos == nil || vel == nil || core.Dead {
		return
	}

	speed := vel.Length()
	if activity != nil {
		activity.IsMoving = speed > 1e-6
	}
	if speed <= 1e-6 {
		return
	}

	mult := 1.0
	if terr != nil {
		mult = terr.MovementMultiplierAt(*pos)
	}

	next := pos.Add(vel.Scaled(dt * mult))
	if terr != nil {
		minX, minY, maxX, maxY := terr.Bounds()
		next = next.Clamp(minX, minY, maxX, maxY)
	}
	*pos = next
}

// SetVelocity stores the steering system's chosen velocity for the tick,
// leaving integration itself to Integrate.
func SetVelocity(comps *world.Components, e *ecs.Entity, v coords.Vector) {
	if vel := comps.VelocityOf(e); vel != nil {
		*vel = v
	}
}
