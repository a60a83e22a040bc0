package behavior

import (
	"battlesim/coords"
	"battlesim/spatial"
	"battlesim/world"

	"github.com/bytearena/ecs"
)

// Flock blends a squad's order-driven desired velocity with a local
// separation impulse from nearby same-faction squads, bounded by
// FlockingWeight (§4.5). Separation keeps squads from stacking on the exact
// same point; it is not a full boids model (no alignment/cohesion terms),
// since orders already provide group cohesion via a shared destination.
func Flock(grid *spatial.Grid, comps *world.Components, self *ecs.Entity, desired coords.Vector, separationRadius, flockingWeight float64) coords.Vector {
	core := comps.CoreOf(self)
	pos := comps.PositionOf(self)
	if core == nil || pos == nil {
		return desired
	}

	var push coords.Vector
	grid.Query(pos.X, pos.Y, separationRadius, func(e spatial.Entry) {
		if e.ID == core.ID || e.Faction != core.Faction {
			return
		}
		away := coords.Position{X: pos.X, Y: pos.Y}.Sub(coords.Position{X: e.X, Y: e.Y})
		d := away.Length()
		if d < 1e-6 || d >= separationRadius {
			return
		}
		// Closer neighbors push harder, falling off to zero at the radius.
		weight := (separationRadius - d) / separationRadius
		push = push.Plus(away.Normalized().Scaled(weight))
	})

	return desired.Plus(push.Scaled(flockingWeight))
}
