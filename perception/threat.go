// Package perception implements the threat-awareness phase (spec.md §4.4):
// for each squad, find the nearest enemy, count nearby friendlies, and
// derive a threat level, optionally gated by line-of-sight occlusion.
//
// The threat-level falloff follows the teacher's threat-painting helper
// (mind/behavior/threat_painting.go in the source repo), which weights a
// contribution by a function of distance rather than an all-or-nothing
// radius check; here it's collapsed to the single linear falloff that
// function supported, since squads have one threat source (nearest enemy)
// rather than a map of painted cells.
package perception

import (
	"math"

	"battlesim/config"
	"battlesim/coords"
	"battlesim/spatial"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/bytearena/ecs"
	"github.com/norendren/go-fov/fov"
)

// Update recomputes one squad's PerceptionCache from the rebuilt spatial
// grid. grid must already reflect this tick's positions (spatial.RebuildGrid
// having been called first, per the scheduler's ordering in §4.2).
func Update(comps *world.Components, e *ecs.Entity, grid *spatial.Grid, terr *terrain.Grid, cfg config.SimConfig) {
	core := comps.CoreOf(e)
	pos := comps.PositionOf(e)
	if core == nil || pos == nil || core.Dead {
		return
	}

	cache := comps.PerceptionOf(e)
	if cache == nil {
		return
	}

	cache.FriendlyCount = spatial.CountFaction(grid, pos.X, pos.Y, core.Faction, core.ID, cfg.FriendlyRadius)

	nearest, found := spatial.NearestEnemy(grid, pos.X, pos.Y, core.Faction, cfg.SightRadius)
	if found && cfg.SightOcclusionEnabled && terr != nil && !hasLineOfSight(terr, pos.X, pos.Y, nearest.X, nearest.Y, cfg.SightRadius) {
		found = false
	}

	if !found {
		cache.HasNearestEnemy = false
		cache.NearestEnemyID = 0
		cache.NearestEnemyDist = 0
		cache.ThreatLevel = 0
		return
	}

	dx, dy := nearest.X-pos.X, nearest.Y-pos.Y
	dist := math.Sqrt(dx*dx + dy*dy)

	cache.HasNearestEnemy = true
	cache.NearestEnemyID = nearest.ID
	cache.NearestEnemyDist = dist
	cache.ThreatLevel = linearFalloff(dist, cfg.SightRadius)
}

// linearFalloff mirrors the teacher's LinearFalloff threat-painting curve:
// full threat at distance 0, fading linearly to 0 at maxRange.
func linearFalloff(distance, maxRange float64) float64 {
	if maxRange <= 0 {
		return 0
	}
	v := 1.0 - (distance / maxRange)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// hasLineOfSight computes a fresh FOV from (fromX, fromY) and checks
// whether the target's cell is visible, per the terrain grid's InBounds/
// IsOpaque contract (the same contract the teacher's GameMap implements
// for go-fov, game_main/GameMap.go).
func hasLineOfSight(terr *terrain.Grid, fromX, fromY, toX, toY, radius float64) bool {
	fromCol, fromRow := terr.CellCoord(coords.Position{X: fromX, Y: fromY})
	toCol, toRow := terr.CellCoord(coords.Position{X: toX, Y: toY})

	view := fov.New()
	view.Compute(terr, fromCol, fromRow, int(radius/terr.CellSize)+1)
	return view.IsVisible(toCol, toRow)
}
