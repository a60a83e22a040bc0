// Package spatial is the uniform grid neighbor index (spec.md §4.3). It
// replaces the teacher's tile-keyed PositionSystem (systems/positionsystem.go
// in the source repo: a map[LogicalPosition][]EntityID bucket grid giving
// O(1) position lookups instead of a linear entity scan) with a continuous,
// cell-sized bucket grid rebuilt once per tick from live squad positions, so
// radius and nearest-enemy queries touch only the handful of cells the
// search radius actually spans instead of every live squad.
package spatial

import (
	"math"

	"battlesim/world"

	"github.com/bytearena/ecs"
)

// cellKey bit-packs a (col, row) grid coordinate into a single map key. Grid
// coordinates are bounded well within 32 bits for any plausible battlefield,
// so this avoids allocating a struct key per bucket lookup.
type cellKey int64

func packCell(col, row int32) cellKey {
	return cellKey(int64(col))<<32 | cellKey(uint32(row))
}

// Grid is a uniform hash grid over squad positions, rebuilt every tick.
// Within a tick it is read-only, so concurrent system groups may query it
// freely (§4.2).
type Grid struct {
	cellSize float64
	buckets  map[cellKey][]Entry
}

// Entry is one squad's cached position and faction as of the last Rebuild,
// avoiding a component fetch per neighbor found during a query.
type Entry struct {
	Entity  *ecs.Entity
	ID      uint32
	Faction world.Faction
	X, Y    float64
}

// NewGrid creates an empty grid with the given cell size (§4.3's cell_size
// tunable).
func NewGrid(cellSize float64) *Grid {
	return &Grid{cellSize: cellSize, buckets: make(map[cellKey][]Entry)}
}

func (g *Grid) cellOf(x, y float64) (int32, int32) {
	return int32(math.Floor(x / g.cellSize)), int32(math.Floor(y / g.cellSize))
}

// RebuildGrid clears and repopulates the grid from the given live squads.
// Dead squads are skipped (§D.3: dead squads drop out of spatial queries
// immediately on death).
func RebuildGrid(g *Grid, comps *world.Components, entities []*ecs.Entity) {
	for k := range g.buckets {
		delete(g.buckets, k)
	}
	for _, e := range entities {
		core := comps.CoreOf(e)
		if core == nil || core.Dead {
			continue
		}
		pos := comps.PositionOf(e)
		if pos == nil {
			continue
		}
		col, row := g.cellOf(pos.X, pos.Y)
		key := packCell(col, row)
		g.buckets[key] = append(g.buckets[key], Entry{
			Entity: e, ID: core.ID, Faction: core.Faction, X: pos.X, Y: pos.Y,
		})
	}
}

// Query invokes visit for every entry within radius of (x,y). Entries are
// visited in ascending-id order within each bucket scanned so callers that
// need a deterministic first-match (tie-break by smallest id, §4.4) get one
// without an extra sort.
func (g *Grid) Query(x, y, radius float64, visit func(Entry)) {
	minCol, minRow := g.cellOf(x-radius, y-radius)
	maxCol, maxRow := g.cellOf(x+radius, y+radius)
	r2 := radius * radius

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			bucket, ok := g.buckets[packCell(col, row)]
			if !ok {
				continue
			}
			for _, entry := range sortedByID(bucket) {
				dx, dy := entry.X-x, entry.Y-y
				if dx*dx+dy*dy <= r2 {
					visit(entry)
				}
			}
		}
	}
}

// sortedByID returns bucket sorted ascending by squad id. Buckets are small
// (typically single digits of entries for a sensible cell_size), so an
// insertion sort per query is cheaper than keeping every bucket sorted on
// every insert during Rebuild.
func sortedByID(bucket []Entry) []Entry {
	out := make([]Entry, len(bucket))
	copy(out, bucket)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NearestEnemy returns the closest live entry of a different faction than
// self within radius, with ties broken by smallest id (§4.4). ok is false if
// none is found.
func NearestEnemy(g *Grid, x, y float64, self world.Faction, radius float64) (entry Entry, ok bool) {
	bestDist2 := radius * radius
	found := false
	g.Query(x, y, radius, func(e Entry) {
		if e.Faction == self {
			return
		}
		dx, dy := e.X-x, e.Y-y
		d2 := dx*dx + dy*dy
		if d2 > bestDist2 {
			return
		}
		if !found || d2 < bestDist2 || (d2 == bestDist2 && e.ID < entry.ID) {
			entry, bestDist2, found = e, d2, true
		}
	})
	return entry, found
}

// CountFaction counts live entries of the given faction within radius,
// excluding the entity with excludeID (used for "nearby friendlies, not
// counting self", §4.4).
func CountFaction(g *Grid, x, y float64, faction world.Faction, excludeID uint32, radius float64) int {
	count := 0
	g.Query(x, y, radius, func(e Entry) {
		if e.Faction == faction && e.ID != excludeID {
			count++
		}
	})
	return count
}
