package spatial

import (
	"math"

	"battlesim/world"

	"github.com/bytearena/ecs"
)

// SectorData aggregates squad counts and cached firepower for one coarse
// sector (§4.3). Sectors are coarser than grid cells: a handful of cells
// group into a sector so "how contested is this area" can be answered via
// SectorIndex.At without re-summing every squad. The scheduler rebuilds the
// index every tick; no system in this module calls At.
type SectorData struct {
	BlueCount     int
	RedCount      int
	BlueFirepower float64
	RedFirepower  float64
}

// SectorIndex maps sector coordinates to their aggregated data for the
// current tick.
type SectorIndex struct {
	sectorSize float64
	data       map[cellKey]*SectorData
}

// NewSectorIndex creates an empty sector index with the given sector size
// (§4.3's sector_size tunable, independent of the grid's cell_size).
func NewSectorIndex(sectorSize float64) *SectorIndex {
	return &SectorIndex{sectorSize: sectorSize, data: make(map[cellKey]*SectorData)}
}

func (s *SectorIndex) sectorOf(x, y float64) (int32, int32) {
	return int32(math.Floor(x / s.sectorSize)), int32(math.Floor(y / s.sectorSize))
}

// RebuildSectors recomputes every sector's aggregate from the given live
// squads and records each squad's sector coordinate in its SectorID
// component. Firepower per squad is BaseDPS weighted by current squad Size.
// This is a relative weight, not the damage combat applies: combat's
// per-tick damage (§4.7) is BaseDPS · dt · morale and has no Size term.
func RebuildSectors(s *SectorIndex, comps *world.Components, entities []*ecs.Entity, baseDPS float64) {
	for k := range s.data {
		delete(s.data, k)
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
		col, row := s.sectorOf(pos.X, pos.Y)
		if sec := comps.SectorOf(e); sec != nil {
			sec.X, sec.Y = int(col), int(row)
		}
		key := packCell(col, row)
		sd, ok := s.data[key]
		if !ok {
			sd = &SectorData{}
			s.data[key] = sd
		}
		firepower := baseDPS * float64(core.Size)
		if core.Faction == world.Blue {
			sd.BlueCount++
			sd.BlueFirepower += firepower
		} else {
			sd.RedCount++
			sd.RedFirepower += firepower
		}
	}
}

// At returns the sector containing (x, y), or a zero-value SectorData if
// the sector has no live squads this tick.
func (s *SectorIndex) At(x, y float64) SectorData {
	col, row := s.sectorOf(x, y)
	if sd, ok := s.data[packCell(col, row)]; ok {
		return *sd
	}
	return SectorData{}
}
