// Package terrain implements the 2-D cell grid of terrain type and
// elevation that the movement, cover, and environment systems read from and
// the crater/destructible pipeline writes to.
package terrain

import (
	"math"

	"battlesim/coords"
)

// Type classifies a terrain cell. The zero value is Open.
type Type byte

const (
	Open Type = iota
	Rough
	Mud
	Crater
	Trench
	Water
	Road
	Forest
	Rubble
)

func (t Type) String() string {
	switch t {
	case Open:
		return "Open"
	case Rough:
		return "Rough"
	case Mud:
		return "Mud"
	case Crater:
		return "Crater"
	case Trench:
		return "Trench"
	case Water:
		return "Water"
	case Road:
		return "Road"
	case Forest:
		return "Forest"
	case Rubble:
		return "Rubble"
	default:
		return "Unknown"
	}
}

// MovementMultiplier returns the §4.8 speed scale for the terrain type.
func (t Type) MovementMultiplier() float64 {
	switch t {
	case Road:
		return 1.3
	case Open:
		return 1.0
	case Rough:
		return 0.8
	case Forest:
		return 0.7
	case Mud:
		return 0.5
	case Water:
		return 0.3
	case Crater, Trench:
		return 0.6
	case Rubble:
		return 0.5
	default:
		return 1.0
	}
}

// CoverValue returns the §4.8 cover fraction in [0,1]; 0 means no cover.
func (t Type) CoverValue() float64 {
	switch t {
	case Crater:
		return 0.5
	case Trench:
		return 0.7
	case Forest:
		return 0.4
	case Rubble:
		return 0.3
	default:
		return 0
	}
}

// Cell is one grid cell's terrain type and elevation.
type Cell struct {
	Type      Type
	Elevation float64
}

// Grid is a width x height cell grid anchored at Origin with a fixed
// CellSize. World-to-grid mapping is floor((p-origin)/cell_size), clamped
// to grid bounds (§3 invariant).
type Grid struct {
	Width, Height int
	Origin        coords.Position
	CellSize      float64
	cells         []Cell
}

// NewGrid builds an all-Open grid of the given dimensions.
func NewGrid(width, height int, origin coords.Position, cellSize float64) *Grid {
	cells := make([]Cell, width*height)
	return &Grid{Width: width, Height: height, Origin: origin, CellSize: cellSize, cells: cells}
}

// Bounds returns the world-space rectangle covered by the grid, used to
// clamp squad positions (§4.6).
func (g *Grid) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = g.Origin.X, g.Origin.Y
	maxX = g.Origin.X + float64(g.Width)*g.CellSize
	maxY = g.Origin.Y + float64(g.Height)*g.CellSize
	return
}

// CellCoord maps a world position to grid cell coordinates, clamped to
// bounds. Returns the clamped (col,row).
func (g *Grid) CellCoord(p coords.Position) (col, row int) {
	col = int(math.Floor((p.X - g.Origin.X) / g.CellSize))
	row = int(math.Floor((p.Y - g.Origin.Y) / g.CellSize))
	if col < 0 {
		col = 0
	}
	if col >= g.Width {
		col = g.Width - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.Height {
		row = g.Height - 1
	}
	return
}

func (g *Grid) index(col, row int) int { return row*g.Width + col }

func (g *Grid) inBounds(col, row int) bool {
	return col >= 0 && col < g.Width && row >= 0 && row < g.Height
}

// At returns the cell at grid coordinates, or the zero Cell (Open) if out
// of bounds.
func (g *Grid) At(col, row int) Cell {
	if !g.inBounds(col, row) {
		return Cell{Type: Open}
	}
	return g.cells[g.index(col, row)]
}

// TypeAt returns the terrain type under a world position.
func (g *Grid) TypeAt(p coords.Position) Type {
	col, row := g.CellCoord(p)
	return g.At(col, row).Type
}

// SetType sets the terrain type at grid coordinates. No-op if out of bounds.
func (g *Grid) SetType(col, row int, t Type) {
	if !g.inBounds(col, row) {
		return
	}
	g.cells[g.index(col, row)].Type = t
}

// MovementMultiplierAt returns the movement speed multiplier under p.
func (g *Grid) MovementMultiplierAt(p coords.Position) float64 {
	return g.TypeAt(p).MovementMultiplier()
}

// CoverValueAt returns the cover fraction under p.
func (g *Grid) CoverValueAt(p coords.Position) float64 {
	return g.TypeAt(p).CoverValue()
}

// IsOpaque reports whether the cell at (col,row) blocks line of sight, for
// go-fov visibility computation (SPEC_FULL.md §C.4). Only dense forest and
// rubble occlude; everything else is see-through at tactical scale.
func (g *Grid) IsOpaque(col, row int) bool {
	switch g.At(col, row).Type {
	case Forest, Rubble:
		return true
	default:
		return false
	}
}

// InBounds implements the go-fov grid contract.
func (g *Grid) InBounds(col, row int) bool {
	return g.inBounds(col, row)
}

// Types returns the row-major terrain type byte slice for the terrain
// snapshot (§6 `types:[u8;width*height]`).
func (g *Grid) Types() []byte {
	out := make([]byte, len(g.cells))
	for i, c := range g.cells {
		out[i] = byte(c.Type)
	}
	return out
}
