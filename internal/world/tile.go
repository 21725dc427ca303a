// Package world provides the grid, the organism arena, and the turn scheduler
// of the simulation. Tiles use screen coordinates: x grows to the right and
// y grows downwards, (0, 0) is the top-left corner.
package world

import (
	"fmt"

	"github.com/talgya/lifegrid/internal/entropy"
)

// Direction names one of the orthogonal neighbours of a tile. Self means
// "stay in place".
type Direction uint8

const (
	Self Direction = iota
	Up
	Right
	Down
	Left
)

// Directions lists the four movement directions in link order.
var Directions = [4]Direction{Up, Right, Down, Left}

// Offset returns the coordinate delta of one step in direction d.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return "self"
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range []Direction{Self, Up, Right, Down, Left} {
		if d.String() == s {
			return d, true
		}
	}
	return Self, false
}

// Tile is one grid cell. It holds at most one organism handle and fixed links
// to its orthogonal neighbours; edge tiles have fewer neighbours (no wraparound).
type Tile struct {
	X     int
	Y     int
	Index int

	occupant   Handle
	links      [4]*Tile // indexed by Direction-Up
	neighbours []*Tile  // non-nil links in Directions order
}

// Occupant returns the handle of the organism on the tile, or the zero Handle.
func (t *Tile) Occupant() Handle {
	return t.occupant
}

// IsFree reports whether no organism occupies the tile.
func (t *Tile) IsFree() bool {
	return t.occupant.IsZero()
}

// PlaceOrganism makes h the occupant. Placing the current occupant again is a no-op.
func (t *Tile) PlaceOrganism(h Handle) error {
	if h.IsZero() {
		return fmt.Errorf("place on (%d,%d): zero handle: %w", t.X, t.Y, ErrOutOfRange)
	}
	if t.occupant == h {
		return nil
	}
	if !t.IsFree() {
		return fmt.Errorf("place %v on (%d,%d) held by %v: %w", h, t.X, t.Y, t.occupant, ErrOccupied)
	}
	t.occupant = h
	return nil
}

// RemoveOrganism clears the tile if h is its occupant.
func (t *Tile) RemoveOrganism(h Handle) error {
	if h.IsZero() || t.occupant != h {
		return fmt.Errorf("remove %v from (%d,%d) held by %v: %w", h, t.X, t.Y, t.occupant, ErrNotOccupant)
	}
	t.occupant = 0
	return nil
}

// Neighbour returns the tile one step away in direction d, or nil off-grid.
func (t *Tile) Neighbour(d Direction) *Tile {
	if d < Up || d > Left {
		return nil
	}
	return t.links[d-Up]
}

// Neighbours returns the tile's neighbours in Directions order.
func (t *Tile) Neighbours() []*Tile {
	out := make([]*Tile, len(t.neighbours))
	copy(out, t.neighbours)
	return out
}

// FreeNeighbours returns the neighbours that currently have no occupant.
func (t *Tile) FreeNeighbours() []*Tile {
	var out []*Tile
	for _, n := range t.neighbours {
		if n.IsFree() {
			out = append(out, n)
		}
	}
	return out
}

// RandomNeighbour returns a uniformly chosen neighbour, occupied or not.
// It is nil only on a 1x1 grid.
func (t *Tile) RandomNeighbour(src *entropy.Source) *Tile {
	n, _ := entropy.Pick(src, t.neighbours)
	return n
}

// RandomFreeNeighbour returns a uniformly chosen free neighbour, or nil if
// every neighbour is occupied.
func (t *Tile) RandomFreeNeighbour(src *entropy.Source) *Tile {
	n, _ := entropy.Pick(src, t.FreeNeighbours())
	return n
}

// DirectionTo returns the direction of an adjacent tile, or Self if o is not adjacent.
func (t *Tile) DirectionTo(o *Tile) Direction {
	for i, l := range t.links {
		if l != nil && l == o {
			return Directions[i]
		}
	}
	return Self
}

func (t *Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// buildGrid creates width*height tiles in row-major order and links neighbours.
func buildGrid(width, height int) []*Tile {
	tiles := make([]*Tile, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			tiles[i] = &Tile{X: x, Y: y, Index: i}
		}
	}
	for _, t := range tiles {
		for i, d := range Directions {
			dx, dy := d.Offset()
			nx, ny := t.X+dx, t.Y+dy
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			n := tiles[ny*width+nx]
			t.links[i] = n
			t.neighbours = append(t.neighbours, n)
		}
	}
	return tiles
}
