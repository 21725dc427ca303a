// Initial population placement. Plants can be seeded onto meadows: patches of
// the grid picked out by simplex noise, so that a fresh world starts with
// clustered vegetation instead of an even sprinkle.
package world

import (
	"fmt"
	"log/slog"

	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	meadowScale = 0.18 // noise frequency per tile; lower means larger patches
	meadowLevel = 0.55 // normalised noise value above which a tile is meadow
)

// MeadowMap returns a normalised noise value in [0, 1) per tile, row-major.
func MeadowMap(width, height int, seed int64) []float64 {
	noise := opensimplex.NewNormalized(seed + 1)
	out := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y*width+x] = noise.Eval2(float64(x)*meadowScale, float64(y)*meadowScale)
		}
	}
	return out
}

// meadowTiles returns the free tiles whose noise value reaches meadowLevel.
func (w *World) meadowTiles(field []float64) []*Tile {
	var out []*Tile
	for i, t := range w.tiles {
		if t.IsFree() && field[i] >= meadowLevel {
			out = append(out, t)
		}
	}
	return out
}

// GenerateOrganisms clears the grid and places the configured population mix.
// Quotas that no longer fit are truncated; a full grid is not an error.
func (w *World) GenerateOrganisms() error {
	if len(w.cfg.Population) == 0 {
		return fmt.Errorf("generate organisms: no population configured: %w", ErrEmpty)
	}
	w.clearOrganisms()

	var field []float64
	if w.cfg.Meadows {
		field = MeadowMap(w.width, w.height, w.rng.Seed())
	}

	for _, q := range w.cfg.Population {
		k, err := w.catalog.Kind(q.Species)
		if err != nil {
			return fmt.Errorf("generate organisms: %w", err)
		}

		placed := 0
		if k.Family == FamilyPlant && field != nil {
			placed, err = w.spreadOn(k, q.Count, w.meadowTiles(field))
			if err != nil {
				return fmt.Errorf("generate %s: %w", q.Species, err)
			}
		}
		n, err := w.spreadOn(k, q.Count-placed, w.freeTiles())
		if err != nil {
			return fmt.Errorf("generate %s: %w", q.Species, err)
		}
		placed += n

		if placed < q.Count {
			slog.Warn("grid full, population truncated",
				"species", q.Species, "wanted", q.Count, "placed", placed)
		}
	}

	slog.Info("organisms generated",
		"organisms", len(w.live),
		"tiles", len(w.tiles),
		"meadows", w.cfg.Meadows,
	)
	return nil
}
