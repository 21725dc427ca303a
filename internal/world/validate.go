package world

import "fmt"

// Validate checks the occupancy invariants: every organism in the collection
// and its tile point at each other, every occupied tile belongs to a listed
// organism, and counters are non-negative. Outside a turn no dead organism
// may remain in the collection.
func (w *World) Validate() error {
	if len(w.live) > len(w.tiles) {
		return fmt.Errorf("%d organisms on %d tiles: %w", len(w.live), len(w.tiles), ErrInconsistent)
	}

	alive := 0
	for _, o := range w.live {
		if got, ok := w.Lookup(o.ID); !ok || got != o {
			return fmt.Errorf("organism %v not in arena: %w", o.ID, ErrInconsistent)
		}
		if o.dead {
			if !w.simulating {
				return fmt.Errorf("dead organism %v not reaped: %w", o.ID, ErrInconsistent)
			}
			if o.tile != nil {
				return fmt.Errorf("dead organism %v still on %v: %w", o.ID, o.tile, ErrInconsistent)
			}
			continue
		}
		alive++
		if o.tile == nil {
			return fmt.Errorf("organism %v has no tile: %w", o.ID, ErrInconsistent)
		}
		if o.tile.Occupant() != o.ID {
			return fmt.Errorf("organism %v on %v but tile holds %v: %w", o.ID, o.tile, o.tile.Occupant(), ErrInconsistent)
		}
		if o.Power < 0 || o.BreedCooldown < 0 {
			return fmt.Errorf("organism %v power %d cooldown %d: %w", o.ID, o.Power, o.BreedCooldown, ErrInconsistent)
		}
		if a := o.Ability; a != nil && (a.Cooldown < 0 || a.Active < 0) {
			return fmt.Errorf("organism %v ability %+v: %w", o.ID, *a, ErrInconsistent)
		}
	}

	occupied := 0
	for _, t := range w.tiles {
		if t.IsFree() {
			continue
		}
		occupied++
		o, ok := w.Lookup(t.Occupant())
		if !ok || o.dead || o.tile != t {
			return fmt.Errorf("tile %v holds stray handle %v: %w", t, t.Occupant(), ErrInconsistent)
		}
	}
	if occupied != alive {
		return fmt.Errorf("%d occupied tiles for %d organisms: %w", occupied, alive, ErrInconsistent)
	}
	return nil
}
