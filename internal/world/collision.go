package world

import "fmt"

// relocate moves o onto a free target tile and remembers where it came from.
func (w *World) relocate(o *Organism, target *Tile) error {
	if err := target.PlaceOrganism(o.ID); err != nil {
		return err
	}
	from := o.tile
	if err := from.RemoveOrganism(o.ID); err != nil {
		return err
	}
	o.prev = from
	o.tile = target
	return nil
}

// Move tries to step o onto target. A nil target (off the grid) is a no-op.
// A free target is entered directly; an occupied one hands control to the
// mover's Collide with the occupant, and the mover only enters if the
// collision leaves the tile free.
func (w *World) Move(o *Organism, target *Tile) error {
	if target == nil || o.dead || o.tile == nil || target == o.tile {
		return nil
	}
	if target.IsFree() {
		return w.relocate(o, target)
	}
	other, ok := w.Lookup(target.Occupant())
	if !ok {
		return fmt.Errorf("move %v onto %v: occupant %v unknown: %w", o, target, target.Occupant(), ErrInconsistent)
	}
	return o.Kind.Behavior.Collide(w, o, other)
}

// MoveDir moves o one step in direction d.
func (w *World) MoveDir(o *Organism, d Direction) error {
	if o.tile == nil {
		return nil
	}
	return w.Move(o, o.tile.Neighbour(d))
}

// Fight is the default collision between a mover and the occupant it walked
// into:
//
//  1. the occupant's Defend may take over the encounter;
//  2. same species is a breeding attempt: the mover stays put and the
//     occupant loses the rest of its turn;
//  3. strictly higher power kills the occupant and takes its tile;
//  4. otherwise the mover dies, including on equal power.
func (w *World) Fight(self, other *Organism) error {
	target := other.tile
	handled, err := other.Kind.Behavior.Defend(w, other, self)
	if err != nil {
		return err
	}
	if handled {
		if !self.dead && target != nil && target.IsFree() {
			return w.relocate(self, target)
		}
		return nil
	}
	if self.dead || other.dead {
		return nil
	}

	if self.SameSpecies(other) {
		other.skip = true
		return w.Breed(self, other)
	}

	if self.Power > other.Power {
		if other.Family() == FamilyPlant {
			w.Logf(CategoryFeed, "%s ate %s!", self.Symbol(), other.Symbol())
		} else {
			w.Logf(CategoryDeath, "%s killed %s!", self.Symbol(), other.Symbol())
		}
		if err := w.Kill(other); err != nil {
			return err
		}
		return w.relocate(self, target)
	}

	w.Logf(CategoryDeath, "%s was killed by %s!", self.Symbol(), other.Symbol())
	return w.Kill(self)
}

// Breed resolves a same-species encounter. The mover has not left its tile.
// A child is born on a free tile next to the partner when reproduction is on,
// neither parent is cooling down, and such a tile exists.
func (w *World) Breed(self, partner *Organism) error {
	rules := w.cfg.Rules
	if !rules.Reproduction {
		return nil
	}
	if self.BreedCooldown > 0 || partner.BreedCooldown > 0 {
		return nil
	}
	if partner.tile == nil {
		return nil
	}
	tile := partner.tile.RandomFreeNeighbour(w.rng)
	if tile == nil {
		return nil
	}
	child := self.Kind.New()
	if err := w.AddOrganism(child, tile); err != nil {
		return err
	}
	self.BreedCooldown = rules.ParentCooldown
	partner.BreedCooldown = rules.ParentCooldown
	child.BreedCooldown = rules.ChildCooldown
	w.Logf(CategoryBirth, "%s and %s bred a new %s!", self.Symbol(), partner.Symbol(), child.Symbol())
	return nil
}

// Spread makes one spreading attempt for a plant: with the configured chance
// a new organism of the same species grows on a random free neighbour.
func (w *World) Spread(self *Organism) (*Organism, error) {
	rules := w.cfg.Rules
	if !rules.Reproduction || self.dead || self.tile == nil {
		return nil, nil
	}
	if !w.rng.Chance(rules.SpreadChance) {
		return nil, nil
	}
	tile := self.tile.RandomFreeNeighbour(w.rng)
	if tile == nil {
		return nil, nil
	}
	child := self.Kind.New()
	if err := w.AddOrganism(child, tile); err != nil {
		return nil, err
	}
	w.Logf(CategoryBirth, "%s spread to %v", self.Symbol(), tile)
	return child, nil
}

// Flee moves o to a random free neighbour of its tile. It reports false when
// there is nowhere to go.
func (w *World) Flee(o *Organism) (bool, error) {
	if o.dead || o.tile == nil {
		return false, nil
	}
	tile := o.tile.RandomFreeNeighbour(w.rng)
	if tile == nil {
		return false, nil
	}
	if err := w.relocate(o, tile); err != nil {
		return false, err
	}
	return true, nil
}
