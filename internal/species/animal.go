package species

import (
	"github.com/talgya/lifegrid/internal/entropy"
	"github.com/talgya/lifegrid/internal/world"
)

// Animal is the default animal: it wanders onto a random neighbour each turn
// and fights whatever it walks into. Other animals embed it and override
// what they do differently.
type Animal struct{}

func (Animal) Act(w *world.World, self *world.Organism) error {
	return w.Move(self, self.Tile().RandomNeighbour(w.Rand()))
}

func (Animal) Collide(w *world.World, self, other *world.Organism) error {
	return w.Fight(self, other)
}

func (Animal) Defend(*world.World, *world.Organism, *world.Organism) (bool, error) {
	return false, nil
}

// FoxBehavior never steps onto an organism stronger than itself.
type FoxBehavior struct{ Animal }

func (FoxBehavior) Act(w *world.World, self *world.Organism) error {
	var safe []*world.Tile
	for _, t := range self.Tile().Neighbours() {
		if other, ok := w.OccupantOf(t); ok && other.Power > self.Power {
			continue
		}
		safe = append(safe, t)
	}
	target, ok := entropy.Pick(w.Rand(), safe)
	if !ok {
		return nil
	}
	return w.Move(self, target)
}

// Turtle tuning.
const (
	turtleMoveChance = 25 // percent of turns a turtle moves at all
	turtleShell      = 5  // attackers weaker than this bounce off
)

// TurtleBehavior rarely moves and repels weak attackers.
type TurtleBehavior struct{ Animal }

func (TurtleBehavior) Act(w *world.World, self *world.Organism) error {
	if !w.Rand().Chance(turtleMoveChance) {
		return nil
	}
	return Animal{}.Act(w, self)
}

func (TurtleBehavior) Defend(w *world.World, self, attacker *world.Organism) (bool, error) {
	if self.SameSpecies(attacker) || attacker.Power >= turtleShell {
		return false, nil
	}
	w.Logf(world.CategoryEscape, "%s repelled %s!", self.Symbol(), attacker.Symbol())
	return true, nil
}

const antelopeEscapeChance = 50

// AntelopeBehavior takes two steps a turn and may run from a fight, whether
// it started it or not. Running into anything ends its movement for the turn.
type AntelopeBehavior struct{ Animal }

func (AntelopeBehavior) Act(w *world.World, self *world.Organism) error {
	start := self.Tile()
	first := start.RandomNeighbour(w.Rand())
	collided := first != nil && !first.IsFree()
	if err := w.Move(self, first); err != nil {
		return err
	}
	if collided || self.Dead() || self.Tile() == start {
		return nil
	}

	// The second step never goes straight back.
	var onward []*world.Tile
	for _, t := range self.Tile().Neighbours() {
		if t != self.PreviousTile() {
			onward = append(onward, t)
		}
	}
	target, ok := entropy.Pick(w.Rand(), onward)
	if !ok {
		return nil
	}
	return w.Move(self, target)
}

func (AntelopeBehavior) Collide(w *world.World, self, other *world.Organism) error {
	if !self.SameSpecies(other) && w.Rand().Chance(antelopeEscapeChance) {
		fled, err := w.Flee(self)
		if err != nil {
			return err
		}
		if fled {
			w.Logf(world.CategoryEscape, "%s escaped from %s!", self.Symbol(), other.Symbol())
			return nil
		}
	}
	return w.Fight(self, other)
}

func (AntelopeBehavior) Defend(w *world.World, self, attacker *world.Organism) (bool, error) {
	if self.SameSpecies(attacker) || !w.Rand().Chance(antelopeEscapeChance) {
		return false, nil
	}
	fled, err := w.Flee(self)
	if err != nil || !fled {
		return false, err
	}
	w.Logf(world.CategoryEscape, "%s escaped from %s!", self.Symbol(), attacker.Symbol())
	return true, nil
}
