package species

import (
	"github.com/talgya/lifegrid/internal/world"
)

// HumanBehavior is the player's organism. It walks in the direction the
// player steered it and triggers its ability when the player armed it. While
// the ability is active, a fight the human would lose becomes an escape to a
// free neighbour; with nowhere to go it simply holds its ground.
type HumanBehavior struct{ Animal }

func (HumanBehavior) Act(w *world.World, self *world.Organism) error {
	if self.Ability != nil && self.Ability.Trigger() {
		w.Logf(world.CategoryAbility, "%s activated %s!", self.Symbol(), self.Ability.Name)
	}
	dir := self.Steer
	self.Steer = world.Self
	return w.MoveDir(self, dir)
}

func (HumanBehavior) Collide(w *world.World, self, other *world.Organism) error {
	if shielded(self) && wouldLose(self, other) {
		_, err := escape(w, self, other)
		return err
	}
	return w.Fight(self, other)
}

func (HumanBehavior) Defend(w *world.World, self, attacker *world.Organism) (bool, error) {
	if !shielded(self) || self.SameSpecies(attacker) || attacker.Power <= self.Power {
		return false, nil
	}
	if _, err := escape(w, self, attacker); err != nil {
		return false, err
	}
	return true, nil
}

// shielded reports whether o's ability currently protects it from death.
func shielded(o *world.Organism) bool {
	return o.Ability != nil && o.Ability.IsActive()
}

// wouldLose reports whether self dies attacking other under the default
// resolution. Harmful plants are always lethal to the eater.
func wouldLose(self, other *world.Organism) bool {
	if self.SameSpecies(other) {
		return false
	}
	if _, ok := other.Kind.Behavior.(harmful); ok {
		return true
	}
	return self.Power <= other.Power
}

func escape(w *world.World, self, from *world.Organism) (bool, error) {
	fled, err := w.Flee(self)
	if err != nil {
		return false, err
	}
	if fled {
		w.Logf(world.CategoryAbility, "%s escaped %s thanks to %s!", self.Symbol(), from.Symbol(), self.Ability.Name)
	}
	return fled, nil
}
