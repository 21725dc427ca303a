package species

import (
	"github.com/talgya/lifegrid/internal/world"
)

// Plant stays put and makes Attempts spreading tries each turn.
type Plant struct {
	Attempts int
}

func (p Plant) Act(w *world.World, self *world.Organism) error {
	for i := 0; i < p.Attempts; i++ {
		if _, err := w.Spread(self); err != nil {
			return err
		}
	}
	return nil
}

// Collide is never reached; plants do not move.
func (Plant) Collide(*world.World, *world.Organism, *world.Organism) error { return nil }

func (Plant) Defend(*world.World, *world.Organism, *world.Organism) (bool, error) {
	return false, nil
}

// harmful marks plants that kill whoever eats them.
type harmful interface {
	poisonous()
}

// GuaranaBehavior makes its eater stronger.
type GuaranaBehavior struct {
	Bonus int
}

func (GuaranaBehavior) Act(w *world.World, self *world.Organism) error {
	return Plant{Attempts: 1}.Act(w, self)
}

func (GuaranaBehavior) Collide(*world.World, *world.Organism, *world.Organism) error { return nil }

func (g GuaranaBehavior) Defend(w *world.World, self, attacker *world.Organism) (bool, error) {
	if attacker.Power > self.Power {
		attacker.Power += g.Bonus
		w.Logf(world.CategoryFeed, "%s grew stronger (+%d)", attacker.Symbol(), g.Bonus)
	}
	return false, nil
}

// WolfBerriesBehavior poisons its eater. Both die.
type WolfBerriesBehavior struct{ Plant }

func (WolfBerriesBehavior) Act(w *world.World, self *world.Organism) error {
	return Plant{Attempts: 1}.Act(w, self)
}

func (WolfBerriesBehavior) Defend(w *world.World, self, attacker *world.Organism) (bool, error) {
	return poison(w, self, attacker)
}

func (WolfBerriesBehavior) poisonous() {}

// HogweedBehavior poisons its eater and burns every animal next to it.
type HogweedBehavior struct{ Plant }

func (HogweedBehavior) Act(w *world.World, self *world.Organism) error {
	if err := (Plant{Attempts: 1}).Act(w, self); err != nil {
		return err
	}
	for _, t := range self.Tile().Neighbours() {
		victim, ok := w.OccupantOf(t)
		if !ok || victim.Family() != world.FamilyAnimal || shielded(victim) {
			continue
		}
		if err := w.Kill(victim); err != nil {
			return err
		}
		w.Logf(world.CategoryDeath, "%s was burned by %s!", victim.Symbol(), self.Symbol())
	}
	return nil
}

func (HogweedBehavior) Defend(w *world.World, self, attacker *world.Organism) (bool, error) {
	return poison(w, self, attacker)
}

func (HogweedBehavior) poisonous() {}

func poison(w *world.World, self, eater *world.Organism) (bool, error) {
	w.Logf(world.CategoryDeath, "%s ate %s and died!", eater.Symbol(), self.Symbol())
	if err := w.Kill(eater); err != nil {
		return false, err
	}
	if err := w.Kill(self); err != nil {
		return false, err
	}
	return true, nil
}
