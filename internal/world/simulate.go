package world

import (
	"fmt"
	"sort"
)

// Simulate runs one full turn. Every organism alive when the turn starts acts
// exactly once, in turn order; organisms born during the turn wait for the
// next one. Dead organisms are reaped after everyone has acted. An error from
// any act aborts the turn and is returned unchanged in kind.
func (w *World) Simulate() error {
	if w.simulating {
		return ErrBusy
	}
	w.simulating = true
	defer func() { w.simulating = false }()

	if w.cfg.Log.PerTurn {
		w.ClearLogs()
	}

	order := w.turnOrder()
	for _, o := range order {
		if o.dead || o.skip {
			continue
		}
		if !w.cfg.Rules.Wildlife && !o.Kind.Controlled {
			continue
		}
		if err := o.Kind.Behavior.Act(w, o); err != nil {
			return fmt.Errorf("turn %d: %v act: %w", w.turn+1, o, err)
		}
	}

	w.reap(order)

	w.Logf(CategoryTurn, "turn %d: %d organisms", w.turn+1, len(w.live))
	w.turn++
	return nil
}

// turnOrder snapshots the collection sorted by initiative (high first), then
// age (old first), then insertion order.
func (w *World) turnOrder() []*Organism {
	order := w.Organisms()
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.Age != b.Age {
			return a.Age > b.Age
		}
		return a.Seq < b.Seq
	})
	return order
}

// TurnOrder returns the order in which organisms would act if a turn started now.
func (w *World) TurnOrder() []*Organism {
	return w.turnOrder()
}

// reap removes dead organisms from the collection and ages the survivors
// that lived through the whole turn.
func (w *World) reap(started []*Organism) {
	n := len(w.live)
	kept := w.live[:0]
	for _, o := range w.live {
		if o.dead {
			w.release(o)
			continue
		}
		kept = append(kept, o)
	}
	clear(w.live[len(kept):n])
	w.live = kept
	for _, o := range w.live {
		o.skip = false
	}

	for _, o := range started {
		if o.dead {
			continue
		}
		o.Age++
		if o.BreedCooldown > 0 {
			o.BreedCooldown--
		}
		if o.Ability != nil {
			o.Ability.Update()
		}
	}
}
