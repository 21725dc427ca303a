package world

import (
	"testing"
)

// wanderer steps onto a random neighbour every turn and fights what it meets.
type wanderer struct{}

func (wanderer) Act(w *World, self *Organism) error {
	return w.Move(self, self.Tile().RandomNeighbour(w.Rand()))
}
func (wanderer) Collide(w *World, self, other *Organism) error     { return w.Fight(self, other) }
func (wanderer) Defend(*World, *Organism, *Organism) (bool, error) { return false, nil }

// walker steps in its Steer direction every turn.
type walker struct{ wanderer }

func (walker) Act(w *World, self *Organism) error { return w.MoveDir(self, self.Steer) }

// rock never acts.
type rock struct{ wanderer }

func (rock) Act(*World, *Organism) error { return nil }

// seedling spreads like a plant.
type seedling struct{ wanderer }

func (seedling) Act(w *World, self *Organism) error {
	_, err := w.Spread(self)
	return err
}

// reentrant tries to start a nested turn.
type reentrant struct{ wanderer }

func (reentrant) Act(w *World, _ *Organism) error { return w.Simulate() }

func testCatalog() Catalog {
	kinds := []*Kind{
		{Species: "sheep", Symbol: "S", Power: 4, Initiative: 4, Behavior: wanderer{}},
		{Species: "walker", Symbol: "W", Power: 4, Initiative: 4, Behavior: walker{}},
		{Species: "weak", Symbol: "w", Power: 3, Initiative: 9, Behavior: walker{}},
		{Species: "brute", Symbol: "B", Power: 7, Initiative: 9, Behavior: walker{}},
		{Species: "strong", Symbol: "X", Power: 5, Initiative: 1, Behavior: rock{}},
		{Species: "equal", Symbol: "E", Power: 3, Initiative: 1, Behavior: rock{}},
		{Species: "moss", Symbol: "m", Family: FamilyPlant, Behavior: seedling{}},
		{Species: "pilot", Symbol: "P", Power: 5, Initiative: 4, Controlled: true,
			Ability: &AbilitySpec{Name: "shield", Cooldown: 2, Duration: 2}, Behavior: walker{}},
		{Species: "loop", Symbol: "L", Power: 1, Initiative: 1, Behavior: reentrant{}},
	}
	c := Catalog{}
	for _, k := range kinds {
		c[k.Species] = k
	}
	return c
}

func newTestWorld(t *testing.T, width, height int, seed int64) *World {
	t.Helper()
	w, err := New(Config{
		Width:  width,
		Height: height,
		Seed:   seed,
		Rules:  DefaultRules(),
	}, testCatalog())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func place(t *testing.T, w *World, s Species, x, y int) *Organism {
	t.Helper()
	o, err := w.Construct(s)
	if err != nil {
		t.Fatalf("Construct(%s): %v", s, err)
	}
	tile, err := w.Tile(x, y)
	if err != nil {
		t.Fatalf("Tile(%d,%d): %v", x, y, err)
	}
	if err := w.AddOrganism(o, tile); err != nil {
		t.Fatalf("AddOrganism(%s at %d,%d): %v", s, x, y, err)
	}
	return o
}

func mustTile(t *testing.T, w *World, x, y int) *Tile {
	t.Helper()
	tile, err := w.Tile(x, y)
	if err != nil {
		t.Fatalf("Tile(%d,%d): %v", x, y, err)
	}
	return tile
}

func simulate(t *testing.T, w *World) {
	t.Helper()
	if err := w.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate after turn %d: %v", w.Turn(), err)
	}
}
