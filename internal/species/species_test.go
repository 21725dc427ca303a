package species

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/lifegrid/internal/world"
)

func newWorld(t *testing.T, width, height int, seed int64) *world.World {
	t.Helper()
	catalog, population, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	w, err := world.New(world.Config{
		Width:      width,
		Height:     height,
		Seed:       seed,
		Rules:      world.DefaultRules(),
		Population: population,
	}, catalog)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func put(t *testing.T, w *world.World, s world.Species, x, y int) *world.Organism {
	t.Helper()
	o, err := w.Construct(s)
	if err != nil {
		t.Fatalf("Construct(%s): %v", s, err)
	}
	if err := w.AddOrganism(o, at(t, w, x, y)); err != nil {
		t.Fatalf("AddOrganism(%s): %v", s, err)
	}
	return o
}

func at(t *testing.T, w *world.World, x, y int) *world.Tile {
	t.Helper()
	tile, err := w.Tile(x, y)
	if err != nil {
		t.Fatalf("Tile(%d,%d): %v", x, y, err)
	}
	return tile
}

func step(t *testing.T, w *world.World) {
	t.Helper()
	if err := w.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate after turn %d: %v", w.Turn(), err)
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog, population, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(catalog) != 11 {
		t.Fatalf("catalog has %d species, want 11", len(catalog))
	}

	total := 0
	for _, q := range population {
		total += q.Count
	}
	if total != 31 {
		t.Fatalf("default population = %d, want 31", total)
	}
	if population[0].Species != Human || population[0].Count != 1 {
		t.Fatalf("first quota = %+v", population[0])
	}

	tests := []struct {
		species    world.Species
		family     world.Family
		power      int
		initiative int
	}{
		{Wolf, world.FamilyAnimal, 9, 5},
		{Sheep, world.FamilyAnimal, 4, 4},
		{Fox, world.FamilyAnimal, 3, 7},
		{Turtle, world.FamilyAnimal, 2, 1},
		{Antelope, world.FamilyAnimal, 4, 4},
		{Human, world.FamilyAnimal, 5, 4},
		{Grass, world.FamilyPlant, 0, 0},
		{Guarana, world.FamilyPlant, 0, 0},
		{Milkweed, world.FamilyPlant, 0, 0},
		{WolfBerries, world.FamilyPlant, 99, 0},
		{Hogweed, world.FamilyPlant, 10, 0},
	}
	for _, tc := range tests {
		k, err := catalog.Kind(tc.species)
		if err != nil {
			t.Fatalf("Kind(%s): %v", tc.species, err)
		}
		if k.Family != tc.family || k.Power != tc.power || k.Initiative != tc.initiative {
			t.Errorf("%s: family=%v power=%d initiative=%d", tc.species, k.Family, k.Power, k.Initiative)
		}
		if k.Symbol == "" {
			t.Errorf("%s has no symbol", tc.species)
		}
	}

	human := catalog[Human]
	if !human.Controlled || human.Ability == nil {
		t.Fatal("human is not player-controlled with an ability")
	}
	if *human.Ability != (world.AbilitySpec{Name: "immortality", Cooldown: 5, Duration: 5}) {
		t.Fatalf("human ability = %+v", *human.Ability)
	}
}

func TestLoadCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.yaml")
	doc := `
species:
  - name: rabbit
    power: 1
    initiative: 6
    count: 8
    behavior: animal
  - name: moss
    family: plant
    behavior: plant
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, population, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("catalog = %d species", len(catalog))
	}
	want := []world.Quota{{Species: "rabbit", Count: 8}}
	if !reflect.DeepEqual(population, want) {
		t.Fatalf("population = %+v, want %+v", population, want)
	}
	if catalog["rabbit"].Symbol != "r" {
		t.Fatalf("fallback symbol = %q", catalog["rabbit"].Symbol)
	}
	if _, ok := catalog["moss"].Behavior.(Plant); !ok {
		t.Fatalf("moss behaviour = %T", catalog["moss"].Behavior)
	}
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	a, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(a) != 11 {
		t.Fatalf("got %d species", len(a))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseRejectsBadTuning(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "species: []"},
		{"no name", "species: [{power: 1}]"},
		{"unknown behavior", "species: [{name: dragon}]"},
		{"bad family", "species: [{name: fox, family: fungus}]"},
		{"negative power", "species: [{name: fox, power: -1}]"},
		{"duplicate", "species: [{name: fox}, {name: fox}]"},
		{"bad ability", "species: [{name: human, ability: {name: x, cooldown: 1, duration: 0}}]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Parse([]byte(tc.doc)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}

	if _, _, err := Parse([]byte("species: [")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestDefaultWorldRunsDeterministically(t *testing.T) {
	run := func() (world.State, int) {
		w := newWorld(t, 20, 20, 42)
		w.SetRules(world.Rules{
			Reproduction:   true,
			Wildlife:       true,
			SpreadChance:   10,
			ParentCooldown: 5,
			ChildCooldown:  10,
		})
		if err := w.GenerateOrganisms(); err != nil {
			t.Fatalf("GenerateOrganisms: %v", err)
		}
		if w.Count() != 31 {
			t.Fatalf("generated %d organisms, want 31", w.Count())
		}
		for i := 0; i < 100; i++ {
			step(t, w)
		}
		st, err := w.State()
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		st.ID = ""
		return st, w.Count()
	}

	a, n := run()
	b, _ := run()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs with the same seed diverged")
	}
	if n > 400 {
		t.Fatalf("%d organisms on 400 tiles", n)
	}
}
