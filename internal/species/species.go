// Package species provides the organism catalog: per-species behaviours and
// the tuning file that sets their stats and the starting population.
package species

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/lifegrid/internal/world"
)

// Built-in species tags.
const (
	Human       world.Species = "human"
	Wolf        world.Species = "wolf"
	Sheep       world.Species = "sheep"
	Fox         world.Species = "fox"
	Turtle      world.Species = "turtle"
	Antelope    world.Species = "antelope"
	Hogweed     world.Species = "hogweed"
	Grass       world.Species = "grass"
	Guarana     world.Species = "guarana"
	Milkweed    world.Species = "milkweed"
	WolfBerries world.Species = "wolfberries"
)

// ErrInvalid is returned for tuning files that cannot produce a catalog.
var ErrInvalid = errors.New("invalid species tuning")

//go:embed species.yaml
var defaultTuning []byte

// behaviors maps behaviour names usable in a tuning file to implementations.
var behaviors = map[string]world.Behavior{
	"animal":            Animal{},
	"plant":             Plant{Attempts: 1},
	string(Human):       HumanBehavior{},
	string(Fox):         FoxBehavior{},
	string(Turtle):      TurtleBehavior{},
	string(Antelope):    AntelopeBehavior{},
	string(Hogweed):     HogweedBehavior{},
	string(Guarana):     GuaranaBehavior{Bonus: 3},
	string(Milkweed):    Plant{Attempts: 3},
	string(WolfBerries): WolfBerriesBehavior{},
}

// Tuning is the decoded tuning file.
type Tuning struct {
	Species []Entry `yaml:"species"`
}

// Entry describes one species.
type Entry struct {
	Name       string        `yaml:"name"`
	Family     string        `yaml:"family"`
	Symbol     string        `yaml:"symbol"`
	Power      int           `yaml:"power"`
	Initiative int           `yaml:"initiative"`
	Count      int           `yaml:"count"`
	Controlled bool          `yaml:"controlled"`
	Behavior   string        `yaml:"behavior"`
	Ability    *AbilityEntry `yaml:"ability"`
}

// AbilityEntry configures an activatable ability.
type AbilityEntry struct {
	Name     string `yaml:"name"`
	Cooldown int    `yaml:"cooldown"`
	Duration int    `yaml:"duration"`
}

// Default returns the built-in catalog and population mix.
func Default() (world.Catalog, []world.Quota, error) {
	return Parse(defaultTuning)
}

// Load reads a tuning file. An empty path yields the built-in tuning.
func Load(path string) (world.Catalog, []world.Quota, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read species tuning: %w", err)
	}
	c, q, err := Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, q, nil
}

// Parse decodes a tuning document into a catalog and the population mix, in
// file order.
func Parse(raw []byte) (world.Catalog, []world.Quota, error) {
	var t Tuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, nil, fmt.Errorf("species tuning: %w", err)
	}
	if len(t.Species) == 0 {
		return nil, nil, fmt.Errorf("no species defined: %w", ErrInvalid)
	}

	catalog := make(world.Catalog, len(t.Species))
	var population []world.Quota
	for i, e := range t.Species {
		k, err := e.kind()
		if err != nil {
			return nil, nil, fmt.Errorf("species %d (%q): %w", i, e.Name, err)
		}
		if _, dup := catalog[k.Species]; dup {
			return nil, nil, fmt.Errorf("species %q defined twice: %w", e.Name, ErrInvalid)
		}
		catalog[k.Species] = k
		if e.Count > 0 {
			population = append(population, world.Quota{Species: k.Species, Count: e.Count})
		}
	}
	return catalog, population, nil
}

func (e Entry) kind() (*world.Kind, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("missing name: %w", ErrInvalid)
	}
	if e.Power < 0 || e.Count < 0 {
		return nil, fmt.Errorf("negative power or count: %w", ErrInvalid)
	}

	var family world.Family
	switch e.Family {
	case "", "animal":
		family = world.FamilyAnimal
	case "plant":
		family = world.FamilyPlant
	default:
		return nil, fmt.Errorf("family %q: %w", e.Family, ErrInvalid)
	}

	name := e.Behavior
	if name == "" {
		name = e.Name
	}
	b, ok := behaviors[name]
	if !ok {
		return nil, fmt.Errorf("behavior %q: %w", name, ErrInvalid)
	}

	symbol := e.Symbol
	if symbol == "" {
		symbol = e.Name[:1]
	}

	k := &world.Kind{
		Species:    world.Species(e.Name),
		Family:     family,
		Symbol:     symbol,
		Power:      e.Power,
		Initiative: e.Initiative,
		Controlled: e.Controlled,
		Behavior:   b,
	}
	if a := e.Ability; a != nil {
		if a.Cooldown < 0 || a.Duration <= 0 {
			return nil, fmt.Errorf("ability %q timings: %w", a.Name, ErrInvalid)
		}
		k.Ability = &world.AbilitySpec{Name: a.Name, Cooldown: a.Cooldown, Duration: a.Duration}
	}
	return k, nil
}
