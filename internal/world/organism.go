package world

import "fmt"

// Species tags an organism's kind. Same-species detection compares tags by value.
type Species string

// Family groups species that share movement and collision habits.
type Family uint8

const (
	FamilyAnimal Family = iota // mobile, attacks what it walks into
	FamilyPlant                // stationary, spreads to free neighbours
)

func (f Family) String() string {
	if f == FamilyPlant {
		return "plant"
	}
	return "animal"
}

// Behavior is the per-species capability set the scheduler drives.
//
// Act runs once per organism per turn. Collide runs on the mover when the tile
// it steps onto is occupied by other. Defend runs on the occupant before the
// default resolution; returning true means the encounter was fully handled.
type Behavior interface {
	Act(w *World, self *Organism) error
	Collide(w *World, self, other *Organism) error
	Defend(w *World, self, attacker *Organism) (bool, error)
}

// Kind is a catalog entry: the fixed, shared description of a species.
type Kind struct {
	Species    Species
	Family     Family
	Symbol     string
	Power      int
	Initiative int
	Controlled bool // steered by the player instead of acting on its own
	Ability    *AbilitySpec
	Behavior   Behavior
}

// New constructs a fresh organism of this kind. Nothing is inherited from any
// existing instance; the world assigns identity when the organism is added.
func (k *Kind) New() *Organism {
	o := &Organism{
		Kind:       k,
		Power:      k.Power,
		Initiative: k.Initiative,
	}
	if k.Ability != nil {
		a := k.Ability.New()
		o.Ability = &a
	}
	return o
}

// Catalog maps species tags to their kinds.
type Catalog map[Species]*Kind

// Kind returns the catalog entry for s.
func (c Catalog) Kind(s Species) (*Kind, error) {
	k, ok := c[s]
	if !ok || k == nil {
		return nil, fmt.Errorf("%q: %w", s, ErrUnknownSpecies)
	}
	return k, nil
}

// Organism is one living (or freshly dead) creature owned by the world arena.
type Organism struct {
	ID   Handle
	Kind *Kind

	Power         int
	Initiative    int
	Age           uint64 // turns survived
	Seq           uint64 // insertion sequence, the final tie-break in turn order
	BreedCooldown int
	Steer         Direction // pending player move, consumed on the next act
	Ability       *Ability

	dead bool
	skip bool // bumped by a mate this turn; sits out the rest of it
	tile *Tile
	prev *Tile
}

func (o *Organism) Species() Species { return o.Kind.Species }
func (o *Organism) Symbol() string   { return o.Kind.Symbol }
func (o *Organism) Family() Family   { return o.Kind.Family }
func (o *Organism) Dead() bool       { return o.dead }
func (o *Organism) Alive() bool      { return !o.dead }

// Tile returns the organism's current tile; nil once it has died.
func (o *Organism) Tile() *Tile { return o.tile }

// PreviousTile returns the tile the organism last moved off, if any.
func (o *Organism) PreviousTile() *Tile { return o.prev }

// SameSpecies reports whether other belongs to the same species.
func (o *Organism) SameSpecies(other *Organism) bool {
	return other != nil && o.Kind.Species == other.Kind.Species
}

func (o *Organism) String() string {
	if o.tile == nil {
		return fmt.Sprintf("%s%v", o.Kind.Species, o.ID)
	}
	return fmt.Sprintf("%s%v@%v", o.Kind.Species, o.ID, o.tile)
}
