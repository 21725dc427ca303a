package world

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/lifegrid/internal/entropy"
)

// AbilityState is the persisted part of an Ability.
type AbilityState struct {
	Cooldown int  `json:"cooldown"`
	Active   int  `json:"active"`
	Armed    bool `json:"armed,omitempty"`
}

// OrganismState is the persisted record of one organism.
type OrganismState struct {
	Species       Species       `json:"species"`
	X             int           `json:"x"`
	Y             int           `json:"y"`
	Power         int           `json:"power"`
	Initiative    int           `json:"initiative"`
	Age           uint64        `json:"age"`
	BreedCooldown int           `json:"breed_cooldown"`
	Steer         Direction     `json:"steer,omitempty"`
	Ability       *AbilityState `json:"ability,omitempty"`
}

// State is the complete persisted form of a world between turns.
type State struct {
	ID        string          `json:"id"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Turn      uint64          `json:"turn"`
	Seed      int64           `json:"seed"`
	RNG       []byte          `json:"rng,omitempty"`
	Organisms []OrganismState `json:"organisms"`
	Logs      []string        `json:"logs,omitempty"`
}

// State captures the world. Organisms are listed in insertion order so a
// restored world keeps the same turn-order tie-breaks.
func (w *World) State() (State, error) {
	if w.simulating {
		return State{}, ErrBusy
	}
	rng, err := w.rng.State()
	if err != nil {
		return State{}, fmt.Errorf("rng state: %w", err)
	}
	st := State{
		ID:        w.id,
		Width:     w.width,
		Height:    w.height,
		Turn:      w.turn,
		Seed:      w.rng.Seed(),
		RNG:       rng,
		Organisms: make([]OrganismState, 0, len(w.live)),
		Logs:      w.Logs(),
	}
	for _, o := range w.live {
		if o.dead {
			continue
		}
		rec := OrganismState{
			Species:       o.Kind.Species,
			X:             o.tile.X,
			Y:             o.tile.Y,
			Power:         o.Power,
			Initiative:    o.Initiative,
			Age:           o.Age,
			BreedCooldown: o.BreedCooldown,
			Steer:         o.Steer,
		}
		if o.Ability != nil {
			rec.Ability = &AbilityState{
				Cooldown: o.Ability.Cooldown,
				Active:   o.Ability.Active,
				Armed:    o.Ability.Armed,
			}
		}
		st.Organisms = append(st.Organisms, rec)
	}
	return st, nil
}

// Restore replaces the world's contents with st. The state is checked in
// full first; on error the world is left as it was.
func (w *World) Restore(st State) error {
	if w.simulating {
		return ErrBusy
	}
	if st.Width <= 0 || st.Height <= 0 {
		return fmt.Errorf("world size %dx%d: %w", st.Width, st.Height, ErrOutOfRange)
	}
	if err := w.checkRecords(st.Width, st.Height, st.Organisms); err != nil {
		return err
	}
	rng := entropy.New(st.Seed)
	if len(st.RNG) > 0 {
		if err := rng.Restore(st.RNG); err != nil {
			return err
		}
	}

	if err := w.SetWorld(st.Width, st.Height, st.Turn); err != nil {
		return err
	}
	w.cfg.Seed = st.Seed
	w.rng = rng
	w.id = st.ID
	if w.id == "" {
		w.id = uuid.NewString()
	}
	if err := w.SetOrganisms(st.Organisms); err != nil {
		return err
	}
	w.logs = append(w.logs[:0], st.Logs...)
	return nil
}

// checkRecords verifies that states can be placed on a width x height grid:
// known species, in bounds, one organism per tile.
func (w *World) checkRecords(width, height int, states []OrganismState) error {
	seen := make(map[[2]int]int, len(states))
	for i, st := range states {
		if _, err := w.catalog.Kind(st.Species); err != nil {
			return fmt.Errorf("organism %d: %w", i, err)
		}
		if st.X < 0 || st.X >= width || st.Y < 0 || st.Y >= height {
			return fmt.Errorf("organism %d (%s) at (%d,%d) on %dx%d grid: %w", i, st.Species, st.X, st.Y, width, height, ErrOutOfRange)
		}
		pos := [2]int{st.X, st.Y}
		if j, dup := seen[pos]; dup {
			return fmt.Errorf("organism %d (%s) at (%d,%d) shares a tile with organism %d: %w", i, st.Species, st.X, st.Y, j, ErrOccupied)
		}
		seen[pos] = i
	}
	return nil
}

// SetOrganisms drops every organism and places the given records on the
// current grid, in order. Nothing changes if a record is invalid.
func (w *World) SetOrganisms(states []OrganismState) error {
	if err := w.checkRecords(w.width, w.height, states); err != nil {
		return err
	}
	w.clearOrganisms()
	for i, st := range states {
		k, err := w.catalog.Kind(st.Species)
		if err != nil {
			return fmt.Errorf("organism %d: %w", i, err)
		}
		tile, err := w.Tile(st.X, st.Y)
		if err != nil {
			return fmt.Errorf("organism %d (%s): %w", i, st.Species, err)
		}
		o := k.New()
		o.Power = st.Power
		o.Initiative = st.Initiative
		o.Age = st.Age
		o.BreedCooldown = st.BreedCooldown
		o.Steer = st.Steer
		if st.Ability != nil && o.Ability != nil {
			o.Ability.Cooldown = st.Ability.Cooldown
			o.Ability.Active = st.Ability.Active
			o.Ability.Armed = st.Ability.Armed
		}
		if err := w.AddOrganism(o, tile); err != nil {
			return fmt.Errorf("organism %d (%s): %w", i, st.Species, err)
		}
	}
	return nil
}
