package world

import "fmt"

// AbilitySpec is the template a kind uses to give new organisms an ability.
type AbilitySpec struct {
	Name     string
	Cooldown int // turns before the ability can be used again
	Duration int // turns the effect lasts
}

// New returns a ready, unarmed ability.
func (s AbilitySpec) New() Ability {
	return Ability{
		Name:           s.Name,
		CooldownLength: s.Cooldown,
		DurationLength: s.Duration,
	}
}

// Ability is an activatable effect attached to an organism. The owner arms it,
// its species triggers it during its act, and the world advances it once per
// turn the owner lives through.
type Ability struct {
	Name           string
	CooldownLength int
	DurationLength int

	Cooldown int // turns left until ready
	Active   int // turns of effect left
	Armed    bool
}

// Ready reports whether the ability can be triggered.
func (a *Ability) Ready() bool {
	return a.Active == 0 && a.Cooldown == 0
}

// IsActive reports whether the effect currently applies.
func (a *Ability) IsActive() bool {
	return a.Active > 0
}

// Arm toggles the request to use the ability on the owner's next act.
func (a *Ability) Arm() {
	a.Armed = !a.Armed
}

// Trigger starts the effect if the ability is armed and ready.
func (a *Ability) Trigger() bool {
	if !a.Armed || !a.Ready() {
		return false
	}
	a.Armed = false
	a.Active = a.DurationLength
	return true
}

// Update advances the ability by one turn. When the effect runs out the
// cooldown starts.
func (a *Ability) Update() {
	switch {
	case a.Active > 0:
		a.Active--
		if a.Active == 0 {
			a.Cooldown = a.CooldownLength
		}
	case a.Cooldown > 0:
		a.Cooldown--
	}
}

// Describe returns a short status line for display.
func (a *Ability) Describe() string {
	switch {
	case a.IsActive():
		return fmt.Sprintf("%s: %d turns left", a.Name, a.Active)
	case a.Cooldown > 0:
		return fmt.Sprintf("%s: %d turns of cooldown", a.Name, a.Cooldown)
	case a.Armed:
		return fmt.Sprintf("%s: using next turn", a.Name)
	}
	return fmt.Sprintf("%s: ready to use", a.Name)
}
