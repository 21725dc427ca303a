package world

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewRejectsEmptyGrid(t *testing.T) {
	if _, err := New(Config{Width: 0, Height: 5}, testCatalog()); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("New(0x5) err = %v, want ErrOutOfRange", err)
	}
}

func TestQueryErrors(t *testing.T) {
	w := newTestWorld(t, 3, 3, 1)

	if _, err := w.OrganismAt(0); !errors.Is(err, ErrEmpty) {
		t.Fatalf("OrganismAt on empty world: %v", err)
	}
	place(t, w, "sheep", 0, 0)
	if _, err := w.OrganismAt(1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("OrganismAt(1): %v", err)
	}
	if _, err := w.Tile(3, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Tile(3,0): %v", err)
	}
	if _, err := w.TileAt(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("TileAt(-1): %v", err)
	}
	if _, err := w.Construct("unicorn"); !errors.Is(err, ErrUnknownSpecies) {
		t.Fatalf("Construct(unicorn): %v", err)
	}

	o, _ := w.Construct("sheep")
	if err := w.AddOrganism(o, mustTile(t, w, 0, 0)); !errors.Is(err, ErrOccupied) {
		t.Fatalf("AddOrganism on occupied tile: %v", err)
	}
	if w.Count() != 1 {
		t.Fatalf("failed add changed count to %d", w.Count())
	}
}

func TestLoneSheepMovesToANeighbour(t *testing.T) {
	seen := map[Direction]int{}
	for seed := int64(1); seed <= 200; seed++ {
		w := newTestWorld(t, 5, 5, seed)
		sheep := place(t, w, "sheep", 2, 2)
		start := sheep.Tile()

		simulate(t, w)

		if !start.IsFree() {
			t.Fatalf("seed %d: previous tile still occupied", seed)
		}
		d := start.DirectionTo(sheep.Tile())
		if d == Self {
			t.Fatalf("seed %d: sheep at %v is not next to %v", seed, sheep.Tile(), start)
		}
		if w.Count() != 1 {
			t.Fatalf("seed %d: count = %d", seed, w.Count())
		}
		seen[d]++
	}
	for _, d := range Directions {
		if seen[d] < 20 {
			t.Fatalf("direction %v chosen %d/200 times: %v", d, seen[d], seen)
		}
	}
}

func TestMoveOffEdgeIsNoop(t *testing.T) {
	w := newTestWorld(t, 3, 3, 1)
	o := place(t, w, "walker", 0, 0)
	o.Steer = Up

	simulate(t, w)

	if o.Tile() != mustTile(t, w, 0, 0) {
		t.Fatalf("walker moved to %v", o.Tile())
	}
}

func TestSameSpeciesCollisionBreeds(t *testing.T) {
	w := newTestWorld(t, 5, 5, 3)
	events := &EventBuffer{}
	w.AddSink(events)

	a := place(t, w, "walker", 1, 2)
	b := place(t, w, "walker", 2, 2)
	a.Steer = Right
	b.Steer = Left

	simulate(t, w)

	if a.Tile() != mustTile(t, w, 1, 2) || b.Tile() != mustTile(t, w, 2, 2) {
		t.Fatalf("parents moved: a=%v b=%v", a.Tile(), b.Tile())
	}
	if w.Count() != 3 {
		t.Fatalf("count = %d, want 3", w.Count())
	}
	var child *Organism
	for _, o := range w.Organisms() {
		if o != a && o != b {
			child = o
		}
	}
	if child.Species() != "walker" {
		t.Fatalf("child species %s", child.Species())
	}
	if b.Tile().DirectionTo(child.Tile()) == Self {
		t.Fatalf("child at %v not next to partner at %v", child.Tile(), b.Tile())
	}
	// Parents got 5 and lived through the turn; the newborn did not.
	if a.BreedCooldown != 4 || b.BreedCooldown != 4 {
		t.Fatalf("parent cooldowns %d/%d, want 4/4", a.BreedCooldown, b.BreedCooldown)
	}
	if child.BreedCooldown != 10 {
		t.Fatalf("child cooldown %d, want 10", child.BreedCooldown)
	}
	if child.Age != 0 || a.Age != 1 {
		t.Fatalf("ages child=%d parent=%d", child.Age, a.Age)
	}

	births := 0
	for _, e := range events.Drain() {
		if e.Category == CategoryBirth {
			births++
			if e.Turn != 1 {
				t.Fatalf("birth event stamped turn %d", e.Turn)
			}
		}
	}
	if births != 1 {
		t.Fatalf("births = %d, want 1", births)
	}
}

func TestBreedingRespectsSwitchAndCooldown(t *testing.T) {
	w := newTestWorld(t, 5, 5, 3)
	rules := w.Rules()
	rules.Reproduction = false
	w.SetRules(rules)

	a := place(t, w, "walker", 1, 2)
	b := place(t, w, "walker", 2, 2)
	a.Steer = Right

	simulate(t, w)
	if w.Count() != 2 {
		t.Fatalf("reproduction off: count = %d", w.Count())
	}

	rules.Reproduction = true
	w.SetRules(rules)
	b.BreedCooldown = 3
	simulate(t, w)
	if w.Count() != 2 {
		t.Fatalf("partner on cooldown: count = %d", w.Count())
	}
}

func TestBreedingNeedsFreeTile(t *testing.T) {
	w := newTestWorld(t, 2, 1, 3)
	a := place(t, w, "walker", 0, 0)
	place(t, w, "walker", 1, 0)
	a.Steer = Right

	simulate(t, w)
	if w.Count() != 2 {
		t.Fatalf("count = %d, want 2", w.Count())
	}
}

func TestWeakerMoverDies(t *testing.T) {
	w := newTestWorld(t, 4, 3, 1)
	weak := place(t, w, "weak", 1, 1)
	strong := place(t, w, "strong", 2, 1)
	weak.Steer = Right
	id := weak.ID

	simulate(t, w)

	if !weak.Dead() {
		t.Fatal("power 3 mover survived")
	}
	if _, ok := w.Lookup(id); ok {
		t.Fatal("dead organism still resolvable")
	}
	if w.Count() != 1 {
		t.Fatalf("count = %d, want 1", w.Count())
	}
	if strong.Tile() != mustTile(t, w, 2, 1) {
		t.Fatalf("strong moved to %v", strong.Tile())
	}
	if !mustTile(t, w, 1, 1).IsFree() {
		t.Fatal("dead mover's tile not vacated")
	}
	if !containsLog(w.Logs(), "w was killed by X!") {
		t.Fatalf("logs = %q", w.Logs())
	}
}

func TestStrongerMoverTakesTile(t *testing.T) {
	w := newTestWorld(t, 4, 3, 1)
	brute := place(t, w, "brute", 1, 1)
	victim := place(t, w, "strong", 2, 1)
	brute.Steer = Right

	simulate(t, w)

	if !victim.Dead() || brute.Dead() {
		t.Fatalf("victim dead=%v brute dead=%v", victim.Dead(), brute.Dead())
	}
	if brute.Tile() != mustTile(t, w, 2, 1) {
		t.Fatalf("brute at %v, want (2,1)", brute.Tile())
	}
	if brute.PreviousTile() != mustTile(t, w, 1, 1) {
		t.Fatalf("previous tile %v", brute.PreviousTile())
	}
	if w.Count() != 1 {
		t.Fatalf("count = %d", w.Count())
	}
}

func TestEqualPowerMoverDies(t *testing.T) {
	w := newTestWorld(t, 4, 3, 1)
	weak := place(t, w, "weak", 1, 1)
	other := place(t, w, "equal", 2, 1)
	weak.Steer = Right

	simulate(t, w)

	if !weak.Dead() || other.Dead() {
		t.Fatalf("tie: mover dead=%v occupant dead=%v", weak.Dead(), other.Dead())
	}
}

func TestSpreadOrganismsStopsWhenFull(t *testing.T) {
	w := newTestWorld(t, 3, 3, 5)
	n, err := w.SpreadOrganisms("sheep", 20)
	if err != nil {
		t.Fatalf("SpreadOrganisms: %v", err)
	}
	if n != 9 || w.Count() != 9 {
		t.Fatalf("placed %d, count %d, want 9", n, w.Count())
	}

	n, err = w.SpreadOrganisms("sheep", 3)
	if err != nil || n != 0 {
		t.Fatalf("spread on full grid: n=%d err=%v", n, err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSpreadUnknownSpecies(t *testing.T) {
	w := newTestWorld(t, 3, 3, 5)
	if _, err := w.SpreadOrganisms("unicorn", 1); !errors.Is(err, ErrUnknownSpecies) {
		t.Fatalf("err = %v", err)
	}
}

func TestTurnOrder(t *testing.T) {
	w := newTestWorld(t, 4, 4, 1)
	young := place(t, w, "sheep", 0, 0)
	fast := place(t, w, "weak", 1, 0)
	slow := place(t, w, "strong", 2, 0)
	old := place(t, w, "sheep", 3, 0)
	twin := place(t, w, "sheep", 0, 1)
	old.Age = 3

	got := w.TurnOrder()
	want := []*Organism{fast, old, young, twin, slow}
	if !reflect.DeepEqual(got, want) {
		names := func(os []*Organism) []string {
			var s []string
			for _, o := range os {
				s = append(s, o.String())
			}
			return s
		}
		t.Fatalf("order = %v, want %v", names(got), names(want))
	}
}

func TestOrganismsBornMidTurnDoNotAct(t *testing.T) {
	w := newTestWorld(t, 3, 1, 2)
	rules := w.Rules()
	rules.SpreadChance = 100
	w.SetRules(rules)

	place(t, w, "moss", 0, 0)
	simulate(t, w)
	if w.Count() != 2 {
		t.Fatalf("after turn 1 count = %d, want 2", w.Count())
	}
	simulate(t, w)
	if w.Count() != 3 {
		t.Fatalf("after turn 2 count = %d, want 3", w.Count())
	}
}

func TestWildlifeOffOnlyPlayerActs(t *testing.T) {
	w := newTestWorld(t, 5, 5, 4)
	sheep := place(t, w, "sheep", 2, 2)
	pilot := place(t, w, "pilot", 0, 0)
	rules := w.Rules()
	rules.Wildlife = false
	w.SetRules(rules)

	if p, ok := w.Player(); !ok || p != pilot {
		t.Fatal("Player() did not find the pilot")
	}
	if !w.Steer(Right) {
		t.Fatal("Steer reported no player")
	}

	simulate(t, w)

	if sheep.Tile() != mustTile(t, w, 2, 2) {
		t.Fatalf("sheep moved with wildlife off: %v", sheep.Tile())
	}
	if pilot.Tile() != mustTile(t, w, 1, 0) {
		t.Fatalf("pilot at %v, want (1,0)", pilot.Tile())
	}
}

func TestAbilityAdvancesOncePerTurn(t *testing.T) {
	w := newTestWorld(t, 3, 3, 4)
	pilot := place(t, w, "pilot", 1, 1)
	if !w.ToggleAbility() {
		t.Fatal("ToggleAbility reported no ability")
	}
	if !pilot.Ability.Trigger() {
		t.Fatal("trigger failed")
	}

	simulate(t, w)
	if pilot.Ability.Active != 1 {
		t.Fatalf("active = %d, want 1", pilot.Ability.Active)
	}
	simulate(t, w)
	if pilot.Ability.Active != 0 || pilot.Ability.Cooldown != 2 {
		t.Fatalf("ability = %+v", *pilot.Ability)
	}
}

func TestSimulateIsNotReentrant(t *testing.T) {
	w := newTestWorld(t, 3, 3, 1)
	place(t, w, "loop", 0, 0)
	if err := w.Simulate(); !errors.Is(err, ErrBusy) {
		t.Fatalf("nested Simulate err = %v, want ErrBusy", err)
	}
	// A failed turn leaves the scheduler idle again.
	if _, err := w.State(); err != nil {
		t.Fatalf("State after failed turn: %v", err)
	}
}

func TestTurnLogAndLimits(t *testing.T) {
	w := newTestWorld(t, 3, 3, 1)
	place(t, w, "strong", 0, 0)

	simulate(t, w)
	if w.Turn() != 1 {
		t.Fatalf("turn = %d", w.Turn())
	}
	if !containsLog(w.Logs(), "turn 1: 1 organisms") {
		t.Fatalf("logs = %q", w.Logs())
	}

	w.cfg.Log.Limit = 2
	for i := 0; i < 5; i++ {
		w.Logf(CategoryTurn, "line %d", i)
	}
	if got := w.Logs(); !reflect.DeepEqual(got, []string{"line 3", "line 4"}) {
		t.Fatalf("bounded logs = %q", got)
	}

	w.cfg.Log.PerTurn = true
	simulate(t, w)
	if got := w.Logs(); !reflect.DeepEqual(got, []string{"turn 2: 1 organisms"}) {
		t.Fatalf("per-turn logs = %q", got)
	}

	w.ClearLogs()
	if len(w.Logs()) != 0 {
		t.Fatal("ClearLogs left entries")
	}
}

func TestInvariantsHoldEveryTurn(t *testing.T) {
	w := newTestWorld(t, 6, 6, 17)
	if _, err := w.SpreadOrganisms("sheep", 18); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SpreadOrganisms("moss", 6); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SpreadOrganisms("brute", 4); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 60; i++ {
		simulate(t, w)
		if w.Count() > w.TileCount() {
			t.Fatalf("turn %d: %d organisms on %d tiles", w.Turn(), w.Count(), w.TileCount())
		}
	}
}

func runSeeded(t *testing.T, seed int64, turns int) (State, []string) {
	t.Helper()
	w := newTestWorld(t, 8, 8, seed)
	w.cfg.Log.Limit = 0
	if _, err := w.SpreadOrganisms("sheep", 12); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SpreadOrganisms("moss", 6); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < turns; i++ {
		simulate(t, w)
	}
	st, err := w.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	st.ID = ""
	return st, w.Logs()
}

func TestDeterministicForSeed(t *testing.T) {
	st1, logs1 := runSeeded(t, 11, 40)
	st2, logs2 := runSeeded(t, 11, 40)
	if !reflect.DeepEqual(st1, st2) {
		t.Fatal("same seed produced different states")
	}
	if !reflect.DeepEqual(logs1, logs2) {
		t.Fatal("same seed produced different logs")
	}

	st3, _ := runSeeded(t, 12, 40)
	if reflect.DeepEqual(st1.Organisms, st3.Organisms) {
		t.Fatal("different seeds produced identical worlds")
	}
}

func TestStateRestoreRoundTrip(t *testing.T) {
	w := newTestWorld(t, 7, 5, 21)
	pilot := place(t, w, "pilot", 0, 0)
	if _, err := w.SpreadOrganisms("sheep", 10); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SpreadOrganisms("moss", 4); err != nil {
		t.Fatal(err)
	}
	pilot.Ability.Arm()
	for i := 0; i < 5; i++ {
		simulate(t, w)
	}

	st, err := w.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	fresh := newTestWorld(t, 2, 2, 999)
	if err := fresh.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := fresh.Validate(); err != nil {
		t.Fatalf("Validate restored: %v", err)
	}
	again, err := fresh.State()
	if err != nil {
		t.Fatalf("State restored: %v", err)
	}
	if !reflect.DeepEqual(st, again) {
		t.Fatalf("restored state differs:\n%+v\n%+v", st, again)
	}
	for i := range w.tiles {
		if w.tiles[i].IsFree() != fresh.tiles[i].IsFree() {
			t.Fatalf("occupancy differs at tile %d", i)
		}
	}

	// Both copies continue identically.
	for i := 0; i < 5; i++ {
		simulate(t, w)
		simulate(t, fresh)
	}
	a, _ := w.State()
	b, _ := fresh.State()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("restored world diverged after further turns")
	}
}

func TestRestoreRejectsBadRecords(t *testing.T) {
	w := newTestWorld(t, 3, 3, 1)
	st := State{Width: 3, Height: 3, Organisms: []OrganismState{
		{Species: "sheep", X: 0, Y: 0, Power: 4},
		{Species: "sheep", X: 0, Y: 0, Power: 4},
	}}
	if err := w.Restore(st); !errors.Is(err, ErrOccupied) {
		t.Fatalf("duplicate position err = %v", err)
	}
	st.Organisms = []OrganismState{{Species: "sheep", X: 5, Y: 0}}
	if err := w.Restore(st); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("off-grid err = %v", err)
	}
	st.Organisms = []OrganismState{{Species: "dragon"}}
	if err := w.Restore(st); !errors.Is(err, ErrUnknownSpecies) {
		t.Fatalf("unknown species err = %v", err)
	}
}

func TestGenerateOrganisms(t *testing.T) {
	w := newTestWorld(t, 10, 10, 8)
	if err := w.GenerateOrganisms(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty population err = %v", err)
	}

	w.cfg.Meadows = true
	w.cfg.Population = []Quota{{Species: "moss", Count: 10}, {Species: "sheep", Count: 5}}
	if err := w.GenerateOrganisms(); err != nil {
		t.Fatalf("GenerateOrganisms: %v", err)
	}
	if w.Count() != 15 {
		t.Fatalf("count = %d, want 15", w.Count())
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Regenerating replaces the population instead of adding to it.
	if err := w.GenerateOrganisms(); err != nil {
		t.Fatalf("GenerateOrganisms again: %v", err)
	}
	if w.Count() != 15 {
		t.Fatalf("count after regenerate = %d", w.Count())
	}

	small := newTestWorld(t, 2, 2, 8)
	small.cfg.Population = []Quota{{Species: "sheep", Count: 10}}
	if err := small.GenerateOrganisms(); err != nil {
		t.Fatalf("overfull population: %v", err)
	}
	if small.Count() != 4 {
		t.Fatalf("overfull count = %d, want 4", small.Count())
	}
}

func TestMeadowMapRange(t *testing.T) {
	field := MeadowMap(12, 9, 3)
	if len(field) != 108 {
		t.Fatalf("len = %d", len(field))
	}
	for i, v := range field {
		if v < 0 || v > 1 {
			t.Fatalf("field[%d] = %f out of [0,1]", i, v)
		}
	}
	if !reflect.DeepEqual(field, MeadowMap(12, 9, 3)) {
		t.Fatal("meadow map not deterministic")
	}
}

func TestResetAndSetWorld(t *testing.T) {
	w := newTestWorld(t, 4, 4, 1)
	place(t, w, "sheep", 1, 1)
	simulate(t, w)

	if err := w.SetWorld(6, 2, 9); err != nil {
		t.Fatalf("SetWorld: %v", err)
	}
	if w.Width() != 6 || w.Height() != 2 || w.Turn() != 9 || w.Count() != 0 {
		t.Fatalf("after SetWorld: %dx%d turn %d count %d", w.Width(), w.Height(), w.Turn(), w.Count())
	}
	if err := w.SetWorld(0, 2, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("SetWorld(0,2) err = %v", err)
	}

	place(t, w, "sheep", 5, 1)
	w.Logf(CategoryTurn, "x")
	w.Reset()
	if w.Turn() != 0 || w.Count() != 0 || len(w.Logs()) != 0 {
		t.Fatal("Reset left state behind")
	}
	if !mustTile(t, w, 5, 1).IsFree() {
		t.Fatal("Reset left a tile occupied")
	}
}

func containsLog(logs []string, want string) bool {
	for _, l := range logs {
		if strings.Contains(l, want) {
			return true
		}
	}
	return false
}

func TestBumpedMateSitsOutTheTurn(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		w := newTestWorld(t, 5, 5, seed)
		// A steered sheep acts first and bumps a wandering one.
		suitor := place(t, w, "sheep", 1, 2)
		steered := *suitor.Kind
		steered.Behavior = walker{}
		suitor.Kind = &steered
		suitor.Steer = Right
		partner := place(t, w, "sheep", 2, 2)

		simulate(t, w)

		if partner.Tile() != mustTile(t, w, 2, 2) {
			t.Fatalf("seed %d: partner left (2,2) for %v", seed, partner.Tile())
		}
		if suitor.Tile() != mustTile(t, w, 1, 2) {
			t.Fatalf("seed %d: suitor at %v", seed, suitor.Tile())
		}
		if w.Count() != 3 {
			t.Fatalf("seed %d: count = %d, want 3", seed, w.Count())
		}
	}
}

func TestBumpedMateActsAgainNextTurn(t *testing.T) {
	moved := 0
	for seed := int64(1); seed <= 50; seed++ {
		w := newTestWorld(t, 5, 5, seed)
		w.SetRules(Rules{Wildlife: true})
		suitor := place(t, w, "sheep", 1, 2)
		steered := *suitor.Kind
		steered.Behavior = walker{}
		suitor.Kind = &steered
		suitor.Steer = Right
		partner := place(t, w, "sheep", 2, 2)

		simulate(t, w)
		suitor.Steer = Self
		simulate(t, w)

		if partner.Tile() != mustTile(t, w, 2, 2) {
			moved++
		}
	}
	if moved < 20 {
		t.Fatalf("partner moved on turn 2 in %d/50 seeds", moved)
	}
}

func TestFailedRestoreLeavesWorldUntouched(t *testing.T) {
	w := newTestWorld(t, 5, 5, 4)
	place(t, w, "sheep", 0, 0)
	place(t, w, "sheep", 4, 4)
	simulate(t, w)
	before, err := w.State()
	if err != nil {
		t.Fatal(err)
	}

	bad := []State{
		{ID: "x", Width: 9, Height: 9, Turn: 77, Seed: 9, Organisms: []OrganismState{
			{Species: "sheep", X: 1, Y: 1}, {Species: "dragon", X: 2, Y: 2},
		}},
		{ID: "x", Width: 9, Height: 9, Turn: 77, Organisms: []OrganismState{
			{Species: "sheep", X: 3, Y: 3}, {Species: "sheep", X: 3, Y: 3},
		}},
		{ID: "x", Width: 9, Height: 9, Turn: 77, Organisms: []OrganismState{
			{Species: "sheep", X: 9, Y: 0},
		}},
		{ID: "x", Width: 9, Height: 9, Turn: 77, RNG: []byte("not a generator")},
		{ID: "x", Width: 0, Height: 9},
	}
	for i, st := range bad {
		if err := w.Restore(st); err == nil {
			t.Fatalf("case %d: Restore succeeded", i)
		}
		after, err := w.State()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(after, before) {
			t.Fatalf("case %d: world changed by failed restore:\n got %+v\nwant %+v", i, after, before)
		}
		if err := w.Validate(); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
	}

	if err := w.SetOrganisms([]OrganismState{{Species: "sheep"}, {Species: "dragon"}}); !errors.Is(err, ErrUnknownSpecies) {
		t.Fatalf("SetOrganisms err = %v", err)
	}
	if w.Count() != len(before.Organisms) {
		t.Fatalf("SetOrganisms dropped organisms: count %d", w.Count())
	}
}

func TestArmAbilityIsIdempotent(t *testing.T) {
	w := newTestWorld(t, 3, 3, 1)
	if w.ArmAbility(true) {
		t.Fatal("armed without a player")
	}
	pilot := place(t, w, "pilot", 1, 1)
	for i := 0; i < 2; i++ {
		if !w.ArmAbility(true) || !pilot.Ability.Armed {
			t.Fatalf("call %d: not armed", i+1)
		}
	}
	if !w.ArmAbility(false) || pilot.Ability.Armed {
		t.Fatal("still armed")
	}
}
