package world

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/lifegrid/internal/entropy"
)

// Rules are the global switches and constants of the collision protocol.
type Rules struct {
	Reproduction   bool // animals breed and plants spread
	Wildlife       bool // organisms not steered by the player act on their own
	SpreadChance   int  // percent chance per plant spread attempt
	ParentCooldown int  // breed cooldown given to both parents
	ChildCooldown  int  // breed cooldown given to a newborn
}

// DefaultRules returns the classic rule set.
func DefaultRules() Rules {
	return Rules{
		Reproduction:   true,
		Wildlife:       true,
		SpreadChance:   10,
		ParentCooldown: 5,
		ChildCooldown:  10,
	}
}

// LogConfig controls the world's event log.
type LogConfig struct {
	Limit   int  // keep at most this many lines; 0 = unbounded
	PerTurn bool // clear the log at the start of every turn
}

// Quota is one line of the population mix placed by GenerateOrganisms.
type Quota struct {
	Species Species
	Count   int
}

// Config holds everything needed to build a world.
type Config struct {
	Width      int
	Height     int
	Seed       int64
	Meadows    bool // plants start on noise-selected meadow tiles
	Rules      Rules
	Log        LogConfig
	Population []Quota
}

// World owns the grid and every organism on it, and drives the turn loop.
// It is not safe for concurrent use.
type World struct {
	id     string
	width  int
	height int
	tiles  []*Tile

	pool    handlePool
	slots   []*Organism // arena, indexed by Handle.Index
	live    []*Organism // insertion order
	nextSeq uint64

	turn       uint64
	simulating bool

	cfg     Config
	catalog Catalog
	rng     *entropy.Source

	logs  []string
	sinks []EventSink
}

// New builds an empty world of the configured size.
func New(cfg Config, catalog Catalog) (*World, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("world size %dx%d: %w", cfg.Width, cfg.Height, ErrOutOfRange)
	}
	w := &World{
		id:      uuid.NewString(),
		cfg:     cfg,
		catalog: catalog,
		rng:     entropy.New(cfg.Seed),
	}
	w.build(cfg.Width, cfg.Height)
	return w, nil
}

func (w *World) build(width, height int) {
	w.width = width
	w.height = height
	w.tiles = buildGrid(width, height)
}

// ID returns the world's run identifier.
func (w *World) ID() string { return w.id }

// Seed returns the seed of the world's random stream.
func (w *World) Seed() int64 { return w.rng.Seed() }

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }

// Turn returns the number of completed turns.
func (w *World) Turn() uint64 { return w.turn }

// Rand returns the world's random source. Organisms draw from it so a run is
// reproducible from its seed.
func (w *World) Rand() *entropy.Source { return w.rng }

func (w *World) Rules() Rules        { return w.cfg.Rules }
func (w *World) Catalog() Catalog    { return w.catalog }
func (w *World) Config() Config      { return w.cfg }
func (w *World) SetRules(r Rules)    { w.cfg.Rules = r }
func (w *World) AddSink(s EventSink) { w.sinks = append(w.sinks, s) }

// InBounds reports whether (x, y) lies on the grid.
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}

// Tile returns the tile at (x, y).
func (w *World) Tile(x, y int) (*Tile, error) {
	if !w.InBounds(x, y) {
		return nil, fmt.Errorf("tile (%d,%d) on %dx%d grid: %w", x, y, w.width, w.height, ErrOutOfRange)
	}
	return w.tiles[y*w.width+x], nil
}

// TileAt returns the tile with row-major index i.
func (w *World) TileAt(i int) (*Tile, error) {
	if i < 0 || i >= len(w.tiles) {
		return nil, fmt.Errorf("tile index %d of %d: %w", i, len(w.tiles), ErrOutOfRange)
	}
	return w.tiles[i], nil
}

// TileCount returns the number of tiles on the grid.
func (w *World) TileCount() int { return len(w.tiles) }

// Count returns the number of organisms in the world's collection.
func (w *World) Count() int { return len(w.live) }

// Organisms returns the organisms in insertion order. The slice is a copy.
func (w *World) Organisms() []*Organism {
	out := make([]*Organism, len(w.live))
	copy(out, w.live)
	return out
}

// OrganismAt returns the i-th organism in insertion order.
func (w *World) OrganismAt(i int) (*Organism, error) {
	if len(w.live) == 0 {
		return nil, fmt.Errorf("organism %d: %w", i, ErrEmpty)
	}
	if i < 0 || i >= len(w.live) {
		return nil, fmt.Errorf("organism %d of %d: %w", i, len(w.live), ErrOutOfRange)
	}
	return w.live[i], nil
}

// Lookup resolves a handle to its organism. Stale and zero handles fail.
func (w *World) Lookup(h Handle) (*Organism, bool) {
	if !w.pool.alive(h) {
		return nil, false
	}
	idx := int(h.Index())
	if idx >= len(w.slots) || w.slots[idx] == nil {
		return nil, false
	}
	return w.slots[idx], true
}

// OccupantOf returns the organism standing on t, if any.
func (w *World) OccupantOf(t *Tile) (*Organism, bool) {
	if t == nil || t.IsFree() {
		return nil, false
	}
	return w.Lookup(t.Occupant())
}

// Construct returns a new, unplaced organism of the given species.
func (w *World) Construct(s Species) (*Organism, error) {
	k, err := w.catalog.Kind(s)
	if err != nil {
		return nil, err
	}
	return k.New(), nil
}

// AddOrganism registers o with the world and places it on tile.
func (w *World) AddOrganism(o *Organism, tile *Tile) error {
	if o == nil || o.Kind == nil {
		return fmt.Errorf("add organism: missing kind: %w", ErrUnknownSpecies)
	}
	if tile == nil {
		return fmt.Errorf("add %s: no tile: %w", o.Kind.Species, ErrOutOfRange)
	}
	if !tile.IsFree() {
		return fmt.Errorf("add %s on %v: %w", o.Kind.Species, tile, ErrOccupied)
	}

	h := w.pool.create()
	if err := tile.PlaceOrganism(h); err != nil {
		w.pool.release(h)
		return err
	}
	idx := int(h.Index())
	for len(w.slots) <= idx {
		w.slots = append(w.slots, nil)
	}
	w.nextSeq++
	o.ID = h
	o.Seq = w.nextSeq
	o.dead = false
	o.skip = false
	o.tile = tile
	o.prev = nil
	w.slots[idx] = o
	w.live = append(w.live, o)
	return nil
}

// Kill marks o dead and vacates its tile. The organism stays in the collection
// until the end of the turn so the turn's iteration is not disturbed.
func (w *World) Kill(o *Organism) error {
	if o.dead {
		return nil
	}
	o.dead = true
	o.prev = nil
	if o.tile == nil {
		return nil
	}
	t := o.tile
	o.tile = nil
	if err := t.RemoveOrganism(o.ID); err != nil {
		return fmt.Errorf("kill %v: %w", o.ID, err)
	}
	return nil
}

// release drops a reaped organism from the arena.
func (w *World) release(o *Organism) {
	idx := int(o.ID.Index())
	if idx < len(w.slots) && w.slots[idx] == o {
		w.slots[idx] = nil
	}
	w.pool.release(o.ID)
}

// Record appends an event to the log and forwards it to every sink.
func (w *World) Record(e Event) {
	e.Turn = w.turn
	if w.simulating {
		e.Turn = w.turn + 1
	}
	w.logs = append(w.logs, e.Description)
	if limit := w.cfg.Log.Limit; limit > 0 && len(w.logs) > limit {
		excess := len(w.logs) - limit
		copy(w.logs, w.logs[excess:])
		w.logs = w.logs[:limit]
	}
	for _, s := range w.sinks {
		s.Record(e)
	}
}

// Logf records an event with a formatted description.
func (w *World) Logf(category, format string, args ...any) {
	w.Record(Event{Category: category, Description: fmt.Sprintf(format, args...)})
}

// Logs returns a copy of the event log.
func (w *World) Logs() []string {
	out := make([]string, len(w.logs))
	copy(out, w.logs)
	return out
}

// ClearLogs empties the event log.
func (w *World) ClearLogs() {
	w.logs = w.logs[:0]
}

// freeTiles returns every unoccupied tile in row-major order.
func (w *World) freeTiles() []*Tile {
	var out []*Tile
	for _, t := range w.tiles {
		if t.IsFree() {
			out = append(out, t)
		}
	}
	return out
}

// SpreadOrganisms places up to count new organisms of species s on uniformly
// chosen free tiles. It stops early once the grid is full and returns how many
// were placed.
func (w *World) SpreadOrganisms(s Species, count int) (int, error) {
	k, err := w.catalog.Kind(s)
	if err != nil {
		return 0, err
	}
	return w.spreadOn(k, count, w.freeTiles())
}

func (w *World) spreadOn(k *Kind, count int, free []*Tile) (int, error) {
	placed := 0
	for placed < count && len(free) > 0 {
		i := w.rng.Intn(len(free))
		tile := free[i]
		free[i] = free[len(free)-1]
		free = free[:len(free)-1]
		if !tile.IsFree() {
			continue
		}
		if err := w.AddOrganism(k.New(), tile); err != nil {
			return placed, err
		}
		placed++
	}
	return placed, nil
}

// Player returns the living player-controlled organism, if there is one.
func (w *World) Player() (*Organism, bool) {
	for _, o := range w.live {
		if o.Kind.Controlled && !o.dead {
			return o, true
		}
	}
	return nil, false
}

// Steer sets the player's next move. It reports false when there is no player.
func (w *World) Steer(d Direction) bool {
	p, ok := w.Player()
	if !ok {
		return false
	}
	p.Steer = d
	return true
}

// ToggleAbility arms or disarms the player's ability. It reports false when
// there is no player or the player has no ability.
func (w *World) ToggleAbility() bool {
	p, ok := w.Player()
	if !ok || p.Ability == nil {
		return false
	}
	p.Ability.Arm()
	return true
}

// ArmAbility arms or disarms the player's ability. It reports false when
// there is no player or the player has no ability.
func (w *World) ArmAbility(on bool) bool {
	p, ok := w.Player()
	if !ok || p.Ability == nil {
		return false
	}
	p.Ability.Armed = on
	return true
}

// clearOrganisms removes every organism and empties all tiles.
func (w *World) clearOrganisms() {
	for _, t := range w.tiles {
		t.occupant = 0
	}
	for _, o := range w.live {
		o.tile = nil
		o.prev = nil
	}
	w.live = nil
	w.slots = nil
	w.pool.reset()
	w.nextSeq = 0
}

// Reset removes all organisms, clears the log and rewinds the turn counter.
func (w *World) Reset() {
	w.clearOrganisms()
	w.ClearLogs()
	w.turn = 0
}

// SetWorld rebuilds the grid at a new size and sets the turn counter. All
// organisms are dropped.
func (w *World) SetWorld(width, height int, turn uint64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("world size %dx%d: %w", width, height, ErrOutOfRange)
	}
	w.clearOrganisms()
	w.build(width, height)
	w.cfg.Width = width
	w.cfg.Height = height
	w.turn = turn
	return nil
}

// Reseed replaces the random stream and issues a new run ID, for a new game.
func (w *World) Reseed(seed int64) {
	w.cfg.Seed = seed
	w.rng = entropy.New(seed)
	w.id = uuid.NewString()
}
