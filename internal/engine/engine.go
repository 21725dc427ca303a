// Package engine drives a world turn by turn. It owns the only lock around
// the world so that observers can read it between turns.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/talgya/lifegrid/internal/world"
)

// Saver persists world state and the events recorded since the last save.
type Saver interface {
	SaveWorld(ctx context.Context, st world.State) error
	SaveEvents(ctx context.Context, runID string, events []world.Event) error
}

// Summary describes one completed turn.
type Summary struct {
	RunID     string                `json:"run_id"`
	Turn      uint64                `json:"turn"`
	Organisms int                   `json:"organisms"`
	Census    map[world.Species]int `json:"census"`
	Events    []world.Event         `json:"events"`
}

// Engine runs turns on a world.
type Engine struct {
	Interval      time.Duration // pause between turns in Run; 0 runs flat out
	AutosaveEvery int           // turns between saves; 0 disables
	Saver         Saver

	// OnTurn is called after every turn, outside the lock.
	OnTurn func(s Summary)

	mu      sync.Mutex
	w       *world.World
	turn    *world.EventBuffer // events of the turn in progress
	pending []world.Event      // events not yet saved

	subMu  sync.Mutex
	subs   map[int]chan Summary
	nextID int

	runMu  sync.Mutex
	cancel context.CancelFunc
}

// New wraps w. The engine takes over w; callers go through Do afterwards.
func New(w *world.World) *Engine {
	e := &Engine{
		w:    w,
		turn: &world.EventBuffer{},
		subs: make(map[int]chan Summary),
	}
	w.AddSink(e.turn)
	return e
}

// Do runs fn with exclusive access to the world.
func (e *Engine) Do(fn func(w *world.World) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.w)
}

// Turn returns the number of completed turns.
func (e *Engine) Turn() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.Turn()
}

// Step runs one turn and autosaves when due.
func (e *Engine) Step(ctx context.Context) (Summary, error) {
	e.mu.Lock()
	if err := e.w.Simulate(); err != nil {
		e.turn.Drain()
		e.mu.Unlock()
		return Summary{}, err
	}
	events := e.turn.Drain()
	e.pending = append(e.pending, events...)
	s := Summary{
		RunID:     e.w.ID(),
		Turn:      e.w.Turn(),
		Organisms: e.w.Count(),
		Census:    Census(e.w),
		Events:    events,
	}

	var saveErr error
	if e.Saver != nil && e.AutosaveEvery > 0 && s.Turn%uint64(e.AutosaveEvery) == 0 {
		saveErr = e.saveLocked(ctx)
	}
	e.mu.Unlock()

	if saveErr != nil {
		slog.Error("autosave failed", "turn", s.Turn, "error", saveErr)
	}
	e.publish(s)
	if e.OnTurn != nil {
		e.OnTurn(s)
	}
	return s, nil
}

// Run steps the world until ctx is done, Stop is called, or maxTurns turns
// have run (0 = no limit).
func (e *Engine) Run(ctx context.Context, maxTurns int) error {
	ctx, cancel := context.WithCancel(ctx)
	e.runMu.Lock()
	e.cancel = cancel
	e.runMu.Unlock()
	defer cancel()

	slog.Info("engine started", "turn", e.Turn(), "interval", e.Interval, "max_turns", maxTurns)
	defer func() { slog.Info("engine stopped", "turn", e.Turn()) }()

	var tick <-chan time.Time
	if e.Interval > 0 {
		t := time.NewTicker(e.Interval)
		defer t.Stop()
		tick = t.C
	}

	for n := 0; maxTurns <= 0 || n < maxTurns; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}
		if _, err := e.Step(ctx); err != nil {
			return fmt.Errorf("turn %d: %w", e.Turn()+1, err)
		}
	}
	return nil
}

// Stop halts a running Run loop.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Save writes the world and the pending events through the Saver.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked(ctx)
}

func (e *Engine) saveLocked(ctx context.Context) error {
	if e.Saver == nil {
		return nil
	}
	st, err := e.w.State()
	if err != nil {
		return err
	}
	if err := e.Saver.SaveWorld(ctx, st); err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	if err := e.Saver.SaveEvents(ctx, st.ID, e.pending); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	e.pending = nil
	return nil
}

// State captures the world between turns.
func (e *Engine) State() (world.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.State()
}

// Restore replaces the world with st. Unsaved events are dropped.
func (e *Engine) Restore(st world.State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turn.Drain()
	e.pending = nil
	return e.w.Restore(st)
}

// NewGame discards the world and generates a fresh population from seed.
func (e *Engine) NewGame(seed int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.Reset()
	e.w.Reseed(seed)
	e.turn.Drain()
	e.pending = nil
	return e.w.GenerateOrganisms()
}

// Subscribe returns a channel receiving every turn summary and a function
// that ends the subscription. Summaries are dropped for subscribers whose
// buffer is full.
func (e *Engine) Subscribe(buffer int) (<-chan Summary, func()) {
	ch := make(chan Summary, buffer)
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
			close(ch)
		})
	}
}

func (e *Engine) publish(s Summary) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Census counts living organisms per species.
func Census(w *world.World) map[world.Species]int {
	out := make(map[world.Species]int)
	for _, o := range w.Organisms() {
		if o.Alive() {
			out[o.Species()]++
		}
	}
	return out
}

// SpeciesCount is one row of a sorted census.
type SpeciesCount struct {
	Species world.Species `json:"species"`
	Count   int           `json:"count"`
}

// SortedCensus returns the census ordered by count, largest first, then name.
func SortedCensus(c map[world.Species]int) []SpeciesCount {
	out := make([]SpeciesCount, 0, len(c))
	for s, n := range c {
		out = append(out, SpeciesCount{Species: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Species < out[j].Species
	})
	return out
}
