// Package persistence provides SQLite-based world state storage.
package persistence

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/lifegrid/internal/world"
)

// ErrNoWorld is returned by LoadWorld when nothing has been saved yet.
var ErrNoWorld = errors.New("no saved world")

// Meta keys.
const (
	metaRunID  = "run_id"
	metaWidth  = "width"
	metaHeight = "height"
	metaTurn   = "turn"
	metaSeed   = "seed"
	metaRNG    = "rng"
	metaLogs   = "logs"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := migrate(ctx, conn.DB); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

type organismRow struct {
	Seq             int           `db:"seq"`
	Species         string        `db:"species"`
	X               int           `db:"x"`
	Y               int           `db:"y"`
	Power           int           `db:"power"`
	Initiative      int           `db:"initiative"`
	Age             uint64        `db:"age"`
	BreedCooldown   int           `db:"breed_cooldown"`
	Steer           uint8         `db:"steer"`
	AbilityCooldown sql.NullInt64 `db:"ability_cooldown"`
	AbilityActive   sql.NullInt64 `db:"ability_active"`
	AbilityArmed    sql.NullBool  `db:"ability_armed"`
}

func rowFromState(seq int, o world.OrganismState) organismRow {
	r := organismRow{
		Seq:           seq,
		Species:       string(o.Species),
		X:             o.X,
		Y:             o.Y,
		Power:         o.Power,
		Initiative:    o.Initiative,
		Age:           o.Age,
		BreedCooldown: o.BreedCooldown,
		Steer:         uint8(o.Steer),
	}
	if a := o.Ability; a != nil {
		r.AbilityCooldown = sql.NullInt64{Int64: int64(a.Cooldown), Valid: true}
		r.AbilityActive = sql.NullInt64{Int64: int64(a.Active), Valid: true}
		r.AbilityArmed = sql.NullBool{Bool: a.Armed, Valid: true}
	}
	return r
}

func (r organismRow) state() world.OrganismState {
	o := world.OrganismState{
		Species:       world.Species(r.Species),
		X:             r.X,
		Y:             r.Y,
		Power:         r.Power,
		Initiative:    r.Initiative,
		Age:           r.Age,
		BreedCooldown: r.BreedCooldown,
		Steer:         world.Direction(r.Steer),
	}
	if r.AbilityCooldown.Valid {
		o.Ability = &world.AbilityState{
			Cooldown: int(r.AbilityCooldown.Int64),
			Active:   int(r.AbilityActive.Int64),
			Armed:    r.AbilityArmed.Bool,
		}
	}
	return o
}

// SaveWorld writes a full world state (full replace).
func (db *DB) SaveWorld(ctx context.Context, st world.State) error {
	logs, err := json.Marshal(st.Logs)
	if err != nil {
		return fmt.Errorf("encode logs: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM organisms"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO organisms
		(seq, species, x, y, power, initiative, age, breed_cooldown, steer,
		 ability_cooldown, ability_active, ability_armed)
		VALUES (:seq, :species, :x, :y, :power, :initiative, :age, :breed_cooldown, :steer,
		 :ability_cooldown, :ability_active, :ability_armed)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range st.Organisms {
		if _, err := stmt.ExecContext(ctx, rowFromState(i, o)); err != nil {
			return fmt.Errorf("insert organism %d (%s): %w", i, o.Species, err)
		}
	}

	meta := map[string]string{
		metaRunID:  st.ID,
		metaWidth:  strconv.Itoa(st.Width),
		metaHeight: strconv.Itoa(st.Height),
		metaTurn:   strconv.FormatUint(st.Turn, 10),
		metaSeed:   strconv.FormatInt(st.Seed, 10),
		metaRNG:    base64.StdEncoding.EncodeToString(st.RNG),
		metaLogs:   string(logs),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("world state saved", "turn", st.Turn, "organisms", len(st.Organisms))
	return nil
}

// HasWorld reports whether a world has been saved.
func (db *DB) HasWorld(ctx context.Context) (bool, error) {
	var n int
	err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM world_meta WHERE key = ?", metaWidth)
	return n > 0, err
}

// LoadWorld reads the saved world state.
func (db *DB) LoadWorld(ctx context.Context) (world.State, error) {
	var st world.State

	var pairs []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.SelectContext(ctx, &pairs, "SELECT key, value FROM world_meta"); err != nil {
		return st, fmt.Errorf("load meta: %w", err)
	}
	meta := make(map[string]string, len(pairs))
	for _, p := range pairs {
		meta[p.Key] = p.Value
	}
	if _, ok := meta[metaWidth]; !ok {
		return st, ErrNoWorld
	}

	var err error
	parse := func(key string, fn func(string) error) {
		if err != nil {
			return
		}
		if e := fn(meta[key]); e != nil {
			err = fmt.Errorf("meta %s: %w", key, e)
		}
	}
	st.ID = meta[metaRunID]
	parse(metaWidth, func(s string) (e error) { st.Width, e = strconv.Atoi(s); return })
	parse(metaHeight, func(s string) (e error) { st.Height, e = strconv.Atoi(s); return })
	parse(metaTurn, func(s string) (e error) { st.Turn, e = strconv.ParseUint(s, 10, 64); return })
	parse(metaSeed, func(s string) (e error) { st.Seed, e = strconv.ParseInt(s, 10, 64); return })
	parse(metaRNG, func(s string) (e error) { st.RNG, e = base64.StdEncoding.DecodeString(s); return })
	parse(metaLogs, func(s string) error {
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), &st.Logs)
	})
	if err != nil {
		return st, err
	}
	if len(st.RNG) == 0 {
		st.RNG = nil
	}

	var rows []organismRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM organisms ORDER BY seq"); err != nil {
		return st, fmt.Errorf("load organisms: %w", err)
	}
	st.Organisms = make([]world.OrganismState, 0, len(rows))
	for _, r := range rows {
		st.Organisms = append(st.Organisms, r.state())
	}
	return st, nil
}

// SaveEvents appends events of a run to the database.
func (db *DB) SaveEvents(ctx context.Context, runID string, events []world.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO events (run_id, turn, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Turn, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first. An empty
// category matches all events.
func (db *DB) RecentEvents(ctx context.Context, category string, limit int) ([]world.Event, error) {
	var events []world.Event
	var err error
	if category == "" {
		err = db.conn.SelectContext(ctx, &events,
			"SELECT turn, description, category FROM events ORDER BY id DESC LIMIT ?", limit)
	} else {
		err = db.conn.SelectContext(ctx, &events,
			"SELECT turn, description, category FROM events WHERE category = ? ORDER BY id DESC LIMIT ?",
			category, limit)
	}
	return events, err
}
