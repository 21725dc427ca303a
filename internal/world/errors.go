package world

import "errors"

// Failures the simulation core reports to its caller. They are never
// swallowed inside a turn.
var (
	ErrOccupied       = errors.New("tile occupied")
	ErrOutOfRange     = errors.New("out of range")
	ErrEmpty          = errors.New("empty collection")
	ErrNotOccupant    = errors.New("organism is not the tile occupant")
	ErrUnknownSpecies = errors.New("unknown species")
	ErrBusy           = errors.New("turn already in progress")
	ErrInconsistent   = errors.New("world state inconsistent")
)
