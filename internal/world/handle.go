package world

import "fmt"

// Handle identifies an organism in the world's arena. The lower 32 bits hold the
// slot index and the upper 32 bits its generation; the generation advances when
// the slot is released, so a handle kept past an organism's death goes stale.
// The zero Handle is never issued and means "no organism".
type Handle uint64

func newHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return "#none"
	}
	return fmt.Sprintf("#%d.%d", h.Index(), h.Generation())
}

// handlePool allocates handles with generational indices and a free list.
// Reuse order is deterministic: the most recently released slot goes first.
type handlePool struct {
	generations []uint32
	free        []uint32
}

func (p *handlePool) create() Handle {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return newHandle(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	return newHandle(idx, 1)
}

func (p *handlePool) alive(h Handle) bool {
	if h.IsZero() {
		return false
	}
	idx := h.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.generations[idx] == h.Generation()
}

func (p *handlePool) release(h Handle) {
	if !p.alive(h) {
		return
	}
	idx := h.Index()
	p.generations[idx]++
	p.free = append(p.free, idx)
}

func (p *handlePool) reset() {
	p.generations = p.generations[:0]
	p.free = p.free[:0]
}
