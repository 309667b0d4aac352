package block

import (
	"sort"
	"sync"
)

// Arena owns the blocks for one loaded image. Readers get value snapshots;
// every write bumps the block's version so cached rasters can be invalidated
// without hashing the whole struct.
type Arena struct {
	mu     sync.Mutex
	blocks map[string]Block
}

func NewArena() *Arena {
	return &Arena{blocks: map[string]Block{}}
}

// Add stores a block and returns its first stored snapshot (version 1).
// Blocks with a degenerate box are ignored; valid boxes are clamped to the
// minimum side length so creation cannot sneak a sliver past Update's check.
func (a *Arena) Add(b Block) (Block, bool) {
	if !b.Box.Valid() || b.ID == "" {
		return Block{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b.Box = clampMinSize(b.Box, MinBoxSide)
	b.Version = 1
	a.blocks[b.ID] = b
	return b, true
}

// Get returns a snapshot of the block with the given id.
func (a *Arena) Get(id string) (Block, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.blocks[id]
	return b, ok
}

// Update applies fn to the stored block and bumps its version. The minimum
// box size invariant is enforced here so no edit path can produce a sliver.
func (a *Arena) Update(id string, fn func(*Block)) (Block, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.blocks[id]
	if !ok {
		return Block{}, false
	}
	prevID := b.ID
	fn(&b)
	b.ID = prevID
	b.Orientation = b.Orientation.Normalize()
	b.SizeCategory = b.SizeCategory.Normalize()
	b.Align = b.Align.Normalize(b.Orientation)
	b.Angle = NormalizeAngle(b.Angle)
	b.Box = clampMinSize(b.Box, MinBoxSide)
	b.Version++
	a.blocks[id] = b
	return b, true
}

// Delete removes a block.
func (a *Arena) Delete(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blocks, id)
}

// Clear drops all blocks, e.g. when a new image is loaded.
func (a *Arena) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocks = map[string]Block{}
}

// List returns snapshots of all blocks in reading order (top-to-bottom,
// then left-to-right).
func (a *Arena) List() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Block, 0, len(a.blocks))
	for _, b := range a.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Box.Y0 != out[j].Box.Y0 {
			return out[i].Box.Y0 < out[j].Box.Y0
		}
		if out[i].Box.X0 != out[j].Box.X0 {
			return out[i].Box.X0 < out[j].Box.X0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MinBoxSide is the smallest side length a stored block box may have after
// any edit.
const MinBoxSide = 10.0

func clampMinSize(b Box, minSide float64) Box {
	w, h := b.Width(), b.Height()
	cx, cy := b.Center()
	if w < minSide {
		w = minSide
	}
	if h < minSide {
		h = minSide
	}
	return Box{X0: cx - w/2, Y0: cy - h/2, X1: cx + w/2, Y1: cy + h/2}
}
