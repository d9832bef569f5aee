package tilemap

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Flip flags stored in the high bits of a layer GID.
const (
	FlipHorizontal = 0x80000000
	FlipVertical   = 0x40000000
	FlipDiagonal   = 0x20000000
	rotateHex120   = 0x10000000

	gidMask = ^uint32(FlipHorizontal | FlipVertical | FlipDiagonal | rotateHex120)
)

// SplitGID clears the flag bits of a raw layer value and reports the flips.
func SplitGID(raw int) (gid int, xFlip, yFlip, diagonalFlip bool) {
	v := uint32(raw)
	return int(v & gidMask), v&FlipHorizontal != 0, v&FlipVertical != 0, v&FlipDiagonal != 0
}

// Region is a resolved GID: the owning tileset, the atlas cell and the texture cut from it.
type Region struct {
	GID      int
	Tileset  *Tileset // shared with the map, read-only
	Index    int      // local index within Tileset
	Row, Col int
	Rect     Rect
	Size     Vec2 // pixel size of the region
	Texture  Texture
}

// registry is the ordered tileset set of a loaded map.
type registry struct {
	tilesets []*Tileset
	strict   bool
}

// tilesetForGID picks the tileset with the largest first GID not above gid.
// When none qualifies the first tileset is returned, unless strict.
func (r registry) tilesetForGID(gid int) (*Tileset, error) {
	if len(r.tilesets) == 0 {
		return nil, fmt.Errorf("%w: %d: map has no tilesets", ErrGIDOutOfRange, gid)
	}

	var owner *Tileset
	for _, ts := range r.tilesets {
		if ts.FirstGID <= gid && (owner == nil || ts.FirstGID > owner.FirstGID) {
			owner = ts
		}
	}
	if owner != nil {
		return owner, nil
	}
	if r.strict {
		return nil, fmt.Errorf("%w: %d", ErrGIDOutOfRange, gid)
	}
	return r.tilesets[0], nil
}

func (r registry) resolve(gid int) (Region, error) {
	if gid < 1 {
		return Region{}, fmt.Errorf("%w: %d is the empty tile", ErrGIDOutOfRange, gid)
	}
	ts, err := r.tilesetForGID(gid)
	if err != nil {
		return Region{}, err
	}

	index := gid - ts.FirstGID
	region := Region{
		GID:     gid,
		Tileset: ts,
		Index:   index,
		Row:     ts.RowForIndex(index),
		Col:     ts.ColForIndex(index),
		Rect:    ts.RectForIndex(index),
		Size:    ts.TileSize,
	}
	if ts.Atlas != nil {
		region.Texture = ts.Atlas.SubRegion(region.Rect)
	}
	return region, nil
}

// regionCache memoizes GID lookups. Entries are never invalidated; a reload
// replaces the whole cache.
type regionCache struct {
	reg registry

	mu      sync.RWMutex
	regions map[int]Region

	// collapses concurrent misses on the same GID into one resolution
	group       singleflight.Group
	resolutions atomic.Int64
}

func newRegionCache(reg registry) *regionCache {
	return &regionCache{reg: reg, regions: make(map[int]Region)}
}

func (c *regionCache) cached(gid int) (Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.regions[gid]
	return r, ok
}

func (c *regionCache) region(gid int) (Region, error) {
	if r, ok := c.cached(gid); ok {
		return r, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(gid), func() (any, error) {
		if r, ok := c.cached(gid); ok {
			return r, nil
		}
		r, err := c.reg.resolve(gid)
		if err != nil {
			return nil, err
		}
		c.resolutions.Add(1)

		c.mu.Lock()
		c.regions[gid] = r
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return Region{}, err
	}
	return v.(Region), nil
}

func (c *regionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.regions)
}
