package tilemap

import (
	"fmt"
	"math"
)

// TileLayer places every tile of the named layer. Tiles come out in
// row-major scan order, which is the order they should be drawn in; empty
// cells are skipped. A missing layer yields an empty slice and an error
// wrapping ErrLayerNotFound, and the map stays usable.
func (m *Map) TileLayer(name string) ([]Tile, error) {
	md := m.model.Load()
	if md == nil {
		return []Tile{}, ErrNotLoaded
	}
	layer, ok := md.tileLayers[foldName(name)]
	if !ok {
		md.log.WithField("layer", name).Warn("no tile layer with that name")
		return []Tile{}, fmt.Errorf("%w: tile layer %q", ErrLayerNotFound, name)
	}

	tiles, err := md.materialize(layer)
	if err != nil {
		md.log.WithField("layer", name).WithError(err).Warn("tile layer not materialized")
		return []Tile{}, err
	}
	return tiles, nil
}

func (md *model) materialize(layer *TileLayer) ([]Tile, error) {
	width, height := layer.Width(), layer.Height()
	if !gridFits(width, height, len(layer.Tiles)) {
		return nil, fmt.Errorf("%w: layer %q has %d tiles for a %dx%d grid",
			ErrGridOutOfRange, layer.Name, len(layer.Tiles), width, height)
	}

	tiles := make([]Tile, 0, width*height)
	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			raw := layer.Tiles[column+row*width]
			if isEmptyCell(raw) {
				continue
			}
			tile, err := md.place(raw, column, row)
			if err != nil {
				return nil, fmt.Errorf("layer %q at %d,%d: %w", layer.Name, column, row, err)
			}
			tiles = append(tiles, tile)
		}
	}
	return tiles, nil
}

// gridFits reports whether n cells cover a width by height grid, without
// computing a product that could overflow.
func gridFits(width, height, n int) bool {
	if width < 0 || height < 0 {
		return false
	}
	return width == 0 || height <= n/width
}

// isEmptyCell reports whether a raw layer value names no tile. Flip flags on
// GID 0 still mean an empty cell.
func isEmptyCell(raw int) bool {
	gid, _, _, _ := SplitGID(raw)
	return gid < 1
}

// place resolves a raw GID and positions it on its grid cell. Row 0 is the top
// of the map in a Y-up space, and the sprite is centred on the cell.
func (md *model) place(gid, column, row int) (Tile, error) {
	tile, err := md.tileForGID(gid)
	if err != nil {
		return Tile{}, err
	}
	tw, th := md.tileSize.X(), md.tileSize.Y()
	tile.Column = column
	tile.Row = row
	tile.Position = Vec2{
		float64(column)*tw - tile.Region.Size.X()/2,
		th*md.mapSize.Y() - float64(row)*th - tile.Region.Size.Y()/2,
	}
	return tile, nil
}

// TileAt returns the placed tile at a grid cell of the named tile layer.
// It reports false for empty cells, cells outside the grid and unknown layers.
func (m *Map) TileAt(name string, column, row int) (Tile, bool) {
	md := m.model.Load()
	if md == nil {
		return Tile{}, false
	}
	layer, ok := md.tileLayers[foldName(name)]
	if !ok {
		md.log.WithField("layer", name).Warn("no tile layer with that name")
		return Tile{}, false
	}

	width, height := layer.Width(), layer.Height()
	if column < 0 || row < 0 || column >= width || row >= height {
		return Tile{}, false
	}
	index := column + row*width
	if index >= len(layer.Tiles) || isEmptyCell(layer.Tiles[index]) {
		return Tile{}, false
	}

	tile, err := md.place(layer.Tiles[index], column, row)
	if err != nil {
		md.log.WithField("layer", name).WithError(err).Warn("tile not resolved")
		return Tile{}, false
	}
	return tile, true
}

// TileAtPixel returns the tile of the named layer drawn under p, in the same
// Y-up screen space TileLayer places tiles in. Cells are assumed to be
// covered by sprites of the map's tile size.
func (m *Map) TileAtPixel(name string, p Vec2) (Tile, bool) {
	column, row, ok := m.cellAtPixel(p)
	if !ok {
		return Tile{}, false
	}
	return m.TileAt(name, column, row)
}

// cellAtPixel inverts the placement in place: a sprite centred on
// column*tw - tw/2 spans [(column-1)*tw, column*tw), and one centred on
// H - row*th - th/2 spans [H-(row+1)*th, H-row*th).
func (m *Map) cellAtPixel(p Vec2) (column, row int, ok bool) {
	md := m.model.Load()
	if md == nil {
		return 0, 0, false
	}
	tw, th := md.tileSize.X(), md.tileSize.Y()
	top := th * md.mapSize.Y()

	column = int(math.Floor(p.X()/tw)) + 1
	row = int(math.Ceil((top-p.Y())/th)) - 1
	return column, row, true
}
