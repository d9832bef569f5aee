package tilemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"sort"
	"strconv"
)

// Tileset describes a single tileset: the GID range it owns and how its tiles
// are packed into the atlas image.
type Tileset struct {
	Name      string
	FirstGID  int    // first GID owned by this tileset
	ImageName string // atlas resource identifier

	ImageSize    Vec2 // whole atlas, margin and spacing included
	ImageMargin  int  // border around the tile grid
	ImageSpacing int  // gap between tile cells
	TileSize     Vec2

	// TileProperties is keyed by the tile keys exactly as the document writes
	// them. Tiles look their properties up by GID unless the map was built
	// with WithLocalTileProperties.
	TileProperties map[int]Properties

	// Atlas is the loaded image, nil when the map has no atlas loader.
	Atlas Atlas

	tilesPerRow int
	tilesPerCol int
}

// TilesPerRow returns how many tile cells fit across the atlas.
func (ts *Tileset) TilesPerRow() int { return ts.tilesPerRow }

// TilesPerCol returns how many tile cells fit down the atlas.
func (ts *Tileset) TilesPerCol() int { return ts.tilesPerCol }

// RowForIndex returns the atlas row of a local tile index.
func (ts *Tileset) RowForIndex(index int) int { return index / ts.tilesPerRow }

// ColForIndex returns the atlas column of a local tile index.
func (ts *Tileset) ColForIndex(index int) int { return index % ts.tilesPerRow }

// Contains reports whether gid is at or above the tileset's first GID.
func (ts *Tileset) Contains(gid int) bool { return gid >= ts.FirstGID }

// RectForIndex returns the normalized atlas rectangle of a local tile index.
func (ts *Tileset) RectForIndex(index int) Rect {
	spacing := float64(ts.ImageSpacing)
	margin := float64(ts.ImageMargin)
	tw, th := ts.TileSize.X(), ts.TileSize.Y()
	iw, ih := ts.ImageSize.X(), ts.ImageSize.Y()

	return Rect{
		X: ((spacing+tw)*float64(ts.ColForIndex(index)) + margin) / iw,
		Y: ((spacing+th)*float64(ts.RowForIndex(index)) + margin) / ih,
		W: tw / iw,
		H: th / ih,
	}
}

// PropertiesFor returns a copy of the custom properties stored under key,
// or an empty set.
func (ts *Tileset) PropertiesFor(key int) Properties {
	if p, ok := ts.TileProperties[key]; ok {
		return p.clone()
	}
	return Properties{}
}

func (ts *Tileset) clone() *Tileset {
	c := *ts
	c.TileProperties = make(map[int]Properties, len(ts.TileProperties))
	for k, p := range ts.TileProperties {
		c.TileProperties[k] = p.clone()
	}
	return &c
}

func (ts *Tileset) label() string {
	if ts.Name != "" {
		return ts.Name
	}
	return ts.ImageName
}

// computeGeometry derives the atlas grid and rejects layouts that cannot hold a tile.
func (ts *Tileset) computeGeometry() error {
	tw, th := int(ts.TileSize.X()), int(ts.TileSize.Y())
	iw, ih := int(ts.ImageSize.X()), int(ts.ImageSize.Y())
	geomErr := &GeometryError{
		Tileset:      ts.label(),
		TileWidth:    tw,
		TileHeight:   th,
		ImageSpacing: ts.ImageSpacing,
	}

	if tw <= 0 || th <= 0 || tw+ts.ImageSpacing <= 0 || th+ts.ImageSpacing <= 0 {
		return geomErr
	}
	ts.tilesPerRow = (iw - ts.ImageMargin*2 + ts.ImageSpacing) / (tw + ts.ImageSpacing)
	ts.tilesPerCol = (ih - ts.ImageMargin*2 + ts.ImageSpacing) / (th + ts.ImageSpacing)
	if ts.tilesPerRow <= 0 || ts.tilesPerCol <= 0 {
		geomErr.TilesPerRow = ts.tilesPerRow
		geomErr.TilesPerCol = ts.tilesPerCol
		return geomErr
	}
	return nil
}

// Rect is a sub-rectangle of an atlas in [0,1] fractions of its width and height,
// origin at the top left.
type Rect struct {
	X, Y, W, H float64
}

// Pixels scales the rectangle to an atlas of the given pixel size.
func (r Rect) Pixels(width, height int) image.Rectangle {
	x0 := int(math.Round(r.X * float64(width)))
	y0 := int(math.Round(r.Y * float64(height)))
	x1 := int(math.Round((r.X + r.W) * float64(width)))
	y1 := int(math.Round((r.Y + r.H) * float64(height)))
	return image.Rect(x0, y0, x1, y1)
}

// buildTilesets reads the "tilesets" array in file order.
func buildTilesets(nodes []Node) ([]*Tileset, error) {
	tilesets := make([]*Tileset, 0, len(nodes))
	for _, n := range nodes {
		ts, err := buildTileset(n)
		if err != nil {
			return nil, err
		}
		tilesets = append(tilesets, ts)
	}
	return tilesets, nil
}

func buildTileset(node Node) (*Tileset, error) {
	f := fields{node: node, scope: "tileset"}
	ts := &Tileset{TileProperties: make(map[int]Properties)}
	var err error

	if ts.Name, err = f.stringOr("name", ""); err != nil {
		return nil, err
	}
	f.name = ts.Name

	if ts.FirstGID, err = f.int("firstgid"); err != nil {
		return nil, err
	}
	if ts.ImageName, err = f.string("image"); err != nil {
		return nil, err
	}
	if f.name == "" {
		f.name = ts.ImageName
	}
	imageWidth, err := f.int("imagewidth")
	if err != nil {
		return nil, err
	}
	imageHeight, err := f.int("imageheight")
	if err != nil {
		return nil, err
	}
	if ts.ImageMargin, err = f.int("margin"); err != nil {
		return nil, err
	}
	if ts.ImageSpacing, err = f.int("spacing"); err != nil {
		return nil, err
	}
	tileWidth, err := f.int("tilewidth")
	if err != nil {
		return nil, err
	}
	tileHeight, err := f.int("tileheight")
	if err != nil {
		return nil, err
	}
	ts.ImageSize = Vec2{float64(imageWidth), float64(imageHeight)}
	ts.TileSize = Vec2{float64(tileWidth), float64(tileHeight)}

	if err := readTileProperties(f, ts); err != nil {
		return nil, err
	}
	if err := ts.computeGeometry(); err != nil {
		return nil, err
	}
	return ts, nil
}

// readTileProperties merges the legacy "tileproperties" object (keyed by the
// local index as a string) and the newer "tiles" array of {id, properties}.
func readTileProperties(f fields, ts *Tileset) error {
	if f.has("tileproperties") {
		var byIndex map[string]json.RawMessage
		if err := f.decode("tileproperties", &byIndex); err != nil {
			return err
		}
		keys := make([]string, 0, len(byIndex))
		for k := range byIndex {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			index, err := strconv.Atoi(k)
			if err != nil {
				return mistyped(f.scope, f.name, "tileproperties", fmt.Errorf("tile index %q: %w", k, err))
			}
			props, err := parseProperties(byIndex[k])
			if err != nil {
				return mistyped(f.scope, f.name, "tileproperties", fmt.Errorf("tile %d: %w", index, err))
			}
			ts.TileProperties[index] = props
		}
	}

	raw, ok := f.lookup("tiles")
	if !ok || !bytes.HasPrefix(raw, []byte("[")) {
		return nil
	}
	tiles, err := f.nodes("tiles")
	if err != nil {
		return err
	}
	for _, n := range tiles {
		tf := fields{node: n, scope: "tileset", name: f.name}
		index, err := tf.int("id")
		if err != nil {
			return err
		}
		if !tf.has("properties") {
			continue
		}
		props, err := tf.properties("properties")
		if err != nil {
			return err
		}
		merged := ts.TileProperties[index]
		if merged == nil {
			merged = make(Properties, len(props))
		}
		for k, v := range props {
			merged[k] = v
		}
		ts.TileProperties[index] = merged
	}
	return nil
}
