package tilemap

import (
	"fmt"
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	typeTileLayer   = "tilelayer"
	typeObjectGroup = "objectgroup"

	// grids above this many cells are rejected so width*height fits any int
	maxLayerCells = math.MaxInt32
)

// foldName lower-cases a layer name for case-insensitive lookup.
// A Caser keeps state, so each call gets its own.
func foldName(name string) string {
	return cases.Lower(language.Und).String(name)
}

// readLayer fills the attributes both layer kinds share.
func readLayer(f fields) (Layer, error) {
	var l Layer

	name, err := f.string("name")
	if err != nil {
		return l, err
	}
	l.Name = foldName(name)

	if l.Opacity, err = f.float("opacity"); err != nil {
		return l, err
	}
	if l.Visible, err = f.bool("visible"); err != nil {
		return l, err
	}
	width, err := f.int("width")
	if err != nil {
		return l, err
	}
	height, err := f.int("height")
	if err != nil {
		return l, err
	}
	if width < 0 {
		return l, mistyped(f.scope, f.name, "width", fmt.Errorf("%d is negative", width))
	}
	if height < 0 {
		return l, mistyped(f.scope, f.name, "height", fmt.Errorf("%d is negative", height))
	}
	if width > 0 && height > maxLayerCells/width {
		return l, mistyped(f.scope, f.name, "height", fmt.Errorf("%dx%d grid is too large", width, height))
	}
	x, err := f.float("x")
	if err != nil {
		return l, err
	}
	y, err := f.float("y")
	if err != nil {
		return l, err
	}

	l.Size = Vec2{float64(width), float64(height)}
	l.Position = Vec2{x, y}
	return l, nil
}

// layerFields names the layer in errors once its name is known.
func layerFields(node Node) fields {
	f := fields{node: node, scope: "layer"}
	if name, err := f.string("name"); err == nil {
		f.name = name
	}
	return f
}

func buildTileLayer(node Node) (*TileLayer, error) {
	f := layerFields(node)
	base, err := readLayer(f)
	if err != nil {
		return nil, err
	}

	// The grid length is not checked here; materialization bounds the walk.
	tiles, err := decodeLayerData(f)
	if err != nil {
		return nil, err
	}
	return &TileLayer{Layer: base, Tiles: tiles}, nil
}

func buildObjectLayer(node Node) (*ObjectLayer, error) {
	f := layerFields(node)
	base, err := readLayer(f)
	if err != nil {
		return nil, err
	}

	raw, err := f.nodes("objects")
	if err != nil {
		return nil, err
	}
	objects := make([]MapObject, 0, len(raw))
	for _, n := range raw {
		o, err := buildObject(n, f.name)
		if err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return &ObjectLayer{Layer: base, Objects: objects}, nil
}

func buildObject(node Node, layer string) (MapObject, error) {
	f := fields{node: node, scope: "object", name: layer}
	var o MapObject
	var err error

	if o.Name, err = f.string("name"); err != nil {
		return o, err
	}
	if o.Name != "" {
		f.name = layer + "/" + o.Name
	}
	if o.Visible, err = f.bool("visible"); err != nil {
		return o, err
	}
	width, err := f.float("width")
	if err != nil {
		return o, err
	}
	height, err := f.float("height")
	if err != nil {
		return o, err
	}
	x, err := f.float("x")
	if err != nil {
		return o, err
	}
	y, err := f.float("y")
	if err != nil {
		return o, err
	}
	if o.ID, err = f.intOr("id", 0); err != nil {
		return o, err
	}
	if o.Type, err = f.stringOr("type", ""); err != nil {
		return o, err
	}
	if o.Type == "" {
		if o.Type, err = f.stringOr("class", ""); err != nil {
			return o, err
		}
	}
	if o.Rotation, err = f.floatOr("rotation", 0); err != nil {
		return o, err
	}

	o.Size = Vec2{width, height}
	o.Position = Vec2{x, y}
	o.Properties = Properties{}
	return o, nil
}
