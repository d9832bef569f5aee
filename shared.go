package tilemap

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// Vec2 is a 2-D floating point coordinate or size in pixels or tiles.
type Vec2 = mgl64.Vec2

// Orientation is the projection the map was authored for.
type Orientation int

const (
	Orthogonal Orientation = iota
	Isometric
)

func (o Orientation) String() string {
	switch o {
	case Orthogonal:
		return "orthogonal"
	case Isometric:
		return "isometric"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// ParseOrientation maps the document's orientation string to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "orthogonal":
		return Orthogonal, nil
	case "isometric":
		return Isometric, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
}

// Layer holds the attributes shared by tile and object layers.
type Layer struct {
	Name     string // lower-cased
	Size     Vec2   // in tiles
	Position Vec2   // pixel offset
	Opacity  float64
	Visible  bool
}

// TileLayer is a full grid of GIDs in row-major order. 0 means no tile.
type TileLayer struct {
	Layer
	Tiles []int
}

func (l *TileLayer) clone() *TileLayer {
	c := *l
	c.Tiles = append([]int(nil), l.Tiles...)
	return &c
}

// Width and Height return the grid size in tiles.
func (l *TileLayer) Width() int  { return int(l.Size.X()) }
func (l *TileLayer) Height() int { return int(l.Size.Y()) }

// ObjectLayer is a set of freeform markers and areas.
type ObjectLayer struct {
	Layer
	Objects []MapObject
}

func (l *ObjectLayer) clone() *ObjectLayer {
	c := *l
	c.Objects = cloneObjects(l.Objects)
	return &c
}

func cloneObjects(objects []MapObject) []MapObject {
	out := make([]MapObject, len(objects))
	for i, o := range objects {
		o.Properties = o.Properties.clone()
		out[i] = o
	}
	return out
}

// MapObject describes a single object of an object layer, such as a collision
// or event area. A zero size marks a point rather than an area.
type MapObject struct {
	ID         int
	Name       string
	Type       string
	Size       Vec2
	Position   Vec2 // pixels, relative to the layer
	Rotation   float64
	Visible    bool
	Properties Properties
}

// IsPoint reports whether the object is a reference marker.
func (o MapObject) IsPoint() bool {
	return o.Size.X() == 0 && o.Size.Y() == 0
}

// Bound returns the object's area in layer pixel space.
func (o MapObject) Bound() orb.Bound {
	return orb.Bound{Min: orbPoint(o.Position), Max: orbPoint(o.Position.Add(o.Size))}
}

func orbPoint(v Vec2) orb.Point {
	return orb.Point{v.X(), v.Y()}
}

// Tile represents a single placed tile of a tile layer.
type Tile struct {
	GID                        int // GID with flip flags cleared
	Column, Row                int
	XFlip, YFlip, DiagonalFlip bool
	Position                   Vec2 // screen space, Y up, centred on the cell
	Region                     Region
	Properties                 Properties
}
