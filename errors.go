package tilemap

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDocument         = errors.New("malformed map document")
	ErrSchemaViolation           = errors.New("schema violation")
	ErrUnknownOrientation        = errors.New("unknown map orientation")
	ErrLayerNotFound             = errors.New("layer not found")
	ErrDegenerateTilesetGeometry = errors.New("degenerate tileset geometry")
	ErrAtlasUnavailable          = errors.New("tileset atlas unavailable")
	ErrGIDOutOfRange             = errors.New("gid not owned by any tileset")
	ErrNotLoaded                 = errors.New("map not loaded")

	// ErrGridOutOfRange is returned when a tile layer's data is shorter than
	// its declared width times height.
	ErrGridOutOfRange = errors.New("tile grid index out of range")
)

// SchemaError reports a required field that is absent or has the wrong type.
type SchemaError struct {
	Scope string // "map", "layer", "object" or "tileset"
	Name  string // name of the layer/object/tileset, empty for the map
	Key   string
	Err   error // underlying decode error, if any
}

func (e *SchemaError) Error() string {
	where := e.Scope
	if e.Name != "" {
		where = fmt.Sprintf("%s %q", e.Scope, e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: key %q: %v", ErrSchemaViolation, where, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s: missing key %q", ErrSchemaViolation, where, e.Key)
}

func (e *SchemaError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSchemaViolation, e.Err}
	}
	return []error{ErrSchemaViolation}
}

// GeometryError reports a tileset whose atlas cannot hold a single tile.
type GeometryError struct {
	Tileset      string
	TilesPerRow  int
	TilesPerCol  int
	TileWidth    int
	TileHeight   int
	ImageSpacing int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: tileset %q: %d tiles per row, %d per column (tile %dx%d, spacing %d)",
		ErrDegenerateTilesetGeometry, e.Tileset, e.TilesPerRow, e.TilesPerCol, e.TileWidth, e.TileHeight, e.ImageSpacing)
}

func (e *GeometryError) Unwrap() error { return ErrDegenerateTilesetGeometry }

func missing(scope, name, key string) error {
	return &SchemaError{Scope: scope, Name: name, Key: key}
}

func mistyped(scope, name, key string, err error) error {
	return &SchemaError{Scope: scope, Name: name, Key: key, Err: err}
}
