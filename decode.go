package tilemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Node is one decoded JSON object: its keys mapped to their still-encoded values.
// Values are typed on access, so a missing or mistyped field is only an error
// for the consumer that actually needs it.
type Node map[string]json.RawMessage

// Document is a decoded map file.
type Document struct {
	Root Node
}

// DecodeDocument checks that data is a JSON object and splits it into nodes.
// No semantic validation happens here.
func DecodeDocument(data []byte) (*Document, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document is null", ErrMalformedDocument)
	}
	return &Document{Root: root}, nil
}

// fields reads typed values out of a node and reports failures against the
// scope/name it belongs to.
type fields struct {
	node  Node
	scope string
	name  string
}

func (f fields) lookup(key string) (json.RawMessage, bool) {
	raw, ok := f.node[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (f fields) has(key string) bool {
	_, ok := f.lookup(key)
	return ok
}

func (f fields) decode(key string, v any) error {
	raw, ok := f.lookup(key)
	if !ok {
		return missing(f.scope, f.name, key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return mistyped(f.scope, f.name, key, err)
	}
	return nil
}

func (f fields) int(key string) (int, error) {
	var n json.Number
	if err := f.decode(key, &n); err != nil {
		return 0, err
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	// Some editors write integral values as 32.0.
	fl, err := n.Float64()
	if err != nil || fl != math.Trunc(fl) || math.Abs(fl) > 1<<53 {
		return 0, mistyped(f.scope, f.name, key, fmt.Errorf("%s is not an integer", n))
	}
	return int(fl), nil
}

func (f fields) intOr(key string, def int) (int, error) {
	if !f.has(key) {
		return def, nil
	}
	return f.int(key)
}

func (f fields) float(key string) (float64, error) {
	var n float64
	err := f.decode(key, &n)
	return n, err
}

func (f fields) floatOr(key string, def float64) (float64, error) {
	if !f.has(key) {
		return def, nil
	}
	return f.float(key)
}

func (f fields) bool(key string) (bool, error) {
	var b bool
	err := f.decode(key, &b)
	return b, err
}

func (f fields) string(key string) (string, error) {
	var s string
	err := f.decode(key, &s)
	return s, err
}

func (f fields) stringOr(key, def string) (string, error) {
	if !f.has(key) {
		return def, nil
	}
	return f.string(key)
}

func (f fields) nodes(key string) ([]Node, error) {
	var out []Node
	if err := f.decode(key, &out); err != nil {
		return nil, err
	}
	for i, n := range out {
		if n == nil {
			return nil, mistyped(f.scope, f.name, key, fmt.Errorf("entry %d is null", i))
		}
	}
	return out, nil
}

func (f fields) properties(key string) (Properties, error) {
	props, err := parseProperties(f.node[key])
	if err != nil {
		return nil, mistyped(f.scope, f.name, key, err)
	}
	return props, nil
}

// mapHeader holds the map-level metadata.
type mapHeader struct {
	mapSize     Vec2
	tileSize    Vec2
	orientation Orientation
	properties  Properties
}

func decodeHeader(doc *Document) (mapHeader, error) {
	f := fields{node: doc.Root, scope: "map"}
	var h mapHeader

	width, err := f.int("width")
	if err != nil {
		return h, err
	}
	height, err := f.int("height")
	if err != nil {
		return h, err
	}
	tileWidth, err := f.int("tilewidth")
	if err != nil {
		return h, err
	}
	tileHeight, err := f.int("tileheight")
	if err != nil {
		return h, err
	}
	if width < 0 || height < 0 || tileWidth <= 0 || tileHeight <= 0 {
		return h, mistyped("map", "", "width/height/tilewidth/tileheight",
			fmt.Errorf("unreadable dimensions %dx%d tiles of %dx%d", width, height, tileWidth, tileHeight))
	}

	orientation, err := f.string("orientation")
	if err != nil {
		return h, err
	}
	h.orientation, err = ParseOrientation(orientation)
	if err != nil {
		return h, err
	}

	h.properties, err = f.properties("properties")
	if err != nil {
		return h, err
	}

	h.mapSize = Vec2{float64(width), float64(height)}
	h.tileSize = Vec2{float64(tileWidth), float64(tileHeight)}
	return h, nil
}
