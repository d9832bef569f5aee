package tilemap

import (
	"encoding/json"
	"io"
	"testing"
)

// sampleDoc is a 4x3 orthogonal map with one tile layer, one object layer and
// two tilesets. Background, row-major:
//
//	1 2 0 3
//	0 0 5 0
//	9 0 0 1
func sampleDoc() map[string]any {
	return map[string]any{
		"width":       4,
		"height":      3,
		"tilewidth":   32,
		"tileheight":  32,
		"orientation": "orthogonal",
		"properties":  map[string]any{"music": "overworld.ogg"},
		"layers": []any{
			map[string]any{
				"type":    "tilelayer",
				"name":    "Background",
				"opacity": 1,
				"visible": true,
				"width":   4,
				"height":  3,
				"x":       0,
				"y":       0,
				"data":    []int{1, 2, 0, 3, 0, 0, 5, 0, 9, 0, 0, 1},
			},
			map[string]any{
				"type":    "objectgroup",
				"name":    "Events",
				"opacity": 0.5,
				"visible": false,
				"width":   4,
				"height":  3,
				"x":       0,
				"y":       0,
				"objects": []any{
					map[string]any{"name": "spawn", "visible": true, "width": 0, "height": 0, "x": 16, "y": 16},
					map[string]any{"name": "door", "visible": true, "width": 32, "height": 64, "x": 64, "y": 0, "id": 7, "type": "warp"},
				},
			},
		},
		"tilesets": []any{
			map[string]any{
				"name":        "terrain",
				"firstgid":    1,
				"image":       "terrain.png",
				"imagewidth":  256,
				"imageheight": 64,
				"margin":      0,
				"spacing":     0,
				"tilewidth":   32,
				"tileheight":  32,
				"tileproperties": map[string]any{
					"0": map[string]any{"solid": true},
					"4": map[string]any{"kind": "water"},
				},
			},
			map[string]any{
				"name":        "items",
				"firstgid":    17,
				"image":       "items.png",
				"imagewidth":  64,
				"imageheight": 64,
				"margin":      0,
				"spacing":     0,
				"tilewidth":   32,
				"tileheight":  32,
			},
		},
	}
}

func layerOf(doc map[string]any, i int) map[string]any {
	return doc["layers"].([]any)[i].(map[string]any)
}

func tilesetOf(doc map[string]any, i int) map[string]any {
	return doc["tilesets"].([]any)[i].(map[string]any)
}

func mustJSON(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return data
}

func quiet() Option {
	return WithLogger(NewLogger("panic", io.Discard))
}

func mustDecode(t *testing.T, doc map[string]any, opts ...Option) *Map {
	t.Helper()
	m, err := Decode(mustJSON(t, doc), append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return m
}

// countingAtlas records how often a region is cut from it.
type countingAtlas struct {
	name  string
	calls int
}

func (a *countingAtlas) SubRegion(r Rect) Texture {
	a.calls++
	return r
}
