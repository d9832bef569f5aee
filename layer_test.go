package tilemap

import (
	"errors"
	"testing"
)

func TestBuildTileLayer(t *testing.T) {
	m := mustDecode(t, sampleDoc())
	l, ok := m.TileLayerInfo("background")
	if !ok {
		t.Fatal("TileLayerInfo(background) not found")
	}
	if l.Name != "background" {
		t.Errorf("Name = %q, want lower-cased background", l.Name)
	}
	if l.Width() != 4 || l.Height() != 3 {
		t.Errorf("size = %dx%d, want 4x3", l.Width(), l.Height())
	}
	if len(l.Tiles) != l.Width()*l.Height() {
		t.Errorf("len(Tiles) = %d, want %d", len(l.Tiles), l.Width()*l.Height())
	}
	want := []int{1, 2, 0, 3, 0, 0, 5, 0, 9, 0, 0, 1}
	for i := range want {
		if l.Tiles[i] != want[i] {
			t.Fatalf("Tiles = %v, want %v", l.Tiles, want)
		}
	}
	if l.Opacity != 1 || !l.Visible {
		t.Errorf("opacity, visible = %v, %v, want 1, true", l.Opacity, l.Visible)
	}
}

func TestBuildObjectLayer(t *testing.T) {
	m := mustDecode(t, sampleDoc())
	l, ok := m.ObjectLayerInfo("EVENTS")
	if !ok {
		t.Fatal("ObjectLayerInfo(EVENTS) not found")
	}
	if l.Opacity != 0.5 || l.Visible {
		t.Errorf("opacity, visible = %v, %v, want 0.5, false", l.Opacity, l.Visible)
	}
	if len(l.Objects) != 2 {
		t.Fatalf("len(Objects) = %d, want 2", len(l.Objects))
	}

	spawn, door := l.Objects[0], l.Objects[1]
	if spawn.Name != "spawn" || !spawn.IsPoint() || spawn.Position != (Vec2{16, 16}) {
		t.Errorf("spawn = %+v, want point marker at 16,16", spawn)
	}
	if door.Name != "door" || door.IsPoint() || door.Size != (Vec2{32, 64}) || door.Position != (Vec2{64, 0}) {
		t.Errorf("door = %+v, want 32x64 area at 64,0", door)
	}
	if door.ID != 7 || door.Type != "warp" {
		t.Errorf("door id, type = %d, %q, want 7, warp", door.ID, door.Type)
	}
	if door.Properties == nil || len(door.Properties) != 0 {
		t.Errorf("door.Properties = %v, want empty set", door.Properties)
	}
}

func TestObjectClassFallback(t *testing.T) {
	doc := sampleDoc()
	obj := layerOf(doc, 1)["objects"].([]any)[1].(map[string]any)
	delete(obj, "type")
	obj["class"] = "trigger"

	m := mustDecode(t, doc)
	l, _ := m.ObjectLayerInfo("events")
	if got := l.Objects[1].Type; got != "trigger" {
		t.Errorf("Type = %q, want trigger", got)
	}
}

func TestLayerSchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantScope string
		wantName  string
		wantKey   string
	}{
		{"tile layer opacity", func(d map[string]any) { delete(layerOf(d, 0), "opacity") }, "layer", "Background", "opacity"},
		{"tile layer data", func(d map[string]any) { delete(layerOf(d, 0), "data") }, "layer", "Background", "data"},
		{"tile layer data type", func(d map[string]any) { layerOf(d, 0)["data"] = "1,2,3" }, "layer", "Background", "data"},
		{"negative layer width", func(d map[string]any) {
			layerOf(d, 0)["width"] = -1
			layerOf(d, 0)["height"] = 2
		}, "layer", "Background", "width"},
		{"negative layer height", func(d map[string]any) { layerOf(d, 0)["height"] = -3 }, "layer", "Background", "height"},
		{"fractional layer width", func(d map[string]any) { layerOf(d, 0)["width"] = 2.5 }, "layer", "Background", "width"},
		{"oversized layer grid", func(d map[string]any) {
			layerOf(d, 0)["width"] = 1 << 40
			layerOf(d, 0)["height"] = 1 << 40
		}, "layer", "Background", "height"},
		{"negative object layer width", func(d map[string]any) { layerOf(d, 1)["width"] = -4 }, "layer", "Events", "width"},
		{"layer name", func(d map[string]any) { delete(layerOf(d, 0), "name") }, "layer", "", "name"},
		{"layer type", func(d map[string]any) { delete(layerOf(d, 1), "type") }, "layer", "Events", "type"},
		{"object layer visible", func(d map[string]any) { layerOf(d, 1)["visible"] = "yes" }, "layer", "Events", "visible"},
		{"object layer objects", func(d map[string]any) { delete(layerOf(d, 1), "objects") }, "layer", "Events", "objects"},
		{"object width", func(d map[string]any) {
			delete(layerOf(d, 1)["objects"].([]any)[1].(map[string]any), "width")
		}, "object", "Events/door", "width"},
		{"object name", func(d map[string]any) {
			delete(layerOf(d, 1)["objects"].([]any)[0].(map[string]any), "name")
		}, "object", "Events", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc()
			tt.mutate(doc)
			m := New(quiet())
			err := m.Load(mustJSON(t, doc))

			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("Load() error = %v, want *SchemaError", err)
			}
			if se.Scope != tt.wantScope || se.Name != tt.wantName || se.Key != tt.wantKey {
				t.Errorf("SchemaError = {%s %q %q}, want {%s %q %q}", se.Scope, se.Name, se.Key, tt.wantScope, tt.wantName, tt.wantKey)
			}
			if m.State() != Unloaded {
				t.Errorf("State() = %v, want unloaded", m.State())
			}
			if names := m.TileLayerNames(); len(names) != 0 {
				t.Errorf("TileLayerNames() = %v, want none published", names)
			}
		})
	}
}

func TestUnknownLayerTypeIgnored(t *testing.T) {
	doc := sampleDoc()
	doc["layers"] = append(doc["layers"].([]any), map[string]any{
		"type": "imagelayer",
		"name": "Sky",
	})
	m := mustDecode(t, doc)
	if _, ok := m.TileLayerInfo("sky"); ok {
		t.Error("imagelayer registered as a tile layer")
	}
	if _, ok := m.ObjectLayerInfo("sky"); ok {
		t.Error("imagelayer registered as an object layer")
	}
}

func TestLayerNamespaces(t *testing.T) {
	doc := sampleDoc()
	layerOf(doc, 1)["name"] = "background"
	m := mustDecode(t, doc)

	if _, ok := m.TileLayerInfo("Background"); !ok {
		t.Error("tile layer background missing")
	}
	if _, ok := m.ObjectLayerInfo("Background"); !ok {
		t.Error("object layer background missing")
	}
}

func TestDuplicateLayerNameLastWins(t *testing.T) {
	doc := sampleDoc()
	doc["layers"] = append(doc["layers"].([]any), map[string]any{
		"type": "tilelayer", "name": "BACKGROUND", "opacity": 0.25, "visible": true,
		"width": 1, "height": 1, "x": 0, "y": 0, "data": []int{17},
	})
	m := mustDecode(t, doc)

	if names := m.TileLayerNames(); len(names) != 1 || names[0] != "background" {
		t.Errorf("TileLayerNames() = %v, want [background]", names)
	}
	l, _ := m.TileLayerInfo("background")
	if l.Opacity != 0.25 || len(l.Tiles) != 1 {
		t.Errorf("background = %+v, want the later layer", l)
	}
}

func TestFoldName(t *testing.T) {
	tests := map[string]string{
		"Background": "background",
		"ÜBER":       "über",
		"already":    "already",
	}
	for in, want := range tests {
		if got := foldName(in); got != want {
			t.Errorf("foldName(%q) = %q, want %q", in, got, want)
		}
	}
}
