package tilemap

import (
	"errors"
	"testing"
)

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"object", `{"width": 4}`, nil},
		{"truncated", `{"width":`, ErrMalformedDocument},
		{"array", `[1, 2]`, ErrMalformedDocument},
		{"null", `null`, ErrMalformedDocument},
		{"empty", ``, ErrMalformedDocument},
		{"not json", `<map/>`, ErrMalformedDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeDocument() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && doc.Root == nil {
				t.Error("DecodeDocument() returned a nil root")
			}
		})
	}
}

func TestDecodeDocumentNoSemanticChecks(t *testing.T) {
	// Missing map fields are only noticed by the consumer.
	if _, err := DecodeDocument([]byte(`{"foo": "bar"}`)); err != nil {
		t.Fatalf("DecodeDocument() error = %v, want nil", err)
	}
}

func TestFieldsInt(t *testing.T) {
	f := fields{node: Node{
		"int":      []byte(`4`),
		"integral": []byte(`4.0`),
		"fraction": []byte(`4.5`),
		"string":   []byte(`"four"`),
		"null":     []byte(`null`),
	}, scope: "map"}

	if got, err := f.int("int"); err != nil || got != 4 {
		t.Errorf("int(int) = %d, %v, want 4, nil", got, err)
	}
	if got, err := f.int("integral"); err != nil || got != 4 {
		t.Errorf("int(integral) = %d, %v, want 4, nil", got, err)
	}

	for _, key := range []string{"fraction", "string", "null", "absent"} {
		_, err := f.int(key)
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("int(%s) error = %v, want *SchemaError", key, err)
		}
		if se.Key != key {
			t.Errorf("int(%s) key = %q, want %q", key, se.Key, key)
		}
		if !errors.Is(err, ErrSchemaViolation) {
			t.Errorf("int(%s) error does not wrap ErrSchemaViolation", key)
		}
	}
}

func TestDecodeHeader(t *testing.T) {
	doc, err := DecodeDocument(mustJSON(t, sampleDoc()))
	if err != nil {
		t.Fatal(err)
	}
	h, err := decodeHeader(doc)
	if err != nil {
		t.Fatalf("decodeHeader() error = %v", err)
	}
	if h.mapSize != (Vec2{4, 3}) {
		t.Errorf("mapSize = %v, want [4 3]", h.mapSize)
	}
	if h.tileSize != (Vec2{32, 32}) {
		t.Errorf("tileSize = %v, want [32 32]", h.tileSize)
	}
	if h.orientation != Orthogonal {
		t.Errorf("orientation = %v, want orthogonal", h.orientation)
	}
	if got, _ := h.properties["music"].AsString(); got != "overworld.ogg" {
		t.Errorf("properties[music] = %q, want overworld.ogg", got)
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr error
		wantKey string
	}{
		{"missing width", func(d map[string]any) { delete(d, "width") }, ErrSchemaViolation, "width"},
		{"mistyped height", func(d map[string]any) { d["height"] = "three" }, ErrSchemaViolation, "height"},
		{"missing tilewidth", func(d map[string]any) { delete(d, "tilewidth") }, ErrSchemaViolation, "tilewidth"},
		{"zero tileheight", func(d map[string]any) { d["tileheight"] = 0 }, ErrSchemaViolation, "width/height/tilewidth/tileheight"},
		{"missing orientation", func(d map[string]any) { delete(d, "orientation") }, ErrSchemaViolation, "orientation"},
		{"hexagonal", func(d map[string]any) { d["orientation"] = "hexagonal" }, ErrUnknownOrientation, ""},
		{"bad properties", func(d map[string]any) { d["properties"] = 12 }, ErrSchemaViolation, "properties"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDoc()
			tt.mutate(d)
			doc, err := DecodeDocument(mustJSON(t, d))
			if err != nil {
				t.Fatal(err)
			}
			_, err = decodeHeader(doc)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("decodeHeader() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantKey == "" {
				return
			}
			var se *SchemaError
			if !errors.As(err, &se) || se.Key != tt.wantKey || se.Scope != "map" {
				t.Errorf("decodeHeader() error = %v, want map key %q", err, tt.wantKey)
			}
		})
	}
}

func TestParseOrientation(t *testing.T) {
	for s, want := range map[string]Orientation{"orthogonal": Orthogonal, "isometric": Isometric} {
		got, err := ParseOrientation(s)
		if err != nil || got != want {
			t.Errorf("ParseOrientation(%q) = %v, %v, want %v", s, got, err, want)
		}
		if got.String() != s {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), s)
		}
	}
	for _, s := range []string{"hexagonal", "staggered", "Orthogonal", ""} {
		if _, err := ParseOrientation(s); !errors.Is(err, ErrUnknownOrientation) {
			t.Errorf("ParseOrientation(%q) error = %v, want ErrUnknownOrientation", s, err)
		}
	}
}
