package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/retroblast-engine/tilemap"
)

const testMap = `{
	"width": 2, "height": 2, "tilewidth": 16, "tileheight": 16,
	"orientation": "orthogonal",
	"properties": {"music": "cave.ogg"},
	"layers": [
		{"type": "tilelayer", "name": "Ground", "opacity": 1, "visible": true,
		 "width": 2, "height": 2, "x": 0, "y": 0, "data": [1, 2, 0, 4]},
		{"type": "objectgroup", "name": "Spawns", "opacity": 1, "visible": true,
		 "width": 2, "height": 2, "x": 0, "y": 0, "objects": [
			{"name": "player", "visible": true, "width": 0, "height": 0, "x": 8, "y": 8}
		]}
	],
	"tilesets": [
		{"firstgid": 1, "image": "cave.png", "imagewidth": 32, "imageheight": 32,
		 "margin": 0, "spacing": 0, "tilewidth": 16, "tileheight": 16}
	]
}`

func loadTestMap(t *testing.T) *tilemap.Map {
	t.Helper()
	log := tilemap.NewLogger("panic", io.Discard)
	m, err := tilemap.Decode([]byte(testMap), tilemap.WithLogger(log))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return m
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, loadTestMap(t))

	for _, want := range []string{
		"map: 2x2 tiles of 16x16 px, orthogonal",
		"properties: {music:cave.ogg}",
		"ground",
		"spawns",
		"player",
		"point",
		"cave.png",
		"2x2 cells",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestMaterializeAll(t *testing.T) {
	var out bytes.Buffer
	materializeAll(&out, loadTestMap(t), tilemap.NewLogger("panic", io.Discard))

	if got := strings.TrimSpace(out.String()); !strings.HasPrefix(got, "ground") || !strings.HasSuffix(got, "3 tiles") {
		t.Errorf("materializeAll() = %q, want ground with 3 tiles", got)
	}
}
