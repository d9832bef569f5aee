// Command mapinfo loads a tile map document and prints its layers, tilesets
// and, optionally, how many tiles every tile layer materializes to.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/retroblast-engine/tilemap"
)

func main() {
	InitFlag()

	conf, err := LoadConf(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if mapFile != "" {
		conf.Map.File = mapFile
	}

	log, err := initLog(conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if conf.Map.File == "" {
		log.Fatal("no map file given, use -m or map.file")
	}

	data, err := os.ReadFile(conf.Map.File)
	if err != nil {
		log.Fatalf("unable to read map file: %v", err)
	}

	opts := []tilemap.Option{
		tilemap.WithLogger(log),
		tilemap.WithStrictGIDs(conf.Map.StrictGIDs),
	}
	if conf.Map.AtlasDir != "" {
		opts = append(opts, tilemap.WithAtlasLoader(tilemap.ImageLoader{FS: os.DirFS(conf.Map.AtlasDir)}))
	}

	start := time.Now()
	m, err := tilemap.Decode(data, opts...)
	if err != nil {
		log.Fatalf("unable to load %s: %v", conf.Map.File, err)
	}
	log.Infof("loaded %s in %v", conf.Map.File, time.Since(start))

	printSummary(os.Stdout, m)
	if conf.Map.Materialize {
		materializeAll(os.Stdout, m, log)
	}
}

func initLog(conf *Conf) (*logrus.Logger, error) {
	outputs := make([]io.Writer, 0, 2)
	if conf.Output.LogDir != "" {
		if err := os.MkdirAll(conf.Output.LogDir, os.ModePerm); err != nil {
			return nil, err
		}
		filename := filepath.Join(conf.Output.LogDir, time.Now().Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		outputs = append(outputs, file)
	}
	if conf.Output.OutputTerminal || len(outputs) == 0 {
		outputs = append(outputs, os.Stderr)
	}
	return tilemap.NewLogger(logLevel, outputs...), nil
}

func printSummary(w io.Writer, m *tilemap.Map) {
	size, tile := m.MapSize(), m.TileSize()
	fmt.Fprintf(w, "map: %vx%v tiles of %vx%v px, %s\n", size.X(), size.Y(), tile.X(), tile.Y(), m.Orientation())
	if props := m.Properties(); len(props) > 0 {
		fmt.Fprintf(w, "properties: %s\n", props)
	}

	fmt.Fprintln(w, "tile layers:")
	for _, name := range m.TileLayerNames() {
		l, _ := m.TileLayerInfo(name)
		fmt.Fprintf(w, "  %-20s %vx%v opacity %.2f visible %t\n", l.Name, l.Size.X(), l.Size.Y(), l.Opacity, l.Visible)
	}

	fmt.Fprintln(w, "object layers:")
	for _, name := range m.ObjectLayerNames() {
		l, _ := m.ObjectLayerInfo(name)
		fmt.Fprintf(w, "  %-20s %d objects\n", l.Name, len(l.Objects))
		for _, o := range l.Objects {
			kind := "area"
			if o.IsPoint() {
				kind = "point"
			}
			fmt.Fprintf(w, "    - %-16s %-5s at %v,%v\n", o.Name, kind, o.Position.X(), o.Position.Y())
		}
	}

	fmt.Fprintln(w, "tilesets:")
	for _, ts := range m.Tilesets() {
		fmt.Fprintf(w, "  firstgid %-5d %-24s %dx%d cells, %d with properties\n",
			ts.FirstGID, ts.ImageName, ts.TilesPerRow(), ts.TilesPerCol(), len(ts.TileProperties))
	}
}

func materializeAll(w io.Writer, m *tilemap.Map, log logrus.FieldLogger) {
	names := m.TileLayerNames()
	counts := make([]int, len(names))

	bar := pb.New(len(names))
	bar.Output = os.Stderr
	bar.Start()
	for i, name := range names {
		tiles, err := m.TileLayer(name)
		if err != nil {
			log.Errorf("layer %s: %v", name, err)
		}
		counts[i] = len(tiles)
		bar.Increment()
	}
	bar.Finish()

	for i, name := range names {
		fmt.Fprintf(w, "%-20s %d tiles\n", name, counts[i])
	}
}
