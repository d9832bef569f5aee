package tilemap

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Map.
type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets where diagnostics go.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Map) {
		if log != nil {
			m.log = log
		}
	}
}

// WithAtlasLoader sets the collaborator that turns tileset image names into
// atlases. Without one, regions carry no texture.
func WithAtlasLoader(loader AtlasLoader) Option {
	return func(m *Map) { m.loader = loader }
}

// WithStrictGIDs makes GIDs below every tileset's first GID an error instead
// of falling back to the first tileset.
func WithStrictGIDs(strict bool) Option {
	return func(m *Map) { m.strict = strict }
}

// WithLocalTileProperties attaches tile properties by local index
// (gid - firstGID) instead of by GID. Tiled writes tileproperties keys as
// local indices, so maps whose tilesets start above GID 0 need this to get
// each tile's own properties.
func WithLocalTileProperties(local bool) Option {
	return func(m *Map) { m.localProps = local }
}

// Map is a tile map decoded from a document. It is read-only once loaded,
// apart from its texture region cache, and safe for concurrent queries.
type Map struct {
	log        logrus.FieldLogger
	loader     AtlasLoader
	strict     bool
	localProps bool

	// nil while unloaded; replaced wholesale so readers never see a partial map
	model atomic.Pointer[model]
}

type model struct {
	id  string
	log logrus.FieldLogger

	mapSize     Vec2 // in tiles
	tileSize    Vec2
	orientation Orientation
	properties  Properties

	tileLayers   map[string]*TileLayer
	objectLayers map[string]*ObjectLayer
	tileOrder    []string
	objectOrder  []string

	tilesets   []*Tileset
	cache      *regionCache
	localProps bool
}

// New returns an unloaded Map.
func New(opts ...Option) *Map {
	m := &Map{}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = defaultLogger()
	}
	return m
}

// Decode builds a loaded Map from a document.
func Decode(data []byte, opts ...Option) (*Map, error) {
	m := New(opts...)
	if err := m.Load(data); err != nil {
		return nil, err
	}
	return m, nil
}

// Load decodes data and publishes the result. On failure the Map keeps
// whatever state it had before.
func (m *Map) Load(data []byte) error {
	id := newLoadID()
	log := m.log.WithField("load", id)

	md, err := m.build(data, log)
	if err != nil {
		log.WithError(err).Error("map load failed")
		return err
	}
	md.id = id
	m.model.Store(md)

	log.Debugf("map loaded: %vx%v %s, %d tile layers, %d object layers, %d tilesets",
		md.mapSize.X(), md.mapSize.Y(), md.orientation, len(md.tileLayers), len(md.objectLayers), len(md.tilesets))
	return nil
}

func (m *Map) build(data []byte, log logrus.FieldLogger) (*model, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	header, err := decodeHeader(doc)
	if err != nil {
		return nil, err
	}

	md := &model{
		log:          log,
		mapSize:      header.mapSize,
		tileSize:     header.tileSize,
		orientation:  header.orientation,
		properties:   header.properties,
		tileLayers:   make(map[string]*TileLayer),
		objectLayers: make(map[string]*ObjectLayer),
	}

	root := fields{node: doc.Root, scope: "map"}
	layers, err := root.nodes("layers")
	if err != nil {
		return nil, err
	}
	for _, node := range layers {
		if err := md.addLayer(node); err != nil {
			return nil, err
		}
	}

	tilesetNodes, err := root.nodes("tilesets")
	if err != nil {
		return nil, err
	}
	if md.tilesets, err = buildTilesets(tilesetNodes); err != nil {
		return nil, err
	}
	if err := m.loadAtlases(md.tilesets); err != nil {
		return nil, err
	}

	md.cache = newRegionCache(registry{tilesets: md.tilesets, strict: m.strict})
	md.localProps = m.localProps
	return md, nil
}

func (md *model) addLayer(node Node) error {
	f := layerFields(node)
	typ, err := f.string("type")
	if err != nil {
		return err
	}

	switch typ {
	case typeTileLayer:
		layer, err := buildTileLayer(node)
		if err != nil {
			return err
		}
		if _, dup := md.tileLayers[layer.Name]; dup {
			md.log.WithField("layer", layer.Name).Warn("duplicate tile layer name, later layer wins")
		} else {
			md.tileOrder = append(md.tileOrder, layer.Name)
		}
		md.tileLayers[layer.Name] = layer
	case typeObjectGroup:
		layer, err := buildObjectLayer(node)
		if err != nil {
			return err
		}
		if _, dup := md.objectLayers[layer.Name]; dup {
			md.log.WithField("layer", layer.Name).Warn("duplicate object layer name, later layer wins")
		} else {
			md.objectOrder = append(md.objectOrder, layer.Name)
		}
		md.objectLayers[layer.Name] = layer
	default:
		md.log.WithField("layer", f.name).Debugf("skipping layer of type %q", typ)
	}
	return nil
}

// loadAtlases attaches an atlas to every tileset. Tilesets sharing an image
// share the atlas.
func (m *Map) loadAtlases(tilesets []*Tileset) error {
	if m.loader == nil {
		return nil
	}
	loaded := make(map[string]Atlas)
	for _, ts := range tilesets {
		atlas, ok := loaded[ts.ImageName]
		if !ok {
			var err error
			atlas, err = m.loader.LoadAtlas(ts.ImageName)
			if err != nil {
				if errors.Is(err, ErrAtlasUnavailable) {
					return fmt.Errorf("tileset %q: %w", ts.label(), err)
				}
				return fmt.Errorf("%w: tileset %q: %v", ErrAtlasUnavailable, ts.label(), err)
			}
			loaded[ts.ImageName] = atlas
		}
		ts.Atlas = atlas
	}
	return nil
}

// State reports whether a document has been loaded.
func (m *Map) State() State {
	if m.model.Load() == nil {
		return Unloaded
	}
	return Loaded
}

// LoadID returns the id the last successful load was logged under.
func (m *Map) LoadID() string {
	if md := m.model.Load(); md != nil {
		return md.id
	}
	return ""
}

// MapSize returns the map size in tiles.
func (m *Map) MapSize() Vec2 {
	if md := m.model.Load(); md != nil {
		return md.mapSize
	}
	return Vec2{}
}

// TileSize returns the pixel size of one grid cell.
func (m *Map) TileSize() Vec2 {
	if md := m.model.Load(); md != nil {
		return md.tileSize
	}
	return Vec2{}
}

func (m *Map) Orientation() Orientation {
	if md := m.model.Load(); md != nil {
		return md.orientation
	}
	return Orthogonal
}

// Properties returns a copy of the map-level custom properties.
func (m *Map) Properties() Properties {
	if md := m.model.Load(); md != nil {
		return md.properties.clone()
	}
	return Properties{}
}

// Tilesets returns copies of the tilesets in file order. Atlases are shared.
func (m *Map) Tilesets() []*Tileset {
	md := m.model.Load()
	if md == nil {
		return nil
	}
	out := make([]*Tileset, len(md.tilesets))
	for i, ts := range md.tilesets {
		out[i] = ts.clone()
	}
	return out
}

// TileLayerNames returns tile layer names in file order, which is draw order.
func (m *Map) TileLayerNames() []string {
	md := m.model.Load()
	if md == nil {
		return nil
	}
	return append([]string(nil), md.tileOrder...)
}

// ObjectLayerNames returns object layer names in file order.
func (m *Map) ObjectLayerNames() []string {
	md := m.model.Load()
	if md == nil {
		return nil
	}
	return append([]string(nil), md.objectOrder...)
}

// TileLayerInfo returns a copy of the decoded tile layer without
// materializing it.
func (m *Map) TileLayerInfo(name string) (*TileLayer, bool) {
	md := m.model.Load()
	if md == nil {
		return nil, false
	}
	l, ok := md.tileLayers[foldName(name)]
	if !ok {
		return nil, false
	}
	return l.clone(), true
}

// ObjectLayerInfo returns a copy of the decoded object layer.
func (m *Map) ObjectLayerInfo(name string) (*ObjectLayer, bool) {
	md := m.model.Load()
	if md == nil {
		return nil, false
	}
	l, ok := md.objectLayers[foldName(name)]
	if !ok {
		return nil, false
	}
	return l.clone(), true
}

// ObjectLayer returns the objects of the named layer in file order. A missing
// layer yields an empty slice and an error wrapping ErrLayerNotFound.
func (m *Map) ObjectLayer(name string) ([]MapObject, error) {
	md := m.model.Load()
	if md == nil {
		return []MapObject{}, ErrNotLoaded
	}
	layer, ok := md.objectLayers[foldName(name)]
	if !ok {
		md.log.WithField("layer", name).Warn("no object layer with that name")
		return []MapObject{}, fmt.Errorf("%w: object layer %q", ErrLayerNotFound, name)
	}

	return cloneObjects(layer.Objects), nil
}

// ObjectsAt returns the objects of a layer whose area contains p, given in
// map pixel space. Point markers match only their exact position.
func (m *Map) ObjectsAt(name string, p Vec2) []MapObject {
	md := m.model.Load()
	if md == nil {
		return nil
	}
	layer, ok := md.objectLayers[foldName(name)]
	if !ok {
		md.log.WithField("layer", name).Warn("no object layer with that name")
		return nil
	}

	local := orbPoint(p.Sub(layer.Position))
	var hits []MapObject
	for _, o := range layer.Objects {
		if o.Bound().Contains(local) {
			o.Properties = o.Properties.clone()
			hits = append(hits, o)
		}
	}
	return hits
}

// TilesetForGID returns the tileset owning gid. It is the same tileset regions
// point at and must be treated as read-only; Tilesets hands out copies.
func (m *Map) TilesetForGID(gid int) (*Tileset, error) {
	md := m.model.Load()
	if md == nil {
		return nil, ErrNotLoaded
	}
	return md.cache.reg.tilesetForGID(gid)
}

// RegionForGID returns the cached atlas region of gid, resolving it on first use.
func (m *Map) RegionForGID(gid int) (Region, error) {
	md := m.model.Load()
	if md == nil {
		return Region{}, ErrNotLoaded
	}
	return md.cache.region(gid)
}

// TileForGID resolves a raw layer value, flip flags included, to an unplaced tile.
func (m *Map) TileForGID(raw int) (Tile, error) {
	md := m.model.Load()
	if md == nil {
		return Tile{}, ErrNotLoaded
	}
	return md.tileForGID(raw)
}

func (md *model) tileForGID(raw int) (Tile, error) {
	gid, xFlip, yFlip, dFlip := SplitGID(raw)
	region, err := md.cache.region(gid)
	if err != nil {
		return Tile{}, err
	}
	key := gid
	if md.localProps {
		key = region.Index
	}
	return Tile{
		GID:          gid,
		XFlip:        xFlip,
		YFlip:        yFlip,
		DiagonalFlip: dFlip,
		Region:       region,
		Properties:   region.Tileset.PropertiesFor(key),
	}, nil
}
