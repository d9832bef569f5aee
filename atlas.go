package tilemap

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is an opaque handle to a sub-region of an atlas. Its concrete type
// belongs to the Atlas implementation (image.Image, *ebiten.Image, ...).
type Texture = any

// Atlas is a loaded tileset image able to hand out sub-regions.
type Atlas interface {
	SubRegion(r Rect) Texture
}

// AtlasLoader resolves a tileset's image identifier to an Atlas.
type AtlasLoader interface {
	LoadAtlas(name string) (Atlas, error)
}

// AtlasLoaderFunc adapts a function to AtlasLoader.
type AtlasLoaderFunc func(name string) (Atlas, error)

func (fn AtlasLoaderFunc) LoadAtlas(name string) (Atlas, error) { return fn(name) }

// ImageLoader decodes atlas images from a file system. PNG, GIF, JPEG, BMP,
// TIFF and WebP are understood.
type ImageLoader struct {
	FS  fs.FS
	Dir string // prefix joined to every image name
}

func (l ImageLoader) LoadAtlas(name string) (Atlas, error) {
	p := path.Join(l.Dir, name)
	if !fs.ValidPath(p) {
		return nil, fmt.Errorf("%w: invalid image path %q", ErrAtlasUnavailable, name)
	}
	f, err := l.FS.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAtlasUnavailable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %q: %v", ErrAtlasUnavailable, name, err)
	}
	return &ImageAtlas{Image: img}, nil
}

// ImageAtlas is an Atlas over an in-memory image. Sub-regions are image.Image values.
type ImageAtlas struct {
	Image image.Image
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func (a *ImageAtlas) SubRegion(r Rect) Texture {
	b := a.Image.Bounds()
	px := r.Pixels(b.Dx(), b.Dy()).Add(b.Min)
	if si, ok := a.Image.(subImager); ok {
		return si.SubImage(px)
	}

	dst := image.NewRGBA(image.Rect(0, 0, px.Dx(), px.Dy()))
	draw.Copy(dst, image.Point{}, a.Image, px, draw.Src, nil)
	return dst
}
