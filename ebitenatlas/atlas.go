// Package ebitenatlas loads tileset atlases as ebiten images, so the regions a
// tilemap.Map resolves can be drawn directly.
package ebitenatlas

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"math"
	"path"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/retroblast-engine/tilemap"
)

// Loader reads atlas images from a file system.
type Loader struct {
	FS  fs.FS
	Dir string // prefix joined to every image name
}

func (l Loader) LoadAtlas(name string) (tilemap.Atlas, error) {
	p := path.Join(l.Dir, name)
	img, _, err := ebitenutil.NewImageFromFileSystem(l.FS, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", tilemap.ErrAtlasUnavailable, name, err)
	}
	return &Atlas{Image: img}, nil
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) *Atlas {
	return &Atlas{Image: ebiten.NewImageFromImage(img)}
}

// Atlas hands out sub-images of an ebiten image. Sub-images share the
// atlas texture.
type Atlas struct {
	Image *ebiten.Image
}

func (a *Atlas) SubRegion(r tilemap.Rect) tilemap.Texture {
	b := a.Image.Bounds()
	return a.Image.SubImage(r.Pixels(b.Dx(), b.Dy()).Add(b.Min)).(*ebiten.Image)
}

// DrawOptions returns draw options placing tile t with its flips applied.
// screenHeight converts the tile's Y-up position to ebiten's Y-down screen.
func DrawOptions(t tilemap.Tile, screenHeight float64) *ebiten.DrawImageOptions {
	w, h := t.Region.Size.X(), t.Region.Size.Y()
	op := &ebiten.DrawImageOptions{}

	// flip around the sprite centre; a diagonal flip transposes the axes
	op.GeoM.Translate(-w/2, -h/2)
	if t.DiagonalFlip {
		op.GeoM.Rotate(math.Pi / 2)
		op.GeoM.Scale(-1, 1)
	}
	if t.XFlip {
		op.GeoM.Scale(-1, 1)
	}
	if t.YFlip {
		op.GeoM.Scale(1, -1)
	}
	op.GeoM.Translate(t.Position.X(), screenHeight-t.Position.Y())
	return op
}
