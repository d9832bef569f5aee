package tilemap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Aseprite files can serve as tileset atlases: the first tileset chunk that
// embeds its tiles becomes an image one tile wide, tiles stacked top to bottom.
// The format is registered with the image package, so ImageLoader picks it up.

func init() {
	image.RegisterFormat("aseprite", "????\xe0\xa5", decodeAseprite, decodeAsepriteConfig)
}

var errNoAsepriteTileset = errors.New("aseprite: no embedded tileset")

// Layouts follow https://github.com/aseprite/aseprite/blob/main/docs/ase-file-specs.md
const (
	asepriteMagic = 0xA5E0
	frameMagic    = 0xF1FA

	colorDepthRGBA      uint16 = 32
	colorDepthGrayscale uint16 = 16
	colorDepthIndexed   uint16 = 8

	chunkOldPalette = 0x0004
	chunkPalette    = 0x2019
	chunkTileset    = 0x2023
)

// Tileset flags
const (
	flagIncludeLinkToExternalFile = 1 << iota
	flagIncludeTilesInsideFile
)

type asepriteHeader struct {
	FileSize          uint32
	MagicNumberHeader uint16
	FrameCount        uint16
	Width             uint16
	Height            uint16
	ColorDepth        uint16 // 32 RGBA, 16 grayscale, 8 indexed
	Flags             uint32
	Speed             uint16
	Reserved1         uint32
	Reserved2         uint32
	TransparentIdx    uint8 // only for indexed sprites
	IgnoreBytes       [3]uint8
	NumColors         uint16
	PixelWidth        uint8
	PixelHeight       uint8
	GridX             int16
	GridY             int16
	GridWidth         uint16
	GridHeight        uint16
	FutureUse         [84]uint8
}

func (h *asepriteHeader) bytesPerPixel() (int, error) {
	switch h.ColorDepth {
	case colorDepthRGBA:
		return 4, nil
	case colorDepthGrayscale:
		return 2, nil
	case colorDepthIndexed:
		return 1, nil
	}
	return 0, fmt.Errorf("aseprite: unsupported color depth %d", h.ColorDepth)
}

type frameHeader struct {
	BytesInFrame  uint32
	MagicNumber   uint16
	OldChunkCount uint16 // 0xFFFF means NewChunkCount holds the real count
	FrameDuration uint16
	Reserved      [2]uint8
	NewChunkCount uint32
}

func (fh *frameHeader) NumberOfChunks() uint32 {
	if fh.OldChunkCount == 0xFFFF {
		return fh.NewChunkCount
	}
	if fh.NewChunkCount == 0 {
		return uint32(fh.OldChunkCount)
	}
	return fh.NewChunkCount
}

type chunk struct {
	ChunkSize uint32 // header included
	ChunkType uint16
	ChunkData []uint8
}

// tilesetChunk is the fixed part of a 0x2023 chunk.
type tilesetChunk struct {
	TilesetID     uint32
	TilesetFlags  uint32
	NumberOfTiles uint32
	TileWidth     uint16
	TileHeight    uint16
	BaseIndex     int16
	Reserved      [14]uint8
}

// asepriteTileset is an embedded tileset with its pixels still in file order.
type asepriteTileset struct {
	tilesetChunk
	Name   string
	Pixels []byte
}

func (t *asepriteTileset) bounds() image.Rectangle {
	return image.Rect(0, 0, int(t.TileWidth), int(t.TileHeight)*int(t.NumberOfTiles))
}

type asepriteFile struct {
	header  asepriteHeader
	palette color.Palette
	tileset *asepriteTileset
}

func readAseprite(r io.Reader) (*asepriteFile, error) {
	br := bufio.NewReader(r)
	file := &asepriteFile{}
	header := &file.header
	if err := binary.Read(br, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("aseprite: reading header: %w", err)
	}
	if header.MagicNumberHeader != asepriteMagic {
		return nil, fmt.Errorf("aseprite: bad magic number 0x%X", header.MagicNumberHeader)
	}

	for i := 0; i < int(header.FrameCount) && file.tileset == nil; i++ {
		fh := &frameHeader{}
		if err := binary.Read(br, binary.LittleEndian, fh); err != nil {
			return nil, fmt.Errorf("aseprite: frame %d: %w", i, err)
		}
		if fh.MagicNumber != frameMagic {
			return nil, fmt.Errorf("aseprite: frame %d: bad magic number 0x%X", i, fh.MagicNumber)
		}

		for j := 0; j < int(fh.NumberOfChunks()); j++ {
			c, err := readChunk(br)
			if err != nil {
				return nil, fmt.Errorf("aseprite: frame %d chunk %d: %w", i, j, err)
			}
			if err := file.apply(c); err != nil {
				return nil, err
			}
			if file.tileset != nil {
				break
			}
		}
	}

	if file.tileset == nil {
		return nil, errNoAsepriteTileset
	}
	return file, nil
}

func readChunk(r io.Reader) (*chunk, error) {
	c := &chunk{}
	if err := binary.Read(r, binary.LittleEndian, &c.ChunkSize); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &c.ChunkType); err != nil {
		return nil, err
	}
	if c.ChunkSize < 6 {
		return nil, fmt.Errorf("invalid chunk size %d", c.ChunkSize)
	}

	c.ChunkData = make([]uint8, c.ChunkSize-6)
	if _, err := io.ReadFull(r, c.ChunkData); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *asepriteFile) apply(c *chunk) error {
	var err error
	switch c.ChunkType {
	case chunkOldPalette:
		if len(f.palette) == 0 {
			f.palette, err = parseOldPalette(c.ChunkData)
		}
	case chunkPalette:
		f.palette, err = parsePalette(c.ChunkData, f.palette)
	case chunkTileset:
		f.tileset, err = parseTileset(c.ChunkData)
	}
	if err != nil {
		return fmt.Errorf("aseprite: chunk 0x%04X: %w", c.ChunkType, err)
	}
	return nil
}

// parseOldPalette reads a 0x0004 chunk, which only matters for files written
// before the 0x2019 chunk existed.
func parseOldPalette(data []byte) (color.Palette, error) {
	r := bytes.NewReader(data)
	var packets uint16
	if err := binary.Read(r, binary.LittleEndian, &packets); err != nil {
		return nil, err
	}

	var palette color.Palette
	for i := 0; i < int(packets); i++ {
		var skip, count uint8
		if err := binary.Read(r, binary.LittleEndian, &skip); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, err
		}
		for k := 0; k < int(skip); k++ {
			palette = append(palette, color.NRGBA{})
		}
		n := int(count)
		if n == 0 {
			n = 256
		}
		for k := 0; k < n; k++ {
			var rgb [3]uint8
			if err := binary.Read(r, binary.LittleEndian, &rgb); err != nil {
				return nil, err
			}
			palette = append(palette, color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF})
		}
	}
	return palette, nil
}

func parsePalette(data []byte, palette color.Palette) (color.Palette, error) {
	r := bytes.NewReader(data)
	var head struct {
		NewPaletteSize uint32
		FirstColor     uint32
		LastColor      uint32
		Reserved       [8]uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
		return nil, err
	}
	if head.NewPaletteSize > 1<<16 || head.LastColor < head.FirstColor || head.LastColor >= head.NewPaletteSize {
		return nil, fmt.Errorf("palette range %d-%d outside size %d", head.FirstColor, head.LastColor, head.NewPaletteSize)
	}

	out := make(color.Palette, head.NewPaletteSize)
	for i := range out {
		if i < len(palette) {
			out[i] = palette[i]
		} else {
			out[i] = color.NRGBA{}
		}
	}
	for i := head.FirstColor; i <= head.LastColor; i++ {
		var entry struct {
			Flags      uint16
			R, G, B, A uint8
		}
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return nil, err
		}
		if entry.Flags&1 != 0 {
			if err := skipString(r); err != nil {
				return nil, err
			}
		}
		out[i] = color.NRGBA{R: entry.R, G: entry.G, B: entry.B, A: entry.A}
	}
	return out, nil
}

func readString(r *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	chars := make([]byte, length)
	if _, err := io.ReadFull(r, chars); err != nil {
		return "", err
	}
	return string(chars), nil
}

func skipString(r *bytes.Reader) error {
	_, err := readString(r)
	return err
}

// parseTileset returns nil for tilesets that only link to an external file.
func parseTileset(data []byte) (*asepriteTileset, error) {
	r := bytes.NewReader(data)
	ts := &asepriteTileset{}
	if err := binary.Read(r, binary.LittleEndian, &ts.tilesetChunk); err != nil {
		return nil, err
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	ts.Name = name

	if ts.TilesetFlags&flagIncludeLinkToExternalFile != 0 {
		var link struct {
			ExternalFileID uint32
			TilesetID      uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &link); err != nil {
			return nil, err
		}
	}
	if ts.TilesetFlags&flagIncludeTilesInsideFile == 0 {
		return nil, nil
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if int64(size) > int64(r.Len()) {
		return nil, fmt.Errorf("tileset image of %d bytes overruns the chunk", size)
	}
	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}
	if ts.Pixels, err = decompressZlib(compressed); err != nil {
		return nil, fmt.Errorf("error decompressing tileset image data: %w", err)
	}
	return ts, nil
}

func (f *asepriteFile) image() (image.Image, error) {
	bpp, err := f.header.bytesPerPixel()
	if err != nil {
		return nil, err
	}
	b := f.tileset.bounds()
	if want := b.Dx() * b.Dy() * bpp; len(f.tileset.Pixels) != want {
		return nil, fmt.Errorf("aseprite: tileset %q holds %d bytes, want %d", f.tileset.Name, len(f.tileset.Pixels), want)
	}

	img := image.NewNRGBA(b)
	px := f.tileset.Pixels
	for i := 0; i < b.Dx()*b.Dy(); i++ {
		var c color.NRGBA
		switch f.header.ColorDepth {
		case colorDepthRGBA:
			c = color.NRGBA{R: px[i*4], G: px[i*4+1], B: px[i*4+2], A: px[i*4+3]}
		case colorDepthGrayscale:
			v := px[i*2]
			c = color.NRGBA{R: v, G: v, B: v, A: px[i*2+1]}
		case colorDepthIndexed:
			idx := px[i]
			if idx != f.header.TransparentIdx && int(idx) < len(f.palette) {
				c = color.NRGBAModel.Convert(f.palette[idx]).(color.NRGBA)
			}
		}
		img.SetNRGBA(i%b.Dx(), i/b.Dx(), c)
	}
	return img, nil
}

func decodeAseprite(r io.Reader) (image.Image, error) {
	file, err := readAseprite(r)
	if err != nil {
		return nil, err
	}
	return file.image()
}

func decodeAsepriteConfig(r io.Reader) (image.Config, error) {
	file, err := readAseprite(r)
	if err != nil {
		return image.Config{}, err
	}
	b := file.tileset.bounds()
	return image.Config{ColorModel: color.NRGBAModel, Width: b.Dx(), Height: b.Dy()}, nil
}
