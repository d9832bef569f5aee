package tilemap

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// decodeLayerData reads a tile layer's "data" field. Plain documents carry a
// JSON array of GIDs; with encoding "base64" it is a string of little-endian
// uint32 values, optionally compressed.
func decodeLayerData(f fields) ([]int, error) {
	encoding, err := f.stringOr("encoding", "csv")
	if err != nil {
		return nil, err
	}

	switch encoding {
	case "csv":
		var tiles []int
		if err := f.decode("data", &tiles); err != nil {
			return nil, err
		}
		return tiles, nil
	case "base64":
	default:
		return nil, mistyped(f.scope, f.name, "encoding", fmt.Errorf("unsupported encoding %q", encoding))
	}

	var encoded string
	if err := f.decode("data", &encoded); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, mistyped(f.scope, f.name, "data", err)
	}

	compression, err := f.stringOr("compression", "")
	if err != nil {
		return nil, err
	}
	switch compression {
	case "":
	case "zlib":
		raw, err = decompressZlib(raw)
	case "gzip":
		raw, err = decompressGzip(raw)
	case "zstd":
		raw, err = decompressZstd(raw)
	default:
		return nil, mistyped(f.scope, f.name, "compression", fmt.Errorf("unsupported compression %q", compression))
	}
	if err != nil {
		return nil, mistyped(f.scope, f.name, "data", err)
	}

	if len(raw)%4 != 0 {
		return nil, mistyped(f.scope, f.name, "data", fmt.Errorf("invalid data length: %d", len(raw)))
	}
	tiles := make([]int, len(raw)/4)
	for i := range tiles {
		tiles[i] = int(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return tiles, nil
}

// Function to decompress ZLIB data
func decompressZlib(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("input data is empty")
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer r.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("failed to copy decompressed data: %w", err)
	}
	return out.Bytes(), nil
}

func decompressGzip(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("input data is empty")
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer r.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("failed to copy decompressed data: %w", err)
	}
	return out.Bytes(), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("input data is empty")
	}

	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer d.Close()

	out, err := d.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd data: %w", err)
	}
	return out, nil
}
