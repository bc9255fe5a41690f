package coverart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"coverharvest/internal/fileutil"
)

const (
	// DefaultSize is the edge length of a normalized cover.
	DefaultSize = 1024
	// DefaultQuality is the JPEG quality of a normalized cover.
	DefaultQuality = 75
)

// Normalize decodes data and returns a size x size RGB JPEG. The aspect ratio
// is not preserved.
func Normalize(data []byte, size, quality int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes a normalized cover atomically, creating parent directories.
func Save(path string, data []byte) error {
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save cover %s: %w", path, err)
	}
	return nil
}
