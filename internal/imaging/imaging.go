// Package imaging prepares uploaded sweet photos for the catalog.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxUploadBytes caps the size of an uploaded photo.
const MaxUploadBytes = 5 << 20

// MaxDimension is the longest edge of a stored photo.
const MaxDimension = 1024

// MaxSourcePixels rejects uploads whose decoded size would be unreasonable.
const MaxSourcePixels = 40_000_000

// JPEGQuality is the compression quality of stored photos.
const JPEGQuality = 85

// ErrUnsupported is returned for anything that is not a JPEG or PNG photo.
var ErrUnsupported = errors.New("unsupported image: only JPEG and PNG photos are accepted")

// accepted lists the sniffed content types a photo may have.
var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a processed catalog photo.
type Photo struct {
	Data []byte
	MIME string
}

// Process sniffs the upload, rejects oversized or foreign formats,
// downscales it to MaxDimension and re-encodes it as JPEG. Transparent
// areas (common in PNG cut-outs) are flattened onto white.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("photo larger than %d bytes", MaxUploadBytes)
	}

	// Client headers are not trusted.
	if !accepted[http.DetectContentType(data)] {
		return nil, ErrUnsupported
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width*cfg.Height > MaxSourcePixels {
		return nil, fmt.Errorf("photo is %dx%d, too large to process", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img, MaxDimension), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// fit returns the size of a w x h image scaled so neither edge exceeds maxDim.
func fit(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w > h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

// flatten draws img onto a white canvas of at most maxDim per edge,
// using Catmull-Rom when it has to shrink.
func flatten(img image.Image, maxDim int) image.Image {
	src := img.Bounds()
	w, h := fit(src.Dx(), src.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}
