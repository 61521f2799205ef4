package imageproxy

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Result is a processed image and its final dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Processor resizes image data.
type Processor interface {
	// Process scales data so its larger side is at most size pixels and
	// returns it JPEG encoded at quality.
	Process(data []byte, size, quality int) (*Result, error)
}

// ImageProcessor implements the Processor interface using the imaging library.
type ImageProcessor struct{}

// NewProcessor creates a new ImageProcessor instance.
func NewProcessor() Processor {
	return &ImageProcessor{}
}

// Process fits the image inside a size x size box, preserving aspect ratio.
// Images already inside the box are re-encoded but never upscaled.
func (p *ImageProcessor) Process(data []byte, size, quality int) (*Result, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if isUnsupportedFormatError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrProcessingFailed, err)
	}

	switch format {
	case "jpeg", "png", "gif", "webp":
	default:
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedFormat, format)
	}

	out := fitWithin(img, size)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: failed to encode JPEG: %v", ErrProcessingFailed, err)
	}

	b := out.Bounds()
	return &Result{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fitWithin scales img down so neither side exceeds size.
func fitWithin(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

func isUnsupportedFormatError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unknown format") ||
		strings.HasPrefix(msg, "invalid JPEG format: missing SOI marker")
}
