package codec

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
)

// JPEGCodec handles lossy JPEG encoding and decoding.
type JPEGCodec struct{}

// Format returns the format name.
func (JPEGCodec) Format() string {
	return "jpeg"
}

// Decode reads a JPEG image.
func (JPEGCodec) Decode(r io.Reader) (image.Image, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode jpeg: %w", err)
	}
	return img, nil
}

// Encode writes the image as JPEG at the given quality factor. JPEG has no
// alpha channel; transparency is dropped by the encoder.
func (JPEGCodec) Encode(w io.Writer, img image.Image, quality int) error {
	if quality < 1 {
		// jpeg.Encode treats quality as 1-100
		quality = 1
	}

	slog.Debug("JPEGCodec: encoding",
		"quality", quality,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

func init() {
	if err := DefaultRegistry.Register(JPEGCodec{}); err != nil {
		panic(fmt.Sprintf("failed to register jpeg codec: %v", err))
	}
}
