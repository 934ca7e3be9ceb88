package codec

import (
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/chai2010/webp"
)

// WebPCodec handles lossy WebP encoding and decoding.
type WebPCodec struct{}

// Format returns the format name.
func (WebPCodec) Format() string {
	return "webp"
}

// Decode reads a WebP image.
func (WebPCodec) Decode(r io.Reader) (image.Image, error) {
	img, err := webp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode webp: %w", err)
	}
	return img, nil
}

// Encode writes the image as lossy WebP at the given quality factor.
func (WebPCodec) Encode(w io.Writer, img image.Image, quality int) error {
	slog.Debug("WebPCodec: encoding",
		"quality", quality,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	err := webp.Encode(w, img, &webp.Options{
		Lossless: false,
		Quality:  float32(quality),
	})
	if err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return nil
}

func init() {
	if err := DefaultRegistry.Register(WebPCodec{}); err != nil {
		panic(fmt.Sprintf("failed to register webp codec: %v", err))
	}
}
