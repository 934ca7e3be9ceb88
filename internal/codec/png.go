package codec

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
)

// PNGCodec handles lossless PNG encoding and decoding.
type PNGCodec struct{}

// Format returns the format name.
func (PNGCodec) Format() string {
	return "png"
}

// Decode reads a PNG image.
func (PNGCodec) Decode(r io.Reader) (image.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return img, nil
}

// Encode writes the image as PNG. PNG is lossless, so the quality factor is
// ignored and the encoder always runs at best compression.
func (PNGCodec) Encode(w io.Writer, img image.Image, _ int) error {
	slog.Debug("PNGCodec: encoding",
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func init() {
	if err := DefaultRegistry.Register(PNGCodec{}); err != nil {
		panic(fmt.Sprintf("failed to register png codec: %v", err))
	}
}
