package codec

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Sniff detects the MIME type of the given content from its leading bytes.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// DecodeAny decodes image bytes in any supported input format and reports the
// detected format name. SVG input is rasterized; raster input is decoded via
// the registered stdlib and x/image decoders. Content that is not a supported
// image yields ErrUnsupportedFormat.
func DecodeAny(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty input: %w", ErrUnsupportedFormat)
	}

	if IsSVG(data) {
		img, err := RasterizeSVG(data, 0, 0)
		if err != nil {
			return nil, "", fmt.Errorf("failed to rasterize svg: %w", err)
		}
		return img, "svg", nil
	}

	mime := Sniff(data)
	slog.Debug("DecodeAny: sniffed input", "mime", mime, "size_bytes", len(data))

	if !strings.HasPrefix(mime, "image/") {
		return nil, "", fmt.Errorf("content type %s is not an image: %w", mime, ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s content: %w", mime, ErrUnsupportedFormat)
	}

	// Normalize format names
	if format == "jpg" {
		format = "jpeg"
	}

	slog.Debug("DecodeAny: decoded image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	return img, format, nil
}
