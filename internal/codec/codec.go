package codec

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
)

// ErrUnsupportedFormat is returned when input bytes cannot be decoded as a
// supported image format, or when an unknown target format is requested.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Codec encodes and decodes a single image format. Quality is a 0-100 factor;
// lossless codecs are free to ignore it.
type Codec interface {
	Format() string
	Decode(r io.Reader) (image.Image, error)
	Encode(w io.Writer, img image.Image, quality int) error
}

// Registry manages the set of available codecs by format name.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Codec),
	}
}

// Register adds a codec to the registry under its format name.
func (r *Registry) Register(c Codec) error {
	if c == nil {
		return fmt.Errorf("codec cannot be nil")
	}
	name := c.Format()
	if name == "" {
		return fmt.Errorf("codec format name cannot be empty")
	}
	if _, exists := r.codecs[name]; exists {
		return fmt.Errorf("codec %s is already registered", name)
	}
	r.codecs[name] = c
	return nil
}

// Lookup returns the codec registered for the given format name.
func (r *Registry) Lookup(format string) (Codec, error) {
	c, exists := r.codecs[format]
	if !exists {
		return nil, fmt.Errorf("no codec for format %q: %w", format, ErrUnsupportedFormat)
	}
	return c, nil
}

// IsRegistered checks if a codec for the given format is registered.
func (r *Registry) IsRegistered(format string) bool {
	_, exists := r.codecs[format]
	return exists
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is a global registry instance with the built-in codecs
// pre-registered.
var DefaultRegistry = NewRegistry()
