package persist

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"time"

	"golang.org/x/image/tiff"

	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/logging"
)

// Frame is the input to Store.Save. Payload is not retained.
type Frame struct {
	Sequence    uint64
	Width       int
	Height      int
	PixelFormat camera.PixelFormat
	Payload     []byte
}

// Artifact describes a written file.
type Artifact struct {
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Store writes frames into one output directory.
type Store struct {
	dir    string
	format Format
	png    png.Encoder
	logger logging.Logger
}

// NewStore creates dir if needed and returns a store writing the given format.
func NewStore(dir string, format Format) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		format: format,
		png:    png.Encoder{CompressionLevel: png.BestSpeed},
		logger: logging.GetLogger("persist"),
	}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Format returns the artifact format.
func (s *Store) Format() Format { return s.format }

// Save writes one artifact named after f.Sequence.
func (s *Store) Save(f Frame) (Artifact, error) {
	start := time.Now()
	path := ArtifactPath(s.dir, f.Sequence, s.format)

	data, err := s.encode(f)
	if err != nil {
		return Artifact{Path: path}, fmt.Errorf("encode frame %d: %w", f.Sequence, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{Path: path}, fmt.Errorf("write %s: %w", path, err)
	}

	a := Artifact{Path: path, Bytes: int64(len(data)), Duration: time.Since(start)}
	s.logger.Debug("Artifact written", "path", path, "bytes", a.Bytes, "duration", a.Duration)
	return a, nil
}

func (s *Store) encode(f Frame) ([]byte, error) {
	if s.format == FormatRaw {
		size := f.PixelFormat.PayloadSize(f.Width, f.Height)
		if size == 0 {
			return nil, fmt.Errorf("unsupported pixel format %q", f.PixelFormat)
		}
		if len(f.Payload) < size {
			return nil, fmt.Errorf("payload is %d bytes, want %d", len(f.Payload), size)
		}
		return f.Payload[:size], nil
	}

	img, err := ToRGBA(f.Width, f.Height, f.PixelFormat, f.Payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch s.format {
	case FormatPNG:
		err = s.png.Encode(&buf, img)
	case FormatTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("unknown artifact format %q", s.format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
