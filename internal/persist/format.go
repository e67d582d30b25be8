package persist

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects how a frame is written.
type Format string

// Artifact formats.
const (
	FormatRaw  Format = "raw"
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	return string(f)
}

// Processed reports whether the format requires pixel conversion.
func (f Format) Processed() bool {
	return f != FormatRaw
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatRaw:
		return FormatRaw, nil
	case FormatPNG, "":
		return FormatPNG, nil
	case FormatTIFF, "tif":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unknown artifact format %q (want raw, png or tiff)", name)
	}
}

// ArtifactName returns frame_<seq zero-padded to 6 digits>.<ext>.
func ArtifactName(seq uint64, f Format) string {
	return fmt.Sprintf("frame_%06d.%s", seq, f.Extension())
}

// ArtifactPath joins dir and ArtifactName.
func ArtifactPath(dir string, seq uint64, f Format) string {
	return filepath.Join(dir, ArtifactName(seq, f))
}
