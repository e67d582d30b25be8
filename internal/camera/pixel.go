package camera

import "fmt"

// PixelFormat identifies the memory layout of a frame buffer.
type PixelFormat string

// Supported pixel formats. Mono10 and Mono12 are unpacked into 16-bit little-endian words.
const (
	PixelFormatMono8    PixelFormat = "Mono8"
	PixelFormatMono10   PixelFormat = "Mono10"
	PixelFormatMono12   PixelFormat = "Mono12"
	PixelFormatBayerRG8 PixelFormat = "BayerRG8"
	PixelFormatBayerBG8 PixelFormat = "BayerBG8"
	PixelFormatBayerGR8 PixelFormat = "BayerGR8"
	PixelFormatBayerGB8 PixelFormat = "BayerGB8"
	PixelFormatRGB8     PixelFormat = "RGB8"
	PixelFormatBGR8     PixelFormat = "BGR8"
)

// PixelFormats lists every format the node can store and convert.
var PixelFormats = []PixelFormat{
	PixelFormatMono8, PixelFormatMono10, PixelFormatMono12,
	PixelFormatBayerRG8, PixelFormatBayerBG8, PixelFormatBayerGR8, PixelFormatBayerGB8,
	PixelFormatRGB8, PixelFormatBGR8,
}

// BytesPerPixel returns the storage size of one pixel, or 0 for unknown formats.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case PixelFormatMono8, PixelFormatBayerRG8, PixelFormatBayerBG8, PixelFormatBayerGR8, PixelFormatBayerGB8:
		return 1
	case PixelFormatMono10, PixelFormatMono12:
		return 2
	case PixelFormatRGB8, PixelFormatBGR8:
		return 3
	default:
		return 0
	}
}

// IsBayer reports whether the format is a single-channel colour filter array.
func (p PixelFormat) IsBayer() bool {
	switch p {
	case PixelFormatBayerRG8, PixelFormatBayerBG8, PixelFormatBayerGR8, PixelFormatBayerGB8:
		return true
	}
	return false
}

// PayloadSize returns width*height*BytesPerPixel.
func (p PixelFormat) PayloadSize(width, height int) int {
	return width * height * p.BytesPerPixel()
}

// ParsePixelFormat resolves a format name.
func ParsePixelFormat(name string) (PixelFormat, error) {
	for _, pf := range PixelFormats {
		if string(pf) == name {
			return pf, nil
		}
	}
	return "", fmt.Errorf("unknown pixel format %q", name)
}
