package persist

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/smazurov/camnode/internal/camera"
)

// ToRGBA converts a payload into an opaque 8-bit image of the frame's size.
func ToRGBA(width, height int, pf camera.PixelFormat, payload []byte) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	bpp := pf.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported pixel format %q", pf)
	}
	if want := pf.PayloadSize(width, height); len(payload) < want {
		return nil, fmt.Errorf("payload is %d bytes, %s %dx%d needs %d", len(payload), pf, width, height, want)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	switch {
	case pf.IsBayer():
		demosaic(img, pf, payload)
	case pf == camera.PixelFormatMono8:
		for i := range width * height {
			setGray(img, i, payload[i])
		}
	case pf == camera.PixelFormatMono10 || pf == camera.PixelFormatMono12:
		shift := 2
		if pf == camera.PixelFormatMono12 {
			shift = 4
		}
		for i := range width * height {
			v := binary.LittleEndian.Uint16(payload[2*i:])
			setGray(img, i, byte(v>>shift))
		}
	case pf == camera.PixelFormatRGB8 || pf == camera.PixelFormatBGR8:
		r, b := 0, 2
		if pf == camera.PixelFormatBGR8 {
			r, b = 2, 0
		}
		for i := range width * height {
			px := payload[3*i : 3*i+3]
			o := 4 * i
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = px[r], px[1], px[b], 0xff
		}
	default:
		return nil, fmt.Errorf("unsupported pixel format %q", pf)
	}
	return img, nil
}

func setGray(img *image.RGBA, i int, v byte) {
	o := 4 * i
	img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = v, v, v, 0xff
}

// bayerOffsets returns the positions of R and B inside a 2x2 cell as x+2*y.
func bayerOffsets(pf camera.PixelFormat) (r, b int) {
	switch pf {
	case camera.PixelFormatBayerBG8:
		return 3, 0
	case camera.PixelFormatBayerGR8:
		return 1, 2
	case camera.PixelFormatBayerGB8:
		return 2, 1
	default: // BayerRG8
		return 0, 3
	}
}

// demosaic fills every 2x2 cell with the cell's R, mean G and B.
// Odd trailing rows and columns reuse the last complete cell.
func demosaic(img *image.RGBA, pf camera.PixelFormat, payload []byte) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	rOff, bOff := bayerOffsets(pf)

	at := func(x, y int) byte {
		x = min(x, width-1)
		y = min(y, height-1)
		return payload[y*width+x]
	}

	for cy := 0; cy < height; cy += 2 {
		for cx := 0; cx < width; cx += 2 {
			var cell [4]byte
			for k := range cell {
				cell[k] = at(cx+k%2, cy+k/2)
			}
			var g int
			for k := range cell {
				if k != rOff && k != bOff {
					g += int(cell[k])
				}
			}
			r, gv, b := cell[rOff], byte(g/2), cell[bOff]

			for dy := 0; dy < 2 && cy+dy < height; dy++ {
				for dx := 0; dx < 2 && cx+dx < width; dx++ {
					o := img.PixOffset(cx+dx, cy+dy)
					img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = r, gv, b, 0xff
				}
			}
		}
	}
}
