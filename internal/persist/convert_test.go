package persist

import (
	"encoding/binary"
	"testing"

	"github.com/smazurov/camnode/internal/camera"
)

func pixel(t *testing.T, pix []byte, i int) [4]byte {
	t.Helper()
	return [4]byte{pix[4*i], pix[4*i+1], pix[4*i+2], pix[4*i+3]}
}

func TestToRGBAMono(t *testing.T) {
	img, err := ToRGBA(2, 1, camera.PixelFormatMono8, []byte{10, 200})
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	if got := pixel(t, img.Pix, 1); got != [4]byte{200, 200, 200, 255} {
		t.Errorf("mono8 pixel = %v", got)
	}

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:], 0x0FFF)
	binary.LittleEndian.PutUint16(payload[2:], 0x0100)
	img, err = ToRGBA(2, 1, camera.PixelFormatMono12, payload)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	if got := img.Pix[0]; got != 0xFF {
		t.Errorf("mono12 max = %#x, want 0xff", got)
	}
	if got := img.Pix[4]; got != 0x10 {
		t.Errorf("mono12 0x100 = %#x, want 0x10", got)
	}
}

func TestToRGBAColourOrder(t *testing.T) {
	img, err := ToRGBA(1, 1, camera.PixelFormatBGR8, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	if got := pixel(t, img.Pix, 0); got != [4]byte{3, 2, 1, 255} {
		t.Errorf("BGR8 pixel = %v, want [3 2 1 255]", got)
	}

	img, _ = ToRGBA(1, 1, camera.PixelFormatRGB8, []byte{1, 2, 3})
	if got := pixel(t, img.Pix, 0); got != [4]byte{1, 2, 3, 255} {
		t.Errorf("RGB8 pixel = %v, want [1 2 3 255]", got)
	}
}

func TestToRGBABayer(t *testing.T) {
	// One RGGB cell: R=100, G=40 and 60, B=200.
	payload := []byte{
		100, 40,
		60, 200,
	}
	img, err := ToRGBA(2, 2, camera.PixelFormatBayerRG8, payload)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	for i := range 4 {
		if got := pixel(t, img.Pix, i); got != [4]byte{100, 50, 200, 255} {
			t.Errorf("pixel %d = %v, want [100 50 200 255]", i, got)
		}
	}

	// Same bytes read as BGGR swap red and blue.
	img, _ = ToRGBA(2, 2, camera.PixelFormatBayerBG8, payload)
	if got := pixel(t, img.Pix, 0); got != [4]byte{200, 50, 100, 255} {
		t.Errorf("BGGR pixel = %v, want [200 50 100 255]", got)
	}
}

func TestToRGBAOddSize(t *testing.T) {
	payload := make([]byte, 3*3)
	img, err := ToRGBA(3, 3, camera.PixelFormatBayerGR8, payload)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	if img.Rect.Dx() != 3 || img.Rect.Dy() != 3 {
		t.Errorf("size = %v", img.Rect)
	}
	if got := pixel(t, img.Pix, 8); got[3] != 255 {
		t.Errorf("corner pixel not filled: %v", got)
	}
}

func TestToRGBAErrors(t *testing.T) {
	if _, err := ToRGBA(4, 4, camera.PixelFormatMono8, make([]byte, 15)); err == nil {
		t.Error("expected error for short payload")
	}
	if _, err := ToRGBA(0, 4, camera.PixelFormatMono8, nil); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := ToRGBA(1, 1, camera.PixelFormat("YUV422"), []byte{0, 0}); err == nil {
		t.Error("expected error for unknown format")
	}
}
