package acquisition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/camnode/internal/camera"
)

// Sensor is the full pixel array of the camera.
type Sensor struct {
	Width  int
	Height int
}

// DefaultSensor is the Alvium 1800 U-1242 array.
var DefaultSensor = Sensor{Width: camera.DefaultSensorWidth, Height: camera.DefaultSensorHeight}

// ROI is the captured sub-rectangle of the sensor.
type ROI struct {
	Width   int `json:"width" toml:"width"`
	Height  int `json:"height" toml:"height"`
	OffsetX int `json:"offset_x" toml:"offset_x"`
	OffsetY int `json:"offset_y" toml:"offset_y"`
}

func (r ROI) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.OffsetX, r.OffsetY)
}

// IsZero reports whether no region was chosen.
func (r ROI) IsZero() bool {
	return r == ROI{}
}

// Full returns the whole-sensor region.
func (s Sensor) Full() ROI {
	return ROI{Width: s.Width, Height: s.Height}
}

// Validate checks the region fits inside the sensor.
func (r ROI) Validate(s Sensor) error {
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: %s has an empty size", ErrROI, r)
	case r.OffsetX < 0 || r.OffsetY < 0:
		return fmt.Errorf("%w: %s has a negative offset", ErrROI, r)
	case r.OffsetX+r.Width > s.Width:
		return fmt.Errorf("%w: offset_x+width = %d exceeds sensor width %d", ErrROI, r.OffsetX+r.Width, s.Width)
	case r.OffsetY+r.Height > s.Height:
		return fmt.Errorf("%w: offset_y+height = %d exceeds sensor height %d", ErrROI, r.OffsetY+r.Height, s.Height)
	}
	return nil
}

// ROI presets for the default sensor.
var roiPresets = map[string]ROI{
	"full": {Width: 4128, Height: 3008, OffsetX: 0, OffsetY: 0},
	"1/4":  {Width: 2064, Height: 1504, OffsetX: 1040, OffsetY: 752},
	"1/16": {Width: 1032, Height: 752, OffsetX: 1552, OffsetY: 1128},
}

// PresetNames lists the accepted preset names.
func PresetNames() []string {
	return []string{"full", "1/4", "1/16"}
}

// ParseROI accepts a preset name or "width,height,offsetX,offsetY" and
// validates the result against s. An empty string selects the full sensor.
func ParseROI(spec string, s Sensor) (ROI, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return s.Full(), nil
	}

	if r, ok := roiPresets[spec]; ok {
		if spec == "full" {
			r = s.Full()
		}
		return r, r.Validate(s)
	}

	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return ROI{}, fmt.Errorf("invalid ROI %q: use width,height,offsetX,offsetY or one of %s",
			spec, strings.Join(PresetNames(), ", "))
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return ROI{}, fmt.Errorf("invalid ROI %q: %w", spec, err)
		}
		v[i] = n
	}
	r := ROI{Width: v[0], Height: v[1], OffsetX: v[2], OffsetY: v[3]}
	return r, r.Validate(s)
}
