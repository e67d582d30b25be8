package acquisition

import (
	"errors"
	"testing"
)

func TestROIValidate(t *testing.T) {
	tests := []struct {
		name    string
		roi     ROI
		wantErr bool
	}{
		{"quarter preset", ROI{Width: 2064, Height: 1504, OffsetX: 1040, OffsetY: 752}, false},
		{"full sensor", ROI{Width: 4128, Height: 3008}, false},
		{"too wide", ROI{Width: 4200, Height: 3008}, true},
		{"offset pushes past edge", ROI{Width: 4128, Height: 3008, OffsetX: 1}, true},
		{"too tall", ROI{Width: 100, Height: 2000, OffsetY: 1009}, true},
		{"negative offset", ROI{Width: 100, Height: 100, OffsetX: -1}, true},
		{"empty", ROI{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.roi.Validate(DefaultSensor)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%s) error = %v, wantErr %v", tt.roi, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrROI) {
				t.Errorf("error %v does not wrap ErrROI", err)
			}
		})
	}
}

func TestParseROI(t *testing.T) {
	tests := []struct {
		in      string
		want    ROI
		wantErr bool
	}{
		{"", ROI{Width: 4128, Height: 3008}, false},
		{"full", ROI{Width: 4128, Height: 3008}, false},
		{"1/4", ROI{Width: 2064, Height: 1504, OffsetX: 1040, OffsetY: 752}, false},
		{"1/16", ROI{Width: 1032, Height: 752, OffsetX: 1552, OffsetY: 1128}, false},
		{"640, 480, 8, 16", ROI{Width: 640, Height: 480, OffsetX: 8, OffsetY: 16}, false},
		{"4200,3008,0,0", ROI{}, true},
		{"640,480", ROI{}, true},
		{"a,b,c,d", ROI{}, true},
		{"1/9", ROI{}, true},
	}
	for _, tt := range tests {
		got, err := ParseROI(tt.in, DefaultSensor)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseROI(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseROI(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseROIFullFollowsSensor(t *testing.T) {
	got, err := ParseROI("full", testSensor)
	if err != nil {
		t.Fatalf("ParseROI: %v", err)
	}
	if got != (ROI{Width: 64, Height: 48}) {
		t.Errorf("full on small sensor = %s", got)
	}
	if _, err := ParseROI("1/4", testSensor); err == nil {
		t.Error("1/4 preset should not fit a 64x48 sensor")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeFixedRate, ModeSoftwareTriggerPolled, ModeSoftwareTriggerKeyboard, ModeExposure} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("burst"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if !ModeSoftwareTriggerKeyboard.IsTrigger() || ModeExposure.IsTrigger() {
		t.Error("IsTrigger misclassifies modes")
	}
}
