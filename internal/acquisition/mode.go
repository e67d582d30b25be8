package acquisition

import "fmt"

// Mode selects the feature programming sequence and the interaction loop.
type Mode int

// Acquisition modes.
const (
	ModeFixedRate Mode = iota
	ModeSoftwareTriggerPolled
	ModeSoftwareTriggerKeyboard
	ModeExposure
)

var modeNames = map[Mode]string{
	ModeFixedRate:               "fixed",
	ModeSoftwareTriggerPolled:   "trigger",
	ModeSoftwareTriggerKeyboard: "trigger_keyboard",
	ModeExposure:                "exposure",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IsTrigger reports whether frames start on software triggers.
func (m Mode) IsTrigger() bool {
	return m == ModeSoftwareTriggerPolled || m == ModeSoftwareTriggerKeyboard
}

// ParseMode resolves a CLI mode name.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want fixed, trigger, trigger_keyboard or exposure)", name)
}
