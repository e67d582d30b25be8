package camera

// Feature names issued by the acquisition core.
const (
	FeatureAcquisitionMode            = "AcquisitionMode"
	FeatureAcquisitionFrameRateEnable = "AcquisitionFrameRateEnable"
	FeatureAcquisitionFrameRate       = "AcquisitionFrameRate"
	FeatureTriggerSelector            = "TriggerSelector"
	FeatureTriggerMode                = "TriggerMode"
	FeatureTriggerSource              = "TriggerSource"
	FeatureTriggerSoftware            = "TriggerSoftware"
	FeatureExposureMode               = "ExposureMode"
	FeatureExposureAuto               = "ExposureAuto"
	FeatureExposureTime               = "ExposureTime"
	FeatureGainAuto                   = "GainAuto"
	FeatureGain                       = "Gain"
	FeatureGammaEnable                = "GammaEnable"
	FeatureWidth                      = "Width"
	FeatureHeight                     = "Height"
	FeatureOffsetX                    = "OffsetX"
	FeatureOffsetY                    = "OffsetY"
	FeaturePixelFormat                = "PixelFormat"
	FeatureSensorWidth                = "SensorWidth"
	FeatureSensorHeight               = "SensorHeight"
	FeatureGVSPAdjustPacketSize       = "GVSPAdjustPacketSize"
)

// Enum entries.
const (
	AcquisitionModeContinuous = "Continuous"
	AcquisitionModeSingle     = "SingleFrame"

	TriggerSelectorFrameStart       = "FrameStart"
	TriggerSelectorAcquisitionStart = "AcquisitionStart"

	TriggerModeOff = "Off"
	TriggerModeOn  = "On"

	TriggerSourceSoftware = "Software"
	TriggerSourceLine0    = "Line0"

	ExposureModeTimed = "Timed"

	AutoOff        = "Off"
	AutoOnce       = "Once"
	AutoContinuous = "Continuous"
)

// Sensor geometry of the Alvium 1242 the node was built for.
const (
	DefaultSensorWidth  = 4128
	DefaultSensorHeight = 3008
)
