package bnk

import "fmt"

// ApplyCalibration multiplies every sample of channel i by the scale factor
// of calibration entry i, in place. The scale factor already incorporates
// the transducer sensitivity, so no further conversion applies.
func ApplyCalibration(channels [][]float64, calibration []ChannelCalibration) error {
	if len(channels) != len(calibration) {
		return fmt.Errorf("%w: %d sample channels, %d calibration entries",
			ErrChannelCountMismatch, len(channels), len(calibration))
	}

	for ch := range channels {
		scale := calibration[ch].Scale
		for i := range channels[ch] {
			channels[ch][i] *= scale
		}
	}

	return nil
}
