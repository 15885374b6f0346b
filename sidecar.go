package bnk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecordingInfo is the JSON document the recorder serves for a stored
// measurement. The device session client downloads it next to the WAV file
// as a same-named .json sidecar.
type RecordingInfo struct {
	URI  string `json:"uri"`
	Size int64  `json:"size"`
	// Duration of the recording in milliseconds.
	Duration int64          `json:"duration"`
	Setup    RecordingSetup `json:"setup"`
}

// RecordingSetup holds the channel settings a recording was made with.
type RecordingSetup struct {
	Name string `json:"name"`
	// DateTime is the recording start in Unix milliseconds.
	DateTime int64             `json:"datetime"`
	Channels []ChannelSettings `json:"channels"`
}

// ChannelSettings mirrors one input channel's configuration on the device.
type ChannelSettings struct {
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name"`
	Bandwidth string `json:"bandwidth"`
	Filter    string `json:"filter"`
	Range     string `json:"range"`
	// CCLD reports whether constant-current transducer power is on.
	CCLD       bool               `json:"ccld"`
	Transducer TransducerSettings `json:"transducer"`
}

// TransducerSettings describes the transducer attached to a channel.
type TransducerSettings struct {
	Sensitivity  float64        `json:"sensitivity"`
	Unit         string         `json:"unit"`
	SerialNumber string         `json:"serialNumber"`
	Type         TransducerType `json:"type"`
}

// TransducerType identifies a transducer model.
type TransducerType struct {
	Number string `json:"number"`
}

// sidecarPath returns the companion settings path for a recording file:
// the same name with a .json extension.
func sidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}

// ReadSidecar loads the companion settings document next to a recording
// file. A missing sidecar is not an error; it yields (nil, nil).
func ReadSidecar(path string) (*RecordingInfo, error) {
	data, err := os.ReadFile(sidecarPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	info := &RecordingInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar: %w", err)
	}

	return info, nil
}
