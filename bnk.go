package bnk

import (
	"fmt"
	"os"
)

// Recording is the fully decoded content of a recorder file.
type Recording struct {
	Header Header
	// Trailer is nil when the file carries no calibration metadata.
	Trailer *Trailer
	// Data holds one series per channel, in header channel order. When the
	// trailer is present the series are scaled to physical units; without
	// calibration they stay as normalized PCM values.
	Data [][]float64
	// Settings is the companion sidecar document, nil when absent.
	Settings *RecordingInfo
}

// Open decodes an entire recorder file: header, calibration trailer,
// calibrated sample data and the companion sidecar document.
func Open(path string) (*Recording, error) {
	return OpenRange(path, 0, -1)
}

// OpenRange decodes the frame range [start, stop) of a recorder file. A
// negative stop selects everything through the end of the payload.
func OpenRange(path string, start, stop int) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	d := NewDecoder(file)
	if err := d.ReadMetadata(); err != nil {
		return nil, err
	}

	rec := &Recording{Header: *d.Header, Trailer: d.Trailer}

	if d.Trailer != nil {
		rec.Data, err = d.ScaledSamples(start, stop)
	} else {
		rec.Data, err = d.Samples(start, stop)
	}

	if err != nil {
		return nil, err
	}

	rec.Settings, err = ReadSidecar(path)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// DecodeHeader reads only the fixed header of a recorder file.
func DecodeHeader(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	d := NewDecoder(file)
	if err := d.ReadHeader(); err != nil {
		return nil, err
	}

	return d.Header, nil
}
