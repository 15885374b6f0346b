package bnk

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

var (
	// ErrChannelCountMismatch is returned when the PCM payload disagrees
	// with the fixed header about the number of channels.
	ErrChannelCountMismatch = errors.New("channel count mismatch")
	// ErrNoCalibration is returned when scaled samples are requested from
	// a recording whose trailer is absent.
	ErrNoCalibration = errors.New("recording has no calibration trailer")

	errInvalidSampleRange = errors.New("invalid sample range")
)

// pcmReadFrames bounds the per-read PCM window so memory use tracks the
// requested sample range rather than the file size.
const pcmReadFrames = 4096

// Decoder extracts the fixed header, the vendor calibration trailer and
// calibrated sample data from a recorder file.
//
// PCM decoding itself is delegated to the wav codec library; the Decoder
// only reads the fixed header fields, locates and parses the trailer, and
// applies the per-channel scale factors.
type Decoder struct {
	r io.ReadSeeker

	// Header is populated by ReadHeader (or any method that needs it).
	Header *Header
	// Trailer is populated by ReadMetadata. It stays nil when the file
	// carries no trailer, which is not an error.
	Trailer *Trailer

	metadataRead bool
}

// NewDecoder creates a decoder for the passed recorder file reader.
func NewDecoder(r io.ReadSeeker) *Decoder {
	return &Decoder{r: r}
}

// ReadHeader parses the fixed header fields. It is safe to call multiple
// times.
func (d *Decoder) ReadHeader() error {
	if d.Header != nil {
		return nil
	}

	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start of file: %w", err)
	}

	h, err := decodeHeader(d.r)
	if err != nil {
		return err
	}

	d.Header = h

	return nil
}

// ReadMetadata parses the fixed header and the calibration trailer. A file
// without a trailer leaves Trailer nil; a malformed trailer is an error.
// It is safe to call multiple times.
func (d *Decoder) ReadMetadata() error {
	if d.metadataRead {
		return nil
	}

	if err := d.ReadHeader(); err != nil {
		return err
	}

	blob, err := d.readTrailerBlob()
	if err != nil {
		return err
	}

	if len(blob) == 0 {
		d.metadataRead = true

		return nil
	}

	trailer, err := decodeTrailer(blob, int(d.Header.NumChannels))
	if err != nil {
		return err
	}

	d.Trailer = trailer
	d.metadataRead = true

	return nil
}

// readTrailerBlob reads everything after the audio payload in one pass.
// The payload itself is never materialized here.
func (d *Decoder) readTrailerBlob() ([]byte, error) {
	if _, err := d.r.Seek(d.Header.PayloadEnd(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to end of payload: %w", err)
	}

	blob, err := io.ReadAll(d.r)
	if err != nil {
		return nil, fmt.Errorf("failed to read trailer: %w", err)
	}

	return blob, nil
}

// Calibration returns the per-channel calibration table, or nil when the
// file carries no trailer. Call ReadMetadata first.
func (d *Decoder) Calibration() []ChannelCalibration {
	if d == nil || d.Trailer == nil {
		return nil
	}

	return d.Trailer.Channels
}

// Frames returns the number of sample frames per channel announced by the
// header.
func (d *Decoder) Frames() int {
	if d == nil || d.Header == nil || d.Header.BlockAlign == 0 {
		return 0
	}

	return int(d.Header.Subchunk2Size) / int(d.Header.BlockAlign)
}

// Samples decodes the frame range [start, stop) and returns one normalized
// float64 sequence per channel, in header channel order. A negative stop
// selects everything through the end of the payload. The read is windowed,
// so memory use scales with the requested range.
func (d *Decoder) Samples(start, stop int) ([][]float64, error) {
	if err := d.ReadHeader(); err != nil {
		return nil, err
	}

	totalFrames := d.Frames()
	if stop < 0 || stop > totalFrames {
		stop = totalFrames
	}

	if start < 0 || start > stop {
		return nil, fmt.Errorf("%w: [%d, %d)", errInvalidSampleRange, start, stop)
	}

	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to start of file: %w", err)
	}

	codec := wav.NewDecoder(d.r)

	codec.ReadInfo()
	if err := codec.Err(); err != nil {
		return nil, fmt.Errorf("codec failed to read payload info: %w", err)
	}

	numChans := int(codec.NumChans)
	if numChans != int(d.Header.NumChannels) {
		return nil, fmt.Errorf("%w: codec reports %d channels, header announces %d",
			ErrChannelCountMismatch, numChans, d.Header.NumChannels)
	}

	out := make([][]float64, numChans)
	for ch := range out {
		out[ch] = make([]float64, 0, stop-start)
	}

	buf := &audio.Float32Buffer{
		Data:   make([]float32, pcmReadFrames*numChans),
		Format: codec.Format(),
	}

	frame := 0
	for frame < stop {
		n, err := codec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("codec failed to decode PCM window: %w", err)
		}

		if n == 0 {
			break
		}

		frames := n / numChans
		for f := 0; f < frames && frame < stop; f++ {
			if frame >= start {
				for ch := 0; ch < numChans; ch++ {
					out[ch] = append(out[ch], float64(buf.Data[f*numChans+ch]))
				}
			}

			frame++
		}
	}

	return out, nil
}

// ScaledSamples decodes the frame range [start, stop) and multiplies each
// channel by its calibration scale factor, yielding physical-unit series.
// It fails with ErrNoCalibration when the file has no trailer.
func (d *Decoder) ScaledSamples(start, stop int) ([][]float64, error) {
	if err := d.ReadMetadata(); err != nil {
		return nil, err
	}

	if d.Trailer == nil {
		return nil, ErrNoCalibration
	}

	samples, err := d.Samples(start, stop)
	if err != nil {
		return nil, err
	}

	if err := ApplyCalibration(samples, d.Trailer.Channels); err != nil {
		return nil, err
	}

	return samples, nil
}
