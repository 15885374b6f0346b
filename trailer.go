package bnk

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedMetadata is returned when the calibration trailer is
	// present but a field fails to parse, or the positional walk runs past
	// the end of the token list. The wrapped message names the field and,
	// where applicable, the channel index.
	ErrMalformedMetadata = errors.New("malformed calibration trailer")
	// ErrChannelSectionNotFound is returned when the setup block lacks a
	// [Channel N] section for a channel announced by the header.
	ErrChannelSectionNotFound = errors.New("channel section not found in setup block")
)

// The trailer layout is not a published format. The prologue length and the
// token skip counts below were inferred by inspecting Type 3050 recorder
// output; they hold across every observed file but have no documented
// meaning. Any mismatch is a hard failure, never silently recovered.
const (
	// trailerPrologueLen is the byte count of the vendor chunk header that
	// precedes the NUL-separated token stream.
	trailerPrologueLen = 8
	// sensitivitySkipTokens tokens follow each channel's sensitivity value
	// before its scale factor.
	sensitivitySkipTokens = 5
	// scaleSkipTokens tokens follow each channel's scale factor before the
	// next channel's transducer id.
	scaleSkipTokens = 3
	// labelSkipTokens tokens separate the label from the setup text block.
	labelSkipTokens = 1
)

// labelBoilerplate is appended verbatim by the recorder to every label.
const labelBoilerplate = ". Recording date/time is in UTC."

// ChannelCalibration carries the per-channel data needed to convert raw
// samples to physical units. Unit and Name come from the setup block and
// override anything implied by the positional fields.
type ChannelCalibration struct {
	// Scale converts normalized samples to physical units. It already
	// incorporates the transducer sensitivity.
	Scale       float64
	Sensitivity float64
	Transducer  string
	Unit        string
	Name        string
}

// Trailer holds the decoded vendor trailer. A nil *Trailer means the file
// carried no trailer at all, which is a valid state distinct from a
// malformed one.
type Trailer struct {
	// Version is the first token of the trailer. Its meaning is unknown;
	// it has been observed fixed at "2.10" and is kept opaque.
	Version  string
	Date     string
	UnitName string
	Label    string
	Channels []ChannelCalibration
	// Setup is the raw free-text configuration block.
	Setup string
}

// tokenWalker steps through the NUL-separated trailer tokens positionally.
// Walking past the end surfaces as ErrMalformedMetadata naming the field
// that was being read, so a channel-count mismatch between header and
// trailer is reported rather than silently truncated.
type tokenWalker struct {
	tokens []string
	pos    int
}

func (w *tokenWalker) next(field string, channel int) (string, error) {
	if w.pos >= len(w.tokens) {
		if channel >= 0 {
			return "", fmt.Errorf("%w: channel %d: no %s token at position %d",
				ErrMalformedMetadata, channel, field, w.pos)
		}

		return "", fmt.Errorf("%w: no %s token at position %d",
			ErrMalformedMetadata, field, w.pos)
	}

	tok := w.tokens[w.pos]
	w.pos++

	return tok, nil
}

func (w *tokenWalker) nextFloat(field string, channel int) (float64, error) {
	tok, err := w.next(field, channel)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: channel %d: %s token %q is not a number",
			ErrMalformedMetadata, channel, field, tok)
	}

	return value, nil
}

func (w *tokenWalker) skip(count int) {
	w.pos += count
}

// splitTrailerTokens splits the trailer blob on the NUL delimiter and drops
// empty tokens. The prologue bytes ahead of the token stream are not text
// and are excluded before splitting.
func splitTrailerTokens(blob []byte) []string {
	if len(blob) <= trailerPrologueLen {
		return nil
	}

	parts := bytes.Split(blob[trailerPrologueLen:], []byte{0})
	tokens := make([]string, 0, len(parts))

	for _, part := range parts {
		if len(part) == 0 {
			continue
		}

		tokens = append(tokens, string(part))
	}

	return tokens
}

// decodeTrailer walks the trailer tokens positionally, governed by the
// header channel count, and resolves per-channel units and names from the
// setup block.
func decodeTrailer(blob []byte, numChannels int) (*Trailer, error) {
	walker := &tokenWalker{tokens: splitTrailerTokens(blob)}

	t := &Trailer{Channels: make([]ChannelCalibration, numChannels)}

	var err error

	if t.Version, err = walker.next("version", -1); err != nil {
		return nil, err
	}

	if t.Date, err = walker.next("timestamp", -1); err != nil {
		return nil, err
	}

	for ch := 0; ch < numChannels; ch++ {
		cal := &t.Channels[ch]

		if cal.Transducer, err = walker.next("transducer", ch); err != nil {
			return nil, err
		}

		if cal.Sensitivity, err = walker.nextFloat("sensitivity", ch); err != nil {
			return nil, err
		}

		walker.skip(sensitivitySkipTokens)

		if cal.Scale, err = walker.nextFloat("scale", ch); err != nil {
			return nil, err
		}

		walker.skip(scaleSkipTokens)
	}

	if t.UnitName, err = walker.next("unit name", -1); err != nil {
		return nil, err
	}

	rawLabel, err := walker.next("label", -1)
	if err != nil {
		return nil, err
	}

	if t.Label, err = decodeLabel(rawLabel); err != nil {
		return nil, err
	}

	walker.skip(labelSkipTokens)

	if t.Setup, err = walker.next("setup block", -1); err != nil {
		return nil, err
	}

	sections, err := parseSetupBlock(t.Setup, numChannels)
	if err != nil {
		return nil, err
	}

	for ch := range t.Channels {
		t.Channels[ch].Unit = sections[ch].unit
		t.Channels[ch].Name = sections[ch].name
	}

	return t, nil
}

// decodeLabel strips the tag prefix and the recorder's boilerplate suffix
// from the raw label token. The tag ends at the first colon; exactly one
// separator character follows it.
func decodeLabel(raw string) (string, error) {
	_, rest, found := strings.Cut(raw, ":")
	if !found {
		return "", fmt.Errorf("%w: label token %q has no tag separator",
			ErrMalformedMetadata, raw)
	}

	if len(rest) > 0 {
		rest = rest[1:]
	}

	return strings.Replace(rest, labelBoilerplate, "", 1), nil
}
