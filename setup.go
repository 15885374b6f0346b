package bnk

import (
	"fmt"
	"strings"
)

// channelSetup is the per-channel slice of the free-text setup block.
type channelSetup struct {
	unit string
	name string
}

// parseSetupBlock extracts the [Channel N] sections (1-based) from the
// setup text. Sections must appear in channel order; each one runs from
// just after its marker up to the next '[' or, for the final section, the
// end of the text.
func parseSetupBlock(setup string, numChannels int) ([]channelSetup, error) {
	sections := make([]channelSetup, numChannels)
	rest := setup

	for ch := 0; ch < numChannels; ch++ {
		marker := fmt.Sprintf("[Channel %d]", ch+1)

		start := strings.Index(rest, marker)
		if start < 0 {
			return nil, fmt.Errorf("%w: %s", ErrChannelSectionNotFound, marker)
		}

		rest = rest[start+len(marker):]

		section := rest
		if stop := strings.IndexByte(rest, '['); stop >= 0 {
			section = rest[:stop]
		}

		unit, err := sectionLineValue(section, "Unit=", ch)
		if err != nil {
			return nil, err
		}

		name, err := sectionNameValue(section, ch)
		if err != nil {
			return nil, err
		}

		sections[ch] = channelSetup{unit: unit, name: name}
	}

	return sections, nil
}

// sectionLineValue returns the text between the key and the next newline
// (or the end of the section).
func sectionLineValue(section, key string, channel int) (string, error) {
	_, rest, found := strings.Cut(section, key)
	if !found {
		return "", fmt.Errorf("%w: channel %d: setup section has no %q entry",
			ErrMalformedMetadata, channel, strings.TrimSuffix(key, "="))
	}

	if stop := strings.IndexByte(rest, '\n'); stop >= 0 {
		rest = rest[:stop]
	}

	return rest, nil
}

// sectionNameValue returns the text after "Name=" up to the end of the
// section, with the trailing newline (and anything after it) trimmed. The
// name is the last entry of a channel section and may itself contain '='.
func sectionNameValue(section string, channel int) (string, error) {
	_, rest, found := strings.Cut(section, "Name=")
	if !found {
		return "", fmt.Errorf("%w: channel %d: setup section has no \"Name\" entry",
			ErrMalformedMetadata, channel)
	}

	if stop := strings.LastIndexByte(rest, '\n'); stop >= 0 {
		rest = rest[:stop]
	}

	return rest, nil
}
