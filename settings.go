package bnk

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidSettingString is returned for names that could corrupt the
	// device configuration. The allowed set is conservative because the
	// recorder's own rules are not documented.
	ErrInvalidSettingString = errors.New("setting strings may only contain a-z, A-Z, 0-9, '-', '_', ' ' and '.'")
	// ErrUnsupportedSampleRate is returned for rates the recorder cannot
	// produce.
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
	// ErrNoSuchChannel is returned for channel numbers outside the setup.
	ErrNoSuchChannel = errors.New("no such channel")
)

var settingStringRe = regexp.MustCompile(`^[a-zA-Z0-9\-_ .]*$`)

// bandwidthBySampleRate maps the recorder's sample rates to the bandwidth
// strings its REST interface expects.
var bandwidthBySampleRate = map[int]string{
	131072: "51.2 kHz",
	65536:  "25.6 kHz",
	32768:  "12.8 kHz",
	16384:  "6.4 kHz",
	8192:   "3.2 kHz",
	4096:   "1.6 kHz",
}

// ChannelFilters lists the input filters the recorder accepts.
var ChannelFilters = []string{
	"DC", "0.1 Hz 10%", "0.7 Hz", "1.0 Hz 10%", "7.0 Hz", "22.4 Hz", "Intensity",
}

// ChannelRanges lists the input voltage ranges the recorder accepts.
var ChannelRanges = []string{"10 Vpeak", "31.6 Vpeak"}

// ChannelConfig carries the caller-facing parameters for configuring one
// input channel ahead of a recording.
type ChannelConfig struct {
	Name   string
	Filter string
	Range  string
	// Sensitivity of the attached transducer, in Unit per volt.
	Sensitivity float64
	Unit        string
	// Powered turns on CCLD transducer power.
	Powered        bool
	SerialNumber   string
	TransducerType string
}

func checkSettingString(s string) error {
	if !settingStringRe.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidSettingString, s)
	}

	return nil
}

// SetName sets the label for the next recording.
func (s *RecordingSetup) SetName(name string) error {
	if err := checkSettingString(name); err != nil {
		return err
	}

	s.Name = name

	return nil
}

// EnableChannel enables the 1-based channel for the next recording.
func (s *RecordingSetup) EnableChannel(channel int) error {
	return s.setEnabled(channel, true)
}

// DisableChannel disables the 1-based channel for the next recording.
func (s *RecordingSetup) DisableChannel(channel int) error {
	return s.setEnabled(channel, false)
}

// DisableAll disables every channel for the next recording.
func (s *RecordingSetup) DisableAll() {
	for i := range s.Channels {
		s.Channels[i].Enabled = false
	}
}

func (s *RecordingSetup) setEnabled(channel int, enabled bool) error {
	if channel < 1 || channel > len(s.Channels) {
		return fmt.Errorf("%w: %d", ErrNoSuchChannel, channel)
	}

	s.Channels[channel-1].Enabled = enabled

	return nil
}

// SetSampleRate sets the bandwidth of every channel to match the requested
// sample rate. The recorder supports 4096 to 131072 samples per second in
// powers of two.
func (s *RecordingSetup) SetSampleRate(rate int) error {
	bandwidth, ok := bandwidthBySampleRate[rate]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedSampleRate, rate)
	}

	for i := range s.Channels {
		s.Channels[i].Bandwidth = bandwidth
	}

	return nil
}

// SetChannel configures and enables the 1-based channel. Zero-value config
// fields fall back to the recorder defaults ("Channel N", 7.0 Hz filter,
// 10 Vpeak range, 1 V/V transducer).
func (s *RecordingSetup) SetChannel(channel int, cfg ChannelConfig) error {
	if channel < 1 || channel > len(s.Channels) {
		return fmt.Errorf("%w: %d", ErrNoSuchChannel, channel)
	}

	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("Channel %d", channel)
	}

	if cfg.Filter == "" {
		cfg.Filter = "7.0 Hz"
	}

	if cfg.Range == "" {
		cfg.Range = "10 Vpeak"
	}

	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = 1
	}

	if cfg.Unit == "" {
		cfg.Unit = "V"
	}

	if cfg.SerialNumber == "" {
		cfg.SerialNumber = "0"
	}

	if cfg.TransducerType == "" {
		cfg.TransducerType = "None"
	}

	if !containsString(ChannelFilters, cfg.Filter) {
		return fmt.Errorf("channel filter must be one of %v, got %q", ChannelFilters, cfg.Filter)
	}

	if !containsString(ChannelRanges, cfg.Range) {
		return fmt.Errorf("channel range must be one of %v, got %q", ChannelRanges, cfg.Range)
	}

	for _, field := range []string{cfg.Name, cfg.Unit, cfg.SerialNumber, cfg.TransducerType} {
		if err := checkSettingString(field); err != nil {
			return err
		}
	}

	ch := &s.Channels[channel-1]
	ch.Enabled = true
	ch.Name = cfg.Name
	ch.Filter = cfg.Filter
	ch.Range = cfg.Range
	ch.CCLD = cfg.Powered
	ch.Transducer.Sensitivity = cfg.Sensitivity
	ch.Transducer.Unit = cfg.Unit
	ch.Transducer.SerialNumber = cfg.SerialNumber
	ch.Transducer.Type.Number = cfg.TransducerType

	return nil
}

func containsString(list []string, s string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}

	return false
}
