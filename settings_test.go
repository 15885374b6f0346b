package bnk

import (
	"errors"
	"testing"
)

func testSetup(numChannels int) *RecordingSetup {
	s := &RecordingSetup{Name: "Default"}
	for i := 0; i < numChannels; i++ {
		s.Channels = append(s.Channels, ChannelSettings{
			Enabled:   true,
			Bandwidth: "51.2 kHz",
		})
	}

	return s
}

func TestSetSampleRate(t *testing.T) {
	testCases := []struct {
		rate      int
		bandwidth string
	}{
		{131072, "51.2 kHz"},
		{65536, "25.6 kHz"},
		{32768, "12.8 kHz"},
		{16384, "6.4 kHz"},
		{8192, "3.2 kHz"},
		{4096, "1.6 kHz"},
	}

	for _, tc := range testCases {
		s := testSetup(2)
		if err := s.SetSampleRate(tc.rate); err != nil {
			t.Fatal(err)
		}

		for i, ch := range s.Channels {
			if ch.Bandwidth != tc.bandwidth {
				t.Fatalf("rate %d: channel %d bandwidth %q, expected %q",
					tc.rate, i, ch.Bandwidth, tc.bandwidth)
			}
		}
	}
}

func TestSetSampleRateUnsupported(t *testing.T) {
	s := testSetup(1)

	err := s.SetSampleRate(44100)
	if !errors.Is(err, ErrUnsupportedSampleRate) {
		t.Fatalf("expected ErrUnsupportedSampleRate, got %v", err)
	}
}

func TestSetChannelDefaults(t *testing.T) {
	s := testSetup(3)

	if err := s.SetChannel(2, ChannelConfig{}); err != nil {
		t.Fatal(err)
	}

	ch := s.Channels[1]
	if !ch.Enabled {
		t.Fatal("expected channel to be enabled")
	}

	if ch.Name != "Channel 2" || ch.Filter != "7.0 Hz" || ch.Range != "10 Vpeak" {
		t.Fatalf("unexpected defaults: %+v", ch)
	}

	if ch.Transducer.Sensitivity != 1 || ch.Transducer.Unit != "V" {
		t.Fatalf("unexpected transducer defaults: %+v", ch.Transducer)
	}
}

func TestSetChannelValidation(t *testing.T) {
	s := testSetup(2)

	if err := s.SetChannel(5, ChannelConfig{}); !errors.Is(err, ErrNoSuchChannel) {
		t.Fatalf("expected ErrNoSuchChannel, got %v", err)
	}

	if err := s.SetChannel(1, ChannelConfig{Filter: "9.9 Hz"}); err == nil {
		t.Fatal("expected an error for an unknown filter")
	}

	if err := s.SetChannel(1, ChannelConfig{Range: "1 Vpeak"}); err == nil {
		t.Fatal("expected an error for an unknown range")
	}

	err := s.SetChannel(1, ChannelConfig{Name: "bad;name"})
	if !errors.Is(err, ErrInvalidSettingString) {
		t.Fatalf("expected ErrInvalidSettingString, got %v", err)
	}
}

func TestEnableDisableChannels(t *testing.T) {
	s := testSetup(3)

	if err := s.DisableChannel(2); err != nil {
		t.Fatal(err)
	}

	if s.Channels[1].Enabled {
		t.Fatal("expected channel 2 to be disabled")
	}

	if err := s.EnableChannel(2); err != nil {
		t.Fatal(err)
	}

	if !s.Channels[1].Enabled {
		t.Fatal("expected channel 2 to be enabled")
	}

	if err := s.DisableChannel(0); !errors.Is(err, ErrNoSuchChannel) {
		t.Fatalf("expected ErrNoSuchChannel, got %v", err)
	}

	s.DisableAll()

	for i, ch := range s.Channels {
		if ch.Enabled {
			t.Fatalf("expected channel %d to be disabled", i+1)
		}
	}
}

func TestSetName(t *testing.T) {
	s := testSetup(1)

	if err := s.SetName("Bench run 12.3"); err != nil {
		t.Fatal(err)
	}

	if s.Name != "Bench run 12.3" {
		t.Fatalf("unexpected name: %q", s.Name)
	}

	if err := s.SetName("no/slashes"); !errors.Is(err, ErrInvalidSettingString) {
		t.Fatalf("expected ErrInvalidSettingString, got %v", err)
	}
}
