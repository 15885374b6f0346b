// Package bnk decodes WAV files produced by Brüel & Kjær LAN-XI
// stand-alone recorders (Type 3050 with the Notar recording license).
//
// The recorder writes a standard RIFF/WAVE header, inserts a fixed-size
// vendor pseudo-chunk ahead of the data chunk, and appends an undocumented
// trailer after the audio payload. The trailer carries per-channel
// calibration (scale factor, sensitivity, transducer id) and a free-text
// setup block with per-channel units and names. This package parses the
// fixed header, extracts and decodes the trailer, and applies the scale
// factors to produce physical-unit time series:
//
//	rec, err := bnk.Open("measurement.wav")
//
// PCM sample decoding is delegated to github.com/cwbudde/wav; this package
// never re-implements payload framing. The companion device session client
// lives in the device subpackage.
package bnk
