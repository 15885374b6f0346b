package bnk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
)

// testMetaSize stands in for the 32716-byte vendor region of real files;
// decoding only relies on the declared size, not on a specific value.
const testMetaSize = 64

type testChannelCal struct {
	transducer  string
	sensitivity string
	scale       string
}

type testTrailer struct {
	version  string
	date     string
	channels []testChannelCal
	unit     string
	label    string
	setup    string
}

func defaultTestTrailer(numChans int) testTrailer {
	tt := testTrailer{
		version: "2.10",
		date:    "2021-03-09T04:11:27",
		unit:    "Pa",
		label:   "Label: Ambient noise survey. Recording date/time is in UTC.",
	}

	units := make([]string, numChans)
	names := make([]string, numChans)

	for i := 0; i < numChans; i++ {
		tt.channels = append(tt.channels, testChannelCal{
			transducer:  fmt.Sprintf("4189-A-021 sn 3012%d", i),
			sensitivity: fmt.Sprintf("%g", 0.045+float64(i)/100),
			scale:       fmt.Sprintf("%g", 3.16+float64(i)),
		})
		units[i] = "Pa"
		names[i] = fmt.Sprintf("Microphone %d", i+1)
	}

	tt.setup = buildSetupText(units, names)

	return tt
}

func buildSetupText(units, names []string) string {
	var b strings.Builder

	b.WriteString("[Setup]\nVersion=2\n")

	for i := range units {
		fmt.Fprintf(&b, "[Channel %d]\nFilter=7.0 Hz\nUnit=%s\nName=%s\n",
			i+1, units[i], names[i])
	}

	b.WriteString("[Recording]\nMode=Continuous\n")

	return b.String()
}

// buildTrailerBlob lays the tokens out with the skip positions the recorder
// uses: five filler tokens after each sensitivity, three after each scale,
// and one between the label and the setup block.
func buildTrailerBlob(tt testTrailer) []byte {
	tokens := []string{tt.version, tt.date}

	for _, ch := range tt.channels {
		tokens = append(tokens, ch.transducer, ch.sensitivity)
		tokens = append(tokens, "50m", "0", "0", "1", "22.4")
		tokens = append(tokens, ch.scale, "0", "1", "Direct")
	}

	tokens = append(tokens, tt.unit, tt.label, "0", tt.setup)

	var body bytes.Buffer
	for _, tok := range tokens {
		body.WriteString(tok)
		body.WriteByte(0)
	}

	var blob bytes.Buffer
	blob.WriteString("BKmd")
	binary.Write(&blob, binary.LittleEndian, uint32(body.Len()))
	blob.Write(body.Bytes())

	return blob.Bytes()
}

// buildRecorderFile assembles a synthetic recorder container: RIFF/WAVE
// header, fmt chunk, vendor skip region, 16-bit PCM payload and an optional
// trailer blob after it.
func buildRecorderFile(tb testing.TB, channelFrames [][]int16, sampleRate int, trailer []byte) []byte {
	tb.Helper()

	numChans := len(channelFrames)
	if numChans == 0 {
		tb.Fatal("buildRecorderFile needs at least one channel")
	}

	frames := len(channelFrames[0])
	for ch := range channelFrames {
		if len(channelFrames[ch]) != frames {
			tb.Fatal("buildRecorderFile needs equal-length channels")
		}
	}

	blockAlign := numChans * 2
	dataSize := frames * blockAlign

	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // patched below
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChans))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("BKhd")
	binary.Write(&buf, binary.LittleEndian, uint32(testMetaSize))
	buf.Write(make([]byte, testMetaSize))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))

	for f := 0; f < frames; f++ {
		for ch := 0; ch < numChans; ch++ {
			binary.Write(&buf, binary.LittleEndian, channelFrames[ch][f])
		}
	}

	buf.Write(trailer)

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return out
}

func assertFloat64SlicesClose(tb testing.TB, got, want []float64, tolerance float64) {
	tb.Helper()

	if len(got) != len(want) {
		tb.Fatalf("expected %d samples, got %d", len(want), len(got))
	}

	for i := range want {
		diff := got[i] - want[i]
		if diff < -tolerance || diff > tolerance {
			tb.Fatalf("sample %d: expected %g, got %g", i, want[i], got[i])
		}
	}
}
