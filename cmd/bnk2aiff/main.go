// This tool converts a LAN-XI recorder file into a plain AIFF file in the
// same folder, so ordinary audio software can open it. Calibration metadata
// is not carried over; samples stay in their normalized PCM form.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

var flagPath = flag.String("path", "", "The path to the recorder file to convert to aiff")

func main() {
	flag.Parse()

	if *flagPath == "" {
		fmt.Println("You must set the -path flag")
		os.Exit(1)
	}

	if err := run(*flagPath); err != nil {
		log.Fatal(err)
	}
}

func run(sourcePath string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", sourcePath, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return fmt.Errorf("%s is not a valid recorder file", sourcePath)
	}

	outPath := sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))] + ".aif"

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer outFile.Close()

	bitDepth := int(decoder.BitDepth)
	encoder := aiff.NewEncoder(outFile, int(decoder.SampleRate), bitDepth, int(decoder.NumChans))

	format := &audio.Format{
		NumChannels: int(decoder.NumChans),
		SampleRate:  int(decoder.SampleRate),
	}

	buf := &audio.Float32Buffer{Data: make([]float32, 65536), Format: format}

	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("failed to decode PCM window: %w", err)
		}

		if n == 0 {
			break
		}

		if err := encoder.Write(intBuffer(buf.Data[:n], format, bitDepth)); err != nil {
			return fmt.Errorf("failed to write aiff frames: %w", err)
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", outPath, err)
	}

	fmt.Printf("Recording converted to %s\n", outPath)

	return nil
}

func intBuffer(data []float32, format *audio.Format, bitDepth int) *audio.IntBuffer {
	out := &audio.IntBuffer{
		Format:         format,
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(data)),
	}

	for i, v := range data {
		out.Data[i] = pcmInt(v, bitDepth)
	}

	return out
}

func pcmInt(value float32, bitDepth int) int {
	if value < -1 {
		value = -1
	} else if value > 1 {
		value = 1
	}

	var scale, max float64

	switch bitDepth {
	case 8:
		// AIFF 8-bit samples are signed, unlike WAV.
		scale, max = 128.0, 127
	case 16:
		scale, max = 32768.0, 32767
	case 24:
		scale, max = 8388608.0, 8388607
	case 32:
		scale, max = 2147483648.0, 2147483647
	default:
		return 0
	}

	scaled := math.Round(float64(value) * scale)
	if scaled > max {
		scaled = max
	}

	if scaled < -scale {
		scaled = -scale
	}

	return int(scaled)
}
