// This tool prints the header, calibration metadata and companion settings
// of a LAN-XI recorder file, plus its RIFF chunk inventory.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-audio/riff"

	"github.com/uwasystemhealth/bnk"
)

const missingPathMessage = "You must pass the path of the recording to inspect"

var errMissingPath = errors.New("missing path argument")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errMissingPath
	}

	path := args[0]

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	dec := bnk.NewDecoder(file)
	if err := dec.ReadMetadata(); err != nil {
		return err
	}

	printHeader(out, dec.Header)
	printTrailer(out, dec.Trailer)

	settings, err := bnk.ReadSidecar(path)
	if err != nil {
		return err
	}

	printSettings(out, settings)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	printChunks(out, file)

	return nil
}

func printHeader(out io.Writer, h *bnk.Header) {
	fmt.Fprintf(out, "Container: %s/%s\n", h.ChunkID[:], h.Format[:])
	fmt.Fprintf(out, "Channels: %d\n", h.NumChannels)
	fmt.Fprintf(out, "SampleRate: %d Hz\n", h.SampleRate)
	fmt.Fprintf(out, "BitsPerSample: %d\n", h.BitsPerSample)
	fmt.Fprintf(out, "PayloadBytes: %d\n", h.Subchunk2Size)
	fmt.Fprintf(out, "VendorMetaSkip: %d bytes (%s)\n", h.MetaSize, h.MetaID[:])
}

func printTrailer(out io.Writer, t *bnk.Trailer) {
	if t == nil {
		fmt.Fprintln(out, "No calibration metadata present")
		return
	}

	fmt.Fprintf(out, "Recorded: %s\n", t.Date)
	fmt.Fprintf(out, "Label: %s\n", t.Label)
	fmt.Fprintf(out, "Unit: %s\n", t.UnitName)

	for i, cal := range t.Channels {
		fmt.Fprintf(out, "Channel %d: %s (%s)\n", i+1, cal.Name, cal.Transducer)
		fmt.Fprintf(out, "\tscale %g, sensitivity %g, unit %s\n",
			cal.Scale, cal.Sensitivity, cal.Unit)
	}
}

func printSettings(out io.Writer, info *bnk.RecordingInfo) {
	if info == nil {
		fmt.Fprintln(out, "No companion settings present")
		return
	}

	fmt.Fprintf(out, "Settings: %s (%d ms, %d bytes)\n",
		info.Setup.Name, info.Duration, info.Size)

	for i, ch := range info.Setup.Channels {
		if !ch.Enabled {
			continue
		}

		fmt.Fprintf(out, "\tchannel %d: %s, %s filter, %s, %gV/%s\n",
			i+1, ch.Name, ch.Filter, ch.Range,
			ch.Transducer.Sensitivity, ch.Transducer.Unit)
	}
}

func printChunks(out io.Writer, file io.Reader) {
	parser := riff.New(file)
	if err := parser.ParseHeaders(); err != nil {
		fmt.Fprintf(out, "Chunks: unreadable (%v)\n", err)
		return
	}

	fmt.Fprintln(out, "Chunks:")

	for {
		chunk, err := parser.NextChunk()
		if err != nil {
			break
		}

		fmt.Fprintf(out, "\t%s (%d bytes)\n", chunk.ID[:], chunk.Size)
		chunk.Drain()
	}
}
