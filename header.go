package bnk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncatedHeader is returned when the input ends before all fixed
// header fields could be read. No partial header is returned in that case.
var ErrTruncatedHeader = errors.New("truncated container header")

const (
	// headerPrefixLen covers the RIFF/WAVE/fmt fields plus the vendor
	// metadata pseudo-chunk id and its declared size.
	headerPrefixLen = 44
	// headerTailLen covers the data chunk id and size that follow the
	// vendor metadata region.
	headerTailLen = 8
)

// Header holds the fixed-layout fields at the start of a recorder file.
//
// The layout is standard RIFF/WAVE up to BitsPerSample. The recorder then
// inserts a vendor pseudo-chunk (MetaID/MetaSize) ahead of the data chunk.
// MetaSize is the number of bytes to skip, not the size of the calibration
// metadata; it has been observed fixed at 32716 but is always read from the
// file rather than assumed.
type Header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	MetaID        [4]byte
	MetaSize      uint32
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// MetaEnd returns the offset of the first byte after the vendor metadata
// skip region.
func (h *Header) MetaEnd() int64 {
	return headerPrefixLen + int64(h.MetaSize)
}

// PayloadEnd returns the offset of the first byte after the audio payload.
// The calibration trailer, if present, starts here.
func (h *Header) PayloadEnd() int64 {
	return h.MetaEnd() + headerTailLen + int64(h.Subchunk2Size)
}

// decodeHeader reads the fixed header fields from r, which must be
// positioned at the start of the file. The vendor metadata region is
// seeked over, never materialized.
func decodeHeader(r io.ReadSeeker) (*Header, error) {
	var prefix [headerPrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	h := &Header{}
	copy(h.ChunkID[:], prefix[0:4])
	h.ChunkSize = binary.LittleEndian.Uint32(prefix[4:8])
	copy(h.Format[:], prefix[8:12])
	copy(h.Subchunk1ID[:], prefix[12:16])
	h.Subchunk1Size = binary.LittleEndian.Uint32(prefix[16:20])
	h.AudioFormat = binary.LittleEndian.Uint16(prefix[20:22])
	h.NumChannels = binary.LittleEndian.Uint16(prefix[22:24])
	h.SampleRate = binary.LittleEndian.Uint32(prefix[24:28])
	h.ByteRate = binary.LittleEndian.Uint32(prefix[28:32])
	h.BlockAlign = binary.LittleEndian.Uint16(prefix[32:34])
	h.BitsPerSample = binary.LittleEndian.Uint16(prefix[34:36])
	copy(h.MetaID[:], prefix[36:40])
	h.MetaSize = binary.LittleEndian.Uint32(prefix[40:44])

	if _, err := r.Seek(int64(h.MetaSize), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("failed to seek over vendor metadata region: %w", err)
	}

	var tail [headerTailLen]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	copy(h.Subchunk2ID[:], tail[0:4])
	h.Subchunk2Size = binary.LittleEndian.Uint32(tail[4:8])

	return h, nil
}
