package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the length of the header written by Encode.
const HeaderSize = 44

const pcmFormatTag = 1

// Format describes the PCM sample layout.
type Format struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
}

// DefaultFormat matches the speech service output: 24 kHz, mono, 16-bit.
var DefaultFormat = Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

// BlockAlign is the size in bytes of one frame across all channels.
func (f Format) BlockAlign() uint16 {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate is the number of PCM bytes per second of audio.
func (f Format) ByteRate() uint32 {
	return f.SampleRate * uint32(f.Channels) * uint32(f.BitsPerSample) / 8
}

// Validate reports whether the format can be written.
func (f Format) Validate() error {
	switch {
	case f.SampleRate == 0:
		return errors.New("wav: sample rate must be positive")
	case f.Channels == 0:
		return errors.New("wav: channel count must be positive")
	case f.BitsPerSample == 0 || f.BitsPerSample%8 != 0:
		return fmt.Errorf("wav: unsupported bits per sample %d", f.BitsPerSample)
	}
	return nil
}

// Encode returns a WAV container holding pcm. The PCM bytes are copied after
// the header without modification.
func Encode(pcm []byte, f Format) []byte {
	out := make([]byte, HeaderSize+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], pcmFormatTag)
	le.PutUint16(out[22:24], f.Channels)
	le.PutUint32(out[24:28], f.SampleRate)
	le.PutUint32(out[28:32], f.ByteRate())
	le.PutUint16(out[32:34], f.BlockAlign())
	le.PutUint16(out[34:36], f.BitsPerSample)
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[HeaderSize:], pcm)
	return out
}

// Header is the decoded form of a container written by Encode.
type Header struct {
	Format   Format
	DataSize uint32
}

// Duration returns the playback length in seconds.
func (h Header) Duration() float64 {
	rate := h.Format.ByteRate()
	if rate == 0 {
		return 0
	}
	return float64(h.DataSize) / float64(rate)
}

var ErrInvalidHeader = errors.New("wav: invalid header")

// ParseHeader validates the 44-byte header at the start of data. It only
// accepts the layout Encode produces and checks that the declared sizes
// match the buffer length.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	le := binary.LittleEndian
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrInvalidHeader)
	}
	if string(data[12:16]) != "fmt " || le.Uint32(data[16:20]) != 16 {
		return Header{}, fmt.Errorf("%w: unexpected fmt chunk", ErrInvalidHeader)
	}
	if le.Uint16(data[20:22]) != pcmFormatTag {
		return Header{}, fmt.Errorf("%w: format tag %d is not PCM", ErrInvalidHeader, le.Uint16(data[20:22]))
	}
	if string(data[36:40]) != "data" {
		return Header{}, fmt.Errorf("%w: missing data chunk", ErrInvalidHeader)
	}
	h := Header{
		Format: Format{
			Channels:      le.Uint16(data[22:24]),
			SampleRate:    le.Uint32(data[24:28]),
			BitsPerSample: le.Uint16(data[34:36]),
		},
		DataSize: le.Uint32(data[40:44]),
	}
	if err := h.Format.Validate(); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if le.Uint32(data[4:8]) != 36+h.DataSize {
		return Header{}, fmt.Errorf("%w: chunk size mismatch", ErrInvalidHeader)
	}
	if uint64(len(data)-HeaderSize) != uint64(h.DataSize) {
		return Header{}, fmt.Errorf("%w: data size %d does not match payload %d", ErrInvalidHeader, h.DataSize, len(data)-HeaderSize)
	}
	if le.Uint32(data[28:32]) != h.Format.ByteRate() || le.Uint16(data[32:34]) != h.Format.BlockAlign() {
		return Header{}, fmt.Errorf("%w: byte rate or block align mismatch", ErrInvalidHeader)
	}
	return h, nil
}
