package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Defaults match what the speech model produces: mono 16-bit PCM at 24kHz.
const (
	DefaultSampleRate    = 24000
	DefaultChannels      = 1
	DefaultBitsPerSample = 16
)

// MimeType is the media type advertised for encoded audio.
const MimeType = "audio/wav"

// ErrNotSampleAligned is returned when the PCM byte count is not a whole
// multiple of the frame size (channels * bits/8).
var ErrNotSampleAligned = errors.New("pcm data not aligned to sample frames")

// RawSample is an uncontainered linear-PCM buffer as returned by the
// speech model.
type RawSample struct {
	PCM           []byte
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultSample wraps raw PCM bytes with the default format parameters.
func DefaultSample(pcm []byte) *RawSample {
	return &RawSample{
		PCM:           pcm,
		SampleRate:    DefaultSampleRate,
		Channels:      DefaultChannels,
		BitsPerSample: DefaultBitsPerSample,
	}
}

// Encoded is a self-contained playable audio file.
type Encoded struct {
	Bytes    []byte
	MimeType string
}

// DataURI returns the encoded audio as a base64 data URI for clients that
// feed it straight into an <audio> element.
func (e *Encoded) DataURI() string {
	return "data:" + e.MimeType + ";base64," + base64.StdEncoding.EncodeToString(e.Bytes)
}

// wavHeader is the 44-byte RIFF/WAVE header, all fields little-endian.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // byte length of the PCM data
}

const headerSize = 44

// Encode wraps a raw PCM buffer in a WAV container. The PCM bytes are
// written unmodified after the header, so the declared sizes always match
// the actual byte counts.
func Encode(s *RawSample) (*Encoded, error) {
	if len(s.PCM) == 0 {
		return nil, fmt.Errorf("cannot encode empty pcm buffer")
	}
	if s.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", s.SampleRate)
	}
	if s.Channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", s.Channels)
	}
	if s.BitsPerSample <= 0 || s.BitsPerSample%8 != 0 {
		return nil, fmt.Errorf("bits per sample must be a positive multiple of 8, got %d", s.BitsPerSample)
	}

	blockAlign := s.Channels * s.BitsPerSample / 8
	if len(s.PCM)%blockAlign != 0 {
		return nil, fmt.Errorf("%w: %d bytes with frame size %d", ErrNotSampleAligned, len(s.PCM), blockAlign)
	}

	dataSize := uint32(len(s.PCM))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     headerSize - 8 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(s.Channels),
		SampleRate:    uint32(s.SampleRate),
		ByteRate:      uint32(s.SampleRate) * uint32(blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(s.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(s.PCM)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(s.PCM)

	return &Encoded{Bytes: buf.Bytes(), MimeType: MimeType}, nil
}

// Decode parses a WAV container produced by Encode back into its raw PCM
// sample buffer and format parameters.
func Decode(data []byte) (*RawSample, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", headerSize, len(data))
	}

	var header wavHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(header.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}
	if header.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}

	if int(header.Subchunk2Size) != len(data)-headerSize {
		return nil, fmt.Errorf("data size mismatch: header declares %d bytes, file carries %d",
			header.Subchunk2Size, len(data)-headerSize)
	}

	pcm := make([]byte, header.Subchunk2Size)
	copy(pcm, data[headerSize:])

	return &RawSample{
		PCM:           pcm,
		SampleRate:    int(header.SampleRate),
		Channels:      int(header.NumChannels),
		BitsPerSample: int(header.BitsPerSample),
	}, nil
}

// Duration computes the playback length of an encoded WAV file.
func Duration(data []byte) (time.Duration, error) {
	s, err := Decode(data)
	if err != nil {
		return 0, err
	}
	frameSize := s.Channels * s.BitsPerSample / 8
	frames := len(s.PCM) / frameSize
	return time.Duration(frames) * time.Second / time.Duration(s.SampleRate), nil
}
