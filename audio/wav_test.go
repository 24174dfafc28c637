package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
	"time"
)

// sineWavePCM generates 16-bit mono PCM of the given duration.
func sineWavePCM(sampleRate int, seconds float64, freq float64) []byte {
	numSamples := int(float64(sampleRate) * seconds)
	pcm := make([]byte, numSamples*2)
	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		sample := int16(16383.0 * math.Sin(2*math.Pi*freq*t))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return pcm
}

func TestEncodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		sample *RawSample
	}{
		{
			name:   "default mono 24kHz",
			sample: DefaultSample(sineWavePCM(24000, 0.1, 440)),
		},
		{
			name: "mono 44.1kHz",
			sample: &RawSample{
				PCM:           sineWavePCM(44100, 0.05, 440),
				SampleRate:    44100,
				Channels:      1,
				BitsPerSample: 16,
			},
		},
		{
			name: "8-bit 8kHz",
			sample: &RawSample{
				PCM:           []byte{0, 64, 128, 192, 255},
				SampleRate:    8000,
				Channels:      1,
				BitsPerSample: 8,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := Encode(tc.sample)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if enc.MimeType != "audio/wav" {
				t.Errorf("expected mime type audio/wav, got %s", enc.MimeType)
			}
			if len(enc.Bytes) != 44+len(tc.sample.PCM) {
				t.Errorf("expected %d bytes, got %d", 44+len(tc.sample.PCM), len(enc.Bytes))
			}

			decoded, err := Decode(enc.Bytes)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(decoded.PCM, tc.sample.PCM) {
				t.Error("decoded PCM does not match original")
			}
			if decoded.SampleRate != tc.sample.SampleRate {
				t.Errorf("expected sample rate %d, got %d", tc.sample.SampleRate, decoded.SampleRate)
			}
			if decoded.Channels != tc.sample.Channels {
				t.Errorf("expected %d channels, got %d", tc.sample.Channels, decoded.Channels)
			}
			if decoded.BitsPerSample != tc.sample.BitsPerSample {
				t.Errorf("expected %d bits per sample, got %d", tc.sample.BitsPerSample, decoded.BitsPerSample)
			}
		})
	}
}

func TestEncodeTwoSecondsOfSilence(t *testing.T) {
	// 2s of mono 24kHz 16-bit silence: 96000 PCM bytes, 44-byte header.
	pcm := make([]byte, 2*24000*2)
	enc, err := Encode(DefaultSample(pcm))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(enc.Bytes) != 44+96000 {
		t.Fatalf("expected %d bytes, got %d", 44+96000, len(enc.Bytes))
	}

	// Sample-rate field sits at offset 24 in the header.
	if rate := binary.LittleEndian.Uint32(enc.Bytes[24:28]); rate != 24000 {
		t.Errorf("expected sample rate field 24000, got %d", rate)
	}
	// RIFF chunk size must be the file size minus 8.
	if size := binary.LittleEndian.Uint32(enc.Bytes[4:8]); int(size) != len(enc.Bytes)-8 {
		t.Errorf("RIFF chunk size %d does not match file size %d", size, len(enc.Bytes))
	}
	// Data chunk size must equal the PCM byte count exactly.
	if size := binary.LittleEndian.Uint32(enc.Bytes[40:44]); size != 96000 {
		t.Errorf("data chunk size %d, want 96000", size)
	}
}

func TestEncodeHeaderFields(t *testing.T) {
	sample := &RawSample{
		PCM:           make([]byte, 400), // 100 stereo 16-bit frames
		SampleRate:    16000,
		Channels:      2,
		BitsPerSample: 16,
	}
	enc, err := Encode(sample)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	h := enc.Bytes
	if string(h[0:4]) != "RIFF" || string(h[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if format := binary.LittleEndian.Uint16(h[20:22]); format != 1 {
		t.Errorf("audio format %d, want 1 (PCM)", format)
	}
	if channels := binary.LittleEndian.Uint16(h[22:24]); channels != 2 {
		t.Errorf("channels %d, want 2", channels)
	}
	if byteRate := binary.LittleEndian.Uint32(h[28:32]); byteRate != 16000*2*2 {
		t.Errorf("byte rate %d, want %d", byteRate, 16000*2*2)
	}
	if blockAlign := binary.LittleEndian.Uint16(h[32:34]); blockAlign != 4 {
		t.Errorf("block align %d, want 4", blockAlign)
	}
}

func TestEncodeRejectsMisalignedPCM(t *testing.T) {
	// 3 bytes cannot hold whole 16-bit mono frames.
	sample := DefaultSample([]byte{1, 2, 3})
	if _, err := Encode(sample); err == nil {
		t.Fatal("expected error for misaligned pcm buffer")
	} else if !strings.Contains(err.Error(), "not aligned") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEncodeRejectsInvalidParams(t *testing.T) {
	cases := []struct {
		name   string
		sample *RawSample
	}{
		{"empty pcm", DefaultSample(nil)},
		{"zero rate", &RawSample{PCM: []byte{0, 0}, SampleRate: 0, Channels: 1, BitsPerSample: 16}},
		{"zero channels", &RawSample{PCM: []byte{0, 0}, SampleRate: 24000, Channels: 0, BitsPerSample: 16}},
		{"odd bit depth", &RawSample{PCM: []byte{0, 0}, SampleRate: 24000, Channels: 1, BitsPerSample: 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Encode(tc.sample); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	enc, err := Encode(DefaultSample(make([]byte, 200)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := Decode(enc.Bytes[:30]); err == nil {
		t.Error("expected error for truncated header")
	}
	if _, err := Decode(enc.Bytes[:len(enc.Bytes)-10]); err == nil {
		t.Error("expected error for truncated data section")
	}
}

func TestDuration(t *testing.T) {
	enc, err := Encode(DefaultSample(make([]byte, 2*24000*2)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	d, err := Duration(enc.Bytes)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
}

func TestDataURI(t *testing.T) {
	enc, err := Encode(DefaultSample([]byte{0, 0, 1, 0}))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	uri := enc.DataURI()
	if !strings.HasPrefix(uri, "data:audio/wav;base64,") {
		t.Errorf("unexpected data URI prefix: %s", uri[:30])
	}
}
