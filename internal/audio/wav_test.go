package audio

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0, 0.25}

	data, err := EncodeWAV(samples, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("EncodeWAV() returned empty payload")
	}
	if string(data[:4]) != "RIFF" {
		t.Errorf("payload does not start with RIFF header, got %q", data[:4])
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding encoded wav: %v", err)
	}
	if len(buf.Data) != len(samples) {
		t.Errorf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	if got := dec.SampleRate; got != 16000 {
		t.Errorf("SampleRate = %d, want 16000", got)
	}
	if got := dec.NumChans; got != 1 {
		t.Errorf("NumChans = %d, want 1", got)
	}
}

func TestEncodeWAVClampsOutOfRange(t *testing.T) {
	data, err := EncodeWAV([]float32{2.0, -2.0}, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding encoded wav: %v", err)
	}
	if buf.Data[0] != 32767 {
		t.Errorf("clipped positive sample = %d, want 32767", buf.Data[0])
	}
	if buf.Data[1] != -32767 {
		t.Errorf("clipped negative sample = %d, want -32767", buf.Data[1])
	}
}

func TestClampSample(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{0.5, 0.5},
		{1.5, 1.0},
		{-1.5, -1.0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := clampSample(tt.in); got != tt.want {
			t.Errorf("clampSample(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
