package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV converts captured float32 samples to a 16-bit PCM WAV
// payload for upload. The wav encoder needs a seekable writer, so the
// file is staged in the OS temp dir and read back.
func EncodeWAV(samples []float32, sampleRate, channels uint32) ([]byte, error) {
	f, err := os.CreateTemp("", "scottwisper-*.wav")
	if err != nil {
		return nil, fmt.Errorf("audio: creating temp wav: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	enc := wav.NewEncoder(f, int(sampleRate), 16, int(channels), 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(channels),
			SampleRate:  int(sampleRate),
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(clampSample(s) * 32767)
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: finalizing wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("audio: closing temp wav: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: reading temp wav: %w", err)
	}
	return data, nil
}

// clampSample bounds a capture sample to [-1, 1] before PCM scaling.
func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
