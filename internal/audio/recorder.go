// Package audio captures microphone input and encodes it into the WAV
// payload the transcription upload expects.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Recorder accumulates float32 samples from the default capture device
// between Start and Stop. One dictation is one Start/Stop pair.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	device    *malgo.Device
	samples   []float32
	recording bool
}

// NewRecorder initializes the capture backend. Call Close when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing capture context: %w", err)
	}
	return &Recorder{ctx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

// Start opens the default microphone and begins accumulating samples.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: recorder already running")
	}
	r.samples = r.samples[:0]
	r.recording = true
	r.mu.Unlock()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = r.channels
	cfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, cfg, malgo.DeviceCallbacks{Data: r.appendFrames})
	if err != nil {
		r.abort()
		return fmt.Errorf("audio: opening capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		r.abort()
		return fmt.Errorf("audio: starting capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()
	return nil
}

// Stop ends the capture and returns a copy of everything recorded, in
// the sample shape EncodeWAV takes. Returns nil when not recording.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false

	out := make([]float32, len(r.samples))
	copy(out, r.samples)
	return out
}

// Duration converts a sample count from this recorder into wall time.
// The daemon uses it to discard accidental hotkey taps.
func (r *Recorder) Duration(samples []float32) time.Duration {
	frames := len(samples) / int(r.channels)
	return time.Duration(frames) * time.Second / time.Duration(r.sampleRate)
}

// IsRecording reports whether a capture is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close tears down any active capture and releases the backend.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false
	r.mu.Unlock()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: releasing capture context: %w", err)
		}
		r.ctx.Free()
	}
	return nil
}

// abort rolls back the recording flag after a failed Start.
func (r *Recorder) abort() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// appendFrames is the malgo data callback. frames holds raw
// little-endian float32 samples.
func (r *Recorder) appendFrames(_, frames []byte, frameCount uint32) {
	decoded := decodeFrames(frames, frameCount*r.channels)

	r.mu.Lock()
	r.samples = append(r.samples, decoded...)
	r.mu.Unlock()
}

// decodeFrames interprets raw capture bytes as little-endian float32
// samples, ignoring any trailing partial sample.
func decodeFrames(data []byte, count uint32) []float32 {
	if limit := uint32(len(data) / 4); count > limit {
		count = limit
	}
	out := make([]float32, count)
	for i := range out {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
