// Package transcribe sends captured audio to a cloud speech-to-text
// provider and returns the recognized text. The provider sits behind a
// simple request/response contract; everything past the HTTP boundary
// is its concern, not ours.
package transcribe

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}
