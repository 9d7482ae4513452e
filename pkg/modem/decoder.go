// ABOUTME: Decoder interface definition
// ABOUTME: Capability set of the opaque acoustic modem
package modem

// Decoder demodulates mono float32 samples into messages
type Decoder interface {
	// Consume advances decoder state with one block of samples
	Consume(samples []float32)

	// Receive copies the next complete message into buf and returns its
	// length, or a negative value when no message is ready yet
	Receive(buf []byte) int

	// Close releases decoder resources
	Close() error
}

// Factory constructs a decoder bound to a profile and sample rate
type Factory func(profile Profile, sampleRate int) (Decoder, error)
