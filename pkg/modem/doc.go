// ABOUTME: Acoustic modem adapter package
// ABOUTME: Loads decoder profiles and streams captured PCM into an opaque decoder
// Package modem wraps the acoustic modem that turns captured audio back into
// bytes. The modem itself is opaque: it is constructed from a named profile
// and a sample rate, consumes mono float32 samples and is polled for complete
// messages.
//
// The libquiet binding is compiled with -tags quiet; other builds get a stub
// factory that always fails.
//
// Example:
//
//	profile, err := modem.LoadProfile("quiet-profiles.json", "wave")
//	adapter, err := modem.NewAdapter(modem.NewQuietDecoder, profile, format, 255, logger)
//	adapter.Consume(buf, frames)
//	if msg, ok := adapter.TryReceive(); ok { ... }
package modem
