// ABOUTME: Credential payload codec package
// ABOUTME: Parses and builds the length-prefixed SSID and passphrase record
// Package payload reads the credential record carried by a decoded modem
// message. The layout is two length-prefixed fields with no separator and no
// checksum:
//
//	[N1][N1 bytes of SSID][N2][N2 bytes of passphrase]
//
// Each length is one byte, so each field holds at most 255 bytes. Bytes after
// the second field are ignored.
//
// Example:
//
//	rec, err := payload.Extract(msg)
//	if errors.Is(err, payload.ErrTruncated) {
//	    // keep listening
//	}
package payload
