// ABOUTME: Credential record extraction and encoding
// ABOUTME: Bounds-checked parser for the two length-prefixed fields and its inverse
package payload

// MaxFieldLen is the largest field a one-byte length prefix can describe
const MaxFieldLen = 255

const (
	fieldSSID       = "ssid"
	fieldPassphrase = "passphrase"
)

// Record is a recovered network credential
type Record struct {
	SSID       []byte
	Passphrase []byte
}

// SSIDString returns the network name as a string
func (r Record) SSIDString() string { return string(r.SSID) }

// PassphraseString returns the passphrase as a string
func (r Record) PassphraseString() string { return string(r.Passphrase) }

// CSSID returns the network name followed by a NUL terminator
func (r Record) CSSID() []byte { return cstring(r.SSID) }

// CPassphrase returns the passphrase followed by a NUL terminator
func (r Record) CPassphrase() []byte { return cstring(r.Passphrase) }

// Len is the number of wire bytes the record occupies
func (r Record) Len() int {
	return 2 + len(r.SSID) + len(r.Passphrase)
}

func cstring(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	return out
}

// Extract parses a record from buf. The returned fields are copies and do not
// alias buf. A buffer too short for the lengths it declares yields an error
// matching ErrTruncated; nothing past len(buf) is read.
func Extract(buf []byte) (Record, error) {
	if len(buf) < 1 {
		return Record{}, &PayloadError{Kind: KindTruncated, Field: fieldSSID, Need: 1, Have: len(buf)}
	}

	n1 := int(buf[0])
	lenAt := 1 + n1
	if lenAt >= len(buf) {
		return Record{}, &PayloadError{Kind: KindTruncated, Field: fieldSSID, Need: lenAt + 1, Have: len(buf)}
	}

	n2 := int(buf[lenAt])
	end := lenAt + 1 + n2
	if end > len(buf) {
		return Record{}, &PayloadError{Kind: KindTruncated, Field: fieldPassphrase, Need: end, Have: len(buf)}
	}

	rec := Record{
		SSID:       make([]byte, n1),
		Passphrase: make([]byte, n2),
	}
	copy(rec.SSID, buf[1:lenAt])
	copy(rec.Passphrase, buf[lenAt+1:end])
	return rec, nil
}

// Marshal encodes r in wire layout
func Marshal(r Record) ([]byte, error) {
	if len(r.SSID) > MaxFieldLen {
		return nil, &PayloadError{Kind: KindFieldTooLong, Field: fieldSSID, Need: MaxFieldLen, Have: len(r.SSID)}
	}
	if len(r.Passphrase) > MaxFieldLen {
		return nil, &PayloadError{Kind: KindFieldTooLong, Field: fieldPassphrase, Need: MaxFieldLen, Have: len(r.Passphrase)}
	}

	buf := make([]byte, 0, r.Len())
	buf = append(buf, byte(len(r.SSID)))
	buf = append(buf, r.SSID...)
	buf = append(buf, byte(len(r.Passphrase)))
	buf = append(buf, r.Passphrase...)
	return buf, nil
}
