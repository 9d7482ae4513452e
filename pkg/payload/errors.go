// ABOUTME: Payload extraction errors
// ABOUTME: Reports truncated records and oversized fields with the offending sizes
package payload

import "fmt"

// ErrorKind classifies payload failures
type ErrorKind string

const (
	KindTruncated    ErrorKind = "truncated"
	KindFieldTooLong ErrorKind = "field-too-long"
)

// Sentinels for errors.Is
var (
	ErrTruncated    = &PayloadError{Kind: KindTruncated}
	ErrFieldTooLong = &PayloadError{Kind: KindFieldTooLong}
)

// PayloadError describes a record that cannot be read or written. Need and
// Have are byte counts: the bytes the record requires and the bytes available.
type PayloadError struct {
	Kind  ErrorKind
	Field string
	Need  int
	Have  int
}

func (e *PayloadError) Error() string {
	switch e.Kind {
	case KindTruncated:
		return fmt.Sprintf("payload truncated: %s needs %d bytes, have %d", e.Field, e.Need, e.Have)
	case KindFieldTooLong:
		return fmt.Sprintf("payload %s too long: %d bytes, max %d", e.Field, e.Have, e.Need)
	default:
		return fmt.Sprintf("payload %s", e.Kind)
	}
}

// Is matches sentinels by kind
func (e *PayloadError) Is(target error) bool {
	t, ok := target.(*PayloadError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Need == 0 && t.Have == 0
}
