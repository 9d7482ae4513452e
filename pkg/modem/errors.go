// ABOUTME: Modem configuration errors
// ABOUTME: Distinguishes unreadable stores, malformed stores and unknown profile names
package modem

import (
	"fmt"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

// ConfigErrorKind classifies profile store failures
type ConfigErrorKind string

const (
	KindStoreUnreadable ConfigErrorKind = "store-unreadable"
	KindStoreInvalid    ConfigErrorKind = "store-invalid"
	KindProfileNotFound ConfigErrorKind = "profile-not-found"
	KindDecoderCreate   ConfigErrorKind = "decoder-create"
)

// Sentinels for errors.Is
var (
	ErrStoreUnreadable = &ConfigError{Kind: KindStoreUnreadable}
	ErrStoreInvalid    = &ConfigError{Kind: KindStoreInvalid}
	ErrProfileNotFound = &ConfigError{Kind: KindProfileNotFound}
	ErrDecoderCreate   = &ConfigError{Kind: KindDecoderCreate}
)

// ConfigError reports why a decoder could not be prepared
type ConfigError struct {
	Kind    ConfigErrorKind
	Path    string
	Profile string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("modem %s", e.Kind)
	if e.Profile != "" {
		msg += fmt.Sprintf(" (profile %q", e.Profile)
		if e.Path != "" {
			msg += fmt.Sprintf(" in %s", e.Path)
		}
		msg += ")"
	} else if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is matches sentinels by kind
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Profile == "" && t.Err == nil
}

func errInvalidFormat(format audio.Format) error {
	return fmt.Errorf("unusable capture format %s", format)
}
