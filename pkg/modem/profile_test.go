// ABOUTME: Tests for the modem profile store
// ABOUTME: Covers JSON and YAML stores, listing and lookup failures
package modem_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/heywifi/heywifi-go/pkg/modem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonStore = `{
  "wave": {"mod_scheme": "gmsk", "checksum_scheme": "crc32", "frame_length": 25},
  "audible": {"mod_scheme": "qpsk", "ofdm": {"num_subcarriers": 48}}
}`

const yamlStore = `wave:
  mod_scheme: gmsk
  frame_length: 25
ultrasonic:
  mod_scheme: ofdm
`

func writeStore(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadProfileJSON(t *testing.T) {
	path := writeStore(t, "quiet-profiles.json", jsonStore)

	p, err := modem.LoadProfile(path, "wave")
	require.NoError(t, err)
	assert.Equal(t, "wave", p.Name)
	assert.Equal(t, path, p.Path)
	assert.JSONEq(t, `{"mod_scheme": "gmsk", "checksum_scheme": "crc32", "frame_length": 25}`, string(p.Raw))

	doc, err := p.Document()
	require.NoError(t, err)
	var parsed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Contains(t, parsed, "wave")
	assert.Len(t, parsed, 1)
}

func TestLoadProfileYAML(t *testing.T) {
	path := writeStore(t, "profiles.yaml", yamlStore)

	p, err := modem.LoadProfile(path, "wave")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mod_scheme": "gmsk", "frame_length": 25}`, string(p.Raw))
}

func TestListProfiles(t *testing.T) {
	path := writeStore(t, "quiet-profiles.json", jsonStore)

	names, err := modem.ListProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"audible", "wave"}, names)
}

func TestLoadProfileErrors(t *testing.T) {
	dir := t.TempDir()
	valid := writeStore(t, "ok.json", jsonStore)
	invalid := writeStore(t, "bad.json", `{"wave": [1, 2]}`)
	garbage := writeStore(t, "garbage.json", `{not json`)
	empty := writeStore(t, "empty.json", "  \n")

	tests := []struct {
		name    string
		path    string
		profile string
		want    error
	}{
		{"missing file", filepath.Join(dir, "nope.json"), "wave", modem.ErrStoreUnreadable},
		{"unknown profile", valid, "ultrasonic-experimental", modem.ErrProfileNotFound},
		{"profile not an object", invalid, "wave", modem.ErrStoreInvalid},
		{"malformed document", garbage, "wave", modem.ErrStoreInvalid},
		{"empty document", empty, "wave", modem.ErrStoreInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := modem.LoadProfile(tt.path, tt.profile)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *modem.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.path, cfgErr.Path)
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &modem.ConfigError{Kind: modem.KindProfileNotFound, Path: "p.json", Profile: "wave"}
	assert.Equal(t, `modem profile-not-found (profile "wave" in p.json)`, err.Error())
	assert.NotErrorIs(t, err, modem.ErrStoreInvalid)
}
