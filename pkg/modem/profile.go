// ABOUTME: Decoder profile store
// ABOUTME: Reads named modem profiles from a JSON or YAML document keyed by profile name
package modem

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Profile is one named modem configuration. Raw is the profile body as a JSON
// object; its schema belongs to the decoder.
type Profile struct {
	Name string
	Path string
	Raw  json.RawMessage
}

// Document renders the profile as a single-entry store, the shape libquiet parses
func (p Profile) Document() ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage{p.Name: p.Raw})
}

// LoadProfile reads profile name from the store at path
func LoadProfile(path, name string) (Profile, error) {
	store, err := readStore(path)
	if err != nil {
		return Profile{}, err
	}

	raw, ok := store[name]
	if !ok {
		return Profile{}, &ConfigError{Kind: KindProfileNotFound, Path: path, Profile: name}
	}
	return Profile{Name: name, Path: path, Raw: raw}, nil
}

// ListProfiles returns the profile names in the store, sorted
func ListProfiles(path string) ([]string, error) {
	store, err := readStore(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(store))
	for name := range store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func readStore(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Kind: KindStoreUnreadable, Path: path, Err: errors.Wrap(err, "read profile store")}
	}

	store, err := parseStore(data)
	if err != nil {
		return nil, &ConfigError{Kind: KindStoreInvalid, Path: path, Err: err}
	}
	return store, nil
}

// parseStore keeps JSON profile bodies byte-exact and converts YAML bodies to JSON
func parseStore(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("profile store is empty")
	}

	if trimmed[0] == '{' {
		var store map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &store); err != nil {
			return nil, errors.Wrap(err, "parse JSON profile store")
		}
		for name, raw := range store {
			if !isObject(raw) {
				return nil, errors.Errorf("profile %q is not an object", name)
			}
		}
		return store, nil
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.Wrap(err, "parse YAML profile store")
	}

	store := make(map[string]json.RawMessage, len(doc))
	for name, body := range doc {
		if _, ok := body.(map[string]interface{}); !ok {
			return nil, errors.Errorf("profile %q is not a mapping", name)
		}
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "convert profile %q", name)
		}
		store[name] = raw
	}
	return store, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
