package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadProfile loads a profile from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// Fields the file leaves out keep their Default values. The result has
// passed both schema and semantic validation.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	p, err := ParseProfile(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseProfile parses profile data. The format is chosen from the extension
// of path; an empty or unknown extension is read as YAML.
func ParseProfile(data []byte, path string) (*Profile, error) {
	isJSON := strings.ToLower(filepath.Ext(path)) == ".json"

	var doc interface{}
	if isJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON profile: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	p := Default()
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON profile: %w", err)
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal renders p as YAML, or JSON when path ends in .json.
func (p *Profile) Marshal(path string) ([]byte, error) {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return json.MarshalIndent(p, "", "  ")
	}
	return yaml.Marshal(p)
}
