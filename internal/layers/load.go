package layers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"modplan/internal/errors"
)

// Load reads a policy file, choosing the decoder by extension.
func Load(path string) (*Policy, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return LoadTOML(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, errors.Newf(errors.InvalidPolicy, "unsupported policy file %s (want .toml, .yaml or .yml)", path)
	}
}

// LoadTOML reads a policy from TOML:
//
//	[[layer]]
//	name = "ui"
//	patterns = ["web", "cmd"]
//	allow = ["domain"]
//
// Unknown keys are rejected so typos do not silently loosen the policy.
func LoadTOML(path string) (*Policy, error) {
	var p Policy
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, errors.New(errors.InvalidPolicy, "failed to parse layer policy", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.Newf(errors.InvalidPolicy, "unknown keys in layer policy: %s", strings.Join(keys, ", "))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadYAML reads a policy from YAML with a top-level "layers" list.
// Unknown fields are rejected.
func LoadYAML(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InvalidPolicy, "failed to read layer policy", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Policy
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return nil, errors.New(errors.InvalidPolicy, "failed to parse layer policy", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteTOML encodes the policy in the LoadTOML format.
func (p *Policy) WriteTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("failed to encode layer policy: %w", err)
	}
	return nil
}
