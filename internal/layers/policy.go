// Package layers holds the architectural layer policy: an ordered list of
// layers, top to bottom, with the dependencies each layer may take.
package layers

import (
	"fmt"
	"path"
	"strings"

	"modplan/internal/errors"
	"modplan/internal/modules"
	"modplan/internal/paths"
)

// Layer is one architectural layer.
//
// Patterns select modules by root path. A pattern containing glob
// metacharacters is matched with path.Match against the whole root path; a
// pattern containing "/" is a directory prefix; a bare name matches any path
// segment.
//
// Allow, when non-empty, is the exhaustive list of other layers this layer
// may depend on. When empty the layer may depend on every layer below it.
type Layer struct {
	Name     string   `toml:"name" yaml:"name" json:"name"`
	Patterns []string `toml:"patterns,omitempty" yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Allow    []string `toml:"allow,omitempty" yaml:"allow,omitempty" json:"allow,omitempty"`
}

// Policy is an ordered layer model. Index 0 is the top layer.
type Policy struct {
	Layers []Layer `toml:"layer" yaml:"layers" json:"layers"`

	index map[string]int
}

// New builds and validates a policy.
func New(layers ...Layer) (*Policy, error) {
	p := &Policy{Layers: layers}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustNew is New for statically known policies.
func MustNew(layers ...Layer) *Policy {
	p, err := New(layers...)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks names are non-empty and unique, allow entries name known
// layers, and patterns are well formed. It also builds the name index.
func (p *Policy) Validate() error {
	index := make(map[string]int, len(p.Layers))
	for i, l := range p.Layers {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return errors.Newf(errors.InvalidPolicy, "layer %d has no name", i+1)
		}
		if _, dup := index[name]; dup {
			return errors.Newf(errors.InvalidPolicy, "duplicate layer %q", name)
		}
		index[name] = i
	}

	for _, l := range p.Layers {
		for _, a := range l.Allow {
			if _, ok := index[a]; !ok {
				return errors.Newf(errors.InvalidPolicy, "layer %q allows unknown layer %q", l.Name, a)
			}
		}
		for _, pat := range l.Patterns {
			if pat == "" {
				return errors.Newf(errors.InvalidPolicy, "layer %q has an empty pattern", l.Name)
			}
			if _, err := path.Match(pat, ""); err != nil {
				return errors.New(errors.InvalidPolicy, fmt.Sprintf("layer %q has malformed pattern %q", l.Name, pat), err)
			}
		}
	}

	p.index = index
	return nil
}

// lookup never writes to p, so a shared policy is safe for concurrent reads.
// Policies built without Validate fall back to a linear scan.
func (p *Policy) lookup(name string) (int, bool) {
	if p.index != nil {
		i, ok := p.index[name]
		return i, ok
	}
	for i, l := range p.Layers {
		if l.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Names returns the layer names top to bottom.
func (p *Policy) Names() []string {
	names := make([]string, len(p.Layers))
	for i, l := range p.Layers {
		names[i] = l.Name
	}
	return names
}

// Has reports whether name is a layer of the policy.
func (p *Policy) Has(name string) bool {
	_, ok := p.lookup(name)
	return ok
}

// Assign returns the layer of m, or "" when m is unlayered. A layer hint
// naming a known layer wins over pattern matching.
func (p *Policy) Assign(m *modules.Module) string {
	if m == nil {
		return ""
	}
	if m.LayerHint != "" && p.Has(m.LayerHint) {
		return m.LayerHint
	}
	return p.AssignPath(m.RootPath)
}

// AssignPath returns the first layer whose pattern matches rootPath.
func (p *Policy) AssignPath(rootPath string) string {
	rootPath = paths.NormalizePath(rootPath)
	for _, l := range p.Layers {
		for _, pat := range l.Patterns {
			if matchPattern(pat, rootPath) {
				return l.Name
			}
		}
	}
	return ""
}

func matchPattern(pattern, rootPath string) bool {
	if strings.ContainsAny(pattern, "*?[") {
		ok, _ := path.Match(pattern, rootPath)
		return ok
	}
	if strings.Contains(pattern, "/") {
		return paths.HasDirPrefix(rootPath, pattern)
	}
	for _, seg := range strings.Split(rootPath, "/") {
		if seg == pattern {
			return true
		}
	}
	return false
}

// Allows reports whether layer from may depend on layer to. Same-layer and
// unlayered edges are always allowed.
func (p *Policy) Allows(from, to string) bool {
	if from == to || from == "" || to == "" {
		return true
	}
	fi, ok := p.lookup(from)
	if !ok {
		return true
	}
	ti, ok := p.lookup(to)
	if !ok {
		return true
	}
	if allow := p.Layers[fi].Allow; len(allow) > 0 {
		for _, a := range allow {
			if a == to {
				return true
			}
		}
		return false
	}
	return ti > fi
}

// IsUpward reports whether to sits above from in the layer order.
func (p *Policy) IsUpward(from, to string) bool {
	fi, ok := p.lookup(from)
	if !ok {
		return false
	}
	ti, ok := p.lookup(to)
	if !ok {
		return false
	}
	return ti < fi
}

// DefaultPolicy is ui → integration → domain → core, assigned by common
// directory names.
func DefaultPolicy() *Policy {
	return MustNew(
		Layer{Name: "ui", Patterns: []string{"ui", "web", "views", "pages", "screens", "components", "widgets", "cmd"}},
		Layer{Name: "integration", Patterns: []string{"api", "adapters", "infra", "infrastructure", "integration", "storage", "db", "http", "grpc"}},
		Layer{Name: "domain", Patterns: []string{"domain", "models", "entities", "usecases", "services", "features"}},
		Layer{Name: "core", Patterns: []string{"core", "shared", "common", "utils", "kernel"}},
	)
}
