// Package manifest reads application manifests and resolves splash fields
// with platform-scoped overrides.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/splash/api"
)

const splashKey = "splash"

// Field names inside a splash section.
const (
	FieldBackgroundColor = "backgroundColor"
	FieldImageURL        = "imageUrl"
	FieldTabletImageURL  = "tabletImageUrl"
	FieldResizeMode      = "resizeMode"
)

// Manifest wraps decoded manifest data. It is never mutated.
// A nil *Manifest behaves like an empty manifest.
type Manifest struct {
	root any
}

// New wraps already-decoded data (maps, slices, scalars).
func New(root any) *Manifest {
	return &Manifest{root: root}
}

// Load reads a manifest from disk. Files ending in .yaml or .yml are decoded
// as YAML, everything else as JSON.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(content)
	default:
		m, err := ParseJSON(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
		}
		return m, nil
	}
}

// ParseJSON decodes a JSON manifest.
func ParseJSON(content []byte) (*Manifest, error) {
	data, err := oj.Parse(content)
	if err != nil {
		return nil, err
	}
	return New(data), nil
}

// ParseYAML decodes a YAML manifest.
func ParseYAML(content []byte) (*Manifest, error) {
	var data any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to parse yaml manifest: %w", err)
	}
	return New(data), nil
}

// PlatformValue returns <platform>.splash.<field> with no fallback.
func (m *Manifest) PlatformValue(platform api.Platform, field string) (string, bool) {
	return m.str(jp.C(string(platform)).C(splashKey).C(field))
}

// SharedValue returns splash.<field>.
func (m *Manifest) SharedValue(field string) (string, bool) {
	return m.str(jp.C(splashKey).C(field))
}

// Lookup returns the platform-scoped value, falling back to the shared one.
func (m *Manifest) Lookup(platform api.Platform, field string) (string, bool) {
	if v, ok := m.PlatformValue(platform, field); ok {
		return v, true
	}
	return m.SharedValue(field)
}

// UsesSplash reports whether the manifest opts into splash customization for
// the platform: either a shared splash object or a platform splash object.
func (m *Manifest) UsesSplash(platform api.Platform) bool {
	return m.object(jp.C(splashKey)) || m.object(jp.C(string(platform)).C(splashKey))
}

// Splash resolves every splash field for the platform.
//
// Every field is read from the platform section first and falls back to the
// shared one.
func (m *Manifest) Splash(platform api.Platform) api.Splash {
	s := api.Splash{}
	s.BackgroundColor, _ = m.Lookup(platform, FieldBackgroundColor)
	s.ResizeMode, _ = m.Lookup(platform, FieldResizeMode)

	s.ImageURL, _ = m.Lookup(platform, FieldImageURL)
	s.TabletImageURL, _ = m.Lookup(platform, FieldTabletImageURL)
	return s
}

// str returns a non-empty string at x. Non-string values count as absent.
func (m *Manifest) str(x jp.Expr) (string, bool) {
	if m == nil || m.root == nil {
		return "", false
	}
	s, ok := x.First(m.root).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (m *Manifest) object(x jp.Expr) bool {
	if m == nil || m.root == nil {
		return false
	}
	_, ok := x.First(m.root).(map[string]any)
	return ok
}
