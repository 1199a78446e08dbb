package countdown

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// PresetPrefix marks a format list entry that expands to a named preset.
const PresetPrefix = "preset:"

// Preset is a named, reusable list of countdown formats.
type Preset struct {
	Name        string
	Description string
	Formats     []string
}

type yamlPreset struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Formats     []string `yaml:"formats"`
}

// Presets holds format presets by name.
type Presets struct {
	presets map[string]*Preset
	mu      sync.RWMutex
}

// NewPresets creates an empty preset registry.
func NewPresets() *Presets {
	return &Presets{presets: make(map[string]*Preset)}
}

// Register adds a preset, replacing any with the same name.
func (r *Presets) Register(p *Preset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[p.Name] = p
}

// Get returns the named preset or nil.
func (r *Presets) Get(name string) *Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.presets[name]
}

// List returns preset names, sorted.
func (r *Presets) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand replaces preset references in patterns with the preset formats.
func (r *Presets) Expand(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		name, ok := strings.CutPrefix(p, PresetPrefix)
		if !ok {
			out = append(out, p)
			continue
		}
		preset := r.Get(name)
		if preset == nil {
			return nil, fmt.Errorf("unknown format preset %q", name)
		}
		out = append(out, preset.Formats...)
	}
	return out, nil
}

// LoadPresets reads every YAML file under the "formats" directory of fsys.
func LoadPresets(fsys fs.FS) (*Presets, error) {
	entries, err := fs.ReadDir(fsys, "formats")
	if err != nil {
		return nil, fmt.Errorf("failed to read formats directory: %w", err)
	}

	r := NewPresets()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		p, err := loadPresetFile(fsys, "formats/"+entry.Name())
		if err != nil {
			return nil, err
		}
		r.Register(p)
	}
	return r, nil
}

func loadPresetFile(fsys fs.FS, path string) (*Preset, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file %s: %w", path, err)
	}

	var yp yamlPreset
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, fmt.Errorf("failed to parse preset file %s: %w", path, err)
	}
	if yp.Name == "" {
		return nil, fmt.Errorf("preset file %s has no name", path)
	}
	if _, err := CompileFormats(yp.Formats); err != nil {
		return nil, fmt.Errorf("preset %s: %w", yp.Name, err)
	}

	return &Preset{Name: yp.Name, Description: yp.Description, Formats: yp.Formats}, nil
}
