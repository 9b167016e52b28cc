package prompts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v2"
)

// StylePreset is a named art-style fragment merged into user keywords
type StylePreset struct {
	Name           string `json:"-" yaml:"-"`
	Prompt         string `json:"prompt" yaml:"prompt"`
	NegativePrompt string `json:"negative_prompt" yaml:"negative_prompt"`
}

// StyleLibrary is the read-only preset table loaded at startup.
// Safe for concurrent reads.
type StyleLibrary struct {
	presets map[string]StylePreset
	names   []string
}

// NewStyleLibrary builds a library from presets in the given order.
// Later duplicates replace earlier values but keep the first position.
func NewStyleLibrary(presets ...StylePreset) *StyleLibrary {
	lib := &StyleLibrary{presets: make(map[string]StylePreset, len(presets))}
	for _, p := range presets {
		if _, ok := lib.presets[p.Name]; !ok {
			lib.names = append(lib.names, p.Name)
		}
		lib.presets[p.Name] = p
	}
	return lib
}

// LoadStyles reads presets from a JSON or YAML file. It never fails:
// a missing or malformed file yields an empty library and a warning.
func LoadStyles(path string, logger *slog.Logger) *StyleLibrary {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "styles", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("style file not loaded, continuing without styles", "error", err)
		return NewStyleLibrary()
	}

	var presets []StylePreset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		presets, err = parseYAMLStyles(data)
	default:
		presets, err = parseJSONStyles(data)
	}
	if err != nil {
		logger.Warn("style file malformed, continuing without styles", "error", err)
		return NewStyleLibrary()
	}

	lib := NewStyleLibrary(presets...)
	logger.Info("styles loaded", "count", lib.Len())
	return lib
}

func parseJSONStyles(data []byte) ([]StylePreset, error) {
	om := orderedmap.New[string, StylePreset]()
	if err := json.Unmarshal(data, &om); err != nil {
		return nil, err
	}
	if om == nil {
		return nil, nil
	}

	presets := make([]StylePreset, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		p := pair.Value
		p.Name = pair.Key
		presets = append(presets, p)
	}
	return presets, nil
}

func parseYAMLStyles(data []byte) ([]StylePreset, error) {
	// MapSlice keeps document order; the typed map carries the values.
	var order yaml.MapSlice
	if err := yaml.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	var values map[string]StylePreset
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	presets := make([]StylePreset, 0, len(order))
	for _, item := range order {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("style name %v is not a string", item.Key)
		}
		p := values[name]
		p.Name = name
		presets = append(presets, p)
	}
	return presets, nil
}

// Lookup returns the preset with the given name
func (l *StyleLibrary) Lookup(name string) (StylePreset, bool) {
	p, ok := l.presets[name]
	return p, ok
}

// Names returns the preset names in load order
func (l *StyleLibrary) Names() []string {
	names := make([]string, len(l.names))
	copy(names, l.names)
	return names
}

func (l *StyleLibrary) Len() int {
	return len(l.names)
}
