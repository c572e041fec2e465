package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// ErrConfig marks a missing, ambiguous or malformed sample configuration.
var ErrConfig = errors.New("sample configuration error")

// ChannelSpec names one imaging channel and its index on the channel axis.
type ChannelSpec struct {
	Name   string `yaml:"name"`
	Number int    `yaml:"number"`
}

// Marker accepts both spellings found in sample configs: a bare string, or a
// map with a "name" key.
type Marker struct {
	Name string
}

func (m *Marker) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		m.Name = s
		return nil
	}
	var obj struct {
		Name string `yaml:"name"`
	}
	if err := unmarshal(&obj); err != nil {
		return err
	}
	if obj.Name == "" {
		return fmt.Errorf("marker entry missing name")
	}
	m.Name = obj.Name
	return nil
}

// SampleConfig is the per-sample configuration file. YAML and JSON spellings
// are both accepted (JSON parses as YAML flow style).
type SampleConfig struct {
	ImagePath string        `yaml:"image_path"`
	UseWSI    bool          `yaml:"use_wsi"`
	MPP       float64       `yaml:"MPP"`
	Channels  []ChannelSpec `yaml:"channels"`
	Markers   []Marker      `yaml:"markers"`
}

// MarkerNames returns the marker names in configured order.
func (c *SampleConfig) MarkerNames() []string {
	names := make([]string, len(c.Markers))
	for i, m := range c.Markers {
		names[i] = m.Name
	}
	return names
}

// FindConfig locates the single configuration file in a sample directory by
// the "*config*" naming convention. Zero or multiple matches is fatal for the
// sample.
func FindConfig(sampleDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(sampleDir, "*config*"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfig, err)
	}

	var files []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}

	switch len(files) {
	case 0:
		return "", fmt.Errorf("%w: no *config* file in %s", ErrConfig, sampleDir)
	case 1:
		return files[0], nil
	default:
		return "", fmt.Errorf("%w: %d *config* files in %s, expected exactly one", ErrConfig, len(files), sampleDir)
	}
}

// LoadSampleConfig parses and validates a sample configuration file.
func LoadSampleConfig(path string) (*SampleConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	// use_wsi defaults to true when the config omits it.
	cfg := SampleConfig{UseWSI: true}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}

	if cfg.ImagePath == "" {
		return nil, fmt.Errorf("%w: %s has no image_path", ErrConfig, path)
	}
	if len(cfg.Channels) < 2 {
		return nil, fmt.Errorf("%w: %s must list at least two channels, got %d", ErrConfig, path, len(cfg.Channels))
	}
	for _, ch := range cfg.Channels {
		if ch.Number < 0 {
			return nil, fmt.Errorf("%w: channel %q has negative index %d", ErrConfig, ch.Name, ch.Number)
		}
	}

	return &cfg, nil
}
