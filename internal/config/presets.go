package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Preset is a named set of detection parameters. Zero-valued fields fall
// back to the configured defaults when applied.
type Preset struct {
	Description string  `yaml:"description"`
	Eps         float64 `yaml:"eps"`
	MinSamples  int     `yaml:"min_samples"`
	TopN        int     `yaml:"top_n"`
	RankBy      string  `yaml:"rank_by"`
}

// LoadPresets reads a YAML file mapping preset names to parameters.
func LoadPresets(path string) (map[string]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read presets %s", path)
	}

	presets := make(map[string]Preset)
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, eris.Wrapf(err, "config: parse presets %s", path)
	}
	return presets, nil
}

// Apply overlays the preset's non-zero fields on the given defaults.
func (p Preset) Apply(d DetectConfig) DetectConfig {
	if p.Eps > 0 {
		d.Eps = p.Eps
	}
	if p.MinSamples > 0 {
		d.MinSamples = p.MinSamples
	}
	if p.TopN > 0 {
		d.TopN = p.TopN
	}
	if p.RankBy != "" {
		d.RankBy = p.RankBy
	}
	return d
}
