// Package model locates Silero model packages through the upstream
// models.yml catalog and caches them on disk.
package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoPackage is returned for catalog entries without a package URL. Those
// are legacy JIT models, which the engine cannot load.
var ErrNoPackage = errors.New("model has no package url")

// Catalog is the subset of models.yml describing TTS models, keyed by
// language then model name.
type Catalog struct {
	TTSModels map[string]map[string]Entry `yaml:"tts_models"`
}

// Entry is one model with its releases. Only the latest release is used.
type Entry struct {
	Latest Release `yaml:"latest"`
}

type Release struct {
	Package    string      `yaml:"package"`
	JIT        string      `yaml:"jit"`
	Example    string      `yaml:"example"`
	SampleRate SampleRates `yaml:"sample_rate"`
}

// SampleRates accepts both a scalar and a list in the catalog.
type SampleRates []int

func (s *SampleRates) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var rate int
		if err := node.Decode(&rate); err != nil {
			return err
		}
		*s = SampleRates{rate}
		return nil
	case yaml.SequenceNode:
		var rates []int
		if err := node.Decode(&rates); err != nil {
			return err
		}
		*s = rates
		return nil
	default:
		return fmt.Errorf("sample_rate: unexpected yaml kind %d", node.Kind)
	}
}

// Supports reports whether rate is listed. An empty list supports any rate.
func (s SampleRates) Supports(rate int) bool {
	return len(s) == 0 || slices.Contains(s, rate)
}

// ParseCatalog decodes models.yml.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse model catalog: %w", err)
	}
	if len(c.TTSModels) == 0 {
		return nil, errors.New("parse model catalog: no tts_models section")
	}
	return &c, nil
}

// CatalogLanguage returns the catalog section holding model. The multi_v2
// model is filed under "multi" regardless of the spoken language.
func CatalogLanguage(language, model string) string {
	if model == "multi_v2" {
		return "multi"
	}
	return language
}

// Resolve returns the latest release of model for language.
func (c *Catalog) Resolve(language, model string) (Release, error) {
	section := CatalogLanguage(language, model)
	models, ok := c.TTSModels[section]
	if !ok {
		return Release{}, fmt.Errorf("language %q not in catalog (available: %s)", section, strings.Join(c.Languages(), ", "))
	}
	entry, ok := models[model]
	if !ok {
		return Release{}, fmt.Errorf("model %q not found for language %q (available: %s)", model, section, strings.Join(c.Models(section), ", "))
	}
	if entry.Latest.Package == "" {
		return Release{}, fmt.Errorf("%s/%s: %w", section, model, ErrNoPackage)
	}
	return entry.Latest, nil
}

// Languages lists the catalog sections in sorted order.
func (c *Catalog) Languages() []string {
	return slices.Sorted(maps.Keys(c.TTSModels))
}

// Models lists the model names in a catalog section in sorted order.
func (c *Catalog) Models(section string) []string {
	return slices.Sorted(maps.Keys(c.TTSModels[section]))
}
