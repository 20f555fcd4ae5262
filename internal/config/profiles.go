package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Amenity key styles and request envelopes understood by the price model
const (
	KeyStyleSnake   = "snake"
	KeyStyleDisplay = "display"
	EnvelopeFlat    = "flat"
	EnvelopeData    = "data"
)

// PredictionProfile pins the wire contract of one property family
type PredictionProfile struct {
	Endpoint  string            `yaml:"endpoint"`
	KeyStyle  string            `yaml:"key_style"`
	Envelope  string            `yaml:"envelope"`
	Overrides map[string]string `yaml:"overrides"`
}

// PredictionProfiles maps a family name (coworking, office_rent, generic) to its profile
type PredictionProfiles map[string]PredictionProfile

// DefaultPredictionProfiles returns the built-in contract
func DefaultPredictionProfiles() PredictionProfiles {
	return PredictionProfiles{
		"coworking":   {Endpoint: "/predict/coworking", KeyStyle: KeyStyleSnake, Envelope: EnvelopeFlat},
		"office_rent": {Endpoint: "/predict/office_rent", KeyStyle: KeyStyleSnake, Envelope: EnvelopeFlat},
		"generic":     {Endpoint: "/api/predict", KeyStyle: KeyStyleSnake, Envelope: EnvelopeFlat},
	}
}

// LoadPredictionProfiles reads a YAML file of profiles and merges it over the
// defaults. An empty path returns the defaults.
func LoadPredictionProfiles(path string) (PredictionProfiles, error) {
	profiles := DefaultPredictionProfiles()
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction profiles: %w", err)
	}
	var file struct {
		Profiles PredictionProfiles `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prediction profiles: %w", err)
	}

	for family, override := range file.Profiles {
		base, ok := profiles[family]
		if !ok {
			return nil, fmt.Errorf("unknown prediction family %q", family)
		}
		if override.Endpoint != "" {
			base.Endpoint = override.Endpoint
		}
		if override.KeyStyle != "" {
			base.KeyStyle = override.KeyStyle
		}
		if override.Envelope != "" {
			base.Envelope = override.Envelope
		}
		if len(override.Overrides) > 0 {
			base.Overrides = override.Overrides
		}
		if err := base.validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", family, err)
		}
		profiles[family] = base
	}
	return profiles, nil
}

func (p PredictionProfile) validate() error {
	switch p.KeyStyle {
	case KeyStyleSnake, KeyStyleDisplay:
	default:
		return fmt.Errorf("invalid key_style %q", p.KeyStyle)
	}
	switch p.Envelope {
	case EnvelopeFlat, EnvelopeData:
	default:
		return fmt.Errorf("invalid envelope %q", p.Envelope)
	}
	return nil
}
