package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes one rendition output. Renditions are profile-driven
// copies of the original sized to fit within the profile's bounds; the
// pixel transform itself happens downstream of this service.
type Profile struct {
	Name      string `yaml:"name"`
	MaxWidth  int    `yaml:"max_width"`
	MaxHeight int    `yaml:"max_height"`
	Thumbnail bool   `yaml:"thumbnail"`
}

// ProfileSet is the rendition configuration loaded from renditions.yaml.
type ProfileSet struct {
	Profiles []Profile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in rendition set used when no
// configuration file is given.
func DefaultProfiles() *ProfileSet {
	return &ProfileSet{
		Profiles: []Profile{
			{Name: "thumb", MaxWidth: 320, MaxHeight: 320, Thumbnail: true},
			{Name: "preview", MaxWidth: 1280, MaxHeight: 1280},
			{Name: "hero", MaxWidth: 2400, MaxHeight: 1600},
		},
	}
}

// LoadProfiles reads and parses a rendition profile file. An empty path
// yields the defaults.
func LoadProfiles(path string) (*ProfileSet, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rendition profiles %s: %w", path, err)
	}
	return ParseProfiles(data)
}

// ParseProfiles parses rendition profiles from raw YAML.
func ParseProfiles(data []byte) (*ProfileSet, error) {
	var set ProfileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse rendition profiles: %w", err)
	}
	if len(set.Profiles) == 0 {
		return DefaultProfiles(), nil
	}
	for _, p := range set.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("rendition profile without a name")
		}
		if p.MaxWidth <= 0 && p.MaxHeight <= 0 {
			return nil, fmt.Errorf("rendition profile %s has no bounds", p.Name)
		}
	}
	return &set, nil
}

// Thumbnails returns the profiles regenerated by the thumbnail repair path.
func (s *ProfileSet) Thumbnails() []Profile {
	var out []Profile
	for _, p := range s.Profiles {
		if p.Thumbnail {
			out = append(out, p)
		}
	}
	return out
}

// Fit scales source dimensions to fit within the profile bounds, preserving
// aspect ratio and never upscaling.
func (p Profile) Fit(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	scale := 1.0
	if p.MaxWidth > 0 && width > p.MaxWidth {
		scale = float64(p.MaxWidth) / float64(width)
	}
	if p.MaxHeight > 0 && float64(height)*scale > float64(p.MaxHeight) {
		scale = float64(p.MaxHeight) / float64(height)
	}
	if scale >= 1 {
		return width, height
	}
	return int(float64(width)*scale + 0.5), int(float64(height)*scale + 0.5)
}
