package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Profile is one named remote server entry from the profiles file.
type Profile struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Profiles maps profile names to remote server settings. The file format:
//
//	[profiles.local]
//	base_url = "http://127.0.0.1:8888"
//
//	[profiles.lab]
//	base_url = "https://lab.example.com"
//	token = "..."
//	timeout_seconds = 60
type Profiles struct {
	Profiles map[string]Profile `toml:"profiles"`
}

// LoadProfiles reads a TOML profiles file. A missing path returns an empty
// set rather than an error so the feature stays optional.
func LoadProfiles(path string) (*Profiles, error) {
	if path == "" {
		return &Profiles{Profiles: map[string]Profile{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Profiles{Profiles: map[string]Profile{}}, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	var p Profiles
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if p.Profiles == nil {
		p.Profiles = map[string]Profile{}
	}
	return &p, nil
}

// Get resolves a profile by name.
func (p *Profiles) Get(name string) (Profile, bool) {
	prof, ok := p.Profiles[name]
	return prof, ok
}

// Names lists profile names in sorted order.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.Profiles))
	for name := range p.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remote converts a profile into client configuration, falling back to the
// environment-derived settings for anything the profile leaves unset.
func (p Profile) Remote(base RemoteConfig) RemoteConfig {
	out := base
	if p.BaseURL != "" {
		out.BaseURL = p.BaseURL
	}
	if p.Token != "" {
		out.Token = p.Token
	}
	if p.TimeoutSeconds > 0 {
		out.TimeoutSeconds = p.TimeoutSeconds
	}
	return out
}
