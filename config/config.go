// Package config reads the editor preferences: built-in defaults overlaid by
// an optional user file, in YAML or TOML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

type (
	Preferences struct {
		Editing  EditingPreferences
		Sequence SequencePreferences
		Jobs     JobPreferences
	}

	EditingPreferences struct {
		MaxUndos     int
		SnapFrames   int
		StrictMirror bool
	}

	SequencePreferences struct {
		VideoTracks int
		AudioTracks int
		FPS         int
	}

	JobPreferences struct {
		Workers int
		// Database is the path of the job status database. Empty means an
		// in-memory database.
		Database string
	}
)

const (
	MinUndos = 10
	MaxUndos = 100

	yamlName = "preferences.yml"
	tomlName = "preferences.toml"
)

//go:embed preferences.yml
var defaultPreferencesYaml []byte

// Default returns the built-in preferences.
func Default() Preferences {
	var p Preferences
	if err := yaml.UnmarshalStrict(defaultPreferencesYaml, &p); err != nil {
		panic(fmt.Errorf("failed to unmarshal default preferences: %w", err))
	}
	return p
}

// Dir returns the directory of the user preference files.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "flowcut"), nil
}

// Load returns the defaults overlaid by preferences.yml, or preferences.toml
// if there is no YAML file, from dir. Missing files are not an error. On a
// parse error the returned preferences are the defaults.
func Load(dir string) (Preferences, error) {
	p := Default()
	ret := p
	bytes, err := os.ReadFile(filepath.Join(dir, yamlName))
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(bytes, &ret); err != nil {
			return p, fmt.Errorf("%s: %w", yamlName, err)
		}
		return ret.Normalize(), nil
	case !errors.Is(err, fs.ErrNotExist):
		return p, err
	}
	if _, err := toml.DecodeFile(filepath.Join(dir, tomlName), &ret); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p.Normalize(), nil
		}
		return p, fmt.Errorf("%s: %w", tomlName, err)
	}
	return ret.Normalize(), nil
}

// Normalize clamps the values into their valid ranges.
func (p Preferences) Normalize() Preferences {
	p.Editing.MaxUndos = min(max(p.Editing.MaxUndos, MinUndos), MaxUndos)
	p.Editing.SnapFrames = max(p.Editing.SnapFrames, 0)
	p.Sequence.VideoTracks = max(p.Sequence.VideoTracks, 1)
	p.Sequence.AudioTracks = max(p.Sequence.AudioTracks, 0)
	p.Sequence.FPS = max(p.Sequence.FPS, 1)
	p.Jobs.Workers = max(p.Jobs.Workers, 1)
	return p
}
