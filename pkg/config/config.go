// Package config locates and parses the stagerun configuration: a mapping
// from glob pattern to one or more shell commands.
//
// Configuration is discovered in the working directory, first hit wins:
//
//  1. package.json, under the "stagerun" key
//  2. .stagerunrc.json
//  3. .stagerunrc.yaml / .stagerunrc.yml
//  4. .stagerun.toml
//
// JSON and YAML sources preserve the declaration order of rules. TOML maps
// carry no order, so entries from a TOML source are sorted by pattern to
// keep rule order deterministic.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arthur-debert/stagerun/pkg/errors"
	"github.com/rs/zerolog"
)

// ManifestKey is the key holding the configuration inside package.json
const ManifestKey = "stagerun"

// File names probed during discovery, in precedence order
const (
	ManifestFile = "package.json"
	RCJSONFile   = ".stagerunrc.json"
	RCYAMLFile   = ".stagerunrc.yaml"
	RCYMLFile    = ".stagerunrc.yml"
	TOMLFile     = ".stagerun.toml"
)

// Entry is one configuration rule: a glob pattern bound to an ordered
// list of commands. Single-string command values are normalized to a
// one-element list during parsing.
type Entry struct {
	Pattern  string
	Commands []string
}

// Config is the parsed configuration plus the file it came from
type Config struct {
	Entries []Entry
	Source  string
}

// Load discovers and parses the configuration in dir
func Load(dir string, logger zerolog.Logger) (*Config, error) {
	log := logger.With().Str("component", "config").Logger()

	// package.json with an embedded "stagerun" object
	manifestPath := filepath.Join(dir, ManifestFile)
	if data, err := os.ReadFile(manifestPath); err == nil {
		var manifest map[string]json.RawMessage
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", ManifestFile)
		}
		if raw, ok := manifest[ManifestKey]; ok {
			entries, err := parseJSONEntries(raw)
			if err != nil {
				return nil, err
			}
			log.Debug().Str("source", manifestPath).Int("rules", len(entries)).Msg("configuration loaded")
			return &Config{Entries: entries, Source: manifestPath}, nil
		}
	}

	// Dedicated rc files
	for _, name := range []string{RCJSONFile, RCYAMLFile, RCYMLFile, TOMLFile} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to read %s", name)
		}

		var entries []Entry
		switch name {
		case RCJSONFile:
			entries, err = parseJSONEntries(data)
		case RCYAMLFile, RCYMLFile:
			entries, err = parseYAMLEntries(data)
		case TOMLFile:
			entries, err = parseTOMLEntries(data)
		}
		if err != nil {
			return nil, err
		}

		log.Debug().Str("source", path).Int("rules", len(entries)).Msg("configuration loaded")
		return &Config{Entries: entries, Source: path}, nil
	}

	return nil, errors.Newf(errors.ErrConfigNotFound,
		"no stagerun configuration found in %s (looked for %s %q key, %s, %s, %s, %s)",
		dir, ManifestFile, ManifestKey, RCJSONFile, RCYAMLFile, RCYMLFile, TOMLFile)
}
