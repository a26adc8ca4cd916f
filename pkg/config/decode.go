package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/stagerun/pkg/errors"
)

// parseJSONEntries decodes a JSON object of pattern -> command(s),
// preserving the key order of the document. encoding/json maps are
// unordered, so the object is walked token by token instead.
func parseJSONEntries(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse configuration")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New(errors.ErrConfigInvalid, "configuration must be a JSON object of pattern to command(s)")
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse configuration")
		}
		pattern := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse value for pattern %q", pattern)
		}

		commands, err := jsonCommands(pattern, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Pattern: pattern, Commands: commands})
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse configuration")
	}

	return entries, nil
}

// jsonCommands normalizes a JSON value into a command list: either a
// single command string or an array of command strings.
func jsonCommands(pattern string, raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	return nil, errors.Newf(errors.ErrConfigInvalid,
		"pattern %q: value must be a command string or an array of command strings", pattern)
}

// parseYAMLEntries decodes a YAML mapping of pattern -> command(s).
// yaml.Node is used rather than a map so declaration order survives.
func parseYAMLEntries(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse configuration")
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrConfigInvalid, "configuration must be a YAML mapping of pattern to command(s)")
	}

	var entries []Entry
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		pattern := keyNode.Value

		commands, err := yamlCommands(pattern, valNode)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Pattern: pattern, Commands: commands})
	}

	return entries, nil
}

func yamlCommands(pattern string, node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var command string
		if err := node.Decode(&command); err != nil {
			return nil, errors.Newf(errors.ErrConfigInvalid,
				"pattern %q: value must be a command string or a list of command strings", pattern)
		}
		return []string{command}, nil
	case yaml.SequenceNode:
		var commands []string
		if err := node.Decode(&commands); err != nil {
			return nil, errors.Newf(errors.ErrConfigInvalid,
				"pattern %q: list values must all be command strings", pattern)
		}
		return commands, nil
	default:
		return nil, errors.Newf(errors.ErrConfigInvalid,
			"pattern %q: value must be a command string or a list of command strings", pattern)
	}
}

// parseTOMLEntries decodes a TOML table of pattern -> command(s).
// TOML tables are unordered, so entries are sorted by pattern.
func parseTOMLEntries(data []byte) ([]Entry, error) {
	var table map[string]interface{}
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse configuration")
	}

	patterns := make([]string, 0, len(table))
	for pattern := range table {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	var entries []Entry
	for _, pattern := range patterns {
		commands, err := tomlCommands(pattern, table[pattern])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Pattern: pattern, Commands: commands})
	}

	return entries, nil
}

func tomlCommands(pattern string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		commands := make([]string, 0, len(v))
		for _, item := range v {
			command, ok := item.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrConfigInvalid,
					"pattern %q: list values must all be command strings, got %s", pattern, tomlTypeName(item))
			}
			commands = append(commands, command)
		}
		return commands, nil
	default:
		return nil, errors.Newf(errors.ErrConfigInvalid,
			"pattern %q: value must be a command string or an array of command strings, got %s", pattern, tomlTypeName(value))
	}
}

func tomlTypeName(value interface{}) string {
	return fmt.Sprintf("%T", value)
}
