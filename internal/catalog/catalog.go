// Package catalog loads the seed activity catalog the registry starts from.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/mergington/internal/domain"
)

//go:embed seed.yaml
var embeddedSeed []byte

type document struct {
	Activities []activityYAML `yaml:"activities"`
}

type activityYAML struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Schedule        string   `yaml:"schedule"`
	MaxParticipants int      `yaml:"max_participants"`
	Participants    []string `yaml:"participants"`
}

// Load returns the catalog at path, or the embedded Mergington catalog when
// path is empty.
func Load(path string) ([]domain.Activity, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// Default returns the embedded seed catalog.
func Default() ([]domain.Activity, error) {
	activities, err := Parse(embeddedSeed)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return activities, nil
}

// LoadFile reads and parses a YAML catalog from disk.
func LoadFile(path string) ([]domain.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	activities, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return activities, nil
}

// Parse decodes a YAML catalog and validates every entry. Activity order in
// the document is preserved.
func Parse(data []byte) ([]domain.Activity, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(doc.Activities) == 0 {
		return nil, errors.New("catalog defines no activities")
	}

	seen := make(map[string]struct{}, len(doc.Activities))
	out := make([]domain.Activity, 0, len(doc.Activities))
	for i, entry := range doc.Activities {
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("activity %d: %w", i, err)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("activity %d: duplicate name %q", i, entry.Name)
		}
		seen[entry.Name] = struct{}{}

		out = append(out, domain.Activity{
			Name:            entry.Name,
			Description:     entry.Description,
			Schedule:        entry.Schedule,
			MaxParticipants: entry.MaxParticipants,
			Participants:    entry.Participants,
		}.Clone())
	}
	return out, nil
}

func (a activityYAML) validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("name is required")
	}
	if a.MaxParticipants <= 0 {
		return fmt.Errorf("%q: max_participants must be > 0", a.Name)
	}
	seen := make(map[string]struct{}, len(a.Participants))
	for _, email := range a.Participants {
		if _, dup := seen[email]; dup {
			return fmt.Errorf("%q: duplicate participant %q", a.Name, email)
		}
		seen[email] = struct{}{}
	}
	return nil
}
