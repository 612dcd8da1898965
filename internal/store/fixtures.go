package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures is reference data loaded into a MemoryStore at start-up.
type Fixtures struct {
	Users     []User     `yaml:"users"`
	Campaigns []Campaign `yaml:"campaigns"`
	Segments  []Segment  `yaml:"segments"`
	Emails    []Email    `yaml:"emails"`
}

// LoadFixtures reads a YAML fixtures file.
func LoadFixtures(path string) (Fixtures, error) {
	var f Fixtures
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return f, nil
}
