package ingest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one scanned page.
type Entry struct {
	Name  string `yaml:"name" json:"name"`
	Text  string `yaml:"text" json:"text"`
	Mood  string `yaml:"mood" json:"mood"`
	Image string `yaml:"image" json:"image"`
}

// Manifest lists pages in reading order.
type Manifest struct {
	Pages []Entry `yaml:"pages" json:"pages"`
}

// ParseManifest decodes a YAML or JSON manifest. A bare list of entries is
// accepted as well as the {pages: [...]} form.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return m, fmt.Errorf("manifest is empty")
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "-") {
		if err := yaml.Unmarshal(data, &m.Pages); err != nil {
			return Manifest{}, fmt.Errorf("parse manifest: %w", err)
		}
		return m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}
