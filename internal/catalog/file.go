package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/load-planner/internal/packing"
)

// Data is the on-disk catalog layout shared by the YAML and TOML formats.
type Data struct {
	Items      []packing.ItemType      `yaml:"items" toml:"items"`
	Containers []packing.ContainerType `yaml:"containers" toml:"containers"`
}

// LoadFile reads a catalog from a .yaml, .yml or .toml file.
func LoadFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read file: %w", err)
	}

	var data Data
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return Data{}, fmt.Errorf("parse YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(raw), &data); err != nil {
			return Data{}, fmt.Errorf("parse TOML: %w", err)
		}
	default:
		return Data{}, fmt.Errorf("%w: unsupported catalog file extension %q", ErrInvalidCatalog, ext)
	}

	if len(data.Containers) == 0 {
		return Data{}, fmt.Errorf("%w: %s defines no container types", ErrInvalidCatalog, path)
	}
	return data, nil
}

// NewMemoryCatalogFromFile loads path into a fresh MemoryCatalog.
func NewMemoryCatalogFromFile(path string) (*MemoryCatalog, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	c := &MemoryCatalog{}
	if err := c.Replace(data.Items, data.Containers); err != nil {
		return nil, err
	}
	return c, nil
}
