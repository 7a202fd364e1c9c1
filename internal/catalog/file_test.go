package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const yamlCatalog = `
items:
  - id: crate
    name: Crate
    length: 1
    width: 0.5
    height: 0.5
    weight: 20
containers:
  - id: pallet
    name: Pallet
    length: 1.2
    width: 0.8
    height: 1.5
    weight_capacity: 800
`

const tomlCatalog = `
[[items]]
id = "crate"
name = "Crate"
length = 1.0
width = 0.5
height = 0.5
weight = 20.0

[[containers]]
id = "pallet"
name = "Pallet"
length = 1.2
width = 0.8
height = 1.5
weight_capacity = 800.0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewMemoryCatalogFromFile(t *testing.T) {
	for _, tc := range []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "catalog.yaml", content: yamlCatalog},
		{name: "toml", file: "catalog.toml", content: tomlCatalog},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewMemoryCatalogFromFile(writeFile(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			ctx := context.Background()
			item, err := c.ItemType(ctx, "crate")
			if err != nil {
				t.Fatalf("ItemType: %v", err)
			}
			if item.Weight != 20 || item.Length != 1 {
				t.Fatalf("unexpected item %+v", item)
			}

			container, err := c.ContainerType(ctx, "pallet")
			if err != nil {
				t.Fatalf("ContainerType: %v", err)
			}
			if container.WeightCapacity != 800 {
				t.Fatalf("expected weight capacity 800, got %v", container.WeightCapacity)
			}

			if _, err := c.ItemType(ctx, "laptop"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("file catalog should not include defaults, got %v", err)
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadFile(writeFile(t, "catalog.json", "{}")); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog for unsupported extension, got %v", err)
	}
	if _, err := LoadFile(writeFile(t, "empty.yaml", "items: []\n")); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog for catalog without containers, got %v", err)
	}
	if _, err := LoadFile(writeFile(t, "broken.yaml", "items: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
