package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogFile is the conventional catalog file name inside .lectern.
const DefaultCatalogFile = "catalog.yaml"

// ParseCatalogYAML decodes a catalog from YAML/JSON bytes, fills defaults, and
// validates the result.
func ParseCatalogYAML(data []byte) (Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Catalog{}, fmt.Errorf("catalog: payload is empty")
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("catalog: decode: %w", err)
	}
	cat.applyDefaults()
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

// LoadCatalogReader reads catalog data from an io.Reader.
func LoadCatalogReader(r io.Reader) (Catalog, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read: %w", err)
	}
	return ParseCatalogYAML(content)
}

// LoadCatalogFile loads a catalog from an explicit file path.
func LoadCatalogFile(path string) (Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, parseErr := ParseCatalogYAML(content)
	if parseErr != nil {
		return Catalog{}, fmt.Errorf("catalog: %s: %w", path, parseErr)
	}
	return cat, nil
}

// MarshalYAML encodes the catalog for writing back to disk.
func MarshalYAML(cat Catalog) ([]byte, error) {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return data, nil
}
