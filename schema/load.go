package schema

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

var validate = validator.New()

// Parse reads a catalog from YAML or JSON bytes and validates it.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Load reads and validates a catalog file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks required fields and rejects duplicate ids.
func (c Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.KPIs))
	for _, k := range c.KPIs {
		if seen[k.ID] {
			return fmt.Errorf("invalid catalog: duplicate kpi id %q", k.ID)
		}
		seen[k.ID] = true
	}
	seen = make(map[string]bool, len(c.FormFields))
	for _, f := range c.FormFields {
		if seen[f.ID] {
			return fmt.Errorf("invalid catalog: duplicate form field id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}
