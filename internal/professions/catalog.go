// Package professions serves the static profession catalog embedded in the
// binary.
package professions

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed professions.yaml
var catalogYAML []byte

// Profession is one catalog entry.
type Profession struct {
	Key         string `json:"key" yaml:"key"`
	Category    string `json:"category" yaml:"-"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// Category groups professions.
type Category struct {
	Key         string       `json:"key" yaml:"key"`
	Label       string       `json:"label" yaml:"label"`
	Professions []Profession `json:"-" yaml:"professions"`
	Count       int          `json:"count" yaml:"-"`
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Catalog is the read-only profession list.
type Catalog struct {
	categories  []Category
	professions []Profession
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse builds a Catalog from YAML. Profession keys must be unique.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("professions: parse catalog: %w", err)
	}
	c := &Catalog{}
	seen := map[string]bool{}
	for _, cat := range doc.Categories {
		for _, p := range cat.Professions {
			if p.Key == "" || p.Label == "" {
				return nil, fmt.Errorf("professions: entry without key or label in %q", cat.Key)
			}
			if seen[p.Key] {
				return nil, fmt.Errorf("professions: duplicate key %q", p.Key)
			}
			seen[p.Key] = true
			p.Category = cat.Key
			c.professions = append(c.professions, p)
		}
		cat.Count = len(cat.Professions)
		cat.Professions = nil
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// Filter returns the professions in category (when set) whose key, label or
// description contains search. Both comparisons ignore case.
func (c *Catalog) Filter(category, search string) []Profession {
	category = strings.TrimSpace(category)
	search = strings.ToLower(strings.TrimSpace(search))
	out := []Profession{}
	for _, p := range c.professions {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Label), search) &&
			!strings.Contains(p.Key, search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories lists categories in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}
