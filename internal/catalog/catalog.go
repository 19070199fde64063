// Package catalog serves the static product catalog feedback is attached to.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
)

//go:embed products.yaml
var defaultCatalog []byte

type document struct {
	Products []domain.Product `yaml:"products"`
}

// Catalog is an immutable, ordered set of products.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Every product needs a unique, non-empty id.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products: doc.Products,
		byID:     make(map[string]int, len(doc.Products)),
	}
	for i, p := range doc.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog product id %q is duplicated", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// All returns every product in catalog order.
func (c *Catalog) All() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// ByCategory returns the products whose category matches case-insensitively.
func (c *Catalog) ByCategory(category string) []domain.Product {
	out := []domain.Product{}
	for _, p := range c.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}
