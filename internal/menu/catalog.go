package menu

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

//go:embed default_menu.yaml
var defaultMenu []byte

// Item is a read-only catalog entry.
type Item struct {
	ID       string
	Name     string
	Price    Money
	Category string
}

type Category struct {
	Name  string
	Items []Item
}

// Catalog resolves menu items by id. It is immutable after construction.
type Catalog struct {
	categories []Category
	byID       map[string]Item
}

type fileItem struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

type fileCategory struct {
	Name  string     `yaml:"name"`
	Items []fileItem `yaml:"items"`
}

type fileMenu struct {
	Categories []fileCategory `yaml:"categories"`
}

// Default returns the built-in kiosk menu.
func Default() *Catalog {
	c, err := Parse(defaultMenu)
	if err != nil {
		panic(fmt.Sprintf("menu: embedded default menu is invalid: %v", err))
	}
	return c
}

// Load reads a YAML menu file. An empty path yields the built-in menu.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var fm fileMenu
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	if len(fm.Categories) == 0 {
		return nil, errors.New("menu has no categories")
	}
	c := &Catalog{byID: make(map[string]Item)}
	for _, fc := range fm.Categories {
		cat := Category{Name: fc.Name}
		for _, fi := range fc.Items {
			if fi.ID == "" {
				return nil, fmt.Errorf("category %q: item %q has no id", fc.Name, fi.Name)
			}
			if fi.Price < 0 {
				return nil, fmt.Errorf("item %s: negative price %v", fi.ID, fi.Price)
			}
			if _, dup := c.byID[fi.ID]; dup {
				return nil, fmt.Errorf("duplicate item id %s", fi.ID)
			}
			it := Item{ID: fi.ID, Name: fi.Name, Price: FromFloat(fi.Price), Category: fc.Name}
			c.byID[it.ID] = it
			cat.Items = append(cat.Items, it)
		}
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

func (c *Catalog) Lookup(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Categories returns a copy of the catalog in file order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for _, cat := range c.categories {
		items := make([]Item, len(cat.Items))
		copy(items, cat.Items)
		out = append(out, Category{Name: cat.Name, Items: items})
	}
	return out
}

func (c *Catalog) Len() int { return len(c.byID) }
