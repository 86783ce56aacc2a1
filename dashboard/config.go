package dashboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/retailscope/engine"
)

// Panel is one report view: a query plus an optional fan-out dimension.
// When Each is set the panel is evaluated once per value of that dimension,
// with an include filter for the value.
type Panel struct {
	engine.QuerySpec `yaml:",inline"`
	Each             engine.DimensionID `yaml:"each,omitempty" json:"each,omitempty"`
}

// Config is a dashboard definition.
type Config struct {
	Title    string  `yaml:"title"`
	Currency string  `yaml:"currency,omitempty"`
	Panels   []Panel `yaml:"panels"`
}

// LoadConfig reads a YAML dashboard definition from path.
func LoadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML dashboard definition.
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every panel against the catalog without touching data.
func (c *Config) Validate(opts ...engine.Option) error {
	if len(c.Panels) == 0 {
		return fmt.Errorf("dashboard %q has no panels", c.Title)
	}

	cat := engine.CatalogOf(opts...)
	seen := make(map[string]bool, len(c.Panels))
	for _, p := range c.Panels {
		if p.Name == "" {
			return fmt.Errorf("panel without a name (title %q)", p.Title)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate panel name %q", p.Name)
		}
		seen[p.Name] = true

		if err := engine.Validate(p.QuerySpec, opts...); err != nil {
			return fmt.Errorf("panel %s: %w", p.Name, err)
		}
		if err := validateEach(cat, p); err != nil {
			return fmt.Errorf("panel %s: %w", p.Name, err)
		}
	}
	return nil
}

func validateEach(cat *engine.Catalog, p Panel) error {
	if p.Each == "" {
		return nil
	}
	if _, ok := cat.LookupDimension(p.Each); !ok {
		return fmt.Errorf("%w: unknown each dimension %q", engine.ErrInvalidRequest, p.Each)
	}
	for _, d := range p.GroupBy {
		if d == p.Each {
			return fmt.Errorf("%w: each dimension %q is also grouped by", engine.ErrInvalidRequest, p.Each)
		}
	}
	return nil
}

// Select returns a copy of c holding only the named panels, in the order given.
func (c *Config) Select(names ...string) (*Config, error) {
	if len(names) == 0 {
		return c, nil
	}
	out := &Config{Title: c.Title, Currency: c.Currency}
	for _, name := range names {
		p, ok := c.Panel(name)
		if !ok {
			return nil, fmt.Errorf("unknown panel %q", name)
		}
		out.Panels = append(out.Panels, p)
	}
	return out, nil
}

// Panel returns the panel called name.
func (c *Config) Panel(name string) (Panel, bool) {
	for _, p := range c.Panels {
		if p.Name == name {
			return p, true
		}
	}
	return Panel{}, false
}
