// Package reconcile maps tagged facts onto the canonical two-period statement.
package reconcile

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/forensics/internal/financials"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog maps canonical fields to tag aliases in priority order. A Catalog
// is immutable once built; accessors return copies.
type Catalog struct {
	aliases map[financials.Field][]string
}

type catalogFile struct {
	Catalog map[string][]string `yaml:"catalog"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog override from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog YAML with a top-level "catalog" key.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "reconcile: parse catalog")
	}
	if len(file.Catalog) == 0 {
		return nil, eris.New("reconcile: catalog is empty")
	}

	c := &Catalog{aliases: make(map[financials.Field][]string, len(file.Catalog))}
	var errs []string
	for name, tags := range file.Catalog {
		f, ok := financials.ParseField(name)
		if !ok {
			errs = append(errs, "unknown field "+name)
			continue
		}
		var clean []string
		for _, t := range tags {
			if t = strings.TrimSpace(t); t != "" {
				clean = append(clean, t)
			}
		}
		if len(clean) == 0 {
			errs = append(errs, "no aliases for "+name)
			continue
		}
		c.aliases[f] = clean
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, eris.Errorf("reconcile: invalid catalog: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Candidates returns the aliases for f in priority order.
func (c *Catalog) Candidates(f financials.Field) []string {
	return append([]string(nil), c.aliases[f]...)
}

// Fields returns the fields that have aliases, in field order.
func (c *Catalog) Fields() []financials.Field {
	var out []financials.Field
	for _, f := range financials.Fields() {
		if _, ok := c.aliases[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// YAML renders the catalog in the same shape ParseCatalog accepts.
func (c *Catalog) YAML() ([]byte, error) {
	file := catalogFile{Catalog: make(map[string][]string, len(c.aliases))}
	for f, tags := range c.aliases {
		file.Catalog[f.String()] = append([]string(nil), tags...)
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: marshal catalog")
	}
	return data, nil
}
