// Package curriculum holds the read-only catalog of curriculum content descriptors that
// progress is tracked against: subject -> ordered list of {code, descriptor}.
package curriculum

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gradebook/internal/logging"

	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.json
var embeddedCatalog []byte

// Descriptor is one curriculum content descriptor.
type Descriptor struct {
	Code    string `yaml:"code" json:"code"`
	Text    string `yaml:"descriptor" json:"descriptor"`
	Subject string `yaml:"-" json:"-"`
}

// Subject is a named, ordered group of descriptors.
type Subject struct {
	Name        string
	Descriptors []Descriptor
}

// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	subjects []Subject
	index    map[string]Descriptor
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("curriculum: embedded catalog is invalid: %v", err))
	}
	return c
}

// Load returns the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	logging.Get(logging.CategoryCurriculum).Info("loaded %d descriptors in %d subjects from %s", c.Len(), len(c.subjects), path)
	return c, nil
}

// Parse reads a JSON or YAML document mapping subject names to descriptor lists.
// Subject order follows the document, which a plain map decode would lose.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog must map subject names to descriptor lists (line %d)", root.Line)
	}

	c := &Catalog{index: make(map[string]Descriptor)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := strings.TrimSpace(root.Content[i].Value)
		list := root.Content[i+1]
		if name == "" {
			return nil, fmt.Errorf("empty subject name (line %d)", root.Content[i].Line)
		}
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("subject %q: expected a list of descriptors (line %d)", name, list.Line)
		}

		subject := Subject{Name: name}
		for _, item := range list.Content {
			var d Descriptor
			if err := item.Decode(&d); err != nil {
				return nil, fmt.Errorf("subject %q: %w", name, err)
			}
			d.Code = strings.TrimSpace(d.Code)
			if d.Code == "" {
				return nil, fmt.Errorf("subject %q: descriptor without code (line %d)", name, item.Line)
			}
			if prev, dup := c.index[d.Code]; dup {
				return nil, fmt.Errorf("duplicate descriptor code %s in %q and %q", d.Code, prev.Subject, name)
			}
			d.Subject = name
			c.index[d.Code] = d
			subject.Descriptors = append(subject.Descriptors, d)
		}
		c.subjects = append(c.subjects, subject)
	}
	return c, nil
}

// Subjects returns the subjects in catalog order.
func (c *Catalog) Subjects() []Subject {
	out := make([]Subject, len(c.subjects))
	for i, s := range c.subjects {
		out[i] = Subject{Name: s.Name, Descriptors: append([]Descriptor(nil), s.Descriptors...)}
	}
	return out
}

// Subject returns one subject by name (case-insensitive).
func (c *Catalog) Subject(name string) (Subject, bool) {
	for _, s := range c.subjects {
		if strings.EqualFold(s.Name, name) {
			return Subject{Name: s.Name, Descriptors: append([]Descriptor(nil), s.Descriptors...)}, true
		}
	}
	return Subject{}, false
}

// Lookup finds a descriptor by code.
func (c *Catalog) Lookup(code string) (Descriptor, bool) {
	d, ok := c.index[code]
	return d, ok
}

// Has reports whether code exists in the catalog.
func (c *Catalog) Has(code string) bool {
	_, ok := c.index[code]
	return ok
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.index)
}
