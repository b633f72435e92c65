package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dynmesh/dictionary"
)

// KeyValue is a keyword and its value.
type KeyValue struct {
	Key   string
	Value string
}

// ModifierConfig is a named modifier with its keywords in file order.
type ModifierConfig struct {
	Name    string     `validate:"required"`
	Entries []KeyValue `validate:"min=1"`
}

// UnmarshalYAML reads a mapping of scalars. The "name" key names the
// modifier, all other keys become entries.
func (m *ModifierConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: modifier must be a mapping", value.Line)
	}

	*m = ModifierConfig{}

	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]

		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of %s must be a scalar",
				v.Line, k.Value)
		}

		if k.Value == "name" {
			m.Name = v.Value
			continue
		}

		m.Entries = append(m.Entries, KeyValue{Key: k.Value, Value: v.Value})
	}

	return nil
}

// MarshalYAML writes the modifier back as a mapping.
func (m ModifierConfig) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}

	add := func(k, v string) {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v},
		)
	}

	add("name", m.Name)
	for _, e := range m.Entries {
		add(e.Key, e.Value)
	}

	return n, nil
}

// Dict returns the modifier as a keyword dictionary.
func (m ModifierConfig) Dict() *dictionary.Dict {
	d := dictionary.New(m.Name)
	for _, e := range m.Entries {
		d.Set(e.Key, e.Value)
	}

	return d
}

// ModifierDict returns a dictionary with one sub-dictionary per modifier.
func (c *Case) ModifierDict() *dictionary.Dict {
	d := dictionary.New("modifiers")
	for _, m := range c.Modifiers {
		d.Add(m.Dict())
	}

	return d
}

// FromDict turns a keyword dictionary back into a modifier entry.
func FromDict(d *dictionary.Dict) ModifierConfig {
	m := ModifierConfig{Name: d.Name()}

	for _, k := range d.Keys() {
		v, ok := d.Lookup(k)
		if !ok {
			continue
		}

		m.Entries = append(m.Entries, KeyValue{Key: k, Value: v})
	}

	return m
}
