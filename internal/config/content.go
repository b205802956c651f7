package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ContentConfig is one bundle content entry: a path or glob given as a plain
// string, or a reference to another named bundle written as {bundle: name}.
type ContentConfig struct {
	Path   string
	Bundle string
}

// UnmarshalYAML accepts either a scalar or a {bundle: name} mapping.
func (c *ContentConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&c.Path)
	case yaml.MappingNode:
		var ref struct {
			Bundle string `yaml:"bundle"`
		}
		if err := node.Decode(&ref); err != nil {
			return err
		}
		if ref.Bundle == "" {
			return fmt.Errorf("line %d: content mapping needs a bundle key", node.Line)
		}
		c.Bundle = ref.Bundle
		return nil
	default:
		return fmt.Errorf("line %d: content entry must be a string or {bundle: name}", node.Line)
	}
}

// MarshalYAML writes the short form used by UnmarshalYAML.
func (c ContentConfig) MarshalYAML() (any, error) {
	if c.Bundle != "" {
		return map[string]string{"bundle": c.Bundle}, nil
	}
	return c.Path, nil
}

// IsBundle reports whether the entry references another bundle.
func (c ContentConfig) IsBundle() bool { return c.Bundle != "" }
