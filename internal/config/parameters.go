package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parameter is a single plugin parameter
type Parameter struct {
	Key   string
	Value string
}

// Parameters is an ordered list of plugin parameters. In YAML it is written
// as a mapping; the mapping order is preserved.
type Parameters []Parameter

// Get returns the value of key
func (p Parameters) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// UnmarshalYAML decodes a YAML mapping of scalar values
func (p *Parameters) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", value.Line)
	}

	params := make(Parameters, 0, len(value.Content)/2)
	seen := make(map[string]bool, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valueNode := value.Content[i], value.Content[i+1]
		if valueNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: parameter %q must be a scalar value", valueNode.Line, keyNode.Value)
		}
		if seen[keyNode.Value] {
			return fmt.Errorf("line %d: duplicate parameter %q", keyNode.Line, keyNode.Value)
		}
		seen[keyNode.Value] = true
		params = append(params, Parameter{Key: keyNode.Value, Value: valueNode.Value})
	}

	*p = params
	return nil
}

// MarshalYAML encodes the parameters as a mapping in their original order
func (p Parameters) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, param := range p {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: param.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: param.Value},
		)
	}
	return node, nil
}
