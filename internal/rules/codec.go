package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// The rule file is a single mapping. A scalar value declares a simple rule,
// a mapping value a hierarchical one:
//
//	seguro: Seguro
//	MKT-REG:
//	  trigger: Mídia Regional
//	  subcategories:
//	    MKT-REG_1: Gestão Franqueador
//
// Decoding goes through yaml.Node instead of a Go map because declaration
// order is load-bearing for matching and maps would scramble it.

// Decode parses rule-file bytes into an ordered Set.
func Decode(data []byte) (Set, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return Set{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules document must be a mapping, got %s", nodeKind(root))
	}

	set := make(Set, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		rule, err := decodeRule(key.Value, value)
		if err != nil {
			return nil, err
		}
		set = append(set, rule)
	}
	return set, nil
}

func decodeRule(category string, value *yaml.Node) (Rule, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		return Rule{
			Category: category,
			Kind:     KindSimple,
			Keyword:  value.Value,
		}, nil

	case yaml.MappingNode:
		rule := Rule{Category: category, Kind: KindHierarchical}
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			switch key.Value {
			case "trigger":
				if val.Kind != yaml.ScalarNode {
					return Rule{}, fmt.Errorf("category %q: trigger must be a string", category)
				}
				rule.Trigger = val.Value
			case "subcategories":
				if val.Kind != yaml.MappingNode {
					return Rule{}, fmt.Errorf("category %q: subcategories must be a mapping", category)
				}
				for j := 0; j+1 < len(val.Content); j += 2 {
					subKey, subVal := val.Content[j], val.Content[j+1]
					if subVal.Kind != yaml.ScalarNode {
						return Rule{}, fmt.Errorf("category %q: subcategory %q must map to a keyword string", category, subKey.Value)
					}
					rule.Subcategories = append(rule.Subcategories, Subcategory{
						Name:    subKey.Value,
						Keyword: subVal.Value,
					})
				}
			default:
				return Rule{}, fmt.Errorf("category %q: unknown field %q", category, key.Value)
			}
		}
		return rule, nil

	default:
		return Rule{}, fmt.Errorf("category %q: value must be a keyword or a trigger/subcategories mapping", category)
	}
}

// Encode renders the Set back to its file form, preserving order. Decode and
// Encode round-trip without loss.
func (s Set) Encode() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range s {
		root.Content = append(root.Content, scalar(r.Category), encodeRule(r))
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return out, nil
}

func encodeRule(r Rule) *yaml.Node {
	if r.Kind == KindSimple {
		return scalar(r.Keyword)
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	if r.Trigger != "" {
		node.Content = append(node.Content, scalar("trigger"), scalar(r.Trigger))
	}
	if len(r.Subcategories) > 0 {
		subs := &yaml.Node{Kind: yaml.MappingNode}
		for _, sub := range r.Subcategories {
			subs.Content = append(subs.Content, scalar(sub.Name), scalar(sub.Keyword))
		}
		node.Content = append(node.Content, scalar("subcategories"), subs)
	}
	return node
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown"
	}
}
