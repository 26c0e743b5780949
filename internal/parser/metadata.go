package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Required metadata keys, in the order they are checked.
const (
	FieldTitle = "title"
	FieldDate  = "date"
	FieldSlug  = "slug"
)

// Metadata is the decoded front matter of a post.
type Metadata struct {
	Title string
	Date  string
	Slug  string
}

// ParseMetadata decodes a YAML metadata block. Every required key must be
// present as a non-empty scalar; nothing is defaulted or derived. Unknown
// keys are ignored.
func ParseMetadata(block string) (Metadata, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return Metadata{}, malformedMetadata(block, err)
	}

	fields := map[string]*yaml.Node{}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return Metadata{}, malformedMetadata(block, fmt.Errorf("expected a mapping, got %s", kindName(root.Kind)))
		}
		for i := 0; i+1 < len(root.Content); i += 2 {
			key := root.Content[i].Value
			if _, dup := fields[key]; dup {
				return Metadata{}, malformedMetadata(block, fmt.Errorf("key %q defined more than once", key))
			}
			fields[key] = root.Content[i+1]
		}
	}

	var m Metadata
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{FieldTitle, &m.Title},
		{FieldDate, &m.Date},
		{FieldSlug, &m.Slug},
	} {
		v, ok := scalar(fields[f.name])
		if !ok {
			return Metadata{}, missingField(f.name)
		}
		*f.dst = v
	}
	return m, nil
}

// scalar returns the text of n when it is a non-null, non-empty scalar.
func scalar(n *yaml.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" || n.Value == "" {
		return "", false
	}
	return n.Value, true
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
