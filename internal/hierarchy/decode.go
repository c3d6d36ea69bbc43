package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a hierarchy document from a JSON or YAML file.
func Load(path string, groups Groups) (*Internal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hierarchy: %w", err)
	}
	defer f.Close()

	return Decode(f, groups)
}

// Decode reads a hierarchy document. JSON is accepted as a subset of YAML;
// the node API keeps mapping keys in document order, which is the order
// nodes are laid out in.
func Decode(r io.Reader, groups Groups) (*Internal, error) {
	if err := checkGroups(groups); err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed("", "empty document")
		}
		return nil, fmt.Errorf("decode hierarchy: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, malformed("", "empty document")
		}
		root = root.Content[0]
	}

	n, err := decodeNode(root, "", groups)
	if err != nil {
		return nil, err
	}
	in, ok := n.(*Internal)
	if !ok {
		return nil, malformed("", "root must contain categories, not group weights")
	}
	return in, nil
}

func decodeNode(n *yaml.Node, path string, groups Groups) (Node, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, malformed(path, "expected a mapping, found %s", kindName(n))
	}

	var (
		weights [2]float64
		found   [2]bool
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		gi := groups.Index(key)
		if gi < 0 {
			continue
		}
		w, err := decodeWeight(n.Content[i+1], path+"/"+key)
		if err != nil {
			return nil, err
		}
		weights[gi] = w
		found[gi] = true
	}

	switch {
	case found[0] && found[1]:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			if groups.Index(key) < 0 && val.Kind == yaml.MappingNode {
				return nil, malformed(path, "leaf also has child %q", key)
			}
		}
		return &Leaf{Weights: weights}, nil
	case found[0] || found[1]:
		missing := groups[0]
		if found[0] {
			missing = groups[1]
		}
		return nil, malformed(path, "leaf is missing group %q", missing)
	}

	in := &Internal{}
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		childPath := path + "/" + key
		if seen[key] {
			return nil, malformed(childPath, "duplicate key")
		}
		seen[key] = true

		child, err := decodeNode(n.Content[i+1], childPath, groups)
		if err != nil {
			return nil, err
		}
		in.Children = append(in.Children, Child{Name: key, Node: child})
	}
	if len(in.Children) == 0 {
		return nil, malformed(path, "internal node has no children")
	}
	return in, nil
}

func decodeWeight(n *yaml.Node, path string) (float64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, malformed(path, "weight must be a number, found %s", kindName(n))
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
	default:
		return 0, malformed(path, "weight %q is not a number", n.Value)
	}
	var w float64
	if err := n.Decode(&w); err != nil {
		return 0, malformed(path, "weight %q: %v", n.Value, err)
	}
	return w, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar " + n.Value
	case yaml.SequenceNode:
		return "a list"
	case yaml.MappingNode:
		return "a mapping"
	default:
		return "nothing"
	}
}
