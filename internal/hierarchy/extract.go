package hierarchy

import (
	"math"
	"strings"
)

// DefaultRootName is the name of the synthetic root node.
const DefaultRootName = "root"

// FlowNode is one node of the extracted network, identified by Path.
type FlowNode struct {
	Name   string
	Path   string
	Parent string // parent path, empty for the root
	Depth  int
	Leaf   bool
}

// FlowEdge points from a node to one of its direct children.
type FlowEdge struct {
	SourceName string
	TargetName string
	SourcePath string
	TargetPath string
}

// Target is one (leaf, group) pair. Weight is raw after Extract and sums to 1
// after Normalize.
type Target struct {
	Name   string
	Path   string
	Group  string
	Weight float64
}

// Extraction is the output of a single walk over the category tree.
type Extraction struct {
	Groups  Groups
	Nodes   []FlowNode
	Edges   []FlowEdge
	Targets []Target
}

// Extract walks root depth first and emits nodes, edges and raw targets.
// Children are visited in document order; every leaf yields one target per
// group, in group order.
func Extract(root *Internal, rootName string, groups Groups) (*Extraction, error) {
	if rootName == "" {
		rootName = DefaultRootName
	}
	if err := checkGroups(groups); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, malformed("", "missing root")
	}

	rootPath := "/" + rootName
	x := &Extraction{
		Groups: groups,
		Nodes:  []FlowNode{{Name: rootName, Path: rootPath}},
	}
	seen := map[string]bool{rootPath: true}

	var walk func(parent FlowNode, n *Internal) error
	walk = func(parent FlowNode, n *Internal) error {
		if len(n.Children) == 0 {
			return malformed(parent.Path, "internal node has no children")
		}
		for _, c := range n.Children {
			if c.Name == "" || strings.Contains(c.Name, "/") {
				return malformed(parent.Path, "invalid child name %q", c.Name)
			}
			path := parent.Path + "/" + c.Name
			if seen[path] {
				return malformed(path, "duplicate child name")
			}
			seen[path] = true

			node := FlowNode{
				Name:   c.Name,
				Path:   path,
				Parent: parent.Path,
				Depth:  parent.Depth + 1,
			}

			switch v := c.Node.(type) {
			case *Leaf:
				if v == nil {
					return malformed(path, "nil leaf")
				}
				if err := checkWeights(path, v); err != nil {
					return err
				}
				node.Leaf = true
				x.Nodes = append(x.Nodes, node)
				x.Edges = append(x.Edges, edge(parent, node))
				for i, g := range groups {
					x.Targets = append(x.Targets, Target{
						Name:   c.Name,
						Path:   path,
						Group:  g,
						Weight: v.Weights[i],
					})
				}
			case *Internal:
				if v == nil {
					return malformed(path, "nil internal node")
				}
				x.Nodes = append(x.Nodes, node)
				x.Edges = append(x.Edges, edge(parent, node))
				if err := walk(node, v); err != nil {
					return err
				}
			default:
				return malformed(path, "neither a leaf nor an internal node")
			}
		}
		return nil
	}

	if err := walk(x.Nodes[0], root); err != nil {
		return nil, err
	}
	return x, nil
}

func edge(from, to FlowNode) FlowEdge {
	return FlowEdge{
		SourceName: from.Name,
		TargetName: to.Name,
		SourcePath: from.Path,
		TargetPath: to.Path,
	}
}

func checkGroups(groups Groups) error {
	if groups[0] == "" || groups[1] == "" {
		return malformed("", "group names must not be empty")
	}
	if groups[0] == groups[1] {
		return malformed("", "group names must differ, both are %q", groups[0])
	}
	return nil
}

func checkWeights(path string, l *Leaf) error {
	for _, w := range l.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return malformed(path, "weight is not a finite number")
		}
		if w < 0 {
			return malformed(path, "weight %v is negative", w)
		}
	}
	return nil
}

// TotalWeight is the sum of all raw target weights.
func (x *Extraction) TotalWeight() float64 {
	var sum float64
	for _, t := range x.Targets {
		sum += t.Weight
	}
	return sum
}

// Leaves returns the leaf nodes in traversal order.
func (x *Extraction) Leaves() []FlowNode {
	var out []FlowNode
	for _, n := range x.Nodes {
		if n.Leaf {
			out = append(out, n)
		}
	}
	return out
}

// Normalized returns the targets scaled so their weights sum to 1.
func (x *Extraction) Normalized() ([]Target, error) {
	return Normalize(x.Targets)
}

// Normalize divides every weight by the total. A zero total is malformed
// since nothing could ever be spawned.
func Normalize(targets []Target) ([]Target, error) {
	var total float64
	for _, t := range targets {
		total += t.Weight
	}
	if total <= 0 {
		return nil, malformed("", "total weight is zero")
	}
	out := make([]Target, len(targets))
	for i, t := range targets {
		t.Weight /= total
		out[i] = t
	}
	return out, nil
}
