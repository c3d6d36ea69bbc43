// Package hierarchy turns a nested category tree into the flat node, edge and
// target sets the flow network is built from.
package hierarchy

// Groups names the two weight fields every leaf carries, in order.
type Groups [2]string

// DefaultGroups are the group names used when the configuration names none.
var DefaultGroups = Groups{"vegan", "non-vegan"}

// Index returns the position of key in g, or -1.
func (g Groups) Index(key string) int {
	for i, k := range g {
		if k == key {
			return i
		}
	}
	return -1
}

// Node is either a *Leaf or an *Internal.
type Node interface {
	isNode()
}

// Leaf is a category with no children. Weights follow Groups order.
type Leaf struct {
	Weights [2]float64
}

// Internal is a category whose children keep document order.
type Internal struct {
	Children []Child
}

// Child is a named entry of an Internal node.
type Child struct {
	Name string
	Node Node
}

func (*Leaf) isNode()     {}
func (*Internal) isNode() {}

// NewLeaf returns a leaf with the two group weights.
func NewLeaf(a, b float64) *Leaf {
	return &Leaf{Weights: [2]float64{a, b}}
}

// NewInternal returns an internal node holding children in the given order.
func NewInternal(children ...Child) *Internal {
	return &Internal{Children: children}
}

// Add appends a named child and returns the receiver for chaining.
func (n *Internal) Add(name string, child Node) *Internal {
	n.Children = append(n.Children, Child{Name: name, Node: child})
	return n
}
