package layout

// Route is the chain of nodes from the root to one leaf.
type Route []*Node

// Key identifies the route by its leaf path.
func (r Route) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1].Path
}

// Leaf is the last node of the route.
func (r Route) Leaf() *Node {
	if len(r) == 0 {
		return nil
	}
	return r[len(r)-1]
}

// Routes returns one route per leaf, in depth-first document order.
func (net *Network) Routes() []Route {
	var out []Route
	var walk func(n *Node, prefix Route)
	walk = func(n *Node, prefix Route) {
		chain := make(Route, len(prefix), len(prefix)+1)
		copy(chain, prefix)
		chain = append(chain, n)
		if len(n.Children) == 0 {
			out = append(out, chain)
			return
		}
		for _, c := range n.Children {
			walk(c, chain)
		}
	}
	if net.root != nil {
		walk(net.root, nil)
	}
	return out
}
