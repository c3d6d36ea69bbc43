// Package layout places the flow network on the canvas: one column per
// level, fixed-thickness bands, and a node width driven by curvature.
package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
)

// Align decides which column a node lands in.
type Align int

const (
	// AlignDepth puts every node at its longest-path distance from the root.
	AlignDepth Align = iota
	// AlignJustify is AlignDepth except nodes without children, which are
	// pushed to the last column.
	AlignJustify
)

// ParseAlign maps "depth" and "justify" to an Align.
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(s) {
	case "", "depth", "left":
		return AlignDepth, nil
	case "justify":
		return AlignJustify, nil
	default:
		return AlignDepth, fmt.Errorf("unknown alignment %q (use depth or justify)", s)
	}
}

func (a Align) String() string {
	if a == AlignJustify {
		return "justify"
	}
	return "depth"
}

// Margin is the space kept free around the network.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Config holds the layout constraints.
type Config struct {
	Width, Height float64
	Margin        Margin
	Curvature     float64 // [0,1]; 0 is smooth, 1 is square
	NodePadding   float64 // minimum vertical gap between nodes of a column
	BandHeight    float64
	Align         Align
}

// relaxIterations is how many barycentre passes vertical placement runs.
const relaxIterations = 6

// Node is a FlowNode with its place on the canvas.
type Node struct {
	hierarchy.FlowNode
	Column   int
	X0, X1   float64
	Y0, Y1   float64
	Children []*Node
	parent   *Node
}

// MidY is the vertical centre of the node's band.
func (n *Node) MidY() float64 {
	return (n.Y0 + n.Y1) / 2
}

// Parent returns the node's parent, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Network is the positioned flow network.
type Network struct {
	Nodes     []*Node // extraction order
	NodeWidth float64
	Config    Config

	root    *Node
	byPath  map[string]*Node
	columns [][]*Node
}

// Compute positions nodes and edges inside the canvas described by cfg.
func Compute(nodes []hierarchy.FlowNode, edges []hierarchy.FlowEdge, cfg Config) (*Network, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("layout: no nodes")
	}
	innerW := cfg.Width - cfg.Margin.Left - cfg.Margin.Right
	innerH := cfg.Height - cfg.Margin.Top - cfg.Margin.Bottom
	if innerW <= 0 || innerH <= 0 {
		return nil, fmt.Errorf("layout: margins leave no room on a %gx%g canvas", cfg.Width, cfg.Height)
	}
	if cfg.BandHeight <= 0 {
		return nil, fmt.Errorf("layout: band height must be positive, got %g", cfg.BandHeight)
	}

	net := &Network{
		Config: cfg,
		byPath: make(map[string]*Node, len(nodes)),
	}
	for _, fn := range nodes {
		if _, dup := net.byPath[fn.Path]; dup {
			return nil, fmt.Errorf("layout: duplicate node %s", fn.Path)
		}
		n := &Node{FlowNode: fn}
		net.Nodes = append(net.Nodes, n)
		net.byPath[fn.Path] = n
	}
	for _, e := range edges {
		from, ok := net.byPath[e.SourcePath]
		if !ok {
			return nil, fmt.Errorf("layout: edge from unknown node %s", e.SourcePath)
		}
		to, ok := net.byPath[e.TargetPath]
		if !ok {
			return nil, fmt.Errorf("layout: edge to unknown node %s", e.TargetPath)
		}
		if to.parent != nil {
			return nil, fmt.Errorf("layout: node %s has more than one parent", to.Path)
		}
		from.Children = append(from.Children, to)
		to.parent = from
	}

	if err := net.assignColumns(); err != nil {
		return nil, err
	}
	net.placeHorizontally(innerW)
	if err := net.placeVertically(innerH); err != nil {
		return nil, err
	}
	return net, nil
}

// assignColumns levels the DAG with Kahn's algorithm so each node's column
// is its longest-path distance from the root.
func (net *Network) assignColumns() error {
	inDegree := make(map[*Node]int, len(net.Nodes))
	for _, n := range net.Nodes {
		for _, c := range n.Children {
			inDegree[c]++
		}
	}

	var queue []*Node
	for _, n := range net.Nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	if len(queue) != 1 {
		return fmt.Errorf("layout: expected exactly one root, found %d", len(queue))
	}
	net.root = queue[0]

	visited := 0
	maxCol := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, c := range n.Children {
			if n.Column+1 > c.Column {
				c.Column = n.Column + 1
			}
			if c.Column > maxCol {
				maxCol = c.Column
			}
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if visited != len(net.Nodes) {
		return fmt.Errorf("layout: network contains a cycle")
	}

	if net.Config.Align == AlignJustify {
		for _, n := range net.Nodes {
			if len(n.Children) == 0 {
				n.Column = maxCol
			}
		}
	}

	net.columns = make([][]*Node, maxCol+1)
	for _, n := range net.Nodes {
		net.columns[n.Column] = append(net.columns[n.Column], n)
	}
	return nil
}

func (net *Network) placeHorizontally(innerW float64) {
	cfg := net.Config
	cols := len(net.columns)

	net.NodeWidth = math.Max(0, innerW/float64(cols)*(cfg.Curvature-0.2))

	kx := 0.0
	if cols > 1 {
		kx = (innerW - net.NodeWidth) / float64(cols-1)
	}
	for _, n := range net.Nodes {
		n.X0 = cfg.Margin.Left + float64(n.Column)*kx
		n.X1 = n.X0 + net.NodeWidth
	}
}

func (net *Network) placeVertically(innerH float64) error {
	cfg := net.Config
	band, pad := cfg.BandHeight, cfg.NodePadding
	top := cfg.Margin.Top

	for i, col := range net.columns {
		required := float64(len(col))*band + float64(len(col)-1)*pad
		if required > innerH {
			return &LayoutOverflowError{
				Column:    i,
				Count:     len(col),
				Required:  required,
				Available: innerH,
			}
		}
		y := top + (innerH-required)/2
		for _, n := range col {
			n.setY(y, band)
			y += band + pad
		}
	}

	for iter := 0; iter < relaxIterations; iter++ {
		// parents to the barycentre of their children
		for c := len(net.columns) - 1; c >= 0; c-- {
			for _, n := range net.columns[c] {
				if len(n.Children) == 0 {
					continue
				}
				var sum float64
				for _, ch := range n.Children {
					sum += ch.MidY()
				}
				n.setY(sum/float64(len(n.Children))-band/2, band)
			}
			net.resolveCollisions(c, innerH)
		}
		// children groups halfway towards their parent
		for c := 0; c < len(net.columns); c++ {
			for _, n := range net.columns[c] {
				if len(n.Children) == 0 {
					continue
				}
				var sum float64
				for _, ch := range n.Children {
					sum += ch.MidY()
				}
				delta := (n.MidY() - sum/float64(len(n.Children))) / 2
				for _, ch := range n.Children {
					ch.setY(ch.Y0+delta, band)
				}
			}
			for k := c + 1; k < len(net.columns); k++ {
				net.resolveCollisions(k, innerH)
			}
		}
	}
	return nil
}

// resolveCollisions keeps document order inside a column, pushes nodes down
// until the padding holds, then pulls them back up from the bottom edge.
func (net *Network) resolveCollisions(col int, innerH float64) {
	nodes := net.columns[col]
	if len(nodes) == 0 {
		return
	}
	band, pad := net.Config.BandHeight, net.Config.NodePadding
	top := net.Config.Margin.Top
	bottom := top + innerH

	y := top
	for _, n := range nodes {
		if n.Y0 < y {
			n.setY(y, band)
		}
		y = n.Y1 + pad
	}

	y = bottom
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Y1 > y {
			n.setY(y-band, band)
		}
		y = n.Y0 - pad
	}
}

func (n *Node) setY(y0, band float64) {
	n.Y0 = y0
	n.Y1 = y0 + band
}

// Node returns the positioned node with the given path.
func (net *Network) Node(path string) (*Node, bool) {
	n, ok := net.byPath[path]
	return n, ok
}

// Root returns the node without a parent.
func (net *Network) Root() *Node {
	return net.root
}

// Columns returns nodes grouped by column, top to bottom.
func (net *Network) Columns() [][]*Node {
	return net.columns
}

// Leaves returns the nodes without children in extraction order.
func (net *Network) Leaves() []*Node {
	var out []*Node
	for _, n := range net.Nodes {
		if len(n.Children) == 0 {
			out = append(out, n)
		}
	}
	return out
}
