package layout

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
)

func defaultConfig() Config {
	return Config{
		Width:       1500,
		Height:      330,
		Margin:      Margin{Top: 10, Right: 130, Bottom: 10, Left: 10},
		Curvature:   0.7,
		NodePadding: 45,
		BandHeight:  40,
	}
}

func extract(t *testing.T, root *hierarchy.Internal) *hierarchy.Extraction {
	t.Helper()
	x, err := hierarchy.Extract(root, "", hierarchy.DefaultGroups)
	require.NoError(t, err)
	return x
}

func sampleTree() *hierarchy.Internal {
	return hierarchy.NewInternal().
		Add("A", hierarchy.NewInternal().
			Add("x", hierarchy.NewLeaf(30, 10)).
			Add("y", hierarchy.NewLeaf(1, 2))).
		Add("B", hierarchy.NewInternal().
			Add("x", hierarchy.NewLeaf(0, 60)))
}

func compute(t *testing.T, root *hierarchy.Internal, cfg Config) *Network {
	t.Helper()
	x := extract(t, root)
	net, err := Compute(x.Nodes, x.Edges, cfg)
	require.NoError(t, err)
	return net
}

func assertColumnsFit(t *testing.T, net *Network) {
	t.Helper()
	cfg := net.Config
	top := cfg.Margin.Top
	bottom := cfg.Height - cfg.Margin.Bottom
	for c, col := range net.Columns() {
		for i, n := range col {
			assert.GreaterOrEqual(t, n.Y0, top-1e-9, "column %d node %s above canvas", c, n.Path)
			assert.LessOrEqual(t, n.Y1, bottom+1e-9, "column %d node %s below canvas", c, n.Path)
			assert.InDelta(t, cfg.BandHeight, n.Y1-n.Y0, 1e-9)
			if i > 0 {
				gap := n.Y0 - col[i-1].Y1
				assert.GreaterOrEqual(t, gap, cfg.NodePadding-1e-9, "column %d gap before %s", c, n.Path)
			}
		}
	}
}

func TestComputeColumns(t *testing.T) {
	net := compute(t, sampleTree(), defaultConfig())

	cols := net.Columns()
	require.Len(t, cols, 3)
	assert.Len(t, cols[0], 1)
	assert.Len(t, cols[1], 2)
	assert.Len(t, cols[2], 3)

	assert.Equal(t, "/root", net.Root().Path)
	assert.Nil(t, net.Root().Parent())

	x, ok := net.Node("/root/B/x")
	require.True(t, ok)
	assert.Equal(t, 2, x.Column)
	assert.Equal(t, "/root/B", x.Parent().Path)

	_, ok = net.Node("/root/C")
	assert.False(t, ok)
}

func TestComputeHorizontal(t *testing.T) {
	net := compute(t, sampleTree(), defaultConfig())

	innerW := 1500.0 - 130 - 10
	assert.InDelta(t, innerW/3*0.5, net.NodeWidth, 1e-9)

	root := net.Root()
	assert.Equal(t, 10.0, root.X0)

	for _, leaf := range net.Leaves() {
		assert.InDelta(t, 10+innerW, leaf.X1, 1e-9)
	}
	// columns step left to right
	a, _ := net.Node("/root/A")
	assert.Greater(t, a.X0, root.X1)
}

func TestNodeWidthFollowsCurvature(t *testing.T) {
	cfg := defaultConfig()

	cfg.Curvature = 0
	assert.Zero(t, compute(t, sampleTree(), cfg).NodeWidth)

	cfg.Curvature = 0.2
	assert.Zero(t, compute(t, sampleTree(), cfg).NodeWidth)

	cfg.Curvature = 0.5
	smooth := compute(t, sampleTree(), cfg).NodeWidth
	cfg.Curvature = 1
	square := compute(t, sampleTree(), cfg).NodeWidth
	assert.Greater(t, square, smooth)
}

func TestComputeNoOverlap(t *testing.T) {
	assertColumnsFit(t, compute(t, sampleTree(), defaultConfig()))
}

func TestChainStaysCentred(t *testing.T) {
	root := hierarchy.NewInternal().
		Add("A", hierarchy.NewInternal().Add("x", hierarchy.NewLeaf(1, 1)))
	net := compute(t, root, defaultConfig())

	mid := 10 + 310.0/2
	for _, n := range net.Nodes {
		assert.InDelta(t, mid, n.MidY(), 1e-9, n.Path)
	}
}

func TestParentCentredOnChildren(t *testing.T) {
	root := hierarchy.NewInternal().
		Add("a", hierarchy.NewLeaf(1, 1)).
		Add("b", hierarchy.NewLeaf(1, 1))
	net := compute(t, root, defaultConfig())

	a, _ := net.Node("/root/a")
	b, _ := net.Node("/root/b")
	assert.InDelta(t, (a.MidY()+b.MidY())/2, net.Root().MidY(), 1e-9)
	assert.Less(t, a.Y0, b.Y0, "document order is kept")
}

func TestJustifyAlignment(t *testing.T) {
	root := hierarchy.NewInternal().
		Add("short", hierarchy.NewLeaf(1, 1)).
		Add("deep", hierarchy.NewInternal().Add("leaf", hierarchy.NewLeaf(1, 1)))

	cfg := defaultConfig()
	net := compute(t, root, cfg)
	short, _ := net.Node("/root/short")
	assert.Equal(t, 1, short.Column)

	cfg.Align = AlignJustify
	net = compute(t, root, cfg)
	short, _ = net.Node("/root/short")
	leaf, _ := net.Node("/root/deep/leaf")
	assert.Equal(t, 2, short.Column)
	assert.Equal(t, leaf.X0, short.X0)
	assertColumnsFit(t, net)
}

func TestLayoutOverflow(t *testing.T) {
	root := hierarchy.NewInternal()
	for i := 0; i < 5; i++ {
		root.Add(fmt.Sprintf("leaf%d", i), hierarchy.NewLeaf(1, 1))
	}
	x := extract(t, root)

	_, err := Compute(x.Nodes, x.Edges, defaultConfig())
	var overflow *LayoutOverflowError
	require.True(t, errors.As(err, &overflow), "got %v", err)
	assert.Equal(t, 1, overflow.Column)
	assert.Equal(t, 5, overflow.Count)
	assert.Equal(t, 5*40.0+4*45, overflow.Required)
	assert.Equal(t, 310.0, overflow.Available)

	cfg := defaultConfig()
	cfg.NodePadding = 10
	net, err := Compute(x.Nodes, x.Edges, cfg)
	require.NoError(t, err)
	assertColumnsFit(t, net)
}

func TestComputeRejectsBadInput(t *testing.T) {
	x := extract(t, sampleTree())

	cfg := defaultConfig()
	cfg.Margin.Left = 2000
	_, err := Compute(x.Nodes, x.Edges, cfg)
	assert.Error(t, err)

	_, err = Compute(nil, nil, defaultConfig())
	assert.Error(t, err)

	// two roots
	_, err = Compute(x.Nodes, x.Edges[1:], defaultConfig())
	assert.Error(t, err)

	edges := append([]hierarchy.FlowEdge{}, x.Edges...)
	edges = append(edges, hierarchy.FlowEdge{SourcePath: "/root/A", TargetPath: "/root/nope"})
	_, err = Compute(x.Nodes, edges, defaultConfig())
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	net := compute(t, sampleTree(), defaultConfig())

	routes := net.Routes()
	require.Len(t, routes, 3)

	var keys []string
	for _, r := range routes {
		keys = append(keys, r.Key())
		require.Len(t, r, 3)
		assert.Equal(t, "/root", r[0].Path)
		assert.Same(t, r.Leaf(), r[len(r)-1])
	}
	assert.Equal(t, []string{"/root/A/x", "/root/A/y", "/root/B/x"}, keys)
}

func TestParseAlign(t *testing.T) {
	a, err := ParseAlign("Justify")
	require.NoError(t, err)
	assert.Equal(t, AlignJustify, a)
	assert.Equal(t, "justify", a.String())

	a, err = ParseAlign("")
	require.NoError(t, err)
	assert.Equal(t, AlignDepth, a)

	_, err = ParseAlign("center")
	assert.Error(t, err)
}

func randomTree(seed int64) *hierarchy.Internal {
	rng := rand.New(rand.NewSource(seed))
	var build func(depth int) *hierarchy.Internal
	build = func(depth int) *hierarchy.Internal {
		n := hierarchy.NewInternal()
		for i, fanout := 0, 1+rng.Intn(3); i < fanout; i++ {
			name := fmt.Sprintf("n%d", i)
			if depth >= 3 || rng.Intn(2) == 0 {
				n.Add(name, hierarchy.NewLeaf(1, 1))
				continue
			}
			n.Add(name, build(depth+1))
		}
		return n
	}
	return build(1)
}

func TestLayoutProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("columns either overflow or keep padding inside the canvas", prop.ForAll(
		func(seed int64, justify bool) bool {
			x, err := hierarchy.Extract(randomTree(seed), "", hierarchy.DefaultGroups)
			if err != nil {
				return false
			}
			cfg := defaultConfig()
			cfg.Height = 800
			cfg.NodePadding = 20
			if justify {
				cfg.Align = AlignJustify
			}
			net, err := Compute(x.Nodes, x.Edges, cfg)
			if err != nil {
				var overflow *LayoutOverflowError
				return errors.As(err, &overflow)
			}
			for _, col := range net.Columns() {
				for i, n := range col {
					if n.Y0 < cfg.Margin.Top-1e-9 || n.Y1 > cfg.Height-cfg.Margin.Bottom+1e-9 {
						return false
					}
					if i > 0 && n.Y0-col[i-1].Y1 < cfg.NodePadding-1e-9 {
						return false
					}
				}
			}
			return len(net.Routes()) == len(net.Leaves())
		},
		gen.Int64(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
