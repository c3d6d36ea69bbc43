package hierarchy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "B": {"vegan": 0, "non-vegan": 60},
  "A": {
    "x": {"vegan": 30, "non-vegan": 10},
    "y": {"non-vegan": 2.5, "vegan": 1}
  }
}`

func TestDecodeKeepsDocumentOrder(t *testing.T) {
	root, err := Decode(strings.NewReader(sampleJSON), DefaultGroups)
	require.NoError(t, err)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "B", root.Children[0].Name)
	assert.Equal(t, "A", root.Children[1].Name)

	a, ok := root.Children[1].Node.(*Internal)
	require.True(t, ok)
	require.Len(t, a.Children, 2)
	assert.Equal(t, "x", a.Children[0].Name)

	y, ok := a.Children[1].Node.(*Leaf)
	require.True(t, ok)
	// weights follow group order, not key order
	assert.Equal(t, [2]float64{1, 2.5}, y.Weights)
}

func TestDecodeYAML(t *testing.T) {
	doc := `
fruit:
  apple: {vegan: 3, non-vegan: 1}
  pear:
    vegan: 2
    non-vegan: 0
dairy:
  milk: {vegan: 0, non-vegan: 9}
`
	root, err := Decode(strings.NewReader(doc), DefaultGroups)
	require.NoError(t, err)

	x, err := Extract(root, "", DefaultGroups)
	require.NoError(t, err)
	assert.Len(t, x.Leaves(), 3)
	assert.Equal(t, 15.0, x.TotalWeight())
}

func TestDecodeCustomGroups(t *testing.T) {
	doc := `{"a": {"yes": 1, "no": 2}}`
	root, err := Decode(strings.NewReader(doc), Groups{"yes", "no"})
	require.NoError(t, err)

	leaf := root.Children[0].Node.(*Leaf)
	assert.Equal(t, [2]float64{1, 2}, leaf.Weights)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"empty document", ``, ""},
		{"root is a list", `[1, 2]`, ""},
		{"root is a leaf", `{"vegan": 1, "non-vegan": 2}`, ""},
		{"missing group", `{"A": {"vegan": 1}}`, "/A"},
		{"string weight", `{"A": {"vegan": "1", "non-vegan": 2}}`, "/A/vegan"},
		{"nested weight", `{"A": {"vegan": {"x": 1}, "non-vegan": 2}}`, "/A/vegan"},
		{"scalar child", `{"A": 5}`, "/A"},
		{"empty internal", `{"A": {}}`, "/A"},
		{"leaf with children", `{"A": {"vegan": 1, "non-vegan": 2, "C": {"vegan": 1, "non-vegan": 1}}}`, "/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), DefaultGroups)
			require.Error(t, err)

			var mh *MalformedHierarchyError
			require.True(t, errors.As(err, &mh), "got %T: %v", err, err)
			assert.Equal(t, tt.path, mh.Path)
		})
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"A": `), DefaultGroups)
	require.Error(t, err)

	var mh *MalformedHierarchyError
	assert.False(t, errors.As(err, &mh))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	root, err := Load(path, DefaultGroups)
	require.NoError(t, err)
	assert.Len(t, root.Children, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), DefaultGroups)
	assert.Error(t, err)
}
