package dxf

import "sort"

// Layer defaults per the DXF reference: layer "0" always exists, white,
// continuous line type.
const (
	DefaultLayerName  = "0"
	DefaultLayerColor = 7
	DefaultLineType   = "CONTINUOUS"
)

// Layer holds the display attributes of one drawing layer.
type Layer struct {
	Name       string
	Color      int
	LineType   string
	LineWeight int
	Frozen     bool
	Locked     bool
	Off        bool
}

// Attributes is the subset of layer state entities inherit.
type Attributes struct {
	Color      int
	LineType   string
	LineWeight int
}

// LayerTable tracks the layers of one document. It is owned by a single
// parse and is not safe for concurrent mutation.
type LayerTable struct {
	layers map[string]Layer
}

// NewLayerTable creates a table seeded with the mandatory layer "0".
func NewLayerTable() *LayerTable {
	t := &LayerTable{layers: make(map[string]Layer)}
	t.layers[DefaultLayerName] = Layer{
		Name:     DefaultLayerName,
		Color:    DefaultLayerColor,
		LineType: DefaultLineType,
	}
	return t
}

// Put inserts or replaces a layer record.
func (t *LayerTable) Put(l Layer) {
	t.layers[l.Name] = l
}

// Ensure registers name with defaults if it is not yet known. Entities on
// layers never declared in TABLES still need attribute lookups.
func (t *LayerTable) Ensure(name string) {
	if name == "" {
		return
	}
	if _, ok := t.layers[name]; !ok {
		t.layers[name] = Layer{Name: name, Color: DefaultLayerColor, LineType: DefaultLineType}
	}
}

// Get returns the layer record for name, falling back to layer "0" for
// unknown names.
func (t *LayerTable) Get(name string) Layer {
	if l, ok := t.layers[name]; ok {
		return l
	}
	return t.layers[DefaultLayerName]
}

// IsVisible reports whether entities on the layer take part in
// conversion. Locked layers stay visible: locking restricts editing, not
// rendering.
func (t *LayerTable) IsVisible(name string) bool {
	l := t.Get(name)
	return !l.Off && !l.Frozen
}

// AttributesFor returns the inheritable attributes of a layer.
func (t *LayerTable) AttributesFor(name string) Attributes {
	l := t.Get(name)
	return Attributes{Color: l.Color, LineType: l.LineType, LineWeight: l.LineWeight}
}

// Names returns the sorted layer names. Every name comes from a TABLES
// record or an entity's layer attribute, so the table never holds
// bookkeeping keys that would need filtering.
func (t *LayerTable) Names() []string {
	names := make([]string, 0, len(t.layers))
	for name := range t.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of layers.
func (t *LayerTable) Len() int {
	return len(t.layers)
}
