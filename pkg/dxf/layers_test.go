package dxf

import "testing"

func TestLayerTableDefaults(t *testing.T) {
	table := NewLayerTable()

	zero := table.Get(DefaultLayerName)
	if zero.Color != DefaultLayerColor || zero.LineType != DefaultLineType {
		t.Errorf("layer 0 = %+v", zero)
	}
	// Unknown names fall back to layer "0".
	if got := table.Get("NOWHERE"); got.Name != DefaultLayerName {
		t.Errorf("unknown layer resolved to %q", got.Name)
	}
}

func TestLayerTableReportsEveryDeclaredLayer(t *testing.T) {
	table := NewLayerTable()
	// Names that look like bookkeeping keys in other tools are still
	// legitimate layer names when a drawing declares them.
	for _, name := range []string{"WALLS", "handle", "$EXTMIN"} {
		table.Put(Layer{Name: name, Color: 1, LineType: DefaultLineType})
	}
	table.Ensure("TREES")

	names := table.Names()
	if len(names) != 5 || table.Len() != 5 {
		t.Fatalf("names = %v, Len = %d, want 5 layers", names, table.Len())
	}
	want := []string{"$EXTMIN", "0", "TREES", "WALLS", "handle"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestLayerTableVisibility(t *testing.T) {
	table := NewLayerTable()
	table.Put(Layer{Name: "FROZEN", Frozen: true})
	table.Put(Layer{Name: "OFF", Off: true})
	table.Put(Layer{Name: "LOCKED", Locked: true})

	if table.IsVisible("FROZEN") || table.IsVisible("OFF") {
		t.Error("frozen and off layers must be invisible")
	}
	// Locking restricts editing, not rendering.
	if !table.IsVisible("LOCKED") {
		t.Error("locked layer should stay visible")
	}
}
