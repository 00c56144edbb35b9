package pipeline

import (
	"context"
	"encoding/json"

	"github.com/geofold/dxfgeo/pkg/cache"
	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
	"github.com/geofold/dxfgeo/pkg/observability"
)

// DocumentSummary is the structural digest of a parsed drawing: header
// variables, layer inventory and entity counts, without any geometry.
// It round-trips through JSON, which makes it the unit of the parsed-
// document cache.
type DocumentSummary struct {
	CodePage        string         `json:"code_page,omitempty"`
	Units           int            `json:"units,omitempty"`
	HasExtents      bool           `json:"has_extents,omitempty"`
	ExtMin          geom.Vec3      `json:"ext_min"`
	ExtMax          geom.Vec3      `json:"ext_max"`
	Layers          []LayerStatus  `json:"layers,omitempty"`
	EntityCount     int            `json:"entity_count"`
	EntityCounts    map[string]int `json:"entity_counts,omitempty"`
	BlockCount      int            `json:"block_count,omitempty"`
	SkippedEntities int            `json:"skipped_entities,omitempty"`
	UnknownKinds    map[string]int `json:"unknown_kinds,omitempty"`
}

// LayerStatus is one layer's visibility state in a summary.
type LayerStatus struct {
	Name   string `json:"name"`
	Frozen bool   `json:"frozen,omitempty"`
	Off    bool   `json:"off,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

// Summarize digests a parsed document.
func Summarize(doc *dxf.Document) *DocumentSummary {
	s := &DocumentSummary{
		CodePage:        doc.Header.CodePage,
		Units:           doc.Header.InsUnits,
		HasExtents:      doc.Header.HasExtents,
		ExtMin:          doc.Header.ExtMin,
		ExtMax:          doc.Header.ExtMax,
		EntityCount:     len(doc.Entities),
		BlockCount:      len(doc.Blocks),
		SkippedEntities: doc.SkippedEntities,
	}
	for _, name := range doc.Layers.Names() {
		l := doc.Layers.Get(name)
		s.Layers = append(s.Layers, LayerStatus{
			Name:   l.Name,
			Frozen: l.Frozen,
			Off:    l.Off,
			Locked: l.Locked,
		})
	}
	if len(doc.Entities) > 0 {
		s.EntityCounts = make(map[string]int)
		for _, e := range doc.Entities {
			s.EntityCounts[string(e.Kind())]++
		}
	}
	if len(doc.UnknownKinds) > 0 {
		s.UnknownKinds = make(map[string]int, len(doc.UnknownKinds))
		for name, n := range doc.UnknownKinds {
			s.UnknownKinds[name] = n
		}
	}
	return s
}

// Inspect parses a drawing and returns its structural summary. Summaries
// are cached by content hash: inspecting the same bytes twice parses
// once. Options.Refresh forces a re-parse.
func (r *Runner) Inspect(ctx context.Context, opts Options) (*DocumentSummary, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	raw, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.DocumentKey(cache.Hash(raw), cache.DocumentKeyOpts{
		MemoryCeiling: opts.MemoryCeiling,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var s DocumentSummary
			if err := json.Unmarshal(data, &s); err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				return &s, nil
			}
			// Corrupt entry: fall through and re-parse.
		} else {
			observability.Cache().OnCacheMiss(ctx, "document")
		}
	}

	doc, err := dxf.ParseBytes(raw, dxf.ParseOptions{
		MemoryCeiling: opts.MemoryCeiling,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "parse %s", opts.Path)
	}

	s := Summarize(doc)
	if data, err := json.Marshal(s); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLDocument); err == nil {
			observability.Cache().OnCacheSet(ctx, "document", len(data))
		}
	}
	return s, nil
}
