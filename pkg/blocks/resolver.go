// Package blocks expands INSERT references into concrete geometry.
//
// Block definitions are converted once through the geometry registry and
// the resulting feature set is cached against the block name in a bounded
// LRU cache. Each INSERT then replays the cached set through its own
// affine transform (translation, Z rotation, non-uniform scale) and,
// for MINSERT-style arrays, a per-cell grid translation.
//
// Recursion is guarded twice: a depth counter bounds legitimate nesting,
// and the set of block names on the current expansion stack fails a true
// cycle fast. Either condition fails only the offending INSERT, never its
// siblings.
package blocks

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/geofold/dxfgeo/pkg/convert"
	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// Defaults for resolver construction.
const (
	DefaultMaxDepth  = 5
	DefaultCacheSize = 128
)

// Resolved is one concrete geometry produced by expanding a block child.
type Resolved struct {
	EntityType dxf.Kind
	Attributes dxf.Common
	Geometry   geom.Geometry
	Properties map[string]any
}

func (r Resolved) clone() Resolved {
	out := r
	out.Geometry = r.Geometry.Clone()
	return out
}

// Options configures a Resolver.
type Options struct {
	// MaxDepth bounds INSERT nesting. Zero means DefaultMaxDepth.
	MaxDepth int

	// CacheSize bounds the block-definition cache. Zero means
	// DefaultCacheSize.
	CacheSize int

	// Logger receives expansion diagnostics. Nil discards.
	Logger *log.Logger
}

// Resolver expands INSERT entities against a document's block inventory.
// Lookups are safe for concurrent use; cache population is serialized so
// a block is converted at most once per resolver.
type Resolver struct {
	defs     map[string]*dxf.Block
	registry *convert.Registry
	cache    *lru.Cache[string, []Resolved]
	maxDepth int
	logger   *log.Logger

	// populate serializes first-time conversion of a block definition.
	populate sync.Mutex
}

// NewResolver creates a resolver over the given block definitions.
func NewResolver(defs map[string]*dxf.Block, registry *convert.Registry, opts Options) (*Resolver, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	cache, err := lru.New[string, []Resolved](cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create block cache")
	}

	if defs == nil {
		defs = map[string]*dxf.Block{}
	}
	return &Resolver{
		defs:     defs,
		registry: registry,
		cache:    cache,
		maxDepth: maxDepth,
		logger:   logger,
	}, nil
}

// ClearCache drops all cached block feature sets.
func (r *Resolver) ClearCache() {
	r.cache.Purge()
}

// CacheLen reports how many block feature sets are cached.
func (r *Resolver) CacheLen() int {
	return r.cache.Len()
}

// Resolve expands one INSERT into transformed features. A missing block,
// excessive nesting depth or a definition cycle fails this INSERT only.
func (r *Resolver) Resolve(ins *dxf.Insert) ([]Resolved, error) {
	name := normalizeName(ins.BlockName)
	base, err := r.expand(name, 1, map[string]bool{})
	if err != nil {
		return nil, err
	}

	cols, rows := ins.ColumnCount, ins.RowCount
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	insert := geom.InsertTransform(ins.Insertion, ins.Rotation, ins.Scale)

	out := make([]Resolved, 0, len(base)*cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := insert
			if col > 0 || row > 0 {
				offset := geom.Translate(
					float64(col)*ins.ColumnSpacing,
					float64(row)*ins.RowSpacing,
					0,
				)
				cell = offset.Mul(insert)
			}
			for _, f := range base {
				g := f.clone()
				g.Geometry.Transform(cell)
				out = append(out, g)
			}
		}
	}
	return out, nil
}

// expand returns the named block's feature set in block-local
// coordinates, converting and caching it on first use. Population takes
// the global populate lock once at the outermost call; recursion stays
// inside expandLocked to keep the lock non-reentrant.
func (r *Resolver) expand(name string, depth int, stack map[string]bool) ([]Resolved, error) {
	if depth > r.maxDepth {
		return nil, errors.New(errors.ErrCodeBlockResolution,
			"block nesting depth %d exceeds maximum %d at %q", depth, r.maxDepth, name)
	}

	if cached, ok := r.cache.Get(name); ok {
		return cached, nil
	}

	r.populate.Lock()
	defer r.populate.Unlock()
	return r.expandLocked(name, depth, stack)
}

func (r *Resolver) expandLocked(name string, depth int, stack map[string]bool) ([]Resolved, error) {
	if depth > r.maxDepth {
		return nil, errors.New(errors.ErrCodeBlockResolution,
			"block nesting depth %d exceeds maximum %d at %q", depth, r.maxDepth, name)
	}
	if stack[name] {
		return nil, errors.New(errors.ErrCodeBlockResolution,
			"block %q references itself (definition cycle)", name)
	}

	if cached, ok := r.cache.Get(name); ok {
		return cached, nil
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeBlockResolution,
			"block %q is not defined", name)
	}

	stack[name] = true
	defer delete(stack, name)

	features := make([]Resolved, 0, len(def.Entities))
	for _, child := range def.Entities {
		if nested, ok := child.(*dxf.Insert); ok {
			sub, err := r.expandLocked(normalizeName(nested.BlockName), depth+1, stack)
			if err != nil {
				return nil, err
			}
			m := geom.InsertTransform(nested.Insertion, nested.Rotation, nested.Scale)
			for _, f := range sub {
				g := f.clone()
				g.Geometry.Transform(m)
				features = append(features, g)
			}
			continue
		}

		out, err := r.registry.Convert(child)
		if err != nil {
			// One bad child never poisons the whole block.
			r.logger.Debug("skipping block child", "block", name, "type", child.Kind(), "err", err)
			continue
		}
		features = append(features, Resolved{
			EntityType: child.Kind(),
			Attributes: *child.Attrs(),
			Geometry:   out.Geometry,
			Properties: out.Properties,
		})
	}

	// Shift into block-local space relative to the base point.
	if def.Base.X != 0 || def.Base.Y != 0 || def.Base.Z != 0 {
		shift := geom.Translate(-def.Base.X, -def.Base.Y, -def.Base.Z)
		for i := range features {
			features[i].Geometry.Transform(shift)
		}
	}

	r.cache.Add(name, features)
	return features, nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
