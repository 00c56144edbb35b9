// Package convert turns parsed DXF entities into target geometries.
//
// A Registry maps entity kinds to converter functions. Each converter
// validates its required numeric fields first and returns a typed
// validation failure instead of emitting degenerate geometry; callers
// treat that as a per-entity, non-fatal condition.
//
// The interpolation math lives here: circular and elliptic sampling,
// bulge-aware polyline tessellation, and Cox–de Boor NURBS evaluation.
// INSERT entities are not converted by the registry; the block resolver
// expands them and calls back in for the block's children.
package convert

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// DefaultCircleSegments is the shared segment count for circular,
// elliptic and spline interpolation. One uniform, configurable default
// applies to every curved entity type.
const DefaultCircleSegments = 64

// Options tunes geometry conversion.
type Options struct {
	// CircleSegments is the number of segments for a full turn. Arcs use
	// a proportional share of it. Zero means DefaultCircleSegments.
	CircleSegments int

	// ValidateGeometry enables the standalone Validate gate. Converters
	// always reject payloads with degenerate required fields; the flag
	// only controls whether Validate checks or accepts everything.
	ValidateGeometry bool

	// Logger receives per-entity conversion diagnostics. Nil discards.
	Logger *log.Logger
}

func (o Options) segments() int {
	if o.CircleSegments <= 0 {
		return DefaultCircleSegments
	}
	return o.CircleSegments
}

// Output is the result of converting one entity.
type Output struct {
	Geometry geom.Geometry

	// Properties carries non-geometric payload: text content, dimension
	// measurements, style names.
	Properties map[string]any
}

// Converter converts one entity kind.
type Converter func(e dxf.Entity, opts Options) (Output, error)

// ValidationError reports an entity whose payload fails its converter's
// shape constraints. The offending entity rides along for diagnostics.
type ValidationError struct {
	Entity dxf.Entity
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s entity invalid: %s", e.Entity.Kind(), e.Reason)
}

func invalid(e dxf.Entity, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeValidation,
		&ValidationError{Entity: e, Reason: fmt.Sprintf(format, args...)},
		"%s failed validation", e.Kind())
}

// Registry dispatches entities to their converters. A registry is
// immutable after construction and safe for concurrent use.
type Registry struct {
	converters map[dxf.Kind]Converter
	opts       Options
	logger     *log.Logger
}

// NewRegistry creates a registry with the built-in converters.
func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Registry{
		converters: make(map[dxf.Kind]Converter),
		opts:       opts,
		logger:     logger,
	}
	r.register(dxf.KindPoint, convertPoint)
	r.register(dxf.KindLine, convertLine)
	r.register(dxf.KindPolyline, convertPolyline)
	r.register(dxf.KindLWPolyline, convertPolyline)
	r.register(dxf.KindCircle, convertCircle)
	r.register(dxf.KindArc, convertArc)
	r.register(dxf.KindEllipse, convertEllipse)
	r.register(dxf.KindSpline, convertSpline)
	r.register(dxf.KindText, convertText)
	r.register(dxf.KindMText, convertMText)
	r.register(dxf.KindDimension, convertDimension)
	r.register(dxf.KindHatch, convertHatch)
	r.register(dxf.KindSolid, convertSolid)
	r.register(dxf.KindFace3D, convertFace3D)
	return r
}

func (r *Registry) register(kind dxf.Kind, c Converter) {
	r.converters[kind] = c
}

// Supports reports whether the registry can convert the given kind.
// INSERT is never supported here; it belongs to the block resolver.
func (r *Registry) Supports(kind dxf.Kind) bool {
	_, ok := r.converters[kind]
	return ok
}

// Convert produces the target geometry for e.
func (r *Registry) Convert(e dxf.Entity) (Output, error) {
	if e.Kind() == dxf.KindInsert {
		return Output{}, errors.New(errors.ErrCodeInternal,
			"INSERT entities are resolved by the block resolver, not converted directly")
	}
	c, ok := r.converters[e.Kind()]
	if !ok {
		return Output{}, errors.New(errors.ErrCodeUnsupportedEntity,
			"no converter for entity type %s", e.Kind())
	}
	out, err := c(e, r.opts)
	if err != nil {
		r.logger.Debug("conversion failed", "type", e.Kind(), "layer", e.Attrs().Layer, "err", err)
		return Output{}, err
	}
	return out, nil
}

// Validate runs only the validation gate for e, without producing
// geometry. Usable independently of Convert.
func (r *Registry) Validate(e dxf.Entity) error {
	if !r.opts.ValidateGeometry {
		return nil
	}
	c, ok := r.converters[e.Kind()]
	if !ok {
		return errors.New(errors.ErrCodeUnsupportedEntity,
			"no converter for entity type %s", e.Kind())
	}
	_, err := c(e, r.opts)
	return err
}
