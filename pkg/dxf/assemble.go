package dxf

import (
	"strings"

	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// builder assembles one entity kind from its collected tags.
type builder func(tags []Tag) (Entity, error)

// builders dispatches on the code-0 type name. Kinds absent here are
// counted as unknown and dropped without failing the batch.
var builders = map[Kind]builder{
	KindPoint:      buildPoint,
	KindLine:       buildLine,
	KindLWPolyline: buildLWPolyline,
	KindPolyline:   buildHeavyPolyline,
	KindCircle:     buildCircle,
	KindArc:        buildArc,
	KindEllipse:    buildEllipse,
	KindSpline:     buildSpline,
	KindInsert:     buildInsert,
	KindText:       buildText,
	KindMText:      buildMText,
	KindDimension:  buildDimension,
	KindHatch:      buildHatch,
	KindSolid:      buildSolid,
	KindFace3D:     buildFace3D,
}

func normalizeBlockName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func buildPoint(tags []Tag) (Entity, error) {
	e := &Point{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			e.Position.X = t.Float()
		case 20:
			e.Position.Y = t.Float()
		case 30:
			e.Position.Z = t.Float()
			e.HasZ = true
		}
	}
	return e, nil
}

func buildLine(tags []Tag) (Entity, error) {
	e := &Line{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			e.Start.X = t.Float()
		case 20:
			e.Start.Y = t.Float()
		case 30:
			e.Start.Z = t.Float()
			e.HasZ = true
		case 11:
			e.End.X = t.Float()
		case 21:
			e.End.Y = t.Float()
		case 31:
			e.End.Z = t.Float()
			e.HasZ = true
		}
	}
	return e, nil
}

// buildLWPolyline assembles LWPOLYLINE vertices with the stateful
// candidate protocol: code 10 opens a candidate (flushing a complete
// predecessor), code 20 completes it, codes 30 and 42 attach only to a
// complete vertex. A candidate that never receives Y is discarded.
func buildLWPolyline(tags []Tag) (Entity, error) {
	e := &Polyline{Lightweight: true}

	var candidate Vertex
	var haveX, haveY bool

	flush := func() {
		if haveX && haveY {
			e.Vertices = append(e.Vertices, candidate)
		}
		candidate = Vertex{}
		haveX, haveY = false, false
	}

	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			flush()
			candidate.X = t.Float()
			haveX = true
		case 20:
			if haveX {
				candidate.Y = t.Float()
				haveY = true
			}
		case 30:
			if haveX && haveY {
				candidate.Z = t.Float()
				candidate.HasZ = true
			}
		case 42:
			if haveX && haveY {
				candidate.Bulge = t.Float()
			}
		case 70:
			e.Closed = t.Int()&1 != 0
		case 90:
			e.DeclaredCount = t.Int()
		}
	}
	flush()
	return e, nil
}

// buildHeavyPolyline assembles the POLYLINE header; its vertices follow
// as VERTEX child entities collected by the section walker.
func buildHeavyPolyline(tags []Tag) (Entity, error) {
	e := &Polyline{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		if t.Code == 70 {
			e.Closed = t.Int()&1 != 0
		}
	}
	return e, nil
}

// buildVertex assembles one VERTEX child record. Vertices without a Y
// coordinate are reported as invalid and dropped by the caller.
func buildVertex(tags []Tag) (Vertex, bool) {
	var v Vertex
	var haveX, haveY bool
	for _, t := range tags {
		switch t.Code {
		case 10:
			v.X = t.Float()
			haveX = true
		case 20:
			v.Y = t.Float()
			haveY = true
		case 30:
			v.Z = t.Float()
			v.HasZ = true
		case 42:
			v.Bulge = t.Float()
		}
	}
	return v, haveX && haveY
}

func buildCircle(tags []Tag) (Entity, error) {
	e := &Circle{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			e.Center.X = t.Float()
		case 20:
			e.Center.Y = t.Float()
		case 30:
			e.Center.Z = t.Float()
		case 40:
			e.Radius = t.Float()
		}
	}
	return e, nil
}

func buildArc(tags []Tag) (Entity, error) {
	e := &Arc{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			e.Center.X = t.Float()
		case 20:
			e.Center.Y = t.Float()
		case 30:
			e.Center.Z = t.Float()
		case 40:
			e.Radius = t.Float()
		case 50:
			e.StartAngle = t.Float()
		case 51:
			e.EndAngle = t.Float()
		}
	}
	return e, nil
}

func buildEllipse(tags []Tag) (Entity, error) {
	e := &Ellipse{EndParam: 2 * 3.141592653589793}
	var haveStart, haveEnd bool
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			e.Center.X = t.Float()
		case 20:
			e.Center.Y = t.Float()
		case 30:
			e.Center.Z = t.Float()
		case 11:
			e.MajorAxis.X = t.Float()
		case 21:
			e.MajorAxis.Y = t.Float()
		case 31:
			e.MajorAxis.Z = t.Float()
		case 40:
			e.Ratio = t.Float()
		case 41:
			e.StartParam = t.Float()
			haveStart = true
		case 42:
			e.EndParam = t.Float()
			haveEnd = true
		}
	}
	if haveStart != haveEnd {
		return nil, errors.New(errors.ErrCodeStructuralParse,
			"ellipse has only one of start/end parameters")
	}
	return e, nil
}

func buildSpline(tags []Tag) (Entity, error) {
	e := &Spline{Degree: 3}
	var control, fit geom.Vec3
	var controlStage, fitStage int
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 70:
			e.Closed = t.Int()&1 != 0
		case 71:
			e.Degree = t.Int()
		case 40:
			e.Knots = append(e.Knots, t.Float())
		case 41:
			e.Weights = append(e.Weights, t.Float())
		case 10:
			control = geom.Vec3{X: t.Float()}
			controlStage = 1
		case 20:
			if controlStage == 1 {
				control.Y = t.Float()
				controlStage = 2
				e.ControlPoints = append(e.ControlPoints, control)
			}
		case 30:
			if controlStage == 2 {
				e.ControlPoints[len(e.ControlPoints)-1].Z = t.Float()
				controlStage = 0
			}
		case 11:
			fit = geom.Vec3{X: t.Float()}
			fitStage = 1
		case 21:
			if fitStage == 1 {
				fit.Y = t.Float()
				fitStage = 2
				e.FitPoints = append(e.FitPoints, fit)
			}
		case 31:
			if fitStage == 2 {
				e.FitPoints[len(e.FitPoints)-1].Z = t.Float()
				fitStage = 0
			}
		}
	}
	return e, nil
}

func buildInsert(tags []Tag) (Entity, error) {
	e := &Insert{Scale: geom.V3(1, 1, 1), ColumnCount: 1, RowCount: 1}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 2:
			e.BlockName = t.Text()
		case 10:
			e.Insertion.X = t.Float()
		case 20:
			e.Insertion.Y = t.Float()
		case 30:
			e.Insertion.Z = t.Float()
		case 41:
			e.Scale.X = t.Float()
		case 42:
			e.Scale.Y = t.Float()
		case 43:
			e.Scale.Z = t.Float()
		case 50:
			e.Rotation = t.Float()
		case 70:
			e.ColumnCount = t.Int()
		case 71:
			e.RowCount = t.Int()
		case 44:
			e.ColumnSpacing = t.Float()
		case 45:
			e.RowSpacing = t.Float()
		}
	}
	if e.BlockName == "" {
		return nil, errors.New(errors.ErrCodeStructuralParse, "INSERT without a block name")
	}
	if e.ColumnCount < 1 {
		e.ColumnCount = 1
	}
	if e.RowCount < 1 {
		e.RowCount = 1
	}
	return e, nil
}

func buildText(tags []Tag) (Entity, error) {
	e := &Text{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 1:
			e.Value = t.Value
		case 7:
			e.Style = t.Text()
		case 10:
			e.Position.X = t.Float()
		case 20:
			e.Position.Y = t.Float()
		case 30:
			e.Position.Z = t.Float()
		case 40:
			e.Height = t.Float()
		case 50:
			e.Rotation = t.Float()
		}
	}
	return e, nil
}

func buildMText(tags []Tag) (Entity, error) {
	e := &MText{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 1:
			// Final chunk of the text value.
			e.Value += t.Value
		case 3:
			// Continuation chunks precede code 1.
			e.Value += t.Value
		case 7:
			e.Style = t.Text()
		case 10:
			e.Position.X = t.Float()
		case 20:
			e.Position.Y = t.Float()
		case 30:
			e.Position.Z = t.Float()
		case 40:
			e.Height = t.Float()
		case 41:
			e.Width = t.Float()
		}
	}
	return e, nil
}

func buildDimension(tags []Tag) (Entity, error) {
	e := &Dimension{}
	for _, t := range tags {
		if e.applyTag(t) {
			continue
		}
		switch t.Code {
		case 1:
			e.TextOverride = t.Text()
		case 3:
			e.StyleName = strings.ToUpper(t.Text())
		case 42:
			e.Measurement = t.Float()
		case 50:
			e.Angle = t.Float()
		case 70:
			// Low three bits carry the dimension type.
			e.DimType = t.Int() & 0x07
		case 10:
			e.DefPoint.X = t.Float()
		case 20:
			e.DefPoint.Y = t.Float()
		case 30:
			e.DefPoint.Z = t.Float()
		case 11:
			e.TextMid.X = t.Float()
		case 21:
			e.TextMid.Y = t.Float()
		case 13:
			e.MeasureStart.X = t.Float()
		case 23:
			e.MeasureStart.Y = t.Float()
		case 14:
			e.MeasureEnd.X = t.Float()
		case 24:
			e.MeasureEnd.Y = t.Float()
		}
	}
	return e, nil
}

func buildSolid(tags []Tag) (Entity, error) {
	e := &Solid{}
	e.HasFourth = applyCorners(tags, &e.Common, &e.Corners)
	return e, nil
}

func buildFace3D(tags []Tag) (Entity, error) {
	e := &Face3D{}
	e.HasFourth = applyCorners(tags, &e.Common, &e.Corners)
	return e, nil
}

// applyCorners fills the 10/11/12/13 corner codes shared by SOLID and
// 3DFACE and reports whether a distinct fourth corner was present.
func applyCorners(tags []Tag, c *Common, corners *[4]geom.Vec3) bool {
	hasFourth := false
	for _, t := range tags {
		if c.applyTag(t) {
			continue
		}
		switch t.Code {
		case 10:
			corners[0].X = t.Float()
		case 20:
			corners[0].Y = t.Float()
		case 30:
			corners[0].Z = t.Float()
		case 11:
			corners[1].X = t.Float()
		case 21:
			corners[1].Y = t.Float()
		case 31:
			corners[1].Z = t.Float()
		case 12:
			corners[2].X = t.Float()
		case 22:
			corners[2].Y = t.Float()
		case 32:
			corners[2].Z = t.Float()
		case 13:
			corners[3].X = t.Float()
			hasFourth = true
		case 23:
			corners[3].Y = t.Float()
		case 33:
			corners[3].Z = t.Float()
		}
	}
	return hasFourth
}
