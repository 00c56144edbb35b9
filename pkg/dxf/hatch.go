package dxf

import "github.com/geofold/dxfgeo/pkg/geom"

// buildHatch assembles a HATCH entity. The boundary data is positional:
// code 91 announces the path count, each path opens with a 92 type flag,
// and the meaning of codes 72/73/93 depends on whether the path is a
// polyline path (92 bit 1) or an edge list. Seed-point data after the
// last declared path is ignored.
func buildHatch(tags []Tag) (Entity, error) {
	e := &Hatch{}

	const (
		stateHeader = iota
		statePolyline
		stateEdges
	)

	var (
		state         = stateHeader
		pathsExpected int
		path          *HatchBoundary

		// Polyline path
		vertsExpected int
		vert          Vertex
		haveX         bool

		// Edge path
		edgesExpected int
		edge          *HatchEdge
		splineControl geom.Vec3
		splineStage   int
	)

	closePath := func() {
		if path == nil {
			return
		}
		if state == statePolyline && haveX {
			// A trailing X-only candidate is dropped.
			haveX = false
		}
		if edge != nil {
			path.Edges = append(path.Edges, *edge)
			edge = nil
		}
		if len(path.Vertices) > 0 || len(path.Edges) > 0 {
			e.Boundaries = append(e.Boundaries, *path)
		}
		path = nil
		state = stateHeader
	}

	startEdge := func(edgeType int) {
		if edge != nil {
			path.Edges = append(path.Edges, *edge)
		}
		edge = &HatchEdge{Type: edgeType, Ratio: 1, CCW: true}
		splineStage = 0
	}

	for _, t := range tags {
		if state == stateHeader && e.applyTag(t) {
			continue
		}

		switch t.Code {
		case 2:
			if state == stateHeader {
				e.PatternName = t.Text()
			}
		case 70:
			if state == stateHeader {
				e.Solid = t.Int() == 1
			}
		case 91:
			pathsExpected = t.Int()
		case 92:
			closePath()
			if pathsExpected <= 0 {
				continue
			}
			pathsExpected--
			path = &HatchBoundary{}
			if t.Int()&2 != 0 {
				state = statePolyline
			} else {
				state = stateEdges
			}
		case 93:
			switch state {
			case statePolyline:
				vertsExpected = t.Int()
			case stateEdges:
				edgesExpected = t.Int()
			}
		case 72:
			switch state {
			case stateEdges:
				if edgesExpected > 0 {
					edgesExpected--
					startEdge(t.Int())
				}
			case statePolyline:
				// "has bulge" flag; bulges arrive as 42 either way.
			}
		case 73:
			switch state {
			case statePolyline:
				path.Closed = t.Int() != 0
			case stateEdges:
				if edge != nil {
					edge.CCW = t.Int() != 0
				}
			}
		case 10:
			switch state {
			case statePolyline:
				if vertsExpected > 0 {
					vert = Vertex{}
					vert.X = t.Float()
					haveX = true
				}
			case stateEdges:
				if edge == nil {
					continue
				}
				switch edge.Type {
				case 1:
					edge.Start.X = t.Float()
				case 2, 3:
					edge.Center.X = t.Float()
				case 4:
					splineControl = geom.Vec3{X: t.Float()}
					splineStage = 1
				}
			}
		case 20:
			switch state {
			case statePolyline:
				if haveX {
					vert.Y = t.Float()
					path.Vertices = append(path.Vertices, vert)
					haveX = false
					vertsExpected--
				}
			case stateEdges:
				if edge == nil {
					continue
				}
				switch edge.Type {
				case 1:
					edge.Start.Y = t.Float()
				case 2, 3:
					edge.Center.Y = t.Float()
				case 4:
					if splineStage == 1 {
						splineControl.Y = t.Float()
						edge.ControlPoints = append(edge.ControlPoints, splineControl)
						splineStage = 0
					}
				}
			}
		case 42:
			switch state {
			case statePolyline:
				if n := len(path.Vertices); n > 0 {
					path.Vertices[n-1].Bulge = t.Float()
				}
			case stateEdges:
				if edge != nil && edge.Type == 4 {
					edge.Weights = append(edge.Weights, t.Float())
				}
			}
		case 11:
			if state == stateEdges && edge != nil {
				switch edge.Type {
				case 1:
					edge.End.X = t.Float()
				case 3:
					edge.MajorAxis.X = t.Float()
				}
			}
		case 21:
			if state == stateEdges && edge != nil {
				switch edge.Type {
				case 1:
					edge.End.Y = t.Float()
				case 3:
					edge.MajorAxis.Y = t.Float()
				}
			}
		case 40:
			if state == stateEdges && edge != nil {
				switch edge.Type {
				case 2:
					edge.Radius = t.Float()
				case 3:
					edge.Ratio = t.Float()
				case 4:
					edge.Knots = append(edge.Knots, t.Float())
				}
			}
		case 50:
			if state == stateEdges && edge != nil {
				edge.StartAngle = t.Float()
			}
		case 51:
			if state == stateEdges && edge != nil {
				edge.EndAngle = t.Float()
			}
		case 94:
			if state == stateEdges && edge != nil {
				edge.Degree = t.Int()
			}
		case 98:
			// Seed points follow; boundary data is complete.
			closePath()
		case 75:
			// Hatch style marks the end of boundary paths.
			closePath()
		}
	}
	closePath()
	return e, nil
}
