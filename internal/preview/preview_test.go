package preview

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/geom"
	"github.com/trackforge/engine/internal/track"
)

// twoTrackGraph builds two parallel straight tracks so hit-tests can land
// on a dead-end joint, a through joint, a curve, a shoulder, or nothing.
func twoTrackGraph(t *testing.T) *track.Graph {
	t.Helper()
	g := track.NewGraph(zap.NewNop())
	a := g.CreateNewEmptyJoint(geom.Pt(0, 0), geom.Pt(1, 0), 0)
	b := g.CreateNewEmptyJoint(geom.Pt(100, 0), geom.Pt(1, 0), 0)
	c := g.CreateNewEmptyJoint(geom.Pt(200, 0), geom.Pt(1, 0), 0)
	if !g.ConnectJoints(a, b, nil) || !g.ConnectJoints(b, c, nil) {
		t.Fatal("connect failed")
	}
	return g
}

func TestClassifyKinds(t *testing.T) {
	g := twoTrackGraph(t)

	cases := []struct {
		name string
		at   geom.Point
		want Kind
	}{
		{"miss", geom.Pt(50, 30), KindNew},
		{"dead end joint", geom.Pt(0, 0), KindExtendingTrack},
		{"through joint", geom.Pt(100, 0), KindBranchJoint},
		{"mid curve", geom.Pt(50, 0.2), KindBranchCurve},
		{"shoulder", geom.Pt(50, track.DefaultGauge), KindConstrained},
	}
	for _, tc := range cases {
		ep := Classify(g, tc.at, g.Project(tc.at))
		if ep.Kind != tc.want {
			t.Errorf("%s: kind = %v, want %v", tc.name, ep.Kind, tc.want)
		}
	}
}

func TestCurveFamilyTable(t *testing.T) {
	free := func(p geom.Point) Endpoint { return Endpoint{Kind: KindNew, Position: p} }
	con := func(p, tan geom.Point) Endpoint {
		return Endpoint{Kind: KindConstrained, Position: p, Tangent: tan}
	}

	// Free to free: straight line.
	c := Curve(free(geom.Pt(0, 0)), free(geom.Pt(10, 10)))
	mid := c.Eval(0.5)
	if mid.Distance(geom.Pt(5, 5)) > 1e-9 {
		t.Fatalf("free-free midpoint = %+v", mid)
	}

	// Constrained start: quadratic leaving along the start tangent.
	c = Curve(con(geom.Pt(0, 0), geom.Pt(0, 1)), free(geom.Pt(10, 10)))
	if n := len(ControlPoints(con(geom.Pt(0, 0), geom.Pt(0, 1)), free(geom.Pt(10, 10)))); n != 1 {
		t.Fatalf("start-constrained control points = %d, want 1", n)
	}
	d0 := c.Derivative(0).Normalize()
	if math.Abs(d0.X) > 1e-9 || d0.Y < 0.99 {
		t.Fatalf("start tangent not honored: %+v", d0)
	}

	// Constrained end: quadratic arriving along the end tangent.
	c = Curve(free(geom.Pt(0, 0)), con(geom.Pt(10, 10), geom.Pt(0, 1)))
	d1 := c.Derivative(1).Normalize()
	if math.Abs(d1.X) > 1e-9 || math.Abs(math.Abs(d1.Y)-1) > 1e-9 {
		t.Fatalf("end tangent not honored: %+v", d1)
	}

	// Both constrained: cubic honoring both tangents.
	a := con(geom.Pt(0, 0), geom.Pt(1, 0))
	b := con(geom.Pt(10, 10), geom.Pt(1, 0))
	if n := len(ControlPoints(a, b)); n != 2 {
		t.Fatalf("both-constrained control points = %d, want 2", n)
	}
	c = Curve(a, b)
	d0 = c.Derivative(0).Normalize()
	d1 = c.Derivative(1).Normalize()
	if math.Abs(d0.Y) > 1e-9 || math.Abs(d1.Y) > 1e-9 {
		t.Fatalf("cubic tangents not honored: %+v %+v", d0, d1)
	}
}

func TestTangentOrientationFlips(t *testing.T) {
	// An extending tangent pointing away from the target flips so the
	// control point still lies between the endpoints.
	a := Endpoint{Kind: KindExtendingTrack, Position: geom.Pt(0, 0), Tangent: geom.Pt(-1, 0)}
	b := Endpoint{Kind: KindNew, Position: geom.Pt(10, 0)}
	ctrl := ControlPoints(a, b)
	if len(ctrl) != 1 || ctrl[0].X <= 0 {
		t.Fatalf("control = %+v, want flipped toward the target", ctrl)
	}
}
