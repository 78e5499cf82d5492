package geom

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func pointApprox(a, b Point, tol float64) bool {
	return a.Distance(b) <= tol
}

func TestLineEval(t *testing.T) {
	c := Line(Pt(0, 0), Pt(100, 0))
	if got := c.Eval(0.5); !pointApprox(got, Pt(50, 0), 1e-9) {
		t.Fatalf("Eval(0.5) = %v, want (50,0)", got)
	}
	if got := c.Derivative(0).Normalize(); !pointApprox(got, Pt(1, 0), 1e-9) {
		t.Fatalf("Derivative(0) direction = %v, want (1,0)", got)
	}
	if got := c.Length(); !approx(got, 100, 1e-6) {
		t.Fatalf("Length = %v, want 100", got)
	}
	if k := c.Curvature(0.3); !approx(k, 0, 1e-9) {
		t.Fatalf("straight line curvature = %v, want 0", k)
	}
}

func TestSplitEndpointsMatch(t *testing.T) {
	c := Cubic(Pt(0, 0), Pt(30, 40), Pt(70, -40), Pt(100, 0))
	left, right := c.Split(0.37)
	at := c.Eval(0.37)
	if !pointApprox(left.End(), at, 1e-9) || !pointApprox(right.Start(), at, 1e-9) {
		t.Fatalf("split point mismatch: left end %v, right start %v, want %v",
			left.End(), right.Start(), at)
	}
	// Points on the halves must lie on the original curve.
	for _, s := range []float64{0.1, 0.5, 0.9} {
		want := c.Eval(0.37 * s)
		if got := left.Eval(s); !pointApprox(got, want, 1e-9) {
			t.Fatalf("left.Eval(%v) = %v, want %v", s, got, want)
		}
		want = c.Eval(0.37 + (1-0.37)*s)
		if got := right.Eval(s); !pointApprox(got, want, 1e-9) {
			t.Fatalf("right.Eval(%v) = %v, want %v", s, got, want)
		}
	}
}

func TestSplitIn3Covers(t *testing.T) {
	c := Quad(Pt(0, 0), Pt(50, 60), Pt(100, 0))
	pre, mid, post := c.SplitIn3(0.25, 0.75)
	if !pointApprox(pre.Start(), c.Eval(0), 1e-9) ||
		!pointApprox(pre.End(), c.Eval(0.25), 1e-9) ||
		!pointApprox(mid.End(), c.Eval(0.75), 1e-9) ||
		!pointApprox(post.End(), c.Eval(1), 1e-9) {
		t.Fatal("SplitIn3 boundaries do not match the parent curve")
	}
	if got := mid.Eval(0.5); !pointApprox(got, c.Eval(0.5), 1e-9) {
		t.Fatalf("mid.Eval(0.5) = %v, want %v", got, c.Eval(0.5))
	}
}

func TestProject(t *testing.T) {
	c := Line(Pt(0, 0), Pt(100, 0))
	pt, tv, dist := c.Project(Pt(40, 5))
	if !pointApprox(pt, Pt(40, 0), 1e-3) {
		t.Fatalf("projection = %v, want (40,0)", pt)
	}
	if !approx(tv, 0.4, 1e-3) {
		t.Fatalf("projection t = %v, want 0.4", tv)
	}
	if !approx(dist, 5, 1e-3) {
		t.Fatalf("projection dist = %v, want 5", dist)
	}
}

func TestIntersectionsCrossing(t *testing.T) {
	a := Line(Pt(0, -50), Pt(0, 50))
	b := Line(Pt(-50, 0), Pt(50, 0))
	hits := Intersections(a, b)
	if len(hits) != 1 {
		t.Fatalf("got %d intersections, want 1: %v", len(hits), hits)
	}
	if !approx(hits[0].TA, 0.5, 0.01) || !approx(hits[0].TB, 0.5, 0.01) {
		t.Fatalf("crossing at (%v,%v), want (0.5,0.5)", hits[0].TA, hits[0].TB)
	}
}

func TestIntersectionsCurved(t *testing.T) {
	// An arch crossing a horizontal line twice.
	a := Quad(Pt(0, -10), Pt(50, 90), Pt(100, -10))
	b := Line(Pt(-10, 20), Pt(110, 20))
	hits := Intersections(a, b)
	if len(hits) != 2 {
		t.Fatalf("got %d intersections, want 2: %v", len(hits), hits)
	}
	for _, h := range hits {
		pa := a.Eval(h.TA)
		pb := b.Eval(h.TB)
		if !pointApprox(pa, pb, 0.05) {
			t.Fatalf("intersection points disagree: %v vs %v", pa, pb)
		}
	}
}

func TestIntersectionsDisjoint(t *testing.T) {
	a := Line(Pt(0, 0), Pt(10, 0))
	b := Line(Pt(0, 5), Pt(10, 5))
	if hits := Intersections(a, b); len(hits) != 0 {
		t.Fatalf("got %v, want none", hits)
	}
}

func TestOffsetPolyline(t *testing.T) {
	c := Line(Pt(0, 0), Pt(100, 0))
	left := c.OffsetPolyline(2, 9)
	right := c.OffsetPolyline(-2, 9)
	for i, p := range left {
		if !approx(p.Y, 2, 1e-9) {
			t.Fatalf("left[%d].Y = %v, want 2", i, p.Y)
		}
	}
	for i, p := range right {
		if !approx(p.Y, -2, 1e-9) {
			t.Fatalf("right[%d].Y = %v, want -2", i, p.Y)
		}
	}
}

func TestCurvatureCircleApprox(t *testing.T) {
	// Quadratic approximating a quarter arc bends left the whole way.
	c := Quad(Pt(100, 0), Pt(100, 100), Pt(0, 100))
	for _, tv := range []float64{0.1, 0.5, 0.9} {
		if k := c.Curvature(tv); k <= 0 {
			t.Fatalf("curvature at %v = %v, want > 0", tv, k)
		}
	}
}
