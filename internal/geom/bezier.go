package geom

import (
	"math"
	"sort"
)

// Curve is a quadratic (3 control points) or cubic (4 control points) Bézier
// curve. The parameter t runs 0..1 from the first control point to the last.
type Curve struct {
	P []Point
}

// Quad constructs a quadratic curve.
func Quad(p0, c, p1 Point) Curve {
	return Curve{P: []Point{p0, c, p1}}
}

// Cubic constructs a cubic curve.
func Cubic(p0, c0, c1, p1 Point) Curve {
	return Curve{P: []Point{p0, c0, c1, p1}}
}

// Line constructs a straight track piece as a degenerate quadratic with its
// control point at the midpoint.
func Line(a, b Point) Curve {
	return Quad(a, MidPoint(a, b), b)
}

// Start returns the curve's first control point.
func (c Curve) Start() Point { return c.P[0] }

// End returns the curve's last control point.
func (c Curve) End() Point { return c.P[len(c.P)-1] }

// Eval returns the point at parameter t (de Casteljau).
func (c Curve) Eval(t float64) Point {
	tmp := make([]Point, len(c.P))
	copy(tmp, c.P)
	for n := len(tmp) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			tmp[i] = tmp[i].Lerp(tmp[i+1], t)
		}
	}
	return tmp[0]
}

// Derivative returns the first derivative at t.
func (c Curve) Derivative(t float64) Point {
	n := len(c.P) - 1
	d := make([]Point, n)
	for i := 0; i < n; i++ {
		d[i] = c.P[i+1].Sub(c.P[i]).Scale(float64(n))
	}
	for m := len(d) - 1; m > 0; m-- {
		for i := 0; i < m; i++ {
			d[i] = d[i].Lerp(d[i+1], t)
		}
	}
	return d[0]
}

// secondDerivative returns the second derivative at t.
func (c Curve) secondDerivative(t float64) Point {
	n := len(c.P) - 1
	if n < 2 {
		return Point{}
	}
	// Second hodograph control points.
	d := make([]Point, n-1)
	for i := 0; i < n-1; i++ {
		d[i] = c.P[i+2].Sub(c.P[i+1].Scale(2)).Add(c.P[i]).Scale(float64(n * (n - 1)))
	}
	for m := len(d) - 1; m > 0; m-- {
		for i := 0; i < m; i++ {
			d[i] = d[i].Lerp(d[i+1], t)
		}
	}
	return d[0]
}

// Curvature returns the signed curvature at t. Positive bends left.
func (c Curve) Curvature(t float64) float64 {
	d1 := c.Derivative(t)
	d2 := c.secondDerivative(t)
	speed := d1.Length()
	if speed < 1e-12 {
		return 0
	}
	return d1.Cross(d2) / (speed * speed * speed)
}

// Normal returns the unit normal at t (left of the travel direction).
func (c Curve) Normal(t float64) Point {
	return c.Derivative(t).Normalize().Perp()
}

// Split subdivides the curve at t into two curves covering [0,t] and [t,1].
func (c Curve) Split(t float64) (Curve, Curve) {
	n := len(c.P)
	tmp := make([]Point, n)
	copy(tmp, c.P)
	left := make([]Point, 0, n)
	right := make([]Point, n)
	right[n-1] = tmp[n-1]
	left = append(left, tmp[0])
	for m := n - 1; m > 0; m-- {
		for i := 0; i < m; i++ {
			tmp[i] = tmp[i].Lerp(tmp[i+1], t)
		}
		left = append(left, tmp[0])
		right[m-1] = tmp[m-1]
	}
	return Curve{P: left}, Curve{P: right}
}

// SplitIn3 subdivides the curve at t0 < t1 into three curves covering
// [0,t0], [t0,t1], and [t1,1].
func (c Curve) SplitIn3(t0, t1 float64) (Curve, Curve, Curve) {
	pre, rest := c.Split(t0)
	var local float64
	if t0 < 1 {
		local = (t1 - t0) / (1 - t0)
	}
	mid, post := rest.Split(local)
	return pre, mid, post
}

// Subcurve returns the curve restricted to [t0,t1].
func (c Curve) Subcurve(t0, t1 float64) Curve {
	_, mid, _ := c.SplitIn3(t0, t1)
	return mid
}

// BBox returns the control-polygon bounding box. It is conservative: it
// always contains the curve but may be larger than the tight box.
func (c Curve) BBox() BBox {
	return BBoxOf(c.P...)
}

const lengthSamples = 32

// Length returns the approximate arc length, measured over a fixed sampling
// of the curve. The sampling is deterministic so repeated walks agree.
func (c Curve) Length() float64 {
	total := 0.0
	prev := c.P[0]
	for i := 1; i <= lengthSamples; i++ {
		p := c.Eval(float64(i) / lengthSamples)
		total += prev.Distance(p)
		prev = p
	}
	return total
}

// Project returns the nearest point on the curve to p, its parameter, and
// the distance. A coarse scan brackets the minimum, then the bracket is
// narrowed by ternary search.
func (c Curve) Project(p Point) (Point, float64, float64) {
	const coarse = 32
	bestT := 0.0
	bestD := math.Inf(1)
	for i := 0; i <= coarse; i++ {
		t := float64(i) / coarse
		d := c.Eval(t).Sub(p).Length()
		if d < bestD {
			bestD = d
			bestT = t
		}
	}
	lo := math.Max(0, bestT-1.0/coarse)
	hi := math.Min(1, bestT+1.0/coarse)
	for iter := 0; iter < 40; iter++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		d1 := c.Eval(m1).Sub(p).Length()
		d2 := c.Eval(m2).Sub(p).Length()
		if d1 < d2 {
			hi = m2
		} else {
			lo = m1
		}
	}
	t := (lo + hi) / 2
	pt := c.Eval(t)
	return pt, t, pt.Distance(p)
}

// OffsetPolyline returns a sampled polyline offset by d to the left of the
// travel direction (negative d offsets right). Used for rail rendering.
func (c Curve) OffsetPolyline(d float64, samples int) []Point {
	if samples < 2 {
		samples = 2
	}
	out := make([]Point, samples)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(samples-1)
		out[i] = c.Eval(t).Add(c.Normal(t).Scale(d))
	}
	return out
}

// Intersection is one crossing between two curves, with the parameter on
// each side.
type Intersection struct {
	TA float64
	TB float64
}

const (
	isectTol      = 1e-3
	isectMaxDepth = 18
	isectMaxRaw   = 64
)

// Intersections returns the crossings between a and b by recursive box
// subdivision. Transversal crossings yield one entry each after clustering;
// overlapping (collinear) stretches are clamped by the raw-hit cap.
func Intersections(a, b Curve) []Intersection {
	var raw []Intersection
	var rec func(ca Curve, a0, a1 float64, cb Curve, b0, b1 float64, depth int)
	rec = func(ca Curve, a0, a1 float64, cb Curve, b0, b1 float64, depth int) {
		if len(raw) >= isectMaxRaw {
			return
		}
		ba := ca.BBox()
		bb := cb.BBox()
		if !ba.Intersects(bb) {
			return
		}
		if depth >= isectMaxDepth || (ba.MaxSide() < isectTol && bb.MaxSide() < isectTol) {
			raw = append(raw, Intersection{TA: (a0 + a1) / 2, TB: (b0 + b1) / 2})
			return
		}
		al, ar := ca.Split(0.5)
		bl, br := cb.Split(0.5)
		am := (a0 + a1) / 2
		bm := (b0 + b1) / 2
		rec(al, a0, am, bl, b0, bm, depth+1)
		rec(al, a0, am, br, bm, b1, depth+1)
		rec(ar, am, a1, bl, b0, bm, depth+1)
		rec(ar, am, a1, br, bm, b1, depth+1)
	}
	rec(a, 0, 1, b, 0, 1, 0)
	return clusterIntersections(raw)
}

// clusterIntersections merges raw hits that belong to the same crossing.
func clusterIntersections(raw []Intersection) []Intersection {
	if len(raw) == 0 {
		return nil
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].TA < raw[j].TA })
	const mergeTol = 0.01
	out := make([]Intersection, 0, 4)
	sumA, sumB := raw[0].TA, raw[0].TB
	count := 1
	last := raw[0]
	for _, h := range raw[1:] {
		if h.TA-last.TA < mergeTol && math.Abs(h.TB-last.TB) < mergeTol {
			sumA += h.TA
			sumB += h.TB
			count++
		} else {
			out = append(out, Intersection{TA: sumA / float64(count), TB: sumB / float64(count)})
			sumA, sumB = h.TA, h.TB
			count = 1
		}
		last = h
	}
	out = append(out, Intersection{TA: sumA / float64(count), TB: sumB / float64(count)})
	return out
}
