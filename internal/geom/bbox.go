package geom

import "math"

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// EmptyBBox returns a box that unions as the identity.
func EmptyBBox() BBox {
	return BBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// BBoxAround returns a square box of half-size r centered on p.
func BBoxAround(p Point, r float64) BBox {
	return BBox{MinX: p.X - r, MinY: p.Y - r, MaxX: p.X + r, MaxY: p.Y + r}
}

// BBoxOf returns the bounding box of the given points.
func BBoxOf(pts ...Point) BBox {
	b := EmptyBBox()
	for _, p := range pts {
		b = b.ExpandPoint(p)
	}
	return b
}

// Intersects reports whether b and o overlap (touching counts).
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX &&
		b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// ExpandPoint returns b grown to cover p.
func (b BBox) ExpandPoint(p Point) BBox {
	return BBox{
		MinX: math.Min(b.MinX, p.X),
		MinY: math.Min(b.MinY, p.Y),
		MaxX: math.Max(b.MaxX, p.X),
		MaxY: math.Max(b.MaxY, p.Y),
	}
}

// Area returns the box area.
func (b BBox) Area() float64 {
	if b.MaxX < b.MinX || b.MaxY < b.MinY {
		return 0
	}
	return (b.MaxX - b.MinX) * (b.MaxY - b.MinY)
}

// Enlargement returns how much b's area grows when extended to cover o.
func (b BBox) Enlargement(o BBox) float64 {
	return b.Union(o).Area() - b.Area()
}

// MaxSide returns the longer side length.
func (b BBox) MaxSide() float64 {
	w := b.MaxX - b.MinX
	h := b.MaxY - b.MinY
	return math.Max(w, h)
}
