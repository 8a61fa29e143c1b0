package vmath

import "sort"

// CurvePoint is one (x, y) sample of a LinearCurve
type CurvePoint struct {
	X float64 `mapstructure:"x" toml:"x"`
	Y float64 `mapstructure:"y" toml:"y"`
}

// LinearCurve is a piecewise linear function sampled at ordered points
// Lookups outside the sampled range clamp to the first/last point
// Used for tire friction (slip -> multiplier) and engine torque (rpm -> torque fraction)
type LinearCurve struct {
	Points []CurvePoint `mapstructure:"points" toml:"points"`
}

// NewLinearCurve builds a sorted curve from points
func NewLinearCurve(points ...CurvePoint) LinearCurve {
	c := LinearCurve{Points: append([]CurvePoint(nil), points...)}
	c.Sort()
	return c
}

// AddPoint appends a sample, call Sort before lookups if points were added out of order
func (c *LinearCurve) AddPoint(x, y float64) {
	c.Points = append(c.Points, CurvePoint{X: x, Y: y})
}

// Sort orders points by X
func (c *LinearCurve) Sort() {
	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].X < c.Points[j].X
	})
}

// Clear removes all points
func (c *LinearCurve) Clear() {
	c.Points = c.Points[:0]
}

// Len returns the number of samples
func (c LinearCurve) Len() int {
	return len(c.Points)
}

// Value interpolates y at x, an empty curve evaluates to 0
func (c LinearCurve) Value(x float64) float64 {
	n := len(c.Points)
	if n == 0 {
		return 0
	}
	if x <= c.Points[0].X {
		return c.Points[0].Y
	}
	if x >= c.Points[n-1].X {
		return c.Points[n-1].Y
	}

	// First point with X > x, guaranteed in (0, n) by the clamps above
	i := sort.Search(n, func(i int) bool { return c.Points[i].X > x })
	p0, p1 := c.Points[i-1], c.Points[i]
	span := p1.X - p0.X
	if span <= Epsilon {
		return p1.Y
	}
	return Lerp(p0.Y, p1.Y, (x-p0.X)/span)
}

// Clone returns a deep copy
func (c LinearCurve) Clone() LinearCurve {
	return LinearCurve{Points: append([]CurvePoint(nil), c.Points...)}
}
