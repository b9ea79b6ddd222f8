package fixed

// Number is satisfied by every fixed-point and integer type in this package.
type Number[T any] interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64

	Mul(T) T
	Div(T) T
}

// Point is an X, Y coordinate pair, analogous to image.Point but with
// fixed-point coordinates.
type Point[T Number[T]] struct {
	X, Y T
}

func (p Point[T]) Add(q Point[T]) Point[T] { return Point[T]{p.X + q.X, p.Y + q.Y} }
func (p Point[T]) Sub(q Point[T]) Point[T] { return Point[T]{p.X - q.X, p.Y - q.Y} }
func (p Point[T]) Mul(q Point[T]) Point[T] { return Point[T]{p.X.Mul(q.X), p.Y.Mul(q.Y)} }
func (p Point[T]) Div(q Point[T]) Point[T] { return Point[T]{p.X.Div(q.X), p.Y.Div(q.Y)} }

// In reports whether p is in r.
func (p Point[T]) In(r Rectangle[T]) bool {
	return r.Min.X <= p.X && p.X < r.Max.X &&
		r.Min.Y <= p.Y && p.Y < r.Max.Y
}

// Rectangle contains the points with Min.X <= X < Max.X, Min.Y <= Y < Max.Y,
// analogous to image.Rectangle.
type Rectangle[T Number[T]] struct {
	Min, Max Point[T]
}

func (r Rectangle[T]) Dx() T          { return r.Max.X - r.Min.X }
func (r Rectangle[T]) Dy() T          { return r.Max.Y - r.Min.Y }
func (r Rectangle[T]) Size() Point[T] { return r.Max.Sub(r.Min) }
func (r Rectangle[T]) Empty() bool    { return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y }

func (r Rectangle[T]) Add(p Point[T]) Rectangle[T] {
	return Rectangle[T]{r.Min.Add(p), r.Max.Add(p)}
}

func (r Rectangle[T]) Sub(p Point[T]) Rectangle[T] {
	return Rectangle[T]{r.Min.Sub(p), r.Max.Sub(p)}
}

// Intersect returns the largest rectangle contained by both r and s.  If they
// don't overlap the zero rectangle is returned.
func (r Rectangle[T]) Intersect(s Rectangle[T]) Rectangle[T] {
	r.Min.X = max(r.Min.X, s.Min.X)
	r.Min.Y = max(r.Min.Y, s.Min.Y)
	r.Max.X = min(r.Max.X, s.Max.X)
	r.Max.Y = min(r.Max.Y, s.Max.Y)
	if r.Empty() {
		return Rectangle[T]{}
	}
	return r
}

// Union returns the smallest rectangle that contains both r and s.
func (r Rectangle[T]) Union(s Rectangle[T]) Rectangle[T] {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	r.Min.X = min(r.Min.X, s.Min.X)
	r.Min.Y = min(r.Min.Y, s.Min.Y)
	r.Max.X = max(r.Max.X, s.Max.X)
	r.Max.Y = max(r.Max.Y, s.Max.Y)
	return r
}
