package fixed_test

import (
	"testing"

	"github.com/nkraut/n64/rcp/fixed"
	n64testing "github.com/nkraut/n64/testing"
)

func TestMain(m *testing.M) { n64testing.TestMain(m) }

func TestFixedMulDiv(t *testing.T) {
	a := fixed.Int11_5F(2.5)
	b := fixed.Int11_5F(4.0)

	if got := a.Mul(b); got != fixed.Int11_5F(10.0) {
		t.Errorf("Mul: got %v, want %v", got, fixed.Int11_5F(10.0))
	}
	if got := b.Div(a); got != fixed.Int11_5F(1.6) {
		t.Errorf("Div: got %v, want %v", got, fixed.Int11_5F(1.6))
	}
	if got := fixed.Int11_5F(2.75).Floor(); got != 2 {
		t.Errorf("Floor: got %v, want 2", got)
	}
	if got := fixed.Int11_5F(2.25).Ceil(); got != 3 {
		t.Errorf("Ceil: got %v, want 3", got)
	}
}

func TestRectangleIntersect(t *testing.T) {
	r := fixed.Rectangle32{
		Min: fixed.Point32{X: 0, Y: 0},
		Max: fixed.Point32{X: 10, Y: 10},
	}
	s := fixed.Rectangle32{
		Min: fixed.Point32{X: 5, Y: 5},
		Max: fixed.Point32{X: 15, Y: 15},
	}

	want := fixed.Rectangle32{
		Min: fixed.Point32{X: 5, Y: 5},
		Max: fixed.Point32{X: 10, Y: 10},
	}
	if got := r.Intersect(s); got != want {
		t.Errorf("Intersect: got %v, want %v", got, want)
	}

	disjoint := s.Add(fixed.Point32{X: 20, Y: 20})
	if got := r.Intersect(disjoint); !got.Empty() {
		t.Errorf("Intersect disjoint: got %v, want empty", got)
	}

	union := fixed.Rectangle32{
		Min: fixed.Point32{X: 0, Y: 0},
		Max: fixed.Point32{X: 15, Y: 15},
	}
	if got := r.Union(s); got != union {
		t.Errorf("Union: got %v, want %v", got, union)
	}
}

func TestPointIn(t *testing.T) {
	r := fixed.Rectangle16{
		Min: fixed.Point16{X: -2, Y: -2},
		Max: fixed.Point16{X: 2, Y: 2},
	}
	if !(fixed.Point16{X: 0, Y: 0}).In(r) {
		t.Error("origin not in rectangle")
	}
	if (fixed.Point16{X: 2, Y: 0}).In(r) {
		t.Error("Max.X must be exclusive")
	}
}
