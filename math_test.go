package adcs

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func vectorsEqual(a, b Vector3, tol float64) bool {
	return floats.EqualApprox(a[:], b[:], tol)
}

func TestDot(t *testing.T) {
	if d := (Vector3{1, 2, 3}).Dot(Vector3{4, 5, 6}); d != 32 {
		t.Fatalf("dot = %f, expected 32", d)
	}
	// The first component contributes too.
	if d := (Vector3{1, 0, 0}).Dot(Vector3{1, 0, 0}); d != 1 {
		t.Fatalf("dot = %f, expected 1", d)
	}
	if d := (Vector3{1, 0, 0}).Dot(Vector3{0, 1, 0}); d != 0 {
		t.Fatal("orthogonal vectors have a non zero dot product")
	}
}

func TestCross(t *testing.T) {
	i := Vector3{1, 0, 0}
	j := Vector3{0, 1, 0}
	k := Vector3{0, 0, 1}
	if i.Cross(j) != k {
		t.Fatal("i x j != k")
	}
	if j.Cross(k) != i {
		t.Fatal("j x k != i")
	}
	if j.Cross(i) != k.Scale(-1) {
		t.Fatal("j x i != -k")
	}
	if (Vector3{2, 3, 4}).Cross(Vector3{5, 6, 7}) != (Vector3{-3, 6, -3}) {
		t.Fatal("cross fail")
	}
	a := Vector3{0.2, -1.5, 3}
	if c := a.Cross(a.Scale(-2.5)); !vectorsEqual(c, Vector3{}, 1e-15) {
		t.Fatalf("cross of parallel vectors = %s", c)
	}
	// From Vallado
	c := Vector3{6524.834, 6862.875, 6448.296}.Cross(Vector3{4.901327, 5.533756, -1.976341})
	if !vectorsEqual(c, Vector3{-4.924667792015100e4, 4.450050424118601e4, 0.246964476137900e4}, 1e-6) {
		t.Fatalf("cross fail: %s", c)
	}
}

func TestNorm(t *testing.T) {
	v := Vector3{3, 4, 0}
	if v.Norm() != 5 {
		t.Fatal("|[3 4 0]| != 5")
	}
	if !v.Normalize() {
		t.Fatal("could not normalize [3 4 0]")
	}
	if !vectorsEqual(v, Vector3{0.6, 0.8, 0}, 1e-15) {
		t.Fatalf("normalized to %s", v)
	}
	if !floats.EqualWithinAbs(v.Norm(), 1, 1e-15) {
		t.Fatal("normalized vector is not unit")
	}
	z := Vector3{}
	if z.Normalize() {
		t.Fatal("zero vector was normalized")
	}
	if z != (Vector3{}) {
		t.Fatal("zero vector was modified")
	}
	if u, ok := z.Unit(); ok || u != z {
		t.Fatal("zero vector has a unit vector")
	}
	// Unit does not modify its receiver.
	w := Vector3{0, 0, -2}
	if u, ok := w.Unit(); !ok || u != (Vector3{0, 0, -1}) || w != (Vector3{0, 0, -2}) {
		t.Fatal("incorrect unit vector")
	}
}

func TestVectorAngle(t *testing.T) {
	if a := (Vector3{1, 0, 0}).Angle(Vector3{0, 2, 0}); !floats.EqualWithinAbs(a, math.Pi/2, 1e-15) {
		t.Fatalf("angle = %f", a)
	}
	if a := (Vector3{1, 0, 0}).Angle(Vector3{-1, 0, 0}); !floats.EqualWithinAbs(a, math.Pi, 1e-15) {
		t.Fatalf("angle = %f", a)
	}
	v := Vector3{0.1, 0.1, 0.1}
	if a := v.Angle(v); math.IsNaN(a) || a > 1e-7 {
		t.Fatalf("angle of a vector with itself = %f", a)
	}
}

func TestVectorArithmetic(t *testing.T) {
	a := Vector3{1, -2, 3}
	b := Vector3{0.5, 0.5, -1}
	if a.Add(b) != (Vector3{1.5, -1.5, 2}) {
		t.Fatal("incorrect addition")
	}
	if a.Sub(b) != (Vector3{0.5, -2.5, 4}) {
		t.Fatal("incorrect subtraction")
	}
	if a.Scale(-2) != (Vector3{-2, 4, -6}) {
		t.Fatal("incorrect scaling")
	}
}

func TestAngles(t *testing.T) {
	for i := 0.0; i < 360; i += 0.5 {
		if !floats.EqualWithinAbs(Rad2deg(Deg2rad(i)), i, 1e-10) {
			t.Fatalf("%f deg round trip gave %f", i, Rad2deg(Deg2rad(i)))
		}
	}
	if !floats.EqualWithinAbs(Deg2rad(-90), 3*math.Pi/2, 1e-15) {
		t.Fatal("negative angle not wrapped")
	}
	if !floats.EqualWithinAbs(Rad2deg180(-math.Pi/2), -90, 1e-12) {
		t.Fatal("Rad2deg180(-π/2) != -90")
	}
	if !floats.EqualWithinAbs(Rad2deg180(3*math.Pi/4), 135, 1e-12) {
		t.Fatal("Rad2deg180(3π/4) != 135")
	}
}
