package vecmath

import "testing"

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("CosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineDistanceClamped(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	got := CosineDistance(a, b)
	if got < 0 || got > 2 {
		t.Errorf("CosineDistance out of range [0,2]: %v", got)
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	got := Normalize(v)
	if !IsUnit(got, 1e-6) {
		t.Errorf("Normalize(%v) = %v, norm not unit", v, got)
	}
}

func TestDotTailSafe(t *testing.T) {
	for d := 1; d <= 16; d++ {
		a := make([]float32, d)
		b := make([]float32, d)
		for i := range a {
			a[i] = 1
			b[i] = 2
		}
		got := Dot(a, b)
		want := float32(2 * d)
		if got != want {
			t.Errorf("Dot len %d = %v, want %v", d, got, want)
		}
	}
}
