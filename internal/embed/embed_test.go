package embed

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	a := []float32{1.0, 2.0, 3.0}
	b := []float32{1.0, 2.0, 3.0}

	result := CosineSimilarity(a, b)

	if math.Abs(float64(result-1.0)) > 1e-6 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", result)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1.0, 0.0}
	b := []float32{0.0, 1.0}

	result := CosineSimilarity(a, b)

	if math.Abs(float64(result)) > 1e-6 {
		t.Errorf("CosineSimilarity(orthogonal) = %v, want 0.0", result)
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
	}{
		{"first vector zero", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"second vector zero", []float32{1, 2, 3}, []float32{0, 0, 0}},
		{"both vectors zero", []float32{0, 0, 0}, []float32{0, 0, 0}},
		{"length mismatch", []float32{1, 2, 3, 4}, []float32{1, 2, 3}},
		{"first empty", []float32{}, []float32{1, 2, 3}},
		{"both empty", []float32{}, []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := CosineSimilarity(tt.a, tt.b); result != 0.0 {
				t.Errorf("CosineSimilarity(%s) = %v, want 0.0", tt.name, result)
			}
		})
	}
}

func TestCosineSimilarityParallel(t *testing.T) {
	a := []float32{1.0, 2.0, 3.0}
	b := []float32{2.0, 4.0, 6.0}

	result := CosineSimilarity(a, b)

	if math.Abs(float64(result-1.0)) > 1e-6 {
		t.Errorf("CosineSimilarity(parallel) = %v, want 1.0", result)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	a := []float32{1.0, 2.0, 3.0}
	b := []float32{-1.0, -2.0, -3.0}

	result := CosineSimilarity(a, b)

	if math.Abs(float64(result+1.0)) > 1e-6 {
		t.Errorf("CosineSimilarity(opposite) = %v, want -1.0", result)
	}
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if v == nil {
		t.Fatal("Normalize returned nil for nonzero vector")
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", v)
	}
	if Normalize([]float32{0, 0, 0}) != nil {
		t.Errorf("Normalize(zero) should be nil")
	}
}

func TestMeanPoolPlainMean(t *testing.T) {
	pooled := MeanPool([][]float32{
		{1, 0},
		{0, 1},
	}, nil)
	if pooled == nil {
		t.Fatal("MeanPool returned nil")
	}

	// Mean is (0.5, 0.5); normalized to (1/sqrt2, 1/sqrt2).
	want := float32(1 / math.Sqrt2)
	if math.Abs(float64(pooled[0]-want)) > 1e-6 || math.Abs(float64(pooled[1]-want)) > 1e-6 {
		t.Errorf("MeanPool = %v, want [%v %v]", pooled, want, want)
	}
}

func TestMeanPoolWeighted(t *testing.T) {
	// All the weight on the second vector.
	pooled := MeanPool([][]float32{
		{1, 0},
		{0, 1},
	}, []float64{0, 5})
	if pooled == nil {
		t.Fatal("MeanPool returned nil")
	}
	if math.Abs(float64(pooled[0])) > 1e-6 || math.Abs(float64(pooled[1]-1)) > 1e-6 {
		t.Errorf("MeanPool weighted = %v, want [0 1]", pooled)
	}
}

func TestMeanPoolSingleVectorNormalizes(t *testing.T) {
	pooled := MeanPool([][]float32{{3, 4}}, nil)
	var norm float64
	for _, x := range pooled {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("pooled norm = %v, want 1", norm)
	}
}

func TestMeanPoolDegenerate(t *testing.T) {
	if MeanPool(nil, nil) != nil {
		t.Errorf("MeanPool(nil) should be nil")
	}
	if MeanPool([][]float32{{1, 2}, {1, 2, 3}}, nil) != nil {
		t.Errorf("MeanPool with mismatched dims should be nil")
	}
	if MeanPool([][]float32{{0, 0}}, nil) != nil {
		t.Errorf("MeanPool of zero vectors should be nil")
	}
	if MeanPool([][]float32{{1, 0}, {0, 1}}, []float64{0, 0}) != nil {
		t.Errorf("MeanPool with all-zero weights should be nil")
	}
}
