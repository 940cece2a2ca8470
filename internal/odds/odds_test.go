package odds

import (
	"math/big"
	"testing"
)

func weights(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []*big.Int
		want []float64
	}{
		{name: "all zero two options", in: weights(0, 0), want: []float64{50, 50}},
		{name: "all zero four options", in: weights(0, 0, 0, 0), want: []float64{25, 25, 25, 25}},
		{name: "sum 100", in: weights(30, 70), want: []float64{30, 70}},
		{name: "sum 4", in: weights(1, 3), want: []float64{25, 75}},
		{name: "rounding", in: weights(1, 2), want: []float64{33.33, 66.67}},
		{name: "one sided", in: weights(10, 0), want: []float64{100, 0}},
		{name: "nil entry treated as zero", in: []*big.Int{nil, big.NewInt(5)}, want: []float64{0, 100}},
		{name: "empty", in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Normalize() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Normalize()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeFixedPointWeights(t *testing.T) {
	// Weights as they actually arrive from the contract: 18-decimal values.
	half, _ := new(big.Int).SetString("500000000000000000", 10)
	got := Normalize([]*big.Int{half, half})
	if got[0] != 50 || got[1] != 50 {
		t.Errorf("Normalize(0.5e18, 0.5e18) = %v, want [50 50]", got)
	}
}
