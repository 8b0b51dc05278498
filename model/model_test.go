package model

import "testing"

func TestOptimalBins(t *testing.T) {
	cases := []struct{ in, want uint64 }{
		{0, 0},
		{1, 64},
		{64, 64},
		{65, 128},
		{3, 64},
	}
	for _, c := range cases {
		if got := OptimalBins(c.in); got != c.want {
			t.Errorf("OptimalBins(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
