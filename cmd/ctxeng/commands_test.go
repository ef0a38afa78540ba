package main

import "testing"

func TestResolveTopK(t *testing.T) {
	tests := []struct {
		name             string
		flag, configured int
		want             int
	}{
		{"sentinel uses configured default", -1, 3, 3},
		{"explicit zero", 0, 3, 0},
		{"explicit positive", 5, 3, 5},
		{"explicit negative passes through", -2, 3, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTopK(tt.flag, tt.configured); got != tt.want {
				t.Errorf("resolveTopK(%d, %d) = %d, want %d",
					tt.flag, tt.configured, got, tt.want)
			}
		})
	}
}
