package services

import (
	"strings"
	"testing"
)

func TestCalculateNPS(t *testing.T) {
	tests := []struct {
		name     string
		nps      NPS
		expected int
		wantErr  string
	}{
		{
			name:     "mixed",
			nps:      NPS{Responses: 10, Promoters: 6, Passives: 2, Detractors: 2},
			expected: 40,
		},
		{
			name:     "no responses",
			nps:      NPS{},
			expected: 0,
		},
		{
			name:     "all detractors",
			nps:      NPS{Responses: 5, Detractors: 5},
			expected: -100,
		},
		{
			name:     "all promoters",
			nps:      NPS{Responses: 4, Promoters: 4},
			expected: 100,
		},
		{
			name:    "more buckets than responses",
			nps:     NPS{Responses: 10, Promoters: 6, Passives: 3, Detractors: 3},
			wantErr: "cannot compute nps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.nps.CalculateNPS()

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("CalculateNPS() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestNPSAdd(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want NPS
	}{
		{"5", true, NPS{Responses: 1, Promoters: 1}},
		{" 4 ", true, NPS{Responses: 1, Passives: 1}},
		{"1", true, NPS{Responses: 1, Detractors: 1}},
		{"3", true, NPS{Responses: 1, Detractors: 1}},
		{"0", false, NPS{}},
		{"6", false, NPS{}},
		{"Ya", false, NPS{}},
		{"", false, NPS{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n NPS
			if ok := n.Add(tt.raw); ok != tt.ok {
				t.Errorf("Add(%q) = %v, want %v", tt.raw, ok, tt.ok)
			}
			if n != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, n)
			}
		})
	}
}
