package claimcode

import "testing"

func TestGenerateFormat(t *testing.T) {
	code, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(code) != Length {
		t.Fatalf("len(code) = %d, want %d", len(code), Length)
	}
	for _, r := range code {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Errorf("code %q contains non-hex character %q", code, r)
		}
	}
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d generations", code, i)
		}
		seen[code] = true
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		supplied string
		stored   string
		want     bool
	}{
		{"exact match", "a1b2c3d4", "a1b2c3d4", true},
		{"case sensitive", "A1B2C3D4", "a1b2c3d4", false},
		{"different code", "deadbeef", "a1b2c3d4", false},
		{"length mismatch", "a1b2", "a1b2c3d4", false},
		{"both empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.supplied, tt.stored); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.supplied, tt.stored, got, tt.want)
			}
		})
	}
}
