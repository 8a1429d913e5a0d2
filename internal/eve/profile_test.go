package eve_test

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

func TestProfileByName(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"wqvga", "wqvga", false},
		{"qvga", "qvga", false},
		{"", "wqvga", false},
		{"svga", "", true},
	}

	for _, tt := range tests {
		t.Run("name "+tt.name, func(t *testing.T) {
			p, err := eve.ProfileByName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, eve.ErrBadConfig) {
					t.Errorf("ProfileByName(%q): err = %v, want ErrBadConfig", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ProfileByName(%q): %v", tt.name, err)
			}
			if p.Name != tt.wantName {
				t.Errorf("ProfileByName(%q).Name = %q, want %q", tt.name, p.Name, tt.wantName)
			}
		})
	}
}

func TestBuiltinProfileGeometry(t *testing.T) {
	if eve.ProfileWQVGA.HSize != 480 || eve.ProfileWQVGA.VSize != 272 {
		t.Errorf("wqvga geometry = %dx%d, want 480x272",
			eve.ProfileWQVGA.HSize, eve.ProfileWQVGA.VSize)
	}
	if eve.ProfileQVGA.HSize != 320 || eve.ProfileQVGA.VSize != 240 {
		t.Errorf("qvga geometry = %dx%d, want 320x240",
			eve.ProfileQVGA.HSize, eve.ProfileQVGA.VSize)
	}
}

func TestVariantHelpers(t *testing.T) {
	tests := []struct {
		variant eve.Variant
		valid   bool
		path    string
	}{
		{eve.VariantFT800, true, "/dev/ft800"},
		{eve.VariantFT801, true, "/dev/ft801"},
		{eve.Variant("ft810"), false, ""},
		{eve.Variant(""), false, ""},
	}

	for _, tt := range tests {
		if got := tt.variant.Valid(); got != tt.valid {
			t.Errorf("Variant(%q).Valid() = %v, want %v", tt.variant, got, tt.valid)
		}
		if tt.valid {
			if got := tt.variant.NodePath(); got != tt.path {
				t.Errorf("Variant(%q).NodePath() = %q, want %q", tt.variant, got, tt.path)
			}
		}
	}
}
