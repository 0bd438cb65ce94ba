package storage

import (
	"errors"
	"testing"
)

func TestLogoKey(t *testing.T) {
	key, err := LogoKey(7, "image/PNG", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "teams/7/logo-abc.png" {
		t.Errorf("key = %q", key)
	}

	if _, err := LogoKey(7, "application/pdf", "abc"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("pdf: err = %v, want ErrUnsupportedImage", err)
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.org", "teams/1/logo.png", "https://cdn.example.org/teams/1/logo.png"},
		{"https://cdn.example.org/", "/teams/1/logo.png", "https://cdn.example.org/teams/1/logo.png"},
		{"https://cdn.example.org/assets", "teams/1/logo.png", "https://cdn.example.org/assets/teams/1/logo.png"},
		{"", "teams/1/logo.png", ""},
		{"https://cdn.example.org", "", ""},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.key); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}
