package service

import (
	"errors"
	"testing"
	"time"
)

func TestParseExpiresIn(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"12h", 12 * time.Hour},
		{"1d", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"90d", 90 * 24 * time.Hour},
		{" 1D ", 24 * time.Hour}, // 大小写与空白不敏感
	}

	for _, tt := range tests {
		got, err := parseExpiresIn(tt.in)
		if err != nil {
			t.Errorf("parseExpiresIn(%q) error: %v", tt.in, err)

			continue
		}

		if got != tt.want {
			t.Errorf("parseExpiresIn(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseExpiresInInvalid(t *testing.T) {
	for _, in := range []string{"", "d", "h", "0h", "-5m", "8x", "1.5h", "91d", "banana"} {
		if _, err := parseExpiresIn(in); !errors.Is(err, ErrValidation) {
			t.Errorf("parseExpiresIn(%q) err = %v, want ErrValidation", in, err)
		}
	}
}
