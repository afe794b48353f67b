package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKeyword(t *testing.T) {
	cases := []struct {
		name    string
		keyword string
		wantErr bool
	}{
		{"plain keyword", "sourdough bread", false},
		{"too short", "x", true},
		{"too long", strings.Repeat("a", 101), true},
		{"at upper bound", strings.Repeat("a", 100), false},
		{"too many words", strings.Repeat("a ", 12) + "a", true},
		{"markup characters", "golf <script>", true},
		{"control characters", "golf\x00swing", true},
		{"non-ascii within limit", strings.Repeat("ж", 40), false},
		{"non-ascii at upper bound", strings.Repeat("ж", 100), false},
		{"non-ascii over limit", strings.Repeat("ж", 101), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateKeyword(tc.keyword)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidKeyword) {
					t.Errorf("ValidateKeyword(%q) = %v, want ErrInvalidKeyword", tc.keyword, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateKeyword(%q) = %v, want nil", tc.keyword, err)
			}
		})
	}
}
