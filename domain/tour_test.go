package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhruvjyotiray/natours/domain"
)

func TestMakeSlug(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"The Forest Hiker", "the-forest-hiker"},
		{"Mountain Explorer", "mountain-explorer"},
		{"  Snow, Ice & Fire!  ", "snow-ice-fire"},
		{"UPPER", "upper"},
		{"tour 2026", "tour-2026"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, domain.MakeSlug(tc.name), "name %q", tc.name)
	}
}
