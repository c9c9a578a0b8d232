package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 0.23, Round(7.0/30.0, 2))
	assert.Equal(t, 5.0, Round(5, 2))
	assert.Equal(t, -1.25, Round(-1.2549, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestRoundPtr(t *testing.T) {
	assert.Nil(t, RoundPtr(nil, 2))
	v := 1.0 / 3.0
	got := RoundPtr(&v, 2)
	assert.Equal(t, 0.33, *got)
	assert.Equal(t, 1.0/3.0, v)
}

func TestValidateAndNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Merchant", "merchant", true},
		{" ADMIN ", "admin", true},
		{"staff", "staff", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ValidateAndNormalizeRole(c.in)
		assert.Equal(t, c.want, got, c.in)
		assert.Equal(t, c.ok, ok, c.in)
	}
}
