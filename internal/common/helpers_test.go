package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCoins(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1, "монета"},
		{2, "монеты"},
		{5, "монет"},
		{11, "монет"},
		{21, "монета"},
		{104, "монеты"},
		{111, "монет"},
		{0, "монет"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PluralizeCoins(c.n), "n=%d", c.n)
	}
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "1 монета", FormatCoins(1))
	assert.Equal(t, "2 350 монет", FormatCoins(2350))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1 000", FormatNumber(1000))
	assert.Equal(t, "1 234 567", FormatNumber(1234567))
	assert.Equal(t, "-15 000", FormatNumber(-15000))
}

func TestFormatSignedCoins(t *testing.T) {
	assert.Equal(t, "+100 монет", FormatSignedCoins(100))
	assert.Equal(t, "-50 монет", FormatSignedCoins(-50))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "меньше минуты", FormatDuration(30*time.Second))
	assert.Equal(t, "45 мин", FormatDuration(45*time.Minute))
	assert.Equal(t, "2 ч", FormatDuration(2*time.Hour))
	assert.Equal(t, "5 ч 30 мин", FormatDuration(5*time.Hour+30*time.Minute))
}
