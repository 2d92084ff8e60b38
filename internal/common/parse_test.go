package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Run("обычные числа", func(t *testing.T) {
		amount, all, err := ParseAmount("500")
		require.NoError(t, err)
		assert.False(t, all)
		assert.Equal(t, int64(500), amount)
	})

	t.Run("суффиксы", func(t *testing.T) {
		cases := []struct {
			in   string
			want int64
		}{
			{"2k", 2_000},
			{"2K", 2_000},
			{"1.5k", 1_500},
			{"3m", 3_000_000},
			{"1b", 1_000_000_000},
			{"2к", 2_000},
		}
		for _, c := range cases {
			amount, all, err := ParseAmount(c.in)
			require.NoError(t, err, "in=%q", c.in)
			assert.False(t, all)
			assert.Equal(t, c.want, amount, "in=%q", c.in)
		}
	})

	t.Run("all", func(t *testing.T) {
		for _, in := range []string{"all", "ALL", "всё", "все"} {
			_, all, err := ParseAmount(in)
			require.NoError(t, err, "in=%q", in)
			assert.True(t, all, "in=%q", in)
		}
	})

	t.Run("мусор отклоняется", func(t *testing.T) {
		for _, in := range []string{"", "abc", "-5", "0", "1.5", "0k", "-2k"} {
			_, _, err := ParseAmount(in)
			assert.ErrorIs(t, err, ErrInvalidAmount, "in=%q", in)
		}
	})

	t.Run("переполнение и не-числа с суффиксом", func(t *testing.T) {
		// ParseFloat принимает "nan" и "inf" — в int64 их не превратить
		for _, in := range []string{"nan", "nank", "infk", "inf", "1e30k", "10000000000000000000m", "9223372036854775808"} {
			_, _, err := ParseAmount(in)
			assert.ErrorIs(t, err, ErrInvalidAmount, "in=%q", in)
		}
	})
}

func TestMentionToID(t *testing.T) {
	id, ok := MentionToID("<@123456789>")
	require.True(t, ok)
	assert.Equal(t, int64(123456789), id)

	// С восклицательным знаком (никнейм на сервере)
	id, ok = MentionToID("<@!987>")
	require.True(t, ok)
	assert.Equal(t, int64(987), id)

	for _, in := range []string{"@user", "<@abc>", "123", "<#555>"} {
		_, ok := MentionToID(in)
		assert.False(t, ok, "in=%q", in)
	}
}

func TestParseSnowflake(t *testing.T) {
	id, err := ParseSnowflake("272830175145984000")
	require.NoError(t, err)
	assert.Equal(t, int64(272830175145984000), id)

	_, err = ParseSnowflake("not-an-id")
	assert.Error(t, err)
}
