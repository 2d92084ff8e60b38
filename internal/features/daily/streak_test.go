package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-bot/internal/common"
)

func TestNextStreak(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("первая ежедневка", func(t *testing.T) {
		streak, err := NextStreak(nil, 0, base)
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	})

	t.Run("слишком рано", func(t *testing.T) {
		last := base
		_, err := NextStreak(&last, 3, base.Add(20*time.Hour))
		require.Error(t, err)

		tooSoon, ok := common.IsTooSoon(err)
		require.True(t, ok)
		assert.Equal(t, 4*time.Hour, tooSoon.Remaining)
	})

	t.Run("серия продолжается", func(t *testing.T) {
		last := base
		streak, err := NextStreak(&last, 1, base.Add(30*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("ровно 24 часа — можно", func(t *testing.T) {
		last := base
		streak, err := NextStreak(&last, 5, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 6, streak)
	})

	t.Run("ровно 48 часов — серия ещё жива", func(t *testing.T) {
		last := base
		streak, err := NextStreak(&last, 2, base.Add(48*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 3, streak)
	})

	t.Run("серия прервана", func(t *testing.T) {
		last := base
		streak, err := NextStreak(&last, 7, base.Add(50*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	})
}

// Сценарий из жизни: получить, продолжить, пропустить двое суток.
func TestNextStreak_Sequence(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	streak, err := NextStreak(nil, 0, start)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	// Через 30 часов — серия растёт
	second := start.Add(30 * time.Hour)
	streak, err = NextStreak(&start, streak, second)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	// Ещё через 50 часов — серия обнуляется
	third := second.Add(50 * time.Hour)
	streak, err = NextStreak(&second, streak, third)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestReward(t *testing.T) {
	t.Run("первый день без бонуса", func(t *testing.T) {
		total, bonus := Reward(100, 50, 1)
		assert.Equal(t, int64(100), total)
		assert.Equal(t, int64(0), bonus)
	})

	t.Run("бонус растёт с серией", func(t *testing.T) {
		total, bonus := Reward(100, 50, 4)
		assert.Equal(t, int64(250), total)
		assert.Equal(t, int64(150), bonus)
	})
}
