package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(1), "запрос %d должен пройти", i+1)
	}
	assert.False(t, rl.Allow(1), "четвёртый запрос должен быть отклонён")

	// Лимит пер-пользовательский
	assert.True(t, rl.Allow(2))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow(1), "после окна запрос должен проходить")
}
