package middleware

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	t.Run("короткий текст не трогается", func(t *testing.T) {
		assert.Equal(t, "привет", truncateRunes("привет", 50))
		assert.Equal(t, "", truncateRunes("", 50))
	})

	t.Run("ровно на границе", func(t *testing.T) {
		text := strings.Repeat("ф", 50)
		assert.Equal(t, text, truncateRunes(text, 50))
	})

	t.Run("кириллица режется по рунам", func(t *testing.T) {
		text := strings.Repeat("ю", 60)
		got := truncateRunes(text, 50)

		assert.Equal(t, strings.Repeat("ю", 50)+"...", got)
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("смешанный текст остаётся валидным UTF-8", func(t *testing.T) {
		text := "!pay <@123456789012345678> 1000 благодарность за помощь с ботом"
		got := truncateRunes(text, 50)

		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, 53, utf8.RuneCountInString(got)) // 50 + "..."
	})
}
