package admin

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/argon2"
)

// encodeArgon2id собирает хеш в том же формате, что и боевой парсер.
func encodeArgon2id(password string, salt []byte, memory, iterations uint32, parallelism uint8) string {
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	salt := []byte("0123456789abcdef")
	encoded := encodeArgon2id("секретный-пароль", salt, 65536, 3, 2)

	assert.True(t, verifyArgon2id("секретный-пароль", encoded))
	assert.False(t, verifyArgon2id("не тот пароль", encoded))
	assert.False(t, verifyArgon2id("", encoded))
}

func TestVerifyArgon2idMalformedHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=2$onlyfourparts",
		"$argon2id$v=19$bad-params$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		assert.False(t, verifyArgon2id("любой", bad), "hash=%q", bad)
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a := generateSecureToken()
	b := generateSecureToken()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b, "токены должны быть уникальными")
}
