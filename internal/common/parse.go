// parse.go разбирает суммы из пользовательского ввода:
// «500», «2k», «1.5m», «all» / «всё».
package common

import (
	"math"
	"strconv"
	"strings"
)

// Множители суффиксов: 2k = 2000, 1m = 1000000, 1b = 1000000000.
var amountSuffixes = map[string]int64{
	"k": 1_000,
	"к": 1_000,
	"m": 1_000_000,
	"м": 1_000_000,
	"b": 1_000_000_000,
}

// ParseAmount разбирает сумму из текста команды.
// Возвращает (сумма, это «всё», ошибка). Для «all» сумма равна нулю —
// конкретное значение подставляет вызывающий код по балансу.
func ParseAmount(text string) (int64, bool, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false, ErrInvalidAmount
	}

	switch text {
	case "all", "всё", "все":
		return 0, true, nil
	}

	multiplier := int64(1)
	for suffix, m := range amountSuffixes {
		if strings.HasSuffix(text, suffix) {
			multiplier = m
			text = strings.TrimSuffix(text, suffix)
			break
		}
	}

	// Дробная база допустима только с суффиксом: «1.5k» = 1500.
	if multiplier > 1 {
		base, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(base) || base <= 0 {
			return 0, false, ErrInvalidAmount
		}
		value := base * float64(multiplier)
		// float64(MaxInt64) округляется до 2^63 — само значение 2^63
		// уже не влезает в int64, поэтому граница строгая.
		if value >= math.MaxInt64 {
			return 0, false, ErrInvalidAmount
		}
		return int64(value), false, nil
	}

	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil || value <= 0 {
		return 0, false, ErrInvalidAmount
	}
	return value, false, nil
}

// ParseSnowflake разбирает Discord ID (snowflake) в int64.
func ParseSnowflake(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// MentionToID извлекает ID пользователя из упоминания вида <@123> или <@!123>.
func MentionToID(mention string) (int64, bool) {
	mention = strings.TrimSpace(mention)
	if !strings.HasPrefix(mention, "<@") || !strings.HasSuffix(mention, ">") {
		return 0, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(mention, "<@"), ">")
	inner = strings.TrimPrefix(inner, "!")
	id, err := strconv.ParseInt(inner, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
