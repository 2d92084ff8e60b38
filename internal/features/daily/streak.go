// Package daily управляет ежедневной наградой и стриками.
// streak.go — чистая логика окон: решает, доступна ли награда
// и что происходит со стриком. Никакой работы с БД здесь нет.
package daily

import (
	"time"

	"serotonyl.ru/discord-bot/internal/common"
)

// Окна стрика:
//   - меньше 24 часов с прошлой ежедневки — рано;
//   - от 24 до 48 часов — стрик продолжается;
//   - больше 48 часов — стрик сломан, начинаем с 1.
const (
	claimInterval = 24 * time.Hour
	streakWindow  = 48 * time.Hour
)

// NextStreak вычисляет новый стрик для попытки забрать награду в момент now.
//
//	lastClaim == nil          → стрик 1 (первая ежедневка)
//	прошло < 24ч              → TooSoonError с оставшимся временем
//	прошло 24..48ч            → стрик + 1
//	прошло > 48ч              → стрик 1 (серия прервана)
func NextStreak(lastClaim *time.Time, currentStreak int, now time.Time) (int, error) {
	if lastClaim == nil {
		return 1, nil
	}

	elapsed := now.Sub(*lastClaim)
	if elapsed < claimInterval {
		return 0, &common.TooSoonError{Remaining: claimInterval - elapsed}
	}
	if elapsed <= streakWindow {
		return currentStreak + 1, nil
	}
	return 1, nil
}

// Reward вычисляет награду для стрика:
// база + бонус за каждый день серии сверх первого.
func Reward(baseReward, streakBonus int64, streak int) (total, bonus int64) {
	bonus = streakBonus * int64(streak-1)
	return baseReward + bonus, bonus
}
