// Package daily — repository.go выполняет выдачу ежедневной награды.
// Вся операция — одна транзакция БД: проверка окна, обновление стрика,
// начисление и запись в журнал либо происходят вместе, либо не происходят.
package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/db/postgres"
	"serotonyl.ru/discord-bot/internal/features/economy"
)

// ClaimResult — результат выдачи ежедневной награды.
type ClaimResult struct {
	Amount      int64 // Всего начислено
	Streak      int   // Стрик после выдачи
	StreakBonus int64 // Из них бонус за стрик
	NewBalance  int64 // Кошелёк после начисления
}

// Repository выполняет операции ежедневки над таблицей users.
type Repository struct {
	db *pgxpool.Pool

	startingBalance int64
	historyLimit    int
}

// NewRepository создаёт репозиторий ежедневной награды.
func NewRepository(db *pgxpool.Pool, startingBalance int64, historyLimit int) *Repository {
	return &Repository{
		db:              db,
		startingBalance: startingBalance,
		historyLimit:    historyLimit,
	}
}

// Claim выдаёт ежедневную награду пользователю.
// Окна (24/48 часов) проверяются по заблокированной строке, так что два
// одновременных запроса не получат награду дважды.
func (r *Repository) Claim(ctx context.Context, userID int64, baseReward, streakBonus int64, now time.Time) (*ClaimResult, error) {
	var result ClaimResult
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Счёт создаётся лениво
		_, err := tx.Exec(ctx, `
			INSERT INTO users (user_id, balance)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, r.startingBalance)
		if err != nil {
			return fmt.Errorf("ошибка создания счёта: %w", err)
		}

		var (
			balance   int64
			status    string
			lastDaily *time.Time
			streak    int
		)
		err = tx.QueryRow(ctx, `
			SELECT balance, status, last_daily, daily_streak
			FROM users WHERE user_id = $1 FOR UPDATE
		`, userID).Scan(&balance, &status, &lastDaily, &streak)
		if err != nil {
			return fmt.Errorf("ошибка получения счёта: %w", err)
		}

		if status == economy.StatusFrozen {
			return common.ErrAccountFrozen
		}

		newStreak, err := NextStreak(lastDaily, streak, now)
		if err != nil {
			return err // TooSoonError, мутаций не было
		}

		total, bonus := Reward(baseReward, streakBonus, newStreak)
		newBalance := balance + total

		// Потолок кошелька действует и на ежедневку
		var maxBalance int64
		err = tx.QueryRow(ctx, `
			SELECT max_balance FROM wallet_limits WHERE user_id = $1
		`, userID).Scan(&maxBalance)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ошибка получения лимита: %w", err)
		}
		if maxBalance > 0 && newBalance > maxBalance {
			return common.ErrLimitExceeded
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET balance = $2,
			    total_earned = total_earned + $3,
			    last_daily = $4,
			    daily_streak = $5,
			    last_activity = NOW(),
			    updated_at = NOW()
			WHERE user_id = $1
		`, userID, newBalance, total, now, newStreak)
		if err != nil {
			return fmt.Errorf("ошибка начисления ежедневки: %w", err)
		}

		description := fmt.Sprintf("Ежедневная награда, день %d", newStreak)
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, amount, transaction_type, description)
			VALUES ($1, $2, $3, $4)
		`, userID, total, economy.TxTypeDaily, description)
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}

		if r.historyLimit > 0 {
			// Сегодняшние снятия не трогаем: по ним считается
			// дневной лимит на вывод из банка
			_, err = tx.Exec(ctx, `
				DELETE FROM transactions
				WHERE user_id = $1
				  AND NOT (transaction_type = 'withdraw' AND created_at >= date_trunc('day', NOW()))
				  AND id NOT IN (
					SELECT id FROM transactions
					WHERE user_id = $1
					ORDER BY id DESC
					LIMIT $2
				)
			`, userID, r.historyLimit)
			if err != nil {
				return fmt.Errorf("ошибка обрезки истории: %w", err)
			}
		}

		result = ClaimResult{
			Amount:      total,
			Streak:      newStreak,
			StreakBonus: bonus,
			NewBalance:  newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
