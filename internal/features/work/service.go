// Package work — service.go координирует заработок: кулдаун и начисление.
// Начисление идёт через сервис экономики, как и все движения монет.
package work

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/config"
	"serotonyl.ru/discord-bot/internal/features/economy"
)

// coinLedger — часть сервиса экономики, нужная для начисления награды.
type coinLedger interface {
	EnsureAccount(ctx context.Context, userID int64) error
	AddBalance(ctx context.Context, userID, amount int64, txType, description string) (int64, error)
}

// Service управляет мини-игрой заработка.
type Service struct {
	db     *pgxpool.Pool
	ledger coinLedger
	cfg    *config.Config
}

// NewService создаёт сервис работы.
func NewService(db *pgxpool.Pool, ledger coinLedger, cfg *config.Config) *Service {
	return &Service{db: db, ledger: ledger, cfg: cfg}
}

// ClaimCooldown атомарно занимает кулдаун работы.
// Условный UPDATE: либо кулдаун свободен и мы его занимаем, либо
// возвращаем ErrWorkCooldown — два одновременных !work не пройдут оба.
func (s *Service) ClaimCooldown(ctx context.Context, userID int64) error {
	if err := s.ledger.EnsureAccount(ctx, userID); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET last_work = NOW(), updated_at = NOW()
		WHERE user_id = $1
		  AND (last_work IS NULL OR last_work <= NOW() - $2::interval)
	`, userID, s.cfg.WorkCooldown.String())
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка кулдауна работы")
		return common.ErrTransactionFailed
	}
	if tag.RowsAffected() == 0 {
		return common.ErrWorkCooldown
	}
	return nil
}

// ReleaseCooldown возвращает кулдаун, если задание не было выполнено
// (неправильный ответ не считается попыткой работы).
func (s *Service) ReleaseCooldown(ctx context.Context, userID int64) {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET last_work = NULL WHERE user_id = $1
	`, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось вернуть кулдаун")
	}
}

// PayReward начисляет награду за выполненное задание.
func (s *Service) PayReward(ctx context.Context, userID int64, task Task) (int64, int64, error) {
	amount := RewardAmount(s.cfg.WorkMinAmount, s.cfg.WorkMaxAmount, task.Multiplier)
	description := fmt.Sprintf("Заработок (x%.1f)", task.Multiplier)

	newBalance, err := s.ledger.AddBalance(ctx, userID, amount, economy.TxTypeWork, description)
	if err != nil {
		return 0, 0, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
	}).Debug("Награда за работу начислена")

	return amount, newBalance, nil
}

// Cooldown возвращает длительность кулдауна (для сообщений об ошибке).
func (s *Service) Cooldown() time.Duration {
	return s.cfg.WorkCooldown
}
