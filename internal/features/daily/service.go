// Package daily — service.go связывает чистую логику окон с хранилищем.
package daily

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/config"
)

// claimRepo — операция хранилища, нужная сервису.
type claimRepo interface {
	Claim(ctx context.Context, userID int64, baseReward, streakBonus int64, now time.Time) (*ClaimResult, error)
}

// Service управляет ежедневными наградами.
type Service struct {
	repo claimRepo
	cfg  *config.Config

	// Источник времени; в тестах подменяется
	now func() time.Time
}

// NewService создаёт сервис ежедневной награды.
func NewService(repo claimRepo, cfg *config.Config) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Claim выдаёт ежедневную награду.
// TooSoonError и заморозка уходят вызывающему как есть,
// инфраструктурные ошибки прячутся за ErrTransactionFailed.
func (s *Service) Claim(ctx context.Context, userID int64) (*ClaimResult, error) {
	result, err := s.repo.Claim(ctx, userID, s.cfg.DailyBaseReward, s.cfg.DailyStreakBonus, s.now())
	if err != nil {
		if common.IsBusinessError(err) {
			return nil, err
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выдачи ежедневки")
		return nil, common.ErrTransactionFailed
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"streak":  result.Streak,
		"amount":  result.Amount,
	}).Debug("Ежедневка выдана")

	return result, nil
}
