// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночное начисление процентов
// на банковские остатки.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/config"
	"serotonyl.ru/discord-bot/internal/features/economy"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron           *cron.Cron
	economyService *economy.Service
	cfg            *config.Config
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(economyService *economy.Service, cfg *config.Config) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:           c,
		economyService: economyService,
		cfg:            cfg,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Начисление процентов в 03:00 по Москве.
	// При нулевой ставке задача не регистрируется вовсе.
	if s.cfg.BankInterestRate > 0 {
		s.cron.AddFunc("0 3 * * *", func() {
			log.Info("[CRON] Начисление процентов на банковские остатки")
			n, err := s.economyService.ApplyInterest(ctx, s.cfg.BankInterestRate, s.cfg.BankInterestBatchSize)
			if err != nil {
				log.WithError(err).Error("[CRON] Ошибка начисления процентов")
				return
			}
			log.WithField("accounts", n).Info("[CRON] Проценты начислены")
		})
	}

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
