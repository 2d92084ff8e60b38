// Package economy — service.go содержит бизнес-логику экономики.
// Валидация, переводы, банк, пакетные операции, таблица лидеров.
// Бизнес-ошибки уходят вызывающему как есть; инфраструктурные
// логируются с контекстом и превращаются в общий ErrTransactionFailed.
package economy

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
)

// ledgerRepo — операции хранилища, нужные сервису.
// Интерфейс позволяет подменять репозиторий в тестах.
type ledgerRepo interface {
	EnsureAccount(ctx context.Context, userID int64) error
	GetBalances(ctx context.Context, userID int64) (*Balances, error)
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	UpdateBalance(ctx context.Context, userID, amount int64, txType, description string) (int64, error)
	Deposit(ctx context.Context, userID, amount int64) (*Balances, error)
	Withdraw(ctx context.Context, userID, amount int64) (*Balances, error)
	Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*TransferResult, error)
	GetTransactions(ctx context.Context, userID int64, limit int, txType string) ([]*Transaction, error)
	GetLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardEntry, error)
	SetStatus(ctx context.Context, userID int64, status string) error
	SetWalletLimit(ctx context.Context, userID, maxBalance, dailyWithdrawLimit int64) error
	ApplyInterest(ctx context.Context, rate float64, batchSize int) (int, error)
	Reconcile(ctx context.Context, userID int64) (*ReconcileReport, error)
	Touch(ctx context.Context, userID int64, at time.Time) error
}

// Service управляет экономикой бота (монеты).
type Service struct {
	repo ledgerRepo
}

// NewService создаёт новый сервис экономики.
func NewService(repo ledgerRepo) *Service {
	return &Service{repo: repo}
}

// wrapInfra прячет инфраструктурную ошибку за общим ErrTransactionFailed.
// Бизнес-ошибки проходят насквозь — их показывают пользователю.
func wrapInfra(err error, op string, userID, amount int64) error {
	if err == nil || common.IsBusinessError(err) {
		return err
	}
	log.WithError(err).WithFields(log.Fields{
		"op":      op,
		"user_id": userID,
		"amount":  amount,
	}).Error("Ошибка хранилища")
	return common.ErrTransactionFailed
}

// EnsureAccount создаёт счёт пользователя, если его ещё нет.
func (s *Service) EnsureAccount(ctx context.Context, userID int64) error {
	return wrapInfra(s.repo.EnsureAccount(ctx, userID), "ensure_account", userID, 0)
}

// GetBalances возвращает кошелёк и банк пользователя.
func (s *Service) GetBalances(ctx context.Context, userID int64) (*Balances, error) {
	b, err := s.repo.GetBalances(ctx, userID)
	return b, wrapInfra(err, "get_balances", userID, 0)
}

// GetAccount возвращает полный счёт (для статистики и админки).
func (s *Service) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	a, err := s.repo.GetAccount(ctx, userID)
	return a, wrapInfra(err, "get_account", userID, 0)
}

// AddBalance начисляет монеты пользователю.
// Используется для наград: ежедневка, работа, выдача админом.
func (s *Service) AddBalance(ctx context.Context, userID, amount int64, txType, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	nb, err := s.repo.UpdateBalance(ctx, userID, amount, txType, description)
	return nb, wrapInfra(err, "add_balance", userID, amount)
}

// DeductBalance списывает монеты (штрафы, изъятие админом).
func (s *Service) DeductBalance(ctx context.Context, userID, amount int64, txType, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	nb, err := s.repo.UpdateBalance(ctx, userID, -amount, txType, description)
	return nb, wrapInfra(err, "deduct_balance", userID, amount)
}

// Deposit перекладывает монеты из кошелька в банк.
// all=true означает «весь кошелёк»: сумма фиксируется до атомарного шага,
// внутрь транзакции условные суммы не попадают.
func (s *Service) Deposit(ctx context.Context, userID, amount int64, all bool) (*Balances, error) {
	if all {
		b, err := s.GetBalances(ctx, userID)
		if err != nil {
			return nil, err
		}
		amount = b.Wallet
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	b, err := s.repo.Deposit(ctx, userID, amount)
	return b, wrapInfra(err, "deposit", userID, amount)
}

// Withdraw перекладывает монеты из банка в кошелёк.
func (s *Service) Withdraw(ctx context.Context, userID, amount int64, all bool) (*Balances, error) {
	if all {
		b, err := s.GetBalances(ctx, userID)
		if err != nil {
			return nil, err
		}
		amount = b.Bank
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	b, err := s.repo.Withdraw(ctx, userID, amount)
	return b, wrapInfra(err, "withdraw", userID, amount)
}

// Transfer переводит монеты от одного пользователя к другому.
// Выполняет все необходимые проверки ДО каких-либо мутаций:
//   - Нельзя переводить себе
//   - Сумма должна быть положительной
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*TransferResult, error) {
	if fromUserID == toUserID {
		return nil, common.ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	result, err := s.repo.Transfer(ctx, fromUserID, toUserID, amount, description)
	if err != nil {
		return nil, wrapInfra(err, "transfer", fromUserID, amount)
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод выполнен")

	return result, nil
}

// BatchUpdate применяет пакет обновлений балансов.
// Записи независимы: каждая атомарна сама по себе, ошибка одной
// (заморозка, лимит, нехватка) не блокирует остальные.
func (s *Service) BatchUpdate(ctx context.Context, entries []BatchEntry) []BatchResult {
	results := make([]BatchResult, 0, len(entries))
	for _, e := range entries {
		nb, err := s.repo.UpdateBalance(ctx, e.UserID, e.Amount, e.Type, e.Description)
		results = append(results, BatchResult{
			UserID:     e.UserID,
			Err:        wrapInfra(err, "batch_update", e.UserID, e.Amount),
			NewBalance: nb,
		})
	}
	return results
}

// GetTransactions возвращает последние транзакции, новые первыми.
// txType — необязательный фильтр по типу ("" = все).
func (s *Service) GetTransactions(ctx context.Context, userID int64, limit int, txType string) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	txs, err := s.repo.GetTransactions(ctx, userID, limit, txType)
	return txs, wrapInfra(err, "get_transactions", userID, 0)
}

// GetLeaderboard возвращает страницу таблицы лидеров.
func (s *Service) GetLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.repo.GetLeaderboard(ctx, limit, offset)
	return entries, wrapInfra(err, "get_leaderboard", 0, 0)
}

// Freeze замораживает счёт: все списания и начисления отклоняются.
func (s *Service) Freeze(ctx context.Context, userID int64) error {
	return wrapInfra(s.repo.SetStatus(ctx, userID, StatusFrozen), "freeze", userID, 0)
}

// Unfreeze размораживает счёт.
func (s *Service) Unfreeze(ctx context.Context, userID int64) error {
	return wrapInfra(s.repo.SetStatus(ctx, userID, StatusActive), "unfreeze", userID, 0)
}

// SetWalletLimit устанавливает лимиты кошелька (0 снимает лимит).
func (s *Service) SetWalletLimit(ctx context.Context, userID, maxBalance, dailyWithdrawLimit int64) error {
	if maxBalance < 0 || dailyWithdrawLimit < 0 {
		return common.ErrInvalidAmount
	}
	return wrapInfra(s.repo.SetWalletLimit(ctx, userID, maxBalance, dailyWithdrawLimit), "set_limit", userID, maxBalance)
}

// Reconcile сверяет журнал транзакций с кошельком (для админки).
func (s *Service) Reconcile(ctx context.Context, userID int64) (*ReconcileReport, error) {
	report, err := s.repo.Reconcile(ctx, userID)
	return report, wrapInfra(err, "reconcile", userID, 0)
}

// Touch отмечает активность пользователя без денежных мутаций.
// Ошибку не возвращаем наверх: активность не стоит падения команды.
func (s *Service) Touch(ctx context.Context, userID int64) {
	if err := s.repo.Touch(ctx, userID, time.Now()); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось обновить активность")
	}
}

// ApplyInterest начисляет проценты на банковские остатки (фоновая задача).
func (s *Service) ApplyInterest(ctx context.Context, rate float64, batchSize int) (int, error) {
	n, err := s.repo.ApplyInterest(ctx, rate, batchSize)
	if err != nil {
		log.WithError(err).Error("Начисление процентов прервано")
		return n, common.ErrTransactionFailed
	}
	return n, nil
}
