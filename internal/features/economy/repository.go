// Package economy — repository.go выполняет все операции с таблицами users,
// transactions и wallet_limits. Все денежные операции выполняются в
// транзакциях БД с блокировкой строк (FOR UPDATE), чтобы две параллельные
// команды не прошли проверку баланса по устаревшему значению.
package economy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы со счетами и журналом.
type Repository struct {
	db *pgxpool.Pool

	startingBalance int64 // Стартовый баланс нового счёта
	historyLimit    int   // Сколько транзакций храним на пользователя (0 = все)
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool, startingBalance int64, historyLimit int) *Repository {
	return &Repository{
		db:              db,
		startingBalance: startingBalance,
		historyLimit:    historyLimit,
	}
}

// EnsureAccount гарантирует, что у пользователя есть счёт.
// Идемпотентна: повторный (в том числе параллельный) вызов просто
// ничего не делает — второй INSERT попадает в ON CONFLICT DO NOTHING.
func (r *Repository) EnsureAccount(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, r.startingBalance)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	return nil
}

// ensureAccountTx — то же самое, но внутри уже открытой транзакции.
func (r *Repository) ensureAccountTx(ctx context.Context, tx pgx.Tx, userID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, r.startingBalance)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	return nil
}

// lockedAccount — снимок заблокированной строки счёта внутри транзакции.
type lockedAccount struct {
	Balance     int64
	BankBalance int64
	Status      string
}

// lockAccount блокирует строку счёта (FOR UPDATE) и возвращает её снимок.
// Счёт создаётся лениво, поэтому сначала гарантируем его существование.
func (r *Repository) lockAccount(ctx context.Context, tx pgx.Tx, userID int64) (*lockedAccount, error) {
	if err := r.ensureAccountTx(ctx, tx, userID); err != nil {
		return nil, err
	}

	var acc lockedAccount
	err := tx.QueryRow(ctx, `
		SELECT balance, bank_balance, status FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&acc.Balance, &acc.BankBalance, &acc.Status)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счёта: %w", err)
	}
	return &acc, nil
}

// appendTransaction добавляет запись журнала и обрезает историю до лимита.
// Вызывается только внутри транзакции, вместе с обновлением баланса.
func (r *Repository) appendTransaction(ctx context.Context, tx pgx.Tx, userID, amount int64, txType, description string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if r.historyLimit > 0 {
		// Удаляем самые старые записи сверх лимита. Баланс при этом
		// остаётся авторитетным — журнал только для истории.
		// Сегодняшние снятия не трогаем: по ним считается дневной
		// лимит, завтра они обрежутся как обычно.
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
	return nil
}

// maxBalanceTx возвращает потолок кошелька пользователя (0 = лимита нет).
func (r *Repository) maxBalanceTx(ctx context.Context, tx pgx.Tx, userID int64) (int64, error) {
	var maxBalance int64
	err := tx.QueryRow(ctx, `
		SELECT max_balance FROM wallet_limits WHERE user_id = $1
	`, userID).Scan(&maxBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения лимита: %w", err)
	}
	return maxBalance, nil
}

// applyDelta изменяет кошелёк внутри транзакции: проверки, обновление
// баланса и счётчиков, запись в журнал. Общий путь для UpdateBalance,
// Transfer и пакетных операций.
func (r *Repository) applyDelta(ctx context.Context, tx pgx.Tx, userID, amount int64, txType, description string) (int64, error) {
	acc, err := r.lockAccount(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if acc.Status == StatusFrozen {
		return 0, common.ErrAccountFrozen
	}

	newBalance := acc.Balance + amount
	if newBalance < 0 {
		return 0, common.ErrInsufficientFunds
	}

	if amount > 0 {
		maxBalance, err := r.maxBalanceTx(ctx, tx, userID)
		if err != nil {
			return 0, err
		}
		if maxBalance > 0 && newBalance > maxBalance {
			return 0, common.ErrLimitExceeded
		}
	}

	// Счётчики информационные: earned растёт на положительную часть,
	// spent — на отрицательную. Ни один инвариант на них не опирается.
	_, err = tx.Exec(ctx, `
		UPDATE users
		SET balance = $2,
		    total_earned = total_earned + GREATEST($3::bigint, 0),
		    total_spent = total_spent + GREATEST(-$3::bigint, 0),
		    last_activity = NOW(),
		    updated_at = NOW()
		WHERE user_id = $1
	`, userID, newBalance, amount)
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления баланса: %w", err)
	}

	if err := r.appendTransaction(ctx, tx, userID, amount, txType, description); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// GetBalances возвращает кошелёк и банк пользователя.
// Счёт создаётся лениво, если его ещё нет.
func (r *Repository) GetBalances(ctx context.Context, userID int64) (*Balances, error) {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}

	var b Balances
	err := r.db.QueryRow(ctx, `
		SELECT balance, bank_balance FROM users WHERE user_id = $1
	`, userID).Scan(&b.Wallet, &b.Bank)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return &b, nil
}

// GetAccount возвращает полный счёт пользователя (для статистики).
func (r *Repository) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}

	var a Account
	err := r.db.QueryRow(ctx, `
		SELECT user_id, balance, bank_balance, total_earned, total_spent,
		       last_daily, daily_streak, last_work, status,
		       last_activity, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`, userID).Scan(
		&a.UserID, &a.Balance, &a.BankBalance, &a.TotalEarned, &a.TotalSpent,
		&a.LastDaily, &a.DailyStreak, &a.LastWork, &a.Status,
		&a.LastActivity, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счёта: %w", err)
	}
	return &a, nil
}

// UpdateBalance применяет дельту к кошельку атомарно с записью журнала.
// amount со знаком: положительный — начисление, отрицательный — списание.
// При любой ошибке баланс остаётся нетронутым.
func (r *Repository) UpdateBalance(ctx context.Context, userID, amount int64, txType, description string) (int64, error) {
	var newBalance int64
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		newBalance, err = r.applyDelta(ctx, tx, userID, amount, txType, description)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Deposit перемещает монеты из кошелька в банк.
// Обе стороны меняются в одной транзакции: либо обе, либо ни одна.
// В журнале это отрицательная дельта кошелька (тип deposit).
func (r *Repository) Deposit(ctx context.Context, userID, amount int64) (*Balances, error) {
	var result Balances
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		acc, err := r.lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if acc.Status == StatusFrozen {
			return common.ErrAccountFrozen
		}
		if acc.Balance < amount {
			return common.ErrInsufficientFunds
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET balance = balance - $2, bank_balance = bank_balance + $2,
			    last_activity = NOW(), updated_at = NOW()
			WHERE user_id = $1
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("ошибка депозита: %w", err)
		}

		if err := r.appendTransaction(ctx, tx, userID, -amount, TxTypeDeposit, "Перевод в банк"); err != nil {
			return err
		}

		result = Balances{Wallet: acc.Balance - amount, Bank: acc.BankBalance + amount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Withdraw перемещает монеты из банка в кошелёк.
// Учитывает дневной лимит снятия (wallet_limits.daily_withdraw_limit):
// сумма сегодняшних снятий считается по журналу внутри той же транзакции.
func (r *Repository) Withdraw(ctx context.Context, userID, amount int64) (*Balances, error) {
	var result Balances
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		acc, err := r.lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if acc.Status == StatusFrozen {
			return common.ErrAccountFrozen
		}
		if acc.BankBalance < amount {
			return common.ErrInsufficientFunds
		}

		// Дневной лимит снятия
		var dailyLimit int64
		err = tx.QueryRow(ctx, `
			SELECT daily_withdraw_limit FROM wallet_limits WHERE user_id = $1
		`, userID).Scan(&dailyLimit)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ошибка получения лимита: %w", err)
		}
		if dailyLimit > 0 {
			var withdrawnToday int64
			err = tx.QueryRow(ctx, `
				SELECT COALESCE(SUM(amount), 0) FROM transactions
				WHERE user_id = $1 AND transaction_type = $2
				  AND created_at >= date_trunc('day', NOW())
			`, userID, TxTypeWithdraw).Scan(&withdrawnToday)
			if err != nil {
				return fmt.Errorf("ошибка подсчёта снятий: %w", err)
			}
			if withdrawnToday+amount > dailyLimit {
				return common.ErrLimitExceeded
			}
		}

		// Потолок кошелька действует и на снятие из банка
		maxBalance, err := r.maxBalanceTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if maxBalance > 0 && acc.Balance+amount > maxBalance {
			return common.ErrLimitExceeded
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET balance = balance + $2, bank_balance = bank_balance - $2,
			    last_activity = NOW(), updated_at = NOW()
			WHERE user_id = $1
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("ошибка снятия: %w", err)
		}

		if err := r.appendTransaction(ctx, tx, userID, amount, TxTypeWithdraw, "Снятие из банка"); err != nil {
			return err
		}

		result = Balances{Wallet: acc.Balance + amount, Bank: acc.BankBalance - amount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Transfer переводит монеты от одного пользователя к другому.
// Атомарная операция: либо оба баланса обновятся, либо ни одного —
// если начисление получателю не проходит, откат снимает и списание.
// Строки блокируются в порядке возрастания user_id, чтобы два встречных
// перевода не взаимно заблокировались.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*TransferResult, error) {
	var result TransferResult
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		first, second := fromUserID, toUserID
		if second < first {
			first, second = second, first
		}

		accounts := make(map[int64]*lockedAccount, 2)
		for _, id := range []int64{first, second} {
			acc, err := r.lockAccount(ctx, tx, id)
			if err != nil {
				return err
			}
			accounts[id] = acc
		}

		sender, receiver := accounts[fromUserID], accounts[toUserID]

		// Замороженность любой из сторон блокирует перевод целиком
		if sender.Status == StatusFrozen || receiver.Status == StatusFrozen {
			return common.ErrAccountFrozen
		}
		if sender.Balance < amount {
			return common.ErrInsufficientFunds
		}

		maxBalance, err := r.maxBalanceTx(ctx, tx, toUserID)
		if err != nil {
			return err
		}
		if maxBalance > 0 && receiver.Balance+amount > maxBalance {
			return common.ErrLimitExceeded
		}

		// Списываем у отправителя
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET balance = balance - $2, total_spent = total_spent + $2,
			    last_activity = NOW(), updated_at = NOW()
			WHERE user_id = $1
		`, fromUserID, amount)
		if err != nil {
			return fmt.Errorf("ошибка списания у отправителя: %w", err)
		}

		// Начисляем получателю
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET balance = balance + $2, total_earned = total_earned + $2,
			    last_activity = NOW(), updated_at = NOW()
			WHERE user_id = $1
		`, toUserID, amount)
		if err != nil {
			return fmt.Errorf("ошибка начисления получателю: %w", err)
		}

		// Две записи журнала: дебет отправителю, кредит получателю
		if err := r.appendTransaction(ctx, tx, fromUserID, -amount, TxTypeTransfer, description); err != nil {
			return err
		}
		if err := r.appendTransaction(ctx, tx, toUserID, amount, TxTypeTransfer, description); err != nil {
			return err
		}

		result = TransferResult{
			FromUserID:    fromUserID,
			ToUserID:      toUserID,
			Amount:        amount,
			SenderBalance: sender.Balance - amount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTransactions возвращает последние N транзакций пользователя,
// новые первыми. txType — необязательный фильтр по типу ("" = все).
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int, txType string) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	args := []any{userID, limit}
	if txType != "" {
		query = `
			SELECT id, user_id, amount, transaction_type, description, created_at
			FROM transactions
			WHERE user_id = $1 AND transaction_type = $3
			ORDER BY id DESC
			LIMIT $2
		`
		args = append(args, txType)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// GetLeaderboard возвращает страницу таблицы лидеров по суммарному
// богатству (кошелёк + банк). Равенство разрешается по возрастанию
// user_id — порядок детерминирован от запроса к запросу.
func (r *Repository) GetLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, balance + bank_balance AS total
		FROM users
		ORDER BY total DESC, user_id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения таблицы лидеров: %w", err)
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Total); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки лидеров: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// SetStatus меняет статус счёта (заморозка/разморозка).
func (r *Repository) SetStatus(ctx context.Context, userID int64, status string) error {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE users SET status = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, status)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса: %w", err)
	}
	return nil
}

// SetWalletLimit устанавливает лимиты кошелька (0 снимает лимит).
func (r *Repository) SetWalletLimit(ctx context.Context, userID, maxBalance, dailyWithdrawLimit int64) error {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO wallet_limits (user_id, max_balance, daily_withdraw_limit)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET max_balance = EXCLUDED.max_balance,
		    daily_withdraw_limit = EXCLUDED.daily_withdraw_limit
	`, userID, maxBalance, dailyWithdrawLimit)
	if err != nil {
		return fmt.Errorf("ошибка установки лимита: %w", err)
	}
	return nil
}

// ApplyInterest начисляет проценты на банковские остатки пачками.
// Каждая пачка — отдельная короткая транзакция: полная таблица не
// блокируется, параллельные операции между пачками допустимы.
// Журнал не пишется: проценты касаются только банка, а журнал сходится
// с кошельком. Возвращает число обновлённых счетов.
func (r *Repository) ApplyInterest(ctx context.Context, rate float64, batchSize int) (int, error) {
	if rate <= 0 {
		return 0, nil
	}

	updated := 0
	lastID := int64(math.MinInt64)
	for {
		var ids []int64
		rows, err := r.db.Query(ctx, `
			SELECT user_id FROM users
			WHERE bank_balance > 0 AND status = $1 AND user_id > $2
			ORDER BY user_id
			LIMIT $3
		`, StatusActive, lastID, batchSize)
		if err != nil {
			return updated, fmt.Errorf("ошибка выборки счетов: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return updated, fmt.Errorf("ошибка сканирования: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return updated, err
		}

		if len(ids) == 0 {
			return updated, nil
		}

		// Одно UPDATE-выражение атомарно само по себе
		tag, err := r.db.Exec(ctx, `
			UPDATE users
			SET bank_balance = bank_balance + FLOOR(bank_balance * $2)::bigint,
			    updated_at = NOW()
			WHERE user_id = ANY($1) AND status = $3
		`, ids, rate, StatusActive)
		if err != nil {
			return updated, fmt.Errorf("ошибка начисления процентов: %w", err)
		}
		updated += int(tag.RowsAffected())
		lastID = ids[len(ids)-1]

		if len(ids) < batchSize {
			return updated, nil
		}
	}
}

// SumTransactions возвращает сумму всех записей журнала пользователя.
// Используется для сверки: сумма должна равняться кошельку минус
// стартовый баланс (если история не обрезалась).
func (r *Repository) SumTransactions(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1
	`, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ошибка сверки журнала: %w", err)
	}
	return sum, nil
}

// Reconcile сверяет журнал пользователя с его кошельком.
func (r *Repository) Reconcile(ctx context.Context, userID int64) (*ReconcileReport, error) {
	balances, err := r.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := r.SumTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	expected := balances.Wallet - r.startingBalance
	return &ReconcileReport{
		UserID:         userID,
		Wallet:         balances.Wallet,
		LedgerSum:      sum,
		Expected:       expected,
		Consistent:     sum == expected,
		HistoryLimited: r.historyLimit > 0,
	}, nil
}

// Touch обновляет last_activity (видимость активности без мутаций денег).
func (r *Repository) Touch(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET last_activity = $2 WHERE user_id = $1
	`, userID, at)
	return err
}
