//go:build integration

// Интеграционные тесты хранилища: проверяют сериализацию через
// FOR UPDATE и атомарность транзакций на живом PostgreSQL.
// Запуск: TEST_DATABASE_URL=postgres://... go test -tags integration ./...
package economy_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-bot/internal/app"
	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/features/economy"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, app.Migrate(ctx, pool))

	// Каждый тест начинает с чистой таблицы — повторный прогон
	// по той же базе не должен накапливать балансы
	_, err = pool.Exec(ctx, `TRUNCATE users CASCADE`)
	require.NoError(t, err)
	return pool
}

// Два конкурентных списания по 60 при балансе 100: одно должно
// упереться в недостаток средств, второе — пройти.
func TestUpdateBalance_ConcurrentDebit(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := economy.NewRepository(pool, 0, 0)
	const userID int64 = 910001

	require.NoError(t, repo.EnsureAccount(ctx, userID))
	_, err := repo.UpdateBalance(ctx, userID, 100, economy.TxTypeCredit, "стартовый капитал")
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.UpdateBalance(ctx, userID, -60, economy.TxTypeDebit, "конкурентное списание")
		}(i)
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, common.ErrInsufficientFunds)
			failed++
		}
	}
	assert.Equal(t, 1, failed, "ровно одно из двух списаний должно быть отклонено")

	balances, err := repo.GetBalances(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balances.Wallet)
}

// Перевод замороженному получателю откатывается целиком:
// у отправителя ни баланс, ни журнал не меняются.
func TestTransfer_FrozenReceiverRollsBack(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := economy.NewRepository(pool, 0, 0)
	const sender, receiver int64 = 910011, 910012

	require.NoError(t, repo.EnsureAccount(ctx, sender))
	require.NoError(t, repo.EnsureAccount(ctx, receiver))
	_, err := repo.UpdateBalance(ctx, sender, 100, economy.TxTypeCredit, "пополнение")
	require.NoError(t, err)
	require.NoError(t, repo.SetStatus(ctx, receiver, economy.StatusFrozen))

	_, err = repo.Transfer(ctx, sender, receiver, 50, "перевод")
	require.ErrorIs(t, err, common.ErrAccountFrozen)

	balances, err := repo.GetBalances(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balances.Wallet, "списание должно откатиться вместе с начислением")

	for _, id := range []int64{sender, receiver} {
		txs, err := repo.GetTransactions(ctx, id, 10, economy.TxTypeTransfer)
		require.NoError(t, err)
		assert.Empty(t, txs, "записей о несостоявшемся переводе быть не должно")
	}
}

// Конкурентное ленивое создание счёта: одна строка, стартовый баланс
// начисляется один раз.
func TestEnsureAccount_Concurrent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := economy.NewRepository(pool, 100, 0)
	const userID int64 = 910021

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.EnsureAccount(ctx, userID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "вызов %d", i)
	}

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE user_id = $1`, userID).Scan(&count))
	assert.Equal(t, 1, count)

	balances, err := repo.GetBalances(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balances.Wallet)
}

// Равное богатство упорядочивается по возрастанию user_id.
func TestGetLeaderboard_TieBreak(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := economy.NewRepository(pool, 0, 0)

	rich := int64(910030)
	equal := []int64{910033, 910031, 910032} // нарочно не по порядку

	require.NoError(t, repo.EnsureAccount(ctx, rich))
	_, err := repo.UpdateBalance(ctx, rich, 900, economy.TxTypeCredit, "лидер")
	require.NoError(t, err)
	for _, id := range equal {
		require.NoError(t, repo.EnsureAccount(ctx, id))
		_, err := repo.UpdateBalance(ctx, id, 500, economy.TxTypeCredit, "поровну")
		require.NoError(t, err)
	}

	entries, err := repo.GetLeaderboard(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, rich, entries[0].UserID)
	assert.Equal(t, int64(910031), entries[1].UserID)
	assert.Equal(t, int64(910032), entries[2].UserID)
	assert.Equal(t, int64(910033), entries[3].UserID)
}

// Дневной лимит снятия держится, даже когда обрезка истории
// вытесняет прочие записи: сегодняшние снятия из журнала не удаляются.
func TestWithdraw_DailyLimitSurvivesPruning(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := economy.NewRepository(pool, 0, 3)
	const userID int64 = 910041

	require.NoError(t, repo.EnsureAccount(ctx, userID))
	_, err := repo.UpdateBalance(ctx, userID, 1000, economy.TxTypeCredit, "пополнение")
	require.NoError(t, err)
	_, err = repo.Deposit(ctx, userID, 500)
	require.NoError(t, err)
	require.NoError(t, repo.SetWalletLimit(ctx, userID, 0, 200))

	_, err = repo.Withdraw(ctx, userID, 150)
	require.NoError(t, err)

	// Три новые записи вытесняют всё сверх лимита истории,
	// но сегодняшнее снятие должно уцелеть
	for i := 0; i < 3; i++ {
		_, err = repo.UpdateBalance(ctx, userID, 1, economy.TxTypeCredit, "шум")
		require.NoError(t, err)
	}

	withdraws, err := repo.GetTransactions(ctx, userID, 50, economy.TxTypeWithdraw)
	require.NoError(t, err)
	require.Len(t, withdraws, 1, "сегодняшнее снятие не должно вытесняться обрезкой")

	_, err = repo.Withdraw(ctx, userID, 100)
	assert.ErrorIs(t, err, common.ErrLimitExceeded, "150 + 100 превышает дневной лимит 200")
}

// Сумма журнала сходится с кошельком после цепочки операций.
func TestReconcile_Consistent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := economy.NewRepository(pool, 100, 0)
	const userID int64 = 910051

	require.NoError(t, repo.EnsureAccount(ctx, userID))
	_, err := repo.UpdateBalance(ctx, userID, 200, economy.TxTypeCredit, "начисление")
	require.NoError(t, err)
	_, err = repo.UpdateBalance(ctx, userID, -50, economy.TxTypeDebit, "списание")
	require.NoError(t, err)
	_, err = repo.Deposit(ctx, userID, 100)
	require.NoError(t, err)
	_, err = repo.Withdraw(ctx, userID, 40)
	require.NoError(t, err)

	report, err := repo.Reconcile(ctx, userID)
	require.NoError(t, err)

	assert.True(t, report.Consistent)
	assert.Equal(t, int64(190), report.Wallet)
	assert.Equal(t, int64(90), report.LedgerSum) // 200 - 50 - 100 + 40
	assert.False(t, report.HistoryLimited)
}
