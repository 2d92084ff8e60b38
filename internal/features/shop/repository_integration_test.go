//go:build integration

// Интеграционные тесты покупки: остаток, инвентарь и списание меняются
// только все вместе. Запуск:
// TEST_DATABASE_URL=postgres://... go test -tags integration ./...
package shop_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-bot/internal/app"
	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/features/economy"
	"serotonyl.ru/discord-bot/internal/features/shop"
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

	_, err = pool.Exec(ctx, `TRUNCATE users CASCADE`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE shop`)
	require.NoError(t, err)
	return pool
}

func creditUser(t *testing.T, pool *pgxpool.Pool, userID, amount int64) {
	t.Helper()
	ctx := context.Background()
	ledger := economy.NewRepository(pool, 0, 0)
	require.NoError(t, ledger.EnsureAccount(ctx, userID))
	_, err := ledger.UpdateBalance(ctx, userID, amount, economy.TxTypeCredit, "пополнение для теста")
	require.NoError(t, err)
}

// Последний экземпляр достаётся первому покупателю, второй получает отказ.
func TestBuy_LastItemInStock(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := shop.NewRepository(pool, 0, 0)
	const first, second int64 = 920001, 920002

	require.NoError(t, repo.AddItem(ctx, "Редкий значок", "последний экземпляр", 50, 1, nil))
	creditUser(t, pool, first, 100)
	creditUser(t, pool, second, 100)

	result, err := repo.Buy(ctx, first, "Редкий значок")
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.NewBalance)

	item, err := repo.GetItem(ctx, "Редкий значок")
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.Stock)

	_, err = repo.Buy(ctx, second, "Редкий значок")
	assert.ErrorIs(t, err, common.ErrOutOfStock)

	inv, err := repo.GetInventory(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, inv, "несостоявшаяся покупка не должна попадать в инвентарь")
}

// Отказ по деньгам откатывает всё: остаток, инвентарь, журнал и кошелёк.
func TestBuy_InsufficientFundsLeavesNothing(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := shop.NewRepository(pool, 0, 0)
	ledger := economy.NewRepository(pool, 0, 0)
	const userID int64 = 920011

	require.NoError(t, repo.AddItem(ctx, "Золотая рамка", "дорогая", 500, 2, nil))
	creditUser(t, pool, userID, 100)

	_, err := repo.Buy(ctx, userID, "Золотая рамка")
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	item, err := repo.GetItem(ctx, "Золотая рамка")
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.Stock, "остаток должен откатиться")

	inv, err := repo.GetInventory(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, inv)

	balances, err := ledger.GetBalances(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balances.Wallet)

	txs, err := ledger.GetTransactions(ctx, userID, 10, economy.TxTypePurchase)
	require.NoError(t, err)
	assert.Empty(t, txs, "записи о несостоявшейся покупке быть не должно")
}
