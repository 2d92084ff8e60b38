package shop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-bot/internal/common"
)

type mockShopRepo struct {
	mock.Mock
}

func (m *mockShopRepo) GetItems(ctx context.Context) ([]*Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Item), args.Error(1)
}

func (m *mockShopRepo) GetItem(ctx context.Context, name string) (*Item, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *mockShopRepo) AddItem(ctx context.Context, name, description string, price, stock int64, roleReward *string) error {
	args := m.Called(ctx, name, description, price, stock, roleReward)
	return args.Error(0)
}

func (m *mockShopRepo) DeactivateItem(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *mockShopRepo) Buy(ctx context.Context, userID int64, itemName string) (*PurchaseResult, error) {
	args := m.Called(ctx, userID, itemName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PurchaseResult), args.Error(1)
}

func (m *mockShopRepo) GetInventory(ctx context.Context, userID int64) (map[string]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func TestBuy(t *testing.T) {
	ctx := context.Background()

	t.Run("успешная покупка", func(t *testing.T) {
		repo := new(mockShopRepo)
		svc := NewService(repo)

		role := "12345"
		expected := &PurchaseResult{ItemName: "VIP", PricePaid: 500, RoleReward: &role, NewBalance: 500}
		repo.On("Buy", ctx, int64(7), "VIP").Return(expected, nil)

		result, err := svc.Buy(ctx, 7, "  VIP  ")
		require.NoError(t, err)
		assert.Equal(t, expected, result)
	})

	t.Run("пустое название", func(t *testing.T) {
		repo := new(mockShopRepo)
		svc := NewService(repo)

		_, err := svc.Buy(ctx, 7, "   ")
		assert.ErrorIs(t, err, common.ErrItemNotFound)
		repo.AssertNotCalled(t, "Buy")
	})

	t.Run("бизнес-ошибки проходят насквозь", func(t *testing.T) {
		for _, want := range []error{common.ErrOutOfStock, common.ErrInsufficientFunds, common.ErrAccountFrozen} {
			repo := new(mockShopRepo)
			svc := NewService(repo)

			repo.On("Buy", ctx, int64(7), "VIP").Return(nil, want)

			_, err := svc.Buy(ctx, 7, "VIP")
			assert.ErrorIs(t, err, want)
		}
	})

	t.Run("инфраструктурная ошибка прячется", func(t *testing.T) {
		repo := new(mockShopRepo)
		svc := NewService(repo)

		repo.On("Buy", ctx, int64(7), "VIP").Return(nil, errors.New("deadlock detected"))

		_, err := svc.Buy(ctx, 7, "VIP")
		assert.ErrorIs(t, err, common.ErrTransactionFailed)
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("валидация названия и цены", func(t *testing.T) {
		repo := new(mockShopRepo)
		svc := NewService(repo)

		assert.ErrorIs(t, svc.AddItem(ctx, "", "", 100, 1, nil), common.ErrInvalidAmount)
		assert.ErrorIs(t, svc.AddItem(ctx, "VIP", "", -1, 1, nil), common.ErrInvalidAmount)
		assert.ErrorIs(t, svc.AddItem(ctx, "VIP", "", 100, -2, nil), common.ErrInvalidAmount)
		repo.AssertNotCalled(t, "AddItem")
	})

	t.Run("безлимитный запас допустим", func(t *testing.T) {
		repo := new(mockShopRepo)
		svc := NewService(repo)

		repo.On("AddItem", ctx, "VIP", "статус", int64(100), int64(StockUnlimited), (*string)(nil)).Return(nil)

		require.NoError(t, svc.AddItem(ctx, "VIP", "статус", 100, StockUnlimited, nil))
		repo.AssertExpectations(t)
	})

	t.Run("дубликат", func(t *testing.T) {
		repo := new(mockShopRepo)
		svc := NewService(repo)

		repo.On("AddItem", ctx, "VIP", "", int64(100), int64(1), (*string)(nil)).Return(common.ErrItemExists)

		assert.ErrorIs(t, svc.AddItem(ctx, "VIP", "", 100, 1, nil), common.ErrItemExists)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()

	repo := new(mockShopRepo)
	svc := NewService(repo)

	repo.On("DeactivateItem", ctx, "VIP").Return(common.ErrItemNotFound)

	assert.ErrorIs(t, svc.RemoveItem(ctx, "VIP "), common.ErrItemNotFound)
}
