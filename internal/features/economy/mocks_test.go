package economy

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) EnsureAccount(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockLedgerRepo) GetBalances(ctx context.Context, userID int64) (*Balances, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Balances), args.Error(1)
}

func (m *mockLedgerRepo) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *mockLedgerRepo) UpdateBalance(ctx context.Context, userID, amount int64, txType, description string) (int64, error) {
	args := m.Called(ctx, userID, amount, txType, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedgerRepo) Deposit(ctx context.Context, userID, amount int64) (*Balances, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Balances), args.Error(1)
}

func (m *mockLedgerRepo) Withdraw(ctx context.Context, userID, amount int64) (*Balances, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Balances), args.Error(1)
}

func (m *mockLedgerRepo) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*TransferResult, error) {
	args := m.Called(ctx, fromUserID, toUserID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransferResult), args.Error(1)
}

func (m *mockLedgerRepo) GetTransactions(ctx context.Context, userID int64, limit int, txType string) ([]*Transaction, error) {
	args := m.Called(ctx, userID, limit, txType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Transaction), args.Error(1)
}

func (m *mockLedgerRepo) GetLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*LeaderboardEntry), args.Error(1)
}

func (m *mockLedgerRepo) SetStatus(ctx context.Context, userID int64, status string) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *mockLedgerRepo) SetWalletLimit(ctx context.Context, userID, maxBalance, dailyWithdrawLimit int64) error {
	args := m.Called(ctx, userID, maxBalance, dailyWithdrawLimit)
	return args.Error(0)
}

func (m *mockLedgerRepo) ApplyInterest(ctx context.Context, rate float64, batchSize int) (int, error) {
	args := m.Called(ctx, rate, batchSize)
	return args.Int(0), args.Error(1)
}

func (m *mockLedgerRepo) Reconcile(ctx context.Context, userID int64) (*ReconcileReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReconcileReport), args.Error(1)
}

func (m *mockLedgerRepo) Touch(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}
