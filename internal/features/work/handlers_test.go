package work

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"serotonyl.ru/discord-bot/internal/common"
)

type mockTaskService struct {
	mock.Mock
}

func (m *mockTaskService) ClaimCooldown(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockTaskService) ReleaseCooldown(ctx context.Context, userID int64) {
	m.Called(ctx, userID)
}

func (m *mockTaskService) PayReward(ctx context.Context, userID int64, task Task) (int64, int64, error) {
	args := m.Called(ctx, userID, task)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockTaskService) Cooldown() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func newTestHandler(svc *mockTaskService) *Handler {
	return &Handler{service: svc, pending: make(map[int64]*pendingTask)}
}

func TestSettleAnswer(t *testing.T) {
	ctx := context.Background()
	task := Task{Prompt: "Столица Франции?", Answer: "париж", Multiplier: 1.0}
	now := time.Now()
	const userID int64 = 42

	t.Run("верный ответ оплачивается, кулдаун остаётся", func(t *testing.T) {
		svc := new(mockTaskService)
		svc.On("PayReward", ctx, userID, task).Return(int64(75), int64(500), nil)

		h := newTestHandler(svc)
		p := &pendingTask{task: task, expiresAt: now.Add(taskTimeout)}
		reply := h.settleAnswer(ctx, userID, p, "Париж", now)

		assert.Contains(t, reply, "Верно")
		svc.AssertNotCalled(t, "ReleaseCooldown", mock.Anything, mock.Anything)
	})

	t.Run("неверный ответ возвращает кулдаун", func(t *testing.T) {
		svc := new(mockTaskService)
		svc.On("ReleaseCooldown", ctx, userID).Return()

		h := newTestHandler(svc)
		p := &pendingTask{task: task, expiresAt: now.Add(taskTimeout)}
		reply := h.settleAnswer(ctx, userID, p, "лондон", now)

		assert.Contains(t, reply, "Неверно")
		svc.AssertCalled(t, "ReleaseCooldown", ctx, userID)
		svc.AssertNotCalled(t, "PayReward", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("просроченный ответ возвращает кулдаун", func(t *testing.T) {
		svc := new(mockTaskService)
		svc.On("ReleaseCooldown", ctx, userID).Return()

		h := newTestHandler(svc)
		p := &pendingTask{task: task, expiresAt: now.Add(-time.Second)}
		reply := h.settleAnswer(ctx, userID, p, "париж", now)

		assert.Contains(t, reply, "Время вышло")
		svc.AssertCalled(t, "ReleaseCooldown", ctx, userID)
		svc.AssertNotCalled(t, "PayReward", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("замороженный счёт: награды нет, кулдаун возвращается", func(t *testing.T) {
		svc := new(mockTaskService)
		svc.On("PayReward", ctx, userID, task).Return(int64(0), int64(0), common.ErrAccountFrozen)
		svc.On("ReleaseCooldown", ctx, userID).Return()

		h := newTestHandler(svc)
		p := &pendingTask{task: task, expiresAt: now.Add(taskTimeout)}
		reply := h.settleAnswer(ctx, userID, p, "париж", now)

		assert.Contains(t, reply, "заморожен")
		svc.AssertCalled(t, "ReleaseCooldown", ctx, userID)
	})

	t.Run("сбой начисления возвращает кулдаун", func(t *testing.T) {
		svc := new(mockTaskService)
		svc.On("PayReward", ctx, userID, task).Return(int64(0), int64(0), common.ErrTransactionFailed)
		svc.On("ReleaseCooldown", ctx, userID).Return()

		h := newTestHandler(svc)
		p := &pendingTask{task: task, expiresAt: now.Add(taskTimeout)}
		reply := h.settleAnswer(ctx, userID, p, "париж", now)

		assert.Contains(t, reply, "Не удалось начислить")
		svc.AssertCalled(t, "ReleaseCooldown", ctx, userID)
	})
}
