// Package work — handlers.go обрабатывает команду !work и ответы на задания.
// Выданное задание хранится в памяти: следующий ответ пользователя
// проверяется и либо оплачивается, либо кулдаун возвращается.
package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
)

const taskTimeout = 60 * time.Second

// pendingTask — выданное и ещё не отвеченное задание.
type pendingTask struct {
	task      Task
	channelID string
	expiresAt time.Time
}

// taskService — операции сервиса, нужные обработчику.
type taskService interface {
	ClaimCooldown(ctx context.Context, userID int64) error
	ReleaseCooldown(ctx context.Context, userID int64)
	PayReward(ctx context.Context, userID int64, task Task) (int64, int64, error)
	Cooldown() time.Duration
}

// Handler обрабатывает команды мини-игры заработка.
type Handler struct {
	service taskService

	mu      sync.Mutex
	pending map[int64]*pendingTask
}

// NewHandler создаёт обработчик заработка.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		pending: make(map[int64]*pendingTask),
	}
}

// HandleWork обрабатывает команду !work — выдаёт задание.
func (h *Handler) HandleWork(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	h.mu.Lock()
	if p, ok := h.pending[userID]; ok && time.Now().Before(p.expiresAt) {
		h.mu.Unlock()
		h.send(s, m.ChannelID, "✍️ У тебя уже есть задание, сначала ответь на него")
		return
	}
	h.mu.Unlock()

	if err := h.service.ClaimCooldown(ctx, userID); err != nil {
		if errors.Is(err, common.ErrWorkCooldown) {
			h.send(s, m.ChannelID, fmt.Sprintf("⏳ Ты уже работал. Возвращайся через %s",
				common.FormatDuration(h.service.Cooldown())))
			return
		}
		log.WithError(err).Error("Ошибка выдачи задания")
		h.send(s, m.ChannelID, "❌ Не удалось выдать задание, попробуй позже")
		return
	}

	task := PickTask()

	h.mu.Lock()
	h.pending[userID] = &pendingTask{
		task:      task,
		channelID: m.ChannelID,
		expiresAt: time.Now().Add(taskTimeout),
	}
	h.mu.Unlock()

	h.send(s, m.ChannelID, fmt.Sprintf("💼 Задание: %s\nОтветь в течение %d секунд!",
		task.Prompt, int(taskTimeout.Seconds())))
}

// HandleAnswer проверяет, ждёт ли пользователь задание, и обрабатывает ответ.
// Возвращает true, если сообщение было ответом на задание.
func (h *Handler) HandleAnswer(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) bool {
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return false
	}

	h.mu.Lock()
	p, ok := h.pending[userID]
	if !ok || p.channelID != m.ChannelID {
		h.mu.Unlock()
		return false
	}
	delete(h.pending, userID)
	h.mu.Unlock()

	h.send(s, m.ChannelID, h.settleAnswer(ctx, userID, p, m.Content, time.Now()))
	return true
}

// settleAnswer разбирает снятое из очереди задание: просроченный,
// неверный или не оплаченный ответ возвращает кулдаун, верный —
// оплачивается. Возвращает текст ответа пользователю.
func (h *Handler) settleAnswer(ctx context.Context, userID int64, p *pendingTask, answer string, now time.Time) string {
	if now.After(p.expiresAt) {
		h.service.ReleaseCooldown(ctx, userID)
		return "⌛ Время вышло, задание сгорело. Попробуй !work ещё раз"
	}

	if !CheckAnswer(p.task, answer) {
		h.service.ReleaseCooldown(ctx, userID)
		return "❌ Неверно! Попробуй !work ещё раз"
	}

	amount, newBalance, err := h.service.PayReward(ctx, userID, p.task)
	if err != nil {
		// Награда не начислена — кулдаун возвращаем
		h.service.ReleaseCooldown(ctx, userID)
		if errors.Is(err, common.ErrAccountFrozen) {
			return "🧊 Счёт заморожен, награда недоступна"
		}
		log.WithError(err).Error("Ошибка начисления награды за работу")
		return "❌ Не удалось начислить награду"
	}

	return fmt.Sprintf("✅ Верно! Заработано %s\nКошелёк: %s",
		common.FormatCoins(amount), common.FormatCoins(newBalance))
}

func (h *Handler) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).WithField("channel_id", channelID).Error("Ошибка отправки сообщения")
	}
}
