// Package daily — handlers.go обрабатывает команду !daily.
package daily

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
)

// Handler обрабатывает команду ежедневной награды.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик ежедневной награды.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleDaily обрабатывает команду !daily — выдаёт ежедневную награду.
func (h *Handler) HandleDaily(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	result, err := h.service.Claim(ctx, userID)
	if err != nil {
		if tooSoon, ok := common.IsTooSoon(err); ok {
			h.send(s, m.ChannelID, fmt.Sprintf("⏳ Награда уже получена. Возвращайся через %s",
				common.FormatDuration(tooSoon.Remaining)))
			return
		}
		if errors.Is(err, common.ErrAccountFrozen) {
			h.send(s, m.ChannelID, "🧊 Счёт заморожен, награда недоступна")
			return
		}
		if errors.Is(err, common.ErrLimitExceeded) {
			h.send(s, m.ChannelID, "❌ Кошелёк переполнен, награда не помещается")
			return
		}
		log.WithError(err).Error("Ошибка выдачи ежедневной награды")
		h.send(s, m.ChannelID, "❌ Не удалось выдать награду, попробуй позже")
		return
	}

	text := fmt.Sprintf("🎁 Ежедневная награда: %s", common.FormatCoins(result.Amount))
	if result.StreakBonus > 0 {
		text += fmt.Sprintf(" (бонус за серию: %s)", common.FormatCoins(result.StreakBonus))
	}
	text += fmt.Sprintf("\n🔥 Серия: %d %s подряд\nКошелёк: %s",
		result.Streak, common.PluralizeDays(result.Streak), common.FormatCoins(result.NewBalance))
	h.send(s, m.ChannelID, text)
}

func (h *Handler) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).WithField("channel_id", channelID).Error("Ошибка отправки сообщения")
	}
}
