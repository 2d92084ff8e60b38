// Package shop — handlers.go обрабатывает команды !shop, !buy, !inventory.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	service *Service
	guildID string // для выдачи роли-награды
}

// NewHandler создаёт обработчик магазина.
func NewHandler(service *Service, guildID string) *Handler {
	return &Handler{service: service, guildID: guildID}
}

// HandleShop обрабатывает команду !shop — показывает витрину.
func (h *Handler) HandleShop(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	items, err := h.service.GetItems(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения витрины")
		h.send(s, m.ChannelID, "❌ Ошибка получения витрины магазина")
		return
	}
	if len(items) == 0 {
		h.send(s, m.ChannelID, "🏪 Магазин пока пуст")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏪 Магазин:\n")
	for _, item := range items {
		stock := "∞"
		if item.Stock != StockUnlimited {
			stock = fmt.Sprintf("%d шт.", item.Stock)
		}
		sb.WriteString(fmt.Sprintf("• %s — %s (%s)", item.Name, common.FormatCoins(item.Price), stock))
		if item.Description != "" {
			sb.WriteString(" — " + item.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nКупить: !buy <название>")
	h.send(s, m.ChannelID, sb.String())
}

// HandleBuy обрабатывает команду !buy <название> — покупает товар.
func (h *Handler) HandleBuy(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.send(s, m.ChannelID, "❌ Формат: !buy <название товара>")
		return
	}
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	itemName := strings.Join(args, " ")
	result, err := h.service.Buy(ctx, userID, itemName)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrItemNotFound):
			h.send(s, m.ChannelID, "❌ Такого товара нет в магазине")
		case errors.Is(err, common.ErrOutOfStock):
			h.send(s, m.ChannelID, "❌ Товар закончился")
		case errors.Is(err, common.ErrInsufficientFunds):
			h.send(s, m.ChannelID, "❌ Недостаточно монет в кошельке")
		case errors.Is(err, common.ErrAccountFrozen):
			h.send(s, m.ChannelID, "🧊 Счёт заморожен, покупки недоступны")
		default:
			log.WithError(err).Error("Ошибка покупки")
			h.send(s, m.ChannelID, "❌ Не удалось совершить покупку")
		}
		return
	}

	text := fmt.Sprintf("🛒 Куплено: %s за %s\nКошелёк: %s",
		result.ItemName, common.FormatCoins(result.PricePaid), common.FormatCoins(result.NewBalance))

	// Роль-награда выдаётся по возможности: покупка уже проведена,
	// ошибка Discord её не отменяет.
	if result.RoleReward != nil && h.guildID != "" {
		if err := s.GuildMemberRoleAdd(h.guildID, m.Author.ID, *result.RoleReward); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"role_id": *result.RoleReward,
			}).Warn("Не удалось выдать роль за покупку")
			text += "\n⚠️ Роль выдать не удалось, обратись к администратору"
		} else {
			text += fmt.Sprintf("\n🎖 Выдана роль <@&%s>", *result.RoleReward)
		}
	}

	h.send(s, m.ChannelID, text)
}

// HandleInventory обрабатывает команду !inventory — показывает купленное.
func (h *Handler) HandleInventory(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	inventory, err := h.service.GetInventory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения инвентаря")
		h.send(s, m.ChannelID, "❌ Ошибка получения инвентаря")
		return
	}
	if len(inventory) == 0 {
		h.send(s, m.ChannelID, "🎒 Инвентарь пуст")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎒 Инвентарь:\n")
	for name, count := range inventory {
		sb.WriteString(fmt.Sprintf("• %s × %d\n", name, count))
	}
	h.send(s, m.ChannelID, sb.String())
}

func (h *Handler) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).WithField("channel_id", channelID).Error("Ошибка отправки сообщения")
	}
}
