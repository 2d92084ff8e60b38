// Package economy — handlers.go обрабатывает команды:
// !balance, !deposit, !withdraw, !pay, !transactions, !leaderboard.
package economy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
}

// NewHandler создаёт новый обработчик экономических команд.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleBalance обрабатывает команду !balance [@user] — показывает кошелёк и банк.
func (h *Handler) HandleBalance(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	targetID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}
	whose := "Твой баланс"

	// Можно посмотреть чужой баланс через упоминание
	if len(m.Mentions) > 0 {
		targetID, err = common.ParseSnowflake(m.Mentions[0].ID)
		if err != nil {
			h.send(s, m.ChannelID, "❌ Не удалось распознать пользователя")
			return
		}
		whose = fmt.Sprintf("Баланс <@%d>", targetID)
	}

	balances, err := h.service.GetBalances(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.send(s, m.ChannelID, "❌ Ошибка получения баланса")
		return
	}

	text := fmt.Sprintf("💰 %s\nКошелёк: %s\nБанк: %s\nВсего: %s",
		whose,
		common.FormatCoins(balances.Wallet),
		common.FormatCoins(balances.Bank),
		common.FormatCoins(balances.Total()))
	h.send(s, m.ChannelID, text)
}

// HandleDeposit обрабатывает команду !deposit <сумма|all> — кошелёк → банк.
func (h *Handler) HandleDeposit(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		h.send(s, m.ChannelID, "❌ Формат: !deposit <сумма|all>")
		return
	}
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	amount, all, err := common.ParseAmount(args[0])
	if err != nil {
		h.send(s, m.ChannelID, "❌ Сумма должна быть положительным числом (можно 2k, 1.5m, all)")
		return
	}

	balances, err := h.service.Deposit(ctx, userID, amount, all)
	if err != nil {
		h.send(s, m.ChannelID, h.errorText(err, "Не удалось положить монеты в банк"))
		return
	}

	h.send(s, m.ChannelID, fmt.Sprintf("🏦 Готово! Кошелёк: %s, банк: %s",
		common.FormatCoins(balances.Wallet), common.FormatCoins(balances.Bank)))
}

// HandleWithdraw обрабатывает команду !withdraw <сумма|all> — банк → кошелёк.
func (h *Handler) HandleWithdraw(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		h.send(s, m.ChannelID, "❌ Формат: !withdraw <сумма|all>")
		return
	}
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	amount, all, err := common.ParseAmount(args[0])
	if err != nil {
		h.send(s, m.ChannelID, "❌ Сумма должна быть положительным числом (можно 2k, 1.5m, all)")
		return
	}

	balances, err := h.service.Withdraw(ctx, userID, amount, all)
	if err != nil {
		h.send(s, m.ChannelID, h.errorText(err, "Не удалось снять монеты"))
		return
	}

	h.send(s, m.ChannelID, fmt.Sprintf("💵 Готово! Кошелёк: %s, банк: %s",
		common.FormatCoins(balances.Wallet), common.FormatCoins(balances.Bank)))
}

// HandlePay обрабатывает команду !pay @user <сумма> — перевод между кошельками.
func (h *Handler) HandlePay(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 2 || len(m.Mentions) == 0 {
		h.send(s, m.ChannelID, "❌ Формат: !pay @user <сумма>")
		return
	}
	fromID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}
	toID, err := common.ParseSnowflake(m.Mentions[0].ID)
	if err != nil {
		h.send(s, m.ChannelID, "❌ Не удалось распознать получателя")
		return
	}

	// Сумма — первый аргумент, не являющийся упоминанием
	var amountArg string
	for _, a := range args {
		if _, isMention := common.MentionToID(a); !isMention {
			amountArg = a
			break
		}
	}
	amount, all, err := common.ParseAmount(amountArg)
	if err != nil || all {
		h.send(s, m.ChannelID, "❌ Сумма должна быть положительным числом")
		return
	}

	result, err := h.service.Transfer(ctx, fromID, toID, amount, fmt.Sprintf("Перевод пользователю %d", toID))
	if err != nil {
		h.send(s, m.ChannelID, h.errorText(err, "Не удалось выполнить перевод"))
		return
	}

	h.send(s, m.ChannelID, fmt.Sprintf("✅ Переведено %s <@%d>\nТвой кошелёк: %s",
		common.FormatCoins(result.Amount), toID, common.FormatCoins(result.SenderBalance)))
}

// HandleTransactions обрабатывает команду !transactions [тип] — история операций.
func (h *Handler) HandleTransactions(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	txType := ""
	if len(args) > 0 {
		txType = strings.ToLower(args[0])
	}

	transactions, err := h.service.GetTransactions(ctx, userID, 10, txType)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.send(s, m.ChannelID, "❌ Ошибка получения истории транзакций")
		return
	}
	if len(transactions) == 0 {
		h.send(s, m.ChannelID, "📭 История транзакций пуста")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Последние транзакции:\n")
	for _, tx := range transactions {
		sb.WriteString(fmt.Sprintf("%s | %s | %s | %s\n",
			common.FormatDateTime(tx.CreatedAt),
			tx.TransactionType,
			common.FormatSignedCoins(tx.Amount),
			tx.Description))
	}
	h.send(s, m.ChannelID, sb.String())
}

// HandleLeaderboard обрабатывает команду !leaderboard [страница] — топ по общему балансу.
func (h *Handler) HandleLeaderboard(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	const pageSize = 10

	page := 1
	if len(args) > 0 {
		if p, err := strconv.Atoi(args[0]); err == nil && p > 0 {
			page = p
		}
	}

	entries, err := h.service.GetLeaderboard(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		log.WithError(err).Error("Ошибка получения таблицы лидеров")
		h.send(s, m.ChannelID, "❌ Ошибка получения таблицы лидеров")
		return
	}
	if len(entries) == 0 {
		h.send(s, m.ChannelID, "📭 На этой странице никого нет")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 Таблица лидеров (страница %d):\n", page))
	for i, e := range entries {
		rank := (page-1)*pageSize + i + 1
		prefix := fmt.Sprintf("%d.", rank)
		if rank <= len(medals) {
			prefix = medals[rank-1]
		}
		sb.WriteString(fmt.Sprintf("%s <@%d> — %s\n", prefix, e.UserID, common.FormatCoins(e.Total)))
	}
	h.send(s, m.ChannelID, sb.String())
}

// errorText переводит бизнес-ошибки в сообщения для пользователя.
func (h *Handler) errorText(err error, fallback string) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return "❌ Недостаточно монет"
	case errors.Is(err, common.ErrAccountFrozen):
		return "🧊 Счёт заморожен, операция недоступна"
	case errors.Is(err, common.ErrLimitExceeded):
		return "❌ Превышен лимит кошелька"
	case errors.Is(err, common.ErrSelfTransfer):
		return "❌ Нельзя переводить монеты самому себе"
	case errors.Is(err, common.ErrInvalidAmount):
		return "❌ Сумма должна быть положительной"
	default:
		log.WithError(err).Error("Ошибка операции экономики")
		return "❌ " + fallback
	}
}

// send — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).WithField("channel_id", channelID).Error("Ошибка отправки сообщения")
	}
}
