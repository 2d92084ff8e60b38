// Package admin — handlers.go обрабатывает админ-команды в личных сообщениях:
// !login, !logout, !give, !take, !freeze, !unfreeze, !setlimit,
// !additem, !delitem.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/features/economy"
	"serotonyl.ru/discord-bot/internal/features/shop"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service        *Service
	economyService *economy.Service
	shopService    *shop.Service
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, economyService *economy.Service, shopService *shop.Service) *Handler {
	return &Handler{
		service:        service,
		economyService: economyService,
		shopService:    shopService,
	}
}

// HandleAdminCommand маршрутизирует админ-команду. Возвращает true,
// если команда была админской (даже если выполнить не удалось).
// Вызывается только для личных сообщений.
func (h *Handler) HandleAdminCommand(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, cmd string, args []string) bool {
	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return false
	}

	if cmd == "login" {
		h.handleLogin(ctx, s, m, userID, args)
		return true
	}
	if cmd == "logout" {
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Warn("Ошибка выхода администратора")
		}
		h.send(s, m.ChannelID, "👋 Сессия завершена")
		return true
	}

	adminCommands := map[string]func(context.Context, *discordgo.Session, *discordgo.MessageCreate, []string){
		"give":     h.handleGive,
		"take":     h.handleTake,
		"freeze":   h.handleFreeze,
		"unfreeze": h.handleUnfreeze,
		"setlimit": h.handleSetLimit,
		"additem":  h.handleAddItem,
		"delitem":  h.handleDelItem,
		"audit":    h.handleAudit,
	}
	fn, ok := adminCommands[cmd]
	if !ok {
		return false
	}

	if err := h.service.RequireSession(ctx, userID); err != nil {
		h.send(s, m.ChannelID, "🔒 Нужна авторизация: !login <пароль>")
		return true
	}

	fn(ctx, s, m, args)
	return true
}

// handleLogin обрабатывает !login <пароль>.
func (h *Handler) handleLogin(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, userID int64, args []string) {
	if len(args) < 1 {
		h.send(s, m.ChannelID, "❌ Формат: !login <пароль>")
		return
	}

	err := h.service.Login(ctx, userID, strings.Join(args, " "))
	switch {
	case err == nil:
		h.send(s, m.ChannelID, "✅ Авторизация успешна, сессия на 24 часа")
	case errors.Is(err, common.ErrTooManyAttempts):
		h.send(s, m.ChannelID, "🚫 Слишком много попыток, подожди час")
	case errors.Is(err, common.ErrWrongPassword):
		h.send(s, m.ChannelID, "❌ Неверный пароль")
	default:
		h.send(s, m.ChannelID, "❌ Ошибка авторизации, попробуй позже")
	}
}

// handleGive обрабатывает !give @user... <сумма> — начисляет монеты.
// Несколько упоминаний = пакетное начисление, записи независимы.
func (h *Handler) handleGive(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	h.applyBatch(ctx, s, m, args, economy.TxTypeReward, "Начисление администратором", 1)
}

// handleTake обрабатывает !take @user... <сумма> — списывает монеты.
func (h *Handler) handleTake(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	h.applyBatch(ctx, s, m, args, economy.TxTypePenalty, "Списание администратором", -1)
}

// applyBatch разбирает упоминания и сумму, применяет пакет изменений.
func (h *Handler) applyBatch(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string, txType, description string, sign int64) {
	targets, rest := h.parseTargets(args)
	if len(targets) == 0 || len(rest) == 0 {
		h.send(s, m.ChannelID, "❌ Формат: !give @user [@user...] <сумма>")
		return
	}

	amount, all, err := common.ParseAmount(rest[0])
	if err != nil || all {
		h.send(s, m.ChannelID, "❌ Сумма должна быть положительным числом")
		return
	}

	entries := make([]economy.BatchEntry, 0, len(targets))
	for _, id := range targets {
		entries = append(entries, economy.BatchEntry{
			UserID:      id,
			Amount:      sign * amount,
			Type:        txType,
			Description: description,
		})
	}

	results := h.economyService.BatchUpdate(ctx, entries)

	var sb strings.Builder
	for _, r := range results {
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("❌ <@%d>: %s\n", r.UserID, h.errorText(r.Err)))
		} else {
			sb.WriteString(fmt.Sprintf("✅ <@%d>: %s, кошелёк %s\n",
				r.UserID, common.FormatSignedCoins(sign*amount), common.FormatCoins(r.NewBalance)))
		}
	}
	h.send(s, m.ChannelID, sb.String())
}

// handleFreeze обрабатывает !freeze @user — замораживает счёт.
func (h *Handler) handleFreeze(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	targets, _ := h.parseTargets(args)
	if len(targets) != 1 {
		h.send(s, m.ChannelID, "❌ Формат: !freeze @user")
		return
	}
	if err := h.economyService.Freeze(ctx, targets[0]); err != nil {
		log.WithError(err).Error("Ошибка заморозки счёта")
		h.send(s, m.ChannelID, "❌ Не удалось заморозить счёт")
		return
	}
	h.send(s, m.ChannelID, fmt.Sprintf("🧊 Счёт <@%d> заморожен", targets[0]))
}

// handleUnfreeze обрабатывает !unfreeze @user — размораживает счёт.
func (h *Handler) handleUnfreeze(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	targets, _ := h.parseTargets(args)
	if len(targets) != 1 {
		h.send(s, m.ChannelID, "❌ Формат: !unfreeze @user")
		return
	}
	if err := h.economyService.Unfreeze(ctx, targets[0]); err != nil {
		log.WithError(err).Error("Ошибка разморозки счёта")
		h.send(s, m.ChannelID, "❌ Не удалось разморозить счёт")
		return
	}
	h.send(s, m.ChannelID, fmt.Sprintf("✅ Счёт <@%d> разморожен", targets[0]))
}

// handleSetLimit обрабатывает !setlimit @user <макс. кошелёк> <дневной лимит снятия>.
// Ноль = без ограничения.
func (h *Handler) handleSetLimit(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	targets, rest := h.parseTargets(args)
	if len(targets) != 1 || len(rest) < 2 {
		h.send(s, m.ChannelID, "❌ Формат: !setlimit @user <макс. кошелёк> <дневной лимит снятия> (0 = без лимита)")
		return
	}

	maxBalance, err1 := strconv.ParseInt(rest[0], 10, 64)
	dailyWithdraw, err2 := strconv.ParseInt(rest[1], 10, 64)
	if err1 != nil || err2 != nil || maxBalance < 0 || dailyWithdraw < 0 {
		h.send(s, m.ChannelID, "❌ Лимиты должны быть неотрицательными числами")
		return
	}

	if err := h.economyService.SetWalletLimit(ctx, targets[0], maxBalance, dailyWithdraw); err != nil {
		log.WithError(err).Error("Ошибка установки лимитов")
		h.send(s, m.ChannelID, "❌ Не удалось установить лимиты")
		return
	}
	h.send(s, m.ChannelID, fmt.Sprintf("✅ Лимиты <@%d>: кошелёк %d, снятие в день %d", targets[0], maxBalance, dailyWithdraw))
}

// handleAddItem обрабатывает !additem <название> | <описание> | <цена> | <запас> [| <ID роли>].
// Запас -1 = безлимитный.
func (h *Handler) handleAddItem(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	parts := strings.Split(strings.Join(args, " "), "|")
	if len(parts) < 4 {
		h.send(s, m.ChannelID, "❌ Формат: !additem <название> | <описание> | <цена> | <запас> [| <ID роли>]")
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	price, err1 := strconv.ParseInt(parts[2], 10, 64)
	stock, err2 := strconv.ParseInt(parts[3], 10, 64)
	if err1 != nil || err2 != nil {
		h.send(s, m.ChannelID, "❌ Цена и запас должны быть числами")
		return
	}

	var roleReward *string
	if len(parts) >= 5 && parts[4] != "" {
		roleReward = &parts[4]
	}

	err := h.shopService.AddItem(ctx, parts[0], parts[1], price, stock, roleReward)
	switch {
	case err == nil:
		h.send(s, m.ChannelID, fmt.Sprintf("✅ Товар «%s» добавлен за %s", parts[0], common.FormatCoins(price)))
	case errors.Is(err, common.ErrItemExists):
		h.send(s, m.ChannelID, "❌ Товар с таким названием уже есть")
	case errors.Is(err, common.ErrInvalidAmount):
		h.send(s, m.ChannelID, "❌ Некорректные название, цена или запас")
	default:
		log.WithError(err).Error("Ошибка добавления товара")
		h.send(s, m.ChannelID, "❌ Не удалось добавить товар")
	}
}

// handleDelItem обрабатывает !delitem <название> — снимает товар с витрины.
func (h *Handler) handleDelItem(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.send(s, m.ChannelID, "❌ Формат: !delitem <название>")
		return
	}
	name := strings.Join(args, " ")

	err := h.shopService.RemoveItem(ctx, name)
	switch {
	case err == nil:
		h.send(s, m.ChannelID, fmt.Sprintf("✅ Товар «%s» снят с витрины", name))
	case errors.Is(err, common.ErrItemNotFound):
		h.send(s, m.ChannelID, "❌ Такого товара нет")
	default:
		log.WithError(err).Error("Ошибка удаления товара")
		h.send(s, m.ChannelID, "❌ Не удалось удалить товар")
	}
}

// handleAudit обрабатывает !audit @user — сверяет журнал с кошельком.
func (h *Handler) handleAudit(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	targets, _ := h.parseTargets(args)
	if len(targets) != 1 {
		h.send(s, m.ChannelID, "❌ Формат: !audit @user")
		return
	}

	report, err := h.economyService.Reconcile(ctx, targets[0])
	if err != nil {
		log.WithError(err).Error("Ошибка сверки журнала")
		h.send(s, m.ChannelID, "❌ Не удалось выполнить сверку")
		return
	}

	status := "✅ журнал сходится с кошельком"
	if !report.Consistent {
		status = "⚠️ РАСХОЖДЕНИЕ журнала с кошельком"
	}
	text := fmt.Sprintf("🔍 Сверка <@%d>:\nКошелёк: %s\nСумма журнала: %s (ожидалось %s)\n%s",
		report.UserID,
		common.FormatCoins(report.Wallet),
		common.FormatSignedCoins(report.LedgerSum),
		common.FormatSignedCoins(report.Expected),
		status)
	if report.HistoryLimited {
		text += "\nℹ️ История обрезается по лимиту, сверка приблизительная"
	}
	h.send(s, m.ChannelID, text)
}

// parseTargets выделяет из аргументов упоминания/ID пользователей
// и возвращает остальные аргументы отдельно.
func (h *Handler) parseTargets(args []string) ([]int64, []string) {
	var targets []int64
	var rest []string
	for _, a := range args {
		if id, ok := common.MentionToID(a); ok {
			targets = append(targets, id)
			continue
		}
		rest = append(rest, a)
	}
	return targets, rest
}

// errorText переводит бизнес-ошибки пакета в короткие сообщения.
func (h *Handler) errorText(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return "недостаточно монет"
	case errors.Is(err, common.ErrAccountFrozen):
		return "счёт заморожен"
	case errors.Is(err, common.ErrLimitExceeded):
		return "превышен лимит кошелька"
	default:
		return "ошибка операции"
	}
}

func (h *Handler) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).WithField("channel_id", channelID).Error("Ошибка отправки сообщения")
	}
}
