// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает события Discord, фильтрует их и маршрутизирует команды.
package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/bot/middleware"
	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/config"
	"serotonyl.ru/discord-bot/internal/features/admin"
	"serotonyl.ru/discord-bot/internal/features/daily"
	"serotonyl.ru/discord-bot/internal/features/economy"
	"serotonyl.ru/discord-bot/internal/features/shop"
	"serotonyl.ru/discord-bot/internal/features/work"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config

	rateLimiter *middleware.RateLimiter

	economyHandler *economy.Handler
	dailyHandler   *daily.Handler
	shopHandler    *shop.Handler
	workHandler    *work.Handler
	adminHandler   *admin.Handler

	economyService *economy.Service

	parser *CommandParser

	// ограничитель параллелизма обработки сообщений
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	session *discordgo.Session,
	cfg *config.Config,
	economyService *economy.Service,
	economyHandler *economy.Handler,
	dailyHandler *daily.Handler,
	shopHandler *shop.Handler,
	workHandler *work.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		session:        session,
		cfg:            cfg,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		economyHandler: economyHandler,
		dailyHandler:   dailyHandler,
		shopHandler:    shopHandler,
		workHandler:    workHandler,
		adminHandler:   adminHandler,
		economyService: economyService,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start подключается к Discord и блокируется до отмены контекста.
func (b *Bot) Start(ctx context.Context) error {
	b.session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// лимит параллелизма
		b.inflight <- struct{}{}
		go func() {
			defer func() { <-b.inflight }()
			b.handleMessage(ctx, s, m)
		}()
	})

	if err := b.session.Open(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"guild_id":     b.cfg.GuildID,
	}).Info("Бот запущен и ожидает сообщения...")

	<-ctx.Done()
	log.Info("Бот останавливается (ctx done)...")
	b.rateLimiter.Close()
	return b.session.Close()
}

// handleMessage обрабатывает одно входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	defer middleware.RecoverFromPanic()

	// Игнорируем ботов и собственные сообщения
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.Content == "" {
		return
	}

	// Логируем входящее
	middleware.LogMessage(m)

	// Работаем только в своём сервере (и в личных сообщениях)
	if m.GuildID != "" && b.cfg.GuildID != "" && m.GuildID != b.cfg.GuildID {
		return
	}

	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}

	// Rate limiting
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	// Счёт создаётся лениво на первом сообщении
	if err := b.economyService.EnsureAccount(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureAccount failed")
	}
	b.economyService.Touch(ctx, userID)

	cmd, args, isCommand := b.parser.ParseCommand(m.Content)

	// В личных сообщениях сначала пробуем админ-команды
	if m.GuildID == "" && isCommand {
		if b.adminHandler.HandleAdminCommand(ctx, s, m, cmd, args) {
			return
		}
	}

	if !isCommand {
		// Не команда — возможно, это ответ на задание !work
		if b.cfg.FeatureWorkEnabled {
			b.workHandler.HandleAnswer(ctx, s, m)
		}
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	b.routeCommand(ctx, s, m, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, cmd string, args []string) {
	switch cmd {
	case "help", "start":
		b.sendHelp(s, m.ChannelID)

	case "balance", "bal":
		b.economyHandler.HandleBalance(ctx, s, m, args)

	case "deposit", "dep":
		b.economyHandler.HandleDeposit(ctx, s, m, args)

	case "withdraw", "with":
		b.economyHandler.HandleWithdraw(ctx, s, m, args)

	case "pay", "transfer":
		b.economyHandler.HandlePay(ctx, s, m, args)

	case "transactions", "tx":
		b.economyHandler.HandleTransactions(ctx, s, m, args)

	case "leaderboard", "top":
		b.economyHandler.HandleLeaderboard(ctx, s, m, args)

	case "daily":
		b.dailyHandler.HandleDaily(ctx, s, m)

	case "shop":
		if b.cfg.FeatureShopEnabled {
			b.shopHandler.HandleShop(ctx, s, m)
		} else {
			b.send(s, m.ChannelID, "🏪 Магазин временно отключён")
		}

	case "buy":
		if b.cfg.FeatureShopEnabled {
			b.shopHandler.HandleBuy(ctx, s, m, args)
		}

	case "inventory", "inv":
		if b.cfg.FeatureShopEnabled {
			b.shopHandler.HandleInventory(ctx, s, m)
		}

	case "work":
		if b.cfg.FeatureWorkEnabled {
			b.workHandler.HandleWork(ctx, s, m)
		} else {
			b.send(s, m.ChannelID, "💼 Работа временно отключена")
		}
	}
}

// sendHelp отправляет список команд.
func (b *Bot) sendHelp(s *discordgo.Session, channelID string) {
	help := strings.Join([]string{
		"Команды:",
		"!balance — кошелёк и банк",
		"!daily — ежедневная награда",
		"!deposit <сумма|all> / !withdraw <сумма|all> — банк",
		"!pay @user <сумма> — перевод",
		"!transactions — история операций",
		"!leaderboard — таблица лидеров",
		"!shop / !buy <товар> / !inventory — магазин",
		"!work — подработка",
	}, "\n")
	b.send(s, channelID, help)
}

// send — утилита для отправки сообщений.
func (b *Bot) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).WithField("channel_id", channelID).Error("Ошибка отправки сообщения")
	}
}

// CommandParser парсит команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
