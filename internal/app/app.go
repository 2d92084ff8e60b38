// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/bot"
	"serotonyl.ru/discord-bot/internal/config"
	"serotonyl.ru/discord-bot/internal/db/postgres"
	"serotonyl.ru/discord-bot/internal/features/admin"
	"serotonyl.ru/discord-bot/internal/features/daily"
	"serotonyl.ru/discord-bot/internal/features/economy"
	"serotonyl.ru/discord-bot/internal/features/shop"
	"serotonyl.ru/discord-bot/internal/features/work"
	"serotonyl.ru/discord-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Session   *discordgo.Session
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Discord-сессия ===
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Discord-сессии: %w", err)
	}

	// === 3. Репозитории ===
	economyRepo := economy.NewRepository(pool, cfg.EconomyStartingBalance, cfg.EconomyHistoryLimit)
	dailyRepo := daily.NewRepository(pool, cfg.EconomyStartingBalance, cfg.EconomyHistoryLimit)
	shopRepo := shop.NewRepository(pool, cfg.EconomyStartingBalance, cfg.EconomyHistoryLimit)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	economyService := economy.NewService(economyRepo)
	dailyService := daily.NewService(dailyRepo, cfg)
	shopService := shop.NewService(shopRepo)
	workService := work.NewService(pool, economyService, cfg)
	adminService := admin.NewService(adminRepo, cfg)

	// === 5. Обработчики ===
	economyHandler := economy.NewHandler(economyService)
	dailyHandler := daily.NewHandler(dailyService)
	shopHandler := shop.NewHandler(shopService, cfg.GuildID)
	workHandler := work.NewHandler(workService)
	adminHandler := admin.NewHandler(adminService, economyService, shopService)

	// === 6. Собираем бота ===
	b := bot.New(
		session, cfg,
		economyService, economyHandler,
		dailyHandler,
		shopHandler,
		workHandler,
		adminHandler,
	)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(economyService, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		Session:   session,
	}, nil
}

// Migrate выполняет все SQL-миграции. Используется при старте
// приложения и интеграционными тестами для подготовки схемы.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Transactions},
		{3, migration003Shop},
		{4, migration004WalletLimits},
		{5, migration005Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0,
    bank_balance BIGINT NOT NULL DEFAULT 0,
    total_earned BIGINT NOT NULL DEFAULT 0,
    total_spent BIGINT NOT NULL DEFAULT 0,
    last_daily TIMESTAMP,
    daily_streak INTEGER NOT NULL DEFAULT 0,
    last_work TIMESTAMP,
    inventory JSONB NOT NULL DEFAULT '{}',
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    last_activity TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_total ON users((balance + bank_balance) DESC);
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Shop = `
CREATE TABLE IF NOT EXISTS shop (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) UNIQUE NOT NULL,
    description TEXT,
    price BIGINT NOT NULL,
    stock BIGINT NOT NULL DEFAULT -1,
    role_reward VARCHAR(64),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP DEFAULT NOW()
);
`

var migration004WalletLimits = `
CREATE TABLE IF NOT EXISTS wallet_limits (
    user_id BIGINT PRIMARY KEY REFERENCES users(user_id),
    max_balance BIGINT NOT NULL DEFAULT 0,
    daily_withdraw_limit BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration005Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`
