// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Discord ---
	DiscordBotToken string `envconfig:"DISCORD_BOT_TOKEN" required:"true"`
	// ID сервера, на котором бот работает (единственный разрешённый guild)
	GuildID string `envconfig:"GUILD_ID" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"discord_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько команд обрабатываем параллельно. Иначе "go на каждое сообщение" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Economy ---
	EconomyStartingBalance int64 `envconfig:"ECONOMY_STARTING_BALANCE" default:"1000"`
	// Сколько транзакций храним на пользователя (0 = без ограничения).
	// Баланс авторитетен всегда, обрезка истории на него не влияет.
	EconomyHistoryLimit int `envconfig:"ECONOMY_HISTORY_LIMIT" default:"0"`

	// --- Daily ---
	DailyBaseReward     int64 `envconfig:"DAILY_BASE_REWARD" default:"100"`
	DailyStreakBonus    int64 `envconfig:"DAILY_STREAK_BONUS" default:"50"`

	// --- Work ---
	WorkMinAmount int64         `envconfig:"WORK_MIN_AMOUNT" default:"50"`
	WorkMaxAmount int64         `envconfig:"WORK_MAX_AMOUNT" default:"200"`
	WorkCooldown  time.Duration `envconfig:"WORK_COOLDOWN" default:"1h"`

	// --- Bank ---
	// Дневная ставка на банковский остаток (0.01 = 1%). 0 отключает начисление.
	BankInterestRate float64 `envconfig:"BANK_INTEREST_RATE" default:"0"`
	// Размер пачки для начисления процентов: не держим лок на всю таблицу.
	BankInterestBatchSize int `envconfig:"BANK_INTEREST_BATCH_SIZE" default:"500"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureShopEnabled bool `envconfig:"FEATURE_SHOP_ENABLED" default:"true"`
	FeatureWorkEnabled bool `envconfig:"FEATURE_WORK_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.EconomyStartingBalance < 0 {
		return fmt.Errorf("ECONOMY_STARTING_BALANCE не может быть отрицательным")
	}
	if c.EconomyHistoryLimit < 0 {
		return fmt.Errorf("ECONOMY_HISTORY_LIMIT не может быть отрицательным")
	}
	if c.DailyBaseReward <= 0 {
		return fmt.Errorf("DAILY_BASE_REWARD должен быть > 0")
	}
	if c.WorkMinAmount <= 0 || c.WorkMaxAmount < c.WorkMinAmount {
		return fmt.Errorf("некорректные WORK_MIN_AMOUNT/WORK_MAX_AMOUNT")
	}
	if c.BankInterestRate < 0 || c.BankInterestRate > 1 {
		return fmt.Errorf("BANK_INTEREST_RATE должен быть в диапазоне [0, 1]")
	}
	if c.BankInterestBatchSize <= 0 {
		return fmt.Errorf("BANK_INTEREST_BATCH_SIZE должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
