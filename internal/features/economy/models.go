// Package economy управляет виртуальной валютой «монеты»: кошелёк,
// банк, журнал транзакций, лимиты и переводы между пользователями.
// models.go описывает структуры для счетов и транзакций.
package economy

import "time"

// Статусы счёта. Замороженный счёт отклоняет любые списания и начисления,
// разморозить его может только администратор.
const (
	StatusActive = "active"
	StatusFrozen = "frozen"
)

// Account представляет счёт пользователя.
// Каждый участник имеет ровно одну запись в таблице users.
// Счёт создаётся лениво при первом обращении и никогда не удаляется —
// иначе история транзакций потеряет смысл.
type Account struct {
	UserID       int64      `db:"user_id"`       // Discord user ID
	Balance      int64      `db:"balance"`       // Кошелёк (всегда >= 0)
	BankBalance  int64      `db:"bank_balance"`  // Банк (всегда >= 0)
	TotalEarned  int64      `db:"total_earned"`  // Сколько всего заработано (информационный счётчик)
	TotalSpent   int64      `db:"total_spent"`   // Сколько всего потрачено (информационный счётчик)
	LastDaily    *time.Time `db:"last_daily"`    // Когда забирал ежедневку (nil — никогда)
	DailyStreak  int        `db:"daily_streak"`  // Текущий стрик ежедневок
	LastWork     *time.Time `db:"last_work"`     // Когда работал (nil — никогда)
	Status       string     `db:"status"`        // active | frozen
	LastActivity time.Time  `db:"last_activity"` // Последняя операция со счётом
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Balances — кошелёк и банк одним значением, ответ на запрос баланса.
type Balances struct {
	Wallet int64
	Bank   int64
}

// Total возвращает суммарное богатство (кошелёк + банк).
func (b Balances) Total() int64 {
	return b.Wallet + b.Bank
}

// Transaction представляет одну запись журнала.
// Журнал append-only: сумма всех amount пользователя сходится
// с его кошельком (balance - стартовый баланс).
type Transaction struct {
	ID              int64     `db:"id"`               // ID транзакции
	UserID          int64     `db:"user_id"`          // Чей счёт
	Amount          int64     `db:"amount"`           // Со знаком: + начисление, - списание
	TransactionType string    `db:"transaction_type"` // Тип: 'transfer', 'daily', 'purchase', и т.д.
	Description     string    `db:"description"`      // Описание для отображения
	CreatedAt       time.Time `db:"created_at"`       // Время транзакции
}

// Допустимые типы транзакций
const (
	TxTypeCredit   = "credit"   // Произвольное начисление (админ)
	TxTypeDebit    = "debit"    // Произвольное списание
	TxTypeTransfer = "transfer" // Перевод между пользователями
	TxTypePenalty  = "penalty"  // Штраф (изъятие админом)
	TxTypeReward   = "reward"   // Награда (выдача админом)
	TxTypePurchase = "purchase" // Покупка в магазине
	TxTypeDaily    = "daily"    // Ежедневная награда
	TxTypeWork     = "work"     // Заработок с !work
	TxTypeDeposit  = "deposit"  // Кошелёк -> банк (в журнале со знаком минус)
	TxTypeWithdraw = "withdraw" // Банк -> кошелёк (в журнале со знаком плюс)
)

// WalletLimit — необязательные ограничения кошелька (0 = лимита нет).
type WalletLimit struct {
	UserID             int64 `db:"user_id"`
	MaxBalance         int64 `db:"max_balance"`          // Потолок кошелька
	DailyWithdrawLimit int64 `db:"daily_withdraw_limit"` // Сколько можно снять из банка за день
}

// TransferResult — результат перевода между пользователями.
type TransferResult struct {
	FromUserID    int64
	ToUserID      int64
	Amount        int64
	SenderBalance int64 // Кошелёк отправителя после перевода
}

// LeaderboardEntry — строка таблицы лидеров.
type LeaderboardEntry struct {
	UserID int64
	Total  int64 // Кошелёк + банк
}

// BatchEntry — одна запись пакетного обновления балансов.
type BatchEntry struct {
	UserID      int64
	Amount      int64
	Type        string
	Description string
}

// BatchResult — результат обработки одной записи пакета.
// Записи независимы: ошибка одной не мешает остальным.
type BatchResult struct {
	UserID     int64
	Err        error
	NewBalance int64 // Кошелёк после операции (если Err == nil)
}

// ReconcileReport — сверка журнала с кошельком.
// Сумма записей журнала должна равняться кошельку минус стартовый баланс.
// При включённой обрезке истории расхождение ожидаемо.
type ReconcileReport struct {
	UserID         int64
	Wallet         int64
	LedgerSum      int64
	Expected       int64 // Кошелёк минус стартовый баланс
	Consistent     bool
	HistoryLimited bool // История обрезается — сверка приблизительная
}
