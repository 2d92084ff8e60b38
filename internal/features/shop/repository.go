// Package shop — repository.go выполняет операции с таблицей shop
// и инвентарём (JSONB-колонка в users). Покупка — одна транзакция:
// остаток, инвентарь, списание и журнал меняются вместе или никак.
package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/discord-bot/internal/common"
	"serotonyl.ru/discord-bot/internal/db/postgres"
	"serotonyl.ru/discord-bot/internal/features/economy"
)

// Repository предоставляет методы для работы с магазином.
type Repository struct {
	db *pgxpool.Pool

	startingBalance int64
	historyLimit    int
}

// NewRepository создаёт репозиторий магазина.
func NewRepository(db *pgxpool.Pool, startingBalance int64, historyLimit int) *Repository {
	return &Repository{
		db:              db,
		startingBalance: startingBalance,
		historyLimit:    historyLimit,
	}
}

// GetItems возвращает все активные позиции каталога.
func (r *Repository) GetItems(ctx context.Context) ([]*Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, price, stock, role_reward, is_active, created_at
		FROM shop
		WHERE is_active = TRUE
		ORDER BY price ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Stock,
			&it.RoleReward, &it.IsActive, &it.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования предмета: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// GetItem возвращает активный предмет по имени.
func (r *Repository) GetItem(ctx context.Context, name string) (*Item, error) {
	var it Item
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, price, stock, role_reward, is_active, created_at
		FROM shop
		WHERE name = $1 AND is_active = TRUE
	`, name).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Stock,
		&it.RoleReward, &it.IsActive, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения предмета: %w", err)
	}
	return &it, nil
}

// AddItem добавляет позицию в каталог.
func (r *Repository) AddItem(ctx context.Context, name, description string, price, stock int64, roleReward *string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO shop (name, description, price, stock, role_reward)
		VALUES ($1, $2, $3, $4, $5)
	`, name, description, price, stock, roleReward)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrItemExists
		}
		return fmt.Errorf("ошибка добавления предмета: %w", err)
	}
	return nil
}

// isUniqueViolation распознаёт нарушение уникальности имени предмета.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// DeactivateItem снимает предмет с продажи (мягкое удаление:
// купленные копии остаются в инвентарях).
func (r *Repository) DeactivateItem(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE shop SET is_active = FALSE WHERE name = $1 AND is_active = TRUE
	`, name)
	if err != nil {
		return fmt.Errorf("ошибка снятия предмета: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// Buy выполняет покупку предмета.
// Четыре мутации — остаток, инвентарь, списание, журнал — одна
// транзакция: сбой на любом шаге откатывает всё.
func (r *Repository) Buy(ctx context.Context, userID int64, itemName string) (*PurchaseResult, error) {
	var result PurchaseResult
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Блокируем строку предмета: остаток проверяется по актуальному значению
		var (
			price      int64
			stock      int64
			roleReward *string
		)
		err := tx.QueryRow(ctx, `
			SELECT price, stock, role_reward FROM shop
			WHERE name = $1 AND is_active = TRUE
			FOR UPDATE
		`, itemName).Scan(&price, &stock, &roleReward)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("ошибка получения предмета: %w", err)
		}

		if stock == 0 {
			return common.ErrOutOfStock
		}

		// Счёт создаётся лениво, затем блокируем его строку
		_, err = tx.Exec(ctx, `
			INSERT INTO users (user_id, balance)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, r.startingBalance)
		if err != nil {
			return fmt.Errorf("ошибка создания счёта: %w", err)
		}

		var (
			balance int64
			status  string
		)
		err = tx.QueryRow(ctx, `
			SELECT balance, status FROM users WHERE user_id = $1 FOR UPDATE
		`, userID).Scan(&balance, &status)
		if err != nil {
			return fmt.Errorf("ошибка получения счёта: %w", err)
		}

		if status == economy.StatusFrozen {
			return common.ErrAccountFrozen
		}
		if balance < price {
			return common.ErrInsufficientFunds
		}

		// Остаток уменьшается только у ограниченных предметов
		if stock > 0 {
			_, err = tx.Exec(ctx, `
				UPDATE shop SET stock = stock - 1 WHERE name = $1
			`, itemName)
			if err != nil {
				return fmt.Errorf("ошибка обновления остатка: %w", err)
			}
		}

		// Инвентарь: количество предмета +1
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET inventory = jsonb_set(
				COALESCE(inventory, '{}'::jsonb),
				ARRAY[$2],
				to_jsonb(COALESCE((inventory ->> $2)::bigint, 0) + 1)
			)
			WHERE user_id = $1
		`, userID, itemName)
		if err != nil {
			return fmt.Errorf("ошибка обновления инвентаря: %w", err)
		}

		// Списание с кошелька и счётчик потраченного
		newBalance := balance - price
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET balance = $2, total_spent = total_spent + $3,
			    last_activity = NOW(), updated_at = NOW()
			WHERE user_id = $1
		`, userID, newBalance, price)
		if err != nil {
			return fmt.Errorf("ошибка списания: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, amount, transaction_type, description)
			VALUES ($1, $2, $3, $4)
		`, userID, -price, economy.TxTypePurchase, fmt.Sprintf("Покупка: %s", itemName))
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}

		if r.historyLimit > 0 {
			// Сегодняшние снятия не трогаем: по ним считается
			// дневной лимит на вывод из банка
			_, err = tx.Exec(ctx, `
				DELETE FROM transactions
				WHERE user_id = $1
				  AND NOT (transaction_type = 'withdraw' AND created_at >= date_trunc('day', NOW()))
				  AND id NOT IN (
					SELECT id FROM transactions
					WHERE user_id = $1
					ORDER BY id DESC
					LIMIT $2
				)
			`, userID, r.historyLimit)
			if err != nil {
				return fmt.Errorf("ошибка обрезки истории: %w", err)
			}
		}

		result = PurchaseResult{
			ItemName:   itemName,
			PricePaid:  price,
			RoleReward: roleReward,
			NewBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetInventory возвращает инвентарь пользователя: имя предмета → количество.
func (r *Repository) GetInventory(ctx context.Context, userID int64) (map[string]int64, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(inventory, '{}'::jsonb) FROM users WHERE user_id = $1
	`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}

	inventory := make(map[string]int64)
	if err := json.Unmarshal(raw, &inventory); err != nil {
		return nil, fmt.Errorf("ошибка разбора инвентаря: %w", err)
	}
	return inventory, nil
}
