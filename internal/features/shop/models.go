// Package shop управляет магазином и инвентарём.
// models.go описывает структуры каталога и результатов покупки.
package shop

import "time"

// Item — позиция каталога магазина.
type Item struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`        // Уникальное имя предмета
	Description string    `db:"description"` // Описание для витрины
	Price       int64     `db:"price"`       // Цена в монетах (>= 0)
	Stock       int64     `db:"stock"`       // -1 = неограниченно, иначе остаток
	RoleReward  *string   `db:"role_reward"` // ID Discord-роли, выдаваемой при покупке
	IsActive    bool      `db:"is_active"`   // false = снят с продажи (мягкое удаление)
	CreatedAt   time.Time `db:"created_at"`
}

// StockUnlimited — значение stock для неограниченного запаса.
const StockUnlimited = -1

// PurchaseResult — результат покупки.
// RoleReward магазин только сообщает: роль выдаёт внешний слой,
// у хранилища нет доступа к правам Discord.
type PurchaseResult struct {
	ItemName   string
	PricePaid  int64
	RoleReward *string
	NewBalance int64 // Кошелёк после покупки
}
