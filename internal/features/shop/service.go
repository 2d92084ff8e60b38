// Package shop — service.go содержит бизнес-логику магазина.
package shop

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-bot/internal/common"
)

// shopRepo — операции хранилища, нужные сервису.
type shopRepo interface {
	GetItems(ctx context.Context) ([]*Item, error)
	GetItem(ctx context.Context, name string) (*Item, error)
	AddItem(ctx context.Context, name, description string, price, stock int64, roleReward *string) error
	DeactivateItem(ctx context.Context, name string) error
	Buy(ctx context.Context, userID int64, itemName string) (*PurchaseResult, error)
	GetInventory(ctx context.Context, userID int64) (map[string]int64, error)
}

// Service управляет магазином.
type Service struct {
	repo shopRepo
}

// NewService создаёт сервис магазина.
func NewService(repo shopRepo) *Service {
	return &Service{repo: repo}
}

// GetItems возвращает витрину (активные позиции).
func (s *Service) GetItems(ctx context.Context) ([]*Item, error) {
	items, err := s.repo.GetItems(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения каталога")
		return nil, common.ErrTransactionFailed
	}
	return items, nil
}

// Buy покупает предмет для пользователя.
// Бизнес-ошибки (нет предмета, нет денег, нет остатка) уходят как есть.
func (s *Service) Buy(ctx context.Context, userID int64, itemName string) (*PurchaseResult, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, common.ErrItemNotFound
	}

	result, err := s.repo.Buy(ctx, userID, itemName)
	if err != nil {
		if common.IsBusinessError(err) {
			return nil, err
		}
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"item":    itemName,
		}).Error("Ошибка покупки")
		return nil, common.ErrTransactionFailed
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item":    result.ItemName,
		"price":   result.PricePaid,
	}).Info("Покупка выполнена")

	return result, nil
}

// GetInventory возвращает инвентарь пользователя.
func (s *Service) GetInventory(ctx context.Context, userID int64) (map[string]int64, error) {
	inv, err := s.repo.GetInventory(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения инвентаря")
		return nil, common.ErrTransactionFailed
	}
	return inv, nil
}

// AddItem добавляет позицию в каталог (для админки).
func (s *Service) AddItem(ctx context.Context, name, description string, price, stock int64, roleReward *string) error {
	name = strings.TrimSpace(name)
	if name == "" || price < 0 || stock < StockUnlimited {
		return common.ErrInvalidAmount
	}
	err := s.repo.AddItem(ctx, name, description, price, stock, roleReward)
	if err != nil && !common.IsBusinessError(err) {
		log.WithError(err).WithField("item", name).Error("Ошибка добавления предмета")
		return common.ErrTransactionFailed
	}
	return err
}

// RemoveItem снимает предмет с продажи (для админки).
func (s *Service) RemoveItem(ctx context.Context, name string) error {
	err := s.repo.DeactivateItem(ctx, strings.TrimSpace(name))
	if err != nil && !common.IsBusinessError(err) {
		log.WithError(err).WithField("item", name).Error("Ошибка снятия предмета")
		return common.ErrTransactionFailed
	}
	return err
}
