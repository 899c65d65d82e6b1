package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mycase/internal/models"
)

const orderColumns = `id, user_id, customer_name, phone_number, address, brand, phone_model,
	attachment_ref, design_url, order_kind, design_id, personal_text, comment, status, created_at`

// AdminPageSize - заказов на странице админки.
const AdminPageSize = 20

// CreateOrder сохраняет заказ и возвращает присвоенный ID.
// Статус и дата создания назначаются базой.
// CreateOrder persists an order and returns the assigned ID.
// Status and creation time are assigned by the database.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) (int64, error) {
	if order.Kind == "" {
		order.Kind = models.OrderKindBot
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (user_id, customer_name, phone_number, address, brand, phone_model,
				attachment_ref, design_url, order_kind, design_id, personal_text, comment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, status, created_at`,
			order.UserID, order.CustomerName, order.PhoneNumber, order.Address, order.Brand, order.PhoneModel,
			order.AttachmentRef, order.DesignURL, order.Kind, order.DesignID, order.PersonalText, order.Comment,
		)
		return row.Scan(&order.ID, &order.Status, &order.CreatedAt)
	})
	if err != nil {
		return 0, fmt.Errorf("create order: %w", classify(err))
	}

	s.log.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("kind", string(order.Kind)),
		zap.Int64("user_id", order.UserID.Int64))
	return order.ID, nil
}

// GetOrder возвращает заказ по ID или ErrNotFound.
func (s *Store) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("get order %d: %w", id, classify(err))
	}
	return order, nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми.
// ListOrdersByUser returns a user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, classify(err))
	}
	return orders, nil
}

// DeleteAllOrders удаляет все заказы без возможности восстановления.
// DeleteAllOrders removes every order. There is no undo.
func (s *Store) DeleteAllOrders(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM orders`)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete all orders: %w", classify(err))
	}
	s.log.Warn("all orders deleted", zap.Int64("deleted", deleted))
	return deleted, nil
}

// ListOrdersPage отдает страницу заказов (по дате и ID, новые первыми).
// Номер страницы приводится к допустимому диапазону.
// ListOrdersPage returns one page of orders, newest first.
// The page number is clamped to the valid range.
func (s *Store) ListOrdersPage(ctx context.Context, page, size int) (models.OrderPage, error) {
	if size <= 0 {
		size = AdminPageSize
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`); err != nil {
		return models.OrderPage{}, fmt.Errorf("count orders: %w", classify(err))
	}

	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		size, (page-1)*size)
	if err != nil {
		return models.OrderPage{}, fmt.Errorf("list orders page %d: %w", page, classify(err))
	}

	return models.OrderPage{Orders: orders, Page: page, Pages: pages, Total: total}, nil
}

// ListOrdersSince возвращает заказы, созданные начиная с since (для выгрузки в Excel).
func (s *Store) ListOrdersSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE created_at >= $1 ORDER BY created_at DESC, id DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("list orders since %s: %w", since.Format(time.RFC3339), classify(err))
	}
	return orders, nil
}

// CountPendingSince считает необработанные заказы за период.
func (s *Store) CountPendingSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM orders WHERE status = $1 AND created_at >= $2`, models.OrderStatusPending, since)
	if err != nil {
		return 0, fmt.Errorf("count pending orders: %w", classify(err))
	}
	return count, nil
}

// ListAllOrders - все заказы для выгрузки, новые первыми.
func (s *Store) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", classify(err))
	}
	return orders, nil
}
