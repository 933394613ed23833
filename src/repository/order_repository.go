package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Legiang98/hyperliquid-trading/src/database"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

// OrderRepository handles read/write operations for persisted order records.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main read/write database.
func NewOrderRepository() *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Info("Creating new OrderRepository with MainDB")

	return &OrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Debug("Creating OrderRepository with custom DB instance")

	return &OrderRepository{db: db}
}

// FindOpen fetches the latest "open" order record for a (symbol, strategy)
// pair. Returns (nil, nil) if none exists.
func (r *OrderRepository) FindOpen(
	ctx context.Context,
	symbol string,
	strategy string,
) (*model.Order, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "FindOpen",
		"symbol":   symbol,
		"strategy": strategy,
	}).Debug("Fetching open order")

	var order model.Order

	err := r.db.WithContext(ctx).
		Where("symbol = ? AND strategy = ? AND status = ?", symbol, strategy, model.OrderStatusOpen).
		Order("created_at DESC").
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":     "OrderRepository",
				"op":       "FindOpen",
				"symbol":   symbol,
				"strategy": strategy,
			}).Info("No open order found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "FindOpen",
			"symbol":   symbol,
			"strategy": strategy,
		}).WithError(err).Error("Failed to fetch open order")

		return nil, err
	}

	return &order, nil
}

// FindOpenEntry fetches the latest "open" entry-leg record (order_type
// "limit") for a (symbol, strategy) pair, skipping stop-loss legs. The
// entry leg carries the fill price that realized pnl is computed from.
// Returns (nil, nil) if none exists.
func (r *OrderRepository) FindOpenEntry(
	ctx context.Context,
	symbol string,
	strategy string,
) (*model.Order, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "FindOpenEntry",
		"symbol":   symbol,
		"strategy": strategy,
	}).Debug("Fetching open entry order")

	var order model.Order

	err := r.db.WithContext(ctx).
		Where("symbol = ? AND strategy = ? AND status = ? AND order_type = ?",
			symbol, strategy, model.OrderStatusOpen, model.OrderTypeLimit).
		Order("created_at DESC").
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":     "OrderRepository",
				"op":       "FindOpenEntry",
				"symbol":   symbol,
				"strategy": strategy,
			}).Info("No open entry order found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "FindOpenEntry",
			"symbol":   symbol,
			"strategy": strategy,
		}).WithError(err).Error("Failed to fetch open entry order")

		return nil, err
	}

	return &order, nil
}

// Create inserts a new order record into the database.
// The given order will be updated with the generated ID and timestamps.
func (r *OrderRepository) Create(
	ctx context.Context,
	order *model.Order,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "Create",
		"symbol":   order.Symbol,
		"strategy": order.Strategy,
		"side":     order.Side,
		"qty":      order.Quantity,
	}).Debug("Creating new order record")

	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create order record")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "Create",
		"order_id": order.ID,
	}).Info("Order record created successfully")

	return nil
}

// UpdateOid stores the exchange-assigned order id on an existing record.
func (r *OrderRepository) UpdateOid(
	ctx context.Context,
	id uint,
	oid string,
) error {

	logger.WithFields(map[string]interface{}{
		"repo": "OrderRepository",
		"op":   "UpdateOid",
		"id":   id,
		"oid":  oid,
	}).Debug("Updating order oid")

	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("oid", oid).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "UpdateOid",
			"id":   id,
			"oid":  oid,
		}).WithError(err).Error("Failed to update order oid")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "OrderRepository",
		"op":   "UpdateOid",
		"id":   id,
		"oid":  oid,
	}).Info("Order oid updated successfully")

	return nil
}

// Close marks a single order record "closed" with its realized pnl.
func (r *OrderRepository) Close(
	ctx context.Context,
	id uint,
	pnl float64,
) error {

	logger.WithFields(map[string]interface{}{
		"repo": "OrderRepository",
		"op":   "Close",
		"id":   id,
		"pnl":  pnl,
	}).Debug("Closing order record")

	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": model.OrderStatusClosed,
			"pnl":    pnl,
		}).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Close",
			"id":   id,
		}).WithError(err).Error("Failed to close order record")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "OrderRepository",
		"op":   "Close",
		"id":   id,
		"pnl":  pnl,
	}).Info("Order record closed successfully")

	return nil
}

// CloseAll marks every "open" record for a (symbol, strategy) pair "closed"
// with the realized pnl. Used on EXIT to retire the entry and its stop-loss
// leg together. Last-writer-wins; no locking.
func (r *OrderRepository) CloseAll(
	ctx context.Context,
	symbol string,
	strategy string,
	pnl float64,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "CloseAll",
		"symbol":   symbol,
		"strategy": strategy,
		"pnl":      pnl,
	}).Debug("Closing all open order records")

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("symbol = ? AND strategy = ? AND status = ?", symbol, strategy, model.OrderStatusOpen).
		Updates(map[string]interface{}{
			"status": model.OrderStatusClosed,
			"pnl":    pnl,
		})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "CloseAll",
			"symbol":   symbol,
			"strategy": strategy,
		}).WithError(result.Error).Error("Failed to close order records")

		return result.Error
	}

	logger.WithFields(map[string]interface{}{
		"repo":          "OrderRepository",
		"op":            "CloseAll",
		"symbol":        symbol,
		"strategy":      strategy,
		"rows_affected": result.RowsAffected,
	}).Info("Open order records closed")

	return nil
}
