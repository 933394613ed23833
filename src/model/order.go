package model

import "time"

const (
	OrderStatusOpen   = "open"
	OrderStatusClosed = "closed"
)

const (
	OrderTypeLimit    = "limit"
	OrderTypeStopLoss = "stop_loss"
)

// Order is the persisted record of an order placed on the exchange.
// At most one "open" row per (symbol, strategy) is treated as authoritative
// for duplicate-entry prevention. This is enforced by application logic,
// not a database constraint.
type Order struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	UserAddress string   `gorm:"size:66;index" json:"user_address"`
	Symbol      string   `gorm:"size:20;index:idx_symbol_strategy_status" json:"symbol"`
	Strategy    string   `gorm:"size:60;index:idx_symbol_strategy_status" json:"strategy"`
	Quantity    float64  `json:"quantity"`
	OrderType   string   `gorm:"size:20" json:"order_type"`
	Action      string   `gorm:"size:20" json:"action"`
	Side        string   `gorm:"size:10" json:"side"`
	Price       float64  `json:"price"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	Pnl         *float64 `json:"pnl,omitempty"`
	// Oid is the exchange-assigned order identifier, filled in once the
	// exchange confirms the order.
	Oid       *string   `gorm:"size:40" json:"oid,omitempty"`
	Status    string    `gorm:"size:10;not null;default:open;index:idx_symbol_strategy_status" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName ensures that GORM uses the exact table name from the database.
func (Order) TableName() string {
	return "orders"
}
