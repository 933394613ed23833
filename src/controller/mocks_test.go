package controller

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Legiang98/hyperliquid-trading/src/connectors"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

type leverageCall struct {
	asset    int
	isCross  bool
	leverage int
}

type modifyCall struct {
	oid   int64
	order connectors.OrderWire
}

type mockExchange struct {
	assetMeta *connectors.AssetMeta
	assetID   int
	assetErr  error

	mid    decimal.Decimal
	midErr error

	openOrders    []connectors.OpenOrder
	openOrdersErr error

	position    *connectors.Position
	positionErr error

	placedOrders []connectors.OrderWire
	placeOids    []string
	placeErrs    []error

	cancelledOids []int64
	cancelErr     error

	modifies  []modifyCall
	modifyErr error

	leverageCalls []leverageCall
	leverageErr   error

	userAddress string
}

func (m *mockExchange) AssetInfo(ctx context.Context, symbol string) (*connectors.AssetMeta, int, error) {
	if m.assetErr != nil {
		return nil, 0, m.assetErr
	}
	return m.assetMeta, m.assetID, nil
}

func (m *mockExchange) MidPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return m.mid, m.midErr
}

func (m *mockExchange) OpenOrders(ctx context.Context) ([]connectors.OpenOrder, error) {
	return m.openOrders, m.openOrdersErr
}

func (m *mockExchange) Position(ctx context.Context, symbol string) (*connectors.Position, error) {
	return m.position, m.positionErr
}

func (m *mockExchange) PlaceOrder(ctx context.Context, order connectors.OrderWire) (string, error) {
	call := len(m.placedOrders)
	m.placedOrders = append(m.placedOrders, order)

	if call < len(m.placeErrs) && m.placeErrs[call] != nil {
		return "", m.placeErrs[call]
	}
	if call < len(m.placeOids) {
		return m.placeOids[call], nil
	}
	return "0", nil
}

func (m *mockExchange) CancelOrders(ctx context.Context, asset int, oids []int64) error {
	m.cancelledOids = append(m.cancelledOids, oids...)
	return m.cancelErr
}

func (m *mockExchange) ModifyOrder(ctx context.Context, oid int64, order connectors.OrderWire) error {
	m.modifies = append(m.modifies, modifyCall{oid: oid, order: order})
	return m.modifyErr
}

func (m *mockExchange) UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error {
	m.leverageCalls = append(m.leverageCalls, leverageCall{asset: asset, isCross: isCross, leverage: leverage})
	return m.leverageErr
}

func (m *mockExchange) UserAddress() string {
	return m.userAddress
}

type closeAllCall struct {
	symbol   string
	strategy string
	pnl      float64
}

// mockOrderRepo mirrors the real repository's semantics: openRecords is
// kept in insertion order and FindOpen returns the newest one, the same
// latest-record-wins behavior the created_at DESC query gives.
type mockOrderRepo struct {
	openRecords []*model.Order
	findErr     error

	created   []*model.Order
	createErr error

	oidUpdates map[uint]string
	oidErr     error

	closeAllCalls []closeAllCall
	closeAllErr   error
}

func (m *mockOrderRepo) FindOpen(ctx context.Context, symbol, strategy string) (*model.Order, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := len(m.openRecords) - 1; i >= 0; i-- {
		if m.openRecords[i].Status == model.OrderStatusOpen {
			return m.openRecords[i], nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) FindOpenEntry(ctx context.Context, symbol, strategy string) (*model.Order, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := len(m.openRecords) - 1; i >= 0; i-- {
		record := m.openRecords[i]
		if record.Status == model.OrderStatusOpen && record.OrderType == model.OrderTypeLimit {
			return record, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) Create(ctx context.Context, order *model.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = uint(len(m.created) + 1)
	m.created = append(m.created, order)
	m.openRecords = append(m.openRecords, order)
	return nil
}

func (m *mockOrderRepo) UpdateOid(ctx context.Context, id uint, oid string) error {
	if m.oidErr != nil {
		return m.oidErr
	}
	if m.oidUpdates == nil {
		m.oidUpdates = map[uint]string{}
	}
	m.oidUpdates[id] = oid
	return nil
}

func (m *mockOrderRepo) CloseAll(ctx context.Context, symbol, strategy string, pnl float64) error {
	m.closeAllCalls = append(m.closeAllCalls, closeAllCall{symbol: symbol, strategy: strategy, pnl: pnl})
	if m.closeAllErr != nil {
		return m.closeAllErr
	}
	for _, record := range m.openRecords {
		record.Status = model.OrderStatusClosed
	}
	return nil
}

func ptrFloat(v float64) *float64 {
	return &v
}
